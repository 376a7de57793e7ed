package dom

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/jk/internal/testutil"
)

func TestScan_LogsEveryElement(t *testing.T) {
	doc := mustParse(t, `<div id="main" class="a b"><p>x</p></div>`)
	logger, rec := testutil.NewLogger()

	n := Scan(doc, logger)

	assert.Equal(t, 5, n)
	entries := rec.Find("element")
	require.Len(t, entries, 5)

	assert.Equal(t, slog.LevelInfo, entries[0].Level)
	assert.Equal(t, "html", entries[0].Attrs["tag"])
	assert.EqualValues(t, 0, entries[0].Attrs["index"])

	div := entries[3]
	assert.Equal(t, "div", div.Attrs["tag"])
	assert.Equal(t, "main", div.Attrs["id"])
	assert.Equal(t, "a b", div.Attrs["class"])

	_, hasID := entries[4].Attrs["id"]
	assert.False(t, hasID)

	done := rec.Find("scan complete")
	require.Len(t, done, 1)
	assert.Equal(t, slog.LevelDebug, done[0].Level)
	assert.EqualValues(t, 5, done[0].Attrs["elements"])
}

func TestScan_DoesNotMutate(t *testing.T) {
	doc := mustParse(t, page)
	before := doc.String()

	logger, _ := testutil.NewLogger()
	Scan(doc, logger)

	assert.Equal(t, before, doc.String())
}

func TestScan_NilLogger(t *testing.T) {
	doc := NewDocument()
	assert.NotPanics(t, func() {
		assert.Equal(t, 3, Scan(doc, nil))
	})
}
