package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadSpecs(t *testing.T) {
	result, errs := LoadSpecs(testSpecsDir, LoadModeCollectAll)
	require.Empty(t, errs)
	require.NotNil(t, result)

	assert.Equal(t, 1, result.FileCount)
	assert.Equal(t, []string{"adults", "by_v", "centenarians", "oldest_two", "page", "youngest"}, result.Names())

	p, ok := result.Lookup("adults")
	require.True(t, ok)
	assert.Equal(t, "Adults by name, one row per person", p.Description)
	assert.Len(t, p.Steps, 4)

	_, ok = result.Lookup("missing")
	assert.False(t, ok)
}

func TestLoadSpecs_FailFast(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "bad.cue", invalidSpecs)

	result, errs := LoadSpecs(dir, LoadModeFailFast)
	require.NotNil(t, result)
	require.Len(t, errs, 1)
	assert.Equal(t, ErrCodeInvalidFilter, asLoadError(errs[0]).Code)

	_, errs = LoadSpecs(dir, LoadModeCollectAll)
	assert.Len(t, errs, 3)
}

func TestLoadSpecs_NotADirectory(t *testing.T) {
	path := writeFile(t, t.TempDir(), "x.cue", "package x\n")

	result, errs := LoadSpecs(path, LoadModeCollectAll)
	assert.Nil(t, result)
	require.Len(t, errs, 1)
	assert.Equal(t, ErrCodeNotFound, asLoadError(errs[0]).Code)
}

func TestLoadError_Format(t *testing.T) {
	err := &LoadError{Code: ErrCodeGeneric, Message: "boom"}
	assert.Equal(t, "E001: boom", err.Error())
	assert.Equal(t, 0, err.Line())
}

func TestMapFieldToErrorCode(t *testing.T) {
	tests := map[string]string{
		"steps":      ErrCodeInvalidSteps,
		"step":       ErrCodeInvalidStep,
		"distinct":   ErrCodeInvalidStep,
		"where":      ErrCodeInvalidFilter,
		"first":      ErrCodeInvalidFilter,
		"skip":       ErrCodeInvalidCount,
		"take":       ErrCodeInvalidCount,
		"select":     ErrCodeInvalidSelect,
		"order_by":   ErrCodeInvalidOrderBy,
		"descending": ErrCodeInvalidOrderBy,
		"cue":        ErrCodeGeneric,
	}
	for field, want := range tests {
		t.Run(field, func(t *testing.T) {
			assert.Equal(t, want, MapFieldToErrorCode(field))
		})
	}
}
