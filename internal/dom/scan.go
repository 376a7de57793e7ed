package dom

import "log/slog"

// Scan walks every element of doc in document order and logs it. It
// returns the number of elements and has no other effect.
func Scan(doc *Document, logger *slog.Logger) int {
	if logger == nil {
		logger = slog.Default()
	}

	elements := doc.Elements()
	for i, el := range elements {
		attrs := []any{"index", i, "tag", el.Tag()}
		if id, ok := el.Attr("id"); ok {
			attrs = append(attrs, "id", id)
		}
		if class, ok := el.Attr("class"); ok {
			attrs = append(attrs, "class", class)
		}
		logger.Info("element", attrs...)
	}

	logger.Debug("scan complete", "elements", len(elements))
	return len(elements)
}
