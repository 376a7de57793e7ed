package seq

import (
	"fmt"

	"github.com/roach88/jk/internal/ir"
)

// Distinct returns the items in first-occurrence order with structural
// duplicates removed. Two items are duplicates when their canonical
// serializations match, so separately built values with equal contents
// collapse into the first one.
//
// Runs in linear time over a fingerprint set. Items without a canonical
// form produce an UNSERIALIZABLE_ITEM error.
func Distinct[T any](items []T) ([]T, error) {
	out := make([]T, 0, len(items))
	seen := make(map[string]struct{}, len(items))
	for i, item := range items {
		fp, err := ir.Fingerprint(item)
		if err != nil {
			return nil, &QueryError{
				Code:    ErrCodeUnserializableItem,
				Op:      "distinct",
				Message: fmt.Sprintf("item has no canonical form: %v", err),
				Index:   i,
				Err:     err,
			}
		}
		if _, dup := seen[fp]; dup {
			continue
		}
		seen[fp] = struct{}{}
		out = append(out, item)
	}
	return out, nil
}
