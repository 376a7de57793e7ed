package engine

// DefaultMaxItems is the default maximum number of items a pipeline may
// receive or produce at any step.
const DefaultMaxItems = 1_000_000

// checkQuota rejects an item count above the engine limit. A limit of 0
// disables the check.
func (e *Engine) checkQuota(pipeline string, step int, op string, n int) error {
	if e.maxItems > 0 && n > e.maxItems {
		return NewQuotaError(pipeline, step, op, n, e.maxItems)
	}
	return nil
}
