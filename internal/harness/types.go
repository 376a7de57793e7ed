package harness

import (
	"github.com/roach88/jk/internal/engine"
	"github.com/roach88/jk/internal/ir"
)

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass indicates overall test success.
	// True if the output, error code and every assertion matched.
	Pass bool `json:"pass"`

	// RunID is the run ID the engine stamped on the run.
	RunID string `json:"run_id,omitempty"`

	// Output holds the pipeline output. Nil when the pipeline failed.
	Output []ir.Value `json:"output"`

	// Columns is the select order of the output fields, if any.
	Columns []string `json:"columns,omitempty"`

	// Steps traces the executed steps.
	Steps []engine.StepTrace `json:"steps,omitempty"`

	// ErrorCode is the code of the pipeline failure, if it failed.
	ErrorCode string `json:"error_code,omitempty"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
// Used as the starting point for test execution.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
