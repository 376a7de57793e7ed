package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/jk/internal/queryir"
)

// ValidationIssue is one problem found in the specs.
type ValidationIssue struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Line    int    `json:"line,omitempty"`
}

// PipelineWarning is a runnable but suspicious construct.
type PipelineWarning struct {
	Pipeline string `json:"pipeline"`
	Message  string `json:"message"`
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid     bool              `json:"valid"`
	Pipelines int               `json:"pipelines"`
	Errors    []ValidationIssue `json:"errors,omitempty"`
	Warnings  []PipelineWarning `json:"warnings,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <specs-dir>",
		Short: "Validate pipeline specs",
		Long: `Validate the CUE pipeline specs in a directory.

Every pipeline is compiled and checked, and every error is reported, not
only the first. Warnings flag fields read after a select that drops them.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, specsDir string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd.OutOrStdout(), cmd.ErrOrStderr())

	loadResult, loadErrors := LoadSpecs(specsDir, LoadModeCollectAll)

	// Directory not found, no files, CUE build failure
	if loadResult == nil {
		loadErr := asLoadError(loadErrors[0])
		return outputValidateError(formatter, loadErr.Code, loadErr.Message)
	}

	formatter.VerboseLog("Found %d CUE file(s) in %s", loadResult.FileCount, specsDir)

	result := ValidationResult{Pipelines: len(loadResult.Pipelines)}
	for _, err := range loadErrors {
		loadErr := asLoadError(err)
		result.Errors = append(result.Errors, ValidationIssue{
			Code:    loadErr.Code,
			Message: loadErr.Message,
			Line:    loadErr.Line(),
		})
	}
	for _, p := range loadResult.Pipelines {
		formatter.VerboseLog("Validated pipeline: %s (%d steps)", p.Name, len(p.Steps))
		for _, w := range queryir.Validate(p).Warnings {
			result.Warnings = append(result.Warnings, PipelineWarning{Pipeline: p.Name, Message: w})
		}
	}
	result.Valid = len(result.Errors) == 0

	if !result.Valid {
		return outputValidationErrors(formatter, result)
	}
	return outputValidateSuccess(formatter, result)
}

// outputValidateSuccess outputs successful validation results.
func outputValidateSuccess(formatter *OutputFormatter, result ValidationResult) error {
	if formatter.JSON() {
		return formatter.Success(result)
	}

	w := formatter.Writer
	fmt.Fprintf(w, "✓ All specs valid (%d pipelines)\n", result.Pipelines)
	for _, warn := range result.Warnings {
		fmt.Fprintf(w, "  warning: %s: %s\n", warn.Pipeline, warn.Message)
	}
	return nil
}

// outputValidateError outputs a single command-level error.
func outputValidateError(formatter *OutputFormatter, code, message string) error {
	_ = formatter.Error(code, message, nil)
	return NewExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message))
}

// outputValidationErrors outputs every validation error.
func outputValidationErrors(formatter *OutputFormatter, result ValidationResult) error {
	failure := NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(result.Errors)))

	if formatter.JSON() {
		first := result.Errors[0]
		if err := formatter.Respond(CLIResponse{
			Status: "error",
			Data:   result,
			Error:  &CLIError{Code: first.Code, Message: first.Message},
		}); err != nil {
			return err
		}
		return failure
	}

	w := formatter.Writer
	fmt.Fprintln(w, "✗ Validation failed")
	fmt.Fprintln(w)
	for _, e := range result.Errors {
		if e.Line > 0 {
			fmt.Fprintf(w, "line %d\n", e.Line)
		}
		fmt.Fprintf(w, "  %s: %s\n\n", e.Code, e.Message)
	}
	return failure
}
