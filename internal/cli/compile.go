package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/jk/internal/queryir"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Output string // output file path
}

// PipelineSummary describes one compiled pipeline.
type PipelineSummary struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Steps       []string `json:"steps"`
}

// CompilationResult holds the compiled pipelines.
type CompilationResult struct {
	Pipelines []PipelineSummary `json:"pipelines"`
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <specs-dir>",
		Short: "Compile CUE pipeline specs",
		Long: `Compile the CUE pipeline specs in a directory and list the result.

Each pipeline is shown with its step operations in execution order.
With --output the listing is also written to a JSON file.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file path")

	return cmd
}

func runCompile(opts *CompileOptions, specsDir string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	loadResult, loadErrors := LoadSpecs(specsDir, LoadModeCollectAll)
	if loadResult == nil {
		loadErr := asLoadError(loadErrors[0])
		_ = formatter.Error(loadErr.Code, loadErr.Message, nil)
		return NewExitError(ExitCommandError, loadErr.Error())
	}

	formatter.VerboseLog("Found %d CUE file(s) in %s", loadResult.FileCount, specsDir)

	if len(loadErrors) > 0 {
		return outputCompileErrors(formatter, loadErrors)
	}

	result := CompilationResult{Pipelines: make([]PipelineSummary, 0, len(loadResult.Pipelines))}
	for _, p := range loadResult.Pipelines {
		formatter.VerboseLog("Compiled pipeline: %s", p.Name)
		result.Pipelines = append(result.Pipelines, summarize(p))
	}

	if opts.Output != "" {
		if err := writeSummary(result, opts.Output); err != nil {
			_ = formatter.Error(ErrCodeWriteFailed, fmt.Sprintf("writing output file: %v", err), nil)
			return WrapExitError(ExitCommandError, "writing output file", err)
		}
	}

	if formatter.JSON() {
		return formatter.Success(result)
	}

	w := formatter.Writer
	fmt.Fprintf(w, "✓ Compiled %d pipeline(s)\n", len(result.Pipelines))
	for _, p := range result.Pipelines {
		fmt.Fprintf(w, "  %s: %s\n", p.Name, strings.Join(p.Steps, " → "))
	}
	if opts.Output != "" {
		fmt.Fprintf(w, "  written to %s\n", opts.Output)
	}
	return nil
}

func summarize(p queryir.Pipeline) PipelineSummary {
	steps := make([]string, len(p.Steps))
	for i, s := range p.Steps {
		steps[i] = queryir.StepName(s)
	}
	return PipelineSummary{Name: p.Name, Description: p.Description, Steps: steps}
}

func writeSummary(result CompilationResult, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := writeJSON(f, result); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func outputCompileErrors(formatter *OutputFormatter, errs []error) error {
	failure := NewExitError(ExitFailure, fmt.Sprintf("compilation failed with %d error(s)", len(errs)))

	if formatter.JSON() {
		issues := make([]ValidationIssue, len(errs))
		for i, err := range errs {
			loadErr := asLoadError(err)
			issues[i] = ValidationIssue{Code: loadErr.Code, Message: loadErr.Message, Line: loadErr.Line()}
		}
		first := issues[0]
		if err := formatter.Respond(CLIResponse{
			Status: "error",
			Error:  &CLIError{Code: first.Code, Message: first.Message, Details: issues},
		}); err != nil {
			return err
		}
		return failure
	}

	fmt.Fprintln(formatter.Writer, "✗ Compilation failed")
	for _, err := range errs {
		fmt.Fprintf(formatter.Writer, "  %v\n", err)
	}
	return failure
}
