package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/jk/internal/engine"
	"github.com/roach88/jk/internal/harness"
	"github.com/roach88/jk/internal/ir"
	"github.com/roach88/jk/internal/queryir"
)

// QueryOptions holds flags for the query command.
type QueryOptions struct {
	*RootOptions

	SpecsDir string
	Pipeline string

	Where      string
	OrderBy    string
	Descending bool
	Distinct   bool
	Skip       int
	Take       int
	Select     []string
	First      bool
	FirstWhere string

	InputFormat string // "json" | "yaml" | "" (by extension, JSON for stdin)
	Trace       bool
	MaxItems    int
}

// QueryResult is the JSON payload of the query command.
type QueryResult struct {
	RunID    string             `json:"run_id"`
	Pipeline string             `json:"pipeline,omitempty"`
	Count    int                `json:"count"`
	Columns  []string           `json:"columns,omitempty"`
	Items    ir.Array           `json:"items"`
	Trace    []engine.StepTrace `json:"trace,omitempty"`
}

// NewQueryCommand creates the query command.
func NewQueryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &QueryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "query [input-file]",
		Short: "Run a pipeline over JSON or YAML items",
		Long: `Run a pipeline over a list of items read from a file or stdin.

The pipeline is either a named pipeline from CUE specs (--specs, --pipeline)
or built from inline step flags. Inline steps run in this order:
where, order-by, distinct, skip, take, first, select.

Exit codes:
  0 - Pipeline succeeded
  1 - Pipeline failed (e.g. MIXED_KEY_KINDS, NEGATIVE_COUNT)
  2 - Command error (bad flags, unreadable input, unknown pipeline)

Examples:
  jk query people.json --where "age >= 18" --order-by name --select name,city
  jk query people.yaml --specs ./specs --pipeline adults
  cat people.json | jk query --order-by age --desc --take 2 --format json`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			input := "-"
			if len(args) == 1 {
				input = args[0]
			}
			return runQuery(cmd.Context(), opts, input, cmd)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.SpecsDir, "specs", "", "directory of CUE pipeline specs")
	f.StringVarP(&opts.Pipeline, "pipeline", "p", "", "name of the pipeline to run")
	f.StringVar(&opts.Where, "where", "", `filter expression, e.g. "age >= 18 and city == 'Oslo'"`)
	f.StringVar(&opts.OrderBy, "order-by", "", "sort key path")
	f.BoolVar(&opts.Descending, "desc", false, "sort descending")
	f.BoolVar(&opts.Distinct, "distinct", false, "drop structurally equal items")
	f.IntVar(&opts.Skip, "skip", 0, "drop the first N items")
	f.IntVar(&opts.Take, "take", 0, "keep the first N items")
	f.StringSliceVar(&opts.Select, "select", nil, "output fields as source or source:as")
	f.BoolVar(&opts.First, "first", false, "keep only the first item")
	f.StringVar(&opts.FirstWhere, "first-where", "", "keep only the first item matching a filter")
	f.StringVar(&opts.InputFormat, "input-format", "", "input format (json|yaml); default by file extension")
	f.BoolVar(&opts.Trace, "trace", false, "show the step trace")
	f.IntVar(&opts.MaxItems, "max-items", engine.DefaultMaxItems, "item quota per step (0 disables)")

	return cmd
}

func runQuery(ctx context.Context, opts *QueryOptions, input string, cmd *cobra.Command) error {
	if ctx == nil {
		ctx = context.Background()
	}
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	pipeline, loadErr := buildPipeline(opts, cmd)
	if loadErr != nil {
		_ = formatter.Error(loadErr.Code, loadErr.Message, nil)
		return NewExitError(ExitCommandError, loadErr.Error())
	}

	items, err := readItems(input, opts.InputFormat, cmd.InOrStdin())
	if err != nil {
		_ = formatter.Error(ErrCodeInvalidInput, err.Error(), nil)
		return WrapExitError(ExitCommandError, "reading input", err)
	}
	formatter.VerboseLog("Read %d item(s) from %s", len(items), input)

	eng := engine.New(
		engine.WithLogger(newLogger(opts.RootOptions, cmd.ErrOrStderr())),
		engine.WithMaxItems(opts.MaxItems),
	)
	res, err := eng.Execute(ctx, pipeline, items)
	if err != nil {
		code := harness.ErrorCode(err)
		_ = formatter.Error(code, err.Error(), nil)
		return WrapExitError(ExitFailure, "pipeline failed", err)
	}

	if formatter.JSON() {
		result := QueryResult{
			RunID:    res.RunID,
			Pipeline: res.Pipeline,
			Count:    len(res.Items),
			Columns:  res.Columns,
			Items:    ir.Array(res.Items),
		}
		if opts.Trace {
			result.Trace = res.Trace
		}
		return formatter.Respond(CLIResponse{Status: "ok", Data: result, TraceID: res.RunID})
	}

	if err := writeItemsText(formatter, res.Columns, res.Items); err != nil {
		return err
	}
	if opts.Trace {
		writeTraceText(formatter, res.Trace)
	}
	return nil
}

// buildPipeline resolves the named pipeline or assembles the inline one.
func buildPipeline(opts *QueryOptions, cmd *cobra.Command) (queryir.Pipeline, *LoadError) {
	inline, err := inlineSteps(opts, cmd)
	if err != nil {
		return queryir.Pipeline{}, err
	}

	if opts.Pipeline == "" {
		if len(inline) == 0 {
			return queryir.Pipeline{}, &LoadError{
				Code:    ErrCodeInvalidFlags,
				Message: "no steps: use --pipeline or inline step flags",
			}
		}
		return queryir.Pipeline{Name: "inline", Steps: inline}, nil
	}

	if len(inline) > 0 {
		return queryir.Pipeline{}, &LoadError{
			Code:    ErrCodeInvalidFlags,
			Message: "--pipeline cannot be combined with inline step flags",
		}
	}
	if opts.SpecsDir == "" {
		return queryir.Pipeline{}, &LoadError{
			Code:    ErrCodeInvalidFlags,
			Message: "--pipeline requires --specs",
		}
	}

	loadResult, loadErrors := LoadSpecs(opts.SpecsDir, LoadModeCollectAll)
	if len(loadErrors) > 0 {
		return queryir.Pipeline{}, asLoadError(loadErrors[0])
	}
	p, ok := loadResult.Lookup(opts.Pipeline)
	if !ok {
		return queryir.Pipeline{}, &LoadError{
			Code: ErrCodePipelineNotFound,
			Message: fmt.Sprintf("pipeline %q not found in %s (have: %s)",
				opts.Pipeline, opts.SpecsDir, strings.Join(loadResult.Names(), ", ")),
		}
	}
	return p, nil
}

// inlineSteps builds steps from the inline flags, in a fixed order.
func inlineSteps(opts *QueryOptions, cmd *cobra.Command) ([]queryir.Step, *LoadError) {
	var steps []queryir.Step
	changed := cmd.Flags().Changed

	if opts.Where != "" {
		pred, err := engine.ParseFilter(opts.Where)
		if err != nil {
			return nil, &LoadError{Code: ErrCodeInvalidFilter, Message: "--where: " + err.Error()}
		}
		steps = append(steps, queryir.Where{Filter: pred})
	}
	if opts.OrderBy != "" {
		steps = append(steps, queryir.OrderBy{Field: opts.OrderBy, Descending: opts.Descending})
	} else if opts.Descending {
		return nil, &LoadError{Code: ErrCodeInvalidFlags, Message: "--desc requires --order-by"}
	}
	if opts.Distinct {
		steps = append(steps, queryir.Distinct{})
	}
	if changed("skip") {
		steps = append(steps, queryir.Skip{N: opts.Skip})
	}
	if changed("take") {
		steps = append(steps, queryir.Take{N: opts.Take})
	}
	switch {
	case opts.FirstWhere != "":
		pred, err := engine.ParseFilter(opts.FirstWhere)
		if err != nil {
			return nil, &LoadError{Code: ErrCodeInvalidFilter, Message: "--first-where: " + err.Error()}
		}
		steps = append(steps, queryir.First{Filter: pred})
	case opts.First:
		steps = append(steps, queryir.First{})
	}
	if len(opts.Select) > 0 {
		sel, err := parseSelect(opts.Select)
		if err != nil {
			return nil, err
		}
		steps = append(steps, sel)
	}
	return steps, nil
}

// parseSelect turns "source" and "source:as" specs into a select step.
func parseSelect(specs []string) (queryir.Select, *LoadError) {
	var sel queryir.Select
	for _, spec := range specs {
		source, as, found := strings.Cut(strings.TrimSpace(spec), ":")
		if !found {
			as = source
		}
		if source == "" || as == "" {
			return queryir.Select{}, &LoadError{
				Code:    ErrCodeInvalidSelect,
				Message: fmt.Sprintf("--select: invalid field %q", spec),
			}
		}
		sel.Fields = append(sel.Fields, queryir.FieldBinding{Source: source, As: as})
	}
	return sel, nil
}

// readItems reads the input list from a file, or from stdin for "-".
func readItems(input, format string, stdin io.Reader) ([]ir.Value, error) {
	var (
		data []byte
		err  error
	)
	if input == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(input)
	}
	if err != nil {
		return nil, err
	}

	ext := ".json"
	switch strings.ToLower(format) {
	case "json":
	case "yaml", "yml":
		ext = ".yaml"
	case "":
		if input != "-" {
			ext = filepath.Ext(input)
		}
	default:
		return nil, fmt.Errorf("unknown input format %q", format)
	}
	return harness.DecodeItems(data, ext)
}

// writeItemsText prints a table when a select fixed the columns, and one
// canonical JSON item per line otherwise.
func writeItemsText(formatter *OutputFormatter, columns []string, items []ir.Value) error {
	if len(columns) == 0 {
		for _, item := range items {
			data, err := ir.MarshalCanonical(item)
			if err != nil {
				return err
			}
			fmt.Fprintln(formatter.Writer, string(data))
		}
		return nil
	}

	rows := make([][]string, len(items))
	for i, item := range items {
		obj, _ := item.(ir.Object)
		row := make([]string, len(columns))
		for j, col := range columns {
			v, ok := obj[col]
			if !ok {
				continue
			}
			row[j] = cellText(v)
		}
		rows[i] = row
	}
	formatter.Table(columns, rows)
	return nil
}

func cellText(v ir.Value) string {
	switch val := v.(type) {
	case ir.String:
		return string(val)
	case ir.Int:
		return strconv.FormatInt(int64(val), 10)
	}
	data, err := ir.MarshalCanonical(v)
	if err != nil {
		return fmt.Sprintf("<%v>", err)
	}
	return string(data)
}

func writeTraceText(formatter *OutputFormatter, trace []engine.StepTrace) {
	rows := make([][]string, len(trace))
	for i, st := range trace {
		rows[i] = []string{
			strconv.FormatInt(st.Seq, 10),
			strconv.Itoa(st.Index),
			st.Op,
			strconv.Itoa(st.In),
			strconv.Itoa(st.Out),
		}
	}
	formatter.Table([]string{"seq", "step", "op", "in", "out"}, rows)
}
