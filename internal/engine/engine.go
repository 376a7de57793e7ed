package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/roach88/jk/internal/ir"
	"github.com/roach88/jk/internal/queryir"
	"github.com/roach88/jk/internal/seq"
)

// Engine executes pipelines over sequences of ir.Value items.
//
// Thread-safety: Execute may be called from multiple goroutines. Runs
// share only the clock and the run ID generator, both of which are safe
// for concurrent use.
type Engine struct {
	logger   *slog.Logger
	clock    *Clock
	runIDs   RunIDGenerator
	maxItems int
}

// EngineOption allows configuration of engine parameters.
type EngineOption func(*Engine)

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) EngineOption {
	return func(e *Engine) {
		e.logger = l
	}
}

// WithRunIDGenerator replaces the UUIDv7 run ID generator.
func WithRunIDGenerator(g RunIDGenerator) EngineOption {
	return func(e *Engine) {
		e.runIDs = g
	}
}

// WithClock sets the clock used to stamp step traces.
func WithClock(c *Clock) EngineOption {
	return func(e *Engine) {
		e.clock = c
	}
}

// WithMaxItems sets the item quota. Default: DefaultMaxItems. 0 disables it.
func WithMaxItems(n int) EngineOption {
	return func(e *Engine) {
		e.maxItems = n
	}
}

// New creates an Engine.
func New(opts ...EngineOption) *Engine {
	e := &Engine{
		logger:   slog.Default(),
		clock:    NewClock(),
		runIDs:   UUIDv7Generator{},
		maxItems: DefaultMaxItems,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// StepTrace records one executed step.
type StepTrace struct {
	Seq   int64  `json:"seq"`
	Index int    `json:"index"`
	Op    string `json:"op"`
	In    int    `json:"in"`
	Out   int    `json:"out"`
}

// Result is the output of one pipeline run.
type Result struct {
	RunID    string
	Pipeline string
	Items    []ir.Value

	// Columns lists the output field order of the last select step, or nil
	// when the pipeline has no select.
	Columns []string

	Trace []StepTrace
}

// Execute validates p and applies its steps to items in order.
//
// The input slice is never modified. Errors are *RuntimeError values
// wrapping the underlying cause, so seq.CodeOf still reports the
// operation error code.
func (e *Engine) Execute(ctx context.Context, p queryir.Pipeline, items []ir.Value) (*Result, error) {
	runID := e.runIDs.Generate()
	logger := e.logger.With("pipeline", p.Name, "run_id", runID)

	validation := queryir.Validate(p)
	for _, w := range validation.Warnings {
		logger.Warn("pipeline warning", "warning", w)
	}
	if !validation.Valid {
		return nil, &RuntimeError{
			Code:     ErrCodeInvalidPipeline,
			Message:  validation.Err().Error(),
			Pipeline: p.Name,
			Step:     -1,
			Err:      validation.Err(),
		}
	}

	if err := e.checkQuota(p.Name, -1, "", len(items)); err != nil {
		return nil, err
	}

	res := &Result{
		RunID:    runID,
		Pipeline: p.Name,
		Items:    items,
		Trace:    make([]StepTrace, 0, len(p.Steps)),
	}

	for i, raw := range p.Steps {
		step := queryir.Normalize(raw)
		op := queryir.StepName(step)

		if err := ctx.Err(); err != nil {
			logger.Info("pipeline cancelled", "step", i, "op", op)
			return nil, &RuntimeError{
				Code:     ErrCodeCancelled,
				Message:  "context cancelled",
				Pipeline: p.Name,
				Step:     i,
				Op:       op,
				Err:      err,
			}
		}

		in := len(res.Items)
		out, columns, err := executeStep(step, res.Items)
		if err != nil {
			logger.Error("step failed", "step", i, "op", op, "error", err)
			return nil, newStepError(p.Name, i, op, err)
		}
		if err := e.checkQuota(p.Name, i, op, len(out)); err != nil {
			return nil, err
		}
		if columns != nil {
			res.Columns = columns
		}
		res.Items = out

		trace := StepTrace{Seq: e.clock.Next(), Index: i, Op: op, In: in, Out: len(out)}
		res.Trace = append(res.Trace, trace)
		logger.Debug("step executed",
			"seq", trace.Seq,
			"step", i,
			"op", op,
			"in", trace.In,
			"out", trace.Out,
		)
	}

	if len(p.Steps) == 0 {
		res.Items = seq.Copy(items)
	}

	logger.Info("pipeline executed",
		"steps", len(p.Steps),
		"items_in", len(items),
		"items_out", len(res.Items),
	)
	return res, nil
}

// executeStep runs one normalized step. columns is non-nil for select.
func executeStep(step queryir.Step, items []ir.Value) (out []ir.Value, columns []string, err error) {
	switch s := step.(type) {
	case queryir.Where:
		return seq.Where(items, Matcher(s.Filter)), nil, nil

	case queryir.OrderBy:
		key := seq.Field(s.Field)
		if s.Descending {
			out, err = seq.OrderByDescending(items, key)
		} else {
			out, err = seq.OrderBy(items, key)
		}
		if err != nil {
			return nil, nil, err
		}
		// Short inputs come back unchanged; detach them from the caller.
		if len(out) <= 1 {
			out = seq.Copy(out)
		}
		return out, nil, nil

	case queryir.Distinct:
		out, err = seq.Distinct(items)
		return out, nil, err

	case queryir.Skip:
		out, err = seq.Skip(items, s.N)
		return out, nil, err

	case queryir.Take:
		out, err = seq.Take(items, s.N)
		return out, nil, err

	case queryir.Select:
		return selectFields(s, items)

	case queryir.First:
		first, ok := seq.First(items, Matcher(s.Filter))
		if !ok {
			return []ir.Value{}, nil, nil
		}
		return []ir.Value{first}, nil, nil

	default:
		return nil, nil, fmt.Errorf("unsupported step %T", step)
	}
}

// selectFields projects every item onto the bound fields. A source field
// the item lacks projects to null.
func selectFields(s queryir.Select, items []ir.Value) ([]ir.Value, []string, error) {
	projections := make([]seq.Projection[ir.Value], len(s.Fields))
	for i, f := range s.Fields {
		source := f.Source
		projections[i] = seq.Project(f.As, func(item ir.Value) any {
			v, ok := lookup(item, source)
			if !ok {
				return ir.Null{}
			}
			return v
		})
	}

	records := seq.Select(items, projections...)
	out := make([]ir.Value, len(records))
	for i, rec := range records {
		obj, err := rec.Object()
		if err != nil {
			return nil, nil, fmt.Errorf("item %d: %w", i, err)
		}
		out[i] = obj
	}

	return out, selectColumns(s), nil
}

func selectColumns(s queryir.Select) []string {
	columns := make([]string, 0, len(s.Fields))
	seen := make(map[string]bool, len(s.Fields))
	for _, f := range s.Fields {
		if !seen[f.As] {
			seen[f.As] = true
			columns = append(columns, f.As)
		}
	}
	return columns
}
