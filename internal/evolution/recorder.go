package evolution

import "context"

// Recorder observes a run. Every registered recorder is called in
// registration order at each hook; the first error aborts the run.
type Recorder interface {
	// Setup runs once before the first generation.
	Setup(ctx context.Context, e *Engine) error
	// Record runs after every generation advance.
	Record(ctx context.Context, e *Engine) error
	// Summary runs once after the last generation.
	Summary(ctx context.Context, e *Engine) error
}

// RecorderFuncs adapts plain functions to a Recorder. Nil hooks are skipped.
type RecorderFuncs struct {
	SetupFunc   func(ctx context.Context, e *Engine) error
	RecordFunc  func(ctx context.Context, e *Engine) error
	SummaryFunc func(ctx context.Context, e *Engine) error
}

func (r RecorderFuncs) Setup(ctx context.Context, e *Engine) error {
	if r.SetupFunc == nil {
		return nil
	}
	return r.SetupFunc(ctx, e)
}

func (r RecorderFuncs) Record(ctx context.Context, e *Engine) error {
	if r.RecordFunc == nil {
		return nil
	}
	return r.RecordFunc(ctx, e)
}

func (r RecorderFuncs) Summary(ctx context.Context, e *Engine) error {
	if r.SummaryFunc == nil {
		return nil
	}
	return r.SummaryFunc(ctx, e)
}
