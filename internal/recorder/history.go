package recorder

import (
	"context"
	"time"

	"github.com/san-kum/coilgun/internal/evolution"
	"github.com/san-kum/coilgun/internal/history"
	"gopkg.in/yaml.v3"
)

// History persists the run and every generation in a history database.
type History struct {
	DB   *history.DB
	Seed int64

	runID string
	clock clock
}

func NewHistory(db *history.DB, seed int64) *History {
	return &History{DB: db, Seed: seed}
}

// RunID is empty before Setup.
func (h *History) RunID() string {
	return h.runID
}

func (h *History) Setup(ctx context.Context, e *evolution.Engine) error {
	id, err := h.DB.CreateRun(ctx, e.Size(), e.LastGeneration(), h.Seed)
	if err != nil {
		return err
	}
	h.runID = id
	h.clock.reset(e.Generation())
	return nil
}

func (h *History) Record(ctx context.Context, e *evolution.Engine) error {
	snap, err := Take(ctx, e)
	if err != nil {
		return err
	}
	return h.DB.RecordGeneration(ctx, h.runID, snap.Generation, snap.Mean, snap.Best, snap.GenerationBest, h.clock.elapsed())
}

func (h *History) Summary(ctx context.Context, e *evolution.Engine) error {
	return h.finish(ctx, e, history.StatusFinished)
}

// Fail marks the run failed. It is a no-op before Setup.
func (h *History) Fail(ctx context.Context, e *evolution.Engine) error {
	if h.runID == "" {
		return nil
	}
	return h.finish(ctx, e, history.StatusFailed)
}

func (h *History) finish(ctx context.Context, e *evolution.Engine, status string) error {
	best, score := e.Best()
	var dna string
	if best != nil {
		data, err := yaml.Marshal(best)
		if err != nil {
			return err
		}
		dna = string(data)
	}
	// a cancelled run still gets its final status
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	return h.DB.FinishRun(ctx, h.runID, status, score, dna)
}
