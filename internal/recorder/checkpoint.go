package recorder

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/san-kum/coilgun/internal/evolution"
)

const (
	RulesFile   = "rules.yaml"
	BestDNAFile = "best_DNA.yaml"
)

// Checkpoint saves the population every Every generations under Dir,
// together with the mutation rules and the best genome of the run.
type Checkpoint struct {
	Every int
	Dir   string
}

// Setup creates Dir, which must not exist yet, and saves the rules.
func (c *Checkpoint) Setup(ctx context.Context, e *evolution.Engine) error {
	if err := os.MkdirAll(filepath.Dir(c.Dir), 0755); err != nil {
		return err
	}
	if err := os.Mkdir(c.Dir, 0755); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return fmt.Errorf("%w: output directory %s already exists", evolution.ErrCheckpointCollision, c.Dir)
		}
		return err
	}
	return e.Rules().Save(filepath.Join(c.Dir, RulesFile))
}

func (c *Checkpoint) Record(ctx context.Context, e *evolution.Engine) error {
	gen := e.Generation()
	if c.Every <= 0 || gen == 0 || gen%c.Every != 0 {
		return nil
	}
	_, err := e.Checkpoint(c.Dir)
	return err
}

// Summary saves the best genome. A run without any finite score has none.
func (c *Checkpoint) Summary(ctx context.Context, e *evolution.Engine) error {
	best, _ := e.Best()
	if best == nil {
		return nil
	}
	return best.Save(filepath.Join(c.Dir, BestDNAFile))
}
