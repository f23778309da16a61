package recorder

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/san-kum/coilgun/internal/evolution"
	"github.com/san-kum/coilgun/internal/viz"
)

// Sender is satisfied by *tea.Program.
type Sender interface {
	Send(msg tea.Msg)
}

// Live forwards generation statistics to the dashboard.
type Live struct {
	Program Sender

	clock clock
}

func NewLive(p Sender) *Live {
	return &Live{Program: p}
}

func (l *Live) Setup(ctx context.Context, e *evolution.Engine) error {
	l.clock.reset(e.Generation())
	return nil
}

func (l *Live) Record(ctx context.Context, e *evolution.Engine) error {
	snap, err := Take(ctx, e)
	if err != nil {
		return err
	}
	msg := viz.GenerationMsg{
		Generation:     snap.Generation,
		LastGeneration: snap.LastGeneration,
		Mean:           snap.Mean,
		Best:           snap.Best,
		GenerationBest: snap.GenerationBest,
		Elapsed:        l.clock.elapsed(),
	}
	if snap.BestDNA != nil {
		msg.BestDNA = snap.BestDNA.Clone()
	}
	l.Program.Send(msg)
	return nil
}

func (l *Live) Summary(ctx context.Context, e *evolution.Engine) error {
	l.Program.Send(viz.DoneMsg{})
	return nil
}
