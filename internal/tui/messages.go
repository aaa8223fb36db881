package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/mmcdole/playloop/internal/nav"
)

// Engine is the navigation surface the model drives
type Engine interface {
	Dispatch(ctx context.Context, ev nav.Event) error
	Restore(ctx context.Context, fragment string) error
	Back(ctx context.Context) error
	Forward(ctx context.Context) error
}

// ViewMsg carries a rendered page from the engine
type ViewMsg struct {
	View nav.View
}

// ErrMsg reports a failed engine call
type ErrMsg struct {
	Err     error
	Context string
}

// Error implements the error interface
func (e ErrMsg) Error() string {
	if e.Context != "" {
		return e.Context + ": " + e.Err.Error()
	}
	return e.Err.Error()
}

// ProgramRenderer forwards engine views into a running Bubble Tea program
type ProgramRenderer struct {
	send func(tea.Msg)
}

// NewProgramRenderer creates a renderer bound to p
func NewProgramRenderer(p *tea.Program) *ProgramRenderer {
	return &ProgramRenderer{send: p.Send}
}

// Render implements nav.Renderer
func (r *ProgramRenderer) Render(v nav.View) {
	r.send(ViewMsg{View: v})
}

var _ nav.Renderer = (*ProgramRenderer)(nil)

// DispatchCmd applies ev off the UI goroutine. Views arrive separately as ViewMsg.
func DispatchCmd(engine Engine, ev nav.Event) tea.Cmd {
	return func() tea.Msg {
		if err := engine.Dispatch(context.Background(), ev); err != nil {
			return ErrMsg{Err: err, Context: ev.Kind.String()}
		}
		return nil
	}
}

// RestoreCmd enters the state encoded in fragment
func RestoreCmd(engine Engine, fragment string) tea.Cmd {
	return func() tea.Msg {
		if err := engine.Restore(context.Background(), fragment); err != nil {
			return ErrMsg{Err: err, Context: "open " + fragment}
		}
		return nil
	}
}

// BackCmd replays the previous history entry
func BackCmd(engine Engine) tea.Cmd {
	return func() tea.Msg {
		if err := engine.Back(context.Background()); err != nil {
			return ErrMsg{Err: err, Context: "back"}
		}
		return nil
	}
}

// ForwardCmd replays the next history entry
func ForwardCmd(engine Engine) tea.Cmd {
	return func() tea.Msg {
		if err := engine.Forward(context.Background()); err != nil {
			return ErrMsg{Err: err, Context: "forward"}
		}
		return nil
	}
}
