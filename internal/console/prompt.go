// Package console holds the interactive "press enter" gate shown before
// namescrub exits. Scripted runs swap it for NoPause.
package console

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"namescrub/internal/errors"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

// ExitPrompt is shown before the process exits.
const ExitPrompt = "Press enter to exit"

// Pause modes accepted by ForMode.
const (
	PauseAlways = "always"
	PauseNever  = "never"
	PauseAuto   = "auto"
)

var promptStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(lipgloss.Color("213"))

// Pauser blocks until the user acknowledges a prompt written to w.
type Pauser interface {
	Pause(w io.Writer, prompt string) error
}

// Prompter waits for one line of input per prompt. All prompts share one
// buffered reader so typed-ahead lines are not lost between them.
type Prompter struct {
	in *bufio.Reader
}

// NewPrompter reads acknowledgements from in.
func NewPrompter(in io.Reader) *Prompter {
	return &Prompter{in: bufio.NewReader(in)}
}

// Pause writes prompt and reads a single line. Reaching the end of input
// counts as an acknowledgement.
func (p *Prompter) Pause(w io.Writer, prompt string) error {
	if _, err := fmt.Fprintln(w, promptStyle.Render(prompt)); err != nil {
		return err
	}
	_, err := p.in.ReadString('\n')
	if err != nil && err != io.EOF {
		return err
	}
	return nil
}

// NoPause never blocks.
type NoPause struct{}

// Pause returns immediately.
func (NoPause) Pause(io.Writer, string) error { return nil }

// ForMode picks a Pauser for mode. Auto mode prompts only when in is a
// terminal.
func ForMode(mode string, in io.Reader) (Pauser, error) {
	switch mode {
	case PauseAlways, "":
		return NewPrompter(in), nil
	case PauseNever:
		return NoPause{}, nil
	case PauseAuto:
		if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
			return NewPrompter(in), nil
		}
		return NoPause{}, nil
	default:
		return nil, errors.NewConfigError("invalid pause mode", mode, errors.InvalidConfig, nil)
	}
}
