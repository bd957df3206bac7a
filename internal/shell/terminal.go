package shell

import (
	"fmt"
	"strings"

	"github.com/fatih/color"

	"darkoos/internal/interp"
	"darkoos/internal/programs"
)

const clearScreen = "\033[H\033[2J"

// terminal is a command interpreter window. It is the interpreter's Host.
type terminal struct {
	id     string
	m      *Manager
	in     *interp.Interpreter
	closed bool
}

func newTerminal(m *Manager) *terminal {
	t := &terminal{id: newWindowID(), m: m}
	t.in = interp.New(m.disk, t)
	return t
}

func (t *terminal) ID() string    { return t.id }
func (t *terminal) Title() string { return "Terminal" }

func (t *terminal) Run() error {
	text := color.New(color.FgGreen)
	text.Fprint(t.m.out, interp.Banner)

	for !t.closed && !t.m.ended {
		line, err := t.m.in.ReadLine(interp.Prompt, t.in.History())
		if err != nil {
			return err
		}

		a := t.in.Execute(line)
		if a.Cleared {
			fmt.Fprint(t.m.out, clearScreen)
		}
		if a.Exit {
			break
		}
		// the line reader prints the next prompt itself
		text.Fprint(t.m.out, strings.TrimSuffix(a.Text, interp.Prompt))
	}
	return nil
}

func (t *terminal) Launch(p programs.Program) error {
	return t.m.Launch(p)
}

func (t *terminal) OpenFile(path, content string) error {
	return t.m.OpenViewer(path, content)
}

func (t *terminal) Close() {
	t.closed = true
}
