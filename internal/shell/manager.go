// Package shell implements the text-mode desktop of the simulated OS: the
// login gate, the desktop and the program windows opened from it.
package shell

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/fatih/color"
	"github.com/google/uuid"

	"darkoos/internal/config"
	"darkoos/internal/disk"
	"darkoos/internal/logging"
	"darkoos/internal/programs"
)

var (
	shellLogger = logging.GetLogger().WithPrefix("shell")

	// ErrTooManyWindows is returned when the window stack is full.
	ErrTooManyWindows = errors.New("too many windows open")
)

// MaxWindows bounds the depth of the window stack.
const MaxWindows = 16

// Window is one program window. Run blocks until the window closes.
type Window interface {
	ID() string
	Title() string
	Run() error
}

// Manager owns the window stack. Windows are nested: opening a window runs
// it to completion before control returns to the opener.
type Manager struct {
	cfg    *config.Config
	disk   *disk.VirtualDisk
	in     LineReader
	out    io.Writer
	client *http.Client

	stack []Window
	// ended is set once input is exhausted or the user shut down
	ended bool
}

// NewManager creates a window manager for one session.
func NewManager(cfg *config.Config, vd *disk.VirtualDisk, in LineReader, out io.Writer) *Manager {
	return &Manager{
		cfg:    cfg,
		disk:   vd,
		in:     in,
		out:    out,
		client: &http.Client{Timeout: cfg.BrowserTimeout()},
	}
}

// Run shows the splash screen, gates on the password and then runs the
// desktop until shutdown.
func (m *Manager) Run() error {
	title := color.New(color.FgCyan, color.Bold)
	title.Fprintln(m.out, "DarkoOS")
	fmt.Fprintln(m.out, "Loading System...")

	ok, err := m.Login()
	if err != nil || !ok {
		return err
	}
	return m.Open(newDesktop(m))
}

// Open pushes w onto the stack and runs it until it closes.
func (m *Manager) Open(w Window) error {
	if m.ended {
		return nil
	}
	if len(m.stack) >= MaxWindows {
		shellLogger.Warn("Refusing to open %s: %d windows open", w.Title(), len(m.stack))
		return ErrTooManyWindows
	}

	m.stack = append(m.stack, w)
	shellLogger.Info("Opened window %s (%s), depth %d", w.Title(), w.ID(), len(m.stack))
	defer func() {
		m.stack = m.stack[:len(m.stack)-1]
		shellLogger.Info("Closed window %s (%s)", w.Title(), w.ID())
	}()

	err := w.Run()
	if isEOF(err) {
		shellLogger.Debug("Input closed in window %s", w.ID())
		m.ended = true
		return nil
	}
	return err
}

// Depth returns the number of open windows.
func (m *Manager) Depth() int {
	return len(m.stack)
}

// Ended reports whether the session is over.
func (m *Manager) Ended() bool {
	return m.ended
}

// Shutdown ends the session. Every open window closes at its next prompt.
func (m *Manager) Shutdown() {
	shellLogger.Info("Shutdown requested")
	m.ended = true
}

// Launch opens the window for a built-in program.
func (m *Manager) Launch(p programs.Program) error {
	switch p {
	case programs.Terminal:
		return m.Open(newTerminal(m))
	case programs.Explorer:
		return m.Open(newExplorer(m))
	case programs.Calculator:
		return m.Open(newCalculator(m))
	case programs.Browser:
		return m.Open(newBrowser(m))
	default:
		return fmt.Errorf("unknown program %d", p)
	}
}

// OpenViewer opens the text viewer on a disk file.
func (m *Manager) OpenViewer(path, content string) error {
	return m.Open(newViewer(m, path, content))
}

// readLine reads one line for the current window.
func (m *Manager) readLine(prompt string, nav Navigator) (string, error) {
	line, err := m.in.ReadLine(prompt, nav)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// dialog shows a modal message in the current window.
func (m *Manager) dialog(title, msg string) {
	c := color.New(color.FgYellow)
	if title == "Error" || title == "Denied" {
		c = color.New(color.FgRed)
	}
	c.Fprintf(m.out, "%s: %s\n", title, msg)
}

// confirm asks a yes/no question. Anything but y or yes is a no.
func (m *Manager) confirm(question string) (bool, error) {
	answer, err := m.readLine(question+" [y/N] ", nil)
	if err != nil {
		return false, err
	}
	answer = strings.ToLower(answer)
	return answer == "y" || answer == "yes", nil
}

// header renders the title bar of a window.
func (m *Manager) header(title string) {
	color.New(color.FgHiWhite, color.Bold).Fprintf(m.out, "== %s ==\n", title)
}

func isEOF(err error) bool {
	return errors.Is(err, io.EOF)
}

func newWindowID() string {
	return uuid.NewString()
}

// errorText turns a disk failure into a dialog message.
func errorText(err error) string {
	var de *disk.Error
	if errors.As(err, &de) {
		switch {
		case errors.Is(err, disk.ErrNotFound):
			return fmt.Sprintf("%s: not found", de.Path)
		case errors.Is(err, disk.ErrNameConflict):
			return fmt.Sprintf("%s: already exists", de.Path)
		case errors.Is(err, disk.ErrNotEmpty):
			return fmt.Sprintf("%s: directory not empty", de.Path)
		case errors.Is(err, disk.ErrInvalidName):
			return fmt.Sprintf("%s: invalid name", de.Path)
		case errors.Is(err, disk.ErrIsDirectory):
			return fmt.Sprintf("%s: is a directory", de.Path)
		}
	}
	return err.Error()
}
