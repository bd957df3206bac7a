// Package interp implements the terminal command interpreter: it parses one
// line at a time, runs it against the virtual disk and appends the result
// to the session transcript.
package interp

import (
	"errors"
	"fmt"
	"path"
	"strings"

	"darkoos/internal/calc"
	"darkoos/internal/disk"
	"darkoos/internal/logging"
	"darkoos/internal/programs"
)

var (
	interpLogger = logging.GetLogger().WithPrefix("interp")
)

// Host is the window manager side of a terminal session.
type Host interface {
	// Launch opens a built-in program window
	Launch(p programs.Program) error
	// OpenFile opens the file viewer on a disk path
	OpenFile(path, content string) error
	// Close closes the terminal window the interpreter belongs to
	Close()
}

// Append describes what one Execute call added to the transcript.
type Append struct {
	// Text is the output followed by the next prompt
	Text string
	// Cleared is set when the transcript was wiped before Text was added
	Cleared bool
	// Exit is set when the session asked its window to close
	Exit bool
}

const helpText = `help
print <text>
dir
start <file>
clear
mkdir <name>
touch <name>
rm <name>
calc <expression>
exit
`

// Interpreter is the state of one terminal window. Interpreters never
// share state; each window creates its own.
type Interpreter struct {
	disk       *disk.VirtualDisk
	host       Host
	transcript *Transcript
	history    *History
}

// New creates an interpreter for a freshly opened terminal window.
func New(vd *disk.VirtualDisk, host Host) *Interpreter {
	return &Interpreter{
		disk:       vd,
		host:       host,
		transcript: NewTranscript(),
		history:    NewHistory(),
	}
}

// Transcript returns the session transcript.
func (in *Interpreter) Transcript() *Transcript {
	return in.transcript
}

// History returns the session history.
func (in *Interpreter) History() *History {
	return in.history
}

// Execute runs one input line. Failures are reported as transcript text;
// Execute itself never fails.
func (in *Interpreter) Execute(line string) Append {
	line = strings.TrimSpace(line)
	if line == "" {
		in.transcript.Append(Prompt)
		return Append{Text: Prompt}
	}

	cmd := Parse(line)
	if cmd.Verb != "help" {
		in.history.Add(line)
	} else {
		in.history.Reset()
	}
	in.transcript.Append(line + "\n")

	interpLogger.Debug("Executing %q (verb=%q, %d args)", line, cmd.Verb, len(cmd.Args))

	switch cmd.Verb {
	case "clear", "cls":
		in.transcript.Clear()
		return Append{Text: Prompt, Cleared: true}
	case "exit":
		interpLogger.Info("Terminal session exiting")
		in.host.Close()
		return Append{Exit: true}
	}

	out := in.dispatch(cmd, line)
	text := out + Prompt
	in.transcript.Append(text)
	return Append{Text: text}
}

func (in *Interpreter) dispatch(cmd Command, line string) string {
	switch {
	case cmd.Verb == "help":
		return helpText
	case cmd.Verb == "echo" || cmd.Verb == "print":
		return strings.Join(cmd.Args, " ") + "\n"
	case cmd.Verb == "dir" || cmd.Verb == "ls":
		return in.list()
	case cmd.Verb == "start" && len(cmd.Args) > 0:
		return in.start(cmd.Arg(0))
	case cmd.Verb == "mkdir" && len(cmd.Args) > 0:
		return in.mkdir(cmd.Arg(0))
	case cmd.Verb == "touch" && len(cmd.Args) > 0:
		return in.touch(cmd.Arg(0))
	case cmd.Verb == "rm" && len(cmd.Args) > 0:
		return in.remove(cmd.Arg(0))
	case cmd.Verb == "calc" && len(cmd.Args) > 0:
		return in.calculate(strings.Join(cmd.Args, " "))
	default:
		return in.fallback(cmd, line)
	}
}

func (in *Interpreter) list() string {
	entries, err := in.disk.ListEntries("")
	if err != nil {
		return describe(err)
	}

	var b strings.Builder
	for _, e := range entries {
		b.WriteString(e.Name)
		b.WriteString("\n")
	}
	b.WriteString(in.disk.Usage().Summary())
	b.WriteString("\n")
	return b.String()
}

func (in *Interpreter) start(name string) string {
	if prog, ok := programs.Lookup(name); ok {
		return in.launch(prog)
	}

	info, err := in.disk.Stat(name)
	if err != nil {
		if errors.Is(err, disk.ErrNotFound) || errors.Is(err, disk.ErrInvalidName) {
			return "File not found\n"
		}
		return describe(err)
	}
	if info.IsDir() {
		return "Cannot start directory\n"
	}

	if prog, ok := programs.FromFile(path.Base(name)); ok {
		return in.launch(prog)
	}

	content, err := in.disk.ReadFile(name)
	switch {
	case errors.Is(err, disk.ErrIsDirectory):
		return "Cannot start directory\n"
	case errors.Is(err, disk.ErrNotFound), errors.Is(err, disk.ErrInvalidName):
		return "File not found\n"
	case err != nil:
		return describe(err)
	}
	if err := in.host.OpenFile(name, content); err != nil {
		interpLogger.Warn("Failed to open %q: %v", name, err)
		return fmt.Sprintf("Error: %v\n", err)
	}
	return ""
}

func (in *Interpreter) launch(prog programs.Program) string {
	interpLogger.Info("Starting program %s", prog)
	if err := in.host.Launch(prog); err != nil {
		interpLogger.Warn("Failed to start %s: %v", prog, err)
		return fmt.Sprintf("Error: %v\n", err)
	}
	return ""
}

func (in *Interpreter) mkdir(name string) string {
	if err := in.disk.Mkdir(name, ""); err != nil {
		return describe(err)
	}
	return "Folder created\n"
}

func (in *Interpreter) touch(name string) string {
	if err := in.disk.CreateFile(name, ""); err != nil {
		return describe(err)
	}
	return "File created\n"
}

func (in *Interpreter) remove(name string) string {
	if err := in.disk.DeleteEntry(name); err != nil {
		return describe(err)
	}
	return "Deleted\n"
}

func (in *Interpreter) calculate(expr string) string {
	result, err := calc.EvalString(expr)
	if err != nil {
		return fmt.Sprintf("Error: %v\n", err)
	}
	return result + "\n"
}

// fallback treats the whole line as arithmetic before giving up on it.
func (in *Interpreter) fallback(cmd Command, line string) string {
	if result, err := calc.EvalString(line); err == nil {
		return result + "\n"
	}
	return fmt.Sprintf("Unknown command: %s\n", cmd.Verb)
}

// describe turns a disk failure into one transcript line.
func describe(err error) string {
	switch {
	case errors.Is(err, disk.ErrNotFound):
		return "Not found\n"
	case errors.Is(err, disk.ErrNameConflict):
		return "Already exists\n"
	case errors.Is(err, disk.ErrNotEmpty):
		return "Directory not empty\n"
	case errors.Is(err, disk.ErrInvalidName):
		return "Invalid name\n"
	case errors.Is(err, disk.ErrIsDirectory):
		return "Is a directory\n"
	default:
		interpLogger.Error("Command failed: %v", err)
		return fmt.Sprintf("Error: %v\n", err)
	}
}
