package shell

import (
	"fmt"
	"path"
	"strings"

	"github.com/fatih/color"

	"darkoos/internal/disk"
	"darkoos/internal/programs"
)

const explorerHelp = `open <name>         open a folder, program or file
up                  go to the parent folder
new folder <name>   create a folder here
new file <name>     create <name>.txt here
del <name>          delete a file or empty folder
ren <old> <new>     rename an entry
close               close the window`

// explorer browses one directory of the disk at a time. Navigation
// replaces the current directory instead of opening another window.
type explorer struct {
	id     string
	m      *Manager
	dir    string
	closed bool
}

func newExplorer(m *Manager) *explorer {
	return &explorer{id: newWindowID(), m: m}
}

func (e *explorer) ID() string { return e.id }

func (e *explorer) Title() string {
	return "Explorer - /" + e.dir
}

// Dir returns the directory being shown, relative to the disk root.
func (e *explorer) Dir() string {
	return e.dir
}

func (e *explorer) render() {
	e.m.header(e.Title())
	color.New(color.FgCyan).Fprintln(e.m.out, e.m.disk.Usage().SummaryMB())

	entries, err := e.m.disk.ListEntries(e.dir)
	if err != nil {
		e.m.dialog("Error", errorText(err))
		return
	}
	if e.dir != "" {
		fmt.Fprintln(e.m.out, "[DIR]  ..")
	}
	folder := color.New(color.FgBlue, color.Bold)
	program := color.New(color.FgGreen)
	for _, entry := range entries {
		switch entry.Kind {
		case disk.KindFolder:
			folder.Fprintf(e.m.out, "[DIR]  %s\n", entry.Name)
		case disk.KindProgram:
			program.Fprintf(e.m.out, "[APP]  %s\n", entry.Name)
		default:
			fmt.Fprintf(e.m.out, "[FILE] %s\n", entry.Name)
		}
	}
}

func (e *explorer) Run() error {
	for !e.closed && !e.m.ended {
		e.render()
		line, err := e.m.readLine("explorer> ", nil)
		if err != nil {
			return err
		}
		if err := e.handle(line); err != nil {
			return err
		}
	}
	return nil
}

// handle runs one explorer command. Only input failures are returned;
// everything else is shown as a dialog.
func (e *explorer) handle(line string) error {
	verb, rest, _ := strings.Cut(line, " ")
	rest = strings.TrimSpace(rest)

	switch strings.ToLower(verb) {
	case "":
	case "close", "exit", "q":
		e.closed = true
	case "help":
		fmt.Fprintln(e.m.out, explorerHelp)
	case "up", "..":
		e.up()
	case "open", "cd":
		if rest == "" {
			e.m.dialog("Error", "open needs a name")
			return nil
		}
		e.open(rest)
	case "new":
		kind, name, _ := strings.Cut(rest, " ")
		name = strings.TrimSpace(name)
		switch strings.ToLower(kind) {
		case "folder":
			e.create(disk.KindFolder, name)
		case "file":
			e.create(disk.KindFile, name)
		default:
			e.m.dialog("Error", "usage: new folder <name> | new file <name>")
		}
	case "del", "delete":
		if rest == "" {
			e.m.dialog("Error", "del needs a name")
			return nil
		}
		ok, err := e.m.confirm(fmt.Sprintf("Delete %s?", rest))
		if err != nil {
			return err
		}
		if ok {
			e.remove(rest)
		}
	case "ren", "rename":
		args := strings.Fields(rest)
		if len(args) != 2 {
			e.m.dialog("Error", "usage: ren <old> <new>")
			return nil
		}
		e.rename(args[0], args[1])
	default:
		e.m.dialog("Error", fmt.Sprintf("unknown command %q, type help", verb))
	}
	return nil
}

func (e *explorer) child(name string) string {
	return path.Join(e.dir, name)
}

func (e *explorer) up() {
	if e.dir == "" {
		return
	}
	parent := path.Dir(e.dir)
	if parent == "." {
		parent = ""
	}
	e.dir = parent
}

func (e *explorer) open(name string) {
	if name == ".." {
		e.up()
		return
	}

	target := e.child(name)
	info, err := e.m.disk.Stat(target)
	if err != nil {
		e.m.dialog("Error", errorText(err))
		return
	}
	if info.IsDir() {
		p, err := disk.ParsePath(target)
		if err != nil {
			e.m.dialog("Error", errorText(err))
			return
		}
		e.dir = p.String()
		return
	}

	if prog, ok := programs.FromFile(name); ok {
		if err := e.m.Launch(prog); err != nil {
			e.m.dialog("Error", err.Error())
		}
		return
	}

	content, err := e.m.disk.ReadFile(target)
	if err != nil {
		e.m.dialog("Error", errorText(err))
		return
	}
	if err := e.m.OpenViewer(target, content); err != nil {
		e.m.dialog("Error", err.Error())
	}
}

func (e *explorer) create(kind disk.EntryKind, name string) {
	if err := e.m.disk.CreateEntry(kind, name, e.dir); err != nil {
		e.m.dialog("Error", errorText(err))
	}
}

func (e *explorer) remove(name string) {
	if err := e.m.disk.DeleteEntry(e.child(name)); err != nil {
		e.m.dialog("Error", errorText(err))
	}
}

func (e *explorer) rename(oldName, newName string) {
	if err := e.m.disk.RenameEntry(e.child(oldName), newName); err != nil {
		e.m.dialog("Error", errorText(err))
	}
}
