package shell

import (
	"fmt"
	"strconv"
	"strings"
)

const viewerHelp = `:a <text>   append a line
:d <n>      delete line n
:c          clear the file
:w          save
:q          close (unsaved changes are lost)`

// viewer shows a disk file as numbered lines and edits it line-wise.
type viewer struct {
	id     string
	m      *Manager
	path   string
	lines  []string
	eol    bool // content ended with a newline
	dirty  bool
	closed bool
}

func newViewer(m *Manager, path, content string) *viewer {
	v := &viewer{id: newWindowID(), m: m, path: path}
	if content != "" {
		v.eol = strings.HasSuffix(content, "\n")
		v.lines = strings.Split(strings.TrimSuffix(content, "\n"), "\n")
	}
	return v
}

func (v *viewer) ID() string    { return v.id }
func (v *viewer) Title() string { return "Viewer - " + v.path }

// Content returns the buffer as it would be saved. A final newline that
// was present when the file was opened is kept.
func (v *viewer) Content() string {
	if len(v.lines) == 0 {
		return ""
	}
	content := strings.Join(v.lines, "\n")
	if v.eol {
		content += "\n"
	}
	return content
}

func (v *viewer) render() {
	title := v.Title()
	if v.dirty {
		title += " *"
	}
	v.m.header(title)
	for i, line := range v.lines {
		fmt.Fprintf(v.m.out, "%4d | %s\n", i+1, line)
	}
}

func (v *viewer) Run() error {
	for !v.closed && !v.m.ended {
		v.render()
		line, err := v.m.in.ReadLine("view> ", nil)
		if err != nil {
			return err
		}
		v.handle(line)
	}
	return nil
}

func (v *viewer) handle(line string) {
	cmd, arg, _ := strings.Cut(strings.TrimLeft(line, " \t"), " ")
	switch strings.TrimSpace(cmd) {
	case "":
	case ":a":
		v.lines = append(v.lines, arg)
		v.dirty = true
	case ":d":
		n, err := strconv.Atoi(strings.TrimSpace(arg))
		if err != nil || n < 1 || n > len(v.lines) {
			v.m.dialog("Error", fmt.Sprintf("no line %q", strings.TrimSpace(arg)))
			return
		}
		v.lines = append(v.lines[:n-1], v.lines[n:]...)
		v.dirty = true
	case ":c":
		v.lines = nil
		v.dirty = true
	case ":w":
		v.save()
	case ":wq":
		if v.save() {
			v.closed = true
		}
	case ":q":
		v.closed = true
	case ":h", "help":
		fmt.Fprintln(v.m.out, viewerHelp)
	default:
		v.m.dialog("Error", fmt.Sprintf("unknown command %q, type :h", cmd))
	}
}

func (v *viewer) save() bool {
	if err := v.m.disk.WriteFile(v.path, v.Content()); err != nil {
		v.m.dialog("Error", errorText(err))
		return false
	}
	v.dirty = false
	v.m.dialog("Info", "Saved")
	return true
}
