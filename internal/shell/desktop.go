package shell

import (
	"fmt"
	"strings"

	"github.com/fatih/color"

	"darkoos/internal/disk"
	"darkoos/internal/programs"
)

type icon struct {
	key     string
	label   string
	program programs.Program
}

var desktopIcons = []icon{
	{"1", "Explorer", programs.Explorer},
	{"2", "Terminal", programs.Terminal},
	{"3", "Calculator", programs.Calculator},
	{"4", "Browser", programs.Browser},
}

const desktopHelp = `1-4 or a program name   open a program
new folder <name>       create a folder on the desktop
new file <name>         create a text file on the desktop
shutdown                power off`

type desktop struct {
	id string
	m  *Manager
}

func newDesktop(m *Manager) *desktop {
	return &desktop{id: newWindowID(), m: m}
}

func (d *desktop) ID() string    { return d.id }
func (d *desktop) Title() string { return "Desktop" }

// StatusLine renders the desktop header from a fresh usage snapshot.
func (d *desktop) StatusLine() string {
	s := d.m.disk.Usage()
	return fmt.Sprintf("USER: %s | RAM: %d MB | STORAGE: %s / %s MB (Free %s MB)",
		d.m.cfg.User, d.m.cfg.RAMMB, disk.FormatMB(s.Used), disk.FormatMB(s.Total), disk.FormatMB(s.Free))
}

func (d *desktop) render() {
	color.New(color.FgCyan).Fprintln(d.m.out, d.StatusLine())
	labels := make([]string, 0, len(desktopIcons))
	for _, ic := range desktopIcons {
		labels = append(labels, fmt.Sprintf("[%s] %s", ic.key, ic.label))
	}
	fmt.Fprintln(d.m.out, strings.Join(labels, "  "))
}

func (d *desktop) Run() error {
	for !d.m.ended {
		d.render()
		line, err := d.m.readLine("desktop> ", nil)
		if err != nil {
			return err
		}
		if line == "" {
			continue
		}

		lower := strings.ToLower(line)
		switch {
		case lower == "shutdown" || lower == "logout":
			d.m.Shutdown()
			fmt.Fprintln(d.m.out, "Shutting down...")
			return nil
		case lower == "help":
			fmt.Fprintln(d.m.out, desktopHelp)
		case strings.HasPrefix(lower, "new folder "):
			d.create(disk.KindFolder, strings.TrimSpace(line[len("new folder "):]))
		case strings.HasPrefix(lower, "new file "):
			d.create(disk.KindFile, strings.TrimSpace(line[len("new file "):]))
		default:
			d.open(lower)
		}
	}
	return nil
}

func (d *desktop) open(name string) {
	for _, ic := range desktopIcons {
		if name == ic.key || name == strings.ToLower(ic.label) {
			if err := d.m.Launch(ic.program); err != nil {
				d.m.dialog("Error", err.Error())
			}
			return
		}
	}
	if p, ok := programs.Lookup(name); ok {
		if err := d.m.Launch(p); err != nil {
			d.m.dialog("Error", err.Error())
		}
		return
	}
	d.m.dialog("Error", fmt.Sprintf("unknown command %q, type help", name))
}

func (d *desktop) create(kind disk.EntryKind, name string) {
	if err := d.m.disk.CreateEntry(kind, name, ""); err != nil {
		d.m.dialog("Error", errorText(err))
		return
	}
	d.m.dialog("Info", fmt.Sprintf("Created %s %s", kind, name))
}
