// Package programs holds the registry of built-in pseudo-programs: reserved
// names that open a window instead of a file when started.
package programs

import (
	"sort"
	"strings"

	"darkoos/internal/disk"
)

// Program identifies a built-in window kind.
type Program int

const (
	// Terminal opens a command interpreter window
	Terminal Program = iota + 1
	// Explorer opens a file explorer at the disk root
	Explorer
	// Calculator opens the calculator
	Calculator
	// Browser opens the web-page viewer
	Browser
)

var registry = map[string]Program{
	"cmd":        Terminal,
	"explorer":   Explorer,
	"calculator": Calculator,
	"browser":    Browser,
}

// String returns the reserved name of the program.
func (p Program) String() string {
	for name, prog := range registry {
		if prog == p {
			return name
		}
	}
	return "unknown"
}

// Lookup resolves a reserved program name. Matching is exact.
func Lookup(name string) (Program, bool) {
	p, ok := registry[name]
	return p, ok
}

// FromFile resolves a file name carrying the reserved extension to the
// program it references.
func FromFile(name string) (Program, bool) {
	stem, ok := strings.CutSuffix(name, disk.ReservedExt)
	if !ok {
		return 0, false
	}
	return Lookup(stem)
}

// Names returns the reserved names in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
