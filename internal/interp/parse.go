package interp

import (
	"strings"
)

// Command is one parsed input line.
type Command struct {
	Verb string
	Args []string
}

// Parse splits a line on whitespace into a lower-cased verb and its
// arguments. A blank line yields an empty verb.
func Parse(line string) Command {
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return Command{Args: []string{}}
	}
	return Command{
		Verb: strings.ToLower(parts[0]),
		Args: parts[1:],
	}
}

// Arg returns the i-th argument or "" when absent.
func (c Command) Arg(i int) string {
	if i < 0 || i >= len(c.Args) {
		return ""
	}
	return c.Args[i]
}
