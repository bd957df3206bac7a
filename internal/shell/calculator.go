package shell

import (
	"fmt"
	"strings"

	"darkoos/internal/calc"
)

// calculator keeps an entry buffer that input is appended to until it is
// evaluated or cleared.
type calculator struct {
	id     string
	m      *Manager
	entry  string
	closed bool
}

func newCalculator(m *Manager) *calculator {
	return &calculator{id: newWindowID(), m: m}
}

func (c *calculator) ID() string    { return c.id }
func (c *calculator) Title() string { return "Calculator" }

// Entry returns the current contents of the display.
func (c *calculator) Entry() string {
	return c.entry
}

func (c *calculator) Run() error {
	c.m.header(c.Title())
	fmt.Fprintln(c.m.out, "Type digits and operators, = to evaluate, c to clear, close to quit")

	for !c.closed && !c.m.ended {
		fmt.Fprintf(c.m.out, "[ %s ]\n", c.entry)
		line, err := c.m.readLine("calc> ", nil)
		if err != nil {
			return err
		}
		c.press(line)
	}
	return nil
}

// press applies one line of key input to the entry buffer.
func (c *calculator) press(input string) {
	switch strings.ToLower(input) {
	case "":
		return
	case "close", "exit", "q":
		c.closed = true
		return
	case "c":
		c.entry = ""
		return
	case "=":
		c.evaluate()
		return
	}

	if before, ok := strings.CutSuffix(input, "="); ok {
		c.entry += before
		c.evaluate()
		return
	}
	c.entry += input
}

func (c *calculator) evaluate() {
	result, err := calc.EvalString(c.entry)
	if err != nil {
		c.m.dialog("Error", err.Error())
		return
	}
	c.entry = result
}
