package shell

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"golang.org/x/term"
)

// Navigator supplies replacement lines for the up/down keys.
type Navigator interface {
	Previous() string
	Next() string
}

// LineReader is the input side of every window.
type LineReader interface {
	// ReadLine prints prompt and reads one line. nav may be nil.
	ReadLine(prompt string, nav Navigator) (string, error)
	// ReadPassword prints prompt and reads a line without echoing it.
	ReadPassword(prompt string) (string, error)
}

// NewLineReader returns a raw-mode line editor when in is a terminal and a
// plain buffered reader otherwise.
func NewLineReader(in *os.File, out io.Writer) LineReader {
	fd := int(in.Fd())
	if term.IsTerminal(fd) {
		return &termReader{fd: fd, in: bufio.NewReader(in), out: out}
	}
	return NewPlainReader(in, out)
}

// plainReader reads newline-terminated lines. It has no key handling, so
// history navigation is unavailable.
type plainReader struct {
	in  *bufio.Reader
	out io.Writer
}

// NewPlainReader creates a LineReader over any reader.
func NewPlainReader(in io.Reader, out io.Writer) LineReader {
	return &plainReader{in: bufio.NewReader(in), out: out}
}

func (r *plainReader) ReadLine(prompt string, _ Navigator) (string, error) {
	fmt.Fprint(r.out, prompt)
	line, err := r.in.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && line != "" {
			return strings.TrimRight(line, "\r\n"), nil
		}
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func (r *plainReader) ReadPassword(prompt string) (string, error) {
	return r.ReadLine(prompt, nil)
}

// termReader is a minimal line editor running the terminal in raw mode.
type termReader struct {
	fd  int
	in  *bufio.Reader
	out io.Writer
}

const (
	keyCtrlC     = 3
	keyCtrlD     = 4
	keyBackspace = 8
	keyEscape    = 27
	keyDelete    = 127
)

func (r *termReader) ReadLine(prompt string, nav Navigator) (string, error) {
	state, err := term.MakeRaw(r.fd)
	if err != nil {
		return "", fmt.Errorf("failed to enter raw mode: %w", err)
	}
	defer term.Restore(r.fd, state)

	fmt.Fprint(r.out, prompt)
	var line []byte

	redraw := func(replacement string) {
		line = []byte(replacement)
		fmt.Fprintf(r.out, "\r\033[K%s%s", prompt, line)
	}

	for {
		b, err := r.in.ReadByte()
		if err != nil {
			return "", err
		}

		switch b {
		case '\r', '\n':
			fmt.Fprint(r.out, "\r\n")
			return string(line), nil
		case keyCtrlC:
			fmt.Fprint(r.out, "^C\r\n")
			return "", nil
		case keyCtrlD:
			if len(line) == 0 {
				fmt.Fprint(r.out, "\r\n")
				return "", io.EOF
			}
		case keyBackspace, keyDelete:
			if len(line) > 0 {
				_, size := utf8.DecodeLastRune(line)
				line = line[:len(line)-size]
				fmt.Fprint(r.out, "\b \b")
			}
		case keyEscape:
			seq, err := r.readEscape()
			if err != nil {
				return "", err
			}
			if nav == nil {
				continue
			}
			switch seq {
			case 'A':
				redraw(nav.Previous())
			case 'B':
				redraw(nav.Next())
			}
		default:
			if b < 32 {
				continue
			}
			line = append(line, b)
			r.out.Write([]byte{b})
		}
	}
}

// readEscape consumes a CSI sequence and returns its final byte.
func (r *termReader) readEscape() (byte, error) {
	b, err := r.in.ReadByte()
	if err != nil {
		return 0, err
	}
	if b != '[' && b != 'O' {
		return 0, nil
	}
	for {
		b, err = r.in.ReadByte()
		if err != nil {
			return 0, err
		}
		if b >= 0x40 && b <= 0x7e {
			return b, nil
		}
	}
}

func (r *termReader) ReadPassword(prompt string) (string, error) {
	fmt.Fprint(r.out, prompt)
	pw, err := term.ReadPassword(r.fd)
	fmt.Fprint(r.out, "\r\n")
	if err != nil {
		return "", err
	}
	return string(pw), nil
}
