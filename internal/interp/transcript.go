package interp

import (
	"strings"
)

// Prompt is written after every command's output.
const Prompt = "> "

// Banner opens every new transcript.
const Banner = "DarkoOS Terminal\nType help\n"

// Transcript is the append-only visible log of a terminal session. Clear is
// the only operation that removes text.
type Transcript struct {
	buf strings.Builder
}

// NewTranscript creates a transcript holding the banner and first prompt.
func NewTranscript() *Transcript {
	t := &Transcript{}
	t.buf.WriteString(Banner)
	t.buf.WriteString(Prompt)
	return t
}

// Append adds text to the end of the transcript.
func (t *Transcript) Append(text string) {
	t.buf.WriteString(text)
}

// Clear wipes the transcript and leaves a fresh prompt.
func (t *Transcript) Clear() {
	t.buf.Reset()
	t.buf.WriteString(Prompt)
}

// String returns the full transcript text.
func (t *Transcript) String() string {
	return t.buf.String()
}

// Len returns the transcript size in bytes.
func (t *Transcript) Len() int {
	return t.buf.Len()
}
