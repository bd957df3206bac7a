package interp

// History is the ordered list of accepted command lines of one terminal
// session together with a replay cursor. The cursor is always within
// [0, len]; at len the input line is empty.
type History struct {
	entries []string
	cursor  int
}

// NewHistory creates a history pre-filled with entries and the cursor at
// the end.
func NewHistory(entries ...string) *History {
	h := &History{entries: append([]string(nil), entries...)}
	h.cursor = len(h.entries)
	return h
}

// Add records a line and moves the cursor past it.
func (h *History) Add(line string) {
	h.entries = append(h.entries, line)
	h.cursor = len(h.entries)
}

// Previous moves the cursor back one entry (stopping at the first) and
// returns the entry under it.
func (h *History) Previous() string {
	if len(h.entries) == 0 {
		return ""
	}
	if h.cursor > 0 {
		h.cursor--
	}
	return h.entries[h.cursor]
}

// Next moves the cursor forward one entry (stopping one past the last) and
// returns the entry under it, or "" past the last entry.
func (h *History) Next() string {
	if h.cursor < len(h.entries) {
		h.cursor++
	}
	if h.cursor == len(h.entries) {
		return ""
	}
	return h.entries[h.cursor]
}

// Reset puts the cursor back at the end.
func (h *History) Reset() {
	h.cursor = len(h.entries)
}

// Cursor returns the current replay position.
func (h *History) Cursor() int {
	return h.cursor
}

// Len returns the number of entries.
func (h *History) Len() int {
	return len(h.entries)
}

// Entries returns a copy of the recorded lines.
func (h *History) Entries() []string {
	return append([]string(nil), h.entries...)
}
