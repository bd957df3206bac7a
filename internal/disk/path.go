package disk

import (
	"path/filepath"
	"regexp"
	"strings"
	"unicode"

	"darkoos/internal/logging"
)

var (
	pathLogger = logging.GetLogger().WithPrefix("path")

	// nameAllowed is the allow-list for single path components supplied by
	// users: letters, digits, spaces and a small set of punctuation.
	nameAllowed = regexp.MustCompile(`^[\p{L}\p{N} ._\-()+,@#&!'~\[\]]+$`)
)

// maxNameLen matches the common host limit for one path component.
const maxNameLen = 255

// ValidateName checks a single entry name supplied by a user.
func ValidateName(name string) error {
	switch {
	case name == "":
		return ErrInvalidName
	case name == "." || name == "..":
		return ErrInvalidName
	case len(name) > maxNameLen:
		return ErrInvalidName
	case strings.ContainsAny(name, `/\`):
		return ErrInvalidName
	case strings.IndexFunc(name, unicode.IsControl) >= 0:
		return ErrInvalidName
	case strings.TrimSpace(name) != name:
		return ErrInvalidName
	case !nameAllowed.MatchString(name):
		return ErrInvalidName
	}
	return nil
}

// Path represents a location on the virtual disk.
// It is always stored relative to the disk root; the root itself is "".
type Path struct {
	// relative path from root, slash separated, never escapes the root
	rel string
}

// ParsePath cleans a caller-supplied path and ensures it stays inside the
// root. Leading slashes are treated as the disk root, so "/docs" and "docs"
// name the same entry.
func ParsePath(path string) (Path, error) {
	trimmed := strings.TrimLeft(filepath.ToSlash(path), "/")
	if trimmed == "" {
		return Path{}, nil
	}
	if strings.ContainsRune(trimmed, '\\') || strings.ContainsRune(trimmed, 0) {
		return Path{}, ErrInvalidName
	}

	cleaned := filepath.Clean(filepath.FromSlash(trimmed))
	if cleaned == "." {
		return Path{}, nil
	}
	if !filepath.IsLocal(cleaned) {
		pathLogger.Warn("Rejected path escaping root: %q", path)
		return Path{}, ErrInvalidName
	}

	p := Path{rel: filepath.ToSlash(cleaned)}
	pathLogger.Trace("Parsed path: %q -> %q", path, p.rel)
	return p, nil
}

// String returns the string representation of the path
func (p Path) String() string {
	return p.rel
}

// IsRoot returns true if this is the disk root
func (p Path) IsRoot() bool {
	return p.rel == ""
}

// Join returns the child path for an already validated name
func (p Path) Join(name string) Path {
	if p.rel == "" {
		return Path{rel: name}
	}
	return Path{rel: p.rel + "/" + name}
}

// Parent returns the path of the containing directory
func (p Path) Parent() Path {
	parent := filepath.ToSlash(filepath.Dir(filepath.FromSlash(p.rel)))
	if parent == "." {
		parent = ""
	}
	return Path{rel: parent}
}

// Base returns the last element of the path
func (p Path) Base() string {
	if p.rel == "" {
		return ""
	}
	return filepath.Base(filepath.FromSlash(p.rel))
}

// FullPath returns the host path by joining with the root directory
func (p Path) FullPath(root string) string {
	full := filepath.Join(root, filepath.FromSlash(p.rel))
	pathLogger.Trace("Getting full path: %q + %q -> %q", root, p.rel, full)
	return full
}
