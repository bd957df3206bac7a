package interp

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"darkoos/internal/disk"
	"darkoos/internal/programs"
)

type openedFile struct {
	path    string
	content string
}

type fakeHost struct {
	launched  []programs.Program
	opened    []openedFile
	closed    bool
	launchErr error
}

func (h *fakeHost) Launch(p programs.Program) error {
	if h.launchErr != nil {
		return h.launchErr
	}
	h.launched = append(h.launched, p)
	return nil
}

func (h *fakeHost) OpenFile(path, content string) error {
	h.opened = append(h.opened, openedFile{path: path, content: content})
	return nil
}

func (h *fakeHost) Close() {
	h.closed = true
}

func setupInterpreter(t *testing.T) (*Interpreter, *fakeHost, string) {
	t.Helper()
	root := filepath.Join(t.TempDir(), "v_disk")
	vd, err := disk.New(root, disk.Options{CapacityBytes: 5 * disk.GiB})
	require.NoError(t, err)
	require.NoError(t, vd.EnsureRoot())

	host := &fakeHost{}
	return New(vd, host), host, root
}

// output strips the trailing prompt from an Append.
func output(a Append) string {
	return strings.TrimSuffix(a.Text, Prompt)
}

func TestParse(t *testing.T) {
	cmd := Parse("  ECHO   hello   world ")
	assert.Equal(t, "echo", cmd.Verb)
	assert.Equal(t, []string{"hello", "world"}, cmd.Args)
	assert.Equal(t, "world", cmd.Arg(1))
	assert.Equal(t, "", cmd.Arg(2))

	empty := Parse("   ")
	assert.Equal(t, "", empty.Verb)
	assert.Empty(t, empty.Args)
}

func TestExecuteBasics(t *testing.T) {
	in, _, _ := setupInterpreter(t)

	t.Run("EmptyLine", func(t *testing.T) {
		before := in.History().Len()
		a := in.Execute("   ")
		assert.Equal(t, Prompt, a.Text)
		assert.Equal(t, before, in.History().Len())
	})

	t.Run("Help", func(t *testing.T) {
		before := in.History().Len()
		a := in.Execute("help")
		assert.Contains(t, a.Text, "calc <expression>")
		assert.True(t, strings.HasSuffix(a.Text, Prompt))
		assert.Equal(t, before, in.History().Len(), "help must not be recorded")
	})

	t.Run("Echo", func(t *testing.T) {
		assert.Equal(t, "hi there\n", output(in.Execute("echo hi   there")))
		assert.Equal(t, "same\n", output(in.Execute("PRINT same")))
		assert.Equal(t, "\n", output(in.Execute("echo")))
	})

	t.Run("Clear", func(t *testing.T) {
		a := in.Execute("cls")
		assert.True(t, a.Cleared)
		assert.Equal(t, Prompt, in.Transcript().String())
	})
}

func TestExecuteFilesystem(t *testing.T) {
	in, _, root := setupInterpreter(t)

	assert.Equal(t, "Folder created\n", output(in.Execute("mkdir docs")))
	assert.DirExists(t, filepath.Join(root, "docs"))
	assert.Equal(t, "Already exists\n", output(in.Execute("mkdir docs")))

	assert.Equal(t, "File created\n", output(in.Execute("touch notes")))
	assert.FileExists(t, filepath.Join(root, "notes"), "touch must not append a suffix")
	assert.Equal(t, "Already exists\n", output(in.Execute("touch notes")))

	assert.Equal(t, "Invalid name\n", output(in.Execute("mkdir ../escape")))
	assert.NoDirExists(t, filepath.Join(filepath.Dir(root), "escape"))

	listing := output(in.Execute("ls"))
	lines := strings.Split(strings.TrimSuffix(listing, "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "docs", lines[0])
	assert.Equal(t, "notes", lines[1])
	assert.True(t, strings.HasPrefix(lines[2], "Used: "), "usage footer expected, got %q", lines[2])

	require.NoError(t, os.WriteFile(filepath.Join(root, "docs", "a.txt"), []byte("x"), 0644))
	assert.Equal(t, "Directory not empty\n", output(in.Execute("rm docs")))
	assert.Equal(t, "Deleted\n", output(in.Execute("rm docs/a.txt")))
	assert.Equal(t, "Deleted\n", output(in.Execute("rm docs")))
	assert.Equal(t, "Not found\n", output(in.Execute("rm docs")))
}

func TestExecuteCalc(t *testing.T) {
	in, _, _ := setupInterpreter(t)

	assert.Equal(t, "4\n", output(in.Execute("calc 2 + 2")))
	assert.Equal(t, "Error: division by zero\n", output(in.Execute("calc 10 / 0")))
	assert.True(t, strings.HasPrefix(output(in.Execute("calc notanumber")), "Error: "))
	assert.True(t, strings.HasPrefix(output(in.Execute("calc __import__('os').getcwd()")), "Error: "))
}

func TestExecuteFallback(t *testing.T) {
	in, _, _ := setupInterpreter(t)

	assert.Equal(t, "7\n", output(in.Execute("3 + 4")))
	assert.Equal(t, "-2\n", output(in.Execute("-2")))
	assert.Equal(t, "Unknown command: frobnicate\n", output(in.Execute("frobnicate now")))
	// commands missing their argument fall through to the fallback
	assert.Equal(t, "Unknown command: mkdir\n", output(in.Execute("mkdir")))
	assert.Equal(t, "Unknown command: calc\n", output(in.Execute("calc")))
}

func TestExecuteStart(t *testing.T) {
	in, host, root := setupInterpreter(t)

	// reserved names win over files of the same name
	require.NoError(t, os.WriteFile(filepath.Join(root, "cmd"), []byte("not a program"), 0644))
	for _, name := range []string{"cmd", "explorer", "calculator"} {
		assert.Equal(t, "", output(in.Execute("start "+name)))
	}
	assert.Equal(t, []programs.Program{programs.Terminal, programs.Explorer, programs.Calculator}, host.launched)
	assert.Empty(t, host.opened)

	t.Run("ProgramFile", func(t *testing.T) {
		host.launched = nil
		require.NoError(t, os.WriteFile(filepath.Join(root, "calculator.drk"), nil, 0644))
		in.Execute("start calculator.drk")
		assert.Equal(t, []programs.Program{programs.Calculator}, host.launched)
	})

	t.Run("UnknownProgramFileOpensAsText", func(t *testing.T) {
		require.NoError(t, os.WriteFile(filepath.Join(root, "game.drk"), []byte("score=1"), 0644))
		in.Execute("start game.drk")
		require.Len(t, host.opened, 1)
		assert.Equal(t, openedFile{path: "game.drk", content: "score=1"}, host.opened[0])
	})

	t.Run("TextFile", func(t *testing.T) {
		host.opened = nil
		require.NoError(t, os.WriteFile(filepath.Join(root, "memo.txt"), []byte("hello"), 0644))
		in.Execute("start memo.txt")
		require.Len(t, host.opened, 1)
		assert.Equal(t, "hello", host.opened[0].content)
	})

	t.Run("Directory", func(t *testing.T) {
		require.NoError(t, os.Mkdir(filepath.Join(root, "folder"), 0755))
		assert.Equal(t, "Cannot start directory\n", output(in.Execute("start folder")))
	})

	t.Run("Missing", func(t *testing.T) {
		assert.Equal(t, "File not found\n", output(in.Execute("start ghost.txt")))
		assert.Equal(t, "File not found\n", output(in.Execute("start ../../etc/passwd")))
	})

	t.Run("SymlinkOutsideRoot", func(t *testing.T) {
		host.opened = nil
		secret := filepath.Join(filepath.Dir(root), "secret.txt")
		require.NoError(t, os.WriteFile(secret, []byte("TOP SECRET"), 0644))
		require.NoError(t, os.Symlink(secret, filepath.Join(root, "link.txt")))

		assert.Equal(t, "File not found\n", output(in.Execute("start link.txt")))
		assert.Empty(t, host.opened)
	})

	t.Run("SymlinkToDirectory", func(t *testing.T) {
		require.NoError(t, os.Symlink(filepath.Join(root, "folder"), filepath.Join(root, "shortcut")))
		assert.Equal(t, "Cannot start directory\n", output(in.Execute("start shortcut")))
	})

	t.Run("LaunchFailure", func(t *testing.T) {
		host.launchErr = errors.New("no display")
		assert.Equal(t, "Error: no display\n", output(in.Execute("start browser")))
		host.launchErr = nil
	})
}

func TestExecuteExit(t *testing.T) {
	in, host, _ := setupInterpreter(t)

	a := in.Execute("exit")
	assert.True(t, a.Exit)
	assert.True(t, host.closed)
}

func TestTranscriptAccumulates(t *testing.T) {
	in, _, _ := setupInterpreter(t)

	in.Execute("echo one")
	in.Execute("echo two")

	got := in.Transcript().String()
	assert.True(t, strings.HasPrefix(got, Banner+Prompt))
	assert.Contains(t, got, "echo one\none\n"+Prompt)
	assert.True(t, strings.HasSuffix(got, "echo two\ntwo\n"+Prompt))
}

func TestHistoryRecording(t *testing.T) {
	in, _, _ := setupInterpreter(t)

	in.Execute("ls")
	in.Execute("help")
	in.Execute("  echo hi  ")
	in.Execute("")

	assert.Equal(t, []string{"ls", "echo hi"}, in.History().Entries())
	assert.Equal(t, 2, in.History().Cursor())
}

func TestHistoryNavigation(t *testing.T) {
	h := NewHistory("ls", "help", "echo hi")

	assert.Equal(t, "echo hi", h.Previous())
	assert.Equal(t, "help", h.Previous())
	assert.Equal(t, "ls", h.Previous())
	assert.Equal(t, "ls", h.Previous(), "cursor floors at 0")
	assert.Equal(t, 0, h.Cursor())

	assert.Equal(t, "help", h.Next())
	assert.Equal(t, "echo hi", h.Next())
	assert.Equal(t, "", h.Next(), "line is empty at the end")
	assert.Equal(t, "", h.Next(), "cursor ceils at len")
	assert.Equal(t, 3, h.Cursor())

	empty := NewHistory()
	assert.Equal(t, "", empty.Previous())
	assert.Equal(t, "", empty.Next())
	assert.Equal(t, 0, empty.Cursor())
}
