package shell

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/fatih/color"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// maxPageBytes caps how much of a response body is rendered.
const maxPageBytes = 2 << 20

const browserHelp = `go <url>   load a page
home       load the home page
reload     load the current page again
back       return to the previous page
close      close the window`

// Page is a fetched web page reduced to text.
type Page struct {
	URL   string
	Title string
	Text  string
}

type browser struct {
	id      string
	m       *Manager
	history []string
	closed  bool
}

func newBrowser(m *Manager) *browser {
	return &browser{id: newWindowID(), m: m}
}

func (b *browser) ID() string    { return b.id }
func (b *browser) Title() string { return "Browser" }

func (b *browser) current() string {
	if len(b.history) == 0 {
		return ""
	}
	return b.history[len(b.history)-1]
}

func (b *browser) Run() error {
	b.m.header(b.Title())
	fmt.Fprintf(b.m.out, "Home: %s (type help)\n", b.m.cfg.Browser.Home)

	for !b.closed && !b.m.ended {
		line, err := b.m.readLine("url> ", nil)
		if err != nil {
			return err
		}

		verb, arg, _ := strings.Cut(line, " ")
		arg = strings.TrimSpace(arg)
		switch strings.ToLower(verb) {
		case "":
		case "close", "exit", "q":
			b.closed = true
		case "help":
			fmt.Fprintln(b.m.out, browserHelp)
		case "go", "open":
			if arg == "" {
				b.m.dialog("Error", "go needs a URL")
				continue
			}
			b.navigate(arg, true)
		case "home":
			b.navigate(b.m.cfg.Browser.Home, true)
		case "reload":
			if cur := b.current(); cur != "" {
				b.navigate(cur, false)
			}
		case "back":
			if len(b.history) < 2 {
				b.m.dialog("Info", "No previous page")
				continue
			}
			b.history = b.history[:len(b.history)-1]
			b.navigate(b.current(), false)
		default:
			b.navigate(line, true)
		}
	}
	return nil
}

func (b *browser) navigate(rawURL string, push bool) {
	ctx, cancel := context.WithTimeout(context.Background(), b.m.cfg.BrowserTimeout())
	defer cancel()

	page, err := Fetch(ctx, b.m.client, rawURL)
	if err != nil {
		shellLogger.Warn("Failed to load %s: %v", rawURL, err)
		b.m.dialog("Error", err.Error())
		return
	}
	if push {
		b.history = append(b.history, page.URL)
	}

	title := page.Title
	if title == "" {
		title = page.URL
	}
	color.New(color.FgHiWhite, color.Bold).Fprintln(b.m.out, title)
	color.New(color.FgBlue).Fprintln(b.m.out, page.URL)
	fmt.Fprintln(b.m.out, page.Text)
}

// NormalizeURL adds a missing scheme and rejects anything but http(s).
func NormalizeURL(rawURL string) (string, error) {
	rawURL = strings.TrimSpace(rawURL)
	if !strings.Contains(rawURL, "://") {
		rawURL = "https://" + rawURL
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return "", errors.New("invalid URL: missing host")
	}
	return u.String(), nil
}

// Fetch loads a page and renders it to text.
func Fetch(ctx context.Context, client *http.Client, rawURL string) (Page, error) {
	target, err := NormalizeURL(rawURL)
	if err != nil {
		return Page{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return Page{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "DarkoOS-Browser/1.0")

	shellLogger.Debug("GET %s", target)
	resp, err := client.Do(req)
	if err != nil {
		return Page{}, fmt.Errorf("failed to load %s: %w", target, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return Page{}, fmt.Errorf("%s: %s", target, resp.Status)
	}

	page, err := RenderHTML(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return Page{}, fmt.Errorf("failed to parse %s: %w", target, err)
	}
	page.URL = target
	return page, nil
}

var hiddenTags = map[atom.Atom]bool{
	atom.Script:   true,
	atom.Style:    true,
	atom.Noscript: true,
	atom.Template: true,
	atom.Svg:      true,
	atom.Iframe:   true,
}

var blockTags = map[atom.Atom]bool{
	atom.P: true, atom.Div: true, atom.Br: true, atom.Li: true, atom.Tr: true,
	atom.H1: true, atom.H2: true, atom.H3: true, atom.H4: true, atom.H5: true, atom.H6: true,
	atom.Ul: true, atom.Ol: true, atom.Table: true, atom.Pre: true, atom.Blockquote: true,
	atom.Section: true, atom.Article: true, atom.Header: true, atom.Footer: true, atom.Nav: true,
	atom.Hr: true,
}

// RenderHTML extracts the title and the visible text of a document. Block
// elements start new lines and runs of whitespace collapse to one space.
func RenderHTML(r io.Reader) (Page, error) {
	z := html.NewTokenizer(r)

	var (
		page      Page
		text      strings.Builder
		hidden    int
		inTitle   bool
		lineStart = true
	)
	newline := func() {
		text.WriteByte('\n')
		lineStart = true
	}

	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			if errors.Is(z.Err(), io.EOF) {
				page.Text = tidyLines(text.String())
				return page, nil
			}
			return page, z.Err()

		case html.StartTagToken, html.SelfClosingTagToken:
			name, _ := z.TagName()
			tag := atom.Lookup(name)
			switch {
			case tag == atom.Title:
				inTitle = tt == html.StartTagToken
			case hiddenTags[tag]:
				if tt == html.StartTagToken {
					hidden++
				}
			case blockTags[tag]:
				newline()
			}

		case html.EndTagToken:
			name, _ := z.TagName()
			tag := atom.Lookup(name)
			switch {
			case tag == atom.Title:
				inTitle = false
			case hiddenTags[tag]:
				if hidden > 0 {
					hidden--
				}
			case blockTags[tag]:
				newline()
			}

		case html.TextToken:
			if hidden > 0 {
				continue
			}
			chunk := strings.Join(strings.Fields(string(z.Text())), " ")
			if chunk == "" {
				continue
			}
			if inTitle {
				page.Title = strings.TrimSpace(page.Title + " " + chunk)
				continue
			}
			if !lineStart {
				text.WriteByte(' ')
			}
			text.WriteString(chunk)
			lineStart = false
		}
	}
}

// tidyLines trims every line and drops the empty ones.
func tidyLines(s string) string {
	var lines []string
	for _, line := range strings.Split(s, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}
