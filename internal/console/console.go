// Package console writes report output with lightweight inline markup and an
// optional progress bar for long scans.
package console

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/mattn/go-runewidth"
	"github.com/schollz/progressbar/v3"
	"golang.org/x/term"
)

const defaultWidth = 80

// markup maps inline tags to their ANSI open and close sequences.
var markup = map[string][2]string{
	"b":       {"\033[1m", "\033[22m"},
	"i":       {"\033[3m", "\033[23m"},
	"em":      {"\033[3m", "\033[23m"},
	"u":       {"\033[4m", "\033[24m"},
	"error":   {"\033[31m", "\033[39m"},
	"success": {"\033[32m", "\033[39m"},
	"comment": {"\033[33m", "\033[39m"},
}

var (
	colorReplacer = buildReplacer(true)
	plainReplacer = buildReplacer(false)
)

func buildReplacer(color bool) *strings.Replacer {
	pairs := make([]string, 0, len(markup)*4)
	for tag, seq := range markup {
		on, off := "", ""
		if color {
			on, off = seq[0], seq[1]
		}
		pairs = append(pairs, "<"+tag+">", on, "</"+tag+">", off)
	}
	return strings.NewReplacer(pairs...)
}

// Options configures a Console.
type Options struct {
	// Color enables ANSI rendering of markup; otherwise tags are stripped.
	Color bool
	// Progress receives the progress bar. Nil disables progress rendering.
	Progress io.Writer
	// Width overrides the detected terminal width.
	Width int
}

// Console is the output sink shared by all commands.
type Console struct {
	mu       sync.Mutex
	out      io.Writer
	color    bool
	progress io.Writer
	width    int
	bar      *progressbar.ProgressBar
}

// New creates a console writing report text to out.
func New(out io.Writer, opts Options) *Console {
	width := opts.Width
	if width <= 0 {
		width = terminalWidth(opts.Progress)
	}
	return &Console{
		out:      out,
		color:    opts.Color,
		progress: opts.Progress,
		width:    width,
	}
}

// ProgressWriter returns w when it is an interactive terminal and nil otherwise,
// so piped output never carries progress bar redraws.
func ProgressWriter(w io.Writer) io.Writer {
	if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return f
	}
	return nil
}

func terminalWidth(w io.Writer) int {
	if f, ok := w.(*os.File); ok {
		if width, _, err := term.GetSize(int(f.Fd())); err == nil && width > 0 {
			return width
		}
	}
	return defaultWidth
}

// Render applies markup to text.
func (c *Console) Render(text string) string {
	if c.color {
		return colorReplacer.Replace(text)
	}
	return plainReplacer.Replace(text)
}

// Output writes text without a trailing newline. Arguments are applied with
// fmt.Sprintf only when present, so literal percent signs survive.
func (c *Console) Output(text string, args ...interface{}) {
	if len(args) > 0 {
		text = fmt.Sprintf(text, args...)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprint(c.out, c.Render(text))
}

// OutputLine writes text followed by a newline.
func (c *Console) OutputLine(text string, args ...interface{}) {
	if len(args) > 0 {
		text = fmt.Sprintf(text, args...)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintln(c.out, c.Render(text))
}

// NewLine writes an empty line.
func (c *Console) NewLine() {
	c.OutputLine("")
}

// ProgressStart begins a progress bar with total steps.
func (c *Console) ProgressStart(total int, description string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.progress == nil {
		return
	}
	c.bar = progressbar.NewOptions(total,
		progressbar.OptionSetDescription(c.fitDescription(description)),
		progressbar.OptionSetWriter(c.progress),
		progressbar.OptionSetWidth(30),
		progressbar.OptionShowCount(),
		progressbar.OptionSetRenderBlankState(true),
		progressbar.OptionClearOnFinish(),
	)
}

// ProgressAdvance moves the bar forward by n steps.
func (c *Console) ProgressAdvance(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.bar != nil {
		_ = c.bar.Add(n)
	}
}

// ProgressFinish completes and clears the bar.
func (c *Console) ProgressFinish() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.bar != nil {
		_ = c.bar.Finish()
		c.bar = nil
	}
}

// fitDescription keeps the description within half the terminal so the bar
// itself still fits on one line.
func (c *Console) fitDescription(description string) string {
	limit := c.width / 2
	if limit < 10 {
		limit = 10
	}
	return runewidth.Truncate(description, limit, "...")
}
