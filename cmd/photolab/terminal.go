package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"github.com/fjyeo/Open-Photo-Lab/internal/app"
	"github.com/fjyeo/Open-Photo-Lab/internal/imaging"
)

// console serializes output from the prompt loop and background charts
type console struct {
	mu  sync.Mutex
	out io.Writer
	in  *bufio.Reader
}

func newConsole(in io.Reader, out io.Writer) *console {
	return &console{in: bufio.NewReader(in), out: out}
}

func (c *console) Printf(format string, args ...interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.out, format, args...)
}

// ReadLine prompts and returns the trimmed input; ok is false on EOF
func (c *console) ReadLine(prompt string) (string, bool) {
	if prompt != "" {
		c.Printf("%s", prompt)
	}
	line, err := c.in.ReadString('\n')
	if err != nil && line == "" {
		return "", false
	}
	return strings.TrimSpace(line), true
}

// Confirm asks a yes/no question; anything but y/yes is no
func (c *console) Confirm(message string) bool {
	answer, ok := c.ReadLine(message + " [y/N] ")
	if !ok {
		return false
	}
	answer = strings.ToLower(answer)
	return answer == "y" || answer == "yes"
}

var alertMark = color.New(color.FgRed, color.Bold).Sprint("!")

// Alert prints a user-visible notice
func (c *console) Alert(message string) {
	c.Printf("%s %s\n", alertMark, message)
}

// PickImages reads whitespace separated paths; an empty line cancels
func (c *console) PickImages(ctx context.Context) ([]string, bool) {
	line, ok := c.ReadLine("Images or directories to import: ")
	if !ok || line == "" {
		return nil, false
	}
	return strings.Fields(line), true
}

// PickDirectory reads one directory path; an empty line cancels
func (c *console) PickDirectory(ctx context.Context) (string, bool) {
	line, ok := c.ReadLine("Export to directory: ")
	if !ok || line == "" {
		return "", false
	}
	return line, true
}

// Draw prints a histogram as one sparkline per series
func (c *console) Draw(path string, datasets []imaging.Dataset) app.Chart {
	var b strings.Builder
	fmt.Fprintf(&b, "histogram %s\n", path)
	for _, ds := range datasets {
		fmt.Fprintf(&b, "  %s %s\n", runewidth.FillRight(ds.Label, 10), sparkline(ds.Values, 32))
	}
	c.Printf("%s", b.String())
	return chart{}
}

type chart struct{}

func (chart) Destroy() {}

var sparkLevels = []rune("▁▂▃▄▅▆▇█")

// sparkline condenses values into width buckets scaled to the largest one
func sparkline(values []uint64, width int) string {
	if len(values) == 0 || width <= 0 {
		return ""
	}
	if width > len(values) {
		width = len(values)
	}
	// Columns cover [i*n/width, (i+1)*n/width) so every bucket is counted;
	// heights use the column mean since column spans differ by one.
	n := len(values)
	means := make([]float64, width)
	var peak float64
	for i := range means {
		lo, hi := i*n/width, (i+1)*n/width
		var sum uint64
		for _, v := range values[lo:hi] {
			sum += v
		}
		means[i] = float64(sum) / float64(hi-lo)
		if means[i] > peak {
			peak = means[i]
		}
	}

	out := make([]rune, width)
	for i, m := range means {
		level := 0
		if peak > 0 {
			level = int(m * float64(len(sparkLevels)-1) / peak)
		}
		out[i] = sparkLevels[level]
	}
	return string(out)
}

// column pads or truncates s to exactly width terminal cells
func column(s string, width int) string {
	return runewidth.FillRight(runewidth.Truncate(s, width, "…"), width)
}
