package main

import (
	"context"
	"strings"
	"testing"

	"github.com/mattn/go-runewidth"
)

func TestSparkline(t *testing.T) {
	values := make([]uint64, 256)
	values[255] = 10
	got := sparkline(values, 4)
	if got != "▁▁▁█" {
		t.Errorf("sparkline = %q", got)
	}
	if sparkline(nil, 4) != "" {
		t.Error("empty input should give empty sparkline")
	}
	if n := len([]rune(sparkline(values, 1000))); n != 256 {
		t.Errorf("width should clamp to 256, got %d", n)
	}
}

func TestSparklineCountsEveryBucket(t *testing.T) {
	values := make([]uint64, 256)
	for i := 200; i < 256; i++ {
		values[i] = 100
	}
	for _, width := range []int{32, 100, 7, 255} {
		got := []rune(sparkline(values, width))
		if len(got) != width {
			t.Fatalf("width %d: got %d columns", width, len(got))
		}
		if got[width-1] != '█' {
			t.Errorf("width %d: last column = %q, want full", width, got[width-1])
		}
		if got[0] != '▁' {
			t.Errorf("width %d: first column = %q, want empty", width, got[0])
		}
	}
}

func TestSummarize(t *testing.T) {
	values := make([]uint64, 256)
	values[10] = 1
	values[20] = 3
	peak, mean := summarize(values)
	if peak != 20 || mean != 17.5 {
		t.Errorf("summarize = %d, %v", peak, mean)
	}
	if p, m := summarize(make([]uint64, 256)); p != 0 || m != 0 {
		t.Errorf("empty summarize = %d, %v", p, m)
	}
}

func TestColumn(t *testing.T) {
	if got := column("abc", 5); got != "abc  " {
		t.Errorf("column pad = %q", got)
	}
	got := column("写真のファイル名.jpg", 10)
	if w := runewidth.StringWidth(got); w != 10 {
		t.Errorf("column width = %d (%q)", w, got)
	}
}

func TestConsolePrompts(t *testing.T) {
	var out strings.Builder
	con := newConsole(strings.NewReader("y\n\n/tmp/a.png /tmp/dir\n/exports\n"), &out)

	if !con.Confirm("Remove?") {
		t.Error("y should confirm")
	}
	if _, ok := con.PickImages(context.Background()); ok {
		t.Error("empty line should cancel")
	}
	paths, ok := con.PickImages(context.Background())
	if !ok || len(paths) != 2 {
		t.Errorf("PickImages = %v, %v", paths, ok)
	}
	dir, ok := con.PickDirectory(context.Background())
	if !ok || dir != "/exports" {
		t.Errorf("PickDirectory = %q, %v", dir, ok)
	}
	if con.Confirm("Again?") {
		t.Error("EOF should decline")
	}
	if !strings.Contains(out.String(), "Remove? [y/N]") {
		t.Errorf("prompt missing from %q", out.String())
	}
}
