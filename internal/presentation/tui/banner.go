package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

var bannerLines = []struct {
	text, color string
}{
	{"      _", "#818cf8"},
	{"  ___(_)_ __   _____      __", "#a78bfa"},
	{" / __| | '_ \\ / _ \\ \\ /\\ / /", "#c084fc"},
	{" \\__ \\ | | | |  __/\\ V  V /", "#e879f9"},
	{" |___/_|_| |_|\\___| \\_/\\_/", "#f472b6"},
}

// PrintBanner writes the sinew banner and version to w. Colors follow the
// profile of w, so plain writers get plain text.
func PrintBanner(w io.Writer, version string) {
	out := termenv.NewOutput(w)
	fmt.Fprintln(w)
	for _, l := range bannerLines {
		fmt.Fprintln(w, out.String(l.text).Foreground(out.Color(l.color)))
	}
	fmt.Fprintln(w, out.String("  v"+version).Faint())
	fmt.Fprintln(w)
}
