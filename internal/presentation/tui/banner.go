package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

var bannerLines = []struct {
	text  string
	color string
}{
	{`   ___              _         __ _`, "#34d399"},
	{`  / _ \ _   _  ___ | |_ ___  / _| | _____      __`, "#2dd4bf"},
	{` | | | | | | |/ _ \| __/ _ \| |_| |/ _ \ \ /\ / /`, "#22d3ee"},
	{` | |_| | |_| | (_) | ||  __/|  _| | (_) \ V  V /`, "#38bdf8"},
	{`  \__\_\\__,_|\___/ \__\___||_| |_|\___/ \_/\_/`, "#60a5fa"},
}

// PrintBanner writes the quoteflow banner to w, colored when w is a terminal.
func PrintBanner(w io.Writer) {
	out := termenv.NewOutput(w)
	p := out.ColorProfile()

	fmt.Fprintln(w)
	for _, line := range bannerLines {
		fmt.Fprintln(w, out.String(line.text).Foreground(p.Color(line.color)))
	}
	fmt.Fprintln(w)
}
