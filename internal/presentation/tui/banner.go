package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/muesli/termenv"
)

var bannerLines = []struct {
	text, color string
}{
	{`   ____        _      ______              `, "#818cf8"},
	{`  / __ \__  __(_)___ / ____/___ _      __`, "#a78bfa"},
	{` / / / / / / / /_  // /_  / / __ \ | /| / /`, "#c084fc"},
	{`/ /_/ / /_/ / / / // __/ / / /_/ / |/ |/ / `, "#e879f9"},
	{`\___\_\__,_/_/ /___/_/   /_/\____/|__/|__/  `, "#f472b6"},
}

// PrintBanner writes the coloured banner and the version to w.
func PrintBanner(w io.Writer, version string) {
	out := termenv.NewOutput(w)
	p := out.ColorProfile()

	fmt.Fprintln(w)
	for _, l := range bannerLines {
		fmt.Fprintln(w, termenv.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintln(w, termenv.String("  v"+strings.TrimSpace(version)).Faint())
	fmt.Fprintln(w)
}
