package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the blocks banner with the version underneath.
func PrintBanner(w io.Writer, version string) {
	p := termenv.EnvColorProfile()
	lines := []struct {
		text, color string
	}{
		{" _     _            _        ", "#818cf8"},
		{"| |__ | | ___   ___| | _____ ", "#a78bfa"},
		{"| '_ \\| |/ _ \\ / __| |/ / __|", "#c084fc"},
		{"| |_) | | (_) | (__|   <\\__ \\", "#e879f9"},
		{"|_.__/|_|\\___/ \\___|_|\\_\\___/", "#f472b6"},
	}
	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, p.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintln(w, p.String("  "+version).Faint())
	fmt.Fprintln(w)
}
