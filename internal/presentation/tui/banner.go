package tui

import (
	"fmt"
	"strings"

	"github.com/muesli/termenv"
)

// PrintBanner outputs the ASCII art banner shown before interactive
// sessions.
func PrintBanner(version string) {
	p := termenv.ColorProfile()
	// Teal-to-blue gradient.
	s1 := termenv.String("  _          __ _               ").Foreground(p.Color("#2dd4bf"))
	s2 := termenv.String(" (_) ___ _  / _| | _____      __").Foreground(p.Color("#22d3ee"))
	s3 := termenv.String(" | |/ __| | | |_| |/ _ \\ \\ /\\ / /").Foreground(p.Color("#38bdf8"))
	s4 := termenv.String(" | | (__| |_| |  _| | (_) \\ V  V / ").Foreground(p.Color("#60a5fa"))
	s5 := termenv.String(" |_|\\___|\\__,_|_| |_|\\___/ \\_/\\_/  ").Foreground(p.Color("#818cf8"))

	fmt.Println()
	fmt.Println(s1)
	fmt.Println(s2)
	fmt.Println(s3)
	fmt.Println(s4)
	fmt.Println(s5)
	if v := strings.TrimSpace(version); v != "" {
		fmt.Println(termenv.String("  v" + v).Foreground(p.Color("#94a3b8")))
	}
	fmt.Println()
}
