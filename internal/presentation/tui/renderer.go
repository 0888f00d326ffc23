package tui

import (
	"github.com/charmbracelet/glamour"
)

// NewRenderer returns a function that renders node text as markdown.
// Algorithm steps are authored in plain text or light markdown; glamour
// picks a light or dark style from the terminal background.
func NewRenderer() func(string) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(80),
	)
	if err != nil {
		// Fall back to raw text when the terminal cannot be probed.
		return func(markdown string) (string, error) {
			return markdown, nil
		}
	}

	return func(markdown string) (string, error) {
		return r.Render(markdown)
	}
}
