// Package render draws an article in the terminal with the sentence being
// read highlighted.
package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"codeberg.org/snonux/readaloud/internal/highlight"
	"codeberg.org/snonux/readaloud/internal/playback"
)

// DefaultWidth is the wrap width when none is configured
const DefaultWidth = 80

// Terminal renders sentences with a style per highlight state
type Terminal struct {
	width   int
	styles  map[highlight.State]lipgloss.Style
	title   lipgloss.Style
	status  lipgloss.Style
	failure lipgloss.Style
}

// NewTerminal creates a renderer for out. Colors are only emitted when
// out is a terminal that supports them.
func NewTerminal(out io.Writer, width int) *Terminal {
	if width <= 0 {
		width = DefaultWidth
	}
	r := lipgloss.NewRenderer(out)

	return &Terminal{
		width: width,
		styles: map[highlight.State]lipgloss.Style{
			highlight.Read:    r.NewStyle().Faint(true),
			highlight.Current: r.NewStyle().Bold(true).Foreground(lipgloss.Color("0")).Background(lipgloss.Color("11")),
			highlight.Unread:  r.NewStyle(),
		},
		title:   r.NewStyle().Bold(true).Underline(true),
		status:  r.NewStyle().Foreground(lipgloss.Color("8")),
		failure: r.NewStyle().Foreground(lipgloss.Color("9")),
	}
}

// Render returns the sentences as wrapped text, styled by their position
// relative to cursor.
func (t *Terminal) Render(sentences []string, cursor int) string {
	parts := make([]string, 0, len(sentences))
	for _, h := range highlight.Project(len(sentences), cursor) {
		parts = append(parts, t.styles[h.State].Render(sentences[h.Index]))
	}
	return wordwrap.String(strings.Join(parts, " "), t.width)
}

// Title renders an article title on its own line
func (t *Terminal) Title(title string) string {
	if title == "" {
		return ""
	}
	return t.title.Render(wordwrap.String(title, t.width))
}

// Status renders a one-line summary of the playback state
func (t *Terminal) Status(st playback.State) string {
	position := st.Cursor + 1
	if position > st.Count {
		position = st.Count
	}

	line := fmt.Sprintf("[%d/%d] %s", position, st.Count, st.Mode)
	if st.Exhausted() {
		line = fmt.Sprintf("[%d/%d] finished", st.Count, st.Count)
	}
	if st.Err != nil {
		return t.failure.Render(line + ": " + st.Err.Error())
	}
	return t.status.Render(line)
}
