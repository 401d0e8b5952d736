package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/desertthunder/songmatch/internal/models"
)

var styles = NewPalette("#7D56F4", "#04B575", "#FF0000", "#FFA500", "#626262")

// Brand colors used to tag each catalog.
var platformColors = map[models.Platform]lipgloss.Color{
	models.Spotify:    lipgloss.Color("#1DB954"),
	models.AppleMusic: lipgloss.Color("#FA243C"),
}

// struct Palette is a simple stylesheet built with named [lipgloss.Style] fields
type Palette struct {
	title lipgloss.Style
	ok    lipgloss.Style
	err   lipgloss.Style
	warn  lipgloss.Style
	help  lipgloss.Style
	box   lipgloss.Style
}

func NewPalette(t, s, e, w, h string) *Palette {
	return &Palette{
		title: NewBold(t).MarginBottom(1),
		ok:    NewBold(s),
		err:   NewBold(e),
		warn:  NewStyle(w),
		help:  NewEm(h),
		box:   lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color(h)).Padding(0, 1),
	}
}

func NewStyle(fg string) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(fg))
}

func NewBold(fg string) lipgloss.Style {
	return NewStyle(fg).Bold(true)
}

func NewEm(fg string) lipgloss.Style {
	return NewStyle(fg).Italic(true)
}

// platformTag renders p's label in its brand color.
func platformTag(p models.Platform) string {
	c, ok := platformColors[p]
	if !ok {
		return styles.help.Render(p.Label())
	}
	return lipgloss.NewStyle().Foreground(c).Bold(true).Render(p.Label())
}
