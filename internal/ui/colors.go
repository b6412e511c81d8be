package ui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/desertthunder/ytmeta/internal/models"
)

var styles = NewPalette("#FF0000", "#04B575", "#FF4D4D", "#FFA500", "#626262")

// Palette is a simple stylesheet built with named [lipgloss.Style] fields
type Palette struct {
	title lipgloss.Style
	ok    lipgloss.Style
	err   lipgloss.Style
	warn  lipgloss.Style
	help  lipgloss.Style
}

func NewPalette(t, s, e, w, h string) *Palette {
	return &Palette{
		title: NewBold(t).MarginBottom(1),
		ok:    NewBold(s),
		err:   NewBold(e),
		warn:  NewStyle(w),
		help:  NewEm(h),
	}
}

// State picks the style for a row state label.
func (p *Palette) State(s models.JobState) lipgloss.Style {
	switch s {
	case models.Completed:
		return p.ok
	case models.Failed:
		return p.err
	case models.Updating:
		return p.warn
	default:
		return p.help
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
