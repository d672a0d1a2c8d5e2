package output

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Color definitions using AdaptiveColor for automatic light/dark mode switching
var (
	PrimaryColor = lipgloss.AdaptiveColor{Light: "#007ACC", Dark: "#3D9EFF"}
	SuccessColor = lipgloss.AdaptiveColor{Light: "#28A745", Dark: "#4CDD76"}
	ErrorColor   = lipgloss.AdaptiveColor{Light: "#DC3545", Dark: "#FF6B7D"}
	WarningColor = lipgloss.AdaptiveColor{Light: "#B8860B", Dark: "#FFD54F"}
	HeadingColor = lipgloss.AdaptiveColor{Light: "#212529", Dark: "#F8F9FA"}
	MutedColor   = lipgloss.AdaptiveColor{Light: "#6C757D", Dark: "#ADB5BD"}
	PathColor    = lipgloss.AdaptiveColor{Light: "#6C757D", Dark: "#A0A8B0"}
)

// palette holds the styles of one renderer. Styles are bound to a lipgloss
// renderer so plain-text output drops every escape code.
type palette struct {
	title   lipgloss.Style
	success lipgloss.Style
	warning lipgloss.Style
	failure lipgloss.Style
	muted   lipgloss.Style
	path    lipgloss.Style
	code    lipgloss.Style
}

func newPalette(r *lipgloss.Renderer) palette {
	return palette{
		title:   r.NewStyle().Foreground(HeadingColor).Bold(true),
		success: r.NewStyle().Foreground(SuccessColor).Bold(true),
		warning: r.NewStyle().Foreground(WarningColor).Bold(true),
		failure: r.NewStyle().Foreground(ErrorColor).Bold(true),
		muted:   r.NewStyle().Foreground(MutedColor),
		path:    r.NewStyle().Foreground(PathColor).Italic(true),
		code:    r.NewStyle().Foreground(PrimaryColor),
	}
}

func plainRenderer(r *lipgloss.Renderer) *lipgloss.Renderer {
	r.SetColorProfile(termenv.Ascii)
	return r
}
