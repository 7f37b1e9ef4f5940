package newsletters

import "github.com/charmbracelet/lipgloss"

type styles struct {
	title   lipgloss.Style
	header  lipgloss.Style
	company lipgloss.Style
	email   lipgloss.Style
	count   lipgloss.Style
	link    lipgloss.Style
	item    lipgloss.Style
	empty   lipgloss.Style
}

func newStyles() styles {
	return styles{
		title:   lipgloss.NewStyle().Bold(true),
		header:  lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		company: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),
		email:   lipgloss.NewStyle().Foreground(lipgloss.Color("252")),
		count:   lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		link:    lipgloss.NewStyle().Foreground(lipgloss.Color("159")).Underline(true),
		item:    lipgloss.NewStyle().MarginTop(1).PaddingLeft(2).Border(lipgloss.NormalBorder(), false, false, false, true).BorderForeground(lipgloss.Color("238")),
		empty:   lipgloss.NewStyle().Faint(true),
	}
}
