package newsletters

import (
	"fmt"
	"strings"

	"github.com/bnema/mailbin/internal/domain"
	"github.com/charmbracelet/lipgloss"
)

func renderView(items []domain.ListItem, s styles) string {
	lines := []string{
		s.title.Render("Newsletters"),
		s.header.Render(fmt.Sprintf("senders: %d", len(items))),
	}

	if len(items) == 0 {
		lines = append(lines, s.empty.Render("No newsletters found."))
		return lipgloss.JoinVertical(lipgloss.Left, lines...)
	}

	for _, item := range items {
		lines = append(lines, s.item.Render(renderItem(item, s)))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func renderItem(item domain.ListItem, s styles) string {
	title := strings.TrimSpace(item.Title)
	if title == "" {
		title = item.Email
	}

	parts := []string{
		lipgloss.JoinHorizontal(lipgloss.Top, s.company.Render(title), " ", s.count.Render(emailCount(item.NumberOfEmails))),
		s.email.Render(item.Email),
	}
	if item.UnsubscribeLink != "" {
		parts = append(parts, s.link.Render(item.UnsubscribeLink))
	}

	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func emailCount(n int) string {
	if n == 1 {
		return "(1 email)"
	}
	return fmt.Sprintf("(%d emails)", n)
}
