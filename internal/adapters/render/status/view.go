package status

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/bnema/mailbin/internal/application"
	"github.com/bnema/mailbin/internal/domain"
	"github.com/charmbracelet/lipgloss"
)

type RenderOptions struct {
	Now time.Time
}

func renderView(status application.SessionStatus, opts RenderOptions, s styles) string {
	lines := []string{
		s.title.Render("mailbin session"),
		s.header.Render(fmt.Sprintf("state: %s", status.State)),
	}

	if status.State != domain.SessionAuthenticated {
		lines = append(lines, s.empty.Render("Not signed in. Run `mailbin login` to connect your Google account."))
		return lipgloss.JoinVertical(lipgloss.Left, lines...)
	}

	lines = append(lines, s.section.Render(renderSession(status, opts, s)))

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func renderSession(status application.SessionStatus, opts RenderOptions, s styles) string {
	parts := []string{s.identity.Render(identityTitle(status.Profile))}

	if status.Scope != "" {
		parts = append(parts, s.detail.Render("scope: "+status.Scope))
	}
	parts = append(parts, lifetimeLine(status, opts, s))

	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func identityTitle(profile *domain.Profile) string {
	if profile == nil {
		return "Signed in (profile unavailable)"
	}

	name := strings.TrimSpace(profile.DisplayName())
	if profile.Email != "" && name != profile.Email {
		return fmt.Sprintf("Signed in as %s <%s>", name, profile.Email)
	}
	return "Signed in as " + name
}

func lifetimeLine(status application.SessionStatus, opts RenderOptions, s styles) string {
	label := s.key.Render("session:")
	if status.ExpiresAt.IsZero() {
		return label + " " + s.warning.Render("no expiry")
	}

	leftPercent := remainingPercent(status.IssuedAt, status.ExpiresAt, opts.Now)
	bar := renderProgressBar(leftPercent, 24, s)
	meta := lipgloss.NewStyle().Foreground(interpolateColor(leftPercent, 0, 100)).Render(fmt.Sprintf("%2.0f%% left", leftPercent))

	return lipgloss.JoinHorizontal(
		lipgloss.Top,
		label,
		" ",
		bar,
		" ",
		meta,
		" ",
		s.detail.Render(fmt.Sprintf("(%s)", formatExpiryRelative(status.ExpiresAt, opts.Now))),
	)
}

func remainingPercent(issuedAt, expiresAt, now time.Time) float64 {
	if now.IsZero() || issuedAt.IsZero() || !expiresAt.After(issuedAt) {
		return 100
	}

	total := expiresAt.Sub(issuedAt).Seconds()
	left := expiresAt.Sub(now).Seconds()
	return clampPercent(left / total * 100)
}

func renderProgressBar(leftPercent float64, width int, s styles) string {
	if width <= 0 {
		return ""
	}

	filled := int(math.Round(float64(width) * clampPercent(leftPercent) / 100))
	if filled > width {
		filled = width
	}

	return lipgloss.JoinHorizontal(
		lipgloss.Top,
		s.barBracket.Render("["),
		s.barFill.Render(strings.Repeat("=", filled)),
		s.barEmpty.Render(strings.Repeat("-", width-filled)),
		s.barBracket.Render("]"),
	)
}

func clampPercent(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

func formatExpiryAt(expiresAt, now time.Time) string {
	if now.IsZero() {
		return expiresAt.Format(time.RFC3339)
	}

	yearA, monthA, dayA := now.Date()
	yearB, monthB, dayB := expiresAt.Date()
	if yearA == yearB && monthA == monthB && dayA == dayB {
		return expiresAt.Format("15:04")
	}

	return expiresAt.Format("15:04 on 02 Jan")
}

func formatExpiryRelative(expiresAt, now time.Time) string {
	if now.IsZero() {
		return "expires " + formatExpiryAt(expiresAt, now)
	}
	if !expiresAt.After(now) {
		return "expired"
	}

	remaining := expiresAt.Sub(now)
	if remaining < time.Hour {
		minutes := int(math.Ceil(remaining.Minutes()))
		suffix := "minutes"
		if minutes == 1 {
			suffix = "minute"
		}
		return fmt.Sprintf("expires in %d %s (%s)", minutes, suffix, formatExpiryAt(expiresAt, now))
	}

	hours := int(math.Ceil(remaining.Hours()))
	suffix := "hours"
	if hours == 1 {
		suffix = "hour"
	}

	return fmt.Sprintf("expires in %d %s (%s)", hours, suffix, formatExpiryAt(expiresAt, now))
}

func interpolateColor(value, min, max float64) lipgloss.Color {
	if max == min {
		return lipgloss.Color("255")
	}

	normalized := (value - min) / (max - min)
	if normalized < 0 {
		normalized = 0
	}
	if normalized > 1 {
		normalized = 1
	}

	// ANSI 256 greyscale ramp: 240 (faded) at min, 255 (bright) at max
	return lipgloss.Color(fmt.Sprintf("%d", int(240+15*normalized)))
}
