package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// CLI output styles in the PrestaShop palette.
var (
	cliSuccess = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#3B7D4A", Dark: "#70B580"})
	cliWarn    = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#B7700B", Dark: "#FAB000"})
	cliMuted   = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#6C868E", Dark: "#9CA3AF"})
	cliPrimary = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#B3245F", Dark: "#DF3A81"})
	cliBorder  = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#D1D5DB", Dark: "#4B5563"})
)

func symSuccess() string { return cliSuccess.Render("✓") }
func symWarning() string { return cliWarn.Render("!") }

func cardStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(cliBorder.GetForeground()).
		Padding(0, 2)
}

// detail is one labelled line of a summary card.
type detail struct {
	label string
	value string
}

// successCard renders a bordered summary with aligned detail lines.
func successCard(title string, details ...detail) string {
	var body strings.Builder
	body.WriteString(symSuccess() + " " + cliPrimary.Bold(true).Render(title))

	width := 0
	for _, d := range details {
		width = max(width, len(d.label))
	}
	if len(details) > 0 {
		body.WriteString("\n")
	}
	for _, d := range details {
		label := fmt.Sprintf("%-*s", width, d.label)
		body.WriteString("\n" + cliMuted.Render(label) + "  " + d.value)
	}
	return cardStyle().Render(body.String())
}

// warnLine renders a one-line warning.
func warnLine(msg string) string {
	return symWarning() + " " + cliWarn.Render(msg)
}

// elapsed formats a duration for summary cards.
func elapsed(d time.Duration) string {
	return d.Round(time.Millisecond).String()
}
