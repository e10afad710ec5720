package wizard

import (
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
)

// Brand colors, dark variants.
const (
	colorPrimary   = "#DF3A81"
	colorSecondary = "#25B9D7"
	colorSuccess   = "#70B580"
	colorError     = "#F54C3E"
	colorText      = "#E5E7EB"
	colorMuted     = "#6C868E"
	colorBorder    = "#4B5563"
)

// newWizardTheme creates a huh.Theme in the PrestaShop palette.
func newWizardTheme() *huh.Theme {
	t := huh.ThemeBase()

	primary := lipgloss.AdaptiveColor{Light: "#B8286A", Dark: colorPrimary}
	secondary := lipgloss.AdaptiveColor{Light: "#1B8FA6", Dark: colorSecondary}
	green := lipgloss.AdaptiveColor{Light: "#3F8A4F", Dark: colorSuccess}
	red := lipgloss.AdaptiveColor{Light: "#C9302C", Dark: colorError}
	text := lipgloss.AdaptiveColor{Light: "#111827", Dark: colorText}
	muted := lipgloss.AdaptiveColor{Light: "#9CA3AF", Dark: colorMuted}
	border := lipgloss.AdaptiveColor{Light: "#D1D5DB", Dark: colorBorder}

	t.Focused.Base = t.Focused.Base.BorderForeground(border)
	t.Focused.Card = t.Focused.Base
	t.Focused.Title = t.Focused.Title.Foreground(primary).Bold(true)
	t.Focused.Description = t.Focused.Description.Foreground(muted)
	t.Focused.ErrorIndicator = t.Focused.ErrorIndicator.Foreground(red)
	t.Focused.ErrorMessage = t.Focused.ErrorMessage.Foreground(red)
	t.Focused.TextInput.Cursor = t.Focused.TextInput.Cursor.Foreground(primary)
	t.Focused.TextInput.Placeholder = t.Focused.TextInput.Placeholder.Foreground(muted)
	t.Focused.TextInput.Prompt = t.Focused.TextInput.Prompt.Foreground(secondary)
	t.Focused.TextInput.Text = t.Focused.TextInput.Text.Foreground(text)
	t.Focused.SelectedOption = t.Focused.SelectedOption.Foreground(green)
	t.Focused.FocusedButton = t.Focused.FocusedButton.
		Foreground(lipgloss.AdaptiveColor{Light: "#FFFFFF", Dark: "#FFFFFF"}).
		Background(primary)
	t.Focused.Next = t.Focused.FocusedButton

	t.Blurred = t.Focused
	t.Blurred.Base = t.Focused.Base.BorderStyle(lipgloss.HiddenBorder())
	t.Blurred.Card = t.Blurred.Base

	t.Group.Title = t.Focused.Title
	t.Group.Description = t.Focused.Description

	return t
}
