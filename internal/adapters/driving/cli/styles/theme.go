// Package styles provides colour themes and styling for CLI output.
package styles

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Theme defines the colour palette for terminal output.
type Theme struct {
	// Primary is the main accent colour.
	Primary lipgloss.Color

	// Secondary is the secondary accent colour.
	Secondary lipgloss.Color

	// Muted is for less important text.
	Muted lipgloss.Color

	// Success indicates positive outcomes.
	Success lipgloss.Color

	// Warning indicates caution.
	Warning lipgloss.Color

	// Error indicates problems.
	Error lipgloss.Color

	// Critical marks the highest severity.
	Critical lipgloss.Color
}

// DefaultTheme returns the default colour theme.
func DefaultTheme() *Theme {
	return &Theme{
		Primary:   lipgloss.Color("#7C3AED"), // Purple
		Secondary: lipgloss.Color("#06B6D4"), // Cyan
		Muted:     lipgloss.Color("#6C7086"), // Medium gray
		Success:   lipgloss.Color("#A6E3A1"), // Green
		Warning:   lipgloss.Color("#F9E2AF"), // Yellow
		Error:     lipgloss.Color("#FAB387"), // Orange
		Critical:  lipgloss.Color("#F38BA8"), // Red
	}
}

// Styles contains pre-configured lipgloss styles.
// When disabled every render returns its input unchanged.
type Styles struct {
	theme   *Theme
	enabled bool

	// Title style for headers.
	Title lipgloss.Style

	// Subtitle style for secondary headers.
	Subtitle lipgloss.Style

	// Muted style for less important text.
	Muted lipgloss.Style

	// Warning style for warning messages.
	Warning lipgloss.Style

	// Error style for error messages.
	Error lipgloss.Style

	// Prompt style for the chat prompt.
	Prompt lipgloss.Style

	severity map[string]lipgloss.Style
}

// NewStyles creates styles from a theme.
func NewStyles(theme *Theme, enabled bool) *Styles {
	if theme == nil {
		theme = DefaultTheme()
	}

	return &Styles{
		theme:   theme,
		enabled: enabled,

		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(theme.Primary),

		Subtitle: lipgloss.NewStyle().
			Bold(true).
			Foreground(theme.Secondary),

		Muted: lipgloss.NewStyle().
			Foreground(theme.Muted),

		Warning: lipgloss.NewStyle().
			Foreground(theme.Warning),

		Error: lipgloss.NewStyle().
			Foreground(theme.Critical),

		Prompt: lipgloss.NewStyle().
			Bold(true).
			Foreground(theme.Secondary),

		severity: map[string]lipgloss.Style{
			"CRITICAL": lipgloss.NewStyle().Bold(true).Foreground(theme.Critical),
			"HIGH":     lipgloss.NewStyle().Bold(true).Foreground(theme.Error),
			"MEDIUM":   lipgloss.NewStyle().Foreground(theme.Warning),
			"LOW":      lipgloss.NewStyle().Foreground(theme.Success),
		},
	}
}

// DefaultStyles returns enabled styles with the default theme.
func DefaultStyles() *Styles {
	return NewStyles(DefaultTheme(), true)
}

// Theme returns the theme used by these styles.
func (s *Styles) Theme() *Theme {
	return s.theme
}

// Enabled reports whether styling is applied.
func (s *Styles) Enabled() bool {
	return s.enabled
}

// Render applies style to text when styling is enabled.
func (s *Styles) Render(style lipgloss.Style, text string) string {
	if !s.enabled {
		return text
	}
	return style.Render(text)
}

// SeverityStyle returns the style for a CVSS severity label.
// Unknown labels, including "N/A", get the muted style.
func (s *Styles) SeverityStyle(label string) lipgloss.Style {
	if style, ok := s.severity[strings.ToUpper(label)]; ok {
		return style
	}
	return s.Muted
}

// Severity renders a severity label.
func (s *Styles) Severity(label string) string {
	return s.Render(s.SeverityStyle(label), label)
}

// Markdown styles the heading lines of a rendered report and any
// severity labels. Other lines are returned untouched.
func (s *Styles) Markdown(report string) string {
	if !s.enabled {
		return report
	}
	lines := strings.Split(report, "\n")
	for i, line := range lines {
		switch {
		case strings.HasPrefix(line, "# "):
			lines[i] = s.Title.Render(line)
		case strings.HasPrefix(line, "## "), strings.HasPrefix(line, "### "):
			lines[i] = s.Subtitle.Render(line)
		default:
			lines[i] = s.highlightSeverity(line)
		}
	}
	return strings.Join(lines, "\n")
}

func (s *Styles) highlightSeverity(line string) string {
	for label, style := range s.severity {
		if idx := strings.Index(line, "("+label+")"); idx >= 0 {
			return line[:idx+1] + style.Render(label) + line[idx+1+len(label):]
		}
		if strings.HasSuffix(line, "**Severity**: "+label) {
			return strings.TrimSuffix(line, label) + style.Render(label)
		}
	}
	return line
}
