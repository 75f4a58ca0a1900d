// Package ui renders stale's CLI output: run summaries, policy check results
// and the demo item listing. Colors follow the Ayu theme and adapt to light
// and dark terminals.
package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Ayu palette
// Dark: https://terminalcolors.com/themes/ayu/dark/
// Light: https://terminalcolors.com/themes/ayu/light/
var (
	colorPass   = lipgloss.AdaptiveColor{Light: "#86b300", Dark: "#c2d94c"}
	colorWarn   = lipgloss.AdaptiveColor{Light: "#f2ae49", Dark: "#ffb454"}
	colorFail   = lipgloss.AdaptiveColor{Light: "#f07171", Dark: "#f07178"}
	colorMuted  = lipgloss.AdaptiveColor{Light: "#828c99", Dark: "#6c7680"}
	colorAccent = lipgloss.AdaptiveColor{Light: "#399ee6", Dark: "#59c2ff"}
)

var (
	passStyle     = lipgloss.NewStyle().Foreground(colorPass)
	warnStyle     = lipgloss.NewStyle().Foreground(colorWarn)
	failStyle     = lipgloss.NewStyle().Foreground(colorFail)
	mutedStyle    = lipgloss.NewStyle().Foreground(colorMuted)
	accentStyle   = lipgloss.NewStyle().Foreground(colorAccent)
	categoryStyle = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
)

// Run status icons. A skipped run is one that `only` or `perform` disabled.
const (
	IconPass = "✓"
	IconWarn = "⚠"
	IconFail = "✗"
	IconSkip = "-"
)

// Separator sits between a check verdict and its field errors.
const Separator = "──────────────────────────────────────────"

// RenderWarn styles budget warnings.
func RenderWarn(s string) string { return warnStyle.Render(s) }

// RenderFail styles failures and invalid field paths.
func RenderFail(s string) string { return failStyle.Render(s) }

// RenderMuted styles secondary detail such as labels and hints.
func RenderMuted(s string) string { return mutedStyle.Render(s) }

// RenderAccent styles repository names.
func RenderAccent(s string) string { return accentStyle.Render(s) }

// RenderCategory renders a section header in upper case.
func RenderCategory(s string) string {
	return categoryStyle.Render(strings.ToUpper(s))
}

// RenderSeparator renders Separator in the muted color.
func RenderSeparator() string { return mutedStyle.Render(Separator) }

func RenderPassIcon() string { return passStyle.Render(IconPass) }
func RenderWarnIcon() string { return warnStyle.Render(IconWarn) }
func RenderFailIcon() string { return failStyle.Render(IconFail) }
func RenderSkipIcon() string { return mutedStyle.Render(IconSkip) }
