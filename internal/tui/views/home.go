package views

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/rendis/routeview/internal/tui/styles"
)

// Version is shown in the TUI and by `routeview version`.
var Version = "v0.1.0"

func logo() string {
	name := lipgloss.NewStyle().
		Foreground(styles.Primary).
		Bold(true).
		Render("  routeview")

	version := lipgloss.NewStyle().
		Foreground(styles.Muted).
		Render(" " + Version)

	tagline := lipgloss.NewStyle().
		Foreground(styles.Secondary).
		Italic(true).
		Render("  US route map")

	return name + version + "\n" + tagline + "\n\n"
}

// FatalView is shown when the catalog or the base map could not be loaded.
// Without them no route can be drawn, so the only ways out are a reload or
// quitting.
func FatalView(err error) string {
	var b strings.Builder
	b.WriteString(logo())
	b.WriteString(styles.ErrorText.Render("Initialization failed"))
	b.WriteString("\n")
	b.WriteString(lipgloss.NewStyle().Foreground(styles.Text).Width(60).
		Render(fmt.Sprintf("%v", err)))
	b.WriteString("\n")
	b.WriteString(styles.StatusBar.Render("r retry • q quit"))
	return styles.Border.Padding(1, 2).Render(b.String())
}
