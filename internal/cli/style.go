package cli

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
)

var styles = struct {
	Title   lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style
	Info    lipgloss.Style
	Subtle  lipgloss.Style
	Bold    lipgloss.Style
}{
	Title:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("99")),
	Success: lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
	Warning: lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
	Info:    lipgloss.NewStyle().Foreground(lipgloss.Color("33")),
	Subtle:  lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
	Bold:    lipgloss.NewStyle().Bold(true),
}

func printLine(w io.Writer, style lipgloss.Style, msg string) {
	fmt.Fprintln(w, style.Render(msg))
}

func printSuccess(w io.Writer, msg string) { printLine(w, styles.Success, "✓ "+msg) }
func printWarning(w io.Writer, msg string) { printLine(w, styles.Warning, "⚠ "+msg) }
func printInfo(w io.Writer, msg string)    { printLine(w, styles.Info, "ℹ "+msg) }
func printTitle(w io.Writer, msg string)   { printLine(w, styles.Title, msg) }
func printSubtle(w io.Writer, msg string)  { printLine(w, styles.Subtle, msg) }
