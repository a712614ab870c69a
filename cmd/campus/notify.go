package main

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/goliatone/go-portal"
)

var (
	successStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42"))
	errorStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
	labelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(14)
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	boxStyle     = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Padding(0, 1)
)

// toastNotifier prints transient notifications, one line each
type toastNotifier struct {
	out io.Writer
}

var _ portal.Notifier = toastNotifier{}

func (t toastNotifier) Success(message string) {
	fmt.Fprintln(t.out, successStyle.Render("✔ "+message))
}

func (t toastNotifier) Error(message string) {
	fmt.Fprintln(t.out, errorStyle.Render("✘ "+message))
}

func field(label, value string) string {
	return labelStyle.Render(label) + value
}
