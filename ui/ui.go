// Package ui prints the per-step status lines of a provisioning run.
package ui

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
)

var (
	okStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	infoStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
	warnStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	failStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	stepStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("14")).Bold(true)
)

// Printer writes marked status lines to a single writer.
type Printer struct {
	w io.Writer
}

func New(w io.Writer) *Printer {
	return &Printer{w: w}
}

// Step announces the start of a pipeline step.
func (p *Printer) Step(format string, args ...any) {
	fmt.Fprintf(p.w, "%s %s\n", stepStyle.Render("==>"), fmt.Sprintf(format, args...))
}

func (p *Printer) OK(format string, args ...any) {
	fmt.Fprintf(p.w, "%s %s\n", okStyle.Render("[ OK ]"), fmt.Sprintf(format, args...))
}

func (p *Printer) Info(format string, args ...any) {
	fmt.Fprintf(p.w, "%s %s\n", infoStyle.Render("[INFO]"), fmt.Sprintf(format, args...))
}

func (p *Printer) Warn(format string, args ...any) {
	fmt.Fprintf(p.w, "%s %s\n", warnStyle.Render("[WARN]"), fmt.Sprintf(format, args...))
}

func (p *Printer) Fail(format string, args ...any) {
	fmt.Fprintf(p.w, "%s %s\n", failStyle.Render("[FAIL]"), fmt.Sprintf(format, args...))
}

// Prompt prints a question without a trailing newline so the operator
// answers on the same line.
func (p *Printer) Prompt(format string, args ...any) {
	fmt.Fprintf(p.w, "%s", fmt.Sprintf(format, args...))
}
