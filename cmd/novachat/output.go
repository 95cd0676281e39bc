package main

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	promptStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	replyStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("15"))
	warnStyle   = lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("11"))
	errorStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// printer writes styled output, or plain text when w is not a terminal.
type printer struct {
	w      io.Writer
	styled bool
}

func newPrinter(w io.Writer, plain bool) *printer {
	styled := false
	if f, ok := w.(*os.File); ok && !plain {
		styled = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return &printer{w: w, styled: styled}
}

func (p *printer) render(style lipgloss.Style, s string) string {
	if !p.styled || s == "" {
		return s
	}
	return style.Render(s)
}

func (p *printer) reply(s string) string {
	return p.render(replyStyle, s)
}

func (p *printer) header(agentID string) {
	fmt.Fprintln(p.w, p.render(headerStyle, "nova chat")+" "+p.render(dimStyle, "agent "+agentID+", /quit to exit"))
}

func (p *printer) prompt() {
	fmt.Fprint(p.w, p.render(promptStyle, "> "))
}

func (p *printer) warn(s string) {
	fmt.Fprintln(p.w, p.render(warnStyle, s))
}

func (p *printer) failure(s string) {
	fmt.Fprintln(p.w, p.render(errorStyle, s))
}
