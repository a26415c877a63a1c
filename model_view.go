package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const gutterWidth = 6

func (m model) View() string {
	if m.width <= 0 || m.height <= 0 {
		return ""
	}
	d := m.doc()
	if d == nil {
		return "no documents"
	}

	parts := []string{m.renderHeader(), m.renderBody()}
	if m.editing {
		parts = append(parts, m.renderPrompt())
	}
	parts = append(parts, m.renderFooter())
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m model) renderHeader() string {
	d := m.doc()
	dirStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(appTheme.PathDir))
	fileStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(appTheme.PathFile)).Bold(true)
	metaStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(appTheme.Muted))

	dir := filepath.Dir(d.rel)
	if dir == "." {
		dir = ""
	} else {
		dir += "/"
	}
	meta := fmt.Sprintf("  %s  v%d  %d:%d", d.dialect, d.version, d.caret.Line+1, d.caret.Column+1)
	if len(m.docs) > 1 {
		meta += fmt.Sprintf("  [%d/%d]", m.cur+1, len(m.docs))
	}

	avail := max(0, m.width-lipgloss.Width(meta))
	name := filepath.Base(d.rel)
	if lipgloss.Width(dir+name) > avail {
		dir = truncateText(dir, max(0, avail-lipgloss.Width(name)))
	}
	line := dirStyle.Render(dir) + fileStyle.Render(truncateText(name, avail)) + metaStyle.Render(meta)
	return padRightANSI(line, m.width)
}

func (m model) renderBody() string {
	d := m.doc()
	height := m.bodyHeight()
	l := m.screen.layer(d.path)
	rows := l.visibleLines(d.index.LineCount())

	numStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(appTheme.Dim))
	caretNumStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(appTheme.Accent)).Bold(true)
	codeWidth := max(0, m.width-gutterWidth-1)

	lines := make([]string, 0, height)
	for r := rowOf(rows, d.top); r < len(rows) && len(lines) < height; r++ {
		line := rows[r]
		caretLine := line == d.caret.Line

		num := numStyle
		if caretLine {
			num = caretNumStyle
		}
		prefix := num.Render(fmt.Sprintf("%*d ", gutterWidth, line+1))
		lines = append(lines, prefix+renderSourceLine(d, l, line, codeWidth, caretLine))
	}
	for len(lines) < height {
		lines = append(lines, "")
	}
	return strings.Join(lines, "\n")
}

func (m model) renderPrompt() string {
	style := lipgloss.NewStyle().Foreground(lipgloss.Color(appTheme.Text)).Background(lipgloss.Color(appTheme.InputBG))
	return padRightANSI(style.Render(m.input.View()), m.width)
}

func (m model) renderFooter() string {
	d := m.doc()
	hidden := m.coord.Hidden()

	indicator := lipgloss.NewStyle().Bold(true).Padding(0, 1)
	if hidden {
		indicator = indicator.Foreground(lipgloss.Color(appTheme.StatusOn))
	} else {
		indicator = indicator.Foreground(lipgloss.Color(appTheme.StatusOff))
	}
	muted := lipgloss.NewStyle().Foreground(lipgloss.Color(appTheme.Muted))
	errStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(appTheme.Error))

	spans, _ := m.coord.Spans(d.path)
	l := m.screen.layer(d.path)
	counts := fmt.Sprintf("%d spans, %d hidden, %d folds", len(spans), len(l.decorations), len(l.folds))
	if n := len(m.coord.Ignored()); n > 0 {
		counts += fmt.Sprintf(", %d kinds ignored", n)
	}

	text := counts
	if m.status != "" {
		text += " | " + m.status
	}
	text += " | t toggle  / ignore  y copy  o open  r reload  q quit"
	if len(m.docs) > 1 {
		text += "  tab next"
	}

	left := indicator.Render(statusLabel(hidden))
	rest := max(0, m.width-lipgloss.Width(left))
	if m.errMsg != "" {
		errText := truncateText(m.errMsg, rest)
		return left + errStyle.Render(errText)
	}
	return left + muted.Render(truncateText(text, rest))
}
