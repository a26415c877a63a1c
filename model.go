package main

import (
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"typehide/internal/highlighter"
	"typehide/internal/lang"
	"typehide/internal/typespan"
	"typehide/internal/visibility"
)

type viewConfig struct {
	EditorCmd string
	JSX       bool
}

// viewDoc is one file open in the viewer.
type viewDoc struct {
	path    string
	rel     string
	lang    lang.ID
	dialect typespan.Dialect
	version int
	text    string
	index   *typespan.LineIndex
	colors  []highlighter.Span

	caret typespan.Position
	// first source line on screen
	top int
}

func (d *viewDoc) setText(text string) {
	d.text = text
	d.index = typespan.NewLineIndex(text)
	d.version++
}

func (d *viewDoc) document() visibility.Document {
	return visibility.Document{URI: d.path, Version: d.version, Text: d.text, Dialect: d.dialect}
}

func (d *viewDoc) caretOffset() int {
	return d.index.Offset(d.caret)
}

// lineBounds returns the byte range of line without its line break.
func (d *viewDoc) lineBounds(line int) (int, int) {
	start := d.index.LineStart(line)
	end := d.index.LineStart(line + 1)
	if line+1 < d.index.LineCount() {
		end-- // '\n'
	}
	if end > start && d.text[end-1] == '\r' {
		end--
	}
	return start, end
}

func (d *viewDoc) lineRunes(line int) int {
	start, end := d.lineBounds(line)
	return utf8.RuneCountInString(d.text[start:end])
}

type editorDoneMsg struct {
	err error
}

type model struct {
	cfg    viewConfig
	coord  *visibility.Coordinator
	screen *screen
	hl     *highlighter.Highlighter

	docs []*viewDoc
	cur  int

	width  int
	height int

	input   textinput.Model
	editing bool

	status string
	errMsg string
}

func newModel(cfg viewConfig, coord *visibility.Coordinator, scr *screen, hl *highlighter.Highlighter, docs []*viewDoc) model {
	input := textinput.New()
	input.Prompt = "ignore> "
	input.Placeholder = "comma separated kinds, empty shows all"
	input.CharLimit = 512
	input.Cursor.Style = lipgloss.NewStyle().Foreground(lipgloss.Color(appTheme.Accent))

	m := model{
		cfg:    cfg,
		coord:  coord,
		screen: scr,
		hl:     hl,
		docs:   docs,
		input:  input,
	}
	for _, d := range docs {
		d.colors = hl.Document(d.lang, d.text)
	}
	m.apply()
	return m
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) doc() *viewDoc {
	if m.cur < 0 || m.cur >= len(m.docs) {
		return nil
	}
	return m.docs[m.cur]
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.input.Width = max(16, m.width-12)
		m.ensureCaretVisible()
		return m, nil

	case editorDoneMsg:
		if msg.err != nil {
			m.status = "editor failed: " + msg.err.Error()
			return m, nil
		}
		m.reload()
		return m, nil

	case tea.KeyMsg:
		if m.editing {
			return m.updateIgnorePrompt(msg)
		}
		return m.updateKeys(msg)
	}
	return m, nil
}

func (m model) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	d := m.doc()
	if d == nil {
		return m, tea.Quit
	}

	switch msg.String() {
	case "ctrl+c", "q", "esc":
		return m, tea.Quit
	case "t":
		m.status = statusLabel(m.coord.Toggle())
	case "up", "k":
		m.moveLine(-1)
	case "down", "j":
		m.moveLine(1)
	case "pgup", "ctrl+u":
		m.moveLine(-m.pageRows())
	case "pgdown", "ctrl+d":
		m.moveLine(m.pageRows())
	case "home", "g":
		d.caret = typespan.Position{}
	case "end", "G":
		d.caret = typespan.Position{Line: d.index.LineCount() - 1}
	case "left", "h":
		m.moveColumn(-1)
	case "right", "l":
		m.moveColumn(1)
	case "tab":
		m.cur = (m.cur + 1) % len(m.docs)
	case "shift+tab":
		m.cur = (m.cur - 1 + len(m.docs)) % len(m.docs)
	case "r":
		m.reload()
	case "/":
		m.editing = true
		m.input.SetValue(joinKinds(m.coord.Ignored()))
		m.input.CursorEnd()
		return m, m.input.Focus()
	case "y":
		text, what := m.caretSpanText()
		if err := copyToClipboard(text); err != nil {
			m.status = "copy failed: " + err.Error()
		} else {
			m.status = "copied " + what
		}
		return m, nil
	case "o":
		return m, m.openAtCaret()
	default:
		return m, nil
	}

	m.apply()
	return m, nil
}

func (m model) updateIgnorePrompt(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "ctrl+c":
		m.editing = false
		m.input.Blur()
		return m, nil
	case "enter":
		kinds, err := typespan.ParseKinds(splitKindList(m.input.Value()))
		if err != nil {
			m.errMsg = err.Error()
			return m, nil
		}
		m.errMsg = ""
		m.editing = false
		m.input.Blur()
		m.coord.SetIgnored(kinds)
		m.status = fmt.Sprintf("%d kinds ignored", len(kinds))
		m.apply()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func splitKindList(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ' ' })
}

func joinKinds(kinds []typespan.Kind) string {
	names := make([]string, len(kinds))
	for i, k := range kinds {
		names[i] = k.String()
	}
	return strings.Join(names, ",")
}

// apply asks the coordinator to bring the current document's decorations and
// folds in line with the mode and caret.
func (m *model) apply() {
	d := m.doc()
	if d == nil {
		return
	}
	if err := m.coord.Apply(d.path, d.caretOffset()); err != nil {
		m.errMsg = err.Error()
		return
	}
	m.ensureCaretVisible()
}

// reload re-reads the current file after an external edit.
func (m *model) reload() {
	d := m.doc()
	if d == nil {
		return
	}
	source, _, err := loadSource(nil, d.path, m.cfg.JSX)
	if err != nil {
		m.errMsg = err.Error()
		return
	}
	if source == d.text {
		m.status = "unchanged"
		return
	}
	d.setText(source)
	d.colors = m.hl.Document(d.lang, d.text)
	if _, err := m.coord.AnalyzeNow(d.document()); err != nil {
		m.errMsg = err.Error()
		return
	}
	d.caret.Line = clamp(d.caret.Line, 0, d.index.LineCount()-1)
	m.status = fmt.Sprintf("reloaded v%d", d.version)
	m.apply()
}

func (m *model) moveLine(delta int) {
	d := m.doc()
	if d == nil {
		return
	}
	l := m.screen.layer(d.path)
	line := d.caret.Line + delta
	// step over collapsed lines in the direction of travel
	for line > 0 && line < d.index.LineCount()-1 && l.folded(line) {
		if delta < 0 {
			line--
		} else {
			line++
		}
	}
	d.caret.Line = clamp(line, 0, d.index.LineCount()-1)
	d.caret.Column = min(d.caret.Column, d.lineRunes(d.caret.Line))
}

func (m *model) moveColumn(delta int) {
	d := m.doc()
	if d == nil {
		return
	}
	col := d.caret.Column + delta
	switch {
	case col < 0 && d.caret.Line > 0:
		d.caret.Line--
		col = d.lineRunes(d.caret.Line)
	case col > d.lineRunes(d.caret.Line) && d.caret.Line < d.index.LineCount()-1:
		d.caret.Line++
		col = 0
	}
	d.caret.Column = clamp(col, 0, d.lineRunes(d.caret.Line))
}

// caretSpanText is the text of the span under the caret, or of the caret
// line when no span covers it.
func (m model) caretSpanText() (string, string) {
	d := m.doc()
	off := d.caretOffset()
	spans, _ := m.coord.Spans(d.path)
	for _, s := range spans {
		if s.Range.Contains(off) {
			return s.Text, s.Kind.String()
		}
	}
	start, end := d.lineBounds(d.caret.Line)
	return d.text[start:end], fmt.Sprintf("line %d", d.caret.Line+1)
}

func (m *model) openAtCaret() tea.Cmd {
	d := m.doc()
	line, col := d.caret.Line+1, d.caret.Column+1

	cmd, err := terminalEditorCommand(m.cfg.EditorCmd, d.path, line, col)
	if err != nil {
		m.status = "open failed: " + err.Error()
		return nil
	}
	if cmd != nil {
		return tea.ExecProcess(cmd, func(err error) tea.Msg { return editorDoneMsg{err: err} })
	}
	if err := openLocation(d.path, line, col); err != nil {
		m.status = "open failed: " + err.Error()
		return nil
	}
	m.status = "opened " + filepath.Base(d.path)
	return nil
}

func (m model) pageRows() int {
	return max(1, m.bodyHeight()-1)
}

func (m model) bodyHeight() int {
	headerHeight := 1
	footerHeight := 1
	if m.editing {
		footerHeight++
	}
	return max(m.height-headerHeight-footerHeight, 1)
}

// ensureCaretVisible scrolls so the caret row is inside the body.
func (m *model) ensureCaretVisible() {
	d := m.doc()
	if d == nil {
		return
	}
	rows := m.screen.layer(d.path).visibleLines(d.index.LineCount())
	if len(rows) == 0 {
		d.top = 0
		return
	}
	caretRow := rowOf(rows, d.caret.Line)
	topRow := rowOf(rows, d.top)
	height := m.bodyHeight()

	if caretRow < topRow {
		topRow = caretRow
	}
	if caretRow >= topRow+height {
		topRow = caretRow - height + 1
	}
	topRow = clamp(topRow, 0, max(0, len(rows)-1))
	d.top = rows[topRow]
}

// rowOf is the index of the last visible row at or above line.
func rowOf(rows []int, line int) int {
	lo, hi := 0, len(rows)
	for lo < hi {
		mid := (lo + hi) / 2
		if rows[mid] <= line {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return max(0, lo-1)
}
