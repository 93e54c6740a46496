package repl

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/lipgloss"
	"github.com/sahilm/fuzzy"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ardnew/nixsyn/lang"
	"github.com/ardnew/nixsyn/log"
)

const (
	queryPrompt = "➜ "
	ctrlPrompt  = " :"

	// maxResults caps the matches printed for one query.
	maxResults = 50
	// maxPreview caps the source text shown per match.
	maxPreview = 60

	// scratchURI names the document when no source file is given.
	scratchURI = "<scratch>"
)

func helpMessage() string {
	return `
: Commands (press Esc to toggle mode):

  help     Print this help
  tree     Print the syntax tree as an S-expression
  errors   List the syntax errors of the document
  stats    Print token, node and error counts
  kinds    List the node kinds a query can match
  edit     Edit the document in $EDITOR and reparse it
  reload   Reparse the source file from disk
  clear    Clear screen
  quit     Exit

Usage:
  Type a query to list the matching nodes, for example
    kind == "binding" && depth < 3
    function_expression && children > 2
  Completions appear automatically as you type
  Press Tab / Shift-Tab to cycle through candidates
  Press Space to accept the current candidate
  Press Esc to toggle between query and command modes
  Use Up/Down arrows for history navigation (mode switches automatically)
  Use Shift+Up/Shift+Down for history navigation within current mode only
  Use Alt+Up/Alt+Down to navigate command history
  Press Ctrl+C on empty line or Ctrl+D to exit
`
}

// inputMode represents the current input mode.
type inputMode int

const (
	modeQuery inputMode = iota
	modeCtrl
)

// Styles.
var (
	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("6")).
			Bold(true)
	ctrlPromptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("5")).
			Bold(true)
	inputStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("15"))
	resultStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	errorStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	hintStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	kindStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	suggestionStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("4"))
	matchStyle      = lipgloss.NewStyle().
			Foreground(lipgloss.Color("4")).
			Bold(true).
			Underline(true)
	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("0")).
			Background(lipgloss.Color("4"))
	selectedMatchStyle = selectedStyle.
				Bold(true).
				Underline(true)
)

func formatQuery(input string) string {
	return promptStyle.Render(queryPrompt) + inputStyle.Render(input)
}

func formatCtrlCommand(input string) string {
	return ctrlPromptStyle.Render(ctrlPrompt) + inputStyle.Render(input)
}

// Config configures a REPL session.
type Config struct {
	// Path is the source file. Empty starts with an empty document.
	Path string
	// CacheDir holds the history file. Empty keeps history in memory.
	CacheDir string
	// Options are applied to every parse of the document.
	Options []lang.Option
	Logger  log.Logger
}

// session is the document being explored. It is shared by every copy of
// the model.
type session struct {
	ws   *lang.Workspace
	uri  string
	path string
}

func (s *session) document() *lang.Document {
	doc, _ := s.ws.Get(s.uri)

	return doc
}

// update reparses text as the next version of the document.
func (s *session) update(ctx context.Context, text string) (*lang.Document, error) {
	return s.ws.Update(ctx, s.uri, s.document().Version+1, text)
}

// model is the Bubble Tea model for the REPL.
type model struct {
	ctxFunc          func() context.Context
	input            textinput.Model
	session          *session
	logger           log.Logger
	history          *History
	historyIdx       int
	matches          fuzzy.Matches // current fuzzy match results
	wordStart        int           // byte offset of current word start
	wordEnd          int           // byte offset of current word end
	suggIdx          int           // selected candidate index
	tabActive        bool          // whether user is tab-cycling
	preTabText       string        // input text before tab-cycling began
	preTabCursor     int           // cursor position before tab-cycling began
	altNavActive     bool          // whether user is in Alt+Up/Down navigation
	altNavOrigMode   inputMode     // original mode before Alt navigation
	altNavOrigText   string        // original text before Alt navigation
	altNavOrigCursor int           // original cursor position before Alt navigation
	width            int           // terminal width for ellipsization
	quitting         bool
	mode             inputMode
	queryText        string
	queryCursor      int
	ctrlText         string
	ctrlCursor       int
}

// Run starts the REPL and blocks until the user quits.
func Run(ctx context.Context, cfg Config) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	cfg.Logger.TraceContext(ctx, "repl start",
		slog.String("path", cfg.Path),
		slog.String("cache_dir", cfg.CacheDir),
	)

	sess, err := openSession(ctx, cfg)
	if err != nil {
		return err
	}

	var histPath string
	if cfg.CacheDir != "" {
		histPath = filepath.Join(cfg.CacheDir, baseHistory)
	}

	history := NewHistory(histPath)
	if err := history.Load(); err != nil {
		cfg.Logger.WarnContext(ctx, "could not load history",
			slog.String("path", histPath),
			slog.Any("error", err),
		)
	}

	cfg.Logger.TraceContext(ctx, "repl history loaded",
		slog.Int("entry_count", history.Len()),
	)

	p := tea.NewProgram(newModel(ctx, sess, history, cfg.Logger), tea.WithContext(ctx))
	_, err = p.Run()

	return err
}

// openSession parses the source into a new workspace. Syntax errors are
// kept in the document; only a read failure is returned.
func openSession(ctx context.Context, cfg Config) (*session, error) {
	sess := &session{
		ws:   lang.NewWorkspace(cfg.Logger, cfg.Options...),
		uri:  scratchURI,
		path: cfg.Path,
	}

	var text string

	if cfg.Path != "" {
		data, err := os.ReadFile(cfg.Path)
		if err != nil {
			return nil, lang.ErrRead.Wrap(err).With(slog.String("path", cfg.Path))
		}

		sess.uri, text = cfg.Path, string(data)
	}

	doc := sess.ws.Open(ctx, sess.uri, 1, text)

	cfg.Logger.TraceContext(ctx, "repl document loaded",
		slog.String("uri", sess.uri),
		slog.Int("nodes", doc.Stats.Nodes),
		slog.Int("errors", len(doc.Diagnostics())),
	)

	return sess, nil
}

const defaultWidth = 80

func newModel(
	ctx context.Context,
	sess *session,
	history *History,
	logger log.Logger,
) model {
	ti := textinput.New()
	ti.Prompt = promptStyle.Render(queryPrompt)
	ti.Focus()
	ti.CharLimit = 1024
	ti.Width = defaultWidth

	return model{
		ctxFunc:    func() context.Context { return ctx },
		input:      ti,
		session:    sess,
		logger:     logger,
		history:    history,
		historyIdx: history.Len(),
		width:      defaultWidth,
		suggIdx:    -1,
		mode:       modeQuery,
	}
}

func (m model) Init() tea.Cmd {
	return textinput.Blink
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.input.Width = msg.Width - len(queryPrompt) - 2

		return m, nil

	case editDoneMsg:
		return m, m.applyEdit(msg)

	case editCancelledMsg:
		return m, tea.Println(hintStyle.Render("edit cancelled"))

	case editErrorMsg:
		return m, tea.Println(errorStyle.Render("error: " + msg.err.Error()))
	}

	var cmd tea.Cmd

	m.input, cmd = m.input.Update(msg)

	return m, cmd
}

// applyEdit replaces the document with the edited text.
func (m model) applyEdit(msg editDoneMsg) tea.Cmd {
	doc, err := m.session.update(m.ctxFunc(), msg.text)
	if err != nil {
		return tea.Println(errorStyle.Render("error: " + err.Error()))
	}

	m.logger.TraceContext(m.ctxFunc(), "repl edit complete",
		slog.Int("version", doc.Version),
		slog.Int("nodes", doc.Stats.Nodes),
	)

	if n := len(doc.Diagnostics()); n > 0 {
		return tea.Println(errorStyle.Render(
			"document updated with " + plural(n, "syntax error"),
		))
	}

	return tea.Println(resultStyle.Render("document updated"))
}

func (m model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder

	b.WriteString(m.input.View())
	b.WriteString("\n")

	input := m.input.Value()
	viewingHistory := m.historyIdx < m.history.Len()
	call := detectFunctionCall(input, m.input.Position())

	switch {
	case viewingHistory:
		hint := fmt.Sprintf("%s/%d",
			lipgloss.NewStyle().Bold(true).Render(strconv.Itoa(m.historyIdx+1)),
			m.history.Len())
		b.WriteString(hintStyle.Render(hint))

	case strings.TrimSpace(input) == "":
		hint := "Type a query or press Esc for commands"
		if m.mode == modeCtrl {
			hint = "Type: " + strings.Join(ctrlCommands, ", ") + " (press Esc to return)"
		}

		b.WriteString(hintStyle.Render(hint))

	case call.inCall && m.mode == modeQuery && len(m.matches) == 0:
		if _, params := signature(call.name); params != nil {
			b.WriteString(renderSignatureHint(call.name, params, call.argIndex))
		}

	case len(m.matches) > 0:
		b.WriteString(renderCandidateBar(m.matches, m.suggIdx, m.tabActive, m.width))
	}

	b.WriteString("\n")

	return b.String()
}

func (m model) handleKey(msg tea.KeyMsg) (model, tea.Cmd) {
	m.logger.TraceContext(m.ctxFunc(), "repl keypress",
		slog.String("key", msg.String()),
	)

	switch msg.Type {
	case tea.KeyCtrlC:
		if m.input.Value() == "" {
			m.quitting = true

			return m, tea.Quit
		}

		m.input.SetValue("")
		m.tabActive = false
		m.altNavActive = false
		m.historyIdx = m.history.Len()
		refreshMatches(&m, false)

		return m, nil

	case tea.KeyCtrlD:
		if m.input.Value() == "" {
			m.quitting = true

			return m, tea.Quit
		}

		return m, nil

	case tea.KeyEnter:
		m.altNavActive = false

		if !m.tabActive || len(m.matches) == 0 {
			return m.executeInput()
		}

		// Lock in the current candidate without executing.
		m.tabActive = false
		refreshMatches(&m, true)

		return m, nil

	case tea.KeyTab:
		return m.cycleCandidate(1), nil

	case tea.KeyShiftTab:
		return m.cycleCandidate(-1), nil

	case tea.KeyUp:
		if msg.Alt {
			return m.historyCtrl(-1), nil
		}

		return m.historyStep(-1), nil

	case tea.KeyDown:
		if msg.Alt {
			return m.historyCtrl(1), nil
		}

		return m.historyStep(1), nil

	case tea.KeyShiftUp:
		return m.historyStepInMode(-1), nil

	case tea.KeyShiftDown:
		return m.historyStepInMode(1), nil

	case tea.KeyEsc:
		if m.tabActive {
			m.tabActive = false
			m.input.SetValue(m.preTabText)
			m.input.SetCursor(m.preTabCursor)
			refreshMatches(&m, false)

			return m, nil
		}

		m.altNavActive = false

		return m.toggleMode(), nil

	case tea.KeyRunes:
		if m.tabActive && msg.String() == " " {
			m.tabActive = false
		}

		var cmd tea.Cmd

		m.historyIdx = m.history.Len()
		m.input, cmd = m.input.Update(msg)
		refreshMatches(&m, true)

		return m, cmd
	}

	// Deletion and cursor movement never auto-confirm a completion.
	var cmd tea.Cmd

	m.tabActive = false
	m.altNavActive = false
	m.historyIdx = m.history.Len()
	m.input, cmd = m.input.Update(msg)
	refreshMatches(&m, false)

	return m, cmd
}

// cycleCandidate moves the selection dir steps through the candidates,
// wrapping at either end. A sole candidate is completed immediately.
func (m model) cycleCandidate(dir int) model {
	n := len(m.matches)

	switch {
	case n == 0:
		return m

	case n == 1:
		replaceCurrentWord(&m, m.matches[0].Str)
		m.tabActive = false
		m.suggIdx = -1
		m.matches = nil

		return m

	case m.tabActive:
		m.suggIdx = (m.suggIdx + dir + n) % n

	default:
		m.tabActive = true
		m.preTabText = m.input.Value()
		m.preTabCursor = m.input.Position()

		m.suggIdx = 0
		if dir < 0 {
			m.suggIdx = n - 1
		}
	}

	replaceCurrentWord(&m, m.matches[m.suggIdx].Str)

	return m
}

// replaceCurrentWord replaces the current word in the input with
// replacement and moves the cursor after it.
func replaceCurrentWord(m *model, replacement string) {
	input := m.input.Value()
	cursor := m.wordStart + len(replacement)

	m.input.SetValue(input[:m.wordStart] + replacement + input[m.wordEnd:])
	m.input.SetCursor(cursor)

	m.wordEnd = cursor
}

// refreshMatches recomputes the completion candidates. With autoConfirm a
// sole candidate equal to the typed word is accepted, so the bar does not
// linger after a word is fully typed.
func refreshMatches(m *model, autoConfirm bool) {
	m.matches, m.wordStart, m.wordEnd = m.computeMatches()

	if !m.tabActive {
		m.suggIdx = -1
	}

	if !autoConfirm || len(m.matches) != 1 {
		return
	}

	candidate := m.matches[0].Str

	if m.input.Value()[m.wordStart:m.wordEnd] == candidate {
		m.tabActive = false
		m.suggIdx = -1
		m.matches = nil
	}
}

func (m model) executeInput() (model, tea.Cmd) {
	input := strings.TrimSpace(m.input.Value())
	if input == "" {
		return m, nil
	}

	m.queryText, m.queryCursor = "", 0
	m.ctrlText, m.ctrlCursor = "", 0
	m.input.SetValue("")
	m.matches = nil

	if err := m.history.Add(input, m.mode); err != nil {
		m.logger.WarnContext(m.ctxFunc(), "could not save history", slog.Any("error", err))
	}

	m.historyIdx = m.history.Len()

	if m.mode == modeCtrl {
		return m.executeCommand(input)
	}

	m.logger.TraceContext(m.ctxFunc(), "repl query", slog.String("input", input))

	return m, tea.Sequence(
		tea.Println(formatQuery(input)),
		tea.Println(m.runQuery(input)),
	)
}

// runQuery evaluates a query against the document and renders the matches.
func (m model) runQuery(input string) string {
	q, err := lang.Compile(input)
	if err != nil {
		return errorStyle.Render("error: " + err.Error())
	}

	doc := m.session.document()

	var (
		b     strings.Builder
		count int
	)

	for match := range doc.Query(m.ctxFunc(), q) {
		count++
		if count > maxResults {
			continue
		}

		b.WriteString(formatMatch(doc, match))
		b.WriteByte('\n')
	}

	switch {
	case count == 0:
		b.WriteString(hintStyle.Render("no matches"))
	case count > maxResults:
		b.WriteString(hintStyle.Render(fmt.Sprintf("%d of %d matches shown", maxResults, count)))
	default:
		b.WriteString(hintStyle.Render(plural(count, "match")))
	}

	return b.String()
}

func formatMatch(doc *lang.Document, match lang.Match) string {
	var b strings.Builder

	b.WriteString(hintStyle.Render(fmt.Sprintf("%4d:%-3d", match.Position.Line, match.Position.Column)))
	b.WriteByte(' ')
	b.WriteString(kindStyle.Render(match.Node.Kind().String()))

	if match.Parent != nil {
		b.WriteString(hintStyle.Render(" (" + match.Field.String() + ")"))
	}

	b.WriteByte(' ')
	b.WriteString(strconv.Quote(preview(doc.Text(match.Node), maxPreview)))

	return b.String()
}

// preview shortens s to its first line and at most n bytes.
func preview(s string, n int) string {
	line, rest, multi := strings.Cut(s, "\n")
	if len(line) > n {
		return line[:n] + "..."
	}

	if multi && rest != "" {
		return line + "..."
	}

	return line
}

func plural(n int, noun string) string {
	s := strconv.Itoa(n) + " " + noun
	if n == 1 {
		return s
	}

	if strings.HasSuffix(noun, "ch") {
		return s + "es"
	}

	return s + "s"
}

func (m model) executeCommand(input string) (model, tea.Cmd) {
	parts := strings.Fields(input)
	if len(parts) == 0 {
		return m, nil
	}

	echo := tea.Println(formatCtrlCommand(input))
	doc := m.session.document()

	m.logger.TraceContext(m.ctxFunc(), "repl command",
		slog.String("command", parts[0]),
		slog.Any("args", parts[1:]),
	)

	switch parts[0] {
	case "q", "quit", "exit":
		m.quitting = true

		return m, tea.Sequence(echo, tea.Quit)

	case "h", "help":
		return m, tea.Sequence(echo, tea.Println(helpMessage()))

	case "t", "tree":
		return m, tea.Sequence(echo, tea.Println(doc.SExpr()))

	case "errors":
		return m, tea.Sequence(echo, tea.Println(renderErrors(doc)))

	case "s", "stats":
		return m, tea.Sequence(echo, tea.Println(renderStats(doc)))

	case "k", "kinds":
		return m, tea.Sequence(echo, tea.Println(strings.Join(lang.KindNames(), " ")))

	case "c", "clear":
		return m, tea.ClearScreen

	case "r", "reload":
		return m, tea.Sequence(echo, m.reload())

	case "e", "edit":
		return m, tea.Sequence(echo, m.edit())

	default:
		return m, tea.Println(
			errorStyle.Render("unknown command: " + parts[0] + " (try 'help')"),
		)
	}
}

// reload rereads the source file and reparses it as a new version.
func (m model) reload() tea.Cmd {
	if m.session.path == "" {
		return tea.Println(errorStyle.Render("error: " + ErrNoSource.Error()))
	}

	data, err := os.ReadFile(m.session.path)
	if err != nil {
		return tea.Println(errorStyle.Render("error: " + err.Error()))
	}

	return m.applyEdit(editDoneMsg{text: string(data)})
}

func (m model) edit() tea.Cmd {
	cmd := &editDocumentCommand{
		text:    m.session.document().Source,
		ctxFunc: m.ctxFunc,
		logger:  m.logger,
	}

	return tea.Exec(cmd, func(err error) tea.Msg {
		switch {
		case err != nil:
			return editErrorMsg{err: err}
		case cmd.cancelled:
			return editCancelledMsg{}
		}

		return editDoneMsg{text: cmd.text}
	})
}

func renderErrors(doc *lang.Document) string {
	var pe *lang.ParseError
	if !errors.As(doc.Err(), &pe) {
		return resultStyle.Render("no syntax errors")
	}

	var b strings.Builder

	for i, s := range pe.Snippets() {
		if i > 0 {
			b.WriteByte('\n')
		}

		b.WriteString(errorStyle.Render(fmt.Sprintf("%d:%d: %s", s.Line, s.Column, s.Message)))
		b.WriteByte('\n')
		b.WriteString(hintStyle.Render(strings.TrimSuffix(s.Context, "\n")))
	}

	return b.String()
}

func renderStats(doc *lang.Document) string {
	return fmt.Sprintf("%s version %d: %s, %s, %s, depth %d",
		doc.URI, doc.Version,
		plural(doc.Stats.Tokens, "token"),
		plural(doc.Stats.Nodes, "node"),
		plural(len(doc.Diagnostics()), "error"),
		doc.Stats.MaxDepth,
	)
}

// historyStep moves through the whole history, switching mode to match
// each entry. Stepping past the newest entry clears the input.
func (m model) historyStep(dir int) model {
	i := m.historyIdx + dir
	if i < 0 {
		return m
	}

	entry, err := m.history.Entry(i)
	if err != nil {
		m.historyIdx = m.history.Len()
		m.input.SetValue("")
		refreshMatches(&m, false)

		return m
	}

	if m.mode != entry.Mode {
		m = m.switchToMode(entry.Mode)
	}

	return m.showEntry(i, entry)
}

// historyStepInMode moves to the nearest entry of the current mode.
func (m model) historyStepInMode(dir int) model {
	if i, entry, ok := m.nearestEntry(dir, m.mode); ok {
		return m.showEntry(i, entry)
	}

	if dir > 0 && m.historyIdx < m.history.Len() {
		m.historyIdx = m.history.Len()
		m.input.SetValue("")
		refreshMatches(&m, false)
	}

	return m
}

// historyCtrl browses command history from either mode. Running off
// either end restores the mode and input that were active before.
func (m model) historyCtrl(dir int) model {
	if !m.altNavActive {
		m.altNavActive = true
		m.altNavOrigMode = m.mode
		m.altNavOrigText = m.input.Value()
		m.altNavOrigCursor = m.input.Position()

		if m.mode != modeCtrl {
			m = m.switchToMode(modeCtrl)
		}
	}

	if i, entry, ok := m.nearestEntry(dir, modeCtrl); ok {
		return m.showEntry(i, entry)
	}

	m.altNavActive = false

	if m.altNavOrigMode != m.mode {
		m = m.switchToMode(m.altNavOrigMode)
	}

	m.input.SetValue(m.altNavOrigText)
	m.input.SetCursor(m.altNavOrigCursor)
	m.historyIdx = m.history.Len()
	refreshMatches(&m, false)

	return m
}

func (m model) nearestEntry(dir int, mode inputMode) (int, HistoryEntry, bool) {
	for i := m.historyIdx + dir; i >= 0 && i < m.history.Len(); i += dir {
		if entry, err := m.history.Entry(i); err == nil && entry.Mode == mode {
			return i, entry, true
		}
	}

	return 0, HistoryEntry{}, false
}

func (m model) showEntry(i int, entry HistoryEntry) model {
	m.historyIdx = i
	m.input.SetValue(entry.Line)
	m.input.SetCursor(len(entry.Line))
	refreshMatches(&m, false)

	return m
}

func (m model) toggleMode() model {
	if m.mode == modeQuery {
		return m.switchToMode(modeCtrl)
	}

	return m.switchToMode(modeQuery)
}

// switchToMode switches to mode, saving the input of the current mode and
// restoring the saved input of the new one.
func (m model) switchToMode(mode inputMode) model {
	if m.mode == modeQuery {
		m.queryText, m.queryCursor = m.input.Value(), m.input.Position()
	} else {
		m.ctrlText, m.ctrlCursor = m.input.Value(), m.input.Position()
	}

	m.mode = mode

	if mode == modeQuery {
		m.input.Prompt = promptStyle.Render(queryPrompt)
		m.input.SetValue(m.queryText)
		m.input.SetCursor(m.queryCursor)
	} else {
		m.input.Prompt = ctrlPromptStyle.Render(ctrlPrompt)
		m.input.SetValue(m.ctrlText)
		m.input.SetCursor(m.ctrlCursor)
	}

	refreshMatches(&m, false)

	return m
}
