package controller

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	m "cleanspring.dev/pkg/cleanspring/internal/model"
)

// Lines taken by the title and the help footer.
const chromeHeight = 4

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	helpStyle    = lipgloss.NewStyle().Faint(true)
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	weakStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	unusedStyle  = lipgloss.NewStyle().Faint(true).Strikethrough(true)
	appliedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	failedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	addedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	removedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
)

// TUI implements UI using Bubble Tea for interactive display.
type TUI struct {
	output io.Writer
	input  io.Reader

	mu      sync.Mutex
	program *tea.Program
	done    chan struct{}
}

// NewTUI creates a new TUI.
func NewTUI(output io.Writer) *TUI {
	return &TUI{output: output}
}

// Start launches the Bubble Tea program in the background.
func (p *TUI) Start(ctx context.Context, options ...StartOption) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	model := newResultsModel(startConfig(options).Mode())

	// Get initial terminal size
	if f, ok := p.output.(*os.File); ok {
		width, height, err := term.GetSize(int(f.Fd()))
		if err == nil {
			model = model.resize(width, height)
		}
	}

	opts := []tea.ProgramOption{tea.WithOutput(p.output), tea.WithAltScreen(), tea.WithContext(ctx)}
	if p.input != nil {
		opts = append(opts, tea.WithInput(p.input))
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.program = tea.NewProgram(model, opts...)
	p.done = make(chan struct{})

	go func(program *tea.Program, done chan struct{}) {
		defer close(done)

		if _, err := program.Run(); err != nil {
			slog.Error("tui stopped", "error", err)
		}
	}(p.program, p.done)

	return nil
}

// Close stops the program and waits for it to restore the terminal.
func (p *TUI) Close(_ context.Context) {
	program, done := p.running()
	if program == nil {
		return
	}

	program.Quit()
	<-done
}

// Wait blocks until the user quits.
func (p *TUI) Wait(ctx context.Context) {
	_, done := p.running()
	if done == nil {
		return
	}

	select {
	case <-done:
	case <-ctx.Done():
	}
}

// Closed is closed when the program exits.
func (p *TUI) Closed() <-chan struct{} {
	_, done := p.running()
	return done
}

// DisplayProblems replaces the problem list with the latest pass.
func (p *TUI) DisplayProblems(ctx context.Context, problems []m.Problem, warnings []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	p.send(problemsMsg{problems: problems, warnings: warnings})

	return nil
}

// DisplayFixResult appends a fix attempt to the log.
func (p *TUI) DisplayFixResult(ctx context.Context, result m.FixResult) {
	if err := ctx.Err(); err != nil {
		return
	}

	p.send(logMsg{lines: fixResultLines(result)})
}

// DisplayDiff appends a colored diff to the log.
func (p *TUI) DisplayDiff(ctx context.Context, path m.Path, diff string) {
	if err := ctx.Err(); err != nil || diff == "" {
		return
	}

	p.send(logMsg{lines: diffLines(path, diff)})
}

// DisplayReport shows a saved report.
func (p *TUI) DisplayReport(ctx context.Context, report m.Report) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	p.send(reportMsg{report: report})

	return nil
}

func (p *TUI) running() (*tea.Program, chan struct{}) {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.program, p.done
}

func (p *TUI) send(msg tea.Msg) {
	program, _ := p.running()
	if program == nil {
		slog.Warn("tui not started, dropping message", "message", fmt.Sprintf("%T", msg))
		return
	}

	program.Send(msg)
}

type problemsMsg struct {
	problems []m.Problem
	warnings []string
}

type logMsg struct {
	lines []string
}

type reportMsg struct {
	report m.Report
}

type keyMap struct {
	Quit   key.Binding
	Top    key.Binding
	Bottom key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Quit:   key.NewBinding(key.WithKeys("q", "esc", "ctrl+c"), key.WithHelp("q", "quit")),
		Top:    key.NewBinding(key.WithKeys("g", "home"), key.WithHelp("g", "top")),
		Bottom: key.NewBinding(key.WithKeys("G", "end"), key.WithHelp("G", "bottom")),
	}
}

// resultsModel shows the current problems above a log of fix attempts.
type resultsModel struct {
	mode     StartMode
	keys     keyMap
	viewport viewport.Model
	ready    bool
	header   []string
	problems []string
	log      []string
	quitting bool
}

func newResultsModel(mode StartMode) resultsModel {
	return resultsModel{
		mode: mode,
		keys: defaultKeyMap(),
	}
}

func (rm resultsModel) Init() tea.Cmd {
	return nil
}

func (rm resultsModel) resize(width, height int) resultsModel {
	h := max(height-chromeHeight, 1)

	if !rm.ready {
		rm.viewport = viewport.New(width, h)
		rm.ready = true
	} else {
		rm.viewport.Width = width
		rm.viewport.Height = h
	}

	rm.viewport.SetContent(rm.content())

	return rm
}

func (rm resultsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return rm.resize(msg.Width, msg.Height), nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, rm.keys.Quit):
			rm.quitting = true
			return rm, tea.Quit
		case key.Matches(msg, rm.keys.Top):
			rm.viewport.GotoTop()
			return rm, nil
		case key.Matches(msg, rm.keys.Bottom):
			rm.viewport.GotoBottom()
			return rm, nil
		}

	case problemsMsg:
		rm.problems = problemLines(msg.problems, msg.warnings)
		rm.refresh(false)

		return rm, nil

	case logMsg:
		rm.log = append(rm.log, msg.lines...)
		rm.refresh(true)

		return rm, nil

	case reportMsg:
		rm.header = []string{reportHeader(msg.report), ""}
		rm.problems = problemLines(msg.report.Problems, msg.report.Warnings)
		rm.log = nil

		for _, fix := range msg.report.Fixes {
			rm.log = append(rm.log, fixResultLines(fix)...)
		}

		rm.refresh(false)

		return rm, nil
	}

	var cmd tea.Cmd

	rm.viewport, cmd = rm.viewport.Update(msg)

	return rm, cmd
}

func (rm *resultsModel) refresh(follow bool) {
	if !rm.ready {
		return
	}

	rm.viewport.SetContent(rm.content())

	if follow {
		rm.viewport.GotoBottom()
	}
}

func (rm resultsModel) content() string {
	lines := make([]string, 0, len(rm.header)+len(rm.problems)+len(rm.log)+1)
	lines = append(lines, rm.header...)
	lines = append(lines, rm.problems...)

	if len(rm.log) > 0 {
		lines = append(lines, "")
		lines = append(lines, rm.log...)
	}

	return strings.Join(lines, "\n")
}

func (rm resultsModel) View() string {
	if rm.quitting {
		return ""
	}

	var b strings.Builder

	b.WriteString(titleStyle.Render("cleanspring " + rm.mode.String()))
	b.WriteString("\n\n")

	if rm.ready {
		b.WriteString(rm.viewport.View())
	} else {
		b.WriteString(rm.content())
	}

	b.WriteString("\n")
	b.WriteString(helpStyle.Render("↑/k up • ↓/j down • g top • G bottom • q quit"))

	return b.String()
}

func problemLines(problems []m.Problem, warnings []string) []string {
	lines := make([]string, 0, len(problems)+len(warnings)+1)

	for _, w := range warnings {
		lines = append(lines, warningStyle.Render("warning: "+w))
	}

	if len(problems) == 0 {
		return append(lines, "No problems found")
	}

	for _, p := range problems {
		line := fmt.Sprintf("%s  %s  %s", formatLocation(p.Location), p.Symbol, p.Message)
		if p.FixName != "" {
			line += "  [" + p.FixName + "]"
		}

		lines = append(lines, severityStyle(p.Severity).Render(line))
	}

	return append(lines, fmt.Sprintf("%d problem(s)", len(problems)))
}

func severityStyle(s m.Severity) lipgloss.Style {
	switch s {
	case m.SeverityWarning:
		return warningStyle
	case m.SeverityWeakWarning:
		return weakStyle
	case m.SeverityUnused:
		return unusedStyle
	}

	return lipgloss.NewStyle()
}

func fixResultLines(r m.FixResult) []string {
	style := appliedStyle
	if !r.Applied {
		style = failedStyle
	}

	lines := []string{style.Render(formatFixResult(r))}
	for _, w := range r.Warnings {
		lines = append(lines, warningStyle.Render("    warning: "+w))
	}

	return lines
}

func diffLines(path m.Path, diff string) []string {
	lines := []string{titleStyle.Render("File: " + string(path))}

	for _, line := range strings.Split(strings.TrimRight(diff, "\n"), "\n") {
		switch {
		case strings.HasPrefix(line, "+++"), strings.HasPrefix(line, "---"):
			lines = append(lines, line)
		case strings.HasPrefix(line, "+"):
			lines = append(lines, addedStyle.Render(line))
		case strings.HasPrefix(line, "-"):
			lines = append(lines, removedStyle.Render(line))
		default:
			lines = append(lines, line)
		}
	}

	return lines
}
