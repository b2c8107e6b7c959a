package controller

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
	"reshape.dev/pkg/reshape/internal/adapter"
	m "reshape.dev/pkg/reshape/internal/model"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	addedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	changedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	removedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	faintStyle   = lipgloss.NewStyle().Faint(true)
)

// TUI implements UI using Bubble Tea: a spinner while the pipeline runs and a
// scrollable results view afterwards. On a non-terminal output it degrades to
// plain printing.
type TUI struct {
	output      io.Writer
	interactive bool
	program     *tea.Program
	done        chan struct{}
	showDiffs   bool
}

// NewTUI creates a new TUI.
func NewTUI(output io.Writer) *TUI {
	return &TUI{output: output, interactive: isTerminal(output)}
}

// Start records display options. The progress view itself starts lazily on
// the first cycle, so commands that only page output never show a spinner.
func (t *TUI) Start(ctx context.Context, options ...StartOption) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var cfg StartConfig
	for _, opt := range options {
		opt(&cfg)
	}

	t.showDiffs = cfg.showDiffs

	return nil
}

// Close shuts the progress view down and waits for it to release the
// terminal.
func (t *TUI) Close(_ context.Context) {
	if t.program == nil {
		return
	}

	t.program.Send(progressDoneMsg{})
	<-t.done
	t.program = nil
}

// CycleStarted feeds cycle progress into the view, launching it on the first
// cycle of a run.
func (t *TUI) CycleStarted(cycle, files int) {
	if t.program == nil {
		if !t.interactive {
			return
		}

		model := newProgressModel()
		model.status = fmt.Sprintf("cycle %d · %d file(s)", cycle, files)

		t.program = tea.NewProgram(model, tea.WithOutput(t.output))
		t.done = make(chan struct{})

		go func() {
			_, _ = t.program.Run()
			close(t.done)
		}()

		return
	}

	t.program.Send(cycleMsg{cycle: cycle, files: files})
}

// RecipeFinished feeds per-recipe timing into the running view.
func (t *TUI) RecipeFinished(name string, took time.Duration) {
	if t.program != nil {
		t.program.Send(recipeMsg{name: name, took: took})
	}
}

// DisplayResults shows the run outcome, paginated when it does not fit on
// screen.
func (t *TUI) DisplayResults(ctx context.Context, pipeline string, results []m.Result, stats *m.RunStats) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	header := titleStyle.Render(fmt.Sprintf("reshape · %s", pipeline))
	lines := buildResultLines(results, t.showDiffs)

	if stats != nil {
		lines = append(lines, "", faintStyle.Render(fmt.Sprintf(
			"%d recipe pass(es), %s total", stats.Calls, stats.Cumulative.Round(time.Millisecond))))
	}

	return t.page(header, lines)
}

func buildResultLines(results []m.Result, showDiffs bool) []string {
	if len(results) == 0 {
		return []string{faintStyle.Render("  no changes")}
	}

	var lines []string

	var added, changed, removed int

	for _, r := range results {
		switch {
		case r.Original == nil:
			added++

			lines = append(lines, addedStyle.Render(fmt.Sprintf("  + %s", r.Modified.Path())))
		case r.Modified == nil:
			removed++

			lines = append(lines, removedStyle.Render(fmt.Sprintf("  - %s", r.Original.Path())))
		default:
			changed++

			label := r.Modified.Path()
			if r.Original.Path() != r.Modified.Path() {
				label = r.Original.Path() + " -> " + r.Modified.Path()
			}

			lines = append(lines, changedStyle.Render(fmt.Sprintf("  ~ %s", label)))
		}

		if chains := formatStacks(r.Stacks); chains != "" {
			lines = append(lines, faintStyle.Render("      by "+chains))
		}

		if showDiffs {
			if diff := r.Diff(); diff != "" {
				lines = append(lines, strings.Split(strings.TrimRight(diff, "\n"), "\n")...)
			}
		}
	}

	lines = append(lines, "", fmt.Sprintf("  %d added, %d changed, %d removed", added, changed, removed))

	return lines
}

// DisplayRecipeTypes shows the available declarative recipe types.
func (t *TUI) DisplayRecipeTypes(ctx context.Context, types []string) {
	if err := ctx.Err(); err != nil {
		return
	}

	lines := make([]string, len(types))
	for i, name := range types {
		lines[i] = "  " + name
	}

	_ = t.page(titleStyle.Render("reshape · recipe types"), lines)
}

// DisplayReport shows a saved run report.
func (t *TUI) DisplayReport(ctx context.Context, report adapter.RunReport) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	header := titleStyle.Render(fmt.Sprintf("reshape · run %s (%s)", report.ID, report.Pipeline))

	var lines []string

	for _, entry := range report.Results {
		var line string

		switch entry.Kind {
		case adapter.ResultAdded:
			line = addedStyle.Render("  + " + entry.After)
		case adapter.ResultRemoved:
			line = removedStyle.Render("  - " + entry.Before)
		default:
			line = changedStyle.Render("  ~ " + entry.After)
		}

		lines = append(lines, line)

		if t.showDiffs && entry.Diff != "" {
			lines = append(lines, strings.Split(strings.TrimRight(entry.Diff, "\n"), "\n")...)
		}
	}

	return t.page(header, lines)
}

// page renders header and lines, through a scrolling program when they spill
// over the terminal height.
func (t *TUI) page(header string, lines []string) error {
	model := newPagerModel(header, lines)

	if f, ok := t.output.(*os.File); ok {
		if width, height, err := term.GetSize(int(f.Fd())); err == nil {
			model.width = width
			model.height = height
		}
	}

	if !model.needsPagination() {
		_, err := fmt.Fprint(t.output, model.View())
		return err
	}

	program := tea.NewProgram(model, tea.WithOutput(t.output), tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return err
	}

	return nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)

	return ok && term.IsTerminal(int(f.Fd()))
}

type cycleMsg struct {
	cycle, files int
}

type recipeMsg struct {
	name string
	took time.Duration
}

type progressDoneMsg struct{}

// progressModel is the spinner shown while the scheduler runs.
type progressModel struct {
	spinner spinner.Model
	status  string
	recent  string
}

func newProgressModel() progressModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = titleStyle

	return progressModel{spinner: s, status: "starting pipeline"}
}

func (pm progressModel) Init() tea.Cmd {
	return pm.spinner.Tick
}

func (pm progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case cycleMsg:
		pm.status = fmt.Sprintf("cycle %d · %d file(s)", msg.cycle, msg.files)
		return pm, nil

	case recipeMsg:
		pm.recent = fmt.Sprintf("%s (%s)", msg.name, msg.took.Round(time.Millisecond))
		return pm, nil

	case progressDoneMsg:
		return pm, tea.Quit

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return pm, tea.Quit
		}

		return pm, nil
	}

	var cmd tea.Cmd
	pm.spinner, cmd = pm.spinner.Update(msg)

	return pm, cmd
}

func (pm progressModel) View() string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s %s\n", pm.spinner.View(), pm.status)

	if pm.recent != "" {
		b.WriteString(faintStyle.Render("  last: "+pm.recent) + "\n")
	}

	return b.String()
}

// pagerModel scrolls a fixed header plus content lines.
type pagerModel struct {
	header string
	lines  []string
	height int
	width  int
	offset int
}

func newPagerModel(header string, lines []string) pagerModel {
	return pagerModel{header: header, lines: lines}
}

func (p pagerModel) Init() tea.Cmd {
	return nil
}

func (p pagerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		p.height = msg.Height
		p.width = msg.Width

		return p, nil

	case tea.KeyMsg:
		return p.handleKeyPress(msg)
	}

	return p, nil
}

func (p pagerModel) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type { //nolint:exhaustive // only quit keys are typed
	case tea.KeyCtrlC, tea.KeyEsc:
		return p, tea.Quit
	default:
	}

	switch msg.String() {
	case "q":
		return p, tea.Quit

	case "down", "j":
		p.offset = clampOffset(p.offset+1, p.maxOffset())

	case "up", "k":
		p.offset = clampOffset(p.offset-1, p.maxOffset())

	case "g", "home":
		p.offset = 0

	case "G", "end":
		p.offset = p.maxOffset()

	case "d", "pgdown":
		p.offset = clampOffset(p.offset+p.linesPerPage(), p.maxOffset())

	case "u", "pgup":
		p.offset = clampOffset(p.offset-p.linesPerPage(), p.maxOffset())
	}

	return p, nil
}

func clampOffset(offset, max int) int {
	if offset < 0 {
		return 0
	}

	if offset > max {
		return max
	}

	return offset
}

func (p pagerModel) linesPerPage() int {
	if p.height == 0 {
		return 10
	}

	// Header, blank line and the navigation footer.
	reserved := 4

	available := p.height - reserved
	if available < 1 {
		return 1
	}

	return available
}

func (p pagerModel) maxOffset() int {
	max := len(p.lines) - p.linesPerPage()
	if max < 0 {
		return 0
	}

	return max
}

func (p pagerModel) needsPagination() bool {
	return p.height > 0 && len(p.lines) > p.linesPerPage()
}

func (p pagerModel) View() string {
	var b strings.Builder

	b.WriteString(p.header + "\n\n")

	lines := p.lines

	paginated := p.needsPagination()
	if paginated {
		start := clampOffset(p.offset, p.maxOffset())

		end := start + p.linesPerPage()
		if end > len(lines) {
			end = len(lines)
		}

		lines = lines[start:end]
	}

	for _, line := range lines {
		b.WriteString(line + "\n")
	}

	if paginated {
		b.WriteString(faintStyle.Render("  ↑/k: up | ↓/j: down | g: top | G: bottom | q: quit") + "\n")
	}

	return b.String()
}
