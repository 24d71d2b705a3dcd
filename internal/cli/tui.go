package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"github.com/matzehuels/railsim/pkg/dag"
	"github.com/matzehuels/railsim/pkg/errors"
	"github.com/matzehuels/railsim/pkg/observability"
	"github.com/matzehuels/railsim/pkg/pipeline"
	"github.com/matzehuels/railsim/pkg/scenario"
)

const (
	barWidth     = 32
	tickInterval = 100 * time.Millisecond
)

var (
	barFullStyle  = lipgloss.NewStyle().Foreground(colorCyan)
	barEmptyStyle = lipgloss.NewStyle().Foreground(colorDim)
	failedStyle   = lipgloss.NewStyle().Foreground(colorRed)
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// =============================================================================
// Messages
// =============================================================================

type scheduleStartMsg struct{ nodes, workers int }

type nodeDoneMsg struct {
	name string
	err  error
}

type runDoneMsg struct {
	res *pipeline.Result
	err error
}

type tickMsg time.Time

// =============================================================================
// RunModel - Live scheduler progress
// =============================================================================

// RunModel is the bubbletea model showing the progress of one run.
type RunModel struct {
	Scenario string
	Total    int
	Done     int
	Failed   int
	Workers  int
	Last     string
	Start    time.Time

	Result  *pipeline.Result
	Err     error
	Aborted bool

	frame    int
	finished bool
}

// NewRunModel creates a model for a run over total nodes.
func NewRunModel(name string, total int) RunModel {
	return RunModel{Scenario: name, Total: total, Start: time.Now()}
}

func tick() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m RunModel) Init() tea.Cmd {
	return tick()
}

func (m RunModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.Aborted = true
			return m, tea.Quit
		}
	case scheduleStartMsg:
		m.Total, m.Workers = msg.nodes, msg.workers
	case nodeDoneMsg:
		m.Done++
		m.Last = msg.name
		if msg.err != nil {
			m.Failed++
		}
	case runDoneMsg:
		m.Result, m.Err = msg.res, msg.err
		m.finished = true
		return m, tea.Quit
	case tickMsg:
		m.frame++
		return m, tick()
	}
	return m, nil
}

func (m RunModel) View() string {
	if m.finished || m.Aborted {
		return ""
	}

	var b strings.Builder
	b.WriteString(styleIconSpinner.Render(spinnerFrames[m.frame%len(spinnerFrames)]))
	b.WriteString(" ")
	b.WriteString(StyleTitle.Render(m.Scenario))
	b.WriteString("\n\n  ")
	b.WriteString(m.bar())
	b.WriteString(StyleDim.Render(fmt.Sprintf("  %d/%d nodes", m.Done, m.Total)))
	if m.Workers > 0 {
		b.WriteString(StyleDim.Render(fmt.Sprintf(" · %d workers", m.Workers)))
	}
	if m.Failed > 0 {
		b.WriteString(" " + failedStyle.Render(fmt.Sprintf("%d failed", m.Failed)))
	}
	b.WriteString("\n")
	if m.Last != "" {
		b.WriteString("  " + StyleDim.Render(iconArrow+" "+m.Last) + "\n")
	}
	b.WriteString("\n")
	b.WriteString(StyleDim.Render(fmt.Sprintf("  %s  q quit", time.Since(m.Start).Round(time.Second))))
	return b.String()
}

func (m RunModel) bar() string {
	filled := 0
	if m.Total > 0 {
		filled = min(barWidth, m.Done*barWidth/m.Total)
	}
	return barFullStyle.Render(strings.Repeat("█", filled)) +
		barEmptyStyle.Render(strings.Repeat("░", barWidth-filled))
}

// =============================================================================
// Scheduler Hooks
// =============================================================================

// teaHooks forwards scheduler events to a running program.
type teaHooks struct {
	observability.NoopSchedulerHooks
	send  func(tea.Msg)
	names []string
}

func (h *teaHooks) OnScheduleStart(_ context.Context, nodes, workers int) {
	h.send(scheduleStartMsg{nodes: nodes, workers: workers})
}

func (h *teaHooks) OnNodeComplete(_ context.Context, node uint32, _ time.Duration, err error) {
	name := fmt.Sprintf("node %d", node)
	if int(node) < len(h.names) {
		name = h.names[node]
	}
	h.send(nodeDoneMsg{name: name, err: err})
}

// runWithTUI executes a run while drawing its progress to w. Quitting the
// program cancels the run.
func runWithTUI(ctx context.Context, runner *pipeline.Runner, opts pipeline.Options, w io.Writer) (*pipeline.Result, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	names := nodeNames(opts.Scenario)
	p := tea.NewProgram(NewRunModel(opts.Scenario.Name, len(names)), tea.WithContext(ctx), tea.WithOutput(w))
	opts.Hooks = &teaHooks{send: p.Send, names: names}
	opts.Logger = log.New(io.Discard)

	go func() {
		res, err := runner.Execute(ctx, opts)
		p.Send(runDoneMsg{res: res, err: err})
	}()

	final, err := p.Run()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeCanceled, err, "progress display")
	}
	m := final.(RunModel)
	if m.Aborted {
		return nil, errors.New(errors.ErrCodeCanceled, "run aborted")
	}
	return m.Result, m.Err
}

// nodeNames lists node names by id, or nil if the scenario does not build.
func nodeNames(s *scenario.Scenario) []string {
	net, err := s.Build()
	if err != nil {
		return nil
	}
	names := make([]string, net.Graph.Len())
	for i := range names {
		names[i] = net.Graph.Name(dag.NodeID(i))
	}
	return names
}
