// Package tui renders a live bubbletea view of a running superstep: per-chunk
// node/leaf/particle counts and the wall-clock duration of the last
// superstep, refreshed once per superstep. Per-phase timings are not shown.
package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ari-sharma/conjunction/internal/aabb"
	"github.com/ari-sharma/conjunction/internal/driver"
)

var (
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true).MarginBottom(1)
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(14)
	valueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	errStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).MarginTop(1)
)

// tickMsg advances the live view by one superstep.
type tickMsg time.Time

// Model drives one superstep per tick and renders the resulting per-chunk
// tree sizes.
type Model struct {
	superstep *driver.Superstep
	states    []aabb.State
	period    time.Duration

	supersteps int
	lastOut    *driver.Output
	lastErr    error
	lastDur    time.Duration
	quitting   bool
}

// NewModel builds a live view driving s over states, refreshing at period.
func NewModel(s *driver.Superstep, states []aabb.State, period time.Duration) Model {
	return Model{superstep: s, states: states, period: period}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(tick(m.period), runOnce(m.superstep, m.states))
}

func tick(period time.Duration) tea.Cmd {
	return tea.Tick(period, func(t time.Time) tea.Msg { return tickMsg(t) })
}

type runResult struct {
	out *driver.Output
	err error
	dur time.Duration
}

func runOnce(s *driver.Superstep, states []aabb.State) tea.Cmd {
	return func() tea.Msg {
		start := time.Now()
		out, err := s.Run(states)
		return runResult{out: out, err: err, dur: time.Since(start)}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.quitting = true
			return m, tea.Quit
		}
	case tickMsg:
		return m, runOnce(m.superstep, m.states)
	case runResult:
		m.supersteps++
		m.lastOut = msg.out
		m.lastErr = msg.err
		m.lastDur = msg.dur
		return m, tick(m.period)
	}
	return m, nil
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(headerStyle.Render(fmt.Sprintf("conjunction — superstep %d", m.supersteps)))
	b.WriteString("\n")

	if m.lastErr != nil {
		b.WriteString(errStyle.Render(m.lastErr.Error()))
		b.WriteString("\n")
	}
	b.WriteString(labelStyle.Render("last run") + valueStyle.Render(m.lastDur.String()))
	b.WriteString("\n\n")

	if m.lastOut != nil {
		for k, tree := range m.lastOut.Trees {
			leaves := 0
			for _, n := range tree.Nodes {
				if n.IsLeaf() {
					leaves++
				}
			}
			b.WriteString(labelStyle.Render(fmt.Sprintf("chunk %d", k)))
			b.WriteString(valueStyle.Render(fmt.Sprintf("nodes=%d leaves=%d particles=%d", len(tree.Nodes), leaves, len(tree.SortedCodes))))
			b.WriteString("\n")
		}
	}

	b.WriteString(helpStyle.Render("q to quit"))
	return b.String()
}

// Run starts the bubbletea program and blocks until the user quits.
func Run(s *driver.Superstep, states []aabb.State, period time.Duration) error {
	p := tea.NewProgram(NewModel(s, states, period))
	_, err := p.Run()
	return err
}
