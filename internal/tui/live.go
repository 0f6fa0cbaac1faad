// Package tui renders a live terminal view of a running integration.
package tui

import (
	"fmt"
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/ignition/internal/config"
	"github.com/san-kum/ignition/internal/storage"
)

const (
	frameInterval = time.Second / 30
	graphWidth    = 64
	graphHeight   = 12
)

var (
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true).MarginBottom(1)
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(14)
	valueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	graphStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("49")).Padding(1, 0)
	doneStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	errStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).MarginTop(1)
)

// Feed bridges the integrating goroutine and the view. It satisfies the
// driver's observer hook, so a running simulation publishes into it
// directly.
type Feed struct {
	mu      sync.Mutex
	records []storage.Record
	done    bool
	err     error
}

func NewFeed() *Feed { return &Feed{} }

func (f *Feed) OnRecord(r storage.Record) {
	f.mu.Lock()
	f.records = append(f.records, r)
	f.mu.Unlock()
}

// Finish marks the simulation complete, with its terminal error if any.
func (f *Feed) Finish(err error) {
	f.mu.Lock()
	f.done = true
	f.err = err
	f.mu.Unlock()
}

func (f *Feed) snapshot() ([]storage.Record, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]storage.Record, len(f.records))
	copy(out, f.records)
	return out, f.done, f.err
}

type view int

const (
	viewTemperature view = iota
	viewPressure
	viewVolume
)

func (v view) name() string {
	switch v {
	case viewTemperature:
		return "temperature [K]"
	case viewPressure:
		return "pressure [Pa]"
	case viewVolume:
		return "volume [m3]"
	}
	return "unknown"
}

func (v view) extract(r storage.Record) float64 {
	switch v {
	case viewPressure:
		return r.Pressure
	case viewVolume:
		return r.Volume
	}
	return r.Temperature
}

type TickMsg time.Time

// Model is the bubbletea model for one case's live trace.
type Model struct {
	caseID  string
	kind    string
	endTime float64
	feed    *Feed
	view    view
	paused  bool
	records []storage.Record
	done    bool
	err     error
}

func NewModel(cs *config.Case, feed *Feed) Model {
	return Model{
		caseID:  cs.ID,
		kind:    cs.Kind,
		endTime: cs.EndTime(),
		feed:    feed,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Tick(frameInterval, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "tab":
			m.view = (m.view + 1) % 3
		case " ":
			m.paused = !m.paused
		}
	case TickMsg:
		if !m.paused {
			m.records, m.done, m.err = m.feed.snapshot()
		}
		return m, tea.Tick(frameInterval, func(t time.Time) tea.Msg { return TickMsg(t) })
	}
	return m, nil
}

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(headerStyle.Render(fmt.Sprintf("%s  (%s)", m.caseID, m.kind)))
	b.WriteString("\n")

	if len(m.records) == 0 {
		b.WriteString(valueStyle.Render("waiting for first step..."))
		b.WriteString("\n")
		return b.String()
	}

	last := m.records[len(m.records)-1]
	rows := []struct {
		label string
		value string
	}{
		{"time", fmt.Sprintf("%.6g / %.6g s", last.Time, m.endTime)},
		{"progress", progressBar(last.Time/m.endTime, 30)},
		{"temperature", fmt.Sprintf("%.1f K", last.Temperature)},
		{"pressure", fmt.Sprintf("%.4g Pa", last.Pressure)},
		{"volume", fmt.Sprintf("%.4g m3", last.Volume)},
		{"steps", fmt.Sprintf("%d", len(m.records))},
	}
	for _, row := range rows {
		b.WriteString(labelStyle.Render(row.label))
		b.WriteString(valueStyle.Render(row.value))
		b.WriteString("\n")
	}

	series := decimate(m.records, m.view, graphWidth)
	if len(series) >= 2 {
		plot := asciigraph.Plot(series,
			asciigraph.Height(graphHeight),
			asciigraph.Width(graphWidth),
			asciigraph.Caption(m.view.name()))
		b.WriteString(graphStyle.Render(plot))
		b.WriteString("\n")
	}

	switch {
	case m.err != nil:
		b.WriteString(errStyle.Render(fmt.Sprintf("failed: %v", m.err)))
		b.WriteString("\n")
	case m.done:
		b.WriteString(doneStyle.Render("finished"))
		b.WriteString("\n")
	}

	b.WriteString(helpStyle.Render("[tab] channel  [space] pause  [q] quit"))
	b.WriteString("\n")
	return b.String()
}

// decimate thins the record history to at most n samples so the trace
// stays readable for long integrations.
func decimate(records []storage.Record, v view, n int) []float64 {
	if len(records) <= n {
		out := make([]float64, len(records))
		for i, r := range records {
			out[i] = v.extract(r)
		}
		return out
	}
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		j := i * (len(records) - 1) / (n - 1)
		out[i] = v.extract(records[j])
	}
	return out
}

func progressBar(frac float64, width int) string {
	if frac < 0 {
		frac = 0
	}
	if frac > 1 {
		frac = 1
	}
	filled := int(frac * float64(width))
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled) +
		fmt.Sprintf(" %3.0f%%", frac*100)
}
