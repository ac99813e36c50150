// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/matt-FFFFFF/scriptrun/internal/progress"
	"github.com/matt-FFFFFF/scriptrun/internal/runner"
)

const (
	reservedLines           = 6 // title, border, status bar and help
	borderWidth             = 2
	minViewportWidth        = 40
	minViewportHeight       = 3
	defaultWidth            = 80
	defaultHeight           = 20
	commandDurationRounding = 100 * time.Millisecond
)

// EventMsg wraps a progress event for the tea framework.
type EventMsg struct {
	Event progress.Event
}

// DoneMsg indicates that the run has finished.
type DoneMsg struct {
	Results runner.Results
}

// Styles contains all the styling for the TUI.
type Styles struct {
	Title      lipgloss.Style
	Pending    lipgloss.Style
	Running    lipgloss.Style
	Success    lipgloss.Style
	Failed     lipgloss.Style
	Skipped    lipgloss.Style
	Output     lipgloss.Style
	Error      lipgloss.Style
	Help       lipgloss.Style
	TreeBranch lipgloss.Style
	Border     lipgloss.Style
}

// NewStyles creates the default styling for the TUI.
func NewStyles() *Styles {
	return &Styles{
		Title:      lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
		Pending:    lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
		Running:    lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true),
		Success:    lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
		Failed:     lipgloss.NewStyle().Foreground(lipgloss.Color("9")),
		Skipped:    lipgloss.NewStyle().Foreground(lipgloss.Color("3")),
		Output:     lipgloss.NewStyle().Foreground(lipgloss.Color("7")).Italic(true),
		Error:      lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Italic(true),
		Help:       lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
		TreeBranch: lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
		Border:     lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("8")),
	}
}

// Model is the bubbletea model for a batch run.
// bubbletea calls Update and View from a single goroutine, so it needs no locking.
type Model struct {
	title     string
	root      *StepNode
	nodes     map[string]*StepNode
	spinner   spinner.Model
	viewport  viewport.Model
	styles    *Styles
	width     int
	height    int
	completed bool
	autoQuit  bool
	quitting  bool
	results   runner.Results
	now       func() time.Time
}

// NewModel creates a model titled title.
func NewModel(title string) *Model {
	return &Model{
		title:    title,
		root:     NewStepNode(nil, ""),
		nodes:    make(map[string]*StepNode),
		spinner:  spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(NewStyles().Running)),
		viewport: viewport.New(defaultWidth, defaultHeight),
		styles:   NewStyles(),
		now:      time.Now,
	}
}

// Completed reports whether DoneMsg has been received.
func (m *Model) Completed() bool {
	return m.completed
}

// Node returns the node at path, if any.
func (m *Model) Node(path ...string) (*StepNode, bool) {
	n, ok := m.nodes[pathKey(path)]
	return n, ok
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.viewport.Width = max(msg.Width-borderWidth, minViewportWidth)
		m.viewport.Height = max(msg.Height-reservedLines, minViewportHeight)

		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd

		m.spinner, cmd = m.spinner.Update(msg)

		return m, cmd

	case EventMsg:
		m.apply(msg.Event)
		return m, nil

	case DoneMsg:
		m.completed = true
		m.results = msg.Results

		if m.autoQuit {
			return m, tea.Quit
		}

		return m, nil
	}

	var cmd tea.Cmd

	m.viewport, cmd = m.viewport.Update(msg)

	return m, cmd
}

// apply updates the tree from a progress event.
func (m *Model) apply(e progress.Event) {
	if len(e.Path) == 0 {
		return
	}

	n := m.node(e.Path)
	at := e.Time
	if at.IsZero() {
		at = m.now()
	}

	switch e.Type {
	case progress.EventStarted:
		n.SetStatus(StatusRunning, at)
	case progress.EventOutput:
		n.SetOutput(e.Line)
	case progress.EventCompleted:
		n.SetStatus(StatusSuccess, at)
	case progress.EventFailed:
		n.SetStatus(StatusFailed, at)

		if e.Err != nil {
			n.ErrorMsg = strings.ReplaceAll(e.Err.Error(), "\n", "; ")
		}
	case progress.EventSkipped:
		n.SetStatus(StatusSkipped, at)
	}
}

// node returns the node at path, creating it and any missing parents.
func (m *Model) node(path []string) *StepNode {
	if n, ok := m.nodes[pathKey(path)]; ok {
		return n
	}

	parent := m.root
	if len(path) > 1 {
		parent = m.node(path[:len(path)-1])
	}

	n := NewStepNode(path, path[len(path)-1])
	m.nodes[pathKey(path)] = n
	parent.Children = append(parent.Children, n)

	return n
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.quitting {
		return ""
	}

	var content strings.Builder

	for i, child := range m.root.Children {
		m.renderTree(&content, child, "", i == len(m.root.Children)-1)
	}

	if m.completed {
		content.WriteString("\n")

		if m.results.HasError() {
			content.WriteString(m.styles.Failed.Render("Finished with errors"))
		} else {
			content.WriteString(m.styles.Success.Render("Finished successfully"))
		}

		content.WriteString("\n")
	}

	m.viewport.SetContent(content.String())

	var view strings.Builder

	view.WriteString(m.styles.Title.Render(m.title))
	view.WriteString("\n")
	view.WriteString(m.styles.Border.Render(m.viewport.View()))
	view.WriteString("\n")
	view.WriteString(m.statusBar())
	view.WriteString("\n")

	help := "↑/↓ to scroll, q to cancel"
	if m.completed {
		help = "↑/↓ to scroll, q to quit"
	}

	view.WriteString(m.styles.Help.Render(help))

	return view.String()
}

func (m *Model) statusBar() string {
	counts := make(map[StepStatus]int)

	for _, n := range m.nodes {
		if len(n.Children) == 0 {
			counts[n.Status]++
		}
	}

	return fmt.Sprintf("%s  %s  %s  %s",
		m.styles.Running.Render(fmt.Sprintf("running %d", counts[StatusRunning])),
		m.styles.Success.Render(fmt.Sprintf("ok %d", counts[StatusSuccess])),
		m.styles.Failed.Render(fmt.Sprintf("failed %d", counts[StatusFailed])),
		m.styles.Skipped.Render(fmt.Sprintf("skipped %d", counts[StatusSkipped])),
	)
}

func (m *Model) renderTree(b *strings.Builder, n *StepNode, prefix string, isLast bool) {
	connector, childPrefix := "├── ", prefix+"│   "
	if isLast {
		connector, childPrefix = "└── ", prefix+"    "
	}

	b.WriteString(m.styles.TreeBranch.Render(prefix + connector))
	b.WriteString(m.renderLine(n, lipgloss.Width(prefix+connector)))
	b.WriteString("\n")

	for i, child := range n.Children {
		m.renderTree(b, child, childPrefix, i == len(n.Children)-1)
	}
}

func (m *Model) renderLine(n *StepNode, indent int) string {
	var icon, name string

	switch n.Status {
	case StatusRunning:
		icon, name = m.spinner.View(), m.styles.Running.Render(n.Name)
	case StatusSuccess:
		icon, name = m.styles.Success.Render("✓"), m.styles.Success.Render(n.Name)
	case StatusFailed:
		icon, name = m.styles.Failed.Render("✗"), m.styles.Failed.Render(n.Name)
	case StatusSkipped:
		icon, name = m.styles.Skipped.Render("~"), m.styles.Skipped.Render(n.Name)
	default:
		icon, name = m.styles.Pending.Render("·"), m.styles.Pending.Render(n.Name)
	}

	left := icon + " " + name
	if d := n.Elapsed(m.now()); d > 0 {
		left += m.styles.Output.Render(fmt.Sprintf(" (%v)", d.Round(commandDurationRounding)))
	}

	var right string

	switch {
	case n.Status == StatusFailed && n.ErrorMsg != "":
		right = m.styles.Error.Render("Error: " + n.ErrorMsg)
	case n.Status == StatusRunning && n.LastOutput != "":
		right = m.styles.Output.Render(n.LastOutput)
	}

	available := max(m.viewport.Width-indent-borderWidth, minViewportWidth)
	leftWidth := available / 2 //nolint:mnd
	line := lipgloss.NewStyle().Width(leftWidth).MaxWidth(leftWidth).Render(left)

	if right != "" {
		line += lipgloss.NewStyle().MaxWidth(available - leftWidth).Render(right)
	}

	return line
}

func pathKey(path []string) string {
	return strings.Join(path, "\x00")
}
