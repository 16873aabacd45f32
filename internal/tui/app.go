package tui

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tessro/ytmdeck/internal/core"
	apperrors "github.com/tessro/ytmdeck/internal/errors"
	"github.com/tessro/ytmdeck/internal/reconcile"
	"github.com/tessro/ytmdeck/internal/surface"
	"github.com/tessro/ytmdeck/internal/tail"
	"github.com/tessro/ytmdeck/internal/tui/components"
	"github.com/tessro/ytmdeck/internal/tui/styles"
)

const (
	tickInterval  = time.Second
	actionTimeout = 5 * time.Second
	errorDuration = 5 * time.Second
)

// Source supplies the reconciled view and its updates.
type Source interface {
	View() core.View
	Subscribe() *reconcile.Subscription
	Unsubscribe(*reconcile.Subscription)
}

// Panel represents which panel is focused
type Panel int

const (
	PanelNowPlaying Panel = iota
	PanelConnection
	PanelHistory
	panelCount
)

// Model is the main TUI model
type Model struct {
	source Source
	ctrl   surface.Controller
	sub    *reconcile.Subscription

	width        int
	height       int
	focusedPanel Panel
	now          time.Time

	// State
	view       core.View
	conn       core.ConnectionState
	connSince  time.Time
	lastStatus core.Status

	// Components
	nowPlaying *components.NowPlaying
	connection *components.Connection
	history    *components.History
	spinner    spinner.Model
	help       help.Model
	keys       keyMap

	// Error handling
	lastError   error
	errorExpiry time.Time

	quitting bool
}

// NewModel creates a new TUI model subscribed to source.
func NewModel(source Source, ctrl surface.Controller) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.Paused

	view := source.View()
	return Model{
		source:     source,
		ctrl:       ctrl,
		sub:        source.Subscribe(),
		now:        time.Now(),
		view:       view,
		lastStatus: view.Status,
		nowPlaying: components.NewNowPlaying(),
		connection: components.NewConnection(),
		history:    components.NewHistory(),
		spinner:    sp,
		help:       help.New(),
		keys:       defaultKeyMap(),
	}
}

// Messages
type tickMsg time.Time
type updateMsg reconcile.Update
type closedMsg struct{}
type errMsg error

// Commands
func tick() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m Model) waitForUpdate() tea.Cmd {
	sub := m.sub
	return func() tea.Msg {
		select {
		case u := <-sub.Updates:
			return updateMsg(u)
		case <-sub.Done:
			return closedMsg{}
		}
	}
}

func (m Model) command(fn func(ctx context.Context) error) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), actionTimeout)
		defer cancel()

		if err := fn(ctx); err != nil {
			return errMsg(err)
		}
		return nil
	}
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return tea.Batch(tick(), m.waitForUpdate(), m.spinner.Tick)
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case tickMsg:
		m.now = time.Time(msg)
		m.view = m.source.View()
		if m.now.After(m.errorExpiry) {
			m.lastError = nil
		}
		return m, tick()

	case updateMsg:
		m.apply(reconcile.Update(msg))
		return m, m.waitForUpdate()

	case closedMsg:
		m.quitting = true
		return m, tea.Quit

	case errMsg:
		m.lastError = msg
		m.errorExpiry = time.Now().Add(errorDuration)
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m *Model) apply(u reconcile.Update) {
	m.history.Add(tail.Diff(u, m.lastStatus)...)
	m.lastStatus = u.Status

	m.view = core.View{Snapshot: u.Current, Status: u.Status}
	if u.Connection.Phase != m.conn.Phase || m.connSince.IsZero() {
		m.connSince = u.At
	}
	m.conn = u.Connection
	if !u.At.IsZero() {
		m.now = u.At
	}
}

func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Quit) {
		m.quitting = true
		return m, tea.Quit
	}

	if m.help.ShowAll {
		if key.Matches(msg, m.keys.Help, m.keys.Close) {
			m.help.ShowAll = false
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = true
		return m, nil
	case key.Matches(msg, m.keys.NextPanel):
		m.focusedPanel = (m.focusedPanel + 1) % panelCount
		return m, nil
	case key.Matches(msg, m.keys.PrevPanel):
		m.focusedPanel = (m.focusedPanel + panelCount - 1) % panelCount
		return m, nil
	}

	if m.ctrl == nil {
		return m, nil
	}

	snap := m.view.Snapshot
	switch {
	case key.Matches(msg, m.keys.PlayPause):
		return m, m.command(m.ctrl.PlayPause)
	case key.Matches(msg, m.keys.Next):
		return m, m.command(m.ctrl.Next)
	case key.Matches(msg, m.keys.Previous):
		return m, m.command(m.ctrl.Previous)
	case key.Matches(msg, m.keys.VolumeUp):
		return m, m.command(m.ctrl.VolumeUp)
	case key.Matches(msg, m.keys.VolumeDown):
		return m, m.command(m.ctrl.VolumeDown)
	case key.Matches(msg, m.keys.Like):
		return m, m.command(m.ctrl.ToggleLike)
	case key.Matches(msg, m.keys.Dislike):
		return m, m.command(m.ctrl.ToggleDislike)
	case key.Matches(msg, m.keys.Mute):
		if snap.Muted {
			return m, m.command(m.ctrl.Unmute)
		}
		return m, m.command(m.ctrl.Mute)
	case key.Matches(msg, m.keys.Repeat):
		mode := snap.RepeatMode.Next()
		return m, m.command(func(ctx context.Context) error {
			return m.ctrl.SetRepeatMode(ctx, mode)
		})
	}

	return m, nil
}

// View renders the UI
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	if m.width == 0 {
		return "Loading..."
	}

	if m.help.ShowAll {
		return m.renderHelp()
	}

	// Left: Now Playing. Right: Connection (top), History (bottom).
	leftWidth := m.width * 55 / 100
	rightWidth := m.width - leftWidth - 2
	mainHeight := m.height - 3
	topHeight := mainHeight * 40 / 100
	bottomHeight := mainHeight - topHeight - 2

	nowPlaying := m.nowPlaying.Render(m.view, m.now, leftWidth-2, mainHeight, m.focusedPanel == PanelNowPlaying)
	connection := m.connection.Render(m.conn, m.view.Status, m.connSince, m.now, m.spinner.View(),
		rightWidth-2, topHeight, m.focusedPanel == PanelConnection)
	history := m.history.Render(m.now, rightWidth-2, bottomHeight, m.focusedPanel == PanelHistory)

	rightCol := lipgloss.JoinVertical(lipgloss.Left, connection, history)
	main := lipgloss.JoinHorizontal(lipgloss.Top, nowPlaying, rightCol)

	return lipgloss.JoinVertical(lipgloss.Left, main, m.renderStatusBar())
}

func (m Model) renderStatusBar() string {
	status := m.help.View(m.keys)

	if m.lastError != nil {
		status = styles.Failure.Render(apperrors.Format(m.lastError))
	}

	return lipgloss.NewStyle().
		Width(m.width).
		Padding(0, 1).
		Render(status)
}

func (m Model) renderHelp() string {
	title := styles.Highlight.Render("ytmdeck monitor - Keyboard Shortcuts")
	body := lipgloss.JoinVertical(lipgloss.Left,
		title,
		"",
		m.help.View(m.keys),
		"",
		styles.Dim.Render("Press ? or Esc to close"),
	)

	return lipgloss.NewStyle().
		Width(m.width).
		Height(m.height).
		Align(lipgloss.Center, lipgloss.Center).
		Render(styles.BorderStyle.Padding(1, 2).Render(body))
}

// Run starts the monitor and blocks until the user quits or ctx is done.
func Run(ctx context.Context, source Source, ctrl surface.Controller) error {
	model := NewModel(source, ctrl)
	defer source.Unsubscribe(model.sub)

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
