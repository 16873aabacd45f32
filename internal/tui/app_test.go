package tui

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tessro/ytmdeck/internal/change"
	"github.com/tessro/ytmdeck/internal/core"
	"github.com/tessro/ytmdeck/internal/reconcile"
	"github.com/tessro/ytmdeck/internal/tail"
)

type idleChannel struct{}

func (idleChannel) Connect(context.Context) error            { return nil }
func (idleChannel) Disconnect()                              {}
func (idleChannel) State() core.ConnectionState              { return core.ConnectionState{} }
func (idleChannel) LastKnown() (core.PlaybackSnapshot, bool) { return core.PlaybackSnapshot{}, false }
func (idleChannel) IsFresh(time.Duration) bool               { return false }

type noAuth struct{}

func (noAuth) IsAuthenticated() bool { return false }
func (noAuth) Token() string         { return "" }

type fakeController struct {
	mu     sync.Mutex
	calls  []string
	repeat core.RepeatMode
	err    error
}

func (f *fakeController) record(name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, name)
	return f.err
}

func (f *fakeController) PlayPause(context.Context) error     { return f.record("playpause") }
func (f *fakeController) Next(context.Context) error          { return f.record("next") }
func (f *fakeController) Previous(context.Context) error      { return f.record("previous") }
func (f *fakeController) ToggleLike(context.Context) error    { return f.record("like") }
func (f *fakeController) ToggleDislike(context.Context) error { return f.record("dislike") }
func (f *fakeController) VolumeUp(context.Context) error      { return f.record("volumeup") }
func (f *fakeController) VolumeDown(context.Context) error    { return f.record("volumedown") }
func (f *fakeController) Mute(context.Context) error          { return f.record("mute") }
func (f *fakeController) Unmute(context.Context) error        { return f.record("unmute") }
func (f *fakeController) SetRepeatMode(_ context.Context, mode core.RepeatMode) error {
	f.repeat = mode
	return f.record("repeat")
}

func newTestModel(t *testing.T, ctrl *fakeController) (Model, *reconcile.Coordinator) {
	t.Helper()
	c := reconcile.New(reconcile.Options{Channel: idleChannel{}, Auth: noAuth{}})
	t.Cleanup(c.Close)

	var m Model
	if ctrl == nil {
		m = NewModel(c, nil)
	} else {
		m = NewModel(c, ctrl)
	}
	next, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return next.(Model), c
}

func keyMsg(s string) tea.KeyMsg {
	switch s {
	case " ":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func snapshot(title string, progress float64) core.PlaybackSnapshot {
	s := core.Empty()
	s.Title = title
	s.Artist = "Artist"
	s.VideoID = "vid-" + title
	s.Progress = progress
	s.Duration = 200
	s.IsPlaying = true
	s.Volume = 40
	s.LastUpdate = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC).UnixMilli()
	return s
}

func TestUpdateAppliesCoordinatorUpdate(t *testing.T) {
	m, _ := newTestModel(t, nil)

	u := reconcile.Update{
		Previous:   core.Empty(),
		Current:    snapshot("Song A", 10),
		Reasons:    change.First | change.Identity,
		Status:     core.StatusLive,
		Connection: core.ConnectionState{Phase: core.PhaseConnected},
		At:         time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
	}
	next, cmd := m.Update(updateMsg(u))
	model := next.(Model)

	require.NotNil(t, cmd, "update should re-arm the subscription wait")
	assert.Equal(t, "Song A", model.view.Snapshot.Title)
	assert.Equal(t, core.StatusLive, model.view.Status)
	assert.Equal(t, core.PhaseConnected, model.conn.Phase)
	assert.Equal(t, u.At, model.connSince)
	assert.Equal(t, len(tail.Diff(u, m.lastStatus)), model.history.Len())

	out := model.View()
	assert.Contains(t, out, "Song A")
	assert.Contains(t, out, "connected")
	assert.Contains(t, out, "live")
}

func TestKeysDispatchCommands(t *testing.T) {
	tests := []struct {
		key  string
		want string
	}{
		{" ", "playpause"},
		{"n", "next"},
		{"p", "previous"},
		{"+", "volumeup"},
		{"=", "volumeup"},
		{"-", "volumedown"},
		{"l", "like"},
		{"d", "dislike"},
		{"m", "mute"},
		{"r", "repeat"},
	}

	for _, tt := range tests {
		t.Run(tt.want+"_"+tt.key, func(t *testing.T) {
			ctrl := &fakeController{}
			m, _ := newTestModel(t, ctrl)

			_, cmd := m.Update(keyMsg(tt.key))
			require.NotNil(t, cmd)
			assert.Nil(t, cmd())
			assert.Equal(t, []string{tt.want}, ctrl.calls)
		})
	}
}

func TestMuteTogglesAndRepeatCycles(t *testing.T) {
	ctrl := &fakeController{}
	m, _ := newTestModel(t, ctrl)

	snap := snapshot("Song A", 0)
	snap.Muted = true
	snap.RepeatMode = core.RepeatModeAll
	m.view = core.View{Snapshot: snap, Status: core.StatusLive}

	_, cmd := m.Update(keyMsg("m"))
	cmd()
	_, cmd = m.Update(keyMsg("r"))
	cmd()

	assert.Equal(t, []string{"unmute", "repeat"}, ctrl.calls)
	assert.Equal(t, core.RepeatModeOne, ctrl.repeat)
}

func TestCommandErrorShownInStatusBar(t *testing.T) {
	ctrl := &fakeController{err: errors.New("companion server unreachable")}
	m, _ := newTestModel(t, ctrl)

	_, cmd := m.Update(keyMsg("n"))
	msg := cmd()
	require.NotNil(t, msg)

	next, _ := m.Update(msg)
	assert.Contains(t, next.(Model).View(), "companion server unreachable")
}

func TestNoControllerIgnoresPlaybackKeys(t *testing.T) {
	m, _ := newTestModel(t, nil)

	_, cmd := m.Update(keyMsg("n"))
	assert.Nil(t, cmd)
}

func TestHelpAndPanels(t *testing.T) {
	m, _ := newTestModel(t, nil)

	next, _ := m.Update(keyMsg("?"))
	model := next.(Model)
	assert.True(t, model.help.ShowAll)
	assert.Contains(t, model.View(), "Keyboard Shortcuts")

	next, _ = model.Update(keyMsg("esc"))
	model = next.(Model)
	assert.False(t, model.help.ShowAll)

	next, _ = model.Update(keyMsg("tab"))
	assert.Equal(t, PanelConnection, next.(Model).focusedPanel)
}

func TestQuit(t *testing.T) {
	m, _ := newTestModel(t, nil)

	next, cmd := m.Update(keyMsg("q"))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.Empty(t, next.(Model).View())
}

func TestClosedSubscriptionQuits(t *testing.T) {
	m, c := newTestModel(t, nil)
	c.Close()

	msg := m.waitForUpdate()()
	assert.IsType(t, closedMsg{}, msg)

	_, cmd := m.Update(msg)
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestViewBeforeResize(t *testing.T) {
	c := reconcile.New(reconcile.Options{Channel: idleChannel{}, Auth: noAuth{}})
	defer c.Close()

	m := NewModel(c, nil)
	assert.True(t, strings.HasPrefix(m.View(), "Loading"))
}
