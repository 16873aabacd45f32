package player

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tessro/ytmdeck/internal/companion/client"
	"github.com/tessro/ytmdeck/internal/core"
)

type sentCommand struct {
	name string
	data any
}

type fakeAPI struct {
	state *client.State
	err   error
	sent  []sentCommand
}

func (f *fakeAPI) FetchState(context.Context) (*client.State, error) {
	return f.state, f.err
}

func (f *fakeAPI) SendCommand(_ context.Context, name string, data any) error {
	f.sent = append(f.sent, sentCommand{name, data})
	return f.err
}

func TestCommands(t *testing.T) {
	tests := []struct {
		name string
		call func(*Player) error
		want sentCommand
	}{
		{"play pause", func(p *Player) error { return p.PlayPause(context.Background()) }, sentCommand{CmdPlayPause, nil}},
		{"next", func(p *Player) error { return p.Next(context.Background()) }, sentCommand{CmdNext, nil}},
		{"previous", func(p *Player) error { return p.Previous(context.Background()) }, sentCommand{CmdPrevious, nil}},
		{"like", func(p *Player) error { return p.ToggleLike(context.Background()) }, sentCommand{CmdToggleLike, nil}},
		{"volume clamped", func(p *Player) error { return p.SetVolume(context.Background(), 140) }, sentCommand{CmdSetVolume, 100}},
		{"repeat", func(p *Player) error { return p.SetRepeatMode(context.Background(), core.RepeatModeAll) }, sentCommand{CmdRepeatMode, 1}},
		{"seek", func(p *Player) error { return p.SeekTo(context.Background(), 90*time.Second) }, sentCommand{CmdSeekTo, 90}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := &fakeAPI{}
			if err := tt.call(New(api)); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(api.sent) != 1 || api.sent[0] != tt.want {
				t.Errorf("sent = %+v, want [%+v]", api.sent, tt.want)
			}
		})
	}
}

func TestGetState(t *testing.T) {
	api := &fakeAPI{state: &client.State{}}
	snap, err := New(api).GetState(context.Background())
	if err != nil {
		t.Fatalf("GetState() error = %v", err)
	}
	if snap.HasTrack() {
		t.Error("GetState() on empty payload should return the empty snapshot")
	}

	api.err = errors.New("boom")
	if _, err := New(api).GetState(context.Background()); err == nil {
		t.Error("GetState() error = nil, want error")
	}
}
