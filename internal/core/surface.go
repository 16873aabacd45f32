package core

import "image"

// ControlKind names a type of on-screen control.
type ControlKind string

const (
	KindNowPlaying ControlKind = "nowplaying"
	KindPlayPause  ControlKind = "playpause"
	KindNext       ControlKind = "next"
	KindPrevious   ControlKind = "previous"
	KindLike       ControlKind = "like"
	KindDislike    ControlKind = "dislike"
	KindVolumeUp   ControlKind = "volumeup"
	KindVolumeDown ControlKind = "volumedown"
	KindMute       ControlKind = "mute"
	KindRepeat     ControlKind = "repeat"
)

// DisplayOptions are the per-control settings supplied by the host.
type DisplayOptions struct {
	Background string         `json:"background,omitempty"`
	Foreground string         `json:"foreground,omitempty"`
	ShowTitle  bool           `json:"show_title,omitempty"`
	Settings   map[string]any `json:"settings,omitempty"`
}

// SurfaceRegistration records a control announced by the host.
type SurfaceRegistration struct {
	ID      string         `json:"id"`
	Kind    ControlKind    `json:"kind"`
	Device  string         `json:"device,omitempty"`
	Options DisplayOptions `json:"options"`
}

// View is the input a surface renders from.
type View struct {
	Snapshot PlaybackSnapshot
	Status   Status
}

// Frame is what a surface hands to the host for display.
type Frame struct {
	Image image.Image
	Title string
}
