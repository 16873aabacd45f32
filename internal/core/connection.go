package core

import (
	"fmt"
	"time"
)

// Phase is a step in the live connection lifecycle.
type Phase int

const (
	PhaseDisconnected Phase = iota
	PhaseConnecting
	PhaseConnected
	PhaseReconnecting
)

func (p Phase) String() string {
	switch p {
	case PhaseConnecting:
		return "connecting"
	case PhaseConnected:
		return "connected"
	case PhaseReconnecting:
		return "reconnecting"
	default:
		return "disconnected"
	}
}

// ConnectionState describes the realtime channel.
// Attempt and Delay are set while reconnecting; Err and GaveUp describe why the
// channel is disconnected.
type ConnectionState struct {
	Phase   Phase         `json:"phase"`
	Attempt int           `json:"attempt,omitempty"`
	Delay   time.Duration `json:"delay,omitempty"`
	Reason  string        `json:"reason,omitempty"`
	GaveUp  bool          `json:"gave_up,omitempty"`
	Err     error         `json:"-"`
}

// Connected returns true if the phase is PhaseConnected.
func (s ConnectionState) Connected() bool {
	return s.Phase == PhaseConnected
}

func (s ConnectionState) String() string {
	switch s.Phase {
	case PhaseReconnecting:
		return fmt.Sprintf("reconnecting (attempt %d in %v)", s.Attempt, s.Delay)
	case PhaseDisconnected:
		if s.GaveUp {
			return "disconnected (gave up)"
		}
		if s.Reason != "" {
			return "disconnected: " + s.Reason
		}
	}
	return s.Phase.String()
}

// Status is what a surface should convey about the freshness of its data.
type Status int

const (
	StatusOffline Status = iota
	StatusLive
	StatusStale
	StatusReconnecting
	StatusAuthRequired
)

func (s Status) String() string {
	switch s {
	case StatusLive:
		return "live"
	case StatusStale:
		return "stale"
	case StatusReconnecting:
		return "reconnecting"
	case StatusAuthRequired:
		return "auth_required"
	default:
		return "offline"
	}
}

// MarshalText encodes the status by name.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}
