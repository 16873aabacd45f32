package reconcile

import (
	"sync"
	"time"

	"github.com/tessro/ytmdeck/internal/change"
	"github.com/tessro/ytmdeck/internal/core"
)

const updateBufferSize = 16

// Update describes one accepted snapshot or status change.
type Update struct {
	Previous   core.PlaybackSnapshot
	Current    core.PlaybackSnapshot
	Reasons    change.Reasons
	Status     core.Status
	Connection core.ConnectionState
	At         time.Time
}

// Subscription delivers updates to one observer. Slow observers lose updates
// rather than stalling the coordinator.
type Subscription struct {
	Updates <-chan Update
	Done    <-chan struct{}

	updates chan Update
	done    chan struct{}
	once    sync.Once
}

func newSubscription() *Subscription {
	s := &Subscription{
		updates: make(chan Update, updateBufferSize),
		done:    make(chan struct{}),
	}
	s.Updates = s.updates
	s.Done = s.done
	return s
}

// send delivers u without blocking.
func (s *Subscription) send(u Update) {
	select {
	case s.updates <- u:
	default:
		// Drop if buffer full
	}
}

func (s *Subscription) close() {
	s.once.Do(func() { close(s.done) })
}
