package assistant

import (
	"sync"

	"vetbuddy/app/service/diag"
)

const updateBufferSize = 64

// feed fans session state updates out to subscriber channels. Slow
// subscribers lose updates instead of blocking the state machine.
type feed struct {
	diagSvc *diag.Service

	mu     sync.Mutex
	subs   map[int]chan State
	nextID int
	closed bool
}

func newFeed(diagSvc *diag.Service) *feed {
	return &feed{
		diagSvc: diagSvc,
		subs:    make(map[int]chan State),
	}
}

func (f *feed) subscribe() (<-chan State, func()) {
	f.mu.Lock()
	defer f.mu.Unlock()

	ch := make(chan State, updateBufferSize)
	if f.closed {
		close(ch)
		return ch, func() {}
	}

	id := f.nextID
	f.nextID++
	f.subs[id] = ch

	return ch, func() {
		f.mu.Lock()
		defer f.mu.Unlock()

		if sub, ok := f.subs[id]; ok {
			delete(f.subs, id)
			close(sub)
		}
	}
}

func (f *feed) publish(state State) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, ch := range f.subs {
		select {
		case ch <- state:
		default:
			f.diagSvc.Warn("assistant", "update feed is full, dropping state", nil)
		}
	}
}

func (f *feed) close() {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return
	}
	f.closed = true

	for id, ch := range f.subs {
		delete(f.subs, id)
		close(ch)
	}
}
