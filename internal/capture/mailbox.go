package capture

import (
	"sync"
	"sync/atomic"

	"github.com/e7canasta/posture-sensor/internal/types"
)

// Mailbox is a single-slot latest-frame buffer between the capture stream
// and the frame loop.
//
// Semantics: drop frames, never queue. A new frame overwrites an unconsumed
// one and the overwrite is counted. The loop takes whatever is freshest at
// tick time; an empty slot means the tick is skipped.
type Mailbox struct {
	mu    sync.Mutex
	frame *types.Frame
	drops uint64
	puts  uint64
}

// NewMailbox creates an empty mailbox.
func NewMailbox() *Mailbox {
	return &Mailbox{}
}

// Put stores a frame, overwriting any unconsumed one. Non-blocking.
// The frame's Data must not be modified after Put (immutability contract).
func (m *Mailbox) Put(frame types.Frame) {
	m.mu.Lock()
	if m.frame != nil {
		atomic.AddUint64(&m.drops, 1)
	}
	m.frame = &frame
	m.mu.Unlock()
	atomic.AddUint64(&m.puts, 1)
}

// TryTake removes and returns the stored frame, or ok=false when the slot
// is empty. Non-blocking.
func (m *Mailbox) TryTake() (types.Frame, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.frame == nil {
		return types.Frame{}, false
	}
	frame := *m.frame
	m.frame = nil
	return frame, true
}

// Drops returns the number of frames overwritten before being consumed.
func (m *Mailbox) Drops() uint64 {
	return atomic.LoadUint64(&m.drops)
}

// Received returns the total number of frames put into the mailbox.
func (m *Mailbox) Received() uint64 {
	return atomic.LoadUint64(&m.puts)
}
