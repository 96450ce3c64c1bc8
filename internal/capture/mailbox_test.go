package capture

import (
	"testing"
	"time"

	"github.com/e7canasta/posture-sensor/internal/types"
)

func testFrame(seq uint64) types.Frame {
	return types.Frame{
		Seq:       seq,
		Timestamp: time.Now(),
		Width:     4,
		Height:    4,
		Data:      make([]byte, 4*4*3),
	}
}

// TestMailbox_Empty validates that an empty slot yields ok=false, which the
// loop interprets as "skip this tick".
func TestMailbox_Empty(t *testing.T) {
	mb := NewMailbox()
	if _, ok := mb.TryTake(); ok {
		t.Error("TryTake() on empty mailbox returned ok=true")
	}
}

// TestMailbox_LatestWins validates the overwrite policy.
//
// Contract: a new frame replaces an unconsumed one; the consumer only ever
// sees the freshest frame; overwrites are counted as drops.
func TestMailbox_LatestWins(t *testing.T) {
	mb := NewMailbox()
	mb.Put(testFrame(1))
	mb.Put(testFrame(2))
	mb.Put(testFrame(3))

	frame, ok := mb.TryTake()
	if !ok {
		t.Fatal("TryTake() returned ok=false after Put")
	}
	if frame.Seq != 3 {
		t.Errorf("TryTake() seq = %d, want 3 (latest)", frame.Seq)
	}
	if got := mb.Drops(); got != 2 {
		t.Errorf("Drops() = %d, want 2", got)
	}
	if got := mb.Received(); got != 3 {
		t.Errorf("Received() = %d, want 3", got)
	}
}

// TestMailbox_TakeConsumes validates that a take empties the slot: the same
// frame is never processed by two ticks.
func TestMailbox_TakeConsumes(t *testing.T) {
	mb := NewMailbox()
	mb.Put(testFrame(7))

	if _, ok := mb.TryTake(); !ok {
		t.Fatal("first TryTake() returned ok=false")
	}
	if _, ok := mb.TryTake(); ok {
		t.Error("second TryTake() returned the same frame again")
	}
}

// TestMailbox_NoDropsWhenConsumed validates drop accounting: consuming
// between puts means nothing is overwritten.
func TestMailbox_NoDropsWhenConsumed(t *testing.T) {
	mb := NewMailbox()
	for seq := uint64(1); seq <= 5; seq++ {
		mb.Put(testFrame(seq))
		if _, ok := mb.TryTake(); !ok {
			t.Fatalf("TryTake() after Put(seq=%d) returned ok=false", seq)
		}
	}
	if got := mb.Drops(); got != 0 {
		t.Errorf("Drops() = %d, want 0", got)
	}
}
