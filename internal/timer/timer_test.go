package timer

import (
	"context"
	"testing"
	"time"

	"github.com/coder/quartz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedEvent struct {
	kind              string
	remaining         int
	inTimeBank        bool
	timeBankRemaining int
	timeBankConsumed  int
}

type channelCallbacks struct {
	events chan recordedEvent
}

func newChannelCallbacks() *channelCallbacks {
	return &channelCallbacks{events: make(chan recordedEvent, 256)}
}

func (c *channelCallbacks) OnTick(playerID string, remainingSeconds int, inTimeBank bool, timeBankRemaining int) {
	c.events <- recordedEvent{kind: "tick", remaining: remainingSeconds, inTimeBank: inTimeBank, timeBankRemaining: timeBankRemaining}
}

func (c *channelCallbacks) OnWarning(playerID string, remainingSeconds int) {
	c.events <- recordedEvent{kind: "warning", remaining: remainingSeconds}
}

func (c *channelCallbacks) OnTimeBankActivated(playerID string, timeBankRemaining int) {
	c.events <- recordedEvent{kind: "bank-activated", timeBankRemaining: timeBankRemaining}
}

func (c *channelCallbacks) OnExpired(playerID string, timeBankConsumed int) {
	c.events <- recordedEvent{kind: "expired", timeBankConsumed: timeBankConsumed}
}

func (c *channelCallbacks) drain(t *testing.T, n int) []recordedEvent {
	t.Helper()
	out := make([]recordedEvent, 0, n)
	for i := 0; i < n; i++ {
		select {
		case e := <-c.events:
			out = append(out, e)
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for event %d/%d", i+1, n)
		}
	}
	return out
}

// TestActionTimerExpiryWithTimeBankEscalation drives scenario S6: 30s
// action timer, 60s time bank, no action for 90s. Expect ticks down to the
// warning at <=10s, bank activation at zero, bank ticks down, then expiry.
func TestActionTimerExpiryWithTimeBankEscalation(t *testing.T) {
	clock := quartz.NewMock(t)
	cb := newChannelCallbacks()
	at := New(clock, cb)

	at.Start("table-1", "hand-1", "p1", 30, true, 60)

	ctx := context.Background()
	var warnings, bankActivations, expirations int
	for i := 0; i < 90; i++ {
		clock.Advance(time.Second).MustWait(ctx)
		events := drainStep(t, cb)
		for _, e := range events {
			switch e.kind {
			case "warning":
				warnings++
				assert.LessOrEqual(t, e.remaining, 10)
			case "bank-activated":
				bankActivations++
			case "expired":
				expirations++
			}
		}
		if expirations > 0 {
			break
		}
	}

	assert.Equal(t, 1, warnings, "warning must be one-shot")
	assert.Equal(t, 1, bankActivations, "bank activation must be one-shot")
	assert.Equal(t, 1, expirations, "timer must expire exactly once")
	assert.False(t, at.IsActive(), "expired timer must be removed")
}

func TestActionTimerCancelReturnsZeroBeforeBankEngages(t *testing.T) {
	clock := quartz.NewMock(t)
	cb := newChannelCallbacks()
	at := New(clock, cb)

	at.Start("table-1", "hand-1", "p1", 30, true, 60)
	consumed, ok := at.Cancel()
	assert.True(t, ok)
	assert.Equal(t, 0, consumed)
	assert.False(t, at.IsActive())
}

func TestActionTimerCancelIsNoopWhenAlreadyRemoved(t *testing.T) {
	clock := quartz.NewMock(t)
	cb := newChannelCallbacks()
	at := New(clock, cb)

	_, ok := at.Cancel()
	assert.False(t, ok, "cancelling with nothing active is a silent no-op (TimerRace)")
}

func TestActionTimerDisabledWhenZeroSeconds(t *testing.T) {
	clock := quartz.NewMock(t)
	cb := newChannelCallbacks()
	at := New(clock, cb)

	at.Start("table-1", "hand-1", "p1", 0, false, 0)
	assert.False(t, at.IsActive(), "actionSeconds<=0 means unlimited time, no timer runs")
}

func TestActionTimerPauseStopsProgressUntilResume(t *testing.T) {
	clock := quartz.NewMock(t)
	cb := newChannelCallbacks()
	at := New(clock, cb)

	at.Start("table-1", "hand-1", "p1", 30, false, 0)
	require.True(t, at.IsActive())

	at.Pause()
	ctx := context.Background()
	clock.Advance(time.Second).MustWait(ctx)
	// Draining should yield a tick reporting the unchanged remaining value
	// while paused (implementation does not decrement while paused).
	events := cb.drain(t, 1)
	assert.Equal(t, "tick", events[0].kind)
	assert.Equal(t, 30, events[0].remaining)

	at.Resume()
	clock.Advance(time.Second).MustWait(ctx)
	events = cb.drain(t, 1)
	assert.Equal(t, 29, events[0].remaining)
}

// drainStep waits for the first event produced by an Advance, then sweeps
// up any second event from the same second (a tick paired with a one-shot
// warning or bank activation) without blocking further.
func drainStep(t *testing.T, c *channelCallbacks) []recordedEvent {
	t.Helper()
	var out []recordedEvent
	select {
	case e := <-c.events:
		out = append(out, e)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for timer event")
	}
	select {
	case e := <-c.events:
		out = append(out, e)
	default:
	}
	return out
}
