package circuit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type outcome int

const (
	fail outcome = iota
	succeed
)

func record(b *Breaker, outcomes ...outcome) (opened, closed int) {
	for _, o := range outcomes {
		var change StateChange
		switch o {
		case fail:
			_, change = b.RecordFailure()
		case succeed:
			_, change = b.RecordSuccess()
		}
		if change.Opened {
			opened++
		}
		if change.Closed {
			closed++
		}
	}
	return opened, closed
}

func TestBreakerTransitions(t *testing.T) {
	tests := []struct {
		name       string
		opts       []Option
		outcomes   []outcome
		wantState  State
		wantOpened int
		wantClosed int
	}{
		{
			name:      "starts closed",
			wantState: StateClosed,
		},
		{
			name:      "below threshold stays closed",
			opts:      []Option{WithFailureThreshold(3)},
			outcomes:  []outcome{fail, fail},
			wantState: StateClosed,
		},
		{
			name:       "consecutive failures open",
			opts:       []Option{WithFailureThreshold(3)},
			outcomes:   []outcome{fail, fail, fail},
			wantState:  StateOpen,
			wantOpened: 1,
		},
		{
			name:      "a success resets the failure streak",
			opts:      []Option{WithFailureThreshold(3)},
			outcomes:  []outcome{fail, fail, succeed, fail, fail},
			wantState: StateClosed,
		},
		{
			name:       "failures while open do not reopen",
			opts:       []Option{WithFailureThreshold(1)},
			outcomes:   []outcome{fail, fail, fail},
			wantState:  StateOpen,
			wantOpened: 1,
		},
		{
			name:       "success threshold closes",
			opts:       []Option{WithFailureThreshold(1), WithSuccessThreshold(2)},
			outcomes:   []outcome{fail, succeed, succeed},
			wantState:  StateClosed,
			wantOpened: 1,
			wantClosed: 1,
		},
		{
			name:       "a failure resets the success streak",
			opts:       []Option{WithFailureThreshold(1), WithSuccessThreshold(2)},
			outcomes:   []outcome{fail, succeed, fail, succeed},
			wantState:  StateOpen,
			wantOpened: 1,
		},
		{
			name:      "non-positive thresholds keep defaults",
			opts:      []Option{WithFailureThreshold(0), WithSuccessThreshold(-1)},
			outcomes:  []outcome{fail, fail, fail, fail},
			wantState: StateClosed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := New("matrix", tt.opts...)
			opened, closed := record(b, tt.outcomes...)

			assert.Equal(t, tt.wantState, b.State())
			assert.Equal(t, tt.wantState == StateOpen, b.IsOpen())
			assert.Equal(t, tt.wantOpened, opened)
			assert.Equal(t, tt.wantClosed, closed)
		})
	}
}

func TestBreakerFallbackSignals(t *testing.T) {
	b := New("ratelimit", WithFailureThreshold(2))
	require.Equal(t, "ratelimit", b.Name())

	useFallback, _ := b.RecordFailure()
	assert.False(t, useFallback, "primary is still used below the threshold")

	useFallback, _ = b.RecordFailure()
	assert.True(t, useFallback)

	usePrimary, change := b.RecordSuccess()
	assert.True(t, usePrimary)
	assert.True(t, change.Closed)

	b.RecordFailure()
	b.RecordFailure()
	b.Reset()
	assert.Equal(t, StateClosed, b.State())
	useFallback, _ = b.RecordFailure()
	assert.False(t, useFallback, "reset clears the failure streak")
}

func TestBreakerCooldownGatesTrialCall(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	b := New("matrix",
		WithFailureThreshold(1),
		WithCooldown(30*time.Second),
		WithClock(func() time.Time { return now }),
	)

	assert.True(t, b.Allow())
	b.RecordFailure()
	assert.False(t, b.Allow())

	now = now.Add(31 * time.Second)
	assert.True(t, b.Allow(), "one trial call after the cooldown")

	b.RecordFailure()
	assert.False(t, b.Allow(), "a failed trial call restarts the cooldown")

	now = now.Add(31 * time.Second)
	usePrimary, change := b.RecordSuccess()
	assert.True(t, usePrimary)
	assert.True(t, change.Closed)
	assert.True(t, b.Allow())
}
