package background

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"registrar/pkg/requestcontext"
)

func newDispatcher() *Dispatcher {
	return NewDispatcher(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestJobsOutliveTheirRequest(t *testing.T) {
	d := newDispatcher()
	ctx, cancel := context.WithCancel(requestcontext.WithRequestID(context.Background(), "req-1"))

	release := make(chan struct{})
	var sawCancel atomic.Bool
	var requestID atomic.Value
	d.Go(ctx, "slow", func(jobCtx context.Context) error {
		<-release
		sawCancel.Store(jobCtx.Err() != nil)
		requestID.Store(requestcontext.RequestID(jobCtx))
		return nil
	})

	cancel()
	close(release)
	require.NoError(t, d.Wait(context.Background()))

	assert.False(t, sawCancel.Load())
	assert.Equal(t, "req-1", requestID.Load())
}

func TestFailuresAndPanicsAreContained(t *testing.T) {
	d := newDispatcher()
	var ran atomic.Int32

	d.Go(context.Background(), "fails", func(context.Context) error {
		ran.Add(1)
		return errors.New("boom")
	})
	d.Go(context.Background(), "panics", func(context.Context) error {
		ran.Add(1)
		panic("unexpected")
	})

	require.NoError(t, d.Wait(context.Background()))
	assert.Equal(t, int32(2), ran.Load())
}

func TestWaitHonoursDeadline(t *testing.T) {
	d := newDispatcher()
	release := make(chan struct{})
	defer close(release)
	d.Go(context.Background(), "stuck", func(context.Context) error {
		<-release
		return nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, d.Wait(ctx), context.DeadlineExceeded)
}
