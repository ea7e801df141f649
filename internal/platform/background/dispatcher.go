// Package background runs fire-and-forget jobs that must outlive the request
// that started them.
package background

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"registrar/pkg/requestcontext"
)

// Job is a unit of detached work. Its error is logged, never returned.
type Job func(ctx context.Context) error

// Dispatcher starts jobs on their own goroutines. Jobs keep the values of the
// triggering context (request id, request time) but not its cancellation.
type Dispatcher struct {
	logger *slog.Logger
	wg     sync.WaitGroup
}

func NewDispatcher(logger *slog.Logger) *Dispatcher {
	return &Dispatcher{logger: logger}
}

// Go runs job in the background.
func (d *Dispatcher) Go(ctx context.Context, name string, job Job) {
	detached := context.WithoutCancel(ctx)
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		if err := d.run(detached, job); err != nil {
			d.logger.ErrorContext(detached, "background job failed",
				"job", name,
				"error", err,
				"request_id", requestcontext.RequestID(detached),
			)
		}
	}()
}

func (d *Dispatcher) run(ctx context.Context, job Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return job(ctx)
}

// Wait blocks until every started job has returned or ctx is done.
func (d *Dispatcher) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
