package util

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/conduit-lang/modelkit/internal/logging"
)

// Errors returned by Deferrer.Defer.
var (
	ErrDeferrerNotStarted = errors.New("deferrer not started")
	ErrDeferrerClosed     = errors.New("deferrer shut down")
)

// DeferredTask is a named call run by a Deferrer.
type DeferredTask struct {
	Name string
	Fn   func(ctx context.Context) error
}

// Deferrer runs calls after the code that scheduled them has returned. Tasks
// run one at a time, in the order they were deferred, on a single worker
// goroutine; callers own any synchronization their tasks need.
type Deferrer struct {
	tasks    chan DeferredTask
	wg       sync.WaitGroup
	ctx      context.Context
	cancel   context.CancelFunc
	started  bool
	shutdown bool
	// mu is held for reading across a send so Shutdown cannot close the
	// queue under a pending Defer.
	mu sync.RWMutex
}

// NewDeferrer creates a deferrer whose queue holds up to buffer pending tasks.
func NewDeferrer(buffer int) *Deferrer {
	if buffer <= 0 {
		buffer = 64
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Deferrer{
		tasks:  make(chan DeferredTask, buffer),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start launches the worker. Calling it again is a no-op.
func (d *Deferrer) Start() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.started {
		return
	}
	d.wg.Add(1)
	go d.worker()
	d.started = true
}

func (d *Deferrer) worker() {
	defer d.wg.Done()

	for {
		select {
		case <-d.ctx.Done():
			return
		case task, ok := <-d.tasks:
			if !ok {
				return
			}
			d.run(task)
		}
	}
}

func (d *Deferrer) run(task DeferredTask) {
	defer func() {
		if r := recover(); r != nil {
			logging.L().Error("deferred task panicked",
				zap.String("task", task.Name),
				zap.String("panic", fmt.Sprint(r)),
			)
		}
	}()

	if err := task.Fn(d.ctx); err != nil {
		logging.L().Warn("deferred task failed", zap.String("task", task.Name), zap.Error(err))
	}
}

// Defer schedules fn. It blocks while the queue is full.
func (d *Deferrer) Defer(name string, fn func(ctx context.Context) error) error {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if !d.started {
		return ErrDeferrerNotStarted
	}
	if d.shutdown {
		return ErrDeferrerClosed
	}

	select {
	case d.tasks <- DeferredTask{Name: name, Fn: fn}:
		return nil
	case <-d.ctx.Done():
		return ErrDeferrerClosed
	}
}

// Shutdown stops accepting tasks and waits for the queued ones to finish.
func (d *Deferrer) Shutdown() {
	d.mu.Lock()
	if !d.started || d.shutdown {
		d.mu.Unlock()
		return
	}
	d.shutdown = true
	close(d.tasks)
	d.mu.Unlock()

	d.wg.Wait()
}

// Stop cancels the worker without draining the queue.
func (d *Deferrer) Stop() {
	// cancel first: a Defer blocked on a full queue holds the read lock
	d.cancel()

	d.mu.Lock()
	d.shutdown = true
	d.mu.Unlock()

	d.wg.Wait()
}
