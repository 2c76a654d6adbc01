// Package runloop provides the single logical thread the application state
// lives on. It wraps a goja_nodejs event loop: commands are posted to it and
// periodic work is registered as loop intervals, so state is only ever
// touched from one goroutine.
package runloop

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dop251/goja"
	"github.com/dop251/goja_nodejs/eventloop"
)

// ErrStopped is returned when work is submitted to a closed loop.
var ErrStopped = errors.New("run loop not running")

// DefaultTimeout bounds how long Do waits for the loop.
const DefaultTimeout = 5 * time.Second

// Loop serializes all work onto one event loop goroutine.
//
//	l, err := runloop.New(ctx)
//	if err != nil { ... }
//	defer l.Close()
//	err = l.Do(func() error { return controller.ConfirmStart(25) })
type Loop struct {
	loop *eventloop.EventLoop

	// loopID is the goroutine ID of the event loop, captured at startup.
	loopID atomic.Int64

	mu      sync.RWMutex
	stopped bool
	timeout time.Duration

	ctx    context.Context
	cancel context.CancelFunc
}

// New starts a loop. It is closed when ctx is cancelled or Close is called.
func New(ctx context.Context) (*Loop, error) {
	loop := eventloop.NewEventLoop(eventloop.EnableConsole(false))
	childCtx, cancel := context.WithCancel(context.Background())
	l := &Loop{
		loop:    loop,
		timeout: DefaultTimeout,
		ctx:     childCtx,
		cancel:  cancel,
	}

	loop.Start()

	ready := make(chan struct{})
	if !loop.RunOnLoop(func(*goja.Runtime) {
		l.loopID.Store(goid())
		close(ready)
	}) {
		cancel()
		return nil, fmt.Errorf("starting run loop: %w", ErrStopped)
	}
	<-ready

	if ctx.Done() != nil {
		context.AfterFunc(ctx, func() { _ = l.Close() })
	}
	return l, nil
}

// Close stops the loop. Queued work that has not started is dropped. It is
// safe to call more than once.
func (l *Loop) Close() error {
	l.mu.Lock()
	if l.stopped {
		l.mu.Unlock()
		return nil
	}
	l.stopped = true
	l.mu.Unlock()

	l.cancel()
	if l.onLoop() {
		// Stop waits for the running job, which is us.
		go l.loop.Stop()
		return nil
	}
	l.loop.Stop()
	return nil
}

// Done is closed once the loop has been closed.
func (l *Loop) Done() <-chan struct{} { return l.ctx.Done() }

// Running reports whether the loop accepts work.
func (l *Loop) Running() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return !l.stopped
}

// SetTimeout sets how long Do waits. Zero waits forever.
func (l *Loop) SetTimeout(d time.Duration) {
	l.mu.Lock()
	l.timeout = d
	l.mu.Unlock()
}

// Do runs fn on the loop and waits for its result. Called from the loop
// goroutine itself, fn runs inline.
func (l *Loop) Do(fn func() error) error {
	l.mu.RLock()
	stopped, timeout := l.stopped, l.timeout
	l.mu.RUnlock()
	if stopped {
		return ErrStopped
	}
	if l.onLoop() {
		return fn()
	}

	errCh := make(chan error, 1)
	if !l.loop.RunOnLoop(func(*goja.Runtime) { errCh <- fn() }) {
		return ErrStopped
	}

	var expired <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		expired = timer.C
	}
	select {
	case err := <-errCh:
		return err
	case <-l.Done():
		return fmt.Errorf("run loop closed before completion: %w", ErrStopped)
	case <-expired:
		return fmt.Errorf("run loop did not respond within %v", timeout)
	}
}

// Every runs fn on the loop every interval until the returned func is
// called. Once cancel returns, fn is not called again, even if a tick was
// already queued.
func (l *Loop) Every(interval time.Duration, fn func()) (cancel func()) {
	if interval <= 0 || fn == nil || !l.Running() {
		return func() {}
	}
	var cancelled atomic.Bool
	iv := l.loop.SetInterval(func(*goja.Runtime) {
		if !cancelled.Load() {
			fn()
		}
	}, interval)
	var once sync.Once
	return func() {
		once.Do(func() {
			cancelled.Store(true)
			l.loop.ClearInterval(iv)
		})
	}
}

func (l *Loop) onLoop() bool {
	id := l.loopID.Load()
	return id > 0 && id == goid()
}
