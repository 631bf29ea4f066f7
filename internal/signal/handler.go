// Package signal turns SIGINT and SIGTERM into context cancellation for a
// goalsync run. The batch driver checks the context between tasks, so an
// interrupt stops the run after the in-flight task has been recorded.
//
// Import rules:
//   - CAN import: internal/errors, std lib
//   - MUST NOT import: other internal packages
package signal

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"

	gserrors "github.com/mrz1836/goalsync/internal/errors"
)

// Handler cancels its context with errors.ErrRunInterrupted as the cause when
// the process receives SIGINT or SIGTERM.
type Handler struct {
	ctx      context.Context //nolint:containedctx // handler owns the run context lifecycle
	cancel   context.CancelCauseFunc
	sigChan  chan os.Signal
	done     chan struct{}
	fired    chan struct{}
	once     sync.Once
	stopOnce sync.Once

	mu       sync.Mutex
	received os.Signal
}

// NewHandler starts listening for interrupt signals.
//
//	h := signal.NewHandler(ctx)
//	defer h.Stop()
//	summary, err := driver.Run(h.Context(), tasks)
func NewHandler(parent context.Context) *Handler {
	ctx, cancel := context.WithCancelCause(parent)
	h := &Handler{
		ctx:     ctx,
		cancel:  cancel,
		sigChan: make(chan os.Signal, 1),
		done:    make(chan struct{}),
		fired:   make(chan struct{}),
	}

	signal.Notify(h.sigChan, syscall.SIGINT, syscall.SIGTERM)
	go h.listen()

	return h
}

// Context returns the context canceled on interrupt.
func (h *Handler) Context() context.Context {
	return h.ctx
}

// Interrupted returns a channel closed once a signal has been received.
func (h *Handler) Interrupted() <-chan struct{} {
	return h.fired
}

// Signal returns the signal that interrupted the run, or nil.
func (h *Handler) Signal() os.Signal {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.received
}

// Stop stops listening and releases the context.
func (h *Handler) Stop() {
	h.stopOnce.Do(func() {
		signal.Stop(h.sigChan)
		close(h.done)
		h.cancel(context.Canceled)
	})
}

func (h *Handler) handleSignal(sig os.Signal) {
	h.once.Do(func() {
		h.mu.Lock()
		h.received = sig
		h.mu.Unlock()
		h.cancel(gserrors.ErrRunInterrupted)
		close(h.fired)
	})
}

// listen only acts on the first signal; later ones are drained so delivery never blocks.
func (h *Handler) listen() {
	for {
		select {
		case <-h.ctx.Done():
			return
		case <-h.done:
			return
		case sig := <-h.sigChan:
			h.handleSignal(sig)
		}
	}
}
