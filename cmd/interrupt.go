package main

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/charmbracelet/log"
)

// interrupter turns repeated interrupts into two stages: the first closes stop so no new
// conversions start, the second cancels the run context and kills running encoders.
type interrupter struct {
	mu      sync.Mutex
	presses int
	stop    chan struct{}
	cancel  context.CancelFunc
	logger  *log.Logger
}

func newInterrupter(cancel context.CancelFunc, logger *log.Logger) *interrupter {
	return &interrupter{stop: make(chan struct{}), cancel: cancel, logger: logger}
}

// Stop is closed on the first interrupt.
func (i *interrupter) Stop() <-chan struct{} { return i.stop }

// Trigger records one interrupt and returns how many have been seen.
func (i *interrupter) Trigger() int {
	i.mu.Lock()
	defer i.mu.Unlock()

	i.presses++
	switch i.presses {
	case 1:
		i.logger.Warn("received interrupt, finishing running conversions (interrupt again to abort)")
		close(i.stop)
	case 2:
		i.logger.Warn("received second interrupt, stopping running encoders")
		i.cancel()
	}
	return i.presses
}

// Interrupted reports whether any interrupt was seen.
func (i *interrupter) Interrupted() bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.presses > 0
}

// watch forwards SIGINT and SIGTERM to Trigger until the returned function is called.
func (i *interrupter) watch() func() {
	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	done := make(chan struct{})

	go func() {
		for {
			select {
			case <-sigCh:
				i.Trigger()
			case <-done:
				return
			}
		}
	}()

	return func() {
		signal.Stop(sigCh)
		close(done)
	}
}
