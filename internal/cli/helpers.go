package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"strings"
	"sync"
	"syscall"

	"github.com/aretw0/sinew/internal/logging"
	"github.com/aretw0/sinew/pkg/domain"
)

// SignalContext wraps a context and captures the signal that cancelled it.
type SignalContext struct {
	context.Context
	Cancel func()
	once   sync.Once
	sigCh  chan os.Signal
	sigVal os.Signal
	mu     sync.Mutex
}

// NewSignalContext creates a context that is cancelled on SIGINT or SIGTERM.
// It acts as a drop-in replacement for signal.NotifyContext but allows retrieving the signal.
func NewSignalContext(parent context.Context) *SignalContext {
	ctx, cancel := context.WithCancel(parent)
	sc := &SignalContext{
		Context: ctx,
		Cancel:  cancel,
		sigCh:   make(chan os.Signal, 1),
	}
	signal.Notify(sc.sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-sc.sigCh:
			sc.mu.Lock()
			sc.sigVal = sig
			sc.mu.Unlock()
			sc.Cancel()
		case <-sc.Done():
		}
		sc.once.Do(func() { signal.Stop(sc.sigCh) })
	}()
	return sc
}

// Signal returns the signal that caused the context to be cancelled, or nil.
func (sc *SignalContext) Signal() os.Signal {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return sc.sigVal
}

// NewLogger builds the command logger. Logs go to w so stdout stays free for
// frame output. An empty level means quiet unless debug is set.
func NewLogger(w io.Writer, level, format string, debug bool) (*slog.Logger, error) {
	if debug {
		level = "debug"
	}
	if level == "" {
		return logging.NewNop(), nil
	}
	lvl, err := logging.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	return logging.NewWith(w, lvl, format)
}

// schedule maps a zero-based frame index to the events fired on it.
type schedule map[int]domain.EventQueue

// parseEvents reads FRAME:NAME pairs, e.g. "10:jump".
func parseEvents(specs []string) (schedule, error) {
	out := make(schedule)
	for _, spec := range specs {
		frame, name, ok := strings.Cut(spec, ":")
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid event %q: want FRAME:NAME", spec)
		}
		n, err := strconv.Atoi(frame)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("invalid event %q: frame must be a non-negative integer", spec)
		}
		out[n] = append(out[n], domain.Named(name))
	}
	return out, nil
}

func (s schedule) at(frame int) domain.EventQueue {
	if q, ok := s[frame]; ok {
		return q
	}
	return domain.EventQueue{}
}

func (s schedule) last() int {
	frames := make([]int, 0, len(s))
	for f := range s {
		frames = append(frames, f)
	}
	if len(frames) == 0 {
		return -1
	}
	sort.Ints(frames)
	return frames[len(frames)-1]
}
