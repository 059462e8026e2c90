package playback

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/zjrosen/pitchplay/internal/sound"
)

// ErrCanceled is recorded for cues that were canceled before they played or
// were cut off while playing.
var ErrCanceled = errors.New("cue canceled")

// CueResult is the outcome of one cue.
type CueResult struct {
	Cue Cue
	Err error // nil when the note played
}

// Handle tracks a scheduled sequence. It is settled once every cue has
// played, failed, or been canceled.
type Handle struct {
	ID string

	cues []Cue
	ctx  context.Context
	stop context.CancelFunc
	done chan struct{}

	mu        sync.Mutex
	timers    []Timer
	active    map[int]*sound.Element
	results   []CueResult
	remaining int
	fired     int
	canceled  bool
	settled   bool
	unwatch   func() bool
}

func newHandle(ctx context.Context, cues []Cue) *Handle {
	h := &Handle{
		ID:        uuid.NewString(),
		cues:      cues,
		done:      make(chan struct{}),
		timers:    make([]Timer, len(cues)),
		active:    make(map[int]*sound.Element),
		results:   make([]CueResult, len(cues)),
		remaining: len(cues),
	}
	h.ctx, h.stop = context.WithCancel(ctx)
	for i, c := range cues {
		h.results[i].Cue = c
	}
	if len(cues) == 0 {
		h.settleAllLocked()
	}
	return h
}

// Cues returns the planned cues.
func (h *Handle) Cues() []Cue {
	return append([]Cue(nil), h.cues...)
}

// Done is closed once every cue has settled.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Wait blocks until the handle settles or ctx is done.
func (h *Handle) Wait(ctx context.Context) error {
	select {
	case <-h.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Fired returns how many cue timers have fired.
func (h *Handle) Fired() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.fired
}

// Canceled reports whether Cancel was called (or the play context ended)
// before the handle settled.
func (h *Handle) Canceled() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.canceled
}

// Results returns the per-cue outcomes. Entries for unsettled cues have a
// nil Err; check Done first.
func (h *Handle) Results() []CueResult {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]CueResult(nil), h.results...)
}

// Cancel stops cues that have not fired and closes elements that are still
// playing. It is safe to call more than once and after the handle settled.
func (h *Handle) Cancel() {
	h.abort()
	h.stop()
}

func (h *Handle) abort() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.settled || h.canceled {
		return
	}
	h.canceled = true
	for i, t := range h.timers {
		if t != nil && t.Stop() {
			h.settleLocked(i, ErrCanceled)
		}
	}
	for _, el := range h.active {
		_ = el.Close()
	}
}

// begin marks cue i as fired. It returns false if the handle was canceled.
func (h *Handle) begin(i int, el *sound.Element) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.fired++
	if h.canceled {
		h.settleLocked(i, ErrCanceled)
		return false
	}
	h.active[i] = el
	return true
}

func (h *Handle) finish(i int, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.active, i)
	if h.canceled && errors.Is(err, context.Canceled) {
		err = ErrCanceled
	}
	h.settleLocked(i, err)
}

func (h *Handle) settleLocked(i int, err error) {
	h.results[i].Err = err
	h.timers[i] = nil
	h.remaining--
	if h.remaining == 0 {
		h.settleAllLocked()
	}
}

func (h *Handle) settleAllLocked() {
	if h.settled {
		return
	}
	h.settled = true
	if h.unwatch != nil {
		h.unwatch()
	}
	close(h.done)
	h.stop()
}
