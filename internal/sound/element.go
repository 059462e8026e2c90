// Package sound turns bank note sources into playable elements.
//
// An Element offers a note's encodings to a Backend in preference order (OGG,
// then MP3) and plays the first one the backend accepts. Backends exist for
// in-process playback through beep, for OS-native player commands, and a
// recording null backend for dry runs.
package sound

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/zjrosen/pitchplay/internal/bank/domain"
	"github.com/zjrosen/pitchplay/internal/bank/infrastructure"
)

var (
	// ErrNoPlayableSource indicates none of an element's candidates could be played.
	ErrNoPlayableSource = errors.New("no playable source")

	// ErrUnsupportedFormat indicates a backend cannot decode a candidate's encoding.
	ErrUnsupportedFormat = errors.New("unsupported audio format")

	// ErrElementClosed indicates Play was called after Close.
	ErrElementClosed = errors.New("element closed")
)

// Backend plays a single encoded candidate. Play blocks until playback has
// finished or ctx is done.
type Backend interface {
	Play(ctx context.Context, c domain.Candidate) error
}

// Factory builds Elements whose relative URLs resolve against a bank locator.
type Factory struct {
	backend Backend
	baseURL string
}

// NewFactory creates a Factory. baseURL is usually the URL the bank was
// loaded from; it may be empty.
func NewFactory(backend Backend, baseURL string) *Factory {
	return &Factory{backend: backend, baseURL: baseURL}
}

// WithBase returns a Factory sharing the backend but resolving against baseURL.
func (f *Factory) WithBase(baseURL string) *Factory {
	return &Factory{backend: f.backend, baseURL: baseURL}
}

// NewElement builds an element for src. Empty encodings are skipped; a zero
// NoteSource yields an element with no candidates whose Play always fails.
func (f *Factory) NewElement(src domain.NoteSource) *Element {
	cands := src.Candidates()
	for i := range cands {
		cands[i].URL = infrastructure.Resolve(f.baseURL, cands[i].URL)
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Element{
		candidates: cands,
		backend:    f.backend,
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Element is a playable note offering one or more encoded candidates.
type Element struct {
	candidates []domain.Candidate
	backend    Backend

	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	closed bool
}

// Candidates returns the resolved candidates in preference order.
func (e *Element) Candidates() []domain.Candidate {
	return append([]domain.Candidate(nil), e.candidates...)
}

// Play tries each candidate in order and returns after the first one plays.
// If every candidate fails, the returned error wraps ErrNoPlayableSource and
// the individual failures.
func (e *Element) Play(ctx context.Context) error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return ErrElementClosed
	}
	e.mu.Unlock()

	if len(e.candidates) == 0 {
		return ErrNoPlayableSource
	}
	if e.backend == nil {
		return fmt.Errorf("%w: no audio backend", ErrNoPlayableSource)
	}

	ctx, stop := mergeCancel(ctx, e.ctx)
	defer stop()

	var errs []error
	for _, c := range e.candidates {
		err := e.backend.Play(ctx, c)
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		errs = append(errs, fmt.Errorf("%s: %w", c.MIME, err))
	}
	return fmt.Errorf("%w: %w", ErrNoPlayableSource, errors.Join(errs...))
}

// Close stops any playback in progress and prevents further plays.
// It is safe to call more than once.
func (e *Element) Close() error {
	e.mu.Lock()
	e.closed = true
	e.mu.Unlock()
	e.cancel()
	return nil
}

// mergeCancel returns a context derived from ctx that is also canceled when
// other is done.
func mergeCancel(ctx, other context.Context) (context.Context, context.CancelFunc) {
	merged, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(other, cancel)
	return merged, func() {
		stop()
		cancel()
	}
}
