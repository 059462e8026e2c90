package sound

import (
	"context"
	"sync"

	"github.com/zjrosen/pitchplay/internal/bank/domain"
	"github.com/zjrosen/pitchplay/internal/log"
)

// NullBackend accepts every candidate without producing sound and records
// what it was asked to play. MIME types listed in Reject fail with
// ErrUnsupportedFormat, which exercises fallback in dry runs and tests.
type NullBackend struct {
	Reject map[string]bool

	mu     sync.Mutex
	played []domain.Candidate
}

// NewNullBackend creates a NullBackend rejecting the given MIME types.
func NewNullBackend(reject ...string) *NullBackend {
	b := &NullBackend{Reject: make(map[string]bool, len(reject))}
	for _, m := range reject {
		b.Reject[m] = true
	}
	return b
}

// Play implements Backend.
func (b *NullBackend) Play(ctx context.Context, c domain.Candidate) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if b.Reject[c.MIME] {
		return ErrUnsupportedFormat
	}
	b.mu.Lock()
	b.played = append(b.played, c)
	b.mu.Unlock()
	log.Debug(log.CatAudio, "Dry-run play", "url", c.URL, "mime", c.MIME)
	return nil
}

// Played returns the candidates played so far.
func (b *NullBackend) Played() []domain.Candidate {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]domain.Candidate(nil), b.played...)
}
