package application

import (
	"context"
	"sync"

	"github.com/zjrosen/pitchplay/internal/bank/domain"
)

// State is the lifecycle state of an asynchronous load.
type State int

const (
	// StatePending indicates the load has not finished.
	StatePending State = iota
	// StateSucceeded indicates the bank was decoded and registered.
	StateSucceeded
	// StateFailed indicates the fetch or decode failed.
	StateFailed
)

// String returns a human-readable representation of the State.
func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Pending is the awaitable result of Loader.Load.
type Pending struct {
	URL    string
	BankID string

	done chan struct{}

	mu    sync.RWMutex
	state State
	bank  *domain.Bank
	err   error
}

func newPending(url, bankID string) *Pending {
	return &Pending{
		URL:    url,
		BankID: bankID,
		done:   make(chan struct{}),
	}
}

// resolve settles the result. Only the first call has any effect.
func (p *Pending) resolve(bank *domain.Bank, err error) {
	p.mu.Lock()
	if p.state != StatePending {
		p.mu.Unlock()
		return
	}
	if err != nil {
		p.state = StateFailed
		p.err = err
	} else {
		p.state = StateSucceeded
		p.bank = bank
	}
	p.mu.Unlock()
	close(p.done)
}

// Done is closed once the load has settled.
func (p *Pending) Done() <-chan struct{} {
	return p.done
}

// State returns the current state.
func (p *Pending) State() State {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.state
}

// Err returns the failure, or nil while pending or after success.
func (p *Pending) Err() error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.err
}

// Bank returns the loaded bank, or nil if the load has not succeeded.
func (p *Pending) Bank() *domain.Bank {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.bank
}

// Wait blocks until the load settles or ctx is done.
func (p *Pending) Wait(ctx context.Context) (*domain.Bank, error) {
	select {
	case <-p.done:
		p.mu.RLock()
		defer p.mu.RUnlock()
		return p.bank, p.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
