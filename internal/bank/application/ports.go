package application

import (
	"context"

	"github.com/zjrosen/pitchplay/internal/bank/domain"
)

// ProgressFunc receives transfer progress events.
type ProgressFunc func(domain.Progress)

// Fetcher retrieves the raw bytes behind a locator.
// Implementations call onProgress (when non-nil) as data arrives and return
// *domain.FetchError for transport and status failures.
type Fetcher interface {
	Fetch(ctx context.Context, url string, onProgress ProgressFunc) ([]byte, error)
}

// BankReader looks up registered banks.
type BankReader interface {
	Get(id string) (domain.Entry, bool)
}

// BankWriter stores banks. Put overwrites any existing entry for the id.
type BankWriter interface {
	Put(entry domain.Entry)
}

// BankStore combines read and write access to the bank registry.
type BankStore interface {
	BankReader
	BankWriter
}
