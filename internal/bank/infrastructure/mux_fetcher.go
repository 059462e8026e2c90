package infrastructure

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/zjrosen/pitchplay/internal/bank/application"
	"github.com/zjrosen/pitchplay/internal/bank/domain"
)

// MuxFetcher dispatches to a Fetcher by URL scheme. Locators without a
// scheme are treated as local file paths.
type MuxFetcher struct {
	byScheme map[string]application.Fetcher
}

// NewMuxFetcher wires the standard adapters: http and https go to httpFetcher,
// file and bare paths to FileFetcher, data to DataFetcher.
func NewMuxFetcher(httpFetcher application.Fetcher) *MuxFetcher {
	return &MuxFetcher{byScheme: map[string]application.Fetcher{
		"http":  httpFetcher,
		"https": httpFetcher,
		"file":  FileFetcher{},
		"":      FileFetcher{},
		"data":  DataFetcher{},
	}}
}

// Handle registers fetcher for scheme, replacing any existing adapter.
func (m *MuxFetcher) Handle(scheme string, fetcher application.Fetcher) {
	m.byScheme[strings.ToLower(scheme)] = fetcher
}

// Fetch implements application.Fetcher.
func (m *MuxFetcher) Fetch(ctx context.Context, locator string, onProgress application.ProgressFunc) ([]byte, error) {
	scheme := Scheme(locator)
	f, ok := m.byScheme[scheme]
	if !ok || f == nil {
		return nil, &domain.FetchError{
			URL: truncateForError(locator),
			Err: fmt.Errorf("%w: %q", domain.ErrUnsupportedScheme, scheme),
		}
	}
	return f.Fetch(ctx, locator, onProgress)
}

// Scheme returns the lower-cased scheme of locator, or "" for plain paths.
// Single-letter schemes are treated as Windows drive letters.
func Scheme(locator string) string {
	if strings.HasPrefix(locator, "data:") {
		return "data"
	}
	u, err := url.Parse(locator)
	if err != nil || len(u.Scheme) <= 1 {
		return ""
	}
	return strings.ToLower(u.Scheme)
}
