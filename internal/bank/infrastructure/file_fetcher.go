package infrastructure

import (
	"context"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/zjrosen/pitchplay/internal/bank/application"
	"github.com/zjrosen/pitchplay/internal/bank/domain"
)

// FileFetcher reads plain filesystem paths and file:// URLs.
type FileFetcher struct{}

// Fetch implements application.Fetcher.
func (FileFetcher) Fetch(ctx context.Context, locator string, onProgress application.ProgressFunc) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path, err := LocalPath(locator)
	if err != nil {
		return nil, &domain.FetchError{URL: locator, Err: err}
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, &domain.FetchError{URL: locator, Err: err}
	}
	defer f.Close()

	total := int64(-1)
	if info, err := f.Stat(); err == nil {
		total = info.Size()
	}

	data, err := readWithProgress(f, total, onProgress)
	if err != nil {
		return nil, &domain.FetchError{URL: locator, Err: err}
	}
	return data, nil
}

// LocalPath converts a file:// URL or plain path to a cleaned filesystem path.
func LocalPath(locator string) (string, error) {
	if !strings.HasPrefix(locator, "file:") {
		return filepath.Clean(locator), nil
	}
	u, err := url.Parse(locator)
	if err != nil {
		return "", err
	}
	path := u.Path
	if path == "" {
		path = u.Opaque
	}
	return filepath.FromSlash(path), nil
}
