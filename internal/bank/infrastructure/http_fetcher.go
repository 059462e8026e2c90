package infrastructure

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/zjrosen/pitchplay/internal/bank/application"
	"github.com/zjrosen/pitchplay/internal/bank/domain"
	"github.com/zjrosen/pitchplay/internal/log"
)

// progressChunk is the read size between progress events.
const progressChunk = 32 * 1024

// HTTPClientConfig configures NewHTTPClient.
type HTTPClientConfig struct {
	// Timeout bounds a whole request. Zero means no timeout.
	Timeout time.Duration
}

// NewHTTPClient builds the shared client used for bank and audio fetches.
func NewHTTPClient(cfg HTTPClientConfig) *http.Client {
	return &http.Client{
		Timeout: cfg.Timeout,
		Transport: &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
		},
	}
}

// HTTPFetcher fetches http and https URLs with a GET request.
type HTTPFetcher struct {
	client    *http.Client
	userAgent string
}

// NewHTTPFetcher creates an HTTPFetcher. A nil client uses http.DefaultClient.
func NewHTTPFetcher(client *http.Client, userAgent string) *HTTPFetcher {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPFetcher{client: client, userAgent: userAgent}
}

// Fetch implements application.Fetcher. Non-2xx responses are reported as
// *domain.FetchError carrying the status code.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string, onProgress application.ProgressFunc) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &domain.FetchError{URL: url, Err: err}
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}

	log.Debug(log.CatFetch, "Making HTTP request", "method", req.Method, "url", url)
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &domain.FetchError{URL: url, Err: err}
	}
	defer resp.Body.Close()
	log.Debug(log.CatFetch, "Received HTTP response", "url", url, "status", resp.Status)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, &domain.FetchError{
			URL:        url,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("unexpected status %s", resp.Status),
		}
	}

	data, err := readWithProgress(resp.Body, resp.ContentLength, onProgress)
	if err != nil {
		return nil, &domain.FetchError{URL: url, Err: err}
	}
	return data, nil
}

// readWithProgress drains r, emitting a progress event after every chunk.
// total is the expected length, or -1 when unknown.
func readWithProgress(r io.Reader, total int64, onProgress application.ProgressFunc) ([]byte, error) {
	if onProgress == nil {
		return io.ReadAll(r)
	}

	var buf bytes.Buffer
	if total > 0 {
		buf.Grow(int(total))
	}
	computable := total >= 0
	if !computable {
		total = 0
	}

	chunk := make([]byte, progressChunk)
	for {
		n, err := r.Read(chunk)
		if n > 0 {
			buf.Write(chunk[:n])
			onProgress(domain.Progress{
				Loaded:           int64(buf.Len()),
				Total:            total,
				LengthComputable: computable,
			})
		}
		if err == io.EOF {
			return buf.Bytes(), nil
		}
		if err != nil {
			return nil, err
		}
	}
}
