package infrastructure

import (
	"context"
	"encoding/base64"
	"errors"
	"net/url"
	"strings"

	"github.com/zjrosen/pitchplay/internal/bank/application"
	"github.com/zjrosen/pitchplay/internal/bank/domain"
)

var errMalformedDataURI = errors.New("malformed data uri")

// DataFetcher decodes RFC 2397 data: URIs. Banks built by embedding audio
// payloads reference their notes this way.
type DataFetcher struct{}

// Fetch implements application.Fetcher. A single progress event is emitted.
func (DataFetcher) Fetch(ctx context.Context, locator string, onProgress application.ProgressFunc) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, _, err := ParseDataURI(locator)
	if err != nil {
		return nil, &domain.FetchError{URL: truncateForError(locator), Err: err}
	}
	if onProgress != nil {
		n := int64(len(data))
		onProgress(domain.Progress{Loaded: n, Total: n, LengthComputable: true})
	}
	return data, nil
}

// ParseDataURI returns the payload and media type of a data: URI.
func ParseDataURI(uri string) ([]byte, string, error) {
	rest, ok := strings.CutPrefix(uri, "data:")
	if !ok {
		return nil, "", errMalformedDataURI
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return nil, "", errMalformedDataURI
	}

	mediaType, isBase64 := strings.CutSuffix(meta, ";base64")
	if mediaType == "" {
		mediaType = "text/plain;charset=US-ASCII"
	}

	if isBase64 {
		data, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			return nil, "", err
		}
		return data, mediaType, nil
	}

	unescaped, err := url.PathUnescape(payload)
	if err != nil {
		return nil, "", err
	}
	return []byte(unescaped), mediaType, nil
}

// EncodeDataURI returns a base64 data: URI carrying data as mediaType.
func EncodeDataURI(mediaType string, data []byte) string {
	return "data:" + mediaType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// truncateForError keeps data URIs from flooding error messages.
func truncateForError(s string) string {
	const limit = 64
	if len(s) <= limit {
		return s
	}
	return s[:limit] + "..."
}
