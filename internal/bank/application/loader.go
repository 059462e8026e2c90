package application

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/zjrosen/pitchplay/internal/bank/domain"
	"github.com/zjrosen/pitchplay/internal/log"
)

const tracerName = "github.com/zjrosen/pitchplay/internal/bank"

// LoadOption configures a single Load call.
type LoadOption func(*loadOptions)

type loadOptions struct {
	onSuccess  func()
	onError    func(error)
	onProgress ProgressFunc
}

// OnSuccess is invoked after the bank has been stored in the registry.
func OnSuccess(fn func()) LoadOption {
	return func(o *loadOptions) { o.onSuccess = fn }
}

// OnError is invoked exactly once if the fetch or the decode fails.
func OnError(fn func(error)) LoadOption {
	return func(o *loadOptions) { o.onError = fn }
}

// OnProgress receives the fetcher's progress events unchanged.
func OnProgress(fn ProgressFunc) LoadOption {
	return func(o *loadOptions) { o.onProgress = fn }
}

// Loader fetches bank payloads and registers them.
type Loader struct {
	fetcher Fetcher
	store   BankWriter
	tracer  trace.Tracer
	now     func() time.Time
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithTracer sets the tracer used for load spans.
func WithTracer(t trace.Tracer) LoaderOption {
	return func(l *Loader) { l.tracer = t }
}

// WithNow overrides the clock used to stamp registry entries.
func WithNow(now func() time.Time) LoaderOption {
	return func(l *Loader) { l.now = now }
}

// NewLoader creates a Loader that fetches with fetcher and stores into store.
func NewLoader(fetcher Fetcher, store BankWriter, opts ...LoaderOption) *Loader {
	l := &Loader{
		fetcher: fetcher,
		store:   store,
		tracer:  otel.Tracer(tracerName),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load starts fetching url in the background and returns immediately.
// On success the decoded bank replaces whatever is registered under bankID.
// Concurrent loads are not de-duplicated; the last one to finish wins.
func (l *Loader) Load(ctx context.Context, url, bankID string, opts ...LoadOption) *Pending {
	var o loadOptions
	for _, opt := range opts {
		opt(&o)
	}

	p := newPending(url, bankID)
	go l.run(ctx, p, o)
	return p
}

// LoadSync loads url into bankID and blocks until it settles.
func (l *Loader) LoadSync(ctx context.Context, url, bankID string) (*domain.Bank, error) {
	return l.Load(ctx, url, bankID).Wait(ctx)
}

func (l *Loader) run(ctx context.Context, p *Pending, o loadOptions) {
	ctx, span := l.tracer.Start(ctx, "bank.load", trace.WithAttributes(
		attribute.String("bank.id", p.BankID),
		attribute.String("bank.url", p.URL),
	))
	defer span.End()

	bank, err := l.fetchAndDecode(ctx, p, o.onProgress)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logLoadFailure(p, err)
		if o.onError != nil {
			o.onError(err)
		}
		p.resolve(nil, err)
		return
	}

	l.store.Put(domain.Entry{
		ID:       p.BankID,
		URL:      p.URL,
		Bank:     bank,
		LoadedAt: l.now(),
	})
	span.SetAttributes(attribute.Int("bank.notes", bank.Len()))
	log.Debug(log.CatBank, "Bank registered", "id", p.BankID, "url", p.URL, "notes", bank.Len())
	if bank.Len() > 0 && bank.Playable() == 0 {
		log.Warn(log.CatBank, "Bank has no playable sources; per-program libraries must be split into one bank per program",
			"id", p.BankID, "url", p.URL, "notes", bank.Len())
	}

	if o.onSuccess != nil {
		o.onSuccess()
	}
	p.resolve(bank, nil)
}

func (l *Loader) fetchAndDecode(ctx context.Context, p *Pending, onProgress ProgressFunc) (*domain.Bank, error) {
	if p.BankID == "" {
		return nil, domain.ErrEmptyBankID
	}

	log.Debug(log.CatBank, "Loading bank", "id", p.BankID, "url", p.URL)
	data, err := l.fetcher.Fetch(ctx, p.URL, onProgress)
	if err != nil {
		return nil, err
	}

	bank, err := domain.DecodeBank(data)
	if err != nil {
		var decodeErr *domain.DecodeError
		if errors.As(err, &decodeErr) {
			decodeErr.URL = p.URL
		}
		return nil, err
	}
	return bank, nil
}

func logLoadFailure(p *Pending, err error) {
	var decodeErr *domain.DecodeError
	switch {
	case errors.Is(err, context.Canceled):
		log.Debug(log.CatBank, "Bank load canceled", "id", p.BankID, "url", p.URL)
	case errors.As(err, &decodeErr):
		log.Warn(log.CatBank, "Bank payload is not valid JSON", "id", p.BankID, "url", p.URL, "error", err)
	default:
		log.Warn(log.CatBank, "Bank fetch failed", "id", p.BankID, "url", p.URL, "error", err)
	}
}
