package playback

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/zjrosen/pitchplay/internal/bank/application"
	"github.com/zjrosen/pitchplay/internal/bank/domain"
	"github.com/zjrosen/pitchplay/internal/log"
	"github.com/zjrosen/pitchplay/internal/sound"
)

const tracerName = "github.com/zjrosen/pitchplay/internal/playback"

// Player schedules note sequences.
type Player struct {
	factory *sound.Factory
	banks   application.BankReader
	clock   Clock
	tracer  trace.Tracer
}

// PlayerOption configures a Player.
type PlayerOption func(*Player)

// WithClock replaces the wall clock, mainly for tests.
func WithClock(c Clock) PlayerOption {
	return func(p *Player) { p.clock = c }
}

// WithTracer sets the tracer used for playback spans.
func WithTracer(t trace.Tracer) PlayerOption {
	return func(p *Player) { p.tracer = t }
}

// NewPlayer creates a Player building elements with factory. banks may be
// nil if PlayBank is never used.
func NewPlayer(factory *sound.Factory, banks application.BankReader, opts ...PlayerOption) *Player {
	p := &Player{
		factory: factory,
		banks:   banks,
		clock:   realClock{},
		tracer:  otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Play schedules notes from bank and returns immediately. Note i starts at
// the sum of offsets[0..i-1] after the call. Notes missing from the bank
// produce an element with no sources; the failure is logged and recorded in
// the handle's results but not returned. Canceling ctx cancels the handle.
func (p *Player) Play(ctx context.Context, bank *domain.Bank, notes []string, offsets []time.Duration) *Handle {
	return p.schedule(ctx, bank, p.factory, notes, offsets)
}

// PlayBank looks id up in the registry and plays notes from it. Relative
// note URLs resolve against the locator the bank was loaded from.
func (p *Player) PlayBank(ctx context.Context, id string, notes []string, offsets []time.Duration) (*Handle, error) {
	if p.banks == nil {
		return nil, fmt.Errorf("%w: %q", domain.ErrBankNotFound, id)
	}
	entry, ok := p.banks.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrBankNotFound, id)
	}
	return p.schedule(ctx, entry.Bank, p.factory.WithBase(entry.URL), notes, offsets), nil
}

func (p *Player) schedule(ctx context.Context, bank *domain.Bank, factory *sound.Factory, notes []string, offsets []time.Duration) *Handle {
	cues := Plan(notes, offsets)

	ctx, span := p.tracer.Start(ctx, "playback.play", trace.WithAttributes(
		attribute.Int("playback.notes", len(notes)),
		attribute.Int("playback.offsets", len(offsets)),
	))
	defer span.End()

	h := newHandle(ctx, cues)
	span.SetAttributes(attribute.String("playback.handle", h.ID))
	if len(cues) == 0 {
		return h
	}

	h.mu.Lock()
	h.unwatch = context.AfterFunc(h.ctx, h.abort)
	for i, c := range cues {
		i, c := i, c
		h.timers[i] = p.clock.AfterFunc(c.At, func() {
			p.fire(h, bank, factory, i, c)
		})
	}
	h.mu.Unlock()

	log.Debug(log.CatPlayback, "Scheduled sequence",
		"handle", h.ID,
		"notes", len(cues),
		"duration", cues[len(cues)-1].At)
	return h
}

func (p *Player) fire(h *Handle, bank *domain.Bank, factory *sound.Factory, i int, c Cue) {
	ctx, span := p.tracer.Start(h.ctx, "playback.cue", trace.WithAttributes(
		attribute.Int("cue.index", c.Index),
		attribute.String("cue.note", c.Note),
		attribute.Int64("cue.at_ms", c.At.Milliseconds()),
	))
	defer span.End()

	src, ok := bank.Source(c.Note)
	if !ok {
		log.Warn(log.CatPlayback, "Note not in bank", "handle", h.ID, "note", c.Note, "index", c.Index)
	}
	el := factory.NewElement(src)
	if !h.begin(i, el) {
		_ = el.Close()
		return
	}

	err := el.Play(ctx)
	_ = el.Close()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		log.Warn(log.CatPlayback, "Note did not play", "handle", h.ID, "note", c.Note, "index", c.Index, "error", err)
	}
	h.finish(i, err)
}
