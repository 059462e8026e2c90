// Package builder renders sound banks from a SoundFont.
//
// Each note is written as a one-note MIDI file, synthesized to WAV, then
// compressed to OGG and MP3. The encoded audio is embedded in the bank as
// base64 data: URIs so the resulting JSON is self-contained.
package builder

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/zjrosen/pitchplay/internal/bank/domain"
	"github.com/zjrosen/pitchplay/internal/bank/infrastructure"
	"github.com/zjrosen/pitchplay/internal/log"
)

const tracerName = "github.com/zjrosen/pitchplay/internal/builder"

// Request selects the notes to build.
type Request struct {
	Programs []uint8
	PitchMin uint8
	PitchMax uint8
	Velocity uint8
	Duration uint8

	// NoteNames keys banks by scientific pitch name ("C4") instead of the
	// MIDI key number ("60").
	NoteNames bool
	// OnNote is called after each note is built.
	OnNote func(n Note, key string)
}

// Validate checks the request ranges.
func (r Request) Validate() error {
	if len(r.Programs) == 0 {
		return errors.New("at least one program is required")
	}
	if r.PitchMin > r.PitchMax {
		return fmt.Errorf("pitch range %d-%d is empty", r.PitchMin, r.PitchMax)
	}
	for _, p := range r.Programs {
		n := Note{Program: p, Pitch: r.PitchMax, Velocity: r.Velocity, Duration: r.Duration}
		if err := n.validate(); err != nil {
			return err
		}
	}
	return nil
}

// Size returns the number of notes the request builds.
func (r Request) Size() int {
	if r.PitchMin > r.PitchMax {
		return 0
	}
	return len(r.Programs) * (int(r.PitchMax) - int(r.PitchMin) + 1)
}

func (r Request) key(pitch uint8) string {
	if r.NoteNames {
		return NoteName(pitch)
	}
	return strconv.Itoa(int(pitch))
}

// Library holds one bank per program, keyed by the decimal program number.
// It marshals to {"<program>": {"<note>": {"ogg": ..., "mp3": ...}}}.
type Library map[string]*domain.Bank

// Programs returns the library keys in request order, without repeats.
func (l Library) Programs(req Request) []string {
	out := make([]string, 0, len(req.Programs))
	seen := make(map[string]bool, len(req.Programs))
	for _, p := range req.Programs {
		key := strconv.Itoa(int(p))
		if _, ok := l[key]; ok && !seen[key] {
			seen[key] = true
			out = append(out, key)
		}
	}
	return out
}

// DecodeLibrary parses the nested per-program form written by Library.
func DecodeLibrary(data []byte) (Library, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, &domain.DecodeError{Err: err}
	}
	lib := make(Library, len(raw))
	for program, payload := range raw {
		b, err := domain.DecodeBank(payload)
		if err != nil {
			return nil, fmt.Errorf("program %s: %w", program, err)
		}
		lib[program] = b
	}
	return lib, nil
}

// Builder renders and encodes notes.
type Builder struct {
	renderer Renderer
	encoder  Encoder
	tracer   trace.Tracer
}

// New creates a Builder.
func New(renderer Renderer, encoder Encoder) *Builder {
	return &Builder{
		renderer: renderer,
		encoder:  encoder,
		tracer:   otel.Tracer(tracerName),
	}
}

// Build renders every program and pitch in req. Notes are built one at a
// time through a scratch directory removed on return.
func (b *Builder) Build(ctx context.Context, req Request) (Library, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	dir, err := os.MkdirTemp("", "pitchplay-build-*")
	if err != nil {
		return nil, fmt.Errorf("creating scratch dir: %w", err)
	}
	defer os.RemoveAll(dir)

	log.Info(log.CatBuild, "Building banks",
		"programs", len(req.Programs),
		"pitches", fmt.Sprintf("%d-%d", req.PitchMin, req.PitchMax),
		"notes", req.Size())

	lib := make(Library, len(req.Programs))
	for _, program := range req.Programs {
		notes := make(map[string]domain.NoteSource, int(req.PitchMax)-int(req.PitchMin)+1)
		for pitch := int(req.PitchMin); pitch <= int(req.PitchMax); pitch++ {
			n := Note{Program: program, Pitch: uint8(pitch), Velocity: req.Velocity, Duration: req.Duration}
			src, err := b.BuildNote(ctx, dir, n)
			if err != nil {
				return nil, fmt.Errorf("program %d pitch %d: %w", program, pitch, err)
			}
			key := req.key(n.Pitch)
			notes[key] = src
			if req.OnNote != nil {
				req.OnNote(n, key)
			}
		}
		lib[strconv.Itoa(int(program))] = domain.NewBank(notes)
	}
	return lib, nil
}

// BuildNote renders n inside dir and returns its embedded sources.
func (b *Builder) BuildNote(ctx context.Context, dir string, n Note) (domain.NoteSource, error) {
	ctx, span := b.tracer.Start(ctx, "builder.note", trace.WithAttributes(
		attribute.Int("note.program", int(n.Program)),
		attribute.Int("note.pitch", int(n.Pitch)),
	))
	defer span.End()

	src, err := b.buildNote(ctx, dir, n)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return domain.NoteSource{}, err
	}
	return src, nil
}

func (b *Builder) buildNote(ctx context.Context, dir string, n Note) (domain.NoteSource, error) {
	if err := ctx.Err(); err != nil {
		return domain.NoteSource{}, err
	}
	mid, err := NoteMIDI(n)
	if err != nil {
		return domain.NoteSource{}, err
	}

	wavPath := filepath.Join(dir, "note.wav")
	f, err := os.Create(wavPath)
	if err != nil {
		return domain.NoteSource{}, fmt.Errorf("creating wav: %w", err)
	}
	err = b.renderer.Render(ctx, mid, f)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return domain.NoteSource{}, fmt.Errorf("rendering: %w", err)
	}
	defer os.Remove(wavPath)

	ogg, err := b.encoder.Encode(ctx, wavPath, domain.MIMEOgg)
	if err != nil {
		return domain.NoteSource{}, fmt.Errorf("encoding ogg: %w", err)
	}
	mp3, err := b.encoder.Encode(ctx, wavPath, domain.MIMEMP3)
	if err != nil {
		return domain.NoteSource{}, fmt.Errorf("encoding mp3: %w", err)
	}

	log.Debug(log.CatBuild, "Built note", "program", n.Program, "pitch", n.Pitch, "ogg_bytes", len(ogg), "mp3_bytes", len(mp3))
	return domain.NoteSource{
		OGG: infrastructure.EncodeDataURI(domain.MIMEOgg, ogg),
		MP3: infrastructure.EncodeDataURI(domain.MIMEMP3, mp3),
	}, nil
}
