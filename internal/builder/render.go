package builder

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/midi"
	"github.com/gopxl/beep/v2/wav"
)

// DefaultSampleRate matches the 16kHz mono output bank notes are built at.
const DefaultSampleRate = 16000

// Renderer synthesizes a MIDI file into WAV audio written to w.
type Renderer interface {
	Render(ctx context.Context, mid []byte, w io.WriteSeeker) error
}

// SoundFontRenderer renders MIDI with a SoundFont into mono 16-bit WAV.
type SoundFontRenderer struct {
	sf         *midi.SoundFont
	sampleRate beep.SampleRate
}

// LoadSoundFont reads an .sf2 file and returns a renderer for it.
// sampleRate <= 0 selects DefaultSampleRate.
func LoadSoundFont(path string, sampleRate int) (*SoundFontRenderer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening soundfont: %w", err)
	}
	return NewSoundFontRenderer(f, sampleRate)
}

// NewSoundFontRenderer parses a SoundFont from rc, closing it.
func NewSoundFontRenderer(rc io.ReadCloser, sampleRate int) (*SoundFontRenderer, error) {
	sf, err := midi.NewSoundFont(rc)
	if err != nil {
		return nil, fmt.Errorf("parsing soundfont: %w", err)
	}
	if sampleRate <= 0 {
		sampleRate = DefaultSampleRate
	}
	return &SoundFontRenderer{sf: sf, sampleRate: beep.SampleRate(sampleRate)}, nil
}

// Render implements Renderer.
func (r *SoundFontRenderer) Render(ctx context.Context, mid []byte, w io.WriteSeeker) error {
	stream, _, err := midi.Decode(io.NopCloser(bytes.NewReader(mid)), r.sf, r.sampleRate)
	if err != nil {
		return fmt.Errorf("decoding midi: %w", err)
	}
	format := beep.Format{SampleRate: r.sampleRate, NumChannels: 1, Precision: 2}
	if err := wav.Encode(w, interruptible(ctx, stream), format); err != nil {
		return fmt.Errorf("encoding wav: %w", err)
	}
	return ctx.Err()
}

// interruptible ends s early once ctx is done.
func interruptible(ctx context.Context, s beep.Streamer) beep.Streamer {
	return beep.StreamerFunc(func(samples [][2]float64) (int, bool) {
		if ctx.Err() != nil {
			return 0, false
		}
		return s.Stream(samples)
	})
}
