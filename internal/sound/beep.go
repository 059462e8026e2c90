package sound

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/speaker"
	"github.com/gopxl/beep/v2/vorbis"

	"github.com/zjrosen/pitchplay/internal/bank/application"
	"github.com/zjrosen/pitchplay/internal/bank/domain"
	"github.com/zjrosen/pitchplay/internal/log"
)

const (
	defaultSampleRate = beep.SampleRate(44100)
	speakerBuffer     = 100 * time.Millisecond
	resampleQuality   = 4
)

// BeepBackend decodes OGG Vorbis and MP3 in-process and plays through the
// system speaker. The speaker is initialized on first use.
type BeepBackend struct {
	fetcher    application.Fetcher
	sampleRate beep.SampleRate

	initOnce sync.Once
	initErr  error
}

// NewBeepBackend creates a BeepBackend that reads candidate bytes through
// fetcher. A sampleRate of zero selects 44100 Hz.
func NewBeepBackend(fetcher application.Fetcher, sampleRate int) *BeepBackend {
	sr := beep.SampleRate(sampleRate)
	if sr <= 0 {
		sr = defaultSampleRate
	}
	return &BeepBackend{fetcher: fetcher, sampleRate: sr}
}

func (b *BeepBackend) initSpeaker() error {
	b.initOnce.Do(func() {
		b.initErr = speaker.Init(b.sampleRate, b.sampleRate.N(speakerBuffer))
		if b.initErr != nil {
			log.ErrorErr(log.CatAudio, "Failed to initialize speaker", b.initErr, "sample_rate", int(b.sampleRate))
		} else {
			log.Debug(log.CatAudio, "Speaker initialized", "sample_rate", int(b.sampleRate))
		}
	})
	return b.initErr
}

// Play implements Backend.
func (b *BeepBackend) Play(ctx context.Context, c domain.Candidate) error {
	data, err := b.fetcher.Fetch(ctx, c.URL, nil)
	if err != nil {
		return err
	}

	stream, format, err := Decode(c.MIME, data)
	if err != nil {
		return err
	}
	defer stream.Close()

	if err := b.initSpeaker(); err != nil {
		return fmt.Errorf("speaker: %w", err)
	}

	var s beep.Streamer = stream
	if format.SampleRate != b.sampleRate {
		s = beep.Resample(resampleQuality, format.SampleRate, b.sampleRate, stream)
	}

	done := make(chan struct{})
	ctrl := &beep.Ctrl{Streamer: beep.Seq(s, beep.Callback(func() { close(done) }))}
	speaker.Play(ctrl)
	log.Debug(log.CatAudio, "Playing", "url", c.URL, "mime", c.MIME)

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		speaker.Lock()
		ctrl.Streamer = nil
		speaker.Unlock()
		return ctx.Err()
	}
}

// Decode decodes an encoded payload. The payload's magic bytes take
// precedence over the declared MIME type.
func Decode(mime string, data []byte) (beep.StreamSeekCloser, beep.Format, error) {
	rc := io.NopCloser(bytes.NewReader(data))
	switch sniff(mime, data) {
	case domain.MIMEOgg:
		return vorbis.Decode(rc)
	case domain.MIMEMP3:
		return mp3.Decode(rc)
	default:
		return nil, beep.Format{}, fmt.Errorf("%w: %s", ErrUnsupportedFormat, mime)
	}
}

func sniff(mime string, data []byte) string {
	switch {
	case bytes.HasPrefix(data, []byte("OggS")):
		return domain.MIMEOgg
	case bytes.HasPrefix(data, []byte("ID3")),
		len(data) > 1 && data[0] == 0xFF && data[1]&0xE0 == 0xE0:
		return domain.MIMEMP3
	case mime == domain.MIMEOgg || mime == domain.MIMEMP3:
		return mime
	case mime == "audio/mpeg":
		return domain.MIMEMP3
	default:
		return ""
	}
}
