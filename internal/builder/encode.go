package builder

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/zjrosen/pitchplay/internal/bank/domain"
	"github.com/zjrosen/pitchplay/internal/log"
)

// ErrEncoderMissing indicates an encoder command is not installed.
var ErrEncoderMissing = errors.New("encoder command not found")

// Encoder compresses a WAV file into the given MIME type.
type Encoder interface {
	Encode(ctx context.Context, wavPath, mime string) ([]byte, error)
}

// CommandEncoder shells out to oggenc and lame.
type CommandEncoder struct {
	OggEnc   string
	Lame     string
	lookPath func(string) (string, error)
}

// NewCommandEncoder returns an encoder using oggenc and lame from PATH.
func NewCommandEncoder() *CommandEncoder {
	return &CommandEncoder{OggEnc: "oggenc", Lame: "lame", lookPath: exec.LookPath}
}

// Check reports the first encoder command that cannot be found.
func (e *CommandEncoder) Check() error {
	for _, name := range []string{e.OggEnc, e.Lame} {
		if _, err := e.lookPath(name); err != nil {
			return fmt.Errorf("%w: %s", ErrEncoderMissing, name)
		}
	}
	return nil
}

// argv returns the command line that encodes in to out.
func (e *CommandEncoder) argv(mime, in, out string) ([]string, error) {
	switch mime {
	case domain.MIMEOgg:
		return []string{e.OggEnc, "-o", out, "--downmix", "-q", "1", in}, nil
	case domain.MIMEMP3:
		return []string{e.Lame, in, out}, nil
	default:
		return nil, fmt.Errorf("no encoder for %q", mime)
	}
}

// Encode implements Encoder. The output is written next to wavPath and
// removed once read.
func (e *CommandEncoder) Encode(ctx context.Context, wavPath, mime string) ([]byte, error) {
	out := strings.TrimSuffix(wavPath, filepath.Ext(wavPath)) + extensionFor(mime)
	argv, err := e.argv(mime, wavPath, out)
	if err != nil {
		return nil, err
	}
	defer os.Remove(out)

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	log.Debug(log.CatBuild, "Encoding", "command", argv[0], "in", wavPath, "mime", mime)
	if output, err := cmd.CombinedOutput(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if errors.Is(err, exec.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrEncoderMissing, argv[0])
		}
		return nil, fmt.Errorf("%s: %w: %s", argv[0], err, strings.TrimSpace(string(output)))
	}

	data, err := os.ReadFile(out)
	if err != nil {
		return nil, fmt.Errorf("reading %s output: %w", argv[0], err)
	}
	return data, nil
}

func extensionFor(mime string) string {
	if mime == domain.MIMEOgg {
		return ".ogg"
	}
	return ".mp3"
}
