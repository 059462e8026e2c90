package sound

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"

	"github.com/zjrosen/pitchplay/internal/bank/application"
	"github.com/zjrosen/pitchplay/internal/bank/domain"
	"github.com/zjrosen/pitchplay/internal/bank/infrastructure"
	"github.com/zjrosen/pitchplay/internal/log"
)

// ErrNoPlayerCommand indicates no OS audio player could be found.
var ErrNoPlayerCommand = errors.New("no audio player command available")

// playerCandidates are tried in order when no command is configured.
var playerCandidates = map[string][][]string{
	"darwin":  {{"afplay"}},
	"linux":   {{"paplay"}, {"ffplay", "-nodisp", "-autoexit", "-loglevel", "quiet"}, {"mpv", "--no-video", "--really-quiet"}},
	"freebsd": {{"ffplay", "-nodisp", "-autoexit", "-loglevel", "quiet"}, {"mpv", "--no-video", "--really-quiet"}},
}

// CommandBackend plays candidates with an OS-native player command. Remote
// candidates are downloaded to a temporary file first.
type CommandBackend struct {
	fetcher  application.Fetcher
	argv     []string
	lookPath func(string) (string, error)
}

// NewCommandBackend creates a CommandBackend. command is a whitespace
// separated argv prefix (the file path is appended); empty selects a
// platform default.
func NewCommandBackend(fetcher application.Fetcher, command string) *CommandBackend {
	return &CommandBackend{
		fetcher:  fetcher,
		argv:     strings.Fields(command),
		lookPath: exec.LookPath,
	}
}

// Command returns the argv prefix in use, detecting a default if needed.
func (b *CommandBackend) Command() ([]string, error) {
	if len(b.argv) > 0 {
		return b.argv, nil
	}
	for _, argv := range playerCandidates[runtime.GOOS] {
		if _, err := b.lookPath(argv[0]); err == nil {
			return argv, nil
		}
	}
	return nil, ErrNoPlayerCommand
}

// Play implements Backend.
func (b *CommandBackend) Play(ctx context.Context, c domain.Candidate) error {
	argv, err := b.Command()
	if err != nil {
		return err
	}

	path, cleanup, err := b.materialize(ctx, c)
	if err != nil {
		return err
	}
	defer cleanup()

	args := append(append([]string(nil), argv[1:]...), path)
	cmd := exec.CommandContext(ctx, argv[0], args...)
	log.Debug(log.CatAudio, "Spawning player", "command", argv[0], "path", path, "mime", c.MIME)
	if out, err := cmd.CombinedOutput(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%s: %w: %s", argv[0], err, strings.TrimSpace(string(out)))
	}
	return nil
}

// materialize returns a local path for c, writing remote payloads to a temp file.
func (b *CommandBackend) materialize(ctx context.Context, c domain.Candidate) (string, func(), error) {
	noop := func() {}
	if scheme := infrastructure.Scheme(c.URL); scheme == "" || scheme == "file" {
		path, err := infrastructure.LocalPath(c.URL)
		return path, noop, err
	}

	data, err := b.fetcher.Fetch(ctx, c.URL, nil)
	if err != nil {
		return "", noop, err
	}
	f, err := os.CreateTemp("", "pitchplay-*"+extensionFor(c.MIME))
	if err != nil {
		return "", noop, fmt.Errorf("creating temp file: %w", err)
	}
	cleanup := func() { _ = os.Remove(f.Name()) }
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		cleanup()
		return "", noop, fmt.Errorf("writing temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		cleanup()
		return "", noop, fmt.Errorf("writing temp file: %w", err)
	}
	return f.Name(), cleanup, nil
}

func extensionFor(mime string) string {
	switch mime {
	case domain.MIMEOgg:
		return ".ogg"
	case domain.MIMEMP3:
		return ".mp3"
	default:
		return ""
	}
}
