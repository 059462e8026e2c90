package sound

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/pitchplay/internal/bank/domain"
	"github.com/zjrosen/pitchplay/internal/bank/infrastructure"
)

// ===========================================================================
// Decode / sniff
// ===========================================================================

func TestSniff(t *testing.T) {
	tests := []struct {
		name string
		mime string
		data []byte
		want string
	}{
		{"ogg magic overrides mime", domain.MIMEMP3, []byte("OggS\x00\x02"), domain.MIMEOgg},
		{"id3 tag", domain.MIMEOgg, []byte("ID3\x04"), domain.MIMEMP3},
		{"mpeg frame sync", "", []byte{0xFF, 0xFB, 0x90}, domain.MIMEMP3},
		{"declared ogg", domain.MIMEOgg, []byte("????"), domain.MIMEOgg},
		{"audio/mpeg alias", "audio/mpeg", []byte("????"), domain.MIMEMP3},
		{"unknown", "audio/wav", []byte("RIFF"), ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, sniff(tt.mime, tt.data))
		})
	}
}

func TestDecode_Unsupported(t *testing.T) {
	_, _, err := Decode("audio/wav", []byte("RIFF...."))
	require.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestDecode_CorruptOgg(t *testing.T) {
	_, _, err := Decode(domain.MIMEOgg, []byte("OggS garbage"))
	require.Error(t, err)
}

func TestBeepBackend_FetchErrorPropagates(t *testing.T) {
	b := NewBeepBackend(infrastructure.NewMuxFetcher(nil), 0)

	err := b.Play(context.Background(), domain.Candidate{
		URL:  filepath.Join(t.TempDir(), "missing.ogg"),
		MIME: domain.MIMEOgg,
	})

	var fetchErr *domain.FetchError
	require.True(t, errors.As(err, &fetchErr))
}

// ===========================================================================
// CommandBackend
// ===========================================================================

func TestCommandBackend_DetectsDefault(t *testing.T) {
	b := NewCommandBackend(nil, "")
	b.lookPath = func(name string) (string, error) {
		if name == "ffplay" {
			return "/usr/bin/ffplay", nil
		}
		return "", exec.ErrNotFound
	}

	argv, err := b.Command()
	if runtime.GOOS != "linux" && runtime.GOOS != "freebsd" {
		if err != nil {
			require.ErrorIs(t, err, ErrNoPlayerCommand)
		}
		return
	}
	require.NoError(t, err)
	require.Equal(t, "ffplay", argv[0])
}

func TestCommandBackend_NoPlayer(t *testing.T) {
	b := NewCommandBackend(nil, "")
	b.lookPath = func(string) (string, error) { return "", exec.ErrNotFound }

	_, err := b.Command()
	require.ErrorIs(t, err, ErrNoPlayerCommand)
}

func TestCommandBackend_ConfiguredCommand(t *testing.T) {
	b := NewCommandBackend(nil, "ffplay -nodisp -autoexit")

	argv, err := b.Command()
	require.NoError(t, err)
	require.Equal(t, []string{"ffplay", "-nodisp", "-autoexit"}, argv)
}

func TestCommandBackend_PlayLocalFile(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses POSIX true/false")
	}
	path := filepath.Join(t.TempDir(), "a.ogg")
	require.NoError(t, os.WriteFile(path, []byte("OggS"), 0o644))

	ok := NewCommandBackend(nil, "true")
	require.NoError(t, ok.Play(context.Background(), domain.Candidate{URL: path, MIME: domain.MIMEOgg}))

	failing := NewCommandBackend(nil, "false")
	require.Error(t, failing.Play(context.Background(), domain.Candidate{URL: path, MIME: domain.MIMEOgg}))
}

func TestCommandBackend_MaterializesRemotePayload(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses POSIX test")
	}
	// test -s succeeds only if the materialized temp file is non-empty.
	b := NewCommandBackend(infrastructure.NewMuxFetcher(nil), "test -s")

	err := b.Play(context.Background(), domain.Candidate{URL: "data:audio/ogg;base64,T2dnUw==", MIME: domain.MIMEOgg})
	require.NoError(t, err)
}

func TestExtensionFor(t *testing.T) {
	require.Equal(t, ".ogg", extensionFor(domain.MIMEOgg))
	require.Equal(t, ".mp3", extensionFor(domain.MIMEMP3))
	require.Equal(t, "", extensionFor("audio/wav"))
}
