package sound

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/zjrosen/pitchplay/internal/bank/domain"
)

type mockBackend struct {
	mock.Mock
}

func (m *mockBackend) Play(ctx context.Context, c domain.Candidate) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

var (
	oggCand = domain.Candidate{URL: "http://host/banks/a.ogg", MIME: domain.MIMEOgg}
	mp3Cand = domain.Candidate{URL: "http://host/banks/a.mp3", MIME: domain.MIMEMP3}
)

func newTestElement(b Backend) *Element {
	return NewFactory(b, "http://host/banks/piano.json").
		NewElement(domain.NoteSource{OGG: "a.ogg", MP3: "a.mp3"})
}

func TestFactory_NewElement_ResolvesAndOrders(t *testing.T) {
	el := newTestElement(NewNullBackend())

	require.Equal(t, []domain.Candidate{oggCand, mp3Cand}, el.Candidates())
}

func TestFactory_WithBase(t *testing.T) {
	f := NewFactory(NewNullBackend(), "")
	el := f.WithBase("http://cdn/x/bank.json").NewElement(domain.NoteSource{MP3: "n.mp3"})

	require.Equal(t, []domain.Candidate{{URL: "http://cdn/x/n.mp3", MIME: domain.MIMEMP3}}, el.Candidates())
}

func TestElement_Play_PrefersOgg(t *testing.T) {
	b := new(mockBackend)
	b.On("Play", mock.Anything, oggCand).Return(nil).Once()

	require.NoError(t, newTestElement(b).Play(context.Background()))
	b.AssertExpectations(t)
	b.AssertNotCalled(t, "Play", mock.Anything, mp3Cand)
}

func TestElement_Play_FallsBackToMP3(t *testing.T) {
	b := new(mockBackend)
	b.On("Play", mock.Anything, oggCand).Return(ErrUnsupportedFormat).Once()
	b.On("Play", mock.Anything, mp3Cand).Return(nil).Once()

	require.NoError(t, newTestElement(b).Play(context.Background()))
	b.AssertExpectations(t)
}

func TestElement_Play_AllCandidatesFail(t *testing.T) {
	b := new(mockBackend)
	b.On("Play", mock.Anything, oggCand).Return(ErrUnsupportedFormat)
	b.On("Play", mock.Anything, mp3Cand).Return(errors.New("404"))

	err := newTestElement(b).Play(context.Background())
	require.ErrorIs(t, err, ErrNoPlayableSource)
	require.ErrorIs(t, err, ErrUnsupportedFormat)
	require.Contains(t, err.Error(), "404")
}

func TestElement_Play_NoCandidates(t *testing.T) {
	b := new(mockBackend)
	el := NewFactory(b, "").NewElement(domain.NoteSource{})

	require.Empty(t, el.Candidates())
	require.ErrorIs(t, el.Play(context.Background()), ErrNoPlayableSource)
	b.AssertNotCalled(t, "Play", mock.Anything, mock.Anything)
}

func TestElement_Play_NilBackend(t *testing.T) {
	el := NewFactory(nil, "").NewElement(domain.NoteSource{OGG: "a.ogg"})
	require.ErrorIs(t, el.Play(context.Background()), ErrNoPlayableSource)
}

func TestElement_CloseStopsPlayback(t *testing.T) {
	started := make(chan struct{})
	b := new(mockBackend)
	b.On("Play", mock.Anything, oggCand).
		Run(func(args mock.Arguments) {
			close(started)
			<-args.Get(0).(context.Context).Done()
		}).
		Return(context.Canceled).Once()

	el := newTestElement(b)
	errCh := make(chan error, 1)
	go func() { errCh <- el.Play(context.Background()) }()

	<-started
	require.NoError(t, el.Close())

	select {
	case err := <-errCh:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("Play did not return after Close")
	}
	b.AssertNotCalled(t, "Play", mock.Anything, mp3Cand)
}

func TestElement_PlayAfterClose(t *testing.T) {
	el := newTestElement(NewNullBackend())
	require.NoError(t, el.Close())
	require.NoError(t, el.Close())

	require.ErrorIs(t, el.Play(context.Background()), ErrElementClosed)
}

func TestNullBackend_RecordsAndRejects(t *testing.T) {
	b := NewNullBackend(domain.MIMEOgg)

	require.NoError(t, newTestElement(b).Play(context.Background()))
	require.Equal(t, []domain.Candidate{mp3Cand}, b.Played())
}

func TestNewBackend(t *testing.T) {
	tests := []struct {
		kind    string
		want    any
		wantErr bool
	}{
		{"", &BeepBackend{}, false},
		{BackendBeep, &BeepBackend{}, false},
		{BackendCommand, &CommandBackend{}, false},
		{BackendNull, &NullBackend{}, false},
		{"alsa", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.kind, func(t *testing.T) {
			b, err := NewBackend(BackendConfig{Kind: tt.kind}, nil)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.IsType(t, tt.want, b)
		})
	}
}
