package playback

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/pitchplay/internal/bank/domain"
	"github.com/zjrosen/pitchplay/internal/sound"
)

// ============================================================================
// Helpers
// ============================================================================

type staticBanks map[string]domain.Entry

func (s staticBanks) Get(id string) (domain.Entry, bool) {
	e, ok := s[id]
	return e, ok
}

func testBank() *domain.Bank {
	return domain.NewBank(map[string]domain.NoteSource{
		"A": {OGG: "https://cdn.example.com/a.ogg", MP3: "https://cdn.example.com/a.mp3"},
		"B": {OGG: "https://cdn.example.com/b.ogg"},
		"C": {MP3: "https://cdn.example.com/c.mp3"},
	})
}

func newTestPlayer(t *testing.T, banks staticBanks, reject ...string) (*Player, *sound.NullBackend, *manualClock) {
	t.Helper()
	backend := sound.NewNullBackend(reject...)
	clock := newManualClock()
	p := NewPlayer(sound.NewFactory(backend, ""), banks, WithClock(clock))
	return p, backend, clock
}

func playedURLs(b *sound.NullBackend) []string {
	var urls []string
	for _, c := range b.Played() {
		urls = append(urls, c.URL)
	}
	return urls
}

func requireSettled(t *testing.T, h *Handle) {
	t.Helper()
	select {
	case <-h.Done():
	default:
		t.Fatal("handle not settled")
	}
}

func requirePending(t *testing.T, h *Handle) {
	t.Helper()
	select {
	case <-h.Done():
		t.Fatal("handle settled early")
	default:
	}
}

// ============================================================================
// Scheduling
// ============================================================================

func TestPlay_ArmsOneTimerPerNoteAtCumulativeOffsets(t *testing.T) {
	p, backend, clock := newTestPlayer(t, nil)

	h := p.Play(context.Background(), testBank(), []string{"A", "B", "C"}, Millis(100, 200))

	require.Equal(t, Millis(0, 100, 300), clock.Armed())
	require.Empty(t, backend.Played(), "nothing plays before the clock advances")
	require.Equal(t, 0, h.Fired())

	clock.Advance(0)
	require.Equal(t, []string{"https://cdn.example.com/a.ogg"}, playedURLs(backend))

	clock.Advance(99 * time.Millisecond)
	require.Len(t, backend.Played(), 1)

	clock.Advance(1 * time.Millisecond)
	require.Len(t, backend.Played(), 2)
	requirePending(t, h)

	clock.Advance(200 * time.Millisecond)
	require.Equal(t, []string{
		"https://cdn.example.com/a.ogg",
		"https://cdn.example.com/b.ogg",
		"https://cdn.example.com/c.mp3",
	}, playedURLs(backend))

	requireSettled(t, h)
	require.Equal(t, 3, h.Fired())
	require.False(t, h.Canceled())
	for _, r := range h.Results() {
		require.NoError(t, r.Err, "cue %d", r.Cue.Index)
	}
}

func TestPlay_EmptyNotesArmsNothing(t *testing.T) {
	p, backend, clock := newTestPlayer(t, nil)

	h := p.Play(context.Background(), testBank(), nil, Millis(100))

	require.Empty(t, clock.Armed())
	require.Empty(t, backend.Played())
	requireSettled(t, h)
	require.NoError(t, h.Wait(context.Background()))
	require.Empty(t, h.Cues())
}

func TestPlay_SingleNoteStartsImmediately(t *testing.T) {
	p, backend, clock := newTestPlayer(t, nil)

	h := p.Play(context.Background(), testBank(), []string{"A"}, Millis(250, 500))

	require.Equal(t, Millis(0), clock.Armed())
	clock.Advance(0)
	require.Len(t, backend.Played(), 1)
	requireSettled(t, h)
}

func TestPlay_RepeatedNotesEachGetATimer(t *testing.T) {
	p, backend, clock := newTestPlayer(t, nil)

	h := p.Play(context.Background(), testBank(), []string{"A", "A", "A"}, nil)

	require.Equal(t, Millis(0, 0, 0), clock.Armed())
	clock.Advance(0)
	require.Len(t, backend.Played(), 3)
	requireSettled(t, h)
}

func TestPlay_FallsBackToMP3(t *testing.T) {
	p, backend, clock := newTestPlayer(t, nil, domain.MIMEOgg)

	h := p.Play(context.Background(), testBank(), []string{"A"}, nil)
	clock.Advance(0)

	require.Equal(t, []string{"https://cdn.example.com/a.mp3"}, playedURLs(backend))
	requireSettled(t, h)
	require.NoError(t, h.Results()[0].Err)
}

func TestPlay_MissingNoteIsRecordedNotReturned(t *testing.T) {
	p, backend, clock := newTestPlayer(t, nil)

	h := p.Play(context.Background(), testBank(), []string{"A", "Z", "B"}, Millis(10, 10))
	clock.Advance(20 * time.Millisecond)

	requireSettled(t, h)
	results := h.Results()
	require.NoError(t, results[0].Err)
	require.ErrorIs(t, results[1].Err, sound.ErrNoPlayableSource)
	require.NoError(t, results[2].Err)
	require.Len(t, backend.Played(), 2, "the missing note does not stop later cues")
}

func TestPlay_NilBankFailsEveryCue(t *testing.T) {
	p, backend, clock := newTestPlayer(t, nil)

	h := p.Play(context.Background(), nil, []string{"A", "B"}, nil)
	clock.Advance(0)

	requireSettled(t, h)
	for _, r := range h.Results() {
		require.ErrorIs(t, r.Err, sound.ErrNoPlayableSource)
	}
	require.Empty(t, backend.Played())
}

func TestPlay_HandlesHaveDistinctIDs(t *testing.T) {
	p, _, _ := newTestPlayer(t, nil)

	h1 := p.Play(context.Background(), testBank(), []string{"A"}, nil)
	h2 := p.Play(context.Background(), testBank(), []string{"A"}, nil)

	require.NotEmpty(t, h1.ID)
	require.NotEqual(t, h1.ID, h2.ID)
}

// ============================================================================
// Cancellation
// ============================================================================

func TestHandle_CancelStopsUnfiredCues(t *testing.T) {
	p, backend, clock := newTestPlayer(t, nil)

	h := p.Play(context.Background(), testBank(), []string{"A", "B", "C"}, Millis(100, 100))
	clock.Advance(0)
	require.Len(t, backend.Played(), 1)

	h.Cancel()
	requireSettled(t, h)
	require.True(t, h.Canceled())

	clock.Advance(time.Second)
	require.Len(t, backend.Played(), 1, "canceled cues never play")
	require.Equal(t, 1, h.Fired())

	results := h.Results()
	require.NoError(t, results[0].Err)
	require.ErrorIs(t, results[1].Err, ErrCanceled)
	require.ErrorIs(t, results[2].Err, ErrCanceled)
}

// blockingBackend plays until its context ends, signaling each start.
type blockingBackend struct {
	started chan struct{}
}

func (b *blockingBackend) Play(ctx context.Context, _ domain.Candidate) error {
	b.started <- struct{}{}
	<-ctx.Done()
	return ctx.Err()
}

func TestHandle_CancelDuringPlaybackRecordsErrCanceled(t *testing.T) {
	backend := &blockingBackend{started: make(chan struct{}, 1)}
	clock := newManualClock()
	p := NewPlayer(sound.NewFactory(backend, ""), nil, WithClock(clock))

	h := p.Play(context.Background(), testBank(), []string{"A"}, nil)
	go clock.Advance(0)

	select {
	case <-backend.started:
	case <-time.After(2 * time.Second):
		t.Fatal("cue never started")
	}
	h.Cancel()

	waitCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, h.Wait(waitCtx))
	require.True(t, h.Canceled())
	require.Equal(t, 1, h.Fired())

	err := h.Results()[0].Err
	require.ErrorIs(t, err, ErrCanceled)
	require.NotErrorIs(t, err, context.Canceled)
}

func TestHandle_CancelIsIdempotent(t *testing.T) {
	p, _, clock := newTestPlayer(t, nil)

	h := p.Play(context.Background(), testBank(), []string{"A", "B"}, Millis(50))
	h.Cancel()
	h.Cancel()
	clock.Advance(time.Second)

	requireSettled(t, h)
	require.Equal(t, 0, h.Fired())
}

func TestHandle_CancelAfterSettleKeepsResults(t *testing.T) {
	p, _, clock := newTestPlayer(t, nil)

	h := p.Play(context.Background(), testBank(), []string{"A"}, nil)
	clock.Advance(0)
	requireSettled(t, h)

	h.Cancel()
	require.False(t, h.Canceled())
	require.NoError(t, h.Results()[0].Err)
}

func TestHandle_ParentContextCancels(t *testing.T) {
	p, backend, clock := newTestPlayer(t, nil)
	ctx, cancel := context.WithCancel(context.Background())

	h := p.Play(ctx, testBank(), []string{"A", "B"}, Millis(100))
	clock.Advance(0)
	cancel()

	waitCtx, waitCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer waitCancel()
	require.NoError(t, h.Wait(waitCtx))
	require.True(t, h.Canceled())

	clock.Advance(time.Second)
	require.Len(t, backend.Played(), 1)
}

func TestHandle_WaitHonorsContext(t *testing.T) {
	p, _, _ := newTestPlayer(t, nil)

	h := p.Play(context.Background(), testBank(), []string{"A"}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.ErrorIs(t, h.Wait(ctx), context.Canceled)
	h.Cancel()
}

// ============================================================================
// PlayBank
// ============================================================================

func TestPlayBank_NotFound(t *testing.T) {
	p, _, _ := newTestPlayer(t, staticBanks{})

	h, err := p.PlayBank(context.Background(), "piano", []string{"A"}, nil)
	require.Nil(t, h)
	require.ErrorIs(t, err, domain.ErrBankNotFound)
}

func TestPlayBank_NilRegistry(t *testing.T) {
	p, _, _ := newTestPlayer(t, nil)

	_, err := p.PlayBank(context.Background(), "piano", []string{"A"}, nil)
	require.ErrorIs(t, err, domain.ErrBankNotFound)
}

func TestPlayBank_ResolvesRelativeURLsAgainstBankLocator(t *testing.T) {
	bank := domain.NewBank(map[string]domain.NoteSource{
		"C4": {OGG: "notes/c4.ogg"},
	})
	banks := staticBanks{
		"piano": {ID: "piano", URL: "https://cdn.example.com/banks/piano.json", Bank: bank},
	}
	p, backend, clock := newTestPlayer(t, banks)

	h, err := p.PlayBank(context.Background(), "piano", []string{"C4"}, nil)
	require.NoError(t, err)
	clock.Advance(0)

	requireSettled(t, h)
	require.Equal(t, []string{"https://cdn.example.com/banks/notes/c4.ogg"}, playedURLs(backend))
}
