package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/zjrosen/pitchplay/internal/bank/infrastructure"
	"github.com/zjrosen/pitchplay/internal/log"
	"github.com/zjrosen/pitchplay/internal/playback"
)

var (
	watchOffsets  string
	watchDebounce time.Duration
	watchDryRun   bool
)

var watchCmd = &cobra.Command{
	Use:   "watch <file> [note]...",
	Short: "Reload a local bank on change and replay notes",
	Long: `Watch a local bank file. Every time it is saved the bank is reloaded and,
if notes were given, the sequence is played again. A sequence still playing
when the file changes is canceled.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVar(&watchOffsets, "offsets", "", "comma separated gaps between notes in milliseconds")
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", 200*time.Millisecond, "quiet period before reloading")
	watchCmd.Flags().BoolVar(&watchDryRun, "dry-run", false, "reload without producing sound")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	offsets, err := playback.ParseOffsets(watchOffsets)
	if err != nil {
		return fmt.Errorf("parsing --offsets: %w", err)
	}
	a, err := newApp(cfg, watchDryRun)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	id := bankIDFor(args[0])
	notes := args[1:]
	out := cmd.OutOrStdout()

	r := &replayer{play: func() (*playback.Handle, error) {
		return a.player.PlayBank(ctx, id, notes, offsets)
	}}
	replay := func() {
		b, _ := a.registry.Bank(id)
		fmt.Fprintf(out, "Reloaded %q (%d notes)\n", id, b.Len())
		if len(notes) == 0 {
			return
		}
		if err := r.replay(); err != nil {
			log.ErrorErr(log.CatWatch, "Replay failed", err, "bank", id)
		}
	}

	w, err := infrastructure.NewWatcher(a.loader, infrastructure.WatcherConfig{
		Path:     args[0],
		BankID:   id,
		Debounce: watchDebounce,
		OnReload: replay,
		OnError: func(err error) {
			fmt.Fprintf(cmd.ErrOrStderr(), "reload failed: %v\n", err)
		},
	})
	if err != nil {
		return err
	}

	err = w.Run(ctx)
	r.stop()
	return err
}

// replayer keeps at most one sequence playing. The previous sequence is
// canceled before the next one is scheduled so the two never overlap.
type replayer struct {
	play func() (*playback.Handle, error)

	mu      sync.Mutex
	current *playback.Handle
}

func (r *replayer) replay() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.current != nil {
		r.current.Cancel()
		r.current = nil
	}
	h, err := r.play()
	if err != nil {
		return err
	}
	r.current = h
	return nil
}

func (r *replayer) stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.current != nil {
		r.current.Cancel()
		r.current = nil
	}
}
