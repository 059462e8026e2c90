package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/zjrosen/pitchplay/internal/playback"
)

var (
	playAs      string
	playOffsets string
	playDryRun  bool
	playTail    time.Duration
)

var playCmd = &cobra.Command{
	Use:   "play <url> <note>...",
	Short: "Load a bank and play a note sequence",
	Long: `Load a sound bank, then play the given notes in order. --offsets lists the
gaps in milliseconds between consecutive notes; missing gaps are zero and
surplus gaps are ignored.

Example:
  pitchplay play https://example.com/banks/piano.json C4 E4 G4 --offsets 250,250`,
	Args: cobra.MinimumNArgs(1),
	RunE: runPlay,
}

func init() {
	playCmd.Flags().StringVar(&playAs, "as", "", "registry id for the bank (default: file name)")
	playCmd.Flags().StringVar(&playOffsets, "offsets", "", "comma separated gaps between notes in milliseconds")
	playCmd.Flags().BoolVar(&playDryRun, "dry-run", false, "print the schedule without producing sound")
	playCmd.Flags().DurationVar(&playTail, "tail", -1, "time to keep running after the last cue (default playback.tail)")
	rootCmd.AddCommand(playCmd)
}

func runPlay(cmd *cobra.Command, args []string) error {
	offsets, err := playback.ParseOffsets(playOffsets)
	if err != nil {
		return fmt.Errorf("parsing --offsets: %w", err)
	}

	a, err := newApp(cfg, playDryRun)
	if err != nil {
		return err
	}

	id := playAs
	if id == "" {
		id = bankIDFor(args[0])
	}
	if _, err := loadBank(cmd, a, args[0], id, nil); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	tail := cfg.Playback.Tail
	if playTail >= 0 {
		tail = playTail
	}
	if playDryRun {
		tail = 0
	}

	return playSequence(ctx, cmd.OutOrStdout(), a, id, args[1:], offsets, tail, playDryRun)
}

// playSequence plays notes from the registered bank id and waits for every
// cue to settle plus tail. With verbose set the schedule and outcome of each
// cue are printed to out.
func playSequence(ctx context.Context, out io.Writer, a *app, id string, notes []string, offsets []time.Duration, tail time.Duration, verbose bool) error {
	h, err := a.player.PlayBank(ctx, id, notes, offsets)
	if err != nil {
		return err
	}

	if err := h.Wait(ctx); err != nil {
		h.Cancel()
		return nil
	}

	failed := 0
	for _, r := range h.Results() {
		if r.Err != nil && !errors.Is(r.Err, playback.ErrCanceled) {
			failed++
		}
		if verbose {
			printCue(out, r)
		}
	}
	if failed > 0 {
		fmt.Fprintf(out, "%d of %d notes did not play\n", failed, len(notes))
	}

	if tail > 0 {
		select {
		case <-time.After(tail):
		case <-ctx.Done():
		}
	}
	return nil
}

func printCue(out io.Writer, r playback.CueResult) {
	status := "ok"
	if r.Err != nil {
		status = r.Err.Error()
	}
	fmt.Fprintf(out, "%8s  %-6s %s\n", formatOffset(r.Cue.At), r.Cue.Note, status)
}

func formatOffset(d time.Duration) string {
	return fmt.Sprintf("+%dms", d.Milliseconds())
}
