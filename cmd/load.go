package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/zjrosen/pitchplay/internal/bank/application"
	"github.com/zjrosen/pitchplay/internal/bank/domain"
	"github.com/zjrosen/pitchplay/internal/log"
)

var (
	loadAs       string
	loadProgress bool
)

var loadCmd = &cobra.Command{
	Use:   "load <url>",
	Short: "Load a sound bank and list its notes",
	Long: `Fetch and decode a sound bank from an http(s) URL, a local path, a file://
URL or a data: URI, then print the notes it defines.`,
	Args: cobra.ExactArgs(1),
	RunE: runLoad,
}

func init() {
	loadCmd.Flags().StringVar(&loadAs, "as", "", "registry id for the bank (default: file name)")
	loadCmd.Flags().BoolVar(&loadProgress, "progress", false, "report download progress on stderr")
	rootCmd.AddCommand(loadCmd)
}

func runLoad(cmd *cobra.Command, args []string) error {
	a, err := newApp(cfg, true)
	if err != nil {
		return err
	}

	id := loadAs
	if id == "" {
		id = bankIDFor(args[0])
	}

	var progress io.Writer
	if loadProgress {
		progress = cmd.ErrOrStderr()
	}
	bank, err := loadBank(cmd, a, args[0], id, progress)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Loaded %q with %d notes\n", id, bank.Len())
	if bank.Len() > 0 {
		fmt.Fprintf(out, "  %s\n", strings.Join(bank.Notes(), " "))
	}
	return nil
}

// loadBank loads locator into a's registry under id and waits for it. When
// progress is non-nil, download progress is written to it.
func loadBank(cmd *cobra.Command, a *app, locator, id string, progress io.Writer) (*domain.Bank, error) {
	var opts []application.LoadOption
	if progress != nil {
		opts = append(opts, application.OnProgress(func(p domain.Progress) {
			if p.LengthComputable {
				fmt.Fprintf(progress, "\r%s: %3.0f%% (%d/%d bytes)", id, p.Fraction()*100, p.Loaded, p.Total)
			} else {
				fmt.Fprintf(progress, "\r%s: %d bytes", id, p.Loaded)
			}
		}))
	}

	pending := a.loader.Load(cmd.Context(), locator, id, opts...)
	bank, err := pending.Wait(cmd.Context())
	if progress != nil {
		fmt.Fprintln(progress)
	}
	if err != nil {
		return nil, fmt.Errorf("loading bank: %w", err)
	}
	log.Debug(log.CatBank, "Bank ready", "bank", id, "notes", bank.Len())
	return bank, nil
}
