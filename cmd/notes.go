package cmd

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/zjrosen/pitchplay/internal/bank/domain"
	"github.com/zjrosen/pitchplay/internal/bank/infrastructure"
)

var notesCmd = &cobra.Command{
	Use:   "notes <url>",
	Short: "List the notes in a sound bank",
	Long:  `Load a sound bank and print each note with the sources it resolves to.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runNotes,
}

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Underline(true)
	noteStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.AdaptiveColor{Light: "#2563EB", Dark: "#54A0FF"})
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#6B7280", Dark: "#BBBBBB"})
)

func init() {
	rootCmd.AddCommand(notesCmd)
}

func runNotes(cmd *cobra.Command, args []string) error {
	a, err := newApp(cfg, true)
	if err != nil {
		return err
	}
	id := bankIDFor(args[0])
	bank, err := loadBank(cmd, a, args[0], id, nil)
	if err != nil {
		return err
	}
	printNotes(cmd.OutOrStdout(), args[0], bank)
	return nil
}

// printNotes writes one row per note: name, then OGG and MP3 sources resolved
// against base.
func printNotes(out io.Writer, base string, bank *domain.Bank) {
	notes := bank.Notes()
	if len(notes) == 0 {
		fmt.Fprintln(out, mutedStyle.Render("(no notes)"))
		return
	}

	width := max(maxNoteLen(notes), len("NOTE"))
	fmt.Fprintf(out, "%s  %s\n",
		headerStyle.Render(fmt.Sprintf("%-*s", width, "NOTE")),
		headerStyle.Render("SOURCES"))

	for _, note := range notes {
		src, _ := bank.Source(note)
		label := noteStyle.Render(fmt.Sprintf("%-*s", width, note))
		cands := src.Candidates()
		if len(cands) == 0 {
			fmt.Fprintf(out, "%s  %s\n", label, mutedStyle.Render("(no sources)"))
			continue
		}
		for i, c := range cands {
			if i > 0 {
				label = fmt.Sprintf("%-*s", width, "")
			}
			fmt.Fprintf(out, "%s  %s\n", label, formatCandidate(base, c))
		}
	}
}

func formatCandidate(base string, c domain.Candidate) string {
	return fmt.Sprintf("%s %s", mutedStyle.Render(fmt.Sprintf("%-9s", c.MIME)), infrastructure.Resolve(base, c.URL))
}

// maxNoteLen returns the length of the longest note name in the slice.
func maxNoteLen(notes []string) int {
	maxLen := 0
	for _, n := range notes {
		if len(n) > maxLen {
			maxLen = len(n)
		}
	}
	return maxLen
}
