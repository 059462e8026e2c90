package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/zjrosen/pitchplay/internal/builder"
)

var (
	buildSoundFont string
	buildPrograms  []int
	buildPitch     string
	buildVelocity  int
	buildDuration  int
	buildOut       string
	buildCombined  string
	buildNoteNames bool
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Render sound banks from a SoundFont",
	Long: `Render one bank per General MIDI program from a SoundFont. Each note is
synthesized at 16kHz mono, then encoded with oggenc and lame, and embedded in
the bank as data: URIs.

Banks are written to <out>/program-<n>.json in the flat note map form the
other commands load. --combined also writes every program into a single
{"<program>": {"<note>": {...}}} file.`,
	Example: `  pitchplay build --soundfont gs.sf2 --program 1 --pitch 60-65 --out banks/
  pitchplay build --soundfont gs.sf2 --program 1,40 --note-names --combined all.json`,
	Args: cobra.NoArgs,
	RunE: runBuild,
}

func init() {
	buildCmd.Flags().StringVar(&buildSoundFont, "soundfont", "", "SoundFont (.sf2) to render with (default build.soundfont)")
	buildCmd.Flags().IntSliceVar(&buildPrograms, "program", []int{1}, "General MIDI programs to render, 0-127")
	buildCmd.Flags().StringVar(&buildPitch, "pitch", "60-65", "MIDI pitch or inclusive range, e.g. 60 or 48-72")
	buildCmd.Flags().IntVar(&buildVelocity, "velocity", 127, "note velocity, 1-127")
	buildCmd.Flags().IntVar(&buildDuration, "duration", 8, "note length in half-beats at 120 BPM, 1-127")
	buildCmd.Flags().StringVar(&buildOut, "out", ".", "directory for per-program banks")
	buildCmd.Flags().StringVar(&buildCombined, "combined", "", "also write all programs to this file")
	buildCmd.Flags().BoolVar(&buildNoteNames, "note-names", false, "key notes by name (C4) instead of MIDI number (60)")
	rootCmd.AddCommand(buildCmd)
}

func runBuild(cmd *cobra.Command, args []string) error {
	req, err := buildRequest()
	if err != nil {
		return err
	}
	sfPath := buildSoundFont
	if sfPath == "" {
		sfPath = cfg.Build.SoundFont
	}
	if sfPath == "" {
		return errors.New("no soundfont: pass --soundfont or set build.soundfont")
	}

	enc := builder.NewCommandEncoder()
	enc.OggEnc = cfg.Build.OggEnc
	enc.Lame = cfg.Build.Lame
	if err := enc.Check(); err != nil {
		return err
	}
	renderer, err := builder.LoadSoundFont(sfPath, cfg.Build.SampleRate)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	total, done := req.Size(), 0
	req.OnNote = func(n builder.Note, key string) {
		done++
		fmt.Fprintf(out, "[%d/%d] program %d %s\n", done, total, n.Program, key)
	}

	lib, err := builder.New(renderer, enc).Build(cmd.Context(), req)
	if err != nil {
		return err
	}
	return writeLibrary(out, lib, req, buildOut, buildCombined)
}

func buildRequest() (builder.Request, error) {
	lo, hi, err := parsePitchRange(buildPitch)
	if err != nil {
		return builder.Request{}, fmt.Errorf("parsing --pitch: %w", err)
	}
	req := builder.Request{
		PitchMin:  lo,
		PitchMax:  hi,
		NoteNames: buildNoteNames,
	}
	for _, p := range buildPrograms {
		if p < 0 || p > 127 {
			return builder.Request{}, fmt.Errorf("--program %d out of range 0-127", p)
		}
		req.Programs = append(req.Programs, uint8(p))
	}
	if buildVelocity < 1 || buildVelocity > 127 {
		return builder.Request{}, fmt.Errorf("--velocity %d out of range 1-127", buildVelocity)
	}
	if buildDuration < 1 || buildDuration > 127 {
		return builder.Request{}, fmt.Errorf("--duration %d out of range 1-127", buildDuration)
	}
	req.Velocity = uint8(buildVelocity)
	req.Duration = uint8(buildDuration)
	return req, req.Validate()
}

// parsePitchRange parses "60" or "60-65".
func parsePitchRange(s string) (uint8, uint8, error) {
	loStr, hiStr, isRange := strings.Cut(strings.TrimSpace(s), "-")
	if !isRange {
		hiStr = loStr
	}
	lo, err := strconv.ParseUint(strings.TrimSpace(loStr), 10, 8)
	if err != nil {
		return 0, 0, err
	}
	hi, err := strconv.ParseUint(strings.TrimSpace(hiStr), 10, 8)
	if err != nil {
		return 0, 0, err
	}
	if lo > 127 || hi > 127 {
		return 0, 0, fmt.Errorf("%q: pitches must be 0-127", s)
	}
	if lo > hi {
		return 0, 0, fmt.Errorf("%q: range is empty", s)
	}
	return uint8(lo), uint8(hi), nil
}

// writeLibrary writes one bank file per program into dir and, when combined
// is set, the whole library into that file.
func writeLibrary(out io.Writer, lib builder.Library, req builder.Request, dir, combined string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}
	for _, program := range lib.Programs(req) {
		path := filepath.Join(dir, "program-"+program+".json")
		if err := writeJSON(path, lib[program]); err != nil {
			return err
		}
		fmt.Fprintf(out, "Wrote %s (%d notes)\n", path, lib[program].Len())
	}
	if combined != "" {
		if err := writeJSON(combined, lib); err != nil {
			return err
		}
		fmt.Fprintf(out, "Wrote %s (%d programs)\n", combined, len(lib))
	}
	return nil
}

func writeJSON(path string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
