// Package playback schedules note sequences against a bank.
//
// A sequence is first materialized into cues, each pairing a note with its
// cumulative offset from the start of playback. Every cue then gets its own
// timer; when it fires, a sound element is built for the note and played.
// Timing follows the runtime's timers and carries no real-time guarantee.
package playback

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Cue is one scheduled note.
type Cue struct {
	Index int
	Note  string
	At    time.Duration // offset from the start of playback
}

// MaxOffset is the largest cue offset Plan produces.
const MaxOffset = time.Duration(math.MaxInt64)

// maxNanos is 2^63 as a float64; any product at or above it overflows a Duration.
const maxNanos = float64(math.MaxInt64)

// Plan computes the cue list for notes. offsets[i-1] is the gap between
// notes[i-1] and notes[i]; missing gaps count as zero and surplus offsets
// are ignored. Negative gaps count as zero and the running total saturates
// at MaxOffset, so cue offsets never decrease.
func Plan(notes []string, offsets []time.Duration) []Cue {
	cues := make([]Cue, 0, len(notes))
	var at time.Duration
	for i, note := range notes {
		if i > 0 && len(offsets) >= i {
			at = addOffset(at, offsets[i-1])
		}
		cues = append(cues, Cue{Index: i, Note: note, At: at})
	}
	return cues
}

func addOffset(at, gap time.Duration) time.Duration {
	if gap <= 0 {
		return at
	}
	if gap > MaxOffset-at {
		return MaxOffset
	}
	return at + gap
}

// Millis converts millisecond values to durations. NaN and negative values
// become zero; values beyond the Duration range saturate at MaxOffset.
func Millis(ms ...float64) []time.Duration {
	out := make([]time.Duration, len(ms))
	for i, v := range ms {
		switch {
		case math.IsNaN(v) || v <= 0:
			out[i] = 0
		case v*float64(time.Millisecond) >= maxNanos:
			out[i] = MaxOffset
		default:
			out[i] = time.Duration(v * float64(time.Millisecond))
		}
	}
	return out
}

// ParseOffsets parses a comma separated list of millisecond gaps such as
// "100,200,50". Blank input yields no offsets. Negative, NaN, infinite and
// out of range values are rejected.
func ParseOffsets(s string) ([]time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	ms := make([]float64, 0, len(parts))
	for i, part := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return nil, fmt.Errorf("offset %d: %w", i, err)
		}
		switch {
		case math.IsNaN(v) || math.IsInf(v, 0):
			return nil, fmt.Errorf("offset %d: must be a finite number, got %v", i, v)
		case v < 0:
			return nil, fmt.Errorf("offset %d: must not be negative, got %v", i, v)
		case v*float64(time.Millisecond) >= maxNanos:
			return nil, fmt.Errorf("offset %d: %v ms exceeds the maximum of %d ms", i, v, MaxOffset.Milliseconds())
		}
		ms = append(ms, v)
	}
	return Millis(ms...), nil
}
