package builder

import (
	"bytes"
	"fmt"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"
)

// TicksPerBeat is the MIDI resolution of rendered notes. One tick is a
// half-beat, 250ms at the default 120 BPM.
const TicksPerBeat = 2

// ReleaseTicks delays the end of track past the note off so the
// instrument's release is rendered.
const ReleaseTicks = 4

// Note is a single note to render.
type Note struct {
	Program  uint8 // General MIDI program, 0-127
	Pitch    uint8 // MIDI key, 0-127
	Velocity uint8 // 1-127
	Duration uint8 // half-beats, 1-127
}

func (n Note) validate() error {
	switch {
	case n.Program > 127:
		return fmt.Errorf("program %d out of range 0-127", n.Program)
	case n.Pitch > 127:
		return fmt.Errorf("pitch %d out of range 0-127", n.Pitch)
	case n.Velocity < 1 || n.Velocity > 127:
		return fmt.Errorf("velocity %d out of range 1-127", n.Velocity)
	case n.Duration < 1 || n.Duration > 127:
		return fmt.Errorf("duration %d out of range 1-127", n.Duration)
	}
	return nil
}

// NoteMIDI encodes n as a single-track standard MIDI file: a program change,
// the note on, and the note off Duration ticks later, all on channel 0.
func NoteMIDI(n Note) ([]byte, error) {
	if err := n.validate(); err != nil {
		return nil, err
	}

	var tr smf.Track
	tr.Add(0, midi.ProgramChange(0, n.Program))
	tr.Add(0, midi.NoteOn(0, n.Pitch, n.Velocity))
	tr.Add(uint32(n.Duration), midi.NoteOff(0, n.Pitch))
	tr.Close(ReleaseTicks)

	s := smf.New()
	s.TimeFormat = smf.MetricTicks(TicksPerBeat)
	if err := s.Add(tr); err != nil {
		return nil, fmt.Errorf("adding track: %w", err)
	}

	var buf bytes.Buffer
	if _, err := s.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("writing midi: %w", err)
	}
	return buf.Bytes(), nil
}

var noteNames = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// NoteName returns the scientific pitch name of a MIDI key, with middle C
// (60) as C4.
func NoteName(pitch uint8) string {
	return fmt.Sprintf("%s%d", noteNames[pitch%12], int(pitch)/12-1)
}
