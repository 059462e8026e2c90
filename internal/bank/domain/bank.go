package domain

import (
	"encoding/json"
	"sort"
)

// MIME types offered for each note, in preference order.
const (
	MIMEOgg = "audio/ogg"
	MIMEMP3 = "audio/mp3"
)

// NoteSource holds the encoded audio locations for a single note.
type NoteSource struct {
	OGG string `json:"ogg"`
	MP3 string `json:"mp3"`
}

// Candidate is one encoded alternative for a note.
type Candidate struct {
	URL  string
	MIME string
}

// IsZero reports whether neither encoding is set.
func (s NoteSource) IsZero() bool {
	return s.OGG == "" && s.MP3 == ""
}

// Candidates returns the non-empty encodings, OGG first.
func (s NoteSource) Candidates() []Candidate {
	var out []Candidate
	if s.OGG != "" {
		out = append(out, Candidate{URL: s.OGG, MIME: MIMEOgg})
	}
	if s.MP3 != "" {
		out = append(out, Candidate{URL: s.MP3, MIME: MIMEMP3})
	}
	return out
}

// Bank maps note names to their sources. A Bank is immutable once built.
type Bank struct {
	notes map[string]NoteSource
}

// NewBank copies notes into a new Bank.
func NewBank(notes map[string]NoteSource) *Bank {
	cp := make(map[string]NoteSource, len(notes))
	for k, v := range notes {
		cp[k] = v
	}
	return &Bank{notes: cp}
}

// DecodeBank parses a JSON bank payload of the form
// {"C4": {"ogg": "c4.ogg", "mp3": "c4.mp3"}, ...}.
// The shape is not validated beyond what decoding requires.
func DecodeBank(data []byte) (*Bank, error) {
	var notes map[string]NoteSource
	if err := json.Unmarshal(data, &notes); err != nil {
		return nil, &DecodeError{Err: err}
	}
	if notes == nil {
		return nil, &DecodeError{Err: errNullBank}
	}
	return &Bank{notes: notes}, nil
}

// Source returns the NoteSource for note. Missing notes yield a zero value.
func (b *Bank) Source(note string) (NoteSource, bool) {
	if b == nil {
		return NoteSource{}, false
	}
	src, ok := b.notes[note]
	return src, ok
}

// Len returns the number of notes in the bank.
func (b *Bank) Len() int {
	if b == nil {
		return 0
	}
	return len(b.notes)
}

// Playable returns the number of notes with at least one encoding set.
// A bank whose notes are all empty was usually decoded from another shape,
// such as a per-program library.
func (b *Bank) Playable() int {
	if b == nil {
		return 0
	}
	n := 0
	for _, src := range b.notes {
		if !src.IsZero() {
			n++
		}
	}
	return n
}

// Notes returns the note names in sorted order.
func (b *Bank) Notes() []string {
	if b == nil {
		return nil
	}
	names := make([]string, 0, len(b.notes))
	for name := range b.notes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Map returns a copy of the underlying note mapping.
func (b *Bank) Map() map[string]NoteSource {
	if b == nil {
		return nil
	}
	cp := make(map[string]NoteSource, len(b.notes))
	for k, v := range b.notes {
		cp[k] = v
	}
	return cp
}

// MarshalJSON encodes the bank in its file format.
func (b *Bank) MarshalJSON() ([]byte, error) {
	return json.Marshal(b.notes)
}
