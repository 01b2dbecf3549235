package score

import (
	"cmp"
	"slices"
)

// Kind is the instrument-type tag carried by every note. Tags that match
// neither known kind are kept so the engine can skip them at trigger time.
type Kind string

const (
	KindTone      Kind = "ToneInstrument"
	KindWavetable Kind = "WavetableInstrument"
)

func (k Kind) Known() bool {
	return k == KindTone || k == KindWavetable
}

const (
	DefaultBPM             = 120.0
	DefaultBeatsPerMeasure = 4
	// DefaultDuration applies, unscaled, to notes without a duration attribute.
	DefaultDuration = 0.1

	// DurationScale converts a note's duration attribute to seconds. It is
	// fixed at 60/120 and does not follow the score's bpm.
	DurationScale = 60.0 / 120.0
)

// Note is an immutable scheduled event. Wave is non-nil only for notes
// owned by a wavetable instrument.
type Note struct {
	Measure    int
	Beat       float64
	Instrument Kind
	Duration   float64 // seconds, already scaled by DurationScale
	Pitch      string
	Wave       *WaveNote
}

// WaveNote is the wavetable-specific payload of a Note. The loop region is
// in seconds of note-local time; it is disabled when LoopEnd <= LoopStart.
type WaveNote struct {
	Index     int
	LoopStart float64
	LoopEnd   float64
}

// Looping reports whether the loop region is usable.
func (w WaveNote) Looping() bool {
	return w.LoopEnd > 0 && w.LoopEnd > w.LoopStart
}

// Before orders notes by measure, then beat.
func (n Note) Before(o Note) bool {
	return compareNotes(n, o) < 0
}

func compareNotes(a, b Note) int {
	if c := cmp.Compare(a.Measure, b.Measure); c != 0 {
		return c
	}
	return cmp.Compare(a.Beat, b.Beat)
}

// Score is the in-memory form of a score document.
type Score struct {
	BPM             float64
	BeatsPerMeasure int
	Notes           []Note
	// WavePaths are the canonical wave file paths in document order; a
	// wavetable note's Index refers to a position in this slice.
	WavePaths []string
}

func New() *Score {
	return &Score{BPM: DefaultBPM, BeatsPerMeasure: DefaultBeatsPerMeasure}
}

// SecondsPerBeat returns 60/BPM, falling back to the default tempo.
func (s *Score) SecondsPerBeat() float64 {
	bpm := s.BPM
	if bpm <= 0 {
		bpm = DefaultBPM
	}
	return 60 / bpm
}

// Sort orders the notes by (measure, beat), keeping document order for ties.
func (s *Score) Sort() {
	slices.SortStableFunc(s.Notes, compareNotes)
}

// Sorted reports whether the notes are in trigger order.
func (s *Score) Sorted() bool {
	return slices.IsSortedFunc(s.Notes, compareNotes)
}

// UnknownInstruments returns the distinct unrecognized instrument tags in
// note order.
func (s *Score) UnknownInstruments() []Kind {
	var out []Kind
	for _, n := range s.Notes {
		if !n.Instrument.Known() && !slices.Contains(out, n.Instrument) {
			out = append(out, n.Instrument)
		}
	}
	return out
}
