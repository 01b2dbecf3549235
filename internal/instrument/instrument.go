// Package instrument implements the per-note players created by the
// synthesizer: a sine tone and a looping wavetable sample player.
package instrument

import (
	"github.com/cbegin/synthie-go/internal/score"
	"github.com/cbegin/synthie-go/internal/wavetable"
)

const defaultSampleRate = 44100.0

// Instrument plays a single note. Start resets it; each Generate produces
// one frame and reports whether the note is still sounding. Frame reads the
// frame produced by the last Generate call that returned true.
type Instrument interface {
	Start(sampleRate float64)
	Generate() bool
	Frame(c int) float64
}

// New builds the instrument for a note's tag. It returns false for tags it
// does not recognize.
func New(n score.Note, table *wavetable.Table) (Instrument, bool) {
	switch n.Instrument {
	case score.KindTone:
		return NewTone(n), true
	case score.KindWavetable:
		return NewWavetable(n, table), true
	default:
		return nil, false
	}
}

// clock tracks note-local time.
type clock struct {
	period float64
	time   float64
}

func (c *clock) reset(sampleRate float64) {
	if sampleRate <= 0 {
		sampleRate = defaultSampleRate
	}
	c.period = 1 / sampleRate
	c.time = 0
}

func (c *clock) tick() float64 {
	c.time += c.period
	return c.time
}
