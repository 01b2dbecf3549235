package instrument

import (
	"math"

	"github.com/cbegin/synthie-go/internal/pitch"
	"github.com/cbegin/synthie-go/internal/score"
)

const twoPi = math.Pi * 2

// ToneAmplitude is the peak level of the tone oscillator.
const ToneAmplitude = 0.1

// Tone is a sine oscillator shaped by the note envelope. The same value is
// written to every channel.
type Tone struct {
	clock
	freq  float64
	amp   float64
	phase float64 // in cycles, [0, 1)
	env   Envelope
	value float64
}

// NewTone builds a tone for n. Unreadable pitch labels play at A4.
func NewTone(n score.Note) *Tone {
	return &Tone{
		freq: pitch.FrequencyOr(n.Pitch, pitch.Default),
		amp:  ToneAmplitude,
		env:  NewEnvelope(n.Duration),
	}
}

func (t *Tone) Freq() float64 { return t.freq }

func (t *Tone) Start(sampleRate float64) {
	t.reset(sampleRate)
	t.phase = 0
	t.value = 0
}

func (t *Tone) Generate() bool {
	s := t.amp * math.Sin(t.phase*twoPi)
	t.phase += t.freq * t.period
	for t.phase >= 1 {
		t.phase -= 1
	}
	t.value = s * t.env.Gain(t.time)
	return t.tick() < t.env.Duration
}

func (t *Tone) Frame(int) float64 {
	return t.value
}
