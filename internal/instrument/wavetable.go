package instrument

import (
	"github.com/cbegin/synthie-go/internal/score"
	"github.com/cbegin/synthie-go/internal/wavetable"
)

// Wavetable plays a sample from the wave table, one source frame per output
// frame, shaped by the note envelope.
//
// With a loop region set, the read cursor returns to the start of the
// sample the first time local time passes LoopEnd, and again every
// LoopEnd-LoopStart seconds after that, until the note ends.
type Wavetable struct {
	clock
	src  *wavetable.Sample
	env  Envelope
	loop score.WaveNote

	cursor   int // next frame to read
	frame    int // frame read by the last Generate
	gain     float64
	lastLoop float64
	loopSet  bool
	restarts int
}

// NewWavetable builds a player for n reading from table. The note's wave
// index is clamped by the table; an empty table plays silence.
func NewWavetable(n score.Note, table *wavetable.Table) *Wavetable {
	w := &Wavetable{env: NewEnvelope(n.Duration)}
	if n.Wave != nil {
		w.loop = *n.Wave
	}
	w.src = table.Get(w.loop.Index)
	return w
}

func (w *Wavetable) Start(sampleRate float64) {
	w.reset(sampleRate)
	w.cursor = 0
	w.frame = 0
	w.gain = 0
	w.lastLoop = 0
	w.loopSet = false
	w.restarts = 0
}

func (w *Wavetable) Generate() bool {
	w.gain = w.env.Gain(w.time)
	w.frame = w.cursor
	w.cursor++
	now := w.tick()
	if w.loop.Looping() {
		switch {
		case !w.loopSet:
			if now > w.loop.LoopEnd {
				w.loopSet = true
				w.restart(now)
			}
		case now-w.lastLoop >= w.loop.LoopEnd-w.loop.LoopStart:
			w.restart(now)
		}
	}
	return now < w.env.Duration
}

func (w *Wavetable) restart(now float64) {
	w.lastLoop = now
	w.cursor = 0
	w.restarts++
}

func (w *Wavetable) Frame(c int) float64 {
	return w.src.At(w.frame, c) * w.gain
}

// Restarts returns how many times the read cursor has been rewound.
func (w *Wavetable) Restarts() int { return w.restarts }
