// Package synth turns a sorted score into audio one frame at a time. The
// caller pulls frames with Generate (or Process for interleaved float32
// buffers); nothing here blocks or runs in the background.
//
// Loading a score and generating audio must not overlap: load, Start, then
// generate from a single goroutine.
package synth

import (
	"fmt"

	"github.com/cbegin/synthie-go/internal/instrument"
	"github.com/cbegin/synthie-go/internal/log"
	"github.com/cbegin/synthie-go/internal/score"
	"github.com/cbegin/synthie-go/internal/wavetable"
)

const (
	DefaultChannels   = 2
	DefaultSampleRate = 44100.0
)

// TriggerEvent describes a note reaching its scheduled position. Skipped is
// set when the note's instrument tag is not recognized and no instrument
// was created for it.
type TriggerEvent struct {
	Index   int
	Note    score.Note
	Time    float64
	Skipped bool
}

type Options struct {
	Channels   int
	SampleRate float64
	// OnTrigger runs synchronously inside Generate for every note whose
	// position is reached; keep it brief.
	OnTrigger func(TriggerEvent)
	Logger    *log.Logger
}

type Synthesizer struct {
	channels     int
	sampleRate   float64
	samplePeriod float64

	bpm             float64
	beatsPerMeasure int
	secPerBeat      float64

	notes   []score.Note
	table   *wavetable.Table
	current int
	measure int
	beat    float64
	time    float64
	active  []instrument.Instrument

	onTrigger func(TriggerEvent)
	logger    *log.Logger

	scratch  []float64
	finished bool
}

func New() *Synthesizer {
	return NewWithOptions(Options{})
}

func NewWithOptions(opts Options) *Synthesizer {
	s := &Synthesizer{
		onTrigger: opts.OnTrigger,
		logger:    opts.Logger,
	}
	s.Clear()
	if s.logger == nil {
		s.logger = log.Discard()
	}
	s.Configure(opts.Channels, opts.SampleRate)
	return s
}

// Configure sets the output format. Non-positive values select the
// defaults of 2 channels at 44100 Hz. Call it before Start.
func (s *Synthesizer) Configure(channels int, sampleRate float64) {
	if channels <= 0 {
		channels = DefaultChannels
	}
	if sampleRate <= 0 {
		sampleRate = DefaultSampleRate
	}
	s.channels = channels
	s.sampleRate = sampleRate
	s.samplePeriod = 1 / sampleRate
	s.scratch = make([]float64, channels)
}

func (s *Synthesizer) Channels() int           { return s.channels }
func (s *Synthesizer) SampleRate() float64     { return s.sampleRate }
func (s *Synthesizer) SamplePeriod() float64   { return s.samplePeriod }
func (s *Synthesizer) BPM() float64            { return s.bpm }
func (s *Synthesizer) BeatsPerMeasure() int    { return s.beatsPerMeasure }
func (s *Synthesizer) Table() *wavetable.Table { return s.table }

// Time returns the seconds of audio generated since Start.
func (s *Synthesizer) Time() float64 { return s.time }
func (s *Synthesizer) Measure() int  { return s.measure }
func (s *Synthesizer) Beat() float64 { return s.beat }

// Pending returns the number of notes not yet triggered.
func (s *Synthesizer) Pending() int { return len(s.notes) - s.current }

// Active returns the number of instruments currently sounding.
func (s *Synthesizer) Active() int { return len(s.active) }

// Start rewinds playback to measure 0, beat 0 with nothing sounding.
func (s *Synthesizer) Start() {
	clear(s.active)
	s.active = s.active[:0]
	s.current = 0
	s.measure = 0
	s.beat = 0
	s.time = 0
	s.finished = false
}

// Clear drops the loaded score, the wave table and every sounding
// instrument, and returns the tempo to the defaults.
func (s *Synthesizer) Clear() {
	clear(s.active)
	s.active = s.active[:0]
	s.notes = nil
	s.table = nil
	s.current = 0
	s.bpm = score.DefaultBPM
	s.beatsPerMeasure = score.DefaultBeatsPerMeasure
	s.secPerBeat = 60 / score.DefaultBPM
}

// Load installs a parsed score and its wave table. The notes must already
// be in trigger order, as produced by the score parser; they are not
// re-sorted.
func (s *Synthesizer) Load(sc *score.Score, table *wavetable.Table) {
	s.Clear()
	if sc == nil {
		return
	}
	s.secPerBeat = sc.SecondsPerBeat()
	if sc.BPM > 0 {
		s.bpm = sc.BPM
	}
	if sc.BeatsPerMeasure > 0 {
		s.beatsPerMeasure = sc.BeatsPerMeasure
	}
	s.notes = sc.Notes
	s.table = table
}

// OpenScore clears the synthesizer, then parses the score file at path and
// decodes its wave table. On failure the synthesizer is left empty.
func (s *Synthesizer) OpenScore(path string) error {
	s.Clear()
	sc, err := score.ParseFile(path)
	if err != nil {
		return err
	}
	table, err := wavetable.Load(sc.WavePaths)
	if err != nil {
		return fmt.Errorf("load wave table for %s: %w", path, err)
	}
	s.Load(sc, table)
	s.logger.Infof("loaded %s: %d notes, %d waves, %g bpm, %d beats/measure",
		path, len(sc.Notes), table.Len(), s.bpm, s.beatsPerMeasure)
	for _, k := range sc.UnknownInstruments() {
		s.logger.Warnf("%s: instrument %q is not recognized; its notes will be skipped", path, k)
	}
	return nil
}

// Generate produces one frame into frame[:Channels()] and reports whether
// more audio is pending, that is whether any instrument is still sounding
// or any note has yet to be triggered.
func (s *Synthesizer) Generate(frame []float64) bool {
	s.trigger()

	n := min(len(frame), s.channels)
	for c := 0; c < n; c++ {
		frame[c] = 0
	}

	for i := 0; i < len(s.active); {
		inst := s.active[i]
		if inst.Generate() {
			for c := 0; c < n; c++ {
				frame[c] += inst.Frame(c)
			}
			i++
			continue
		}
		// Swap the last instrument into slot i; it has not been visited yet.
		last := len(s.active) - 1
		s.active[i] = s.active[last]
		s.active[last] = nil
		s.active = s.active[:last]
	}

	s.advance()

	return len(s.active) > 0 || s.current < len(s.notes)
}

// trigger starts every note whose position has been reached.
func (s *Synthesizer) trigger() {
	for s.current < len(s.notes) {
		note := &s.notes[s.current]
		if note.Measure > s.measure {
			break
		}
		if note.Measure == s.measure && note.Beat > s.beat {
			break
		}
		inst, ok := instrument.New(*note, s.table)
		if ok {
			inst.Start(s.sampleRate)
			s.active = append(s.active, inst)
		}
		if s.onTrigger != nil {
			s.onTrigger(TriggerEvent{Index: s.current, Note: *note, Time: s.time, Skipped: !ok})
		}
		s.current++
	}
}

// advance moves the clock forward by one sample period. At audio rates a
// sample is far shorter than a measure, so at most one rollover happens.
func (s *Synthesizer) advance() {
	s.time += s.samplePeriod
	s.beat += s.samplePeriod / s.secPerBeat
	if s.beat > float64(s.beatsPerMeasure) {
		s.beat -= float64(s.beatsPerMeasure)
		s.measure++
	}
}

// Process fills dst with interleaved float32 frames. Once playback has
// ended the remainder of dst, and every later call, is silent.
func (s *Synthesizer) Process(dst []float32) {
	frames := len(dst) / s.channels
	for f := 0; f < frames; f++ {
		out := dst[f*s.channels : (f+1)*s.channels]
		if s.finished {
			clear(out)
			continue
		}
		more := s.Generate(s.scratch)
		for c, v := range s.scratch {
			out[c] = float32(v)
		}
		if !more {
			s.finished = true
		}
	}
}

// Finished reports whether Process has produced the last frame of the
// score.
func (s *Synthesizer) Finished() bool {
	return s.finished
}
