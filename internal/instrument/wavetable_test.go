package instrument

import (
	"math"
	"testing"

	"github.com/cbegin/synthie-go/internal/score"
	"github.com/cbegin/synthie-go/internal/wavetable"
)

// rampSample returns a mono sample whose value at frame i is i+1, so the
// frame being read can be recovered from the output.
func rampSample(frames int) *wavetable.Sample {
	data := make([]float32, frames)
	for i := range data {
		data[i] = float32(i + 1)
	}
	return wavetable.NewSample(data, 1, 1000)
}

func TestWavetableLoopRestarts(t *testing.T) {
	const sr = 1000.0
	table := wavetable.New(rampSample(2000))
	n := score.Note{
		Instrument: score.KindWavetable,
		Duration:   1.3,
		Wave:       &score.WaveNote{Index: 0, LoopStart: 0.2, LoopEnd: 0.5},
	}
	w := NewWavetable(n, table)
	w.Start(sr)

	var restarts []float64
	frames := 0
	for {
		more := w.Generate()
		if w.cursor == 0 {
			restarts = append(restarts, w.time)
		}
		if !more {
			break
		}
		frames++
	}
	want := []float64{0.5, 0.8, 1.1}
	if len(restarts) != len(want) {
		t.Fatalf("restarts at %v, want %v", restarts, want)
	}
	for i := range want {
		if math.Abs(restarts[i]-want[i]) > 5/sr {
			t.Errorf("restart %d at %v, want %v", i, restarts[i], want[i])
		}
	}
	if w.Restarts() != 3 {
		t.Fatalf("Restarts() = %d, want 3", w.Restarts())
	}
	if math.Abs(float64(frames)-1.3*sr) > 2 {
		t.Fatalf("played %d frames, want ~%v", frames, 1.3*sr)
	}
}

func TestWavetableReadsFromStartAfterRestart(t *testing.T) {
	const sr = 1000.0
	table := wavetable.New(rampSample(2000))
	n := score.Note{
		Instrument: score.KindWavetable,
		Duration:   1.0,
		Wave:       &score.WaveNote{LoopStart: 0.1, LoopEnd: 0.3},
	}
	w := NewWavetable(n, table)
	w.Start(sr)
	sawRewind := false
	for w.Generate() {
		if w.gain == 0 {
			continue
		}
		idx := int(math.Round(w.Frame(0)/w.gain)) - 1
		if idx != w.frame {
			t.Fatalf("frame value maps to %d, cursor says %d", idx, w.frame)
		}
		if w.time > 0.35 && w.frame < 10 {
			sawRewind = true
		}
	}
	if !sawRewind {
		t.Fatalf("cursor never returned to the start of the sample")
	}
}

func TestWavetableWithoutLoopPlaysThrough(t *testing.T) {
	table := wavetable.New(rampSample(100))
	w := NewWavetable(score.Note{Instrument: score.KindWavetable, Duration: 0.2}, table)
	w.Start(1000)
	last := 0.0
	for w.Generate() {
		last = w.Frame(0)
	}
	if w.Restarts() != 0 {
		t.Fatalf("unexpected restarts: %d", w.Restarts())
	}
	if last != 0 {
		t.Fatalf("reading past the end of the sample should be silent, got %v", last)
	}
}

func TestWavetableClampsIndexAndMapsChannels(t *testing.T) {
	stereo := wavetable.NewSample([]float32{0.5, -0.5, 0.5, -0.5}, 2, 1000)
	other := wavetable.NewSample([]float32{0.9, 0.9}, 1, 1000)
	table := wavetable.New(stereo, other)
	n := score.Note{Instrument: score.KindWavetable, Duration: 1, Wave: &score.WaveNote{Index: 5}}
	w := NewWavetable(n, table)
	if w.src != stereo {
		t.Fatalf("out-of-range index should select entry 0")
	}
	w.Start(1000)
	w.Generate()
	w.Generate()
	g := w.gain
	if g <= 0 {
		t.Fatalf("expected a non-zero gain on the second frame")
	}
	if w.Frame(0) != 0.5*g || w.Frame(1) != -0.5*g || w.Frame(2) != 0.5*g {
		t.Fatalf("channel mapping wrong: %v %v %v", w.Frame(0), w.Frame(1), w.Frame(2))
	}
}

func TestWavetableEmptyTableIsSilent(t *testing.T) {
	w := NewWavetable(score.Note{Instrument: score.KindWavetable, Duration: 0.1}, wavetable.New())
	w.Start(1000)
	for w.Generate() {
		if w.Frame(0) != 0 {
			t.Fatalf("empty table should be silent")
		}
	}
}

func TestNewDispatchesByKind(t *testing.T) {
	table := wavetable.New(rampSample(10))
	if inst, ok := New(score.Note{Instrument: score.KindTone, Duration: 1}, table); !ok {
		t.Fatalf("tone not recognized")
	} else if _, isTone := inst.(*Tone); !isTone {
		t.Fatalf("tone note built %T", inst)
	}
	if inst, ok := New(score.Note{Instrument: score.KindWavetable, Duration: 1}, table); !ok {
		t.Fatalf("wavetable not recognized")
	} else if _, isWT := inst.(*Wavetable); !isWT {
		t.Fatalf("wavetable note built %T", inst)
	}
	if _, ok := New(score.Note{Instrument: "Kazoo"}, table); ok {
		t.Fatalf("unknown tag should not build an instrument")
	}
}
