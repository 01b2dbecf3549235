package wavetable

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/hajimehoshi/ebiten/v2/audio/wav"
)

// Sample is a decoded, in-memory PCM source. Data is interleaved by
// channel. A Sample is read-only once built and may be shared by any
// number of players.
type Sample struct {
	Data       []float32
	Channels   int
	SampleRate int
	Path       string
}

// NewSample wraps interleaved data. channels < 1 is treated as mono.
func NewSample(data []float32, channels int, sampleRate int) *Sample {
	if channels < 1 {
		channels = 1
	}
	return &Sample{Data: data, Channels: channels, SampleRate: sampleRate}
}

// Frames returns the number of whole frames in the sample.
func (s *Sample) Frames() int {
	if s == nil || s.Channels == 0 {
		return 0
	}
	return len(s.Data) / s.Channels
}

// At returns channel c of the given frame. Output channels beyond the
// source's channel count wrap around, and frames outside the data are
// silent.
func (s *Sample) At(frame int, c int) float64 {
	if s == nil || frame < 0 || frame >= s.Frames() {
		return 0
	}
	return float64(s.Data[frame*s.Channels+c%s.Channels])
}

// Decode reads a RIFF/WAVE stream into a stereo float Sample without
// resampling.
func Decode(r io.Reader) (*Sample, error) {
	stream, err := wav.DecodeF32(r)
	if err != nil {
		return nil, fmt.Errorf("decode wav: %w", err)
	}
	raw, err := io.ReadAll(stream)
	if err != nil {
		return nil, fmt.Errorf("read wav samples: %w", err)
	}
	data := make([]float32, len(raw)/4)
	for i := range data {
		data[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[i*4:]))
	}
	return &Sample{Data: data, Channels: 2, SampleRate: stream.SampleRate()}, nil
}

// DecodeFile decodes the wave file at path.
func DecodeFile(path string) (*Sample, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read wave %s: %w", path, err)
	}
	s, err := Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	s.Path = path
	return s, nil
}

// Table is the ordered set of samples referenced by wavetable notes.
type Table struct {
	samples []*Sample
}

func New(samples ...*Sample) *Table {
	return &Table{samples: samples}
}

// Load decodes every path in order; index i of the table is paths[i].
func Load(paths []string) (*Table, error) {
	t := &Table{samples: make([]*Sample, 0, len(paths))}
	for _, p := range paths {
		s, err := DecodeFile(p)
		if err != nil {
			return nil, err
		}
		t.samples = append(t.samples, s)
	}
	return t, nil
}

func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.samples)
}

// Get returns the sample at index. Out-of-range indices select entry 0;
// nil is returned only for an empty table.
func (t *Table) Get(index int) *Sample {
	if t.Len() == 0 {
		return nil
	}
	if index < 0 || index >= len(t.samples) {
		index = 0
	}
	return t.samples[index]
}
