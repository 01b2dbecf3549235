package synthie

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/viterin/vek/vek32"

	intlog "github.com/cbegin/synthie-go/internal/log"
	intsynth "github.com/cbegin/synthie-go/internal/synth"
)

// DefaultMaxSeconds caps offline renders of scores that never finish.
const DefaultMaxSeconds = 600.0

var ErrNoAudio = errors.New("score produced no audio")

// Render runs a loaded, started synthesizer until nothing is pending or
// maxSeconds of audio have been produced, and returns the interleaved
// frames. The frame on which the synthesizer reports completion is
// included.
func Render(s *intsynth.Synthesizer, maxSeconds float64) []float32 {
	if maxSeconds <= 0 {
		maxSeconds = DefaultMaxSeconds
	}
	channels := s.Channels()
	limit := int(maxSeconds * s.SampleRate())
	frame := make([]float64, channels)
	out := make([]float32, 0, channels*int(s.SampleRate()))
	for n := 0; n < limit; n++ {
		more := s.Generate(frame)
		for _, v := range frame {
			out = append(out, float32(v))
		}
		if !more {
			break
		}
	}
	return out
}

type RenderOptions struct {
	SampleRate int
	Channels   int
	MaxSeconds float64
	// Normalize scales the render so its peak sits at full scale.
	Normalize bool
	Logger    *intlog.Logger
}

// RenderFile loads the score at path and renders it offline.
func RenderFile(path string, opts RenderOptions) ([]float32, error) {
	s := intsynth.NewWithOptions(intsynth.Options{
		Channels:   opts.Channels,
		SampleRate: float64(opts.SampleRate),
		Logger:     opts.Logger,
	})
	if err := s.OpenScore(path); err != nil {
		return nil, err
	}
	s.Start()
	samples := Render(s, opts.MaxSeconds)
	if len(samples) == 0 {
		return nil, fmt.Errorf("%s: %w", path, ErrNoAudio)
	}
	if opts.Normalize {
		Normalize(samples)
	}
	return samples, nil
}

// Normalize scales samples in place so the largest magnitude becomes 1.
// Silent buffers are left untouched. It returns the gain applied.
func Normalize(samples []float32) float32 {
	if len(samples) == 0 {
		return 1
	}
	peak := vek32.Max(vek32.Abs(samples))
	if peak == 0 {
		return 1
	}
	gain := 1 / peak
	vek32.MulNumber_Inplace(samples, gain)
	return gain
}

func EncodeWAVFloat32LE(samples []float32, sampleRate int, channels int) []byte {
	dataSize := len(samples) * 4
	out := make([]byte, 44+dataSize)
	putWAVHeader(out, 3, 4, dataSize, sampleRate, channels)
	for i, s := range samples {
		binary.LittleEndian.PutUint32(out[44+i*4:], math.Float32bits(s))
	}
	return out
}

// EncodeWAVPCM16 writes 16-bit integer PCM. Samples outside [-1, 1] are
// clipped.
func EncodeWAVPCM16(samples []float32, sampleRate int, channels int) []byte {
	dataSize := len(samples) * 2
	out := make([]byte, 44+dataSize)
	putWAVHeader(out, 1, 2, dataSize, sampleRate, channels)
	for i, s := range samples {
		v := math.Round(float64(s) * math.MaxInt16)
		v = math.Max(math.MinInt16, math.Min(math.MaxInt16, v))
		binary.LittleEndian.PutUint16(out[44+i*2:], uint16(int16(v)))
	}
	return out
}

func putWAVHeader(out []byte, format, bytesPerSample, dataSize, sampleRate, channels int) {
	copy(out[0:], []byte("RIFF"))
	binary.LittleEndian.PutUint32(out[4:], uint32(36+dataSize))
	copy(out[8:], []byte("WAVE"))
	copy(out[12:], []byte("fmt "))
	binary.LittleEndian.PutUint32(out[16:], 16)
	binary.LittleEndian.PutUint16(out[20:], uint16(format))
	binary.LittleEndian.PutUint16(out[22:], uint16(channels))
	binary.LittleEndian.PutUint32(out[24:], uint32(sampleRate))
	binary.LittleEndian.PutUint32(out[28:], uint32(sampleRate*channels*bytesPerSample))
	binary.LittleEndian.PutUint16(out[32:], uint16(channels*bytesPerSample))
	binary.LittleEndian.PutUint16(out[34:], uint16(8*bytesPerSample))
	copy(out[36:], []byte("data"))
	binary.LittleEndian.PutUint32(out[40:], uint32(dataSize))
}
