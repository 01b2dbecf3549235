package audio

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"sync"
	"time"
)

// SampleSource produces interleaved float32 frames on demand.
type SampleSource interface {
	Process(dst []float32)
}

// FinishingSource is a SampleSource that can signal when playback has ended.
// When Finished returns true, the stream will return io.EOF on the next Read.
type FinishingSource interface {
	SampleSource
	Finished() bool
}

// StreamReader exposes a SampleSource as a float32 little-endian PCM byte
// stream. The source renders srcChannels per frame; the stream carries
// outChannels per frame, output channel c taking source channel
// c % srcChannels.
type StreamReader struct {
	mu          sync.Mutex
	source      SampleSource
	srcChannels int
	outChannels int
	buf         []float32
	frames      int64
}

func NewStreamReader(source SampleSource, srcChannels, outChannels int) *StreamReader {
	if srcChannels < 1 {
		srcChannels = 1
	}
	if outChannels < 1 {
		outChannels = srcChannels
	}
	return &StreamReader{source: source, srcChannels: srcChannels, outChannels: outChannels}
}

func (r *StreamReader) Read(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	frameBytes := r.outChannels * 4
	frames := len(p) / frameBytes
	if frames == 0 {
		return 0, nil
	}
	need := frames * r.srcChannels
	if cap(r.buf) < need {
		r.buf = make([]float32, need)
	}
	r.buf = r.buf[:need]
	r.source.Process(r.buf)
	for f := 0; f < frames; f++ {
		in := r.buf[f*r.srcChannels:]
		out := p[f*frameBytes:]
		for c := 0; c < r.outChannels; c++ {
			binary.LittleEndian.PutUint32(out[c*4:], math.Float32bits(in[c%r.srcChannels]))
		}
	}
	r.frames += int64(frames)
	n := frames * frameBytes
	if fs, ok := r.source.(FinishingSource); ok && fs.Finished() {
		return n, io.EOF
	}
	return n, nil
}

// Frames returns the number of frames handed out so far.
func (r *StreamReader) Frames() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.frames
}

func (r *StreamReader) Close() error { return nil }

// Backend names an audio output implementation.
type Backend string

const (
	BackendEbiten Backend = "ebiten"
	BackendOto    Backend = "oto"
)

func ParseBackend(s string) (Backend, error) {
	switch b := Backend(s); b {
	case BackendEbiten, BackendOto:
		return b, nil
	case "":
		return BackendEbiten, nil
	default:
		return "", fmt.Errorf("unknown audio backend %q", s)
	}
}

// Player is a running audio output fed by a SampleSource.
type Player interface {
	Play()
	Pause()
	IsPlaying() bool
	// Position returns the current playback position (what the listener
	// actually hears).
	Position() time.Duration
	Stop() error
}

// NewPlayer opens an output on the chosen backend. The source renders
// channels samples per frame at sampleRate.
func NewPlayer(backend Backend, sampleRate, channels int, source SampleSource) (Player, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("sample rate must be positive, got %d", sampleRate)
	}
	switch backend {
	case BackendEbiten, "":
		return newEbitenPlayer(sampleRate, channels, source)
	case BackendOto:
		return newOtoPlayer(sampleRate, channels, source)
	default:
		return nil, fmt.Errorf("unknown audio backend %q", backend)
	}
}
