package audio

import (
	"encoding/binary"
	"io"
	"math"
	"testing"
)

// rampSource writes frame index*0.01 + channel into each sample.
type rampSource struct {
	channels int
	next     int
	limit    int
}

func (s *rampSource) Process(dst []float32) {
	for f := 0; f+s.channels <= len(dst); f += s.channels {
		for c := 0; c < s.channels; c++ {
			dst[f+c] = float32(s.next)*0.01 + float32(c)
		}
		s.next++
	}
}

func (s *rampSource) Finished() bool { return s.limit > 0 && s.next >= s.limit }

func sampleAt(p []byte, i int) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(p[i*4:]))
}

func TestStreamReaderPassesChannelsThrough(t *testing.T) {
	src := &rampSource{channels: 3}
	r := NewStreamReader(src, 3, 3)
	p := make([]byte, 4*3*4)
	n, err := r.Read(p)
	if err != nil || n != len(p) {
		t.Fatalf("read = %d, %v", n, err)
	}
	for f := 0; f < 4; f++ {
		for c := 0; c < 3; c++ {
			want := float32(f)*0.01 + float32(c)
			if got := sampleAt(p, f*3+c); got != want {
				t.Fatalf("frame %d ch %d = %v, want %v", f, c, got, want)
			}
		}
	}
	if r.Frames() != 4 {
		t.Fatalf("frames = %d, want 4", r.Frames())
	}
}

func TestStreamReaderMapsMonoToStereo(t *testing.T) {
	src := &rampSource{channels: 1}
	r := NewStreamReader(src, 1, 2)
	p := make([]byte, 3*2*4)
	if _, err := r.Read(p); err != nil {
		t.Fatalf("read: %v", err)
	}
	for f := 0; f < 3; f++ {
		if sampleAt(p, 2*f) != sampleAt(p, 2*f+1) {
			t.Fatalf("frame %d: mono source should fill both channels", f)
		}
	}
}

func TestStreamReaderIgnoresPartialFrames(t *testing.T) {
	r := NewStreamReader(&rampSource{channels: 2}, 2, 2)
	n, err := r.Read(make([]byte, 7))
	if n != 0 || err != nil {
		t.Fatalf("read of a partial frame = %d, %v", n, err)
	}
}

func TestStreamReaderReportsEOF(t *testing.T) {
	src := &rampSource{channels: 2, limit: 4}
	r := NewStreamReader(src, 2, 2)
	p := make([]byte, 4*2*4)
	n, err := r.Read(p)
	if n != len(p) {
		t.Fatalf("read %d bytes, want %d", n, len(p))
	}
	if err != io.EOF {
		t.Fatalf("expected io.EOF once the source finished, got %v", err)
	}
}

func TestParseBackend(t *testing.T) {
	for in, want := range map[string]Backend{"": BackendEbiten, "ebiten": BackendEbiten, "oto": BackendOto} {
		got, err := ParseBackend(in)
		if err != nil || got != want {
			t.Errorf("ParseBackend(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseBackend("alsa"); err == nil {
		t.Fatalf("expected error for unknown backend")
	}
}
