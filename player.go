// Package synthie plays and renders XML scores through a per-sample
// synthesizer with sine tone and wavetable instruments.
package synthie

import (
	"errors"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/viterin/vek/vek32"

	intaudio "github.com/cbegin/synthie-go/internal/audio"
	intlog "github.com/cbegin/synthie-go/internal/log"
	intsynth "github.com/cbegin/synthie-go/internal/synth"
)

// PlaybackEvent carries playback and trigger events from Watch().
type PlaybackEvent struct {
	Kind    int // EventPlaybackEnded or EventTrigger
	Trigger intsynth.TriggerEvent
}

const (
	EventPlaybackEnded int = iota
	EventTrigger
)

var ErrNoScore = errors.New("no score loaded")

type PlayerOption func(*playerConfig)

type playerConfig struct {
	backend   intaudio.Backend
	channels  int
	logger    *intlog.Logger
	sampleTap func([]float32)
}

func defaultPlayerConfig() playerConfig {
	return playerConfig{backend: intaudio.BackendEbiten, channels: intsynth.DefaultChannels}
}

func WithBackend(backend intaudio.Backend) PlayerOption {
	return func(cfg *playerConfig) {
		cfg.backend = backend
	}
}

// WithChannels sets the number of channels the synthesizer renders.
func WithChannels(channels int) PlayerOption {
	return func(cfg *playerConfig) {
		cfg.channels = channels
	}
}

func WithLogger(logger *intlog.Logger) PlayerOption {
	return func(cfg *playerConfig) {
		cfg.logger = logger
	}
}

// WithSampleTap installs a callback invoked with each generated interleaved
// buffer. The callback runs on the audio thread; keep work brief and
// non-blocking.
func WithSampleTap(tap func([]float32)) PlayerOption {
	return func(cfg *playerConfig) {
		cfg.sampleTap = tap
	}
}

type Player struct {
	mu         sync.Mutex
	sampleRate int
	channels   int
	backend    intaudio.Backend
	logger     *intlog.Logger
	synth      *intsynth.Synthesizer
	audio      intaudio.Player
	session    *session
	volume     atomic.Uint64 // math.Float64bits
	sampleTap  func([]float32)
	eventCh    chan PlaybackEvent
	eventChMu  sync.Mutex
}

// session tracks one Play call; done closes when it ends or is replaced.
type session struct {
	done chan struct{}
	once sync.Once
}

func newSession() *session {
	return &session{done: make(chan struct{})}
}

func (s *session) finish() {
	s.once.Do(func() { close(s.done) })
}

// engineSource adapts a synthesizer to the audio backend, applying the
// master volume and reporting the end of playback once.
type engineSource struct {
	synth     *intsynth.Synthesizer
	volume    *atomic.Uint64
	sampleTap func([]float32)
	onEnd     func()
	ended     bool
}

func (e *engineSource) Process(dst []float32) {
	e.synth.Process(dst)
	if g := math.Float64frombits(e.volume.Load()); g != 1 {
		vek32.MulNumber_Inplace(dst, float32(g))
	}
	if e.sampleTap != nil {
		e.sampleTap(dst)
	}
	if !e.ended && e.synth.Finished() {
		e.ended = true
		if e.onEnd != nil {
			e.onEnd()
		}
	}
}

func (e *engineSource) Finished() bool {
	return e.synth.Finished()
}

func NewPlayer(sampleRate int, opts ...PlayerOption) (*Player, error) {
	if sampleRate <= 0 {
		return nil, errors.New("sampleRate must be positive")
	}
	cfg := defaultPlayerConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if _, err := intaudio.ParseBackend(string(cfg.backend)); err != nil {
		return nil, err
	}
	if cfg.logger == nil {
		cfg.logger = intlog.Discard()
	}
	if cfg.channels <= 0 {
		cfg.channels = intsynth.DefaultChannels
	}
	p := &Player{
		sampleRate: sampleRate,
		channels:   cfg.channels,
		backend:    cfg.backend,
		logger:     cfg.logger,
		sampleTap:  cfg.sampleTap,
	}
	p.volume.Store(math.Float64bits(1))
	return p, nil
}

// Open stops any current playback and loads the score at path. On failure
// the previously loaded score is dropped.
func (p *Player) Open(path string) error {
	if err := p.Stop(); err != nil {
		p.logger.Warnf("stop before open: %v", err)
	}
	s := intsynth.NewWithOptions(intsynth.Options{
		Channels:   p.channels,
		SampleRate: float64(p.sampleRate),
		Logger:     p.logger,
		OnTrigger: func(te intsynth.TriggerEvent) {
			p.sendEvent(PlaybackEvent{Kind: EventTrigger, Trigger: te})
		},
	})
	err := s.OpenScore(path)
	p.mu.Lock()
	defer p.mu.Unlock()
	if err != nil {
		p.synth = nil
		return err
	}
	p.synth = s
	return nil
}

// Play starts the loaded score from the beginning, replacing any current
// playback.
func (p *Player) Play() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.synth == nil {
		return ErrNoScore
	}
	if p.audio != nil {
		_ = p.audio.Stop()
		p.audio = nil
	}
	// Signal any existing Wait() that the previous playback was replaced
	if p.session != nil {
		p.session.finish()
	}
	sess := newSession()
	p.session = sess

	p.synth.Start()
	src := p.newSource(sess)
	backend, err := intaudio.NewPlayer(p.backend, p.sampleRate, p.channels, src)
	if err != nil {
		sess.finish()
		return err
	}
	p.audio = backend
	p.audio.Play()
	p.logger.Debugf("playing on %s at %d Hz, %d channels", p.backend, p.sampleRate, p.channels)
	return nil
}

func (p *Player) newSource(sess *session) *engineSource {
	return &engineSource{
		synth:     p.synth,
		volume:    &p.volume,
		sampleTap: p.sampleTap,
		onEnd: func() {
			p.sendEvent(PlaybackEvent{Kind: EventPlaybackEnded})
			sess.finish()
		},
	}
}

func (p *Player) sendEvent(ev PlaybackEvent) {
	p.eventChMu.Lock()
	ch := p.eventCh
	p.eventChMu.Unlock()
	if ch != nil {
		select {
		case ch <- ev:
		default:
			// Channel full; drop event
		}
	}
}

func (p *Player) Pause() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.audio != nil {
		p.audio.Pause()
	}
}

func (p *Player) Resume() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.audio != nil {
		p.audio.Play()
	}
}

func (p *Player) Stop() error {
	p.mu.Lock()
	if p.audio == nil {
		p.mu.Unlock()
		return nil
	}
	err := p.audio.Stop()
	p.audio = nil
	sess := p.session
	p.session = nil
	p.mu.Unlock()
	p.sendEvent(PlaybackEvent{Kind: EventPlaybackEnded})
	if sess != nil {
		sess.finish()
	}
	return err
}

// Wait blocks until the current playback ends. It returns immediately if
// no playback is active or if it was stopped.
func (p *Player) Wait() {
	p.mu.Lock()
	sess := p.session
	p.mu.Unlock()
	if sess != nil {
		<-sess.done
	}
}

// Watch returns a channel that receives playback events. Events are sent when:
//   - EventTrigger: a note reached its position (Trigger set)
//   - EventPlaybackEnded: the score finished or playback was stopped
//
// The channel is buffered (cap 64); receive in a goroutine to avoid
// dropping events. Only the most recent Watch() channel receives events.
func (p *Player) Watch() <-chan PlaybackEvent {
	ch := make(chan PlaybackEvent, 64)
	p.eventChMu.Lock()
	p.eventCh = ch
	p.eventChMu.Unlock()
	return ch
}

// SetMasterVolume sets runtime volume scalar. 1.0 is default. It takes
// effect on the next buffer handed to the audio backend.
func (p *Player) SetMasterVolume(volume float64) {
	if volume < 0 {
		volume = 0
	}
	p.volume.Store(math.Float64bits(volume))
}

func (p *Player) MasterVolume() float64 {
	return math.Float64frombits(p.volume.Load())
}

// PlaybackPosition returns the current output position of the audio driver,
// i.e. what the listener actually hears right now. Returns 0 if not playing.
func (p *Player) PlaybackPosition() time.Duration {
	p.mu.Lock()
	a := p.audio
	p.mu.Unlock()
	if a == nil {
		return 0
	}
	return a.Position()
}
