package audio

import (
	"fmt"
	"sync"
	"time"

	ebitaudio "github.com/hajimehoshi/ebiten/v2/audio"
)

// ebiten's audio context is always stereo; sources with other channel
// counts are mapped onto two output channels.
const ebitenChannels = 2

type ebitenPlayer struct {
	player *ebitaudio.Player
	reader *StreamReader
}

var (
	audioContextOnce sync.Once
	audioContext     *ebitaudio.Context
	audioSampleRate  int
)

func sharedAudioContext(sampleRate int) (*ebitaudio.Context, error) {
	audioContextOnce.Do(func() {
		audioSampleRate = sampleRate
		audioContext = ebitaudio.NewContext(sampleRate)
	})
	if audioSampleRate != sampleRate {
		return nil, fmt.Errorf("audio context already initialized at %d Hz (requested %d Hz)", audioSampleRate, sampleRate)
	}
	return audioContext, nil
}

func newEbitenPlayer(sampleRate, channels int, source SampleSource) (*ebitenPlayer, error) {
	ctx, err := sharedAudioContext(sampleRate)
	if err != nil {
		return nil, err
	}
	reader := NewStreamReader(source, channels, ebitenChannels)
	pl, err := ctx.NewPlayerF32(reader)
	if err != nil {
		return nil, fmt.Errorf("ebiten player: %w", err)
	}
	return &ebitenPlayer{player: pl, reader: reader}, nil
}

func (p *ebitenPlayer) Play()                   { p.player.Play() }
func (p *ebitenPlayer) Pause()                  { p.player.Pause() }
func (p *ebitenPlayer) IsPlaying() bool         { return p.player.IsPlaying() }
func (p *ebitenPlayer) Position() time.Duration { return p.player.Position() }

func (p *ebitenPlayer) Stop() error {
	p.player.Pause()
	if err := p.player.Close(); err != nil {
		return err
	}
	return p.reader.Close()
}
