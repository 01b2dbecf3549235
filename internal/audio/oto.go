package audio

import (
	"fmt"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
)

type otoPlayer struct {
	player     *oto.Player
	reader     *StreamReader
	sampleRate int
	channels   int
}

var (
	otoContextOnce sync.Once
	otoContext     *oto.Context
	otoContextErr  error
	otoSampleRate  int
	otoChannels    int
)

// oto allows one context per process; every player shares it.
func sharedOtoContext(sampleRate, channels int) (*oto.Context, error) {
	otoContextOnce.Do(func() {
		otoSampleRate = sampleRate
		otoChannels = channels
		ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
			SampleRate:   sampleRate,
			ChannelCount: channels,
			Format:       oto.FormatFloat32LE,
		})
		if err != nil {
			otoContextErr = fmt.Errorf("oto context: %w", err)
			return
		}
		<-ready
		otoContext = ctx
	})
	if otoContextErr != nil {
		return nil, otoContextErr
	}
	if otoSampleRate != sampleRate || otoChannels != channels {
		return nil, fmt.Errorf("oto context already initialized at %d Hz/%d ch (requested %d Hz/%d ch)",
			otoSampleRate, otoChannels, sampleRate, channels)
	}
	return otoContext, nil
}

func newOtoPlayer(sampleRate, channels int, source SampleSource) (*otoPlayer, error) {
	if channels < 1 {
		channels = ebitenChannels
	}
	ctx, err := sharedOtoContext(sampleRate, channels)
	if err != nil {
		return nil, err
	}
	reader := NewStreamReader(source, channels, channels)
	return &otoPlayer{
		player:     ctx.NewPlayer(reader),
		reader:     reader,
		sampleRate: sampleRate,
		channels:   channels,
	}, nil
}

func (p *otoPlayer) Play()           { p.player.Play() }
func (p *otoPlayer) Pause()          { p.player.Pause() }
func (p *otoPlayer) IsPlaying() bool { return p.player.IsPlaying() }

// Position is the number of frames handed to oto minus what it still holds
// in its buffer.
func (p *otoPlayer) Position() time.Duration {
	frames := p.reader.Frames() - int64(p.player.BufferedSize()/(p.channels*4))
	if frames < 0 {
		frames = 0
	}
	return time.Duration(frames) * time.Second / time.Duration(p.sampleRate)
}

func (p *otoPlayer) Stop() error {
	p.player.Pause()
	if err := p.player.Close(); err != nil {
		return err
	}
	return p.reader.Close()
}
