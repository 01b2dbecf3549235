package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/term"

	"github.com/cbegin/synthie-go"
	intaudio "github.com/cbegin/synthie-go/internal/audio"
	"github.com/cbegin/synthie-go/internal/config"
	intlog "github.com/cbegin/synthie-go/internal/log"
)

func main() {
	var (
		scorePath  = flag.String("file", "", "path to a score file (further scores may follow as arguments)")
		configPath = flag.String("config", "", "path to a YAML config file")
		outPath    = flag.String("o", "", "write the rendered score to this .wav file, or a directory when several scores are given")
		stdout     = flag.Bool("s", false, "write the rendered .wav to standard output")
		play       = flag.Bool("p", false, "play the score (default when no other output is requested)")
		pcm16      = flag.Bool("c", false, "encode .wav output as 16-bit signed PCM instead of float32")
		normalize  = flag.Bool("normalize", false, "scale rendered output to full scale")
		backend    = flag.String("backend", "", "audio backend: ebiten|oto")
		sampleRate = flag.Int("sample-rate", 0, "output sample rate")
		channels   = flag.Int("channels", 0, "output channel count")
		maxSeconds = flag.Float64("max-seconds", 0, "stop rendering after this many seconds")
		logLevel   = flag.String("log-level", "", "log level: DEBUG|INFO|ERROR|NONE")
	)
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			fatal(err)
		}
	}
	// flags given on the command line win over the config file
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "c":
			cfg.Output.PCM16 = *pcm16
		case "normalize":
			cfg.Output.Normalize = *normalize
		case "backend":
			cfg.Backend = *backend
		case "sample-rate":
			cfg.SampleRate = *sampleRate
		case "channels":
			cfg.Channels = *channels
		case "max-seconds":
			cfg.MaxSeconds = *maxSeconds
		case "log-level":
			cfg.LogLevel = *logLevel
		}
	})
	if err := cfg.Validate(); err != nil {
		fatal(err)
	}
	logger := intlog.New(os.Stderr, cfg.Level())

	var scores []string
	if strings.TrimSpace(*scorePath) != "" {
		scores = append(scores, *scorePath)
	}
	scores = append(scores, flag.Args()...)
	if len(scores) == 0 {
		flag.Usage()
		os.Exit(2)
	}
	if err := checkStdout(*stdout, len(scores), term.IsTerminal(int(os.Stdout.Fd()))); err != nil {
		fatal(err)
	}
	if *outPath == "" && !*stdout {
		*play = true
	}

	var pl *synthie.Player
	if *play {
		b, err := intaudio.ParseBackend(cfg.Backend)
		if err != nil {
			fatal(err)
		}
		pl, err = synthie.NewPlayer(cfg.SampleRate,
			synthie.WithBackend(b),
			synthie.WithChannels(cfg.Channels),
			synthie.WithLogger(logger))
		if err != nil {
			fatal(err)
		}
	}

	retval := 0
	for _, path := range scores {
		if err := process(path, len(scores) > 1, cfg, *outPath, *stdout, pl, logger); err != nil {
			logger.Errorf("%s: %v", path, err)
			retval = 1
		}
	}
	os.Exit(retval)
}

func process(path string, many bool, cfg config.Config, outPath string, stdout bool, pl *synthie.Player, logger *intlog.Logger) error {
	if outPath != "" || stdout {
		samples, err := synthie.RenderFile(path, synthie.RenderOptions{
			SampleRate: cfg.SampleRate,
			Channels:   cfg.Channels,
			MaxSeconds: cfg.MaxSeconds,
			Normalize:  cfg.Output.Normalize,
			Logger:     logger,
		})
		if err != nil {
			return err
		}
		var wav []byte
		if cfg.Output.PCM16 {
			wav = synthie.EncodeWAVPCM16(samples, cfg.SampleRate, cfg.Channels)
		} else {
			wav = synthie.EncodeWAVFloat32LE(samples, cfg.SampleRate, cfg.Channels)
		}
		if stdout {
			if _, err := os.Stdout.Write(wav); err != nil {
				return fmt.Errorf("write stdout: %w", err)
			}
		}
		if outPath != "" {
			dest := outputFile(path, outPath, many)
			if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
				return fmt.Errorf("create output directory: %w", err)
			}
			if err := os.WriteFile(dest, wav, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", dest, err)
			}
			logger.Infof("wrote %s (%.2f s)", dest, float64(len(samples)/cfg.Channels)/float64(cfg.SampleRate))
		}
	}
	if pl == nil {
		return nil
	}
	if err := pl.Open(path); err != nil {
		return err
	}
	events := pl.Watch()
	stop := make(chan struct{})
	go logTriggers(events, stop, logger)
	defer close(stop)
	if err := pl.Play(); err != nil {
		return err
	}
	pl.Wait()
	logger.Infof("playback completed")
	return pl.Stop()
}

func logTriggers(events <-chan synthie.PlaybackEvent, stop <-chan struct{}, logger *intlog.Logger) {
	for {
		select {
		case <-stop:
			return
		case ev := <-events:
			if ev.Kind != synthie.EventTrigger {
				continue
			}
			te := ev.Trigger
			if te.Skipped {
				logger.Debugf("skipped note %d (%s)", te.Index, te.Note.Instrument)
				continue
			}
			logger.Debugf("note %d at measure %d beat %g (%s %s)", te.Index, te.Note.Measure, te.Note.Beat, te.Note.Instrument, te.Note.Pitch)
		}
	}
}

// checkStdout rejects -s when the .wav bytes would land on a terminal or
// when several scores would be concatenated into one stream.
func checkStdout(stdout bool, scores int, terminal bool) error {
	if !stdout {
		return nil
	}
	if terminal {
		return errors.New("refusing to write binary .wav data to a terminal; redirect standard output")
	}
	if scores > 1 {
		return fmt.Errorf("-s writes a single .wav; got %d scores, use -o with a directory instead", scores)
	}
	return nil
}

// outputFile names the .wav for a score. With several scores, out is a
// directory and each score keeps its base name.
func outputFile(scorePath, out string, many bool) string {
	if !many {
		return out
	}
	name := filepath.Base(scorePath)
	name = strings.TrimSuffix(name, filepath.Ext(name)) + ".wav"
	return filepath.Join(out, name)
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, "synthie:", err)
	os.Exit(1)
}
