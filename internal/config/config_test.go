package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/cbegin/synthie-go/internal/log"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "synthie.yml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefault(t *testing.T) {
	c := Default()
	if c.SampleRate != 44100 || c.Channels != 2 || c.Backend != "ebiten" || c.MaxSeconds != 600 {
		t.Fatalf("unexpected defaults: %+v", c)
	}
	if c.Level() != log.LevelInfo {
		t.Fatalf("default level = %v, want INFO", c.Level())
	}
	if err := c.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, "sampleRate: 48000\nbackend: oto\noutput:\n  pcm16: true\n")
	c, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.SampleRate != 48000 || c.Backend != "oto" || !c.Output.PCM16 {
		t.Fatalf("overrides not applied: %+v", c)
	}
	if c.Channels != 2 || c.Output.Normalize {
		t.Fatalf("absent keys should keep defaults: %+v", c)
	}
}

func TestLoadEmptyFile(t *testing.T) {
	c, err := Load(writeConfig(t, ""))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c != Default() {
		t.Fatalf("empty file should yield defaults, got %+v", c)
	}
}

func TestLoadRejects(t *testing.T) {
	cases := map[string]string{
		"unknown key":  "tempo: 90\n",
		"bad rate":     "sampleRate: 0\n",
		"bad channels": "channels: -1\n",
		"bad backend":  "backend: alsa\n",
		"bad cap":      "maxSeconds: 0\n",
		"not yaml":     "sampleRate: [\n",
	}
	for name, body := range cases {
		if _, err := Load(writeConfig(t, body)); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yml")); err == nil {
		t.Fatalf("missing file should fail")
	}
}
