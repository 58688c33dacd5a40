// ABOUTME: Tests for CLI configuration
// ABOUTME: Covers defaults, overrides, .env loading and validation
package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/seraphwave/seraphwave-go/pkg/audio"
	"github.com/sethvargo/go-envconfig"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg, err := LoadFrom(context.Background(), envconfig.MapLookuper(map[string]string{}))
	require.NoError(t, err)

	assert.Equal(t, audio.CodecOpus, cfg.Codec)
	assert.Equal(t, "device", cfg.Input)
	assert.Equal(t, "oto", cfg.Output)
	assert.Equal(t, 100, cfg.Volume)
	assert.Equal(t, 10*time.Second, cfg.ConnectTimeout)
	assert.Equal(t, "seraphwave.log", cfg.LogFile)
	assert.Equal(t, audio.Format{Codec: audio.CodecOpus, Params: audio.DefaultParams()}, cfg.Format())
}

func TestOverrides(t *testing.T) {
	cfg, err := LoadFrom(context.Background(), envconfig.MapLookuper(map[string]string{
		"SERAPHWAVE_META_URL":        "http://mc.example:8080/",
		"SERAPHWAVE_CODEC":           "pcm",
		"SERAPHWAVE_CHANNELS":        "1",
		"SERAPHWAVE_MS_PER_FRAME":    "20",
		"SERAPHWAVE_CONNECT_TIMEOUT": "3s",
		"SERAPHWAVE_NO_TUI":          "true",
	}))
	require.NoError(t, err)

	assert.Equal(t, "http://mc.example:8080/", cfg.MetaURL)
	assert.True(t, cfg.NoTUI)
	assert.Equal(t, 3*time.Second, cfg.ConnectTimeout)

	f := cfg.Format()
	assert.Equal(t, audio.CodecPCM, f.Codec)
	assert.Equal(t, 960, f.FrameSize)
	assert.Equal(t, 1920, f.PacketSize)
	assert.NoError(t, cfg.Validate())
}

func TestLoadDotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("SERAPHWAVE_CODE=ABC-123-XYZ\nSERAPHWAVE_DUMMY=true\n"), 0o600))

	t.Setenv("SERAPHWAVE_CODE", "")
	os.Unsetenv("SERAPHWAVE_CODE")
	t.Setenv("SERAPHWAVE_DUMMY", "false")

	cfg, err := Load(context.Background(), path, filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "ABC-123-XYZ", cfg.Code)
	assert.False(t, cfg.Dummy, "the environment wins over the file")
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		cfg, err := LoadFrom(context.Background(), envconfig.MapLookuper(map[string]string{
			"SERAPHWAVE_DUMMY": "true",
		}))
		require.NoError(t, err)
		return cfg
	}

	require.NoError(t, base().Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"codec", func(c *Config) { c.Codec = "flac" }},
		{"bit depth", func(c *Config) { c.BitDepth = 8 }},
		{"channels", func(c *Config) { c.Channels = 6 }},
		{"opus frame length", func(c *Config) { c.MsPerFrame = 30 }},
		{"opus sample rate", func(c *Config) { c.SampleRate = 44100 }},
		{"input", func(c *Config) { c.Input = "mp3" }},
		{"no source", func(c *Config) { c.Dummy = false }},
		{"two sources", func(c *Config) { c.Discover = true }},
		{"volume", func(c *Config) { c.Volume = 101 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}

	// PCM sessions are not bound by the Opus limits
	pcm := base()
	pcm.Codec = "pcm"
	pcm.SampleRate = 44100
	pcm.MsPerFrame = 30
	assert.NoError(t, pcm.Validate())
}

func TestParseInput(t *testing.T) {
	tests := []struct {
		in      string
		want    Input
		wantErr bool
	}{
		{"device", Input{Kind: InputDevice}, false},
		{"tone", Input{Kind: InputTone}, false},
		{"none", Input{Kind: InputNone}, false},
		{"mp3:/tmp/a.mp3", Input{Kind: InputMP3, Path: "/tmp/a.mp3"}, false},
		{"flac:voice.flac", Input{Kind: InputFLAC, Path: "voice.flac"}, false},
		{"flac:", Input{}, true},
		{"ogg:C:/voice.opus", Input{Kind: InputOgg, Path: "C:/voice.opus"}, false},
		{"mp3:", Input{}, true},
		{"tone:x", Input{}, true},
		{"mic", Input{}, true},
	}

	for _, tt := range tests {
		got, err := ParseInput(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}
}
