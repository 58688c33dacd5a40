// ABOUTME: Environment configuration for the seraphwave CLI
// ABOUTME: Loads .env files, then SERAPHWAVE_* variables, with flag overrides applied by main
package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/seraphwave/seraphwave-go/pkg/audio"
	"github.com/sethvargo/go-envconfig"
)

// Config is the CLI configuration
type Config struct {
	MetaURL  string `env:"SERAPHWAVE_META_URL"`
	Discover bool   `env:"SERAPHWAVE_DISCOVER"`
	Dummy    bool   `env:"SERAPHWAVE_DUMMY"`
	Gateway  string `env:"SERAPHWAVE_GATEWAY_URL"` // websocket URL used with Dummy

	Code string `env:"SERAPHWAVE_CODE"`
	UUID string `env:"SERAPHWAVE_UUID"`

	Codec      string `env:"SERAPHWAVE_CODEC, default=opus"`
	SampleRate int    `env:"SERAPHWAVE_SAMPLE_RATE, default=48000"`
	Channels   int    `env:"SERAPHWAVE_CHANNELS, default=2"`
	BitDepth   int    `env:"SERAPHWAVE_BIT_DEPTH, default=16"`
	MsPerFrame int    `env:"SERAPHWAVE_MS_PER_FRAME, default=60"`

	Input  string `env:"SERAPHWAVE_INPUT, default=device"`
	Output string `env:"SERAPHWAVE_OUTPUT, default=oto"`
	Volume int    `env:"SERAPHWAVE_VOLUME, default=100"`

	ConnectTimeout time.Duration `env:"SERAPHWAVE_CONNECT_TIMEOUT, default=10s"`

	LogFile     string `env:"SERAPHWAVE_LOG_FILE, default=seraphwave.log"`
	LogLevel    string `env:"SERAPHWAVE_LOG_LEVEL, default=info"`
	NoTUI       bool   `env:"SERAPHWAVE_NO_TUI"`
	MetricsAddr string `env:"SERAPHWAVE_METRICS_ADDR"`
}

// Load reads the given .env files (default ".env"), skipping missing ones,
// then processes the environment. Variables already set win over the files.
func Load(ctx context.Context, envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", f, err)
		}
	}

	var cfg Config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment: %w", err)
	}
	return &cfg, nil
}

// LoadFrom processes variables from l instead of the process environment
func LoadFrom(ctx context.Context, l envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: l}); err != nil {
		return nil, fmt.Errorf("failed to process environment: %w", err)
	}
	return &cfg, nil
}

// Format returns the session audio format
func (c *Config) Format() audio.Format {
	return audio.Format{
		Codec:  c.Codec,
		Params: audio.NewParams(c.SampleRate, c.Channels, c.BitDepth, c.MsPerFrame),
	}
}

// Validate reports settings the client cannot run with
func (c *Config) Validate() error {
	switch c.Codec {
	case audio.CodecOpus, audio.CodecPCM:
	default:
		return fmt.Errorf("unsupported codec %q (supported: opus, pcm)", c.Codec)
	}

	if err := c.Format().Validate(); err != nil {
		return err
	}

	if _, err := ParseInput(c.Input); err != nil {
		return err
	}

	sources := 0
	for _, set := range []bool{c.MetaURL != "", c.Discover, c.Dummy} {
		if set {
			sources++
		}
	}
	if sources != 1 {
		return errors.New("exactly one of meta url, discover or dummy must be set")
	}

	if c.Volume < 0 || c.Volume > 100 {
		return fmt.Errorf("volume %d out of range 0-100", c.Volume)
	}
	return nil
}

// InputKind names an uplink source
type InputKind string

const (
	InputDevice InputKind = "device"
	InputTone   InputKind = "tone"
	InputMP3    InputKind = "mp3"
	InputFLAC   InputKind = "flac"
	InputOgg    InputKind = "ogg"
	InputNone   InputKind = "none"
)

// Input is a parsed -input value
type Input struct {
	Kind InputKind
	Path string
}

// ParseInput parses device, tone, none, mp3:PATH, flac:PATH or ogg:PATH
func ParseInput(s string) (Input, error) {
	kind, path, hasPath := strings.Cut(s, ":")

	switch InputKind(kind) {
	case InputDevice, InputTone, InputNone:
		if hasPath {
			return Input{}, fmt.Errorf("input %q takes no path", kind)
		}
		return Input{Kind: InputKind(kind)}, nil
	case InputMP3, InputFLAC, InputOgg:
		if path == "" {
			return Input{}, fmt.Errorf("input %q needs a file path, e.g. %s:voice.%s", kind, kind, kind)
		}
		return Input{Kind: InputKind(kind), Path: path}, nil
	default:
		return Input{}, fmt.Errorf("unknown input %q (supported: device, tone, mp3:PATH, flac:PATH, ogg:PATH, none)", s)
	}
}
