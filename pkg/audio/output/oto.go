// ABOUTME: Oto-based audio output implementation
// ABOUTME: Pulls float32 frames from the renderer with player-level volume control
package output

import (
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/ebitengine/oto/v3"
	"github.com/seraphwave/seraphwave-go/pkg/audio"
)

// Oto output implementation using oto library
type Oto struct {
	volume

	otoCtx *oto.Context
	params audio.Params
	logger *log.Logger

	// playerMu guards player against volume changes during Open and Close
	playerMu sync.Mutex
	player   *oto.Player
}

// NewOto creates a new Oto output
func NewOto(logger *log.Logger) *Oto {
	o := &Oto{
		volume: newVolume(),
		logger: backendLogger(logger, "oto"),
	}
	o.onSave = func(m float64) {
		o.playerMu.Lock()
		defer o.playerMu.Unlock()
		if o.player != nil {
			o.player.SetVolume(m)
		}
	}
	return o
}

// Open initializes the output device and starts pulling from src
func (o *Oto) Open(params audio.Params, src io.Reader) error {
	// oto allows only one context per process
	if o.otoCtx != nil {
		return fmt.Errorf("oto output already open (%s)", o.params)
	}

	op := &oto.NewContextOptions{
		SampleRate:   params.SampleRate,
		ChannelCount: params.Channels,
		Format:       oto.FormatFloat32LE,
		BufferSize:   params.FramePeriod() / 2,
	}

	ctx, readyChan, err := oto.NewContext(op)
	if err != nil {
		return fmt.Errorf("failed to create oto context: %w", err)
	}

	<-readyChan

	o.otoCtx = ctx
	o.params = params

	player := o.otoCtx.NewPlayer(src)
	player.SetVolume(o.multiplier())
	player.Play()

	o.playerMu.Lock()
	o.player = player
	o.playerMu.Unlock()

	o.logger.Info("Audio output initialized", "params", params)
	return nil
}

// Close releases output resources
func (o *Oto) Close() error {
	o.playerMu.Lock()
	player := o.player
	o.player = nil
	o.playerMu.Unlock()

	if player != nil {
		if err := player.Close(); err != nil {
			o.logger.Warn("Player close failed", "err", err)
		}
	}
	if o.otoCtx != nil {
		if err := o.otoCtx.Suspend(); err != nil {
			return fmt.Errorf("failed to suspend oto context: %w", err)
		}
	}
	return nil
}
