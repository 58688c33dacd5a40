// ABOUTME: Malgo-based audio output implementation
// ABOUTME: Fills the device callback directly from the renderer
package output

import (
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/gen2brain/malgo"
	"github.com/seraphwave/seraphwave-go/pkg/audio"
)

// Malgo output implementation using miniaudio
type Malgo struct {
	volume

	mu       sync.Mutex
	malgoCtx *malgo.AllocatedContext
	device   *malgo.Device
	src      io.Reader
	params   audio.Params
	logger   *log.Logger
}

// NewMalgo creates a new Malgo output
func NewMalgo(logger *log.Logger) *Malgo {
	return &Malgo{
		volume: newVolume(),
		logger: backendLogger(logger, "malgo"),
	}
}

// Open initializes the playback device
func (m *Malgo) Open(params audio.Params, src io.Reader) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.device != nil {
		return fmt.Errorf("malgo output already open (%s)", m.params)
	}

	if m.malgoCtx == nil {
		ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
		if err != nil {
			return fmt.Errorf("failed to initialize malgo context: %w", err)
		}
		m.malgoCtx = ctx
	}

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Playback)
	deviceConfig.Playback.Format = malgo.FormatF32
	deviceConfig.Playback.Channels = uint32(params.Channels)
	deviceConfig.SampleRate = uint32(params.SampleRate)
	deviceConfig.Alsa.NoMMap = 1

	m.src = src
	m.params = params

	onSamples := func(pOutputSample, pInputSamples []byte, frameCount uint32) {
		m.dataCallback(pOutputSample)
	}

	device, err := malgo.InitDevice(m.malgoCtx.Context, deviceConfig, malgo.DeviceCallbacks{Data: onSamples})
	if err != nil {
		return fmt.Errorf("failed to initialize playback device: %w", err)
	}

	if err := device.Start(); err != nil {
		device.Uninit()
		return fmt.Errorf("failed to start device: %w", err)
	}

	m.device = device
	m.logger.Info("Audio output initialized", "params", params)
	return nil
}

// dataCallback is called by malgo to fill the audio output buffer
func (m *Malgo) dataCallback(out []byte) {
	if _, err := io.ReadFull(m.src, out); err != nil {
		clear(out)
		return
	}
	applyVolume(out, m.multiplier())
}

// Close releases output resources
func (m *Malgo) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.device != nil {
		if err := m.device.Stop(); err != nil {
			m.logger.Warn("Device stop failed", "err", err)
		}
		m.device.Uninit()
		m.device = nil
	}

	if m.malgoCtx != nil {
		if err := m.malgoCtx.Uninit(); err != nil {
			m.logger.Warn("Malgo context uninit failed", "err", err)
		}
		m.malgoCtx.Free()
		m.malgoCtx = nil
	}
	return nil
}
