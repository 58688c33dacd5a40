// ABOUTME: Microphone capture through miniaudio
// ABOUTME: The device callback feeds a chunk buffer that ReadChunk drains
package capture

import (
	"context"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/gen2brain/malgo"
	"github.com/seraphwave/seraphwave-go/pkg/audio"
)

// deviceBufferChunks is how many chunks the device may run ahead of the pipeline
const deviceBufferChunks = 8

// Device captures from the default input device. Chunks arrive in the
// device's own channel layout; Pipeline remixes mono to stereo.
type Device struct {
	// Channels requested from the device (1 or 2). Zero uses the session layout.
	Channels int
	Logger   *log.Logger

	mu       sync.Mutex
	malgoCtx *malgo.AllocatedContext
	device   *malgo.Device
	buf      *chunkBuffer
	chunk    int
}

// Open starts capturing
func (d *Device) Open(params audio.Params) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.device != nil {
		return fmt.Errorf("capture device already open")
	}
	if d.Logger == nil {
		d.Logger = log.Default()
	}
	d.Logger = d.Logger.WithPrefix("capture")

	channels := d.Channels
	if channels == 0 {
		channels = params.Channels
	}
	if channels < 1 || channels > 2 {
		return fmt.Errorf("unsupported capture channel count: %d", channels)
	}

	format := malgo.FormatS16
	if params.BitDepth == 24 {
		format = malgo.FormatS24
	}

	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return fmt.Errorf("failed to initialize malgo context: %w", err)
	}

	d.chunk = params.PacketSize * channels / params.Channels
	d.buf = newChunkBuffer(d.chunk * deviceBufferChunks)

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Capture)
	deviceConfig.Capture.Format = format
	deviceConfig.Capture.Channels = uint32(channels)
	deviceConfig.SampleRate = uint32(params.SampleRate)
	deviceConfig.Alsa.NoMMap = 1

	buf := d.buf
	onSamples := func(pOutputSample, pInputSamples []byte, frameCount uint32) {
		_, _ = buf.Write(pInputSamples)
	}

	device, err := malgo.InitDevice(ctx.Context, deviceConfig, malgo.DeviceCallbacks{Data: onSamples})
	if err != nil {
		_ = ctx.Uninit()
		ctx.Free()
		return fmt.Errorf("failed to initialize capture device: %w", err)
	}

	if err := device.Start(); err != nil {
		device.Uninit()
		_ = ctx.Uninit()
		ctx.Free()
		return fmt.Errorf("failed to start capture device: %w", err)
	}

	d.malgoCtx = ctx
	d.device = device
	d.Logger.Info("Capture started", "params", params, "channels", channels)
	return nil
}

// ReadChunk returns the next captured chunk
func (d *Device) ReadChunk(ctx context.Context) ([]byte, error) {
	d.mu.Lock()
	buf, size := d.buf, d.chunk
	d.mu.Unlock()

	if buf == nil {
		return nil, fmt.Errorf("capture device not open")
	}

	chunk := make([]byte, size)
	if err := buf.ReadChunk(ctx, chunk); err != nil {
		return nil, err
	}
	return chunk, nil
}

// Overruns reports chunks dropped because the pipeline fell behind
func (d *Device) Overruns() uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.buf == nil {
		return 0
	}
	return d.buf.Overruns()
}

// Close stops the device. Pending ReadChunk calls return io.EOF.
func (d *Device) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.device != nil {
		if err := d.device.Stop(); err != nil {
			d.Logger.Warn("Capture stop failed", "err", err)
		}
		d.device.Uninit()
		d.device = nil
	}
	if d.buf != nil {
		d.buf.Close()
	}
	if d.malgoCtx != nil {
		if err := d.malgoCtx.Uninit(); err != nil {
			d.Logger.Warn("Malgo context uninit failed", "err", err)
		}
		d.malgoCtx.Free()
		d.malgoCtx = nil
	}
	return nil
}
