// ABOUTME: Audio output interface definition
// ABOUTME: Common interface for pull-based playback backends
package output

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/seraphwave/seraphwave-go/pkg/audio"
)

// Output plays audio pulled from a source. The source yields interleaved
// float32 little-endian samples at the session sample rate and channel
// count, and must never block.
type Output interface {
	// Open initializes the device and starts pulling from src
	Open(params audio.Params, src io.Reader) error

	// Close stops playback and releases resources
	Close() error
}

// New returns the backend with the given name. Device backends log through
// logger, or log.Default when it is nil.
func New(name string, logger *log.Logger) (Output, error) {
	switch name {
	case "", "oto":
		return NewOto(logger), nil
	case "malgo":
		return NewMalgo(logger), nil
	case "null":
		return NewNull(), nil
	default:
		return nil, fmt.Errorf("unknown output %q (supported: oto, malgo, null)", name)
	}
}

// BytesPerSample is the size of one float32 sample on the wire to the device
const BytesPerSample = 4

// volume holds software volume and mute state shared by the backends
type volume struct {
	mu     sync.RWMutex
	level  int
	muted  bool
	onSave func(multiplier float64)
}

func backendLogger(logger *log.Logger, prefix string) *log.Logger {
	if logger == nil {
		logger = log.Default()
	}
	return logger.WithPrefix(prefix)
}

func newVolume() volume {
	return volume{level: 100}
}

// SetVolume sets the volume (0-100)
func (v *volume) SetVolume(level int) {
	if level < 0 {
		level = 0
	}
	if level > 100 {
		level = 100
	}
	v.mu.Lock()
	v.level = level
	v.mu.Unlock()
	v.changed()
}

// SetMuted sets mute state
func (v *volume) SetMuted(muted bool) {
	v.mu.Lock()
	v.muted = muted
	v.mu.Unlock()
	v.changed()
}

// GetVolume returns current volume
func (v *volume) GetVolume() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.level
}

// IsMuted returns mute state
func (v *volume) IsMuted() bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.muted
}

func (v *volume) multiplier() float64 {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return getVolumeMultiplier(v.level, v.muted)
}

func (v *volume) changed() {
	if v.onSave != nil {
		v.onSave(v.multiplier())
	}
}

// getVolumeMultiplier calculates volume multiplier
func getVolumeMultiplier(level int, muted bool) float64 {
	if muted {
		return 0.0
	}
	return float64(level) / 100.0
}

// applyVolume scales float32 LE samples in place, clamping to [-1, 1]
func applyVolume(buf []byte, multiplier float64) {
	if multiplier == 1 {
		return
	}
	for i := 0; i+BytesPerSample <= len(buf); i += BytesPerSample {
		s := float64(math.Float32frombits(binary.LittleEndian.Uint32(buf[i:]))) * multiplier
		s = math.Max(-1, math.Min(1, s))
		binary.LittleEndian.PutUint32(buf[i:], math.Float32bits(float32(s)))
	}
}
