// ABOUTME: Capture source interfaces and shared helpers
// ABOUTME: Sources yield PCM chunks or pre-encoded frames at the session pace
package capture

import (
	"context"
	"time"

	"github.com/seraphwave/seraphwave-go/pkg/audio"
)

// Source yields raw PCM chunks at params.BitDepth, little-endian and
// interleaved. A chunk normally holds one frame (params.PacketSize bytes);
// a mono source yields half that.
type Source interface {
	Open(params audio.Params) error
	// ReadChunk blocks until a chunk is ready. It returns io.EOF when the
	// source is exhausted or closed, and ctx.Err() when ctx ends first.
	ReadChunk(ctx context.Context) ([]byte, error)
	Close() error
}

// FrameSource yields codec frames that need no further encoding
type FrameSource interface {
	Open(params audio.Params) error
	NextFrame(ctx context.Context) ([]byte, error)
	Close() error
}

// pacer releases one chunk per frame period. A zero pacer never waits.
type pacer struct {
	ticker *time.Ticker
}

func newPacer(period time.Duration, enabled bool) pacer {
	if !enabled || period <= 0 {
		return pacer{}
	}
	return pacer{ticker: time.NewTicker(period)}
}

func (p pacer) wait(ctx context.Context) error {
	if p.ticker == nil {
		return ctx.Err()
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-p.ticker.C:
		return nil
	}
}

func (p pacer) stop() {
	if p.ticker != nil {
		p.ticker.Stop()
	}
}
