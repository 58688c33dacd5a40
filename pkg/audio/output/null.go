// ABOUTME: Headless audio output
// ABOUTME: Pulls and discards audio in real time so the render clock keeps moving
package output

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/seraphwave/seraphwave-go/pkg/audio"
)

// Null pulls one tick worth of audio per tick and throws it away
type Null struct {
	volume

	Tick time.Duration

	mu     sync.Mutex
	stop   chan struct{}
	done   chan struct{}
	pulled int64
}

// NewNull creates a headless output ticking every 10ms
func NewNull() *Null {
	return &Null{volume: newVolume(), Tick: 10 * time.Millisecond}
}

// Open starts the pull loop
func (n *Null) Open(params audio.Params, src io.Reader) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.stop != nil {
		return fmt.Errorf("null output already open")
	}

	frames := int(int64(params.SampleRate) * int64(n.Tick) / int64(time.Second))
	if frames <= 0 {
		return fmt.Errorf("tick %s too short for %dHz", n.Tick, params.SampleRate)
	}
	buf := make([]byte, frames*params.Channels*BytesPerSample)

	n.stop = make(chan struct{})
	n.done = make(chan struct{})
	go n.run(src, buf, n.stop, n.done)
	return nil
}

func (n *Null) run(src io.Reader, buf []byte, stop, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(n.Tick)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if _, err := io.ReadFull(src, buf); err != nil {
				return
			}
			n.mu.Lock()
			n.pulled += int64(len(buf))
			n.mu.Unlock()
		}
	}
}

// Pulled returns the number of bytes read from the source so far
func (n *Null) Pulled() int64 {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.pulled
}

// Close stops the pull loop
func (n *Null) Close() error {
	n.mu.Lock()
	stop, done := n.stop, n.done
	n.stop = nil
	n.mu.Unlock()

	if stop != nil {
		close(stop)
		<-done
	}
	return nil
}
