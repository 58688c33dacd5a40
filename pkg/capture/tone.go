// ABOUTME: Sine tone capture source
// ABOUTME: Generates a test tone in place of a microphone
package capture

import (
	"context"
	"fmt"
	"io"
	"math"
	"sync"

	"github.com/seraphwave/seraphwave-go/pkg/audio"
	"github.com/seraphwave/seraphwave-go/pkg/audio/encode"
)

// Tone generates a sine wave, one frame per chunk
type Tone struct {
	// Frequency in Hz, 440 when zero
	Frequency float64
	// Volume in (0, 1], 0.5 when zero
	Volume float64
	// Unpaced yields chunks as fast as they are read instead of once per frame period
	Unpaced bool

	mu          sync.Mutex
	params      audio.Params
	pcm         *encode.PCMEncoder
	pace        pacer
	sampleIndex uint64
	samples     []int32
	closed      bool
}

// Open prepares the generator
func (s *Tone) Open(params audio.Params) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Frequency == 0 {
		s.Frequency = 440.0 // A4 note
	}
	if s.Volume == 0 {
		s.Volume = 0.5
	}

	pcm, err := encode.NewPCM(audio.Format{Codec: audio.CodecPCM, Params: params})
	if err != nil {
		return fmt.Errorf("tone: %w", err)
	}

	s.params = params
	s.pcm = pcm
	s.pace = newPacer(params.FramePeriod(), !s.Unpaced)
	s.samples = make([]int32, params.SamplesPerFrame())
	s.closed = false
	return nil
}

// ReadChunk returns the next frame of tone
func (s *Tone) ReadChunk(ctx context.Context) ([]byte, error) {
	s.mu.Lock()
	pace, ready := s.pace, s.pcm != nil && !s.closed
	s.mu.Unlock()

	if !ready {
		return nil, io.EOF
	}
	if err := pace.wait(ctx); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ch := s.params.Channels
	frames := len(s.samples) / ch
	for i := 0; i < frames; i++ {
		t := float64(s.sampleIndex+uint64(i)) / float64(s.params.SampleRate)
		v := int32(math.Sin(2*math.Pi*s.Frequency*t) * float64(audio.Max24Bit) * s.Volume)
		for c := 0; c < ch; c++ {
			s.samples[i*ch+c] = v
		}
	}
	s.sampleIndex += uint64(frames)

	return s.pcm.Encode(s.samples)
}

// Close stops the generator
func (s *Tone) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.pace.stop()
	return nil
}
