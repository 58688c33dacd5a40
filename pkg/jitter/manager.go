// ABOUTME: Per-speaker jitter buffers feeding a spatial renderer
// ABOUTME: Decodes each speaker's frames and schedules them with their pose
package jitter

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/seraphwave/seraphwave-go/pkg/audio"
	"github.com/seraphwave/seraphwave-go/pkg/audio/decode"
	"github.com/seraphwave/seraphwave-go/pkg/protocol"
)

// Renderer is the audio output capability the buffers schedule onto
type Renderer interface {
	// Now returns the current output-clock time
	Now() time.Duration
	// Schedule plays samples with the given pose starting at an absolute output-clock time
	Schedule(speaker protocol.SpeakerID, samples []int32, pose protocol.Pose, at time.Duration)
	// SetListenerOrientation updates the listener's forward vector immediately
	SetListenerOrientation(forward protocol.Vec3)
}

// DecoderFactory creates one decoder per speaker
type DecoderFactory func(audio.Format) (decode.Decoder, error)

// Config holds manager settings
type Config struct {
	Format     audio.Format
	NewDecoder DecoderFactory // defaults to decode.New
	Logger     *log.Logger
}

// Stats are cumulative manager counters
type Stats struct {
	Speakers     int
	Frames       uint64
	DecodeErrors uint64
	Resyncs      uint64
	Rotations    uint64
}

type speaker struct {
	mu      sync.Mutex
	buffer  *Buffer
	decoder decode.Decoder
}

// Manager owns one jitter buffer and decoder per speaker. Speakers are
// created on their first frame and live until Close.
type Manager struct {
	renderer   Renderer
	format     audio.Format
	newDecoder DecoderFactory
	logger     *log.Logger

	mu       sync.Mutex
	speakers map[protocol.SpeakerID]*speaker

	frames       atomic.Uint64
	decodeErrors atomic.Uint64
	rotations    atomic.Uint64
}

// NewManager creates a manager scheduling onto r
func NewManager(r Renderer, cfg Config) *Manager {
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}
	newDecoder := cfg.NewDecoder
	if newDecoder == nil {
		newDecoder = decode.New
	}

	return &Manager{
		renderer:   r,
		format:     cfg.Format,
		newDecoder: newDecoder,
		logger:     logger.WithPrefix("jitter"),
		speakers:   make(map[protocol.SpeakerID]*speaker),
	}
}

// speaker returns the state for id, creating it exactly once
func (m *Manager) speaker(id protocol.SpeakerID) (*speaker, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.speakers[id]; ok {
		return s, nil
	}

	dec, err := m.newDecoder(m.format)
	if err != nil {
		return nil, fmt.Errorf("create decoder for %s: %w", id, err)
	}

	s := &speaker{
		buffer:  NewBuffer(m.format.FramePeriod()),
		decoder: dec,
	}
	m.speakers[id] = s
	m.logger.Info("New speaker", "speaker", id)
	return s, nil
}

// HandleAudio decodes a frame and schedules it. A frame that fails to
// decode is skipped and counted; the speaker's timeline is not touched.
func (m *Manager) HandleAudio(frame protocol.AudioFrame) error {
	s, err := m.speaker(frame.Speaker)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	samples, err := s.decoder.Decode(frame.Payload)
	if err != nil {
		m.decodeErrors.Add(1)
		m.logger.Debug("Skipping undecodable frame", "speaker", frame.Speaker, "err", err)
		return fmt.Errorf("decode frame from %s: %w", frame.Speaker, err)
	}

	at := s.buffer.Next(m.renderer.Now())
	m.renderer.Schedule(frame.Speaker, samples, frame.Pose, at)
	m.frames.Add(1)
	return nil
}

// HandleRotation applies a listener orientation update immediately
func (m *Manager) HandleRotation(u protocol.RotationUpdate) {
	m.rotations.Add(1)
	m.renderer.SetListenerOrientation(u.Rotation)
}

// Stats returns a snapshot of the counters
func (m *Manager) Stats() Stats {
	m.mu.Lock()
	list := make([]*speaker, 0, len(m.speakers))
	for _, s := range m.speakers {
		list = append(list, s)
	}
	m.mu.Unlock()

	var resyncs uint64
	for _, s := range list {
		s.mu.Lock()
		resyncs += s.buffer.Resyncs()
		s.mu.Unlock()
	}

	return Stats{
		Speakers:     len(list),
		Frames:       m.frames.Load(),
		DecodeErrors: m.decodeErrors.Load(),
		Resyncs:      resyncs,
		Rotations:    m.rotations.Load(),
	}
}

// Close releases every speaker's decoder
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var firstErr error
	for id, s := range m.speakers {
		if err := s.decoder.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("close decoder for %s: %w", id, err)
		}
	}
	clear(m.speakers)
	return firstErr
}
