// ABOUTME: Spatial mixer with a sample-accurate output clock
// ABOUTME: Starts scheduled voices at exact frames and pans each one by its pose
package spatial

import (
	"container/heap"
	"encoding/binary"
	"io"
	"math"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/seraphwave/seraphwave-go/pkg/audio"
	"github.com/seraphwave/seraphwave-go/pkg/protocol"
)

// MixerConfig holds optional mixer settings
type MixerConfig struct {
	Panner *PannerConfig // defaults to DefaultPanner
	Logger *log.Logger
}

// MixerStats are cumulative scheduling counters
type MixerStats struct {
	Scheduled uint64
	Late      uint64 // voices whose start time had already passed
	Completed uint64
	Queued    int
	Active    int
}

type voice struct {
	speaker protocol.SpeakerID
	pose    protocol.Pose
	samples []float32
	frames  int
	start   int64
	pos     int
	gains   Gains
	seq     uint64
}

// Mixer renders scheduled voices into one interleaved float32 stream. Its
// clock is the number of frames pulled by the output device, so Now only
// advances while audio is being played.
type Mixer struct {
	params audio.Params
	panner PannerConfig
	logger *log.Logger

	mu       sync.Mutex
	listener Listener
	clock    int64
	queue    voiceQueue
	active   []*voice
	stats    MixerStats
	scratch  []float32
}

// NewMixer creates a mixer for the session parameters
func NewMixer(params audio.Params, cfg MixerConfig) *Mixer {
	panner := DefaultPanner()
	if cfg.Panner != nil {
		panner = *cfg.Panner
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}

	m := &Mixer{
		params:   params,
		panner:   panner,
		logger:   logger.WithPrefix("mixer"),
		listener: DefaultListener(),
	}
	heap.Init(&m.queue)
	return m
}

// Now returns the output clock
func (m *Mixer) Now() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.framesToDuration(m.clock)
}

// Schedule queues decoded samples to start at an absolute output-clock time.
// Playback cannot be cancelled once scheduled. A time already in the past
// starts at the next rendered frame.
func (m *Mixer) Schedule(speaker protocol.SpeakerID, samples []int32, pose protocol.Pose, at time.Duration) {
	ch := m.params.Channels
	frames := len(samples) / ch
	if frames == 0 {
		return
	}

	v := &voice{
		speaker: speaker,
		pose:    pose,
		samples: make([]float32, frames*ch),
		frames:  frames,
	}
	for i := range v.samples {
		v.samples[i] = audio.SampleToFloat32(samples[i])
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	v.start = m.durationToFrames(at)
	if v.start < m.clock {
		m.stats.Late++
		m.logger.Debug("Voice scheduled in the past", "speaker", speaker, "late", m.framesToDuration(m.clock-v.start))
		v.start = m.clock
	}

	m.stats.Scheduled++
	heap.Push(&m.queue, v)
}

// SetListenerOrientation points the listener along forward. It applies to
// every voice that starts after the call.
func (m *Mixer) SetListenerOrientation(forward protocol.Vec3) {
	m.mu.Lock()
	m.listener.Forward = forward
	m.mu.Unlock()
}

// Listener returns the current listener
func (m *Mixer) Listener() Listener {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.listener
}

// Stats returns a snapshot of the scheduling counters
func (m *Mixer) Stats() MixerStats {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.stats
	s.Queued = m.queue.Len()
	s.Active = len(m.active)
	return s
}

// Render mixes the next len(out)/channels frames into out and advances the clock
func (m *Mixer) Render(out []float32) {
	ch := m.params.Channels
	frames := len(out) / ch
	clear(out)

	m.mu.Lock()
	defer m.mu.Unlock()

	end := m.clock + int64(frames)
	for _, v := range m.queue.popDue(end) {
		v.gains = m.panner.Gains(m.listener, v.pose, ch)
		m.active = append(m.active, v)
	}

	remaining := m.active[:0]
	for _, v := range m.active {
		offset := 0
		if v.start > m.clock {
			offset = int(v.start - m.clock)
		}
		n := min(frames-offset, v.frames-v.pos)
		m.mixVoice(out[offset*ch:], v, n)
		v.pos += n

		if v.pos < v.frames {
			remaining = append(remaining, v)
		} else {
			m.stats.Completed++
		}
	}
	clear(m.active[len(remaining):])
	m.active = remaining

	for i := range out[:frames*ch] {
		out[i] = float32(math.Max(-1, math.Min(1, float64(out[i]))))
	}
	m.clock = end
}

func (m *Mixer) mixVoice(out []float32, v *voice, n int) {
	ch := m.params.Channels
	g := v.gains
	for i := 0; i < n; i++ {
		base := (v.pos + i) * ch
		inL := float64(v.samples[base])
		inR := 0.0
		if ch > 1 {
			inR = float64(v.samples[base+1])
		}

		l := g.LL*inL + g.RL*inR
		r := g.LR*inL + g.RR*inR

		if ch == 1 {
			out[i] += float32((l + r) / 2)
			continue
		}
		out[i*ch] += float32(l)
		out[i*ch+1] += float32(r)
	}
}

// Read implements io.Reader for pull-based outputs, yielding float32
// little-endian samples. It never blocks and always fills whole frames.
// Only one goroutine may call Read.
func (m *Mixer) Read(p []byte) (int, error) {
	frameBytes := m.params.Channels * 4
	frames := len(p) / frameBytes
	if frames == 0 {
		return 0, io.ErrShortBuffer
	}

	samples := frames * m.params.Channels
	if cap(m.scratch) < samples {
		m.scratch = make([]float32, samples)
	}
	buf := m.scratch[:samples]
	m.Render(buf)

	for i, s := range buf {
		binary.LittleEndian.PutUint32(p[i*4:], math.Float32bits(s))
	}
	return samples * 4, nil
}

func (m *Mixer) framesToDuration(frames int64) time.Duration {
	rate := int64(m.params.SampleRate)
	return time.Duration(frames/rate)*time.Second + time.Duration(frames%rate)*time.Second/time.Duration(rate)
}

func (m *Mixer) durationToFrames(d time.Duration) int64 {
	rate := int64(m.params.SampleRate)
	sec := int64(d / time.Second)
	rem := int64(d % time.Second)
	return sec*rate + rem*rate/int64(time.Second)
}
