// ABOUTME: Fixed-delay jitter buffer for one speaker
// ABOUTME: Turns irregular arrival times into evenly spaced playback targets
package jitter

import "time"

const (
	// LatencyFrames is the look-ahead, in frame periods, before a talk-spurt starts playing
	LatencyFrames = 4

	// JitterTolerance is added to the frame period to get the resync threshold
	JitterTolerance = 60 * time.Millisecond
)

// Buffer schedules one speaker's frames. It does not reorder: frames are
// assumed to arrive in order. A gap longer than the resync threshold starts
// a new talk-spurt anchored at the arrival time.
type Buffer struct {
	framePeriod time.Duration

	anchor       time.Duration
	lastPacket   time.Duration
	framesPlayed uint64
	resyncs      uint64
}

// NewBuffer creates a buffer for frames of the given duration
func NewBuffer(framePeriod time.Duration) *Buffer {
	return &Buffer{framePeriod: framePeriod}
}

// ResyncThreshold is the largest inter-packet gap that continues a talk-spurt
func (b *Buffer) ResyncThreshold() time.Duration {
	return b.framePeriod + JitterTolerance
}

// Next registers a frame arriving at now (output-clock time) and returns
// the time it should start playing
func (b *Buffer) Next(now time.Duration) time.Duration {
	gap := now - b.lastPacket
	if b.framesPlayed == 0 || gap > b.ResyncThreshold() {
		b.anchor = now
		b.framesPlayed = 0
		b.resyncs++
	}

	target := b.anchor + time.Duration(LatencyFrames+b.framesPlayed)*b.framePeriod

	b.framesPlayed++
	b.lastPacket = now
	return target
}

// Anchor returns the start of the current talk-spurt
func (b *Buffer) Anchor() time.Duration { return b.anchor }

// FramesPlayed returns the frames scheduled since the last resync
func (b *Buffer) FramesPlayed() uint64 { return b.framesPlayed }

// Resyncs counts talk-spurt starts, including the first frame
func (b *Buffer) Resyncs() uint64 { return b.resyncs }
