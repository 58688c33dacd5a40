// ABOUTME: Shared stereo feed for file sources
// ABOUTME: Resamples interleaved stereo to the session rate and cuts session-layout frames
package capture

import (
	"github.com/seraphwave/seraphwave-go/pkg/audio"
	"github.com/seraphwave/seraphwave-go/pkg/audio/resample"
)

// stereoFeed buffers decoded stereo samples until a whole frame is ready
type stereoFeed struct {
	params    audio.Params
	resampler *resample.Resampler
	out       []int32
	pending   []int32
	frame     []int32
}

func newStereoFeed(inputRate int, params audio.Params) *stereoFeed {
	return &stereoFeed{
		params:    params,
		resampler: resample.New(inputRate, params.SampleRate, 2),
		frame:     make([]int32, params.SamplesPerFrame()),
	}
}

// push resamples interleaved stereo samples onto the pending queue and
// returns the number of samples queued
func (f *stereoFeed) push(in []int32) int {
	if f.resampler.Passthrough() {
		f.pending = append(f.pending, in...)
		return len(in)
	}
	if need := f.resampler.OutputSamplesNeeded(len(in)) + 2; cap(f.out) < need {
		f.out = make([]int32, need)
	}
	n := f.resampler.Resample(in, f.out[:cap(f.out)])
	f.pending = append(f.pending, f.out[:n]...)
	return n
}

// ready reports whether a whole frame is queued
func (f *stereoFeed) ready() bool {
	return len(f.pending) >= f.params.FrameSize*2
}

// take moves one stereo frame out of pending, downmixed for mono sessions.
// The returned slice is reused by the next call.
func (f *stereoFeed) take() []int32 {
	need := f.params.FrameSize * 2
	if f.params.Channels == 1 {
		for i := range f.frame {
			f.frame[i] = (f.pending[i*2] + f.pending[i*2+1]) / 2
		}
	} else {
		copy(f.frame, f.pending[:need])
	}
	f.pending = append(f.pending[:0], f.pending[need:]...)
	return f.frame
}

// reset drops resampler history after a rewind; queued samples are kept
func (f *stereoFeed) reset() {
	f.resampler.Reset()
}
