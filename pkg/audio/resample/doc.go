// ABOUTME: Audio resampling package using linear interpolation
// ABOUTME: Converts file sources to the session sample rate
// Package resample provides streaming sample rate conversion.
//
// Uses linear interpolation and carries the last frame of each chunk into
// the next, so a source can be converted chunk by chunk.
//
// Example:
//
//	r := resample.New(44100, 48000, 2)
//	out := make([]int32, r.OutputSamplesNeeded(len(in))+2)
//	n := r.Resample(in, out)
package resample
