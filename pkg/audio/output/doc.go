// ABOUTME: Audio output package for playing rendered audio
// ABOUTME: Provides pull-based Output backends for oto, malgo and headless runs
// Package output plays the spatial mixer's output.
//
// Backends pull interleaved float32 samples from an io.Reader, so the
// number of frames the device has consumed is the render clock.
//
// Example:
//
//	out, err := output.New("oto", logger)
//	err = out.Open(params, mixer)
package output
