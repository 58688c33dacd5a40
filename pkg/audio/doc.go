// ABOUTME: Audio fundamentals package providing core types and utilities
// ABOUTME: Defines the session Params and sample conversion functions
// Package audio provides the fundamental audio types shared by the voice client.
//
// Params describes the one audio configuration used for the whole session:
// sample rate, channel count, bit depth and frame duration, with the derived
// frame and packet sizes. It never changes mid-session.
//
// Samples travel through the pipeline as int32 values in 24-bit range;
// helpers convert to and from 16-bit, packed 24-bit and float32.
//
// Example:
//
//	params := audio.DefaultParams() // 48kHz, 2ch, 16bit, 60ms
//	period := params.FramePeriod()
//	sample24 := audio.SampleFromInt16(sample16)
package audio
