// ABOUTME: Audio encoder package for capture output
// ABOUTME: Provides Encoder interface and PCM, Opus and Ogg/Opus implementations
// Package encode turns captured PCM into outbound payloads.
//
// Supports: PCM (16-bit and 24-bit), raw Opus frames, and OggOpus, a
// streaming encoder that emits Ogg pages. The capture pipeline strips the
// page framing again before sending.
//
// All encoders accept int32 samples in 24-bit range, one frame per call.
//
// Example:
//
//	encoder, err := encode.NewOggOpus(audio.Format{Params: params})
//	pages, err := encoder.Encode(frame)
package encode
