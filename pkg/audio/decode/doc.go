// ABOUTME: Audio decoder package for frame payloads
// ABOUTME: Provides Decoder interface and implementations for PCM and Opus
// Package decode turns received frame payloads back into PCM.
//
// Supports: PCM (16-bit and 24-bit) and Opus.
//
// All decoders implement the Decoder interface and output interleaved int32
// samples in 24-bit range. Opus decoders keep state between frames, so each
// remote speaker needs its own instance.
//
// Example:
//
//	decoder, err := decode.New(audio.Format{Codec: audio.CodecOpus, Params: params})
//	samples, err := decoder.Decode(frame.Payload)
package decode
