// Package capture produces the uplink audio stream.
//
// A Source yields fixed-size PCM chunks (a microphone, a tone generator or
// a decoded MP3 or FLAC file). Pipeline normalises each chunk to the session
// channel layout, encodes it, strips the container framing and hands the
// raw frame to a Sender, usually a *protocol.Client:
//
//	src := &capture.Device{}
//	p := capture.NewPipeline(client, capture.PipelineConfig{Format: format})
//	err := p.Run(ctx, src)
//
// Pre-encoded Opus files skip the encoder entirely through RunFrames and
// an OggOpusFile.
package capture
