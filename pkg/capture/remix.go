// ABOUTME: Channel layout normalisation for captured chunks
// ABOUTME: Passes full frames, widens mono frames and drops container headers
package capture

import "github.com/seraphwave/seraphwave-go/pkg/audio"

// ChunkKind classifies a captured chunk by its size
type ChunkKind int

const (
	// ChunkFrame is exactly one session frame
	ChunkFrame ChunkKind = iota
	// ChunkMono is one mono frame in a stereo session
	ChunkMono
	// ChunkHeader is any other size, such as a WAV header emitted by a
	// recorder ahead of the first frame
	ChunkHeader
)

// Classify reports how Remix will treat a chunk of n bytes
func Classify(params audio.Params, n int) ChunkKind {
	switch {
	case n == params.PacketSize:
		return ChunkFrame
	case params.Channels == 2 && n == params.PacketSize/2:
		return ChunkMono
	default:
		return ChunkHeader
	}
}

// Remix returns chunk in the session layout, or nil when it must be
// dropped. Mono samples are duplicated into both stereo channels.
func Remix(params audio.Params, chunk []byte) []byte {
	switch Classify(params, len(chunk)) {
	case ChunkFrame:
		return chunk
	case ChunkMono:
		width := params.BitDepth / 8
		out := make([]byte, 0, params.PacketSize)
		for i := 0; i+width <= len(chunk); i += width {
			sample := chunk[i : i+width]
			out = append(out, sample...)
			out = append(out, sample...)
		}
		return out
	default:
		return nil
	}
}
