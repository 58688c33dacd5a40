// ABOUTME: Decoder interface definition
// ABOUTME: Common interface for frame payload decoders
package decode

import (
	"fmt"

	"github.com/seraphwave/seraphwave-go/pkg/audio"
)

// Decoder decodes one frame payload to interleaved PCM int32 samples
type Decoder interface {
	// Decode converts encoded audio data to PCM samples
	Decode(data []byte) ([]int32, error)

	// Close releases decoder resources
	Close() error
}

// New creates a decoder for the format's codec
func New(format audio.Format) (Decoder, error) {
	switch format.Codec {
	case audio.CodecOpus:
		return NewOpus(format)
	case audio.CodecPCM:
		return NewPCM(format)
	default:
		return nil, fmt.Errorf("unsupported codec: %q", format.Codec)
	}
}
