// ABOUTME: Encoder interface definition
// ABOUTME: Common interface for capture encoders
package encode

import (
	"fmt"

	"github.com/seraphwave/seraphwave-go/pkg/audio"
)

// Encoder encodes PCM int32 samples to payload bytes
type Encoder interface {
	// Encode converts one frame of PCM samples to encoded audio data
	Encode(samples []int32) ([]byte, error)

	// Close releases encoder resources
	Close() error
}

// New creates a frame encoder for the format's codec
func New(format audio.Format) (Encoder, error) {
	switch format.Codec {
	case audio.CodecOpus:
		enc, err := NewOpus(format)
		if err != nil {
			return nil, err
		}
		return enc, nil
	case audio.CodecPCM:
		enc, err := NewPCM(format)
		if err != nil {
			return nil, err
		}
		return enc, nil
	default:
		return nil, fmt.Errorf("unsupported codec: %q", format.Codec)
	}
}
