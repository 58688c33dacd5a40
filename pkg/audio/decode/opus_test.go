// ABOUTME: Tests for Opus decoder
// ABOUTME: Decodes frames produced by the reference encoder
package decode

import (
	"testing"

	"github.com/seraphwave/seraphwave-go/pkg/audio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/hraban/opus.v2"
)

func opusFormat(channels int) audio.Format {
	return audio.Format{Codec: audio.CodecOpus, Params: audio.NewParams(48000, channels, 16, 60)}
}

func TestNewOpusInvalidCodec(t *testing.T) {
	decoder, err := NewOpus(pcmFormat(16))
	require.Error(t, err)
	assert.Nil(t, decoder)
	assert.EqualError(t, err, "invalid codec for Opus decoder: pcm")
}

func TestOpusDecodeFrame(t *testing.T) {
	for _, channels := range []int{1, 2} {
		format := opusFormat(channels)

		enc, err := opus.NewEncoder(format.SampleRate, channels, opus.AppVoIP)
		require.NoError(t, err)

		pcm := make([]int16, format.SamplesPerFrame())
		for i := range pcm {
			pcm[i] = int16((i % 64) * 100)
		}
		buf := make([]byte, 4000)
		n, err := enc.Encode(pcm, buf)
		require.NoError(t, err)

		decoder, err := NewOpus(format)
		require.NoError(t, err)

		samples, err := decoder.Decode(buf[:n])
		require.NoError(t, err)
		assert.Len(t, samples, format.SamplesPerFrame(), "%d channels", channels)
		assert.NoError(t, decoder.Close())
	}
}

func TestOpusDecodeGarbage(t *testing.T) {
	decoder, err := NewOpus(opusFormat(2))
	require.NoError(t, err)

	_, err = decoder.Decode([]byte{0xff, 0xff, 0xff, 0xff, 0xff})
	assert.Error(t, err)
}
