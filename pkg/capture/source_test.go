// ABOUTME: Tests for the built-in capture sources
// ABOUTME: Tone generation, MP3 and FLAC sample handling, Ogg packet reading and device guards
package capture

import (
	"context"
	"encoding/binary"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mewkiz/flac/frame"
	"github.com/seraphwave/seraphwave-go/pkg/audio"
	"github.com/seraphwave/seraphwave-go/pkg/audio/container"
	"github.com/seraphwave/seraphwave-go/pkg/audio/encode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToneChunks(t *testing.T) {
	params := audio.DefaultParams()
	tone := &Tone{Unpaced: true}
	require.NoError(t, tone.Open(params))

	chunk, err := tone.ReadChunk(context.Background())
	require.NoError(t, err)
	require.Len(t, chunk, params.PacketSize)

	var peak int16
	for i := 0; i < len(chunk); i += 4 {
		left := int16(binary.LittleEndian.Uint16(chunk[i:]))
		right := int16(binary.LittleEndian.Uint16(chunk[i+2:]))
		require.Equal(t, left, right, "tone is identical in both channels")
		if left > peak {
			peak = left
		}
	}
	// 50% of full scale, a 60ms chunk covers many periods of 440Hz
	assert.InDelta(t, 16383, int(peak), 200)

	require.NoError(t, tone.Close())
	_, err = tone.ReadChunk(context.Background())
	assert.ErrorIs(t, err, io.EOF)
}

func TestToneIsContinuous(t *testing.T) {
	params := audio.NewParams(8000, 1, 16, 10)
	tone := &Tone{Frequency: 100, Unpaced: true}
	require.NoError(t, tone.Open(params))
	defer tone.Close()

	a, err := tone.ReadChunk(context.Background())
	require.NoError(t, err)
	b, err := tone.ReadChunk(context.Background())
	require.NoError(t, err)

	// 100Hz at 8kHz: one 10ms chunk is exactly one period
	require.Len(t, b, len(a))
	for i := 0; i < len(a); i += 2 {
		x := int16(binary.LittleEndian.Uint16(a[i:]))
		y := int16(binary.LittleEndian.Uint16(b[i:]))
		assert.InDelta(t, int(x), int(y), 1, "sample %d", i/2)
	}
}

func TestTonePacedHonorsContext(t *testing.T) {
	tone := &Tone{}
	require.NoError(t, tone.Open(audio.NewParams(0, 0, 0, 1000)))
	defer tone.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := tone.ReadChunk(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestMP3FileMissing(t *testing.T) {
	src := &MP3File{Path: filepath.Join(t.TempDir(), "missing.mp3"), Logger: log.New(io.Discard)}
	err := src.Open(audio.DefaultParams())
	require.Error(t, err)

	_, err = src.ReadChunk(context.Background())
	assert.ErrorIs(t, err, io.EOF)
}

func TestMP3FileDownmixesToMono(t *testing.T) {
	params := audio.NewParams(1000, 1, 16, 2) // 2 mono samples per frame
	s := &MP3File{
		feed: newStereoFeed(1000, params),
		in:   make([]int32, 8),
	}

	raw := make([]byte, 0, 12)
	for _, v := range []int16{100, 300, -50, -150, 7, 7} {
		raw = binary.LittleEndian.AppendUint16(raw, uint16(v))
	}

	assert.Equal(t, 6, s.decodeStereo(raw))
	require.True(t, s.feed.ready())

	assert.Equal(t, []int32{audio.SampleFromInt16(200), audio.SampleFromInt16(-100)}, s.feed.take())
	assert.Len(t, s.feed.pending, 2, "the third stereo sample waits for the next frame")
	assert.False(t, s.feed.ready())
}

func TestFLACFileMissing(t *testing.T) {
	src := &FLACFile{Path: filepath.Join(t.TempDir(), "missing.flac"), Logger: log.New(io.Discard)}
	require.Error(t, src.Open(audio.DefaultParams()))

	_, err := src.ReadChunk(context.Background())
	assert.ErrorIs(t, err, io.EOF)
}

func TestFLACFileRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "voice.flac")
	require.NoError(t, os.WriteFile(path, []byte("not a flac stream"), 0o644))

	src := &FLACFile{Path: path, Logger: log.New(io.Discard)}
	assert.Error(t, src.Open(audio.DefaultParams()))
}

func TestFLACToStereo(t *testing.T) {
	sub := func(samples ...int32) *frame.Subframe { return &frame.Subframe{Samples: samples} }

	tests := []struct {
		name     string
		frame    *frame.Frame
		bitDepth int
		want     []int32
	}{
		{
			name:     "16-bit stereo",
			frame:    &frame.Frame{Header: frame.Header{BlockSize: 2}, Subframes: []*frame.Subframe{sub(1, -2), sub(3, 4)}},
			bitDepth: 16,
			want:     []int32{1 << 8, 3 << 8, -2 << 8, 4 << 8}, // interleaved L R L R
		},
		{
			name:     "mono widened",
			frame:    &frame.Frame{Header: frame.Header{BlockSize: 2}, Subframes: []*frame.Subframe{sub(5, 6)}},
			bitDepth: 24,
			want:     []int32{5, 5, 6, 6},
		},
		{
			name:     "extra channels ignored",
			frame:    &frame.Frame{Header: frame.Header{BlockSize: 1}, Subframes: []*frame.Subframe{sub(7), sub(8), sub(9)}},
			bitDepth: 24,
			want:     []int32{7, 8},
		},
		{
			name:     "8-bit",
			frame:    &frame.Frame{Header: frame.Header{BlockSize: 1}, Subframes: []*frame.Subframe{sub(-1), sub(1)}},
			bitDepth: 8,
			want:     []int32{-1 << 16, 1 << 16},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, flacToStereo(tt.frame, tt.bitDepth, nil))
		})
	}
}

func TestFLACFeedDownmixesToMono(t *testing.T) {
	params := audio.NewParams(1000, 1, 16, 2)
	feed := newStereoFeed(1000, params)

	fr := &frame.Frame{Header: frame.Header{BlockSize: 2}, Subframes: []*frame.Subframe{
		{Samples: []int32{100, -50}},
		{Samples: []int32{300, -150}},
	}}
	feed.push(flacToStereo(fr, 16, nil))
	require.True(t, feed.ready())

	assert.Equal(t, []int32{audio.SampleFromInt16(200), audio.SampleFromInt16(-100)}, feed.take())
}

// writeOggOpus encodes n tone frames into an Ogg Opus file and returns the
// raw packets that were written
func writeOggOpus(t *testing.T, params audio.Params, n int) (string, [][]byte) {
	t.Helper()

	enc, err := encode.NewOggOpus(audio.Format{Codec: audio.CodecOpus, Params: params})
	require.NoError(t, err)

	tone := &Tone{Unpaced: true}
	require.NoError(t, tone.Open(params))
	defer tone.Close()

	var (
		file     []byte
		packets  [][]byte
		splitter container.PageSplitter
	)
	samples := make([]int32, params.SamplesPerFrame())
	for i := 0; i < n; i++ {
		chunk, err := tone.ReadChunk(context.Background())
		require.NoError(t, err)
		for j := range samples {
			samples[j] = audio.SampleFromInt16(int16(binary.LittleEndian.Uint16(chunk[j*2:])))
		}

		out, err := enc.Encode(samples)
		require.NoError(t, err)
		file = append(file, out...)
		splitter.Write(out)
	}
	require.NoError(t, enc.Close())

	seen := 0
	for page, ok := splitter.Next(); ok; page, ok = splitter.Next() {
		seen++
		if seen > encode.HeaderPages {
			packets = append(packets, container.ExtractFrames(page))
		}
	}

	path := filepath.Join(t.TempDir(), "voice.opus")
	require.NoError(t, os.WriteFile(path, file, 0o644))
	return path, packets
}

func TestOggOpusFileSkipsHeaders(t *testing.T) {
	params := audio.DefaultParams()
	path, want := writeOggOpus(t, params, 4)
	require.Len(t, want, 4)

	src := &OggOpusFile{Path: path, Unpaced: true}
	require.NoError(t, src.Open(params))
	defer src.Close()

	var got [][]byte
	for {
		frame, err := src.NextFrame(context.Background())
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		got = append(got, frame)
	}

	assert.Equal(t, want, got)
}

func TestDeviceGuards(t *testing.T) {
	d := &Device{}
	_, err := d.ReadChunk(context.Background())
	assert.Error(t, err)
	assert.Zero(t, d.Overruns())
	assert.NoError(t, d.Close())

	bad := &Device{Channels: 3, Logger: log.New(io.Discard)}
	assert.Error(t, bad.Open(audio.DefaultParams()))
}
