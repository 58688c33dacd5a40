// ABOUTME: FLAC file capture source
// ABOUTME: Decodes, resamples and paces a FLAC file as if it were a microphone
package capture

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/mewkiz/flac"
	"github.com/mewkiz/flac/frame"
	"github.com/seraphwave/seraphwave-go/pkg/audio"
	"github.com/seraphwave/seraphwave-go/pkg/audio/encode"
)

// FLACFile streams a FLAC file. Mono files are widened to stereo and files
// with more channels keep the first two; the result is resampled to the
// session rate and downmixed for mono sessions.
type FLACFile struct {
	Path string
	// Loop restarts the file at EOF instead of ending the stream
	Loop    bool
	Unpaced bool
	Logger  *log.Logger

	mu       sync.Mutex
	file     *os.File
	stream   *flac.Stream
	bitDepth int
	feed     *stereoFeed
	pcm      *encode.PCMEncoder
	pace     pacer

	in []int32
}

// Open opens the file and reads its stream info
func (s *FLACFile) Open(params audio.Params) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Logger == nil {
		s.Logger = log.Default()
	}

	pcm, err := encode.NewPCM(audio.Format{Codec: audio.CodecPCM, Params: params})
	if err != nil {
		return fmt.Errorf("flac: %w", err)
	}

	f, err := os.Open(s.Path)
	if err != nil {
		return fmt.Errorf("failed to open FLAC file: %w", err)
	}

	stream, err := flac.New(f)
	if err != nil {
		f.Close()
		return fmt.Errorf("failed to decode FLAC: %w", err)
	}

	info := stream.Info
	title := strings.TrimSuffix(filepath.Base(s.Path), filepath.Ext(s.Path))
	s.Logger.Info("Loaded FLAC", "title", title, "rate", info.SampleRate,
		"channels", info.NChannels, "bits", info.BitsPerSample, "resampleTo", params.SampleRate)

	s.file = f
	s.stream = stream
	s.bitDepth = int(info.BitsPerSample)
	s.feed = newStereoFeed(int(info.SampleRate), params)
	s.pcm = pcm
	s.pace = newPacer(params.FramePeriod(), !s.Unpaced)
	return nil
}

// ReadChunk returns the next frame of the file
func (s *FLACFile) ReadChunk(ctx context.Context) ([]byte, error) {
	s.mu.Lock()
	pace, ready := s.pace, s.stream != nil
	s.mu.Unlock()

	if !ready {
		return nil, io.EOF
	}
	if err := pace.wait(ctx); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stream == nil {
		return nil, io.EOF
	}

	rewound, produced := false, 0
	for !s.feed.ready() {
		fr, err := s.stream.ParseNext()
		if err == nil {
			s.in = flacToStereo(fr, s.bitDepth, s.in[:0])
			produced += s.feed.push(s.in)
			continue
		}
		if !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("flac read: %w", err)
		}
		// An empty file would rewind forever
		if !s.Loop || (rewound && produced == 0) {
			return nil, io.EOF
		}
		if err := s.rewind(); err != nil {
			return nil, err
		}
		rewound, produced = true, 0
	}

	return s.pcm.Encode(s.feed.take())
}

// flacToStereo appends the frame as interleaved stereo in the 24-bit
// sample range
func flacToStereo(fr *frame.Frame, bitDepth int, dst []int32) []int32 {
	if len(fr.Subframes) == 0 {
		return dst
	}
	left := fr.Subframes[0].Samples
	right := left
	if len(fr.Subframes) > 1 {
		right = fr.Subframes[1].Samples
	}

	n := min(int(fr.BlockSize), len(left), len(right))
	for i := 0; i < n; i++ {
		dst = append(dst, to24Bit(left[i], bitDepth), to24Bit(right[i], bitDepth))
	}
	return dst
}

// to24Bit scales a sample of the given depth into the 24-bit range
func to24Bit(sample int32, bitDepth int) int32 {
	switch {
	case bitDepth < 24:
		return sample << (24 - bitDepth)
	case bitDepth > 24:
		return sample >> (bitDepth - 24)
	default:
		return sample
	}
}

func (s *FLACFile) rewind() error {
	if _, err := s.file.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("failed to seek to start: %w", err)
	}
	stream, err := flac.New(s.file)
	if err != nil {
		return fmt.Errorf("failed to create new stream: %w", err)
	}
	s.stream = stream
	s.feed.reset()
	return nil
}

// Close releases the file
func (s *FLACFile) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pace.stop()
	s.stream = nil
	if s.file == nil {
		return nil
	}
	err := s.file.Close()
	s.file = nil
	return err
}
