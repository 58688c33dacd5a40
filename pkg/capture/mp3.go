// ABOUTME: MP3 file capture source
// ABOUTME: Decodes, resamples and paces an MP3 file as if it were a microphone
package capture

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/hajimehoshi/go-mp3"
	"github.com/seraphwave/seraphwave-go/pkg/audio"
	"github.com/seraphwave/seraphwave-go/pkg/audio/encode"
)

// mp3ReadBytes is how much decoded PCM is pulled from go-mp3 at a time
const mp3ReadBytes = 4608

// MP3File streams an MP3 file. The decoder always produces 16-bit stereo;
// it is resampled to the session rate and downmixed for mono sessions.
type MP3File struct {
	Path string
	// Loop restarts the file at EOF instead of ending the stream
	Loop    bool
	Unpaced bool
	Logger  *log.Logger

	mu      sync.Mutex
	file    *os.File
	decoder *mp3.Decoder
	feed    *stereoFeed
	pcm     *encode.PCMEncoder
	pace    pacer

	raw []byte
	in  []int32
}

// Open opens and starts decoding the file
func (s *MP3File) Open(params audio.Params) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Logger == nil {
		s.Logger = log.Default()
	}

	pcm, err := encode.NewPCM(audio.Format{Codec: audio.CodecPCM, Params: params})
	if err != nil {
		return fmt.Errorf("mp3: %w", err)
	}

	f, err := os.Open(s.Path)
	if err != nil {
		return fmt.Errorf("failed to open MP3 file: %w", err)
	}

	decoder, err := mp3.NewDecoder(f)
	if err != nil {
		f.Close()
		return fmt.Errorf("failed to decode MP3: %w", err)
	}

	title := strings.TrimSuffix(filepath.Base(s.Path), filepath.Ext(s.Path))
	s.Logger.Info("Loaded MP3", "title", title, "rate", decoder.SampleRate(), "resampleTo", params.SampleRate)

	s.file = f
	s.decoder = decoder
	s.feed = newStereoFeed(decoder.SampleRate(), params)
	s.pcm = pcm
	s.pace = newPacer(params.FramePeriod(), !s.Unpaced)

	s.raw = make([]byte, mp3ReadBytes)
	s.in = make([]int32, mp3ReadBytes/2)
	return nil
}

// ReadChunk returns the next frame of the file
func (s *MP3File) ReadChunk(ctx context.Context) ([]byte, error) {
	s.mu.Lock()
	pace, ready := s.pace, s.decoder != nil
	s.mu.Unlock()

	if !ready {
		return nil, io.EOF
	}
	if err := pace.wait(ctx); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.decoder == nil {
		return nil, io.EOF
	}

	rewound, produced := false, 0
	for !s.feed.ready() {
		n, err := io.ReadFull(s.decoder, s.raw)
		produced += s.decodeStereo(s.raw[:n])

		if err == nil {
			continue
		}
		if !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, fmt.Errorf("mp3 read: %w", err)
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

// decodeStereo converts 16-bit stereo bytes and feeds them to the
// resampler. It returns the number of samples queued.
func (s *MP3File) decodeStereo(raw []byte) int {
	count := len(raw) / 4 * 2
	for i := 0; i < count; i++ {
		s.in[i] = audio.SampleFromInt16(int16(binary.LittleEndian.Uint16(raw[i*2:])))
	}
	return s.feed.push(s.in[:count])
}

func (s *MP3File) rewind() error {
	if _, err := s.file.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("failed to seek to start: %w", err)
	}
	decoder, err := mp3.NewDecoder(s.file)
	if err != nil {
		return fmt.Errorf("failed to create new decoder: %w", err)
	}
	s.decoder = decoder
	s.feed.reset()
	return nil
}

// Close releases the file
func (s *MP3File) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pace.stop()
	s.decoder = nil
	if s.file == nil {
		return nil
	}
	err := s.file.Close()
	s.file = nil
	return err
}
