// ABOUTME: Pre-encoded Ogg Opus file source
// ABOUTME: Yields raw Opus packets, skipping the OpusHead and OpusTags headers
package capture

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/jonas747/ogg"
	"github.com/seraphwave/seraphwave-go/pkg/audio"
	"github.com/seraphwave/seraphwave-go/pkg/audio/encode"
)

// OggOpusFile streams packets from an Ogg Opus file. The file must have
// been encoded with the session's frame duration.
type OggOpusFile struct {
	Path    string
	Unpaced bool

	mu      sync.Mutex
	file    *os.File
	decoder *ogg.PacketDecoder
	skip    int
	pace    pacer
}

// Open opens the file
func (s *OggOpusFile) Open(params audio.Params) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.Open(s.Path)
	if err != nil {
		return fmt.Errorf("failed to open ogg file: %w", err)
	}

	s.file = f
	s.decoder = ogg.NewPacketDecoder(ogg.NewDecoder(f))
	s.skip = encode.HeaderPages
	s.pace = newPacer(params.FramePeriod(), !s.Unpaced)
	return nil
}

// NextFrame returns the next Opus packet
func (s *OggOpusFile) NextFrame(ctx context.Context) ([]byte, error) {
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

	for {
		packet, _, err := s.decoder.Decode()
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return nil, io.EOF
			}
			return nil, fmt.Errorf("ogg decode: %w", err)
		}
		if s.skip > 0 {
			s.skip--
			continue
		}
		if len(packet) == 0 {
			continue
		}
		return packet, nil
	}
}

// Close releases the file
func (s *OggOpusFile) Close() error {
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
