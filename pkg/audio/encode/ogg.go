// ABOUTME: Page-framed Opus encoder
// ABOUTME: Wraps each Opus packet in an Ogg page the way a streaming recorder would
package encode

import (
	"bytes"
	"fmt"

	"github.com/pion/rtp"
	"github.com/pion/webrtc/v4/pkg/media/oggwriter"
	"github.com/seraphwave/seraphwave-go/pkg/audio"
)

// HeaderPages is the number of metadata pages (OpusHead, OpusTags) an
// OggOpus stream starts with
const HeaderPages = 2

// OggOpus is a streaming encoder whose output is a sequence of Ogg pages.
// Each Encode call returns every byte written since the previous call, so
// the first call also carries the two header pages.
type OggOpus struct {
	opus   *OpusEncoder
	writer *oggwriter.OggWriter
	out    bytes.Buffer

	seq       uint16
	timestamp uint32
	frameSize uint32
}

// NewOggOpus creates a page-framed encoder. format.Codec is ignored.
func NewOggOpus(format audio.Format) (*OggOpus, error) {
	format.Codec = audio.CodecOpus
	enc, err := NewOpus(format)
	if err != nil {
		return nil, err
	}

	o := &OggOpus{
		opus:      enc,
		frameSize: uint32(format.FrameSize),
	}

	o.writer, err = oggwriter.NewWith(&o.out, uint32(format.SampleRate), uint16(format.Channels))
	if err != nil {
		return nil, fmt.Errorf("failed to create ogg writer: %w", err)
	}
	return o, nil
}

// Encode encodes one frame and returns the pending page bytes
func (o *OggOpus) Encode(samples []int32) ([]byte, error) {
	packet, err := o.opus.Encode(samples)
	if err != nil {
		return nil, err
	}

	o.seq++
	o.timestamp += o.frameSize
	err = o.writer.WriteRTP(&rtp.Packet{
		Header: rtp.Header{
			Version:        2,
			PayloadType:    0x78,
			SequenceNumber: o.seq,
			Timestamp:      o.timestamp,
		},
		Payload: packet,
	})
	if err != nil {
		return nil, fmt.Errorf("error writing ogg page: %w", err)
	}

	pending := make([]byte, o.out.Len())
	copy(pending, o.out.Bytes())
	o.out.Reset()
	return pending, nil
}

// Close flushes the writer
func (o *OggOpus) Close() error {
	if err := o.writer.Close(); err != nil {
		return fmt.Errorf("failed to close ogg writer: %w", err)
	}
	return o.opus.Close()
}
