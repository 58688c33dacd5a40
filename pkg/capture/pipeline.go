// ABOUTME: Capture to uplink pipeline
// ABOUTME: Remixes chunks, encodes them to Ogg pages and forwards the bare frames
package capture

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync/atomic"

	"github.com/charmbracelet/log"
	"github.com/seraphwave/seraphwave-go/pkg/audio"
	"github.com/seraphwave/seraphwave-go/pkg/audio/container"
	"github.com/seraphwave/seraphwave-go/pkg/audio/decode"
	"github.com/seraphwave/seraphwave-go/pkg/audio/encode"
)

// Sender receives raw codec frames. *protocol.Client satisfies it.
type Sender interface {
	Send(payload []byte) error
}

// PipelineConfig holds pipeline settings
type PipelineConfig struct {
	Format audio.Format
	Logger *log.Logger
}

// PipelineStats are cumulative pipeline counters
type PipelineStats struct {
	Chunks       uint64
	HeaderChunks uint64 // chunks dropped by the size rule
	Pages        uint64
	HeaderPages  uint64
	Frames       uint64 // frames handed to the sender
	Bytes        uint64
}

// Pipeline moves audio from a source to a sender
type Pipeline struct {
	sender Sender
	format audio.Format
	logger *log.Logger

	chunks       atomic.Uint64
	headerChunks atomic.Uint64
	pages        atomic.Uint64
	headerPages  atomic.Uint64
	frames       atomic.Uint64
	bytes        atomic.Uint64
}

// NewPipeline creates a pipeline for the given format
func NewPipeline(sender Sender, cfg PipelineConfig) *Pipeline {
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}
	if cfg.Format.Codec == "" {
		cfg.Format.Codec = audio.CodecOpus
	}

	return &Pipeline{
		sender: sender,
		format: cfg.Format,
		logger: logger.WithPrefix("capture"),
	}
}

// Stats returns a snapshot of the counters
func (p *Pipeline) Stats() PipelineStats {
	return PipelineStats{
		Chunks:       p.chunks.Load(),
		HeaderChunks: p.headerChunks.Load(),
		Pages:        p.pages.Load(),
		HeaderPages:  p.headerPages.Load(),
		Frames:       p.frames.Load(),
		Bytes:        p.bytes.Load(),
	}
}

// Run captures from src until it is exhausted or ctx ends. Both end the
// run cleanly; a failing sender or encoder is returned.
func (p *Pipeline) Run(ctx context.Context, src Source) error {
	params := p.format.Params
	if err := p.format.Validate(); err != nil {
		return err
	}
	if err := src.Open(params); err != nil {
		return fmt.Errorf("open capture source: %w", err)
	}
	defer src.Close()

	var forward func([]byte) error
	switch p.format.Codec {
	case audio.CodecPCM:
		forward = p.send
	case audio.CodecOpus:
		f, closeEnc, err := p.opusForwarder(params)
		if err != nil {
			return err
		}
		defer closeEnc()
		forward = f
	default:
		return fmt.Errorf("unsupported uplink codec: %s", p.format.Codec)
	}

	p.logger.Info("Capture pipeline started", "codec", p.format.Codec, "params", params)

	for {
		chunk, err := src.ReadChunk(ctx)
		if err != nil {
			return p.finish(ctx, err)
		}
		p.chunks.Add(1)

		frame := Remix(params, chunk)
		if frame == nil {
			p.headerChunks.Add(1)
			p.logger.Debug("Dropped chunk", "bytes", len(chunk), "want", params.PacketSize)
			continue
		}

		if err := forward(frame); err != nil {
			return err
		}
	}
}

// opusForwarder encodes PCM frames through the page-framed encoder and
// sends each page's payload once the two header pages have passed
func (p *Pipeline) opusForwarder(params audio.Params) (func([]byte) error, func(), error) {
	pcm, err := decode.NewPCM(audio.Format{Codec: audio.CodecPCM, Params: params})
	if err != nil {
		return nil, nil, err
	}
	enc, err := encode.NewOggOpus(p.format)
	if err != nil {
		return nil, nil, err
	}

	var splitter container.PageSplitter
	seen := 0

	forward := func(frame []byte) error {
		samples, err := pcm.Decode(frame)
		if err != nil {
			return fmt.Errorf("decode captured pcm: %w", err)
		}
		out, err := enc.Encode(samples)
		if err != nil {
			return err
		}
		_, _ = splitter.Write(out)

		for page, ok := splitter.Next(); ok; page, ok = splitter.Next() {
			p.pages.Add(1)
			if seen < encode.HeaderPages {
				seen++
				p.headerPages.Add(1)
				continue
			}
			payload := container.ExtractFrames(page)
			if len(payload) == 0 {
				continue
			}
			if err := p.send(payload); err != nil {
				return err
			}
		}
		return nil
	}

	closeEnc := func() {
		if err := enc.Close(); err != nil {
			p.logger.Debug("Encoder close failed", "err", err)
		}
	}
	return forward, closeEnc, nil
}

// RunFrames forwards pre-encoded frames until fs is exhausted or ctx ends
func (p *Pipeline) RunFrames(ctx context.Context, fs FrameSource) error {
	if err := fs.Open(p.format.Params); err != nil {
		return fmt.Errorf("open frame source: %w", err)
	}
	defer fs.Close()

	p.logger.Info("Frame pipeline started", "params", p.format.Params)

	for {
		frame, err := fs.NextFrame(ctx)
		if err != nil {
			return p.finish(ctx, err)
		}
		if err := p.send(frame); err != nil {
			return err
		}
	}
}

func (p *Pipeline) send(frame []byte) error {
	if err := p.sender.Send(frame); err != nil {
		return fmt.Errorf("send frame: %w", err)
	}
	p.frames.Add(1)
	p.bytes.Add(uint64(len(frame)))
	return nil
}

func (p *Pipeline) finish(ctx context.Context, err error) error {
	if errors.Is(err, io.EOF) || ctx.Err() != nil {
		p.logger.Info("Capture pipeline stopped", "frames", p.frames.Load())
		return nil
	}
	return fmt.Errorf("read capture source: %w", err)
}
