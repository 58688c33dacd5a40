// ABOUTME: Chunk buffer between a device callback and the capture pipeline
// ABOUTME: Never blocks the writer; overruns are dropped and counted
package capture

import (
	"context"
	"io"
	"sync"
	"sync/atomic"

	"github.com/smallnest/ringbuffer"
)

// chunkBuffer hands fixed-size chunks from a real-time writer to a reader.
// Write never blocks: a chunk that does not fit is dropped whole.
type chunkBuffer struct {
	b    *ringbuffer.RingBuffer
	mu   sync.Mutex
	cond *sync.Cond

	closed   bool
	overruns atomic.Uint64
}

func newChunkBuffer(size int) *chunkBuffer {
	buf := &chunkBuffer{b: ringbuffer.New(size)}
	buf.cond = sync.NewCond(&buf.mu)
	return buf
}

func (buf *chunkBuffer) Write(p []byte) (int, error) {
	buf.mu.Lock()
	defer buf.mu.Unlock()

	if buf.closed {
		return 0, io.ErrClosedPipe
	}
	if buf.b.Free() < len(p) {
		buf.overruns.Add(1)
		return 0, nil
	}

	n, err := buf.b.Write(p)
	if n > 0 {
		buf.cond.Broadcast()
	}
	return n, err
}

// ReadChunk fills p completely. It returns io.EOF once the buffer is
// closed with less than len(p) bytes left.
func (buf *chunkBuffer) ReadChunk(ctx context.Context, p []byte) error {
	stop := context.AfterFunc(ctx, func() {
		buf.mu.Lock()
		buf.cond.Broadcast()
		buf.mu.Unlock()
	})
	defer stop()

	buf.mu.Lock()
	defer buf.mu.Unlock()

	for buf.b.Length() < len(p) && !buf.closed {
		if err := ctx.Err(); err != nil {
			return err
		}
		buf.cond.Wait()
	}

	if buf.b.Length() < len(p) {
		return io.EOF
	}

	_, err := io.ReadFull(buf.b, p)
	return err
}

func (buf *chunkBuffer) Close() error {
	buf.mu.Lock()
	defer buf.mu.Unlock()
	buf.closed = true
	buf.cond.Broadcast()
	return nil
}

// Overruns returns how many writes were dropped for lack of space
func (buf *chunkBuffer) Overruns() uint64 {
	return buf.overruns.Load()
}
