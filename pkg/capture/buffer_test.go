// ABOUTME: Tests for the capture chunk buffer
// ABOUTME: Verifies reassembly, overrun accounting, close and cancellation
package capture

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunkBufferReassembles(t *testing.T) {
	buf := newChunkBuffer(16)

	// Device periods rarely line up with chunks
	_, err := buf.Write([]byte{1, 2, 3})
	require.NoError(t, err)
	_, err = buf.Write([]byte{4, 5})
	require.NoError(t, err)

	chunk := make([]byte, 4)
	require.NoError(t, buf.ReadChunk(context.Background(), chunk))
	assert.Equal(t, []byte{1, 2, 3, 4}, chunk)
}

func TestChunkBufferDropsOverrun(t *testing.T) {
	buf := newChunkBuffer(4)

	n, err := buf.Write([]byte{1, 2, 3})
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	n, err = buf.Write([]byte{4, 5})
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.Equal(t, uint64(1), buf.Overruns())
}

func TestChunkBufferWaitsForWriter(t *testing.T) {
	buf := newChunkBuffer(16)

	go func() {
		time.Sleep(10 * time.Millisecond)
		_, _ = buf.Write([]byte{7, 7})
	}()

	chunk := make([]byte, 2)
	require.NoError(t, buf.ReadChunk(context.Background(), chunk))
	assert.Equal(t, []byte{7, 7}, chunk)
}

func TestChunkBufferCloseEndsRead(t *testing.T) {
	buf := newChunkBuffer(16)
	_, _ = buf.Write([]byte{1})

	go func() {
		time.Sleep(10 * time.Millisecond)
		buf.Close()
	}()

	err := buf.ReadChunk(context.Background(), make([]byte, 4))
	assert.ErrorIs(t, err, io.EOF)

	_, err = buf.Write([]byte{1})
	assert.ErrorIs(t, err, io.ErrClosedPipe)
}

func TestChunkBufferHonorsContext(t *testing.T) {
	buf := newChunkBuffer(16)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := buf.ReadChunk(ctx, make([]byte, 4))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
