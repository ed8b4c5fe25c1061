package service

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/psds-microservice/video-management-service/internal/errs"
	"go.uber.org/zap"
)

// DefaultChunkSize is the chunk size used when none is configured.
const DefaultChunkSize = 64 * 1024

// StreamChunk is one fixed-size (or final, shorter) slice of the asset.
// Index is 1-based and strictly increasing per stream instance.
type StreamChunk struct {
	Index       uint64
	TotalChunks uint64
	Data        []byte
}

// ChunkSink receives the output of a StreamReader. WriteChunk blocks while
// the sink is saturated; that blocking is the reader's flow control.
// StreamEnded is called exactly once on natural completion, StreamFailed on a
// source read error. Neither is called after cancellation is observed.
type ChunkSink interface {
	WriteChunk(ctx context.Context, chunk StreamChunk) error
	StreamEnded()
	StreamFailed(reason error)
}

// StreamReader delivers a bounded byte source as an ordered sequence of
// chunks. One instance serves one stream; it is not restartable.
type StreamReader struct {
	source    io.ReadCloser
	length    int64
	chunkSize int64
	sink      ChunkSink
	log       *zap.Logger
}

// NewStreamReader validates the chunk size and prepares a reader.
// totalChunks is fixed at ceil(length/chunkSize) here and never recalculated.
func NewStreamReader(source io.ReadCloser, length, chunkSize int64, sink ChunkSink, log *zap.Logger) (*StreamReader, error) {
	if chunkSize <= 0 {
		return nil, errs.ErrInvalidChunkSize
	}
	return &StreamReader{source: source, length: length, chunkSize: chunkSize, sink: sink, log: log}, nil
}

// TotalChunks returns the chunk count computed from the declared length.
func (r *StreamReader) TotalChunks() uint64 {
	return uint64((r.length + r.chunkSize - 1) / r.chunkSize)
}

// Run reads the source to completion, cancellation, or failure. Cancellation
// is checked before each blocking read and at each chunk boundary; no chunk is
// produced from a read issued after ctx is cancelled. Delivery is bounded by
// the declared length, so a source that keeps growing underneath (an upload
// still in progress) cannot push indices past TotalChunks. The source is
// always released on return.
func (r *StreamReader) Run(ctx context.Context) {
	defer func() { _ = r.source.Close() }()

	total := r.TotalChunks()
	if r.length == 0 {
		if ctx.Err() == nil {
			r.sink.StreamEnded()
		}
		return
	}

	var index uint64
	remaining := r.length
	for remaining > 0 {
		if ctx.Err() != nil {
			return
		}
		size := r.chunkSize
		if remaining < size {
			size = remaining
		}
		buf := make([]byte, size)
		n, err := io.ReadFull(r.source, buf)
		if n > 0 {
			if ctx.Err() != nil {
				return
			}
			index++
			remaining -= int64(n)
			chunk := StreamChunk{Index: index, TotalChunks: total, Data: buf[:n]}
			if werr := r.sink.WriteChunk(ctx, chunk); werr != nil {
				return
			}
		}
		switch {
		case err == nil:
			// full chunk, keep reading
		case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
			// source shorter than declared: end with what was delivered
			if ctx.Err() == nil {
				r.sink.StreamEnded()
			}
			return
		default:
			r.log.Warn("stream source read failed", zap.Error(err))
			if ctx.Err() == nil {
				r.sink.StreamFailed(fmt.Errorf("%w: %w", errs.ErrSourceUnreadable, err))
			}
			return
		}
	}
	if ctx.Err() == nil {
		r.sink.StreamEnded()
	}
}
