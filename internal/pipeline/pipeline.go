// Package pipeline pumps one input stream through a decode session: it reads
// fixed-size chunks, decodes each, writes whatever the session returns, and
// flushes at end of input. A chunk that fails to decode is logged and
// skipped; the run carries on with the next one.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/zsiec/b25/decoder"
)

// DefaultChunkSize is 512 transport stream packets.
const DefaultChunkSize = 188 * 512

// Stats is a point-in-time view of a run's counters.
type Stats struct {
	BytesRead    int64 `json:"bytesRead"`
	BytesWritten int64 `json:"bytesWritten"`
	Chunks       int64 `json:"chunks"`
	FailedChunks int64 `json:"failedChunks"`
	FlushBytes   int64 `json:"flushBytes"`
	FlushFailed  bool  `json:"flushFailed"`
	UptimeMs     int64 `json:"uptimeMs"`
}

// Pipeline bridges a single input stream and an output through a Decoder.
type Pipeline struct {
	log       *slog.Logger
	dec       decoder.Decoder
	input     io.Reader
	output    io.Writer
	chunkSize int
	startTime time.Time

	bytesRead    atomic.Int64
	bytesWritten atomic.Int64
	chunks       atomic.Int64
	failedChunks atomic.Int64
	flushBytes   atomic.Int64
	flushFailed  atomic.Bool
}

// New creates a Pipeline that reads from input in chunks of chunkSize bytes
// and writes decoded output. The Decoder must already be initialized. A
// chunkSize of zero or less selects DefaultChunkSize.
func New(streamKey string, dec decoder.Decoder, input io.Reader, output io.Writer, chunkSize int) *Pipeline {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	return &Pipeline{
		log:       slog.With("stream", streamKey),
		dec:       dec,
		input:     input,
		output:    output,
		chunkSize: chunkSize,
		startTime: time.Now(),
	}
}

// Snapshot returns the current counters. It is safe to call while Run is in
// progress.
func (p *Pipeline) Snapshot() Stats {
	return Stats{
		BytesRead:    p.bytesRead.Load(),
		BytesWritten: p.bytesWritten.Load(),
		Chunks:       p.chunks.Load(),
		FailedChunks: p.failedChunks.Load(),
		FlushBytes:   p.flushBytes.Load(),
		FlushFailed:  p.flushFailed.Load(),
		UptimeMs:     time.Since(p.startTime).Milliseconds(),
	}
}

// Run reads until end of input or until ctx is cancelled, then flushes the
// decoder. Cancellation is observed between chunks; a read blocked on a
// stalled source only returns once the caller closes that source. The flush
// runs on every exit so buffered output is not lost. A read error that is not
// caused by cancellation is returned after the flush.
func (p *Pipeline) Run(ctx context.Context) error {
	buf := make([]byte, p.chunkSize)

	var readErr error
	for ctx.Err() == nil {
		n, err := io.ReadFull(p.input, buf)
		if n > 0 {
			p.bytesRead.Add(int64(n))
			if werr := p.decodeChunk(buf[:n]); werr != nil {
				return werr
			}
		}
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			break
		}
		if err != nil {
			if ctx.Err() == nil {
				readErr = fmt.Errorf("read input: %w", err)
			}
			break
		}
	}

	if ctx.Err() != nil {
		p.log.Info("stop requested, flushing")
	}
	if err := p.flush(); err != nil {
		return err
	}
	return readErr
}

func (p *Pipeline) decodeChunk(chunk []byte) error {
	p.chunks.Add(1)

	out, ok := p.dec.Decode(chunk)
	if !ok {
		p.failedChunks.Add(1)
		p.log.Warn("decode failed, skipping chunk", "chunk", p.chunks.Load(), "size", len(chunk))
		return nil
	}
	p.log.Debug("decoded chunk", "in", len(chunk), "out", len(out))

	// out is only valid until the next session call, so it is written now.
	return p.write(out)
}

func (p *Pipeline) flush() error {
	out, ok := p.dec.Flush()
	if !ok {
		p.flushFailed.Store(true)
		p.log.Warn("flush failed")
		return nil
	}
	p.flushBytes.Store(int64(len(out)))
	p.log.Debug("flushed", "size", len(out))
	return p.write(out)
}

func (p *Pipeline) write(out []byte) error {
	if len(out) == 0 {
		return nil
	}
	n, err := p.output.Write(out)
	p.bytesWritten.Add(int64(n))
	if err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}
