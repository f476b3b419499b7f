// Package ingest wraps the byte sources a decode run reads from (files,
// stdin, SRT connections) in a Stream that counts what passes through it,
// so the run summary can report source health next to decode results.
package ingest

import (
	"io"
	"sync/atomic"
	"time"
)

// IngestStats captures source-level counters for one ingest stream.
type IngestStats struct {
	BytesReceived int64  `json:"bytesReceived"`
	ReadCount     int64  `json:"readCount"`
	ConnectedAt   int64  `json:"connectedAt"`
	UptimeMs      int64  `json:"uptimeMs"`
	RemoteAddr    string `json:"remoteAddr"`
}

// Stream is an input source with byte and read counters. It is safe to read
// IngestStats from another goroutine while the stream is being read.
type Stream struct {
	Key       string
	StartedAt time.Time
	input     io.Reader
	closer    io.Closer

	bytesReceived atomic.Int64
	readCount     atomic.Int64
	remoteAddr    atomic.Value
}

// NewStream wraps r. If r is also an io.Closer, Close closes it.
func NewStream(key string, r io.Reader) *Stream {
	s := &Stream{
		Key:       key,
		StartedAt: time.Now(),
		input:     r,
	}
	if c, ok := r.(io.Closer); ok {
		s.closer = c
	}
	return s
}

// Read reads from the underlying source and records the result.
func (s *Stream) Read(p []byte) (int, error) {
	n, err := s.input.Read(p)
	if n > 0 {
		s.RecordRead(n)
	}
	return n, err
}

// Close closes the underlying source when it has a Close method.
func (s *Stream) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}

// RecordRead increments the byte and read counters.
func (s *Stream) RecordRead(n int) {
	s.bytesReceived.Add(int64(n))
	s.readCount.Add(1)
}

// SetRemoteAddr stores the remote address of the source for diagnostics.
func (s *Stream) SetRemoteAddr(addr string) {
	s.remoteAddr.Store(addr)
}

// IngestStats returns a snapshot of the stream counters.
func (s *Stream) IngestStats() IngestStats {
	addr, _ := s.remoteAddr.Load().(string)
	return IngestStats{
		BytesReceived: s.bytesReceived.Load(),
		ReadCount:     s.readCount.Load(),
		ConnectedAt:   s.StartedAt.UnixMilli(),
		UptimeMs:      time.Since(s.StartedAt).Milliseconds(),
		RemoteAddr:    addr,
	}
}
