package pipeline

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"testing/iotest"
	"time"

	"github.com/zsiec/b25/decoder"
	"github.com/zsiec/b25/internal/mpegts"
	"github.com/zsiec/b25/internal/passthrough"
)

func tsPackets(n int, pid uint16) []byte {
	var out []byte
	for i := 0; i < n; i++ {
		pkt := make([]byte, mpegts.PacketSize)
		pkt[0] = mpegts.SyncByte
		pkt[1] = byte(pid>>8) & 0x1F
		pkt[2] = byte(pid)
		pkt[3] = 0x10 | byte(i&0x0F)
		pkt[4] = byte(i)
		out = append(out, pkt...)
	}
	return out
}

func newSession(t *testing.T) *decoder.Session {
	t.Helper()
	s := decoder.New(passthrough.NewTransform, passthrough.NewCard, nil)
	if !s.Initialize(decoder.DefaultRound) {
		t.Fatal("Initialize failed")
	}
	t.Cleanup(s.Release)
	return s
}

type failWriter struct{}

func (failWriter) Write([]byte) (int, error) { return 0, errors.New("broken pipe") }

// flushFails decodes by echo and fails Flush.
type flushFails struct{}

func (flushFails) Initialize(uint32) bool          { return true }
func (flushFails) Decode(in []byte) ([]byte, bool) { return in, true }
func (flushFails) Flush() ([]byte, bool)           { return nil, false }
func (flushFails) Reset() bool                     { return true }
func (flushFails) Release()                        {}

// stalledReader blocks every Read until Close, like a source that has
// stopped sending.
type stalledReader struct {
	closed chan struct{}
}

func (r *stalledReader) Read([]byte) (int, error) {
	<-r.closed
	return 0, io.ErrClosedPipe
}

func (r *stalledReader) Close() error {
	close(r.closed)
	return nil
}

func TestNew(t *testing.T) {
	t.Parallel()

	p := New("test-stream", newSession(t), strings.NewReader(""), &bytes.Buffer{}, 0)
	if p == nil {
		t.Fatal("expected non-nil Pipeline")
	}
	if p.chunkSize != DefaultChunkSize {
		t.Errorf("chunkSize: got %d, want %d", p.chunkSize, DefaultChunkSize)
	}
}

func TestRunWithEOFReader(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	p := New("test-stream", newSession(t), strings.NewReader(""), &out, 0)
	if err := p.Run(context.Background()); err != nil {
		t.Errorf("Run with EOF reader: %v", err)
	}
	snap := p.Snapshot()
	if snap.Chunks != 0 || snap.BytesRead != 0 {
		t.Errorf("snapshot: got %+v, want no chunks", snap)
	}
}

func TestRunPassesStream(t *testing.T) {
	t.Parallel()

	in := tsPackets(10, 0x100)
	var out bytes.Buffer
	p := New("test-stream", newSession(t), bytes.NewReader(in), &out, 4*mpegts.PacketSize)

	if err := p.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !bytes.Equal(out.Bytes(), in) {
		t.Errorf("output: got %d bytes, want %d identical bytes", out.Len(), len(in))
	}

	snap := p.Snapshot()
	if snap.Chunks != 3 {
		t.Errorf("chunks: got %d, want 3", snap.Chunks)
	}
	if snap.BytesRead != int64(len(in)) || snap.BytesWritten != int64(len(in)) {
		t.Errorf("bytes: read %d written %d, want %d", snap.BytesRead, snap.BytesWritten, len(in))
	}
	if snap.FailedChunks != 0 || snap.FlushFailed {
		t.Errorf("unexpected failures: %+v", snap)
	}
}

func TestRunRecoversFromGarbageChunk(t *testing.T) {
	t.Parallel()

	chunk := 4 * mpegts.PacketSize
	good1 := tsPackets(4, 0x100)
	garbage := make([]byte, chunk)
	good2 := tsPackets(4, 0x101)

	var in []byte
	in = append(in, good1...)
	in = append(in, garbage...)
	in = append(in, good2...)

	var out bytes.Buffer
	p := New("test-stream", newSession(t), bytes.NewReader(in), &out, chunk)
	if err := p.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	want := append(append([]byte(nil), good1...), good2...)
	if !bytes.Equal(out.Bytes(), want) {
		t.Errorf("output: got %d bytes, want %d", out.Len(), len(want))
	}
	if snap := p.Snapshot(); snap.FailedChunks != 1 {
		t.Errorf("failed chunks: got %d, want 1", snap.FailedChunks)
	}
}

func TestRunStripsNullPackets(t *testing.T) {
	t.Parallel()

	s := newSession(t)
	s.DiscardNullPacket(true)

	in := append(tsPackets(3, 0x100), tsPackets(3, mpegts.NullPID)...)
	var out bytes.Buffer
	p := New("test-stream", s, bytes.NewReader(in), &out, 0)
	if err := p.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if out.Len() != 3*mpegts.PacketSize {
		t.Errorf("output: got %d bytes, want %d", out.Len(), 3*mpegts.PacketSize)
	}
}

func TestRunCancelledStillFlushes(t *testing.T) {
	t.Parallel()

	in := append(tsPackets(3, 0x100), mpegts.SyncByte, 0x01)
	s := newSession(t)
	s.Decode(in)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var out bytes.Buffer
	p := New("test-stream", s, bytes.NewReader(tsPackets(4, 0x100)), &out, 0)
	if err := p.Run(ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if snap := p.Snapshot(); snap.BytesRead != 0 {
		t.Errorf("bytes read after cancel: got %d, want 0", snap.BytesRead)
	}
	if !bytes.Equal(out.Bytes(), []byte{mpegts.SyncByte, 0x01}) {
		t.Errorf("flush output: got %X", out.Bytes())
	}
}

func TestRunWriteError(t *testing.T) {
	t.Parallel()

	p := New("test-stream", newSession(t), bytes.NewReader(tsPackets(4, 0x100)), failWriter{}, 0)
	if err := p.Run(context.Background()); err == nil {
		t.Error("Run should fail when the output cannot be written")
	}
}

func TestRunFlushFailure(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	p := New("test-stream", flushFails{}, strings.NewReader("abc"), &out, 0)
	if err := p.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	snap := p.Snapshot()
	if !snap.FlushFailed {
		t.Error("FlushFailed should be set")
	}
	if out.String() != "abc" {
		t.Errorf("output: got %q, want %q", out.String(), "abc")
	}
}

func TestRunReadErrorStillFlushes(t *testing.T) {
	t.Parallel()

	errSource := errors.New("source reset")
	in := append(tsPackets(3, 0x100), mpegts.SyncByte, 0x01)
	r := io.MultiReader(bytes.NewReader(in), iotest.ErrReader(errSource))

	var out bytes.Buffer
	p := New("test-stream", newSession(t), r, &out, 0)
	err := p.Run(context.Background())
	if !errors.Is(err, errSource) {
		t.Fatalf("Run: got %v, want %v", err, errSource)
	}
	if !bytes.Equal(out.Bytes(), in) {
		t.Errorf("output: got %d bytes, want %d", out.Len(), len(in))
	}
	if snap := p.Snapshot(); snap.FlushBytes != 2 {
		t.Errorf("flushed bytes: got %d, want 2", snap.FlushBytes)
	}
}

func TestRunStalledSourceClosedOnCancel(t *testing.T) {
	t.Parallel()

	src := &stalledReader{closed: make(chan struct{})}
	ctx, cancel := context.WithCancel(context.Background())
	stop := context.AfterFunc(ctx, func() { src.Close() })
	defer stop()

	p := New("test-stream", newSession(t), src, &bytes.Buffer{}, 0)
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run after cancel: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after the source was closed")
	}
}
