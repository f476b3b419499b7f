package srt

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	srtgo "github.com/zsiec/srtgo"

	"github.com/zsiec/b25/internal/ingest"
)

// Handler consumes one accepted publisher. It runs on the connection's
// goroutine; the connection is closed when it returns.
type Handler func(ctx context.Context, stream *ingest.Stream) error

// Server accepts incoming SRT publish connections and hands each one to a
// Handler.
type Server struct {
	log     *slog.Logger
	addr    string
	handler Handler
	admit   func(streamKey string) bool
}

// NewServer creates an SRT server that listens on addr. admit, when non-nil,
// is asked before a connection is accepted; returning false rejects the
// publisher at handshake. If log is nil, slog.Default() is used.
func NewServer(addr string, handler Handler, admit func(streamKey string) bool, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{
		log:     log.With("component", "srt-server"),
		addr:    addr,
		handler: handler,
		admit:   admit,
	}
}

// Start begins accepting SRT publish connections. It blocks until the
// context is cancelled and every running Handler has returned.
func (s *Server) Start(ctx context.Context) error {
	cfg := srtgo.DefaultConfig()
	cfg.Latency = srtLatencyNs

	l, err := srtgo.Listen(s.addr, cfg)
	if err != nil {
		return fmt.Errorf("SRT listen on %s: %w", s.addr, err)
	}
	s.log.Info("listening", "addr", s.addr)

	l.SetAcceptRejectFunc(func(req srtgo.ConnRequest) srtgo.RejectReason {
		if s.admit != nil && !s.admit(extractStreamKey(req.StreamID)) {
			s.log.Warn("rejecting publisher, decoder busy", "stream_id", req.StreamID)
			return srtgo.RejPeer
		}
		return 0
	})

	go func() {
		<-ctx.Done()
		l.Close()
	}()

	var handlers sync.WaitGroup
	defer handlers.Wait()

	for {
		c, err := l.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			s.log.Warn("accept error", "error", err)
			continue
		}

		streamKey := extractStreamKey(c.StreamID())
		s.log.Info("publish", "stream_key", streamKey, "remote", c.RemoteAddr())

		handlers.Add(1)
		go func() {
			defer handlers.Done()
			s.handleConnection(ctx, c, streamKey)
		}()
	}
}

func (s *Server) handleConnection(ctx context.Context, c *srtgo.Conn, streamKey string) {
	stream := ingest.NewStream(streamKey, conn{c})
	defer stream.Close()
	stream.SetRemoteAddr(c.RemoteAddr().String())

	// Closing on cancel unblocks a handler stuck in Read.
	stop := context.AfterFunc(ctx, func() { c.Close() })
	defer stop()

	if err := s.handler(ctx, stream); err != nil && !errors.Is(err, io.EOF) && ctx.Err() == nil {
		s.log.Warn("publisher handler failed", "stream_key", streamKey, "error", err)
	}

	stats := stream.IngestStats()
	s.log.Info("connection closed", "stream_key", streamKey,
		"bytes", stats.BytesReceived, "reads", stats.ReadCount,
		"uptime_ms", stats.UptimeMs)
}

func extractStreamKey(streamID string) string {
	streamID = strings.TrimPrefix(streamID, "/")
	streamID = strings.TrimPrefix(streamID, "live/")
	if streamID == "" {
		return "default"
	}
	return streamID
}
