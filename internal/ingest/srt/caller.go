package srt

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	srtgo "github.com/zsiec/srtgo"

	"github.com/zsiec/b25/internal/ingest"
)

// srtLatencyNs is the SRT latency setting in nanoseconds (120ms).
const srtLatencyNs = 120_000_000

// PullRequest describes a remote SRT source to pull from.
type PullRequest struct {
	Address     string
	StreamID    string
	DialTimeout time.Duration
}

// ParseURL turns srt://host:port[?streamid=...] into a PullRequest.
func ParseURL(raw string) (PullRequest, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return PullRequest{}, fmt.Errorf("parse SRT url: %w", err)
	}
	if u.Scheme != "srt" {
		return PullRequest{}, fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" || u.Port() == "" {
		return PullRequest{}, fmt.Errorf("SRT url %q needs host:port", raw)
	}
	return PullRequest{
		Address:  u.Host,
		StreamID: u.Query().Get("streamid"),
	}, nil
}

// IsURL reports whether target names an SRT source.
func IsURL(target string) bool {
	return strings.HasPrefix(target, "srt://")
}

// Dial connects to the remote SRT listener and returns the connection as an
// ingest Stream. The dial is abandoned after req.DialTimeout or when ctx is
// cancelled; a connection that completes afterwards is closed.
func Dial(ctx context.Context, req PullRequest, log *slog.Logger) (*ingest.Stream, error) {
	if req.Address == "" {
		return nil, fmt.Errorf("address is required")
	}
	if log == nil {
		log = slog.Default()
	}
	log = log.With("component", "srt-caller")

	dialTimeout := req.DialTimeout
	if dialTimeout <= 0 {
		dialTimeout = 10 * time.Second
	}

	cfg := srtgo.DefaultConfig()
	cfg.Latency = srtLatencyNs
	if req.StreamID != "" {
		cfg.StreamID = req.StreamID
	}

	log.Info("dialing", "address", req.Address, "stream_id", req.StreamID)

	type dialResult struct {
		conn *srtgo.Conn
		err  error
	}
	ch := make(chan dialResult, 1)
	go func() {
		conn, err := srtgo.Dial(req.Address, cfg)
		ch <- dialResult{conn, err}
	}()

	timer := time.NewTimer(dialTimeout)
	defer timer.Stop()

	select {
	case res := <-ch:
		if res.err != nil {
			return nil, fmt.Errorf("SRT dial failed: %w", res.err)
		}
		log.Info("connected", "address", req.Address)
		stream := ingest.NewStream(streamKey(req), conn{res.conn})
		stream.SetRemoteAddr(req.Address)
		return stream, nil
	case <-timer.C:
		// Drain the dial result in the background and close any leaked connection.
		go func() {
			if res := <-ch; res.conn != nil {
				res.conn.Close()
			}
		}()
		return nil, fmt.Errorf("SRT dial timed out after %s", dialTimeout)
	case <-ctx.Done():
		go func() {
			if res := <-ch; res.conn != nil {
				res.conn.Close()
			}
		}()
		return nil, ctx.Err()
	}
}

func streamKey(req PullRequest) string {
	if req.StreamID != "" {
		return extractStreamKey(req.StreamID)
	}
	return req.Address
}
