package srt

import (
	"errors"
	"io"

	srtgo "github.com/zsiec/srtgo"
)

// conn reports an orderly peer shutdown as io.EOF so readers treat it as
// the end of the stream rather than a failure.
type conn struct {
	*srtgo.Conn
}

func (c conn) Read(p []byte) (int, error) {
	n, err := c.Conn.Read(p)
	if errors.Is(err, srtgo.ErrPeerShutdown) {
		err = io.EOF
	}
	return n, err
}
