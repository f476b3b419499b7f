// Package passthrough provides a Transform for transport streams that carry
// no scrambling, plus a Card that needs no reader. The Transform aligns the
// input to packets, optionally drops null packets, and hands everything
// else through untouched. It is what the CLI runs when no hardware engine is
// configured, and what the pipeline tests run against.
package passthrough

import (
	"github.com/zsiec/b25/arib"
	"github.com/zsiec/b25/internal/mpegts"
)

// Transform implements arib.Transform without descrambling.
type Transform struct {
	align mpegts.Aligner
	out   []byte
	taken bool

	round    uint32
	strip    bool
	emmProc  bool
	card     arib.Card
	released bool
}

var _ arib.Transform = (*Transform)(nil)

// NewTransform allocates a Transform. Its signature matches
// arib.TransformFactory.
func NewTransform() (arib.Transform, error) {
	return &Transform{}, nil
}

// Put aligns buf and queues its packets for Get. A chunk that yields no
// packet because no sync byte run could be found fails with
// arib.StatusNonTSInputStream.
func (t *Transform) Put(buf []byte) error {
	if t.released || len(buf) == 0 {
		return arib.StatusInvalidParam
	}
	if t.taken {
		t.out = t.out[:0]
		t.taken = false
	}

	aligned := 0
	skipped := t.align.Feed(buf, func(pkt []byte) {
		aligned++
		t.queue(pkt)
	})
	if skipped > 0 && aligned == 0 && !t.align.Locked() {
		return arib.StatusNonTSInputStream
	}
	return nil
}

// Get returns the queued output. The slice is reused by the next Put,
// Flush, or Reset.
func (t *Transform) Get() ([]byte, error) {
	if t.released {
		return nil, arib.StatusInvalidParam
	}
	t.taken = true
	return t.out, nil
}

// Flush queues the carried bytes for the next Get. Whole packets that never
// reached sync lock are filtered like any other; a trailing partial packet
// is passed through unmodified.
func (t *Transform) Flush() error {
	if t.released {
		return arib.StatusInvalidParam
	}
	if t.taken {
		t.out = t.out[:0]
		t.taken = false
	}
	rest := t.align.Remainder()
	for len(rest) >= mpegts.PacketSize && rest[0] == mpegts.SyncByte {
		t.queue(rest[:mpegts.PacketSize])
		rest = rest[mpegts.PacketSize:]
	}
	t.out = append(t.out, rest...)
	return nil
}

func (t *Transform) queue(pkt []byte) {
	if t.strip && mpegts.IsNull(pkt) {
		return
	}
	t.out = append(t.out, pkt...)
}

// Reset drops queued output, carried bytes, and sync state.
func (t *Transform) Reset() error {
	if t.released {
		return arib.StatusInvalidParam
	}
	t.align.Reset()
	t.out = t.out[:0]
	t.taken = false
	return nil
}

// Release frees the output buffer. Further calls fail.
func (t *Transform) Release() {
	t.out = nil
	t.card = nil
	t.released = true
}

func (t *Transform) SetRound(n uint32)      { t.round = n }
func (t *Transform) SetStrip(enable bool)   { t.strip = enable }
func (t *Transform) SetEmmProc(enable bool) { t.emmProc = enable }

// SetCard records the card. A nil card fails with arib.StatusEmptyBCASCard.
func (t *Transform) SetCard(card arib.Card) error {
	if card == nil {
		return arib.StatusEmptyBCASCard
	}
	t.card = card
	return nil
}

// Round returns the configured round count.
func (t *Transform) Round() uint32 { return t.round }

// Strip reports whether null packets are dropped.
func (t *Transform) Strip() bool { return t.strip }

// EmmProc reports whether EMM processing was requested.
func (t *Transform) EmmProc() bool { return t.emmProc }

// NoCard is a Card that needs no reader.
type NoCard struct{}

// NewCard allocates a NoCard. Its signature matches arib.CardFactory.
func NewCard() (arib.Card, error) {
	return NoCard{}, nil
}

func (NoCard) Init() error { return nil }
func (NoCard) Release()    {}
