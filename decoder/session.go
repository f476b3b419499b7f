// Package decoder wraps a stateful ARIB STD-B25 Transform and its Card in a
// Session with a small lifecycle: Initialize once, Decode chunks, Flush at
// end of stream, Reset on demand, Release to tear down. Every operation runs
// under one lock, and a failed Put always resets the Transform before the
// call returns so that a corrupt burst of input cannot wedge it.
package decoder

import (
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/zsiec/b25/arib"
)

// DefaultRound is the MULTI2 round count used when the caller has no
// preference.
const DefaultRound uint32 = 4

// Decoder is the base decode contract.
type Decoder interface {
	Initialize(round uint32) bool
	Decode(in []byte) ([]byte, bool)
	Flush() ([]byte, bool)
	Reset() bool
	Release()
}

// Decoder2 extends Decoder with configuration toggles and the statistics
// queries expected by richer callers.
type Decoder2 interface {
	Decoder
	Capabilities
}

var (
	_ Decoder  = (*Session)(nil)
	_ Decoder2 = (*Session)(nil)
)

// Session owns one Transform and one Card. Both are nil until Initialize
// succeeds and both are nil again after Release; one is never set without
// the other.
//
// Slices returned by Decode and Flush are borrowed from the Transform and
// are only valid until the next call on the Session. Callers that need the
// bytes longer must copy them first.
type Session struct {
	base       *slog.Logger
	transforms arib.TransformFactory
	cards      arib.CardFactory

	mu        sync.Mutex
	transform arib.Transform
	card      arib.Card
	log       *slog.Logger
}

// New creates an uninitialized Session that allocates its Transform and Card
// from the given factories. If log is nil, slog.Default() is used.
func New(transforms arib.TransformFactory, cards arib.CardFactory, log *slog.Logger) *Session {
	if log == nil {
		log = slog.Default()
	}
	return &Session{
		base:       log.With("component", "b25-decoder"),
		transforms: transforms,
		cards:      cards,
	}
}

// Initialize allocates the Transform and Card, configures the Transform with
// the given round count and with null stripping and EMM processing off, and
// binds the Card to it. It succeeds immediately when the Session is already
// initialized. On failure nothing allocated survives.
func (s *Session) Initialize(round uint32) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.transform != nil {
		return true
	}

	s.openLog()

	t, c, err := s.open(round)
	if err != nil {
		s.log.Error("initialize failed", "error", err, "code", int(arib.StatusOf(err)))
		return false
	}

	s.transform, s.card = t, c
	s.log.Info("initialized", "round", round)
	return true
}

// Decode submits in to the Transform and returns the output it has ready.
// It fails when in is empty or the Session is not initialized. A Put failure
// resets the Transform before returning, whatever the failure code.
func (s *Session) Decode(in []byte) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(in) == 0 || s.transform == nil {
		return nil, false
	}

	if err := s.transform.Put(in); err != nil {
		s.log.Warn("put failed, resetting transform",
			"error", err, "code", int(arib.StatusOf(err)), "size", len(in))
		if rerr := s.transform.Reset(); rerr != nil {
			s.log.Warn("reset after put failure failed", "error", rerr, "code", int(arib.StatusOf(rerr)))
		}
		return nil, false
	}

	out, err := s.transform.Get()
	if err != nil {
		s.log.Warn("get failed", "error", err, "code", int(arib.StatusOf(err)))
		return nil, false
	}

	s.log.Debug("decoded", "in", len(in), "out", len(out))
	return out, true
}

// Flush drains whatever the Transform still buffers. An empty result is a
// success.
func (s *Session) Flush() ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.transform == nil {
		return nil, false
	}

	if err := s.transform.Flush(); err != nil {
		s.log.Error("flush failed", "error", err, "code", int(arib.StatusOf(err)))
		return nil, false
	}

	out, err := s.transform.Get()
	if err != nil {
		s.log.Warn("get after flush failed", "error", err, "code", int(arib.StatusOf(err)))
		return nil, true
	}
	return out, true
}

// Reset clears the Transform's buffered packets and continuity tracking
// without releasing it or the Card.
func (s *Session) Reset() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.transform == nil {
		return false
	}

	if err := s.transform.Reset(); err != nil {
		s.log.Error("reset failed", "error", err, "code", int(arib.StatusOf(err)))
		return false
	}
	return true
}

// Release frees the Transform and then the Card and closes the diagnostic
// log channel. It is safe to call any number of times, with or without a
// prior Initialize.
func (s *Session) Release() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closeHandles()
	s.closeLog()
}

// Initialized reports whether the Session currently holds a Transform.
func (s *Session) Initialized() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.transform != nil
}

// open allocates and wires a Transform/Card pair, releasing whatever it
// allocated if a later step fails.
func (s *Session) open(round uint32) (t arib.Transform, c arib.Card, err error) {
	defer func() {
		if err == nil {
			return
		}
		if t != nil {
			t.Release()
		}
		if c != nil {
			c.Release()
		}
		t, c = nil, nil
	}()

	if s.transforms == nil || s.cards == nil {
		return nil, nil, errMissingFactory
	}

	t, err = s.transforms()
	if err != nil {
		return t, nil, wrap("create transform", err)
	}
	if t == nil {
		return nil, nil, wrap("create transform", arib.StatusNoEnoughMemory)
	}

	t.SetRound(round)
	t.SetStrip(false)
	t.SetEmmProc(false)

	c, err = s.cards()
	if err != nil {
		return t, c, wrap("create card", err)
	}
	if c == nil {
		return t, nil, wrap("create card", arib.StatusNoEnoughMemory)
	}

	if err = c.Init(); err != nil {
		return t, c, wrap("init card", err)
	}

	if err = t.SetCard(c); err != nil {
		return t, c, wrap("bind card", err)
	}

	return t, c, nil
}

// closeHandles releases the Transform before the Card. Each field is nil'd
// right after its release so a handle is never released twice.
func (s *Session) closeHandles() {
	if s.transform != nil {
		s.transform.Release()
		s.transform = nil
	}
	if s.card != nil {
		s.card.Release()
		s.card = nil
	}
}

func (s *Session) openLog() {
	if s.log != nil {
		return
	}
	s.log = s.base.With("session", uuid.NewString())
	s.log.Debug("diagnostic channel opened")
}

func (s *Session) closeLog() {
	if s.log == nil {
		return
	}
	s.log.Debug("diagnostic channel closed")
	s.log = nil
}
