// Package arib defines the boundary contracts between the decode facade and
// the ARIB STD-B25 descrambling engine it drives: the stateful Transform that
// turns scrambled transport stream bytes into clear ones, and the Card that
// supplies its keys. Neither is implemented here; the facade only consumes
// them.
package arib

// Transform is a stateful descrambling engine. Put submits input, Get
// returns whatever output is ready. The slice returned by Get is owned by the
// Transform and stays valid only until the next call on it.
type Transform interface {
	Put(buf []byte) error
	Get() ([]byte, error)
	Flush() error
	Reset() error
	Release()

	SetRound(n uint32)
	SetStrip(enable bool)
	SetEmmProc(enable bool)
	SetCard(card Card) error
}

// Card is the smart-card interface that supplies decryption keys to a
// Transform once bound with SetCard.
type Card interface {
	Init() error
	Release()
}

// TransformFactory allocates a new, unconfigured Transform.
type TransformFactory func() (Transform, error)

// CardFactory allocates a new, uninitialized Card.
type CardFactory func() (Card, error)
