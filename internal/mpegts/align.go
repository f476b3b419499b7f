package mpegts

// syncDepth is how many sync bytes, one packet apart, confirm alignment.
const syncDepth = 3

// Aligner cuts a byte stream into aligned packets. Partial packets are
// carried across Feed calls and garbage between packets is skipped by
// searching for syncDepth consecutive sync bytes.
type Aligner struct {
	pending []byte
	locked  bool
}

// Feed appends buf to the carried bytes and calls emit once per complete
// packet. The slice passed to emit is only valid during the call. Feed
// returns the number of bytes discarded while searching for sync.
func (a *Aligner) Feed(buf []byte, emit func(pkt []byte)) int {
	a.pending = append(a.pending, buf...)

	skipped := 0
	off := 0
	for len(a.pending)-off >= PacketSize {
		if a.pending[off] != SyncByte {
			a.locked = false
		}
		if !a.locked {
			i := findSync(a.pending[off:])
			if i < 0 {
				// Keep only a tail that could still start a locked run.
				keep := syncDepth*PacketSize - 1
				if n := len(a.pending) - off; n > keep {
					skipped += n - keep
					off += n - keep
				}
				break
			}
			skipped += i
			off += i
			a.locked = true
		}
		emit(a.pending[off : off+PacketSize])
		off += PacketSize
	}

	n := copy(a.pending, a.pending[off:])
	a.pending = a.pending[:n]
	return skipped
}

// Locked reports whether the Aligner is currently in sync.
func (a *Aligner) Locked() bool {
	return a.locked
}

// Buffered returns how many carried bytes await the rest of a packet.
func (a *Aligner) Buffered() int {
	return len(a.pending)
}

// Remainder returns the carried bytes and forgets them.
func (a *Aligner) Remainder() []byte {
	rest := append([]byte(nil), a.pending...)
	a.pending = a.pending[:0]
	return rest
}

// Reset drops carried bytes and sync state.
func (a *Aligner) Reset() {
	a.pending = a.pending[:0]
	a.locked = false
}

func findSync(b []byte) int {
	span := (syncDepth - 1) * PacketSize
	for i := 0; i+span < len(b); i++ {
		ok := true
		for k := 0; k < syncDepth; k++ {
			if b[i+k*PacketSize] != SyncByte {
				ok = false
				break
			}
		}
		if ok {
			return i
		}
	}
	return -1
}
