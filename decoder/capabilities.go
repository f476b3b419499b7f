package decoder

// InvalidPID selects every PID in the per-PID statistics queries.
const InvalidPID uint16 = 0x2000

// Capabilities is the extended contract: configuration toggles plus packet
// statistics. The statistics are not instrumented; every query returns zero
// and ResetStatistics does nothing. They stay present because callers query
// for them.
type Capabilities interface {
	DiscardNullPacket(enable bool)
	DiscardScramblePacket(enable bool)
	EnableEmmProcess(enable bool)

	DescramblingState(programID uint16) uint32
	ResetStatistics()
	PacketStride() uint32
	InputPacketNum(pid uint16) uint32
	OutputPacketNum(pid uint16) uint32
	SyncErrNum() uint32
	FormatErrNum() uint32
	TransportErrNum() uint32
	ContinuityErrNum(pid uint16) uint32
	ScramblePacketNum(pid uint16) uint32
	EcmProcessNum() uint32
	EmmProcessNum() uint32
}

// DiscardNullPacket turns null packet stripping on the Transform on or off.
// Initialize must have succeeded first; otherwise the call is ignored.
func (s *Session) DiscardNullPacket(enable bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.transform == nil {
		s.base.Warn("DiscardNullPacket before Initialize ignored")
		return
	}
	s.transform.SetStrip(enable)
}

// DiscardScramblePacket is accepted for compatibility and has no effect.
func (s *Session) DiscardScramblePacket(enable bool) {}

// EnableEmmProcess turns EMM processing on the Transform on or off.
// Initialize must have succeeded first; otherwise the call is ignored.
func (s *Session) EnableEmmProcess(enable bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.transform == nil {
		s.base.Warn("EnableEmmProcess before Initialize ignored")
		return
	}
	s.transform.SetEmmProc(enable)
}

func (s *Session) DescramblingState(programID uint16) uint32 { return 0 }
func (s *Session) ResetStatistics()                          {}
func (s *Session) PacketStride() uint32                      { return 0 }
func (s *Session) InputPacketNum(pid uint16) uint32          { return 0 }
func (s *Session) OutputPacketNum(pid uint16) uint32         { return 0 }
func (s *Session) SyncErrNum() uint32                        { return 0 }
func (s *Session) FormatErrNum() uint32                      { return 0 }
func (s *Session) TransportErrNum() uint32                   { return 0 }
func (s *Session) ContinuityErrNum(pid uint16) uint32        { return 0 }
func (s *Session) ScramblePacketNum(pid uint16) uint32       { return 0 }
func (s *Session) EcmProcessNum() uint32                     { return 0 }
func (s *Session) EmmProcessNum() uint32                     { return 0 }
