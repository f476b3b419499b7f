// Package mpegts locates 188-byte MPEG-TS packets in an arbitrary byte
// stream. It does no PSI or PES work; it only finds packet boundaries and
// reads the PID.
package mpegts

// Packet sizes and well-known PIDs.
const (
	PacketSize = 188
	SyncByte   = 0x47
	NullPID    = 0x1FFF
)
