package mpegts

// PID reads the 13-bit PID from an aligned packet without parsing the rest.
func PID(buf []byte) uint16 {
	return uint16(buf[1]&0x1F)<<8 | uint16(buf[2])
}

// IsNull reports whether an aligned packet is a null (stuffing) packet.
func IsNull(buf []byte) bool {
	return PID(buf) == NullPID
}
