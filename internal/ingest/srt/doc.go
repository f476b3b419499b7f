// Package srt implements SRT (Secure Reliable Transport) input for decode
// runs, both caller mode (Dial) for pulling a stream from a remote listener
// and listener mode (Server) for accepting a publisher.
package srt
