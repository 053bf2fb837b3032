// Package client runs request/response transactions against the instrument's
// TCP control port.
//
// Ownership boundary:
// - one Conn owns one socket and runs one transaction at a time
// - framing lives in protocol/frame, field encoding in protocol
// - reconnecting and retrying are caller decisions; nothing here does either
package client
