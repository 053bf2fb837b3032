// Package protocol owns the Nanonis wire body contract.
//
// Ownership boundary:
// - tagged values and their accessors
// - the closed type-code vocabulary
// - body encode/decode
// - toggle/sentinel adaptation at the encode boundary
//
// Header framing lives in protocol/frame. Socket ownership lives in client.
package protocol
