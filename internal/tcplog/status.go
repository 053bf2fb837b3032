package tcplog

import (
	"fmt"

	"github.com/danmuck/spmctl/internal/protocol"
)

// Status is the data logger state carried in every frame and returned by
// TCPLog.StatusGet.
type Status int32

const (
	StatusDisconnected Status = iota
	StatusIdle
	StatusStart
	StatusStop
	StatusRunning
	StatusTCPConnect
	StatusTCPDisconnect
	StatusBufferOverflow
)

var statusNames = [...]string{
	StatusDisconnected:   "Disconnected",
	StatusIdle:           "Idle",
	StatusStart:          "Start",
	StatusStop:           "Stop",
	StatusRunning:        "Running",
	StatusTCPConnect:     "TCP Connect",
	StatusTCPDisconnect:  "TCP Disconnect",
	StatusBufferOverflow: "Buffer Overflow",
}

func (s Status) String() string {
	if s >= 0 && int(s) < len(statusNames) {
		return statusNames[s]
	}
	return fmt.Sprintf("Status(%d)", int32(s))
}

// ParseStatus validates a raw wire value.
func ParseStatus(raw int64) (Status, error) {
	if raw < 0 || raw >= int64(len(statusNames)) {
		return 0, fmt.Errorf("%w: unknown data logger status %d", protocol.ErrProtocol, raw)
	}
	return Status(raw), nil
}
