package instrument

import (
	"fmt"

	"github.com/danmuck/spmctl/internal/protocol"
	"github.com/danmuck/spmctl/internal/tcplog"
)

func (in *Instrument) TCPLogStart() error {
	return in.send("TCPLog.Start", nil, nil)
}

func (in *Instrument) TCPLogStop() error {
	return in.send("TCPLog.Stop", nil, nil)
}

// TCPLogChsSet selects the recorded channels by their index in the TCP
// data logger channel list.
func (in *Instrument) TCPLogChsSet(indexes []int32) error {
	if len(indexes) > tcplog.MaxChannels {
		return fmt.Errorf("%w: %d channels, max %d", protocol.ErrInvalidArgument, len(indexes), tcplog.MaxChannels)
	}
	for _, idx := range indexes {
		if idx < 0 || idx >= tcplog.MaxChannels {
			return fmt.Errorf("%w: channel index %d", protocol.ErrInvalidArgument, idx)
		}
	}
	return in.send("TCPLog.ChsSet",
		values(protocol.I32Value(int32(len(indexes))), protocol.I32ArrayValue(indexes)),
		codes(protocol.I32, protocol.I32ArrayImplicit))
}

func (in *Instrument) TCPLogOversamplSet(n int32) error {
	if n < 0 || n > 1000 {
		return fmt.Errorf("%w: oversampling %d", protocol.ErrInvalidArgument, n)
	}
	return in.send("TCPLog.OversamplSet", values(protocol.I32Value(n)), codes(protocol.I32))
}

func (in *Instrument) TCPLogStatusGet() (tcplog.Status, error) {
	const cmd = "TCPLog.StatusGet"
	res, err := in.call(cmd, nil, nil, codes(protocol.I32))
	if err != nil {
		return 0, err
	}
	raw, err := res[0].AsI32()
	if err != nil {
		return 0, field(cmd, 0, err)
	}
	return tcplog.ParseStatus(int64(raw))
}
