package instrument

import "github.com/danmuck/spmctl/internal/protocol"

// SignalNamesGet lists the signals available in the controller, indexed the
// way other signal commands expect.
func (in *Instrument) SignalNamesGet() ([]string, error) {
	const cmd = "Signals.NamesGet"
	res, err := in.call(cmd, nil, nil, codes(protocol.I32, protocol.I32, protocol.StringArrayImplicit))
	if err != nil {
		return nil, err
	}
	names, err := res[2].AsStringArray()
	if err != nil {
		return nil, field(cmd, 2, err)
	}
	return names, nil
}
