package instrument

import "github.com/danmuck/spmctl/internal/protocol"

// BiasGet returns the tip bias in volts.
func (in *Instrument) BiasGet() (float32, error) {
	const cmd = "Bias.Get"
	res, err := in.call(cmd, nil, nil, codes(protocol.F32))
	if err != nil {
		return 0, err
	}
	v, err := res[0].AsF32()
	if err != nil {
		return 0, field(cmd, 0, err)
	}
	return v, nil
}

func (in *Instrument) BiasSet(volts float32) error {
	return in.send("Bias.Set", values(protocol.F32Value(volts)), codes(protocol.F32))
}
