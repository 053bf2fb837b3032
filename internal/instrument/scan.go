package instrument

import (
	"fmt"

	"github.com/danmuck/spmctl/internal/protocol"
)

type ScanAction uint16

const (
	ScanStart ScanAction = iota
	ScanStop
	ScanPause
	ScanResume
	ScanFreeze
	ScanUnfreeze
	ScanGoToCenter
)

type ScanDirection uint32

const (
	ScanDown ScanDirection = iota
	ScanUp
)

// AutoMode controls autosave and autopaste after a finished frame.
type AutoMode uint32

const (
	AutoNoChange AutoMode = iota
	AutoAll
	AutoNext
	AutoOff
)

// ScanProps holds the settable scan properties. Zero values leave the
// corresponding setting unchanged.
type ScanProps struct {
	Continuous protocol.Toggle
	Bouncy     protocol.Toggle
	Autosave   AutoMode
	SeriesName string
	Comment    string
	Modules    []string
	Autopaste  AutoMode
}

func (in *Instrument) ScanAction(action ScanAction, dir ScanDirection) error {
	if action > ScanGoToCenter {
		return fmt.Errorf("%w: scan action %d", protocol.ErrInvalidArgument, action)
	}
	return in.send("Scan.Action",
		values(protocol.U16Value(uint16(action)), protocol.U32Value(uint32(dir))),
		codes(protocol.U16, protocol.U32))
}

func (in *Instrument) ScanPropsSet(p ScanProps) error {
	continuous, err := protocol.ToggleNoChangeOnOff.Encode(p.Continuous, protocol.U32)
	if err != nil {
		return err
	}
	bouncy, err := protocol.ToggleNoChangeOnOff.Encode(p.Bouncy, protocol.U32)
	if err != nil {
		return err
	}
	if p.Autosave > AutoOff || p.Autopaste > AutoOff {
		return fmt.Errorf("%w: auto mode out of range", protocol.ErrInvalidArgument)
	}
	// module names travel as total byte size, then a counted string array
	size := 0
	for _, m := range p.Modules {
		size += 4 + len(m)
	}
	return in.send("Scan.PropsSet",
		values(
			continuous,
			bouncy,
			protocol.U32Value(uint32(p.Autosave)),
			protocol.StringValue(p.SeriesName),
			protocol.StringValue(p.Comment),
			protocol.I32Value(int32(size)),
			protocol.StringArrayValue(p.Modules),
			protocol.U32Value(uint32(p.Autopaste)),
		),
		codes(
			protocol.U32,
			protocol.U32,
			protocol.U32,
			protocol.String,
			protocol.String,
			protocol.I32,
			protocol.StringArray,
			protocol.U32,
		))
}

// FrameData is one channel of the last acquired scan frame.
type FrameData struct {
	Channel string
	Data    [][]float32
	ScanUp  bool
}

// ScanFrameDataGrab fetches the scan frame for the channel at index. forward
// selects forward (true) or backward data.
func (in *Instrument) ScanFrameDataGrab(index uint32, forward bool) (FrameData, error) {
	const cmd = "Scan.FrameDataGrab"
	res, err := in.call(cmd,
		values(protocol.U32Value(index), protocol.BoolU32Value(forward)),
		codes(protocol.U32, protocol.U32),
		codes(protocol.I32, protocol.StringImplicit, protocol.I32, protocol.I32, protocol.F32MatrixImplicit, protocol.U32))
	if err != nil {
		return FrameData{}, err
	}
	var fd FrameData
	if fd.Channel, err = res[1].AsString(); err != nil {
		return FrameData{}, field(cmd, 1, err)
	}
	if fd.Data, err = res[4].AsF32Matrix(); err != nil {
		return FrameData{}, field(cmd, 4, err)
	}
	up, err := res[5].AsU32()
	if err != nil {
		return FrameData{}, field(cmd, 5, err)
	}
	fd.ScanUp = up == 1
	return fd, nil
}
