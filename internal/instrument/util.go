package instrument

import "github.com/danmuck/spmctl/internal/protocol"

type Version struct {
	ProductLine     string
	Version         string
	HostAppRelease  uint32
	RTEngineRelease uint32
}

func (in *Instrument) VersionGet() (Version, error) {
	const cmd = "Util.VersionGet"
	res, err := in.call(cmd, nil, nil, codes(protocol.String, protocol.String, protocol.U32, protocol.U32))
	if err != nil {
		return Version{}, err
	}
	var v Version
	if v.ProductLine, err = res[0].AsString(); err != nil {
		return Version{}, field(cmd, 0, err)
	}
	if v.Version, err = res[1].AsString(); err != nil {
		return Version{}, field(cmd, 1, err)
	}
	if v.HostAppRelease, err = res[2].AsU32(); err != nil {
		return Version{}, field(cmd, 2, err)
	}
	if v.RTEngineRelease, err = res[3].AsU32(); err != nil {
		return Version{}, field(cmd, 3, err)
	}
	return v, nil
}

// SessionPathGet returns the directory the controller saves session data to.
func (in *Instrument) SessionPathGet() (string, error) {
	const cmd = "Util.SessionPathGet"
	res, err := in.call(cmd, nil, nil, codes(protocol.I32, protocol.StringImplicit))
	if err != nil {
		return "", err
	}
	path, err := res[1].AsString()
	if err != nil {
		return "", field(cmd, 1, err)
	}
	return path, nil
}
