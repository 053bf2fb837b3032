// Package instrument maps a handful of controller functions onto
// Transact calls. Errors from the transport and the instrument are
// returned unchanged.
package instrument

import (
	"fmt"

	"github.com/danmuck/spmctl/internal/protocol"
)

// Transactor is satisfied by *client.Conn and *client.Locked.
type Transactor interface {
	Transact(command string, args []protocol.Value, argCodes, resultCodes []protocol.Code) ([]protocol.Value, error)
}

type Instrument struct {
	t Transactor
}

func New(t Transactor) *Instrument {
	return &Instrument{t: t}
}

func codes(cs ...protocol.Code) []protocol.Code { return cs }

func values(vs ...protocol.Value) []protocol.Value { return vs }

// send runs a command that returns no result fields.
func (in *Instrument) send(command string, args []protocol.Value, argCodes []protocol.Code) error {
	_, err := in.t.Transact(command, args, argCodes, nil)
	return err
}

// call runs a command and checks that one value came back per result code.
func (in *Instrument) call(command string, args []protocol.Value, argCodes, resultCodes []protocol.Code) ([]protocol.Value, error) {
	res, err := in.t.Transact(command, args, argCodes, resultCodes)
	if err != nil {
		return nil, err
	}
	if len(res) != len(resultCodes) {
		return nil, fmt.Errorf("%w: %s returned %d results, want %d", protocol.ErrProtocol, command, len(res), len(resultCodes))
	}
	return res, nil
}

func field(command string, i int, err error) error {
	return fmt.Errorf("%s result %d: %w", command, i, err)
}
