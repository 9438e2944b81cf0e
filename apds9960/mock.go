package apds9960

import (
	"io"

	"github.com/mklimuk/proximity"
)

// NewMockDevice returns a simulated APDS-9960 that reports the given readings,
// one per poll iteration, and then fails the next status read with io.EOF.
//
// Example usage:
//
//	dev := NewMockDevice(10, 20, 30)
//	s := New(dev)
//	err := s.Poll(ctx, LineEmitter{W: os.Stdout}) // prints 10, 20, 30
func NewMockDevice(readings ...byte) *proximity.MockDevice {
	dev := proximity.NewMockDevice()
	dev.SetRegister(RegID, ExpectedID)
	for _, r := range readings {
		dev.ScriptReads(RegStatus, proximity.Value(StatusPValid))
		dev.ScriptReads(RegData, proximity.Value(r))
	}
	dev.ScriptReads(RegStatus, proximity.Fail(io.EOF))
	return dev
}
