package i2c

import (
	"context"
	"io"
	"sync"

	"tinygo.org/x/drivers"

	"github.com/mklimuk/proximity"
)

var _ proximity.Handle = &TxDevice{}

// TxDevice binds a Tx-style bus (tinygo drivers.I2C, periph i2c.Bus) to one
// device address. A Tx either moves the whole buffer or fails, so a failed
// transaction reports zero transferred bytes.
type TxDevice struct {
	mx     sync.Mutex
	bus    drivers.I2C
	addr   uint16
	closer io.Closer
	closed bool
}

// NewTxDevice addresses addr on bus. closer, when not nil, is closed together
// with the device.
func NewTxDevice(bus drivers.I2C, addr uint16, closer io.Closer) *TxDevice {
	return &TxDevice{bus: bus, addr: addr, closer: closer}
}

func (d *TxDevice) Read(ctx context.Context, buffer []byte) error {
	d.mx.Lock()
	defer d.mx.Unlock()
	if d.closed {
		return proximity.CheckTransfer(proximity.OpRead, len(buffer), 0, proximity.ErrHandleClosed)
	}
	if err := d.bus.Tx(d.addr, nil, buffer); err != nil {
		return proximity.CheckTransfer(proximity.OpRead, len(buffer), 0, err)
	}
	return nil
}

func (d *TxDevice) Write(ctx context.Context, buffer []byte) error {
	d.mx.Lock()
	defer d.mx.Unlock()
	if d.closed {
		return proximity.CheckTransfer(proximity.OpWrite, len(buffer), 0, proximity.ErrHandleClosed)
	}
	if err := d.bus.Tx(d.addr, buffer, nil); err != nil {
		return proximity.CheckTransfer(proximity.OpWrite, len(buffer), 0, err)
	}
	return nil
}

func (d *TxDevice) Close() error {
	d.mx.Lock()
	defer d.mx.Unlock()
	if d.closed {
		return proximity.ErrHandleClosed
	}
	d.closed = true
	if d.closer == nil {
		return nil
	}
	return d.closer.Close()
}
