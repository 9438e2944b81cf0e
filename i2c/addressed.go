package i2c

import (
	"context"

	"github.com/mklimuk/proximity"
)

var _ proximity.Handle = &BusDevice{}

// BusDevice pins one address of a shared proximity.I2CBus (an MCP2221 bridge
// for instance). Close releases the bus engine but leaves the bus usable by
// other devices.
type BusDevice struct {
	bus    proximity.I2CBus
	addr   byte
	closed bool
}

func Addressed(bus proximity.I2CBus, addr byte) *BusDevice {
	return &BusDevice{bus: bus, addr: addr}
}

func (d *BusDevice) Read(ctx context.Context, buffer []byte) error {
	if d.closed {
		return proximity.CheckTransfer(proximity.OpRead, len(buffer), 0, proximity.ErrHandleClosed)
	}
	err := d.bus.ReadFromAddr(ctx, d.addr, buffer)
	if err != nil && !proximity.IsTransportError(err) {
		return proximity.CheckTransfer(proximity.OpRead, len(buffer), 0, err)
	}
	return err
}

func (d *BusDevice) Write(ctx context.Context, buffer []byte) error {
	if d.closed {
		return proximity.CheckTransfer(proximity.OpWrite, len(buffer), 0, proximity.ErrHandleClosed)
	}
	err := d.bus.WriteToAddr(ctx, d.addr, buffer)
	if err != nil && !proximity.IsTransportError(err) {
		return proximity.CheckTransfer(proximity.OpWrite, len(buffer), 0, err)
	}
	return err
}

func (d *BusDevice) Close() error {
	if d.closed {
		return proximity.ErrHandleClosed
	}
	d.closed = true
	return d.bus.Release(context.Background())
}
