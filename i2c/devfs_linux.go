//go:build linux

package i2c

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sys/unix"

	"github.com/mklimuk/proximity"
)

// I2C_SLAVE from linux/i2c-dev.h
const ioctlI2CSlave = 0x0703

var _ proximity.Handle = &DevfsDevice{}

// DevfsDevice talks to a device through the Linux i2c-dev character device.
// Every Read and Write is one plain read(2)/write(2) on the descriptor, so the
// kernel issues a separate bus transaction for each call.
type DevfsDevice struct {
	mx   sync.Mutex
	fd   int
	path string
	addr uint16
}

// OpenDevfs opens path (e.g. /dev/i2c-1) and selects the 7-bit slave address.
// The descriptor is closed again when the address cannot be selected.
func OpenDevfs(path string, addr uint16) (*DevfsDevice, error) {
	fd, err := unix.Open(path, unix.O_RDWR|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, fmt.Errorf("could not open i2c device %s: %w", path, err)
	}
	if err := unix.IoctlSetInt(fd, ioctlI2CSlave, int(addr)); err != nil {
		_ = unix.Close(fd)
		return nil, fmt.Errorf("could not select i2c device %#x on %s: %w", addr, path, err)
	}
	return &DevfsDevice{fd: fd, path: path, addr: addr}, nil
}

func (d *DevfsDevice) Read(ctx context.Context, buffer []byte) error {
	d.mx.Lock()
	defer d.mx.Unlock()
	if d.fd < 0 {
		return proximity.CheckTransfer(proximity.OpRead, len(buffer), 0, proximity.ErrHandleClosed)
	}
	n, err := unix.Read(d.fd, buffer)
	return proximity.CheckTransfer(proximity.OpRead, len(buffer), n, err)
}

func (d *DevfsDevice) Write(ctx context.Context, buffer []byte) error {
	d.mx.Lock()
	defer d.mx.Unlock()
	if d.fd < 0 {
		return proximity.CheckTransfer(proximity.OpWrite, len(buffer), 0, proximity.ErrHandleClosed)
	}
	n, err := unix.Write(d.fd, buffer)
	return proximity.CheckTransfer(proximity.OpWrite, len(buffer), n, err)
}

func (d *DevfsDevice) Close() error {
	d.mx.Lock()
	defer d.mx.Unlock()
	if d.fd < 0 {
		return proximity.ErrHandleClosed
	}
	err := unix.Close(d.fd)
	d.fd = -1
	if err != nil {
		return fmt.Errorf("could not close %s: %w", d.path, err)
	}
	return nil
}
