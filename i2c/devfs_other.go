//go:build !linux

package i2c

import (
	"context"
	"errors"

	"github.com/mklimuk/proximity"
)

var ErrDevfsUnsupported = errors.New("i2c-dev is only available on linux")

type DevfsDevice struct{}

func OpenDevfs(path string, addr uint16) (*DevfsDevice, error) {
	return nil, ErrDevfsUnsupported
}

func (d *DevfsDevice) Read(ctx context.Context, buffer []byte) error {
	return proximity.CheckTransfer(proximity.OpRead, len(buffer), 0, ErrDevfsUnsupported)
}

func (d *DevfsDevice) Write(ctx context.Context, buffer []byte) error {
	return proximity.CheckTransfer(proximity.OpWrite, len(buffer), 0, ErrDevfsUnsupported)
}

func (d *DevfsDevice) Close() error {
	return nil
}
