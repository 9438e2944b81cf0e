package proximity

import (
	"context"
	"io"
)

// BusReader performs a single read transaction on an already addressed device.
type BusReader interface {
	Read(ctx context.Context, buffer []byte) error
}

// BusWriter performs a single write transaction on an already addressed device.
type BusWriter interface {
	Write(ctx context.Context, buffer []byte) error
}

// AddressableReader reads from any device on a shared bus.
type AddressableReader interface {
	ReadFromAddr(ctx context.Context, address byte, buffer []byte) error
}

// AddressableWriter writes to any device on a shared bus.
type AddressableWriter interface {
	WriteToAddr(ctx context.Context, address byte, buffer []byte) error
	Release(ctx context.Context) error
}

type I2CBus interface {
	AddressableReader
	AddressableWriter
}

type I2CDevice interface {
	BusReader
	BusWriter
}

// Handle is an open connection to one addressed peripheral. It has a single
// owner and must be closed exactly once; transactions after Close fail with
// ErrHandleClosed.
type Handle interface {
	I2CDevice
	io.Closer
}

// Opener acquires and addresses a device. Backends in package i2c implement it.
type Opener interface {
	Open(ctx context.Context, path string, address uint16) (Handle, error)
}
