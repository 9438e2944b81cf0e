package i2c

import (
	"context"
	"fmt"
	"sync"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"

	"github.com/mklimuk/proximity/snsctx"
)

var hostInit sync.Once
var hostErr error

// GenericBus is a periph.io bus shared by every device addressed on it.
type GenericBus struct {
	bus i2c.BusCloser
}

// NewGenericBus opens a periph.io I2C bus by name ("" for the first bus, "1",
// "/dev/i2c-1", ...). Host drivers are initialised once per process.
func NewGenericBus(ctx context.Context, dev string) (*GenericBus, error) {
	hostInit.Do(func() {
		state, err := host.Init()
		if err != nil {
			hostErr = err
			return
		}
		for _, driver := range state.Loaded {
			snsctx.Logger(ctx).Debug("host driver loaded", "driver", driver.String())
		}
	})
	if hostErr != nil {
		return nil, fmt.Errorf("could not init host: %w", hostErr)
	}
	bus, err := i2creg.Open(dev)
	if err != nil {
		return nil, fmt.Errorf("could not open i2c bus: %w", err)
	}
	return &GenericBus{
		bus: bus,
	}, nil
}

// Device addresses one peripheral on the bus. Closing the device closes the
// bus, so the returned handle owns it.
func (b *GenericBus) Device(address uint16) *TxDevice {
	return NewTxDevice(b.bus, address, b.bus)
}

func (b *GenericBus) Close() error {
	return b.bus.Close()
}
