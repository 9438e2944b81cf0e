package i2c

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	gobot "gobot.io/x/gobot/v2/drivers/i2c"
	"gobot.io/x/gobot/v2/platforms/friendlyelec/nanopi"
	"gobot.io/x/gobot/v2/platforms/raspi"

	"github.com/mklimuk/proximity"
)

const (
	BoardNanoPi = "nanopi"
	BoardRaspi  = "raspi"
)

var Boards = []string{BoardNanoPi, BoardRaspi}

var _ proximity.Handle = &GobotDevice{}

// gobotBus is the i2c part of a gobot platform adaptor.
type gobotBus interface {
	Connect() error
	Finalize() error
	GetI2cConnection(address int, busNr int) (gobot.Connection, error)
}

// GobotDevice is a device reached through a gobot board adaptor. Reads and
// writes go straight to the connection so short transfers are visible.
type GobotDevice struct {
	mx     sync.Mutex
	bus    gobotBus
	conn   gobot.Connection
	closed bool
}

// OpenGobot connects the board's i2c adaptor and addresses addr on the bus
// numbered like path ("/dev/i2c-2" or "2").
func OpenGobot(board, path string, addr uint16) (*GobotDevice, error) {
	var bus gobotBus
	switch board {
	case BoardNanoPi:
		bus = nanopi.NewNeoAdaptor().I2cBusAdaptor
	case BoardRaspi:
		bus = raspi.NewAdaptor().I2cBusAdaptor
	default:
		return nil, fmt.Errorf("unsupported gobot board %q", board)
	}
	busNr, err := BusNumber(path)
	if err != nil {
		return nil, err
	}
	return openGobot(bus, busNr, addr)
}

func openGobot(bus gobotBus, busNr int, addr uint16) (*GobotDevice, error) {
	err := bus.Connect()
	if err != nil {
		return nil, fmt.Errorf("adaptor connect error: %w", err)
	}
	conn, err := bus.GetI2cConnection(int(addr), busNr)
	if err != nil {
		_ = bus.Finalize()
		return nil, fmt.Errorf("could not get i2c connection %#x on bus %d: %w", addr, busNr, err)
	}
	return &GobotDevice{bus: bus, conn: conn}, nil
}

func (d *GobotDevice) Read(ctx context.Context, buffer []byte) error {
	d.mx.Lock()
	defer d.mx.Unlock()
	if d.closed {
		return proximity.CheckTransfer(proximity.OpRead, len(buffer), 0, proximity.ErrHandleClosed)
	}
	n, err := d.conn.Read(buffer)
	return proximity.CheckTransfer(proximity.OpRead, len(buffer), n, err)
}

func (d *GobotDevice) Write(ctx context.Context, buffer []byte) error {
	d.mx.Lock()
	defer d.mx.Unlock()
	if d.closed {
		return proximity.CheckTransfer(proximity.OpWrite, len(buffer), 0, proximity.ErrHandleClosed)
	}
	n, err := d.conn.Write(buffer)
	return proximity.CheckTransfer(proximity.OpWrite, len(buffer), n, err)
}

func (d *GobotDevice) Close() error {
	d.mx.Lock()
	defer d.mx.Unlock()
	if d.closed {
		return proximity.ErrHandleClosed
	}
	d.closed = true
	connErr := d.conn.Close()
	busErr := d.bus.Finalize()
	if connErr != nil {
		return fmt.Errorf("could not close i2c connection: %w", connErr)
	}
	if busErr != nil {
		return fmt.Errorf("could not finalize adaptor: %w", busErr)
	}
	return nil
}

// BusNumber extracts the bus number from an i2c-dev path or a bare number.
func BusNumber(path string) (int, error) {
	idx := strings.LastIndexFunc(path, func(r rune) bool {
		return r < '0' || r > '9'
	})
	digits := path[idx+1:]
	if digits == "" {
		return 0, fmt.Errorf("no bus number in %q", path)
	}
	nr, err := strconv.Atoi(digits)
	if err != nil {
		return 0, fmt.Errorf("invalid bus number in %q: %w", path, err)
	}
	return nr, nil
}
