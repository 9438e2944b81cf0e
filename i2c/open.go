package i2c

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/mklimuk/proximity"
	"github.com/mklimuk/proximity/adapter"
	"github.com/mklimuk/proximity/snsctx"
)

type Backend string

const (
	BackendDevfs   Backend = "devfs"
	BackendPeriph  Backend = "periph"
	BackendGobot   Backend = "gobot"
	BackendMCP2221 Backend = "mcp2221"
	BackendMock    Backend = "mock"
)

var Backends = []Backend{BackendDevfs, BackendPeriph, BackendGobot, BackendMCP2221, BackendMock}

var ErrNoMock = errors.New("mock backend selected without a simulated device")

func ParseBackend(name string) (Backend, error) {
	b := Backend(name)
	if slices.Contains(Backends, b) {
		return b, nil
	}
	return "", fmt.Errorf("unknown i2c backend %q", name)
}

var _ proximity.Opener = Opener{}

// Opener opens devices through the selected backend.
type Opener struct {
	Backend Backend
	// Board selects the gobot platform adaptor.
	Board string
	// Mock is handed out by the mock backend.
	Mock proximity.Handle
}

func (o Opener) Open(ctx context.Context, path string, address uint16) (proximity.Handle, error) {
	snsctx.Logger(ctx).Debug("opening device", "backend", o.Backend, "path", path, "address", fmt.Sprintf("%#x", address))
	switch o.Backend {
	case BackendDevfs, "":
		dev, err := OpenDevfs(path, address)
		if err != nil {
			return nil, err
		}
		return dev, nil
	case BackendPeriph:
		bus, err := NewGenericBus(ctx, path)
		if err != nil {
			return nil, err
		}
		return bus.Device(address), nil
	case BackendGobot:
		dev, err := OpenGobot(o.Board, path, address)
		if err != nil {
			return nil, err
		}
		return dev, nil
	case BackendMCP2221:
		bridge := adapter.NewMCP2221()
		if _, err := bridge.Status(ctx); err != nil {
			return nil, fmt.Errorf("adapter initialization error: %w", err)
		}
		return Addressed(bridge, byte(address)), nil
	case BackendMock:
		if o.Mock == nil {
			return nil, ErrNoMock
		}
		return o.Mock, nil
	default:
		return nil, fmt.Errorf("unknown i2c backend %q", o.Backend)
	}
}
