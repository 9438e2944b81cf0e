// Package apds9960 drives the proximity engine of a Broadcom APDS-9960
// gesture/proximity/colour sensor.
// See: https://docs.broadcom.com/doc/AV02-4191EN
//
// Typical usage:
//
//	s, err := apds9960.Open(ctx, opener, "/dev/i2c-1", apds9960.DefaultAddress)
//	if err != nil {
//		return err
//	}
//	defer s.Close()
//	err = s.Poll(ctx, apds9960.LineEmitter{W: os.Stdout})
//
// A Sensor owns its device handle and is not safe for concurrent use.
package apds9960

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mklimuk/proximity"
	"github.com/mklimuk/proximity/snsctx"
)

var ErrTerminated = errors.New("apds9960: session terminated")

var ErrNotReady = errors.New("apds9960: sensor not configured")

type Opts struct {
	ExpectedID    byte
	LowThreshold  byte
	HighThreshold byte
	Persistence   byte
	Enable        byte
	// IdleDelay is slept after a poll iteration without new data. Zero keeps
	// the loop busy-polling.
	IdleDelay time.Duration
}

type Opt func(*Opts)

func WithExpectedID(id byte) Opt {
	return func(o *Opts) {
		o.ExpectedID = id
	}
}

func WithThresholds(low, high byte) Opt {
	return func(o *Opts) {
		o.LowThreshold = low
		o.HighThreshold = high
	}
}

func WithPersistence(pers byte) Opt {
	return func(o *Opts) {
		o.Persistence = pers
	}
}

func WithEnable(enable byte) Opt {
	return func(o *Opts) {
		o.Enable = enable
	}
}

func WithIdleDelay(delay time.Duration) Opt {
	return func(o *Opts) {
		o.IdleDelay = delay
	}
}

type Sensor struct {
	handle     proximity.Handle
	config     Opts
	state      State
	closed     bool
	iterations int
}

// New wraps an already opened and addressed device handle. The sensor takes
// ownership of h and releases it in Close.
func New(h proximity.Handle, opts ...Opt) *Sensor {
	config := Opts{
		ExpectedID:    ExpectedID,
		LowThreshold:  DefaultLowThreshold,
		HighThreshold: DefaultHighThreshold,
		Persistence:   DefaultPersistence,
		Enable:        DefaultEnable,
	}
	for _, opt := range opts {
		opt(&config)
	}
	return &Sensor{handle: h, config: config, state: StateInitializing}
}

// Open acquires the device through opener, reads its identity and programs the
// proximity engine. On failure the handle is released and a *SetupError is
// returned.
func Open(ctx context.Context, opener proximity.Opener, path string, address uint16, opts ...Opt) (*Sensor, error) {
	h, err := opener.Open(ctx, path, address)
	if err != nil {
		return nil, &SetupError{Stage: StageOpen, Err: err}
	}
	s := New(h, opts...)
	if _, err := s.ReadID(ctx); err != nil {
		s.release(ctx)
		return nil, &SetupError{Stage: StageIdentity, Err: err}
	}
	if err := s.Configure(ctx); err != nil {
		s.release(ctx)
		return nil, &SetupError{Stage: StageConfigure, Err: err}
	}
	return s, nil
}

func (s *Sensor) State() State {
	return s.state
}

// Iterations returns the number of poll iterations started so far.
func (s *Sensor) Iterations() int {
	return s.iterations
}

// ReadID reads the device identity register. A value different from the
// expected signature is only logged.
func (s *Sensor) ReadID(ctx context.Context) (byte, error) {
	if s.closed {
		return 0, ErrTerminated
	}
	id, err := proximity.ReadRegister(ctx, s.handle, RegID)
	if err != nil {
		s.fail()
		return 0, fmt.Errorf("could not read device id: %w", err)
	}
	logger := snsctx.Logger(ctx)
	logger.Info("device identified", "id", fmt.Sprintf("0x%02x", id))
	if id != s.config.ExpectedID {
		logger.Warn("unexpected device id", "id", fmt.Sprintf("0x%02x", id), "expected", fmt.Sprintf("0x%02x", s.config.ExpectedID))
	}
	return id, nil
}

// Configure programs the proximity thresholds, the interrupt persistence and
// finally powers the engine on. Registers are written in that order and the
// sequence stops at the first failed write, leaving the remaining registers
// untouched.
func (s *Sensor) Configure(ctx context.Context) error {
	if s.closed {
		return ErrTerminated
	}
	steps := []struct {
		name  string
		reg   proximity.Register
		value byte
	}{
		{"low threshold", RegLowThresh, s.config.LowThreshold},
		{"high threshold", RegHighThresh, s.config.HighThreshold},
		{"interrupt persistence", RegPersistence, s.config.Persistence},
		{"enable", RegEnable, s.config.Enable},
	}
	for _, step := range steps {
		err := proximity.WriteRegister(ctx, s.handle, step.reg, step.value)
		if err != nil {
			s.fail()
			return fmt.Errorf("could not set %s: %w", step.name, err)
		}
	}
	s.state = StateReady
	snsctx.Logger(ctx).Debug("proximity engine configured",
		"low", s.config.LowThreshold,
		"high", s.config.HighThreshold,
		"persistence", fmt.Sprintf("0x%02x", s.config.Persistence),
		"enable", fmt.Sprintf("0x%02x", s.config.Enable))
	return nil
}

// Close releases the device handle. Only the first call reaches the handle.
func (s *Sensor) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	s.state = StateTerminated
	err := s.handle.Close()
	if err != nil {
		return fmt.Errorf("could not release device: %w", err)
	}
	return nil
}

func (s *Sensor) fail() {
	if s.state == StateInitializing {
		s.state = StateTerminated
	}
}

func (s *Sensor) release(ctx context.Context) {
	if err := s.Close(); err != nil {
		snsctx.Logger(ctx).Error("release after setup failure", "error", err)
	}
}
