package apds9960

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/mklimuk/proximity"
)

// Emitter receives every valid proximity reading.
type Emitter interface {
	Emit(ctx context.Context, value byte) error
}

type EmitterFunc func(ctx context.Context, value byte) error

func (f EmitterFunc) Emit(ctx context.Context, value byte) error {
	return f(ctx, value)
}

// LineEmitter writes each reading as a decimal number on its own line.
type LineEmitter struct {
	W io.Writer
}

func (e LineEmitter) Emit(ctx context.Context, value byte) error {
	buf := strconv.AppendUint(make([]byte, 0, 4), uint64(value), 10)
	_, err := e.W.Write(append(buf, '\n'))
	return err
}

// PollOnce runs a single poll iteration: it reads STATUS and, when PVALID is
// set, reads PDATA. valid is false when no new reading was available.
// A failed transaction terminates the session.
func (s *Sensor) PollOnce(ctx context.Context) (value byte, valid bool, err error) {
	if err := s.checkPollable(); err != nil {
		return 0, false, err
	}
	s.iterations++
	status, err := proximity.ReadRegister(ctx, s.handle, RegStatus)
	if err != nil {
		s.state = StateTerminated
		return 0, false, fmt.Errorf("could not read status: %w", err)
	}
	if status&StatusPValid == 0 {
		return 0, false, nil
	}
	data, err := proximity.ReadRegister(ctx, s.handle, RegData)
	if err != nil {
		s.state = StateTerminated
		return 0, false, fmt.Errorf("could not read proximity data: %w", err)
	}
	return data, true, nil
}

// checkPollable rejects terminated sessions and sessions that were never
// configured.
func (s *Sensor) checkPollable() error {
	if s.closed || s.state == StateTerminated {
		return ErrTerminated
	}
	if s.state != StateReady && s.state != StatePolling {
		return ErrNotReady
	}
	return nil
}

// Poll reads the sensor until a transaction fails, out rejects a reading or
// ctx is done. There is no retry: the session is terminated when Poll returns
// and must be closed by the caller.
func (s *Sensor) Poll(ctx context.Context, out Emitter) error {
	if err := s.checkPollable(); err != nil {
		return err
	}
	s.state = StatePolling
	defer func() {
		s.state = StateTerminated
	}()
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		value, valid, err := s.PollOnce(ctx)
		if err != nil {
			return err
		}
		if !valid {
			if err := s.idle(ctx); err != nil {
				return err
			}
			continue
		}
		if err := out.Emit(ctx, value); err != nil {
			return fmt.Errorf("could not emit reading: %w", err)
		}
	}
}

func (s *Sensor) idle(ctx context.Context) error {
	if s.config.IdleDelay <= 0 {
		return nil
	}
	timer := time.NewTimer(s.config.IdleDelay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
