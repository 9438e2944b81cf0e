package proximity

import (
	"errors"
	"fmt"
)

var ErrBusBusy = errors.New("I2C engine is busy (command not completed)")

var ErrShortTransfer = errors.New("short transfer")

var ErrHandleClosed = errors.New("device handle closed")

type Op string

const (
	OpRead  Op = "read"
	OpWrite Op = "write"
)

// TransportError reports a bus transaction that did not move every requested
// byte. Err holds the platform error, or ErrShortTransfer when the transport
// returned without one.
type TransportError struct {
	Op          Op
	Requested   int
	Transferred int
	Err         error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("i2c %s: transferred %d of %d bytes: %v", e.Op, e.Transferred, e.Requested, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// CheckTransfer turns the outcome of a raw transfer into a transaction result.
// Partial transfers are failures even when the transport reported no error.
func CheckTransfer(op Op, requested, transferred int, err error) error {
	if err == nil && transferred == requested {
		return nil
	}
	if err == nil {
		err = ErrShortTransfer
	}
	if transferred < 0 {
		transferred = 0
	}
	return &TransportError{Op: op, Requested: requested, Transferred: transferred, Err: err}
}

// IsTransportError reports whether err was caused by a failed bus transaction.
func IsTransportError(err error) bool {
	var terr *TransportError
	return errors.As(err, &terr)
}
