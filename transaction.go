package proximity

import (
	"context"
	"encoding/hex"

	"github.com/mklimuk/proximity/snsctx"
)

// ReadByte issues exactly one single-byte read on h.
func ReadByte(ctx context.Context, h Handle) (byte, error) {
	var buf [1]byte
	if err := h.Read(ctx, buf[:]); err != nil {
		return 0, asTransportError(OpRead, err)
	}
	if snsctx.IsVerbose(ctx) {
		snsctx.Logger(ctx).Debug("i2c read", "data", hex.EncodeToString(buf[:]))
	}
	return buf[0], nil
}

// WriteByte issues exactly one single-byte write on h.
func WriteByte(ctx context.Context, h Handle, value byte) error {
	buf := [1]byte{value}
	if err := h.Write(ctx, buf[:]); err != nil {
		return asTransportError(OpWrite, err)
	}
	if snsctx.IsVerbose(ctx) {
		snsctx.Logger(ctx).Debug("i2c write", "data", hex.EncodeToString(buf[:]))
	}
	return nil
}

// asTransportError keeps backend errors that already describe the transfer and
// wraps anything else as a failed single-byte transaction.
func asTransportError(op Op, err error) error {
	if IsTransportError(err) {
		return err
	}
	return &TransportError{Op: op, Requested: 1, Err: err}
}
