package proximity

import (
	"context"
	"fmt"
)

// Register is an 8-bit device register address.
type Register byte

func (r Register) String() string {
	return fmt.Sprintf("0x%02x", byte(r))
}

// ReadRegister writes the register pointer and then reads the register value.
// The two steps are separate bus transactions; the read is only attempted when
// the pointer write succeeded.
func ReadRegister(ctx context.Context, h Handle, reg Register) (byte, error) {
	if err := WriteByte(ctx, h, byte(reg)); err != nil {
		return 0, fmt.Errorf("could not select register %s: %w", reg, err)
	}
	value, err := ReadByte(ctx, h)
	if err != nil {
		return 0, fmt.Errorf("could not read register %s: %w", reg, err)
	}
	return value, nil
}

// WriteRegister writes the register pointer and then the value, stopping at
// the first failed transaction.
func WriteRegister(ctx context.Context, h Handle, reg Register, value byte) error {
	if err := WriteByte(ctx, h, byte(reg)); err != nil {
		return fmt.Errorf("could not select register %s: %w", reg, err)
	}
	if err := WriteByte(ctx, h, value); err != nil {
		return fmt.Errorf("could not write register %s: %w", reg, err)
	}
	return nil
}
