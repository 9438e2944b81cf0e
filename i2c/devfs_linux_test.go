//go:build linux

package i2c

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"

	"github.com/mklimuk/proximity"
)

// pipeDevices returns a reader and a writer over the two ends of a pipe.
func pipeDevices(t *testing.T) (*DevfsDevice, *DevfsDevice) {
	t.Helper()
	var p [2]int
	require.NoError(t, unix.Pipe2(p[:], unix.O_CLOEXEC))
	r := &DevfsDevice{fd: p[0], path: "pipe-r", addr: 0x39}
	w := &DevfsDevice{fd: p[1], path: "pipe-w", addr: 0x39}
	t.Cleanup(func() {
		_ = r.Close()
		_ = w.Close()
	})
	return r, w
}

func TestDevfsTransfer(t *testing.T) {
	r, w := pipeDevices(t)
	ctx := context.Background()

	require.NoError(t, proximity.WriteByte(ctx, w, 0x92))
	v, err := proximity.ReadByte(ctx, r)
	require.NoError(t, err)
	assert.Equal(t, byte(0x92), v)
}

func TestDevfsShortRead(t *testing.T) {
	r, w := pipeDevices(t)
	require.NoError(t, w.Close())

	// the peer is gone so read(2) returns 0 bytes without an error
	err := r.Read(context.Background(), make([]byte, 1))
	var te *proximity.TransportError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, 0, te.Transferred)
	assert.Equal(t, 1, te.Requested)
	assert.ErrorIs(t, err, proximity.ErrShortTransfer)
}

func TestDevfsClose(t *testing.T) {
	r, w := pipeDevices(t)
	ctx := context.Background()

	require.NoError(t, w.Close())
	assert.ErrorIs(t, w.Close(), proximity.ErrHandleClosed)
	assert.ErrorIs(t, w.Write(ctx, []byte{0x80}), proximity.ErrHandleClosed)

	require.NoError(t, r.Close())
	assert.ErrorIs(t, r.Read(ctx, make([]byte, 1)), proximity.ErrHandleClosed)
	assert.ErrorIs(t, r.Close(), proximity.ErrHandleClosed)
}
