package apds9960

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strconv"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mklimuk/proximity"
)

type collector struct {
	values []byte
}

func (c *collector) Emit(ctx context.Context, value byte) error {
	c.values = append(c.values, value)
	return nil
}

// configureTx is the number of transactions Configure issues.
const configureTx = 8

func configured(t *testing.T, dev *proximity.MockDevice, opts ...Opt) *Sensor {
	t.Helper()
	s := New(dev, opts...)
	require.NoError(t, s.Configure(context.Background()))
	return s
}

func TestPoll_Scenario(t *testing.T) {
	ctx := context.Background()
	dev := proximity.NewMockDevice()
	dev.SetRegister(RegID, 0xAB)
	dev.ScriptReads(RegStatus,
		proximity.Value(0x00),
		proximity.Value(0x02),
		proximity.Value(0x02),
		proximity.Fail(syscall.EIO),
	)
	dev.ScriptReads(RegData, proximity.Value(10), proximity.Value(20))

	s, err := Open(ctx, &mockOpener{dev: dev}, "/dev/i2c-1", DefaultAddress)
	require.NoError(t, err)

	var out bytes.Buffer
	err = s.Poll(ctx, LineEmitter{W: &out})
	require.Error(t, err)
	assert.ErrorIs(t, err, syscall.EIO)
	assert.True(t, proximity.IsTransportError(err))
	assert.Equal(t, "10\n20\n", out.String())
	assert.Equal(t, StateTerminated, s.State())
	assert.Equal(t, 4, s.Iterations())

	require.NoError(t, s.Close())
	assert.True(t, dev.Closed())
}

func TestPoll_AlternatingStatus(t *testing.T) {
	dev := proximity.NewMockDevice()
	statuses := []byte{0x00, 0x02, 0x00, 0x02, 0x00, 0x02, 0x03, 0x01}
	for i, st := range statuses {
		dev.ScriptReads(RegStatus, proximity.Value(st))
		dev.ScriptReads(RegData, proximity.Value(byte(100+i)))
	}
	dev.ScriptReads(RegStatus, proximity.Fail(io.EOF))

	s := configured(t, dev)
	var c collector
	err := s.Poll(context.Background(), &c)
	assert.ErrorIs(t, err, io.EOF)

	valid := 0
	for _, st := range statuses {
		if st&StatusPValid != 0 {
			valid++
		}
	}
	assert.Equal(t, valid, dev.ReadsOf(RegData))
	assert.Len(t, c.values, valid)
	assert.Equal(t, len(statuses)+1, s.Iterations())
	// status reads are all scripted; every iteration reads it exactly once
	assert.Equal(t, len(statuses), dev.ReadsOf(RegStatus))
}

func TestPoll_FailureOnIterationN(t *testing.T) {
	for _, n := range []int{1, 2, 5, 10} {
		t.Run("iteration "+strconv.Itoa(n), func(t *testing.T) {
			dev := proximity.NewMockDevice()
			for i := 1; i < n; i++ {
				dev.ScriptReads(RegStatus, proximity.Value(byte(i%2)<<1))
			}
			dev.ScriptReads(RegStatus, proximity.Fail(syscall.EIO))
			s := configured(t, dev)
			err := s.Poll(context.Background(), &collector{})
			require.ErrorIs(t, err, syscall.EIO)
			assert.Equal(t, n, s.Iterations())

			txs := dev.Transactions()
			last := txs[len(txs)-1]
			assert.Equal(t, proximity.OpRead, last.Op)
			assert.Equal(t, RegStatus, last.Pointer)
			assert.True(t, last.Failed)
		})
	}
}

func TestPoll_DataReadFailure(t *testing.T) {
	dev := proximity.NewMockDevice()
	dev.ScriptReads(RegStatus, proximity.Value(StatusPValid))
	dev.ScriptReads(RegData, proximity.Fail(syscall.EREMOTEIO))
	s := configured(t, dev)
	var c collector
	err := s.Poll(context.Background(), &c)
	assert.ErrorIs(t, err, syscall.EREMOTEIO)
	assert.Empty(t, c.values)
	assert.Len(t, dev.Transactions(), configureTx+4)
}

func TestPoll_EmitterFailure(t *testing.T) {
	dev := NewMockDevice(1, 2, 3)
	s := configured(t, dev)
	boom := errors.New("closed pipe")
	calls := 0
	err := s.Poll(context.Background(), EmitterFunc(func(ctx context.Context, value byte) error {
		calls++
		return boom
	}))
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls)
	assert.Equal(t, 1, s.Iterations())
}

func TestPoll_NoRestart(t *testing.T) {
	s := configured(t, NewMockDevice(7))
	var c collector
	assert.ErrorIs(t, s.Poll(context.Background(), &c), io.EOF)
	assert.ErrorIs(t, s.Poll(context.Background(), &c), ErrTerminated)
	_, _, err := s.PollOnce(context.Background())
	assert.ErrorIs(t, err, ErrTerminated)
	assert.Equal(t, []byte{7}, c.values)
}

func TestPoll_ContextCancelled(t *testing.T) {
	dev := proximity.NewMockDevice()
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	s := configured(t, dev)
	dev.SetBehavior(func(n int, tx proximity.Transaction) error {
		calls++
		if calls == 6 {
			cancel()
		}
		return nil
	})
	err := s.Poll(ctx, &collector{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 3, s.Iterations())
}

func TestPoll_IdleDelay(t *testing.T) {
	dev := proximity.NewMockDevice()
	dev.ScriptReads(RegStatus, proximity.Value(0), proximity.Value(0), proximity.Value(StatusPValid), proximity.Fail(io.EOF))
	dev.ScriptReads(RegData, proximity.Value(55))
	s := configured(t, dev, WithIdleDelay(10*time.Millisecond))
	var out bytes.Buffer
	start := time.Now()
	err := s.Poll(context.Background(), LineEmitter{W: &out})
	assert.ErrorIs(t, err, io.EOF)
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
	assert.Equal(t, "55\n", out.String())
}

func TestPoll_IdleDelayCancelled(t *testing.T) {
	s := configured(t, proximity.NewMockDevice(), WithIdleDelay(time.Hour))
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := s.Poll(ctx, &collector{})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 1, s.Iterations())
}

func TestPollOnce(t *testing.T) {
	dev := NewMockDevice(42)
	s := configured(t, dev)
	v, valid, err := s.PollOnce(context.Background())
	require.NoError(t, err)
	assert.True(t, valid)
	assert.Equal(t, byte(42), v)

	_, valid, err = s.PollOnce(context.Background())
	assert.ErrorIs(t, err, io.EOF)
	assert.False(t, valid)
}

func TestPollOnce_FailureTerminates(t *testing.T) {
	dev := proximity.NewMockDevice()
	dev.ScriptReads(RegStatus, proximity.Fail(syscall.EIO), proximity.Value(StatusPValid))
	dev.SetRegister(RegData, 9)
	s := configured(t, dev)

	_, _, err := s.PollOnce(context.Background())
	require.ErrorIs(t, err, syscall.EIO)
	assert.Equal(t, StateTerminated, s.State())
	seen := len(dev.Transactions())

	v, valid, err := s.PollOnce(context.Background())
	assert.ErrorIs(t, err, ErrTerminated)
	assert.False(t, valid)
	assert.Zero(t, v)
	assert.Len(t, dev.Transactions(), seen)
}

func TestPollOnce_DataFailureTerminates(t *testing.T) {
	dev := proximity.NewMockDevice()
	dev.ScriptReads(RegStatus, proximity.Value(StatusPValid))
	dev.ScriptReads(RegData, proximity.Fail(syscall.EREMOTEIO))
	s := configured(t, dev)

	_, _, err := s.PollOnce(context.Background())
	require.ErrorIs(t, err, syscall.EREMOTEIO)
	assert.Equal(t, StateTerminated, s.State())
}

func TestPoll_RequiresConfigure(t *testing.T) {
	dev := NewMockDevice(5)
	s := New(dev)
	var c collector

	assert.ErrorIs(t, s.Poll(context.Background(), &c), ErrNotReady)
	_, _, err := s.PollOnce(context.Background())
	assert.ErrorIs(t, err, ErrNotReady)

	assert.Empty(t, c.values)
	assert.Empty(t, dev.Transactions())
	assert.Zero(t, s.Iterations())
	assert.Equal(t, StateInitializing, s.State())
}

func TestPoll_AfterFailedConfigure(t *testing.T) {
	dev := NewMockDevice(5)
	dev.FailOn(3, syscall.EIO)
	s := New(dev)
	require.Error(t, s.Configure(context.Background()))

	assert.ErrorIs(t, s.Poll(context.Background(), &collector{}), ErrTerminated)
	assert.Len(t, dev.Transactions(), 3)
}

func TestLineEmitter(t *testing.T) {
	var out bytes.Buffer
	e := LineEmitter{W: &out}
	for _, v := range []byte{0, 9, 10, 175, 255} {
		require.NoError(t, e.Emit(context.Background(), v))
	}
	assert.Equal(t, "0\n9\n10\n175\n255\n", out.String())
}
