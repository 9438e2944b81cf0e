package adapter

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mklimuk/proximity"
)

type fakeHID struct {
	requests  [][]byte
	responses [][]byte
	closed    int
}

func (f *fakeHID) Write(b []byte) (int, error) {
	f.requests = append(f.requests, append([]byte(nil), b...))
	return len(b), nil
}

func (f *fakeHID) Read(b []byte) (int, error) {
	if len(f.responses) == 0 {
		return 0, errors.New("no response queued")
	}
	copy(b, f.responses[0])
	f.responses = f.responses[1:]
	return reportSize, nil
}

func (f *fakeHID) Close() error {
	f.closed++
	return nil
}

func response(cmd byte, fill func(r []byte)) []byte {
	r := make([]byte, reportSize)
	r[0] = cmd
	if fill != nil {
		fill(r)
	}
	return r
}

func newTestBridge(f *fakeHID) *MCP2221 {
	d := NewMCP2221()
	d.responseWait = 0
	d.open = func() (hidDevice, error) { return f, nil }
	return d
}

func TestWriteToAddr(t *testing.T) {
	f := &fakeHID{responses: [][]byte{response(cmdI2CWrite, nil)}}
	d := newTestBridge(f)
	err := d.WriteToAddr(context.Background(), 0x39, []byte{0x80, 0x25})
	require.NoError(t, err)
	require.Len(t, f.requests, 1)
	req := f.requests[0]
	assert.Equal(t, byte(cmdI2CWrite), req[0])
	assert.Equal(t, []byte{0x02, 0x00}, req[1:3])
	assert.Equal(t, byte(0x72), req[3])
	assert.Equal(t, []byte{0x80, 0x25}, req[4:6])
	assert.Equal(t, 1, f.closed)
}

func TestWriteToAddrBusy(t *testing.T) {
	f := &fakeHID{responses: [][]byte{response(cmdI2CWrite, func(r []byte) { r[1] = 0x01 })}}
	d := newTestBridge(f)
	err := d.WriteToAddr(context.Background(), 0x39, []byte{0x80})
	require.Error(t, err)
	assert.ErrorIs(t, err, proximity.ErrBusBusy)
	assert.True(t, proximity.IsTransportError(err))
}

func TestWriteToAddrOversized(t *testing.T) {
	f := &fakeHID{}
	d := newTestBridge(f)
	err := d.WriteToAddr(context.Background(), 0x39, make([]byte, maxWritePayload+1))
	var te *proximity.TransportError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, maxWritePayload+1, te.Requested)
	assert.Equal(t, 0, te.Transferred)
	assert.ErrorIs(t, err, ErrPayloadTooLarge)
	assert.Empty(t, f.requests)
}

func TestWriteToAddrFullReport(t *testing.T) {
	f := &fakeHID{responses: [][]byte{response(cmdI2CWrite, nil)}}
	d := newTestBridge(f)
	payload := make([]byte, maxWritePayload)
	payload[maxWritePayload-1] = 0xEE
	require.NoError(t, d.WriteToAddr(context.Background(), 0x39, payload))
	require.Len(t, f.requests, 1)
	assert.Equal(t, byte(0xEE), f.requests[0][reportSize-1])
}

func TestReadFromAddr(t *testing.T) {
	f := &fakeHID{responses: [][]byte{
		response(cmdI2CRead, nil),
		response(cmdI2CGetData, func(r []byte) {
			r[3] = 1
			r[4] = 0xAB
		}),
	}}
	d := newTestBridge(f)
	buf := make([]byte, 1)
	err := d.ReadFromAddr(context.Background(), 0x39, buf)
	require.NoError(t, err)
	assert.Equal(t, byte(0xAB), buf[0])
	require.Len(t, f.requests, 2)
	assert.Equal(t, byte(0x73), f.requests[0][3])
	assert.Equal(t, byte(cmdI2CGetData), f.requests[1][0])
}

func TestReadFromAddrShort(t *testing.T) {
	f := &fakeHID{responses: [][]byte{
		response(cmdI2CRead, nil),
		response(cmdI2CGetData, func(r []byte) { r[3] = 1 }),
	}}
	d := newTestBridge(f)
	err := d.ReadFromAddr(context.Background(), 0x39, make([]byte, 2))
	require.Error(t, err)
	var te *proximity.TransportError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, 2, te.Requested)
	assert.Equal(t, 1, te.Transferred)
	assert.ErrorIs(t, err, proximity.ErrShortTransfer)
}

func TestReadFromAddrEngineError(t *testing.T) {
	f := &fakeHID{responses: [][]byte{
		response(cmdI2CRead, nil),
		response(cmdI2CGetData, func(r []byte) { r[3] = 127 }),
	}}
	d := newTestBridge(f)
	err := d.ReadFromAddr(context.Background(), 0x39, make([]byte, 1))
	assert.ErrorIs(t, err, ErrCommandFailed)
}

func TestStatus(t *testing.T) {
	f := &fakeHID{responses: [][]byte{response(cmdStatus, func(r []byte) {
		r[9] = 0x02
		r[11] = 0x01
		r[13] = 4
		r[14] = 0x76
		r[16] = 0x72
	})}}
	d := newTestBridge(f)
	status, err := d.Status(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint16(2), status.LastWriteRequestedSize)
	assert.Equal(t, uint16(1), status.LastWriteSentSize)
	assert.Equal(t, 4, status.I2CDataBufferCounter)
	assert.Equal(t, 0x76, status.I2CSpeedDivider)
	assert.Equal(t, "7200", status.CurrentAddress)
}

func TestRelease(t *testing.T) {
	f := &fakeHID{responses: [][]byte{response(cmdStatus, nil)}}
	d := newTestBridge(f)
	require.NoError(t, d.Release(context.Background()))
	require.Len(t, f.requests, 1)
	assert.Equal(t, byte(cmdCancelTx), f.requests[0][2])
}

func TestSendOpenFailure(t *testing.T) {
	d := NewMCP2221()
	d.open = func() (hidDevice, error) { return nil, ErrNotFound }
	_, err := d.Status(context.Background())
	assert.ErrorIs(t, err, ErrNotFound)
}
