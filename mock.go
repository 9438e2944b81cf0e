package proximity

import (
	"context"
	"sync"
)

var _ Handle = &MockDevice{}

// MockRead is a scripted outcome of one register read.
type MockRead struct {
	Value byte
	Err   error
}

// Value scripts a successful read returning v.
func Value(v byte) MockRead {
	return MockRead{Value: v}
}

// Fail scripts a read that fails with err.
func Fail(err error) MockRead {
	return MockRead{Err: err}
}

// Transaction is one bus transaction seen by a MockDevice. Pointer is the
// register pointer the transaction addressed; for a pointer write it is the
// newly selected register.
type Transaction struct {
	Op      Op
	Pointer Register
	Data    []byte
	Failed  bool
}

// RegisterWrite is a value stored into a register by a completed
// pointer-then-value sequence.
type RegisterWrite struct {
	Register Register
	Value    byte
}

// MockBehaviorFunc is consulted before every transaction. n is the 1-based
// transaction number. A non-nil error fails the transaction without any effect
// on the simulated device.
type MockBehaviorFunc func(n int, tx Transaction) error

// MockDevice simulates an addressed register-file peripheral without any
// hardware. The first byte written after a completed access selects the
// register pointer, the next written byte stores a value into the selected
// register, and a read returns the selected register. A failed transaction
// resets the pointer selection, like a bus stop condition would.
//
// Reads of a register can be scripted with ScriptReads; scripted outcomes are
// consumed in order before falling back to the stored register value.
type MockDevice struct {
	mx       sync.Mutex
	regs     [256]byte
	pointer  Register
	selected bool
	scripts  map[Register][]MockRead
	failures map[int]error
	behavior MockBehaviorFunc
	log      []Transaction
	written  []RegisterWrite
	closes   int
}

func NewMockDevice() *MockDevice {
	return &MockDevice{
		scripts:  make(map[Register][]MockRead),
		failures: make(map[int]error),
	}
}

// SetRegister stores v without recording a transaction.
func (m *MockDevice) SetRegister(reg Register, v byte) {
	m.mx.Lock()
	defer m.mx.Unlock()
	m.regs[reg] = v
}

// Register returns the stored register value.
func (m *MockDevice) Register(reg Register) byte {
	m.mx.Lock()
	defer m.mx.Unlock()
	return m.regs[reg]
}

// ScriptReads queues outcomes for subsequent reads of reg.
func (m *MockDevice) ScriptReads(reg Register, reads ...MockRead) {
	m.mx.Lock()
	defer m.mx.Unlock()
	m.scripts[reg] = append(m.scripts[reg], reads...)
}

// FailOn makes the n-th transaction (1-based, counting failed ones) fail with err.
func (m *MockDevice) FailOn(n int, err error) {
	m.mx.Lock()
	defer m.mx.Unlock()
	m.failures[n] = err
}

func (m *MockDevice) SetBehavior(behavior MockBehaviorFunc) {
	m.mx.Lock()
	defer m.mx.Unlock()
	m.behavior = behavior
}

// Transactions returns every attempted transaction in order.
func (m *MockDevice) Transactions() []Transaction {
	m.mx.Lock()
	defer m.mx.Unlock()
	out := make([]Transaction, len(m.log))
	copy(out, m.log)
	return out
}

// Writes returns the completed register writes in order.
func (m *MockDevice) Writes() []RegisterWrite {
	m.mx.Lock()
	defer m.mx.Unlock()
	out := make([]RegisterWrite, len(m.written))
	copy(out, m.written)
	return out
}

// ReadsOf counts successful reads addressed to reg.
func (m *MockDevice) ReadsOf(reg Register) int {
	m.mx.Lock()
	defer m.mx.Unlock()
	count := 0
	for _, tx := range m.log {
		if tx.Op == OpRead && tx.Pointer == reg && !tx.Failed {
			count++
		}
	}
	return count
}

// Closed reports whether Close was called.
func (m *MockDevice) Closed() bool {
	m.mx.Lock()
	defer m.mx.Unlock()
	return m.closes > 0
}

// CloseCount returns how many times Close was called.
func (m *MockDevice) CloseCount() int {
	m.mx.Lock()
	defer m.mx.Unlock()
	return m.closes
}

func (m *MockDevice) Write(ctx context.Context, buffer []byte) error {
	m.mx.Lock()
	defer m.mx.Unlock()
	if m.closes > 0 {
		return CheckTransfer(OpWrite, len(buffer), 0, ErrHandleClosed)
	}
	tx := Transaction{Op: OpWrite, Pointer: m.pointer, Data: append([]byte(nil), buffer...)}
	if !m.selected && len(buffer) > 0 {
		tx.Pointer = Register(buffer[0])
	}
	if err := m.inject(tx); err != nil {
		return CheckTransfer(OpWrite, len(buffer), 0, err)
	}
	for _, b := range buffer {
		if !m.selected {
			m.pointer = Register(b)
			m.selected = true
			continue
		}
		m.regs[m.pointer] = b
		m.written = append(m.written, RegisterWrite{Register: m.pointer, Value: b})
		m.selected = false
	}
	return nil
}

func (m *MockDevice) Read(ctx context.Context, buffer []byte) error {
	m.mx.Lock()
	defer m.mx.Unlock()
	if m.closes > 0 {
		return CheckTransfer(OpRead, len(buffer), 0, ErrHandleClosed)
	}
	tx := Transaction{Op: OpRead, Pointer: m.pointer}
	if err := m.inject(tx); err != nil {
		return CheckTransfer(OpRead, len(buffer), 0, err)
	}
	m.selected = false
	for i := range buffer {
		reg := m.pointer + Register(i)
		if queue := m.scripts[reg]; len(queue) > 0 {
			next := queue[0]
			m.scripts[reg] = queue[1:]
			if next.Err != nil {
				m.log[len(m.log)-1].Failed = true
				return CheckTransfer(OpRead, len(buffer), i, next.Err)
			}
			buffer[i] = next.Value
			continue
		}
		buffer[i] = m.regs[reg]
	}
	m.log[len(m.log)-1].Data = append([]byte(nil), buffer...)
	return nil
}

// Close releases the simulated handle. Closing twice is reported as an error.
func (m *MockDevice) Close() error {
	m.mx.Lock()
	defer m.mx.Unlock()
	m.closes++
	if m.closes > 1 {
		return ErrHandleClosed
	}
	return nil
}

// inject records tx and applies scripted failures. Must be called with mx held.
func (m *MockDevice) inject(tx Transaction) error {
	n := len(m.log) + 1
	var err error
	if m.behavior != nil {
		err = m.behavior(n, tx)
	}
	if err == nil {
		err = m.failures[n]
	}
	if err != nil {
		tx.Failed = true
		m.selected = false
	}
	m.log = append(m.log, tx)
	return err
}
