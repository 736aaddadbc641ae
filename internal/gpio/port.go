// Package gpio is the logical output-port abstraction the actuator sinks
// drive. Ports are read and written as whole 32-bit words.
package gpio

import (
	"fmt"
	"sync"
)

// Port is a 32-bit output port.
type Port interface {
	In() (uint32, error)
	Out(v uint32) error
}

// Pin is one bit of a port. Active-low pins are lit by clearing the bit.
type Pin struct {
	Bit       uint
	ActiveLow bool
}

func (p Pin) mask() uint32 { return 1 << p.Bit }

// Validate rejects bits outside the port width.
func (p Pin) Validate() error {
	if p.Bit > 31 {
		return fmt.Errorf("gpio bit %d out of range 0..31", p.Bit)
	}
	return nil
}

// Drive sets the logical level of pin with a read-modify-write of the
// port. Callers serialise access to a shared port.
func Drive(port Port, pin Pin, on bool) error {
	if err := pin.Validate(); err != nil {
		return err
	}
	v, err := port.In()
	if err != nil {
		return fmt.Errorf("read port: %w", err)
	}
	high := on != pin.ActiveLow
	if high {
		v |= pin.mask()
	} else {
		v &^= pin.mask()
	}
	if err := port.Out(v); err != nil {
		return fmt.Errorf("write port: %w", err)
	}
	return nil
}

// Level reports the logical level of pin.
func Level(port Port, pin Pin) (bool, error) {
	v, err := port.In()
	if err != nil {
		return false, err
	}
	high := v&pin.mask() != 0
	return high != pin.ActiveLow, nil
}

// MemPort is an in-memory port, used when no hardware is attached and in
// tests.
type MemPort struct {
	mu     sync.Mutex
	val    uint32
	writes int
}

func NewMemPort(initial uint32) *MemPort { return &MemPort{val: initial} }

func (p *MemPort) In() (uint32, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.val, nil
}

func (p *MemPort) Out(v uint32) error {
	p.mu.Lock()
	p.val = v
	p.writes++
	p.mu.Unlock()
	return nil
}

// Value returns the raw port word.
func (p *MemPort) Value() uint32 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.val
}

// Writes counts Out calls.
func (p *MemPort) Writes() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.writes
}
