package bus8

import (
	"fmt"
	"sync/atomic"

	"periph.io/x/host/v3/pmem"
)

// Registers is a GPIO controller's pair of write-only output registers.
//
// Writing a mask to Set drives every line whose bit is 1 high, writing a
// mask to Clear drives them low. Lines whose bit is 0 are not affected.
type Registers interface {
	Set(mask uint32)
	Clear(mask uint32)
}

// Register offsets of the first bank on Broadcom BCM283x/BCM2711 GPIO
// controllers (GPSET0 and GPCLR0).
const (
	BCM283xSetOffset   = 0x1C
	BCM283xClearOffset = 0x28
)

const pageSize = 4096

// MMIO is Registers backed by a memory mapped GPIO controller.
type MMIO struct {
	view       *pmem.View
	regs       []uint32
	set, clear int
}

// Map maps the GPIO controller at physical address base through /dev/mem.
// setOffset and clearOffset are byte offsets of the set and clear registers
// from base.
func Map(base uint64, setOffset, clearOffset uint32) (*MMIO, error) {
	if err := checkOffsets(setOffset, clearOffset); err != nil {
		return nil, err
	}
	v, err := pmem.Map(base, pageSize)
	if err != nil {
		return nil, fmt.Errorf("bus8: failed to map 0x%x: %w", base, err)
	}
	return newMMIO(v, setOffset, clearOffset), nil
}

// MapGPIOMem maps the GPIO controller through /dev/gpiomem, which does not
// require root on Raspberry Pi OS.
func MapGPIOMem(setOffset, clearOffset uint32) (*MMIO, error) {
	if err := checkOffsets(setOffset, clearOffset); err != nil {
		return nil, err
	}
	v, err := pmem.MapGPIO()
	if err != nil {
		return nil, fmt.Errorf("bus8: failed to map /dev/gpiomem: %w", err)
	}
	return newMMIO(v, setOffset, clearOffset), nil
}

func newMMIO(v *pmem.View, setOffset, clearOffset uint32) *MMIO {
	return &MMIO{
		view:  v,
		regs:  v.Uint32(),
		set:   int(setOffset / 4),
		clear: int(clearOffset / 4),
	}
}

func checkOffsets(offsets ...uint32) error {
	for _, o := range offsets {
		if o%4 != 0 || o >= pageSize {
			return fmt.Errorf("bus8: invalid register offset 0x%x", o)
		}
	}
	return nil
}

// Set implements Registers.
//
// Stores go through sync/atomic so back to back writes to the same register
// are never merged.
func (m *MMIO) Set(mask uint32) {
	atomic.StoreUint32(&m.regs[m.set], mask)
}

// Clear implements Registers.
func (m *MMIO) Clear(mask uint32) {
	atomic.StoreUint32(&m.regs[m.clear], mask)
}

// Close unmaps the registers.
func (m *MMIO) Close() error {
	m.regs = nil
	return m.view.Close()
}

// String implements fmt.Stringer.
func (m *MMIO) String() string {
	return fmt.Sprintf("bus8.MMIO{set:0x%x, clear:0x%x}", m.set*4, m.clear*4)
}

var _ Registers = &MMIO{}
