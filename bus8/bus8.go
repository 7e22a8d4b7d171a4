package bus8

import (
	"errors"
	"fmt"
)

// Writer writes raw bytes on the bus, one strobe per byte.
//
// Write returns the number of bytes fully latched. Implementations are not
// safe for concurrent use.
type Writer interface {
	Write(p []byte) (int, error)
}

// Pins is the physical line assignment of the bus, as GPIO line numbers on
// the controller's first bank.
type Pins struct {
	Data   [8]int // Data[0] carries the least significant bit
	Strobe int    // active-low write strobe (/WR)
}

// Stats counts bus activity since the writer was created.
type Stats struct {
	Bytes      uint64 // bytes latched
	Reprograms uint64 // times the data lines were driven
	Strobes    uint64 // strobe pulses
}

// String implements fmt.Stringer.
func (s Stats) String() string {
	return fmt.Sprintf("%d bytes, %d reprograms, %d strobes", s.Bytes, s.Reprograms, s.Strobes)
}

// bankSize is the number of lines covered by one set/clear register.
const bankSize = 32

func (p *Pins) validate() error {
	var seen uint64
	lines := append(p.Data[:], p.Strobe)
	for _, n := range lines {
		if n < 0 || n >= bankSize {
			return fmt.Errorf("bus8: line %d out of range [0,%d)", n, bankSize)
		}
		if seen&(1<<n) != 0 {
			return fmt.Errorf("bus8: line %d assigned twice", n)
		}
		seen |= 1 << n
	}
	return nil
}

var errNilRegisters = errors.New("bus8: nil registers")
