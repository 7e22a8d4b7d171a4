package bus8

import (
	"errors"
	"fmt"

	"github.com/golang/glog"
	"periph.io/x/conn/v3/gpio"
)

// PinWriter drives the bus one line at a time through gpio.PinOut.
//
// Only the data lines whose level changes from the previous byte are
// driven.
type PinWriter struct {
	data   [8]gpio.PinOut
	strobe gpio.PinOut

	prev  byte
	valid bool
	stats Stats
}

// NewPinWriter returns a writer over the given data lines (data[0] is the
// least significant bit) and active-low strobe line.
//
// The strobe line is driven high (idle) before returning.
func NewPinWriter(data [8]gpio.PinOut, strobe gpio.PinOut) (*PinWriter, error) {
	for i, p := range data {
		if p == nil {
			return nil, fmt.Errorf("bus8: data line %d is nil", i)
		}
	}
	if strobe == nil {
		return nil, errors.New("bus8: strobe line is nil")
	}
	if err := strobe.Out(gpio.High); err != nil {
		return nil, fmt.Errorf("bus8: failed to idle %s: %w", strobe, err)
	}
	return &PinWriter{data: data, strobe: strobe}, nil
}

// Write latches every byte of p on the bus. On a pin error it returns the
// number of bytes latched before the failure.
func (w *PinWriter) Write(p []byte) (int, error) {
	glog.V(3).Infof("bus8: pin write(len=%d): % x", len(p), p)
	for i, b := range p {
		if err := w.writeByte(b); err != nil {
			// The lines are in an unknown state now.
			w.valid = false
			return i, fmt.Errorf("bus8: byte %d: %w", i, err)
		}
		w.stats.Bytes++
	}
	return len(p), nil
}

func (w *PinWriter) writeByte(b byte) error {
	if !w.valid || b != w.prev {
		changed := byte(0xFF)
		if w.valid {
			changed = b ^ w.prev
		}
		for i, pin := range w.data {
			bit := byte(1) << uint(i)
			if changed&bit == 0 {
				continue
			}
			if err := pin.Out(b&bit != 0); err != nil {
				return err
			}
		}
		w.stats.Reprograms++
	}

	// A second low write holds the strobe for one more pin cycle.
	for _, l := range []gpio.Level{gpio.Low, gpio.Low, gpio.High} {
		if err := w.strobe.Out(l); err != nil {
			return err
		}
	}
	w.stats.Strobes++

	w.prev, w.valid = b, true
	return nil
}

// Reset forgets the cached byte so the next byte drives every data line.
func (w *PinWriter) Reset() {
	w.valid = false
}

// Stats returns the activity counters.
func (w *PinWriter) Stats() Stats {
	return w.stats
}

// String implements fmt.Stringer.
func (w *PinWriter) String() string {
	return fmt.Sprintf("bus8.PinWriter{%s}", w.strobe)
}

var _ Writer = &PinWriter{}
