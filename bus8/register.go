package bus8

import "github.com/golang/glog"

// RegisterWriter is the batched fast path: each byte costs at most two
// register stores for the data lines plus three for the strobe pulse.
type RegisterWriter struct {
	regs   Registers
	lines  [8]uint32 // mask of the line carrying each data bit
	strobe uint32

	prev  byte
	valid bool // prev holds what the data lines carry
	stats Stats
}

// NewRegisterWriter returns a writer that drives pins through regs.
//
// The strobe line is driven to its idle (high) level before returning. The
// data lines are left untouched until the first byte is written.
func NewRegisterWriter(regs Registers, pins Pins) (*RegisterWriter, error) {
	if regs == nil {
		return nil, errNilRegisters
	}
	if err := pins.validate(); err != nil {
		return nil, err
	}
	w := &RegisterWriter{regs: regs, strobe: 1 << uint(pins.Strobe)}
	for i, n := range pins.Data {
		w.lines[i] = 1 << uint(n)
	}
	regs.Set(w.strobe)
	return w, nil
}

// Write latches every byte of p on the bus. It never fails.
func (w *RegisterWriter) Write(p []byte) (int, error) {
	glog.V(3).Infof("bus8: register write(len=%d): % x", len(p), p)
	for _, b := range p {
		if !w.valid || b != w.prev {
			set, clr := w.masks(b)
			w.regs.Set(set)
			w.regs.Clear(clr)
			w.stats.Reprograms++
		}

		// Pulse /WR low. The store of an empty mask holds the line low for
		// one more register cycle.
		w.regs.Clear(w.strobe)
		w.regs.Clear(0)
		w.regs.Set(w.strobe)
		w.stats.Strobes++

		w.prev, w.valid = b, true
	}
	w.stats.Bytes += uint64(len(p))
	return len(p), nil
}

// masks splits b into the lines to drive high and the lines to drive low.
func (w *RegisterWriter) masks(b byte) (set, clr uint32) {
	for i, m := range w.lines {
		if b&(1<<uint(i)) != 0 {
			set |= m
		} else {
			clr |= m
		}
	}
	return set, clr
}

// Reset forgets the cached byte so the next byte reprograms every data line.
// Call it when something else may have driven the data lines.
func (w *RegisterWriter) Reset() {
	w.valid = false
}

// Stats returns the activity counters.
func (w *RegisterWriter) Stats() Stats {
	return w.stats
}

// String implements fmt.Stringer.
func (w *RegisterWriter) String() string {
	return "bus8.RegisterWriter"
}

var _ Writer = &RegisterWriter{}
