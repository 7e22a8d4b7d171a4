// Package bus8 emulates an 8-bit parallel (8080-style) write bus on plain
// GPIO lines.
//
// A byte is presented on eight data lines and latched by pulsing an
// active-low write strobe. Two implementations of Writer are provided:
//
//   - RegisterWriter drives all data lines with a single store to the GPIO
//     controller's set register and a single store to its clear register.
//     This is the fast path and needs memory-mapped access to the controller
//     (see MMIO).
//   - PinWriter drives every line through periph.io's gpio.PinOut. It works
//     on any host periph.io supports, at a fraction of the speed.
//
// Both writers remember the last byte they put on the bus and skip
// reprogramming the data lines when the next byte is the same. The cache
// lives as long as the writer, so a writer must own its lines exclusively:
// nothing else may touch the data lines between two calls to Write, and
// writers are not safe for concurrent use.
//
// Nothing is ever read back from the device on the other end of the bus.
package bus8
