package initseq

// defaultStream is the ILI9488 bring-up program of the PiScreen panel.
var defaultStream = []int{
	Cmd, 0xB0, 0x00, // interface mode control
	Cmd, 0x11, // sleep out
	Sleep, 120,
	Cmd, 0x3A, 0x55, // 16 bits per pixel
	Cmd, 0xC2, 0x33, // power control 3
	Cmd, 0xC5, 0x00, 0x1E, 0x80, // VCOM control
	Cmd, 0x36, 0x28, // memory access control
	Cmd, 0xB1, 0xB0, // frame rate
	Cmd, 0xE0, 0x00, 0x04, 0x0E, 0x08, 0x17, 0x0A, 0x40, 0x79, 0x4D, 0x07, 0x0E, 0x0A, 0x1A, 0x1D, 0x0F, // positive gamma
	Cmd, 0xE1, 0x00, 0x1B, 0x1F, 0x02, 0x10, 0x05, 0x32, 0x34, 0x43, 0x02, 0x0A, 0x09, 0x33, 0x37, 0x0F, // negative gamma
	Cmd, 0x11,
	Cmd, 0x29, // display on
	End,
}

// DefaultStream returns a copy of the PiScreen bring-up program in its
// marker delimited form.
func DefaultStream() []int {
	return append([]int(nil), defaultStream...)
}

// Default returns the PiScreen bring-up program parsed.
func Default() (Sequence, error) {
	return Parse(defaultStream)
}
