// Package ili9488 controls an ILI9488 TFT LCD controller over an 8-bit
// parallel bus emulated on GPIO lines.
//
// # Display Characteristics
//
// - 420×320 pixels, 16 bits per pixel (RGB565, big endian on the bus)
// - Rotation by 0, 90, 180 or 270 degrees through the controller's memory
// access control register, no pixel reordering on the host
// - RGB or BGR subpixel order
// - Write only: nothing is ever read back from the controller
//
// # Hardware Connection
//
// The controller runs in 8080 8-bit mode:
//
//	Display Pin → System Pin
//	GND         → GND
//	VCC         → 3.3V
//	DB0..DB7    → 8 GPIO lines (any, first bank for the fast path)
//	/WR         → GPIO (write strobe)
//	D/C (RS)    → GPIO (data/command select)
//	/RD         → 3.3V
//	/CS         → GND
//	/RESET      → Optional: GPIO for hardware reset
//
// # Bus Implementations
//
// The bus is a bus8.Writer. bus8.PinWriter drives the lines through
// periph.io and works everywhere periph.io does. bus8.RegisterWriter writes
// the GPIO controller's set and clear registers directly, changing all data
// lines with two stores; use it on Raspberry Pi class hardware for full
// frame rates:
//
//	regs, _ := bus8.MapGPIOMem(bus8.BCM283xSetOffset, bus8.BCM283xClearOffset)
//	bus, _ := bus8.NewRegisterWriter(regs, bus8.Pins{
//		Data:   [8]int{2, 3, 4, 17, 27, 22, 10, 9},
//		Strobe: 11,
//	})
//
// Both writers skip reprogramming the data lines when a byte repeats the
// previous one, which makes solid fills cheap.
//
// # Basic Usage
//
//	dev, err := ili9488.New(bus, gpioreg.ByName("GPIO24"), &ili9488.Opts{
//		Rotation: 90,
//		BGR:      true,
//	})
//	if err != nil {
//		// The init program is malformed or a pin failed.
//	}
//	defer dev.Halt()
//
//	// Fill a 10×10 square at (20, 20) with red.
//	px := bytes.Repeat([]byte{0xF8, 0x00}, 10*10)
//	dev.WriteRect(image.Rect(20, 20, 30, 30), px)
//
// A flush loop that tracks dirty rectangles itself uses the lower level
// pair SetAddressWindow and Write.
//
// # Init Program
//
// New replays an init program before returning. The default is the
// PiScreen vendor program in initseq.Default. A different program can be
// given in Opts.Init, parsed from the vendor's integer form with
// initseq.Parse or from text with initseq.ParseText:
//
//	seq, err := initseq.ParseText("-1 0x11  -2 120  -1 0x3A 0x55  -1 0x29  -3")
//
// # Concurrency
//
// A Dev and its bus must be used from one goroutine at a time. The bus
// writers cache the last byte on the lines, so nothing else may drive the
// data lines while the Dev is in use.
//
// # Logging
//
// The package logs with glog: -v=1 logs initialization and orientation
// changes, -v=2 address windows and -v=3 every bus transfer.
//
// # Datasheet
//
// https://www.hpinfotech.ro/ILI9488.pdf
package ili9488
