package ili9488

import (
	"errors"
	"fmt"
	"image"

	"github.com/golang/glog"
	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/devices/v3/ili9488/bus8"
	"periph.io/x/devices/v3/ili9488/initseq"
	"tinygo.org/x/drivers"
)

// Panel geometry.
const (
	Width         = 420
	Height        = 320
	BytesPerPixel = 2 // RGB565, set by the 0x3A command of the init program
)

// Controller commands.
const (
	cmdSleepIn       = 0x10
	cmdDisplayOff    = 0x28
	cmdDisplayOn     = 0x29
	cmdColumnAddrSet = 0x2A
	cmdRowAddrSet    = 0x2B
	cmdMemoryWrite   = 0x2C
	cmdMemAccessCtl  = 0x36
)

// Memory access control (MADCTL) bits.
const (
	madctlMY  = 1 << 7 // vertical mirroring
	madctlMX  = 1 << 6 // horizontal mirroring
	madctlMV  = 1 << 5 // row/column exchange
	madctlBGR = 1 << 3
)

// ErrUnsupportedRotation is returned for rotations other than 0, 90, 180 and
// 270 degrees.
var ErrUnsupportedRotation = errors.New("ili9488: unsupported rotation")

var errHalted = errors.New("ili9488: halted")

// defaultInit supplies the program used when Opts.Init is nil.
var defaultInit = initseq.Default

// Opts is the configuration for the ILI9488 display.
type Opts struct {
	// Clockwise rotation in degrees: 0, 90, 180 or 270.
	Rotation int
	// BGR selects blue-green-red subpixel order.
	BGR bool

	// Init is the bring-up program (nil: initseq.Default()).
	Init initseq.Sequence

	// Optional hardware reset pin
	RST gpio.PinIO

	// Sleep blocks for the given number of milliseconds
	// (nil: initseq.SleepMillis).
	Sleep func(ms int)
}

// Dev is the device handle for the ILI9488 display.
//
// A Dev owns its bus: no other code may write on it while the Dev is in
// use, and Dev methods must not be called concurrently.
type Dev struct {
	// Communication
	bus bus8.Writer
	dc  gpio.PinOut // Data/Command pin
	rst gpio.PinIO  // Reset pin (optional)

	sleep  func(ms int)
	cmdBuf [1]byte

	// Current orientation
	rotation int
	bgr      bool

	halted bool
}

// New creates a new ILI9488 device on bus.
//
// dc selects command (low) or data (high) mode. The init program is
// replayed before New returns, which blocks for the sum of its delays.
//
// opts can be nil to use defaults.
func New(bus bus8.Writer, dc gpio.PinOut, opts *Opts) (*Dev, error) {
	if opts == nil {
		opts = &Opts{}
	}
	if bus == nil {
		return nil, errors.New("ili9488: bus is required")
	}
	if dc == nil {
		return nil, errors.New("ili9488: dc pin is required")
	}
	if _, ok := Orientation(opts.Rotation, opts.BGR); !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedRotation, opts.Rotation)
	}

	seq := opts.Init
	if seq == nil {
		var err error
		if seq, err = defaultInit(); err != nil {
			return nil, fmt.Errorf("ili9488: default init program: %w", err)
		}
	}

	d := &Dev{
		bus:   bus,
		dc:    dc,
		rst:   opts.RST,
		sleep: opts.Sleep,
	}
	if d.sleep == nil {
		d.sleep = initseq.SleepMillis
	}

	if err := d.init(seq, opts); err != nil {
		return nil, err
	}
	return d, nil
}

// init resets the controller and replays the init program.
func (d *Dev) init(seq initseq.Sequence, opts *Opts) error {
	if d.rst != nil {
		if err := d.rst.Out(gpio.Low); err != nil {
			return fmt.Errorf("ili9488: failed to pull RST low: %w", err)
		}
		d.sleep(10)

		if err := d.rst.Out(gpio.High); err != nil {
			return fmt.Errorf("ili9488: failed to pull RST high: %w", err)
		}
		d.sleep(120)
	}

	glog.V(1).Infof("ili9488: replaying init program (%d ops, %v of delays)", len(seq), seq.Duration())
	if err := seq.Replay(d.command, d.sleep); err != nil {
		return fmt.Errorf("ili9488: init failed: %w", err)
	}

	return d.SetOrientation(opts.Rotation, opts.BGR)
}

// Command sends cmd in command mode followed by data in data mode.
//
// The bus is left in data mode, so raw bytes written afterwards with Write
// are the command's continuation.
func (d *Dev) Command(cmd byte, data ...byte) error {
	if d.halted {
		return errHalted
	}
	return d.command(cmd, data)
}

func (d *Dev) command(cmd byte, data []byte) error {
	if err := d.dc.Out(gpio.Low); err != nil {
		return fmt.Errorf("ili9488: failed to select command mode: %w", err)
	}
	d.cmdBuf[0] = cmd
	if _, err := d.bus.Write(d.cmdBuf[:]); err != nil {
		return fmt.Errorf("ili9488: command 0x%02X: %w", cmd, err)
	}
	if err := d.dc.Out(gpio.High); err != nil {
		return fmt.Errorf("ili9488: failed to select data mode: %w", err)
	}
	if len(data) == 0 {
		return nil
	}
	if _, err := d.bus.Write(data); err != nil {
		return fmt.Errorf("ili9488: command 0x%02X data: %w", cmd, err)
	}
	return nil
}

// SetAddressWindow selects the rectangle, bounds included, that following
// pixel writes fill, and starts a memory write.
//
// The caller must pass xs <= xe and ys <= ye. The window is sent in full on
// every call.
func (d *Dev) SetAddressWindow(xs, ys, xe, ye uint16) error {
	if d.halted {
		return errHalted
	}
	glog.V(2).Infof("ili9488: set_addr_win(xs=%d, ys=%d, xe=%d, ye=%d)", xs, ys, xe, ye)

	if err := d.command(cmdColumnAddrSet, []byte{byte(xs >> 8), byte(xs), byte(xe >> 8), byte(xe)}); err != nil {
		return err
	}
	if err := d.command(cmdRowAddrSet, []byte{byte(ys >> 8), byte(ys), byte(ye >> 8), byte(ye)}); err != nil {
		return err
	}
	return d.command(cmdMemoryWrite, nil)
}

// Orientation returns the MADCTL value for a clockwise rotation in degrees
// and the subpixel order. ok is false for unsupported rotations.
func Orientation(rotation int, bgr bool) (madctl byte, ok bool) {
	switch rotation {
	case 0:
		madctl = madctlMX | madctlMY
	case 90:
		madctl = madctlMV
	case 180:
	case 270:
		madctl = madctlMY | madctlMV
	default:
		return 0, false
	}
	if bgr {
		madctl |= madctlBGR
	}
	return madctl, true
}

// SetOrientation sets the rotation in degrees and the subpixel order.
//
// A rotation other than 0, 90, 180 or 270 sends nothing, keeps the current
// orientation and returns nil. Use SetRotation to get an error instead.
func (d *Dev) SetOrientation(rotation int, bgr bool) error {
	if d.halted {
		return errHalted
	}
	madctl, ok := Orientation(rotation, bgr)
	if !ok {
		glog.Warningf("ili9488: ignoring unsupported rotation %d", rotation)
		return nil
	}
	glog.V(1).Infof("ili9488: orientation %d° bgr=%t madctl=0x%02X", rotation, bgr, madctl)
	if err := d.command(cmdMemAccessCtl, []byte{madctl}); err != nil {
		return err
	}
	d.rotation, d.bgr = rotation, bgr
	return nil
}

// SetRotation sets the rotation keeping the current subpixel order.
//
// Only drivers.Rotation0, Rotation90, Rotation180 and Rotation270 are
// supported; mirrored rotations return ErrUnsupportedRotation.
func (d *Dev) SetRotation(r drivers.Rotation) error {
	var deg int
	switch r {
	case drivers.Rotation0:
		deg = 0
	case drivers.Rotation90:
		deg = 90
	case drivers.Rotation180:
		deg = 180
	case drivers.Rotation270:
		deg = 270
	default:
		return fmt.Errorf("%w: %d", ErrUnsupportedRotation, r)
	}
	return d.SetOrientation(deg, d.bgr)
}

// Rotation returns the current rotation in degrees.
func (d *Dev) Rotation() int {
	return d.rotation
}

// Bounds returns the drawing area for the current rotation.
func (d *Dev) Bounds() image.Rectangle {
	if d.rotation == 90 || d.rotation == 270 {
		return image.Rect(0, 0, Height, Width)
	}
	return image.Rect(0, 0, Width, Height)
}

// Write streams raw pixel bytes into the current address window.
//
// Call SetAddressWindow first; the bytes are RGB565, big endian.
func (d *Dev) Write(pixels []byte) (int, error) {
	if d.halted {
		return 0, errHalted
	}
	if err := d.dc.Out(gpio.High); err != nil {
		return 0, fmt.Errorf("ili9488: failed to select data mode: %w", err)
	}
	glog.V(3).Infof("ili9488: write(len=%d)", len(pixels))
	return d.bus.Write(pixels)
}

// WriteRect writes pixel data to a rectangular region of the display.
//
// pixels holds r.Dx()*r.Dy() RGB565 pixels, row by row.
func (d *Dev) WriteRect(r image.Rectangle, pixels []byte) error {
	if d.halted {
		return errHalted
	}
	if r.Empty() || !r.In(d.Bounds()) {
		return fmt.Errorf("ili9488: rectangle %v outside of %v", r, d.Bounds())
	}
	if len(pixels) != r.Dx()*r.Dy()*BytesPerPixel {
		return errors.New("ili9488: invalid buffer size")
	}

	if err := d.SetAddressWindow(uint16(r.Min.X), uint16(r.Min.Y), uint16(r.Max.X-1), uint16(r.Max.Y-1)); err != nil {
		return err
	}
	_, err := d.Write(pixels)
	return err
}

// Clear fills the whole display RAM with black.
func (d *Dev) Clear() error {
	b := d.Bounds()
	if err := d.SetAddressWindow(0, 0, uint16(b.Dx()-1), uint16(b.Dy()-1)); err != nil {
		return err
	}
	row := make([]byte, b.Dx()*BytesPerPixel)
	for y := 0; y < b.Dy(); y++ {
		if _, err := d.Write(row); err != nil {
			return err
		}
	}
	return nil
}

// Display turns the display on or off. Display RAM is kept while off.
func (d *Dev) Display(on bool) error {
	if d.halted {
		return errHalted
	}
	cmd := byte(cmdDisplayOff)
	if on {
		cmd = cmdDisplayOn
	}
	return d.command(cmd, nil)
}

// Halt turns the display off and puts the controller to sleep.
// After calling Halt, the display will not respond to further commands
// until the device is re-initialized.
func (d *Dev) Halt() error {
	if d.halted {
		return nil
	}
	d.halted = true
	if err := d.command(cmdDisplayOff, nil); err != nil {
		return err
	}
	return d.command(cmdSleepIn, nil)
}

// String returns a string representation of the device.
func (d *Dev) String() string {
	b := d.Bounds()
	return fmt.Sprintf("ili9488.Dev{%dx%d, %d°}", b.Dx(), b.Dy(), d.rotation)
}

var _ conn.Resource = &Dev{}
