package ili9488

import (
	"errors"
	"fmt"
	"image"
	"reflect"
	"strings"
	"testing"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"
	"periph.io/x/devices/v3/ili9488/bus8"
	"periph.io/x/devices/v3/ili9488/initseq"
	"tinygo.org/x/drivers"
)

// fakeBus logs every bus write prefixed with the D/C level at that time:
// "C" for command mode, "D" for data mode.
type fakeBus struct {
	dc    *gpiotest.Pin
	log   []string
	bytes int
	err   error
}

func (b *fakeBus) Write(p []byte) (int, error) {
	if b.err != nil {
		return 0, b.err
	}
	mode := "D"
	if b.dc.L == gpio.Low {
		mode = "C"
	}
	b.log = append(b.log, strings.TrimSpace(fmt.Sprintf("%s % X", mode, p)))
	b.bytes += len(p)
	return len(p), nil
}

type sleeps []int

func (s *sleeps) sleep(ms int) { *s = append(*s, ms) }

// newTestDev returns a Dev with an empty init program and a cleared bus log.
func newTestDev(t *testing.T) (*Dev, *fakeBus) {
	t.Helper()
	dc := &gpiotest.Pin{N: "DC", Num: 24}
	bus := &fakeBus{dc: dc}
	d, err := New(bus, dc, &Opts{Init: initseq.Sequence{}, Sleep: func(int) {}})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if want := []string{"C 36", "D C0"}; !reflect.DeepEqual(bus.log, want) {
		t.Fatalf("New() log = %q, want %q", bus.log, want)
	}
	bus.log, bus.bytes = nil, 0
	return d, bus
}

func TestNewDefaultInit(t *testing.T) {
	dc := &gpiotest.Pin{N: "DC"}
	bus := &fakeBus{dc: dc}
	var s sleeps
	if _, err := New(bus, dc, &Opts{Sleep: s.sleep, BGR: true}); err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if !reflect.DeepEqual([]int(s), []int{120}) {
		t.Errorf("sleeps = %v, want [120]", s)
	}
	want := []string{"C B0", "D 00", "C 11", "C 3A", "D 55"}
	if !reflect.DeepEqual(bus.log[:len(want)], want) {
		t.Errorf("log starts with %q, want %q", bus.log[:len(want)], want)
	}
	tail := []string{"C 11", "C 29", "C 36", "D C8"}
	if got := bus.log[len(bus.log)-len(tail):]; !reflect.DeepEqual(got, tail) {
		t.Errorf("log ends with %q, want %q", got, tail)
	}
}

func TestNewMalformedDefaultInit(t *testing.T) {
	saved := defaultInit
	t.Cleanup(func() { defaultInit = saved })
	defaultInit = func() (initseq.Sequence, error) {
		stream := initseq.DefaultStream()
		return initseq.Parse(stream[:len(stream)-1])
	}

	dc := &gpiotest.Pin{N: "DC"}
	bus := &fakeBus{dc: dc}
	_, err := New(bus, dc, &Opts{Sleep: func(int) {}})
	if !errors.Is(err, initseq.ErrMalformed) {
		t.Fatalf("New() error = %v, want ErrMalformed", err)
	}
	if len(bus.log) != 0 {
		t.Errorf("New() sent %q before failing", bus.log)
	}
}

func TestNewReset(t *testing.T) {
	dc := &gpiotest.Pin{N: "DC"}
	rst := &gpiotest.Pin{N: "RST"}
	var s sleeps
	if _, err := New(&fakeBus{dc: dc}, dc, &Opts{Init: initseq.Sequence{}, RST: rst, Sleep: s.sleep}); err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if rst.L != gpio.High {
		t.Errorf("RST = %s, want High", rst.L)
	}
	if !reflect.DeepEqual([]int(s), []int{10, 120}) {
		t.Errorf("sleeps = %v, want [10 120]", s)
	}
}

func TestNewValidation(t *testing.T) {
	dc := &gpiotest.Pin{N: "DC"}
	tests := []struct {
		name string
		bus  *fakeBus
		dc   gpio.PinOut
		opts *Opts
	}{
		{"nil dc", &fakeBus{dc: dc}, nil, nil},
		{"bad rotation", &fakeBus{dc: dc}, dc, &Opts{Rotation: 45}},
		{"bus failure", &fakeBus{dc: dc, err: errors.New("bus down")}, dc, &Opts{Sleep: func(int) {}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.bus, tt.dc, tt.opts); err == nil {
				t.Error("expected error but didn't get one")
			}
		})
	}
	if _, err := New(nil, dc, nil); err == nil {
		t.Error("nil bus: expected error but didn't get one")
	}
	if _, err := New(&fakeBus{dc: dc}, dc, &Opts{Rotation: 45}); !errors.Is(err, ErrUnsupportedRotation) {
		t.Errorf("bad rotation error = %v, want ErrUnsupportedRotation", err)
	}
}

func TestSetAddressWindow(t *testing.T) {
	d, bus := newTestDev(t)
	if err := d.SetAddressWindow(0, 0, 419, 319); err != nil {
		t.Fatal(err)
	}
	want := []string{"C 2A", "D 00 00 01 A3", "C 2B", "D 00 00 01 3F", "C 2C"}
	if !reflect.DeepEqual(bus.log, want) {
		t.Errorf("log = %q, want %q", bus.log, want)
	}

	// Never cached.
	bus.log = nil
	d.SetAddressWindow(0, 0, 419, 319)
	if !reflect.DeepEqual(bus.log, want) {
		t.Errorf("second call log = %q, want %q", bus.log, want)
	}
}

func TestCommandLeavesDataMode(t *testing.T) {
	d, bus := newTestDev(t)
	if err := d.Command(0x2C); err != nil {
		t.Fatal(err)
	}
	if _, err := d.bus.Write([]byte{0xF8, 0x00}); err != nil {
		t.Fatal(err)
	}
	want := []string{"C 2C", "D F8 00"}
	if !reflect.DeepEqual(bus.log, want) {
		t.Errorf("log = %q, want %q", bus.log, want)
	}
}

func TestOrientation(t *testing.T) {
	tests := []struct {
		rotation int
		bgr      bool
		want     byte
		ok       bool
	}{
		{0, true, 0xC8, true},
		{0, false, 0xC0, true},
		{90, false, 0x20, true},
		{90, true, 0x28, true},
		{180, false, 0x00, true},
		{180, true, 0x08, true},
		{270, false, 0xA0, true},
		{45, false, 0, false},
		{-90, false, 0, false},
		{360, true, 0, false},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d/%t", tt.rotation, tt.bgr), func(t *testing.T) {
			got, ok := Orientation(tt.rotation, tt.bgr)
			if got != tt.want || ok != tt.ok {
				t.Errorf("Orientation() = 0x%02X, %t, want 0x%02X, %t", got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestSetOrientation(t *testing.T) {
	d, bus := newTestDev(t)

	if err := d.SetOrientation(0, true); err != nil {
		t.Fatal(err)
	}
	if err := d.SetOrientation(90, false); err != nil {
		t.Fatal(err)
	}
	want := []string{"C 36", "D C8", "C 36", "D 20"}
	if !reflect.DeepEqual(bus.log, want) {
		t.Errorf("log = %q, want %q", bus.log, want)
	}

	bus.log = nil
	if err := d.SetOrientation(45, false); err != nil {
		t.Errorf("SetOrientation(45) = %v, want nil", err)
	}
	if len(bus.log) != 0 {
		t.Errorf("SetOrientation(45) sent %q", bus.log)
	}
	if d.Rotation() != 90 {
		t.Errorf("Rotation() = %d, want 90 to be kept", d.Rotation())
	}
}

func TestSetRotation(t *testing.T) {
	d, bus := newTestDev(t)
	d.SetOrientation(180, true)
	bus.log = nil

	if err := d.SetRotation(drivers.Rotation270); err != nil {
		t.Fatal(err)
	}
	if want := []string{"C 36", "D A8"}; !reflect.DeepEqual(bus.log, want) {
		t.Errorf("log = %q, want %q", bus.log, want)
	}

	bus.log = nil
	if err := d.SetRotation(drivers.Rotation(7)); !errors.Is(err, ErrUnsupportedRotation) {
		t.Errorf("SetRotation(7) = %v, want ErrUnsupportedRotation", err)
	}
	if len(bus.log) != 0 {
		t.Errorf("SetRotation(7) sent %q", bus.log)
	}
}

func TestBounds(t *testing.T) {
	d, _ := newTestDev(t)
	if got, want := d.Bounds(), image.Rect(0, 0, 420, 320); got != want {
		t.Errorf("Bounds() = %v, want %v", got, want)
	}
	d.SetOrientation(90, false)
	if got, want := d.Bounds(), image.Rect(0, 0, 320, 420); got != want {
		t.Errorf("Bounds() at 90° = %v, want %v", got, want)
	}
	if got, want := d.String(), "ili9488.Dev{320x420, 90°}"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestWriteRect(t *testing.T) {
	d, bus := newTestDev(t)
	r := image.Rect(10, 20, 12, 21)
	if err := d.WriteRect(r, []byte{0xF8, 0x00, 0x07, 0xE0}); err != nil {
		t.Fatal(err)
	}
	want := []string{"C 2A", "D 00 0A 00 0B", "C 2B", "D 00 14 00 14", "C 2C", "D F8 00 07 E0"}
	if !reflect.DeepEqual(bus.log, want) {
		t.Errorf("log = %q, want %q", bus.log, want)
	}
}

func TestWriteRectValidation(t *testing.T) {
	d, bus := newTestDev(t)
	tests := []struct {
		name   string
		r      image.Rectangle
		pixels int
	}{
		{"empty", image.Rect(5, 5, 5, 10), 0},
		{"outside", image.Rect(400, 0, 421, 1), 21 * BytesPerPixel},
		{"negative", image.Rect(-1, 0, 1, 1), 2 * BytesPerPixel},
		{"short buffer", image.Rect(0, 0, 2, 2), 7},
		{"long buffer", image.Rect(0, 0, 2, 2), 9},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := d.WriteRect(tt.r, make([]byte, tt.pixels)); err == nil {
				t.Error("expected error but didn't get one")
			}
		})
	}
	if len(bus.log) != 0 {
		t.Errorf("invalid WriteRect calls sent %q", bus.log)
	}
}

func TestClear(t *testing.T) {
	d, bus := newTestDev(t)
	if err := d.Clear(); err != nil {
		t.Fatal(err)
	}
	if got := bus.log[:5]; !reflect.DeepEqual(got, []string{"C 2A", "D 00 00 01 A3", "C 2B", "D 00 00 01 3F", "C 2C"}) {
		t.Errorf("window = %q", got)
	}
	if got, want := len(bus.log), 5+Height; got != want {
		t.Errorf("%d bus writes, want %d", got, want)
	}
	if got, want := bus.bytes, 3+8+Width*Height*BytesPerPixel; got != want {
		t.Errorf("%d bytes written, want %d", got, want)
	}
}

func TestDisplay(t *testing.T) {
	d, bus := newTestDev(t)
	d.Display(false)
	d.Display(true)
	if want := []string{"C 28", "C 29"}; !reflect.DeepEqual(bus.log, want) {
		t.Errorf("log = %q, want %q", bus.log, want)
	}
}

func TestDevHalt(t *testing.T) {
	d, bus := newTestDev(t)

	if err := d.Halt(); err != nil {
		t.Fatal(err)
	}
	if want := []string{"C 28", "C 10"}; !reflect.DeepEqual(bus.log, want) {
		t.Errorf("Halt() log = %q, want %q", bus.log, want)
	}

	bus.log = nil
	if err := d.Halt(); err != nil {
		t.Errorf("second Halt() = %v", err)
	}
	if err := d.Command(0x29); err == nil {
		t.Error("Command should fail when halted")
	}
	if err := d.SetAddressWindow(0, 0, 1, 1); err == nil {
		t.Error("SetAddressWindow should fail when halted")
	}
	if err := d.SetOrientation(0, false); err == nil {
		t.Error("SetOrientation should fail when halted")
	}
	if _, err := d.Write([]byte{0}); err == nil {
		t.Error("Write should fail when halted")
	}
	if err := d.WriteRect(image.Rect(0, 0, 1, 1), []byte{0, 0}); err == nil {
		t.Error("WriteRect should fail when halted")
	}
	if err := d.Clear(); err == nil {
		t.Error("Clear should fail when halted")
	}
	if err := d.Display(true); err == nil {
		t.Error("Display should fail when halted")
	}
	if len(bus.log) != 0 {
		t.Errorf("halted device sent %q", bus.log)
	}
}

type nopRegs struct{ stores int }

func (r *nopRegs) Set(uint32)   { r.stores++ }
func (r *nopRegs) Clear(uint32) { r.stores++ }

func TestRegisterBusWindow(t *testing.T) {
	regs := &nopRegs{}
	bus, err := bus8.NewRegisterWriter(regs, bus8.Pins{Data: [8]int{2, 3, 4, 17, 27, 22, 10, 9}, Strobe: 11})
	if err != nil {
		t.Fatal(err)
	}
	dc := &gpiotest.Pin{N: "DC"}
	d, err := New(bus, dc, &Opts{Init: initseq.Sequence{}})
	if err != nil {
		t.Fatal(err)
	}

	before := bus.Stats()
	if err := d.SetAddressWindow(0, 0, 419, 319); err != nil {
		t.Fatal(err)
	}
	// 2A 00 00 01 A3 2B 00 00 01 3F 2C: the second 00 of each pair repeats.
	got := bus.Stats()
	if n := got.Strobes - before.Strobes; n != 11 {
		t.Errorf("strobes = %d, want 11", n)
	}
	if n := got.Reprograms - before.Reprograms; n != 9 {
		t.Errorf("reprograms = %d, want 9", n)
	}
}
