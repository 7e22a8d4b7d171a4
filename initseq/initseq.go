package initseq

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/shlex"
)

// Stream markers.
const (
	Cmd   = -1
	Sleep = -2
	End   = -3
)

// ErrMalformed is matched by every parse error.
var ErrMalformed = errors.New("initseq: malformed init sequence")

// ConfigError describes where a stream is malformed.
type ConfigError struct {
	Index int // position in the stream
	Msg   string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("initseq: at %d: %s", e.Index, e.Msg)
}

// Is makes errors.Is(err, ErrMalformed) true.
func (e *ConfigError) Is(target error) bool {
	return target == ErrMalformed
}

// Op is a Command or a Delay.
type Op interface {
	isOp()
}

// Command sends Code in command mode, then Data in data mode.
type Command struct {
	Code byte
	Data []byte
}

// Delay blocks for Millis milliseconds.
type Delay struct {
	Millis int
}

func (Command) isOp() {}
func (Delay) isOp()   {}

func (c Command) String() string {
	return fmt.Sprintf("cmd 0x%02X % X", c.Code, c.Data)
}

func (d Delay) String() string {
	return fmt.Sprintf("delay %dms", d.Millis)
}

// Sequence is a parsed init program.
type Sequence []Op

// Parse parses a marker delimited stream. The stream must be terminated by
// End; anything after End is ignored.
func Parse(stream []int) (Sequence, error) {
	var seq Sequence
	i := 0
	for i < len(stream) {
		switch v := stream[i]; v {
		case Cmd:
			i++
			if i >= len(stream) || stream[i] < 0 {
				return nil, &ConfigError{i, "command without a command byte"}
			}
			if stream[i] > 0xFF {
				return nil, &ConfigError{i, fmt.Sprintf("command byte %d out of range", stream[i])}
			}
			c := Command{Code: byte(stream[i])}
			for i++; i < len(stream) && stream[i] >= 0; i++ {
				if stream[i] > 0xFF {
					return nil, &ConfigError{i, fmt.Sprintf("data byte %d out of range", stream[i])}
				}
				c.Data = append(c.Data, byte(stream[i]))
			}
			seq = append(seq, c)
		case Sleep:
			i++
			if i >= len(stream) {
				return nil, &ConfigError{i, "delay without a duration"}
			}
			if stream[i] < 0 {
				return nil, &ConfigError{i, fmt.Sprintf("invalid delay %d", stream[i])}
			}
			seq = append(seq, Delay{Millis: stream[i]})
			i++
		case End:
			return seq, nil
		default:
			if v >= 0 {
				return nil, &ConfigError{i, fmt.Sprintf("value %d outside of a command", v)}
			}
			return nil, &ConfigError{i, fmt.Sprintf("unknown marker %d", v)}
		}
	}
	return nil, &ConfigError{len(stream), "missing end marker"}
}

// ParseText parses a stream written as text, e.g. "-1 0x11 -2 120 -3".
// Numbers may be decimal, 0x hex or 0 octal; separators are whitespace or
// commas, and '#' starts a comment running to the end of the line.
func ParseText(s string) (Sequence, error) {
	toks, err := shlex.Split(strings.ReplaceAll(s, ",", " "))
	if err != nil {
		return nil, fmt.Errorf("initseq: %w", err)
	}
	stream := make([]int, 0, len(toks))
	for i, t := range toks {
		v, err := strconv.ParseInt(t, 0, 0)
		if err != nil {
			return nil, &ConfigError{i, fmt.Sprintf("bad number %q", t)}
		}
		stream = append(stream, int(v))
	}
	return Parse(stream)
}

// Replay runs the program: emit for each Command and delay for each Delay,
// in order. It stops at the first emit error.
func (s Sequence) Replay(emit func(cmd byte, data []byte) error, delay func(ms int)) error {
	for _, op := range s {
		switch op := op.(type) {
		case Command:
			if err := emit(op.Code, op.Data); err != nil {
				return err
			}
		case Delay:
			delay(op.Millis)
		}
	}
	return nil
}

// Stream encodes the program back into its marker delimited form.
func (s Sequence) Stream() []int {
	var out []int
	for _, op := range s {
		switch op := op.(type) {
		case Command:
			out = append(out, Cmd, int(op.Code))
			for _, b := range op.Data {
				out = append(out, int(b))
			}
		case Delay:
			out = append(out, Sleep, op.Millis)
		}
	}
	return append(out, End)
}

// Duration is the total time the program spends in delays.
func (s Sequence) Duration() time.Duration {
	var d time.Duration
	for _, op := range s {
		if op, ok := op.(Delay); ok {
			d += time.Duration(op.Millis) * time.Millisecond
		}
	}
	return d
}

// Run parses stream and replays it. Nothing is emitted when the stream is
// malformed.
func Run(stream []int, emit func(cmd byte, data []byte) error, delay func(ms int)) error {
	seq, err := Parse(stream)
	if err != nil {
		return err
	}
	return seq.Replay(emit, delay)
}

// SleepMillis blocks the calling goroutine for ms milliseconds. It is the
// delay drivers use by default.
func SleepMillis(ms int) {
	time.Sleep(time.Duration(ms) * time.Millisecond)
}
