// Package timecode converts between frame counts, microseconds and printed
// drop-frame timecodes at the 30000/1001 broadcast rate.
//
// All arithmetic is integer only so long tracks do not drift.
package timecode

import (
	"errors"
	"fmt"
	"strings"
)

const (
	// nominal frames per second used for timecode numbering
	FramesPerSecond = 30

	// microseconds per frame expressed as a fraction: 1_001_000 / 30
	usPerFrameNum = 1_001_000
	usPerFrameDen = FramesPerSecond

	framesPerMinute     = 60 * FramesPerSecond
	framesPerHour       = 60 * framesPerMinute
	droppedPerMinute    = 2
	framesPerDropMinute = framesPerMinute - droppedPerMinute
	framesPerTenMinutes = 10*framesPerMinute - 9*droppedPerMinute
	maxPrintableHours   = 99
)

var ErrMalformedTimecode = errors.New("malformed timecode")

// Frame counts frames since 00:00:00:00.
type Frame = int64

// FramesToMicroseconds returns round(frame * 1,001,000 / 30).
func FramesToMicroseconds(frame Frame) int64 {
	return divRound(frame*usPerFrameNum, usPerFrameDen)
}

// MicrosecondsToFrames is the rounding inverse of FramesToMicroseconds.
func MicrosecondsToFrames(us int64) Frame {
	return divRound(us*usPerFrameDen, usPerFrameNum)
}

// divRound divides rounding half away from zero.
func divRound(num, den int64) int64 {
	if num < 0 {
		return -((-num + den/2) / den)
	}
	return (num + den/2) / den
}

// Timecode is a printed HH:MM:SS:FF position using drop-frame numbering.
type Timecode struct {
	Hours   int
	Minutes int
	Seconds int
	Frames  int
}

// FromFrame numbers a frame count with drop-frame rules: frame numbers 00 and
// 01 are skipped at the start of every minute except each tenth minute.
func FromFrame(frame Frame) Timecode {
	if frame < 0 {
		frame = 0
	}
	tens := frame / framesPerTenMinutes
	rem := frame % framesPerTenMinutes

	skipped := droppedPerMinute * 9 * tens
	if rem >= droppedPerMinute {
		skipped += droppedPerMinute * ((rem - droppedPerMinute) / framesPerDropMinute)
	}
	n := frame + skipped

	return Timecode{
		Hours:   int(n / framesPerHour),
		Minutes: int(n/framesPerMinute) % 60,
		Seconds: int(n/FramesPerSecond) % 60,
		Frames:  int(n % FramesPerSecond),
	}
}

// Frame converts the printed timecode back into a frame count, removing the
// frame numbers that drop-frame numbering skipped.
func (tc Timecode) Frame() Frame {
	totalMinutes := int64(tc.Hours)*60 + int64(tc.Minutes)
	n := int64(tc.Hours)*framesPerHour +
		int64(tc.Minutes)*framesPerMinute +
		int64(tc.Seconds)*FramesPerSecond +
		int64(tc.Frames)
	return n - droppedPerMinute*(totalMinutes-totalMinutes/10)
}

// Microseconds is shorthand for FramesToMicroseconds(tc.Frame()).
func (tc Timecode) Microseconds() int64 {
	return FramesToMicroseconds(tc.Frame())
}

// Validate reports ErrMalformedTimecode for out of range fields and for frame
// numbers that drop-frame numbering never prints.
func (tc Timecode) Validate() error {
	switch {
	case tc.Hours < 0 || tc.Hours > maxPrintableHours:
		return fmt.Errorf("%w: hours %d out of range", ErrMalformedTimecode, tc.Hours)
	case tc.Minutes < 0 || tc.Minutes >= 60:
		return fmt.Errorf("%w: minutes %d out of range", ErrMalformedTimecode, tc.Minutes)
	case tc.Seconds < 0 || tc.Seconds >= 60:
		return fmt.Errorf("%w: seconds %d out of range", ErrMalformedTimecode, tc.Seconds)
	case tc.Frames < 0 || tc.Frames >= FramesPerSecond:
		return fmt.Errorf("%w: frames %d out of range", ErrMalformedTimecode, tc.Frames)
	case tc.Seconds == 0 && tc.Frames < droppedPerMinute && tc.Minutes%10 != 0:
		return fmt.Errorf(
			"%w: frame %02d is dropped at minute %d",
			ErrMalformedTimecode,
			tc.Frames,
			tc.Minutes,
		)
	}
	return nil
}

func (tc Timecode) String() string {
	return fmt.Sprintf("%02d:%02d:%02d:%02d", tc.Hours, tc.Minutes, tc.Seconds, tc.Frames)
}

// Parse reads HH:MM:SS:FF. The separator before the frame field may also be
// ';' or '.', which some tools use to flag drop-frame numbering.
func Parse(s string) (Timecode, error) {
	s = strings.TrimSpace(s)
	if len(s) < 11 {
		return Timecode{}, fmt.Errorf("%w: %q", ErrMalformedTimecode, s)
	}

	sep := strings.LastIndexAny(s, ":;.")
	if sep < 0 {
		return Timecode{}, fmt.Errorf("%w: %q", ErrMalformedTimecode, s)
	}
	head := strings.Split(s[:sep], ":")
	if len(head) != 3 {
		return Timecode{}, fmt.Errorf("%w: %q", ErrMalformedTimecode, s)
	}

	fields := append(head, s[sep+1:])
	values := make([]int, len(fields))
	for i, f := range fields {
		if len(f) != 2 || !isDigit(f[0]) || !isDigit(f[1]) {
			return Timecode{}, fmt.Errorf("%w: %q", ErrMalformedTimecode, s)
		}
		values[i] = int(f[0]-'0')*10 + int(f[1]-'0')
	}

	tc := Timecode{
		Hours:   values[0],
		Minutes: values[1],
		Seconds: values[2],
		Frames:  values[3],
	}
	if err := tc.Validate(); err != nil {
		return Timecode{}, err
	}
	return tc, nil
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

// ParseFrame parses a printed timecode straight into a frame count.
func ParseFrame(s string) (Frame, error) {
	tc, err := Parse(s)
	if err != nil {
		return 0, err
	}
	return tc.Frame(), nil
}
