package scc

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mgpai22/ccconv/internal/timecode"
)

var (
	// terminal: the stream cannot produce any output
	ErrMalformedHeader = errors.New("malformed scc header")
	ErrEmptyStream     = errors.New("no caption events in stream")

	// recoverable, reported as diagnostics
	ErrMalformedCommandToken = errors.New("malformed command token")
	ErrInvalidModeTransition = errors.New("invalid mode transition")
	ErrUnsupportedPosition   = errors.New("unsupported position")
	ErrUnsupportedCharacter  = errors.New("unsupported character")
	ErrOverrun               = errors.New("caption event overrun")
	ErrLineWrapped           = errors.New("line wrapped")
)

// Diagnostic is a non-fatal condition found while decoding or encoding.
// Line is the 1-based stream line (decoder) and Cue the cue index (encoder);
// unused fields are -1.
type Diagnostic struct {
	Line  int
	Cue   int
	Frame timecode.Frame
	Word  string
	Err   error
}

func (d Diagnostic) Error() string {
	var parts []string
	if d.Line >= 0 {
		parts = append(parts, fmt.Sprintf("line %d", d.Line))
	}
	if d.Cue >= 0 {
		parts = append(parts, fmt.Sprintf("cue %d", d.Cue))
	}
	if d.Frame >= 0 {
		parts = append(parts, timecode.FromFrame(d.Frame).String())
	}
	if d.Word != "" {
		parts = append(parts, d.Word)
	}
	if len(parts) == 0 {
		return d.Err.Error()
	}
	return fmt.Sprintf("%s: %v", strings.Join(parts, " "), d.Err)
}

func (d Diagnostic) Unwrap() error {
	return d.Err
}

type Diagnostics []Diagnostic

// Err joins every diagnostic into one error, or nil when there are none.
func (ds Diagnostics) Err() error {
	if len(ds) == 0 {
		return nil
	}
	errs := make([]error, len(ds))
	for i, d := range ds {
		errs[i] = d
	}
	return errors.Join(errs...)
}

// Count returns how many diagnostics match target with errors.Is.
func (ds Diagnostics) Count(target error) int {
	n := 0
	for _, d := range ds {
		if errors.Is(d.Err, target) {
			n++
		}
	}
	return n
}

func lineDiagnostic(line int, frame timecode.Frame, word string, err error) Diagnostic {
	return Diagnostic{Line: line, Cue: -1, Frame: frame, Word: word, Err: err}
}

func cueDiagnostic(cue int, frame timecode.Frame, err error) Diagnostic {
	return Diagnostic{Line: -1, Cue: cue, Frame: frame, Err: err}
}
