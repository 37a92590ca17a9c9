package caption

import (
	"errors"
	"fmt"
)

var ErrInvalidCueTiming = errors.New("invalid cue timing")

// TimingError pinpoints the cue that broke a timing invariant.
type TimingError struct {
	Language string
	Index    int
	Start    int64
	End      int64
	Reason   string
}

func (e *TimingError) Error() string {
	return fmt.Sprintf(
		"%s: language %q cue %d (%d-%d us): %s",
		ErrInvalidCueTiming,
		e.Language,
		e.Index,
		e.Start,
		e.End,
		e.Reason,
	)
}

func (e *TimingError) Unwrap() error {
	return ErrInvalidCueTiming
}

// Validate checks that every cue has 0 <= start < end and that starts never
// decrease within a language. The first violation is returned.
func (t *Track) Validate() error {
	for _, lang := range t.Languages() {
		var prevStart int64
		for i, cue := range t.cues[lang] {
			timingErr := &TimingError{
				Language: lang,
				Index:    i,
				Start:    cue.Start,
				End:      cue.End,
			}
			switch {
			case cue.Start < 0:
				timingErr.Reason = "negative start"
				return timingErr
			case cue.Start >= cue.End:
				timingErr.Reason = "start not before end"
				return timingErr
			case i > 0 && cue.Start < prevStart:
				timingErr.Reason = fmt.Sprintf(
					"starts before previous cue (%d us)",
					prevStart,
				)
				return timingErr
			}
			prevStart = cue.Start
		}
	}
	return nil
}
