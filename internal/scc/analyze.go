package scc

import (
	"fmt"
	"strings"

	"github.com/mgpai22/ccconv/internal/timecode"
)

// LineReport describes the transmission of one event line.
type LineReport struct {
	Line  int
	Frame timecode.Frame
	// number of words, which is also the number of frames the line takes
	Cost int64
	// frames the line is still sending after the next line is due
	Overrun int64
}

// Done is the first frame after the line has been sent.
func (l LineReport) Done() timecode.Frame {
	return l.Frame + l.Cost
}

type Report struct {
	Lines []LineReport
	// lines whose timecode could not be parsed
	Skipped int
}

// Overruns returns the lines that collide with the line after them.
func (r Report) Overruns() []LineReport {
	var out []LineReport
	for _, l := range r.Lines {
		if l.Overrun > 0 {
			out = append(out, l)
		}
	}
	return out
}

// Analyze measures every event line of a stream against the next one
// without interpreting caption content.
func Analyze(data []byte) (Report, error) {
	text := strings.TrimPrefix(string(data), "\ufeff")
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")

	var report Report
	headerSeen := false
	for i, line := range lines {
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		if !headerSeen {
			if strings.TrimSpace(line) != Header {
				return Report{}, fmt.Errorf("%w: %q", ErrMalformedHeader, strings.TrimSpace(line))
			}
			headerSeen = true
			continue
		}
		frame, err := timecode.ParseFrame(fields[0])
		if err != nil {
			report.Skipped++
			continue
		}
		report.Lines = append(report.Lines, LineReport{
			Line:  i + 1,
			Frame: frame,
			Cost:  int64(len(fields) - 1),
		})
	}
	if !headerSeen {
		return Report{}, fmt.Errorf("%w: empty input", ErrMalformedHeader)
	}
	if len(report.Lines) == 0 {
		return report, ErrEmptyStream
	}

	for i := 0; i+1 < len(report.Lines); i++ {
		if over := report.Lines[i].Done() - report.Lines[i+1].Frame; over > 0 {
			report.Lines[i].Overrun = over
		}
	}
	return report, nil
}
