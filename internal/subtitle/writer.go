package subtitle

import (
	"bufio"
	"fmt"
	"io"
	"time"

	"github.com/mgpai22/ccconv/internal/caption"
)

// SubRip format
type SRTWriter struct{}

// WebVTT format
type VTTWriter struct{}

// Advanced SubStation Alpha format
type ASSWriter struct {
	Title    string
	FontName string
	FontSize int
}

func NewWriter(format Format) (Writer, error) {
	switch format {
	case FormatSRT:
		return &SRTWriter{}, nil
	case FormatVTT:
		return &VTTWriter{}, nil
	case FormatASS:
		return &ASSWriter{
			Title:    "ccconv",
			FontName: "Arial",
			FontSize: 20,
		}, nil
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
}

// writes cues as SubRip; cues without text are skipped
func (w *SRTWriter) Write(out io.Writer, cues []caption.Cue) error {
	bw := bufio.NewWriter(out)

	index := 0
	for _, cue := range cues {
		if cue.IsEmpty() {
			continue
		}
		index++

		// index (1-based)
		fmt.Fprintf(bw, "%d\n", index)

		// timestamps: 00:00:00,000 --> 00:00:00,000
		fmt.Fprintf(bw, "%s --> %s\n",
			formatSRTTime(cue.StartTime()),
			formatSRTTime(cue.EndTime()))

		// text
		bw.WriteString(render(cue.Nodes, srtMarkup))
		bw.WriteString("\n\n")
	}

	return bw.Flush()
}

// writes cues as WebVTT; cues without text are skipped
func (w *VTTWriter) Write(out io.Writer, cues []caption.Cue) error {
	bw := bufio.NewWriter(out)

	// VTT header
	bw.WriteString("WEBVTT\n\n")

	index := 0
	for _, cue := range cues {
		if cue.IsEmpty() {
			continue
		}
		index++

		// optional cue identifier
		fmt.Fprintf(bw, "%d\n", index)

		// timestamps: 00:00:00.000 --> 00:00:00.000
		fmt.Fprintf(bw, "%s --> %s\n",
			formatVTTTime(cue.StartTime()),
			formatVTTTime(cue.EndTime()))

		// text
		bw.WriteString(render(cue.Nodes, vttMarkup))
		bw.WriteString("\n\n")
	}

	return bw.Flush()
}

// writes cues as an ASS script with a single default style
func (w *ASSWriter) Write(out io.Writer, cues []caption.Cue) error {
	bw := bufio.NewWriter(out)

	// script info section
	bw.WriteString("[Script Info]\n")
	fmt.Fprintf(bw, "Title: %s\n", w.Title)
	bw.WriteString("ScriptType: v4.00+\n")
	bw.WriteString("Collisions: Normal\n")
	bw.WriteString("PlayDepth: 0\n\n")

	// v4+ styles section
	bw.WriteString("[V4+ Styles]\n")
	bw.WriteString("Format: Name, Fontname, Fontsize, PrimaryColour, SecondaryColour, OutlineColour, BackColour, Bold, Italic, Underline, StrikeOut, ScaleX, ScaleY, Spacing, Angle, BorderStyle, Outline, Shadow, Alignment, MarginL, MarginR, MarginV, Encoding\n")
	fmt.Fprintf(bw, "Style: Default,%s,%d,&H00FFFFFF,&H000000FF,&H00000000,&H00000000,0,0,0,0,100,100,0,0,1,2,2,2,10,10,10,1\n\n",
		w.FontName, w.FontSize)

	// events section
	bw.WriteString("[Events]\n")
	bw.WriteString("Format: Layer, Start, End, Style, Name, MarginL, MarginR, MarginV, Effect, Text\n")

	for _, cue := range cues {
		if cue.IsEmpty() {
			continue
		}
		// dialogue line
		fmt.Fprintf(bw, "Dialogue: 0,%s,%s,Default,,0,0,0,,%s\n",
			formatASSTime(cue.StartTime()),
			formatASSTime(cue.EndTime()),
			render(cue.Nodes, assMarkup))
	}

	return bw.Flush()
}

func formatSRTTime(d time.Duration) string {
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60
	millis := int(d.Milliseconds()) % 1000

	return fmt.Sprintf("%02d:%02d:%02d,%03d", hours, minutes, seconds, millis)
}

func formatVTTTime(d time.Duration) string {
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60
	millis := int(d.Milliseconds()) % 1000

	return fmt.Sprintf("%02d:%02d:%02d.%03d", hours, minutes, seconds, millis)
}

func formatASSTime(d time.Duration) string {
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60
	centis := (int(d.Milliseconds()) % 1000) / 10

	return fmt.Sprintf("%d:%02d:%02d.%02d", hours, minutes, seconds, centis)
}
