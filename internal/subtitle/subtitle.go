package subtitle

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/mgpai22/ccconv/internal/caption"
)

// represents single subtitle entry as read from a file, markup still in Text
type Entry struct {
	Index     int
	StartTime time.Duration
	EndTime   time.Duration
	Text      string
}

// represents supported subtitle formats
type Format string

const (
	FormatSRT Format = "srt"
	FormatVTT Format = "vtt"
	FormatASS Format = "ass"
	FormatSCC Format = "scc"
)

// interface for parsing subtitle text into cues
type Parser interface {
	Parse(r io.Reader) ([]caption.Cue, error)
}

// interface for writing cues as subtitle text
type Writer interface {
	Write(w io.Writer, cues []caption.Cue) error
}

func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimPrefix(s, "."))); f {
	case FormatSRT, FormatVTT, FormatASS, FormatSCC:
		return f, nil
	case "ssa":
		return FormatASS, nil
	default:
		return "", fmt.Errorf("unsupported subtitle format: %s", s)
	}
}

// subtitle format based on file extension
func GetFormatFromExtension(path string) (Format, error) {
	ext := filepath.Ext(path)
	if ext == "" {
		return "", fmt.Errorf("unsupported subtitle format: %s has no extension", path)
	}
	return ParseFormat(ext)
}

// file extension for a format
func GetExtensionForFormat(format Format) string {
	switch format {
	case FormatVTT:
		return ".vtt"
	case FormatASS:
		return ".ass"
	case FormatSCC:
		return ".scc"
	default:
		return ".srt"
	}
}
