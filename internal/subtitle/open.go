package subtitle

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/mgpai22/ccconv/internal/caption"
)

func NewParser(format Format) (Parser, error) {
	switch format {
	case FormatSRT:
		return &SRTParser{}, nil
	case FormatVTT:
		return &VTTParser{}, nil
	case FormatASS:
		return &ASSParser{}, nil
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
}

// entriesToCues interprets entry markup and keeps the result a valid cue
// list: entries with no text or no duration are dropped and the rest are
// put in start order.
func entriesToCues(entries []Entry, parse func(string) []caption.Node) []caption.Cue {
	cues := make([]caption.Cue, 0, len(entries))
	for _, e := range entries {
		cue := caption.Cue{
			Start: e.StartTime.Microseconds(),
			End:   e.EndTime.Microseconds(),
			Nodes: parse(e.Text),
		}
		if cue.IsEmpty() || cue.Start < 0 || cue.End <= cue.Start {
			continue
		}
		cues = append(cues, cue)
	}
	sort.SliceStable(cues, func(i, j int) bool {
		return cues[i].Start < cues[j].Start
	})
	return cues
}

// Read parses a text subtitle stream into a single-language track.
func Read(r io.Reader, format Format, lang string) (*caption.Track, error) {
	parser, err := NewParser(format)
	if err != nil {
		return nil, err
	}
	cues, err := parser.Parse(r)
	if err != nil {
		return nil, err
	}
	track := caption.NewTrack()
	track.Set(lang, cues)
	if err := track.Validate(); err != nil {
		return nil, err
	}
	return track, nil
}

// Open reads a text subtitle file, picking the format from its extension.
func Open(path, lang string) (*caption.Track, error) {
	format, err := GetFormatFromExtension(path)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s file: %w", format, err)
	}
	defer func() {
		_ = file.Close()
	}()

	track, err := Read(file, format, lang)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return track, nil
}

// Save writes the cues of one track language to path.
func Save(path string, format Format, track *caption.Track, lang string) error {
	writer, err := NewWriter(format)
	if err != nil {
		return err
	}
	if err := ensureDir(path); err != nil {
		return err
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s file: %w", format, err)
	}
	if err := writer.Write(file, track.Cues(lang)); err != nil {
		_ = file.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return file.Close()
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	return os.MkdirAll(dir, 0755)
}
