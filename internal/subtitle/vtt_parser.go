package subtitle

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/mgpai22/ccconv/internal/caption"
)

var (
	vttTimestampRegex = regexp.MustCompile(
		`(\d{2,}):(\d{2}):(\d{2})\.(\d{3})\s*-->\s*(\d{2,}):(\d{2}):(\d{2})\.(\d{3})`,
	)
	vttShortTimestampRegex = regexp.MustCompile(
		`^(\d{2}):(\d{2})\.(\d{3})\s*-->\s*(\d{2}):(\d{2})\.(\d{3})`,
	)
)

// WebVTT format
type VTTParser struct{}

func (p *VTTParser) Parse(r io.Reader) ([]caption.Cue, error) {
	entries, err := parseVTTEntries(r)
	if err != nil {
		return nil, err
	}
	return entriesToCues(entries, func(text string) []caption.Node {
		return parseTagged(text, true)
	}), nil
}

func parseVTTEntries(r io.Reader) ([]Entry, error) {
	var entries []Entry
	scanner := bufio.NewScanner(r)

	var currentEntry *Entry
	var textLines []string
	lineNum := 0
	headerParsed := false
	entryIndex := 0

	finish := func() {
		if currentEntry != nil && len(textLines) > 0 {
			currentEntry.Text = strings.Join(textLines, "\n")
			entries = append(entries, *currentEntry)
		}
		currentEntry = nil
		textLines = nil
	}

	skipBlock := func() {
		for scanner.Scan() {
			lineNum++
			if strings.TrimSpace(scanner.Text()) == "" {
				break
			}
		}
	}

	for scanner.Scan() {
		line := scanner.Text()
		lineNum++

		if lineNum == 1 {
			line = strings.TrimPrefix(line, "\ufeff")
		}
		line = strings.TrimSuffix(line, "\r")
		trimmed := strings.TrimSpace(line)

		if !headerParsed {
			if !strings.HasPrefix(trimmed, "WEBVTT") {
				return nil, fmt.Errorf("missing WEBVTT header at line %d", lineNum)
			}
			headerParsed = true
			skipBlock()
			continue
		}

		if currentEntry == nil &&
			(strings.HasPrefix(trimmed, "NOTE") ||
				strings.HasPrefix(trimmed, "STYLE") ||
				strings.HasPrefix(trimmed, "REGION")) {
			skipBlock()
			continue
		}

		if trimmed == "" {
			finish()
			continue
		}

		if currentEntry == nil || len(textLines) == 0 {
			start, end, ok, err := parseVTTTiming(line)
			if err != nil {
				return nil, fmt.Errorf("invalid timestamp at line %d: %w", lineNum, err)
			}
			if ok {
				entryIndex++
				currentEntry = &Entry{
					Index:     entryIndex,
					StartTime: start,
					EndTime:   end,
				}
				continue
			}
			if currentEntry == nil {
				// cue identifier
				continue
			}
		}

		textLines = append(textLines, line)
	}
	finish()

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading VTT file: %w", err)
	}
	if !headerParsed {
		return nil, fmt.Errorf("missing WEBVTT header")
	}

	return entries, nil
}

// parseVTTTiming reads a cue timing line; cue settings after the end time
// are ignored.
func parseVTTTiming(line string) (time.Duration, time.Duration, bool, error) {
	if m := vttTimestampRegex.FindStringSubmatch(line); len(m) == 9 {
		start, err := parseVTTTimestamp(m[1], m[2], m[3], m[4])
		if err != nil {
			return 0, 0, false, err
		}
		end, err := parseVTTTimestamp(m[5], m[6], m[7], m[8])
		if err != nil {
			return 0, 0, false, err
		}
		return start, end, true, nil
	}
	if m := vttShortTimestampRegex.FindStringSubmatch(line); len(m) == 7 {
		start, err := parseVTTTimestamp("00", m[1], m[2], m[3])
		if err != nil {
			return 0, 0, false, err
		}
		end, err := parseVTTTimestamp("00", m[4], m[5], m[6])
		if err != nil {
			return 0, 0, false, err
		}
		return start, end, true, nil
	}
	return 0, 0, false, nil
}

func parseVTTTimestamp(
	hours, minutes, seconds, millis string,
) (time.Duration, error) {
	h, err := strconv.Atoi(hours)
	if err != nil {
		return 0, err
	}
	m, err := strconv.Atoi(minutes)
	if err != nil {
		return 0, err
	}
	s, err := strconv.Atoi(seconds)
	if err != nil {
		return 0, err
	}
	ms, err := strconv.Atoi(millis)
	if err != nil {
		return 0, err
	}
	if m >= 60 || s >= 60 {
		return 0, fmt.Errorf("%02d:%02d:%02d is out of range", h, m, s)
	}

	return time.Duration(h)*time.Hour +
		time.Duration(m)*time.Minute +
		time.Duration(s)*time.Second +
		time.Duration(ms)*time.Millisecond, nil
}
