package subtitle

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/mgpai22/ccconv/internal/caption"
)

// parsed Dialogue line, Text field kept raw
type ASSDialogue struct {
	FieldsBefore []string
	Text         string
}

// Advanced SubStation Alpha and SSA format
type ASSParser struct{}

// events section layout of one file
type assEvents struct {
	formatColumns   []string
	textColumnIndex int
	startIndex      int
	endIndex        int
}

func (p *ASSParser) Parse(r io.Reader) ([]caption.Cue, error) {
	entries, err := parseASSEntries(r)
	if err != nil {
		return nil, err
	}
	return entriesToCues(entries, parseASSText), nil
}

func parseASSEntries(r io.Reader) ([]Entry, error) {
	events := &assEvents{textColumnIndex: -1, startIndex: -1, endIndex: -1}
	var entries []Entry

	scanner := bufio.NewScanner(r)
	inEventsSection := false
	lineNum := 0

	for scanner.Scan() {
		line := scanner.Text()
		lineNum++

		if lineNum == 1 {
			line = strings.TrimPrefix(line, "\ufeff")
		}

		trimmedLine := strings.TrimSpace(line)

		if strings.HasPrefix(trimmedLine, "[") &&
			strings.HasSuffix(trimmedLine, "]") {
			sectionName := strings.ToLower(
				strings.TrimSuffix(strings.TrimPrefix(trimmedLine, "["), "]"),
			)
			inEventsSection = sectionName == "events"
			continue
		}

		if !inEventsSection {
			continue
		}

		if strings.HasPrefix(trimmedLine, "Format:") {
			if err := events.parseFormatLine(trimmedLine); err != nil {
				return nil, err
			}
			continue
		}

		if strings.HasPrefix(trimmedLine, "Dialogue:") {
			dialogue, err := events.parseDialogueLine(trimmedLine)
			if err != nil {
				return nil, fmt.Errorf(
					"failed to parse Dialogue at line %d: %w",
					lineNum,
					err,
				)
			}
			start, end, err := events.dialogueTimes(dialogue)
			if err != nil {
				return nil, fmt.Errorf(
					"invalid Dialogue timing at line %d: %w",
					lineNum,
					err,
				)
			}
			entries = append(entries, Entry{
				Index:     len(entries) + 1,
				StartTime: start,
				EndTime:   end,
				Text:      dialogue.Text,
			})
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading ASS file: %w", err)
	}

	if events.formatColumns == nil {
		return nil, fmt.Errorf(
			"ASS file missing Format line in [Events] section",
		)
	}

	return entries, nil
}

func (e *assEvents) parseFormatLine(line string) error {
	formatPart := strings.TrimPrefix(line, "Format:")
	columns := strings.Split(formatPart, ",")
	for i, col := range columns {
		columns[i] = strings.TrimSpace(col)
	}
	e.formatColumns = columns
	e.textColumnIndex, e.startIndex, e.endIndex = -1, -1, -1
	for i, col := range columns {
		switch strings.ToLower(col) {
		case "text":
			e.textColumnIndex = i
		case "start":
			e.startIndex = i
		case "end":
			e.endIndex = i
		}
	}
	if e.textColumnIndex == -1 {
		return fmt.Errorf("ASS file missing Text column in Format line")
	}
	if e.startIndex == -1 || e.endIndex == -1 {
		return fmt.Errorf("ASS file missing Start or End column in Format line")
	}
	if e.startIndex > e.textColumnIndex || e.endIndex > e.textColumnIndex {
		return fmt.Errorf("ASS Format line has timing columns after Text")
	}
	return nil
}

func (e *assEvents) parseDialogueLine(line string) (ASSDialogue, error) {
	var dialogue ASSDialogue

	content := strings.TrimPrefix(line, "Dialogue:")
	content = strings.TrimSpace(content)

	numColumns := len(e.formatColumns)
	if numColumns == 0 {
		return dialogue, fmt.Errorf("format columns not parsed yet")
	}

	parts := splitASSFields(content, numColumns)
	if len(parts) < numColumns {
		return dialogue, fmt.Errorf(
			"expected %d fields, got %d",
			numColumns,
			len(parts),
		)
	}

	dialogue.FieldsBefore = parts[:e.textColumnIndex]
	dialogue.Text = parts[e.textColumnIndex]

	return dialogue, nil
}

// splitASSFields splits on the first numFields-1 commas; the last field
// (Text) may itself contain commas.
func splitASSFields(content string, numFields int) []string {
	if numFields <= 0 {
		return nil
	}

	parts := make([]string, 0, numFields)
	remaining := content

	for i := 0; i < numFields-1; i++ {
		idx := strings.Index(remaining, ",")
		if idx == -1 {
			parts = append(parts, remaining)
			remaining = ""
			break
		}
		parts = append(parts, remaining[:idx])
		remaining = remaining[idx+1:]
	}

	parts = append(parts, remaining)

	return parts
}

func (e *assEvents) dialogueTimes(
	d ASSDialogue,
) (time.Duration, time.Duration, error) {
	start, err := parseASSTimestamp(d.FieldsBefore[e.startIndex])
	if err != nil {
		return 0, 0, err
	}
	end, err := parseASSTimestamp(d.FieldsBefore[e.endIndex])
	if err != nil {
		return 0, 0, err
	}
	return start, end, nil
}

// parseASSTimestamp reads H:MM:SS.cc
func parseASSTimestamp(ts string) (time.Duration, error) {
	ts = strings.TrimSpace(ts)
	parts := strings.Split(ts, ":")
	if len(parts) != 3 {
		return 0, fmt.Errorf("malformed timestamp %q", ts)
	}

	hours, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("malformed timestamp %q", ts)
	}

	minutes, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("malformed timestamp %q", ts)
	}

	// split seconds and centiseconds
	secParts := strings.Split(parts[2], ".")
	if len(secParts) != 2 {
		return 0, fmt.Errorf("malformed timestamp %q", ts)
	}

	seconds, err := strconv.Atoi(secParts[0])
	if err != nil {
		return 0, fmt.Errorf("malformed timestamp %q", ts)
	}

	centis, err := strconv.Atoi(secParts[1])
	if err != nil {
		return 0, fmt.Errorf("malformed timestamp %q", ts)
	}

	return time.Duration(hours)*time.Hour +
		time.Duration(minutes)*time.Minute +
		time.Duration(seconds)*time.Second +
		time.Duration(centis)*10*time.Millisecond, nil
}
