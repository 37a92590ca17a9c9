package langdetect

import (
	"strings"

	"github.com/abadojack/whatlanggo"
	"golang.org/x/text/language"

	"github.com/mgpai22/ccconv/internal/caption"
)

// minimum non-blank characters a cue needs before its vote counts
const minLetters = 12

// Detect votes on the language of each cue and returns the most common one.
// Cues too short to classify reliably do not vote. It returns language.Und
// when no cue could be classified.
func Detect(cues []caption.Cue) language.Tag {
	votes := make(map[string]int)
	var order []string

	for _, cue := range cues {
		text := strings.TrimSpace(strings.ReplaceAll(cue.PlainText(), "\n", " "))
		if visibleLen(text) < minLetters {
			continue
		}
		info := whatlanggo.Detect(text)
		if !info.IsReliable() {
			continue
		}
		code := info.Lang.Iso6391()
		if code == "" {
			continue
		}
		if _, ok := votes[code]; !ok {
			order = append(order, code)
		}
		votes[code]++
	}

	// ties go to the language seen first
	var top string
	for _, code := range order {
		if votes[code] > votes[top] {
			top = code
		}
	}
	if top == "" {
		return language.Und
	}
	return language.Make(top)
}

// DetectTrack renames the track language from to the detected one and
// returns the new key. The track is left alone when nothing is detected or
// when from already names the detected language, region included or not.
func DetectTrack(track *caption.Track, from string) string {
	tag := Detect(track.Cues(from))
	if tag == language.Und {
		return from
	}
	if cur, err := language.Parse(from); err == nil {
		curBase, _ := cur.Base()
		tagBase, _ := tag.Base()
		if curBase == tagBase {
			return from
		}
	}
	to := tag.String()
	track.Rename(from, to)
	return to
}

func visibleLen(s string) int {
	n := 0
	for _, r := range s {
		if r != ' ' && r != '\t' {
			n++
		}
	}
	return n
}
