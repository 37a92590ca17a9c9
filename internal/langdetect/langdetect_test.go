package langdetect

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/text/language"

	"github.com/mgpai22/ccconv/internal/caption"
)

func cues(texts ...string) []caption.Cue {
	out := make([]caption.Cue, len(texts))
	for i, text := range texts {
		out[i] = caption.Cue{
			Start: int64(i) * 1_000_000,
			End:   int64(i+1) * 1_000_000,
			Nodes: caption.NodesFromText(text),
		}
	}
	return out
}

func TestDetectMajority(t *testing.T) {
	got := Detect(cues(
		"Buenos días a todos, hoy vamos a hablar de la historia de nuestra ciudad y de su gente.",
		"Es importante que todos los ciudadanos participen en las decisiones del gobierno local.",
		"The weather is lovely today and we are going for a long walk in the park together.",
	))
	assert.Equal(t, "es", got.String())
}

func TestDetectSkipsShortCues(t *testing.T) {
	got := Detect(cues(
		"Oui.",
		"[MUSIC]",
		"This is a rather long English sentence that should be easy to classify correctly.",
	))
	assert.Equal(t, "en", got.String())
}

func TestDetectNothing(t *testing.T) {
	assert.Equal(t, language.Und, Detect(nil))
	assert.Equal(t, language.Und, Detect(cues("Ok", "Hm")))
}

func TestDetectTrack(t *testing.T) {
	track := caption.NewTrack()
	track.Set(caption.DefaultLanguage, cues(
		"Das ist ein ziemlich langer deutscher Satz, der sich leicht erkennen lassen sollte.",
		"Wir haben heute Abend noch sehr viel Arbeit vor uns und müssen uns beeilen.",
	))

	key := DetectTrack(track, caption.DefaultLanguage)
	assert.Equal(t, "de", key)
	assert.Len(t, track.Cues("de"), 2)
	assert.Empty(t, track.Cues(caption.DefaultLanguage))
}

func TestDetectTrackKeepsKeyWhenUnknown(t *testing.T) {
	track := caption.NewTrack()
	track.Set("und", cues("Ok"))

	assert.Equal(t, "und", DetectTrack(track, "und"))
	assert.Len(t, track.Cues("und"), 1)
}

func TestDetectTrackKeepsRegion(t *testing.T) {
	track := caption.NewTrack()
	track.Set("en-GB", cues(
		"This is a rather long English sentence that should be easy to classify correctly.",
	))

	assert.Equal(t, "en-GB", DetectTrack(track, "en-GB"))
}
