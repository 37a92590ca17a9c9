package caption

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cues    []Cue
		wantErr bool
		index   int
	}{
		{
			name: "ordered",
			cues: []Cue{
				{Start: 0, End: 1_000_000},
				{Start: 1_000_000, End: 2_000_000},
				{Start: 1_000_000, End: 3_000_000},
			},
		},
		{
			name:    "zero duration",
			cues:    []Cue{{Start: 5, End: 5}},
			wantErr: true,
		},
		{
			name:    "negative duration",
			cues:    []Cue{{Start: 0, End: 10}, {Start: 20, End: 15}},
			wantErr: true,
			index:   1,
		},
		{
			name:    "negative start",
			cues:    []Cue{{Start: -1, End: 15}},
			wantErr: true,
		},
		{
			name: "start goes backwards",
			cues: []Cue{
				{Start: 100, End: 200},
				{Start: 300, End: 400},
				{Start: 250, End: 500},
			},
			wantErr: true,
			index:   2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			track := NewTrack()
			track.Set("en-US", tt.cues)

			err := track.Validate()
			if !tt.wantErr {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidCueTiming))

			var timingErr *TimingError
			require.ErrorAs(t, err, &timingErr)
			assert.Equal(t, "en-US", timingErr.Language)
			assert.Equal(t, tt.index, timingErr.Index)
		})
	}
}

func TestValidateChecksEveryLanguage(t *testing.T) {
	track := NewTrack()
	track.Set("en-US", []Cue{{Start: 0, End: 10}})
	track.Set("es", []Cue{{Start: 10, End: 0}})

	var timingErr *TimingError
	require.ErrorAs(t, track.Validate(), &timingErr)
	assert.Equal(t, "es", timingErr.Language)
}

func TestNodesFromText(t *testing.T) {
	nodes := NodesFromText("Hello\nworld")
	assert.Equal(t, []Node{Text("Hello"), LineBreak(), Text("world")}, nodes)

	assert.Equal(t, []Node{Text("one line")}, NodesFromText("one line"))
}

func TestCueHelpers(t *testing.T) {
	cue := Cue{
		Start: 1_500_000,
		End:   2_000_000,
		Nodes: []Node{
			Position(14, 4),
			Style(ItalicsOn),
			Text("Hi"),
			Style(ItalicsOff),
			LineBreak(),
			Text("there"),
		},
	}

	assert.Equal(t, "Hi\nthere", cue.PlainText())
	assert.False(t, cue.IsEmpty())
	assert.Equal(t, int64(500_000), cue.Duration())
	assert.Equal(t, "1.5s", cue.StartTime().String())

	assert.True(t, Cue{Nodes: []Node{LineBreak(), Style(ItalicsOn)}}.IsEmpty())
}

func TestTrackLanguagesSortedAndRename(t *testing.T) {
	track := NewTrack()
	track.Append("fr", Cue{Start: 0, End: 1})
	track.Append("en-US", Cue{Start: 0, End: 1})
	track.Append("en-US", Cue{Start: 1, End: 2})

	assert.Equal(t, []string{"en-US", "fr"}, track.Languages())
	assert.Equal(t, 3, track.Len())

	track.Rename("en-US", "en")
	assert.Equal(t, []string{"en", "fr"}, track.Languages())
	assert.Len(t, track.Cues("en"), 2)
	assert.Nil(t, track.Cues("en-US"))

	var nilTrack *Track
	assert.True(t, nilTrack.IsEmpty())
}
