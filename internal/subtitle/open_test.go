package subtitle

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/mgpai22/ccconv/internal/caption"
)

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}
	return path
}

func checkCue(t *testing.T, got caption.Cue, start, end int64, nodes ...caption.Node) {
	t.Helper()
	if got.Start != start || got.End != end {
		t.Errorf("expected %d-%d, got %d-%d", start, end, got.Start, got.End)
	}
	if !reflect.DeepEqual(got.Nodes, nodes) {
		t.Errorf("expected nodes %v, got %v", nodes, got.Nodes)
	}
}

func TestParseSRTFile(t *testing.T) {
	content := `1
00:00:01,000 --> 00:00:04,000
Hello, world!

2
00:00:05,500 --> 00:00:08,200
This is a <i>test</i>.
With multiple lines.

3
00:00:10,000 --> 00:00:12,500
{\an8}Final subtitle.
`
	track, err := Open(writeTemp(t, "test.srt", content), "en-US")
	if err != nil {
		t.Fatalf("failed to open SRT file: %v", err)
	}

	cues := track.Cues("en-US")
	if len(cues) != 3 {
		t.Fatalf("expected 3 cues, got %d", len(cues))
	}

	checkCue(t, cues[0], 1_000_000, 4_000_000, caption.Text("Hello, world!"))
	checkCue(t, cues[1], 5_500_000, 8_200_000,
		caption.Text("This is a "),
		caption.Style(caption.ItalicsOn),
		caption.Text("test"),
		caption.Style(caption.ItalicsOff),
		caption.Text("."),
		caption.LineBreak(),
		caption.Text("With multiple lines."),
	)
	checkCue(t, cues[2], 10_000_000, 12_500_000, caption.Text("Final subtitle."))
}

func TestParseSRTOrdersAndDropsEntries(t *testing.T) {
	content := "\ufeff2\r\n00:00:05,000 --> 00:00:06,000\r\nSecond\r\n\r\n" +
		"1\r\n00:00:01,000 --> 00:00:02,000\r\nFirst\r\n\r\n" +
		"3\r\n00:00:07,000 --> 00:00:07,000\r\nNo duration\r\n\r\n" +
		"00:00:08,000 --> 00:00:09,000\r\nNo index\r\n"

	track, err := Read(strings.NewReader(content), FormatSRT, "en-US")
	if err != nil {
		t.Fatalf("failed to read SRT: %v", err)
	}

	cues := track.Cues("en-US")
	if len(cues) != 3 {
		t.Fatalf("expected 3 cues, got %d", len(cues))
	}
	for i, want := range []string{"First", "Second", "No index"} {
		if cues[i].PlainText() != want {
			t.Errorf("cue %d: expected %q, got %q", i, want, cues[i].PlainText())
		}
	}
}

func TestParseVTTFile(t *testing.T) {
	content := `WEBVTT
Kind: captions

NOTE this is a comment
spanning two lines

STYLE
::cue { color: yellow }

1
00:00:01.000 --> 00:00:04.000 line:90%
<v Roger>Fish &amp; chips</v>

00:05.500 --> 00:08.200
<i.loud>Shouted</i> &lt;words&gt;
`
	track, err := Open(writeTemp(t, "test.vtt", content), "en-US")
	if err != nil {
		t.Fatalf("failed to open VTT file: %v", err)
	}

	cues := track.Cues("en-US")
	if len(cues) != 2 {
		t.Fatalf("expected 2 cues, got %d", len(cues))
	}

	checkCue(t, cues[0], 1_000_000, 4_000_000, caption.Text("Fish & chips"))
	checkCue(t, cues[1], 5_500_000, 8_200_000,
		caption.Style(caption.ItalicsOn),
		caption.Text("Shouted"),
		caption.Style(caption.ItalicsOff),
		caption.Text(" <words>"),
	)
}

func TestParseVTTRequiresHeader(t *testing.T) {
	_, err := Read(strings.NewReader("00:01.000 --> 00:02.000\nhi\n"), FormatVTT, "en-US")
	if err == nil {
		t.Fatal("expected error for missing header")
	}
}

func TestParseASSFile(t *testing.T) {
	content := `[Script Info]
Title: Test Subtitles
ScriptType: v4.00+

[V4+ Styles]
Format: Name, Fontname, Fontsize, PrimaryColour, SecondaryColour, OutlineColour, BackColour, Bold, Italic, Underline, StrikeOut, ScaleX, ScaleY, Spacing, Angle, BorderStyle, Outline, Shadow, Alignment, MarginL, MarginR, MarginV, Encoding
Style: Default,Arial,20,&H00FFFFFF,&H000000FF,&H00000000,&H00000000,0,0,0,0,100,100,0,0,1,2,2,2,10,10,10,1

[Events]
Format: Layer, Start, End, Style, Name, MarginL, MarginR, MarginV, Effect, Text
Dialogue: 0,0:00:01.00,0:00:04.00,Default,,0,0,0,,Hello, world!
Dialogue: 0,0:00:05.50,0:00:08.20,Default,,0,0,0,,{\pos(100,200)}This has positioning.
Comment: 0,0:00:06.00,0:00:07.00,Default,,0,0,0,,not shown
Dialogue: 0,0:00:10.00,0:00:12.50,Default,,0,0,0,,Line with\Nnewline {\i1}slanted{\i0}.
`
	track, err := Open(writeTemp(t, "test.ass", content), "en-US")
	if err != nil {
		t.Fatalf("failed to open ASS file: %v", err)
	}

	cues := track.Cues("en-US")
	if len(cues) != 3 {
		t.Fatalf("expected 3 cues, got %d", len(cues))
	}

	checkCue(t, cues[0], 1_000_000, 4_000_000, caption.Text("Hello, world!"))
	// position overrides have no cue equivalent and are dropped
	checkCue(t, cues[1], 5_500_000, 8_200_000, caption.Text("This has positioning."))
	checkCue(t, cues[2], 10_000_000, 12_500_000,
		caption.Text("Line with"),
		caption.LineBreak(),
		caption.Text("newline "),
		caption.Style(caption.ItalicsOn),
		caption.Text("slanted"),
		caption.Style(caption.ItalicsOff),
		caption.Text("."),
	)
}

func TestParseASSMissingFormat(t *testing.T) {
	content := "[Events]\nDialogue: 0,0:00:01.00,0:00:04.00,Default,,0,0,0,,Hello\n"
	if _, err := Read(strings.NewReader(content), FormatASS, "en-US"); err == nil {
		t.Fatal("expected error for dialogue before Format line")
	}
}

func TestParseTagged(t *testing.T) {
	tests := []struct {
		input string
		want  []caption.Node
	}{
		{
			input: "Hello world",
			want:  []caption.Node{caption.Text("Hello world")},
		},
		{
			input: "{\\an8}<b>Bold</b> is dropped",
			want:  []caption.Node{caption.Text("Bold is dropped")},
		},
		{
			input: "<i><i>double</i> open",
			want: []caption.Node{
				caption.Style(caption.ItalicsOn),
				caption.Text("double"),
				caption.Style(caption.ItalicsOff),
				caption.Text(" open"),
			},
		},
		{
			input: "<u>never closed",
			want: []caption.Node{
				caption.Style(caption.UnderlineOn),
				caption.Text("never closed"),
				caption.Style(caption.UnderlineOff),
			},
		},
		{
			input: "1 < 2 {braces}",
			want:  []caption.Node{caption.Text("1 < 2 {braces}")},
		},
		{
			input: "<i>a < b & c</i>",
			want: []caption.Node{
				caption.Style(caption.ItalicsOn),
				caption.Text("a < b & c"),
				caption.Style(caption.ItalicsOff),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := parseTagged(tt.input, false)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestOpenUnsupportedFormat(t *testing.T) {
	_, err := Open(writeTemp(t, "test.txt", "test"), "en-US")
	if err == nil {
		t.Fatal("expected error for unsupported format")
	}
	if !strings.Contains(err.Error(), "unsupported") {
		t.Errorf("expected 'unsupported' in error, got: %v", err)
	}
}

func TestGetFormatFromExtension(t *testing.T) {
	tests := map[string]Format{
		"a.srt":       FormatSRT,
		"dir/b.VTT":   FormatVTT,
		"c.ssa":       FormatASS,
		"d.ass":       FormatASS,
		"show.en.scc": FormatSCC,
	}
	for path, want := range tests {
		got, err := GetFormatFromExtension(path)
		if err != nil {
			t.Errorf("%s: unexpected error: %v", path, err)
			continue
		}
		if got != want {
			t.Errorf("%s: expected %s, got %s", path, want, got)
		}
	}
	if _, err := GetFormatFromExtension("noext"); err == nil {
		t.Error("expected error for path without extension")
	}
}
