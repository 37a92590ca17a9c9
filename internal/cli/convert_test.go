package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mgpai22/ccconv/internal/caption"
	"github.com/mgpai22/ccconv/internal/logging"
	"github.com/mgpai22/ccconv/internal/scc"
	"github.com/mgpai22/ccconv/internal/subtitle"
)

const sampleSRT = "1\n00:00:02,000 --> 00:00:04,000\nHello <i>there</i>\n\n" +
	"2\n00:00:05,000 --> 00:00:07,500\nTwo lines\nof caption text\n"

func writeInput(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write input: %v", err)
	}
	return path
}

func defaultOptions(format subtitle.Format) convertOptions {
	return convertOptions{
		Format:   format,
		Language: caption.DefaultLanguage,
		Channel:  1,
	}
}

func TestOutputPaths(t *testing.T) {
	tests := []struct {
		name    string
		inputs  []string
		output  string
		format  subtitle.Format
		want    []string
		wantErr bool
	}{
		{
			name:   "next to input",
			inputs: []string{filepath.Join("in", "show.scc")},
			format: subtitle.FormatSRT,
			want:   []string{filepath.Join("in", "show.srt")},
		},
		{
			name:   "explicit file",
			inputs: []string{"show.scc"},
			output: "out.vtt",
			format: subtitle.FormatVTT,
			want:   []string{"out.vtt"},
		},
		{
			name:   "directory for several inputs",
			inputs: []string{"a.srt", filepath.Join("x", "b.vtt")},
			output: "out",
			format: subtitle.FormatSCC,
			want:   []string{filepath.Join("out", "a.scc"), filepath.Join("out", "b.scc")},
		},
		{
			name:    "same format overwrites input",
			inputs:  []string{"show.srt"},
			format:  subtitle.FormatSRT,
			wantErr: true,
		},
		{
			name:    "two inputs with the same base name",
			inputs:  []string{filepath.Join("a", "show.srt"), filepath.Join("b", "show.vtt")},
			output:  "out",
			format:  subtitle.FormatSCC,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := outputPaths(tt.inputs, tt.output, tt.format)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("expected %d paths, got %d", len(tt.want), len(got))
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("path %d: expected %s, got %s", i, tt.want[i], got[i])
				}
			}
		})
	}
}

func TestConvertSRTToSCCAndBack(t *testing.T) {
	dir := t.TempDir()
	input := writeInput(t, dir, "show.srt", sampleSRT)
	sccPath := filepath.Join(dir, "show.scc")

	results, err := convertFiles(context.Background(),
		[]string{input}, []string{sccPath}, defaultOptions(subtitle.FormatSCC), logging.Nop())
	if err != nil {
		t.Fatalf("convert to scc failed: %v", err)
	}
	if results[0].Cues != 2 || len(results[0].Diagnostics) != 0 {
		t.Fatalf("unexpected result: %+v", results[0])
	}

	data, err := os.ReadFile(sccPath)
	if err != nil {
		t.Fatalf("failed to read scc output: %v", err)
	}
	if !strings.HasPrefix(string(data), scc.Header+"\n\n") {
		t.Errorf("scc output does not start with header: %q", string(data))
	}

	back := filepath.Join(dir, "back", "show.srt")
	if _, err := convertFiles(context.Background(),
		[]string{sccPath}, []string{back}, defaultOptions(subtitle.FormatSRT), logging.Nop()); err != nil {
		t.Fatalf("convert back to srt failed: %v", err)
	}

	got, err := os.ReadFile(back)
	if err != nil {
		t.Fatalf("failed to read srt output: %v", err)
	}
	expected := "1\n00:00:02,002 --> 00:00:04,004\nHello <i>there</i>\n\n" +
		"2\n00:00:05,005 --> 00:00:07,507\nTwo lines\nof caption text\n\n"
	if string(got) != expected {
		t.Errorf("unexpected output:\n%q\nwant:\n%q", string(got), expected)
	}
}

func TestConvertSeveralFiles(t *testing.T) {
	dir := t.TempDir()
	inputs := []string{
		writeInput(t, dir, "a.srt", sampleSRT),
		writeInput(t, dir, "b.srt", sampleSRT),
		writeInput(t, dir, "c.srt", sampleSRT),
	}
	outputs, err := outputPaths(inputs, filepath.Join(dir, "vtt"), subtitle.FormatVTT)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	opts := defaultOptions(subtitle.FormatVTT)
	opts.Concurrency = 2
	results, err := convertFiles(context.Background(), inputs, outputs, opts, logging.Nop())
	if err != nil {
		t.Fatalf("convert failed: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	for i, res := range results {
		if res.Input != inputs[i] || res.Output != outputs[i] {
			t.Errorf("result %d out of order: %+v", i, res)
		}
		data, err := os.ReadFile(outputs[i])
		if err != nil {
			t.Fatalf("missing output %s: %v", outputs[i], err)
		}
		if !strings.HasPrefix(string(data), "WEBVTT\n") {
			t.Errorf("output %s is not WebVTT", outputs[i])
		}
	}
}

func TestConvertFailsOnBadInput(t *testing.T) {
	dir := t.TempDir()
	good := writeInput(t, dir, "good.srt", sampleSRT)
	bad := writeInput(t, dir, "bad.scc", "not an scc file\n")

	_, err := convertFiles(context.Background(),
		[]string{good, bad},
		[]string{filepath.Join(dir, "good.vtt"), filepath.Join(dir, "bad.vtt")},
		defaultOptions(subtitle.FormatVTT), logging.Nop())
	if err == nil {
		t.Fatal("expected error for malformed scc input")
	}
	if !strings.Contains(err.Error(), "bad.scc") {
		t.Errorf("expected error to name the failing file, got: %v", err)
	}
}

func TestConvertStrictDiagnostics(t *testing.T) {
	dir := t.TempDir()
	input := writeInput(t, dir, "emoji.srt", "1\n00:00:01,000 --> 00:00:03,000\nSmile \U0001F600\n")
	output := filepath.Join(dir, "emoji.scc")

	res, err := convertFile(input, output, defaultOptions(subtitle.FormatSCC), logging.Nop())
	if err != nil {
		t.Fatalf("lenient convert failed: %v", err)
	}
	if res.Diagnostics.Count(scc.ErrUnsupportedCharacter) != 1 {
		t.Errorf("expected one unsupported character diagnostic, got %v", res.Diagnostics)
	}

	opts := defaultOptions(subtitle.FormatSCC)
	opts.Strict = true
	if _, err := convertFile(input, output, opts, logging.Nop()); err == nil {
		t.Fatal("expected strict convert to fail")
	}
}

func TestPrintSummaryCountsOverruns(t *testing.T) {
	results := []convertResult{
		{Input: "a.srt", Output: "a.scc", Language: "en", Cues: 3, Diagnostics: scc.Diagnostics{
			{Line: -1, Cue: 1, Frame: 40, Err: scc.ErrOverrun},
			{Line: -1, Cue: 2, Frame: 80, Err: scc.ErrOverrun},
			{Line: -1, Cue: 2, Frame: -1, Err: scc.ErrUnsupportedCharacter},
		}},
		{Input: "b.srt", Output: "b.scc", Language: "en", Cues: 1},
	}

	var out bytes.Buffer
	printSummary(&out, results)
	text := out.String()

	for _, want := range []string{"Converted a.srt -> ", "  Cues: 3", "  Diagnostics: 3", "  Overruns: 2"} {
		if !strings.Contains(text, want) {
			t.Errorf("expected summary to contain %q, got:\n%s", want, text)
		}
	}
	if strings.Count(text, "Overruns:") != 1 {
		t.Errorf("expected only the first file to report overruns, got:\n%s", text)
	}
}

func TestConvertReflow(t *testing.T) {
	dir := t.TempDir()
	input := writeInput(t, dir, "long.srt",
		"1\n00:00:01,000 --> 00:00:03,000\nThis caption is far too long to fit on one row\n")
	output := filepath.Join(dir, "long.scc")

	opts := defaultOptions(subtitle.FormatSCC)
	opts.Reflow = true
	res, err := convertFile(input, output, opts, logging.Nop())
	if err != nil {
		t.Fatalf("convert failed: %v", err)
	}
	if res.Diagnostics.Count(scc.ErrLineWrapped) != 0 {
		t.Errorf("expected reflowed text to fit without wrapping, got %v", res.Diagnostics)
	}
}

func TestInspect(t *testing.T) {
	track := caption.NewTrack()
	track.Set(caption.DefaultLanguage, []caption.Cue{
		{Start: 2_000_000, End: 4_000_000, Nodes: caption.NodesFromText("First")},
		{Start: 5_000_000, End: 7_000_000, Nodes: caption.NodesFromText("Second\nrow")},
	})
	data, _, err := scc.Encode(track)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}

	var out bytes.Buffer
	if err := inspect(&out, data, 1, true); err != nil {
		t.Fatalf("inspect failed: %v", err)
	}
	text := out.String()
	for _, want := range []string{
		"Captions on CC1: 2",
		"First",
		"Second | row",
		"Events:",
		"Overruns: 0",
		"Diagnostics: 0",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("expected output to contain %q:\n%s", want, text)
		}
	}

	out.Reset()
	if err := inspect(&out, data, 2, false); err != nil {
		t.Fatalf("inspect failed: %v", err)
	}
	if !strings.Contains(out.String(), "Captions on CC2: 0") {
		t.Errorf("expected no captions on CC2:\n%s", out.String())
	}
}

func TestInspectRejectsBadHeader(t *testing.T) {
	var out bytes.Buffer
	if err := inspect(&out, []byte("WEBVTT\n"), 1, false); err == nil {
		t.Fatal("expected error for non-scc input")
	}
}
