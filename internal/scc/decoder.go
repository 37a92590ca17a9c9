package scc

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/mgpai22/ccconv/internal/caption"
	"github.com/mgpai22/ccconv/internal/timecode"
)

type DecoderOptions struct {
	// track key for CC1 captions (default caption.DefaultLanguage)
	Language string
	// track key for CC2 captions; CC2 is ignored when empty
	SecondaryLanguage string
	// microseconds subtracted from every timestamp
	Offset int64
	Logger *zap.Logger
}

// Decoder reads Scenarist caption streams into a caption.Track. A Decoder
// holds no per-stream state and can be shared.
type Decoder struct {
	opts   DecoderOptions
	logger *zap.Logger
}

func NewDecoder(opts DecoderOptions) *Decoder {
	if opts.Language == "" {
		opts.Language = caption.DefaultLanguage
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Decoder{opts: opts, logger: logger}
}

// Decode parses a whole stream with default options.
func Decode(data []byte) (*caption.Track, Diagnostics, error) {
	return NewDecoder(DecoderOptions{}).Decode(data)
}

// Decode parses a whole stream. Transmission noise (bad timecodes on event
// lines, malformed words, control codes that need a mode not yet selected)
// is skipped and reported in the returned Diagnostics. A missing header or a
// stream without any usable event line is a terminal error.
func (d *Decoder) Decode(data []byte) (*caption.Track, Diagnostics, error) {
	text := strings.TrimPrefix(string(data), "\ufeff")
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")

	header := -1
	for i, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		if strings.TrimSpace(line) != Header {
			return nil, nil, fmt.Errorf("%w: %q", ErrMalformedHeader, strings.TrimSpace(line))
		}
		header = i
		break
	}
	if header < 0 {
		return nil, nil, fmt.Errorf("%w: empty input", ErrMalformedHeader)
	}

	run := &decodeRun{
		dec:      d,
		track:    caption.NewTrack(),
		channels: [3]*channelState{nil, newChannelState(), newChannelState()},
		current:  1,
		lastLine: -1,
	}

	events := 0
	for i := header + 1; i < len(lines); i++ {
		fields := strings.Fields(lines[i])
		if len(fields) == 0 {
			continue
		}
		lineNo := i + 1

		frame, err := timecode.ParseFrame(fields[0])
		if err != nil {
			run.report(lineDiagnostic(lineNo, -1, "", err))
			continue
		}
		events++
		if frame < run.lastLine {
			run.report(lineDiagnostic(lineNo, frame, "", fmt.Errorf(
				"%w: timecode %s goes back in time",
				caption.ErrInvalidCueTiming,
				fields[0],
			)))
		}
		run.lastLine = frame
		run.line(lineNo, frame, fields[1:])
	}

	if events == 0 {
		return nil, run.diags, ErrEmptyStream
	}
	run.finish()

	d.logger.Debug("decoded scc stream",
		zap.Int("events", events),
		zap.Int("cues", run.track.Len()),
		zap.Int("diagnostics", len(run.diags)),
	)
	return run.track, run.diags, nil
}

// decodeRun is the state of a single Decode call.
type decodeRun struct {
	dec      *Decoder
	track    *caption.Track
	channels [3]*channelState
	current  Channel
	diags    Diagnostics

	lastLine  timecode.Frame
	lastFrame timecode.Frame
	lastStart map[string]int64
}

func (r *decodeRun) report(d Diagnostic) {
	r.dec.logger.Debug("scc decode diagnostic", zap.Error(d))
	r.diags = append(r.diags, d)
}

// line runs every word of an event. Each word takes one frame; an immediate
// repeat of a control word is the redundant copy and is skipped once.
func (r *decodeRun) line(lineNo int, frame timecode.Frame, tokens []string) {
	var (
		prev        Word
		havePrev    bool
		prevSkipped bool
	)
	for i, token := range tokens {
		at := frame + int64(i)
		if at > r.lastFrame {
			r.lastFrame = at
		}

		w, err := ParseWord(token)
		if err != nil {
			r.report(lineDiagnostic(lineNo, at, token, err))
			havePrev = false
			continue
		}
		if w.isControl() && havePrev && w == prev && !prevSkipped {
			prevSkipped = true
			continue
		}
		prev, havePrev, prevSkipped = w, true, false

		if err := r.apply(w, at); err != nil {
			r.report(lineDiagnostic(lineNo, at, token, err))
		}
	}
}

func (r *decodeRun) apply(w Word, frame timecode.Frame) error {
	b1, b2 := w.Bytes()
	switch {
	case b1 == 0 && b2 == 0:
		return nil
	case b1 == 0:
		return r.channels[r.current].chars(0, b2, frame)
	case b1 < 0x10:
		// extended data service packets
		return nil
	case b1 < 0x20:
		ch := Channel(1)
		if b1&0x08 != 0 {
			ch = 2
		}
		r.current = ch
		closed, err := r.channels[ch].control(b1&^0x08, b2, frame)
		r.emit(ch, closed)
		return err
	default:
		return r.channels[r.current].chars(b1, b2, frame)
	}
}

func (r *decodeRun) language(ch Channel) string {
	if ch == 2 {
		return r.dec.opts.SecondaryLanguage
	}
	return r.dec.opts.Language
}

func (r *decodeRun) emit(ch Channel, c *closedCue) {
	if c == nil {
		return
	}
	lang := r.language(ch)
	if lang == "" {
		return
	}
	cue := caption.Cue{
		Start: timecode.FramesToMicroseconds(c.start) - r.dec.opts.Offset,
		End:   timecode.FramesToMicroseconds(c.end) - r.dec.opts.Offset,
		Nodes: c.nodes,
	}
	if cue.IsEmpty() || cue.End <= 0 {
		return
	}
	if cue.Start < 0 {
		cue.Start = 0
	}
	if cue.Start >= cue.End {
		r.report(lineDiagnostic(-1, c.start, "", fmt.Errorf(
			"%w: cue %q has no duration",
			caption.ErrInvalidCueTiming,
			cue.PlainText(),
		)))
		return
	}
	if r.lastStart == nil {
		r.lastStart = make(map[string]int64)
	}
	if last, ok := r.lastStart[lang]; ok && cue.Start < last {
		r.report(lineDiagnostic(-1, c.start, "", fmt.Errorf(
			"%w: cue %q starts before the previous cue",
			caption.ErrInvalidCueTiming,
			cue.PlainText(),
		)))
		return
	}
	r.lastStart[lang] = cue.Start
	r.track.Append(lang, cue)
}

// finish closes whatever is still on screen one frame after the last
// transmitted word.
func (r *decodeRun) finish() {
	for ch := Channel(1); ch <= 2; ch++ {
		s := r.channels[ch]
		if s.active == nil {
			continue
		}
		r.emit(ch, s.closeActive(r.lastFrame+1))
	}
}
