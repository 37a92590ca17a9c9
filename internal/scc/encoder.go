package scc

import (
	"errors"
	"fmt"
	"runtime"
	"slices"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mgpai22/ccconv/internal/caption"
	"github.com/mgpai22/ccconv/internal/timecode"
)

var ErrLanguageNotFound = errors.New("language not found in track")

type EncoderOptions struct {
	// minimum on-screen duration in frames; 0 keeps cue times as given and
	// lets loads overlap
	MinDurationFrames int
	// track language to encode; the first language in sort order when empty
	Language string
	// CC1 (default) or CC2
	Channel Channel
	// number of cues laid out in parallel (default GOMAXPROCS)
	Concurrency int
	Logger      *zap.Logger
}

// Encoder writes a caption.Track as a pop-on Scenarist stream.
type Encoder struct {
	opts   EncoderOptions
	logger *zap.Logger
}

func NewEncoder(opts EncoderOptions) *Encoder {
	if opts.Channel != 2 {
		opts.Channel = 1
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = runtime.GOMAXPROCS(0)
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Encoder{opts: opts, logger: logger}
}

// Encode writes track with default options.
func Encode(track *caption.Track) ([]byte, Diagnostics, error) {
	return NewEncoder(EncoderOptions{}).Encode(track)
}

// encodedCue is the load event of one cue.
type encodedCue struct {
	words []Word
	errs  []error
}

// Encode validates and serializes track. Positions that do not fit the
// screen, wrapped lines, dropped characters and overlapping events are
// reported in the returned Diagnostics.
func (e *Encoder) Encode(track *caption.Track) ([]byte, Diagnostics, error) {
	if e.opts.MinDurationFrames < 0 {
		return nil, nil, fmt.Errorf("minimum duration must not be negative, got %d", e.opts.MinDurationFrames)
	}
	if err := track.Validate(); err != nil {
		return nil, nil, fmt.Errorf("cannot encode track: %w", err)
	}

	lang := e.opts.Language
	langs := track.Languages()
	switch {
	case lang == "" && len(langs) > 0:
		lang = langs[0]
		if len(langs) > 1 {
			e.logger.Warn("track has several languages, encoding only one",
				zap.String("language", lang),
				zap.Strings("languages", langs),
			)
		}
	case lang != "" && !track.IsEmpty() && !slices.Contains(langs, lang):
		return nil, nil, fmt.Errorf("%w: %q", ErrLanguageNotFound, lang)
	}

	var out strings.Builder
	out.WriteString(Header)
	out.WriteString("\n\n")

	cues := track.Cues(lang)
	if len(cues) == 0 {
		return []byte(out.String()), nil, nil
	}

	encoded := make([]encodedCue, len(cues))
	var g errgroup.Group
	g.SetLimit(e.opts.Concurrency)
	for i, cue := range cues {
		g.Go(func() error {
			encoded[i] = e.encodeCue(cue)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	var diags Diagnostics
	timings := make([]cueTiming, len(cues))
	for i, c := range encoded {
		start := timecode.MicrosecondsToFrames(cues[i].Start)
		for _, err := range c.errs {
			diags = append(diags, cueDiagnostic(i, start, err))
		}
		cost := int64(len(c.words))
		timings[i] = cueTiming{
			start: start,
			end:   timecode.MicrosecondsToFrames(cues[i].End),
			cost:  cost,
			lead:  cost - 2,
		}
	}

	diags = append(diags, scheduleCues(timings, int64(e.opts.MinDurationFrames))...)
	events := buildEvents(timings, encoded, e.opts.Channel)
	diags = append(diags, overruns(events)...)

	for _, ev := range events {
		out.WriteString(timecode.FromFrame(ev.frame).String())
		out.WriteByte('\t')
		for j, w := range ev.words {
			if j > 0 {
				out.WriteByte(' ')
			}
			out.WriteString(w.String())
		}
		out.WriteString("\n\n")
	}

	e.logger.Debug("encoded scc stream",
		zap.String("language", lang),
		zap.Int("cues", len(cues)),
		zap.Int("events", len(events)),
		zap.Int("diagnostics", len(diags)),
	)
	return []byte(out.String()), diags, nil
}

// encodeCue builds the load event of a cue: erase and select pop-on mode,
// write every row into the off-screen memory, then flip memories.
func (e *Encoder) encodeCue(cue caption.Cue) encodedCue {
	ch := e.opts.Channel
	rows, errs := flatten(cue.Nodes)
	placed, placeErrs := place(rows)
	errs = append(errs, placeErrs...)

	b := &wordBuilder{ch: ch}
	b.control(commandWord(ch, cmdENM))
	b.control(commandWord(ch, cmdRCL))
	for _, r := range placed {
		b.row(r)
	}
	b.control(commandWord(ch, cmdEOC))
	return encodedCue{words: b.words, errs: errs}
}

// wordBuilder accumulates the words of one load event. Control words are
// sent twice; printable characters are packed two to a word.
type wordBuilder struct {
	ch      Channel
	words   []Word
	pending []byte
}

func (b *wordBuilder) control(w Word) {
	b.flush()
	b.words = append(b.words, w, w)
}

func (b *wordBuilder) flush() {
	for i := 0; i < len(b.pending); i += 2 {
		var b2 byte
		if i+1 < len(b.pending) {
			b2 = b.pending[i+1]
		}
		b.words = append(b.words, newWord(b.pending[i], b2))
	}
	b.pending = b.pending[:0]
}

func (b *wordBuilder) row(r placedRow) {
	if len(r.glyphs) == 0 {
		return
	}
	b.control(pacWord(b.ch, r.row, r.col&^3))
	if tab := r.col & 3; tab > 0 {
		b.control(tabWord(b.ch, tab))
	}
	var current attrs
	for _, g := range r.glyphs {
		if g.attrs != current {
			b.control(midRowWord(b.ch, g.attrs))
			current = g.attrs
		}
		switch g.code.kind {
		case encBasic:
			b.pending = append(b.pending, g.code.b1)
		case encSpecial:
			b.control(newWord(g.code.b1|b.ch.prefix(), g.code.b2))
		case encExtended:
			b.pending = append(b.pending, g.code.fallback)
			b.control(newWord(g.code.b1|b.ch.prefix(), g.code.b2))
		}
	}
	b.flush()
}
