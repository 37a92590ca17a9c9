package subtitle

import (
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/mgpai22/ccconv/internal/caption"
)

// Reflower rewraps cue text to fit a narrow caption display, splitting cues
// that hold more text than fits on screen.
type Reflower struct {
	MaxCharsPerLine int
	MaxLinesPerCue  int
	// cues longer than this are split in time too; zero disables it
	MaxDuration time.Duration
}

func NewReflower() *Reflower {
	return &Reflower{
		MaxCharsPerLine: 32, // caption screen width
		MaxLinesPerCue:  2,
	}
}

type styledRune struct {
	r         rune
	italic    bool
	underline bool
}

type styledWord []styledRune

// Reflow returns cues whose lines fit the reflower's limits. Cues that
// already fit, and cues placed with explicit positions, are kept as they
// are.
func (g *Reflower) Reflow(cues []caption.Cue) []caption.Cue {
	out := make([]caption.Cue, 0, len(cues))
	for _, cue := range cues {
		words, ok := splitWords(cue.Nodes)
		if !ok || len(words) == 0 || g.fits(cue) {
			out = append(out, cue)
			continue
		}
		lines := g.formatWords(words)
		if len(lines) > g.MaxLinesPerCue || g.needsSplit(words, time.Duration(cue.Duration())*time.Microsecond) {
			out = append(out, g.splitCue(cue, words)...)
			continue
		}
		out = append(out, caption.Cue{
			Start: cue.Start,
			End:   cue.End,
			Nodes: renderLines(lines),
		})
	}
	return out
}

func (g *Reflower) fits(cue caption.Cue) bool {
	if g.MaxDuration > 0 && cue.Duration() > g.MaxDuration.Microseconds() {
		return false
	}
	lines := strings.Split(cue.PlainText(), "\n")
	if len(lines) > g.MaxLinesPerCue {
		return false
	}
	for _, line := range lines {
		if utf8.RuneCountInString(line) > g.MaxCharsPerLine {
			return false
		}
	}
	return true
}

func (g *Reflower) needsSplit(words []styledWord, duration time.Duration) bool {
	// if text is too long, split
	if wordsLen(words) > g.MaxCharsPerLine*g.MaxLinesPerCue {
		return true
	}

	// if duration is too long, split
	if g.MaxDuration > 0 && duration > g.MaxDuration {
		return true
	}

	return false
}

// splitCue spreads the words over several cues of equal duration, adding
// cues until every piece fits in MaxLinesPerCue lines.
func (g *Reflower) splitCue(cue caption.Cue, words []styledWord) []caption.Cue {
	maxChars := g.MaxCharsPerLine * g.MaxLinesPerCue
	totalChars := wordsLen(words)

	// estimate of splits needed
	numSplits := (totalChars + maxChars - 1) / maxChars
	if numSplits < 1 {
		numSplits = 1
	}
	if g.MaxDuration > 0 {
		durationSplits := int(cue.Duration()/g.MaxDuration.Microseconds()) + 1
		if durationSplits > numSplits {
			numSplits = durationSplits
		}
	}
	limit := len(words)
	if int64(limit) > cue.Duration() {
		limit = int(max(cue.Duration(), 1))
	}
	numSplits = min(numSplits, limit)

	for {
		pieces := g.pieces(words, numSplits)
		if numSplits >= limit || g.allFit(pieces) {
			return g.timePieces(cue, pieces)
		}
		numSplits++
	}
}

// pieces divides words into n runs of near equal length, earlier runs
// taking the extra word when the count does not divide.
func (g *Reflower) pieces(words []styledWord, n int) [][][]styledWord {
	total := len(words)
	out := make([][][]styledWord, n)
	for i := range n {
		lo := (i*total + n - 1) / n
		hi := ((i+1)*total + n - 1) / n
		out[i] = g.formatWords(words[lo:hi])
	}
	return out
}

func (g *Reflower) allFit(pieces [][][]styledWord) bool {
	for _, lines := range pieces {
		if len(lines) > g.MaxLinesPerCue {
			return false
		}
	}
	return true
}

func (g *Reflower) timePieces(cue caption.Cue, pieces [][][]styledWord) []caption.Cue {
	n := int64(len(pieces))
	cues := make([]caption.Cue, 0, len(pieces))
	for i, lines := range pieces {
		start := cue.Start + cue.Duration()*int64(i)/n
		end := cue.Start + cue.Duration()*int64(i+1)/n
		// last split ends at the original end time
		if i == len(pieces)-1 {
			end = cue.End
		}
		cues = append(cues, caption.Cue{
			Start: start,
			End:   end,
			Nodes: renderLines(lines),
		})
	}
	return cues
}

// formatWords breaks words into lines. Two lines are balanced around the
// middle of the text; more are filled greedily.
func (g *Reflower) formatWords(words []styledWord) [][]styledWord {
	total := wordsLen(words)
	if total <= g.MaxCharsPerLine || len(words) < 2 {
		return [][]styledWord{words}
	}

	lines := g.greedy(words)
	if len(lines) != 2 {
		return lines
	}

	// find the best split point (closest to middle)
	middle := total / 2
	bestSplit := 0
	bestDiff := total

	currentLen := 0
	for i, w := range words[:len(words)-1] {
		currentLen += len(w)
		if i > 0 {
			currentLen++ // space
		}
		if currentLen > g.MaxCharsPerLine || total-currentLen-1 > g.MaxCharsPerLine {
			continue
		}

		diff := abs(currentLen - middle)
		if diff < bestDiff {
			bestDiff = diff
			bestSplit = i + 1
		}
	}

	if bestSplit > 0 {
		return [][]styledWord{words[:bestSplit], words[bestSplit:]}
	}
	return lines
}

func (g *Reflower) greedy(words []styledWord) [][]styledWord {
	var lines [][]styledWord
	var line []styledWord
	width := 0
	for _, w := range words {
		if len(line) > 0 && width+1+len(w) > g.MaxCharsPerLine {
			lines = append(lines, line)
			line, width = nil, 0
		}
		if len(line) > 0 {
			width++
		}
		line = append(line, w)
		width += len(w)
	}
	if len(line) > 0 {
		lines = append(lines, line)
	}
	return lines
}

// splitWords breaks cue content into styled words. It reports false for
// positioned content, which is left alone.
func splitWords(nodes []caption.Node) ([]styledWord, bool) {
	var (
		words     []styledWord
		current   styledWord
		italic    bool
		underline bool
	)
	endWord := func() {
		if len(current) > 0 {
			words = append(words, current)
			current = nil
		}
	}
	for _, n := range nodes {
		switch n.Kind {
		case caption.NodePosition:
			return nil, false
		case caption.NodeLineBreak:
			endWord()
		case caption.NodeStyle:
			switch n.Style {
			case caption.ItalicsOn:
				italic = true
			case caption.ItalicsOff:
				italic = false
			case caption.UnderlineOn:
				underline = true
			case caption.UnderlineOff:
				underline = false
			}
		case caption.NodeText:
			for _, r := range n.Text {
				if unicode.IsSpace(r) {
					endWord()
					continue
				}
				current = append(current, styledRune{r: r, italic: italic, underline: underline})
			}
		}
	}
	endWord()
	return words, true
}

func renderLines(lines [][]styledWord) []caption.Node {
	var b nodeBuilder
	for i, line := range lines {
		if i > 0 {
			b.lineBreak()
		}
		for j, w := range line {
			if j > 0 {
				b.text.WriteByte(' ')
			}
			for _, r := range w {
				if r.italic {
					b.style(caption.ItalicsOn)
				} else {
					b.style(caption.ItalicsOff)
				}
				if r.underline {
					b.style(caption.UnderlineOn)
				} else {
					b.style(caption.UnderlineOff)
				}
				b.text.WriteRune(r.r)
			}
		}
	}
	return b.done()
}

// characters including single spaces between words
func wordsLen(words []styledWord) int {
	if len(words) == 0 {
		return 0
	}
	n := len(words) - 1
	for _, w := range words {
		n += len(w)
	}
	return n
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
