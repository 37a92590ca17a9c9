package caption

import (
	"sort"
	"strings"
	"time"
)

// DefaultLanguage is the track key used when a source format carries no
// language information.
const DefaultLanguage = "en-US"

// kind of content carried by a Node
type NodeKind int

const (
	NodeText NodeKind = iota
	NodeLineBreak
	NodeStyle
	NodePosition
)

func (k NodeKind) String() string {
	switch k {
	case NodeText:
		return "text"
	case NodeLineBreak:
		return "linebreak"
	case NodeStyle:
		return "style"
	case NodePosition:
		return "position"
	default:
		return "unknown"
	}
}

// style transition carried by a NodeStyle node
type StyleChange int

const (
	ItalicsOn StyleChange = iota + 1
	ItalicsOff
	UnderlineOn
	UnderlineOff
)

func (s StyleChange) String() string {
	switch s {
	case ItalicsOn:
		return "italics-on"
	case ItalicsOff:
		return "italics-off"
	case UnderlineOn:
		return "underline-on"
	case UnderlineOff:
		return "underline-off"
	default:
		return "none"
	}
}

// Layout is a screen position hint. Rows are 1-based, columns 0-based.
type Layout struct {
	Row    int
	Column int
}

// Node is one piece of cue content. Only the field matching Kind is set, so
// nodes can be compared with ==.
type Node struct {
	Kind     NodeKind
	Text     string
	Style    StyleChange
	Position Layout
}

func Text(s string) Node {
	return Node{Kind: NodeText, Text: s}
}

func LineBreak() Node {
	return Node{Kind: NodeLineBreak}
}

func Style(s StyleChange) Node {
	return Node{Kind: NodeStyle, Style: s}
}

func Position(row, column int) Node {
	return Node{Kind: NodePosition, Position: Layout{Row: row, Column: column}}
}

// NodesFromText splits plain text on newlines into text runs and line breaks.
func NodesFromText(text string) []Node {
	lines := strings.Split(text, "\n")
	nodes := make([]Node, 0, len(lines)*2)
	for i, line := range lines {
		if i > 0 {
			nodes = append(nodes, LineBreak())
		}
		if line != "" {
			nodes = append(nodes, Text(line))
		}
	}
	return nodes
}

// Cue is a single timed unit of caption content. Start and End are in
// microseconds.
type Cue struct {
	Start int64
	End   int64
	Nodes []Node
}

func (c Cue) StartTime() time.Duration {
	return time.Duration(c.Start) * time.Microsecond
}

func (c Cue) EndTime() time.Duration {
	return time.Duration(c.End) * time.Microsecond
}

// Duration of the display window in microseconds.
func (c Cue) Duration() int64 {
	return c.End - c.Start
}

// IsEmpty reports whether the cue has no text to show.
func (c Cue) IsEmpty() bool {
	for _, n := range c.Nodes {
		if n.Kind == NodeText && n.Text != "" {
			return false
		}
	}
	return true
}

// PlainText renders the cue text with line breaks as newlines and all
// styling dropped.
func (c Cue) PlainText() string {
	var sb strings.Builder
	for _, n := range c.Nodes {
		switch n.Kind {
		case NodeText:
			sb.WriteString(n.Text)
		case NodeLineBreak:
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

// Track maps language identifiers to cues in presentation order.
//
// A Track handed to a writer or encoder is treated as a read-only snapshot;
// cue slices returned by Cues must not be modified by callers.
type Track struct {
	cues map[string][]Cue
}

func NewTrack() *Track {
	return &Track{cues: make(map[string][]Cue)}
}

// Set replaces the cues stored for lang.
func (t *Track) Set(lang string, cues []Cue) {
	if t.cues == nil {
		t.cues = make(map[string][]Cue)
	}
	t.cues[lang] = cues
}

// Append adds a cue to the end of lang's cue list.
func (t *Track) Append(lang string, cue Cue) {
	if t.cues == nil {
		t.cues = make(map[string][]Cue)
	}
	t.cues[lang] = append(t.cues[lang], cue)
}

func (t *Track) Cues(lang string) []Cue {
	if t == nil {
		return nil
	}
	return t.cues[lang]
}

// Languages returns the track's language keys in sorted order.
func (t *Track) Languages() []string {
	if t == nil {
		return nil
	}
	langs := make([]string, 0, len(t.cues))
	for lang := range t.cues {
		langs = append(langs, lang)
	}
	sort.Strings(langs)
	return langs
}

// total number of cues across all languages
func (t *Track) Len() int {
	if t == nil {
		return 0
	}
	n := 0
	for _, cues := range t.cues {
		n += len(cues)
	}
	return n
}

func (t *Track) IsEmpty() bool {
	return t.Len() == 0
}

// Rename moves the cues stored under from to the key to.
func (t *Track) Rename(from, to string) {
	if from == to || t == nil {
		return
	}
	cues, ok := t.cues[from]
	if !ok {
		return
	}
	delete(t.cues, from)
	t.cues[to] = append(t.cues[to], cues...)
}
