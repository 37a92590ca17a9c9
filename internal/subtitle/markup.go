package subtitle

import (
	"html"
	"strings"

	"github.com/mgpai22/ccconv/internal/caption"
)

// nodeBuilder collects cue nodes and drops style markers that would not
// change anything.
type nodeBuilder struct {
	nodes     []caption.Node
	text      strings.Builder
	italic    bool
	underline bool
}

func (b *nodeBuilder) flush() {
	if b.text.Len() > 0 {
		b.nodes = append(b.nodes, caption.Text(b.text.String()))
		b.text.Reset()
	}
}

func (b *nodeBuilder) lineBreak() {
	b.flush()
	b.nodes = append(b.nodes, caption.LineBreak())
}

func (b *nodeBuilder) style(s caption.StyleChange) {
	var cur *bool
	on := s == caption.ItalicsOn || s == caption.UnderlineOn
	if s == caption.ItalicsOn || s == caption.ItalicsOff {
		cur = &b.italic
	} else {
		cur = &b.underline
	}
	if *cur == on {
		return
	}
	*cur = on
	b.flush()
	b.nodes = append(b.nodes, caption.Style(s))
}

func (b *nodeBuilder) done() []caption.Node {
	b.flush()
	if b.italic {
		b.nodes = append(b.nodes, caption.Style(caption.ItalicsOff))
	}
	if b.underline {
		b.nodes = append(b.nodes, caption.Style(caption.UnderlineOff))
	}
	return b.nodes
}

// parseTagged reads SRT and WebVTT cue text. <i> and <u> become style
// markers; other tags and {\...} override blocks are dropped.
func parseTagged(text string, unescape bool) []caption.Node {
	var b nodeBuilder
	appendText := func(s string) {
		if unescape {
			s = html.UnescapeString(s)
		}
		for i, line := range strings.Split(s, "\n") {
			if i > 0 {
				b.lineBreak()
			}
			b.text.WriteString(line)
		}
	}

	for len(text) > 0 {
		open := strings.IndexAny(text, "<{")
		if open < 0 {
			appendText(text)
			break
		}
		closing := byte('>')
		if text[open] == '{' {
			closing = '}'
		}
		end := strings.IndexByte(text[open:], closing)
		if end < 0 ||
			(closing == '}' && !strings.HasPrefix(text[open:], "{\\")) ||
			(closing == '>' && !isHTMLTag(text[open+1:open+end])) {
			appendText(text[:open+1])
			text = text[open+1:]
			continue
		}
		appendText(text[:open])
		if closing == '>' {
			applyHTMLTag(&b, text[open+1:open+end])
		}
		text = text[open+end+1:]
	}
	return b.done()
}

// isHTMLTag reports whether the text between '<' and '>' looks like a tag
// rather than a literal less-than sign.
func isHTMLTag(tag string) bool {
	tag = strings.TrimPrefix(tag, "/")
	if tag == "" || strings.ContainsRune(tag, '<') {
		return false
	}
	c := tag[0]
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9'
}

func applyHTMLTag(b *nodeBuilder, tag string) {
	tag = strings.ToLower(strings.TrimSpace(tag))
	closing := strings.HasPrefix(tag, "/")
	tag = strings.TrimPrefix(tag, "/")
	if i := strings.IndexAny(tag, ". "); i >= 0 {
		tag = tag[:i]
	}
	switch {
	case tag == "i" && closing:
		b.style(caption.ItalicsOff)
	case tag == "i":
		b.style(caption.ItalicsOn)
	case tag == "u" && closing:
		b.style(caption.UnderlineOff)
	case tag == "u":
		b.style(caption.UnderlineOn)
	}
}

// parseASSText reads the Text field of an ASS dialogue line.
func parseASSText(text string) []caption.Node {
	var b nodeBuilder
	for i := 0; i < len(text); i++ {
		c := text[i]
		switch {
		case c == '\\' && i+1 < len(text) && (text[i+1] == 'N' || text[i+1] == 'n'):
			b.lineBreak()
			i++
		case c == '\\' && i+1 < len(text) && text[i+1] == 'h':
			b.text.WriteRune(' ')
			i++
		case c == '{':
			end := strings.IndexByte(text[i:], '}')
			if end < 0 {
				b.text.WriteByte(c)
				continue
			}
			for _, tag := range strings.Split(text[i+1:i+end], "\\") {
				applyASSTag(&b, strings.TrimSpace(tag))
			}
			i += end
		default:
			b.text.WriteByte(c)
		}
	}
	return b.done()
}

func applyASSTag(b *nodeBuilder, tag string) {
	switch tag {
	case "i1":
		b.style(caption.ItalicsOn)
	case "i0", "i":
		b.style(caption.ItalicsOff)
	case "u1":
		b.style(caption.UnderlineOn)
	case "u0", "u":
		b.style(caption.UnderlineOff)
	}
}

// markup describes how a text format spells style changes.
type markup struct {
	italicOn     string
	italicOff    string
	underlineOn  string
	underlineOff string
	lineBreak    string
	escape       func(string) string
}

var (
	srtMarkup = markup{
		italicOn: "<i>", italicOff: "</i>",
		underlineOn: "<u>", underlineOff: "</u>",
		lineBreak: "\n",
	}
	vttMarkup = markup{
		italicOn: "<i>", italicOff: "</i>",
		underlineOn: "<u>", underlineOff: "</u>",
		lineBreak: "\n",
		escape:    escapeVTTText,
	}
	assMarkup = markup{
		italicOn: "{\\i1}", italicOff: "{\\i0}",
		underlineOn: "{\\u1}", underlineOff: "{\\u0}",
		lineBreak: "\\N",
		escape:    escapeASSText,
	}
)

// render writes cue nodes in the given markup. Position markers have no
// equivalent and are left out; styles still open at the end are closed.
func render(nodes []caption.Node, m markup) string {
	var (
		sb        strings.Builder
		italic    bool
		underline bool
	)
	for _, n := range nodes {
		switch n.Kind {
		case caption.NodeText:
			text := n.Text
			if m.escape != nil {
				text = m.escape(text)
			}
			sb.WriteString(text)
		case caption.NodeLineBreak:
			sb.WriteString(m.lineBreak)
		case caption.NodeStyle:
			switch {
			case n.Style == caption.ItalicsOn && !italic:
				sb.WriteString(m.italicOn)
				italic = true
			case n.Style == caption.ItalicsOff && italic:
				sb.WriteString(m.italicOff)
				italic = false
			case n.Style == caption.UnderlineOn && !underline:
				sb.WriteString(m.underlineOn)
				underline = true
			case n.Style == caption.UnderlineOff && underline:
				sb.WriteString(m.underlineOff)
				underline = false
			}
		}
	}
	if underline {
		sb.WriteString(m.underlineOff)
	}
	if italic {
		sb.WriteString(m.italicOff)
	}
	return sb.String()
}

func escapeVTTText(text string) string {
	text = strings.ReplaceAll(text, "&", "&amp;")
	text = strings.ReplaceAll(text, "<", "&lt;")
	return strings.ReplaceAll(text, ">", "&gt;")
}

func escapeASSText(text string) string {
	text = strings.ReplaceAll(text, "\n", "\\N")
	return text
}
