package scc

import (
	"fmt"
	"strings"

	"github.com/mgpai22/ccconv/internal/caption"
)

// glyph is one encodable character with the style it is shown in
type glyph struct {
	r     rune
	code  charCode
	attrs attrs
}

// textRow is one screen row of a cue before placement.
type textRow struct {
	explicit bool
	row      int
	col      int
	glyphs   []glyph
}

// placedRow is a row with its final screen position.
type placedRow struct {
	row    int
	col    int
	glyphs []glyph
}

// flatten splits cue content into rows. Line breaks and position markers
// start a new row; characters without an encoding are dropped.
func flatten(nodes []caption.Node) ([]textRow, []error) {
	var (
		rows  []textRow
		errs  []error
		cur   textRow
		style attrs
	)
	next := func() {
		rows = append(rows, cur)
		cur = textRow{}
	}

	for _, n := range nodes {
		switch n.Kind {
		case caption.NodeText:
			for _, r := range n.Text {
				if r == '\n' {
					next()
					continue
				}
				code, ok := lookupRune(r)
				if !ok {
					errs = append(errs, fmt.Errorf("%w: %q", ErrUnsupportedCharacter, r))
					continue
				}
				cur.glyphs = append(cur.glyphs, glyph{r: r, code: code, attrs: style})
			}
		case caption.NodeLineBreak:
			next()
		case caption.NodeStyle:
			switch n.Style {
			case caption.ItalicsOn:
				style.italic = true
			case caption.ItalicsOff:
				style.italic = false
			case caption.UnderlineOn:
				style.underline = true
			case caption.UnderlineOff:
				style.underline = false
			}
		case caption.NodePosition:
			if len(cur.glyphs) > 0 {
				next()
			}
			cur.explicit = true
			cur.row = n.Position.Row
			cur.col = n.Position.Column
		}
	}
	rows = append(rows, cur)

	for len(rows) > 0 && len(rows[len(rows)-1].glyphs) == 0 {
		rows = rows[:len(rows)-1]
	}
	return rows, errs
}

// rowWidth is the number of columns glyphs take, mid-row style codes included.
func rowWidth(glyphs []glyph) int {
	width := len(glyphs)
	var current attrs
	for _, g := range glyphs {
		if g.attrs != current {
			width++
			current = g.attrs
		}
	}
	return width
}

// wrapGlyphs breaks a row into pieces of at most limit columns, preferring
// to break at spaces.
func wrapGlyphs(glyphs []glyph, limit int) [][]glyph {
	var out [][]glyph
	for rowWidth(glyphs) > limit {
		n := 0
		for n < len(glyphs) && rowWidth(glyphs[:n+1]) <= limit {
			n++
		}
		cut := n
		for i := n; i > 0; i-- {
			if i < len(glyphs) && glyphs[i].r == ' ' {
				cut = i
				break
			}
		}
		if cut == 0 {
			cut = 1
		}
		out = append(out, trimSpaces(glyphs[:cut]))
		glyphs = trimLeadingSpaces(glyphs[cut:])
	}
	if len(glyphs) > 0 {
		out = append(out, glyphs)
	}
	return out
}

func trimLeadingSpaces(glyphs []glyph) []glyph {
	for len(glyphs) > 0 && glyphs[0].r == ' ' {
		glyphs = glyphs[1:]
	}
	return glyphs
}

func trimSpaces(glyphs []glyph) []glyph {
	for len(glyphs) > 0 && glyphs[len(glyphs)-1].r == ' ' {
		glyphs = glyphs[:len(glyphs)-1]
	}
	return glyphs
}

// place assigns screen rows and columns. Columns carry over from the row
// above unless set explicitly; unpositioned content sits at the bottom of
// the screen. Rows that do not fit are wrapped, and positions outside the
// screen are clamped.
func place(rows []textRow) ([]placedRow, []error) {
	var errs []error

	type piece struct {
		explicit bool
		row      int
		col      int
		glyphs   []glyph
	}
	var pieces []piece

	col := 0
	for _, r := range rows {
		if r.explicit {
			if r.col < 0 || r.col >= screenCols {
				errs = append(errs, fmt.Errorf("%w: column %d", ErrUnsupportedPosition, r.col))
			}
			col = clampCol(r.col)
		}
		parts := wrapGlyphs(r.glyphs, screenCols-col)
		if len(parts) > 1 {
			errs = append(errs, fmt.Errorf("%w: %q does not fit in %d columns",
				ErrLineWrapped, glyphText(r.glyphs), screenCols-col))
		}
		if len(parts) == 0 {
			parts = [][]glyph{nil}
		}
		for i, p := range parts {
			pieces = append(pieces, piece{
				explicit: r.explicit && i == 0,
				row:      r.row,
				col:      col,
				glyphs:   p,
			})
		}
	}

	top := screenRows - len(pieces) + 1
	if top < 1 {
		top = 1
	}

	placed := make([]placedRow, 0, len(pieces))
	for i, p := range pieces {
		var row int
		switch {
		case p.explicit:
			row = p.row
		case i > 0:
			row = placed[i-1].row + 1
		default:
			row = top
		}
		if row < 1 || row > screenRows {
			errs = append(errs, fmt.Errorf("%w: row %d", ErrUnsupportedPosition, row))
			row = min(max(row, 1), screenRows)
		}
		placed = append(placed, placedRow{row: row, col: p.col, glyphs: p.glyphs})
	}
	return placed, errs
}

func glyphText(glyphs []glyph) string {
	var b strings.Builder
	for _, g := range glyphs {
		b.WriteRune(g.r)
	}
	return b.String()
}
