package scc

import (
	"strings"

	"github.com/mgpai22/ccconv/internal/caption"
)

// cell is one character position of caption memory. A set cell with r == 0
// holds a mid-row attribute change, which takes a column but shows no text.
type cell struct {
	r     rune
	set   bool
	attrs attrs
}

// screen is one 15x32 caption memory; rows are stored 1-based.
type screen struct {
	rows [screenRows + 1][screenCols]cell
}

func (s *screen) clear() {
	*s = screen{}
}

func (s *screen) clearRow(row int) {
	s.rows[row] = [screenCols]cell{}
}

func (s *screen) put(row, col int, c cell) {
	if row < 1 || row > screenRows {
		return
	}
	s.rows[row][clampCol(col)] = c
}

func (s *screen) rowHasText(row int) bool {
	for _, c := range s.rows[row] {
		if c.set && c.r != 0 {
			return true
		}
	}
	return false
}

func (s *screen) empty() bool {
	for row := 1; row <= screenRows; row++ {
		if s.rowHasText(row) {
			return false
		}
	}
	return true
}

func clampCol(col int) int {
	if col < 0 {
		return 0
	}
	if col >= screenCols {
		return screenCols - 1
	}
	return col
}

// rowSpan returns the first and last set columns of row.
func (s *screen) rowSpan(row int) (int, int) {
	first, last := -1, -1
	for col, c := range s.rows[row] {
		if !c.set {
			continue
		}
		if first < 0 {
			first = col
		}
		last = col
	}
	return first, last
}

// nodes renders the listed rows (or every row holding text when rows is nil)
// into cue content.
//
// Rows are separated by line breaks. Position markers are only emitted when
// the layout differs from the default one: rows stacked at the bottom of the
// screen starting at column 0. Style markers are emitted right before the
// first character they affect, and anything still on is switched off at the
// end.
func (s *screen) nodes(rows []int) []caption.Node {
	if rows == nil {
		for row := 1; row <= screenRows; row++ {
			if s.rowHasText(row) {
				rows = append(rows, row)
			}
		}
	}
	if len(rows) == 0 {
		return nil
	}

	positioned := !s.defaultLayout(rows)

	var (
		nodes   []caption.Node
		text    strings.Builder
		current attrs
	)
	flush := func() {
		if text.Len() > 0 {
			nodes = append(nodes, caption.Text(text.String()))
			text.Reset()
		}
	}

	for i, row := range rows {
		if i > 0 {
			flush()
			nodes = append(nodes, caption.LineBreak())
		}
		first, last := s.rowSpan(row)
		if positioned {
			nodes = append(nodes, caption.Position(row, first))
		}
		for col := first; col <= last; col++ {
			c := s.rows[row][col]
			if !c.set {
				text.WriteByte(' ')
				continue
			}
			if c.r == 0 {
				continue
			}
			if c.attrs != current {
				flush()
				nodes = append(nodes, styleTransition(current, c.attrs)...)
				current = c.attrs
			}
			text.WriteRune(c.r)
		}
	}
	flush()
	nodes = append(nodes, styleTransition(current, attrs{})...)
	return nodes
}

func (s *screen) defaultLayout(rows []int) bool {
	top := screenRows - len(rows) + 1
	for i, row := range rows {
		if row != top+i {
			return false
		}
		if first, _ := s.rowSpan(row); first != 0 {
			return false
		}
	}
	return true
}

func styleTransition(from, to attrs) []caption.Node {
	var nodes []caption.Node
	if from.italic != to.italic {
		if to.italic {
			nodes = append(nodes, caption.Style(caption.ItalicsOn))
		} else {
			nodes = append(nodes, caption.Style(caption.ItalicsOff))
		}
	}
	if from.underline != to.underline {
		if to.underline {
			nodes = append(nodes, caption.Style(caption.UnderlineOn))
		} else {
			nodes = append(nodes, caption.Style(caption.UnderlineOff))
		}
	}
	return nodes
}
