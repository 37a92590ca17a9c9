package scc

import (
	"fmt"

	"github.com/mgpai22/ccconv/internal/caption"
	"github.com/mgpai22/ccconv/internal/timecode"
)

// Mode is the caption display mode of a channel.
type Mode int

const (
	ModeUnknown Mode = iota
	ModePopOn
	ModeRollUp
	ModePaintOn
	ModeText
)

func (m Mode) String() string {
	switch m {
	case ModePopOn:
		return "pop-on"
	case ModeRollUp:
		return "roll-up"
	case ModePaintOn:
		return "paint-on"
	case ModeText:
		return "text"
	default:
		return "unknown"
	}
}

// openCue is content that became visible at start and has not been
// removed yet. Roll-up cues only cover the base row.
type openCue struct {
	start  timecode.Frame
	rollUp bool
	row    int
}

type closedCue struct {
	start timecode.Frame
	end   timecode.Frame
	nodes []caption.Node
}

// channelState is the caption decoder state of one data channel.
type channelState struct {
	mode     Mode
	rollRows int
	baseRow  int

	offscreen screen
	onscreen  screen

	row   int
	col   int
	attrs attrs

	active *openCue
}

func newChannelState() *channelState {
	return &channelState{baseRow: screenRows, row: screenRows}
}

// target is the memory that characters are written to in the current mode.
func (s *channelState) target() *screen {
	if s.mode == ModePopOn {
		return &s.offscreen
	}
	return &s.onscreen
}

func (s *channelState) closeActive(frame timecode.Frame) *closedCue {
	if s.active == nil {
		return nil
	}
	a := s.active
	s.active = nil

	var rows []int
	if a.rollUp {
		if !s.onscreen.rowHasText(a.row) {
			return nil
		}
		rows = []int{a.row}
	}
	return &closedCue{
		start: a.start,
		end:   frame,
		nodes: s.onscreen.nodes(rows),
	}
}

func (s *channelState) requireMode(what string) error {
	if s.mode == ModeUnknown {
		return fmt.Errorf("%w: %s before any caption mode was selected", ErrInvalidModeTransition, what)
	}
	return nil
}

// control applies a control word with the channel bit already removed.
func (s *channelState) control(b1, b2 byte, frame timecode.Frame) (*closedCue, error) {
	switch {
	case b2 < 0x20:
		return nil, fmt.Errorf("%w: control code %02x%02x", ErrMalformedCommandToken, b1, b2)
	case b2 >= 0x40:
		p, ok := decodePAC(b1, b2)
		if !ok {
			return nil, fmt.Errorf("%w: unknown preamble %02x%02x", ErrMalformedCommandToken, b1, b2)
		}
		return nil, s.preamble(p)
	case b1 == 0x11 && b2 < 0x30:
		return nil, s.midRow(decodeMidRow(b2))
	case b1 == 0x11:
		return nil, s.putChar(specialChars[b2], false, frame)
	case b1 == 0x12 && b2 < 0x40:
		return nil, s.putChar(extendedChars12[b2], true, frame)
	case b1 == 0x13 && b2 < 0x40:
		return nil, s.putChar(extendedChars13[b2], true, frame)
	case (b1 == 0x14 || b1 == 0x15) && b2 < 0x30:
		return s.command(b2, frame)
	case b1 == 0x17 && b2 >= 0x21 && b2 <= 0x23:
		if err := s.requireMode("tab offset"); err != nil {
			return nil, err
		}
		s.col = clampCol(s.col + int(b2-0x20))
		return nil, nil
	case b1 == 0x10 && b2 < 0x30, b1 == 0x17 && b2 >= 0x2d:
		// background and foreground attributes carry no text styling we keep
		return nil, nil
	}
	return nil, fmt.Errorf("%w: unknown control code %02x%02x", ErrMalformedCommandToken, b1, b2)
}

func (s *channelState) command(cmd byte, frame timecode.Frame) (*closedCue, error) {
	switch cmd {
	case cmdRCL:
		s.mode = ModePopOn
	case cmdRDC:
		s.mode = ModePaintOn
	case cmdTR, cmdRTD:
		s.mode = ModeText
	case cmdRU2, cmdRU3, cmdRU4:
		var closed *closedCue
		if s.mode != ModeRollUp {
			closed = s.closeActive(frame)
			s.onscreen.clear()
			s.offscreen.clear()
			s.col = 0
		}
		s.mode = ModeRollUp
		s.rollRows = int(cmd-cmdRU2) + 2
		if s.baseRow < s.rollRows {
			s.baseRow = s.rollRows
		}
		s.row = s.baseRow
		return closed, nil
	case cmdEDM:
		closed := s.closeActive(frame)
		s.onscreen.clear()
		return closed, nil
	case cmdENM:
		s.offscreen.clear()
	case cmdEOC:
		if err := s.requireMode("end of caption"); err != nil {
			return nil, err
		}
		s.mode = ModePopOn
		closed := s.closeActive(frame)
		s.onscreen, s.offscreen = s.offscreen, s.onscreen
		if !s.onscreen.empty() {
			s.active = &openCue{start: frame}
		}
		return closed, nil
	case cmdCR:
		if err := s.requireMode("carriage return"); err != nil {
			return nil, err
		}
		if s.mode != ModeRollUp {
			return nil, nil
		}
		closed := s.closeActive(frame)
		s.rollUp()
		return closed, nil
	case cmdBS:
		if err := s.requireMode("backspace"); err != nil {
			return nil, err
		}
		if s.mode == ModeText {
			return nil, nil
		}
		if s.col > 0 {
			s.col--
		}
		s.target().rows[s.row][s.col] = cell{}
	case cmdDER:
		if err := s.requireMode("delete to end of row"); err != nil {
			return nil, err
		}
		if s.mode == ModeText {
			return nil, nil
		}
		for col := s.col; col < screenCols; col++ {
			s.target().rows[s.row][col] = cell{}
		}
	case cmdAOF, cmdAON, cmdFON:
	default:
		return nil, fmt.Errorf("%w: unknown command %02x", ErrMalformedCommandToken, cmd)
	}
	return nil, nil
}

// rollUp scrolls the roll-up window by one row and clears the base row.
func (s *channelState) rollUp() {
	top := s.baseRow - s.rollRows + 1
	for row := 1; row < top; row++ {
		s.onscreen.clearRow(row)
	}
	for row := top; row < s.baseRow; row++ {
		s.onscreen.rows[row] = s.onscreen.rows[row+1]
	}
	s.onscreen.clearRow(s.baseRow)
	s.row = s.baseRow
	s.col = 0
}

func (s *channelState) preamble(p pac) error {
	if err := s.requireMode("preamble address code"); err != nil {
		return err
	}
	if s.mode == ModeText {
		return nil
	}
	s.col = p.indent
	s.attrs = p.attrs
	s.row = p.row
	if s.mode == ModeRollUp {
		if s.row < s.rollRows {
			s.row = s.rollRows
		}
		s.baseRow = s.row
		if s.active != nil && s.active.rollUp {
			s.active.row = s.row
		}
	}
	return nil
}

func (s *channelState) midRow(a attrs) error {
	if err := s.requireMode("mid-row code"); err != nil {
		return err
	}
	if s.mode == ModeText {
		return nil
	}
	s.attrs = a
	s.target().put(s.row, s.col, cell{set: true, attrs: a})
	s.advance()
	return nil
}

// putChar writes r at the cursor. Extended characters replace the basic
// fallback that precedes them.
func (s *channelState) putChar(r rune, replace bool, frame timecode.Frame) error {
	if err := s.requireMode("character"); err != nil {
		return err
	}
	if s.mode == ModeText {
		return nil
	}
	if replace && s.col > 0 {
		s.col--
	}
	s.target().put(s.row, s.col, cell{r: r, set: true, attrs: s.attrs})
	s.advance()
	s.openOnWrite(frame)
	return nil
}

func (s *channelState) advance() {
	if s.col < screenCols-1 {
		s.col++
	}
}

// openOnWrite starts a cue when direct captioning puts the first text on an
// empty display.
func (s *channelState) openOnWrite(frame timecode.Frame) {
	if s.active != nil {
		return
	}
	switch s.mode {
	case ModePaintOn:
		s.active = &openCue{start: frame}
	case ModeRollUp:
		s.active = &openCue{start: frame, rollUp: true, row: s.baseRow}
	}
}

// chars applies a printable character pair.
func (s *channelState) chars(b1, b2 byte, frame timecode.Frame) error {
	for _, b := range []byte{b1, b2} {
		if b < 0x20 {
			continue
		}
		if err := s.putChar(decodeBasic(b), false, frame); err != nil {
			return err
		}
	}
	return nil
}
