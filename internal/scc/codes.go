package scc

import (
	"fmt"
	"math/bits"
	"strconv"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Header is the first line of every Scenarist caption file.
const Header = "Scenarist_SCC V1.0"

const (
	screenRows = 15
	screenCols = 32
)

// Word is one transmitted byte pair: first byte in the high 8 bits.
type Word uint16

func newWord(b1, b2 byte) Word {
	return Word(withParity(b1))<<8 | Word(withParity(b2))
}

// ParseWord reads a 4 hex digit token such as "9420".
func ParseWord(token string) (Word, error) {
	if len(token) != 4 {
		return 0, fmt.Errorf("%w: %q has %d digits", ErrMalformedCommandToken, token, len(token))
	}
	v, err := strconv.ParseUint(token, 16, 16)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not hex", ErrMalformedCommandToken, token)
	}
	return Word(v), nil
}

func (w Word) String() string {
	return fmt.Sprintf("%04x", uint16(w))
}

// Bytes returns both bytes with parity bits removed.
func (w Word) Bytes() (byte, byte) {
	return byte(w>>8) & 0x7f, byte(w) & 0x7f
}

func (w Word) isControl() bool {
	b1, _ := w.Bytes()
	return b1 >= 0x10 && b1 <= 0x1f
}

// withParity sets bit 7 so the byte carries odd parity.
func withParity(b byte) byte {
	b &= 0x7f
	if bits.OnesCount8(b)%2 == 0 {
		return b | 0x80
	}
	return b
}

// miscellaneous control codes, second byte after a 0x14 (CC1) or 0x1c (CC2)
// first byte
const (
	cmdRCL byte = 0x20 // resume caption loading
	cmdBS  byte = 0x21 // backspace
	cmdAOF byte = 0x22
	cmdAON byte = 0x23
	cmdDER byte = 0x24 // delete to end of row
	cmdRU2 byte = 0x25
	cmdRU3 byte = 0x26
	cmdRU4 byte = 0x27
	cmdFON byte = 0x28
	cmdRDC byte = 0x29 // resume direct captioning
	cmdTR  byte = 0x2a
	cmdRTD byte = 0x2b
	cmdEDM byte = 0x2c // erase displayed memory
	cmdCR  byte = 0x2d
	cmdENM byte = 0x2e // erase non-displayed memory
	cmdEOC byte = 0x2f // end of caption
)

var commandNames = map[byte]string{
	cmdRCL: "RCL",
	cmdBS:  "BS",
	cmdAOF: "AOF",
	cmdAON: "AON",
	cmdDER: "DER",
	cmdRU2: "RU2",
	cmdRU3: "RU3",
	cmdRU4: "RU4",
	cmdFON: "FON",
	cmdRDC: "RDC",
	cmdTR:  "TR",
	cmdRTD: "RTD",
	cmdEDM: "EDM",
	cmdCR:  "CR",
	cmdENM: "ENM",
	cmdEOC: "EOC",
}

// Channel is a field 1 data channel: 1 for CC1, 2 for CC2.
type Channel int

func (c Channel) prefix() byte {
	if c == 2 {
		return 0x08
	}
	return 0
}

func commandWord(ch Channel, cmd byte) Word {
	return newWord(0x14|ch.prefix(), cmd)
}

// PAC first byte and whether the second byte uses the 0x60 range, by row
var pacRows = [screenRows + 1]struct {
	b1   byte
	high bool
}{
	1:  {0x11, false},
	2:  {0x11, true},
	3:  {0x12, false},
	4:  {0x12, true},
	5:  {0x15, false},
	6:  {0x15, true},
	7:  {0x16, false},
	8:  {0x16, true},
	9:  {0x17, false},
	10: {0x17, true},
	11: {0x10, false},
	12: {0x13, false},
	13: {0x13, true},
	14: {0x14, false},
	15: {0x14, true},
}

func pacRow(b1, b2 byte) int {
	high := b2&0x20 != 0
	for row := 1; row <= screenRows; row++ {
		if pacRows[row].b1 == b1 && pacRows[row].high == high {
			return row
		}
	}
	return 0
}

// pacWord builds an indent preamble for row at column indent (multiple of
// four) in plain white.
func pacWord(ch Channel, row, indent int) Word {
	p := pacRows[row]
	b2 := byte(0x50) | byte(indent/4)<<1
	if p.high {
		b2 |= 0x20
	}
	return newWord(p.b1|ch.prefix(), b2)
}

type attrs struct {
	italic    bool
	underline bool
}

// pac describes a decoded preamble address code.
type pac struct {
	row    int
	indent int
	attrs  attrs
}

func decodePAC(b1, b2 byte) (pac, bool) {
	row := pacRow(b1, b2)
	if row == 0 || (row == 11 && b2&0x20 != 0) {
		return pac{}, false
	}
	v := b2 & 0x1f
	p := pac{row: row}
	p.attrs.underline = v&0x01 != 0
	if v < 0x10 {
		p.attrs.italic = v>>1 == 7
	} else {
		p.indent = int(v&0x0e) * 2
	}
	return p, true
}

// midRowWord switches style mid-row; it also occupies one column.
func midRowWord(ch Channel, a attrs) Word {
	b2 := byte(0x20)
	if a.italic {
		b2 = 0x2e
	}
	if a.underline {
		b2 |= 0x01
	}
	return newWord(0x11|ch.prefix(), b2)
}

func decodeMidRow(b2 byte) attrs {
	v := b2 & 0x0f
	return attrs{
		italic:    v>>1 == 7,
		underline: v&0x01 != 0,
	}
}

func tabWord(ch Channel, n int) Word {
	return newWord(0x17|ch.prefix(), 0x20+byte(n))
}

// basic character set differences from ASCII
var basicOverrides = map[byte]rune{
	0x2a: 'á',
	0x5c: 'é',
	0x5e: 'í',
	0x5f: 'ó',
	0x60: 'ú',
	0x7b: 'ç',
	0x7c: '÷',
	0x7d: 'Ñ',
	0x7e: 'ñ',
	0x7f: '█',
}

// special characters, second byte after 0x11
var specialChars = map[byte]rune{
	0x30: '®',
	0x31: '°',
	0x32: '½',
	0x33: '¿',
	0x34: '™',
	0x35: '¢',
	0x36: '£',
	0x37: '♪',
	0x38: 'à',
	0x39: '\u00a0',
	0x3a: 'è',
	0x3b: 'â',
	0x3c: 'ê',
	0x3d: 'î',
	0x3e: 'ô',
	0x3f: 'û',
}

// extended Spanish/French set, second byte after 0x12
var extendedChars12 = map[byte]rune{
	0x20: 'Á', 0x21: 'É', 0x22: 'Ó', 0x23: 'Ú',
	0x24: 'Ü', 0x25: 'ü', 0x26: '‘', 0x27: '¡',
	0x28: '*', 0x29: '’', 0x2a: '—', 0x2b: '©',
	0x2c: '℠', 0x2d: '•', 0x2e: '“', 0x2f: '”',
	0x30: 'À', 0x31: 'Â', 0x32: 'Ç', 0x33: 'È',
	0x34: 'Ê', 0x35: 'Ë', 0x36: 'ë', 0x37: 'Î',
	0x38: 'Ï', 0x39: 'ï', 0x3a: 'Ô', 0x3b: 'Ù',
	0x3c: 'ù', 0x3d: 'Û', 0x3e: '«', 0x3f: '»',
}

// extended Portuguese/German/Danish set, second byte after 0x13
var extendedChars13 = map[byte]rune{
	0x20: 'Ã', 0x21: 'ã', 0x22: 'Í', 0x23: 'Ì',
	0x24: 'ì', 0x25: 'Ò', 0x26: 'ò', 0x27: 'Õ',
	0x28: 'õ', 0x29: '{', 0x2a: '}', 0x2b: '\\',
	0x2c: '^', 0x2d: '_', 0x2e: '|', 0x2f: '~',
	0x30: 'Ä', 0x31: 'ä', 0x32: 'Ö', 0x33: 'ö',
	0x34: 'ß', 0x35: '¥', 0x36: '¤', 0x37: '¦',
	0x38: 'Å', 0x39: 'å', 0x3a: 'Ø', 0x3b: 'ø',
	0x3c: '┌', 0x3d: '┐', 0x3e: '└', 0x3f: '┘',
}

// basic fallbacks shown by decoders that lack the extended set
var extendedFallbacks = map[rune]byte{
	'‘': '\'', '’': '\'', '¡': '!', '*': '.', '—': '-',
	'©': 'c', '℠': 's', '•': '.', '“': '"', '”': '"',
	'«': '"', '»': '"', '{': '(', '}': ')', '\\': '/',
	'^': '\'', '_': '-', '|': '!', '~': '-', 'ß': 's',
	'¥': 'Y', '¤': 'o', '¦': '!', 'Ø': 'O', 'ø': 'o',
	'┌': '+', '┐': '+', '└': '+', '┘': '+',
}

func decodeBasic(b byte) rune {
	if r, ok := basicOverrides[b]; ok {
		return r
	}
	return rune(b)
}

type encodingKind int

const (
	encBasic encodingKind = iota
	encSpecial
	encExtended
)

// charCode is how a single rune goes on the wire.
type charCode struct {
	kind     encodingKind
	b1       byte // basic byte, or first byte of a special/extended code
	b2       byte
	fallback byte
}

var runeCodes = buildRuneCodes()

func buildRuneCodes() map[rune]charCode {
	codes := make(map[rune]charCode)
	for b := byte(0x20); b < 0x80; b++ {
		codes[decodeBasic(b)] = charCode{kind: encBasic, b1: b}
	}
	for b2, r := range specialChars {
		codes[r] = charCode{kind: encSpecial, b1: 0x11, b2: b2}
	}
	for b1, table := range map[byte]map[byte]rune{0x12: extendedChars12, 0x13: extendedChars13} {
		for b2, r := range table {
			if _, ok := codes[r]; ok {
				continue
			}
			codes[r] = charCode{
				kind:     encExtended,
				b1:       b1,
				b2:       b2,
				fallback: extendedFallback(r),
			}
		}
	}
	return codes
}

func extendedFallback(r rune) byte {
	if b, ok := extendedFallbacks[r]; ok {
		return b
	}
	if base, ok := stripAccent(r); ok {
		if c, ok := runeCodesBasic(base); ok {
			return c
		}
	}
	return ' '
}

func runeCodesBasic(r rune) (byte, bool) {
	if r < 0x20 || r >= 0x7f {
		return 0, false
	}
	if _, overridden := basicOverrides[byte(r)]; overridden {
		return 0, false
	}
	return byte(r), true
}

// stripAccent maps a rune to its unaccented form when that is a single rune.
func stripAccent(r rune) (rune, bool) {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, string(r))
	if err != nil {
		return 0, false
	}
	rs := []rune(out)
	if len(rs) != 1 || rs[0] == r {
		return 0, false
	}
	return rs[0], true
}

// lookupRune finds the wire encoding of r, falling back to its unaccented form.
func lookupRune(r rune) (charCode, bool) {
	if c, ok := runeCodes[r]; ok {
		return c, true
	}
	switch r {
	case '\t':
		return runeCodes[' '], true
	case '`':
		return runeCodes['‘'], true
	}
	if base, ok := stripAccent(r); ok {
		if c, ok := runeCodes[base]; ok {
			return c, true
		}
	}
	return charCode{}, false
}
