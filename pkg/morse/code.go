// Package morse provides the code table, symbol capture and decoding of
// single Morse symbols.
package morse

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

// Mark is a single element of a Morse symbol.
type Mark byte

// Marks
const (
	Dot  Mark = 0
	Dash Mark = 1
)

// String implements fmt.Stringer.
func (m Mark) String() string {
	if m == Dash {
		return "-"
	}
	return "."
}

// Pattern is an ordered sequence of marks.
type Pattern []Mark

// String renders the pattern using '.' and '-'.
func (p Pattern) String() string {
	var sb strings.Builder
	for _, m := range p {
		sb.WriteString(m.String())
	}
	return sb.String()
}

// ParsePattern parses a pattern written with '.' and '-'.
func ParsePattern(s string) (Pattern, error) {
	p := make(Pattern, 0, len(s))
	for _, c := range s {
		switch c {
		case '.':
			p = append(p, Dot)
		case '-':
			p = append(p, Dash)
		default:
			return nil, fmt.Errorf("invalid mark %q in pattern %q", c, s)
		}
	}
	return p, nil
}

// MaxPatternLen is the longest pattern in the table.
const MaxPatternLen = 5

// TableEntry maps a character to its pattern.
type TableEntry struct {
	Char    rune
	Pattern string
}

// Table lists the translatable characters in display order.
var Table = []TableEntry{
	{'A', ".-"}, {'B', "-..."}, {'C', "-.-."}, {'D', "-.."}, {'E', "."},
	{'F', "..-."}, {'G', "--."}, {'H', "...."}, {'I', ".."}, {'J', ".---"},
	{'K', "-.-"}, {'L', ".-.."}, {'M', "--"}, {'N', "-."}, {'O', "---"},
	{'P', ".--."}, {'Q', "--.-"}, {'R', ".-."}, {'S', "..."}, {'T', "-"},
	{'U', "..-"}, {'V', "...-"}, {'W', ".--"}, {'X', "-..-"}, {'Y', "-.--"},
	{'Z', "--.."},
	{'1', ".----"}, {'2', "..---"}, {'3', "...--"}, {'4', "....-"}, {'5', "....."},
	{'6', "-...."}, {'7', "--..."}, {'8', "---.."}, {'9', "----."}, {'0', "-----"},
}

var (
	byPattern map[string]rune
	byChar    map[rune]Pattern
)

func init() {
	var err error
	if byPattern, byChar, err = buildIndex(Table); err != nil {
		panic(err)
	}
}

func buildIndex(entries []TableEntry) (map[string]rune, map[rune]Pattern, error) {
	patterns := make(map[string]rune, len(entries))
	chars := make(map[rune]Pattern, len(entries))
	for _, ent := range entries {
		p, err := ParsePattern(ent.Pattern)
		if err != nil {
			return nil, nil, err
		}
		if len(p) == 0 || len(p) > MaxPatternLen {
			return nil, nil, fmt.Errorf("pattern of %q has invalid length %d", ent.Char, len(p))
		}
		if c, exists := patterns[ent.Pattern]; exists {
			return nil, nil, fmt.Errorf("pattern %q shared by %q and %q", ent.Pattern, c, ent.Char)
		}
		if _, exists := chars[ent.Char]; exists {
			return nil, nil, fmt.Errorf("character %q listed twice", ent.Char)
		}
		patterns[ent.Pattern] = ent.Char
		chars[ent.Char] = p
	}
	return patterns, chars, nil
}

// Lookup finds the character whose pattern equals p exactly.
// ok is false when nothing matches, including for empty patterns.
func Lookup(p Pattern) (c rune, ok bool) {
	if len(p) == 0 || len(p) > MaxPatternLen {
		return 0, false
	}
	c, ok = byPattern[p.String()]
	return
}

// Encode returns the pattern of a character, case-insensitive.
func Encode(c rune) (Pattern, bool) {
	p, ok := byChar[unicode.ToUpper(c)]
	if !ok {
		return nil, false
	}
	return append(Pattern(nil), p...), true
}

// ErrNotEncodable indicates a character outside the code table.
var ErrNotEncodable = errors.New("character not encodable")

// EncodeText converts text into messages, one per character. Each run
// of whitespace becomes a single word space.
func EncodeText(text string) ([]*Message, error) {
	var out []*Message
	space := false
	for _, c := range text {
		if unicode.IsSpace(c) {
			if !space && len(out) > 0 {
				out = append(out, SpaceMessage())
			}
			space = true
			continue
		}
		space = false
		p, ok := Encode(c)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrNotEncodable, c)
		}
		out = append(out, Frame(p, len(p), false))
	}
	if n := len(out); n > 0 && out[n-1].Space {
		out = out[:n-1]
	}
	return out, nil
}
