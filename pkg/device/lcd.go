package device

import (
	"fmt"
	"io"
	"strings"
	"sync"
)

// LCD geometry of the 16x2 character module.
const (
	LCDCols = 16
	LCDRows = 2
)

// LCD emulates a 16x2 character module. Each change is rendered to Out
// if set.
type LCD struct {
	Out io.Writer

	lock       sync.Mutex
	rows       [LCDRows][LCDCols]byte
	row, col   int
	autoscroll bool
}

// NewLCD creates a cleared LCD.
func NewLCD(out io.Writer) *LCD {
	l := &LCD{Out: out}
	l.clear()
	return l
}

// ClearAndWrite implements Display.
func (l *LCD) ClearAndWrite(text string) {
	l.lock.Lock()
	defer l.lock.Unlock()
	l.clear()
	l.autoscroll = false
	for _, c := range glyphs(text) {
		l.put(c)
	}
	l.render()
}

// Print implements Display.
func (l *LCD) Print(text string) {
	l.lock.Lock()
	defer l.lock.Unlock()
	for _, c := range glyphs(text) {
		if l.autoscroll {
			copy(l.rows[0][:], l.rows[0][1:])
			l.rows[0][LCDCols-1] = c
		} else {
			l.put(c)
		}
	}
	l.render()
}

// SetAutoscroll implements Display.
func (l *LCD) SetAutoscroll() {
	l.lock.Lock()
	defer l.lock.Unlock()
	l.clear()
	l.autoscroll = true
	l.render()
}

// Lines returns the visible rows with trailing blanks trimmed.
func (l *LCD) Lines() []string {
	l.lock.Lock()
	defer l.lock.Unlock()
	lines := make([]string, LCDRows)
	for i := range l.rows {
		lines[i] = strings.TrimRight(string(l.rows[i][:]), " ")
	}
	return lines
}

func (l *LCD) clear() {
	for i := range l.rows {
		for j := range l.rows[i] {
			l.rows[i][j] = ' '
		}
	}
	l.row, l.col = 0, 0
}

// put writes at the cursor. Past the last row, text is lost.
func (l *LCD) put(c byte) {
	if l.col >= LCDCols {
		l.row, l.col = l.row+1, 0
	}
	if l.row >= LCDRows {
		return
	}
	l.rows[l.row][l.col] = c
	l.col++
}

func (l *LCD) render() {
	if l.Out == nil {
		return
	}
	border := "+" + strings.Repeat("-", LCDCols) + "+"
	fmt.Fprintln(l.Out, border)
	for i := range l.rows {
		fmt.Fprintf(l.Out, "|%s|\n", l.rows[i][:])
	}
	fmt.Fprintln(l.Out, border)
}

// glyphs maps text to the character ROM, which is ASCII only.
func glyphs(text string) []byte {
	out := make([]byte, 0, len(text))
	for _, r := range text {
		if r < 0x20 || r > 0x7e {
			r = '?'
		}
		out = append(out, byte(r))
	}
	return out
}
