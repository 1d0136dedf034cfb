// LFEM4X - A demodulator and encoder for EM410x and EM4x50 low frequency RFID tags.
// Copyright (C) 2015 Douglas Hall
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

// Package frame synchronizes on row/column parity framed bit sequences:
//
//	1111 1111 1           <-- header of identical bits (may be empty)
//	XXXX [row parity bit] <-- rows of data bits, each with even parity
//	....
//	CCCC                  <-- parity for each column of the rows above
//	0                     <-- stop bit
package frame

import (
	"fmt"

	"github.com/bemasher/lfem4x/decode"
	"github.com/bemasher/lfem4x/parity"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// MaxRowBits is the widest row a layout may describe.
const MaxRowBits = 8

// Layout describes the shape of a frame.
type Layout struct {
	Name       string
	HeaderBits int
	Rows       int
	RowBits    int
}

// Stride is the length of a row including its parity bit.
func (l Layout) Stride() int {
	return l.RowBits + 1
}

// Len is the total number of bits in a frame.
func (l Layout) Len() int {
	return l.HeaderBits + l.Rows*l.Stride() + l.Stride()
}

func (l Layout) String() string {
	return fmt.Sprintf("{Name:%s Header:%d Rows:%dx%d Len:%d}", l.Name, l.HeaderBits, l.Rows, l.RowBits, l.Len())
}

// Validate checks the layout fits the fixed size accumulators.
func (l Layout) Validate() error {
	if l.RowBits < 1 || l.RowBits > MaxRowBits {
		return errors.Wrapf(decode.ErrPrecondition, "%s: row bits out of range: %d", l.Name, l.RowBits)
	}
	if l.Rows < 1 || l.Rows*l.RowBits > 64 {
		return errors.Wrapf(decode.ErrPrecondition, "%s: rows out of range: %d", l.Name, l.Rows)
	}
	if l.HeaderBits < 0 {
		return errors.Wrapf(decode.ErrPrecondition, "%s: negative header: %d", l.Name, l.HeaderBits)
	}
	return nil
}

// Split cuts a packed value into rows, first row from the most significant
// bits.
func (l Layout) Split(v uint64) []byte {
	rows := make([]byte, l.Rows)
	mask := uint64(1)<<uint(l.RowBits) - 1
	for idx := range rows {
		rows[idx] = byte(v >> uint(l.RowBits*(l.Rows-1-idx)) & mask)
	}
	return rows
}

// Encode lays out a complete frame carrying the given rows.
func (l Layout) Encode(rows []byte) (decode.Bits, error) {
	if err := l.Validate(); err != nil {
		return nil, err
	}
	if len(rows) != l.Rows {
		return nil, errors.Wrapf(decode.ErrPrecondition, "%s: expected %d rows, got %d", l.Name, l.Rows, len(rows))
	}

	bits := make(decode.Bits, 0, l.Len())
	for i := 0; i < l.HeaderBits; i++ {
		bits = append(bits, 1)
	}

	appendRow := func(v byte) {
		for j := l.RowBits - 1; j >= 0; j-- {
			bits = append(bits, (v>>uint(j))&1)
		}
	}

	p := parity.Rows{Width: l.RowBits, Values: rows}
	for idx, v := range rows {
		if v>>uint(l.RowBits) != 0 {
			return nil, errors.Wrapf(decode.ErrPrecondition, "%s: row %d wider than %d bits: %#x", l.Name, idx, l.RowBits, v)
		}
		appendRow(v)
		bits = append(bits, p.Row(idx))
	}
	appendRow(p.Column())

	return append(bits, 0), nil
}

// rowRewind is how far the cursor moves back after a row fails parity. From
// the start of the failing row this lands one stride past the header start,
// or at the frame start itself for header-less layouts.
func (l Layout) rowRewind(rows int) int {
	back := l.Stride()
	if l.HeaderBits < back {
		back = l.HeaderBits
	}
	return l.HeaderBits + l.Stride()*rows - back
}

// trailerRewind takes the cursor from the trailer back to the header start.
func (l Layout) trailerRewind() int {
	return l.HeaderBits + l.Stride()*l.Rows
}

// Frame is a successfully synchronized and parity checked frame.
type Frame struct {
	Layout Layout

	// Offset of the first header bit in the bit sequence.
	Offset int
	// Inverted is set when the frame was only found in the inverted sequence.
	Inverted bool

	// Rows in transmission order, first bit most significant.
	Rows []byte
	// Natural packs Rows, first row most significant.
	Natural uint64
	// Unique packs the bit-reversed Rows, first row most significant.
	Unique uint64
	// Column holds the column parity, packed like a row.
	Column byte
}

func (f Frame) String() string {
	digits := (f.Layout.Rows*f.Layout.RowBits + 3) >> 2
	return fmt.Sprintf("{%s Offset:%d Inverted:%t Natural:%0*X Unique:%0*X}",
		f.Layout.Name, f.Offset, f.Inverted, digits, f.Natural, digits, f.Unique,
	)
}

// EventKind identifies a recovered framing failure.
type EventKind int

const (
	RowMismatch EventKind = iota
	TrailerMismatch
)

func (k EventKind) String() string {
	switch k {
	case RowMismatch:
		return "row"
	case TrailerMismatch:
		return "trailer"
	}
	return fmt.Sprintf("EventKind(%d)", int(k))
}

// Event reports a parity failure and the resulting resynchronization.
type Event struct {
	Kind EventKind
	// Row is the index of the failing row, or Rows for the trailer.
	Row int
	// Pos is the cursor at which the failure was detected.
	Pos int
	// Rewind is how far the cursor was moved back.
	Rewind int
	// Resume is the first bit the header search examines next.
	Resume int
	// Inverted is set during the second pass.
	Inverted bool
}

// Scanner searches bit sequences for frames of a given layout.
type Scanner struct {
	Layout Layout
	Log    logrus.FieldLogger

	// Trace, if set, is called for every resynchronization.
	Trace func(Event)
}

// NewScanner returns a scanner logging to the standard logrus logger.
func NewScanner(l Layout) Scanner {
	return Scanner{Layout: l, Log: logrus.StandardLogger()}
}

func (s Scanner) event(e Event) {
	if s.Log != nil {
		s.Log.WithFields(logrus.Fields{
			"layout":   s.Layout.Name,
			"kind":     e.Kind,
			"row":      e.Row,
			"pos":      e.Pos,
			"rewind":   e.Rewind,
			"inverted": e.Inverted,
		}).Debug("parity mismatch, resynchronizing")
	}
	if s.Trace != nil {
		s.Trace(e)
	}
}

// Decode looks for the first valid frame. If none is found the whole sequence
// is inverted and searched once more. The input is never modified.
func (s Scanner) Decode(bits decode.Bits) (Frame, error) {
	if err := s.Layout.Validate(); err != nil {
		return Frame{}, err
	}

	if f, ok := s.scan(bits, false); ok {
		return f, nil
	}

	if f, ok := s.scan(bits.Invert(), true); ok {
		return f, nil
	}

	return Frame{}, errors.Wrapf(decode.ErrNotFound, "%s: no valid frame in %d bits", s.Layout.Name, len(bits))
}

// scan is a single pass over bits. The first frame found wins.
func (s Scanner) scan(bits decode.Bits, inverted bool) (Frame, bool) {
	l := s.Layout
	stride := l.Stride()

	var (
		parity  [MaxRowBits]byte
		rows    []byte
		natural uint64
		unique  uint64
		header  int
	)

	reset := func() {
		parity = [MaxRowBits]byte{}
		rows = rows[:0]
		natural, unique = 0, 0
		header = 0
	}

	for i := 0; i <= len(bits)-stride; i++ {
		switch {
		// Header found, read rows.
		case header == l.HeaderBits && len(rows) < l.Rows:
			row := bits[i : i+stride]

			var sum, v, rev byte
			for j, bit := range row[:l.RowBits] {
				sum ^= bit
				v |= bit << uint(l.RowBits-1-j)
				rev |= bit << uint(j)
			}

			if sum != row[l.RowBits] {
				rewind := l.rowRewind(len(rows))
				s.event(Event{
					Kind:     RowMismatch,
					Row:      len(rows),
					Pos:      i,
					Rewind:   rewind,
					Resume:   i - rewind + 1,
					Inverted: inverted,
				})
				i -= rewind
				reset()
				continue
			}

			for j, bit := range row[:l.RowBits] {
				parity[j] ^= bit
			}
			rows = append(rows, v)
			natural = natural<<uint(l.RowBits) | uint64(v)
			unique = unique<<uint(l.RowBits) | uint64(rev)

			i += l.RowBits

		// All rows read, confirm column parity and stop bit.
		case len(rows) == l.Rows:
			ok := bits[i+l.RowBits] == 0
			var column byte
			for j, bit := range bits[i : i+l.RowBits] {
				ok = ok && bit == parity[j]
				column |= parity[j] << uint(l.RowBits-1-j)
			}

			if ok {
				return Frame{
					Layout:   l,
					Offset:   i - l.trailerRewind(),
					Inverted: inverted,
					Rows:     append([]byte(nil), rows...),
					Natural:  natural,
					Unique:   unique,
					Column:   column,
				}, true
			}

			rewind := l.trailerRewind()
			s.event(Event{
				Kind:     TrailerMismatch,
				Row:      l.Rows,
				Pos:      i,
				Rewind:   rewind,
				Resume:   i - rewind + 1,
				Inverted: inverted,
			})
			i -= rewind
			reset()

		// Look for the header.
		case header < l.HeaderBits:
			if bits[i] == 1 {
				header++
			} else {
				header = 0
			}
		}
	}

	return Frame{}, false
}
