// Package parity computes the even row and column parity used by EM4x tags.
package parity

import "fmt"

// Table maps a byte to its even parity bit.
type Table [256]byte

// NewTable precomputes the parity of every byte value.
func NewTable() (table Table) {
	for tIdx := range table {
		var p byte
		for v := tIdx; v > 0; v >>= 1 {
			p ^= byte(v & 1)
		}
		table[tIdx] = p
	}
	return table
}

var table = NewTable()

// Even returns the bit that makes the number of set bits in v even.
func Even(v byte) byte {
	return table[v]
}

// Rows computes the parity bit of each row and the column parity across all
// rows. Each row holds width data bits, MSB first.
type Rows struct {
	Width  int
	Values []byte
}

func (r Rows) String() string {
	return fmt.Sprintf("{Width:%d Rows:%d Column:%0*b}", r.Width, len(r.Values), r.Width, r.Column())
}

// Row returns the even parity bit of row idx.
func (r Rows) Row(idx int) byte {
	return Even(r.Values[idx] & r.mask())
}

// Column returns the column parity bits packed the same way as a row.
func (r Rows) Column() (column byte) {
	for _, v := range r.Values {
		column ^= v & r.mask()
	}
	return column
}

// Check reports whether every row's parity bit and the column parity match.
func (r Rows) Check(rowParity []byte, column byte) bool {
	if len(rowParity) != len(r.Values) {
		return false
	}
	for idx := range r.Values {
		if r.Row(idx) != rowParity[idx] {
			return false
		}
	}
	return r.Column() == column&r.mask()
}

func (r Rows) mask() byte {
	return byte(1<<uint(r.Width) - 1)
}
