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

package decode

import (
	"strings"

	"github.com/pkg/errors"
)

// Bits is a coarse bit sequence, one bit per clock cell, one bit per byte.
type Bits []byte

// Invert returns a bit-inverted copy. The receiver is left untouched.
func (b Bits) Invert() Bits {
	inv := make(Bits, len(b))
	for idx, bit := range b {
		inv[idx] = bit ^ 1
	}
	return inv
}

func (b Bits) String() string {
	var sb strings.Builder
	sb.Grow(len(b))
	for _, bit := range b {
		sb.WriteByte('0' + bit)
	}
	return sb.String()
}

// ParseBits converts a string of ascii 0's and 1's into numerical 0's and 1's.
func ParseBits(s string) (Bits, error) {
	bits := make(Bits, len(s))
	for idx, c := range s {
		switch c {
		case '0':
		case '1':
			bits[idx] = 1
		default:
			return nil, errors.Wrapf(ErrPrecondition, "invalid bit %q at %d", c, idx)
		}
	}
	return bits, nil
}

// Extract demodulates a Manchester coded waveform into one bit per clock
// sized cell. A cell that reaches only one extremum contains a bit
// transition and toggles the running bit; a cell reaching both (or neither)
// holds it.
//
// The leading samples of a cell still sitting on the extremum the previous
// cell ended on are trailing edge from that cell and don't count. In the
// very first cell there is no previous extremum, so only the first touch is
// dropped.
func Extract(w Waveform, t Threshold, clock int) (Bits, error) {
	if len(w) == 0 {
		return nil, errors.Wrap(ErrPrecondition, "extract: empty waveform")
	}
	if clock <= 0 {
		return nil, errors.Wrapf(ErrPrecondition, "extract: clock must be positive: %d", clock)
	}

	bits := make(Bits, len(w)/clock)

	var bit byte
	carry := touchNone
	for idx := range bits {
		var hitHigh, hitLow bool
		first := true

		for _, v := range w[idx*clock : (idx+1)*clock] {
			tch := t.touch(v)
			if tch == touchNone {
				first = false
				continue
			}

			if first {
				if carry == touchNone || tch == carry {
					if carry == touchNone {
						first = false
					}
					carry = tch
					continue
				}
				first = false
			}

			if tch == touchHigh {
				hitHigh = true
			} else {
				hitLow = true
			}
			carry = tch
		}

		// If we didn't hit both peaks, we had a bit transition.
		if hitHigh != hitLow {
			bit ^= 1
		}
		bits[idx] = bit
	}

	return bits, nil
}
