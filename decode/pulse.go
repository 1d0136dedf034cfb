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

import "github.com/pkg/errors"

// PulseDivisor bounds the number of pulses measured in a waveform to
// len(waveform)/PulseDivisor.
const PulseDivisor = 64

// PulseTrain is the list of low to low pulse widths in a waveform. Pulses
// are contiguous: each one starts where the previous ended.
type PulseTrain struct {
	// Lead is the number of samples before the first low crossing.
	Lead   int
	Widths []int
}

// Offset returns the sample index at which pulse idx starts. Offset(len)
// is the end of the last pulse.
func (pt PulseTrain) Offset(idx int) int {
	offset := pt.Lead
	for _, width := range pt.Widths[:idx] {
		offset += width
	}
	return offset
}

// Len returns the number of pulses.
func (pt PulseTrain) Len() int {
	return len(pt.Widths)
}

// Pulses measures the width of every pulse in the waveform. A pulse runs from
// a low crossing, up through the high threshold and back down to low.
func Pulses(w Waveform, t Threshold) (pt PulseTrain, err error) {
	if len(w) == 0 {
		return pt, errors.Wrap(ErrPrecondition, "pulses: empty waveform")
	}

	limit := len(w) / PulseDivisor
	pt.Widths = make([]int, 0, limit)

	idx := 0
	for idx < len(w) {
		for idx < len(w) && w[idx] > t.Low {
			idx++
		}
		start := idx
		if len(pt.Widths) == 0 {
			pt.Lead = start
		}

		for idx < len(w) && w[idx] < t.High {
			idx++
		}
		for idx < len(w) && w[idx] > t.Low {
			idx++
		}

		if len(pt.Widths) >= limit {
			break
		}
		pt.Widths = append(pt.Widths, idx-start)
	}

	return pt, nil
}

// SkipHigh advances from offset while the waveform is above the low
// threshold and returns the index of the next low crossing.
func SkipHigh(w Waveform, t Threshold, offset int) int {
	for offset < len(w) && w[offset] > t.Low {
		offset++
	}
	return offset
}
