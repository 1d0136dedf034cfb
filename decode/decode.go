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

// Package decode turns raw LF sample buffers into coarse bit sequences and
// pulse trains.
package decode

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

var (
	// ErrPrecondition is returned before any work is done when an input is
	// degenerate: empty waveform, non-positive clock, out of range values.
	ErrPrecondition = errors.New("precondition violated")

	// ErrNotFound is returned when no valid frame or marker could be located.
	ErrNotFound = errors.New("not found")
)

// Waveform is an ordered sequence of signed sample amplitudes.
type Waveform []int

// FromBytes converts an unsigned 8-bit sample buffer, as returned by the
// reader firmware, into a waveform.
func FromBytes(data []byte) Waveform {
	w := make(Waveform, len(data))
	for idx, b := range data {
		w[idx] = int(b)
	}
	return w
}

// Threshold holds the extrema of a waveform. High is always >= Low.
type Threshold struct {
	High int
	Low  int
}

func (t Threshold) String() string {
	return fmt.Sprintf("{High:%d Low:%d}", t.High, t.Low)
}

// Log writes the threshold to the given logger.
func (t Threshold) Log(log logrus.FieldLogger) {
	log.WithFields(logrus.Fields{
		"high": t.High,
		"low":  t.Low,
	}).Debug("threshold")
}

// Estimate scans the waveform once for its maximum and minimum.
func Estimate(w Waveform) (t Threshold, err error) {
	if len(w) == 0 {
		return t, errors.Wrap(ErrPrecondition, "estimate: empty waveform")
	}

	t.High, t.Low = w[0], w[0]
	for _, v := range w[1:] {
		if v > t.High {
			t.High = v
		} else if v < t.Low {
			t.Low = v
		}
	}

	return t, nil
}

// Modulated reports whether w reaches both extrema of the threshold. A flat
// waveform, or a threshold with High == Low, carries no symbols.
func (t Threshold) Modulated(w Waveform) bool {
	if t.High <= t.Low {
		return false
	}

	var high, low bool
	for _, v := range w {
		switch t.touch(v) {
		case touchHigh:
			high = true
		case touchLow:
			low = true
		}
		if high && low {
			return true
		}
	}
	return false
}

type touch uint8

const (
	touchNone touch = iota
	touchHigh
	touchLow
)

// touch reports which extremum, if any, the sample reaches.
func (t Threshold) touch(v int) touch {
	switch {
	case v >= t.High:
		return touchHigh
	case v <= t.Low:
		return touchLow
	}
	return touchNone
}
