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
package em410x

import (
	"context"

	"github.com/bemasher/lfem4x/decode"
	"github.com/bemasher/lfem4x/gen"
	"github.com/pkg/errors"
)

// FrameBits lays out the 64-bit frame for id, most significant nibble first.
func FrameBits(id uint64) (decode.Bits, error) {
	if id > MaxID {
		return nil, errors.Wrapf(decode.ErrPrecondition, "id longer than 40 bits: %#x", id)
	}
	return Layout.Encode(Layout.Split(id))
}

// Encode emits the waveform for id at the stock clock.
func Encode(id uint64) (decode.Waveform, error) {
	return EncodeClock(id, Clock)
}

// EncodeClock emits one Manchester symbol of clock samples per frame bit.
func EncodeClock(id uint64, clock int) (decode.Waveform, error) {
	if clock < 2 {
		return nil, errors.Wrapf(decode.ErrPrecondition, "clock too short: %d", clock)
	}

	bits, err := FrameBits(id)
	if err != nil {
		return nil, err
	}

	return gen.Manchester(bits, clock), nil
}

// Player drives tag emulation hardware with a waveform.
type Player interface {
	Play(ctx context.Context, w decode.Waveform, gap int) error
}

// Simulation is a waveform ready for playback.
type Simulation struct {
	ID       uint64
	Waveform decode.Waveform
	Gap      int
}

func NewSimulation(id uint64) (sim Simulation, err error) {
	sim.ID = id
	sim.Gap = SimGap
	sim.Waveform, err = Encode(id)
	return sim, err
}

// Simulate encodes id and hands it to the player.
func Simulate(ctx context.Context, p Player, id uint64) (Simulation, error) {
	sim, err := NewSimulation(id)
	if err != nil {
		return sim, err
	}

	return sim, errors.Wrap(p.Play(ctx, sim.Waveform, sim.Gap), "simulate")
}
