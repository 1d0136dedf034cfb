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
	"fmt"

	"github.com/bemasher/lfem4x/decode"
	"github.com/pkg/errors"
)

// Card is the family of writable tag an id is cloned onto.
type Card uint8

const (
	T5555 Card = iota
	T55x7
)

func (c Card) String() string {
	switch c {
	case T5555:
		return "T5555"
	case T55x7:
		return "T55x7"
	}
	return fmt.Sprintf("Card(%d)", uint8(c))
}

// WriteRequest asks the reader firmware to clone an id onto a writable card.
type WriteRequest struct {
	ID    uint64
	Card  Card
	Clock int
}

// NewWriteRequest validates the request. Only T55x7 cards take a clock:
// 0 selects 64, otherwise 16, 32 or 64.
func NewWriteRequest(id uint64, card Card, clock int) (req WriteRequest, err error) {
	if id > MaxID {
		return req, errors.Wrapf(decode.ErrPrecondition, "id longer than 40 bits: %#x", id)
	}

	switch card {
	case T5555:
		if clock != 0 {
			return req, errors.Wrapf(decode.ErrPrecondition, "clock rate only supported on %s tags", T55x7)
		}
	case T55x7:
		if clock == 0 {
			clock = Clock
		}
		if clock != 16 && clock != 32 && clock != 64 {
			return req, errors.Wrapf(decode.ErrPrecondition, "clock rate %d not valid, supported rates are 16, 32 and 64", clock)
		}
	default:
		return req, errors.Wrapf(decode.ErrPrecondition, "bad card type: %s", card)
	}

	return WriteRequest{ID: id, Card: card, Clock: clock}, nil
}

// Args packs the request into the three command arguments. The clock rides
// in bits 8-15 of the card argument.
func (r WriteRequest) Args() [3]uint32 {
	return [3]uint32{
		uint32(r.Card) | uint32(r.Clock<<8)&0xFF00,
		uint32(r.ID >> 32),
		uint32(r.ID),
	}
}

func (r WriteRequest) String() string {
	if r.Card == T55x7 {
		return fmt.Sprintf("{Card:%s ID:%010X Clock:%d}", r.Card, r.ID, r.Clock)
	}
	return fmt.Sprintf("{Card:%s ID:%010X}", r.Card, r.ID)
}
