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
	"github.com/bemasher/lfem4x/decode"
	"github.com/bemasher/lfem4x/frame"
	"github.com/sirupsen/logrus"
)

// headerless matches the rows, column parity and stop bit of a frame whose
// header has already been stripped.
var headerless = frame.Layout{Name: MsgType + "/confirm", Rows: Rows, RowBits: RowBits}

// Confirm checks the row and column parity of a frame written as a string
// of '0' and '1'. The first HeaderBits characters are skipped, so a tag's
// Offset is where its header would start in s.
func Confirm(s string) (Tag, error) {
	return Decoder{Log: logrus.StandardLogger()}.Confirm(s)
}

func (d Decoder) Confirm(s string) (Tag, error) {
	bits, err := decode.ParseBits(s)
	if err != nil {
		return Tag{}, err
	}

	if len(bits) > HeaderBits {
		bits = bits[HeaderBits:]
	} else {
		bits = nil
	}

	f, err := d.scanner(headerless).Decode(bits)
	if err != nil {
		return Tag{}, err
	}

	return newTag(f), nil
}
