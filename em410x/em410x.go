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

// Package em410x reads and writes the 64-bit EM410x identifier frame.
package em410x

import (
	"fmt"
	"strconv"

	"github.com/bemasher/lfem4x/decode"
	"github.com/bemasher/lfem4x/frame"
	"github.com/bemasher/lfem4x/parse"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const (
	HeaderBits = 9
	Rows       = 10
	RowBits    = 4

	// Clock is the number of samples per symbol of a stock tag.
	Clock = 64
	// SimGap is the leading gap handed to the playback collaborator.
	SimGap = 240

	MaxID = 1<<(Rows*RowBits) - 1

	MsgType = "EM410x"
)

// Layout of a full frame: header, ten parity checked nibbles, column parity
// and stop bit.
var Layout = frame.Layout{Name: MsgType, HeaderBits: HeaderBits, Rows: Rows, RowBits: RowBits}

func init() {
	parse.Register("em410x", NewParser)
}

// Tag is a decoded identifier. ID is in natural order, each nibble as it was
// transmitted. Unique holds the same nibbles with their bits reversed.
type Tag struct {
	ID     uint64
	Unique uint64
	Column byte

	// Offset of the frame header in bits.
	Offset   int
	Inverted bool
}

func newTag(f frame.Frame) Tag {
	return Tag{
		ID:       f.Natural,
		Unique:   f.Unique,
		Column:   f.Column,
		Offset:   f.Offset,
		Inverted: f.Inverted,
	}
}

// Hex renders the natural ordering.
func (t Tag) Hex() string {
	return fmt.Sprintf("%010X", t.ID)
}

// UniqueHex renders the unique ordering.
func (t Tag) UniqueHex() string {
	return fmt.Sprintf("%010X", t.Unique)
}

func (t Tag) MsgType() string {
	return MsgType
}

func (t Tag) TagID() uint64 {
	return t.ID
}

func (t Tag) Checksum() []byte {
	return []byte{t.Column}
}

func (t Tag) String() string {
	return fmt.Sprintf("{ID:%s Unique:%s Inverted:%t}", t.Hex(), t.UniqueHex(), t.Inverted)
}

func (t Tag) Header() []string {
	return []string{"ID", "Unique", "Column", "Offset", "Inverted"}
}

func (t Tag) Record() (r []string) {
	r = append(r, t.Hex())
	r = append(r, t.UniqueHex())
	r = append(r, fmt.Sprintf("%04b", t.Column))
	r = append(r, strconv.Itoa(t.Offset))
	r = append(r, strconv.FormatBool(t.Inverted))
	return r
}

// Decoder turns waveforms into tags.
type Decoder struct {
	Clock int
	Log   logrus.FieldLogger

	// Trace receives every resynchronization of the frame scanner.
	Trace func(frame.Event)
}

func NewDecoder(clock int, log logrus.FieldLogger) Decoder {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return Decoder{Clock: clock, Log: log}
}

func (d Decoder) scanner(l frame.Layout) frame.Scanner {
	return frame.Scanner{Layout: l, Log: d.Log, Trace: d.Trace}
}

// Decode demodulates the waveform at the decoder's clock and returns the
// first valid frame.
func (d Decoder) Decode(w decode.Waveform) (Tag, error) {
	thr, err := decode.Estimate(w)
	if err != nil {
		return Tag{}, err
	}
	if d.Log != nil {
		thr.Log(d.Log)
	}

	bits, err := decode.Extract(w, thr, d.Clock)
	if err != nil {
		return Tag{}, err
	}

	return d.DecodeBits(bits)
}

// DecodeBits searches a demodulated bit sequence, retrying once inverted.
func (d Decoder) DecodeBits(bits decode.Bits) (Tag, error) {
	f, err := d.scanner(Layout).Decode(bits)
	if err != nil {
		return Tag{}, err
	}

	tag := newTag(f)
	if d.Log != nil {
		d.Log.WithFields(logrus.Fields{
			"id":       tag.Hex(),
			"unique":   tag.UniqueHex(),
			"offset":   tag.Offset,
			"inverted": tag.Inverted,
		}).Info("found EM410x tag")
	}
	return tag, nil
}

// Parser adapts the decoder to the tag family registry.
type Parser struct {
	Decoder
}

func NewParser(clock int, log logrus.FieldLogger) parse.Parser {
	return Parser{NewDecoder(clock, log)}
}

func (p Parser) Clock() int {
	return p.Decoder.Clock
}

// Parse reports at most one tag. A waveform without a frame is not an error.
func (p Parser) Parse(w decode.Waveform) ([]parse.Message, error) {
	tag, err := p.Decode(w)
	if errors.Is(err, decode.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return []parse.Message{tag}, nil
}
