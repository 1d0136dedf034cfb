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
// Package em4x50 segments EM4x50 transmissions into data blocks.
//
// A transmission opens with two Listen Windows (LW), each measured as a long
// pulse followed by a short one. Every block is framed like an EM410x frame
// without a header:
//
//	XXXXXXXX [row parity bit (even)] <- 8 bits plus parity, 4 rows
//	CCCCCCCC                         <- column parity bits
//	0                                <- stop bit
//	LW                               <- Listen Window
package em4x50

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/bemasher/lfem4x/decode"
	"github.com/bemasher/lfem4x/frame"
	"github.com/bemasher/lfem4x/parse"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const (
	// Clock is the number of samples per data symbol.
	Clock = 64
	// Guard is added past the low crossing that follows a marker.
	Guard = 8
	// MaxBlocks is the number of blocks a read walks.
	MaxBlocks = 6

	MsgType = "EM4x50"
)

// Band is an inclusive range of pulse widths.
type Band struct {
	Min, Max int
}

func (b Band) Contains(width int) bool {
	return b.Min <= width && width <= b.Max
}

var (
	Long  = Band{190, 194}
	Short = Band{126, 130}
)

// BlockLayout frames one 32-bit block.
var BlockLayout = frame.Layout{Name: MsgType, HeaderBits: 0, Rows: 4, RowBits: 8}

func init() {
	parse.Register("em4x50", NewParser)
}

// Marker locates a Listen Window in the pulse train.
type Marker struct {
	// Index of the first pulse of the marker.
	Index int
	// Offset is the sample at which that pulse starts.
	Offset int
}

// Block is one segmented block. Err is set when its rows could not be
// decoded, the offset is still reported.
type Block struct {
	Index  int
	Offset int
	Length int

	Data     uint32
	Rows     []byte
	Column   byte
	Inverted bool

	Err error
}

func (b Block) Valid() bool {
	return b.Err == nil
}

func (b Block) MsgType() string {
	return MsgType
}

func (b Block) TagID() uint64 {
	return uint64(b.Data)
}

func (b Block) Checksum() []byte {
	return []byte{b.Column}
}

func (b Block) String() string {
	if b.Err != nil {
		return fmt.Sprintf("{Block:%d Offset:%d Err:%q}", b.Index, b.Offset, b.Err)
	}
	return fmt.Sprintf("{Block:%d Offset:%d Data:%08X Inverted:%t}", b.Index, b.Offset, b.Data, b.Inverted)
}

func (b Block) Header() []string {
	return []string{"Block", "Offset", "Data", "Column", "Inverted"}
}

func (b Block) Record() (r []string) {
	r = append(r, strconv.Itoa(b.Index))
	r = append(r, strconv.Itoa(b.Offset))
	r = append(r, fmt.Sprintf("%08X", b.Data))
	r = append(r, fmt.Sprintf("%08b", b.Column))
	r = append(r, strconv.FormatBool(b.Inverted))
	return r
}

// Reason explains why a result is partial.
type Reason string

const (
	NoEndMarker Reason = "no end marker"
	ShortRead   Reason = "short read"
)

// Result of segmenting a transmission. A result with reasons is partial but
// still carries everything that was framed.
type Result struct {
	Threshold decode.Threshold
	Pulses    decode.PulseTrain

	Start Marker
	// End is only meaningful when EndFound is set.
	End      Marker
	EndFound bool

	// DataStart is the sample at which block 0 begins.
	DataStart int
	Blocks    []Block

	Reasons []Reason
}

func (r Result) Partial() bool {
	return len(r.Reasons) > 0
}

func (r Result) String() string {
	var reasons []string
	for _, reason := range r.Reasons {
		reasons = append(reasons, string(reason))
	}
	return fmt.Sprintf("{Start:%d DataStart:%d Blocks:%d Partial:%t Reasons:[%s]}",
		r.Start.Offset, r.DataStart, len(r.Blocks), r.Partial(), strings.Join(reasons, ","),
	)
}

// Segmenter locates markers and blocks in a waveform.
type Segmenter struct {
	Log logrus.FieldLogger

	// Trace receives the resynchronizations of every block decode.
	Trace func(frame.Event)
}

func NewSegmenter(log logrus.FieldLogger) Segmenter {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return Segmenter{Log: log}
}

func doubleAt(widths []int, k int) bool {
	return k+3 < len(widths) &&
		Long.Contains(widths[k]) && Short.Contains(widths[k+1]) &&
		Long.Contains(widths[k+2]) && Short.Contains(widths[k+3])
}

func halfAt(widths []int, k int) bool {
	return k+1 < len(widths) && Long.Contains(widths[k]) && Short.Contains(widths[k+1])
}

// Segment measures the pulse train of w, finds the opening double Listen
// Window and walks up to MaxBlocks blocks. It fails only when no opening
// marker exists.
func (s Segmenter) Segment(w decode.Waveform) (r Result, err error) {
	if r.Threshold, err = decode.Estimate(w); err != nil {
		return r, err
	}
	if r.Pulses, err = decode.Pulses(w, r.Threshold); err != nil {
		return r, err
	}

	pt := r.Pulses
	widths := pt.Widths

	start := -1
	for k := range widths {
		if doubleAt(widths, k) {
			start = k
			break
		}
	}
	if start < 0 {
		return r, errors.Wrapf(decode.ErrNotFound, "no listen window in %d pulses", pt.Len())
	}

	r.Start = Marker{Index: start, Offset: pt.Offset(start)}
	r.DataStart = decode.SkipHigh(w, r.Threshold, pt.Offset(start+3)) + Guard

	limit := pt.Len()
	for k := start + 4; k < len(widths); k++ {
		if doubleAt(widths, k) {
			r.End = Marker{Index: k, Offset: pt.Offset(k)}
			r.EndFound = true
			limit = k
			break
		}
	}
	if !r.EndFound {
		r.Reasons = append(r.Reasons, NoEndMarker)
	}

	// Blocks past the end marker belong to the next transmission cycle.
	offsets := []int{r.DataStart}
	for k := start + 4; len(offsets) < MaxBlocks && k+1 < limit; k++ {
		if halfAt(widths, k) {
			offsets = append(offsets, decode.SkipHigh(w, r.Threshold, pt.Offset(k+1))+Guard)
			k++
		}
	}
	if len(offsets) < MaxBlocks {
		r.Reasons = append(r.Reasons, ShortRead)
	}

	stop := len(w)
	if r.EndFound {
		stop = r.End.Offset
	}

	for idx, offset := range offsets {
		end := stop
		if idx+1 < len(offsets) {
			end = offsets[idx+1]
		}
		if offset > len(w) {
			offset = len(w)
		}
		if end < offset {
			end = offset
		}

		block := s.readBlock(w[offset:end], r.Threshold)
		block.Index = idx
		block.Offset = offset
		r.Blocks = append(r.Blocks, block)
	}

	if s.Log != nil {
		fields := logrus.Fields{
			"start":     r.Start.Offset,
			"dataStart": r.DataStart,
			"blocks":    len(r.Blocks),
		}
		if r.Partial() {
			s.Log.WithFields(fields).WithField("reasons", r.Reasons).Warn("partial EM4x50 read")
		} else {
			s.Log.WithFields(fields).Info("found EM4x50 data")
		}
	}

	return r, nil
}

// ReadBlock decodes a single block from a waveform that starts at or before
// its first symbol.
func (s Segmenter) ReadBlock(w decode.Waveform) (Block, error) {
	t, err := decode.Estimate(w)
	if err != nil {
		return Block{}, err
	}

	b := s.readBlock(w, t)
	return b, b.Err
}

func (s Segmenter) readBlock(w decode.Waveform, t decode.Threshold) (b Block) {
	b.Length = len(w)

	if len(w) > 0 && !t.Modulated(w) {
		b.Err = errors.Wrapf(decode.ErrNotFound, "no modulation in %d samples", len(w))
		return b
	}

	bits, err := decode.Extract(w, t, Clock)
	if err != nil {
		b.Err = err
		return b
	}

	f, err := frame.Scanner{Layout: BlockLayout, Log: s.Log, Trace: s.Trace}.Decode(bits)
	if err != nil {
		b.Err = err
		return b
	}

	b.Data = uint32(f.Natural)
	b.Rows = f.Rows
	b.Column = f.Column
	b.Inverted = f.Inverted
	return b
}

// Parser reports every decoded block of a transmission.
type Parser struct {
	Segmenter
}

func NewParser(clock int, log logrus.FieldLogger) parse.Parser {
	return Parser{NewSegmenter(log)}
}

func (p Parser) Clock() int {
	return Clock
}

func (p Parser) Parse(w decode.Waveform) (msgs []parse.Message, err error) {
	r, err := p.Segment(w)
	if errors.Is(err, decode.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	for _, b := range r.Blocks {
		if b.Valid() {
			msgs = append(msgs, b)
		}
	}
	return msgs, nil
}
