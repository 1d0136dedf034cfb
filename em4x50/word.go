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
package em4x50

import (
	"context"
	"fmt"
	"time"

	"github.com/bemasher/lfem4x/decode"
	"github.com/pkg/errors"
)

// Mode selects whether a word request carries a password.
type Mode uint8

const (
	Normal   Mode = 0x0
	Password Mode = 0x1
)

func (m Mode) String() string {
	if m == Password {
		return "password"
	}
	return "normal"
}

// Op is the direction of a word request.
type Op uint8

const (
	Read Op = iota
	Write
)

func (op Op) String() string {
	if op == Write {
		return "write"
	}
	return "read"
}

const (
	MaxWord = 15

	// ResponseTimeout bounds a word exchange when the caller sets no
	// deadline.
	ResponseTimeout = 1500 * time.Millisecond
)

// Request reads or writes a single word, optionally behind a password.
type Request struct {
	Op       Op
	Mode     Mode
	Word     int
	Data     uint32
	Password uint32
}

func checkWord(word int) error {
	if word < 0 || word > MaxWord {
		return errors.Wrapf(decode.ErrPrecondition, "word must be between 0 and %d: %d", MaxWord, word)
	}
	return nil
}

func check32(name string, v uint64) (uint32, error) {
	if v > 0xFFFFFFFF {
		return 0, errors.Wrapf(decode.ErrPrecondition, "%s longer than 32 bits: %#x", name, v)
	}
	return uint32(v), nil
}

func NewReadRequest(word int) (Request, error) {
	return Request{Op: Read, Mode: Normal, Word: word}, checkWord(word)
}

func NewReadPasswordRequest(word int, password uint64) (req Request, err error) {
	if err = checkWord(word); err != nil {
		return req, err
	}
	req = Request{Op: Read, Mode: Password, Word: word}
	req.Password, err = check32("password", password)
	return req, err
}

func NewWriteRequest(word int, data uint64) (req Request, err error) {
	if err = checkWord(word); err != nil {
		return req, err
	}
	req = Request{Op: Write, Mode: Normal, Word: word}
	req.Data, err = check32("data", data)
	return req, err
}

func NewWritePasswordRequest(word int, data, password uint64) (req Request, err error) {
	if req, err = NewWriteRequest(word, data); err != nil {
		return req, err
	}
	req.Mode = Password
	req.Password, err = check32("password", password)
	return req, err
}

// Args packs the request into the three command arguments: data, word and
// password.
func (r Request) Args() [3]uint32 {
	return [3]uint32{r.Data, uint32(r.Word), r.Password}
}

func (r Request) String() string {
	s := fmt.Sprintf("{Op:%s Mode:%s Word:%d", r.Op, r.Mode, r.Word)
	if r.Op == Write {
		s += fmt.Sprintf(" Data:%08X", r.Data)
	}
	if r.Mode == Password {
		s += fmt.Sprintf(" Password:%08X", r.Password)
	}
	return s + "}"
}

// Exchanger sends a request to the reader and returns the raw sample buffer
// it captured in response. Writes may return an empty buffer.
type Exchanger interface {
	Exchange(ctx context.Context, req Request) ([]byte, error)
}

func exchange(ctx context.Context, ex Exchanger, req Request) ([]byte, error) {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, ResponseTimeout)
		defer cancel()
	}

	buf, err := ex.Exchange(ctx, req)
	return buf, errors.Wrapf(err, "%s word %d", req.Op, req.Word)
}

// ReadWord performs a read request and decodes the captured response as a
// single block.
func (s Segmenter) ReadWord(ctx context.Context, ex Exchanger, req Request) (Block, error) {
	if req.Op != Read {
		return Block{}, errors.Wrapf(decode.ErrPrecondition, "not a read request: %s", req)
	}
	if err := checkWord(req.Word); err != nil {
		return Block{}, err
	}

	buf, err := exchange(ctx, ex, req)
	if err != nil {
		return Block{}, err
	}

	b, err := s.ReadBlock(decode.FromBytes(buf))
	b.Index = req.Word
	return b, err
}

// WriteWord performs a write request. The reader sends no data back.
func (s Segmenter) WriteWord(ctx context.Context, ex Exchanger, req Request) error {
	if req.Op != Write {
		return errors.Wrapf(decode.ErrPrecondition, "not a write request: %s", req)
	}
	if err := checkWord(req.Word); err != nil {
		return err
	}

	_, err := exchange(ctx, ex, req)
	return err
}
