// Package csv writes decoded tag messages as comma separated records.
package csv

import (
	"encoding/csv"
	"io"

	"golang.org/x/xerrors"
)

// Produces a list of fields making up a record.
type Recorder interface {
	Record() []string
}

// Headed is implemented by recorders that can name their fields.
type Headed interface {
	Header() []string
}

// An Encoder writes CSV records to an output stream.
type Encoder struct {
	w      *csv.Writer
	header bool
}

// NewEncoder returns a new encoder that writes to w.
func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{w: csv.NewWriter(w)}
}

// WithHeader makes the encoder emit the field names of the first Headed
// value before its record.
func (enc *Encoder) WithHeader() *Encoder {
	enc.header = true
	return enc
}

// Encode writes a CSV record representing v to the stream followed by a
// newline character. Value given must implement the Recorder interface.
func (enc *Encoder) Encode(v interface{}) (err error) {
	defer func() {
		if rerr, _ := recover().(error); rerr != nil {
			err = xerrors.Errorf("recovered: %w", rerr)
		}
	}()

	rec := v.(Recorder)

	if h, ok := v.(Headed); ok && enc.header {
		enc.header = false
		if err = enc.w.Write(h.Header()); err != nil {
			return xerrors.Errorf("header: %w", err)
		}
	}

	if err = enc.w.Write(rec.Record()); err != nil {
		return xerrors.Errorf("record: %w", err)
	}
	enc.w.Flush()

	return enc.w.Error()
}
