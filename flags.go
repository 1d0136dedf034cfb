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
package main

import (
	"encoding/xml"
	"fmt"
	"io"

	"github.com/bemasher/lfem4x/parse"
	"github.com/urfave/cli/v2"
)

const envPrefix = "LFEM4X_"

func env(name string) []string {
	return []string{envPrefix + name}
}

// Flags shared by every command.
func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "config", Aliases: []string{"c"}, EnvVars: env("CONFIG"), Usage: "load configuration from `FILE`"},
		&cli.StringFlag{Name: "log", Aliases: []string{"l"}, EnvVars: env("LOG"), Value: "info", Usage: "`LEVEL`: panic, fatal, error, warn, info, debug or trace"},
		&cli.IntFlag{Name: "clock", EnvVars: env("CLOCK"), Value: 64, Usage: "samples per symbol"},
		&cli.StringFlag{Name: "format", EnvVars: env("FORMAT"), Value: "plain", Usage: "decoded message output format: plain, csv, json, or xml"},
	}
}

// JSON, XML and CSV all implement this interface so we can simplify log
// output formatting.
type Encoder interface {
	Encode(interface{}) error
}

type PlainEncoder struct {
	w io.Writer
}

func (pe PlainEncoder) Encode(msg interface{}) (err error) {
	if m, ok := msg.(parse.LogMessage); ok && m.Offset == 0 {
		_, err = fmt.Fprintln(pe.w, m.StringNoOffset())
	} else {
		_, err = fmt.Fprintln(pe.w, msg)
	}
	return
}

// xmlEncoder terminates every element with a newline.
type xmlEncoder struct {
	*xml.Encoder
	w io.Writer
}

func (xe xmlEncoder) Encode(v interface{}) error {
	if err := xe.Encoder.Encode(v); err != nil {
		return err
	}
	_, err := fmt.Fprintln(xe.w)
	return err
}
