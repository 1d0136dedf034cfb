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
	"encoding/json"
	"encoding/xml"
	"io"
	"os"
	"strings"

	"github.com/bemasher/lfem4x/csv"
	"github.com/bemasher/lfem4x/em410x"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v2"
)

// Config holds the settings shared by every command. Values come from the
// config file first, command line flags and LFEM4X_* variables win.
type Config struct {
	Clock   int    `yaml:"clock"`
	Gap     int    `yaml:"gap"`
	Format  string `yaml:"format"`
	MsgType string `yaml:"msgtype"`
	Unique  bool   `yaml:"unique"`
	Log     string `yaml:"log"`
}

func NewConfig() *Config {
	return &Config{
		Clock:   em410x.Clock,
		Gap:     em410x.SimGap,
		Format:  "plain",
		MsgType: "em410x",
		Log:     "info",
	}
}

// LoadConfig reads a yaml config file. An empty path leaves the defaults.
func (c *Config) LoadConfig(path string) error {
	if path == "" {
		return nil
	}

	file, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(err, "error reading config file %q", path)
	}
	defer func() { _ = file.Close() }()

	if err = yaml.NewDecoder(file).Decode(c); err != nil && err != io.EOF {
		return errors.Wrapf(err, "error decoding config file %q", path)
	}

	return nil
}

// Apply overrides the config with every flag given explicitly.
func (c *Config) Apply(ctx *cli.Context) {
	if ctx.IsSet("clock") {
		c.Clock = ctx.Int("clock")
	}
	if ctx.IsSet("gap") {
		c.Gap = ctx.Int("gap")
	}
	if ctx.IsSet("format") {
		c.Format = ctx.String("format")
	}
	if ctx.IsSet("msgtype") {
		c.MsgType = ctx.String("msgtype")
	}
	if ctx.IsSet("unique") {
		c.Unique = ctx.Bool("unique")
	}
	if ctx.IsSet("log") {
		c.Log = ctx.String("log")
	}
}

// Logger configures a logrus logger writing to out.
func (c *Config) Logger(out io.Writer) (*logrus.Logger, error) {
	level, err := logrus.ParseLevel(c.Log)
	if err != nil {
		return nil, err
	}

	log := logrus.New()
	log.SetOutput(out)
	log.SetLevel(level)
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, TimestampFormat: "2006-01-02T15:04:05.000"})
	return log, nil
}

// NewEncoder returns the message encoder for the configured format.
func (c *Config) NewEncoder(out io.Writer) (Encoder, error) {
	switch strings.ToLower(c.Format) {
	case "plain":
		return PlainEncoder{out}, nil
	case "csv":
		return csv.NewEncoder(out).WithHeader(), nil
	case "json":
		return json.NewEncoder(out), nil
	case "xml":
		return xmlEncoder{xml.NewEncoder(out), out}, nil
	}
	return nil, errors.Errorf("invalid format: %q", c.Format)
}

// MsgTypes expands the configured message types. "all" selects every
// registered family.
func (c *Config) MsgTypes(registered []string) (names []string) {
	for _, name := range strings.Split(c.MsgType, ",") {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "all" {
			return registered
		}
		if name != "" {
			names = append(names, name)
		}
	}
	return names
}
