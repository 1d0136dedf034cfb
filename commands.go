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
	"context"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/bemasher/lfem4x/capture"
	"github.com/bemasher/lfem4x/decode"
	"github.com/bemasher/lfem4x/em410x"
	"github.com/bemasher/lfem4x/em4x50"
	"github.com/bemasher/lfem4x/parse"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

func commands(st *state) []*cli.Command {
	return []*cli.Command{
		readCommand(st),
		simCommand(st),
		confirmCommand(st),
		writeCommand(st),
		wordCommand(st),
	}
}

func parseID(s string) (uint64, error) {
	id, err := strconv.ParseUint(strings.TrimPrefix(s, "0x"), 16, 64)
	if err != nil {
		return 0, errors.Wrapf(decode.ErrPrecondition, "invalid id %q: %s", s, err)
	}
	return id, nil
}

func parseHex32(s string) (uint64, error) {
	v, err := strconv.ParseUint(strings.TrimPrefix(s, "0x"), 16, 64)
	return v, errors.Wrapf(err, "invalid hex value %q", s)
}

func source(ctx *cli.Context) (capture.Source, error) {
	format, err := capture.ParseFormat(ctx.String("capture-format"))
	if err != nil {
		return nil, err
	}
	if ctx.String("file") == "" {
		return nil, errors.Wrap(decode.ErrPrecondition, "no capture file given")
	}
	return capture.FileSource{Path: ctx.String("file"), Format: format}, nil
}

func withTimeout(ctx *cli.Context) (context.Context, context.CancelFunc) {
	if d := ctx.Duration("timeout"); d > 0 {
		return context.WithTimeout(ctx.Context, d)
	}
	return context.WithCancel(ctx.Context)
}

func readCommand(st *state) *cli.Command {
	return &cli.Command{
		Name:  "read",
		Usage: "decode tags from a capture",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "file", Aliases: []string{"f"}, EnvVars: env("FILE"), Usage: "capture `FILE` to decode"},
			&cli.StringFlag{Name: "capture-format", EnvVars: env("CAPTURE_FORMAT"), Value: string(capture.Text), Usage: "capture file format: text, raw or wav"},
			&cli.StringFlag{Name: "msgtype", EnvVars: env("MSGTYPE"), Value: "em410x", Usage: "message types to decode: em410x, em4x50 or all"},
			&cli.BoolFlag{Name: "unique", EnvVars: env("UNIQUE"), Usage: "suppress duplicate messages from each tag"},
			&cli.StringFlag{Name: "filterid", EnvVars: env("FILTERID"), Usage: "display only messages matching an id in a comma-separated list of hex ids"},
			&cli.BoolFlag{Name: "watch", Usage: "acquire until an EM410x tag is decoded"},
			&cli.DurationFlag{Name: "timeout", EnvVars: env("TIMEOUT"), Usage: "give up after `DURATION`, 0 waits forever"},
		},
		Action: func(ctx *cli.Context) error {
			st.cfg.Apply(ctx)

			src, err := source(ctx)
			if err != nil {
				return err
			}

			var fc parse.FilterChain
			if st.cfg.Unique {
				fc.Add(parse.NewUniqueFilter())
			}
			if ctx.IsSet("filterid") {
				ids := parse.IDFilter{}
				if err := ids.Set(ctx.String("filterid")); err != nil {
					return err
				}
				fc.Add(ids)
			}

			rctx, cancel := withTimeout(ctx)
			defer cancel()

			if ctx.Bool("watch") {
				tag, err := em410x.Watch(rctx, src, em410x.NewDecoder(st.cfg.Clock, st.log))
				if err != nil {
					return err
				}
				return emit(st, fc, tag, tag.Offset*st.cfg.Clock, 0)
			}

			w, err := src.Acquire(rctx)
			if err != nil {
				return err
			}

			found := 0
			for _, name := range st.cfg.MsgTypes(parse.Names()) {
				p, err := parse.NewParser(name, st.cfg.Clock, st.log)
				if err != nil {
					return err
				}

				msgs, err := p.Parse(w)
				if err != nil {
					return errors.Wrap(err, name)
				}
				for _, msg := range msgs {
					var offset int
					if b, ok := msg.(em4x50.Block); ok {
						offset = b.Offset
					} else if t, ok := msg.(em410x.Tag); ok {
						offset = t.Offset * p.Clock()
					}
					if err := emit(st, fc, msg, offset, len(w)); err != nil {
						return err
					}
					found++
				}
			}

			if found == 0 {
				return errors.Wrapf(decode.ErrNotFound, "no tags in %d samples", len(w))
			}
			return nil
		},
	}
}

func emit(st *state, fc parse.FilterChain, msg parse.Message, offset, length int) error {
	if !fc.Match(msg) {
		return nil
	}

	return errors.Wrap(st.enc.Encode(parse.LogMessage{
		Time:    time.Now(),
		Offset:  int64(offset),
		Length:  length,
		Message: msg,
	}), "error encoding message")
}

func simCommand(st *state) *cli.Command {
	return &cli.Command{
		Name:      "sim",
		Usage:     "encode an EM410x id for playback",
		ArgsUsage: "<UID>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "out", Aliases: []string{"o"}, EnvVars: env("SIM_OUT"), Value: "sim.txt", Usage: "write the waveform to `FILE`"},
			&cli.StringFlag{Name: "out-format", EnvVars: env("SIM_OUT_FORMAT"), Value: string(capture.Text), Usage: "waveform file format: text or wav"},
			&cli.IntFlag{Name: "gap", EnvVars: env("GAP"), Value: em410x.SimGap, Usage: "leading gap handed to the player"},
		},
		Action: func(ctx *cli.Context) error {
			st.cfg.Apply(ctx)

			id, err := parseID(ctx.Args().First())
			if err != nil {
				return err
			}

			sim, err := em410x.NewSimulation(id)
			if err != nil {
				return err
			}
			sim.Gap = st.cfg.Gap

			format, err := capture.ParseFormat(ctx.String("out-format"))
			if err != nil {
				return err
			}

			player := capture.FilePlayer{Path: ctx.String("out"), Format: format}
			if err := player.Play(ctx.Context, sim.Waveform, sim.Gap); err != nil {
				return err
			}

			st.log.WithFields(logrus.Fields{
				"id":      ctx.Args().First(),
				"samples": len(sim.Waveform),
				"gap":     sim.Gap,
				"out":     player.Path,
			}).Info("simulation written")
			return nil
		},
	}
}

func confirmCommand(st *state) *cli.Command {
	return &cli.Command{
		Name:      "confirm",
		Usage:     "check the parity of an EM410x bit string, header included",
		ArgsUsage: "<BITS>",
		Action: func(ctx *cli.Context) error {
			dec := em410x.NewDecoder(st.cfg.Clock, st.log)
			tag, err := dec.Confirm(ctx.Args().First())
			if err != nil {
				return err
			}
			return emit(st, nil, tag, tag.Offset, len(ctx.Args().First()))
		},
	}
}

func writeCommand(st *state) *cli.Command {
	return &cli.Command{
		Name:      "write",
		Usage:     "prepare a request cloning an EM410x id onto a T5555 (card 0) or T55x7 (card 1)",
		ArgsUsage: "<UID>",
		Flags: []cli.Flag{
			&cli.UintFlag{Name: "card", Value: uint(em410x.T55x7), Usage: "0 for T5555, 1 for T55x7"},
			&cli.IntFlag{Name: "rate", Usage: "T55x7 clock rate: 16, 32 or 64"},
		},
		Action: func(ctx *cli.Context) error {
			id, err := parseID(ctx.Args().First())
			if err != nil {
				return err
			}

			req, err := em410x.NewWriteRequest(id, em410x.Card(ctx.Uint("card")), ctx.Int("rate"))
			if err != nil {
				return err
			}

			st.log.WithFields(logrus.Fields{
				"request": req,
				"args":    req.Args(),
			}).Info("write request")
			return nil
		},
	}
}

// fileExchanger answers word requests with a response buffer captured to a
// file beforehand.
type fileExchanger struct {
	path string
	log  logrus.FieldLogger
}

func (fe fileExchanger) Exchange(ctx context.Context, req em4x50.Request) ([]byte, error) {
	fe.log.WithField("args", req.Args()).Debugf("exchange %s", req)
	if req.Op == em4x50.Write {
		return nil, ctx.Err()
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return os.ReadFile(fe.path)
}

func wordCommand(st *state) *cli.Command {
	return &cli.Command{
		Name:      "word",
		Usage:     "read or write a single EM4x50 word",
		ArgsUsage: "<WORD>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "response", Aliases: []string{"r"}, Usage: "raw 8-bit reader response `FILE`"},
			&cli.StringFlag{Name: "password", Usage: "hex password, selects password mode"},
			&cli.StringFlag{Name: "data", Usage: "hex data to write, selects a write request"},
			&cli.DurationFlag{Name: "timeout", Value: em4x50.ResponseTimeout, Usage: "response `DURATION`"},
		},
		Action: func(ctx *cli.Context) error {
			word, err := strconv.Atoi(ctx.Args().First())
			if err != nil {
				return errors.Wrapf(decode.ErrPrecondition, "invalid word %q", ctx.Args().First())
			}

			req, err := wordRequest(word, ctx.String("data"), ctx.String("password"))
			if err != nil {
				return err
			}

			rctx, cancel := withTimeout(ctx)
			defer cancel()

			seg := em4x50.NewSegmenter(st.log)
			ex := fileExchanger{path: ctx.String("response"), log: st.log}

			if req.Op == em4x50.Write {
				return seg.WriteWord(rctx, ex, req)
			}

			b, err := seg.ReadWord(rctx, ex, req)
			if err != nil {
				return err
			}
			return emit(st, nil, b, 0, b.Length)
		},
	}
}

func wordRequest(word int, data, password string) (em4x50.Request, error) {
	var (
		d, pwd uint64
		err    error
	)
	if data != "" {
		if d, err = parseHex32(data); err != nil {
			return em4x50.Request{}, err
		}
	}
	if password != "" {
		if pwd, err = parseHex32(password); err != nil {
			return em4x50.Request{}, err
		}
	}

	switch {
	case data != "" && password != "":
		return em4x50.NewWritePasswordRequest(word, d, pwd)
	case data != "":
		return em4x50.NewWriteRequest(word, d)
	case password != "":
		return em4x50.NewReadPasswordRequest(word, pwd)
	}
	return em4x50.NewReadRequest(word)
}
