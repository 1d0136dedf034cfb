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
	"os/signal"
	"sort"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

var (
	buildTag   = "dev"     // v#.#.#
	buildDate  = "unknown" // date -u '+%Y-%m-%d'
	commitHash = "unknown" // git rev-parse HEAD
)

// state is filled in before any command runs.
type state struct {
	cfg *Config
	log *logrus.Logger
	enc Encoder
}

func newApp(st *state) *cli.App {
	app := &cli.App{
		Name:    "lfem4x",
		Usage:   "decode and encode EM410x and EM4x50 low frequency RFID tags",
		Version: buildTag + " (" + buildDate + " " + commitHash + ")",
		UsageText: "lfem4x [global options] command [command options] [arguments...]" +
			"\n\nEXAMPLE:" +
			"\n\tdecode an EM410x capture" +
			"\n\t\tlfem4x read --file capture.txt" +
			"\n\tprepare a simulation of an EM410x id" +
			"\n\t\tlfem4x sim --out sim.txt 0F0368568B",
		Flags: globalFlags(),
		Before: func(ctx *cli.Context) (err error) {
			st.cfg = NewConfig()
			if err = st.cfg.LoadConfig(ctx.String("config")); err != nil {
				return err
			}
			st.cfg.Apply(ctx)

			if st.log, err = st.cfg.Logger(ctx.App.ErrWriter); err != nil {
				return err
			}
			st.enc, err = st.cfg.NewEncoder(ctx.App.Writer)
			return err
		},
		Commands: commands(st),
	}

	sort.Sort(cli.FlagsByName(app.Flags))
	sort.Sort(cli.CommandsByName(app.Commands))

	return app
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := newApp(&state{})
	app.ErrWriter = os.Stderr

	if err := app.RunContext(ctx, os.Args); err != nil {
		logrus.Error(err)
		stop()
		os.Exit(1)
	}
}
