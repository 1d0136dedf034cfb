package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bemasher/lfem4x/decode"
	"github.com/bemasher/lfem4x/em410x"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lfem4x.yaml")
	require.NoError(t, os.WriteFile(path, []byte("clock: 32\nformat: csv\nmsgtype: all\nunique: true\n"), 0644))

	cfg := NewConfig()
	require.NoError(t, cfg.LoadConfig(path))
	assert.Equal(t, 32, cfg.Clock)
	assert.Equal(t, "csv", cfg.Format)
	assert.True(t, cfg.Unique)
	assert.Equal(t, em410x.SimGap, cfg.Gap)
	assert.Equal(t, []string{"em410x", "em4x50"}, cfg.MsgTypes([]string{"em410x", "em4x50"}))

	assert.NoError(t, NewConfig().LoadConfig(""))
	assert.Error(t, NewConfig().LoadConfig(filepath.Join(t.TempDir(), "missing.yaml")))
}

func TestMsgTypes(t *testing.T) {
	cfg := NewConfig()
	cfg.MsgType = "EM410x, em4x50,"
	assert.Equal(t, []string{"em410x", "em4x50"}, cfg.MsgTypes(nil))
}

func TestNewEncoder(t *testing.T) {
	cfg := NewConfig()
	for _, format := range []string{"plain", "CSV", "json", "xml"} {
		cfg.Format = format
		_, err := cfg.NewEncoder(&bytes.Buffer{})
		assert.NoError(t, err, format)
	}

	cfg.Format = "gob"
	_, err := cfg.NewEncoder(&bytes.Buffer{})
	assert.Error(t, err)

	cfg.Log = "loud"
	_, err = cfg.Logger(&bytes.Buffer{})
	assert.Error(t, err)
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out, log bytes.Buffer
	app := newApp(&state{})
	app.Writer = &out
	app.ErrWriter = &log

	err := app.Run(append([]string{"lfem4x"}, args...))
	return out.String(), err
}

const frameBits = "1111111110000011110000000011001100100010101001100100011011100100"

func TestConfirmCommand(t *testing.T) {
	out, err := run(t, "confirm", frameBits)
	require.NoError(t, err)
	assert.Contains(t, out, "EM410x:{ID:0F0368568B Unique:0F0C61A61D Inverted:false}")

	out, err = run(t, "--format", "csv", "confirm", frameBits)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "Time,Offset,Length,ID,Unique,Column,Offset,Inverted\n"), out)
	assert.True(t, strings.HasSuffix(out, ",0,64,0F0368568B,0F0C61A61D,0010,0,false\n"), out)

	_, err = run(t, "confirm", "1111111110101")
	assert.True(t, errors.Is(err, decode.ErrNotFound))
}

func TestSimRead(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sim.txt")

	_, err := run(t, "sim", "--out", path, "0F0368568B")
	require.NoError(t, err)

	out, err := run(t, "read", "--file", path)
	require.NoError(t, err)
	assert.Contains(t, out, "ID:0F0368568B")

	out, err = run(t, "--format", "json", "read", "--msgtype", "all", "--file", path)
	require.NoError(t, err)
	assert.Contains(t, out, `"Unique":64632235549`)

	_, err = run(t, "read", "--file", path, "--filterid", "0000000001")
	require.NoError(t, err)

	_, err = run(t, "sim", "--out", path, "10000000000")
	assert.True(t, errors.Is(err, decode.ErrPrecondition))

	empty := filepath.Join(dir, "empty.txt")
	require.NoError(t, os.WriteFile(empty, []byte("0\n0\n"), 0644))
	_, err = run(t, "read", "--file", empty)
	assert.True(t, errors.Is(err, decode.ErrNotFound))
}

func TestEnvOverride(t *testing.T) {
	os.Setenv("LFEM4X_FORMAT", "bogus")
	defer os.Unsetenv("LFEM4X_FORMAT")

	_, err := run(t, "confirm", frameBits)
	assert.Error(t, err)
}

func TestWriteCommand(t *testing.T) {
	_, err := run(t, "write", "--card", "1", "--rate", "32", "0F0368568B")
	assert.NoError(t, err)

	_, err = run(t, "write", "--card", "0", "--rate", "32", "0F0368568B")
	assert.True(t, errors.Is(err, decode.ErrPrecondition))
}

func TestWordCommand(t *testing.T) {
	_, err := run(t, "word", "--data", "12345678", "3")
	assert.NoError(t, err)

	_, err = run(t, "word", "16")
	assert.True(t, errors.Is(err, decode.ErrPrecondition))

	_, err = run(t, "word", "--response", filepath.Join(t.TempDir(), "missing"), "3")
	assert.Error(t, err)
}
