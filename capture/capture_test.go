package capture

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bemasher/lfem4x/decode"
	"github.com/go-test/deep"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadText(t *testing.T) {
	w, err := ReadText(strings.NewReader("# comment\n12\n\n-7\n 3 \n"))
	require.NoError(t, err)
	assert.Equal(t, decode.Waveform{12, -7, 3}, w)

	_, err = ReadText(strings.NewReader("1\nx\n"))
	assert.Error(t, err)
}

func TestReadRaw(t *testing.T) {
	w, err := ReadRaw(bytes.NewReader([]byte{0x00, 0x7F, 0x80, 0xFF}))
	require.NoError(t, err)
	assert.Equal(t, decode.Waveform{0, 127, -128, -1}, w)
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("RAW")
	require.NoError(t, err)
	assert.Equal(t, Raw, f)

	f, err = ParseFormat("wav")
	require.NoError(t, err)
	assert.Equal(t, Wav, f)

	_, err = ParseFormat("flac")
	assert.True(t, errors.Is(err, decode.ErrPrecondition))
}

func TestPlayAcquire(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sim.txt")
	w := decode.Waveform{0, 0, 1, 1, 1, 1, 0, 0}

	require.NoError(t, FilePlayer{Path: path}.Play(context.Background(), w, 240))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "# gap 240\n"))

	recv, err := FileSource{Path: path, Format: Text}.Acquire(context.Background())
	require.NoError(t, err)
	assert.Equal(t, w, recv)
}

func TestAcquireCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := FileSource{Path: "missing"}.Acquire(ctx)
	assert.True(t, errors.Is(err, context.Canceled))

	_, err = FileSource{Path: filepath.Join(t.TempDir(), "missing")}.Acquire(context.Background())
	assert.Error(t, err)
}

func TestWav(t *testing.T) {
	w := decode.Waveform{0, 1200, -1200, 32767, -32768, 5}

	var buf bytes.Buffer
	require.NoError(t, WriteWav(&buf, w))

	recv, err := ReadWav(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	if diff := deep.Equal(recv, w); diff != nil {
		t.Error(diff)
	}

	_, err = ReadWav(bytes.NewReader([]byte("not a wave file")))
	assert.Error(t, err)
}

func TestPlayWav(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sim.wav")
	w := decode.Waveform{-1, -1, 1, 1}

	require.NoError(t, FilePlayer{Path: path, Format: Wav}.Play(context.Background(), w, 3))

	recv, err := FileSource{Path: path, Format: Wav}.Acquire(context.Background())
	require.NoError(t, err)
	if diff := deep.Equal(recv, decode.Waveform{-1, -1, -1, -1, -1, 1, 1}); diff != nil {
		t.Error(diff)
	}

	err = FilePlayer{Path: path, Format: Raw}.Play(context.Background(), w, 3)
	assert.True(t, errors.Is(err, decode.ErrPrecondition))

	for _, format := range []Format{Wav, Text} {
		err = FilePlayer{Path: path, Format: format}.Play(context.Background(), w, -1)
		assert.True(t, errors.Is(err, decode.ErrPrecondition), "%s: %+v", format, err)
	}
}
