// Package capture moves sample buffers between the decoders and the outside
// world: files dumped by a reader and files handed to a playback tool.
package capture

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/bemasher/lfem4x/decode"
	"github.com/pkg/errors"
	"github.com/youpy/go-wav"
)

// Source acquires one sample buffer. Implementations may block until ctx is
// done.
type Source interface {
	Acquire(ctx context.Context) (decode.Waveform, error)
}

// Format of a capture file.
type Format string

const (
	// Text holds one decimal sample per line. Lines starting with # are
	// comments.
	Text Format = "text"
	// Raw holds one signed 8-bit sample per byte.
	Raw Format = "raw"
	// Wav is a PCM wave file. Only the first channel is used.
	Wav Format = "wav"
)

// SampleRate is recorded in written wave files, one sample per carrier
// cycle of a 125kHz reader.
const SampleRate = 125000

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case Text, Raw, Wav:
		return f, nil
	}
	return "", errors.Wrapf(decode.ErrPrecondition, "unknown capture format: %q", s)
}

// FileSource reads a whole capture file on every Acquire.
type FileSource struct {
	Path   string
	Format Format
}

func (fs FileSource) String() string {
	return fmt.Sprintf("{Path:%s Format:%s}", fs.Path, fs.Format)
}

func (fs FileSource) Acquire(ctx context.Context) (decode.Waveform, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(fs.Path)
	if err != nil {
		return nil, errors.Wrap(err, "acquire")
	}
	defer f.Close()

	switch fs.Format {
	case Raw:
		return ReadRaw(f)
	case Wav:
		return ReadWav(f)
	case Text, "":
		return ReadText(f)
	}
	return nil, errors.Wrapf(decode.ErrPrecondition, "unknown capture format: %q", fs.Format)
}

// ReadText parses one decimal sample per line.
func ReadText(r io.Reader) (w decode.Waveform, err error) {
	scanner := bufio.NewScanner(r)
	for line := 1; scanner.Scan(); line++ {
		s := strings.TrimSpace(scanner.Text())
		if s == "" || strings.HasPrefix(s, "#") {
			continue
		}

		v, err := strconv.Atoi(s)
		if err != nil {
			return nil, errors.Wrapf(err, "line %d", line)
		}
		w = append(w, v)
	}

	return w, errors.Wrap(scanner.Err(), "read text")
}

// ReadRaw interprets every byte as a signed 8-bit sample.
func ReadRaw(r io.Reader) (decode.Waveform, error) {
	buf, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "read raw")
	}

	w := make(decode.Waveform, len(buf))
	for idx, b := range buf {
		w[idx] = int(int8(b))
	}
	return w, nil
}

// ReadWav reads the first channel of a PCM wave file.
func ReadWav(r wavReader) (w decode.Waveform, err error) {
	reader := wav.NewReader(r)

	format, err := reader.Format()
	if err != nil {
		return nil, errors.Wrap(err, "read wav")
	}
	if format.AudioFormat != wav.AudioFormatPCM {
		return nil, errors.Wrapf(decode.ErrPrecondition, "unsupported wav format: %d", format.AudioFormat)
	}

	for {
		samples, err := reader.ReadSamples(4096)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "read wav")
		}

		for _, sample := range samples {
			w = append(w, reader.IntValue(sample, 0))
		}
	}

	return w, nil
}

type wavReader interface {
	io.Reader
	io.ReaderAt
}

// WriteWav writes a mono 16-bit PCM wave file.
func WriteWav(out io.Writer, w decode.Waveform) error {
	samples := make([]wav.Sample, len(w))
	for idx, v := range w {
		samples[idx].Values[0] = v
	}

	writer := wav.NewWriter(out, uint32(len(w)), 1, SampleRate, 16)
	return errors.Wrap(writer.WriteSamples(samples), "write wav")
}

// WriteText writes one sample per line.
func WriteText(out io.Writer, w decode.Waveform) error {
	bw := bufio.NewWriter(out)
	for _, v := range w {
		bw.WriteString(strconv.Itoa(v))
		bw.WriteByte('\n')
	}
	return errors.Wrap(bw.Flush(), "write text")
}

// FilePlayer hands waveforms to an external playback tool by writing them as
// captures. Text captures record the leading gap as a comment, wave files
// are prefixed with gap samples at the first sample's level.
type FilePlayer struct {
	Path   string
	Format Format
}

// Play writes w to Path, replacing any existing file.
func (fp FilePlayer) Play(ctx context.Context, w decode.Waveform, gap int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if gap < 0 {
		return errors.Wrapf(decode.ErrPrecondition, "negative gap: %d", gap)
	}
	if fp.Format == Raw {
		return errors.Wrapf(decode.ErrPrecondition, "playback format not supported: %s", fp.Format)
	}

	f, err := os.Create(fp.Path)
	if err != nil {
		return errors.Wrap(err, "play")
	}

	switch fp.Format {
	case Wav:
		var lead decode.Waveform
		if len(w) > 0 {
			lead = make(decode.Waveform, gap)
			for idx := range lead {
				lead[idx] = w[0]
			}
		}
		err = WriteWav(f, append(lead, w...))
	default:
		if _, err = fmt.Fprintf(f, "# gap %d\n", gap); err == nil {
			err = WriteText(f, w)
		}
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	return err
}
