package decode

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// symbols emits each bit as half a clock of the inverted bit followed by half
// a clock of the bit.
func symbols(bits string, clock int) (w Waveform) {
	for _, c := range bits {
		bit := int(c - '0')
		for i := 0; i < clock>>1; i++ {
			w = append(w, bit^1)
		}
		for i := clock >> 1; i < clock; i++ {
			w = append(w, bit)
		}
	}
	return w
}

func TestEstimate(t *testing.T) {
	thr, err := Estimate(Waveform{3, -7, 12, 0, 5})
	require.NoError(t, err)
	assert.Equal(t, Threshold{High: 12, Low: -7}, thr)

	thr, err = Estimate(Waveform{4})
	require.NoError(t, err)
	assert.Equal(t, Threshold{High: 4, Low: 4}, thr)
}

func TestEstimateEmpty(t *testing.T) {
	_, err := Estimate(nil)
	assert.True(t, errors.Is(err, ErrPrecondition), "%+v", err)
}

func TestModulated(t *testing.T) {
	thr := Threshold{High: 10, Low: -10}
	assert.True(t, thr.Modulated(Waveform{0, 10, 0, -10}))
	assert.False(t, thr.Modulated(Waveform{0, 10, 10, 0}))
	assert.False(t, thr.Modulated(Waveform{-10, -10}))
	assert.False(t, thr.Modulated(nil))

	flat, err := Estimate(make(Waveform, 64))
	require.NoError(t, err)
	assert.False(t, flat.Modulated(make(Waveform, 64)))
}

func TestExtractPreconditions(t *testing.T) {
	thr := Threshold{High: 1, Low: 0}

	_, err := Extract(Waveform{}, thr, 64)
	assert.True(t, errors.Is(err, ErrPrecondition))

	_, err = Extract(Waveform{0, 1}, thr, 0)
	assert.True(t, errors.Is(err, ErrPrecondition))

	_, err = Extract(Waveform{0, 1}, thr, -64)
	assert.True(t, errors.Is(err, ErrPrecondition))
}

func TestExtractShort(t *testing.T) {
	bits, err := Extract(Waveform{0, 1, 0}, Threshold{High: 1, Low: 0}, 64)
	require.NoError(t, err)
	assert.Empty(t, bits)
}

func TestExtract(t *testing.T) {
	const input = "1101000111"

	bits, err := Extract(symbols(input, 64), Threshold{High: 1, Low: 0}, 64)
	require.NoError(t, err)
	require.Len(t, bits, len(input))

	// The first cell holds at zero, after which every cell tracks the
	// transmitted bit, so the whole sequence comes out inverted.
	assert.Equal(t, "0010111000", bits.String())
	assert.Equal(t, input, bits.Invert().String())
}

func TestExtractCarry(t *testing.T) {
	thr := Threshold{High: 10, Low: -10}

	// First cell drops its first touch and only sees high. The second starts
	// on that same high, so only its low counts. The third never leaves the
	// low it inherited.
	w := Waveform{
		-10, 0, 10, 10,
		10, 10, 0, -10,
		-10, 0, 0, 0,
	}

	bits, err := Extract(w, thr, 4)
	require.NoError(t, err)
	assert.Equal(t, "100", bits.String())
}

func TestBitsInvert(t *testing.T) {
	bits := Bits{1, 0, 1, 1}
	inv := bits.Invert()

	assert.Equal(t, Bits{0, 1, 0, 0}, inv)
	assert.Equal(t, Bits{1, 0, 1, 1}, bits)
	assert.Equal(t, bits, inv.Invert())
}

func TestParseBits(t *testing.T) {
	bits, err := ParseBits("10011")
	require.NoError(t, err)
	assert.Equal(t, Bits{1, 0, 0, 1, 1}, bits)

	_, err = ParseBits("10x1")
	assert.True(t, errors.Is(err, ErrPrecondition))
}

func TestFromBytes(t *testing.T) {
	assert.Equal(t, Waveform{0, 128, 255}, FromBytes([]byte{0x00, 0x80, 0xFF}))
}

func pulseTrain(widths ...int) (w Waveform) {
	for _, width := range widths {
		for i := 0; i < width>>1; i++ {
			w = append(w, 0)
		}
		for i := width >> 1; i < width; i++ {
			w = append(w, 1)
		}
	}
	return w
}

func TestPulses(t *testing.T) {
	widths := []int{192, 128, 192, 128, 100, 64}
	w := append(Waveform{1, 1, 1}, pulseTrain(widths...)...)

	pt, err := Pulses(w, Threshold{High: 1, Low: 0})
	require.NoError(t, err)

	assert.Equal(t, 3, pt.Lead)
	assert.Equal(t, widths, pt.Widths)
	assert.Equal(t, 3, pt.Offset(0))
	assert.Equal(t, 3+192+128, pt.Offset(2))
	assert.Equal(t, len(w), pt.Offset(pt.Len()))
}

func TestPulsesBound(t *testing.T) {
	// 10 pulses of 32 samples, bounded to 320/64 = 5.
	w := pulseTrain(32, 32, 32, 32, 32, 32, 32, 32, 32, 32)

	pt, err := Pulses(w, Threshold{High: 1, Low: 0})
	require.NoError(t, err)
	assert.Equal(t, 5, pt.Len())

	_, err = Pulses(nil, Threshold{})
	assert.True(t, errors.Is(err, ErrPrecondition))
}

func TestSkipHigh(t *testing.T) {
	w := Waveform{5, 5, 9, 0, 5}
	thr := Threshold{High: 9, Low: 0}

	assert.Equal(t, 3, SkipHigh(w, thr, 0))
	assert.Equal(t, 3, SkipHigh(w, thr, 3))
	assert.Equal(t, 5, SkipHigh(w, thr, 4))
}

func BenchmarkExtract(b *testing.B) {
	w := symbols("1111111110000011110000000011001100100010101001100100011011100100", 64)
	thr := Threshold{High: 1, Low: 0}

	b.SetBytes(int64(len(w)))
	b.ReportAllocs()
	b.ResetTimer()
	for n := 0; n < b.N; n++ {
		_, _ = Extract(w, thr, 64)
	}
}
