// Package gen generates sample level waveforms from bits and pulse widths.
package gen

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"

	"github.com/bemasher/lfem4x/decode"
)

// RandID returns a random identifier with the given number of bits.
func RandID(bits uint) (id uint64, err error) {
	buf := make([]byte, 8)
	if _, err = rand.Read(buf); err != nil {
		return 0, err
	}

	return binary.BigEndian.Uint64(buf) & (1<<bits - 1), nil
}

// UnpackBits expands each byte into 8 bits, MSB first.
func UnpackBits(data []byte) decode.Bits {
	bits := make(decode.Bits, len(data)<<3)

	for idx, b := range data {
		offset := idx << 3
		for bit := 7; bit >= 0; bit-- {
			bits[offset+(7-bit)] = (b >> uint8(bit)) & 0x01
		}
	}

	return bits
}

// UnpackValue expands the low n bits of v, MSB first.
func UnpackValue(v uint64, n int) decode.Bits {
	bits := make(decode.Bits, n)
	for idx := range bits {
		bits[idx] = byte(v>>uint(n-1-idx)) & 0x01
	}
	return bits
}

// Upsample repeats each bit factor times.
func Upsample(bits decode.Bits, factor int) decode.Waveform {
	signal := make(decode.Waveform, len(bits)*factor)

	for idx, b := range bits {
		offset := idx * factor
		for i := 0; i < factor; i++ {
			signal[offset+i] = int(b)
		}
	}

	return signal
}

// Manchester emits one clock wide symbol per bit: the first half carries the
// inverted bit, the second half the bit itself.
func Manchester(bits decode.Bits, clock int) decode.Waveform {
	if clock < 2 {
		panic(fmt.Errorf("clock must be at least 2: %d", clock))
	}

	signal := make(decode.Waveform, 0, len(bits)*clock)
	half := clock >> 1
	for _, b := range bits {
		for i := 0; i < half; i++ {
			signal = append(signal, int(b^1))
		}
		for i := half; i < clock; i++ {
			signal = append(signal, int(b))
		}
	}

	return signal
}

// PulseTrain emits square pulses of the given widths. Each pulse starts at
// low for half its width and rises to high for the remainder.
func PulseTrain(widths []int, high, low int) decode.Waveform {
	var n int
	for _, width := range widths {
		n += width
	}

	signal := make(decode.Waveform, 0, n)
	for _, width := range widths {
		for i := 0; i < width>>1; i++ {
			signal = append(signal, low)
		}
		for i := width >> 1; i < width; i++ {
			signal = append(signal, high)
		}
	}

	return signal
}

// Level emits n samples at v.
func Level(n, v int) decode.Waveform {
	signal := make(decode.Waveform, n)
	for idx := range signal {
		signal[idx] = v
	}
	return signal
}
