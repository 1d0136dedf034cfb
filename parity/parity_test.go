package parity

import (
	"math/bits"
	"testing"
	"testing/quick"
)

func TestTable(t *testing.T) {
	for v := 0; v < 256; v++ {
		expt := byte(bits.OnesCount8(uint8(v)) & 1)
		if recv := Even(byte(v)); recv != expt {
			t.Fatalf("Expected %d got %d for %08b\n", expt, recv, v)
		}
	}
}

func TestRows(t *testing.T) {
	// EM410x nibbles of 0F0368568B.
	r := Rows{Width: 4, Values: []byte{0x0, 0xF, 0x0, 0x3, 0x6, 0x8, 0x5, 0x6, 0x8, 0xB}}

	expt := []byte{0, 0, 0, 0, 0, 1, 0, 0, 1, 1}
	for idx := range r.Values {
		if recv := r.Row(idx); recv != expt[idx] {
			t.Fatalf("Row %d: expected %d got %d\n", idx, expt[idx], recv)
		}
	}

	if column := r.Column(); column != 0x2 {
		t.Fatalf("Expected column parity %04b got %04b\n", 0x2, column)
	}

	if !r.Check(expt, 0x2) {
		t.Fatal("Check failed on valid parity")
	}
	if r.Check(expt, 0x3) {
		t.Fatal("Check passed on invalid column parity")
	}
}

// Column parity of rows with their own column parity appended is always zero.
func TestColumnIdentity(t *testing.T) {
	err := quick.Check(func(values []byte) bool {
		r := Rows{Width: 8, Values: values}
		closed := Rows{Width: 8, Values: append(append([]byte{}, values...), r.Column())}
		return closed.Column() == 0
	}, nil)

	if err != nil {
		t.Fatal("Error testing identity:", err)
	}
}
