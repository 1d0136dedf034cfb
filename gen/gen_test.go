package gen

import (
	"log"
	"testing"

	"github.com/bemasher/lfem4x/decode"
	"github.com/go-test/deep"
)

func init() {
	log.SetFlags(log.Lshortfile | log.Lmicroseconds)
}

func TestRandID(t *testing.T) {
	for i := 0; i < 512; i++ {
		id, err := RandID(40)
		if err != nil {
			t.Fatal(err)
		}

		if id>>40 != 0 {
			t.Fatalf("Expected 40 bit id got %016X\n", id)
		}
	}
}

func TestUnpackBits(t *testing.T) {
	recv := UnpackBits([]byte{0xF9, 0x53}).String()
	expt := "1111100101010011"
	if recv != expt {
		t.Fatalf("Expected %s got %s\n", expt, recv)
	}
}

func TestUnpackValue(t *testing.T) {
	recv := UnpackValue(0xB, 4).String()
	if recv != "1011" {
		t.Fatalf("Expected %s got %s\n", "1011", recv)
	}

	if recv := UnpackValue(0x0F0368568B, 40).String(); recv != UnpackBits([]byte{0x0F, 0x03, 0x68, 0x56, 0x8B}).String() {
		t.Fatalf("Expected %s got %s\n", UnpackBits([]byte{0x0F, 0x03, 0x68, 0x56, 0x8B}), recv)
	}
}

func TestUpsample(t *testing.T) {
	recv := Upsample(decode.Bits{1, 0}, 3)
	expt := decode.Waveform{1, 1, 1, 0, 0, 0}
	if diff := deep.Equal(recv, expt); diff != nil {
		t.Fatal(diff)
	}
}

func TestManchester(t *testing.T) {
	recv := Manchester(decode.Bits{1, 0, 0}, 4)
	expt := decode.Waveform{0, 0, 1, 1, 1, 1, 0, 0, 1, 1, 0, 0}
	if diff := deep.Equal(recv, expt); diff != nil {
		t.Fatal(diff)
	}
}

func TestPulseTrain(t *testing.T) {
	w := PulseTrain([]int{4, 5}, 9, -9)
	expt := decode.Waveform{-9, -9, 9, 9, -9, -9, 9, 9, 9}
	if diff := deep.Equal(w, expt); diff != nil {
		t.Fatal(diff)
	}

	thr, err := decode.Estimate(w)
	if err != nil {
		t.Fatal(err)
	}

	pt, err := decode.Pulses(append(w, Level(128, -9)...), thr)
	if err != nil {
		t.Fatal(err)
	}
	if pt.Widths[0] != 4 || pt.Widths[1] != 5 {
		t.Fatalf("Expected widths [4 5] got %d\n", pt.Widths)
	}
}
