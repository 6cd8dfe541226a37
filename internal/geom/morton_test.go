package geom

import "testing"

// TestEncode4DRoundTrip is testable property 8: for any four 16-bit inputs,
// bit 4*i+j of the encoded value is bit i of input j, for i in 0..=15.
func TestEncode4DRoundTrip(t *testing.T) {
	inputs := [4]uint16{0b1010_1100_0011_0101, 0b0001_1110_1001_0110, 0b1111_0000_1111_0000, 0b0101_0101_0101_0101}
	got := Encode4D(inputs[0], inputs[1], inputs[2], inputs[3])

	for i := 0; i < 16; i++ {
		for j := 0; j < 4; j++ {
			want := (inputs[j] >> i) & 1
			have := (got >> (4*i + j)) & 1
			if uint16(have) != want {
				t.Fatalf("bit %d (i=%d,j=%d): got %d, want %d", 4*i+j, i, j, have, want)
			}
		}
	}
}

func TestEncode4DAllOnes(t *testing.T) {
	// S6 — all 64 bits set.
	got := Encode4D(0xFFFF, 0xFFFF, 0xFFFF, 0xFFFF)
	if got != ^uint64(0) {
		t.Errorf("Encode4D all-ones: got %#x, want all bits set", got)
	}
}

func TestEncode4DSingleBit(t *testing.T) {
	// Per the normative bit mapping in geom.Encode4D's doc comment (bit
	// 4*i+j carries bit i of input j), setting bit i=1 of the first input
	// (value 0x0002, not 0x0001) is the vector that lands on output bit 4.
	got := Encode4D(0x0002, 0x0000, 0x0000, 0x0000)
	want := uint64(1) << 4
	if got != want {
		t.Errorf("Encode4D single bit: got %#x, want %#x", got, want)
	}
}

func TestEncode4DZero(t *testing.T) {
	got := Encode4D(0, 0, 0, 0)
	if got != 0 {
		t.Errorf("Encode4D zero: got %#x, want 0", got)
	}
}
