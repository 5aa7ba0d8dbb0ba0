package bridge

import "testing"

func TestIllegalMaskNonLastRequiresFullValidity(t *testing.T) {
	cases := []struct {
		name    string
		mask    uint64
		bytes   int
		illegal bool
	}{
		{"all valid", 0xFFFFFFFF, 32, false},
		{"one hole", 0xFFFFFFFF &^ (1 << 7), 32, true},
		{"empty", 0, 32, true},
		{"narrow full", 0xFF, 8, false},
		{"high bits beyond width ignored", 0xFFFF, 8, false},
	}
	for _, tc := range cases {
		if got := IllegalMask(tc.mask, tc.bytes, false); got != tc.illegal {
			t.Fatalf("%s: IllegalMask=%v want %v", tc.name, got, tc.illegal)
		}
	}
}

func TestIllegalMaskLastAllowsContiguousPrefix(t *testing.T) {
	cases := []struct {
		name    string
		mask    uint64
		bytes   int
		illegal bool
	}{
		{"full", 0xFFFFFFFF, 32, false},
		{"three byte prefix", 0b00000111, 32, false},
		{"single byte", 0b1, 32, false},
		{"empty prefix", 0, 32, false},
		{"hole inside prefix", 0b0101, 32, true},
		{"valid byte above a gap", 0b1000_0001, 32, true},
		{"trailing zeros after prefix", 0x0000FFFF, 32, false},
	}
	for _, tc := range cases {
		if got := IllegalMask(tc.mask, tc.bytes, true); got != tc.illegal {
			t.Fatalf("%s: IllegalMask=%v want %v", tc.name, got, tc.illegal)
		}
	}
}
