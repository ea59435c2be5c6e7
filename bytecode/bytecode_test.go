package bytecode

import (
	"bytes"
	"testing"
)

func TestXorTransRoundTrip(t *testing.T) {
	buf := []byte{1, 2, 3, 4, 5, 6, 7, 8, 9}
	orig := append([]byte(nil), buf...)
	XorTrans(buf, 0xD36FAC96)
	XorTrans(buf, 0xD36FAC96)
	if !bytes.Equal(buf, orig) {
		t.Fatalf("XorTrans(XorTrans(buf)) = %v, want %v", buf, orig)
	}
}

func TestXorTransAlignment(t *testing.T) {
	// Scenario: a 7-byte all-zero buffer with key 0xD36FAC96 becomes
	// [D3 6F AC 96 D3 6F AC] — the tail reuses the leading key bytes.
	buf := make([]byte, 7)
	XorTrans(buf, 0xD36FAC96)
	want := []byte{0xD3, 0x6F, 0xAC, 0x96, 0xD3, 0x6F, 0xAC}
	if !bytes.Equal(buf, want) {
		t.Fatalf("XorTrans = % x, want % x", buf, want)
	}
}

func TestXorTransEmptyAndShortBuffers(t *testing.T) {
	for n := 0; n < 4; n++ {
		buf := make([]byte, n)
		orig := append([]byte(nil), buf...)
		XorTrans(buf, 0xD36FAC96)
		XorTrans(buf, 0xD36FAC96)
		if !bytes.Equal(buf, orig) {
			t.Fatalf("n=%d: round trip failed, got %v", n, buf)
		}
	}
}
