package ypf

// swapTrans builds a 256-entry byte permutation that is the identity
// except for the given index pairs, which are swapped (spec §4.7:
// "name_size_trans is a byte-permutation table selected by version").
func swapTrans(pairs ...[2]int) [256]byte {
	var t [256]byte
	for i := range t {
		t[i] = byte(i)
	}
	for _, p := range pairs {
		t[p[0]], t[p[1]] = t[p[1]], t[p[0]]
	}
	return t
}

// commonNLSwaps is shared by both the pre-v500 and v500 name-size
// permutations.
var commonNLSwaps = [][2]int{
	{6, 53}, {9, 11}, {12, 16}, {13, 19}, {21, 27}, {28, 30}, {32, 35}, {38, 41}, {44, 47},
}

var nameSizeTransV000 = swapTrans(append([][2]int{{3, 72}, {17, 25}, {46, 50}}, commonNLSwaps...)...)
var nameSizeTransV500 = swapTrans(append([][2]int{{3, 10}, {17, 24}, {20, 46}}, commonNLSwaps...)...)

// xorTable builds a 256-entry substitution table that XORs every byte
// value with k (spec §4.7: "name_byte_trans is a 256-byte XOR
// substitution").
func xorTable(k byte) [256]byte {
	var t [256]byte
	for i := range t {
		t[i] = byte(i) ^ k
	}
	return t
}

var nameByteTransV000 = xorTable(0xff)
var nameByteTransV290 = xorTable(0xff ^ 0x40)
var nameByteTransV500 = xorTable(0xff ^ 0x36)
