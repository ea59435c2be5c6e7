// Package bytecode loads a per-script YSTB file: the keyed-XOR
// deobfuscated command/argument/expression/line-number sections, and
// the version-dispatched Cmd/Arg record layouts that sit on top of them.
package bytecode

// XorTrans applies the 4-byte keyed XOR used to deobfuscate every YSTB
// section (spec §4.3, §8 round-trip law). Key bytes are taken
// big-endian: b0 lands on index 0, b1 on index 1, and so on, repeating
// every 4 bytes; a trailing partial group uses the leading key bytes.
// It mutates buf in place and also returns it.
func XorTrans(buf []byte, key uint32) []byte {
	k := [4]byte{byte(key >> 24), byte(key >> 16), byte(key >> 8), byte(key)}
	o := len(buf) &^ 3
	for i := 0; i < o; i += 4 {
		buf[i+0] ^= k[0]
		buf[i+1] ^= k[1]
		buf[i+2] ^= k[2]
		buf[i+3] ^= k[3]
	}
	for j := 0; j < len(buf)&3; j++ {
		buf[o+j] ^= k[j]
	}
	return buf
}
