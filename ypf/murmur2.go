package ypf

// murmur2 implements MurmurHash2 (32-bit), the variant the vendor tool
// uses for v>=470 hash verification (spec §4.7). No example repo in the
// retrieved pack vendors MurmurHash2 specifically — the pack's murmur
// dependencies (`github.com/twmb/murmur3`, `github.com/spaolacci/murmur3`)
// implement MurmurHash3, a materially different algorithm, so this is
// the classic public-domain MurmurHash2 reference algorithm implemented
// directly rather than faking a dependency (see DESIGN.md).
func murmur2(data []byte, seed uint32) uint32 {
	const m = 0x5bd1e995
	const r = 24

	h := seed ^ uint32(len(data))
	n := len(data) &^ 3
	for i := 0; i < n; i += 4 {
		k := uint32(data[i]) | uint32(data[i+1])<<8 | uint32(data[i+2])<<16 | uint32(data[i+3])<<24
		k *= m
		k ^= k >> r
		k *= m
		h *= m
		h ^= k
	}
	switch len(data) & 3 {
	case 3:
		h ^= uint32(data[n+2]) << 16
		fallthrough
	case 2:
		h ^= uint32(data[n+1]) << 8
		fallthrough
	case 1:
		h ^= uint32(data[n])
		h *= m
	}
	h ^= h >> 13
	h *= m
	h ^= h >> 15
	return h
}
