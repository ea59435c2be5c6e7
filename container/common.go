// Package container decodes the YU-RIS metadata containers: YSCM
// (builtin command/error vocabulary), YSER (error table), YSLB (label
// table), YSTD (script-directory header), YSTL (script descriptor
// list), YSVR (runtime variable table), and YSCD (compiler vocabulary +
// compiler variables). Every container shares a 4-byte magic + u32
// version header and is read in one pass from a fully-buffered
// reader.Reader.
package container

import (
	"encoding/binary"
	"fmt"

	"github.com/yuris-tools/yudecompile/reader"
)

// Version bounds (spec §3): valid engine versions satisfy VerMin <= v < VerMax.
const (
	VerMin = 200
	VerMax = 501
)

// ErrBadMagic is returned when a container's leading 4 bytes do not
// match the expected tag.
type ErrBadMagic struct {
	Want uint32
	Got  uint32
}

func (e *ErrBadMagic) Error() string {
	return fmt.Sprintf("container: bad magic: want %#08x got %#08x", e.Want, e.Got)
}

// ErrUnsupportedVersion is returned when a container's version header
// falls outside [VerMin, VerMax).
type ErrUnsupportedVersion struct {
	Ver int
}

func (e *ErrUnsupportedVersion) Error() string {
	return fmt.Sprintf("container: unsupported version %d (want %d..%d)", e.Ver, VerMin, VerMax-1)
}

func magicOf(tag string) uint32 {
	b := []byte(tag)
	return binary.LittleEndian.Uint32(b)
}

var (
	magicYSCM = magicOf("YSCM")
	magicYSER = magicOf("YSER")
	magicYSLB = magicOf("YSLB")
	magicYSTD = magicOf("YSTD")
	magicYSTL = magicOf("YSTL")
	magicYSVR = magicOf("YSVR")
	magicYSCD = magicOf("YSCD")
)

// readHeader consumes the common (magic, version) prefix and validates
// both against want and the global version range.
func readHeader(r *reader.Reader, want uint32) (ver int, err error) {
	got, err := r.U32()
	if err != nil {
		return 0, err
	}
	if got != want {
		return 0, &ErrBadMagic{Want: want, Got: got}
	}
	v, err := r.U32()
	if err != nil {
		return 0, err
	}
	ver = int(v)
	if ver < VerMin || ver >= VerMax {
		return 0, &ErrUnsupportedVersion{Ver: ver}
	}
	return ver, nil
}

func errPaddingNonzero(container string, pad uint32) error {
	return fmt.Errorf("container: %s header padding must be zero, got %d", container, pad)
}

// nErrStr is the fixed count of trailing free-text error strings
// carried by both YSCM and YSCD (grounded on NErrStr in the original).
const nErrStr = 37
