// Package ins implements the YU-RIS expression bytecode: the postfix
// instruction decoder, the postfix-to-tree lifter, and the tree-to-source
// serializer with minimal parenthesization (spec §4.4).
package ins

import (
	"encoding/binary"
	"fmt"
	"math"
	"strconv"

	"github.com/yuris-tools/yudecompile/reader"
)

// opcodeDesc is the declared operand width for an opcode (-1 means
// variable-length, carried in the wire size field) and its mnemonic.
type opcodeDesc struct {
	size int
	op   string
}

// opcodes is the full instruction table (spec §4.4).
var opcodes = map[byte]opcodeDesc{
	0x2C: {0, "nop"},
	0x48: {3, "var"},
	0x76: {3, "arr"},
	0x56: {3, "idxbeg"},
	0x29: {1, "idxend"},
	0x42: {1, "i8"},
	0x57: {2, "i16"},
	0x49: {4, "i32"},
	0x4C: {8, "i64"},
	0x46: {8, "f64"},
	0x4D: {-1, "str"},
	0x73: {0, "$"},
	0x69: {0, "@"},
	0x52: {0, "neg"},
	0x2A: {0, "*"},
	0x2F: {0, "/"},
	0x25: {0, "%"},
	0x2B: {0, "+"},
	0x2D: {0, "-"},
	0x3C: {0, "<"},
	0x53: {0, "<="},
	0x3E: {0, ">"},
	0x5A: {0, ">="},
	0x3D: {0, "=="},
	0x21: {0, "!="},
	0x41: {0, "&"},
	0x5E: {0, "^"},
	0x4F: {0, "|"},
	0x26: {0, "&&"},
	0x7C: {0, "||"},
}

// ErrUnknownOpcode is returned when a decoded byte has no entry in the
// opcode table.
type ErrUnknownOpcode struct {
	Code byte
	At   int
}

func (e *ErrUnknownOpcode) Error() string {
	return fmt.Sprintf("ins: unknown opcode %#02x at offset %d", e.Code, e.At)
}

// Ins is a single decoded instruction. Arg is nil, an int64, a float64,
// or a string, depending on Op.
type Ins struct {
	Code byte
	Size uint16
	Op   string
	Arg  any
}

// IsVarRef reports whether ins is a var/arr/idxbeg instruction, whose Arg
// packs (type qualifier : low byte, var_idx : remaining bytes).
func (ins Ins) IsVarRef() bool {
	switch ins.Op {
	case "var", "arr", "idxbeg":
		return true
	default:
		return false
	}
}

// VarQual splits a var/arr/idxbeg instruction's Arg into its type
// qualifier byte and variable index.
func (ins Ins) VarQual() (qual byte, varIdx int64) {
	x := ins.Arg.(int64)
	return byte(x & 0xff), x >> 8
}

// decode reads one instruction from r.
func decode(r *reader.Reader) (Ins, error) {
	at := r.Pos()
	code, err := r.Byte()
	if err != nil {
		return Ins{}, err
	}
	size, err := r.U16()
	if err != nil {
		return Ins{}, err
	}
	desc, ok := opcodes[code]
	if !ok {
		return Ins{}, &ErrUnknownOpcode{Code: code, At: at}
	}
	if desc.size >= 0 && desc.size != int(size) {
		return Ins{}, fmt.Errorf("ins: opcode %#02x (%s) declares operand width %d, wire says %d at offset %d",
			code, desc.op, desc.size, size, at)
	}
	out := Ins{Code: code, Size: size, Op: desc.op}
	switch code {
	case 0x46: // f64
		f, err := r.F64()
		if err != nil {
			return Ins{}, err
		}
		out.Arg = f
	case 0x4D: // str
		s, err := r.Str(int(size))
		if err != nil {
			return Ins{}, err
		}
		out.Arg = s
	default:
		if size > 0 {
			v, err := r.SI(int(size))
			if err != nil {
				return Ins{}, err
			}
			out.Arg = v
		}
	}
	return out, nil
}

// DecodeAll decodes every instruction in buf, which is exactly spanned
// (no trailing bytes, no instruction overruns the slice).
func DecodeAll(buf []byte, enc reader.Encoding) ([]Ins, error) {
	r := reader.New(buf, enc)
	var out []Ins
	for r.Pos() < r.Len() {
		in, err := decode(r)
		if err != nil {
			return nil, err
		}
		out = append(out, in)
	}
	return out, nil
}

// Bytes re-encodes ins to its wire form. Used only by round-trip tests;
// it refuses to encode "str" instructions because re-encoding text
// requires the caller's chosen output encoding, which this package does
// not own.
func (ins Ins) Bytes() ([]byte, error) {
	hdr := make([]byte, 3)
	hdr[0] = ins.Code
	binary.LittleEndian.PutUint16(hdr[1:], ins.Size)
	switch ins.Code {
	case 0x46:
		f, _ := ins.Arg.(float64)
		buf := make([]byte, 8)
		binary.LittleEndian.PutUint64(buf, math.Float64bits(f))
		return append(hdr, buf...), nil
	case 0x4D:
		return nil, fmt.Errorf("ins: encode str instructions via the caller's output encoding, not Bytes()")
	}
	if ins.Arg == nil {
		return hdr, nil
	}
	v, _ := ins.Arg.(int64)
	buf := make([]byte, ins.Size)
	u := uint64(v)
	for i := 0; i < int(ins.Size); i++ {
		buf[i] = byte(u)
		u >>= 8
	}
	return append(hdr, buf...), nil
}

// FormatInt renders an integer leaf the way the engine's own source
// syntax does: a plain decimal literal.
func FormatInt(v int64) string {
	return strconv.FormatInt(v, 10)
}

// FormatFloat renders a float leaf as a fixed-notation decimal literal.
func FormatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
