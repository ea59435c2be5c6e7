package bytecode

import (
	"fmt"

	"github.com/yuris-tools/yudecompile/ins"
	"github.com/yuris-tools/yudecompile/reader"
)

// AssignOp is the assignment-operator table an Arg.Aop indexes into.
var AssignOp = [...]string{"=", "+=", "-=", "*=", "/=", "%=", "&=", "|=", "^="}

// Arg is one command argument (spec §3). Dat is resolved eagerly: nil
// for a RETURNCODE placeholder, a string for WORD/raw-text arguments,
// or an []ins.Ins postfix run for an expression argument.
type Arg struct {
	ID  uint16
	Typ uint8
	Aop uint8
	Len uint32
	Off uint32
	Dat any
}

// AopStr renders a.Aop through AssignOp.
func (a Arg) AopStr() (string, error) {
	if int(a.Aop) >= len(AssignOp) {
		return "", fmt.Errorf("bytecode: arg id=%d has out-of-range aop=%d", a.ID, a.Aop)
	}
	return AssignOp[a.Aop], nil
}

// readArgExpr reads a full 12-byte argument header and, when dat is
// non-nil, slices out and postfix-decodes its expression payload.
func readArgExpr(r *reader.Reader, dat []byte, enc reader.Encoding) (Arg, error) {
	vals, err := r.Unpack(2, 1, 1, 4, 4)
	if err != nil {
		return Arg{}, err
	}
	a := Arg{ID: uint16(vals[0]), Typ: uint8(vals[1]), Aop: uint8(vals[2]), Len: uint32(vals[3]), Off: uint32(vals[4])}
	if a.Aop > 8 {
		return Arg{}, fmt.Errorf("bytecode: arg id=%d has out-of-range aop=%d", a.ID, a.Aop)
	}
	if dat == nil {
		return a, nil
	}
	if int(a.Off)+int(a.Len) > len(dat) {
		return Arg{}, fmt.Errorf("bytecode: arg id=%d expression slice [%d:%d) overruns expression blob of length %d", a.ID, a.Off, a.Off+a.Len, len(dat))
	}
	slice := dat[a.Off : a.Off+a.Len]
	code, err := ins.DecodeAll(slice, enc)
	if err != nil {
		return Arg{}, err
	}
	a.Dat = code
	return a, nil
}

// readArgWord reads a WORD argument: the header fields must all be
// zero, and the payload is raw text, not an expression.
func readArgWord(r *reader.Reader, dat []byte, enc reader.Encoding) (Arg, error) {
	vals, err := r.Unpack(2, 1, 1, 4, 4)
	if err != nil {
		return Arg{}, err
	}
	a := Arg{ID: uint16(vals[0]), Typ: uint8(vals[1]), Aop: uint8(vals[2]), Len: uint32(vals[3]), Off: uint32(vals[4])}
	if a.ID != 0 || a.Typ != 0 || a.Aop != 0 {
		return Arg{}, fmt.Errorf("bytecode: WORD argument must have id=typ=aop=0, got id=%d typ=%d aop=%d", a.ID, a.Typ, a.Aop)
	}
	if int(a.Off)+int(a.Len) > len(dat) {
		return Arg{}, fmt.Errorf("bytecode: WORD argument slice [%d:%d) overruns expression blob of length %d", a.Off, a.Off+a.Len, len(dat))
	}
	text, err := enc.Decode(dat[a.Off : a.Off+a.Len])
	if err != nil {
		return Arg{}, err
	}
	a.Dat = text
	return a, nil
}

// readArgReturnV2xx reads a v2xx RETURNCODE placeholder: 4 bytes, no
// length/offset/payload.
func readArgReturnV2xx(r *reader.Reader) (Arg, error) {
	vals, err := r.Unpack(2, 1, 1)
	if err != nil {
		return Arg{}, err
	}
	if vals[1] != 0 || vals[2] != 0 {
		return Arg{}, fmt.Errorf("bytecode: v2xx RETURNCODE placeholder must have typ=aop=0")
	}
	return Arg{ID: uint16(vals[0])}, nil
}

// readArgReturnV290 reads a v290 RETURNCODE placeholder: 8 bytes,
// carrying only a length flag (0 or 1).
func readArgReturnV290(r *reader.Reader) (Arg, error) {
	vals, err := r.Unpack(2, 1, 1, 4)
	if err != nil {
		return Arg{}, err
	}
	if vals[1] != 0 || vals[2] != 0 {
		return Arg{}, fmt.Errorf("bytecode: v290 RETURNCODE placeholder must have typ=aop=0")
	}
	return Arg{ID: uint16(vals[0]), Len: uint32(vals[3])}, nil
}
