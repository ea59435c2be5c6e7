package container

import (
	"fmt"

	"github.com/yuris-tools/yudecompile/reader"
)

// DArg is a compiler command's parameter descriptor (spec §3): the
// vocabulary YSCD provides that YSCM lacks (names, not just ordinals).
type DArg struct {
	Name string
	Unk2 [2]uint8 // meaning not recovered from the vendor format
	Typ  uint8
	Val  uint8
}

func readDArg(r *reader.Reader) (DArg, error) {
	name, err := r.Sz()
	if err != nil {
		return DArg{}, err
	}
	b, err := r.Read(4)
	if err != nil {
		return DArg{}, err
	}
	if b[2] > 3 {
		return DArg{}, fmt.Errorf("container: YSCD arg %q has out-of-range typ %d", name, b[2])
	}
	return DArg{Name: name, Unk2: [2]uint8{b[0], b[1]}, Typ: b[2], Val: b[3]}, nil
}

// DCmd is a compiler command's name and parameter list.
type DCmd struct {
	Name string
	Args []DArg
}

func readDCmd(r *reader.Reader) (DCmd, error) {
	name, err := r.Sz()
	if err != nil {
		return DCmd{}, err
	}
	narg, err := r.Byte()
	if err != nil {
		return DCmd{}, err
	}
	args := make([]DArg, narg)
	for i := range args {
		a, err := readDArg(r)
		if err != nil {
			return DCmd{}, err
		}
		args[i] = a
	}
	return DCmd{Name: name, Args: args}, nil
}

// DVar is one compiler-defined variable (spec §3): the slots addressed
// by var_idx < VarUsrMin.
type DVar struct {
	Name string
	Typ  uint8
	Dim  []uint32
}

func readDVar(r *reader.Reader) (DVar, error) {
	name, err := r.Sz()
	if err != nil {
		return DVar{}, err
	}
	b, err := r.Read(2)
	if err != nil {
		return DVar{}, err
	}
	typ, ndim := b[0], int(b[1])
	if typ < 1 || typ > 3 {
		return DVar{}, fmt.Errorf("container: YSCD var %q has out-of-range typ %d", name, typ)
	}
	dim := make([]uint32, ndim)
	for i := range dim {
		d, err := r.U32()
		if err != nil {
			return DVar{}, err
		}
		dim[i] = d
	}
	return DVar{Name: name, Typ: typ, Dim: dim}, nil
}

// YSCD is the compiler vocabulary: command names+parameter metadata and
// the compiler-allocated variable table, used in place of YSCM whenever
// the caller supplies it (spec §3, preferred over YSCM).
type YSCD struct {
	Ver  int
	Cmds []DCmd
	Vars []DVar
	Errs []Err
	EStr []string
	Blok [][]byte
	B800 []byte
	KCC  KnownCmdCode
}

func (y *YSCD) CmdNames() []string {
	out := make([]string, len(y.Cmds))
	for i, c := range y.Cmds {
		out[i] = c.Name
	}
	return out
}

// ParseYSCD decodes a YSCD container from buf.
func ParseYSCD(buf []byte, enc reader.Encoding) (*YSCD, error) {
	r := reader.New(buf, enc)
	ver, err := readHeader(r, magicYSCD)
	if err != nil {
		return nil, err
	}
	ncmd, err := r.U32()
	if err != nil {
		return nil, err
	}
	pad1, err := r.U32()
	if err != nil {
		return nil, err
	}
	if pad1 != 0 {
		return nil, errPaddingNonzero("YSCD", pad1)
	}
	y := &YSCD{Ver: ver, Cmds: make([]DCmd, ncmd)}
	for i := range y.Cmds {
		c, err := readDCmd(r)
		if err != nil {
			return nil, err
		}
		y.Cmds[i] = c
	}
	nvarPad, err := r.Unpack(4, 4)
	if err != nil {
		return nil, err
	}
	nvar, pad2 := int(nvarPad[0]), nvarPad[1]
	if nvar >= VarUsrMin {
		return nil, fmt.Errorf("container: YSCD nvar=%d must be < %d", nvar, VarUsrMin)
	}
	if pad2 != 0 {
		return nil, errPaddingNonzero("YSCD", uint32(pad2))
	}
	y.Vars = make([]DVar, nvar)
	for i := range y.Vars {
		v, err := readDVar(r)
		if err != nil {
			return nil, err
		}
		y.Vars[i] = v
	}
	nerrPad, err := r.Unpack(4, 4)
	if err != nil {
		return nil, err
	}
	nerr, pad3 := int(nerrPad[0]), nerrPad[1]
	if pad3 != 0 {
		return nil, errPaddingNonzero("YSCD", uint32(pad3))
	}
	y.Errs = make([]Err, nerr)
	for i := range y.Errs {
		e, err := readErr(r)
		if err != nil {
			return nil, err
		}
		y.Errs[i] = e
	}
	y.EStr = make([]string, nErrStr)
	for i := range y.EStr {
		s, err := r.Sz()
		if err != nil {
			return nil, err
		}
		y.EStr[i] = s
	}
	blokPad, err := r.Unpack(4, 4)
	if err != nil {
		return nil, err
	}
	blok, pad4 := int(blokPad[0]), blokPad[1]
	if pad4 != 0 {
		return nil, errPaddingNonzero("YSCD", uint32(pad4))
	}
	y.Blok = make([][]byte, blok)
	for i := range y.Blok {
		b, err := r.Read(blok)
		if err != nil {
			return nil, err
		}
		y.Blok[i] = b
	}
	y.B800, err = r.Read(0x800)
	if err != nil {
		return nil, err
	}
	y.KCC, err = resolveKnownCmdCode(y)
	if err != nil {
		return nil, err
	}
	if err := r.AssertEOF(ver); err != nil {
		return nil, err
	}
	return y, nil
}
