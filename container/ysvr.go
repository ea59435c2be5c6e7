package container

import (
	"fmt"

	"github.com/yuris-tools/yudecompile/ins"
	"github.com/yuris-tools/yudecompile/reader"
)

// VarUsrMin is the first user-variable index; indices below it are
// compiler-defined slots sourced from YSCD (spec §3).
const VarUsrMin = 1000

// InitV is a runtime variable's initializer: nil (typ=0, absent), an
// int64 (typ=1), a float64 (typ=2), or an []ins.Ins postfix run (typ=3).
type InitV any

// Var is one runtime variable record (spec §3).
type Var struct {
	Scope   uint8 // 1:Global 2:Script 3:Function
	GExt    uint8 // 0:System 1..3:UserGroup
	ScrIdx  uint16
	VarIdx  uint16
	Dim     []uint32
	Typ     uint8
	InitV   InitV
}

func readVarV000(r *reader.Reader) (Var, error) {
	vals, err := r.Unpack(1, 2, 2, 1, 1)
	if err != nil {
		return Var{}, err
	}
	v := Var{
		Scope:  uint8(vals[0]),
		ScrIdx: uint16(vals[1]),
		VarIdx: uint16(vals[2]),
	}
	if v.VarIdx < VarUsrMin {
		v.GExt = 0
	} else {
		v.GExt = 1
	}
	return readVarDimsInitV(r, v, uint8(vals[3]), int(vals[4]))
}

func readVarV481(r *reader.Reader) (Var, error) {
	vals, err := r.Unpack(1, 1, 2, 2, 1, 1)
	if err != nil {
		return Var{}, err
	}
	v := Var{
		Scope:  uint8(vals[0]),
		GExt:   uint8(vals[1]),
		ScrIdx: uint16(vals[2]),
		VarIdx: uint16(vals[3]),
	}
	return readVarDimsInitV(r, v, uint8(vals[4]), int(vals[5]))
}

func readVarDimsInitV(r *reader.Reader, v Var, typ uint8, ndim int) (Var, error) {
	switch v.Scope {
	case 1:
		if v.VarIdx < VarUsrMin {
			if v.GExt != 0 {
				return Var{}, fmt.Errorf("container: YSVR var_idx=%d is a global compiler slot, g_ext must be 0, got %d", v.VarIdx, v.GExt)
			}
		} else if v.GExt < 1 || v.GExt > 3 {
			return Var{}, fmt.Errorf("container: YSVR var_idx=%d is a global user slot, g_ext must be 1..3, got %d", v.VarIdx, v.GExt)
		}
	case 2, 3:
		if v.GExt != 1 {
			return Var{}, fmt.Errorf("container: YSVR var_idx=%d has scope=%d, g_ext must be 1, got %d", v.VarIdx, v.Scope, v.GExt)
		}
	default:
		return Var{}, fmt.Errorf("container: YSVR var_idx=%d has unknown scope=%d", v.VarIdx, v.Scope)
	}
	v.Typ = typ
	v.Dim = make([]uint32, ndim)
	for i := range v.Dim {
		d, err := r.U32()
		if err != nil {
			return Var{}, err
		}
		v.Dim[i] = d
	}
	switch typ {
	case 0:
		if v.VarIdx >= VarUsrMin {
			return Var{}, fmt.Errorf("container: YSVR var_idx=%d has typ=0 (absent), only legal for compiler slots (<%d)", v.VarIdx, VarUsrMin)
		}
		v.InitV = nil
	case 1:
		iv, err := r.SI(8)
		if err != nil {
			return Var{}, err
		}
		v.InitV = iv
	case 2:
		fv, err := r.F64()
		if err != nil {
			return Var{}, err
		}
		v.InitV = fv
	case 3:
		n, err := r.UI(2)
		if err != nil {
			return Var{}, err
		}
		b, err := r.Read(int(n))
		if err != nil {
			return Var{}, err
		}
		code, err := ins.DecodeAll(b, r.Enc())
		if err != nil {
			return Var{}, err
		}
		v.InitV = code
	default:
		return Var{}, fmt.Errorf("container: YSVR var_idx=%d has unknown typ=%d", v.VarIdx, typ)
	}
	return v, nil
}

// YSVR is the runtime variable table: every global, script-scope, and
// function-scope variable the build allocated (no locals — those are
// synthesized on-site by the emitter via ins_def_local).
type YSVR struct {
	Ver  int
	Vars []Var
	ByIdx map[uint16]Var
}

// ParseYSVR decodes a YSVR container from buf.
func ParseYSVR(buf []byte, enc reader.Encoding) (*YSVR, error) {
	r := reader.New(buf, enc)
	ver, err := readHeader(r, magicYSVR)
	if err != nil {
		return nil, err
	}
	nvar, err := r.U32()
	if err != nil {
		return nil, err
	}
	readOne := readVarV000
	if ver >= 481 {
		readOne = readVarV481
	}
	y := &YSVR{Ver: ver, Vars: make([]Var, nvar), ByIdx: make(map[uint16]Var, nvar)}
	for i := range y.Vars {
		v, err := readOne(r)
		if err != nil {
			return nil, err
		}
		y.Vars[i] = v
		y.ByIdx[v.VarIdx] = v
	}
	if err := r.AssertEOF(ver); err != nil {
		return nil, err
	}
	return y, nil
}
