package container

import (
	"fmt"

	"github.com/yuris-tools/yudecompile/reader"
)

// MArg is a builtin command's parameter descriptor as carried by YSCM
// (no type name beyond the numeric tag — YSCD is preferred when present).
type MArg struct {
	Name string
	Typ  uint8 // 0:Any 1:Int 2:Flt 3:Str
	Chk  uint8
}

func readMArg(r *reader.Reader) (MArg, error) {
	name, err := r.Sz()
	if err != nil {
		return MArg{}, err
	}
	b, err := r.Read(2)
	if err != nil {
		return MArg{}, err
	}
	if b[0] > 3 {
		return MArg{}, fmt.Errorf("container: YSCM arg %q has out-of-range typ %d", name, b[0])
	}
	return MArg{Name: name, Typ: b[0], Chk: b[1]}, nil
}

// MCmd is a builtin command's name and parameter list.
type MCmd struct {
	Name string
	Args []MArg
}

func readMCmd(r *reader.Reader) (MCmd, error) {
	name, err := r.Sz()
	if err != nil {
		return MCmd{}, err
	}
	narg, err := r.Byte()
	if err != nil {
		return MCmd{}, err
	}
	args := make([]MArg, narg)
	for i := range args {
		a, err := readMArg(r)
		if err != nil {
			return MCmd{}, err
		}
		args[i] = a
	}
	return MCmd{Name: name, Args: args}, nil
}

// KnownCmdCode resolves the handful of command names the emitter
// special-cases (IF, ELSE, LOOP, RETURNCODE, WORD) to their opcode
// index within a command vocabulary, whichever of YSCM/YSCD supplies it.
type KnownCmdCode struct {
	IF, ELSE, LOOP, RETURNCODE, WORD int
}

// Vocabulary is the minimal command-name lookup KnownCmdCode needs;
// both YSCM and YSCD satisfy it.
type Vocabulary interface {
	CmdNames() []string
}

func resolveKnownCmdCode(v Vocabulary) (KnownCmdCode, error) {
	idx := make(map[string]int, len(v.CmdNames()))
	for i, name := range v.CmdNames() {
		idx[name] = i
	}
	var kcc KnownCmdCode
	for _, pair := range []struct {
		name string
		dst  *int
	}{
		{"IF", &kcc.IF},
		{"ELSE", &kcc.ELSE},
		{"LOOP", &kcc.LOOP},
		{"RETURNCODE", &kcc.RETURNCODE},
		{"WORD", &kcc.WORD},
	} {
		i, ok := idx[pair.name]
		if !ok {
			return KnownCmdCode{}, fmt.Errorf("container: command vocabulary is missing required command %q", pair.name)
		}
		*pair.dst = i
	}
	return kcc, nil
}

// YSCM is the compiler-builtin command vocabulary, used as a fallback
// command/error table when no YSCD is supplied (spec §3).
type YSCM struct {
	Ver  int
	Cmds []MCmd
	Errs []string
	B256 []byte
	KCC  KnownCmdCode
}

func (y *YSCM) CmdNames() []string {
	out := make([]string, len(y.Cmds))
	for i, c := range y.Cmds {
		out[i] = c.Name
	}
	return out
}

// ParseYSCM decodes a YSCM container from buf.
func ParseYSCM(buf []byte, enc reader.Encoding) (*YSCM, error) {
	r := reader.New(buf, enc)
	ver, err := readHeader(r, magicYSCM)
	if err != nil {
		return nil, err
	}
	ncmd, err := r.U32()
	if err != nil {
		return nil, err
	}
	pad, err := r.U32()
	if err != nil {
		return nil, err
	}
	if pad != 0 {
		return nil, errPaddingNonzero("YSCM", pad)
	}
	y := &YSCM{Ver: ver, Cmds: make([]MCmd, ncmd)}
	for i := range y.Cmds {
		c, err := readMCmd(r)
		if err != nil {
			return nil, err
		}
		y.Cmds[i] = c
	}
	y.Errs = make([]string, nErrStr)
	for i := range y.Errs {
		s, err := r.Sz()
		if err != nil {
			return nil, err
		}
		y.Errs[i] = s
	}
	y.B256, err = r.Read(256)
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
