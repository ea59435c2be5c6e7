package bytecode

import (
	"fmt"

	"github.com/yuris-tools/yudecompile/container"
	"github.com/yuris-tools/yudecompile/reader"
)

// Cmd is one decoded command record (spec §3). Off is the command's
// byte offset in the original command stream — meaningful directly for
// v<300, and equal to the command index times 4 for v>=300. NPar is
// only populated for v>=300 (gosub/return parameter counts).
type Cmd struct {
	Off  int
	Lno  uint32
	Code uint8
	Args []Arg
	NPar uint16
}

func initArgs(r *reader.Reader, code uint8, narg int, dat []byte, enc reader.Encoding, kcc container.KnownCmdCode) ([]Arg, error) {
	switch {
	case (code == uint8(kcc.IF) || code == uint8(kcc.ELSE)) && narg == 3:
		args := make([]Arg, 3)
		for i := range args {
			var d []byte
			if i == 0 {
				d = dat
			}
			a, err := readArgExpr(r, d, enc)
			if err != nil {
				return nil, err
			}
			args[i] = a
		}
		return args, nil
	case code == uint8(kcc.LOOP):
		if narg != 2 {
			return nil, fmt.Errorf("bytecode: LOOP expects 2 args, got %d", narg)
		}
		a0, err := readArgExpr(r, dat, enc)
		if err != nil {
			return nil, err
		}
		a1, err := readArgExpr(r, nil, enc)
		if err != nil {
			return nil, err
		}
		return []Arg{a0, a1}, nil
	case code == uint8(kcc.ELSE):
		if narg != 0 {
			return nil, fmt.Errorf("bytecode: bare ELSE expects 0 args, got %d", narg)
		}
		return nil, nil
	case code == uint8(kcc.WORD):
		if narg != 1 {
			return nil, fmt.Errorf("bytecode: WORD expects 1 arg, got %d", narg)
		}
		a, err := readArgWord(r, dat, enc)
		if err != nil {
			return nil, err
		}
		return []Arg{a}, nil
	default:
		args := make([]Arg, narg)
		for i := range args {
			a, err := readArgExpr(r, dat, enc)
			if err != nil {
				return nil, err
			}
			args[i] = a
		}
		return args, nil
	}
}

// readCmdV2xx decodes a v2xx command record (every v<300 except 290).
func readCmdV2xx(r *reader.Reader, dat []byte, enc reader.Encoding, kcc container.KnownCmdCode) (Cmd, error) {
	off := r.Pos()
	vals, err := r.Unpack(1, 1, 4)
	if err != nil {
		return Cmd{}, err
	}
	code, narg, lno := uint8(vals[0]), int(vals[1]), uint32(vals[2])
	c := Cmd{Off: off, Lno: lno, Code: code}
	if code != uint8(kcc.RETURNCODE) {
		c.Args, err = initArgs(r, code, narg, dat, enc, kcc)
		return c, err
	}
	if narg != 1 {
		return Cmd{}, fmt.Errorf("bytecode: RETURNCODE expects narg=1, got %d", narg)
	}
	a, err := readArgReturnV2xx(r)
	if err != nil {
		return Cmd{}, err
	}
	c.Args = []Arg{a}
	return c, nil
}

// readCmdV290 decodes a v290 command record — same header shape as
// v2xx, but RETURNCODE's placeholder argument is 8 bytes, not 4.
func readCmdV290(r *reader.Reader, dat []byte, enc reader.Encoding, kcc container.KnownCmdCode) (Cmd, error) {
	off := r.Pos()
	vals, err := r.Unpack(1, 1, 4)
	if err != nil {
		return Cmd{}, err
	}
	code, narg, lno := uint8(vals[0]), int(vals[1]), uint32(vals[2])
	c := Cmd{Off: off, Lno: lno, Code: code}
	if code != uint8(kcc.RETURNCODE) {
		c.Args, err = initArgs(r, code, narg, dat, enc, kcc)
		return c, err
	}
	if narg != 1 {
		return Cmd{}, fmt.Errorf("bytecode: RETURNCODE expects narg=1, got %d", narg)
	}
	a, err := readArgReturnV290(r)
	if err != nil {
		return Cmd{}, err
	}
	c.Args = []Arg{a}
	return c, nil
}

// readCmdV300 decodes a v>=300 command record, whose fixed header,
// argument stream, and line-number stream are three independently
// XOR-decoded sections read through three separate cursors.
func readCmdV300(rCmd, rArg, rLno *reader.Reader, dat []byte, enc reader.Encoding, kcc container.KnownCmdCode) (Cmd, error) {
	off := rCmd.Pos()
	lno, err := rLno.U32()
	if err != nil {
		return Cmd{}, err
	}
	vals, err := rCmd.Unpack(1, 1, 2)
	if err != nil {
		return Cmd{}, err
	}
	code, narg, npar := uint8(vals[0]), int(vals[1]), uint16(vals[2])
	c := Cmd{Off: off, Lno: lno, Code: code, NPar: npar}
	if code != uint8(kcc.RETURNCODE) {
		c.Args, err = initArgs(rArg, code, narg, dat, enc, kcc)
		return c, err
	}
	if narg != 1 {
		return Cmd{}, fmt.Errorf("bytecode: RETURNCODE expects narg=1, got %d", narg)
	}
	a, err := readArgExpr(rArg, nil, enc)
	if err != nil {
		return Cmd{}, err
	}
	c.Args = []Arg{a}
	return c, nil
}
