package bytecode

import (
	"encoding/binary"
	"fmt"

	"github.com/yuris-tools/yudecompile/container"
	"github.com/yuris-tools/yudecompile/reader"
)

var magicYSTB = binary.LittleEndian.Uint32([]byte("YSTB"))

// ystbHeaderLen is the fixed 32-byte header: magic, version, and six
// more u32 fields whose meaning is version-dependent.
const ystbHeaderLen = 32

// YSTB is one script's decoded command stream.
type YSTB struct {
	Ver  int
	Cmds []Cmd
	Key  uint32
}

// Load decodes a YSTB file's bytes into a command stream. kcc resolves
// the command names the decoder special-cases (IF/ELSE/LOOP/RETURNCODE/
// WORD), sourced from whichever vocabulary the caller has (YSCD
// preferred, YSCM as fallback). key is the per-project (or default)
// keyed-XOR key (spec §6: default 0xD36FAC96).
func Load(buf []byte, enc reader.Encoding, kcc container.KnownCmdCode, key uint32) (*YSTB, error) {
	r := reader.New(buf, enc)
	magi, err := r.U32()
	if err != nil {
		return nil, err
	}
	if magi != magicYSTB {
		return nil, &container.ErrBadMagic{Want: magicYSTB, Got: magi}
	}
	verU, err := r.U32()
	if err != nil {
		return nil, err
	}
	ver := int(verU)
	if ver < container.VerMin || ver >= container.VerMax {
		return nil, &container.ErrUnsupportedVersion{Ver: ver}
	}
	rest, err := r.Unpack(4, 4, 4, 4, 4, 4)
	if err != nil {
		return nil, err
	}
	y := &YSTB{Ver: ver, Key: key}
	if ver < 300 {
		y.Cmds, err = loadV2xx(r, rest, ver, enc, kcc, key)
	} else {
		y.Cmds, err = loadV300(r, rest, ver, enc, kcc, key)
	}
	if err != nil {
		return nil, err
	}
	if r.Pos() != r.Len() {
		return nil, fmt.Errorf("bytecode: %d trailing byte(s) after YSTB sections", r.Len()-r.Pos())
	}
	return y, nil
}

func loadV2xx(r *reader.Reader, rest []uint64, ver int, enc reader.Encoding, kcc container.KnownCmdCode, key uint32) ([]Cmd, error) {
	lcmd, lexp, expOff := int(rest[0]), int(rest[1]), int(rest[2])
	for _, p := range rest[3:] {
		if p != 0 {
			return nil, fmt.Errorf("bytecode: YSTB v2xx header padding must be zero")
		}
	}
	if ystbHeaderLen+lcmd != expOff {
		return nil, fmt.Errorf("bytecode: YSTB v2xx expression offset %d != header+lcmd %d", expOff, ystbHeaderLen+lcmd)
	}
	dcmd, err := r.Read(lcmd)
	if err != nil {
		return nil, err
	}
	dexp, err := r.Read(lexp)
	if err != nil {
		return nil, err
	}
	dcmd = XorTrans(append([]byte(nil), dcmd...), key)
	dexp = XorTrans(append([]byte(nil), dexp...), key)

	readOne := readCmdV2xx
	if ver == 290 {
		readOne = readCmdV290
	}
	rcmd := reader.New(dcmd, enc)
	var cmds []Cmd
	for rcmd.Pos() < rcmd.Len() {
		c, err := readOne(rcmd, dexp, enc, kcc)
		if err != nil {
			return nil, err
		}
		cmds = append(cmds, c)
	}
	return cmds, nil
}

func loadV300(r *reader.Reader, rest []uint64, ver int, enc reader.Encoding, kcc container.KnownCmdCode, key uint32) ([]Cmd, error) {
	ncmd, lcmd, larg, lexp, llno, pad := int(rest[0]), int(rest[1]), int(rest[2]), int(rest[3]), int(rest[4]), rest[5]
	if ncmd*4 != lcmd || lcmd != llno {
		return nil, fmt.Errorf("bytecode: YSTB v3xx ncmd*4 (%d) must equal lcmd (%d) and llno (%d)", ncmd*4, lcmd, llno)
	}
	if larg%12 != 0 {
		return nil, fmt.Errorf("bytecode: YSTB v3xx larg (%d) must be a multiple of 12", larg)
	}
	if pad != 0 {
		return nil, fmt.Errorf("bytecode: YSTB v3xx header padding must be zero")
	}
	dcmd, err := r.Read(lcmd)
	if err != nil {
		return nil, err
	}
	darg, err := r.Read(larg)
	if err != nil {
		return nil, err
	}
	dexp, err := r.Read(lexp)
	if err != nil {
		return nil, err
	}
	dlno, err := r.Read(llno)
	if err != nil {
		return nil, err
	}
	dcmd = XorTrans(append([]byte(nil), dcmd...), key)
	darg = XorTrans(append([]byte(nil), darg...), key)
	dexp = XorTrans(append([]byte(nil), dexp...), key)
	dlno = XorTrans(append([]byte(nil), dlno...), key)

	rcmd := reader.New(dcmd, enc)
	rarg := reader.New(darg, enc)
	rlno := reader.New(dlno, enc)
	cmds := make([]Cmd, ncmd)
	for i := range cmds {
		c, err := readCmdV300(rcmd, rarg, rlno, dexp, enc, kcc)
		if err != nil {
			return nil, err
		}
		cmds[i] = c
	}
	if err := rcmd.AssertEOF(ver); err != nil {
		return nil, err
	}
	if err := rarg.AssertEOF(ver); err != nil {
		return nil, err
	}
	if err := rlno.AssertEOF(ver); err != nil {
		return nil, err
	}
	return cmds, nil
}
