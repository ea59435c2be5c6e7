package container

import "github.com/yuris-tools/yudecompile/reader"

// Scr is one script descriptor (spec §3). NVar<0 marks an empty
// placeholder slot: no YSTB file exists for it.
type Scr struct {
	Idx   int
	Path  string
	Time  uint64
	NVar  int32
	NLbl  int32
	NText int32
}

func readScrV200(r *reader.Reader, i int) (Scr, error) {
	vals, err := r.Unpack(4, 4)
	if err != nil {
		return Scr{}, err
	}
	idx, pathLen := int(vals[0]), int(vals[1])
	if idx != i {
		return Scr{}, &ErrScrIndexMismatch{Want: i, Got: idx}
	}
	path, err := r.Str(pathLen)
	if err != nil {
		return Scr{}, err
	}
	rest, err := r.Unpack(8, 4, 4)
	if err != nil {
		return Scr{}, err
	}
	return Scr{Idx: idx, Path: path, Time: rest[0], NVar: int32(rest[1]), NLbl: int32(rest[2])}, nil
}

func readScrV470(r *reader.Reader, i int) (Scr, error) {
	vals, err := r.Unpack(4, 4)
	if err != nil {
		return Scr{}, err
	}
	idx, pathLen := int(vals[0]), int(vals[1])
	if idx != i {
		return Scr{}, &ErrScrIndexMismatch{Want: i, Got: idx}
	}
	path, err := r.Str(pathLen)
	if err != nil {
		return Scr{}, err
	}
	rest, err := r.Unpack(8, 4, 4, 4)
	if err != nil {
		return Scr{}, err
	}
	return Scr{Idx: idx, Path: path, Time: rest[0], NVar: int32(rest[1]), NLbl: int32(rest[2]), NText: int32(rest[3])}, nil
}

// ErrScrIndexMismatch is returned when a script record's self-reported
// index does not equal its position in the list.
type ErrScrIndexMismatch struct{ Want, Got int }

func (e *ErrScrIndexMismatch) Error() string {
	return "container: YSTL script index mismatch"
}

// YSTL is the ordered list of script descriptors.
type YSTL struct {
	Ver  int
	Scrs []Scr
}

// ParseYSTL decodes a YSTL container from buf. The v<470/v>=470 record
// width split is resolved per spec §4.2.
func ParseYSTL(buf []byte, enc reader.Encoding) (*YSTL, error) {
	r := reader.New(buf, enc)
	ver, err := readHeader(r, magicYSTL)
	if err != nil {
		return nil, err
	}
	nscr, err := r.U32()
	if err != nil {
		return nil, err
	}
	readOne := readScrV200
	if ver >= 470 {
		readOne = readScrV470
	}
	y := &YSTL{Ver: ver, Scrs: make([]Scr, nscr)}
	for i := range y.Scrs {
		s, err := readOne(r, i)
		if err != nil {
			return nil, err
		}
		y.Scrs[i] = s
	}
	if err := r.AssertEOF(ver); err != nil {
		return nil, err
	}
	return y, nil
}
