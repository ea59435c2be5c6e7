package container

import "github.com/yuris-tools/yudecompile/reader"

// Err is one compiler-defined error message record shared by YSER and YSCD.
type Err struct {
	ID  uint32
	Msg string
}

func readErr(r *reader.Reader) (Err, error) {
	id, err := r.U32()
	if err != nil {
		return Err{}, err
	}
	msg, err := r.Sz()
	if err != nil {
		return Err{}, err
	}
	return Err{ID: id, Msg: msg}, nil
}

// YSER is the standalone error-message table.
type YSER struct {
	Ver  int
	Errs []Err
}

// ParseYSER decodes a YSER container from buf.
func ParseYSER(buf []byte, enc reader.Encoding) (*YSER, error) {
	r := reader.New(buf, enc)
	ver, err := readHeader(r, magicYSER)
	if err != nil {
		return nil, err
	}
	nerr, err := r.U32()
	if err != nil {
		return nil, err
	}
	pad, err := r.U32()
	if err != nil {
		return nil, err
	}
	if pad != 0 {
		return nil, errPaddingNonzero("YSER", pad)
	}
	y := &YSER{Ver: ver, Errs: make([]Err, nerr)}
	for i := range y.Errs {
		e, err := readErr(r)
		if err != nil {
			return nil, err
		}
		y.Errs[i] = e
	}
	if err := r.AssertEOF(ver); err != nil {
		return nil, err
	}
	return y, nil
}
