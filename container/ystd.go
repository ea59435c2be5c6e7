package container

import "github.com/yuris-tools/yudecompile/reader"

// YSTD is the script-directory summary header: how many variables and
// how much text the whole decompiled project is expected to produce.
type YSTD struct {
	Ver   int
	NVar  int32
	NText int32
}

// ParseYSTD decodes a YSTD container from buf.
func ParseYSTD(buf []byte, enc reader.Encoding) (*YSTD, error) {
	r := reader.New(buf, enc)
	ver, err := readHeader(r, magicYSTD)
	if err != nil {
		return nil, err
	}
	vals, err := r.Unpack(4, 4)
	if err != nil {
		return nil, err
	}
	y := &YSTD{Ver: ver, NVar: int32(vals[0]), NText: int32(vals[1])}
	if err := r.AssertEOF(ver); err != nil {
		return nil, err
	}
	return y, nil
}
