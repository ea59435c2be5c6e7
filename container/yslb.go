package container

import "github.com/yuris-tools/yudecompile/reader"

// lblPad is the fixed padding block between a YSLB header and its label
// records (grounded on `r.idx += 4*256` in the original reader).
const lblPad = 4 * 256

// Lbl is one label record (spec §3). IP is a bytecode offset for v<300
// and a command index for v>=300; converting the latter to a byte
// offset is the symbol environment's job, not this package's.
type Lbl struct {
	Name    string
	ID      uint32
	IP      uint32
	ScrIdx  uint16
	IfLvl   uint8
	LoopLvl uint8
}

func readLbl(r *reader.Reader) (Lbl, error) {
	n, err := r.Byte()
	if err != nil {
		return Lbl{}, err
	}
	name, err := r.Str(int(n))
	if err != nil {
		return Lbl{}, err
	}
	vals, err := r.Unpack(4, 4, 2, 1, 1)
	if err != nil {
		return Lbl{}, err
	}
	return Lbl{
		Name:    name,
		ID:      uint32(vals[0]),
		IP:      uint32(vals[1]),
		ScrIdx:  uint16(vals[2]),
		IfLvl:   uint8(vals[3]),
		LoopLvl: uint8(vals[4]),
	}, nil
}

// YSLB is the cross-script label table.
type YSLB struct {
	Ver  int
	Lbls []Lbl
}

// ParseYSLB decodes a YSLB container from buf.
func ParseYSLB(buf []byte, enc reader.Encoding) (*YSLB, error) {
	r := reader.New(buf, enc)
	ver, err := readHeader(r, magicYSLB)
	if err != nil {
		return nil, err
	}
	nlbl, err := r.U32()
	if err != nil {
		return nil, err
	}
	if _, err := r.Read(lblPad); err != nil {
		return nil, err
	}
	y := &YSLB{Ver: ver, Lbls: make([]Lbl, nlbl)}
	for i := range y.Lbls {
		l, err := readLbl(r)
		if err != nil {
			return nil, err
		}
		y.Lbls[i] = l
	}
	if err := r.AssertEOF(ver); err != nil {
		return nil, err
	}
	return y, nil
}
