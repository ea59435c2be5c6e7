package yuris

import (
	"bytes"
	"context"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/yuris-tools/yudecompile/bytecode"
	"github.com/yuris-tools/yudecompile/charset"
	"github.com/yuris-tools/yudecompile/container"
)

func u32le(v uint32) []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, v)
	return b
}

func u64le(v uint64) []byte {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint64(b, v)
	return b
}

func buildYSVR() []byte {
	var buf bytes.Buffer
	buf.WriteString("YSVR")
	buf.Write(u32le(200))
	buf.Write(u32le(0)) // nvar
	return buf.Bytes()
}

func buildYSLB() []byte {
	var buf bytes.Buffer
	buf.WriteString("YSLB")
	buf.Write(u32le(200))
	buf.Write(u32le(0)) // nlbl
	buf.Write(make([]byte, 4*256))
	return buf.Bytes()
}

func buildYSTL(path string) []byte {
	var buf bytes.Buffer
	buf.WriteString("YSTL")
	buf.Write(u32le(200))
	buf.Write(u32le(1)) // nscr
	buf.Write(u32le(0)) // idx
	buf.Write(u32le(uint32(len(path))))
	buf.WriteString(path)
	buf.Write(u64le(0)) // time
	buf.Write(u32le(0)) // nvar
	buf.Write(u32le(0)) // nlbl
	return buf.Bytes()
}

// buildYSTB assembles one v200 YSTB file with a single WORD command
// whose expression blob holds the literal text "hi" (spec §4.3 layout,
// §8 round-trip law over bytecode.XorTrans).
func buildYSTB(key uint32, wordCode uint8) []byte {
	var dcmd bytes.Buffer
	dcmd.WriteByte(wordCode)
	dcmd.WriteByte(1) // narg
	dcmd.Write(u32le(1)) // lno
	dcmd.Write(make([]byte, 2)) // arg id=0
	dcmd.WriteByte(0) // typ
	dcmd.WriteByte(0) // aop
	dcmd.Write(u32le(2)) // len
	dcmd.Write(u32le(0)) // off

	dexp := []byte("hi")

	dcmdCipher := bytecode.XorTrans(append([]byte(nil), dcmd.Bytes()...), key)
	dexpCipher := bytecode.XorTrans(append([]byte(nil), dexp...), key)

	var buf bytes.Buffer
	buf.WriteString("YSTB")
	buf.Write(u32le(200))
	buf.Write(u32le(uint32(dcmd.Len())))          // lcmd
	buf.Write(u32le(uint32(len(dexp))))           // lexp
	buf.Write(u32le(uint32(32 + dcmd.Len())))     // expOff
	buf.Write(u32le(0))
	buf.Write(u32le(0))
	buf.Write(u32le(0))
	buf.Write(dcmdCipher)
	buf.Write(dexpCipher)
	return buf.Bytes()
}

func writeFixtureTree(t *testing.T, dir string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, "ysv.ybn"), buildYSVR(), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "ysl.ybn"), buildYSLB(), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "yst_list.ybn"), buildYSTL("script1.yst"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "yst00000.ybn"), buildYSTB(DefaultYSTBKey, 4), 0o644); err != nil {
		t.Fatal(err)
	}
}

func testYSCD() *container.YSCD {
	return &container.YSCD{
		Ver: 200,
		Cmds: []container.DCmd{
			{Name: "IF"}, {Name: "ELSE"}, {Name: "LOOP"}, {Name: "RETURNCODE"}, {Name: "WORD"},
		},
		KCC: container.KnownCmdCode{IF: 0, ELSE: 1, LOOP: 2, RETURNCODE: 3, WORD: 4},
	}
}

func TestDecompileEndToEnd(t *testing.T) {
	in := t.TempDir()
	out := t.TempDir()
	writeFixtureTree(t, in)

	opts := Options{
		YSCD:           testYSCD(),
		InputEncoding:  charset.CP932,
		OutputEncoding: charset.UTF8,
	}
	if err := Decompile(context.Background(), in, out, opts); err != nil {
		t.Fatal(err)
	}

	got, err := os.ReadFile(filepath.Join(out, "script1.yst"))
	if err != nil {
		t.Fatal(err)
	}
	if want := "hi"; string(got) != want {
		t.Fatalf("script1.yst = %q, want %q", got, want)
	}
}

func TestDecompileRequiresEncodings(t *testing.T) {
	in := t.TempDir()
	out := t.TempDir()
	writeFixtureTree(t, in)

	err := Decompile(context.Background(), in, out, Options{YSCD: testYSCD(), OutputEncoding: charset.UTF8})
	if err == nil {
		t.Fatal("expected an error for missing InputEncoding")
	}
}

func TestDecompileHonorsContextCancellation(t *testing.T) {
	in := t.TempDir()
	out := t.TempDir()
	writeFixtureTree(t, in)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	opts := Options{YSCD: testYSCD(), InputEncoding: charset.CP932, OutputEncoding: charset.UTF8}
	if err := Decompile(ctx, in, out, opts); err == nil {
		t.Fatal("expected context cancellation error")
	}
}
