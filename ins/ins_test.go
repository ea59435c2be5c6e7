package ins

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func leaf(s string) Node { return Leaf{Op: "var", Text: s} }

func TestPrecedenceLeftParensKept(t *testing.T) {
	// ((a+b)*c) -> (a+b)*c
	tree := &Binary{Op: "*", Left: &Binary{Op: "+", Left: leaf("a"), Right: leaf("b")}, Right: leaf("c")}
	if got, want := ToStr(tree), "(a+b)*c"; got != want {
		t.Fatalf("ToStr = %q, want %q", got, want)
	}
}

func TestPrecedenceRightParensKept(t *testing.T) {
	// (a*(b+c)) -> a*(b+c)
	tree := &Binary{Op: "*", Left: leaf("a"), Right: &Binary{Op: "+", Left: leaf("b"), Right: leaf("c")}}
	if got, want := ToStr(tree), "a*(b+c)"; got != want {
		t.Fatalf("ToStr = %q, want %q", got, want)
	}
}

func TestPrecedenceLeftAssocDrop(t *testing.T) {
	// ((a+b)+c) -> a+b+c
	tree := &Binary{Op: "+", Left: &Binary{Op: "+", Left: leaf("a"), Right: leaf("b")}, Right: leaf("c")}
	if got, want := ToStr(tree), "a+b+c"; got != want {
		t.Fatalf("ToStr = %q, want %q", got, want)
	}
}

func TestPrecedenceRightParensKeptSameOp(t *testing.T) {
	// (a+(b+c)) -> a+(b+c), kept because of the <= rule on the rhs.
	tree := &Binary{Op: "+", Left: leaf("a"), Right: &Binary{Op: "+", Left: leaf("b"), Right: leaf("c")}}
	if got, want := ToStr(tree), "a+(b+c)"; got != want {
		t.Fatalf("ToStr = %q, want %q", got, want)
	}
}

func TestBinaryBandAlwaysParenthesizedAndPadded(t *testing.T) {
	tree := &Binary{Op: "&", Left: leaf("a"), Right: leaf("b")}
	if got, want := ToStr(tree), "(a & b)"; got != want {
		t.Fatalf("ToStr = %q, want %q", got, want)
	}
}

func TestDegenerateAmpersandTruncation(t *testing.T) {
	// [var(0x2340), &] -- a unary address-of-var at the end of the run.
	code := []Ins{
		{Code: 0x48, Op: "var", Arg: int64(0x2340)},
		{Code: 0x41, Op: "&"},
	}
	varName := func(x int64) (string, error) { return "@someVar", nil }
	tree, err := Lift(code, varName, false)
	if err != nil {
		t.Fatal(err)
	}
	if got, want := ToStr(tree), "&@someVar"; got != want {
		t.Fatalf("ToStr = %q, want %q", got, want)
	}
}

func TestTruncationOnlyToleratedAtFinalInstruction(t *testing.T) {
	// A binary op with no lhs that is NOT the final instruction is malformed.
	code := []Ins{
		{Code: 0x48, Op: "var", Arg: int64(0x2340)},
		{Code: 0x41, Op: "&"},
		{Code: 0x42, Op: "i8", Arg: int64(1)},
	}
	varName := func(x int64) (string, error) { return "@someVar", nil }
	if _, err := Lift(code, varName, false); err == nil {
		t.Fatal("expected stack underflow error, got nil")
	}
}

func TestLoopForeverSentinel(t *testing.T) {
	code := []Ins{{Code: 0x42, Op: "i8", Arg: int64(-1)}}
	tree, err := Lift(code, nil, false)
	if err != nil {
		t.Fatal(err)
	}
	leaf, ok := tree.(Leaf)
	if !ok || leaf.Text != "-1" {
		t.Fatalf("tree = %#v, want Leaf{-1}", tree)
	}
}

func TestZeroLiteralSentinel(t *testing.T) {
	code := []Ins{{Code: 0x4C, Op: "i64", Arg: int64(0)}}
	tree, err := Lift(code, nil, false)
	if err != nil {
		t.Fatal(err)
	}
	leaf, ok := tree.(Leaf)
	if !ok || leaf.Text != "0" {
		t.Fatalf("tree = %#v, want Leaf{0}", tree)
	}
}

func TestLiftSimpleBinaryExpression(t *testing.T) {
	// a + b, postfix: var(a), var(b), +
	names := map[int64]string{1: "a", 2: "b"}
	varName := func(x int64) (string, error) { return names[x>>8], nil }
	code := []Ins{
		{Code: 0x48, Op: "var", Arg: int64(1 << 8)},
		{Code: 0x48, Op: "var", Arg: int64(2 << 8)},
		{Code: 0x2B, Op: "+"},
	}
	tree, err := Lift(code, varName, false)
	if err != nil {
		t.Fatal(err)
	}
	if got, want := ToStr(tree), "a+b"; got != want {
		t.Fatalf("ToStr = %q, want %q", got, want)
	}
}

func TestLiftBinaryExpressionTreeShape(t *testing.T) {
	// Same postfix run as TestLiftSimpleBinaryExpression, but diffed
	// structurally against the expected tree instead of its rendered text.
	names := map[int64]string{1: "a", 2: "b"}
	varName := func(x int64) (string, error) { return names[x>>8], nil }
	code := []Ins{
		{Code: 0x48, Op: "var", Arg: int64(1 << 8)},
		{Code: 0x48, Op: "var", Arg: int64(2 << 8)},
		{Code: 0x2B, Op: "+"},
	}
	got, err := Lift(code, varName, false)
	if err != nil {
		t.Fatal(err)
	}
	want := &Binary{Op: "+", Left: Leaf{Op: "var", Text: "a"}, Right: Leaf{Op: "var", Text: "b"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("Lift tree mismatch (-want +got):\n%s", diff)
	}
}

func TestIndexedVarLift(t *testing.T) {
	// a(b) : idxbeg(a), var(b), idxend
	names := map[int64]string{1: "a", 2: "b"}
	varName := func(x int64) (string, error) { return names[x>>8], nil }
	code := []Ins{
		{Code: 0x56, Op: "idxbeg", Arg: int64(1 << 8)},
		{Code: 0x48, Op: "var", Arg: int64(2 << 8)},
		{Code: 0x29, Op: "idxend", Arg: int64(0)},
	}
	tree, err := Lift(code, varName, false)
	if err != nil {
		t.Fatal(err)
	}
	if got, want := ToStr(tree), "a(b)"; got != want {
		t.Fatalf("ToStr = %q, want %q", got, want)
	}
}

func TestNonSingletonStack(t *testing.T) {
	names := map[int64]string{1: "a", 2: "b"}
	varName := func(x int64) (string, error) { return names[x>>8], nil }
	code := []Ins{
		{Code: 0x48, Op: "var", Arg: int64(1 << 8)},
		{Code: 0x48, Op: "var", Arg: int64(2 << 8)},
	}
	if _, err := Lift(code, varName, false); err == nil {
		t.Fatal("expected non-singleton error")
	}
}

func TestBytesRoundTripIntWidths(t *testing.T) {
	for _, w := range []uint16{1, 2, 4, 8} {
		var code byte
		switch w {
		case 1:
			code = 0x42
		case 2:
			code = 0x57
		case 4:
			code = 0x49
		case 8:
			code = 0x4C
		}
		in := Ins{Code: code, Size: w, Op: "i", Arg: int64(-1)}
		b, err := in.Bytes()
		if err != nil {
			t.Fatal(err)
		}
		op := map[byte]string{0x42: "i8", 0x57: "i16", 0x49: "i32", 0x4C: "i64"}[code]
		in.Op = op
		got, err := DecodeAll(b, nil)
		if err != nil {
			t.Fatal(err)
		}
		if len(got) != 1 || got[0].Arg.(int64) != -1 {
			t.Fatalf("round trip width %d: got %#v", w, got)
		}
	}
}
