package emit

import (
	"testing"

	"github.com/yuris-tools/yudecompile/bytecode"
	"github.com/yuris-tools/yudecompile/container"
	"github.com/yuris-tools/yudecompile/env"
	"github.com/yuris-tools/yudecompile/ins"
)

// buildEnv constructs a minimal symbol environment over a synthetic
// command vocabulary, bypassing binary parsing entirely.
func buildEnv(t *testing.T, ver int, cmds []container.DCmd, lbls []container.Lbl) *env.YEnv {
	t.Helper()
	ysvr := &container.YSVR{Ver: ver, ByIdx: map[uint16]container.Var{}}
	yslb := &container.YSLB{Ver: ver, Lbls: lbls}
	yscd := &container.YSCD{Ver: ver, Cmds: cmds}
	e, err := env.New(yscd, ysvr, yslb, nil, false)
	if err != nil {
		t.Fatal(err)
	}
	return e
}

func TestScriptLoopForeverSentinelRendersEmptyBrackets(t *testing.T) {
	cmds := []container.DCmd{{Name: "LOOP", Args: []container.DArg{{Name: "a"}, {Name: "b"}}}}
	lbls := []container.Lbl{{Name: "top", ScrIdx: 0, IP: 0}}
	e := buildEnv(t, 200, cmds, lbls)

	ystb := &bytecode.YSTB{
		Ver: 200,
		Cmds: []bytecode.Cmd{
			{
				Off: 0, Lno: 2, Code: 0,
				Args: []bytecode.Arg{
					{Dat: []ins.Ins{{Op: "i8", Arg: int64(-1)}}},
					{Dat: []ins.Ins{}},
				},
			},
		},
	}

	text, err := Script(e, 0, ystb)
	if err != nil {
		t.Fatal(err)
	}
	if want := "#top\nLOOP[]"; text != want {
		t.Fatalf("Script = %q, want %q", text, want)
	}
}

func TestScriptDefinerSuppressesZeroInitializer(t *testing.T) {
	cmds := []container.DCmd{{Name: "INT", Args: []container.DArg{{Name: "lhs"}, {Name: "rhs"}}}}
	e := buildEnv(t, 200, cmds, nil)

	x := int64(2001<<8) | 0x40
	ystb := &bytecode.YSTB{
		Ver: 200,
		Cmds: []bytecode.Cmd{
			{
				Off: 0, Lno: 1, Code: 0,
				Args: []bytecode.Arg{
					{Dat: []ins.Ins{{Op: "var", Arg: x}}},
					{Dat: []ins.Ins{{Op: "i64", Arg: int64(0)}}},
				},
			},
		},
	}

	text, err := Script(e, 0, ystb)
	if err != nil {
		t.Fatal(err)
	}
	if want := "INT[@vInt2001]"; text != want {
		t.Fatalf("Script = %q, want %q", text, want)
	}
}

func TestScriptDefinerKeepsNonZeroInitializer(t *testing.T) {
	cmds := []container.DCmd{{Name: "INT", Args: []container.DArg{{Name: "lhs"}, {Name: "rhs"}}}}
	e := buildEnv(t, 200, cmds, nil)

	x := int64(2002<<8) | 0x40
	ystb := &bytecode.YSTB{
		Ver: 200,
		Cmds: []bytecode.Cmd{
			{
				Off: 0, Lno: 1, Code: 0,
				Args: []bytecode.Arg{
					{Dat: []ins.Ins{{Op: "var", Arg: x}}},
					{Dat: []ins.Ins{{Op: "i8", Arg: int64(5)}}},
				},
			},
		},
	}

	text, err := Script(e, 0, ystb)
	if err != nil {
		t.Fatal(err)
	}
	if want := "INT[@vInt2002=5]"; text != want {
		t.Fatalf("Script = %q, want %q", text, want)
	}
}

func TestScriptLabelHoistsToEmptyPreviousLine(t *testing.T) {
	cmds := []container.DCmd{{Name: "LOOP", Args: []container.DArg{{Name: "a"}, {Name: "b"}}}}
	lbls := []container.Lbl{{Name: "top", ScrIdx: 0, IP: 0}}
	e := buildEnv(t, 200, cmds, lbls)

	ystb := &bytecode.YSTB{
		Ver: 200,
		Cmds: []bytecode.Cmd{
			{
				Off: 0, Lno: 2, Code: 0,
				Args: []bytecode.Arg{
					{Dat: []ins.Ins{{Op: "i8", Arg: int64(-1)}}},
					{Dat: []ins.Ins{}},
				},
			},
		},
	}

	text, err := Script(e, 0, ystb)
	if err != nil {
		t.Fatal(err)
	}
	// Lno=2 means line index 1 carries the command; the label at offset
	// 0 lands on the empty first line rather than the command's own.
	if want := "#top\nLOOP[]"; text != want {
		t.Fatalf("Script = %q, want %q", text, want)
	}
}

func TestScriptReturncodePrependsToNextLine(t *testing.T) {
	cmds := []container.DCmd{
		{Name: "RETURNCODE"},
		{Name: "WORD", Args: []container.DArg{{Name: "text"}}},
	}
	e := buildEnv(t, 200, cmds, nil)

	ystb := &bytecode.YSTB{
		Ver: 200,
		Cmds: []bytecode.Cmd{
			{Off: 0, Lno: 1, Code: 0, Args: []bytecode.Arg{{Len: 1}}},
			{Off: 4, Lno: 2, Code: 1, Args: []bytecode.Arg{{Dat: "hello"}}},
		},
	}

	text, err := Script(e, 0, ystb)
	if err != nil {
		t.Fatal(err)
	}
	if want := "\nPREP[TEXTVAL=1];hello"; text != want {
		t.Fatalf("Script = %q, want %q", text, want)
	}
}

func TestScriptIfRendersBracketedCondition(t *testing.T) {
	cmds := []container.DCmd{{Name: "IF", Args: []container.DArg{{Name: "a"}, {Name: "b"}, {Name: "c"}}}}
	e := buildEnv(t, 200, cmds, nil)

	x := int64(1<<8) | 0x40
	e2, err := e.InsDefLocal(x, 1)
	if err != nil {
		t.Fatal(err)
	}
	_ = e2

	ystb := &bytecode.YSTB{
		Ver: 200,
		Cmds: []bytecode.Cmd{
			{
				Off: 0, Lno: 1, Code: 0,
				Args: []bytecode.Arg{
					{Dat: []ins.Ins{{Op: "var", Arg: x}}},
					{},
					{},
				},
			},
		},
	}

	text, err := Script(e, 0, ystb)
	if err != nil {
		t.Fatal(err)
	}
	if want := "IF[@vInt1]"; text != want {
		t.Fatalf("Script = %q, want %q", text, want)
	}
}

func TestScriptGenericCommandJoinsArgsWithAop(t *testing.T) {
	cmds := []container.DCmd{{Name: "MOVE", Args: []container.DArg{{Name: "x"}, {Name: "y"}}}}
	e := buildEnv(t, 200, cmds, nil)

	ystb := &bytecode.YSTB{
		Ver: 200,
		Cmds: []bytecode.Cmd{
			{
				Off: 0, Lno: 1, Code: 0,
				Args: []bytecode.Arg{
					{ID: 0, Aop: 0, Dat: []ins.Ins{{Op: "i8", Arg: int64(1)}}},
					{ID: 1, Aop: 1, Dat: []ins.Ins{{Op: "i8", Arg: int64(2)}}},
				},
			},
		},
	}

	text, err := Script(e, 0, ystb)
	if err != nil {
		t.Fatal(err)
	}
	if want := "MOVE[x=1 y+=2]"; text != want {
		t.Fatalf("Script = %q, want %q", text, want)
	}
}

func TestScriptUnconsumedLabelsIsAnError(t *testing.T) {
	cmds := []container.DCmd{{Name: "WORD", Args: []container.DArg{{Name: "text"}}}}
	lbls := []container.Lbl{{Name: "orphan", ScrIdx: 0, IP: 999}}
	e := buildEnv(t, 200, cmds, lbls)

	ystb := &bytecode.YSTB{
		Ver: 200,
		Cmds: []bytecode.Cmd{
			{Off: 0, Lno: 1, Code: 0, Args: []bytecode.Arg{{Dat: "hi"}}},
		},
	}

	if _, err := Script(e, 0, ystb); err == nil {
		t.Fatal("expected unconsumed label error")
	}
}
