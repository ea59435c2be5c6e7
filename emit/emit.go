// Package emit implements the per-script text emitter (spec §4.6): line
// buffering keyed by command line number, label placement, and command
// dispatch to the engine's source-level textual grammar.
package emit

import (
	"fmt"
	"strings"

	"github.com/yuris-tools/yudecompile/bytecode"
	"github.com/yuris-tools/yudecompile/env"
	"github.com/yuris-tools/yudecompile/ins"
)

// ErrLineOrder is returned when a command's line number decreases
// relative to the previous command (spec invariant).
type ErrLineOrder struct {
	Prev, Got uint32
}

func (e *ErrLineOrder) Error() string {
	return fmt.Sprintf("emit: command line number decreased: prev=%d got=%d", e.Prev, e.Got)
}

// ErrLabelsUnconsumed is returned when a script's label table is not
// fully drained by the time every command has been emitted.
type ErrLabelsUnconsumed struct {
	Remaining int
}

func (e *ErrLabelsUnconsumed) Error() string {
	return fmt.Sprintf("emit: %d label offset(s) left unconsumed after emission", e.Remaining)
}

// isZeroIntLiteral and isLoopForever are canonical-node equality checks
// against the literal-zero and literal-minus-one sentinels (spec §9
// design note: prefer a structural check over re-stringifying for
// comparison).
func isZeroIntLiteral(code []ins.Ins) bool {
	return len(code) == 1 && code[0].Op == "i64" && code[0].Arg.(int64) == 0
}

func isLoopForever(code []ins.Ins) bool {
	return len(code) == 1 && code[0].Op == "i8" && code[0].Arg.(int64) == -1
}

// Script renders one script's command stream into its textual source
// (spec §4.6). e resolves command names/vocabulary and expression
// variable references; ystb is commands already deobfuscated and
// decoded; scrIdx selects which script's labels to drain.
func Script(e *env.YEnv, scrIdx int, ystb *bytecode.YSTB) (string, error) {
	cmds := ystb.Cmds
	if len(cmds) == 0 {
		return "", nil
	}
	maxLno := uint32(0)
	for _, c := range cmds {
		if c.Lno > maxLno {
			maxLno = c.Lno
		}
	}
	lines := make([][]string, maxLno)
	lbls := make(map[int][]string, len(e.Labels[scrIdx]))
	for off, names := range e.Labels[scrIdx] {
		lbls[off] = append([]string(nil), names...)
	}
	var preps []string
	var prevLno uint32 = 1
	for i, cmd := range cmds {
		if cmd.Lno < prevLno {
			return "", &ErrLineOrder{Prev: prevLno, Got: cmd.Lno}
		}
		prevLno = cmd.Lno
		lidx := int(cmd.Lno) - 1
		curline := &lines[lidx]
		if len(preps) > 0 {
			*curline = append(*curline, preps...)
			preps = nil
		}
		if offLbls, ok := lbls[cmd.Off]; ok {
			delete(lbls, cmd.Off)
			tokens := make([]string, len(offLbls))
			for j, name := range offLbls {
				tokens[j] = "#" + name
			}
			if len(*curline) > 0 || lidx == 0 || len(lines[lidx-1]) > 0 {
				*curline = append(*curline, tokens...)
			} else {
				lines[lidx-1] = append(lines[lidx-1], tokens...)
			}
		}

		name, argNames, ok := lookupCmd(e, cmd.Code)
		if !ok {
			return "", fmt.Errorf("emit: command code %d has no vocabulary entry", cmd.Code)
		}
		tok, prep, err := emitOne(e, name, argNames, cmd, i == len(cmds)-1)
		if err != nil {
			return "", fmt.Errorf("emit: script %d command %d (%s): %w", scrIdx, i, name, err)
		}
		if prep != "" {
			preps = append(preps, prep)
			continue
		}
		if tok != "" {
			*curline = append(*curline, tok)
		}
	}
	if len(lbls) > 0 {
		return "", &ErrLabelsUnconsumed{Remaining: len(lbls)}
	}
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = strings.Join(l, ";")
	}
	return strings.Join(out, "\n"), nil
}

func lookupCmd(e *env.YEnv, code uint8) (name string, argNames []string, ok bool) {
	if int(code) >= len(e.Cmds) {
		return "", nil, false
	}
	c := e.Cmds[code]
	names := make([]string, len(c.Args))
	for i, a := range c.Args {
		names[i] = a.Name
	}
	return c.Name, names, true
}

// emitOne renders a single command to its source-level token, or to a
// non-empty prep string for a RETURNCODE that must prepend to the next
// non-empty line.
func emitOne(e *env.YEnv, name string, argNames []string, cmd bytecode.Cmd, isLast bool) (tok, prep string, err error) {
	args := cmd.Args
	narg := len(args)
	switch {
	case name == "IFBLEND":
		if narg != 0 {
			return "", "", fmt.Errorf("IFBLEND expects 0 args, got %d", narg)
		}
		return "", "", nil

	case (name == "IF" || name == "ELSE") && narg == 3:
		code, ok := args[0].Dat.([]ins.Ins)
		if !ok {
			return "", "", fmt.Errorf("%s condition argument has no postfix payload", name)
		}
		s, err := e.DatToArgStr(code)
		if err != nil {
			return "", "", err
		}
		return fmt.Sprintf("%s[%s]", name, s), "", nil

	case name == "LOOP" && narg == 2:
		code, ok := args[0].Dat.([]ins.Ins)
		if !ok {
			return "", "", fmt.Errorf("LOOP condition argument has no postfix payload")
		}
		if isLoopForever(code) {
			return "LOOP[]", "", nil
		}
		s, err := e.DatToArgStr(code)
		if err != nil {
			return "", "", err
		}
		return fmt.Sprintf("LOOP[SET=%s]", s), "", nil

	case name == "ELSE":
		if narg != 0 {
			return "", "", fmt.Errorf("ELSE guard: expected 0 args, got %d", narg)
		}
		return "ELSE[]", "", nil

	case name == "IF" || name == "LOOP":
		return "", "", fmt.Errorf("%s has unexpected arg count %d", name, narg)

	case name == "RETURNCODE":
		if narg != 1 {
			return "", "", fmt.Errorf("RETURNCODE expects 1 arg, got %d", narg)
		}
		switch args[0].Len {
		case 0:
			return "", "", nil
		case 1:
			return "", "PREP[TEXTVAL=1]", nil
		default:
			return "", "", fmt.Errorf("RETURNCODE has unknown len=%d", args[0].Len)
		}

	case name == "WORD":
		if narg != 1 {
			return "", "", fmt.Errorf("WORD expects 1 arg, got %d", narg)
		}
		s, ok := args[0].Dat.(string)
		if !ok {
			return "", "", fmt.Errorf("WORD argument is not text")
		}
		return s, "", nil

	case name == "END" && isLast:
		if narg != 0 {
			return "", "", fmt.Errorf("END terminator expects 0 args, got %d", narg)
		}
		return "", "", nil

	case isDefLet(name):
		if narg != 2 {
			return "", "", fmt.Errorf("%s expects 2 args, got %d", name, narg)
		}
		return emitDefLet(e, name, args)

	case name == "_":
		if narg != 1 {
			return "", "", fmt.Errorf("_ expects 1 arg, got %d", narg)
		}
		code, ok := args[0].Dat.([]ins.Ins)
		if !ok {
			return "", "", fmt.Errorf("_ argument has no postfix payload")
		}
		s, err := e.DatToArgStr(code)
		if err != nil {
			return "", "", err
		}
		return fmt.Sprintf("_[%s]", s), "", nil

	default:
		segs := make([]string, narg)
		for i, a := range args {
			if int(a.ID) >= len(argNames) {
				return "", "", fmt.Errorf("arg id=%d out of range for %q's %d-name vocabulary", a.ID, name, len(argNames))
			}
			argName := argNames[a.ID]
			if argName == "" {
				return "", "", fmt.Errorf("arg id=%d of %q has no name (no YSCD supplied?)", a.ID, name)
			}
			code, ok := a.Dat.([]ins.Ins)
			if !ok {
				return "", "", fmt.Errorf("arg %q of %q has no postfix payload", argName, name)
			}
			aopStr, err := a.AopStr()
			if err != nil {
				return "", "", err
			}
			s, err := e.DatToArgStr(code)
			if err != nil {
				return "", "", err
			}
			segs[i] = argName + aopStr + s
		}
		return fmt.Sprintf("%s[%s]", name, strings.Join(segs, " ")), "", nil
	}
}

func isDefLet(name string) bool {
	if name == "LET" {
		return true
	}
	_, ok := env.DefCmdTyp[name]
	return ok
}

func emitDefLet(e *env.YEnv, name string, args []bytecode.Arg) (tok, prep string, err error) {
	lhs, rhs := args[0], args[1]
	if rhs.Aop != 0 {
		return "", "", fmt.Errorf("%s rhs must have aop=0, got %d", name, rhs.Aop)
	}
	lhsCode, ok := lhs.Dat.([]ins.Ins)
	if !ok {
		return "", "", fmt.Errorf("%s lhs has no postfix payload", name)
	}
	rhsCode, ok := rhs.Dat.([]ins.Ins)
	if !ok {
		return "", "", fmt.Errorf("%s rhs has no postfix payload", name)
	}
	if typ, isLocalDef := env.DefLclTyp[name]; isLocalDef {
		if len(lhsCode) == 0 || (lhsCode[0].Op != "idxbeg" && lhsCode[0].Op != "var") {
			return "", "", fmt.Errorf("%s lhs does not start with a var/idxbeg instruction", name)
		}
		x, ok := lhsCode[0].Arg.(int64)
		if !ok {
			return "", "", fmt.Errorf("%s lhs instruction has no packed var argument", name)
		}
		if _, err := e.InsDefLocal(x, typ); err != nil {
			return "", "", err
		}
	}
	lhsStr, err := e.DatToArgStr(lhsCode)
	if err != nil {
		return "", "", err
	}
	rhsStr, err := e.DatToArgStr(rhsCode)
	if err != nil {
		return "", "", err
	}
	if name == "LET" {
		aopStr, err := lhs.AopStr()
		if err != nil {
			return "", "", err
		}
		return lhsStr + aopStr + rhsStr, "", nil
	}
	if lhs.Aop != 0 {
		return "", "", fmt.Errorf("%s lhs must have aop=0, got %d", name, lhs.Aop)
	}
	if len(lhsCode) == 0 || (lhsCode[0].Op != "idxbeg" && lhsCode[0].Op != "var") {
		return "", "", fmt.Errorf("%s lhs does not start with a var/idxbeg instruction", name)
	}
	insX, ok := lhsCode[0].Arg.(int64)
	if !ok {
		return "", "", fmt.Errorf("%s lhs instruction has no packed var argument", name)
	}
	noInit := isZeroIntLiteral(rhsCode) || hasEmptyYSVRInit(e, insX)
	if noInit {
		return fmt.Sprintf("%s[%s]", name, lhsStr), "", nil
	}
	return fmt.Sprintf("%s[%s=%s]", name, lhsStr, rhsStr), "", nil
}

// hasEmptyYSVRInit reports whether the referenced variable's original
// YSVR initializer was an empty expression list (spec §4.6: an
// un-initialized string-scope declaration suppresses "=rhs" even when
// the bytecode's own rhs is not a literal zero).
func hasEmptyYSVRInit(e *env.YEnv, x int64) bool {
	varIdx := uint16(x >> 8)
	v, ok := e.YSVRVar(varIdx)
	if !ok {
		return false
	}
	code, ok := v.InitV.([]ins.Ins)
	if !ok {
		return false
	}
	return len(code) == 0
}
