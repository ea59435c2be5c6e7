// Package env implements YEnv, the cross-file symbol environment (spec
// §4.5): it reconciles YSCD/YSVR compiler-variable agreement, synthesizes
// user-variable names, resolves instruction-level variable references to
// their source-level sigil+name text, and introduces local declarations
// as the emitter encounters them.
package env

import (
	"fmt"

	"github.com/yuris-tools/yudecompile/container"
	"github.com/yuris-tools/yudecompile/ins"
)

// VarUsrMin mirrors container.VarUsrMin; re-declared here so callers of
// this package need not import container just for the constant.
const VarUsrMin = container.VarUsrMin

// TypChar is the sigil for a declared variable type: 0:none 1:Int
// 2:Flt(also '@') 3:Str('$').
var TypChar = [...]string{"", "@", "@", "$"}

// TypName names a declared variable type, used when synthesizing names.
var TypName = [...]string{"", "Int", "Flt", "Str"}

// TypDefCmd is the "G_"-prefixed definer command's type suffix.
var TypDefCmd = [...]string{"", "INT", "FLT", "STR"}

// ScopeChar names a variable's scope in a synthesized name.
var ScopeChar = [...]string{"", "g", "s", "f"}

// GExtChar names a variable's g_ext group in a synthesized name.
var GExtChar = [...]string{"", "", "2", "3"}

// vtyqV200/vtyqV300 map an instruction's low type-qualifier byte to its
// source-level sigil (spec §4.4).
var vtyqV200 = map[byte]string{0x23: "$@", 0x24: "$", 0x40: "@"}
var vtyqV300 = map[byte]string{0x23: "&$", 0x24: "$", 0x40: "@", 0x60: "&@"}

// DefLclTyp maps a local-declaring definer command name to the type it
// declares. Only INT/FLT/STR introduce a *new* local; the G_*/S_*/F_*
// forms reference an already-allocated YSVR variable.
var DefLclTyp = map[string]uint8{"INT": 1, "FLT": 2, "STR": 3}

// DefCmdTyp is the full definer-command vocabulary (local and
// global/scope/function forms), used by the emitter to recognize a
// definition command.
var DefCmdTyp = map[string]uint8{
	"INT": 1, "G_INT": 1, "G_INT2": 1, "G_INT3": 1, "S_INT": 1, "F_INT": 1,
	"FLT": 2, "G_FLT": 2, "G_FLT2": 2, "G_FLT3": 2, "S_FLT": 2, "F_FLT": 2,
	"STR": 3, "G_STR": 3, "G_STR2": 3, "G_STR3": 3, "S_STR": 3, "F_STR": 3,
}

// ErrVocabularyMismatch is returned when YSCD.Vars[i] disagrees with a
// matching YSVR compiler-slot entry.
type ErrVocabularyMismatch struct {
	Idx  int
	Msg  string
}

func (e *ErrVocabularyMismatch) Error() string {
	return fmt.Sprintf("env: vocabulary mismatch at var_idx=%d: %s", e.Idx, e.Msg)
}

// ErrRedefinedLocal is returned when ins_def_local is called for a slot
// that already carries a name.
type ErrRedefinedLocal struct {
	VarIdx int64
	Have   string
}

func (e *ErrRedefinedLocal) Error() string {
	return fmt.Sprintf("env: var_idx=%d already defined as %q", e.VarIdx, e.Have)
}

// ErrTypeMismatch is returned when an instruction's type qualifier
// disagrees with its variable's declared type.
type ErrTypeMismatch struct {
	VarIdx int64
	Want   string
	Have   string
}

func (e *ErrTypeMismatch) Error() string {
	return fmt.Sprintf("env: var_idx=%d type mismatch: instruction wants sigil %q, declared as %q", e.VarIdx, e.Want, e.Have)
}

// ErrUndefinedVar is returned when an instruction references a var_idx
// with no name on record.
type ErrUndefinedVar struct{ VarIdx int64 }

func (e *ErrUndefinedVar) Error() string {
	return fmt.Sprintf("env: var_idx=%d is not defined", e.VarIdx)
}

// ErrUnknownTypeQualifier is returned when an instruction's low byte has
// no entry in the version's vtyq table.
type ErrUnknownTypeQualifier struct{ Qual byte }

func (e *ErrUnknownTypeQualifier) Error() string {
	return fmt.Sprintf("env: unknown variable type qualifier %#02x", e.Qual)
}

// YEnv is the cross-file symbol environment (spec §3, §4.5). Vars is
// dense over var_idx, grown monotonically only by InsDefLocal.
type YEnv struct {
	Ver        int
	Vars       []string // "" means absent
	Cmds       []container.DCmd
	Vtyq       map[byte]string
	Labels     map[int]map[int][]string // scr_idx -> byte offset -> names
	GlobalYst  string                   // "" if not applicable
	ToNewTostr bool
	ysvr       *container.YSVR
}

// cmdsFromYSCD builds the (name, argnames) vocabulary from a full
// compiler-definition file.
func cmdsFromYSCD(y *container.YSCD) []container.DCmd { return y.Cmds }

// cmdsFromYSCM synthesizes a vocabulary (no parameter names) from the
// engine-side builtin command table.
func cmdsFromYSCM(y *container.YSCM) []container.DCmd {
	out := make([]container.DCmd, len(y.Cmds))
	for i, c := range y.Cmds {
		args := make([]container.DArg, len(c.Args))
		for j := range c.Args {
			args[j] = container.DArg{Name: ""}
		}
		out[i] = container.DCmd{Name: c.Name, Args: args}
	}
	return out
}

// New constructs the symbol environment from the parsed metadata
// containers. yscd may be nil, in which case yscm must be non-nil and
// supplies a name-only fallback vocabulary (spec §4.5 step 2).
func New(yscd *container.YSCD, ysvr *container.YSVR, yslb *container.YSLB, yscm *container.YSCM, toNewTostr bool) (*YEnv, error) {
	if ysvr.Ver != yslb.Ver {
		return nil, fmt.Errorf("env: version mismatch: ysvr=%d yslb=%d", ysvr.Ver, yslb.Ver)
	}
	ver := ysvr.Ver
	maxIdx := 0
	for _, v := range ysvr.Vars {
		if int(v.VarIdx) > maxIdx {
			maxIdx = int(v.VarIdx)
		}
	}
	e := &YEnv{
		Ver:        ver,
		Vars:       make([]string, maxIdx+1),
		ToNewTostr: toNewTostr,
		ysvr:       ysvr,
	}

	if yscd != nil {
		e.Cmds = cmdsFromYSCD(yscd)
		for i, v := range yscd.Vars {
			e.Vars[i] = TypChar[v.Typ] + v.Name
		}
		for _, v := range ysvr.Vars {
			if v.VarIdx >= VarUsrMin {
				continue
			}
			i := int(v.VarIdx)
			inYsvr := v.Typ != 0
			inYscd := e.Vars[i] != ""
			if inYsvr != inYscd {
				return nil, &ErrVocabularyMismatch{Idx: i, Msg: fmt.Sprintf("in_ysvr=%v in_yscd=%v", inYsvr, inYscd)}
			}
			if inYsvr {
				dvar := yscd.Vars[i]
				if v.Typ != dvar.Typ {
					return nil, &ErrVocabularyMismatch{Idx: i, Msg: fmt.Sprintf("ysvr.typ=%d yscd.typ=%d", v.Typ, dvar.Typ)}
				}
				if !dimsEqual(v.Dim, dvar.Dim) {
					return nil, &ErrVocabularyMismatch{Idx: i, Msg: fmt.Sprintf("ysvr.dim=%v yscd.dim=%v", v.Dim, dvar.Dim)}
				}
			}
		}
	} else {
		if yscm == nil {
			return nil, fmt.Errorf("env: neither yscd nor yscm supplied")
		}
		if ysvr.Ver != yscm.Ver {
			return nil, fmt.Errorf("env: version mismatch: ysvr=%d yscm=%d", ysvr.Ver, yscm.Ver)
		}
		e.Cmds = cmdsFromYSCM(yscm)
		for _, v := range ysvr.Vars {
			if v.VarIdx >= VarUsrMin || v.Typ == 0 {
				continue
			}
			i := int(v.VarIdx)
			e.Vars[i] = fmt.Sprintf("%s_com%d", TypChar[v.Typ], i)
		}
	}

	var lblPCToOff bool
	var emitGlobalTxt bool
	switch {
	case ver < 300:
		e.Vtyq = vtyqV200
		emitGlobalTxt = ver == 290
	case ver < container.VerMax:
		e.Vtyq = vtyqV300
		lblPCToOff = true
		emitGlobalTxt = true
	default:
		return nil, &container.ErrUnsupportedVersion{Ver: ver}
	}

	for _, v := range ysvr.Vars {
		if v.VarIdx < VarUsrMin {
			continue
		}
		if v.Typ == 0 {
			return nil, fmt.Errorf("env: user var_idx=%d has typ=0, which YSVR parsing should already have rejected", v.VarIdx)
		}
		i := int(v.VarIdx)
		e.Vars[i] = fmt.Sprintf("%s%s%s%s%d", TypChar[v.Typ], ScopeChar[v.Scope], GExtChar[v.GExt], TypName[v.Typ], i)
	}

	if emitGlobalTxt {
		glb, err := e.buildGlobalText()
		if err != nil {
			return nil, err
		}
		e.GlobalYst = glb
	}

	labels := make(map[int]map[int][]string)
	for _, l := range yslb.Lbls {
		ip := int(l.IP)
		if lblPCToOff {
			ip *= 4
		}
		scr := int(l.ScrIdx)
		if labels[scr] == nil {
			labels[scr] = make(map[int][]string)
		}
		labels[scr][ip] = append(labels[scr][ip], l.Name)
	}
	e.Labels = labels

	return e, nil
}

func dimsEqual(a, b []uint32) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// buildGlobalText renders every global-scope user variable's
// declaration into the standalone globals text (spec §4.5 step 5,
// §4.6 "Empty scripts").
func (e *YEnv) buildGlobalText() (string, error) {
	var lines []string
	for _, v := range e.ysvr.Vars {
		if v.VarIdx < VarUsrMin || v.Scope != 1 {
			continue
		}
		cmd := "G_" + TypDefCmd[v.Typ] + GExtChar[v.GExt]
		def := e.Vars[v.VarIdx]
		dim := ""
		if len(v.Dim) > 0 {
			dim = "(" + joinUint32(v.Dim) + ")"
		}
		val := ""
		switch v.Typ {
		case 1:
			if iv, _ := v.InitV.(int64); iv != 0 {
				val = "=" + ins.FormatInt(iv)
			}
		case 2:
			if fv, _ := v.InitV.(float64); fv != 0 {
				val = "=" + ins.FormatFloat(fv)
			}
		case 3:
			code, ok := v.InitV.([]ins.Ins)
			if !ok {
				return "", fmt.Errorf("env: global var_idx=%d has typ=3 but no postfix initializer", v.VarIdx)
			}
			if len(code) > 0 {
				s, err := e.DatToArgStr(code)
				if err != nil {
					return "", err
				}
				val = "=" + s
			}
		default:
			return "", fmt.Errorf("env: global var_idx=%d has unknown typ=%d", v.VarIdx, v.Typ)
		}
		lines = append(lines, fmt.Sprintf("%s[%s%s%s]", cmd, def, dim, val))
	}
	out := ""
	for i, l := range lines {
		if i > 0 {
			out += "\n"
		}
		out += l
	}
	return out, nil
}

func joinUint32(v []uint32) string {
	out := ""
	for i, d := range v {
		if i > 0 {
			out += ","
		}
		out += fmt.Sprintf("%d", d)
	}
	return out
}

// InsGetVar resolves a var/arr/idxbeg instruction's packed argument
// (spec §3 Ins.arg packing: qualifier in the low byte, var_idx above)
// into its source-level sigil+name text. It satisfies ins.VarName.
func (e *YEnv) InsGetVar(x int64) (string, error) {
	idx := x >> 8
	tyq := byte(x & 0xff)
	sigil, ok := e.Vtyq[tyq]
	if !ok {
		return "", &ErrUnknownTypeQualifier{Qual: tyq}
	}
	if idx < 0 || int(idx) >= len(e.Vars) || e.Vars[idx] == "" {
		return "", &ErrUndefinedVar{VarIdx: idx}
	}
	name := e.Vars[idx]
	want := sigil[len(sigil)-1:] // last rune of sigil is the base type char
	have := name[:1]
	if want != have {
		return "", &ErrTypeMismatch{VarIdx: idx, Want: sigil, Have: name}
	}
	if sigil[:1] == have {
		return name, nil
	}
	return sigil + name[1:], nil // e.g. "$@" for v200's legacy to-str-of-numeric form
}

// InsDefLocal introduces a fresh local declaration for var_idx x, typed
// typ. It must be called at most once per var_idx (spec invariant).
func (e *YEnv) InsDefLocal(x int64, typ uint8) (string, error) {
	idx := x >> 8
	tyq := byte(x & 0xff)
	typCh := TypChar[typ]
	tyqCh, ok := insTyq[tyq]
	if !ok {
		return "", &ErrUnknownTypeQualifier{Qual: tyq}
	}
	if int(idx) >= len(e.Vars) {
		grown := make([]string, idx+1)
		copy(grown, e.Vars)
		e.Vars = grown
	}
	if e.Vars[idx] != "" {
		return "", &ErrRedefinedLocal{VarIdx: idx, Have: e.Vars[idx]}
	}
	if tyqCh != typCh {
		return "", &ErrTypeMismatch{VarIdx: idx, Want: typCh, Have: tyqCh}
	}
	name := fmt.Sprintf("%sv%s%d", tyqCh, TypName[typ], idx)
	e.Vars[idx] = name
	return name, nil
}

// insTyq is the base (never-pointer) qualifier table InsDefLocal
// validates against: a freshly-declared local is never an address.
var insTyq = map[byte]string{0x24: "$", 0x40: "@"}

// YSVRVar looks up a runtime variable's original YSVR record by
// var_idx, used by the emitter to check whether an un-initialized
// declaration's source-level initializer should be suppressed.
func (e *YEnv) YSVRVar(varIdx uint16) (container.Var, bool) {
	v, ok := e.ysvr.ByIdx[varIdx]
	return v, ok
}

// DatToArgStr lifts a postfix instruction run into an expression tree
// and serializes it with ins.ToStr. A top-level binary "&" comes out as
// "(lhs & rhs)" because ToStr always parenthesizes binary "&"; no
// further wrapping is added here.
func (e *YEnv) DatToArgStr(code []ins.Ins) (string, error) {
	tree, err := ins.Lift(code, e.InsGetVar, e.ToNewTostr)
	if err != nil {
		return "", err
	}
	return ins.ToStr(tree), nil
}
