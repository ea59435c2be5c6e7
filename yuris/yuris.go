// Package yuris is the top-level orchestration layer: it wires the
// container parsers, the YSTB loader, the symbol environment, and the
// script emitter into the single `Decompile` entry-point the spec names
// in §6.
package yuris

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/yuris-tools/yudecompile/bytecode"
	"github.com/yuris-tools/yudecompile/charset"
	"github.com/yuris-tools/yudecompile/container"
	"github.com/yuris-tools/yudecompile/emit"
	"github.com/yuris-tools/yudecompile/env"
	"github.com/yuris-tools/yudecompile/reader"
)

// DefaultYSTBKey is the keyed-XOR key every project uses unless it
// overrides it (spec §6).
const DefaultYSTBKey uint32 = 0xD36FAC96

// Options configures Decompile. InputEncoding and OutputEncoding are
// required; Decompile returns an error when either is nil. YSTBKey
// defaults to DefaultYSTBKey when zero.
type Options struct {
	YSCD           *container.YSCD // preferred vocabulary; nil falls back to YSCM
	YSCM           *container.YSCM // used when YSCD is nil; if also nil, ysc.ybn is read from inDir
	YSTBKey        uint32
	InputEncoding  reader.Encoding
	OutputEncoding charset.Encoding
	ToNewTostr     bool
}

func (o Options) key() uint32 {
	if o.YSTBKey == 0 {
		return DefaultYSTBKey
	}
	return o.YSTBKey
}

// Decompile reads the fixed container filenames out of inDir and writes
// a mirrored tree of decompiled script text under outDir (spec §6).
func Decompile(ctx context.Context, inDir, outDir string, opts Options) error {
	inEnc := opts.InputEncoding
	if inEnc == nil {
		return fmt.Errorf("yuris: Options.InputEncoding is required")
	}
	outEnc := opts.OutputEncoding
	if outEnc == nil {
		return fmt.Errorf("yuris: Options.OutputEncoding is required")
	}

	ysvrBuf, err := os.ReadFile(filepath.Join(inDir, "ysv.ybn"))
	if err != nil {
		return fmt.Errorf("yuris: read ysv.ybn: %w", err)
	}
	ysvr, err := container.ParseYSVR(ysvrBuf, inEnc)
	if err != nil {
		return fmt.Errorf("yuris: parse YSVR: %w", err)
	}

	yslbBuf, err := os.ReadFile(filepath.Join(inDir, "ysl.ybn"))
	if err != nil {
		return fmt.Errorf("yuris: read ysl.ybn: %w", err)
	}
	yslb, err := container.ParseYSLB(yslbBuf, inEnc)
	if err != nil {
		return fmt.Errorf("yuris: parse YSLB: %w", err)
	}

	// YSCM is only needed as the command-vocabulary fallback when no
	// YSCD is supplied (spec §3: MCmd "used only if YSCD unavailable").
	yscm := opts.YSCM
	if opts.YSCD == nil && yscm == nil {
		yscmBuf, err := os.ReadFile(filepath.Join(inDir, "ysc.ybn"))
		if err != nil {
			return fmt.Errorf("yuris: read ysc.ybn: %w", err)
		}
		yscm, err = container.ParseYSCM(yscmBuf, inEnc)
		if err != nil {
			return fmt.Errorf("yuris: parse YSCM: %w", err)
		}
	}

	ystlBuf, err := os.ReadFile(filepath.Join(inDir, "yst_list.ybn"))
	if err != nil {
		return fmt.Errorf("yuris: read yst_list.ybn: %w", err)
	}
	ystl, err := container.ParseYSTL(ystlBuf, inEnc)
	if err != nil {
		return fmt.Errorf("yuris: parse YSTL: %w", err)
	}

	e, err := env.New(opts.YSCD, ysvr, yslb, yscm, opts.ToNewTostr)
	if err != nil {
		return fmt.Errorf("yuris: build symbol environment: %w", err)
	}

	var kcc container.KnownCmdCode
	if opts.YSCD != nil {
		kcc = opts.YSCD.KCC
	} else {
		kcc = yscm.KCC
	}

	globals := e.GlobalYst
	globalsPlaced := globals == ""

	for _, scr := range ystl.Scrs {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		outPath := filepath.Join(outDir, strings.ReplaceAll(scr.Path, "\\", "/"))
		if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
			return fmt.Errorf("yuris: mkdir for %q: %w", outPath, err)
		}

		if scr.NVar < 0 {
			content := ";"
			if !globalsPlaced && !strings.Contains(strings.ToLower(outPath), "macro") {
				content = globals
				globalsPlaced = true
			}
			if err := writeScript(outPath, content, outEnc); err != nil {
				return err
			}
			continue
		}

		ystbPath := filepath.Join(inDir, fmt.Sprintf("yst%05d.ybn", scr.Idx))
		ystbBuf, err := os.ReadFile(ystbPath)
		if err != nil {
			return fmt.Errorf("yuris: read %q: %w", ystbPath, err)
		}
		ystb, err := bytecode.Load(ystbBuf, inEnc, kcc, opts.key())
		if err != nil {
			return fmt.Errorf("yuris: load YSTB for script %d: %w", scr.Idx, err)
		}
		text, err := emit.Script(e, scr.Idx, ystb)
		if err != nil {
			return fmt.Errorf("yuris: emit script %d: %w", scr.Idx, err)
		}
		if err := writeScript(outPath, text, outEnc); err != nil {
			return err
		}
	}

	if !globalsPlaced {
		if err := writeScript(filepath.Join(outDir, "global.yst"), globals, outEnc); err != nil {
			return err
		}
	}
	return nil
}

// writeScript writes text to path using \r\n line endings (spec §6),
// encoding it through enc.
func writeScript(path, text string, enc charset.Encoding) error {
	crlf := strings.ReplaceAll(text, "\n", "\r\n")
	b, err := enc.Encode(crlf)
	if err != nil {
		return fmt.Errorf("yuris: encode %q: %w", path, err)
	}
	return os.WriteFile(path, b, 0o644)
}
