// Command yudecompile is the CLI front-end for the script decompiler
// (spec §6 "CLI surface" / SPEC_FULL.md §6): flag parsing and logging
// only, no business logic — directory discovery is delegated entirely
// to yuris.Decompile.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/yuris-tools/yudecompile/charset"
	"github.com/yuris-tools/yudecompile/container"
	"github.com/yuris-tools/yudecompile/yuris"
)

func main() {
	var (
		inDir      = flag.String("in", "", "input directory containing ysv.ybn, ysl.ybn, yst_list.ybn, ysc.ybn, yst*.ybn")
		outDir     = flag.String("out", "", "output directory for the decompiled script tree")
		yscdPath   = flag.String("yscd", "", "optional compiler-definition file (YSCom.ycd)")
		yscmPath   = flag.String("yscm", "", "optional override for ysc.ybn")
		keyHex     = flag.String("key", "", "override YSTB XOR key (hex), default 0xD36FAC96")
		inEncName  = flag.String("in-enc", "cp932", "input container/bytecode text encoding")
		outEncName = flag.String("out-enc", "cp932", "output script text encoding")
		toNewTostr = flag.Bool("to-new-tostr", false, "modernize legacy $@ to-string-of-var forms to $(...)")
	)
	flag.Parse()

	if *inDir == "" || *outDir == "" {
		log.Fatal("yudecompile: -in and -out are required")
	}

	inEnc, err := charset.Lookup(*inEncName)
	if err != nil {
		log.Fatalf("yudecompile: %v", err)
	}
	outEnc, err := charset.Lookup(*outEncName)
	if err != nil {
		log.Fatalf("yudecompile: %v", err)
	}

	opts := yuris.Options{
		InputEncoding:  inEnc,
		OutputEncoding: outEnc,
		ToNewTostr:     *toNewTostr,
	}

	if *keyHex != "" {
		var key uint32
		if _, err := fmt.Sscanf(*keyHex, "%x", &key); err != nil {
			log.Fatalf("yudecompile: parse -key: %v", err)
		}
		opts.YSTBKey = key
	}

	if *yscdPath != "" {
		buf, err := os.ReadFile(*yscdPath)
		if err != nil {
			log.Fatalf("yudecompile: read -yscd: %v", err)
		}
		yscd, err := container.ParseYSCD(buf, inEnc)
		if err != nil {
			log.Fatalf("yudecompile: parse -yscd: %v", err)
		}
		opts.YSCD = yscd
	}
	if *yscmPath != "" {
		buf, err := os.ReadFile(*yscmPath)
		if err != nil {
			log.Fatalf("yudecompile: read -yscm: %v", err)
		}
		yscm, err := container.ParseYSCM(buf, inEnc)
		if err != nil {
			log.Fatalf("yudecompile: parse -yscm: %v", err)
		}
		opts.YSCM = yscm
	}

	if err := yuris.Decompile(context.Background(), *inDir, *outDir, opts); err != nil {
		log.Fatalf("yudecompile: %v", err)
	}
}
