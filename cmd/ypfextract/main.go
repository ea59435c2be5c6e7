// Command ypfextract is the CLI front-end for the YPF archive extractor
// (spec §6, §4.7).
package main

import (
	"flag"
	"log"
	"os"

	"github.com/yuris-tools/yudecompile/ypf"
)

func main() {
	var (
		inFile = flag.String("in", "", "input YPF archive")
		outDir = flag.String("out", "", "output directory to extract into")
	)
	flag.Parse()

	if *inFile == "" || *outDir == "" {
		log.Fatal("ypfextract: -in and -out are required")
	}

	buf, err := os.ReadFile(*inFile)
	if err != nil {
		log.Fatalf("ypfextract: %v", err)
	}
	archive, err := ypf.Open(buf, ypf.Options{})
	if err != nil {
		log.Fatalf("ypfextract: %v", err)
	}
	if err := archive.Extract(*outDir); err != nil {
		log.Fatalf("ypfextract: %v", err)
	}
	log.Printf("ypfextract: extracted %d file(s) to %s", len(archive.Entries), *outDir)
}
