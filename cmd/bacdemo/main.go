// Command bacdemo is a thin example binary wired to package bac, in the
// same spirit as the teacher repo's compress/decompress mains: it is repo
// furniture for manual testing, not part of the specified library
// surface.
package main

import (
	"flag"
	"fmt"
	"io/ioutil"
	"log"
	"os"

	"github.com/fumin/bac"
)

var (
	mode    = flag.String("mode", "encode", "encode or decode")
	context = flag.Int("context", 256, "sliding-window context length, in bits")
	nbits   = flag.Int("nbits", 0, "decode only: number of bits to recover")
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: %s -mode=encode|decode [flags] <file>\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()
	name := flag.Arg(0)
	if name == "" {
		flag.Usage()
		os.Exit(1)
	}

	data, err := ioutil.ReadFile(name)
	if err != nil {
		log.Fatalf("%v", err)
	}

	switch *mode {
	case "encode":
		encoded, err := bac.Encode(data, len(data)*8, *context, nil)
		if err != nil {
			log.Fatalf("%v", err)
		}
		if _, err := os.Stdout.Write(encoded); err != nil {
			log.Fatalf("%v", err)
		}
	case "decode":
		if *nbits == 0 {
			log.Fatalf("-nbits is required for -mode=decode")
		}
		decoded, err := bac.Decode(data, *nbits, *context, nil)
		if err != nil {
			log.Fatalf("%v", err)
		}
		if _, err := os.Stdout.Write(decoded); err != nil {
			log.Fatalf("%v", err)
		}
	default:
		log.Fatalf("unknown mode %q", *mode)
	}
}
