// Command flexc converts YAML or JSON documents to FlexBuffers and back.
package main

import (
	"bytes"
	"encoding/hex"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/dadrian/flexbuffers"
	"github.com/dadrian/flexbuffers/textrep"
	"github.com/pkg/errors"
)

func main() {
	in := flag.String("in", "-", "input file (or - for stdin)")
	out := flag.String("out", "-", "output file (or - for stdout)")
	hexMode := flag.Bool("hex", false, "write hex instead of binary; with -decode, read hex input")
	validate := flag.Bool("validate", false, "parse and encode without writing output")
	info := flag.Bool("info", false, "print a summary of the root value instead of output bytes")
	decode := flag.Bool("decode", false, "read a FlexBuffer and write it as YAML")
	jsonOut := flag.Bool("json", false, "with -decode, write JSON instead of YAML")
	share := flag.String("share", "all", "payloads to share: all, none, or a comma list of keys, strings, keyvectors")
	verbose := flag.Bool("v", false, "log sizes and the root type")
	flag.Parse()

	log.SetFlags(0)
	log.SetPrefix("flexc: ")

	flags, err := parseShare(*share)
	if err != nil {
		log.Fatalf("%v", err)
	}
	src, err := readInput(*in)
	if err != nil {
		log.Fatalf("%v", err)
	}
	if *verbose {
		log.Printf("read %d bytes", len(src))
	}

	var buf []byte
	if *decode || *info && (*hexMode || looksBinary(src)) {
		if *hexMode {
			if buf, err = hex.DecodeString(strings.TrimSpace(string(src))); err != nil {
				log.Fatalf("%v", errors.Wrap(err, "decode hex input"))
			}
		} else {
			buf = src
		}
	} else {
		opts := textrep.Options{Flags: flags, InitialSize: max(len(src), 64)}
		if buf, err = textrep.EncodeBytes(src, opts); err != nil {
			log.Fatalf("encode: %v", err)
		}
	}
	if *verbose {
		log.Printf("buffer is %d bytes", len(buf))
	}

	root, err := flexbuffers.GetRoot(buf)
	if err != nil {
		log.Fatalf("%v", err)
	}
	if *verbose {
		log.Printf("root %v", root.PackedType())
	}
	if *info {
		if err := printInfo(os.Stdout, root, len(buf)); err != nil {
			log.Fatalf("info: %v", err)
		}
		return
	}
	if *validate {
		if _, err := root.ToObject(); err != nil {
			log.Fatalf("validate: %v", err)
		}
		return
	}

	var output []byte
	switch {
	case *decode && *jsonOut:
		output, err = textrep.DecodeJSON(buf)
	case *decode:
		output, err = textrep.Decode(buf)
	case *hexMode:
		output = []byte(hex.EncodeToString(buf) + "\n")
	default:
		output = buf
	}
	if err != nil {
		log.Fatalf("decode: %v", err)
	}
	if err := writeOutput(*out, output); err != nil {
		log.Fatalf("%v", err)
	}
}

func parseShare(s string) (flexbuffers.BuilderFlag, error) {
	switch s {
	case "all":
		return flexbuffers.ShareAll, nil
	case "none", "":
		return flexbuffers.ShareNone, nil
	}
	var flags flexbuffers.BuilderFlag
	for _, p := range strings.Split(s, ",") {
		switch strings.TrimSpace(p) {
		case "keys":
			flags |= flexbuffers.ShareKeys
		case "strings":
			flags |= flexbuffers.ShareStrings
		case "keyvectors":
			flags |= flexbuffers.ShareKeyVectors
		default:
			return 0, errors.Errorf("unknown -share value %q", p)
		}
	}
	return flags, nil
}

// looksBinary guesses whether -info was given a FlexBuffer rather than a
// document: text input is valid UTF-8 without NULs.
func looksBinary(src []byte) bool {
	return bytes.IndexByte(src, 0) >= 0 || !utf8.Valid(src)
}

func readInput(name string) ([]byte, error) {
	if name == "-" {
		b, err := io.ReadAll(os.Stdin)
		return b, errors.Wrap(err, "read stdin")
	}
	b, err := os.ReadFile(name)
	return b, errors.Wrap(err, "read input")
}

func writeOutput(name string, data []byte) error {
	if name == "-" {
		_, err := os.Stdout.Write(data)
		return errors.Wrap(err, "write stdout")
	}
	return errors.Wrap(os.WriteFile(name, data, 0o644), "write output")
}

func printInfo(w io.Writer, root *flexbuffers.Reference, size int) error {
	n, err := root.Length()
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "Size: %d\n", size)
	fmt.Fprintf(w, "Type: %v\n", root.Type())
	fmt.Fprintf(w, "Width: %v bits\n", root.BitWidth())
	fmt.Fprintf(w, "Length: %d\n", n)
	if root.IsMap() {
		keys, err := root.Keys()
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "Keys: %s\n", strings.Join(keys, ","))
	}
	return nil
}
