// Command vmfdump prints a compiled vmforge binary container's header and
// section sizes, the way `go tool buildid` reports an object's build ID
// without re-running the compiler.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"vmforge/internal/binfmt"
)

func usage() {
	fmt.Fprintf(os.Stderr, "usage: vmfdump [-v] file\n")
	flag.PrintDefaults()
	os.Exit(2)
}

var verbose = flag.Bool("v", false, "also list each dependency and function symbol")

func main() {
	log.SetPrefix("vmfdump: ")
	log.SetFlags(0)
	flag.Usage = usage
	flag.Parse()
	if flag.NArg() != 1 {
		usage()
	}

	c, err := binfmt.ReadContainer(flag.Arg(0))
	if err != nil {
		log.Fatal(err)
	}

	kind := "executable"
	if c.Header.IsLibrary {
		kind = "library"
	}
	fmt.Printf("%s: %s, %d-bit, format v%d, system %s\n", flag.Arg(0), kind, c.Header.Arch.Bits, c.Header.FormatVersion, c.Header.SystemVersion)
	fmt.Printf("built %s %s\n", c.Header.BuildDate, c.Header.BuildTime)
	if c.Header.IsLibrary {
		fmt.Printf("library version %d.%d.%d\n", c.Header.LibVersion[0], c.Header.LibVersion[1], c.Header.LibVersion[2])
	} else {
		fmt.Printf("super-init at %08x\n", c.Header.SuperInitAddr)
	}
	fmt.Printf("glob %d bytes, code %d bytes, blocks %d, fix-geom %d, dyn-geom %d, dl-calls %d\n",
		len(c.Glob), len(c.Code), len(c.Blk), len(c.Farr), len(c.Darr), len(c.Dlca))

	if c.Header.IsLibrary {
		fmt.Printf("deps %d, unresolved refs %d, relocations %d\n", len(c.Deps), len(c.Urefs), len(c.Relocs))
		fmt.Printf("symbols: dims %d, types %d, vars %d, fields %d, funcs %d, params %d\n",
			len(c.Dims), len(c.Types), len(c.Vars), len(c.Fields), len(c.Funcs), len(c.Params))
	}
	if c.Header.HasDebugSymbols {
		fmt.Printf("debug: modules %d, types %d, vars %d, fields %d, funcs %d, params %d, lines %d\n",
			len(c.DbgModules), len(c.DbgTypes), len(c.DbgVars), len(c.DbgFields), len(c.DbgFuncs), len(c.DbgParams), len(c.DbgLines))
	}

	if !*verbose {
		return
	}
	for _, d := range c.Deps {
		fmt.Printf("  dep %s v%d.%d.%d\n", d.Module, d.LibVersion[0], d.LibVersion[1], d.LibVersion[2])
	}
	for _, f := range c.Funcs {
		fmt.Printf("  func %s (%s) @ %08x\n", f.Name, f.MangledID, f.CodeAddr)
	}
}
