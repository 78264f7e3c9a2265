// Command vmflink combines one or more compiled library containers into a
// single linked executable container. It plays the role cmd/link's main
// plays for the toolchain: pick the architecture, then drive the library
// linker's full relocate-and-append sequence and build the super-init
// routine that calls every linked module's initializer.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"vmforge/internal/binfmt"
	"vmforge/internal/buffer"
	"vmforge/internal/cpuabi"
	"vmforge/internal/diag"
	"vmforge/internal/emitter"
	"vmforge/internal/geom"
	"vmforge/internal/linker"
	"vmforge/internal/litpromote"
	"vmforge/internal/reloc"
	"vmforge/internal/resolve"
	"vmforge/internal/symtab"
)

var (
	output  = flag.String("o", "a.vmf", "output container path")
	arch32  = flag.Bool("32", false, "target the 32-bit architecture (default 64-bit)")
	soft    = flag.Bool("soft", false, "soft-link every library (declare-only, no code appended)")
	sysVers = flag.String("sysver", "1.0.0", "system version stamped into the output header")
)

func usage() {
	fmt.Fprintf(os.Stderr, "usage: vmflink [-o out] [-32] [-soft] lib.vmf [lib.vmf ...]\n")
	flag.PrintDefaults()
	os.Exit(2)
}

func main() {
	log.SetPrefix("vmflink: ")
	log.SetFlags(0)
	flag.Usage = usage
	flag.Parse()
	if flag.NArg() == 0 {
		usage()
	}

	arch := cpuabi.Arch64
	if *arch32 {
		arch = cpuabi.Arch32
	}

	buf := buffer.NewStore()
	gt := geom.NewTable()
	rt := reloc.NewTable()
	lk := linker.New(buf, gt, rt, arch)

	var deps []binfmt.Dependency
	for _, path := range flag.Args() {
		result, err := lk.ImportLibrary(path, !*soft, "")
		if err != nil {
			log.Fatalf("linking %s: %v", path, err)
		}
		deps = append(deps, result.Dependencies...)
	}

	sink := diag.NewSink()
	em := emitter.New(buf, symtab.NewMasterTable(), symtab.NewScopeStack(), litpromote.NewPromoter(),
		resolve.NewJumpResolver(), resolve.NewCallResolver(), rt, nil, sink, arch)
	superAddr := lk.BuildSuperInit(em)
	if sink.Fatal() {
		log.Fatalf("building super-init: %+v", sink.Diagnostics())
	}

	out := &binfmt.Container{
		Header: binfmt.Header{
			IsLibrary:     false,
			Arch:          arch,
			SystemVersion: *sysVers,
			SuperInitAddr: superAddr,
		},
		Glob: buf.Glob,
		Code: buf.Code,
		Farr: gt.AllGlobalFix(),
		Darr: gt.AllDyn(),
		Blk:  buf.Blk,
		Dlca: lk.DlCalls,
		Deps: deps,
	}

	f, err := os.Create(*output)
	if err != nil {
		log.Fatal(err)
	}
	defer f.Close()
	if _, err := out.WriteTo(f); err != nil {
		log.Fatalf("writing %s: %v", *output, err)
	}
	fmt.Printf("vmflink: wrote %s (%d libraries, super-init @ %08x)\n", *output, flag.NArg(), superAddr)
}
