// Package litpromote implements LitPromoter: synthesizes backing constant
// variables for literal operands the emitter cannot place directly in an
// argument slot (spec §4.5). Promotion is recorded eagerly at emit time;
// resolution — allocating one backing variable per distinct payload and
// back-patching every site that referenced it — happens later, in a batch,
// at local-scope close or at binary finalization (spec §9 Open Question:
// "per-scope for locals, per-binary for globals").
package litpromote

import (
	"fmt"

	"golang.org/x/crypto/blake2b"

	"vmforge/internal/cpuabi"
)

// Fingerprint is the BLAKE2b-256 digest of a literal's byte payload, used to
// de-duplicate identical literals (spec §4.5, testable property #7).
type Fingerprint [32]byte

// Sum computes the fingerprint of payload.
func Sum(payload []byte) Fingerprint {
	return Fingerprint(blake2b.Sum256(payload))
}

// Record is one promoted-literal occurrence awaiting resolution.
type Record struct {
	ScopeDepth  int
	Global      bool
	Payload     []byte
	MasterType  cpuabi.MasterType
	Fingerprint Fingerprint
	Text        string
	CodeAddr    int
	ReplTag     string
}

// Promoter accumulates promoted-literal records.
type Promoter struct {
	records     []Record
	replCounter int
}

func NewPromoter() *Promoter { return &Promoter{} }

// Promote records a new literal occurrence and returns the assembler
// replacement tag the caller should substitute into the emitted argument
// (spec §4.4 step 2: "tagging the emission with a replacement id").
func (p *Promoter) Promote(depth int, global bool, payload []byte, mtype cpuabi.MasterType, text string, codeAddr int) string {
	p.replCounter++
	tag := fmt.Sprintf("$L%d", p.replCounter)
	p.records = append(p.records, Record{
		ScopeDepth:  depth,
		Global:      global,
		Payload:     append([]byte(nil), payload...),
		MasterType:  mtype,
		Fingerprint: Sum(payload),
		Text:        text,
		CodeAddr:    codeAddr,
		ReplTag:     tag,
	})
	return tag
}

// Pending returns the number of records still awaiting resolution.
func (p *Promoter) Pending() int { return len(p.records) }

// Allocation is what the resolver's Alloc hook hands back for a newly
// allocated backing variable.
type Allocation struct {
	VarIndex int
	Address  int64
}

// Hooks wires Resolve to the rest of the compilation context without
// litpromote needing to import symtab/buffer/asmlist directly.
type Hooks struct {
	// Alloc synthesizes a backing variable for rec and returns its index
	// and assigned address.
	Alloc func(rec Record) Allocation
	// EmitInit writes the `load` initializer instruction for a freshly
	// allocated backing variable into InitBuffer.
	EmitInit func(alloc Allocation, rec Record)
	// Patch back-patches the code buffer at rec.CodeAddr with addr.
	Patch func(codeAddr int, addr int64)
	// AsmSubst rewrites the assembler listing line carrying replTag,
	// substituting in the backing variable's printed name.
	AsmSubst func(replTag, varName string)
	// VarName returns the printable name of a backing variable.
	VarName func(varIndex int) string
}

// Resolve walks every pending record matching (global, depth) — depth is
// ignored when global is true — allocates exactly one backing variable per
// distinct fingerprint within this batch, and back-patches every site that
// referenced it. Resolved records are removed from the pending set.
func (p *Promoter) Resolve(global bool, depth int, h Hooks) {
	byFingerprint := map[Fingerprint]Allocation{}
	var remaining []Record
	for _, rec := range p.records {
		match := rec.Global == global && (global || rec.ScopeDepth == depth)
		if !match {
			remaining = append(remaining, rec)
			continue
		}
		alloc, seen := byFingerprint[rec.Fingerprint]
		if !seen {
			alloc = h.Alloc(rec)
			byFingerprint[rec.Fingerprint] = alloc
			h.EmitInit(alloc, rec)
		}
		h.Patch(rec.CodeAddr, alloc.Address)
		h.AsmSubst(rec.ReplTag, h.VarName(alloc.VarIndex))
	}
	p.records = remaining
}
