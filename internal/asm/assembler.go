// assembler.go - top-level driver: cursor/region state, include stack,
// and the Assemble(path, source) entry point (passes A-D)

package asm

import (
	"log/slog"
	"strings"

	"github.com/little32vm/little32/internal/isa"
)

// MemoryWriter is the privileged subset of bus.Bus the assembler
// populates memory through: the "forced" path bypasses a ROM's normal
// write-ignore behavior, exactly as a device loader would at boot.
type MemoryWriter interface {
	WriteWordForced(addr isa.Word, v isa.Word)
	WriteByteForced(addr isa.Word, v uint8)
}

// Region names one of the assembler's addressable targets (RAM, ROM, or
// a plain data area), selected by the #RAM/#ROM/#DATA/#PROGRAM cursor
// directives.
type Region struct {
	Name string
	Base isa.Word
	Size isa.Word
}

// FileLoader resolves a source path to its UTF-8 contents, for
// #ASSEMBLE/#FILE/#LINES. The host owns the filesystem; this package
// never touches it directly.
type FileLoader func(path string) (string, error)

// Assembler holds every piece of mutable state a call to Assemble
// touches: the memory cursor, the region sentinels, the scope stacks,
// and the include stack. It is built once and can run many Assemble
// calls. When Assemble fails it calls flushScopes(), which discards every
// scope above the root. The root scope (its labels, variables, macros and
// pending fixups), the memory cursor, the entry point and the region
// sentinels carry over from one call to the next; no exported method
// resets them.
type Assembler struct {
	bus     MemoryWriter
	regions map[string]*Region
	loader  FileLoader
	log     *slog.Logger

	curRegion string
	curOffset isa.Word
	byteMode  bool // false: WORD granularity (the default); true: BYTE

	entrySet bool
	entry    isa.Word

	programStart, programEnd isa.Word
	dataStart, dataEnd       isa.Word
	programStartSet          bool
	dataStartSet             bool

	scopes       []*scopeFrame
	includeStack map[string]bool
	pathStack    []string
	sourceStack  []string

	randState uint64
}

// New creates an Assembler targeting bus, with the named regions
// available to the #RAM/#ROM/#DATA/#PROGRAM directives.
func New(bus MemoryWriter, regions map[string]*Region, loader FileLoader, log *slog.Logger) *Assembler {
	if log == nil {
		log = slog.Default()
	}
	a := &Assembler{
		bus:          bus,
		regions:      regions,
		loader:       loader,
		log:          log,
		includeStack: map[string]bool{},
		randState:    0x2545F4914F6CDD1D,
	}
	a.pushScope()
	a.registerBuiltinMacros()
	return a
}

// registerBuiltinMacros seeds the root scope with every mnemonic alias
// the source assembler wires up as a built-in macro rather than an
// opcode in its own right: STR/LDR/STRB/LDRB over the literal
// RWW/RRW/RWB/RRB spellings, PUSH/POP over SWR/SRR against SP, HALT as
// an unconditional branch to address 0, OR over ORR, and the full B<cond> mnemonic
// family (BAL..BLE) over `B ?COND ...`. User code can still shadow any
// of these by defining its own same-named macro in an inner scope.
func (a *Assembler) registerBuiltinMacros() {
	fixed := func(name string, arity int, body string) {
		a.top().macros[name] = &Macro{Name: name, Arity: arity, Body: mustTokens(body)}
	}
	variadic := func(name, body string) {
		a.top().macros[name] = &Macro{Name: name, Variadic: true, Body: mustTokens(body)}
	}

	fixed("HALT", 0, "B 0")
	fixed("STR", 2, "RWW @0, @1")
	fixed("LDR", 2, "RRW @0, @1")
	fixed("STRB", 2, "RWB @0, @1")
	fixed("LDRB", 2, "RRB @0, @1")
	variadic("PUSH", "SWR SP, ...")
	variadic("POP", "SRR SP, ...")
	variadic("OR", "ORR ...")

	// B<cond> family: condition is baked into the macro body, matching
	// the original's table-driven (name, "B", condition) aliasing
	// rather than exposing conditions as a suffix on the alias itself.
	branchConds := map[string]string{
		"BAL": "AL", "BGT": "GT", "BGE": "GE", "BHI": "HI",
		"BCS": "CS", "BHS": "HS", "BZS": "ZS", "BEQ": "EQ",
		"BNS": "NS", "BMI": "MI", "BVS": "VS", "BVC": "VC",
		"BNC": "NC", "BPL": "PL", "BZC": "ZC", "BNE": "NE",
		"BCC": "CC", "BLO": "LO", "BLS": "LS", "BLT": "LT",
		"BLE": "LE",
	}
	for name, cond := range branchConds {
		variadic(name, "B ?"+cond+" ...")
	}
}

func mustTokens(src string) []Token {
	toks, err := tokenize(src)
	if err != nil {
		panic("built-in macro body failed to tokenize: " + err.Error())
	}
	var clean []Token
	for _, t := range toks {
		if t.Kind == KindEOL || t.Kind == KindEOF {
			continue
		}
		clean = append(clean, t)
	}
	return clean
}

func (a *Assembler) currentFile() string {
	if len(a.pathStack) == 0 {
		return ""
	}
	return a.pathStack[len(a.pathStack)-1]
}

func (a *Assembler) lineSource(line int) string {
	if len(a.sourceStack) == 0 {
		return ""
	}
	src := a.sourceStack[len(a.sourceStack)-1]
	lines := strings.Split(src, "\n")
	if line-1 >= 0 && line-1 < len(lines) {
		return lines[line-1]
	}
	return ""
}

// curAddr is the byte address the cursor currently points at, within
// whichever region is active.
func (a *Assembler) curAddr() isa.Word {
	r := a.regions[a.curRegion]
	return r.Base + a.curOffset
}

// Assemble tokenizes and parses src (attributed to path for error
// messages), mutating the assembler's memory/regions/scopes in place.
// On error, scopes above the root are flushed before the error returns,
// matching the scope-imbalance recovery path of §4.4.
func (a *Assembler) Assemble(path, src string) error {
	if a.includeStack[path] {
		return &Error{Path: path, Message: "recursive #ASSEMBLE of " + path}
	}
	a.includeStack[path] = true
	a.pathStack = append(a.pathStack, path)
	a.sourceStack = append(a.sourceStack, src)
	defer func() {
		delete(a.includeStack, path)
		a.pathStack = a.pathStack[:len(a.pathStack)-1]
		a.sourceStack = a.sourceStack[:len(a.sourceStack)-1]
	}()

	toks, err := tokenize(src)
	if err != nil {
		a.flushScopes()
		return a.wrapLexErr(err)
	}

	p := &parser{a: a, toks: toks}
	if err := p.run(); err != nil {
		a.flushScopes()
		return err
	}

	if len(a.pathStack) == 1 {
		if missing := a.unresolved(); len(missing) > 0 {
			a.flushScopes()
			return &Error{Path: path, Message: "unresolved label(s) at end of assembly: " + strings.Join(missing, ", ")}
		}
	}
	return nil
}

func (a *Assembler) wrapLexErr(err error) error {
	if e, ok := err.(*Error); ok {
		e.Path = a.currentFile()
		e.LineSrc = a.lineSource(e.Line)
		return e
	}
	return err
}

// storeAt writes a resolved value of the given byte width (1 or 4) at
// addr, used both by ordinary literals and by fixup resolution.
func (a *Assembler) storeAt(addr isa.Word, v uint32, width int) {
	if width == 1 {
		a.bus.WriteByteForced(addr, uint8(v))
		return
	}
	a.bus.WriteWordForced(addr, v)
}

// advance moves the cursor forward n bytes, tracking the program/data
// region-end sentinels §3 describes.
func (a *Assembler) advance(n isa.Word) {
	a.curOffset += n
	addr := a.curAddr()
	switch a.curRegion {
	case "PROGRAM", "RAM", "ROM":
		if !a.programStartSet {
			a.programStart = addr - n
			a.programStartSet = true
		}
		if addr > a.programEnd {
			a.programEnd = addr
		}
	case "DATA":
		if !a.dataStartSet {
			a.dataStart = addr - n
			a.dataStartSet = true
		}
		if addr > a.dataEnd {
			a.dataEnd = addr
		}
	}
}
