// scope.go - the parallel variable/label/macro/condition scope stacks

package asm

import "github.com/little32vm/little32/internal/isa"

// Macro is a registered user function: `@NAME<K> NEWOP tokens...`. Body
// is the literal token list of the single instruction it expands to;
// @N markers inside it are substituted positionally at expansion time.
type Macro struct {
	Name     string
	Arity    int
	Variadic bool
	Body     []Token
}

// instrFixup is a pending forward reference to a label from inside an
// instruction operand: once the label resolves, the instruction's full
// token list is re-encoded from scratch at Addr (simpler, and correct
// even when the same operand expression names more than one
// not-yet-defined label, since re-encoding re-resolves all of them).
type instrFixup struct {
	Label string
	Addr  isa.Word
	Toks  []Token
}

// dataFixup is a pending forward reference inside a data-literal
// expression; same deal, but the write is a plain word/byte store.
type dataFixup struct {
	Label string
	Addr  isa.Word
	Toks  []Token
	Width int // 1 or 4
}

// scopeFrame is one level of the parallel scope stacks. cond is set by
// an enclosing ?{ COND }? block; nested condition scopes are rejected
// by the parser before a frame ever needs to stack conditions.
type scopeFrame struct {
	vars   map[string][]Token
	labels map[string]isa.Word
	macros map[string]*Macro
	cond   *isa.Cond

	instrFixups map[string][]instrFixup
	dataFixups  map[string][]dataFixup
}

func newScopeFrame() *scopeFrame {
	return &scopeFrame{
		vars:        map[string][]Token{},
		labels:      map[string]isa.Word{},
		macros:      map[string]*Macro{},
		instrFixups: map[string][]instrFixup{},
		dataFixups:  map[string][]dataFixup{},
	}
}

func (a *Assembler) pushScope() {
	a.scopes = append(a.scopes, newScopeFrame())
}

// popScope spills any still-unresolved fixups from the closing frame
// into its parent (root scope close is handled by the caller, which
// reports them as unresolved instead).
func (a *Assembler) popScope() *scopeFrame {
	top := a.scopes[len(a.scopes)-1]
	a.scopes = a.scopes[:len(a.scopes)-1]
	if len(a.scopes) > 0 {
		parent := a.scopes[len(a.scopes)-1]
		for label, refs := range top.instrFixups {
			parent.instrFixups[label] = append(parent.instrFixups[label], refs...)
		}
		for label, refs := range top.dataFixups {
			parent.dataFixups[label] = append(parent.dataFixups[label], refs...)
		}
	}
	return top
}

func (a *Assembler) top() *scopeFrame { return a.scopes[len(a.scopes)-1] }

func (a *Assembler) lookupVar(name string) ([]Token, bool) {
	for i := len(a.scopes) - 1; i >= 0; i-- {
		if v, ok := a.scopes[i].vars[name]; ok {
			return v, true
		}
	}
	return nil, false
}

func (a *Assembler) lookupLabel(name string) (isa.Word, bool) {
	for i := len(a.scopes) - 1; i >= 0; i-- {
		if v, ok := a.scopes[i].labels[name]; ok {
			return v, true
		}
	}
	return 0, false
}

func (a *Assembler) lookupMacro(name string) (*Macro, bool) {
	for i := len(a.scopes) - 1; i >= 0; i-- {
		if v, ok := a.scopes[i].macros[name]; ok {
			return v, true
		}
	}
	return nil, false
}

// activeCond reports the innermost enclosing ?{ }? condition, if any.
func (a *Assembler) activeCond() (isa.Cond, bool) {
	for i := len(a.scopes) - 1; i >= 0; i-- {
		if a.scopes[i].cond != nil {
			return *a.scopes[i].cond, true
		}
	}
	return isa.CondAL, false
}

// defineLabel binds name to addr in the innermost scope and resolves
// every fixup anywhere in the live scope stack that was waiting on it.
func (a *Assembler) defineLabel(name string, addr isa.Word) error {
	if _, exists := a.top().labels[name]; exists {
		return &Error{Message: "duplicate label: " + name}
	}
	a.top().labels[name] = addr
	for _, frame := range a.scopes {
		if refs, ok := frame.instrFixups[name]; ok {
			delete(frame.instrFixups, name)
			for _, ref := range refs {
				if err := a.tryEncodeInstruction(ref.Toks, ref.Addr); err != nil {
					return err
				}
			}
		}
		if refs, ok := frame.dataFixups[name]; ok {
			delete(frame.dataFixups, name)
			for _, ref := range refs {
				if err := a.tryResolveData(ref.Toks, ref.Addr, ref.Width); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// flushScopes discards every scope above the root, per §4.4's recovery
// path for scope-imbalance errors (unmatched ${, @{, ?{, :{).
func (a *Assembler) flushScopes() {
	a.scopes = a.scopes[:1]
}

// unresolved collects every label still pending across the whole scope
// stack, for the end-of-assembly fatal-unresolved check.
func (a *Assembler) unresolved() []string {
	var names []string
	for _, frame := range a.scopes {
		for name := range frame.instrFixups {
			names = append(names, name)
		}
		for name := range frame.dataFixups {
			names = append(names, name)
		}
	}
	return names
}
