// bigval.go - the minimal arbitrary-precision-integer contract this
// package actually needs from expression evaluation

/*
BigVal stands in for the configuration layer's BigInt dependency, which
spec.md explicitly places out of scope. Every instruction operand and
data literal this assembler ever encodes fits in 32 bits, so the real
arbitrary-precision representation (bits[] + negative) is unnecessary;
BigVal keeps the *contract* (negative-aware, try_to_uN/try_to_iN range
checks) on top of a native int64, which is exactly as wide as any
intermediate expression result needs to be.
*/
package asm

// BigVal is a signed integer result from constant-expression evaluation,
// wide enough to hold any intermediate value this language's six
// precedence levels can produce before a final range check narrows it.
type BigVal struct {
	v int64
}

func NewBigVal(v int64) BigVal { return BigVal{v} }

func (b BigVal) Negative() bool { return b.v < 0 }
func (b BigVal) Int64() int64   { return b.v }

// TryToUN reports whether b fits in an unsigned field of the given bit
// width, returning the truncated value when it does.
func (b BigVal) TryToUN(bits uint) (uint32, bool) {
	if b.v < 0 {
		return 0, false
	}
	limit := uint64(1) << bits
	if uint64(b.v) >= limit {
		return 0, false
	}
	return uint32(b.v), true
}

// TryToIN reports whether b fits in a signed field of the given bit
// width (two's complement), returning the field-encoded value when it
// does.
func (b BigVal) TryToIN(bits uint) (uint32, bool) {
	limit := int64(1) << (bits - 1)
	if b.v < -limit || b.v >= limit {
		return 0, false
	}
	return uint32(b.v) & ((1 << bits) - 1), true
}

func (b BigVal) Add(o BigVal) BigVal { return BigVal{b.v + o.v} }
func (b BigVal) Sub(o BigVal) BigVal { return BigVal{b.v - o.v} }
func (b BigVal) Mul(o BigVal) BigVal { return BigVal{b.v * o.v} }
func (b BigVal) Neg() BigVal         { return BigVal{-b.v} }
