// Package wire holds the value types that flow through the circuit —
// single-bit wires, 8-bit character bundles, and SIMD-packed groups of
// parallel bits — plus the purely structural layout operations over them
// (split, concat, simdify/unsimdify). None of these types or functions talk
// to the network; they only rearrange the shares a party already holds.
// Gate evaluation (XOR/NOT for free, AND over one communication round)
// lives in package backend.
package wire

// Bit is one party's XOR share of a secret-shared 1-bit wire. The
// plaintext value of the wire is the XOR of every party's Share for it;
// no single Bit reveals anything about that plaintext.
type Bit struct {
	Share bool
}

// Const returns a Bit carrying a public constant. Only the designated
// "reference" party (conventionally party 0) holds the nonzero share for a
// public 1; every other party holds the all-zero share, so XORing every
// party's Const(v) together reconstructs v.
func Const(partyID int, v bool) Bit {
	if partyID == 0 {
		return Bit{Share: v}
	}
	return Bit{Share: false}
}

// Bundle8 is an 8-bit wire bundle representing one secret-shared
// character, most-significant bit first. Only the low 6 bits
// (CharacterBitLen) carry PrivMail-encoded payload; the top 2 bits exist
// structurally but are not compared.
type Bundle8 [8]Bit

// CharacterBitLen is the width of the PrivMail 6-bit character alphabet;
// only this many low-order bits of a Bundle8 participate in comparisons.
const CharacterBitLen = 6

// LowBits returns the low CharacterBitLen bits of the bundle, MSB-first
// within that slice (i.e. bundle[2:8] for an 8-bit bundle).
func (b Bundle8) LowBits() []Bit {
	return append([]Bit(nil), b[8-CharacterBitLen:]...)
}

// Simd packs k parallel 1-bit wires into a single wide value so a backend
// can evaluate one gate k times in parallel. Width is len(Shares).
type Simd struct {
	Shares []bool
}

// Width reports how many parallel lanes this SIMD wire carries.
func (s Simd) Width() int { return len(s.Shares) }

// Bits unpacks a Simd value back into a slice of independent Bit wires —
// the inverse of Simdify, and equivalent to package-level Unsimdify.
func (s Simd) Bits() []Bit {
	out := make([]Bit, len(s.Shares))
	for i, sh := range s.Shares {
		out[i] = Bit{Share: sh}
	}
	return out
}
