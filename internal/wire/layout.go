package wire

import "github.com/encryptogroup/PrivMail/internal/circuiterr"

// SplitToBits splits each 8-bit bundle in bundles into its 8 component
// 1-bit wires, most-significant-first, and concatenates the results in
// bundle order. Every bundle must carry exactly 8 bits; otherwise
// SplitToBits fails with a *circuiterr.ShapeMismatch rather than silently
// truncating or padding.
func SplitToBits(bundles [][]Bit) ([]Bit, error) {
	out := make([]Bit, 0, len(bundles)*8)
	for _, bundle := range bundles {
		if len(bundle) != 8 {
			return nil, &circuiterr.ShapeMismatch{
				Context: "split_to_bits",
				Want:    8,
				Got:     len(bundle),
			}
		}
		out = append(out, bundle...)
	}
	return out, nil
}

// ConcatToBytes regroups a flat sequence of 1-bit wires into 8-bit
// bundles, most-significant-first. If the final group is short, it is
// padded with zero to a full 8 bits.
func ConcatToBytes(bits []Bit, zero Bit) [][]Bit {
	n := (len(bits) + 7) / 8
	out := make([][]Bit, n)
	for i := 0; i < n; i++ {
		group := make([]Bit, 8)
		for j := 0; j < 8; j++ {
			idx := i*8 + j
			if idx < len(bits) {
				group[j] = bits[idx]
			} else {
				group[j] = zero
			}
		}
		out[i] = group
	}
	return out
}

// Simdify packs a list of k parallel 1-bit wires into a single k-way SIMD
// wire, letting the backend evaluate one gate k times in parallel.
func Simdify(bits []Bit) Simd {
	shares := make([]bool, len(bits))
	for i, b := range bits {
		shares[i] = b.Share
	}
	return Simd{Shares: shares}
}

// Unsimdify is the inverse of Simdify.
func Unsimdify(s Simd) []Bit {
	return s.Bits()
}
