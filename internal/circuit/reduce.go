// Package circuit builds the search circuit (§4.5): the character
// comparison primitive, the low-depth batched reductions that make
// hidden/bucket/index search sub-linear in round count, the four mode
// semantics, and the modifier-chain keyword combiner.
package circuit

import (
	"github.com/encryptogroup/PrivMail/internal/backend"
	"github.com/encryptogroup/PrivMail/internal/wire"
)

// combineFunc is the shape shared by backend.Party's AndSimd and OrSimd —
// every reduction below is generic over which one it folds with.
type combineFunc func(a, b wire.Simd) (wire.Simd, error)

// reduceList AND/OR-reduces a list of equal-width SIMD values down to one,
// via a balanced binary tree. Each tree level costs exactly one
// communication round no matter how many pairs it holds, because every
// pair at that level is concatenated into a single combine() call — this
// is the "low-depth balanced reduction" spec.md §4.5.2 describes.
func reduceList(items []wire.Simd, combine combineFunc) (wire.Simd, error) {
	if len(items) == 0 {
		return wire.Simd{}, nil
	}
	for len(items) > 1 {
		w := items[0].Width()
		pairs := len(items) / 2
		left := make([]bool, 0, pairs*w)
		right := make([]bool, 0, pairs*w)
		for i := 0; i < pairs; i++ {
			left = append(left, items[2*i].Shares...)
			right = append(right, items[2*i+1].Shares...)
		}
		next := make([]wire.Simd, 0, pairs+1)
		if pairs > 0 {
			combined, err := combine(wire.Simd{Shares: left}, wire.Simd{Shares: right})
			if err != nil {
				return wire.Simd{}, err
			}
			for i := 0; i < pairs; i++ {
				next = append(next, wire.Simd{Shares: combined.Shares[i*w : (i+1)*w]})
			}
		}
		if len(items)%2 == 1 {
			next = append(next, items[len(items)-1])
		}
		items = next
	}
	return items[0], nil
}

// transposeGroups reinterprets a flat, group-major SIMD value (group g's
// groupSize lanes occupy positions [g*groupSize, (g+1)*groupSize)) as
// groupSize separate SIMD planes, each of width groups, plane j holding
// lane j of every group. This is the "zip" spec.md §4.5.2 describes: it
// turns a per-group reduction into a reduction over a short list of
// wide, flat planes.
func transposeGroups(flat wire.Simd, groups, groupSize int) []wire.Simd {
	planes := make([]wire.Simd, groupSize)
	for j := 0; j < groupSize; j++ {
		lane := make([]bool, groups)
		for g := 0; g < groups; g++ {
			lane[g] = flat.Shares[g*groupSize+j]
		}
		planes[j] = wire.Simd{Shares: lane}
	}
	return planes
}

// reduceGroupsSimd AND/OR-reduces groupSize lanes within each of groups
// contiguous, equal-sized groups in a flat group-major SIMD value, down
// to one result lane per group — e.g. AND-reducing L per-character match
// bits into one per-position match bit across all P positions in a
// single batched pass (groups=P, groupSize=L).
func reduceGroupsSimd(flat wire.Simd, groups, groupSize int, combine combineFunc) (wire.Simd, error) {
	if groupSize == 1 {
		return flat, nil
	}
	planes := transposeGroups(flat, groups, groupSize)
	return reduceList(planes, combine)
}

// bitToSimd lifts a single Bit into a width-1 Simd, and simdToBit is
// its inverse — the seams between the bit-level modifier chain and the
// SIMD-level batched reductions.
func bitToSimd(b wire.Bit) wire.Simd { return wire.Simd{Shares: []bool{b.Share}} }

func simdToBit(s wire.Simd) wire.Bit { return wire.Bit{Share: s.Shares[0]} }

// orReduceBits OR-reduces an arbitrary list of Bit wires via the same
// balanced-tree approach, for the cases (bucket/index candidate lists)
// where the list length isn't fixed by a public position count.
func orReduceBits(party *backend.Party, bits []wire.Bit) (wire.Bit, error) {
	if len(bits) == 0 {
		return party.Const(false), nil
	}
	items := make([]wire.Simd, len(bits))
	for i, b := range bits {
		items[i] = bitToSimd(b)
	}
	result, err := reduceList(items, party.OrSimd)
	if err != nil {
		return wire.Bit{}, err
	}
	return simdToBit(result), nil
}
