package circuit

import (
	"github.com/encryptogroup/PrivMail/internal/backend"
	"github.com/encryptogroup/PrivMail/internal/wire"
)

// chainMatches combines a target's Q per-keyword match wires left to
// right over the secret modifier chain, implementing the identity from
// §4.5.5:
//
//	R0 = match0 XOR M[0]
//	Rj = ((R_{j-1} XOR o) AND ((mj XOR n) XOR o)) XOR o,  o = M[2j-1], n = M[2j]
//
// which is AND when o=0 and OR when o=1, each optionally negating the
// new operand via n — all three control bits stay secret-shared
// throughout, so neither the operator nor the negation is revealed.
// An empty matches slice (no keywords in the query) yields the
// public-constant-0 wire.
func chainMatches(party *backend.Party, matches []wire.Bit, modifierChain []wire.Bit) (wire.Bit, error) {
	if len(matches) == 0 {
		return party.Const(false), nil
	}
	r := party.Xor(matches[0], modifierChain[0])
	for j := 1; j < len(matches); j++ {
		o := modifierChain[2*j-1]
		n := modifierChain[2*j]
		lhs := party.Xor(r, o)
		rhs := party.Xor(party.Xor(matches[j], n), o)
		and, err := party.And(lhs, rhs)
		if err != nil {
			return wire.Bit{}, err
		}
		r = party.Xor(and, o)
	}
	return r, nil
}
