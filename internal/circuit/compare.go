package circuit

import (
	"github.com/encryptogroup/PrivMail/internal/backend"
	"github.com/encryptogroup/PrivMail/internal/circuiterr"
	"github.com/encryptogroup/PrivMail/internal/wire"
)

// compareChars computes, for n pairs of characters (a[i], b[i]), the
// per-pair "this character matches" wire: NOT(a XOR b) restricted to the
// low CharacterBitLen bits, AND-reduced across those bits (§4.5.1). The
// result is one flat SIMD value of width n, one lane per pair, computed
// in exactly ceil(log2(CharacterBitLen)) communication rounds regardless
// of n.
func compareChars(party *backend.Party, a, b []wire.Bundle8) (wire.Simd, error) {
	n := len(a)
	if len(b) != n {
		return wire.Simd{}, &circuiterr.ShapeMismatch{Context: "compareChars", Want: n, Got: len(b)}
	}
	planes := make([]wire.Simd, wire.CharacterBitLen)
	for bit := 0; bit < wire.CharacterBitLen; bit++ {
		aShares := make([]bool, n)
		bShares := make([]bool, n)
		for i := 0; i < n; i++ {
			aShares[i] = a[i].LowBits()[bit].Share
			bShares[i] = b[i].LowBits()[bit].Share
		}
		xorPlane, err := party.XorSimd(wire.Simd{Shares: aShares}, wire.Simd{Shares: bShares})
		if err != nil {
			return wire.Simd{}, err
		}
		planes[bit] = party.NotSimd(xorPlane)
	}
	return reduceList(planes, party.AndSimd)
}

// constBundle returns an 8-bit bundle carrying the public constant value
// v in every bit — used to pad comparisons past the end of a target text
// with a structurally-guaranteed match (§4.5.3 hidden mode: "beyond the
// end... effectively contributes 1").
func constBundle(party *backend.Party, v bool) wire.Bundle8 {
	var bundle wire.Bundle8
	c := party.Const(v)
	for i := range bundle {
		bundle[i] = c
	}
	return bundle
}

// compareNormal implements normal-mode matching (§4.5.3): keyword length
// is public, so the comparison shape (P = |text| - |keyword| + 1) is
// public too. Returns the public-constant-0 wire when no position is
// comparable (§4.5.4).
func compareNormal(party *backend.Party, text, keyword []wire.Bundle8) (wire.Bit, error) {
	l := len(keyword)
	p := len(text) - l + 1
	if p <= 0 {
		return party.Const(false), nil
	}
	a := make([]wire.Bundle8, p*l)
	b := make([]wire.Bundle8, p*l)
	for c := 0; c < p; c++ {
		for j := 0; j < l; j++ {
			a[c*l+j] = text[c+j]
			b[c*l+j] = keyword[j]
		}
	}
	charMatch, err := compareChars(party, a, b)
	if err != nil {
		return wire.Bit{}, err
	}
	posMatch, err := reduceGroupsSimd(charMatch, p, l, party.AndSimd)
	if err != nil {
		return wire.Bit{}, err
	}
	final, err := reduceGroupsSimd(posMatch, 1, p, party.OrSimd)
	if err != nil {
		return wire.Bit{}, err
	}
	return simdToBit(final), nil
}

// compareHidden implements hidden/bucket/index-mode matching against a
// keyword whose true length is secret: the keyword is padded to its
// public bucket size b and carries a secret length mask of the same
// width. minLen bounds the comparison window (§4.5.3): for hidden mode
// it is bucket.Scheme.MinLen(bucketSize); for bucket/index mode it is
// simply the keyword's own bucket size, since there the target word's
// own bucket already fixes a single candidate length rather than a
// range of corpus bucket sizes.
func compareHidden(party *backend.Party, text, bucketed []wire.Bundle8, lengthMask []wire.Bit, minLen int) (wire.Bit, error) {
	b := len(bucketed)
	if len(lengthMask) != b {
		return wire.Bit{}, &circuiterr.ShapeMismatch{Context: "compareHidden: length_mask", Want: b, Got: len(lengthMask)}
	}
	t := len(text)
	p := t - minLen + 1
	if p <= 0 {
		return party.Const(false), nil
	}

	a := make([]wire.Bundle8, p*b)
	bb := make([]wire.Bundle8, p*b)
	for c := 0; c < p; c++ {
		for j := 0; j < b; j++ {
			idx := c + j
			if idx >= t {
				// Beyond the text's end: force a structural match so
				// only the true-length characters (inside the mask)
				// decide the outcome.
				a[c*b+j] = constBundle(party, true)
				bb[c*b+j] = constBundle(party, true)
				continue
			}
			a[c*b+j] = text[idx]
			bb[c*b+j] = bucketed[j]
		}
	}

	charMatch, err := compareChars(party, a, bb)
	if err != nil {
		return wire.Bit{}, err
	}

	negMask := make([]wire.Bit, b)
	for j, m := range lengthMask {
		negMask[j] = party.Not(m)
	}
	negMaskFlat := make([]bool, p*b)
	for c := 0; c < p; c++ {
		for j := 0; j < b; j++ {
			negMaskFlat[c*b+j] = negMask[j].Share
		}
	}
	masked, err := party.OrSimd(charMatch, wire.Simd{Shares: negMaskFlat})
	if err != nil {
		return wire.Bit{}, err
	}

	posMatch, err := reduceGroupsSimd(masked, p, b, party.AndSimd)
	if err != nil {
		return wire.Bit{}, err
	}
	final, err := reduceGroupsSimd(posMatch, 1, p, party.OrSimd)
	if err != nil {
		return wire.Bit{}, err
	}
	return simdToBit(final), nil
}
