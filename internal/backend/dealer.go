package backend

import (
	"crypto/sha256"
	"encoding/binary"
	"io"
	"sort"
	"strings"

	"golang.org/x/crypto/hkdf"
)

// dealer reproduces Beaver (a, b, c=a&b) Boolean multiplication triples for
// AND gates. Every party derives the same triple stream independently from
// a seed shared via --parties (public addresses), the same way an offline
// preprocessing phase would hand out correlated randomness — except here
// each party recomputes it locally rather than receiving it from a real
// OT-extension dealer. See DESIGN.md "Backend model note" for why this
// simplification is in scope.
type dealer struct {
	seed    []byte
	n       int
	partyID int
}

func newDealer(seed []byte, n, partyID int) *dealer {
	return &dealer{seed: seed, n: n, partyID: partyID}
}

// DeriveSeed expands the mesh's public party addresses into a 32-byte
// triple-dealer seed via HKDF, so every party in the mesh arrives at the
// identical seed without an extra handshake round.
func DeriveSeed(partyAddrs []string) []byte {
	sorted := append([]string(nil), partyAddrs...)
	sort.Strings(sorted)
	secret := []byte(strings.Join(sorted, ","))
	kdf := hkdf.New(sha256.New, secret, []byte("privmail-boolean-gmw-setup"), []byte("triple-seed-v1"))
	seed := make([]byte, 32)
	if _, err := io.ReadFull(kdf, seed); err != nil {
		panic("backend: hkdf expand failed: " + err.Error())
	}
	return seed
}

// triple returns this party's (a, b, c) shares for `width` parallel AND
// gates at the given gate index.
func (d *dealer) triple(gate uint64, width int) (a, b, c []bool) {
	a = make([]bool, width)
	b = make([]bool, width)
	c = make([]bool, width)
	for lane := 0; lane < width; lane++ {
		aFull := d.prgBit("a", gate, lane)
		bFull := d.prgBit("b", gate, lane)
		cFull := aFull && bFull
		a[lane] = d.shareOf("a", gate, lane, aFull)
		b[lane] = d.shareOf("b", gate, lane, bFull)
		c[lane] = d.shareOf("c", gate, lane, cFull)
	}
	return a, b, c
}

func (d *dealer) prgBit(tag string, gate uint64, lane int) bool {
	h := sha256.New()
	h.Write(d.seed)
	h.Write([]byte(tag))
	var buf [16]byte
	binary.BigEndian.PutUint64(buf[:8], gate)
	binary.BigEndian.PutUint64(buf[8:], uint64(lane))
	h.Write(buf[:])
	sum := h.Sum(nil)
	return sum[0]&1 == 1
}

// shareOf splits `full` into d.n XOR shares deterministically: the first
// n-1 parties get independent pseudorandom bits, the last absorbs
// whatever is needed so the shares XOR back to full.
func (d *dealer) shareOf(tag string, gate uint64, lane int, full bool) bool {
	if d.n == 1 {
		return full
	}
	if d.partyID < d.n-1 {
		return d.prgBit(tag+"#s", gate, lane*d.n+d.partyID)
	}
	acc := full
	for j := 0; j < d.n-1; j++ {
		acc = acc != d.prgBit(tag+"#s", gate, lane*d.n+j)
	}
	return acc
}
