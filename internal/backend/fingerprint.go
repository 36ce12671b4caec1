package backend

import (
	"encoding/hex"
	"sort"
	"strings"

	"golang.org/x/crypto/sha3"
)

// SessionFingerprint derives a short, stable id for a mesh's party address
// set, logged at startup so operators can correlate statistics JSON across
// parties for the same run. Grounded on mpc_signer's use of
// sha3.NewLegacyKeccak256 to fingerprint public key material.
func SessionFingerprint(partyAddrs []string) string {
	sorted := append([]string(nil), partyAddrs...)
	sort.Strings(sorted)
	h := sha3.NewLegacyKeccak256()
	h.Write([]byte(strings.Join(sorted, ",")))
	sum := h.Sum(nil)
	return hex.EncodeToString(sum)[:16]
}
