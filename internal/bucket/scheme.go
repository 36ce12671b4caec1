// Package bucket implements the public bucket scheme: the ascending list
// of allowed bucket sizes (§3, §4.3) and the min_len computation hidden
// mode needs to bound comparison positions (§4.5.3).
package bucket

import (
	"sort"

	"github.com/encryptogroup/PrivMail/internal/circuiterr"
)

// Scheme is the public, ascending sequence of allowed bucket sizes
// B1 < B2 < ... < Bm. It is identical for every party.
type Scheme []int

// Contains reports whether size is one of the scheme's bucket sizes.
func (s Scheme) Contains(size int) bool {
	for _, b := range s {
		if b == size {
			return true
		}
	}
	return false
}

// Require returns an *circuiterr.InvalidBucketScheme if size is not part
// of the scheme.
func (s Scheme) Require(size int) error {
	if !s.Contains(size) {
		return &circuiterr.InvalidBucketScheme{BucketSize: size, Scheme: append([]int(nil), s...)}
	}
	return nil
}

// Sorted returns a strictly ascending copy of the scheme.
func (s Scheme) Sorted() Scheme {
	out := append(Scheme(nil), s...)
	sort.Ints(out)
	return out
}

// MinLen returns one more than the previous bucket size in the scheme (or
// 1 if size is the smallest bucket), per §4.5.3's definition of
// min_len(B). size must itself be present in the scheme.
func (s Scheme) MinLen(size int) (int, error) {
	if err := s.Require(size); err != nil {
		return 0, err
	}
	sorted := s.Sorted()
	prev := 0
	for _, b := range sorted {
		if b == size {
			return prev + 1, nil
		}
		prev = b
	}
	// unreachable: Require already confirmed membership.
	return 0, &circuiterr.InvalidBucketScheme{BucketSize: size, Scheme: sorted}
}

// AtLeast returns every bucket size in the scheme that is >= size, in
// ascending order — the buckets bucket mode is allowed to search for a
// keyword of that bucket size (§4.5.3: "strictly smaller buckets cannot
// contain a match of that length class").
func (s Scheme) AtLeast(size int) []int {
	sorted := s.Sorted()
	var out []int
	for _, b := range sorted {
		if b >= size {
			out = append(out, b)
		}
	}
	return out
}
