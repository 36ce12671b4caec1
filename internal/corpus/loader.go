// Package corpus implements the mail directory loader (§4.4, §6.3): it
// assembles the per-party share files in a directory into a dense,
// sequence-number-indexed mail vector.
package corpus

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/encryptogroup/PrivMail/internal/bucket"
	"github.com/encryptogroup/PrivMail/internal/circuiterr"
	"github.com/encryptogroup/PrivMail/internal/decode"
	"github.com/encryptogroup/PrivMail/internal/wire"
	"gopkg.in/yaml.v3"
)

// Mail is one email's share, in the shapes the circuit builder needs.
// A zero-value Mail (Present == false) is the explicit stand-in for a
// sequence number absent from the directory — see DESIGN.md, Open
// Question 1. It always contributes a public-constant-0 match.
type Mail struct {
	Present        bool
	SequenceNumber int
	Subject        string
	Block          []wire.Bundle8 // secret_share_block
	Truncated      []wire.Bundle8 // secret_share_truncated_block
	Buckets        map[int][][]wire.Bundle8 // bucket_size -> words
}

type rawMail struct {
	SequenceNumber          int                 `yaml:"sequence_number"`
	Subject                 string              `yaml:"subject"`
	SecretShareBlock        string              `yaml:"secret_share_block"`
	SecretShareTruncated    string              `yaml:"secret_share_truncated_block"`
	SecretShareBucketBlocks map[int][]string    `yaml:"secret_share_bucket_blocks"`
}

// Load reads every share file in dir (non-recursive, any file extension)
// and returns a dense vector indexed by sequence_number: vec[i] is the
// mail whose sequence_number is i, or an absent Mail if no file names
// that sequence number. Bucket sizes absent from scheme are dropped
// (§4.4: "only bucket sizes that appear in the public bucket scheme are
// retained").
func Load(dir string, scheme bucket.Scheme) ([]Mail, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("corpus: %w", err)
	}

	var mails []Mail
	maxSeq := -1
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		m, err := loadOne(path, scheme)
		if err != nil {
			return nil, err
		}
		mails = append(mails, m)
		if m.SequenceNumber > maxSeq {
			maxSeq = m.SequenceNumber
		}
	}

	vec := make([]Mail, maxSeq+1)
	for _, m := range mails {
		vec[m.SequenceNumber] = m
	}
	return vec, nil
}

func loadOne(path string, scheme bucket.Scheme) (Mail, error) {
	f, err := os.Open(path)
	if err != nil {
		return Mail{}, fmt.Errorf("corpus: %w", err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	var raw rawMail
	if err := dec.Decode(&raw); err != nil {
		return Mail{}, circuiterr.AsUnknownField(path, fmt.Errorf("corpus: %s: %w", path, err))
	}

	block, err := decode.Decode(raw.SecretShareBlock)
	if err != nil {
		return Mail{}, fmt.Errorf("corpus: %s: secret_share_block: %w", path, err)
	}
	truncated, err := decode.Decode(raw.SecretShareTruncated)
	if err != nil {
		return Mail{}, fmt.Errorf("corpus: %s: secret_share_truncated_block: %w", path, err)
	}

	buckets := make(map[int][][]wire.Bundle8)
	for size, words := range raw.SecretShareBucketBlocks {
		if !scheme.Contains(size) {
			continue
		}
		decoded := make([][]wire.Bundle8, 0, len(words))
		for i, word := range words {
			w, err := decode.Decode(word)
			if err != nil {
				return Mail{}, fmt.Errorf("corpus: %s: secret_share_bucket_blocks[%d][%d]: %w", path, size, i, err)
			}
			decoded = append(decoded, w)
		}
		buckets[size] = decoded
	}

	return Mail{
		Present:        true,
		SequenceNumber: raw.SequenceNumber,
		Subject:        raw.Subject,
		Block:          block,
		Truncated:      truncated,
		Buckets:        buckets,
	}, nil
}

// BucketSizesSorted returns the ascending, deduplicated set of bucket
// sizes actually populated across vec, in deterministic public order.
// The bucket-mode circuit builder does not call it; it enumerates buckets
// from the public scheme (bucket.Scheme.AtLeast) instead.
func BucketSizesSorted(vec []Mail) []int {
	seen := make(map[int]bool)
	for _, m := range vec {
		for size := range m.Buckets {
			seen[size] = true
		}
	}
	sizes := make([]int, 0, len(seen))
	for size := range seen {
		sizes = append(sizes, size)
	}
	sort.Ints(sizes)
	return sizes
}
