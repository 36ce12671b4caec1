// Package query implements the query loader (§4.3, §6.2): it reads one
// party's query share file and extracts the modifier-chain share, the
// public bucket scheme, and the query keywords in their four wire forms.
package query

import (
	"fmt"
	"os"

	"github.com/encryptogroup/PrivMail/internal/bucket"
	"github.com/encryptogroup/PrivMail/internal/circuiterr"
	"github.com/encryptogroup/PrivMail/internal/decode"
	"github.com/encryptogroup/PrivMail/internal/wire"
	"gopkg.in/yaml.v3"
)

// Keyword is one query keyword in the four forms the circuit builder
// needs, plus the informational (never circuit-consumed) original text.
type Keyword struct {
	Text       string // informational only, not wired into the circuit
	BucketSize int
	Bucketed   []wire.Bundle8 // exactly BucketSize characters (hidden/bucket/index)
	LengthMask []wire.Bit     // exactly BucketSize bits
	Truncated  []wire.Bundle8 // normal mode
}

// Query is the fully decoded per-party query.
type Query struct {
	ModifierChain []wire.Bit
	BucketScheme  bucket.Scheme
	Keywords      []Keyword
}

type rawKeyword struct {
	Field              string `yaml:"field,omitempty"`
	Keyword            string `yaml:"keyword,omitempty"`
	KeywordBucketSize  *int   `yaml:"keyword_bucket_size,omitempty"`
	KeywordBucketed    string `yaml:"keyword_bucketed,omitempty"`
	KeywordLengthMask  string `yaml:"keyword_length_mask,omitempty"`
	KeywordTruncated   string `yaml:"keyword_truncated,omitempty"`
}

func (rk rawKeyword) isPlaceholder() bool {
	return rk.KeywordBucketSize == nil &&
		rk.KeywordBucketed == "" &&
		rk.KeywordLengthMask == "" &&
		rk.KeywordTruncated == ""
}

type rawFile struct {
	ModifierChainShare string       `yaml:"modifier_chain_share"`
	BucketScheme       []int        `yaml:"bucket_scheme"`
	Keywords           []rawKeyword `yaml:"keywords"`
}

// Load reads and decodes the query share file at path. Unknown top-level
// or keyword-entry keys are a loader error (§9 design note), bucket sizes
// absent from bucket_scheme fail with *circuiterr.InvalidBucketScheme, and
// malformed bundle/mask widths fail with *circuiterr.ShapeMismatch.
func Load(path string) (*Query, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	var raw rawFile
	if err := dec.Decode(&raw); err != nil {
		return nil, circuiterr.AsUnknownField(path, fmt.Errorf("query: %s: %w", path, err))
	}

	scheme := bucket.Scheme(raw.BucketScheme)

	modifierChain, err := decode.DecodeBits(raw.ModifierChainShare)
	if err != nil {
		return nil, fmt.Errorf("query: %s: modifier_chain_share: %w", path, err)
	}

	var keywords []Keyword
	for i, rk := range raw.Keywords {
		if rk.isPlaceholder() {
			continue
		}

		bucketSize := 0
		if rk.KeywordBucketSize != nil {
			bucketSize = *rk.KeywordBucketSize
			if err := scheme.Require(bucketSize); err != nil {
				return nil, fmt.Errorf("query: %s: keyword %d: %w", path, i, err)
			}
		}

		bucketed, err := decode.Decode(rk.KeywordBucketed)
		if err != nil {
			return nil, fmt.Errorf("query: %s: keyword %d: keyword_bucketed: %w", path, i, err)
		}
		lengthMask, err := decode.DecodeBits(rk.KeywordLengthMask)
		if err != nil {
			return nil, fmt.Errorf("query: %s: keyword %d: keyword_length_mask: %w", path, i, err)
		}
		truncated, err := decode.Decode(rk.KeywordTruncated)
		if err != nil {
			return nil, fmt.Errorf("query: %s: keyword %d: keyword_truncated: %w", path, i, err)
		}

		if bucketSize != 0 {
			if len(bucketed) != bucketSize {
				return nil, fmt.Errorf("query: %s: keyword %d: %w", path, i,
					&circuiterr.ShapeMismatch{Context: "keyword_bucketed", Want: bucketSize, Got: len(bucketed)})
			}
			if len(lengthMask) != bucketSize {
				return nil, fmt.Errorf("query: %s: keyword %d: %w", path, i,
					&circuiterr.ShapeMismatch{Context: "keyword_length_mask", Want: bucketSize, Got: len(lengthMask)})
			}
		}

		keywords = append(keywords, Keyword{
			Text:       rk.Keyword,
			BucketSize: bucketSize,
			Bucketed:   bucketed,
			LengthMask: lengthMask,
			Truncated:  truncated,
		})
	}

	if len(keywords) > 0 {
		want := 2*len(keywords) - 1
		if len(modifierChain) < want {
			return nil, fmt.Errorf("query: %s: %w", path,
				&circuiterr.ShapeMismatch{Context: "modifier_chain_share", Want: want, Got: len(modifierChain)})
		}
	}

	return &Query{
		ModifierChain: modifierChain,
		BucketScheme:  scheme,
		Keywords:      keywords,
	}, nil
}
