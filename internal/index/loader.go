// Package index implements the index file loader (§6.4): the inverted
// index used by index-mode searches, keyed by bucket size.
package index

import (
	"fmt"
	"os"

	"github.com/encryptogroup/PrivMail/internal/bucket"
	"github.com/encryptogroup/PrivMail/internal/circuiterr"
	"github.com/encryptogroup/PrivMail/internal/decode"
	"github.com/encryptogroup/PrivMail/internal/wire"
	"gopkg.in/yaml.v3"
)

// Entry is one indexed word: its secret-shared bucketed form plus the
// opaque, non-secret occurrence string naming the emails it occurs in.
type Entry struct {
	Word       []wire.Bundle8
	Occurrence string
	BucketSize int
}

// Index is the per-party inverted index, one word list per bucket size.
type Index struct {
	NumEmails int
	Buckets   map[int][]Entry
}

type rawEntry map[string]string

type rawFile struct {
	NumOfEmails  int                 `yaml:"num_of_emails"`
	IndexBuckets map[int][]rawEntry `yaml:"INDEX_BUCKETS"`
}

// Load reads the index share file at path. Bucket sizes absent from
// scheme are dropped (mirroring §4.4's corpus-loader rule, applied here
// to the index's own bucket keys).
func Load(path string, scheme bucket.Scheme) (*Index, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("index: %w", err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	var raw rawFile
	if err := dec.Decode(&raw); err != nil {
		return nil, circuiterr.AsUnknownField(path, fmt.Errorf("index: %s: %w", path, err))
	}

	buckets := make(map[int][]Entry)
	for size, entries := range raw.IndexBuckets {
		if !scheme.Contains(size) {
			continue
		}
		decoded := make([]Entry, 0, len(entries))
		for i, rawEnt := range entries {
			for wordB64, occB64 := range rawEnt {
				word, err := decode.Decode(wordB64)
				if err != nil {
					return nil, fmt.Errorf("index: %s: bucket %d entry %d: word: %w", path, size, i, err)
				}
				decoded = append(decoded, Entry{Word: word, Occurrence: occB64, BucketSize: size})
			}
		}
		buckets[size] = decoded
	}

	return &Index{NumEmails: raw.NumOfEmails, Buckets: buckets}, nil
}

// Words returns every entry across every bucket in ascending bucket-size
// order, then file order within a bucket — the deterministic public
// enumeration index mode uses to assign each indexed word its result
// wire position (§5: "file-iteration order for index words").
func (idx *Index) Words(scheme bucket.Scheme) []Entry {
	var out []Entry
	for _, size := range scheme.Sorted() {
		out = append(out, idx.Buckets[size]...)
	}
	return out
}
