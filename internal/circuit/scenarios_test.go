package circuit_test

import (
	"sync"
	"testing"

	"github.com/encryptogroup/PrivMail/internal/backend"
	"github.com/encryptogroup/PrivMail/internal/bucket"
	"github.com/encryptogroup/PrivMail/internal/circuit"
	"github.com/encryptogroup/PrivMail/internal/corpus"
	"github.com/encryptogroup/PrivMail/internal/index"
	"github.com/encryptogroup/PrivMail/internal/query"
	"github.com/encryptogroup/PrivMail/internal/transport"
	"github.com/encryptogroup/PrivMail/internal/wire"
	"github.com/stretchr/testify/require"
)

func newTestParties(t *testing.T, n int) []*backend.Party {
	t.Helper()
	meshes := transport.NewMockMesh(n)
	seed := backend.DeriveSeed([]string{"scenario-test-seed"})
	parties := make([]*backend.Party, n)
	for i, m := range meshes {
		parties[i] = backend.NewParty(m, seed, nil)
		parties[i].DisableLogging()
	}
	return parties
}

// charBits returns the MSB-first bit pattern of a raw byte, matching how
// internal/decode materialises a Base64-decoded byte into a Bundle8.
func charBits(ch byte) [8]bool {
	var bits [8]bool
	for i := 0; i < 8; i++ {
		bits[i] = (ch>>uint(7-i))&1 == 1
	}
	return bits
}

// sharedText splits a plaintext string into n parties' Bundle8 shares,
// party n-1 holding the full value and every other party holding zero —
// sufficient to exercise every gate the circuit builder evaluates.
func sharedText(s string, n int) [][]wire.Bundle8 {
	out := make([][]wire.Bundle8, n)
	for p := range out {
		out[p] = make([]wire.Bundle8, len(s))
	}
	for i := 0; i < len(s); i++ {
		bits := charBits(s[i])
		for p := 0; p < n; p++ {
			var bundle wire.Bundle8
			for b := 0; b < 8; b++ {
				share := false
				if p == n-1 {
					share = bits[b]
				}
				bundle[b] = wire.Bit{Share: share}
			}
			out[p][i] = bundle
		}
	}
	return out
}

func sharedBits(plain []bool, n int) [][]wire.Bit {
	out := make([][]wire.Bit, n)
	for p := range out {
		out[p] = make([]wire.Bit, len(plain))
	}
	for i, v := range plain {
		for p := 0; p < n; p++ {
			share := false
			if p == n-1 {
				share = v
			}
			out[p][i] = wire.Bit{Share: share}
		}
	}
	return out
}

// runBuild runs circuit.Build concurrently once per party (every AND
// gate needs every party live at the same time) and returns each
// party's output wires.
func runBuild(t *testing.T, parties []*backend.Party, qPerParty []*query.Query, mode circuit.Mode, mailsPerParty [][]corpus.Mail, scheme bucket.Scheme) [][]wire.Bit {
	t.Helper()
	n := len(parties)
	out := make([][]wire.Bit, n)
	var wg sync.WaitGroup
	var mu sync.Mutex
	var firstErr error
	for p := 0; p < n; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			r, err := circuit.Build(parties[p], qPerParty[p], mode, mailsPerParty[p], nil, scheme)
			if err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				mu.Unlock()
				return
			}
			out[p] = r
		}(p)
	}
	wg.Wait()
	require.NoError(t, firstErr)
	return out
}

// runBuildIndex mirrors runBuild for index mode, where the per-party
// input is an *index.Index rather than a mail corpus.
func runBuildIndex(t *testing.T, parties []*backend.Party, qPerParty []*query.Query, idxPerParty []*index.Index, scheme bucket.Scheme) [][]wire.Bit {
	t.Helper()
	n := len(parties)
	out := make([][]wire.Bit, n)
	var wg sync.WaitGroup
	var mu sync.Mutex
	var firstErr error
	for p := 0; p < n; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			r, err := circuit.Build(parties[p], qPerParty[p], circuit.ModeIndex, nil, idxPerParty[p], scheme)
			if err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				mu.Unlock()
				return
			}
			out[p] = r
		}(p)
	}
	wg.Wait()
	require.NoError(t, firstErr)
	return out
}

func declassifyVector(t *testing.T, parties []*backend.Party, perParty [][]wire.Bit) []bool {
	t.Helper()
	n := len(parties)
	width := len(perParty[0])
	out := make([]bool, width)
	for i := 0; i < width; i++ {
		got := make([]bool, n)
		var wg sync.WaitGroup
		for p := 0; p < n; p++ {
			wg.Add(1)
			go func(p int) {
				defer wg.Done()
				v, err := parties[p].Declassify(perParty[p][i])
				require.NoError(t, err)
				got[p] = v
			}(p)
		}
		wg.Wait()
		out[i] = got[0]
	}
	return out
}

// finishAll calls Finish on every party concurrently (each Finish is a
// synchronization round that needs every party live at once) and then
// checks each party's error.
func finishAll(t *testing.T, parties []*backend.Party) {
	t.Helper()
	errs := make([]error, len(parties))
	var wg sync.WaitGroup
	for i, p := range parties {
		wg.Add(1)
		go func(i int, p *backend.Party) {
			defer wg.Done()
			errs[i] = p.Finish()
		}(i, p)
	}
	wg.Wait()
	for _, err := range errs {
		require.NoError(t, err)
	}
}

func TestScenarioNormalMatchAndMiss(t *testing.T) {
	n := 2
	for _, tc := range []struct {
		name    string
		keyword string
		want    bool
	}{
		{"match", "world", true},
		{"miss", "xyz", false},
	} {
		t.Run(tc.name, func(t *testing.T) {
			parties := newTestParties(t, n)
			text := sharedText("hello world", n)
			kw := sharedText(tc.keyword, n)
			modChain := sharedBits([]bool{false}, n)

			qPerParty := make([]*query.Query, n)
			mailsPerParty := make([][]corpus.Mail, n)
			for p := 0; p < n; p++ {
				qPerParty[p] = &query.Query{
					ModifierChain: modChain[p],
					Keywords:      []query.Keyword{{Truncated: kw[p]}},
				}
				mailsPerParty[p] = []corpus.Mail{{Present: true, Truncated: text[p]}}
			}

			out := runBuild(t, parties, qPerParty, circuit.ModeNormal, mailsPerParty, nil)
			got := declassifyVector(t, parties, out)
			require.Equal(t, []bool{tc.want}, got)
			finishAll(t, parties)
		})
	}
}

func TestScenarioHiddenMasking(t *testing.T) {
	n := 2
	for _, tc := range []struct {
		name     string
		bucketed string
		want     bool
	}{
		{"match", "world\x00\x00\x00", true},
		{"miss", "xorld\x00\x00\x00", false},
	} {
		t.Run(tc.name, func(t *testing.T) {
			parties := newTestParties(t, n)
			text := sharedText("helloworld", n)
			kw := sharedText(tc.bucketed, n)
			mask := sharedBits([]bool{true, true, true, true, true, false, false, false}, n)
			modChain := sharedBits([]bool{false}, n)
			scheme := bucket.Scheme{8}

			qPerParty := make([]*query.Query, n)
			mailsPerParty := make([][]corpus.Mail, n)
			for p := 0; p < n; p++ {
				qPerParty[p] = &query.Query{
					ModifierChain: modChain[p],
					BucketScheme:  scheme,
					Keywords:      []query.Keyword{{BucketSize: 8, Bucketed: kw[p], LengthMask: mask[p]}},
				}
				mailsPerParty[p] = []corpus.Mail{{Present: true, Block: text[p]}}
			}

			out := runBuild(t, parties, qPerParty, circuit.ModeHidden, mailsPerParty, scheme)
			got := declassifyVector(t, parties, out)
			require.Equal(t, []bool{tc.want}, got)
			finishAll(t, parties)
		})
	}
}

func TestScenarioOrWithNot(t *testing.T) {
	n := 2
	for _, tc := range []struct {
		text string
		want bool
	}{
		{"alpha", true},
		{"beta", false},
		{"gamma", true},
	} {
		t.Run(tc.text, func(t *testing.T) {
			parties := newTestParties(t, n)
			text := sharedText(tc.text, n)
			kw0 := sharedText("alpha", n)
			kw1 := sharedText("beta", n)
			modChain := sharedBits([]bool{false, true, true}, n)

			qPerParty := make([]*query.Query, n)
			mailsPerParty := make([][]corpus.Mail, n)
			for p := 0; p < n; p++ {
				qPerParty[p] = &query.Query{
					ModifierChain: modChain[p],
					Keywords: []query.Keyword{
						{Truncated: kw0[p]},
						{Truncated: kw1[p]},
					},
				}
				mailsPerParty[p] = []corpus.Mail{{Present: true, Truncated: text[p]}}
			}

			out := runBuild(t, parties, qPerParty, circuit.ModeNormal, mailsPerParty, nil)
			got := declassifyVector(t, parties, out)
			require.Equal(t, []bool{tc.want}, got)
			finishAll(t, parties)
		})
	}
}

func TestAbsentMailShortCircuitsToFalse(t *testing.T) {
	n := 2
	parties := newTestParties(t, n)
	modChain := sharedBits([]bool{false}, n)

	qPerParty := make([]*query.Query, n)
	mailsPerParty := make([][]corpus.Mail, n)
	for p := 0; p < n; p++ {
		qPerParty[p] = &query.Query{ModifierChain: modChain[p]}
		mailsPerParty[p] = []corpus.Mail{{Present: false}}
	}

	out := runBuild(t, parties, qPerParty, circuit.ModeNormal, mailsPerParty, nil)
	got := declassifyVector(t, parties, out)
	require.Equal(t, []bool{false}, got)
	finishAll(t, parties)
}

func TestScenarioBucketMatch(t *testing.T) {
	n := 2
	scheme := bucket.Scheme{4}
	word0 := sharedText("cat\x00", n)
	word1 := sharedText("dog\x00", n)

	for _, tc := range []struct {
		name     string
		bucketed string
		want     bool
	}{
		{"match", "cat\x00", true},
		{"miss", "fox\x00", false},
	} {
		t.Run(tc.name, func(t *testing.T) {
			parties := newTestParties(t, n)
			kw := sharedText(tc.bucketed, n)
			mask := sharedBits([]bool{true, true, true, false}, n)
			modChain := sharedBits([]bool{false}, n)

			qPerParty := make([]*query.Query, n)
			mailsPerParty := make([][]corpus.Mail, n)
			for p := 0; p < n; p++ {
				qPerParty[p] = &query.Query{
					ModifierChain: modChain[p],
					BucketScheme:  scheme,
					Keywords:      []query.Keyword{{BucketSize: 4, Bucketed: kw[p], LengthMask: mask[p]}},
				}
				mailsPerParty[p] = []corpus.Mail{{
					Present: true,
					Buckets: map[int][][]wire.Bundle8{4: {word0[p], word1[p]}},
				}}
			}

			out := runBuild(t, parties, qPerParty, circuit.ModeBucket, mailsPerParty, scheme)
			got := declassifyVector(t, parties, out)
			require.Equal(t, []bool{tc.want}, got)
			finishAll(t, parties)
		})
	}
}

// TestScenarioIndexMatch exercises index mode's per-word matching and
// its bucket-monotonicity filter (§8 scenario 6): a keyword may match a
// substring of a strictly larger indexed word, but an indexed word from
// a strictly smaller bucket than the keyword's own bucket is forced to
// the public-constant-0 result without any comparison.
func TestScenarioIndexMatch(t *testing.T) {
	n := 2
	scheme := bucket.Scheme{4, 8}
	word4 := sharedText("cat\x00", n)   // bucket-4 entry
	word8 := sharedText("xxcatxyz", n) // bucket-8 entry, contains "cat" as a substring

	for _, tc := range []struct {
		name       string
		bucketSize int
		bucketed   string
		mask       []bool
		want       []bool
	}{
		{
			name:       "bucket4 keyword matches its own bucket and substring-matches inside the bigger bucket",
			bucketSize: 4,
			bucketed:   "cat\x00",
			mask:       []bool{true, true, true, false},
			want:       []bool{true, true},
		},
		{
			name:       "bucket8 keyword: monotonicity forces the smaller bucket's entry to false",
			bucketSize: 8,
			bucketed:   "xxcatxyz",
			mask:       []bool{true, true, true, true, true, true, true, true},
			want:       []bool{false, true},
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			parties := newTestParties(t, n)
			kw := sharedText(tc.bucketed, n)
			mask := sharedBits(tc.mask, n)
			modChain := sharedBits([]bool{false}, n)

			qPerParty := make([]*query.Query, n)
			idxPerParty := make([]*index.Index, n)
			for p := 0; p < n; p++ {
				qPerParty[p] = &query.Query{
					ModifierChain: modChain[p],
					BucketScheme:  scheme,
					Keywords:      []query.Keyword{{BucketSize: tc.bucketSize, Bucketed: kw[p], LengthMask: mask[p]}},
				}
				idxPerParty[p] = &index.Index{
					Buckets: map[int][]index.Entry{
						4: {{Word: word4[p], BucketSize: 4}},
						8: {{Word: word8[p], BucketSize: 8}},
					},
				}
			}

			out := runBuildIndex(t, parties, qPerParty, idxPerParty, scheme)
			got := declassifyVector(t, parties, out)
			require.Equal(t, tc.want, got)
			finishAll(t, parties)
		})
	}
}
