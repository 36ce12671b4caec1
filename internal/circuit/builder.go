package circuit

import (
	"github.com/encryptogroup/PrivMail/internal/backend"
	"github.com/encryptogroup/PrivMail/internal/bucket"
	"github.com/encryptogroup/PrivMail/internal/circuiterr"
	"github.com/encryptogroup/PrivMail/internal/corpus"
	"github.com/encryptogroup/PrivMail/internal/index"
	"github.com/encryptogroup/PrivMail/internal/query"
	"github.com/encryptogroup/PrivMail/internal/wire"
)

// Mode names the four search modes §4.5.3 defines.
type Mode string

const (
	ModeNormal Mode = "normal"
	ModeHidden Mode = "hidden"
	ModeBucket Mode = "bucket"
	ModeIndex  Mode = "index"
)

// ParseMode validates a --search-mode flag value.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeNormal, ModeHidden, ModeBucket, ModeIndex:
		return Mode(s), nil
	default:
		return "", &circuiterr.InvalidSearchMode{Mode: s}
	}
}

// Build constructs and evaluates the search circuit for one party,
// returning one result wire per mail (normal/hidden/bucket) or per
// indexed word (index) — §4.5. Every party must call Build with
// identical public shape (mode, keyword/bucket counts, mail/index
// layout) so the Q parties' circuits stay isomorphic (§5).
func Build(party *backend.Party, q *query.Query, mode Mode, mails []corpus.Mail, idx *index.Index, scheme bucket.Scheme) ([]wire.Bit, error) {
	switch mode {
	case ModeNormal:
		return buildOverMails(party, q, mails, matchNormal)
	case ModeHidden:
		return buildOverMails(party, q, mails, hiddenMatcher(scheme))
	case ModeBucket:
		return buildOverMails(party, q, mails, bucketMatcher(scheme))
	case ModeIndex:
		return buildOverIndex(party, q, idx, scheme)
	default:
		return nil, &circuiterr.InvalidSearchMode{Mode: string(mode)}
	}
}

// mailMatcher computes one keyword's match wire against one mail.
type mailMatcher func(party *backend.Party, m corpus.Mail, kw query.Keyword) (wire.Bit, error)

func matchNormal(party *backend.Party, m corpus.Mail, kw query.Keyword) (wire.Bit, error) {
	return compareNormal(party, m.Truncated, kw.Truncated)
}

// hiddenMatcher closes over the public bucket scheme to build a
// mailMatcher for hidden mode (§4.5.3): the comparison window is bounded
// by min_len(B), one more than the previous bucket size in the scheme.
func hiddenMatcher(scheme bucket.Scheme) mailMatcher {
	return func(party *backend.Party, m corpus.Mail, kw query.Keyword) (wire.Bit, error) {
		minLen, err := scheme.MinLen(kw.BucketSize)
		if err != nil {
			return wire.Bit{}, err
		}
		return compareHidden(party, m.Block, kw.Bucketed, kw.LengthMask, minLen)
	}
}

// bucketMatcher closes over the public bucket scheme to build a
// mailMatcher for bucket mode (§4.5.3): only buckets whose size is at
// least the keyword's bucket size are searched, and the match is the OR
// over those buckets and the words within them.
func bucketMatcher(scheme bucket.Scheme) mailMatcher {
	return func(party *backend.Party, m corpus.Mail, kw query.Keyword) (wire.Bit, error) {
		var perWord []wire.Bit
		for _, size := range scheme.AtLeast(kw.BucketSize) {
			for _, word := range m.Buckets[size] {
				wordMatch, err := compareHidden(party, word, kw.Bucketed, kw.LengthMask, kw.BucketSize)
				if err != nil {
					return wire.Bit{}, err
				}
				perWord = append(perWord, wordMatch)
			}
		}
		return orReduceBits(party, perWord)
	}
}

// buildOverMails runs matcher once per (mail, keyword), chains each
// mail's per-keyword matches over the modifier chain, and enumerates
// mails in sequence-number order (the dense vector's own index order).
// Absent mails (§4.4) short-circuit to the public-constant-0 result
// without any comparison.
func buildOverMails(party *backend.Party, q *query.Query, mails []corpus.Mail, matcher mailMatcher) ([]wire.Bit, error) {
	out := make([]wire.Bit, len(mails))
	for i, m := range mails {
		if !m.Present {
			out[i] = party.Const(false)
			continue
		}
		matches := make([]wire.Bit, len(q.Keywords))
		for j, kw := range q.Keywords {
			match, err := matcher(party, m, kw)
			if err != nil {
				return nil, err
			}
			matches[j] = match
		}
		r, err := chainMatches(party, matches, q.ModifierChain)
		if err != nil {
			return nil, err
		}
		out[i] = r
	}
	return out, nil
}

// buildOverIndex runs the same multi-keyword modifier-chain match, but
// against the precomputed inverted index's word list instead of the
// mail corpus (§4.5.3 index mode): one result wire per indexed word, in
// the index's deterministic public enumeration order (§5).
func buildOverIndex(party *backend.Party, q *query.Query, idx *index.Index, scheme bucket.Scheme) ([]wire.Bit, error) {
	if idx == nil {
		return nil, nil
	}
	words := idx.Words(scheme)
	out := make([]wire.Bit, len(words))
	for i, entry := range words {
		matches := make([]wire.Bit, len(q.Keywords))
		for j, kw := range q.Keywords {
			if entry.BucketSize < kw.BucketSize {
				matches[j] = party.Const(false)
				continue
			}
			match, err := compareHidden(party, entry.Word, kw.Bucketed, kw.LengthMask, kw.BucketSize)
			if err != nil {
				return nil, err
			}
			matches[j] = match
		}
		r, err := chainMatches(party, matches, q.ModifierChain)
		if err != nil {
			return nil, err
		}
		out[i] = r
	}
	return out, nil
}
