package query_test

import (
	"encoding/base64"
	"os"
	"path/filepath"
	"testing"

	"github.com/encryptogroup/PrivMail/internal/bucket"
	"github.com/encryptogroup/PrivMail/internal/circuiterr"
	"github.com/encryptogroup/PrivMail/internal/query"
	"github.com/stretchr/testify/require"
)

func writeQueryFile(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "query.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func b64Bytes(n int) string {
	return base64.StdEncoding.EncodeToString(make([]byte, n))
}

func TestLoadSkipsPlaceholderEntries(t *testing.T) {
	body := `
modifier_chain_share: ` + b64Bytes(1) + `
bucket_scheme: [4, 8, 16]
keywords:
  - field: subject
  - keyword: "hello"
    keyword_bucket_size: 8
    keyword_bucketed: ` + b64Bytes(8) + `
    keyword_length_mask: ` + b64Bytes(8) + `
    keyword_truncated: ` + b64Bytes(5) + `
`
	q, err := query.Load(writeQueryFile(t, body))
	require.NoError(t, err)
	require.Len(t, q.Keywords, 1)
	require.Equal(t, "hello", q.Keywords[0].Text)
	require.Equal(t, 8, q.Keywords[0].BucketSize)
	require.Len(t, q.Keywords[0].Bucketed, 8)
	require.Len(t, q.Keywords[0].LengthMask, 8)
	require.Equal(t, bucket.Scheme{4, 8, 16}, q.BucketScheme)
}

func TestLoadRejectsUnknownBucketSize(t *testing.T) {
	body := `
modifier_chain_share: ` + b64Bytes(1) + `
bucket_scheme: [4, 8, 16]
keywords:
  - keyword: "hello"
    keyword_bucket_size: 32
    keyword_bucketed: ` + b64Bytes(32) + `
    keyword_length_mask: ` + b64Bytes(32) + `
    keyword_truncated: ` + b64Bytes(5) + `
`
	_, err := query.Load(writeQueryFile(t, body))
	require.Error(t, err)
	var schemeErr *circuiterr.InvalidBucketScheme
	require.ErrorAs(t, err, &schemeErr)
}

func TestLoadRejectsShapeMismatch(t *testing.T) {
	body := `
modifier_chain_share: ` + b64Bytes(1) + `
bucket_scheme: [4, 8, 16]
keywords:
  - keyword: "hello"
    keyword_bucket_size: 8
    keyword_bucketed: ` + b64Bytes(4) + `
    keyword_length_mask: ` + b64Bytes(8) + `
    keyword_truncated: ` + b64Bytes(5) + `
`
	_, err := query.Load(writeQueryFile(t, body))
	require.Error(t, err)
	var shapeErr *circuiterr.ShapeMismatch
	require.ErrorAs(t, err, &shapeErr)
}

func TestLoadRejectsUnknownField(t *testing.T) {
	body := `
modifier_chain_share: ` + b64Bytes(1) + `
bucket_scheme: [4, 8, 16]
unexpected_top_level_key: true
keywords: []
`
	_, err := query.Load(writeQueryFile(t, body))
	require.Error(t, err)
	var unknownErr *circuiterr.UnknownField
	require.ErrorAs(t, err, &unknownErr)
	require.Equal(t, "unexpected_top_level_key", unknownErr.Field)
}

func TestLoadRejectsShortModifierChain(t *testing.T) {
	body := `
modifier_chain_share: ` + b64Bytes(0) + `
bucket_scheme: [4, 8, 16]
keywords:
  - keyword: "a"
    keyword_bucket_size: 4
    keyword_bucketed: ` + b64Bytes(4) + `
    keyword_length_mask: ` + b64Bytes(4) + `
    keyword_truncated: ` + b64Bytes(1) + `
  - keyword: "b"
    keyword_bucket_size: 4
    keyword_bucketed: ` + b64Bytes(4) + `
    keyword_length_mask: ` + b64Bytes(4) + `
    keyword_truncated: ` + b64Bytes(1) + `
`
	_, err := query.Load(writeQueryFile(t, body))
	require.Error(t, err)
	var shapeErr *circuiterr.ShapeMismatch
	require.ErrorAs(t, err, &shapeErr)
}
