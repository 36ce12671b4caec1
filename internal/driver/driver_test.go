package driver

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/encryptogroup/PrivMail/internal/backend"
	"github.com/encryptogroup/PrivMail/internal/corpus"
	"github.com/encryptogroup/PrivMail/internal/index"
	"github.com/encryptogroup/PrivMail/internal/query"
	"github.com/encryptogroup/PrivMail/internal/stats"
	"github.com/encryptogroup/PrivMail/internal/wire"
)

func TestShapeCountersCountsPresentMailsAndBucketedKeywords(t *testing.T) {
	q := &query.Query{
		Keywords: []query.Keyword{
			{Truncated: make([]wire.Bundle8, 5)},
			{BucketSize: 8, Bucketed: make([]wire.Bundle8, 8)},
		},
	}
	mails := []corpus.Mail{
		{Present: true, Block: make([]wire.Bundle8, 10)},
		{Present: false, Block: make([]wire.Bundle8, 10)},
	}
	idx := &index.Index{NumEmails: 42}

	sc := shapeCounters(q, mails, idx)
	require.Equal(t, 1, sc.NumOfEmails)
	require.Equal(t, 10, sc.EmailCharacters)
	require.Equal(t, 13, sc.KeywordCharacters)
	require.Equal(t, 1, sc.KeywordBuckets)
	require.Equal(t, 42, sc.NumOfEmailsInIndex)
}

func TestShapeCountersWithoutIndex(t *testing.T) {
	sc := shapeCounters(&query.Query{}, nil, nil)
	require.Equal(t, 0, sc.NumOfEmailsInIndex)
	require.Equal(t, 0, sc.NumOfEmails)
}

func TestWriteReportToStdoutIsHumanReadable(t *testing.T) {
	r := stats.Build("bucket", 3, uuid.Nil, stats.ShapeCounters{NumOfEmails: 2}, backend.Stats{ANDGates: 9})

	old := os.Stdout
	rd, wr, err := os.Pipe()
	require.NoError(t, err)
	os.Stdout = wr
	writeErr := WriteReport(&r, "")
	wr.Close()
	os.Stdout = old
	require.NoError(t, writeErr)

	buf := make([]byte, 4096)
	n, _ := rd.Read(buf)
	out := string(buf[:n])
	require.Contains(t, out, "PrivMail run statistics")
	require.Contains(t, out, "search_mode")
	require.Contains(t, out, "bucket")
	require.NotContains(t, out, "{")
}

func TestWriteReportToFile(t *testing.T) {
	r := stats.Build("normal", 2, uuid.Nil, stats.ShapeCounters{NumOfEmails: 1}, backend.Stats{ANDGates: 3})
	path := filepath.Join(t.TempDir(), "report.json")
	require.NoError(t, WriteReport(&r, path))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	var m map[string]any
	require.NoError(t, json.Unmarshal(raw, &m))
	require.Equal(t, "normal", m["search_mode"])
	require.Equal(t, float64(3), m["and_gates"])
}
