package stats_test

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/encryptogroup/PrivMail/internal/backend"
	"github.com/encryptogroup/PrivMail/internal/stats"
)

func TestReportMergesStatsAtTopLevel(t *testing.T) {
	r := stats.Build("hidden", 2, uuid.Nil, stats.ShapeCounters{
		NumOfEmails:       3,
		KeywordCharacters: 5,
	}, backend.Stats{ANDGates: 42, OnlineRounds: 7})

	b, err := json.Marshal(r)
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(b, &m))

	require.Equal(t, "PrivMail", m["project_name"])
	require.Equal(t, "BooleanGMW", m["protocol"])
	require.Equal(t, "hidden", m["search_mode"])
	require.Equal(t, float64(3), m["num_of_emails"])
	require.Equal(t, float64(5), m["keyword_characters"])
	require.Equal(t, float64(42), m["and_gates"])
	require.Equal(t, float64(7), m["online_rounds"])
}
