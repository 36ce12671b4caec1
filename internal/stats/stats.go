// Package stats assembles the JSON statistics report (§6.5): the
// backend's runtime/communication counters merged with query/corpus
// shape counters and the fixed top-level keys, the way mpc_signer's
// statusJSON merges its own state into a map[string]any before encoding.
package stats

import (
	"encoding/json"

	"github.com/google/uuid"

	"github.com/encryptogroup/PrivMail/internal/backend"
)

// ShapeCounters are the query/corpus-derived counters §6.5 lists
// alongside the fixed keys.
type ShapeCounters struct {
	KeywordCharacters  int
	KeywordBuckets     int
	EmailCharacters    int
	NumOfEmails        int
	NumOfEmailsInIndex int
}

// Report is the full statistics document emitted to --json-path or
// printed to standard out.
type Report struct {
	ProjectName  string `json:"project_name"`
	Protocol     string `json:"protocol"`
	SearchMode   string `json:"search_mode"`
	NumOfParties int    `json:"num_of_parties"`
	RunID        string `json:"run_id"`

	NumOfEmails        int `json:"num_of_emails"`
	NumOfEmailsInIndex int `json:"num_of_emails_in_index"`
	KeywordCharacters  int `json:"keyword_characters"`
	KeywordBuckets     int `json:"keyword_buckets"`
	EmailCharacters    int `json:"email_characters"`

	backend.Stats
}

// Build merges a party's backend statistics with the run's shape
// counters into the fixed-key report §6.5 specifies. runID tags the
// report; internal/driver passes a fresh uuid.New() from each party's
// process, so every party's report carries its own id, mirroring
// mpc_signer's per-run state snapshot idiom.
func Build(searchMode string, numParties int, runID uuid.UUID, shape ShapeCounters, backendStats backend.Stats) Report {
	return Report{
		ProjectName:        "PrivMail",
		Protocol:           "BooleanGMW",
		SearchMode:         searchMode,
		NumOfParties:       numParties,
		RunID:              runID.String(),
		NumOfEmails:        shape.NumOfEmails,
		NumOfEmailsInIndex: shape.NumOfEmailsInIndex,
		KeywordCharacters:  shape.KeywordCharacters,
		KeywordBuckets:     shape.KeywordBuckets,
		EmailCharacters:    shape.EmailCharacters,
		Stats:              backendStats,
	}
}

// reportFields mirrors Report's own fields without embedding
// backend.Stats, so marshaling it doesn't pick up Stats's promoted
// MarshalJSON method in place of ordinary struct encoding.
type reportFields struct {
	ProjectName  string `json:"project_name"`
	Protocol     string `json:"protocol"`
	SearchMode   string `json:"search_mode"`
	NumOfParties int    `json:"num_of_parties"`
	RunID        string `json:"run_id"`

	NumOfEmails        int `json:"num_of_emails"`
	NumOfEmailsInIndex int `json:"num_of_emails_in_index"`
	KeywordCharacters  int `json:"keyword_characters"`
	KeywordBuckets     int `json:"keyword_buckets"`
	EmailCharacters    int `json:"email_characters"`
}

// MarshalJSON flattens the embedded backend.Stats alongside Report's own
// fields at a single top level, as §6.5 requires ("merged in at the top
// level").
func (r Report) MarshalJSON() ([]byte, error) {
	statsJSON, err := json.Marshal(r.Stats)
	if err != nil {
		return nil, err
	}
	reportJSON, err := json.Marshal(reportFields{
		ProjectName:        r.ProjectName,
		Protocol:           r.Protocol,
		SearchMode:         r.SearchMode,
		NumOfParties:       r.NumOfParties,
		RunID:              r.RunID,
		NumOfEmails:        r.NumOfEmails,
		NumOfEmailsInIndex: r.NumOfEmailsInIndex,
		KeywordCharacters:  r.KeywordCharacters,
		KeywordBuckets:     r.KeywordBuckets,
		EmailCharacters:    r.EmailCharacters,
	})
	if err != nil {
		return nil, err
	}
	var statsMap map[string]json.RawMessage
	if err := json.Unmarshal(statsJSON, &statsMap); err != nil {
		return nil, err
	}
	var reportMap map[string]json.RawMessage
	if err := json.Unmarshal(reportJSON, &reportMap); err != nil {
		return nil, err
	}
	for k, v := range statsMap {
		reportMap[k] = v
	}
	return json.Marshal(reportMap)
}
