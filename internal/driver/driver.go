// Package driver orchestrates one engine run (§4.6): from the parsed CLI
// configuration, load inputs, dial the TCP mesh, build and evaluate the
// search circuit once, and emit the statistics report. It mirrors demos-go/examples/ecdsa-mpc-with-backup's
// party struct that owns its messenger and rebuilds fresh state per call.
package driver

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/encryptogroup/PrivMail/internal/backend"
	"github.com/encryptogroup/PrivMail/internal/circuit"
	"github.com/encryptogroup/PrivMail/internal/config"
	"github.com/encryptogroup/PrivMail/internal/corpus"
	"github.com/encryptogroup/PrivMail/internal/index"
	"github.com/encryptogroup/PrivMail/internal/query"
	"github.com/encryptogroup/PrivMail/internal/stats"
	"github.com/encryptogroup/PrivMail/internal/transport"
)

// Run executes one complete engine run for cfg and returns the
// statistics report. It is not re-entrant: call it once per process, the
// same way a Party is rebuilt fresh every benchmark iteration.
func Run(cfg *config.Config) (*stats.Report, error) {
	logger := log.New(os.Stderr, fmt.Sprintf("[party %d] ", cfg.MyID), log.LstdFlags)
	if cfg.DisableLogging {
		logger.SetOutput(io.Discard)
	}

	mode, err := circuit.ParseMode(string(cfg.SearchMode))
	if err != nil {
		return nil, err
	}

	q, err := query.Load(cfg.QueryFilePath)
	if err != nil {
		return nil, err
	}

	var mails []corpus.Mail
	if cfg.MailDirPath != "" {
		mails, err = corpus.Load(cfg.MailDirPath, q.BucketScheme)
		if err != nil {
			return nil, err
		}
	}

	var idx *index.Index
	if cfg.IndexFilePath != "" {
		idx, err = index.Load(cfg.IndexFilePath, q.BucketScheme)
		if err != nil {
			return nil, err
		}
	}

	addrs := make([]string, len(cfg.Parties))
	for i, p := range cfg.Parties {
		addrs[i] = p.String()
	}
	logger.Printf("dialing mesh: self=%d parties=%d session=%s", cfg.MyID, len(cfg.Parties), backend.SessionFingerprint(addrs))
	mesh, err := transport.DialMesh(transport.DialConfig{
		SelfID:      cfg.MyID,
		Parties:     cfg.Parties,
		DialTimeout: 5 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("driver: %w", err)
	}

	seed := backend.DeriveSeed(addrs)
	party := backend.NewParty(mesh, seed, logger)
	if cfg.DisableLogging {
		party.DisableLogging()
	}

	logger.Printf("building %s-mode circuit", mode)
	results, err := circuit.Build(party, q, mode, mails, idx, q.BucketScheme)
	if err != nil {
		return nil, err
	}
	logger.Printf("circuit built: %d result wires", len(results))

	if err := party.Run(); err != nil {
		return nil, fmt.Errorf("driver: %w", err)
	}
	if err := party.Finish(); err != nil {
		return nil, fmt.Errorf("driver: %w", err)
	}

	report := stats.Build(string(mode), len(cfg.Parties), uuid.New(), shapeCounters(q, mails, idx), party.Stats())
	return &report, nil
}

func shapeCounters(q *query.Query, mails []corpus.Mail, idx *index.Index) stats.ShapeCounters {
	sc := stats.ShapeCounters{}
	for _, kw := range q.Keywords {
		sc.KeywordCharacters += len(kw.Truncated) + len(kw.Bucketed)
		if kw.BucketSize > 0 {
			sc.KeywordBuckets++
		}
	}
	for _, m := range mails {
		if !m.Present {
			continue
		}
		sc.NumOfEmails++
		sc.EmailCharacters += len(m.Block) + len(m.Truncated)
	}
	if idx != nil {
		sc.NumOfEmailsInIndex = idx.NumEmails
	}
	return sc
}

// WriteReport writes the report as JSON to path if non-empty; otherwise
// it prints a human-readable statistics block to standard out, per
// §6.1's "--json-path PATH (optional — otherwise a human-readable
// statistics block is printed to standard out)".
func WriteReport(r *stats.Report, path string) error {
	if path == "" {
		return printHumanReadable(r)
	}
	b, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o600)
}

func printHumanReadable(r *stats.Report) error {
	b, err := json.Marshal(r)
	if err != nil {
		return err
	}
	var fields map[string]any
	if err := json.Unmarshal(b, &fields); err != nil {
		return err
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	fmt.Println("PrivMail run statistics:")
	for _, k := range keys {
		fmt.Printf("  %-24s %v\n", k, fields[k])
	}
	return nil
}
