// Command privmail-party runs one party of a PrivMail search (§6.1):
// parse its CLI/config, dial its peers, evaluate the search circuit over
// its local share of the query and corpus, and emit the statistics
// report.
package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/encryptogroup/PrivMail/internal/config"
	"github.com/encryptogroup/PrivMail/internal/driver"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(args []string) error {
	cfg, err := config.Load(args)
	if err != nil {
		return err
	}

	if cfg.PrintConfiguration {
		b, err := json.MarshalIndent(cfg, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(b))
		return nil
	}

	report, err := driver.Run(cfg)
	if err != nil {
		return err
	}
	return driver.WriteReport(report, cfg.JSONPath)
}
