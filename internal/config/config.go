// Package config parses the CLI (§6.1) with spf13/pflag and merges it
// with an optional configuration file via spf13/viper, the way the
// teacher's viper-based CLIs bind flags over a file-backed config —
// CLI flags explicitly set on the command line always override the file.
package config

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/encryptogroup/PrivMail/internal/circuit"
	"github.com/encryptogroup/PrivMail/internal/transport"
)

// Config holds every recognised option from §6.1 — exactly these and no
// others, per the "recognised options are exactly those enumerated in
// §6.1" design note.
type Config struct {
	MyID               int
	Parties            []transport.PartyAddr
	SearchMode         circuit.Mode
	QueryFilePath      string
	MailDirPath        string
	IndexFilePath      string
	JSONPath           string
	ConfigurationFile  string
	DisableLogging     bool
	PrintConfiguration bool
}

var partyArgPattern = regexp.MustCompile(`^\d+,\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3},\d{1,5}$`)

// ParsePartyArg parses one "--parties" repetition, matching §6.1's
// id,dotted_ipv4,port grammar exactly; malformed arguments fail the
// parse rather than being partially accepted.
func ParsePartyArg(s string) (transport.PartyAddr, error) {
	if !partyArgPattern.MatchString(s) {
		return transport.PartyAddr{}, fmt.Errorf("config: malformed --parties entry %q (want id,ip,port)", s)
	}
	fields := strings.SplitN(s, ",", 3)
	id, err := strconv.Atoi(fields[0])
	if err != nil {
		return transport.PartyAddr{}, fmt.Errorf("config: malformed party id in %q: %w", s, err)
	}
	port, err := strconv.Atoi(fields[2])
	if err != nil {
		return transport.PartyAddr{}, fmt.Errorf("config: malformed party port in %q: %w", s, err)
	}
	return transport.PartyAddr{ID: id, IP: fields[1], Port: port}, nil
}

// Load parses args (typically os.Args[1:]) into a Config. A
// --configuration-file is read first via viper (keys matching the long
// flag names), then every pflag the caller actually set on the command
// line overrides the corresponding file value.
func Load(args []string) (*Config, error) {
	fs := pflag.NewFlagSet("privmail-party", pflag.ContinueOnError)

	myID := fs.Int("my-id", -1, "this party's index (0 <= N < #parties)")
	parties := fs.StringArray("parties", nil, "id,dotted_ipv4,port (repeatable)")
	searchMode := fs.String("search-mode", "normal", "normal|hidden|bucket|index")
	queryFilePath := fs.String("query-file-path", "", "path to this party's query share file")
	mailDirPath := fs.String("mail-dir-path", "", "path to this party's mail share directory")
	indexFilePath := fs.String("index-file-path", "", "path to this party's index share file")
	jsonPath := fs.String("json-path", "", "write the statistics report as JSON to this path")
	configurationFile := fs.String("configuration-file", "", "YAML/TOML/JSON file whose keys match the long flag names")
	disableLogging := fs.Bool("disable-logging", false, "discard this party's log output")
	printConfiguration := fs.Bool("print-configuration", false, "dump the merged configuration and exit")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	v := viper.New()
	if *configurationFile != "" {
		v.SetConfigFile(*configurationFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: --configuration-file: %w", err)
		}
	}
	if err := v.BindPFlags(fs); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	cfg := &Config{
		MyID:               v.GetInt("my-id"),
		SearchMode:         circuit.Mode(v.GetString("search-mode")),
		QueryFilePath:      v.GetString("query-file-path"),
		MailDirPath:        v.GetString("mail-dir-path"),
		IndexFilePath:      v.GetString("index-file-path"),
		JSONPath:           v.GetString("json-path"),
		ConfigurationFile:  *configurationFile,
		DisableLogging:     v.GetBool("disable-logging"),
		PrintConfiguration: v.GetBool("print-configuration"),
	}

	partyStrs := v.GetStringSlice("parties")
	cfg.Parties = make([]transport.PartyAddr, 0, len(partyStrs))
	for _, s := range partyStrs {
		p, err := ParsePartyArg(s)
		if err != nil {
			return nil, err
		}
		cfg.Parties = append(cfg.Parties, p)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.MyID < 0 {
		return fmt.Errorf("config: --my-id is required and must be >= 0")
	}
	if len(c.Parties) == 0 {
		return fmt.Errorf("config: --parties is required")
	}
	if c.MyID >= len(c.Parties) {
		return fmt.Errorf("config: --my-id %d is out of range for %d parties", c.MyID, len(c.Parties))
	}
	if _, err := circuit.ParseMode(string(c.SearchMode)); err != nil {
		return err
	}
	if c.QueryFilePath == "" {
		return fmt.Errorf("config: --query-file-path is required")
	}
	if c.SearchMode == circuit.ModeIndex {
		if c.IndexFilePath == "" {
			return fmt.Errorf("config: --index-file-path is required for index mode")
		}
	} else if c.MailDirPath == "" {
		return fmt.Errorf("config: --mail-dir-path is required unless --search-mode=index")
	}
	return nil
}
