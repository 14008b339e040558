package config

import (
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/RowanDark/gstr/intern"
)

// Split modes supported by the ingest tokenizer.
const (
	SplitLines   = "lines"
	SplitWords   = "words"
	SplitDomains = "domains"
)

// Format represents an output format option.
type Format string

// Supported output format options.
const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
	FormatTXT  Format = "txt"
)

// Config captures all runtime configuration for the CLI.
type Config struct {
	Inputs     []string
	Split      string
	Include    []string
	Exclude    []string
	Policy     string
	Shards     int
	Threads    int
	Top        int
	OutputPath string
	Format     Format
	JSONPretty bool

	Verbose  bool
	Silent   bool
	LogLevel string
	LogFile  string

	StatsInterval time.Duration
	MetricsFile   string

	ConfigPath string
	Profile    string

	policy intern.Policy
}

// BindFlags registers the shared command-line flags and returns a Config
// instance whose fields are populated when Cobra parses flag values.
func BindFlags(cmd *cobra.Command) *Config {
	cfg := &Config{}

	flags := cmd.PersistentFlags()
	flags.StringVar(&cfg.Split, "split", SplitLines, "Tokenization mode (lines, words, domains)")
	flags.StringSliceVar(&cfg.Include, "include", nil, "Only intern tokens matching these glob, .suffix or substring patterns")
	flags.StringSliceVar(&cfg.Exclude, "exclude", nil, "Skip tokens matching these glob, .suffix or substring patterns")
	flags.StringVar(&cfg.Policy, "policy", intern.RetainForever.String(), "Pool lifecycle policy (retain, refcount)")
	flags.IntVar(&cfg.Shards, "shards", 32, "Number of independently locked pool shards")
	flags.IntVar(&cfg.Threads, "threads", runtime.GOMAXPROCS(0), "Number of inputs processed concurrently")
	flags.IntVar(&cfg.Top, "top", 10, "Number of most repeated values to include in the report")
	flags.StringVarP(&cfg.OutputPath, "output", "o", "", "Optional file path to write the report")
	flags.StringVar((*string)(&cfg.Format), "format", string(FormatTXT), "Report format (json, csv, txt)")
	flags.BoolVar(&cfg.JSONPretty, "json-pretty", false, "Indent JSON reports")
	flags.BoolVarP(&cfg.Verbose, "verbose", "v", false, "Enable verbose logging output")
	flags.BoolVar(&cfg.Silent, "silent", false, "Suppress console logging")
	flags.StringVar(&cfg.LogLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	flags.StringVar(&cfg.LogFile, "log-file", "", "Also write logs to this file")
	flags.DurationVar(&cfg.StatsInterval, "stats-interval", 0, "Log pool statistics at this interval (0 disables)")
	flags.StringVar(&cfg.MetricsFile, "metrics-file", "", "Write pool metrics in Prometheus textfile format")
	flags.StringVar(&cfg.ConfigPath, "config", "", "Path to a YAML configuration file")
	flags.StringVar(&cfg.Profile, "profile", "", "Configuration profile to apply")

	return cfg
}

// Validate ensures the provided configuration values meet the expected
// constraints and normalises their representation where required.
func (c *Config) Validate() error {
	c.Split = strings.ToLower(strings.TrimSpace(c.Split))
	switch c.Split {
	case "":
		c.Split = SplitLines
	case SplitLines, SplitWords, SplitDomains:
		// valid
	default:
		return fmt.Errorf("invalid split mode %q: expected %q, %q, or %q", c.Split, SplitLines, SplitWords, SplitDomains)
	}

	format := strings.ToLower(strings.TrimSpace(string(c.Format)))
	switch Format(format) {
	case FormatJSON, FormatCSV, FormatTXT:
		c.Format = Format(format)
	case "":
		c.Format = FormatTXT
	default:
		return fmt.Errorf("invalid output format %q: expected json, csv, or txt", c.Format)
	}

	policy, err := intern.ParsePolicy(c.Policy)
	if err != nil {
		return err
	}
	c.policy = policy
	c.Policy = policy.String()

	if c.Silent && c.Verbose {
		return fmt.Errorf("--silent and --verbose cannot be used together")
	}

	c.Inputs = trimAll(c.Inputs)
	c.Include = trimAll(c.Include)
	c.Exclude = trimAll(c.Exclude)

	if c.Threads <= 0 {
		c.Threads = runtime.GOMAXPROCS(0)
	}
	if c.Shards <= 0 {
		c.Shards = 1
	}
	if c.Top < 0 {
		c.Top = 0
	}
	if c.StatsInterval < 0 {
		c.StatsInterval = 0
	}

	c.OutputPath = strings.TrimSpace(c.OutputPath)
	c.LogFile = strings.TrimSpace(c.LogFile)
	c.MetricsFile = strings.TrimSpace(c.MetricsFile)
	return nil
}

// PoolOptions returns the intern pool options selected by the
// configuration. Validate must have been called.
func (c *Config) PoolOptions() intern.Options {
	return intern.Options{Policy: c.policy, Shards: c.Shards}
}

// LiveOutput returns true when the report should be sent to stdout instead of a file.
func (c *Config) LiveOutput() bool {
	return strings.TrimSpace(c.OutputPath) == ""
}

// ReadStdin reports whether input should be taken from standard input.
func (c *Config) ReadStdin() bool {
	return len(c.Inputs) == 0 || (len(c.Inputs) == 1 && c.Inputs[0] == "-")
}

func trimAll(values []string) []string {
	if len(values) == 0 {
		return values
	}
	out := make([]string, 0, len(values))
	for _, value := range values {
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		out = append(out, value)
	}
	return out
}
