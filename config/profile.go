package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

const defaultConfigFilename = ".gstr.yaml"

type fileConfig struct {
	Profiles map[string]profileSettings `yaml:"profiles"`
}

type profileSettings struct {
	Split         *string        `yaml:"split"`
	Include       *StringSlice   `yaml:"include"`
	Exclude       *StringSlice   `yaml:"exclude"`
	Policy        *string        `yaml:"policy"`
	Shards        *int           `yaml:"shards"`
	Threads       *int           `yaml:"threads"`
	Top           *int           `yaml:"top"`
	OutputPath    *string        `yaml:"output"`
	Format        *string        `yaml:"format"`
	JSONPretty    *bool          `yaml:"json_pretty"`
	Verbose       *bool          `yaml:"verbose"`
	Silent        *bool          `yaml:"silent"`
	LogLevel      *string        `yaml:"log_level"`
	LogFile       *string        `yaml:"log_file"`
	StatsInterval *time.Duration `yaml:"stats_interval"`
	MetricsFile   *string        `yaml:"metrics_file"`
}

type StringSlice []string

func (s *StringSlice) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		var str string
		if err := value.Decode(&str); err != nil {
			return err
		}
		str = strings.TrimSpace(str)
		if str == "" {
			*s = nil
			return nil
		}
		*s = []string{str}
		return nil
	case yaml.SequenceNode:
		var raw []string
		if err := value.Decode(&raw); err != nil {
			return err
		}
		*s = trimAll(raw)
		return nil
	default:
		return fmt.Errorf("unsupported YAML type %s for string slice", value.ShortTag())
	}
}

func (s *StringSlice) ToSlice() []string {
	if s == nil {
		return nil
	}
	dup := make([]string, len(*s))
	copy(dup, *s)
	return dup
}

// ApplyProfile loads and applies the requested configuration profile to cfg.
// Command-line flag overrides take precedence over profile values.
func ApplyProfile(cfg *Config, cmd *cobra.Command) error {
	path, err := resolveConfigPath(cfg.ConfigPath)
	if err != nil {
		return fmt.Errorf("locating config file: %w", err)
	}

	if path == "" {
		if cfg.Profile != "" {
			return fmt.Errorf("profile %q requested but no %s file was found", cfg.Profile, defaultConfigFilename)
		}
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file %s: %w", path, err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}

	if len(fc.Profiles) == 0 {
		if cfg.Profile != "" {
			return fmt.Errorf("profile %q not found in %s", cfg.Profile, path)
		}
		return nil
	}

	profileName := cfg.Profile
	if profileName == "" {
		if _, ok := fc.Profiles["default"]; ok {
			profileName = "default"
		}
	}

	if profileName == "" {
		return nil
	}

	profile, ok := fc.Profiles[profileName]
	if !ok {
		return fmt.Errorf("profile %q not found in %s", profileName, path)
	}

	applyProfileSettings(cfg, &profile, cmd.Flags())
	cfg.ConfigPath = path
	return nil
}

func applyProfileSettings(cfg *Config, profile *profileSettings, flags *pflag.FlagSet) {
	setString(flags, "split", profile.Split, &cfg.Split)
	setString(flags, "policy", profile.Policy, &cfg.Policy)
	setString(flags, "output", profile.OutputPath, &cfg.OutputPath)
	setString(flags, "log-level", profile.LogLevel, &cfg.LogLevel)
	setString(flags, "log-file", profile.LogFile, &cfg.LogFile)
	setString(flags, "metrics-file", profile.MetricsFile, &cfg.MetricsFile)
	if profile.Format != nil && !flagChanged(flags, "format") {
		cfg.Format = Format(strings.TrimSpace(*profile.Format))
	}

	setValue(flags, "shards", profile.Shards, &cfg.Shards)
	setValue(flags, "threads", profile.Threads, &cfg.Threads)
	setValue(flags, "top", profile.Top, &cfg.Top)
	setValue(flags, "json-pretty", profile.JSONPretty, &cfg.JSONPretty)
	setValue(flags, "verbose", profile.Verbose, &cfg.Verbose)
	setValue(flags, "silent", profile.Silent, &cfg.Silent)
	setValue(flags, "stats-interval", profile.StatsInterval, &cfg.StatsInterval)

	if profile.Include != nil && !flagChanged(flags, "include") {
		cfg.Include = profile.Include.ToSlice()
	}
	if profile.Exclude != nil && !flagChanged(flags, "exclude") {
		cfg.Exclude = profile.Exclude.ToSlice()
	}
}

func setString(flags *pflag.FlagSet, name string, value *string, dst *string) {
	if value != nil && !flagChanged(flags, name) {
		*dst = strings.TrimSpace(*value)
	}
}

func setValue[T any](flags *pflag.FlagSet, name string, value *T, dst *T) {
	if value != nil && !flagChanged(flags, name) {
		*dst = *value
	}
}

func resolveConfigPath(explicit string) (string, error) {
	if explicit != "" {
		abs := explicit
		if !filepath.IsAbs(abs) {
			if resolved, err := filepath.Abs(explicit); err == nil {
				abs = resolved
			}
		}
		if _, err := os.Stat(abs); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return "", err
			}
			return "", fmt.Errorf("stat %s: %w", abs, err)
		}
		return abs, nil
	}

	if cwd, err := os.Getwd(); err == nil {
		candidate := filepath.Join(cwd, defaultConfigFilename)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	} else {
		return "", fmt.Errorf("getwd: %w", err)
	}

	if home, err := os.UserHomeDir(); err == nil {
		candidate := filepath.Join(home, defaultConfigFilename)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}

	return "", nil
}

func flagChanged(flags *pflag.FlagSet, name string) bool {
	if flags == nil {
		return false
	}
	flag := flags.Lookup(name)
	if flag == nil {
		return false
	}
	return flag.Changed
}
