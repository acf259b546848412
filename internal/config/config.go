/*
Package config handles loading, saving, and validating forkfeat configuration.

Configuration is read from a YAML file (forkfeat.yaml in the working
directory unless --config names another), then overridden by FORKFEAT_*
environment variables, then by command-line flags.

Schema:

	store:
	  path: ../IFT_Forks_DB/ift_forks.sqlite
	  read_only: true
	windows:
	  before: -60
	  fork_start: 0
	  fork_end: 30
	  after: 60
	features:
	  category: true
	  binary: true
	  pairwise: false
	  variant: count
	  thresholds: {"0": None, "1": Few, "5": Some, "9": Many, "12": Lots}
	groups:
	  runs: {field: command, names: [RunCommand]}
	output:
	  dir: .
	  prefix: ift_features-count-
	  format: arff
	  relation: iftforks
	  timestamp_layout: _-_2006-01-02_1504
	extract:
	  workers: 1
	log:
	  level: info
	  format: console
*/
package config

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/khanglvm/forkfeat/internal/arff"
	"github.com/khanglvm/forkfeat/internal/features"
	"github.com/khanglvm/forkfeat/internal/storage"
)

// DefaultFileName is looked up in the working directory when no config path is given.
const DefaultFileName = "forkfeat.yaml"

// Config represents the root configuration structure.
type Config struct {
	Store    StoreConfig            `koanf:"store" yaml:"store"`
	Windows  WindowsConfig          `koanf:"windows" yaml:"windows"`
	Features FeaturesConfig         `koanf:"features" yaml:"features"`
	Groups   map[string]GroupConfig `koanf:"groups" yaml:"groups,omitempty"`
	Output   OutputConfig           `koanf:"output" yaml:"output"`
	Extract  ExtractConfig          `koanf:"extract" yaml:"extract"`
	Log      LogConfig              `koanf:"log" yaml:"log"`
}

// StoreConfig locates the interaction event store.
type StoreConfig struct {
	Path     string `koanf:"path" yaml:"path"`
	ReadOnly bool   `koanf:"read_only" yaml:"read_only"`
}

// WindowsConfig holds the window bounds in seconds relative to an annotated event.
type WindowsConfig struct {
	Before    int `koanf:"before" yaml:"before"`
	ForkStart int `koanf:"fork_start" yaml:"fork_start"`
	ForkEnd   int `koanf:"fork_end" yaml:"fork_end"`
	After     int `koanf:"after" yaml:"after"`
}

// FeaturesConfig toggles the expansion stages.
type FeaturesConfig struct {
	Category bool   `koanf:"category" yaml:"category"`
	Binary   bool   `koanf:"binary" yaml:"binary"`
	Pairwise bool   `koanf:"pairwise" yaml:"pairwise"`
	Variant  string `koanf:"variant" yaml:"variant"`

	// Thresholds maps a count key to a category label. Keys are strings so
	// that YAML and environment sources decode the same way. Empty means
	// the default threshold set.
	Thresholds map[string]string `koanf:"thresholds" yaml:"thresholds,omitempty"`
}

// GroupConfig overrides the members of one event group.
type GroupConfig struct {
	Field string   `koanf:"field" yaml:"field"`
	Names []string `koanf:"names" yaml:"names"`
}

// OutputConfig controls where and how tables are written.
type OutputConfig struct {
	Dir             string `koanf:"dir" yaml:"dir"`
	Prefix          string `koanf:"prefix" yaml:"prefix"`
	Format          string `koanf:"format" yaml:"format"`
	Relation        string `koanf:"relation" yaml:"relation"`
	TimestampLayout string `koanf:"timestamp_layout" yaml:"timestamp_layout"`
}

// ExtractConfig tunes the extraction run.
type ExtractConfig struct {
	Workers int `koanf:"workers" yaml:"workers"`
}

// LogConfig configures the zap logger.
type LogConfig struct {
	Level  string `koanf:"level" yaml:"level"`
	Format string `koanf:"format" yaml:"format"`
}

// Default returns the configuration used when nothing overrides it.
func Default() *Config {
	b := features.DefaultBounds()
	return &Config{
		Store: StoreConfig{
			Path:     "../IFT_Forks_DB/ift_forks.sqlite",
			ReadOnly: true,
		},
		Windows: WindowsConfig{
			Before:    b.Before,
			ForkStart: b.ForkStart,
			ForkEnd:   b.ForkEnd,
			After:     b.After,
		},
		Features: FeaturesConfig{
			Category: true,
			Binary:   true,
			Pairwise: false,
			Variant:  string(features.VariantCount),
		},
		Output: OutputConfig{
			Dir:             ".",
			Prefix:          "ift_features-count-",
			Format:          string(arff.FormatARFF),
			Relation:        "iftforks",
			TimestampLayout: arff.DefaultTimestampLayout,
		},
		Extract: ExtractConfig{Workers: 1},
		Log:     LogConfig{Level: "info", Format: "console"},
	}
}

// Template returns the defaults with every group and threshold spelled
// out, for writing a starter config file.
func Template() *Config {
	cfg := Default()

	cfg.Features.Thresholds = make(map[string]string)
	for key, label := range features.DefaultThresholds().Map() {
		cfg.Features.Thresholds[strconv.Itoa(key)] = label
	}

	groups := features.DefaultGroups()
	cfg.Groups = make(map[string]GroupConfig, len(groups))
	for _, name := range groups.Names() {
		sel := groups[name]
		cfg.Groups[name] = GroupConfig{Field: sel.Field.String(), Names: append([]string(nil), sel.Names...)}
	}
	return cfg
}

// Bounds returns the configured window bounds.
func (c *Config) Bounds() features.Bounds {
	return features.Bounds{
		Before:    c.Windows.Before,
		ForkStart: c.Windows.ForkStart,
		ForkEnd:   c.Windows.ForkEnd,
		After:     c.Windows.After,
	}
}

// Thresholds returns the configured threshold set, or the default set.
func (c *Config) Thresholds() (features.Thresholds, error) {
	if len(c.Features.Thresholds) == 0 {
		return features.DefaultThresholds(), nil
	}

	keys := make([]string, 0, len(c.Features.Thresholds))
	for key := range c.Features.Thresholds {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	m := make(map[int]string, len(keys))
	seen := make(map[int]string, len(keys))
	for _, key := range keys {
		n, err := strconv.Atoi(strings.TrimSpace(key))
		if err != nil {
			return nil, fmt.Errorf("threshold key %q is not an integer", key)
		}
		if prev, ok := seen[n]; ok {
			return nil, fmt.Errorf("threshold keys %q and %q are both %d", prev, key, n)
		}
		seen[n] = key
		m[n] = c.Features.Thresholds[key]
	}
	return features.NewThresholds(m)
}

// EventGroups returns the default groups with configured overrides applied.
func (c *Config) EventGroups() (features.Groups, error) {
	overrides := make(features.Groups, len(c.Groups))

	names := make([]string, 0, len(c.Groups))
	for name := range c.Groups {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		g := c.Groups[name]
		field, err := storage.ParseField(g.Field)
		if err != nil {
			return nil, fmt.Errorf("group %q: %w", name, err)
		}
		overrides[name] = features.Selector{Field: field, Names: append([]string(nil), g.Names...)}
	}
	return features.DefaultGroups().Merge(overrides), nil
}

// SchemaOptions returns the schema options for the configured stages.
func (c *Config) SchemaOptions() (features.Options, error) {
	variant, err := features.ParseVariant(c.Features.Variant)
	if err != nil {
		return features.Options{}, err
	}
	thresholds, err := c.Thresholds()
	if err != nil {
		return features.Options{}, err
	}
	return features.Options{
		Relation:   c.Output.Relation,
		Variant:    variant,
		Category:   c.Features.Category,
		Binary:     c.Features.Binary,
		Pairwise:   c.Features.Pairwise,
		Thresholds: thresholds,
	}, nil
}

// Naming returns the output naming scheme.
func (c *Config) Naming() (arff.Naming, error) {
	format, err := arff.ParseFormat(c.Output.Format)
	if err != nil {
		return arff.Naming{}, err
	}
	return arff.Naming{
		Dir:    c.Output.Dir,
		Prefix: c.Output.Prefix,
		Layout: c.Output.TimestampLayout,
		Format: format,
	}, nil
}
