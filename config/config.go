// Package config holds the handful of knobs SPEC_FULL.md §1a leaves
// variable across hosts embedding this library: the decode recursion
// depth (spec.md §5), whether repeated scalars are re-encoded packed
// or unpacked (spec.md §9), and the default logger. It follows the
// teacher's internal/config style — a YAML-tagged struct, a
// Default() constructor, a Load(path) that layers a file over the
// defaults, and a Validate() that rejects out-of-range values — scaled
// down to a library surface instead of a server's full configuration
// tree.
package config

import (
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/axonops/protolens/decode"
)

// Options is the configuration surface of this library. The zero value
// is not valid on its own; use Default() or Load().
type Options struct {
	// MaxDepth bounds nested-message recursion during decode (spec.md
	// §5). Mirrors decode.Options.MaxDepth.
	MaxDepth int `yaml:"max_depth"`

	// PreferPackedEncoding selects whether encode.EncodeRepeatedScalar
	// packs a repeated numeric/bool scalar into one LEN run or emits
	// one occurrence per element (spec.md §9, an implementer choice;
	// proto3 scalars pack by default).
	PreferPackedEncoding bool `yaml:"prefer_packed_encoding"`

	// LogLevel sets the default logger's level: "debug", "info",
	// "warn", or "error".
	LogLevel string `yaml:"log_level"`
}

// Default returns the library's default Options: the spec.md §5
// recursion limit, packed encoding preferred (proto3's own default for
// repeated scalars), and info-level logging.
func Default() *Options {
	return &Options{
		MaxDepth:             decode.DefaultMaxDepth,
		PreferPackedEncoding: true,
		LogLevel:             "info",
	}
}

// Load reads YAML from path over Default()'s values and validates the
// result. An empty path returns the defaults unchanged.
func Load(path string) (*Options, error) {
	opts := Default()
	if path == "" {
		return opts, nil
	}

	// #nosec G304 -- path is caller-controlled, matching the teacher's config.Load
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, opts); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return opts, nil
}

// Validate rejects out-of-range values the way the teacher's
// Config.Validate rejects an invalid port or storage type.
func (o *Options) Validate() error {
	if o.MaxDepth < 1 {
		return fmt.Errorf("invalid max_depth: %d", o.MaxDepth)
	}
	if _, err := parseLevel(o.LogLevel); err != nil {
		return err
	}
	return nil
}

// DecodeOptions projects Options onto decode.Options.
func (o *Options) DecodeOptions() decode.Options {
	return decode.Options{MaxDepth: o.MaxDepth}
}

// Logger builds the default *slog.Logger for o.LogLevel, writing JSON
// to stderr the way cmd/schema-registry's main wires slog.NewJSONHandler.
func (o *Options) Logger() *slog.Logger {
	level, err := parseLevel(o.LogLevel)
	if err != nil {
		level = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func parseLevel(s string) (slog.Level, error) {
	switch s {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("invalid log_level: %s", s)
	}
}
