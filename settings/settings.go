// Package settings holds the core's recognized options (§6 of the
// specification): max_threads for the Union Stream's worker pool, and the
// per-action resource limits ExpressionActions.CheckLimits enforces.
//
// Adapted from the teacher's config package: the same map[string]interface{}
// plus typed, defaulted getters (config/getters.go's GetInt/GetString/...
// with a WithDefault option), loaded from YAML like config/config.go, just
// narrowed to this core's own option set instead of a whole datasource
// configuration file.
package settings

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

// Settings is the set of options the core consumes. Raw holds anything
// else a caller stashed alongside the recognized fields (mirrors
// config.Config.Execution/Physical free-form maps).
type Settings struct {
	MaxThreads        int                    `yaml:"maxThreads"`
	MaxColumnsInBlock int                    `yaml:"maxColumnsInBlock"`
	MaxBlockSizeBytes int64                  `yaml:"maxBlockSizeBytes"`
	Raw               map[string]interface{} `yaml:"raw"`
}

// Default returns the zero-limit settings: unlimited columns/bytes, a
// single worker thread. Callers override what they need.
func Default() *Settings {
	return &Settings{
		MaxThreads: 1,
	}
}

// ReadFile loads Settings from a YAML file, mirroring config.ReadConfig.
func ReadFile(path string) (*Settings, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "couldn't open file")
	}
	defer f.Close()

	s := Default()
	if err := yaml.NewDecoder(f).Decode(s); err != nil {
		return nil, errors.Wrap(err, "couldn't decode yaml settings")
	}
	return s, nil
}

// ErrNotFound mirrors config.ErrNotFound for GetInt/GetString lookups
// against the free-form Raw map.
var ErrNotFound = errors.New("field not found")

// Option configures a Get* lookup against Raw.
type Option func(*options)

type options struct {
	withDefault  bool
	defaultValue interface{}
}

// WithDefault supplies a fallback value for a missing field.
func WithDefault(value interface{}) Option {
	return func(o *options) {
		o.withDefault = true
		o.defaultValue = value
	}
}

func getOptions(opts ...Option) *options {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// GetInt reads an additional scalar limit from Raw, e.g. a function
// plug-in's own configured bound.
func (s *Settings) GetInt(field string, opts ...Option) (int, error) {
	o := getOptions(opts...)
	v, ok := s.Raw[field]
	if !ok {
		if o.withDefault {
			return o.defaultValue.(int), nil
		}
		return 0, ErrNotFound
	}
	i, ok := v.(int)
	if !ok {
		return 0, errors.Errorf("expected int for %q, got %T", field, v)
	}
	return i, nil
}

// GetString reads an additional scalar limit from Raw.
func (s *Settings) GetString(field string, opts ...Option) (string, error) {
	o := getOptions(opts...)
	v, ok := s.Raw[field]
	if !ok {
		if o.withDefault {
			return o.defaultValue.(string), nil
		}
		return "", ErrNotFound
	}
	str, ok := v.(string)
	if !ok {
		return "", errors.Errorf("expected string for %q, got %T", field, v)
	}
	return str, nil
}
