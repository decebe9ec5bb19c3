// Package config loads the ddtr configuration file.
//
// The file is .ddtr.json in the working directory unless another path is
// given; files ending in .yaml or .yml are decoded as YAML. After the file is
// read, DDTR_* environment variables override individual fields:
//
//	DDTR_API_ID       apiId
//	DDTR_API_KEY      apiKey
//	DDTR_OUTPUT_DIR   outputDir
//	DDTR_CONCURRENCY  concurrency
//	DDTR_INTERVAL     interval
//	DDTR_ENDPOINT     endpoint
//	DDTR_TIMEOUT      timeout
//
// A Config is loaded once and never modified afterwards; callers pass it
// around explicitly.
package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/minios-linux/ddtr/langcode"
)

// DefaultPath is the config file used when --config is not given.
const DefaultPath = ".ddtr.json"

// EnvPrefix prefixes every environment override.
const EnvPrefix = "DDTR_"

const (
	DefaultConcurrency = 1
	DefaultInterval    = time.Second
	DefaultTimeout     = 30 * time.Second
)

var (
	// ErrMissingField is returned when a required key is empty.
	ErrMissingField = errors.New("missing required field")
	// ErrNotDirectory is returned when outputDir does not name a directory.
	ErrNotDirectory = errors.New("not a directory")
	// ErrUnknownKey is returned for a JSON key that is not spelled exactly
	// like a known one.
	ErrUnknownKey = errors.New("unknown config key")
)

// Duration is a time.Duration written as "2s", "500ms" in config files and
// environment variables.
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(strings.TrimSpace(string(b)))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Config is the operator's settings for one run.
type Config struct {
	// APIID and APIKey are the Baidu Fanyi credentials.
	APIID  string `json:"apiId" yaml:"apiId" env:"API_ID"`
	APIKey string `json:"apiKey" yaml:"apiKey" env:"API_KEY"`

	// OutputDir holds the bundles, relative to the working directory or absolute.
	OutputDir string `json:"outputDir" yaml:"outputDir" env:"OUTPUT_DIR"`
	// BaseFilename is the stem of translated bundles: {BaseFilename}_{lang}.properties.
	BaseFilename string `json:"baseFilename" yaml:"baseFilename"`
	// DefaultFilename is the stem of the default-language bundle. Defaults to BaseFilename.
	DefaultFilename string `json:"defaultFilename,omitempty" yaml:"defaultFilename,omitempty"`

	DefaultLanguage string   `json:"defaultLanguage" yaml:"defaultLanguage"`
	TargetLanguages []string `json:"targetLanguages" yaml:"targetLanguages"`

	// Concurrency is the maximum number of requests in flight.
	Concurrency int `json:"concurrency,omitempty" yaml:"concurrency,omitempty" env:"CONCURRENCY"`
	// Interval is the minimum spacing between request starts. nil means
	// DefaultInterval; "0s" disables spacing.
	Interval *Duration `json:"interval,omitempty" yaml:"interval,omitempty" env:"INTERVAL"`

	Endpoint string    `json:"endpoint,omitempty" yaml:"endpoint,omitempty" env:"ENDPOINT"`
	Timeout  *Duration `json:"timeout,omitempty" yaml:"timeout,omitempty" env:"TIMEOUT"`

	path string
}

// legacyKeys are the key names written by the first releases of ddtr.
// They are read so that old .ddtr.json files keep working.
type legacyKeys struct {
	BaiduID          string   `json:"baiduId,omitempty" yaml:"baiduId,omitempty"`
	BaiduKey         string   `json:"baiduKey,omitempty" yaml:"baiduKey,omitempty"`
	PropertiesDir    string   `json:"propertiesFileDir,omitempty" yaml:"propertiesFileDir,omitempty"`
	Filename         string   `json:"filename,omitempty" yaml:"filename,omitempty"`
	DefaultFilename2 string   `json:"defaultfilename,omitempty" yaml:"defaultfilename,omitempty"`
	DefaultLang      string   `json:"defaultLang,omitempty" yaml:"defaultLang,omitempty"`
	SupportLangs     []string `json:"suportLangs,omitempty" yaml:"suportLangs,omitempty"`
}

type fileSchema struct {
	Config     `yaml:",inline"`
	legacyKeys `yaml:",inline"`
}

func (s *fileSchema) merge() *Config {
	c := s.Config
	fill := func(dst *string, v string) {
		if *dst == "" {
			*dst = v
		}
	}
	fill(&c.APIID, s.BaiduID)
	fill(&c.APIKey, s.BaiduKey)
	fill(&c.OutputDir, s.PropertiesDir)
	fill(&c.BaseFilename, s.Filename)
	fill(&c.DefaultFilename, s.DefaultFilename2)
	fill(&c.DefaultLanguage, s.DefaultLang)
	if len(c.TargetLanguages) == 0 {
		c.TargetLanguages = s.SupportLangs
	}
	return &c
}

// ---------------------------------------------------------------------------
// Loading
// ---------------------------------------------------------------------------

// Load reads, overrides from the environment and validates the config at path.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("config file %s not found (run \"ddtr init\" to create one): %w", path, err)
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	cfg, err := Parse(data, formatOf(path))
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	cfg.path = path

	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, fmt.Errorf("environment overrides: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Format is the encoding of a config file.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

func formatOf(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// Parse decodes a config document. Unknown keys are rejected so that a typo
// does not silently fall back to a default.
func Parse(data []byte, format Format) (*Config, error) {
	var schema fileSchema

	switch format {
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&schema); err != nil && !errors.Is(err, io.EOF) {
			return nil, err
		}
	default:
		if err := checkJSONKeys(data); err != nil {
			return nil, err
		}
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&schema); err != nil {
			return nil, err
		}
	}

	return schema.merge(), nil
}

// checkJSONKeys rejects keys that encoding/json would only match
// case-insensitively, such as "DefaultLanguage".
func checkJSONKeys(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	known := jsonKeys(reflect.TypeOf(fileSchema{}), map[string]bool{})
	for key := range raw {
		if !known[key] {
			return fmt.Errorf("%w %q", ErrUnknownKey, key)
		}
	}
	return nil
}

func jsonKeys(t reflect.Type, into map[string]bool) map[string]bool {
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if f.Anonymous && f.Type.Kind() == reflect.Struct {
			jsonKeys(f.Type, into)
			continue
		}
		if !f.IsExported() {
			continue
		}
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			continue
		}
		into[name] = true
	}
	return into
}

// ---------------------------------------------------------------------------
// Validation
// ---------------------------------------------------------------------------

// Validate checks required fields, pacing values and language codes. It does
// not touch the file system; see ValidateOutputDir.
func (c *Config) Validate() error {
	for _, f := range []struct {
		name, value string
	}{
		{"outputDir", c.OutputDir},
		{"baseFilename", c.BaseFilename},
		{"defaultLanguage", c.DefaultLanguage},
	} {
		if strings.TrimSpace(f.value) == "" {
			return fmt.Errorf("%w %q", ErrMissingField, f.name)
		}
	}
	if c.Concurrency < 0 {
		return fmt.Errorf("concurrency must not be negative, got %d", c.Concurrency)
	}
	if c.Interval != nil && *c.Interval < 0 {
		return fmt.Errorf("interval must not be negative, got %s", time.Duration(*c.Interval))
	}
	if c.Timeout != nil && *c.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative, got %s", time.Duration(*c.Timeout))
	}
	if _, _, err := c.Languages(); err != nil {
		return err
	}
	return nil
}

// ValidateOutputDir checks that OutputDir exists and is a directory.
func (c *Config) ValidateOutputDir() error {
	info, err := os.Stat(c.OutputDir)
	if err != nil {
		return fmt.Errorf("output directory %s: %w", c.OutputDir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("output directory %s: %w", c.OutputDir, ErrNotDirectory)
	}
	return nil
}

// Languages resolves the default and target languages. The first unknown
// code is returned as a *langcode.UnknownError.
func (c *Config) Languages() (langcode.Code, []langcode.Code, error) {
	from, err := langcode.Parse(c.DefaultLanguage)
	if err != nil {
		return langcode.Code{}, nil, fmt.Errorf("defaultLanguage: %w", err)
	}
	targets, err := langcode.ParseTargets(c.TargetLanguages)
	if err != nil {
		return langcode.Code{}, nil, fmt.Errorf("targetLanguages: %w", err)
	}
	return from, targets, nil
}

// ---------------------------------------------------------------------------
// Accessors
// ---------------------------------------------------------------------------

// Path returns the file the config was loaded from.
func (c *Config) Path() string { return c.path }

// HasCredentials reports whether both API credentials are set.
func (c *Config) HasCredentials() bool {
	return c.APIID != "" && c.APIKey != ""
}

// DefaultBundle returns the stem of the default-language bundle.
func (c *Config) DefaultBundle() string {
	if c.DefaultFilename != "" {
		return c.DefaultFilename
	}
	return c.BaseFilename
}

// MaxConcurrent returns Concurrency or DefaultConcurrency when unset.
func (c *Config) MaxConcurrent() int {
	if c.Concurrency > 0 {
		return c.Concurrency
	}
	return DefaultConcurrency
}

// RequestInterval returns the configured spacing or DefaultInterval.
func (c *Config) RequestInterval() time.Duration {
	if c.Interval != nil {
		return time.Duration(*c.Interval)
	}
	return DefaultInterval
}

// RequestTimeout returns the configured HTTP timeout or DefaultTimeout.
func (c *Config) RequestTimeout() time.Duration {
	if c.Timeout != nil && *c.Timeout > 0 {
		return time.Duration(*c.Timeout)
	}
	return DefaultTimeout
}

// WithCredentials returns a copy of c with the given credentials.
func (c *Config) WithCredentials(id, key string) *Config {
	cp := *c
	cp.APIID, cp.APIKey = id, key
	return &cp
}

// WithPacing returns a copy of c with concurrency and interval replaced.
// Zero concurrency or a nil interval keep the current value.
func (c *Config) WithPacing(concurrency int, interval *time.Duration) *Config {
	cp := *c
	if concurrency > 0 {
		cp.Concurrency = concurrency
	}
	if interval != nil {
		d := Duration(*interval)
		cp.Interval = &d
	}
	return &cp
}
