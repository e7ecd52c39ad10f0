// Package config loads the client configuration from HCL or YAML files.
//
// Example configuration (HCL):
//
//	url         = "http://localhost/api"
//	timeout     = "30s"
//	tls_verify  = true
//	max_retries = 2
//	retry_delay = "500ms"
//	log_level   = "debug"
//
//	headers = {
//	  Authorization = "Bearer ..."
//	}
//
//	params {
//	  search = "$$"
//	}
//
//	meilisearch {
//	  host         = "http://localhost:7700"
//	  api_key      = "masterKey"
//	  index_prefix = "lb_"
//	}
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/hcl/v2/hclsimple"
	"gopkg.in/yaml.v3"

	"github.com/lightbase/lbclient/pkg/lbrest"
	"github.com/lightbase/lbclient/pkg/lberr"
	"github.com/lightbase/lbclient/pkg/transport"
	"github.com/lightbase/lbclient/pkg/txtindex"
)

// Config is the client configuration. Durations are written as Go duration
// strings such as "30s".
type Config struct {
	// URL is the REST root of the LightBase server.
	URL string `hcl:"url" yaml:"url" json:"url,omitempty"`

	Timeout    string `hcl:"timeout,optional" yaml:"timeout" json:"timeout,omitempty"`
	TLSVerify  *bool  `hcl:"tls_verify,optional" yaml:"tls_verify" json:"tls_verify,omitempty"`
	MaxRetries int    `hcl:"max_retries,optional" yaml:"max_retries" json:"max_retries,omitempty"`
	RetryDelay string `hcl:"retry_delay,optional" yaml:"retry_delay" json:"retry_delay,omitempty"`
	UserAgent  string `hcl:"user_agent,optional" yaml:"user_agent" json:"user_agent,omitempty"`

	// Headers are sent with every request, e.g. an Authorization header.
	Headers map[string]string `hcl:"headers,optional" yaml:"headers" json:"headers,omitempty"`

	// LogLevel is one of trace, debug, info, warn, error or off.
	LogLevel string `hcl:"log_level,optional" yaml:"log_level" json:"log_level,omitempty"`

	Params      *ParamsConfig      `hcl:"params,block" yaml:"params" json:"params,omitempty"`
	Meilisearch *MeilisearchConfig `hcl:"meilisearch,block" yaml:"meilisearch" json:"meilisearch,omitempty"`
}

// ParamsConfig overrides the request parameter names of the server. Empty
// names keep the LBGenerator defaults.
type ParamsConfig struct {
	Base     string `hcl:"base,optional" yaml:"base" json:"base,omitempty"`
	Document string `hcl:"document,optional" yaml:"document" json:"document,omitempty"`
	Search   string `hcl:"search,optional" yaml:"search" json:"search,omitempty"`
	Path     string `hcl:"path,optional" yaml:"path" json:"path,omitempty"`
	File     string `hcl:"file,optional" yaml:"file" json:"file,omitempty"`
	TxtIdx   string `hcl:"txt_idx,optional" yaml:"txt_idx" json:"txt_idx,omitempty"`
}

// MeilisearchConfig enables exporting text indexes to Meilisearch instead of
// the server's _txt_idx route.
type MeilisearchConfig struct {
	Host        string `hcl:"host" yaml:"host" json:"host,omitempty"`
	APIKey      string `hcl:"api_key,optional" yaml:"api_key" json:"-"`
	IndexPrefix string `hcl:"index_prefix,optional" yaml:"index_prefix" json:"index_prefix,omitempty"`
}

// Load reads the configuration file at filename. The format is chosen by
// extension: .hcl, .yaml or .yml. The result is validated.
func Load(filename string) (*Config, error) {
	if filename == "" {
		return nil, fmt.Errorf("configuration file path is required")
	}
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return nil, fmt.Errorf("configuration file not found: %s", filename)
	}

	var cfg Config
	switch ext := strings.ToLower(filepath.Ext(filename)); ext {
	case ".hcl":
		if err := hclsimple.DecodeFile(filename, nil, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse configuration file: %w", err)
		}
	case ".yaml", ".yml":
		data, err := os.ReadFile(filename)
		if err != nil {
			return nil, fmt.Errorf("failed to read configuration file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse configuration file: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported configuration format %q: %w", ext, lberr.ErrInvalidArgument)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration %s: %w", filename, err)
	}
	return &cfg, nil
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.URL, validation.Required),
		validation.Field(&c.Timeout, validation.By(duration)),
		validation.Field(&c.RetryDelay, validation.By(duration)),
		validation.Field(&c.MaxRetries, validation.Min(0)),
		validation.Field(&c.LogLevel, validation.By(logLevel)),
		validation.Field(&c.Meilisearch),
	)
}

// Validate checks the Meilisearch block.
func (m *MeilisearchConfig) Validate() error {
	return validation.ValidateStruct(m,
		validation.Field(&m.Host, validation.Required),
	)
}

func duration(v any) error {
	s, _ := v.(string)
	if s == "" {
		return nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return validation.NewError("validation_duration", "must be a duration such as 30s")
	}
	if d < 0 {
		return validation.NewError("validation_duration", "must not be negative")
	}
	return nil
}

func logLevel(v any) error {
	s, _ := v.(string)
	if s == "" {
		return nil
	}
	if hclog.LevelFromString(s) == hclog.NoLevel {
		return validation.NewError("validation_log_level", "must be one of trace, debug, info, warn, error or off")
	}
	return nil
}

// Transport converts the configuration into a transport configuration.
func (c *Config) Transport() (transport.Config, error) {
	timeout, err := parseDuration("timeout", c.Timeout)
	if err != nil {
		return transport.Config{}, err
	}
	delay, err := parseDuration("retry_delay", c.RetryDelay)
	if err != nil {
		return transport.Config{}, err
	}

	return transport.Config{
		BaseURL:    c.URL,
		TLSVerify:  c.TLSVerify,
		Timeout:    timeout,
		MaxRetries: c.MaxRetries,
		RetryDelay: delay,
		UserAgent:  c.UserAgent,
		Headers:    c.Headers,
	}, nil
}

func parseDuration(name, s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", name, err)
	}
	return d, nil
}

// RequestParams returns the request parameter names, filled with defaults.
func (c *Config) RequestParams() lbrest.Params {
	if c.Params == nil {
		return lbrest.DefaultParams()
	}
	p := lbrest.DefaultParams()
	override := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	override(&p.Base, c.Params.Base)
	override(&p.Document, c.Params.Document)
	override(&p.Search, c.Params.Search)
	override(&p.Path, c.Params.Path)
	override(&p.File, c.Params.File)
	override(&p.TxtIdx, c.Params.TxtIdx)
	return p
}

// MeilisearchIndex returns the Meilisearch settings, or nil when the block
// is absent.
func (c *Config) MeilisearchIndex() *txtindex.MeilisearchConfig {
	if c.Meilisearch == nil {
		return nil
	}
	return &txtindex.MeilisearchConfig{
		Host:        c.Meilisearch.Host,
		APIKey:      c.Meilisearch.APIKey,
		IndexPrefix: c.Meilisearch.IndexPrefix,
	}
}

// Logger returns a logger at the configured level, or nil when no level is
// set.
func (c *Config) Logger(name string) hclog.Logger {
	if c.LogLevel == "" {
		return nil
	}
	return hclog.New(&hclog.LoggerOptions{
		Name:  name,
		Level: hclog.LevelFromString(c.LogLevel),
	})
}
