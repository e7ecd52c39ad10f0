package transport

import (
	"crypto/tls"
	"net/http"
	"net/url"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Config configures the HTTP transport.
type Config struct {
	// BaseURL is the REST root of the LightBase server, e.g.
	// "http://localhost/api".
	BaseURL string

	// TLSVerify controls certificate verification. Default: true.
	TLSVerify *bool

	// Timeout bounds a single attempt. Default: 30 seconds.
	Timeout time.Duration

	// MaxRetries is the number of extra attempts after a network failure or
	// a 5xx answer. Default: 0.
	MaxRetries int

	// RetryDelay is the initial delay between attempts, doubled each time.
	// Default: 1 second.
	RetryDelay time.Duration

	UserAgent string

	// Headers are added to every request.
	Headers map[string]string
}

// DefaultUserAgent identifies the client to the server.
const DefaultUserAgent = "lbclient-go"

// DefaultConfig returns a Config with defaults for everything but BaseURL.
func DefaultConfig() *Config {
	tlsVerify := true
	return &Config{
		TLSVerify:  &tlsVerify,
		Timeout:    30 * time.Second,
		RetryDelay: time.Second,
		UserAgent:  DefaultUserAgent,
	}
}

func (c *Config) applyDefaults() {
	d := DefaultConfig()
	if c.TLSVerify == nil {
		c.TLSVerify = d.TLSVerify
	}
	if c.Timeout == 0 {
		c.Timeout = d.Timeout
	}
	if c.RetryDelay == 0 {
		c.RetryDelay = d.RetryDelay
	}
	if c.UserAgent == "" {
		c.UserAgent = d.UserAgent
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.BaseURL,
			validation.Required,
			validation.By(httpScheme),
		),
		validation.Field(&c.Timeout, validation.Min(time.Duration(0))),
		validation.Field(&c.MaxRetries, validation.Min(0)),
		validation.Field(&c.RetryDelay, validation.Min(time.Duration(0))),
	)
}

func httpScheme(v any) error {
	s, _ := v.(string)
	u, err := url.Parse(s)
	if err != nil {
		return err
	}
	if u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return validation.NewError("validation_scheme", "must be an absolute http or https URL")
	}
	return nil
}

// NewHTTPClient creates the HTTP client used by the transport.
func (c *Config) NewHTTPClient() *http.Client {
	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
	}
	if c.TLSVerify != nil && !*c.TLSVerify {
		transport.TLSClientConfig = &tls.Config{
			InsecureSkipVerify: true,
		}
	}

	return &http.Client{
		Timeout:   c.Timeout,
		Transport: transport,
	}
}
