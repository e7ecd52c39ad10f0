// Package lbclient wires a transport, the request parameter names and an
// index provisioner into the LightBase resource clients.
//
//	c, err := lbclient.NewFromFile("client.hcl")
//	if err != nil {
//		return err
//	}
//	docs, err := c.Documents("albums")
package lbclient

import (
	"fmt"
	"net/http"

	"github.com/hashicorp/go-hclog"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/lightbase/lbclient/pkg/config"
	"github.com/lightbase/lbclient/pkg/lbrest"
	"github.com/lightbase/lbclient/pkg/transport"
	"github.com/lightbase/lbclient/pkg/txtindex"
)

// Client hands out resource clients sharing one transport.
type Client struct {
	transport   transport.Transport
	params      lbrest.Params
	logger      hclog.Logger
	provisioner txtindex.Provisioner
	bases       *lbrest.BaseClient
}

type options struct {
	logger      hclog.Logger
	registerer  prometheus.Registerer
	httpClient  *http.Client
	transport   transport.Transport
	params      *lbrest.Params
	provisioner txtindex.Provisioner
}

// Option configures a Client.
type Option func(*options)

// WithLogger sets the logger of the client and everything it creates.
func WithLogger(l hclog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithRegisterer registers transport metrics with reg.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(o *options) { o.registerer = reg }
}

// WithHTTPClient replaces the http.Client built from the configuration.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) { o.httpClient = c }
}

// WithTransport sends every request through t instead of the HTTP
// transport. The transport configuration is then ignored.
func WithTransport(t transport.Transport) Option {
	return func(o *options) { o.transport = t }
}

// WithParams overrides the request parameter names.
func WithParams(p lbrest.Params) Option {
	return func(o *options) { o.params = &p }
}

// WithIndexProvisioner sets how text indexes are exported.
func WithIndexProvisioner(p txtindex.Provisioner) Option {
	return func(o *options) { o.provisioner = p }
}

// New returns a Client for the server described by cfg.
func New(cfg transport.Config, opts ...Option) (*Client, error) {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = hclog.NewNullLogger()
	}

	t := o.transport
	if t == nil {
		topts := []transport.Option{transport.WithLogger(o.logger.Named("transport"))}
		if o.httpClient != nil {
			topts = append(topts, transport.WithHTTPClient(o.httpClient))
		}
		if o.registerer != nil {
			topts = append(topts, transport.WithMetrics(transport.NewMetrics(o.registerer)))
		}
		h, err := transport.NewHTTP(cfg, topts...)
		if err != nil {
			return nil, err
		}
		t = h
	}

	params := lbrest.DefaultParams()
	if o.params != nil {
		params = o.params.WithDefaults()
	}

	c := &Client{
		transport:   t,
		params:      params,
		logger:      o.logger,
		provisioner: o.provisioner,
	}
	if c.provisioner == nil {
		c.provisioner = txtindex.NewRESTProvisioner(t,
			txtindex.WithParam(params.TxtIdx),
			txtindex.WithLogger(o.logger.Named("txtindex")),
		)
	}

	bases, err := lbrest.NewBaseClient(t, c.clientOptions()...)
	if err != nil {
		return nil, err
	}
	c.bases = bases

	c.logger.Debug("client ready", "params", fmt.Sprintf("%+v", params))
	return c, nil
}

// NewFromConfig returns a Client for a loaded configuration file. A
// meilisearch block selects the Meilisearch provisioner. Options take
// precedence over the file.
func NewFromConfig(cfg *config.Config, opts ...Option) (*Client, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil configuration")
	}
	tc, err := cfg.Transport()
	if err != nil {
		return nil, err
	}

	var defaults []Option
	logger := cfg.Logger("lbclient")
	if logger != nil {
		defaults = append(defaults, WithLogger(logger))
	}
	defaults = append(defaults, WithParams(cfg.RequestParams()))

	if ms := cfg.MeilisearchIndex(); ms != nil {
		if logger == nil {
			logger = hclog.NewNullLogger()
		}
		p, err := txtindex.NewMeilisearchProvisioner(ms, logger.Named("meilisearch"))
		if err != nil {
			return nil, fmt.Errorf("failed to create meilisearch provisioner: %w", err)
		}
		defaults = append(defaults, WithIndexProvisioner(p))
	}

	return New(tc, append(defaults, opts...)...)
}

// NewFromFile loads the configuration file at filename and returns a
// Client for it.
func NewFromFile(filename string, opts ...Option) (*Client, error) {
	cfg, err := config.Load(filename)
	if err != nil {
		return nil, err
	}
	return NewFromConfig(cfg, opts...)
}

func (c *Client) clientOptions() []lbrest.Option {
	return []lbrest.Option{
		lbrest.WithLogger(c.logger),
		lbrest.WithParams(c.params),
		lbrest.WithIndexProvisioner(c.provisioner),
	}
}

// Transport returns the transport shared by all resource clients.
func (c *Client) Transport() transport.Transport {
	return c.transport
}

// Provisioner returns the text index provisioner.
func (c *Client) Provisioner() txtindex.Provisioner {
	return c.provisioner
}

// Bases returns the base client.
func (c *Client) Bases() *lbrest.BaseClient {
	return c.bases
}

// Documents returns a client for the documents of base, given by name or as
// a *schema.Base.
func (c *Client) Documents(base any) (*lbrest.DocumentClient, error) {
	return lbrest.NewDocumentClient(c.transport, base, c.clientOptions()...)
}

// Files returns a client for the files of base, given by name or as a
// *schema.Base.
func (c *Client) Files(base any) (*lbrest.FileClient, error) {
	return lbrest.NewFileClient(c.transport, base, c.clientOptions()...)
}
