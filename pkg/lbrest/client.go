// Package lbrest provides clients for the base, document and file resources
// of a LightBase REST server.
//
// Routes follow the LBGenerator layout:
//
//	/{base}                 bases
//	/{base}/doc/{id}/...    documents and paths inside them
//	/{base}/file/{id}/...   files attached to documents
//	/_txt_idx               text index provisioning
//
// Every operation validates its input before sending exactly one request.
// Errors are returned wrapped in an *lberr.Error naming the operation.
package lbrest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/hashicorp/go-hclog"

	"github.com/lightbase/lbclient/pkg/lberr"
	"github.com/lightbase/lbclient/pkg/search"
	"github.com/lightbase/lbclient/pkg/transport"
	"github.com/lightbase/lbclient/pkg/txtindex"
)

// Route segments.
const (
	DocPrefix      = "doc"
	FilePrefix     = "file"
	DownloadSuffix = "download"
)

// Params names the request parameters the server reads.
type Params struct {
	Base     string
	Document string
	Search   string
	Path     string
	File     string
	TxtIdx   string
}

// DefaultParams returns the parameter names of a stock LBGenerator.
func DefaultParams() Params {
	return Params{
		Base:     "json_base",
		Document: "value",
		Search:   "$$",
		Path:     "path",
		File:     "file",
		TxtIdx:   txtindex.DefaultParam,
	}
}

// WithDefaults returns p with empty names replaced by the LBGenerator
// defaults.
func (p Params) WithDefaults() Params {
	d := DefaultParams()
	if p.Base == "" {
		p.Base = d.Base
	}
	if p.Document == "" {
		p.Document = d.Document
	}
	if p.Search == "" {
		p.Search = d.Search
	}
	if p.Path == "" {
		p.Path = d.Path
	}
	if p.File == "" {
		p.File = d.File
	}
	if p.TxtIdx == "" {
		p.TxtIdx = d.TxtIdx
	}
	return p
}

// Option configures a resource client.
type Option func(*client)

// WithLogger sets the logger.
func WithLogger(l hclog.Logger) Option {
	return func(c *client) { c.logger = l }
}

// WithParams overrides request parameter names. Empty names keep their
// defaults.
func WithParams(p Params) Option {
	return func(c *client) { c.params = p.WithDefaults() }
}

// WithIndexProvisioner sets the provisioner used by BaseClient for text
// indexes. The default posts to /_txt_idx through the client transport.
func WithIndexProvisioner(p txtindex.Provisioner) Option {
	return func(c *client) { c.provisioner = p }
}

// client holds what every resource client shares. It is immutable after
// construction.
type client struct {
	transport   transport.Transport
	params      Params
	logger      hclog.Logger
	provisioner txtindex.Provisioner
}

func newClient(t transport.Transport, opts []Option) (client, error) {
	if t == nil {
		return client{}, fmt.Errorf("nil transport: %w", lberr.ErrInvalidArgument)
	}

	c := client{
		transport: t,
		params:    DefaultParams(),
		logger:    hclog.NewNullLogger(),
	}
	for _, opt := range opts {
		opt(&c)
	}
	if c.provisioner == nil {
		c.provisioner = txtindex.NewRESTProvisioner(t,
			txtindex.WithParam(c.params.TxtIdx),
			txtindex.WithLogger(c.logger),
		)
	}
	return c, nil
}

// Transport returns the transport requests are sent through.
func (c *client) Transport() transport.Transport {
	return c.transport
}

func (c *client) do(ctx context.Context, req *transport.Request) (*transport.Response, error) {
	return c.transport.Do(ctx, req)
}

// searchQuery encodes s as the search query parameter. A nil search is the
// default query.
func (c *client) searchQuery(s *search.Search) (url.Values, error) {
	if s == nil {
		s = search.Default()
	}
	encoded, err := s.AsJSON()
	if err != nil {
		return nil, err
	}
	return url.Values{c.params.Search: {encoded}}, nil
}

func toJSON(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("error encoding value: %w", err)
	}
	return string(data), nil
}

// parseID reads the id the server answers a create with.
func parseID(resp *transport.Response) (int, error) {
	id, err := strconv.Atoi(string(bytes.TrimSpace(resp.Body)))
	if err != nil {
		return 0, fmt.Errorf("unexpected create response %q: %w", resp.Text(), err)
	}
	return id, nil
}

func checkID(field string, id int) error {
	if id < 0 {
		return lberr.NewTypeConstraint(field, "a non-negative integer", id)
	}
	return nil
}
