package txtindex

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/hashicorp/go-hclog"

	"github.com/lightbase/lbclient/pkg/docpath"
	"github.com/lightbase/lbclient/pkg/lberr"
	"github.com/lightbase/lbclient/pkg/schema"
	"github.com/lightbase/lbclient/pkg/transport"
)

// Route is the server path that creates text indexes.
const Route = "_txt_idx"

// DefaultParam is the form parameter carrying the provisioning document.
const DefaultParam = "value"

// RESTProvisioner asks the LightBase server to create the index.
type RESTProvisioner struct {
	transport transport.Transport
	param     string
	logger    hclog.Logger
}

var _ Provisioner = (*RESTProvisioner)(nil)

// RESTOption configures a RESTProvisioner.
type RESTOption func(*RESTProvisioner)

// WithParam overrides the form parameter name.
func WithParam(name string) RESTOption {
	return func(p *RESTProvisioner) { p.param = name }
}

// WithLogger sets the logger.
func WithLogger(l hclog.Logger) RESTOption {
	return func(p *RESTProvisioner) { p.logger = l }
}

// NewRESTProvisioner returns a provisioner sending through t.
func NewRESTProvisioner(t transport.Transport, opts ...RESTOption) *RESTProvisioner {
	p := &RESTProvisioner{
		transport: t,
		param:     DefaultParam,
		logger:    hclog.NewNullLogger(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Provision posts the provisioning document of base. Bases without an
// export URL are skipped, as are export URLs not of the form
// scheme://host/index/type.
func (p *RESTProvisioner) Provision(ctx context.Context, base *schema.Base) error {
	if base == nil {
		return fmt.Errorf("nil base: %w", lberr.ErrInvalidArgument)
	}

	exportURL := base.Metadata.IdxExpURL
	if exportURL == "" {
		return nil
	}
	indexURL, ok := DeriveIndexURL(exportURL)
	if !ok {
		p.logger.Warn("skipping text index, unsupported export url",
			"base", base.Name(),
			"idx_exp_url", exportURL,
		)
		return nil
	}

	doc, err := json.Marshal(NewConfig(base.Name(), indexURL))
	if err != nil {
		return fmt.Errorf("error encoding text index config: %w", err)
	}

	_, err = p.transport.Do(ctx, &transport.Request{
		Method: http.MethodPost,
		Path:   docpath.Path{Route},
		Form:   url.Values{p.param: {string(doc)}},
	})
	if err != nil {
		return fmt.Errorf("error creating text index for base %q: %w", base.Name(), err)
	}

	p.logger.Info("created text index", "base", base.Name(), "url", indexURL)
	return nil
}
