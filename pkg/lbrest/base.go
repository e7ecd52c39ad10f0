package lbrest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/lightbase/lbclient/pkg/docpath"
	"github.com/lightbase/lbclient/pkg/lberr"
	"github.com/lightbase/lbclient/pkg/schema"
	"github.com/lightbase/lbclient/pkg/search"
	"github.com/lightbase/lbclient/pkg/transport"
)

// BaseClient manages bases.
type BaseClient struct {
	client
}

// NewBaseClient returns a BaseClient sending through t.
func NewBaseClient(t transport.Transport, opts ...Option) (*BaseClient, error) {
	c, err := newClient(t, opts)
	if err != nil {
		return nil, err
	}
	return &BaseClient{client: c}, nil
}

// Create registers base and returns its id. When the base exports to a text
// index, the index is provisioned afterwards.
func (c *BaseClient) Create(ctx context.Context, base *schema.Base) (int, error) {
	const op = "BaseClient.Create"

	if base == nil {
		return 0, lberr.Wrap(op, lberr.NewTypeConstraint("base", "a *schema.Base", base))
	}
	doc, err := base.JSON()
	if err != nil {
		return 0, lberr.Wrap(op, err)
	}

	id, err := c.create(ctx, string(doc))
	if err != nil {
		return 0, lberr.Wrap(op, err)
	}
	if err := c.provision(ctx, base); err != nil {
		return id, &lberr.Error{Op: op, Err: err, Msg: "base created but text index failed"}
	}
	return id, nil
}

// CreateRaw registers a base given in its wire form.
func (c *BaseClient) CreateRaw(ctx context.Context, base map[string]any) (int, error) {
	const op = "BaseClient.CreateRaw"

	if base == nil {
		return 0, lberr.Wrap(op, lberr.NewTypeConstraint("base", "a mapping", base))
	}
	doc, err := toJSON(base)
	if err != nil {
		return 0, lberr.Wrap(op, err)
	}

	id, err := c.create(ctx, doc)
	return id, lberr.Wrap(op, err)
}

func (c *BaseClient) create(ctx context.Context, doc string) (int, error) {
	resp, err := c.do(ctx, &transport.Request{
		Method: http.MethodPost,
		Form:   url.Values{c.params.Base: {doc}},
	})
	if err != nil {
		return 0, err
	}
	return parseID(resp)
}

// Get retrieves the base called name.
func (c *BaseClient) Get(ctx context.Context, name string) (*schema.Base, error) {
	const op = "BaseClient.Get"

	raw, err := c.getRaw(ctx, name)
	if err != nil {
		return nil, lberr.Wrap(op, err)
	}
	base, err := schema.ParseBase(raw)
	return base, lberr.Wrap(op, err)
}

// GetRaw retrieves the base called name in its wire form.
func (c *BaseClient) GetRaw(ctx context.Context, name string) (map[string]any, error) {
	const op = "BaseClient.GetRaw"

	raw, err := c.getRaw(ctx, name)
	if err != nil {
		return nil, lberr.Wrap(op, err)
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, lberr.Wrap(op, fmt.Errorf("error decoding base: %w", err))
	}
	return m, nil
}

func (c *BaseClient) getRaw(ctx context.Context, name string) ([]byte, error) {
	if err := checkName(name); err != nil {
		return nil, err
	}
	resp, err := c.do(ctx, &transport.Request{
		Method: http.MethodGet,
		Path:   docpath.Path{name},
	})
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

// GetByID retrieves the base whose id_base is id. It returns
// lberr.ErrNotFound when no base matches.
func (c *BaseClient) GetByID(ctx context.Context, id int) (*schema.Base, error) {
	const op = "BaseClient.GetByID"

	if err := checkID("id_base", id); err != nil {
		return nil, lberr.Wrap(op, err)
	}
	s, err := search.New(search.WithLiteral(fmt.Sprintf("id_base = %d", id)))
	if err != nil {
		return nil, lberr.Wrap(op, err)
	}

	coll, err := c.search(ctx, s)
	if err != nil {
		return nil, lberr.Wrap(op, err)
	}
	if len(coll.Results) == 0 || coll.Results[0] == nil {
		return nil, &lberr.Error{Op: op, Err: lberr.ErrNotFound, Msg: fmt.Sprintf("id_base %d", id)}
	}

	base, err := schema.BaseFromMap(coll.Results[0])
	return base, lberr.Wrap(op, err)
}

// GetPath retrieves the schema nodes of base name addressed by path.
func (c *BaseClient) GetPath(ctx context.Context, name string, path any) (json.RawMessage, error) {
	const op = "BaseClient.GetPath"

	if err := checkName(name); err != nil {
		return nil, lberr.Wrap(op, err)
	}
	p, err := docpath.Parse(path)
	if err != nil {
		return nil, lberr.Wrap(op, err)
	}

	resp, err := c.do(ctx, &transport.Request{
		Method: http.MethodGet,
		Path:   p.Join(name),
	})
	if err != nil {
		return nil, lberr.Wrap(op, err)
	}
	return json.RawMessage(resp.Body), nil
}

// Search lists bases matching s. A nil s runs the default query.
func (c *BaseClient) Search(ctx context.Context, s *search.Search) (*search.Collection, error) {
	coll, err := c.search(ctx, s)
	return coll, lberr.Wrap("BaseClient.Search", err)
}

func (c *BaseClient) search(ctx context.Context, s *search.Search) (*search.Collection, error) {
	query, err := c.searchQuery(s)
	if err != nil {
		return nil, err
	}
	resp, err := c.do(ctx, &transport.Request{
		Method: http.MethodGet,
		Query:  query,
	})
	if err != nil {
		return nil, err
	}
	return search.ParseCollection(resp.Body)
}

// Update replaces the definition of base and returns the server answer.
// The text index is provisioned again when the base exports to one.
func (c *BaseClient) Update(ctx context.Context, base *schema.Base) (string, error) {
	const op = "BaseClient.Update"

	if base == nil {
		return "", lberr.Wrap(op, lberr.NewTypeConstraint("base", "a *schema.Base", base))
	}
	if err := checkName(base.Name()); err != nil {
		return "", lberr.Wrap(op, err)
	}
	doc, err := base.JSON()
	if err != nil {
		return "", lberr.Wrap(op, err)
	}

	resp, err := c.do(ctx, &transport.Request{
		Method: http.MethodPut,
		Path:   docpath.Path{base.Name()},
		Form:   url.Values{c.params.Base: {string(doc)}},
	})
	if err != nil {
		return "", lberr.Wrap(op, err)
	}
	if err := c.provision(ctx, base); err != nil {
		return resp.Text(), &lberr.Error{Op: op, Err: err, Msg: "base updated but text index failed"}
	}
	return resp.Text(), nil
}

// Delete removes the base called name.
func (c *BaseClient) Delete(ctx context.Context, name string) (string, error) {
	const op = "BaseClient.Delete"

	if err := checkName(name); err != nil {
		return "", lberr.Wrap(op, err)
	}
	resp, err := c.do(ctx, &transport.Request{
		Method: http.MethodDelete,
		Path:   docpath.Path{name},
	})
	if err != nil {
		return "", lberr.Wrap(op, err)
	}
	return resp.Text(), nil
}

// DeleteBase removes base.
func (c *BaseClient) DeleteBase(ctx context.Context, base *schema.Base) (string, error) {
	if base == nil {
		return "", lberr.Wrap("BaseClient.DeleteBase", lberr.NewTypeConstraint("base", "a *schema.Base", base))
	}
	return c.Delete(ctx, base.Name())
}

// CreateTextIndex provisions the text index of base.
func (c *BaseClient) CreateTextIndex(ctx context.Context, base *schema.Base) error {
	if base == nil {
		return lberr.Wrap("BaseClient.CreateTextIndex", lberr.NewTypeConstraint("base", "a *schema.Base", base))
	}
	return lberr.Wrap("BaseClient.CreateTextIndex", c.provisioner.Provision(ctx, base))
}

func (c *BaseClient) provision(ctx context.Context, base *schema.Base) error {
	if base.Metadata.IdxExpURL == "" {
		return nil
	}
	c.logger.Debug("provisioning text index", "base", base.Name())
	return c.provisioner.Provision(ctx, base)
}

func checkName(name string) error {
	if name == "" {
		return lberr.NewTypeConstraint("name", "a non-empty base name", name)
	}
	return nil
}
