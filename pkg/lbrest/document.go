package lbrest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"reflect"
	"strconv"

	"github.com/lightbase/lbclient/pkg/docpath"
	"github.com/lightbase/lbclient/pkg/lberr"
	"github.com/lightbase/lbclient/pkg/schema"
	"github.com/lightbase/lbclient/pkg/search"
	"github.com/lightbase/lbclient/pkg/transport"
)

// DocumentClient manages the documents of one base.
type DocumentClient struct {
	client
	base string
}

// NewDocumentClient returns a DocumentClient for base, given by name or as a
// *schema.Base.
func NewDocumentClient(t transport.Transport, base any, opts ...Option) (*DocumentClient, error) {
	name, err := baseName(base)
	if err != nil {
		return nil, err
	}
	c, err := newClient(t, opts)
	if err != nil {
		return nil, err
	}
	return &DocumentClient{client: c, base: name}, nil
}

func baseName(base any) (string, error) {
	switch b := base.(type) {
	case string:
		if err := checkName(b); err != nil {
			return "", err
		}
		return b, nil
	case *schema.Base:
		if b != nil && b.Name() != "" {
			return b.Name(), nil
		}
	}
	return "", lberr.NewTypeConstraint("base", "a base name or a *schema.Base", base)
}

// Base returns the name of the base the client is bound to.
func (c *DocumentClient) Base() string {
	return c.base
}

func (c *DocumentClient) route(id int) docpath.Path {
	return docpath.Path{c.base, DocPrefix, strconv.Itoa(id)}
}

// Create stores doc and returns its id.
func (c *DocumentClient) Create(ctx context.Context, doc map[string]any) (int, error) {
	const op = "DocumentClient.Create"

	if doc == nil {
		return 0, lberr.Wrap(op, lberr.NewTypeConstraint("document", "a mapping", doc))
	}
	value, err := toJSON(doc)
	if err != nil {
		return 0, lberr.Wrap(op, err)
	}

	resp, err := c.do(ctx, &transport.Request{
		Method: http.MethodPost,
		Path:   docpath.Path{c.base, DocPrefix},
		Form:   url.Values{c.params.Document: {value}},
	})
	if err != nil {
		return 0, lberr.Wrap(op, err)
	}
	id, err := parseID(resp)
	return id, lberr.Wrap(op, err)
}

// Get retrieves document id.
func (c *DocumentClient) Get(ctx context.Context, id int) (map[string]any, error) {
	const op = "DocumentClient.Get"

	if err := checkID("id", id); err != nil {
		return nil, lberr.Wrap(op, err)
	}
	resp, err := c.do(ctx, &transport.Request{Method: http.MethodGet, Path: c.route(id)})
	if err != nil {
		return nil, lberr.Wrap(op, err)
	}

	var doc map[string]any
	if err := json.Unmarshal(resp.Body, &doc); err != nil {
		return nil, lberr.Wrap(op, fmt.Errorf("error decoding document: %w", err))
	}
	return doc, nil
}

// GetPath retrieves the value at path inside document id.
func (c *DocumentClient) GetPath(ctx context.Context, id int, path any) (json.RawMessage, error) {
	const op = "DocumentClient.GetPath"

	p, err := c.docPath(id, path)
	if err != nil {
		return nil, lberr.Wrap(op, err)
	}
	resp, err := c.do(ctx, &transport.Request{Method: http.MethodGet, Path: p})
	if err != nil {
		return nil, lberr.Wrap(op, err)
	}
	return json.RawMessage(resp.Body), nil
}

// Search lists documents matching s. A nil s runs the default query.
func (c *DocumentClient) Search(ctx context.Context, s *search.Search) (*search.Collection, error) {
	const op = "DocumentClient.Search"

	query, err := c.searchQuery(s)
	if err != nil {
		return nil, lberr.Wrap(op, err)
	}
	resp, err := c.do(ctx, &transport.Request{
		Method: http.MethodGet,
		Path:   docpath.Path{c.base, DocPrefix},
		Query:  query,
	})
	if err != nil {
		return nil, lberr.Wrap(op, err)
	}
	coll, err := search.ParseCollection(resp.Body)
	return coll, lberr.Wrap(op, err)
}

// Update replaces document id with doc.
func (c *DocumentClient) Update(ctx context.Context, id int, doc map[string]any) (string, error) {
	const op = "DocumentClient.Update"

	if err := checkID("id", id); err != nil {
		return "", lberr.Wrap(op, err)
	}
	if doc == nil {
		return "", lberr.Wrap(op, lberr.NewTypeConstraint("document", "a mapping", doc))
	}
	value, err := toJSON(doc)
	if err != nil {
		return "", lberr.Wrap(op, err)
	}

	resp, err := c.do(ctx, &transport.Request{
		Method: http.MethodPut,
		Path:   c.route(id),
		Form:   url.Values{c.params.Document: {value}},
	})
	if err != nil {
		return "", lberr.Wrap(op, err)
	}
	return resp.Text(), nil
}

// CreatePath adds value at path inside document id, e.g. a new element of a
// multivalued group. Lists and mappings are sent JSON encoded, other values
// in their text form.
func (c *DocumentClient) CreatePath(ctx context.Context, id int, path, value any) (string, error) {
	const op = "DocumentClient.CreatePath"

	p, err := c.docPath(id, path)
	if err != nil {
		return "", lberr.Wrap(op, err)
	}
	text, err := textValue(value)
	if err != nil {
		return "", lberr.Wrap(op, err)
	}

	resp, err := c.do(ctx, &transport.Request{
		Method: http.MethodPost,
		Path:   p,
		Form:   url.Values{c.params.Document: {text}},
	})
	if err != nil {
		return "", lberr.Wrap(op, err)
	}
	return resp.Text(), nil
}

// UpdatePath replaces the value at path inside document id. The value is
// always sent JSON encoded.
func (c *DocumentClient) UpdatePath(ctx context.Context, id int, path, value any) (string, error) {
	const op = "DocumentClient.UpdatePath"

	p, err := c.docPath(id, path)
	if err != nil {
		return "", lberr.Wrap(op, err)
	}
	encoded, err := toJSON(value)
	if err != nil {
		return "", lberr.Wrap(op, err)
	}

	resp, err := c.do(ctx, &transport.Request{
		Method: http.MethodPut,
		Path:   p,
		Form:   url.Values{c.params.Document: {encoded}},
	})
	if err != nil {
		return "", lberr.Wrap(op, err)
	}
	return resp.Text(), nil
}

// UpdateCollection applies req to every document matched by req.Search.
func (c *DocumentClient) UpdateCollection(ctx context.Context, req UpdateCollectionRequest) (*BatchResult, error) {
	const op = "DocumentClient.UpdateCollection"

	ops, err := req.operations()
	if err != nil {
		return nil, lberr.Wrap(op, err)
	}
	query, err := c.searchQuery(req.Search)
	if err != nil {
		return nil, lberr.Wrap(op, err)
	}
	encoded, err := toJSON(ops)
	if err != nil {
		return nil, lberr.Wrap(op, err)
	}
	query.Set(c.params.Path, encoded)

	resp, err := c.do(ctx, &transport.Request{
		Method: http.MethodPut,
		Path:   docpath.Path{c.base, DocPrefix},
		Query:  query,
	})
	if err != nil {
		return nil, lberr.Wrap(op, err)
	}
	result, err := parseBatchResult(resp.Body)
	return result, lberr.Wrap(op, err)
}

// Delete removes document id.
func (c *DocumentClient) Delete(ctx context.Context, id int) (string, error) {
	const op = "DocumentClient.Delete"

	if err := checkID("id", id); err != nil {
		return "", lberr.Wrap(op, err)
	}
	resp, err := c.do(ctx, &transport.Request{Method: http.MethodDelete, Path: c.route(id)})
	if err != nil {
		return "", lberr.Wrap(op, err)
	}
	return resp.Text(), nil
}

// DeletePath removes the value at path inside document id.
func (c *DocumentClient) DeletePath(ctx context.Context, id int, path any) (string, error) {
	const op = "DocumentClient.DeletePath"

	p, err := c.docPath(id, path)
	if err != nil {
		return "", lberr.Wrap(op, err)
	}
	resp, err := c.do(ctx, &transport.Request{Method: http.MethodDelete, Path: p})
	if err != nil {
		return "", lberr.Wrap(op, err)
	}
	return resp.Text(), nil
}

// DeleteCollection deletes the documents matched by req.Search, or parts of
// them. Whole documents and single paths are deleted with DELETE; operation
// lists are sent with PUT.
func (c *DocumentClient) DeleteCollection(ctx context.Context, req DeleteCollectionRequest) (*BatchResult, error) {
	const op = "DocumentClient.DeleteCollection"

	if err := req.validate(); err != nil {
		return nil, lberr.Wrap(op, err)
	}
	query, err := c.searchQuery(req.Search)
	if err != nil {
		return nil, lberr.Wrap(op, err)
	}

	method := http.MethodDelete
	switch {
	case len(req.Operations) > 0:
		method = http.MethodPut
		encoded, err := toJSON(req.Operations)
		if err != nil {
			return nil, lberr.Wrap(op, err)
		}
		query.Set(c.params.Path, encoded)
	case req.Path != "":
		encoded, err := toJSON(req.Path)
		if err != nil {
			return nil, lberr.Wrap(op, err)
		}
		query.Set(c.params.Path, encoded)
	}

	resp, err := c.do(ctx, &transport.Request{
		Method: method,
		Path:   docpath.Path{c.base, DocPrefix},
		Query:  query,
	})
	if err != nil {
		return nil, lberr.Wrap(op, err)
	}
	result, err := parseBatchResult(resp.Body)
	return result, lberr.Wrap(op, err)
}

func (c *DocumentClient) docPath(id int, path any) (docpath.Path, error) {
	if err := checkID("id", id); err != nil {
		return nil, err
	}
	p, err := docpath.Parse(path)
	if err != nil {
		return nil, err
	}
	return p.Join(c.route(id)...), nil
}

// textValue renders a path value for creation: composite values as JSON,
// strings as they are, other scalars in their text form.
func textValue(v any) (string, error) {
	switch s := v.(type) {
	case string:
		return s, nil
	case json.RawMessage:
		return string(s), nil
	case nil:
		return "null", nil
	}

	switch reflect.TypeOf(v).Kind() {
	case reflect.Slice, reflect.Array, reflect.Map, reflect.Struct, reflect.Pointer:
		return toJSON(v)
	}
	return fmt.Sprint(v), nil
}
