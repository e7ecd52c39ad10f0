package lbrest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/lightbase/lbclient/pkg/docpath"
	"github.com/lightbase/lbclient/pkg/files"
	"github.com/lightbase/lbclient/pkg/lberr"
	"github.com/lightbase/lbclient/pkg/search"
	"github.com/lightbase/lbclient/pkg/transport"
)

// FileClient manages the files of one base.
type FileClient struct {
	client
	base string
}

// NewFileClient returns a FileClient for base, given by name or as a
// *schema.Base.
func NewFileClient(t transport.Transport, base any, opts ...Option) (*FileClient, error) {
	name, err := baseName(base)
	if err != nil {
		return nil, err
	}
	c, err := newClient(t, opts)
	if err != nil {
		return nil, err
	}
	return &FileClient{client: c, base: name}, nil
}

// Base returns the name of the base the client is bound to.
func (c *FileClient) Base() string {
	return c.base
}

func (c *FileClient) route(id string, rest ...string) docpath.Path {
	return docpath.Path{c.base, FilePrefix, id}.Append(rest...)
}

// Create uploads f and returns the record the server stored.
func (c *FileClient) Create(ctx context.Context, f *files.File) (*files.File, error) {
	const op = "FileClient.Create"

	if f == nil {
		return nil, lberr.Wrap(op, lberr.NewTypeConstraint("file", "a *files.File", f))
	}
	if f.Filename == "" {
		return nil, lberr.Wrap(op, lberr.NewTypeConstraint("file.filename", "a non-empty file name", f.Filename))
	}

	resp, err := c.do(ctx, &transport.Request{
		Method: http.MethodPost,
		Path:   docpath.Path{c.base, FilePrefix},
		File: &transport.FilePart{
			Field:    c.params.File,
			Filename: f.Filename,
			Content:  f.Content,
		},
	})
	if err != nil {
		return nil, lberr.Wrap(op, err)
	}
	stored, err := decodeFile(resp.Body)
	return stored, lberr.Wrap(op, err)
}

// Upload is Create.
func (c *FileClient) Upload(ctx context.Context, f *files.File) (*files.File, error) {
	return c.Create(ctx, f)
}

// CreateFromBytes uploads content under filename.
func (c *FileClient) CreateFromBytes(ctx context.Context, filename string, content []byte) (*files.File, error) {
	return c.Create(ctx, files.New(filename, content))
}

// Get retrieves the record of file id.
func (c *FileClient) Get(ctx context.Context, id string) (*files.File, error) {
	const op = "FileClient.Get"

	if err := checkFileID(id); err != nil {
		return nil, lberr.Wrap(op, err)
	}
	resp, err := c.do(ctx, &transport.Request{Method: http.MethodGet, Path: c.route(id)})
	if err != nil {
		return nil, lberr.Wrap(op, err)
	}
	f, err := decodeFile(resp.Body)
	return f, lberr.Wrap(op, err)
}

// Download retrieves the content of file id along with the file name and
// type reported in the response headers.
func (c *FileClient) Download(ctx context.Context, id string) (*files.Download, error) {
	const op = "FileClient.Download"

	resp, err := c.download(ctx, id)
	if err != nil {
		return nil, lberr.Wrap(op, err)
	}
	return &files.Download{
		Filename: files.FilenameFromDisposition(resp.Header.Get("Content-Disposition")),
		Mimetype: resp.Header.Get("Content-Type"),
		Content:  resp.Body,
	}, nil
}

// GetContent retrieves the content of file id.
func (c *FileClient) GetContent(ctx context.Context, id string) ([]byte, error) {
	resp, err := c.download(ctx, id)
	if err != nil {
		return nil, lberr.Wrap("FileClient.GetContent", err)
	}
	return resp.Body, nil
}

func (c *FileClient) download(ctx context.Context, id string) (*transport.Response, error) {
	if err := checkFileID(id); err != nil {
		return nil, err
	}
	return c.do(ctx, &transport.Request{
		Method: http.MethodGet,
		Path:   c.route(id, DownloadSuffix),
	})
}

// GetCollection lists file records matching s. A nil s runs the default
// query.
func (c *FileClient) GetCollection(ctx context.Context, s *search.Search) (*search.FileCollection, error) {
	const op = "FileClient.GetCollection"

	query, err := c.searchQuery(s)
	if err != nil {
		return nil, lberr.Wrap(op, err)
	}
	resp, err := c.do(ctx, &transport.Request{
		Method: http.MethodGet,
		Path:   docpath.Path{c.base, FilePrefix},
		Query:  query,
	})
	if err != nil {
		return nil, lberr.Wrap(op, err)
	}
	coll, err := search.ParseFileCollection(resp.Body)
	return coll, lberr.Wrap(op, err)
}

// GetPath retrieves one attribute of file id.
func (c *FileClient) GetPath(ctx context.Context, id string, attr files.Attribute) (json.RawMessage, error) {
	const op = "FileClient.GetPath"

	if err := checkFileID(id); err != nil {
		return nil, lberr.Wrap(op, err)
	}
	if !attr.Valid() {
		return nil, lberr.Wrap(op, lberr.NewTypeConstraint("attribute", "a file attribute", string(attr)))
	}

	resp, err := c.do(ctx, &transport.Request{
		Method: http.MethodGet,
		Path:   c.route(id, string(attr)),
	})
	if err != nil {
		return nil, lberr.Wrap(op, err)
	}
	return json.RawMessage(resp.Body), nil
}

// Delete removes file id.
func (c *FileClient) Delete(ctx context.Context, id string) (string, error) {
	const op = "FileClient.Delete"

	if err := checkFileID(id); err != nil {
		return "", lberr.Wrap(op, err)
	}
	resp, err := c.do(ctx, &transport.Request{Method: http.MethodDelete, Path: c.route(id)})
	if err != nil {
		return "", lberr.Wrap(op, err)
	}
	return resp.Text(), nil
}

func checkFileID(id string) error {
	if id == "" || id == docpath.Wildcard {
		return lberr.NewTypeConstraint("id", "a file id", id)
	}
	return nil
}

func decodeFile(data []byte) (*files.File, error) {
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("error decoding file record: %w", err)
	}
	return files.FromMap(m)
}
