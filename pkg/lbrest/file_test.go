package lbrest

import (
	"context"
	"net/http"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lightbase/lbclient/pkg/docpath"
	"github.com/lightbase/lbclient/pkg/files"
	"github.com/lightbase/lbclient/pkg/lberr"
	"github.com/lightbase/lbclient/pkg/transport"
)

func newFileClient(t *testing.T, ft *fakeTransport) *FileClient {
	t.Helper()
	c, err := NewFileClient(ft, "albums")
	require.NoError(t, err)
	return c
}

func TestFileClient_Create(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/covers/front.png", []byte("PNG"), 0o644))
	f, err := files.Open(fs, "/covers/front.png")
	require.NoError(t, err)

	ft := (&fakeTransport{}).reply(`{"id_file": "9f2c", "filename": "front.png", "filesize": "3", "mimetype": "image/png", "id_doc": null}`)
	c := newFileClient(t, ft)

	stored, err := c.Upload(context.Background(), f)
	require.NoError(t, err)
	assert.Equal(t, "9f2c", stored.IDFile)
	assert.Equal(t, int64(3), stored.Filesize)

	req := ft.last(t)
	assert.Equal(t, http.MethodPost, req.Method)
	assert.Equal(t, docpath.Path{"albums", "file"}, req.Path)
	require.NotNil(t, req.File)
	assert.Equal(t, "file", req.File.Field)
	assert.Equal(t, "front.png", req.File.Filename)
	assert.Equal(t, []byte("PNG"), req.File.Content)
}

func TestFileClient_CreateFromBytes(t *testing.T) {
	ft := (&fakeTransport{}).reply(`{"id_file": "a1"}`)
	c := newFileClient(t, ft)

	stored, err := c.CreateFromBytes(context.Background(), "notes.txt", []byte("hi"))
	require.NoError(t, err)
	assert.Equal(t, "a1", stored.IDFile)
	assert.Equal(t, "notes.txt", ft.last(t).File.Filename)

	_, err = c.CreateFromBytes(context.Background(), "", []byte("hi"))
	assert.ErrorIs(t, err, lberr.ErrTypeConstraint)
	_, err = c.Create(context.Background(), nil)
	assert.ErrorIs(t, err, lberr.ErrTypeConstraint)
	assert.Len(t, ft.requests, 1)
}

func TestFileClient_Get(t *testing.T) {
	ft := (&fakeTransport{}).reply(`{"id_file": "a1", "id_doc": 4, "filetext": "lyrics"}`)
	c := newFileClient(t, ft)

	f, err := c.Get(context.Background(), "a1")
	require.NoError(t, err)
	assert.Equal(t, 4, f.IDDoc)
	assert.Equal(t, "lyrics", f.Filetext)
	assert.Equal(t, docpath.Path{"albums", "file", "a1"}, ft.last(t).Path)
}

func TestFileClient_Download(t *testing.T) {
	header := http.Header{}
	header.Set("Content-Disposition", `attachment; filename="front cover.png"`)
	header.Set("Content-Type", "image/png")

	ft := (&fakeTransport{}).
		replyWith(&transport.Response{StatusCode: http.StatusOK, Header: header, Body: []byte("PNG")})
	c := newFileClient(t, ft)

	d, err := c.Download(context.Background(), "a1")
	require.NoError(t, err)
	assert.Equal(t, "front cover.png", d.Filename)
	assert.Equal(t, "image/png", d.Mimetype)
	assert.Equal(t, []byte("PNG"), d.Content)
	assert.Equal(t, docpath.Path{"albums", "file", "a1", "download"}, ft.last(t).Path)
}

func TestFileClient_GetContent(t *testing.T) {
	ft := (&fakeTransport{}).reply("raw bytes")
	c := newFileClient(t, ft)

	content, err := c.GetContent(context.Background(), "a1")
	require.NoError(t, err)
	assert.Equal(t, []byte("raw bytes"), content)
	assert.Equal(t, docpath.Path{"albums", "file", "a1", "download"}, ft.last(t).Path)
}

func TestFileClient_GetCollection(t *testing.T) {
	ft := (&fakeTransport{}).reply(`{"results": [{"id_file": "a1", "filetext": "x"}], "result_count": 1, "limit": 10, "offset": 0}`)
	c := newFileClient(t, ft)

	coll, err := c.GetCollection(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, coll.Results, 1)
	assert.Equal(t, "a1", coll.Results[0].IDFile)

	req := ft.last(t)
	assert.Equal(t, docpath.Path{"albums", "file"}, req.Path)
	assert.JSONEq(t, defaultSearch, req.Query.Get("$$"))
}

func TestFileClient_GetPath(t *testing.T) {
	ft := (&fakeTransport{}).reply(`"lyrics"`)
	c := newFileClient(t, ft)

	raw, err := c.GetPath(context.Background(), "a1", files.AttrFiletext)
	require.NoError(t, err)
	assert.Equal(t, `"lyrics"`, string(raw))
	assert.Equal(t, docpath.Path{"albums", "file", "a1", "filetext"}, ft.last(t).Path)

	_, err = c.GetPath(context.Background(), "a1", files.Attribute("content"))
	assert.ErrorIs(t, err, lberr.ErrTypeConstraint)
	assert.Len(t, ft.requests, 1)
}

func TestFileClient_Delete(t *testing.T) {
	ft := (&fakeTransport{}).reply("DELETED")
	c := newFileClient(t, ft)

	msg, err := c.Delete(context.Background(), "a1")
	require.NoError(t, err)
	assert.Equal(t, "DELETED", msg)
	assert.Equal(t, http.MethodDelete, ft.last(t).Method)

	_, err = c.Delete(context.Background(), "")
	assert.ErrorIs(t, err, lberr.ErrTypeConstraint)
	_, err = c.Get(context.Background(), "*")
	assert.ErrorIs(t, err, lberr.ErrTypeConstraint)
	assert.Len(t, ft.requests, 1)
}
