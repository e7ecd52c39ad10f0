package lbrest

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lightbase/lbclient/pkg/docpath"
	"github.com/lightbase/lbclient/pkg/lberr"
	"github.com/lightbase/lbclient/pkg/search"
)

func newBaseClient(t *testing.T, ft *fakeTransport, opts ...Option) *BaseClient {
	t.Helper()
	c, err := NewBaseClient(ft, opts...)
	require.NoError(t, err)
	return c
}

func TestNewBaseClient_NilTransport(t *testing.T) {
	_, err := NewBaseClient(nil)
	assert.ErrorIs(t, err, lberr.ErrInvalidArgument)
}

func TestBaseClient_Create(t *testing.T) {
	ft := (&fakeTransport{}).reply("12\n")
	prov := &fakeProvisioner{}
	c := newBaseClient(t, ft, WithIndexProvisioner(prov))
	base := albumsBase(t, "")

	id, err := c.Create(context.Background(), base)
	require.NoError(t, err)
	assert.Equal(t, 12, id)

	req := ft.last(t)
	assert.Equal(t, http.MethodPost, req.Method)
	assert.Empty(t, req.Path)

	want, err := base.JSON()
	require.NoError(t, err)
	assert.JSONEq(t, string(want), req.Form.Get("json_base"))
	assert.Empty(t, prov.bases, "no export url, no index")
}

func TestBaseClient_CreateProvisionsTextIndex(t *testing.T) {
	ft := (&fakeTransport{}).reply("3")
	prov := &fakeProvisioner{}
	c := newBaseClient(t, ft, WithIndexProvisioner(prov))

	id, err := c.Create(context.Background(), albumsBase(t, "http://es:9200/albums/lb"))
	require.NoError(t, err)
	assert.Equal(t, 3, id)
	assert.Equal(t, []string{"albums"}, prov.bases)

	prov.err = errors.New("index down")
	ft.reply("4")
	id, err = c.Create(context.Background(), albumsBase(t, "http://es:9200/albums/lb"))
	assert.Equal(t, 4, id)
	assert.ErrorContains(t, err, "index down")
}

func TestBaseClient_DefaultProvisionerPostsTextIndex(t *testing.T) {
	ft := (&fakeTransport{}).reply("1").reply("OK")
	c := newBaseClient(t, ft, WithParams(Params{TxtIdx: "txt"}))

	_, err := c.Create(context.Background(), albumsBase(t, "http://es:9200/albums/lb"))
	require.NoError(t, err)

	require.Len(t, ft.requests, 2)
	req := ft.requests[1]
	assert.Equal(t, docpath.Path{"_txt_idx"}, req.Path)
	assert.Contains(t, req.Form.Get("txt"), `"nm_idx":"albums"`)
	assert.Equal(t, "json_base", DefaultParams().Base)
}

func TestBaseClient_CreateRaw(t *testing.T) {
	ft := (&fakeTransport{}).reply("5")
	c := newBaseClient(t, ft)

	id, err := c.CreateRaw(context.Background(), map[string]any{"metadata": map[string]any{"name": "raw"}, "content": []any{}})
	require.NoError(t, err)
	assert.Equal(t, 5, id)
	assert.JSONEq(t, `{"metadata": {"name": "raw"}, "content": []}`, ft.last(t).Form.Get("json_base"))

	_, err = c.CreateRaw(context.Background(), nil)
	assert.ErrorIs(t, err, lberr.ErrTypeConstraint)
}

func TestBaseClient_Create_BadResponse(t *testing.T) {
	ft := (&fakeTransport{}).reply("not an id")
	c := newBaseClient(t, ft)

	_, err := c.Create(context.Background(), albumsBase(t, ""))
	require.Error(t, err)

	var opErr *lberr.Error
	require.True(t, errors.As(err, &opErr))
	assert.Equal(t, "BaseClient.Create", opErr.Op)
}

func TestBaseClient_Get(t *testing.T) {
	base := albumsBase(t, "")
	data, err := base.JSON()
	require.NoError(t, err)

	ft := (&fakeTransport{}).reply(string(data)).reply(string(data))
	c := newBaseClient(t, ft)

	got, err := c.Get(context.Background(), "albums")
	require.NoError(t, err)
	assert.Equal(t, "albums", got.Name())
	assert.Len(t, got.Content, 2)
	assert.Equal(t, docpath.Path{"albums"}, ft.last(t).Path)
	assert.Equal(t, http.MethodGet, ft.last(t).Method)

	raw, err := c.GetRaw(context.Background(), "albums")
	require.NoError(t, err)
	assert.Contains(t, raw, "content")
}

func TestBaseClient_Get_Malformed(t *testing.T) {
	ft := (&fakeTransport{}).reply(`{"content": []}`)
	c := newBaseClient(t, ft)

	_, err := c.Get(context.Background(), "albums")
	assert.ErrorIs(t, err, lberr.ErrSchemaFormat)
}

func TestBaseClient_GetByID(t *testing.T) {
	ft := (&fakeTransport{}).reply(`{
		"results": [{"metadata": {"name": "albums", "id_base": 7}, "content": []}],
		"result_count": 1, "limit": 10, "offset": 0
	}`)
	c := newBaseClient(t, ft)

	base, err := c.GetByID(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, "albums", base.Name())

	req := ft.last(t)
	assert.Empty(t, req.Path)
	s, err := search.FromString(req.Query.Get("$$"))
	require.NoError(t, err)
	assert.Equal(t, "id_base = 7", s.Literal())
}

func TestBaseClient_GetByID_NotFound(t *testing.T) {
	ft := (&fakeTransport{}).reply(`{"results": [], "result_count": 0, "limit": 10, "offset": 0}`)
	c := newBaseClient(t, ft)

	_, err := c.GetByID(context.Background(), 99)
	assert.ErrorIs(t, err, lberr.ErrNotFound)

	_, err = c.GetByID(context.Background(), -1)
	assert.ErrorIs(t, err, lberr.ErrTypeConstraint)
	assert.Len(t, ft.requests, 1)
}

func TestBaseClient_GetPath(t *testing.T) {
	ft := (&fakeTransport{}).reply(`{"name": "track_title"}`)
	c := newBaseClient(t, ft)

	raw, err := c.GetPath(context.Background(), "albums", "tracks/track_title")
	require.NoError(t, err)
	assert.JSONEq(t, `{"name": "track_title"}`, string(raw))
	assert.Equal(t, docpath.Path{"albums", "tracks", "track_title"}, ft.last(t).Path)

	_, err = c.GetPath(context.Background(), "albums", 3.5)
	assert.ErrorIs(t, err, lberr.ErrInvalidArgument)
	assert.Len(t, ft.requests, 1)
}

func TestBaseClient_Search(t *testing.T) {
	ft := (&fakeTransport{}).reply(`{"results": [{"metadata": {"name": "albums"}}], "result_count": 1, "limit": 10, "offset": 0}`)
	c := newBaseClient(t, ft)

	coll, err := c.Search(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 1, coll.ResultCount)
	assert.JSONEq(t, defaultSearch, ft.last(t).Query.Get("$$"))
}

func TestBaseClient_Update(t *testing.T) {
	ft := (&fakeTransport{}).reply("UPDATED")
	prov := &fakeProvisioner{}
	c := newBaseClient(t, ft, WithIndexProvisioner(prov))

	msg, err := c.Update(context.Background(), albumsBase(t, "http://es:9200/albums/lb"))
	require.NoError(t, err)
	assert.Equal(t, "UPDATED", msg)

	req := ft.last(t)
	assert.Equal(t, http.MethodPut, req.Method)
	assert.Equal(t, docpath.Path{"albums"}, req.Path)
	assert.NotEmpty(t, req.Form.Get("json_base"))
	assert.Equal(t, []string{"albums"}, prov.bases)
}

func TestBaseClient_Delete(t *testing.T) {
	ft := (&fakeTransport{}).reply("DELETED").reply("DELETED")
	c := newBaseClient(t, ft)

	msg, err := c.Delete(context.Background(), "albums")
	require.NoError(t, err)
	assert.Equal(t, "DELETED", msg)
	assert.Equal(t, http.MethodDelete, ft.last(t).Method)

	_, err = c.DeleteBase(context.Background(), albumsBase(t, ""))
	require.NoError(t, err)
	assert.Equal(t, docpath.Path{"albums"}, ft.last(t).Path)
}

func TestBaseClient_ValidatesBeforeSending(t *testing.T) {
	ft := &fakeTransport{}
	c := newBaseClient(t, ft)
	ctx := context.Background()

	_, err := c.Create(ctx, nil)
	assert.ErrorIs(t, err, lberr.ErrTypeConstraint)
	_, err = c.Get(ctx, "")
	assert.ErrorIs(t, err, lberr.ErrTypeConstraint)
	_, err = c.Update(ctx, nil)
	assert.ErrorIs(t, err, lberr.ErrTypeConstraint)
	_, err = c.Delete(ctx, "")
	assert.ErrorIs(t, err, lberr.ErrTypeConstraint)
	_, err = c.DeleteBase(ctx, nil)
	assert.ErrorIs(t, err, lberr.ErrTypeConstraint)
	assert.ErrorIs(t, c.CreateTextIndex(ctx, nil), lberr.ErrTypeConstraint)

	assert.Empty(t, ft.requests)
}

func TestBaseClient_TransportError(t *testing.T) {
	ft := &fakeTransport{err: &lberr.TransportError{Method: http.MethodGet, URL: "/albums", Status: http.StatusNotFound, Body: []byte("no such base")}}
	c := newBaseClient(t, ft)

	_, err := c.Get(context.Background(), "albums")
	var te *lberr.TransportError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, http.StatusNotFound, te.StatusCode())
	assert.Equal(t, "no such base", string(te.Body))
}

func TestBaseClient_CreateTextIndex(t *testing.T) {
	prov := &fakeProvisioner{}
	c := newBaseClient(t, &fakeTransport{}, WithIndexProvisioner(prov))

	require.NoError(t, c.CreateTextIndex(context.Background(), albumsBase(t, "http://es:9200/albums/lb")))
	assert.Equal(t, []string{"albums"}, prov.bases)
	assert.NotNil(t, c.Transport())
}
