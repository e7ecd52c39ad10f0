package lbrest

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lightbase/lbclient/pkg/schema"
	"github.com/lightbase/lbclient/pkg/transport"
)

// fakeTransport records requests and answers them from a queue.
type fakeTransport struct {
	requests  []*transport.Request
	responses []*transport.Response
	err       error
}

func (f *fakeTransport) reply(body string) *fakeTransport {
	f.responses = append(f.responses, &transport.Response{StatusCode: http.StatusOK, Body: []byte(body)})
	return f
}

func (f *fakeTransport) replyWith(resp *transport.Response) *fakeTransport {
	f.responses = append(f.responses, resp)
	return f
}

func (f *fakeTransport) Do(_ context.Context, req *transport.Request) (*transport.Response, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}
	if len(f.responses) == 0 {
		return &transport.Response{StatusCode: http.StatusOK}, nil
	}
	resp := f.responses[0]
	f.responses = f.responses[1:]
	return resp, nil
}

func (f *fakeTransport) last(t *testing.T) *transport.Request {
	t.Helper()
	require.NotEmpty(t, f.requests, "no request was sent")
	return f.requests[len(f.requests)-1]
}

// fakeProvisioner records provisioned bases.
type fakeProvisioner struct {
	bases []string
	err   error
}

func (p *fakeProvisioner) Provision(_ context.Context, base *schema.Base) error {
	p.bases = append(p.bases, base.Name())
	return p.err
}

func albumsBase(t *testing.T, exportURL string) *schema.Base {
	t.Helper()

	b, err := schema.NewBase(schema.BaseMetadata{Name: "albums", IdxExp: exportURL != "", IdxExpURL: exportURL})
	require.NoError(t, err)
	require.NoError(t, b.AddField(schema.MustField("title", schema.Text, schema.Required())))

	tracks := schema.MustGroup(schema.GroupMetadata{Name: "tracks", Multivalued: true})
	require.NoError(t, tracks.AddField(schema.MustField("track_title", schema.Text)))
	require.NoError(t, b.AddField(tracks))
	return b
}

const defaultSearch = `{"select":["*"],"order_by":{"asc":[],"desc":[]},"literal":"","limit":10,"offset":0}`
