package transport

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lightbase/lbclient/pkg/docpath"
	"github.com/lightbase/lbclient/pkg/lberr"
)

func newTestHTTP(t *testing.T, h http.HandlerFunc, opts ...Option) *HTTP {
	t.Helper()

	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	tr, err := NewHTTP(Config{BaseURL: srv.URL + "/api/", RetryDelay: time.Millisecond}, opts...)
	require.NoError(t, err)
	return tr
}

func TestEscapePath(t *testing.T) {
	tests := []struct {
		path docpath.Path
		want string
	}{
		{nil, ""},
		{docpath.Path{"albums"}, "/albums"},
		{docpath.Path{"albums", "doc", "3", "tracks", "*", "title"}, "/albums/doc/3/tracks/*/title"},
		{docpath.Path{"a b", "c?d"}, "/a%20b/c%3Fd"},
		{docpath.Path{"x*y"}, "/x*y"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, EscapePath(tt.path))
		})
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"valid", Config{BaseURL: "http://localhost/api"}, false},
		{"missing url", Config{}, true},
		{"bad scheme", Config{BaseURL: "ftp://localhost"}, true},
		{"relative", Config{BaseURL: "/api"}, true},
		{"negative retries", Config{BaseURL: "http://localhost", MaxRetries: -1}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestHTTP_Get(t *testing.T) {
	var got *http.Request
	tr := newTestHTTP(t, func(w http.ResponseWriter, r *http.Request) {
		got = r
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok": true}`))
	})

	resp, err := tr.Do(context.Background(), &Request{
		Path:  docpath.Path{"albums", "doc", "1", "tracks", "*"},
		Query: url.Values{"$$": {`{"limit":10}`}},
	})
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"ok": true}`, resp.Text())
	assert.Equal(t, http.MethodGet, got.Method)
	assert.Equal(t, "/api/albums/doc/1/tracks/*", got.URL.EscapedPath())
	assert.Equal(t, `{"limit":10}`, got.URL.Query().Get("$$"))
	assert.Equal(t, DefaultUserAgent, got.Header.Get("User-Agent"))
	assert.NotEmpty(t, got.Header.Get(RequestIDHeader))
}

func TestHTTP_Form(t *testing.T) {
	tr := newTestHTTP(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("Content-Type"))
		assert.Equal(t, "secret", r.Header.Get("Authorization"))
		require.NoError(t, r.ParseForm())
		_, _ = w.Write([]byte(r.PostForm.Get("value")))
	})
	tr.cfg.Headers = map[string]string{"Authorization": "secret"}

	resp, err := tr.Do(context.Background(), &Request{
		Method: http.MethodPost,
		Path:   docpath.Path{"albums", "doc"},
		Form:   url.Values{"value": {`{"title":"x"}`}},
	})
	require.NoError(t, err)
	assert.Equal(t, `{"title":"x"}`, resp.Text())
}

func TestHTTP_Multipart(t *testing.T) {
	tr := newTestHTTP(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		f, hdr, err := r.FormFile("file")
		require.NoError(t, err)
		defer f.Close()
		content, err := io.ReadAll(f)
		require.NoError(t, err)

		assert.Equal(t, "cover.png", hdr.Filename)
		assert.Equal(t, []byte{0x89, 'P', 'N', 'G'}, content)
		assert.Equal(t, "x", r.FormValue("extra"))
		_, _ = w.Write([]byte(`{"id_file": "f1"}`))
	})

	resp, err := tr.Do(context.Background(), &Request{
		Method: http.MethodPost,
		Path:   docpath.Path{"albums", "file"},
		Form:   url.Values{"extra": {"x"}},
		File:   &FilePart{Field: "file", Filename: "cover.png", Content: []byte{0x89, 'P', 'N', 'G'}},
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"id_file": "f1"}`, resp.Text())
}

func TestHTTP_ErrorStatus(t *testing.T) {
	var calls int32
	tr := newTestHTTP(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"_status": 404, "_error_message": "no base"}`))
	})
	tr.cfg.MaxRetries = 3

	_, err := tr.Do(context.Background(), &Request{Path: docpath.Path{"missing"}})
	require.Error(t, err)
	assert.ErrorIs(t, err, lberr.ErrTransport)

	var te *lberr.TransportError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, http.StatusNotFound, te.StatusCode())
	assert.Contains(t, string(te.Body), "no base")
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls), "4xx is not retried")
}

func TestHTTP_RetriesServerErrors(t *testing.T) {
	var calls int32
	var ids []string
	tr := newTestHTTP(t, func(w http.ResponseWriter, r *http.Request) {
		ids = append(ids, r.Header.Get(RequestIDHeader))
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte("UPDATED"))
	})
	tr.cfg.MaxRetries = 2

	resp, err := tr.Do(context.Background(), &Request{Method: http.MethodPut, Path: docpath.Path{"albums"}})
	require.NoError(t, err)
	assert.Equal(t, "UPDATED", resp.Text())
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
	require.Len(t, ids, 3)
	assert.Equal(t, ids[0], ids[2])
}

func TestHTTP_RetriesOnlyIdempotentMethods(t *testing.T) {
	tests := []struct {
		method string
		calls  int32
	}{
		{http.MethodGet, 3},
		{http.MethodPut, 3},
		{http.MethodDelete, 3},
		{http.MethodPost, 1},
	}

	for _, tt := range tests {
		t.Run(tt.method, func(t *testing.T) {
			var calls int32
			tr := newTestHTTP(t, func(w http.ResponseWriter, r *http.Request) {
				atomic.AddInt32(&calls, 1)
				w.WriteHeader(http.StatusBadGateway)
			})
			tr.cfg.MaxRetries = 2

			_, err := tr.Do(context.Background(), &Request{
				Method: tt.method,
				Path:   docpath.Path{"albums", "doc"},
				Form:   url.Values{"value": {`{"title": "Mutter"}`}},
			})
			var te *lberr.TransportError
			require.True(t, errors.As(err, &te))
			assert.Equal(t, http.StatusBadGateway, te.StatusCode())
			assert.Equal(t, tt.calls, atomic.LoadInt32(&calls))
		})
	}
}

func TestRetryable(t *testing.T) {
	network := &lberr.TransportError{Method: http.MethodGet, Err: errors.New("connection reset")}
	assert.True(t, retryable(http.MethodGet, network))
	assert.False(t, retryable(http.MethodPost, network))
	assert.False(t, retryable(http.MethodGet, &lberr.TransportError{Status: http.StatusConflict}))
	assert.True(t, retryable(http.MethodDelete, &lberr.TransportError{Status: http.StatusServiceUnavailable}))
	assert.False(t, retryable(http.MethodGet, errors.New("encoding failed")))
}

func TestHTTP_NoRetryByDefault(t *testing.T) {
	var calls int32
	tr := newTestHTTP(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := tr.Do(context.Background(), &Request{Path: docpath.Path{"albums"}})
	assert.ErrorIs(t, err, lberr.ErrTransport)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestHTTP_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	tr, err := NewHTTP(Config{BaseURL: srv.URL})
	require.NoError(t, err)

	_, err = tr.Do(context.Background(), &Request{Path: docpath.Path{"albums"}})
	var te *lberr.TransportError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, 0, te.StatusCode())
	assert.Error(t, te.Err)
}

func TestHTTP_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	tr := newTestHTTP(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("1"))
	}, WithMetrics(m))

	for i := 0; i < 2; i++ {
		_, err := tr.Do(context.Background(), &Request{Method: http.MethodPost, Path: docpath.Path{"albums", "doc"}})
		require.NoError(t, err)
	}

	assert.Equal(t, float64(2), testutil.ToFloat64(m.requests.WithLabelValues(http.MethodPost, "doc", "200")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.duration))
}

func TestResource(t *testing.T) {
	assert.Equal(t, "base", resource(&Request{}))
	assert.Equal(t, "base", resource(&Request{Path: docpath.Path{"albums"}}))
	assert.Equal(t, "doc", resource(&Request{Path: docpath.Path{"albums", "doc", "1"}}))
	assert.Equal(t, "file", resource(&Request{Path: docpath.Path{"albums", "file"}}))
	assert.Equal(t, "txt_idx", resource(&Request{Path: docpath.Path{"_txt_idx"}}))
}
