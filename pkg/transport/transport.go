// Package transport sends requests to a LightBase REST server.
//
// Resource clients describe a request as a method, path segments and
// parameters; a Transport turns that into an HTTP exchange. Tests replace the
// HTTP implementation with a recording fake.
package transport

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/lightbase/lbclient/pkg/docpath"
)

// Transport performs a single request. Implementations return an
// *lberr.TransportError when no response is received or the server answers
// with a status outside 2xx.
type Transport interface {
	Do(ctx context.Context, req *Request) (*Response, error)
}

// Request describes a call relative to the server root URL.
type Request struct {
	Method string

	// Path segments, e.g. ["albums", "doc", "3", "tracks", "0"]. Segments are
	// escaped individually; the wildcard segment is sent as is.
	Path docpath.Path

	// Query is appended to the URL.
	Query url.Values

	// Form is sent as an urlencoded body, or as the non-file parts of a
	// multipart body when File is set.
	Form url.Values

	// File, when set, turns the body into multipart/form-data.
	File *FilePart
}

// FilePart is an uploaded file in a multipart body.
type FilePart struct {
	Field    string
	Filename string
	Content  []byte
}

// Response is a successful reply. Body is fully read.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Text returns the body as a string.
func (r *Response) Text() string {
	return string(r.Body)
}

// EscapePath renders segments as an URL path, each segment percent encoded
// except for characters the server treats literally inside a segment.
func EscapePath(p docpath.Path) string {
	if len(p) == 0 {
		return ""
	}
	var b strings.Builder
	for _, seg := range p {
		b.WriteByte('/')
		b.WriteString(escapeSegment(seg))
	}
	return b.String()
}

func escapeSegment(seg string) string {
	if seg == docpath.Wildcard {
		return seg
	}
	escaped := url.PathEscape(seg)
	// PathEscape encodes '*', which the server reads as a literal wildcard
	// only when unencoded.
	return strings.ReplaceAll(escaped, "%2A", "*")
}
