// Package docpath addresses nested locations inside a document or schema
// tree.
//
// A path is an ordered list of segments such as
//
//	gp_tracks/2/txt_track_title
//
// Named segments select a field or group, numeric segments select one element
// of a multivalued group and the Wildcard segment "*" selects every element.
package docpath

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/lightbase/lbclient/pkg/lberr"
)

// Separator delimits segments in the string form of a path.
const Separator = "/"

// Wildcard addresses every element of a multivalued group.
const Wildcard = "*"

// Path is a normalized sequence of segments.
type Path []string

// Parse normalizes a path specification. spec may be a slash delimited
// string, a Path, a []string, a []int or a []any holding strings and
// integers. Only string input is split; list elements are taken as whole
// segments. Empty segments are dropped and all-digit segments are rendered
// in canonical decimal form, so "a/02/b" and []any{"a", 2, "b"} normalize
// to the same Path.
func Parse(spec any) (Path, error) {
	var raw []string

	switch v := spec.(type) {
	case string:
		raw = strings.Split(v, Separator)
	case Path:
		raw = v
	case []string:
		raw = v
	case []int:
		raw = make([]string, 0, len(v))
		for _, i := range v {
			s, err := indexSegment(int64(i))
			if err != nil {
				return nil, err
			}
			raw = append(raw, s)
		}
	case []any:
		raw = make([]string, 0, len(v))
		for n, elem := range v {
			s, err := segment(elem)
			if err != nil {
				return nil, fmt.Errorf("segment %d: %w", n, err)
			}
			raw = append(raw, s)
		}
	default:
		return nil, fmt.Errorf("path must be a string or a list of segments, got %T: %w",
			spec, lberr.ErrInvalidArgument)
	}

	p := make(Path, 0, len(raw))
	for _, s := range raw {
		if s == "" {
			continue
		}
		p = append(p, canonical(s))
	}
	return p, nil
}

// MustParse is like Parse but panics on error. Intended for constants in
// tests and examples.
func MustParse(spec any) Path {
	p, err := Parse(spec)
	if err != nil {
		panic(err)
	}
	return p
}

// Join returns prefix followed by the segments of p. The prefix holds the
// routing segments of a request (base name, resource tag, record id).
func (p Path) Join(prefix ...string) Path {
	out := make(Path, 0, len(prefix)+len(p))
	for _, s := range prefix {
		if s != "" {
			out = append(out, s)
		}
	}
	return append(out, p...)
}

// Append returns a copy of p with segs added at the end.
func (p Path) Append(segs ...string) Path {
	out := make(Path, 0, len(p)+len(segs))
	out = append(out, p...)
	return append(out, segs...)
}

// String renders p in slash delimited form.
func (p Path) String() string {
	return strings.Join(p, Separator)
}

// IsIndex reports whether seg addresses elements of a multivalued group,
// either by position or through the wildcard.
func IsIndex(seg string) bool {
	if seg == Wildcard {
		return true
	}
	return isDigits(seg)
}

// Index renders a group element position as a segment.
func Index(i int) string {
	return strconv.Itoa(i)
}

func segment(v any) (string, error) {
	switch s := v.(type) {
	case string:
		return s, nil
	case int:
		return indexSegment(int64(s))
	case int64:
		return indexSegment(s)
	case int32:
		return indexSegment(int64(s))
	default:
		return "", fmt.Errorf("segment must be a string or an integer, got %T: %w",
			v, lberr.ErrInvalidArgument)
	}
}

func indexSegment(i int64) (string, error) {
	if i < 0 {
		return "", fmt.Errorf("index segment must not be negative, got %d: %w",
			i, lberr.ErrInvalidArgument)
	}
	return strconv.FormatInt(i, 10), nil
}

// canonical strips leading zeros from all-digit segments.
func canonical(s string) string {
	if !isDigits(s) || len(s) == 1 || s[0] != '0' {
		return s
	}
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return s
	}
	return strconv.FormatUint(n, 10)
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
