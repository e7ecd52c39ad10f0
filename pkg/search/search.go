// Package search models the query object sent to LightBase search routes.
//
// A Search travels as a JSON document in the "$$" query parameter:
//
//	{"select": ["*"], "order_by": {"asc": [], "desc": []},
//	 "literal": "", "limit": 10, "offset": 0}
//
// Values are checked when they are assigned, so an invalid Search can not be
// built or decoded.
package search

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"sort"

	"github.com/lightbase/lbclient/pkg/lberr"
)

// DefaultLimit is the page size of a Search built without a limit.
const DefaultLimit = 10

// SelectAll is the select list of a Search that returns every field.
var SelectAll = []string{"*"}

// Keys of the wire representation. Only these are treated as fields of the
// model; anything else decoded from JSON is kept as an extension.
const (
	KeySelect   = "select"
	KeyOrderBy  = "order_by"
	KeyLiteral  = "literal"
	KeyLimit    = "limit"
	KeyOffset   = "offset"
	KeyDistinct = "distinct"
)

// Search describes selection, filtering, ordering and paging of a query.
type Search struct {
	selectFields []string
	orderBy      OrderBy
	literal      string
	limit        *int
	offset       int
	distinct     string
	extra        map[string]any
}

// Option configures a Search built with New.
type Option func(*Search) error

// WithSelect sets the returned fields.
func WithSelect(fields ...string) Option {
	return func(s *Search) error {
		if fields == nil {
			fields = []string{}
		}
		return s.SetSelect(fields)
	}
}

// WithOrderBy sets the ordering.
func WithOrderBy(o OrderBy) Option {
	return func(s *Search) error {
		s.SetOrderBy(o)
		return nil
	}
}

// WithLiteral sets the filter expression, e.g. `txt_title = 'Sehnsucht'`.
func WithLiteral(literal string) Option {
	return func(s *Search) error {
		s.SetLiteral(literal)
		return nil
	}
}

// WithLimit sets the page size.
func WithLimit(limit int) Option {
	return func(s *Search) error {
		return s.SetLimit(limit)
	}
}

// WithNoLimit removes the page size limit.
func WithNoLimit() Option {
	return func(s *Search) error {
		s.SetNoLimit()
		return nil
	}
}

// WithOffset sets the number of records skipped.
func WithOffset(offset int) Option {
	return func(s *Search) error {
		return s.SetOffset(offset)
	}
}

// WithDistinct asks the server to collapse results on field.
func WithDistinct(field string) Option {
	return func(s *Search) error {
		s.SetDistinct(field)
		return nil
	}
}

// New returns a Search with the defaults of Default and opts applied in
// order. The first option that fails aborts construction.
func New(opts ...Option) (*Search, error) {
	s := Default()
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Default returns the first-page query: every field, no ordering, no filter,
// limit 10, offset 0.
func Default() *Search {
	limit := DefaultLimit
	return &Search{
		selectFields: append([]string(nil), SelectAll...),
		orderBy:      OrderBy{}.normalized(),
		limit:        &limit,
	}
}

// Select returns a copy of the selected fields.
func (s *Search) Select() []string { return slices.Clone(s.selectFields) }

// OrderBy returns a copy of the ordering.
func (s *Search) OrderBy() OrderBy {
	return OrderBy{Asc: slices.Clone(s.orderBy.Asc), Desc: slices.Clone(s.orderBy.Desc)}
}

// Literal returns the filter expression.
func (s *Search) Literal() string { return s.literal }

// Limit returns the page size. ok is false when the search is unlimited.
func (s *Search) Limit() (limit int, ok bool) {
	if s.limit == nil {
		return 0, false
	}
	return *s.limit, true
}

// Offset returns the number of skipped records.
func (s *Search) Offset() int { return s.offset }

// Distinct returns the distinct field, or "" when unset.
func (s *Search) Distinct() string { return s.distinct }

// Extra returns an extension value decoded from a key the model does not
// know about.
func (s *Search) Extra(key string) (any, bool) {
	v, ok := s.extra[key]
	return v, ok
}

// SetSelect replaces the selected fields. A nil list is rejected.
func (s *Search) SetSelect(fields []string) error {
	if fields == nil {
		return lberr.NewTypeConstraint(KeySelect, "a list of strings", fields)
	}
	s.selectFields = slices.Clone(fields)
	return nil
}

// SetOrderBy replaces the ordering.
func (s *Search) SetOrderBy(o OrderBy) {
	s.orderBy = OrderBy{Asc: slices.Clone(o.Asc), Desc: slices.Clone(o.Desc)}.normalized()
}

// SetLiteral replaces the filter expression.
func (s *Search) SetLiteral(literal string) {
	s.literal = literal
}

// SetLimit sets the page size. Negative values are rejected.
func (s *Search) SetLimit(limit int) error {
	if limit < 0 {
		return lberr.NewTypeConstraint(KeyLimit, "a non-negative integer or null", limit)
	}
	s.limit = &limit
	return nil
}

// SetNoLimit removes the page size; it is sent as null.
func (s *Search) SetNoLimit() {
	s.limit = nil
}

// SetOffset sets the number of skipped records. Negative values are
// rejected.
func (s *Search) SetOffset(offset int) error {
	if offset < 0 {
		return lberr.NewTypeConstraint(KeyOffset, "a non-negative integer", offset)
	}
	s.offset = offset
	return nil
}

// SetDistinct sets the distinct field; "" clears it.
func (s *Search) SetDistinct(field string) {
	s.distinct = field
}

// Set assigns a value decoded from JSON (or built by hand) to the named key.
// Known keys are type checked; unknown keys are stored as extensions and
// written back out by MarshalJSON.
func (s *Search) Set(key string, value any) error {
	switch key {
	case KeySelect:
		fields, err := stringList(KeySelect, value)
		if err != nil {
			return err
		}
		return s.SetSelect(fields)
	case KeyOrderBy:
		o, err := toOrderBy(value)
		if err != nil {
			return err
		}
		s.SetOrderBy(o)
	case KeyLiteral:
		lit, ok := value.(string)
		if !ok {
			return lberr.NewTypeConstraint(KeyLiteral, "a string", value)
		}
		s.SetLiteral(lit)
	case KeyLimit:
		if value == nil {
			s.SetNoLimit()
			return nil
		}
		n, ok := toInt(value)
		if !ok {
			return lberr.NewTypeConstraint(KeyLimit, "an integer or null", value)
		}
		return s.SetLimit(n)
	case KeyOffset:
		n, ok := toInt(value)
		if !ok {
			return lberr.NewTypeConstraint(KeyOffset, "a non-negative integer", value)
		}
		return s.SetOffset(n)
	case KeyDistinct:
		if value == nil {
			s.SetDistinct("")
			return nil
		}
		field, ok := value.(string)
		if !ok {
			return lberr.NewTypeConstraint(KeyDistinct, "a field name", value)
		}
		s.SetDistinct(field)
	default:
		if s.extra == nil {
			s.extra = make(map[string]any)
		}
		s.extra[key] = value
	}
	return nil
}

// FromMap builds a Search from a decoded mapping, starting from Default.
// Keys are applied in sorted order so the reported error is stable.
func FromMap(m map[string]any) (*Search, error) {
	s := Default()

	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		if err := s.Set(k, m[k]); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// FromJSON decodes a Search from its JSON text.
func FromJSON(data []byte) (*Search, error) {
	m, err := decodeObject(data)
	if err != nil {
		return nil, fmt.Errorf("decoding search: %w", err)
	}
	return FromMap(m)
}

// FromString is FromJSON for a string.
func FromString(text string) (*Search, error) {
	return FromJSON([]byte(text))
}

// UnmarshalJSON replaces s with the search decoded from data. Keys are
// checked as by Set.
func (s *Search) UnmarshalJSON(data []byte) error {
	parsed, err := FromJSON(data)
	if err != nil {
		return err
	}
	*s = *parsed
	return nil
}

// MarshalJSON writes the public keys in a fixed order followed by extension
// keys in sorted order.
func (s *Search) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')

	first := true
	write := func(key string, value any) error {
		v, err := json.Marshal(value)
		if err != nil {
			return fmt.Errorf("encoding %s: %w", key, err)
		}
		k, _ := json.Marshal(key)
		if !first {
			buf.WriteByte(',')
		}
		first = false
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
		return nil
	}

	selectFields := s.selectFields
	if selectFields == nil {
		selectFields = []string{}
	}

	fields := []struct {
		key   string
		value any
	}{
		{KeySelect, selectFields},
		{KeyOrderBy, s.orderBy},
		{KeyLiteral, s.literal},
		{KeyLimit, s.limit},
		{KeyOffset, s.offset},
	}
	for _, f := range fields {
		if err := write(f.key, f.value); err != nil {
			return nil, err
		}
	}
	if s.distinct != "" {
		if err := write(KeyDistinct, s.distinct); err != nil {
			return nil, err
		}
	}

	keys := make([]string, 0, len(s.extra))
	for k := range s.extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := write(k, s.extra[k]); err != nil {
			return nil, err
		}
	}

	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// AsJSON returns the text sent as the search query parameter.
func (s *Search) AsJSON() (string, error) {
	b, err := s.MarshalJSON()
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// AsMap returns the wire representation as a mapping.
func (s *Search) AsMap() (map[string]any, error) {
	b, err := s.MarshalJSON()
	if err != nil {
		return nil, err
	}
	return decodeObject(b)
}

func decodeObject(data []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var m map[string]any
	if err := dec.Decode(&m); err != nil {
		return nil, err
	}
	if m == nil {
		return nil, fmt.Errorf("expected a JSON object: %w", lberr.ErrInvalidArgument)
	}
	return m, nil
}

// toInt accepts Go integers, json.Number holding an integer and float64
// values without a fractional part.
func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, false
		}
		return int(i), true
	case float64:
		if n != math.Trunc(n) || math.IsInf(n, 0) {
			return 0, false
		}
		return int(n), true
	default:
		return 0, false
	}
}
