// Package schema builds and parses LightBase base definitions.
//
// A base is a tree: its content lists fields and groups, and groups nest
// further content. On the wire every entry carries an envelope naming its
// kind:
//
//	{"metadata": {"name": "albums", ...},
//	 "content": [
//	   {"field": {"name": "title", "datatype": "Text", ...}},
//	   {"group": {"metadata": {"name": "tracks", ...}, "content": [...]}}
//	 ]}
package schema

import (
	"encoding/json"
	"fmt"
	"regexp"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/lightbase/lbclient/pkg/docpath"
	"github.com/lightbase/lbclient/pkg/lberr"
)

// colorPattern accepts an empty color or a CSS hex color.
var colorPattern = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// BaseMetadata describes a Base. Name is globally unique on the server.
type BaseMetadata struct {
	Name        string `json:"name" mapstructure:"name"`
	Description string `json:"description" mapstructure:"description"`
	Password    string `json:"password" mapstructure:"password"`
	Color       string `json:"color" mapstructure:"color"`

	// IdxExp enables exporting documents to an external full text index
	// at IdxExpURL every IdxExpTime seconds.
	IdxExp     bool   `json:"idx_exp" mapstructure:"idx_exp"`
	IdxExpURL  string `json:"idx_exp_url" mapstructure:"idx_exp_url"`
	IdxExpTime string `json:"idx_exp_time" mapstructure:"idx_exp_time"`

	// FileExt enables text extraction from attached files every
	// FileExtTime seconds.
	FileExt     bool   `json:"file_ext" mapstructure:"file_ext"`
	FileExtTime string `json:"file_ext_time" mapstructure:"file_ext_time"`

	// Extra keeps server assigned keys such as id_base and dt_base.
	Extra map[string]any `json:"-" mapstructure:",remain"`
}

// Validate checks the metadata.
func (m BaseMetadata) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.Name, nameRules...),
		validation.Field(&m.Color, validation.Match(colorPattern)),
		validation.Field(&m.IdxExpURL, validation.When(m.IdxExp, validation.Required)),
	)
}

func (m BaseMetadata) withDefaults() BaseMetadata {
	if m.IdxExpTime == "" {
		m.IdxExpTime = "0"
	}
	if m.FileExtTime == "" {
		m.FileExtTime = "0"
	}
	return m
}

// MarshalJSON writes the metadata merged with any server assigned keys.
// Known keys take precedence over Extra.
func (m BaseMetadata) MarshalJSON() ([]byte, error) {
	return json.Marshal(withExtra(m.Extra, map[string]any{
		"name":          m.Name,
		"description":   m.Description,
		"password":      m.Password,
		"color":         m.Color,
		"idx_exp":       m.IdxExp,
		"idx_exp_url":   m.IdxExpURL,
		"idx_exp_time":  m.IdxExpTime,
		"file_ext":      m.FileExt,
		"file_ext_time": m.FileExtTime,
	}))
}

// Base is the schema of a set of documents.
type Base struct {
	Metadata BaseMetadata
	Content  []Node
}

// NewBase returns an empty base after validating md. Unset export and
// extraction intervals default to "0".
func NewBase(md BaseMetadata) (*Base, error) {
	if err := md.Validate(); err != nil {
		return nil, invalid("base", md.Name, err)
	}
	return &Base{Metadata: md.withDefaults()}, nil
}

// MustBase is NewBase that panics on error, for static schemas.
func MustBase(md BaseMetadata) *Base {
	b, err := NewBase(md)
	if err != nil {
		panic(err)
	}
	return b
}

// Name returns the base name.
func (b *Base) Name() string { return b.Metadata.Name }

// AddField appends a field or a group to the top level content.
func (b *Base) AddField(n Node) error {
	if isNilNode(n) {
		return fmt.Errorf("base %q: node must be a Field or a Group: %w",
			b.Metadata.Name, lberr.ErrInvalidArgument)
	}
	b.Content = append(b.Content, n)
	return nil
}

// MarshalJSON writes the base as {"metadata": ..., "content": [...]}.
func (b *Base) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Metadata BaseMetadata `json:"metadata"`
		Content  []Node       `json:"content"`
	}{b.Metadata, contentList(b.Content)})
}

// JSON returns the wire form of the base.
func (b *Base) JSON() ([]byte, error) {
	return b.MarshalJSON()
}

// Map returns the wire form of the base as a decoded mapping.
func (b *Base) Map() (map[string]any, error) {
	data, err := b.MarshalJSON()
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return m, nil
}

// Lookup resolves a path to the node it addresses. Index and wildcard
// segments select elements of multivalued groups and are skipped.
func (b *Base) Lookup(p docpath.Path) (Node, bool) {
	content := b.Content
	var found Node

	for _, seg := range p {
		if docpath.IsIndex(seg) {
			if g, ok := found.(*Group); ok && g.Metadata.Multivalued {
				continue
			}
			if f, ok := found.(*Field); ok && f.Multivalued {
				continue
			}
			return nil, false
		}

		found = nil
		for _, n := range content {
			if n.NodeName() == seg {
				found = n
				break
			}
		}
		if found == nil {
			return nil, false
		}

		if g, ok := found.(*Group); ok {
			content = g.Content
		} else {
			content = nil
		}
	}

	return found, found != nil
}

// WalkFunc is called for every node of a base with its path from the root.
type WalkFunc func(p docpath.Path, n Node) error

// Walk visits the tree depth first in content order. Returning an error
// from fn stops the walk.
func (b *Base) Walk(fn WalkFunc) error {
	return walk(nil, b.Content, fn)
}

func walk(prefix docpath.Path, nodes []Node, fn WalkFunc) error {
	for _, n := range nodes {
		p := prefix.Append(n.NodeName())
		if err := fn(p, n); err != nil {
			return err
		}
		if g, ok := n.(*Group); ok {
			if err := walk(p, g.Content, fn); err != nil {
				return err
			}
		}
	}
	return nil
}

// Fields returns every field of the base with its path, in walk order.
func (b *Base) Fields() []FieldPath {
	var out []FieldPath
	_ = b.Walk(func(p docpath.Path, n Node) error {
		if f, ok := n.(*Field); ok {
			out = append(out, FieldPath{Path: p, Field: f})
		}
		return nil
	})
	return out
}

// FieldPath pairs a field with its location.
type FieldPath struct {
	Path  docpath.Path
	Field *Field
}
