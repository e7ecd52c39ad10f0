package schema

import (
	"encoding/json"
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/lightbase/lbclient/pkg/lberr"
)

// Envelope keys of schema content entries.
const (
	TagField = "field"
	TagGroup = "group"
)

// Node is an entry of a schema content list: either a *Field or a *Group.
type Node interface {
	json.Marshaler

	// NodeName is the field name or the group metadata name.
	NodeName() string

	node()
}

var (
	_ Node = (*Field)(nil)
	_ Node = (*Group)(nil)
)

// GroupMetadata describes a Group.
type GroupMetadata struct {
	Name        string `json:"name" mapstructure:"name"`
	Alias       string `json:"alias" mapstructure:"alias"`
	Description string `json:"description" mapstructure:"description"`
	Multivalued bool   `json:"multivalued" mapstructure:"multivalued"`

	Extra map[string]any `json:"-" mapstructure:",remain"`
}

// Validate checks the metadata name.
func (m GroupMetadata) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.Name, nameRules...),
	)
}

// MarshalJSON writes the metadata merged with any server assigned keys.
// Known keys take precedence over Extra.
func (m GroupMetadata) MarshalJSON() ([]byte, error) {
	return json.Marshal(withExtra(m.Extra, map[string]any{
		"name":        m.Name,
		"alias":       m.Alias,
		"description": m.Description,
		"multivalued": m.Multivalued,
	}))
}

// Group is a named branch of a schema tree. A multivalued group holds a list
// of sub-records in documents, addressed by position in paths.
type Group struct {
	Metadata GroupMetadata
	Content  []Node
}

// NewGroup returns an empty group after validating md.
func NewGroup(md GroupMetadata) (*Group, error) {
	if err := md.Validate(); err != nil {
		return nil, invalid("group", md.Name, err)
	}
	return &Group{Metadata: md}, nil
}

// MustGroup is NewGroup that panics on error, for static schemas.
func MustGroup(md GroupMetadata) *Group {
	g, err := NewGroup(md)
	if err != nil {
		panic(err)
	}
	return g
}

// AddField appends a field or a nested group. Content order is kept on the
// wire and in storage.
func (g *Group) AddField(n Node) error {
	if isNilNode(n) {
		return fmt.Errorf("group %q: node must be a Field or a Group: %w",
			g.Metadata.Name, lberr.ErrInvalidArgument)
	}
	g.Content = append(g.Content, n)
	return nil
}

// NodeName implements Node.
func (g *Group) NodeName() string { return g.Metadata.Name }

func (g *Group) node() {}

// Body returns the group without the "group" envelope.
func (g *Group) Body() map[string]any {
	return map[string]any{
		"metadata": g.Metadata,
		"content":  contentList(g.Content),
	}
}

// MarshalJSON writes the group as {"group": {"metadata": ..., "content": ...}}.
func (g *Group) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]any{TagGroup: g.Body()})
}

func contentList(nodes []Node) []Node {
	if nodes == nil {
		return []Node{}
	}
	return nodes
}

func isNilNode(n Node) bool {
	switch v := n.(type) {
	case nil:
		return true
	case *Field:
		return v == nil
	case *Group:
		return v == nil
	}
	return false
}
