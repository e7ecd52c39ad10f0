package schema

import (
	"encoding/json"
	"fmt"
	"regexp"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/lightbase/lbclient/pkg/docpath"
)

// namePattern rejects names that would break path addressing: no slashes,
// no whitespace.
var namePattern = regexp.MustCompile(`^[^/\s]+$`)

// nameRules are shared by fields, groups and bases.
var nameRules = []validation.Rule{
	validation.Required,
	validation.Match(namePattern).Error("must not contain slashes or whitespace"),
	validation.By(func(v any) error {
		if s, _ := v.(string); docpath.IsIndex(s) {
			return fmt.Errorf("must not be %q or all digits", docpath.Wildcard)
		}
		return nil
	}),
}

// Field is a leaf of a schema tree.
//
// Indices is filled from the datatype once, by NewField. Changing Datatype
// afterwards leaves Indices untouched.
type Field struct {
	Name        string   `json:"name" mapstructure:"name"`
	Datatype    Datatype `json:"datatype" mapstructure:"datatype"`
	Alias       string   `json:"alias" mapstructure:"alias"`
	Description string   `json:"description" mapstructure:"description"`
	Required    bool     `json:"required" mapstructure:"required"`
	Multivalued bool     `json:"multivalued" mapstructure:"multivalued"`
	Indices     []Index  `json:"indices" mapstructure:"indices"`

	// Extra keeps keys sent by the server that the client does not model.
	Extra map[string]any `json:"-" mapstructure:",remain"`
}

// FieldOption configures a Field built with NewField.
type FieldOption func(*Field)

// WithAlias sets the display name.
func WithAlias(alias string) FieldOption {
	return func(f *Field) { f.Alias = alias }
}

// WithDescription sets the description.
func WithDescription(description string) FieldOption {
	return func(f *Field) { f.Description = description }
}

// Required marks the field as mandatory.
func Required() FieldOption {
	return func(f *Field) { f.Required = true }
}

// Multivalued lets the field hold a list of values.
func Multivalued() FieldOption {
	return func(f *Field) { f.Multivalued = true }
}

// WithIndices replaces the default indices.
func WithIndices(indices ...Index) FieldOption {
	return func(f *Field) { f.Indices = indices }
}

// NewField returns a validated Field. Unless WithIndices is given, indices
// default to DefaultIndices(datatype).
func NewField(name string, datatype Datatype, opts ...FieldOption) (*Field, error) {
	f := &Field{
		Name:     name,
		Datatype: datatype,
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.Indices == nil {
		f.Indices = DefaultIndices(datatype)
	}

	if err := f.validate(); err != nil {
		return nil, invalid("field", name, err)
	}
	return f, nil
}

// MustField is NewField that panics on error, for static schemas.
func MustField(name string, datatype Datatype, opts ...FieldOption) *Field {
	f, err := NewField(name, datatype, opts...)
	if err != nil {
		panic(err)
	}
	return f
}

func (f *Field) validate() error {
	return validation.ValidateStruct(f,
		validation.Field(&f.Name, nameRules...),
		validation.Field(&f.Datatype, validation.Required, validation.In(datatypeValues()...)),
	)
}

func datatypeValues() []any {
	out := make([]any, len(Datatypes))
	for i, d := range Datatypes {
		out[i] = d
	}
	return out
}

// NodeName implements Node.
func (f *Field) NodeName() string { return f.Name }

func (f *Field) node() {}

// Body returns the field attributes without the "field" envelope.
func (f *Field) Body() map[string]any {
	indices := f.Indices
	if indices == nil {
		indices = []Index{}
	}
	return withExtra(f.Extra, map[string]any{
		"name":        f.Name,
		"datatype":    f.Datatype,
		"alias":       f.Alias,
		"description": f.Description,
		"required":    f.Required,
		"multivalued": f.Multivalued,
		"indices":     indices,
	})
}

// MarshalJSON writes the field as {"field": {...}}.
func (f *Field) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]any{TagField: f.Body()})
}

// withExtra overlays known on a copy of extra.
func withExtra(extra, known map[string]any) map[string]any {
	out := make(map[string]any, len(extra)+len(known))
	for k, v := range extra {
		out[k] = v
	}
	for k, v := range known {
		out[k] = v
	}
	return out
}
