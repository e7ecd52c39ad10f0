package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/mitchellh/mapstructure"

	"github.com/lightbase/lbclient/pkg/lberr"
)

// ParseBase decodes the wire form of a base.
func ParseBase(data []byte) (*Base, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var m map[string]any
	if err := dec.Decode(&m); err != nil {
		return nil, &lberr.SchemaFormatError{Msg: fmt.Sprintf("invalid JSON: %v", err)}
	}
	return BaseFromMap(m)
}

// BaseFromMap builds a Base from its decoded wire form. Unknown keys are kept
// in the Extra maps so the base can be sent back unchanged. Structural
// problems are reported as *lberr.SchemaFormatError with the location of the
// offending entry; semantic checks are left to Base.Validate.
func BaseFromMap(m map[string]any) (*Base, error) {
	if m == nil {
		return nil, &lberr.SchemaFormatError{Msg: "base must be an object"}
	}

	p := parser{}
	md, err := p.baseMetadata(m)
	if err != nil {
		return nil, err
	}
	content, err := p.content(m["content"], "content")
	if err != nil {
		return nil, err
	}

	return &Base{Metadata: md, Content: content}, nil
}

type parser struct{}

func (p parser) baseMetadata(m map[string]any) (BaseMetadata, error) {
	raw, err := p.metadata(m, "metadata")
	if err != nil {
		return BaseMetadata{}, err
	}

	var md BaseMetadata
	if err := decode(raw, &md); err != nil {
		return BaseMetadata{}, &lberr.SchemaFormatError{Location: "metadata", Msg: err.Error()}
	}
	return md.withDefaults(), nil
}

// metadata extracts the "metadata" object of m and checks it has a name.
func (parser) metadata(m map[string]any, loc string) (map[string]any, error) {
	v, ok := m["metadata"]
	if !ok || v == nil {
		return nil, &lberr.SchemaFormatError{Location: parent(loc), Msg: "missing metadata"}
	}
	md, ok := v.(map[string]any)
	if !ok {
		return nil, &lberr.SchemaFormatError{Location: loc, Msg: fmt.Sprintf("metadata must be an object, got %T", v)}
	}
	if name, _ := md["name"].(string); name == "" {
		return nil, &lberr.SchemaFormatError{Location: loc, Msg: "missing name"}
	}
	return md, nil
}

// content parses a content list. A missing list is an empty one.
func (p parser) content(v any, loc string) ([]Node, error) {
	if v == nil {
		return []Node{}, nil
	}
	entries, ok := v.([]any)
	if !ok {
		return nil, &lberr.SchemaFormatError{Location: loc, Msg: fmt.Sprintf("content must be a list, got %T", v)}
	}

	nodes := make([]Node, 0, len(entries))
	for i, e := range entries {
		n, err := p.node(e, loc+"/"+strconv.Itoa(i))
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, n)
	}
	return nodes, nil
}

func (p parser) node(v any, loc string) (Node, error) {
	entry, ok := v.(map[string]any)
	if !ok {
		return nil, &lberr.SchemaFormatError{Location: loc, Msg: fmt.Sprintf("entry must be an object, got %T", v)}
	}

	fieldBody, isField := entry[TagField]
	groupBody, isGroup := entry[TagGroup]
	switch {
	case isField && isGroup:
		return nil, &lberr.SchemaFormatError{Location: loc, Msg: "entry has both field and group tags"}
	case isField:
		return p.field(fieldBody, loc+"/"+TagField)
	case isGroup:
		return p.group(groupBody, loc+"/"+TagGroup)
	}
	return nil, &lberr.SchemaFormatError{Location: loc, Msg: "entry has neither field nor group tag"}
}

func (parser) field(v any, loc string) (*Field, error) {
	body, ok := v.(map[string]any)
	if !ok {
		return nil, &lberr.SchemaFormatError{Location: loc, Msg: fmt.Sprintf("field must be an object, got %T", v)}
	}
	if name, _ := body["name"].(string); name == "" {
		return nil, &lberr.SchemaFormatError{Location: loc, Msg: "missing name"}
	}

	f := &Field{}
	if err := decode(body, f); err != nil {
		return nil, &lberr.SchemaFormatError{Location: loc, Msg: err.Error()}
	}
	if f.Indices == nil {
		f.Indices = DefaultIndices(f.Datatype)
	}
	return f, nil
}

func (p parser) group(v any, loc string) (*Group, error) {
	body, ok := v.(map[string]any)
	if !ok {
		return nil, &lberr.SchemaFormatError{Location: loc, Msg: fmt.Sprintf("group must be an object, got %T", v)}
	}

	raw, err := p.metadata(body, loc+"/metadata")
	if err != nil {
		return nil, err
	}
	var md GroupMetadata
	if err := decode(raw, &md); err != nil {
		return nil, &lberr.SchemaFormatError{Location: loc + "/metadata", Msg: err.Error()}
	}

	content, err := p.content(body["content"], loc+"/content")
	if err != nil {
		return nil, err
	}
	return &Group{Metadata: md, Content: content}, nil
}

// decode fills out from a JSON object. Scalars are weakly typed so that
// "true" or 1 are accepted for booleans, as older servers send them.
func decode(in map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return err
	}
	return dec.Decode(in)
}

func parent(loc string) string {
	i := strings.LastIndex(loc, "/")
	if i < 0 {
		return ""
	}
	return loc[:i]
}
