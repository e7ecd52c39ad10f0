package search

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/lightbase/lbclient/pkg/lberr"
)

// OrderBy lists the fields a search is sorted by. Fields in Asc sort
// ascending, fields in Desc sort descending, in the order given.
type OrderBy struct {
	Asc  []string
	Desc []string
}

// NewOrderBy returns an OrderBy over the given field lists.
func NewOrderBy(asc, desc []string) OrderBy {
	return OrderBy{Asc: asc, Desc: desc}.normalized()
}

// normalized replaces nil lists with empty ones so that an OrderBy compares
// equal to its decoded JSON form.
func (o OrderBy) normalized() OrderBy {
	if o.Asc == nil {
		o.Asc = []string{}
	}
	if o.Desc == nil {
		o.Desc = []string{}
	}
	return o
}

// Validate reports fields listed in both Asc and Desc. The server accepts
// such an ordering, so constructors do not call Validate.
func (o OrderBy) Validate() error {
	seen := make(map[string]struct{}, len(o.Asc))
	for _, f := range o.Asc {
		seen[f] = struct{}{}
	}

	var dup []string
	for _, f := range o.Desc {
		if _, ok := seen[f]; ok {
			dup = append(dup, f)
		}
	}
	if len(dup) == 0 {
		return nil
	}

	sort.Strings(dup)
	return lberr.NewTypeConstraint("order_by",
		"disjoint asc and desc lists", strings.Join(dup, ","))
}

// IsZero reports whether no ordering is requested.
func (o OrderBy) IsZero() bool {
	return len(o.Asc) == 0 && len(o.Desc) == 0
}

type orderByJSON struct {
	Asc  []string `json:"asc"`
	Desc []string `json:"desc"`
}

// MarshalJSON always writes both lists, empty ones as [].
func (o OrderBy) MarshalJSON() ([]byte, error) {
	o = o.normalized()
	return json.Marshal(orderByJSON{Asc: o.Asc, Desc: o.Desc})
}

// UnmarshalJSON decodes an order_by object; see OrderByFromJSON.
func (o *OrderBy) UnmarshalJSON(data []byte) error {
	parsed, err := OrderByFromJSON(data)
	if err != nil {
		return err
	}
	*o = parsed
	return nil
}

// OrderByFromJSON decodes an order_by object.
func OrderByFromJSON(data []byte) (OrderBy, error) {
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return OrderBy{}, fmt.Errorf("decoding order_by: %w", err)
	}
	return OrderByFromMap(m)
}

// OrderByFromMap builds an OrderBy from a decoded mapping. Only the asc and
// desc keys are accepted.
func OrderByFromMap(m map[string]any) (OrderBy, error) {
	o := OrderBy{}.normalized()

	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		switch k {
		case "asc":
			asc, err := stringList("order_by.asc", m[k])
			if err != nil {
				return OrderBy{}, err
			}
			o.Asc = asc
		case "desc":
			desc, err := stringList("order_by.desc", m[k])
			if err != nil {
				return OrderBy{}, err
			}
			o.Desc = desc
		default:
			return OrderBy{}, lberr.NewTypeConstraint("order_by."+k, "one of asc or desc", m[k])
		}
	}

	return o, nil
}

func toOrderBy(v any) (OrderBy, error) {
	switch o := v.(type) {
	case OrderBy:
		return o.normalized(), nil
	case *OrderBy:
		if o == nil {
			return OrderBy{}, lberr.NewTypeConstraint("order_by", "an OrderBy", v)
		}
		return o.normalized(), nil
	case map[string]any:
		return OrderByFromMap(o)
	case string:
		return OrderByFromJSON([]byte(o))
	default:
		return OrderBy{}, lberr.NewTypeConstraint("order_by", "an OrderBy", v)
	}
}

// stringList accepts []string or a decoded JSON array of strings.
func stringList(field string, v any) ([]string, error) {
	switch l := v.(type) {
	case []string:
		if l == nil {
			return nil, lberr.NewTypeConstraint(field, "a list of strings", v)
		}
		return l, nil
	case []any:
		out := make([]string, 0, len(l))
		for _, elem := range l {
			s, ok := elem.(string)
			if !ok {
				return nil, lberr.NewTypeConstraint(field, "a list of strings", v)
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, lberr.NewTypeConstraint(field, "a list of strings", v)
	}
}
