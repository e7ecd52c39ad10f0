package schema

import (
	"fmt"

	"github.com/hashicorp/go-multierror"

	"github.com/lightbase/lbclient/pkg/docpath"
	"github.com/lightbase/lbclient/pkg/lberr"
)

// Validate checks the whole tree and reports every problem found: invalid
// metadata, invalid or duplicate names among siblings, and unknown datatypes.
// It returns nil or a *multierror.Error.
func (b *Base) Validate() error {
	var result *multierror.Error

	if err := b.Metadata.Validate(); err != nil {
		result = multierror.Append(result, fmt.Errorf("metadata: %w", err))
	}
	result = validateContent(result, nil, b.Content)

	return result.ErrorOrNil()
}

func validateContent(result *multierror.Error, prefix docpath.Path, nodes []Node) *multierror.Error {
	seen := make(map[string]bool, len(nodes))

	for i, n := range nodes {
		if isNilNode(n) {
			result = multierror.Append(result, fmt.Errorf("%s: entry %d is empty", location(prefix), i))
			continue
		}

		name := n.NodeName()
		p := prefix.Append(name)
		if seen[name] {
			result = multierror.Append(result, fmt.Errorf("%s: duplicate name %q", location(prefix), name))
		}
		seen[name] = true

		switch n := n.(type) {
		case *Field:
			if err := n.validate(); err != nil {
				result = multierror.Append(result, fmt.Errorf("%s: %w", p, err))
			}
		case *Group:
			if err := n.Metadata.Validate(); err != nil {
				result = multierror.Append(result, fmt.Errorf("%s: %w", p, err))
			}
			result = validateContent(result, p, n.Content)
		}
	}

	return result
}

func location(p docpath.Path) string {
	if len(p) == 0 {
		return "content"
	}
	return p.String()
}

// invalid reports a rejected definition of kind named name.
func invalid(kind, name string, err error) error {
	return fmt.Errorf("%w: %w", lberr.NewTypeConstraint(kind, "a valid "+kind+" definition", name), err)
}
