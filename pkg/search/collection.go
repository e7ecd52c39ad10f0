package search

import (
	"encoding/json"
	"fmt"

	"github.com/lightbase/lbclient/pkg/files"
)

// Collection is one page of documents returned by a search.
type Collection struct {
	// Results holds the documents of the page. A record the server
	// returns as null (deleted between listing and reading) is a nil map.
	Results     []map[string]any `json:"results"`
	ResultCount int              `json:"result_count"`
	Limit       *int             `json:"limit"`
	Offset      int              `json:"offset"`
}

// ParseCollection decodes a document search response.
func ParseCollection(data []byte) (*Collection, error) {
	var c Collection
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("decoding collection: %w", err)
	}
	return &c, nil
}

// FileCollection is one page of file records returned by a search.
type FileCollection struct {
	Results     []files.File `json:"results"`
	ResultCount int          `json:"result_count"`
	Limit       *int         `json:"limit"`
	Offset      int          `json:"offset"`
}

// ParseFileCollection decodes a file search response. Records are decoded
// as by files.FromMap, so numeric fields may arrive as strings.
func ParseFileCollection(data []byte) (*FileCollection, error) {
	var wire struct {
		Results     []map[string]any `json:"results"`
		ResultCount int              `json:"result_count"`
		Limit       *int             `json:"limit"`
		Offset      int              `json:"offset"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, fmt.Errorf("decoding file collection: %w", err)
	}

	c := &FileCollection{
		Results:     make([]files.File, 0, len(wire.Results)),
		ResultCount: wire.ResultCount,
		Limit:       wire.Limit,
		Offset:      wire.Offset,
	}
	for i, m := range wire.Results {
		f, err := files.FromMap(m)
		if err != nil {
			return nil, fmt.Errorf("decoding file collection: result %d: %w", i, err)
		}
		c.Results = append(c.Results, *f)
	}
	return c, nil
}
