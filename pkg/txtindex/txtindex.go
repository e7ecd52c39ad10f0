// Package txtindex provisions external full text indexes for bases that
// export their documents.
//
// A base exports when its metadata sets idx_exp_url. The LightBase server
// creates the index from a provisioning document posted to /_txt_idx; a
// Meilisearch provisioner is provided for deployments that index there
// instead.
package txtindex

import (
	"context"
	"strings"

	"github.com/lightbase/lbclient/pkg/schema"
)

// Provisioner creates or updates the external index of a base.
type Provisioner interface {
	Provision(ctx context.Context, base *schema.Base) error
}

// Nop is a Provisioner that does nothing.
type Nop struct{}

// Provision implements Provisioner.
func (Nop) Provision(context.Context, *schema.Base) error { return nil }

// DeriveIndexURL turns an export URL of the form scheme://host/index/type
// into the index URL scheme://host/index. Any other shape yields false.
func DeriveIndexURL(raw string) (string, bool) {
	parts := strings.Split(raw, "/")
	if len(parts) != 5 || parts[1] != "" || parts[2] == "" || parts[3] == "" {
		return "", false
	}
	return parts[0] + "//" + parts[2] + "/" + parts[3], true
}

// Config is the provisioning document understood by /_txt_idx.
type Config struct {
	Name   string      `json:"nm_idx"`
	Index  IndexConfig `json:"cfg_idx"`
	URL    string      `json:"url_idx"`
	Active bool        `json:"actv_idx"`
}

// IndexConfig holds the index settings.
type IndexConfig struct {
	Analysis Analysis `json:"analysis"`
}

// Component is a named analysis building block.
type Component map[string]any

// Analysis declares the text analysis chain of the index.
type Analysis struct {
	CharFilter map[string]Component `json:"char_filter"`
	Tokenizer  map[string]Component `json:"tokenizer"`
	Filter     map[string]Component `json:"filter"`
	Analyzer   map[string]Component `json:"analyzer"`
}

// NewConfig returns the provisioning document for base name exported to
// indexURL. The analyzers cover ngram matching, Brazilian Portuguese
// stemming and numeric identifiers.
func NewConfig(name, indexURL string) *Config {
	return &Config{
		Name:   name,
		Index:  IndexConfig{Analysis: defaultAnalysis()},
		URL:    indexURL,
		Active: true,
	}
}

func defaultAnalysis() Analysis {
	folded := []string{"lowercase", "asciifolding"}
	stemmed := []string{"lowercase", "asciifolding", "stemmer_pt_br"}

	return Analysis{
		CharFilter: map[string]Component{
			"alfanumeric_pattern": {
				"type":        "pattern_replace",
				"pattern":     "[^a-zA-Z0-9]",
				"replacement": "",
			},
			"mapping_filter": {
				"type":     "mapping",
				"mappings": []string{`-\n=>`},
			},
		},
		Tokenizer: map[string]Component{
			"ngram_tokenizer": {
				"type":        "ngram",
				"min_gram":    "2",
				"max_gram":    "3",
				"token_chars": []string{"digit", "letter"},
			},
		},
		Filter: map[string]Component{
			"stemmer_pt_br": {
				"type": "stemmer",
				"name": "brazilian",
			},
			"numeric_filter": {
				"type":        "pattern_replace",
				"pattern":     "[^0-9]",
				"replacement": "",
			},
			"leading_zeroes_filter": {
				"type":        "pattern_replace",
				"pattern":     "^0+",
				"replacement": "",
			},
		},
		Analyzer: map[string]Component{
			"keyword_analyzer": {
				"tokenizer": "keyword",
			},
			"ngram_analyzer": {
				"char_filter": []string{"alfanumeric_pattern"},
				"filter":      folded,
				"tokenizer":   "ngram_tokenizer",
			},
			"stemmer_analyzer": {
				"tokenizer": "standard",
				"filter":    stemmed,
			},
			"stemmer_analyzer_and_mapping": {
				"char_filter": []string{"mapping_filter"},
				"tokenizer":   "standard",
				"filter":      stemmed,
			},
			"alfanumeric_analyzer": {
				"char_filter": []string{"alfanumeric_pattern"},
				"filter":      []string{"lowercase", "asciifolding", "leading_zeroes_filter"},
				"tokenizer":   "standard",
			},
			"numeric_analyzer": {
				"filter":    []string{"numeric_filter"},
				"tokenizer": "keyword",
			},
			"leading_zeroes_analyzer": {
				"filter":    []string{"leading_zeroes_filter"},
				"tokenizer": "keyword",
			},
			"default": {
				"filter":    folded,
				"tokenizer": "standard",
			},
		},
	}
}
