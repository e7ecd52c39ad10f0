package lbrest

import (
	"encoding/json"
	"fmt"

	"github.com/lightbase/lbclient/pkg/lberr"
	"github.com/lightbase/lbclient/pkg/search"
)

// Mode is what a PathOperation does at its path.
type Mode string

const (
	ModeInsert Mode = "insert"
	ModeUpdate Mode = "update"
	ModeDelete Mode = "delete"
	ModeManual Mode = "manual"
)

// Valid reports whether m is a known mode.
func (m Mode) Valid() bool {
	switch m {
	case ModeInsert, ModeUpdate, ModeDelete, ModeManual:
		return true
	}
	return false
}

// PathOperation is one step of a batch update or delete over every document
// matched by a search. Fn optionally names a server side predicate, e.g.
// "attr_equals", applied with Args to the elements found at Path.
type PathOperation struct {
	Path string `json:"path"`
	Mode Mode   `json:"mode"`
	Fn   string `json:"fn,omitempty"`
	Args []any  `json:"args"`
}

func (o PathOperation) validate(i int) error {
	if o.Path == "" {
		return lberr.NewTypeConstraint(fmt.Sprintf("path[%d].path", i), "a non-empty path", o.Path)
	}
	if !o.Mode.Valid() {
		return lberr.NewTypeConstraint(fmt.Sprintf("path[%d].mode", i), "one of insert, update, delete, manual", string(o.Mode))
	}
	return nil
}

func (o PathOperation) MarshalJSON() ([]byte, error) {
	type plain PathOperation
	if o.Args == nil {
		o.Args = []any{}
	}
	return json.Marshal(plain(o))
}

// BatchResult counts the documents a batch operation changed.
type BatchResult struct {
	Success int `json:"success"`
	Failure int `json:"failure"`
}

func parseBatchResult(data []byte) (*BatchResult, error) {
	var r BatchResult
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("error decoding batch result: %w", err)
	}
	return &r, nil
}

// UpdateCollectionRequest selects documents with Search and changes them.
// Either Path is set, replacing the values at that path with Values, or
// Operations lists the changes.
type UpdateCollectionRequest struct {
	Path       string
	Values     []any
	Operations []PathOperation

	// Search selects the documents. Nil selects with the default query.
	Search *search.Search
}

func (r UpdateCollectionRequest) operations() ([]PathOperation, error) {
	switch {
	case r.Path != "" && len(r.Operations) > 0:
		return nil, lberr.NewTypeConstraint("path", "either a path or a list of operations", r.Operations)
	case r.Path != "":
		return []PathOperation{{Path: r.Path, Mode: ModeUpdate, Args: r.Values}}, nil
	case len(r.Operations) > 0:
		for i, o := range r.Operations {
			if err := o.validate(i); err != nil {
				return nil, err
			}
		}
		return r.Operations, nil
	}
	return nil, lberr.NewTypeConstraint("path", "a path or a list of operations", nil)
}

// DeleteCollectionRequest selects documents with Search and deletes them, or
// deletes parts of them. With no Path and no Operations whole documents are
// deleted. A Path deletes the values at that path; Operations are applied
// as listed.
type DeleteCollectionRequest struct {
	Path       string
	Operations []PathOperation

	// Search selects the documents. Nil selects with the default query.
	Search *search.Search
}

func (r DeleteCollectionRequest) validate() error {
	if r.Path != "" && len(r.Operations) > 0 {
		return lberr.NewTypeConstraint("path", "either a path or a list of operations", r.Operations)
	}
	for i, o := range r.Operations {
		if err := o.validate(i); err != nil {
			return err
		}
	}
	return nil
}
