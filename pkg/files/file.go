// Package files holds the file record stored by LightBase next to documents
// and the helpers to load local files for upload.
package files

import (
	"fmt"
	"mime"
	"path/filepath"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/afero"
)

// File is a binary attachment of a base. Content is only populated for
// uploads and is never part of the JSON form.
type File struct {
	IDFile    string `json:"id_file,omitempty" mapstructure:"id_file"`
	IDDoc     int    `json:"id_doc,omitempty" mapstructure:"id_doc"`
	UUID      string `json:"uuid,omitempty" mapstructure:"uuid"`
	Filename  string `json:"filename,omitempty" mapstructure:"filename"`
	Filesize  int64  `json:"filesize,omitempty" mapstructure:"filesize"`
	Mimetype  string `json:"mimetype,omitempty" mapstructure:"mimetype"`
	Filetext  string `json:"filetext,omitempty" mapstructure:"filetext"`
	DtExtText string `json:"dt_ext_text,omitempty" mapstructure:"dt_ext_text"`
	Download  string `json:"download,omitempty" mapstructure:"download"`

	Content []byte `json:"-" mapstructure:"-"`
}

// Attribute names a single property of a stored file that can be fetched on
// its own.
type Attribute string

const (
	AttrFiletext  Attribute = "filetext"
	AttrFilesize  Attribute = "filesize"
	AttrFilename  Attribute = "filename"
	AttrMimetype  Attribute = "mimetype"
	AttrIDDoc     Attribute = "id_doc"
	AttrIDFile    Attribute = "id_file"
	AttrDtExtText Attribute = "dt_ext_text"
)

// Attributes lists every Attribute.
var Attributes = []Attribute{
	AttrFiletext, AttrFilesize, AttrFilename, AttrMimetype,
	AttrIDDoc, AttrIDFile, AttrDtExtText,
}

// Valid reports whether a is a known attribute.
func (a Attribute) Valid() bool {
	for _, known := range Attributes {
		if a == known {
			return true
		}
	}
	return false
}

// FromMap decodes a file record returned by the server. Numeric fields are
// accepted as numbers or numeric strings and null values are left empty.
func FromMap(m map[string]any) (*File, error) {
	var f File
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &f,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(m); err != nil {
		return nil, fmt.Errorf("decoding file record: %w", err)
	}
	return &f, nil
}

// Open reads the file at path from fs into an upload payload.
func Open(fs afero.Fs, path string) (*File, error) {
	content, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	return &File{
		Filename: filepath.Base(path),
		Filesize: int64(len(content)),
		Content:  content,
	}, nil
}

// New returns an upload payload for content named filename.
func New(filename string, content []byte) *File {
	return &File{
		Filename: filename,
		Filesize: int64(len(content)),
		Content:  content,
	}
}

// Download is the body of a file download with the name and type recovered
// from the response headers.
type Download struct {
	Filename string
	Mimetype string
	Content  []byte
}

// FilenameFromDisposition extracts the file name from a Content-Disposition
// header. Headers that do not parse as a media type fall back to whatever
// follows the last '='.
func FilenameFromDisposition(header string) string {
	if header == "" {
		return ""
	}
	if _, params, err := mime.ParseMediaType(header); err == nil {
		if name, ok := params["filename"]; ok {
			return name
		}
	}
	i := strings.LastIndex(header, "=")
	if i < 0 {
		return ""
	}
	return strings.Trim(strings.TrimSpace(header[i+1:]), `"`)
}
