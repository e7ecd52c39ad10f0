package schema

// Datatype is the storage type of a Field.
type Datatype string

const (
	Text           Datatype = "Text"
	TextArea       Datatype = "TextArea"
	Html           Datatype = "Html"
	Password       Datatype = "Password"
	Email          Datatype = "Email"
	Url            Datatype = "Url"
	Integer        Datatype = "Integer"
	Decimal        Datatype = "Decimal"
	Money          Datatype = "Money"
	SelfEnumerated Datatype = "SelfEnumerated"
	Boolean        Datatype = "Boolean"
	Date           Datatype = "Date"
	DateTime       Datatype = "DateTime"
	Time           Datatype = "Time"
	Json           Datatype = "Json"
	File           Datatype = "File"
	Document       Datatype = "Document"
	Image          Datatype = "Image"
	Sound          Datatype = "Sound"
	Video          Datatype = "Video"
)

// Datatypes lists every known Datatype.
var Datatypes = []Datatype{
	Text, TextArea, Html, Password, Email, Url,
	Integer, Decimal, Money, SelfEnumerated, Boolean,
	Date, DateTime, Time, Json,
	File, Document, Image, Sound, Video,
}

// Known reports whether d is one of Datatypes.
func (d Datatype) Known() bool {
	for _, known := range Datatypes {
		if d == known {
			return true
		}
	}
	return false
}

// Binary reports whether values of d are stored as file attachments. Binary
// fields can only be searched through their extracted text.
func (d Datatype) Binary() bool {
	switch d {
	case File, Document, Sound, Video, Image:
		return true
	}
	return false
}

// Index is a kind of server side index kept for a Field.
type Index string

const (
	// Textual enables full text search.
	Textual Index = "Textual"
	// Ordenado enables ordering and range queries.
	Ordenado Index = "Ordenado"
	Unico    Index = "Unico"
	Fonetico Index = "Fonetico"
	Fuzzy    Index = "Fuzzy"
	Vazio    Index = "Vazio"
	Nenhum   Index = "Nenhum"
)

// DefaultIndices returns the indices a new field of type d gets when the
// caller does not choose any.
func DefaultIndices(d Datatype) []Index {
	if d.Binary() {
		return []Index{Textual}
	}
	return []Index{Textual, Ordenado}
}

// HasIndex reports whether idx is in indices.
func HasIndex(indices []Index, idx Index) bool {
	for _, i := range indices {
		if i == idx {
			return true
		}
	}
	return false
}
