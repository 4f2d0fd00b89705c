package metadata

import (
	"github.com/maktaba-project/maktaba/core/errors"
	"github.com/maktaba-project/maktaba/core/uri"
)

// Fixed keys shared across tools. The URI key value must always equal the
// canonical identifier string at the record's level; the length keys carry
// statistics recomputed from the content file.
const (
	KeyAuthorURI  = "00#AUTH#URI######:"
	KeyBookURI    = "00#BOOK#URI######:"
	KeyVersionURI = "00#VERS#URI######:"
	KeyLength     = "00#VERS#LENGTH###:" // token count
	KeyCharLength = "00#VERS#CLENGTH##:" // raw character count
	KeyBookTitle  = "10#BOOK#TITLEA#AR:"
	KeyRelated    = "30#BOOK#RELATED##:"
)

// authorTemplate lists the documented-but-empty fields of a fresh author
// record, in file order.
var authorTemplate = []string{
	KeyAuthorURI,
	"10#AUTH#ISM####AR:",
	"10#AUTH#KUNYA##AR:",
	"10#AUTH#LAQAB##AR:",
	"10#AUTH#NASAB##AR:",
	"10#AUTH#NISBA##AR:",
	"10#AUTH#SHUHRA#AR:",
	"20#AUTH#BORN###AH:",
	"20#AUTH#DIED###AH:",
	"20#AUTH#RESIDED##:",
	"40#AUTH#COMMENT##:",
	"80#AUTH#BIBLIO###:",
	"90#AUTH#EDITOR###:",
}

var bookTemplate = []string{
	KeyBookURI,
	"10#BOOK#GENRES###:",
	KeyBookTitle,
	"10#BOOK#TITLEB#AR:",
	"20#BOOK#WROTE####:",
	KeyRelated,
	"40#BOOK#COMMENT##:",
	"80#BOOK#EDITOR###:",
}

var versionTemplate = []string{
	KeyVersionURI,
	KeyLength,
	KeyCharLength,
	"80#VERS#BASED####:",
	"80#VERS#COLLATED#:",
	"80#VERS#LINKS####:",
	"90#VERS#ANNOTATOR:",
	"90#VERS#COMMENT##:",
	"90#VERS#DATE#####:",
}

// templates maps each identifier level to its record template. An explicit
// map, so template selection never goes through dynamic name lookup.
var templates = map[uri.Type][]string{
	uri.TypeAuthor:  authorTemplate,
	uri.TypeBook:    bookTemplate,
	uri.TypeVersion: versionTemplate,
}

// URIKeyFor returns the URI key for a record level.
func URIKeyFor(t uri.Type) (string, error) {
	switch t {
	case uri.TypeAuthor:
		return KeyAuthorURI, nil
	case uri.TypeBook:
		return KeyBookURI, nil
	case uri.TypeVersion:
		return KeyVersionURI, nil
	default:
		return "", errors.NewIncomplete(t.String())
	}
}

// NewFromTemplate instantiates a fresh record for the given level with the
// URI key pre-filled with the canonical identifier string.
func NewFromTemplate(t uri.Type, canonical string) (*Record, error) {
	keys, ok := templates[t]
	if !ok {
		return nil, errors.NewIncomplete(t.String())
	}
	rec := NewRecord()
	for _, k := range keys {
		rec.Set(k, "")
	}
	uriKey, err := URIKeyFor(t)
	if err != nil {
		return nil, err
	}
	rec.Set(uriKey, canonical)
	return rec, nil
}
