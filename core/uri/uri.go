// Package uri implements the typed corpus identifier: a dot-separated string
// naming an author, book, version, or version file, e.g.
//
//	0255Jahiz
//	0255Jahiz.Hayawan
//	0255Jahiz.Hayawan.Sham19Y0023775-ara1
//	0255Jahiz.Hayawan.Sham19Y0023775-ara1.completed
//
// An Identifier is an immutable value object: it can only be obtained from
// Parse or from the With* methods, each of which validates the new component
// before producing a new value. There is no way to hold an invalid Identifier.
package uri

import (
	"strings"

	"github.com/maktaba-project/maktaba/core/errors"
)

// Level selects a granularity for Build.
type Level int

const (
	// LevelDate is the bare 4-digit death date.
	LevelDate Level = iota
	// LevelAuthor is date+author, e.g. "0255Jahiz".
	LevelAuthor
	// LevelAuthorYML is the author metadata record name, e.g. "0255Jahiz.yml".
	LevelAuthorYML
	// LevelBook adds the title, e.g. "0255Jahiz.Hayawan".
	LevelBook
	// LevelBookYML is the book metadata record name.
	LevelBookYML
	// LevelVersion adds versionID-language+edition.
	LevelVersion
	// LevelVersionYML is the version metadata record name.
	LevelVersionYML
	// LevelVersionFile is the content file name, version plus extension.
	LevelVersionFile
)

// String returns the level name.
func (l Level) String() string {
	switch l {
	case LevelDate:
		return "date"
	case LevelAuthor:
		return "author"
	case LevelAuthorYML:
		return "author-metadata"
	case LevelBook:
		return "book"
	case LevelBookYML:
		return "book-metadata"
	case LevelVersion:
		return "version"
	case LevelVersionYML:
		return "version-metadata"
	case LevelVersionFile:
		return "version-file"
	default:
		return "unknown"
	}
}

// Type classifies how complete an identifier is. It is derived from which
// components are set and drives all downstream path and record decisions.
type Type int

const (
	// TypeNone means date+author are not both set.
	TypeNone Type = iota
	// TypeAuthor means date and author are set.
	TypeAuthor
	// TypeBook additionally has a title. An identifier with a version ID and
	// language but no edition number also classifies as TypeBook ("book-level
	// complete but not version-level complete").
	TypeBook
	// TypeVersion additionally has version ID, language, and edition number.
	TypeVersion
)

// String returns the type name.
func (t Type) String() string {
	switch t {
	case TypeAuthor:
		return "author"
	case TypeBook:
		return "book"
	case TypeVersion:
		return "version"
	default:
		return "none"
	}
}

// MetadataSuffix is the filename suffix of metadata record files. A trailing
// ".yml" segment marks a metadata file rather than a fifth grammar segment.
const MetadataSuffix = ".yml"

// Extension is a recognized content-file extension.
type Extension string

// The closed extension allow-list. ExtNone marks a bare content file.
const (
	ExtNone       Extension = ""
	ExtInProgress Extension = "inProgress"
	ExtCompleted  Extension = "completed"
	ExtMarkdown   Extension = "mARkdown"
	ExtPDF        Extension = "pdf"
	ExtZip        Extension = "zip"
)

var allowedExtensions = map[Extension]bool{
	ExtNone:       true,
	ExtInProgress: true,
	ExtCompleted:  true,
	ExtMarkdown:   true,
	ExtPDF:        true,
	ExtZip:        true,
}

// ExtensionRank orders text extensions by how finished the content is. Higher
// is preferred when several content variants coexist for one version.
func ExtensionRank(ext Extension) int {
	switch ext {
	case ExtMarkdown:
		return 3
	case ExtCompleted:
		return 2
	case ExtNone:
		return 1
	case ExtInProgress:
		return 0
	default:
		return -1
	}
}

// Identifier is the typed corpus identifier. The zero value is valid and
// classifies as TypeNone. BasePath is auxiliary configuration (the corpus
// root recovered from a parsed path), not part of the logical identity.
type Identifier struct {
	date      string
	author    string
	title     string
	versionID string
	language  string
	editionNo string
	extension Extension
	metadata  bool

	// BasePath is the corpus tree root this identifier was parsed under, or
	// empty when unknown. It may be reassigned freely.
	BasePath string
}

// Date returns the 4-digit death date, or "".
func (id Identifier) Date() string { return id.date }

// Author returns the author token, or "".
func (id Identifier) Author() string { return id.author }

// Title returns the book title token, or "".
func (id Identifier) Title() string { return id.title }

// VersionID returns the version identifier token, or "".
func (id Identifier) VersionID() string { return id.versionID }

// Language returns the 3-letter language code, or "".
func (id Identifier) Language() string { return id.language }

// EditionNo returns the edition number digits, or "".
func (id Identifier) EditionNo() string { return id.editionNo }

// Extension returns the content-file extension.
func (id Identifier) Extension() Extension { return id.extension }

// IsMetadata reports whether the identifier was parsed from a metadata
// record filename (a trailing ".yml").
func (id Identifier) IsMetadata() bool { return id.metadata }

// Type classifies the identifier's completeness.
func (id Identifier) Type() Type {
	if id.date == "" || id.author == "" {
		return TypeNone
	}
	if id.title == "" {
		return TypeAuthor
	}
	if id.versionID == "" || id.language == "" || id.editionNo == "" {
		return TypeBook
	}
	return TypeVersion
}

// WithDate returns a copy with the death date replaced. The date must be
// exactly 4 ASCII digits, or empty.
func (id Identifier) WithDate(date string) (Identifier, error) {
	if date != "" {
		if off := nonDigits(date); off != "" {
			return id, errors.NewGrammarOffending("date", date, off, errors.ReasonDisallowedCharacter)
		}
		if len(date) != 4 {
			return id, errors.NewGrammar("date", date, errors.ReasonBadDateLength)
		}
	}
	id.date = date
	return id, nil
}

// WithAuthor returns a copy with the author replaced. Authors are ASCII
// letters only.
func (id Identifier) WithAuthor(author string) (Identifier, error) {
	if err := checkToken("author", author, false); err != nil {
		return id, err
	}
	id.author = author
	return id, nil
}

// WithTitle returns a copy with the book title replaced. Titles are ASCII
// letters and digits (digits were admitted in the later grammar revision).
func (id Identifier) WithTitle(title string) (Identifier, error) {
	if err := checkToken("title", title, true); err != nil {
		return id, err
	}
	id.title = title
	return id, nil
}

// WithVersionID returns a copy with the version ID replaced (ASCII alnum).
func (id Identifier) WithVersionID(versionID string) (Identifier, error) {
	if err := checkToken("version_id", versionID, true); err != nil {
		return id, err
	}
	id.versionID = versionID
	return id, nil
}

// WithLanguage returns a copy with the language code replaced. The code must
// be in the recognized closed set, or empty.
func (id Identifier) WithLanguage(language string) (Identifier, error) {
	if language != "" && !KnownLanguage(language) {
		return id, errors.NewGrammar("language", language, errors.ReasonUnknownLanguage)
	}
	id.language = language
	return id, nil
}

// WithEditionNo returns a copy with the edition number replaced (digits only,
// or empty).
func (id Identifier) WithEditionNo(editionNo string) (Identifier, error) {
	if off := nonDigits(editionNo); off != "" {
		return id, errors.NewGrammarOffending("edition_no", editionNo, off, errors.ReasonDisallowedCharacter)
	}
	id.editionNo = editionNo
	return id, nil
}

// WithExtension returns a copy with the extension replaced. The extension
// must be in the allow-list; "yml" marks a metadata file and clears the
// extension instead of failing.
func (id Identifier) WithExtension(ext Extension) (Identifier, error) {
	if ext == "yml" {
		id.extension = ExtNone
		id.metadata = true
		return id, nil
	}
	if !allowedExtensions[ext] {
		return id, errors.NewGrammar("extension", string(ext), errors.ReasonDisallowedExtension)
	}
	id.extension = ext
	id.metadata = false
	return id, nil
}

// Build composes the identifier string at the requested level. It fails with
// an IncompleteError when a required component is unset. The version-file
// level uses the stored extension; see BuildVersionFile for an override.
func (id Identifier) Build(level Level) (string, error) {
	switch level {
	case LevelDate:
		if id.date == "" {
			return "", errors.NewIncomplete(level.String(), "date")
		}
		return id.date, nil

	case LevelAuthor:
		missing := missingOf(map[string]string{"date": id.date, "author": id.author})
		if len(missing) > 0 {
			return "", errors.NewIncomplete(level.String(), missing...)
		}
		return id.date + id.author, nil

	case LevelAuthorYML:
		s, err := id.Build(LevelAuthor)
		if err != nil {
			return "", err
		}
		return s + MetadataSuffix, nil

	case LevelBook:
		s, err := id.Build(LevelAuthor)
		if err != nil {
			return "", err
		}
		if id.title == "" {
			return "", errors.NewIncomplete(level.String(), "title")
		}
		return s + "." + id.title, nil

	case LevelBookYML:
		s, err := id.Build(LevelBook)
		if err != nil {
			return "", err
		}
		return s + MetadataSuffix, nil

	case LevelVersion:
		s, err := id.Build(LevelBook)
		if err != nil {
			return "", err
		}
		missing := missingOf(map[string]string{"version_id": id.versionID, "language": id.language})
		if len(missing) > 0 {
			return "", errors.NewIncomplete(level.String(), missing...)
		}
		return s + "." + id.versionID + "-" + id.language + id.editionNo, nil

	case LevelVersionYML:
		s, err := id.Build(LevelVersion)
		if err != nil {
			return "", err
		}
		return s + MetadataSuffix, nil

	case LevelVersionFile:
		return id.BuildVersionFile(id.extension)

	default:
		return "", errors.NewIncomplete("unknown")
	}
}

// BuildVersionFile composes the content filename with an explicit extension
// override. An empty override produces the bare (extensionless) filename.
func (id Identifier) BuildVersionFile(ext Extension) (string, error) {
	if !allowedExtensions[ext] {
		return "", errors.NewGrammar("extension", string(ext), errors.ReasonDisallowedExtension)
	}
	s, err := id.Build(LevelVersion)
	if err != nil {
		return "", err
	}
	if ext == ExtNone {
		return s, nil
	}
	return s + "." + string(ext), nil
}

// String renders the identifier at its most complete level, including the
// metadata suffix or extension when present. A TypeNone identifier renders
// empty.
func (id Identifier) String() string {
	var level Level
	switch id.Type() {
	case TypeAuthor:
		level = LevelAuthor
	case TypeBook:
		if id.title == "" {
			return ""
		}
		level = LevelBook
		if id.versionID != "" && id.language != "" {
			level = LevelVersion
		}
	case TypeVersion:
		level = LevelVersion
	default:
		return ""
	}
	s, err := id.Build(level)
	if err != nil {
		return ""
	}
	if id.metadata {
		return s + MetadataSuffix
	}
	if level == LevelVersion && id.extension != ExtNone {
		return s + "." + string(id.extension)
	}
	return s
}

// nonDigits returns the characters of s that are not ASCII digits.
func nonDigits(s string) string {
	var off strings.Builder
	for _, r := range s {
		if r < '0' || r > '9' {
			off.WriteRune(r)
		}
	}
	return off.String()
}

// checkToken validates an ASCII letters (optionally +digits) token. Empty is
// always accepted; clearing a component is how completeness is reduced.
func checkToken(field, s string, digitsOK bool) error {
	var nonASCII, disallowed strings.Builder
	for _, r := range s {
		switch {
		case r > 127:
			nonASCII.WriteRune(r)
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case digitsOK && r >= '0' && r <= '9':
		default:
			disallowed.WriteRune(r)
		}
	}
	if nonASCII.Len() > 0 {
		return errors.NewGrammarOffending(field, s, nonASCII.String(), errors.ReasonNonASCII)
	}
	if disallowed.Len() > 0 {
		return errors.NewGrammarOffending(field, s, disallowed.String(), errors.ReasonDisallowedCharacter)
	}
	return nil
}

func missingOf(components map[string]string) []string {
	var missing []string
	// Stable order for error messages.
	for _, name := range []string{"date", "author", "title", "version_id", "language", "edition_no"} {
		if v, ok := components[name]; ok && v == "" {
			missing = append(missing, name)
		}
	}
	return missing
}
