package uri

import (
	"regexp"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"

	"github.com/maktaba-project/maktaba/core/errors"
)

// uriGrammar is the participle grammar for the identifier string.
// Examples: "0255Jahiz", "0255Jahiz.Hayawan",
// "0255Jahiz.Hayawan.Sham19Y0023775-ara1.completed"
//
//nolint:govet // participle grammar tags are not standard struct tags
type uriGrammar struct {
	Date   string       `@Digits?`
	Author string       `@Letters`
	Book   *bookSegment `( "." @@ )?`
}

//nolint:govet // participle grammar tags are not standard struct tags
type bookSegment struct {
	Title   string          `( @Letters | @Digits )+`
	Version *versionSegment `( "." @@ )?`
}

//nolint:govet // participle grammar tags are not standard struct tags
type versionSegment struct {
	ID        string       `( @Letters | @Digits )+`
	Language  string       `"-" @Letters?`
	EditionNo string       `@Digits?`
	File      *fileSegment `( "." @@ )?`
}

//nolint:govet // participle grammar tags are not standard struct tags
type fileSegment struct {
	Extension string `( @Letters | @Digits )+`
}

var uriLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Digits", Pattern: `[0-9]+`},
	{Name: "Letters", Pattern: `[A-Za-z]+`},
	{Name: "Punct", Pattern: `[.\-]`},
})

var uriParser = participle.MustBuild[uriGrammar](
	participle.Lexer(uriLexer),
)

// bucketRe matches a corpus bucket directory name: 4 digits plus the fixed
// era suffix, e.g. "0275AH".
var bucketRe = regexp.MustCompile(`^[0-9]{4}AH$`)

// Parse parses a bare identifier string or a full filesystem path. For a
// path, the corpus bucket ancestor recovers BasePath and the basename is
// parsed as the identifier; in flat layouts (no bucket ancestor) BasePath is
// left empty. All failures are *errors.GrammarError.
func Parse(raw string) (Identifier, error) {
	var id Identifier

	s := strings.ReplaceAll(raw, "\\", "/")
	if strings.Contains(s, "/") {
		parts := strings.Split(s, "/")
		for i, p := range parts[:len(parts)-1] {
			if bucketRe.MatchString(p) {
				id.BasePath = strings.Join(parts[:i], "/")
				break
			}
		}
		s = parts[len(parts)-1]
	}

	if s == "" {
		return id, errors.NewGrammar("identifier", raw, errors.ReasonMissingAuthor)
	}
	if off := nonASCIIOf(s); off != "" {
		return id, errors.NewGrammarOffending("identifier", s, off, errors.ReasonNonASCII)
	}
	if n := strings.Count(s, "."); n > 3 {
		return id, errors.NewGrammar("identifier", s, errors.ReasonTooManySegments)
	}

	// A trailing ".yml" marks a metadata record, not a grammar segment.
	if strings.HasSuffix(s, MetadataSuffix) {
		s = strings.TrimSuffix(s, MetadataSuffix)
		id.metadata = true
	}

	segments := strings.Split(s, ".")

	// Diagnose the shape failures that the grammar reports only generically.
	first := segments[0]
	author := strings.TrimLeft(first, "0123456789")
	if author == "" {
		return id, errors.NewGrammar("identifier", s, errors.ReasonMissingAuthor)
	}
	// Digits are legal in later segments but never inside the author name;
	// the grammar alone would reject this with no offending characters.
	if off := digitsOf(author); off != "" {
		return id, errors.NewGrammarOffending("author", author, off, errors.ReasonDisallowedCharacter)
	}
	if len(segments) >= 3 && !strings.Contains(segments[2], "-") {
		return id, errors.NewGrammar("version", segments[2], errors.ReasonMissingLanguageSeparator)
	}

	parsed, err := uriParser.ParseString("", s)
	if err != nil {
		return id, errors.NewGrammarOffending("identifier", s, disallowedOf(s), errors.ReasonDisallowedCharacter)
	}

	if id, err = id.WithDate(parsed.Date); err != nil {
		return Identifier{}, err
	}
	if id, err = id.WithAuthor(parsed.Author); err != nil {
		return Identifier{}, err
	}
	if parsed.Book != nil {
		if id, err = id.WithTitle(parsed.Book.Title); err != nil {
			return Identifier{}, err
		}
		if v := parsed.Book.Version; v != nil {
			if id, err = id.WithVersionID(v.ID); err != nil {
				return Identifier{}, err
			}
			if id, err = id.WithLanguage(v.Language); err != nil {
				return Identifier{}, err
			}
			if id, err = id.WithEditionNo(v.EditionNo); err != nil {
				return Identifier{}, err
			}
			if v.File != nil {
				meta := id.metadata
				if id, err = id.WithExtension(Extension(v.File.Extension)); err != nil {
					return Identifier{}, err
				}
				id.metadata = id.metadata || meta
			}
		}
	}
	return id, nil
}

// nonASCIIOf returns the non-ASCII characters of s.
func nonASCIIOf(s string) string {
	var off strings.Builder
	for _, r := range s {
		if r > 127 {
			off.WriteRune(r)
		}
	}
	return off.String()
}

// digitsOf returns the digit characters of s.
func digitsOf(s string) string {
	var off strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			off.WriteRune(r)
		}
	}
	return off.String()
}

// disallowedOf returns the characters of s outside the identifier alphabet
// (ASCII alnum, dot, dash).
func disallowedOf(s string) string {
	var off strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-':
		default:
			off.WriteRune(r)
		}
	}
	return off.String()
}
