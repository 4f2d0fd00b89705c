// Package metadata reads and writes the per-level key-value record files that
// accompany every author, book, and version in the corpus.
//
// The format is line-oriented UTF-8. A logical entry is "KEY: VALUE" where
// the key matches ^[\w#]+: and contains at least one '#'. Continuation lines
// are indented four spaces; blank lines and list-item lines inside a value
// are preserved across read-modify-write cycles via an internal placeholder
// rune. Serialization is canonical: keys sorted, values wrapped at a fixed
// width, the URI key never wrapped.
package metadata

import (
	"os"
	"regexp"
	"sort"
	"strings"

	"github.com/maktaba-project/maktaba/core/errors"
)

// Break is the internal placeholder marking a preserved hard line break
// inside a value. Two consecutive Breaks mark a paragraph break (a blank
// line in the file); a single Break precedes a list item.
const Break = "¶"

// DefaultWrapWidth is the serialization column width.
const DefaultWrapWidth = 72

// contIndent is the continuation-line indent.
const contIndent = "    "

// keyRe recognizes a key at the start of a logical line. The '#' requirement
// is checked separately so ordinary prose ending in a colon is not mistaken
// for a key.
var keyRe = regexp.MustCompile(`^[\w#]+:`)

// Record is an ordered mapping of record keys to values. Values carry Break
// placeholders for preserved structure.
type Record struct {
	keys   []string
	values map[string]string
}

// NewRecord returns an empty record.
func NewRecord() *Record {
	return &Record{values: make(map[string]string)}
}

// Len returns the number of entries.
func (r *Record) Len() int { return len(r.keys) }

// Keys returns the keys in insertion order.
func (r *Record) Keys() []string {
	out := make([]string, len(r.keys))
	copy(out, r.keys)
	return out
}

// Get returns the value for key and whether it is present.
func (r *Record) Get(key string) (string, bool) {
	v, ok := r.values[key]
	return v, ok
}

// Set stores a value, appending the key if new.
func (r *Record) Set(key, value string) {
	if _, ok := r.values[key]; !ok {
		r.keys = append(r.keys, key)
	}
	r.values[key] = value
}

// URIKey returns the record's URI key (the key containing "#URI#"), if any.
func (r *Record) URIKey() (string, bool) {
	for _, k := range r.keys {
		if strings.Contains(k, "#URI#") {
			return k, true
		}
	}
	return "", false
}

// URI returns the stored canonical identifier string, if any.
func (r *Record) URI() (string, bool) {
	k, ok := r.URIKey()
	if !ok {
		return "", false
	}
	v, _ := r.Get(k)
	return v, true
}

// Parse parses record content. path is used only for error context. A
// whitespace-only input is a RecordEmptyError; a non-indented line that is
// not a key is a RecordParseError — bad lines are never silently skipped.
func Parse(data []byte, path string) (*Record, error) {
	if strings.TrimSpace(string(data)) == "" {
		return nil, &errors.RecordEmptyError{Path: path}
	}

	rec := NewRecord()
	var (
		key          string
		value        strings.Builder
		pendingBlank bool
	)
	flush := func() {
		if key != "" {
			rec.Set(key, strings.TrimSpace(value.String()))
			value.Reset()
		}
	}

	lines := strings.Split(strings.ReplaceAll(string(data), "\r\n", "\n"), "\n")
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		switch {
		case trimmed == "":
			if key != "" && value.Len() > 0 {
				pendingBlank = true
			}

		case keyRe.MatchString(line) && strings.Contains(line[:strings.Index(line, ":")+1], "#"):
			flush()
			colon := strings.Index(line, ":")
			key = line[:colon+1]
			value.WriteString(strings.TrimSpace(line[colon+1:]))
			pendingBlank = false

		case strings.HasPrefix(line, " ") || strings.HasPrefix(line, "\t"):
			if key == "" {
				return nil, &errors.RecordParseError{Path: path, Line: line, No: i + 1}
			}
			switch {
			case pendingBlank:
				value.WriteString(Break + Break + trimmed)
			case strings.HasPrefix(trimmed, "- ") || strings.HasPrefix(trimmed, "* "):
				value.WriteString(Break + trimmed)
			default:
				value.WriteString(" " + trimmed)
			}
			pendingBlank = false

		default:
			return nil, &errors.RecordParseError{Path: path, Line: line, No: i + 1}
		}
	}
	flush()

	if rec.Len() == 0 {
		return nil, &errors.RecordEmptyError{Path: path}
	}
	return rec, nil
}

// Store reads and writes record files with a configurable wrap width.
type Store struct {
	// WrapWidth is the serialization column width; 0 means DefaultWrapWidth.
	WrapWidth int
}

func (s *Store) width() int {
	if s.WrapWidth <= 0 {
		return DefaultWrapWidth
	}
	return s.WrapWidth
}

// Read reads and parses a record file. A missing file is a
// RecordMissingError; an empty file is a RecordEmptyError.
func (s *Store) Read(path string) (*Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &errors.RecordMissingError{Path: path}
		}
		return nil, errors.NewIO("read", path, err)
	}
	return Parse(data, path)
}

// Write serializes the record canonically and writes it to path.
func (s *Store) Write(path string, rec *Record) error {
	if err := os.WriteFile(path, []byte(s.Serialize(rec)), 0644); err != nil {
		return errors.NewIO("write", path, err)
	}
	return nil
}

// Serialize renders the record in canonical form: keys sorted
// lexicographically, values word-wrapped at the configured width with
// 4-space continuation indents, Break placeholders restored to hard line
// breaks. The URI key is never wrapped so the identifier stays a single
// contiguous token for downstream regex scraping.
func (s *Store) Serialize(rec *Record) string {
	keys := rec.Keys()
	sort.Strings(keys)

	var out strings.Builder
	for _, key := range keys {
		value, _ := rec.Get(key)
		if strings.Contains(key, "#URI#") {
			out.WriteString(key)
			if value != "" {
				out.WriteString(" " + value)
			}
			out.WriteString("\n")
			continue
		}
		out.WriteString(renderEntry(key, value, s.width()))
	}
	return out.String()
}

// renderEntry renders one key and its (possibly structured) value.
func renderEntry(key, value string, width int) string {
	var out strings.Builder
	out.WriteString(key)
	if value == "" {
		out.WriteString("\n")
		return out.String()
	}

	parts := strings.Split(value, Break)
	first := true
	paragraph := false
	for _, part := range parts {
		if part == "" {
			// An empty split element is the gap between two Breaks: a
			// paragraph marker applying to the next part.
			paragraph = true
			continue
		}
		switch {
		case first:
			out.WriteString(" ")
			out.WriteString(wrap(part, width, len(key)+1, contIndent))
			first = false
		case paragraph:
			out.WriteString("\n\n" + contIndent)
			out.WriteString(wrap(part, width, len(contIndent), contIndent))
		default:
			out.WriteString("\n" + contIndent)
			out.WriteString(wrap(part, width, len(contIndent), contIndent))
		}
		paragraph = false
	}
	out.WriteString("\n")
	return out.String()
}

// wrap greedily word-wraps text at width. The first line already carries
// prefixLen columns; continuation lines are prefixed with indent. Words are
// never broken.
func wrap(text string, width, prefixLen int, indent string) string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return ""
	}
	var out strings.Builder
	col := prefixLen
	for i, w := range words {
		if i == 0 {
			out.WriteString(w)
			col += len(w)
			continue
		}
		if col+1+len(w) > width {
			out.WriteString("\n" + indent + w)
			col = len(indent) + len(w)
		} else {
			out.WriteString(" " + w)
			col += 1 + len(w)
		}
	}
	return out.String()
}
