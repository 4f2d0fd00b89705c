// Package errors provides the error taxonomy shared by the maktaba core and
// the batch tools built on top of it. The grammar and path layers always
// raise; the batch tools (check, rename) accumulate reports and only raise on
// structural preconditions.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors. Typed errors below unwrap to one of these so callers can
// discriminate with errors.Is without matching message text.
var (
	// ErrGrammar indicates an identifier string violates the component grammar.
	ErrGrammar = errors.New("identifier grammar violation")
	// ErrIncomplete indicates a URI or path was requested for a level whose
	// required components are not all set.
	ErrIncomplete = errors.New("incomplete identifier")
	// ErrRecordParse indicates a metadata file does not match the key-value grammar.
	ErrRecordParse = errors.New("metadata record parse failure")
	// ErrRecordMissing indicates a metadata record file is absent.
	ErrRecordMissing = errors.New("metadata record missing")
	// ErrRecordEmpty indicates a metadata record file is empty.
	ErrRecordEmpty = errors.New("metadata record empty")
	// ErrBasePath indicates a configured corpus root does not exist.
	ErrBasePath = errors.New("corpus base path does not exist")
	// ErrNotFound indicates a resource was not found.
	ErrNotFound = errors.New("not found")
)

// GrammarReason is the closed set of identifier validation failures.
type GrammarReason int

const (
	// ReasonBadDateLength: death date is set but not exactly 4 ASCII digits.
	ReasonBadDateLength GrammarReason = iota
	// ReasonNonASCII: a component contains non-ASCII characters.
	ReasonNonASCII
	// ReasonDisallowedCharacter: a component contains ASCII characters outside
	// its allowed class (e.g. punctuation in an author name).
	ReasonDisallowedCharacter
	// ReasonUnknownLanguage: the language code is not in the recognized set.
	ReasonUnknownLanguage
	// ReasonDisallowedExtension: the extension is not in the allow-list.
	ReasonDisallowedExtension
	// ReasonTooManySegments: more than 4 dot-separated segments.
	ReasonTooManySegments
	// ReasonMissingAuthor: the first segment has no author after the date digits.
	ReasonMissingAuthor
	// ReasonMissingLanguageSeparator: the version segment has no "-" before the
	// language-edition token.
	ReasonMissingLanguageSeparator
)

// String returns a stable name for the reason.
func (r GrammarReason) String() string {
	switch r {
	case ReasonBadDateLength:
		return "bad date length"
	case ReasonNonASCII:
		return "non-ASCII character"
	case ReasonDisallowedCharacter:
		return "disallowed character"
	case ReasonUnknownLanguage:
		return "unknown language code"
	case ReasonDisallowedExtension:
		return "disallowed extension"
	case ReasonTooManySegments:
		return "too many segments"
	case ReasonMissingAuthor:
		return "missing author after date"
	case ReasonMissingLanguageSeparator:
		return "missing language separator"
	default:
		return "unknown reason"
	}
}

// GrammarError reports an identifier component that failed validation.
type GrammarError struct {
	Field     string        // Component name (e.g. "author", "language")
	Value     string        // The offending value
	Offending string        // The offending characters within Value, if applicable
	Reason    GrammarReason // Structured failure reason
}

func (e *GrammarError) Error() string {
	msg := fmt.Sprintf("invalid %s %q: %s", e.Field, e.Value, e.Reason)
	if e.Offending != "" {
		msg += fmt.Sprintf(" (offending: %q)", e.Offending)
	}
	return msg
}

func (e *GrammarError) Unwrap() error {
	return ErrGrammar
}

// NewGrammar creates a GrammarError.
func NewGrammar(field, value string, reason GrammarReason) *GrammarError {
	return &GrammarError{Field: field, Value: value, Reason: reason}
}

// NewGrammarOffending creates a GrammarError recording the offending characters.
func NewGrammarOffending(field, value, offending string, reason GrammarReason) *GrammarError {
	return &GrammarError{Field: field, Value: value, Offending: offending, Reason: reason}
}

// IncompleteError reports a URI or path request against an identifier that
// lacks the components required for the requested level.
type IncompleteError struct {
	Level   string   // Requested level (e.g. "version")
	Missing []string // Component names that are unset
}

func (e *IncompleteError) Error() string {
	if len(e.Missing) > 0 {
		return fmt.Sprintf("identifier incomplete for %s level: missing %s",
			e.Level, strings.Join(e.Missing, ", "))
	}
	return fmt.Sprintf("identifier incomplete for %s level", e.Level)
}

func (e *IncompleteError) Unwrap() error {
	return ErrIncomplete
}

// NewIncomplete creates an IncompleteError.
func NewIncomplete(level string, missing ...string) *IncompleteError {
	return &IncompleteError{Level: level, Missing: missing}
}

// RecordParseError reports a metadata record line that matches no key pattern.
// The offending line is always included; bad metadata is never silently skipped.
type RecordParseError struct {
	Path string // Record file path, if known
	Line string // The offending line
	No   int    // 1-based line number
}

func (e *RecordParseError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("malformed metadata record %s: line %d: %q", e.Path, e.No, e.Line)
	}
	return fmt.Sprintf("malformed metadata record: line %d: %q", e.No, e.Line)
}

func (e *RecordParseError) Unwrap() error {
	return ErrRecordParse
}

// RecordMissingError reports an absent metadata record file.
type RecordMissingError struct {
	Path string
}

func (e *RecordMissingError) Error() string {
	return fmt.Sprintf("metadata record missing: %s", e.Path)
}

func (e *RecordMissingError) Unwrap() error {
	return ErrRecordMissing
}

// RecordEmptyError reports a metadata record file with no content.
type RecordEmptyError struct {
	Path string
}

func (e *RecordEmptyError) Error() string {
	return fmt.Sprintf("metadata record empty: %s", e.Path)
}

func (e *RecordEmptyError) Unwrap() error {
	return ErrRecordEmpty
}

// BasePathError reports a corpus root that does not exist. This is fatal and
// raised before any mutation.
type BasePathError struct {
	Path string
	Err  error
}

func (e *BasePathError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("corpus base path %s: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("corpus base path does not exist: %s", e.Path)
}

func (e *BasePathError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrBasePath
}

// IOError represents an I/O operation error with context.
type IOError struct {
	Operation string // Operation being performed (e.g. "read", "rename")
	Path      string // File path involved
	Err       error  // Underlying error
}

func (e *IOError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("failed to %s %s: %v", e.Operation, e.Path, e.Err)
	}
	return fmt.Sprintf("failed to %s: %v", e.Operation, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// NewIO creates an IOError.
func NewIO(operation, path string, err error) *IOError {
	return &IOError{Operation: operation, Path: path, Err: err}
}

// Wrap adds context to an error. If err is nil, returns nil.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf adds formatted context to an error. If err is nil, returns nil.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// Is wraps errors.Is for convenience.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As wraps errors.As for convenience.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
