package errors

import (
	"fmt"
	"strings"
	"testing"
)

func TestGrammarErrorUnwrap(t *testing.T) {
	err := NewGrammar("date", "255", ReasonBadDateLength)
	if !Is(err, ErrGrammar) {
		t.Error("GrammarError should unwrap to ErrGrammar")
	}
	var ge *GrammarError
	if !As(err, &ge) {
		t.Fatal("As(*GrammarError) failed")
	}
	if ge.Reason != ReasonBadDateLength {
		t.Errorf("Reason = %v", ge.Reason)
	}
}

func TestGrammarErrorMessage(t *testing.T) {
	err := NewGrammarOffending("author", "Jāḥiẓ", "āḥẓ", ReasonNonASCII)
	msg := err.Error()
	for _, want := range []string{"author", "Jāḥiẓ", "non-ASCII", "āḥẓ"} {
		if !strings.Contains(msg, want) {
			t.Errorf("message %q missing %q", msg, want)
		}
	}
}

func TestGrammarReasonStrings(t *testing.T) {
	reasons := []GrammarReason{
		ReasonBadDateLength, ReasonNonASCII, ReasonDisallowedCharacter,
		ReasonUnknownLanguage, ReasonDisallowedExtension, ReasonTooManySegments,
		ReasonMissingAuthor, ReasonMissingLanguageSeparator,
	}
	seen := make(map[string]bool)
	for _, r := range reasons {
		s := r.String()
		if s == "unknown reason" {
			t.Errorf("reason %d has no name", r)
		}
		if seen[s] {
			t.Errorf("duplicate reason name %q", s)
		}
		seen[s] = true
	}
	if GrammarReason(99).String() != "unknown reason" {
		t.Error("out-of-range reason should render as unknown")
	}
}

func TestIncompleteError(t *testing.T) {
	err := NewIncomplete("version", "version_id", "language")
	if !Is(err, ErrIncomplete) {
		t.Error("IncompleteError should unwrap to ErrIncomplete")
	}
	msg := err.Error()
	if !strings.Contains(msg, "version_id, language") {
		t.Errorf("message = %q", msg)
	}
	if got := NewIncomplete("book").Error(); strings.Contains(got, "missing") {
		t.Errorf("no-missing message = %q", got)
	}
}

func TestRecordErrors(t *testing.T) {
	tests := []struct {
		err      error
		sentinel error
	}{
		{&RecordParseError{Path: "a.yml", Line: "bad", No: 3}, ErrRecordParse},
		{&RecordMissingError{Path: "a.yml"}, ErrRecordMissing},
		{&RecordEmptyError{Path: "a.yml"}, ErrRecordEmpty},
	}
	for _, tt := range tests {
		if !Is(tt.err, tt.sentinel) {
			t.Errorf("%T should unwrap to %v", tt.err, tt.sentinel)
		}
		if !strings.Contains(tt.err.Error(), "a.yml") {
			t.Errorf("%T message lacks path: %q", tt.err, tt.err.Error())
		}
	}
}

func TestBasePathError(t *testing.T) {
	bare := &BasePathError{Path: "/corpus"}
	if !Is(bare, ErrBasePath) {
		t.Error("bare BasePathError should unwrap to ErrBasePath")
	}
	inner := fmt.Errorf("boom")
	wrapped := &BasePathError{Path: "/corpus", Err: inner}
	if !Is(wrapped, inner) {
		t.Error("wrapping BasePathError should unwrap to the inner error")
	}
}

func TestIOErrorUnwrap(t *testing.T) {
	inner := fmt.Errorf("disk gone")
	err := NewIO("read", "/tmp/x", inner)
	if !Is(err, inner) {
		t.Error("IOError should unwrap to the inner error")
	}
	if !strings.Contains(err.Error(), "read") || !strings.Contains(err.Error(), "/tmp/x") {
		t.Errorf("message = %q", err.Error())
	}
}

func TestWrap(t *testing.T) {
	if Wrap(nil, "ctx") != nil {
		t.Error("Wrap(nil) should be nil")
	}
	err := Wrap(ErrNotFound, "loading index")
	if !Is(err, ErrNotFound) {
		t.Error("Wrap should preserve the chain")
	}
	if Wrapf(nil, "x %d", 1) != nil {
		t.Error("Wrapf(nil) should be nil")
	}
}
