package metadata

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/maktaba-project/maktaba/core/errors"
	"github.com/maktaba-project/maktaba/core/uri"
)

func TestParseSimple(t *testing.T) {
	data := []byte("00#VERS#URI######: 0255Jahiz.Hayawan.Sham19-ara1\n00#VERS#LENGTH###: 123456\n")
	rec, err := Parse(data, "test.yml")
	if err != nil {
		t.Fatal(err)
	}
	if rec.Len() != 2 {
		t.Fatalf("Len() = %d", rec.Len())
	}
	if v, _ := rec.Get(KeyVersionURI); v != "0255Jahiz.Hayawan.Sham19-ara1" {
		t.Errorf("URI value = %q", v)
	}
	if v, _ := rec.Get(KeyLength); v != "123456" {
		t.Errorf("LENGTH value = %q", v)
	}
	got, ok := rec.URI()
	if !ok || got != "0255Jahiz.Hayawan.Sham19-ara1" {
		t.Errorf("URI() = %q, %v", got, ok)
	}
}

func TestParseContinuations(t *testing.T) {
	data := []byte(strings.Join([]string{
		"40#AUTH#COMMENT##: first line",
		"    soft wrapped continuation",
		"",
		"    second paragraph",
		"    - list item one",
		"    - list item two",
		"",
	}, "\n"))
	rec, err := Parse(data, "test.yml")
	if err != nil {
		t.Fatal(err)
	}
	v, _ := rec.Get("40#AUTH#COMMENT##:")
	want := "first line soft wrapped continuation" + Break + Break +
		"second paragraph" + Break + "- list item one" + Break + "- list item two"
	if v != want {
		t.Errorf("value = %q, want %q", v, want)
	}
}

func TestParseRejectsEmpty(t *testing.T) {
	for _, data := range []string{"", "   \n\n\t\n"} {
		_, err := Parse([]byte(data), "e.yml")
		if !errors.Is(err, errors.ErrRecordEmpty) {
			t.Errorf("Parse(%q) error = %v, want ErrRecordEmpty", data, err)
		}
	}
}

func TestParseRejectsStrayLine(t *testing.T) {
	data := []byte("00#BOOK#URI######: 0255Jahiz.Hayawan\nnot a key and not indented\n")
	_, err := Parse(data, "bad.yml")
	var pe *errors.RecordParseError
	if !errors.As(err, &pe) {
		t.Fatalf("error = %v, want *RecordParseError", err)
	}
	if pe.No != 2 {
		t.Errorf("line no = %d, want 2", pe.No)
	}
}

func TestParseKeyNeedsHash(t *testing.T) {
	// A colon-terminated word without '#' is prose, not a key.
	data := []byte("note: this is not a record key\n")
	if _, err := Parse(data, "x.yml"); err == nil {
		t.Fatal("expected parse error for hash-less key line")
	}
}

func TestSerializeRoundTripIdempotent(t *testing.T) {
	rec := NewRecord()
	rec.Set(KeyBookURI, "0255Jahiz.Hayawan")
	rec.Set("40#BOOK#COMMENT##:", "a long comment that will certainly need to be wrapped across "+
		"several physical lines because it keeps going and going"+Break+Break+
		"second paragraph here"+Break+"- first item"+Break+"- second item")
	rec.Set("10#BOOK#GENRES###:", "")

	store := &Store{}
	first := store.Serialize(rec)

	reparsed, err := Parse([]byte(first), "round.yml")
	if err != nil {
		t.Fatalf("reparse: %v", err)
	}
	second := store.Serialize(reparsed)
	if first != second {
		t.Errorf("serialization not idempotent:\nfirst:\n%s\nsecond:\n%s", first, second)
	}
}

func TestSerializeSortsKeys(t *testing.T) {
	rec := NewRecord()
	rec.Set("90#VERS#COMMENT##:", "later")
	rec.Set(KeyVersionURI, "0255Jahiz.Hayawan.Sham19-ara1")
	out := (&Store{}).Serialize(rec)
	if !strings.HasPrefix(out, KeyVersionURI) {
		t.Errorf("keys not sorted, output:\n%s", out)
	}
}

func TestSerializeNeverWrapsURIKey(t *testing.T) {
	longURI := "0255Jahiz.HayawanHayawanHayawanHayawan.Sham19Y0023775001122334455-ara1"
	rec := NewRecord()
	rec.Set(KeyVersionURI, longURI)
	out := (&Store{WrapWidth: 40}).Serialize(rec)
	if strings.Count(out, "\n") != 1 {
		t.Errorf("URI entry wrapped:\n%s", out)
	}
	if !strings.Contains(out, longURI) {
		t.Errorf("URI broken apart:\n%s", out)
	}
}

func TestSerializeWrapWidth(t *testing.T) {
	rec := NewRecord()
	rec.Set("40#AUTH#COMMENT##:", strings.Repeat("word ", 40))
	out := (&Store{}).Serialize(rec)
	for _, line := range strings.Split(out, "\n") {
		if len(line) > DefaultWrapWidth {
			t.Errorf("line exceeds wrap width: %q", line)
		}
	}
	if !strings.Contains(out, "\n"+contIndent+"word") {
		t.Errorf("no indented continuation produced:\n%s", out)
	}
}

func TestStoreReadMissingAndEmpty(t *testing.T) {
	dir := t.TempDir()
	store := &Store{}

	_, err := store.Read(filepath.Join(dir, "absent.yml"))
	if !errors.Is(err, errors.ErrRecordMissing) {
		t.Errorf("missing file error = %v, want ErrRecordMissing", err)
	}

	empty := filepath.Join(dir, "empty.yml")
	if err := os.WriteFile(empty, []byte("  \n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := store.Read(empty); !errors.Is(err, errors.ErrRecordEmpty) {
		t.Errorf("empty file error = %v, want ErrRecordEmpty", err)
	}
}

func TestStoreWriteRead(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "0255Jahiz.Hayawan.yml")
	store := &Store{}

	rec, err := NewFromTemplate(uri.TypeBook, "0255Jahiz.Hayawan")
	if err != nil {
		t.Fatal(err)
	}
	if err := store.Write(p, rec); err != nil {
		t.Fatal(err)
	}
	got, err := store.Read(p)
	if err != nil {
		t.Fatal(err)
	}
	if v, _ := got.Get(KeyBookURI); v != "0255Jahiz.Hayawan" {
		t.Errorf("URI after round trip = %q", v)
	}
	if got.Len() != len(bookTemplate) {
		t.Errorf("Len() = %d, want %d", got.Len(), len(bookTemplate))
	}
}

func TestNewFromTemplate(t *testing.T) {
	tests := []struct {
		typ    uri.Type
		uriKey string
	}{
		{uri.TypeAuthor, KeyAuthorURI},
		{uri.TypeBook, KeyBookURI},
		{uri.TypeVersion, KeyVersionURI},
	}
	for _, tt := range tests {
		rec, err := NewFromTemplate(tt.typ, "canonical")
		if err != nil {
			t.Fatalf("NewFromTemplate(%v): %v", tt.typ, err)
		}
		if v, _ := rec.Get(tt.uriKey); v != "canonical" {
			t.Errorf("%v URI key = %q", tt.typ, v)
		}
	}
	if _, err := NewFromTemplate(uri.TypeNone, "x"); err == nil {
		t.Error("NewFromTemplate(TypeNone) should fail")
	}
}

func TestURIKeyFor(t *testing.T) {
	if _, err := URIKeyFor(uri.TypeNone); err == nil {
		t.Error("URIKeyFor(TypeNone) should fail")
	}
	k, err := URIKeyFor(uri.TypeVersion)
	if err != nil || k != KeyVersionURI {
		t.Errorf("URIKeyFor(version) = %q, %v", k, err)
	}
}
