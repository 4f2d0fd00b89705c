package tei

import (
	"os"
	"path/filepath"
	"testing"
)

const sample = `<?xml version="1.0" encoding="UTF-8"?>
<TEI xmlns="http://www.tei-c.org/ns/1.0">
  <teiHeader>
    <fileDesc>
      <titleStmt>
        <title>Kitab al-Hayawan</title>
        <author>al-Jahiz</author>
      </titleStmt>
      <publicationStmt>
        <publisher>Dar Sader</publisher>
      </publicationStmt>
      <sourceDesc><p>Print edition, Beirut</p></sourceDesc>
    </fileDesc>
  </teiHeader>
  <text>
    <body>
      <p>First paragraph of   the text.</p>
      <p>Second paragraph.</p>
      <p>  </p>
    </body>
  </text>
</TEI>
`

func writeSample(t *testing.T, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "edition.xml")
	if err := os.WriteFile(p, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestDetect(t *testing.T) {
	h := &Handler{}
	ok, _, err := h.Detect(writeSample(t, sample))
	if err != nil || !ok {
		t.Errorf("Detect(TEI) = %v, %v", ok, err)
	}
	ok, _, err = h.Detect(writeSample(t, "<html><body>nope</body></html>"))
	if err != nil || ok {
		t.Errorf("Detect(html) = %v, %v", ok, err)
	}
}

func TestConvert(t *testing.T) {
	h := &Handler{}
	result, err := h.Convert(writeSample(t, sample))
	if err != nil {
		t.Fatal(err)
	}
	if result.Header["Title"] != "Kitab al-Hayawan" {
		t.Errorf("Title = %q", result.Header["Title"])
	}
	if result.Header["Author"] != "al-Jahiz" {
		t.Errorf("Author = %q", result.Header["Author"])
	}
	if result.Header["Publisher"] != "Dar Sader" {
		t.Errorf("Publisher = %q", result.Header["Publisher"])
	}
	if len(result.Paragraphs) != 2 {
		t.Fatalf("paragraphs = %v", result.Paragraphs)
	}
	if result.Paragraphs[0] != "First paragraph of the text." {
		t.Errorf("paragraph[0] = %q (whitespace not collapsed?)", result.Paragraphs[0])
	}
}

func TestConvertMalformed(t *testing.T) {
	h := &Handler{}
	if _, err := h.Convert(filepath.Join(t.TempDir(), "absent.xml")); err == nil {
		t.Error("Convert of a missing file should fail")
	}
}
