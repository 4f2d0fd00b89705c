// Package tei converts TEI XML editions into the corpus text layout. Header
// metadata comes from the teiHeader via XPath; the body text is the
// paragraph-level elements of the TEI text element.
package tei

import (
	"os"
	"strings"

	"github.com/antchfx/xmlquery"

	"github.com/maktaba-project/maktaba/core/errors"
	"github.com/maktaba-project/maktaba/internal/formats"
)

func init() {
	formats.Register(&Handler{})
}

// Handler converts TEI XML files.
type Handler struct{}

// Name returns the registry key.
func (h *Handler) Name() string { return "tei" }

// Detect looks for a TEI root or teiHeader element rather than trusting the
// extension; plenty of .xml files are not TEI.
func (h *Handler) Detect(path string) (bool, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return false, "", errors.NewIO("read", path, err)
	}
	content := string(data)
	for _, marker := range []string{"<TEI", "<teiHeader", "<TEI.2"} {
		if strings.Contains(content, marker) {
			return true, "TEI markers detected", nil
		}
	}
	return false, "no TEI markers", nil
}

// Convert extracts title, author, and publication info from the teiHeader
// and the body paragraphs from the text element.
func (h *Handler) Convert(path string) (*formats.Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.NewIO("open", path, err)
	}
	defer f.Close()

	doc, err := xmlquery.Parse(f)
	if err != nil {
		return nil, errors.Wrap(err, "parse TEI")
	}

	result := &formats.Result{Header: make(map[string]string)}
	header := map[string]string{
		"Title":     "//*[local-name()='teiHeader']//*[local-name()='titleStmt']/*[local-name()='title']",
		"Author":    "//*[local-name()='teiHeader']//*[local-name()='titleStmt']/*[local-name()='author']",
		"Publisher": "//*[local-name()='teiHeader']//*[local-name()='publicationStmt']/*[local-name()='publisher']",
		"Source":    "//*[local-name()='teiHeader']//*[local-name()='sourceDesc']",
	}
	for key, expr := range header {
		if n := xmlquery.FindOne(doc, expr); n != nil {
			if text := collapse(n.InnerText()); text != "" {
				result.Header[key] = text
			}
		}
	}
	result.Header["ConvertedFrom"] = "tei"

	paras := xmlquery.Find(doc, "//*[local-name()='text']//*[local-name()='p']")
	if len(paras) == 0 {
		// Some editions use line groups instead of paragraphs.
		paras = xmlquery.Find(doc, "//*[local-name()='text']//*[local-name()='lg']")
	}
	for _, p := range paras {
		if text := collapse(p.InnerText()); text != "" {
			result.Paragraphs = append(result.Paragraphs, text)
		}
	}
	if len(result.Paragraphs) == 0 {
		if body := xmlquery.FindOne(doc, "//*[local-name()='body']"); body != nil {
			if text := collapse(body.InnerText()); text != "" {
				result.Paragraphs = append(result.Paragraphs, text)
			}
		}
	}
	return result, nil
}

// collapse squeezes all whitespace runs to single spaces.
func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
