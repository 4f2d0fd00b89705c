// Package html converts HTML editions into the corpus text layout with a
// regex-driven extraction: title from the title element, paragraphs from p
// blocks, tags stripped and entities unescaped.
package html

import (
	stdhtml "html"
	"os"
	"regexp"
	"strings"

	"github.com/maktaba-project/maktaba/core/errors"
	"github.com/maktaba-project/maktaba/internal/formats"
)

func init() {
	formats.Register(&Handler{})
}

// Handler converts HTML files.
type Handler struct{}

// Name returns the registry key.
func (h *Handler) Name() string { return "html" }

var (
	titlePattern = regexp.MustCompile(`(?is)<title[^>]*>(.*?)</title>`)
	paraPattern  = regexp.MustCompile(`(?is)<p[^>]*>(.*?)</p>`)
	tagPattern   = regexp.MustCompile(`(?s)<[^>]*>`)
	htmlMarker   = regexp.MustCompile(`(?i)<(!doctype\s+html|html|body|p)[\s>]`)
	scriptBlock  = regexp.MustCompile(`(?is)<(script|style)[^>]*>.*?</(script|style)>`)
)

// Detect accepts files with an html doctype or structural tags.
func (h *Handler) Detect(path string) (bool, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return false, "", errors.NewIO("read", path, err)
	}
	if htmlMarker.Match(data) {
		return true, "HTML markers detected", nil
	}
	return false, "no HTML markers", nil
}

// Convert extracts the title and the p-block paragraphs. A page without p
// blocks falls back to the whole stripped document.
func (h *Handler) Convert(path string) (*formats.Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.NewIO("read", path, err)
	}
	content := scriptBlock.ReplaceAllString(string(data), " ")

	result := &formats.Result{Header: map[string]string{"ConvertedFrom": "html"}}
	if m := titlePattern.FindStringSubmatch(content); len(m) > 1 {
		if title := clean(m[1]); title != "" {
			result.Header["Title"] = title
		}
	}

	for _, m := range paraPattern.FindAllStringSubmatch(content, -1) {
		if text := clean(m[1]); text != "" {
			result.Paragraphs = append(result.Paragraphs, text)
		}
	}
	if len(result.Paragraphs) == 0 {
		if text := clean(content); text != "" {
			result.Paragraphs = append(result.Paragraphs, text)
		}
	}
	return result, nil
}

// clean strips tags, unescapes entities, and collapses whitespace.
func clean(s string) string {
	s = tagPattern.ReplaceAllString(s, " ")
	s = stdhtml.UnescapeString(s)
	return strings.Join(strings.Fields(s), " ")
}
