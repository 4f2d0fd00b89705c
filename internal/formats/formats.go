// Package formats converts external source formats (TEI XML, HTML) into the
// corpus text layout: a #META# header block followed by paragraph-structured
// plain text. Handlers register themselves by name; detection inspects the
// file rather than trusting its extension.
package formats

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/maktaba-project/maktaba/core/stats"
)

// Result is one converted document.
type Result struct {
	// Header holds the #META# key/value lines for the output header block.
	Header map[string]string
	// Paragraphs is the body text, one element per paragraph.
	Paragraphs []string
}

// Render serializes the result in the corpus text layout: sorted #META#
// lines, the header terminator, then "# "-prefixed paragraphs.
func (r *Result) Render() string {
	var b strings.Builder
	keys := make([]string, 0, len(r.Header))
	for k := range r.Header {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, "#META# %s :: %s\n", k, r.Header[k])
	}
	b.WriteString(stats.HeaderEnd + "\n\n")
	for _, p := range r.Paragraphs {
		b.WriteString("# " + p + "\n\n")
	}
	return b.String()
}

// Handler converts one external format.
type Handler interface {
	// Name is the registry key ("tei", "html").
	Name() string
	// Detect reports whether path looks like this handler's format, with a
	// short reason either way.
	Detect(path string) (bool, string, error)
	// Convert reads path and produces the corpus-layout result.
	Convert(path string) (*Result, error)
}

var (
	mu       sync.RWMutex
	handlers = make(map[string]Handler)
)

// Register adds a handler to the registry. Duplicate names panic; handlers
// register from init and a collision is a programming error.
func Register(h Handler) {
	mu.Lock()
	defer mu.Unlock()
	if _, dup := handlers[h.Name()]; dup {
		panic("formats: duplicate handler " + h.Name())
	}
	handlers[h.Name()] = h
}

// Lookup returns the handler registered under name.
func Lookup(name string) (Handler, bool) {
	mu.RLock()
	defer mu.RUnlock()
	h, ok := handlers[name]
	return h, ok
}

// Names lists the registered handler names, sorted.
func Names() []string {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]string, 0, len(handlers))
	for n := range handlers {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Detect runs every registered handler against path and returns the first
// (in name order) that claims it.
func Detect(path string) (Handler, error) {
	for _, name := range Names() {
		h, _ := Lookup(name)
		ok, _, err := h.Detect(path)
		if err != nil {
			return nil, err
		}
		if ok {
			return h, nil
		}
	}
	return nil, fmt.Errorf("no handler recognizes %s", path)
}
