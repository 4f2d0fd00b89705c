// Package relations loads the optional JSON book-relations index: a lookup
// of which books cite (or comment on, abridge, etc.) which other books. The
// index is externally maintained and may be absent; callers treat a missing
// index as "no cross-reference repair".
package relations

import (
	"encoding/json"
	"os"
	"sort"

	"github.com/maktaba-project/maktaba/core/errors"
)

// Relation is one directed edge between two book identifiers.
type Relation struct {
	Source string `json:"source"` // the referencing book
	Target string `json:"target"` // the book being referenced
	Kind   string `json:"kind,omitempty"`
}

// Index is the parsed relations file.
type Index struct {
	Relations []Relation `json:"relations"`
}

// Load reads a relations index from a local JSON file.
func Load(path string) (*Index, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrNotFound, path)
		}
		return nil, errors.NewIO("read", path, err)
	}
	var ix Index
	if err := json.Unmarshal(data, &ix); err != nil {
		return nil, errors.Wrap(err, "parse relations index")
	}
	return &ix, nil
}

// Referencing returns the distinct books that reference target, sorted.
func (ix *Index) Referencing(target string) []string {
	seen := make(map[string]bool)
	for _, r := range ix.Relations {
		if r.Target == target && r.Source != "" {
			seen[r.Source] = true
		}
	}
	out := make([]string, 0, len(seen))
	for s := range seen {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}
