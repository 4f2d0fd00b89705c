// Package corpus knows the fixed non-identifier files of the corpus tree
// (auxiliary docs per book directory) and provides tree initialization.
package corpus

import (
	"fmt"
	"os"
	"path"

	"github.com/maktaba-project/maktaba/core/errors"
	"github.com/maktaba-project/maktaba/core/pathmap"
)

// The two fixed auxiliary filenames that may exist per book directory. They
// carry no identifier of their own and are excluded from identifier parsing.
const (
	ReadmeName        = "README.md"
	QuestionnaireName = "text_questionnaire.md"
)

const readmeTemplate = `# Book directory

Content files and their metadata records for one book. Filenames are corpus
identifiers; see the project documentation before renaming anything by hand.
`

const questionnaireTemplate = `# Text questionnaire

- Source of the digital text:
- Transcription verified against the print edition:
- Known gaps or damaged passages:
- Notes:
`

// IsAuxiliary reports whether name is one of the fixed auxiliary docs.
func IsAuxiliary(name string) bool {
	return name == ReadmeName || name == QuestionnaireName
}

// EnsureAuxiliaryDocs creates the auxiliary docs in bookDir from their
// templates when absent. It returns the paths it created.
func EnsureAuxiliaryDocs(bookDir string) ([]string, error) {
	var created []string
	docs := []struct {
		name, content string
	}{
		{ReadmeName, readmeTemplate},
		{QuestionnaireName, questionnaireTemplate},
	}
	for _, d := range docs {
		p := path.Join(bookDir, d.name)
		if _, err := os.Stat(p); err == nil {
			continue
		} else if !os.IsNotExist(err) {
			return created, errors.NewIO("stat", p, err)
		}
		if err := os.WriteFile(p, []byte(d.content), 0644); err != nil {
			return created, errors.NewIO("write", p, err)
		}
		created = append(created, p)
	}
	return created, nil
}

// InitBuckets creates the bucket/data skeleton under base for all death
// dates up to maxDate. It is a no-op for a flat layout.
func InitBuckets(base string, maxDate int, layout pathmap.Layout) error {
	if _, err := os.Stat(base); err != nil {
		return &errors.BasePathError{Path: base, Err: err}
	}
	if layout.Flat {
		return nil
	}
	size := layout.BucketSize
	if size <= 0 {
		size = pathmap.DefaultBucketSize
	}
	for upper := size; upper <= maxDate; upper += size {
		dir := path.Join(base, fmt.Sprintf("%04dAH", upper), "data")
		if err := os.MkdirAll(dir, 0755); err != nil {
			return errors.NewIO("mkdir", dir, err)
		}
	}
	return nil
}
