// Package pathmap computes the canonical on-disk location for any identifier
// at any granularity, and the inverse bucket naming. The mapping is a pure
// function of (identifier, level, layout) and always renders forward-slash
// separators so path strings stay byte-comparable across systems.
package pathmap

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/maktaba-project/maktaba/core/errors"
	"github.com/maktaba-project/maktaba/core/uri"
)

// DefaultBucketSize is the width of the death-date sharding range in years.
const DefaultBucketSize = 25

// dataDir is the indirection directory between a bucket and its authors.
const dataDir = "data"

// Layout selects the corpus directory convention.
type Layout struct {
	// Flat skips the bucket and data indirection entirely; authors sit
	// directly under the base path. The corpus has historically used both
	// layouts.
	Flat bool
	// BucketSize is the sharding range width; 0 means DefaultBucketSize.
	BucketSize int
}

func (l Layout) bucketSize() int {
	if l.BucketSize <= 0 {
		return DefaultBucketSize
	}
	return l.BucketSize
}

// BucketFor returns the bucket directory name for a 4-digit death date: the
// upper bound of the half-open range of width size containing the date. A
// date exactly divisible by the size is its own bucket (255 -> "0275AH",
// 300 -> "0300AH").
func BucketFor(date string, size int) (string, error) {
	d, err := strconv.Atoi(date)
	if err != nil || d < 0 {
		return "", errors.NewGrammar("date", date, errors.ReasonBadDateLength)
	}
	if size <= 0 {
		size = DefaultBucketSize
	}
	upper := ((d + size - 1) / size) * size
	if d == 0 {
		upper = size
	}
	return fmt.Sprintf("%04dAH", upper), nil
}

// PathFor returns the canonical path for the identifier at the requested
// level, rooted at the identifier's BasePath (which may be empty, yielding a
// relative path). Missing components surface as the same error kinds the
// grammar layer raises.
func PathFor(id uri.Identifier, level uri.Level, layout Layout) (string, error) {
	authorID, err := id.Build(uri.LevelAuthor)
	if err != nil {
		return "", err
	}

	authorDir := join(base(id), authorID)
	if !layout.Flat {
		bucket, err := BucketFor(id.Date(), layout.bucketSize())
		if err != nil {
			return "", err
		}
		authorDir = join(base(id), bucket, dataDir, authorID)
	}

	switch level {
	case uri.LevelAuthor:
		return authorDir, nil
	case uri.LevelDate:
		return "", errors.NewIncomplete(level.String())
	}

	bookID, err := id.Build(uri.LevelBook)
	if err != nil {
		return "", err
	}
	bookDir := join(authorDir, bookID)

	// Version-level files live inside the book directory, not in a separate
	// version subdirectory.
	switch level {
	case uri.LevelBook:
		return bookDir, nil
	case uri.LevelAuthorYML, uri.LevelBookYML, uri.LevelVersion, uri.LevelVersionYML, uri.LevelVersionFile:
		name, err := id.Build(level)
		if err != nil {
			return "", err
		}
		return join(bookDir, name), nil
	default:
		return "", errors.NewIncomplete(level.String())
	}
}

// BookDirFor returns the directory that holds a book's content and metadata
// files.
func BookDirFor(id uri.Identifier, layout Layout) (string, error) {
	return PathFor(id, uri.LevelBook, layout)
}

// AuthorDirFor returns an author's directory.
func AuthorDirFor(id uri.Identifier, layout Layout) (string, error) {
	return PathFor(id, uri.LevelAuthor, layout)
}

func base(id uri.Identifier) string {
	return strings.ReplaceAll(id.BasePath, "\\", "/")
}

// join joins path elements with forward slashes, skipping empty elements.
// filepath.Join is deliberately not used: its separator is host-dependent and
// corpus tooling compares path strings literally.
func join(elems ...string) string {
	var parts []string
	for _, e := range elems {
		e = strings.TrimSuffix(e, "/")
		if e != "" {
			parts = append(parts, e)
		}
	}
	return strings.Join(parts, "/")
}
