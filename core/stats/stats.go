// Package stats computes the content statistics stored in version metadata
// records, and reads the corpus header block of content files.
package stats

import (
	"bufio"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/maktaba-project/maktaba/core/errors"
)

// HeaderEnd is the marker line closing the corpus header block of a content
// file. Statistics are computed over the body that follows it.
const HeaderEnd = "#META#Header#End#"

// headerPrefix marks corpus header lines.
const headerPrefix = "#META#"

// Mode selects the statistic Count computes.
type Mode string

const (
	// ModeToken counts whitespace-separated tokens.
	ModeToken Mode = "token"
	// ModeChar counts raw characters (runes).
	ModeChar Mode = "char"
)

// Count computes the requested statistic over the body of a content file.
// When the file carries a corpus header, only text after the HeaderEnd
// marker is counted.
func Count(path string, mode Mode) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, errors.NewIO("open", path, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	inHeader := false
	firstLine := true
	total := 0
	for scanner.Scan() {
		line := scanner.Text()
		if firstLine {
			firstLine = false
			if strings.HasPrefix(line, headerPrefix) {
				inHeader = true
			}
		}
		if inHeader {
			if strings.TrimSpace(line) == HeaderEnd {
				inHeader = false
			}
			continue
		}
		switch mode {
		case ModeChar:
			total += utf8.RuneCountInString(line) + 1 // +1 for the line break
		default:
			total += len(strings.Fields(line))
		}
	}
	if err := scanner.Err(); err != nil {
		return 0, errors.NewIO("scan", path, err)
	}
	return total, nil
}

// ReadHeader returns the corpus header lines of a content file: every line
// up to and including the HeaderEnd marker. A file without a header yields
// an empty slice.
func ReadHeader(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.NewIO("open", path, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	var header []string
	first := true
	for scanner.Scan() {
		line := scanner.Text()
		if first {
			first = false
			if !strings.HasPrefix(line, headerPrefix) {
				return nil, nil
			}
		}
		header = append(header, line)
		if strings.TrimSpace(line) == HeaderEnd {
			return header, nil
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.NewIO("scan", path, err)
	}
	// Header never terminated; return what was read.
	return header, nil
}

// HasHeader reports whether the file opens with a corpus header block.
func HasHeader(path string) (bool, error) {
	header, err := ReadHeader(path)
	if err != nil {
		return false, err
	}
	return len(header) > 0, nil
}
