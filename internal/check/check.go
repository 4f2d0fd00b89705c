// Package check walks a corpus subtree and verifies that every content file
// has matching, internally consistent metadata records. It is split into a
// pure read phase (Scan) and a write phase (Apply); confirmation between the
// two is the caller's concern. Scan never raises on data it merely reports
// on, and Apply is idempotent: a second pass over a repaired tree finds
// nothing left to fix.
package check

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/maktaba-project/maktaba/core/errors"
	"github.com/maktaba-project/maktaba/core/metadata"
	"github.com/maktaba-project/maktaba/core/pathmap"
	"github.com/maktaba-project/maktaba/core/stats"
	"github.com/maktaba-project/maktaba/core/uri"
	"github.com/maktaba-project/maktaba/internal/corpus"
	"github.com/maktaba-project/maktaba/internal/logging"
	"github.com/maktaba-project/maktaba/internal/osfs"
)

// FindingKind classifies a repairable defect.
type FindingKind int

const (
	// MissingRecord: no record file at the computed path. Fix: instantiate
	// from the level template.
	MissingRecord FindingKind = iota
	// EmptyRecord: the record file exists but holds nothing. Same fix as
	// MissingRecord.
	EmptyRecord
	// URIMismatch: the record's URI key differs from the canonical
	// identifier. Fix: overwrite with the canonical value.
	URIMismatch
	// StatsDrift: a stored statistic is empty, non-numeric, or stale.
	// Fix: overwrite with the freshly computed value.
	StatsDrift
	// NonCanonical: the record parses but its stored bytes differ from the
	// canonical serialization (key order, wrapping). Fix: rewrite in place.
	NonCanonical
)

// String returns the finding kind name.
func (k FindingKind) String() string {
	switch k {
	case MissingRecord:
		return "missing-record"
	case EmptyRecord:
		return "empty-record"
	case URIMismatch:
		return "uri-mismatch"
	case StatsDrift:
		return "stats-drift"
	case NonCanonical:
		return "non-canonical"
	default:
		return "unknown"
	}
}

// Finding is one repairable defect with its proposed fix.
type Finding struct {
	Kind       FindingKind
	Level      uri.Type // record level the finding applies to
	URI        string   // canonical identifier string at that level
	RecordPath string
	Key        string // record key to rewrite (empty for whole-record fixes)
	Want       string // value the fix will write
	Have       string // current value, for reporting
}

// Describe renders the finding for a dry-run preview.
func (f Finding) Describe() string {
	switch f.Kind {
	case MissingRecord, EmptyRecord:
		return fmt.Sprintf("%s: %s (create from %s template)", f.Kind, f.RecordPath, f.Level)
	case NonCanonical:
		return fmt.Sprintf("%s: %s (rewrite in canonical form)", f.Kind, f.RecordPath)
	default:
		return fmt.Sprintf("%s: %s %s: %q -> %q", f.Kind, f.RecordPath, f.Key, f.Have, f.Want)
	}
}

// UnreadableRecord is a record that failed to parse. These go to a
// manual-review list and are never auto-repaired.
type UnreadableRecord struct {
	Path string
	Err  string
}

// Report is the outcome of a Scan.
type Report struct {
	Root          string
	Findings      []Finding
	NonIdentifier []string           // files whose names are not identifiers; informational only
	Unreadable    []UnreadableRecord // manual review, never auto-fixed
	FilesSeen     int
}

// HasFixes reports whether Apply would write anything.
func (r *Report) HasFixes() bool { return len(r.Findings) > 0 }

// ApplyResult summarizes an Apply pass.
type ApplyResult struct {
	Created   []string
	Rewritten []string
	Errors    []string
}

// Checker verifies a corpus subtree.
type Checker struct {
	Layout pathmap.Layout
	Store  *metadata.Store
}

// New returns a Checker with the default layout and record store.
func New() *Checker {
	return &Checker{Store: &metadata.Store{}}
}

// versionFiles gathers the content-file variants discovered for one version.
type versionFiles struct {
	id       uri.Identifier
	variants map[uri.Extension]string // extension -> path
}

// Scan walks root and collects findings without writing anything.
func (c *Checker) Scan(root string) (*Report, error) {
	if err := osfs.CheckDir(root); err != nil {
		return nil, &errors.BasePathError{Path: root, Err: err}
	}

	report := &Report{Root: root}
	versions := make(map[string]*versionFiles)

	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		name := d.Name()
		if corpus.IsAuxiliary(name) || strings.HasPrefix(name, ".") {
			return nil
		}
		report.FilesSeen++

		id, perr := uri.Parse(filepath.ToSlash(p))
		if perr != nil {
			// Many legitimate non-corpus files coexist in the tree.
			report.NonIdentifier = append(report.NonIdentifier, filepath.ToSlash(p))
			return nil
		}
		if id.Type() != uri.TypeVersion || id.IsMetadata() {
			return nil
		}
		if id.BasePath == "" {
			id.BasePath = filepath.ToSlash(root)
		}

		key, kerr := id.Build(uri.LevelVersion)
		if kerr != nil {
			return nil
		}
		vf, ok := versions[key]
		if !ok {
			vf = &versionFiles{id: id, variants: make(map[uri.Extension]string)}
			versions[key] = vf
		}
		vf.variants[id.Extension()] = filepath.ToSlash(p)
		return nil
	})
	if err != nil {
		return nil, errors.NewIO("walk", root, err)
	}

	// Deterministic order regardless of discovery order.
	keys := make([]string, 0, len(versions))
	for k := range versions {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	// Book- and author-level records are shared by every version beneath
	// them; the same defect must appear once, not once per version.
	seen := make(map[string]bool)
	for _, k := range keys {
		c.checkVersion(report, seen, versions[k])
	}

	logging.ScanEvent(root, report.FilesSeen, len(report.Findings),
		"non_identifier", len(report.NonIdentifier),
		"unreadable", len(report.Unreadable))
	return report, nil
}

// addFinding appends f unless an identical (kind, record, key) finding is
// already in the report.
func addFinding(report *Report, seen map[string]bool, f Finding) {
	k := f.Kind.String() + "|" + f.RecordPath + "|" + f.Key
	if seen[k] {
		return
	}
	seen[k] = true
	report.Findings = append(report.Findings, f)
}

func addUnreadable(report *Report, seen map[string]bool, u UnreadableRecord) {
	k := "unreadable|" + u.Path
	if seen[k] {
		return
	}
	seen[k] = true
	report.Unreadable = append(report.Unreadable, u)
}

// checkVersion runs the per-level record checks for one discovered version.
func (c *Checker) checkVersion(report *Report, seen map[string]bool, vf *versionFiles) {
	levels := []struct {
		t   uri.Type
		lvl uri.Level
		yml uri.Level
	}{
		{uri.TypeVersion, uri.LevelVersion, uri.LevelVersionYML},
		{uri.TypeBook, uri.LevelBook, uri.LevelBookYML},
		{uri.TypeAuthor, uri.LevelAuthor, uri.LevelAuthorYML},
	}

	for _, level := range levels {
		canonical, err := vf.id.Build(level.lvl)
		if err != nil {
			continue
		}
		recordPath, err := pathmap.PathFor(vf.id, level.yml, c.Layout)
		if err != nil {
			continue
		}

		rec, rerr := c.Store.Read(recordPath)
		switch {
		case errors.Is(rerr, errors.ErrRecordMissing), errors.Is(rerr, errors.ErrRecordEmpty):
			kind := MissingRecord
			if errors.Is(rerr, errors.ErrRecordEmpty) {
				kind = EmptyRecord
			}
			addFinding(report, seen, Finding{
				Kind: kind, Level: level.t, URI: canonical, RecordPath: recordPath,
			})
			// The templated replacement has empty statistics; emit the drift
			// fixes now so a single repair pass writes a complete record.
			if level.t == uri.TypeVersion {
				if fresh, terr := metadata.NewFromTemplate(uri.TypeVersion, canonical); terr == nil {
					c.checkStats(report, seen, vf, canonical, recordPath, fresh)
				}
			}
			continue
		case rerr != nil:
			// Too risky to guess; humans sort these out.
			addUnreadable(report, seen, UnreadableRecord{Path: recordPath, Err: rerr.Error()})
			continue
		}

		if raw, rawErr := os.ReadFile(recordPath); rawErr == nil && string(raw) != c.Store.Serialize(rec) {
			addFinding(report, seen, Finding{
				Kind: NonCanonical, Level: level.t, URI: canonical, RecordPath: recordPath,
			})
		}

		uriKey, kerr := metadata.URIKeyFor(level.t)
		if kerr != nil {
			continue
		}
		have, _ := rec.Get(uriKey)
		if have != canonical {
			addFinding(report, seen, Finding{
				Kind: URIMismatch, Level: level.t, URI: canonical,
				RecordPath: recordPath, Key: uriKey, Have: have, Want: canonical,
			})
		}

		if level.t == uri.TypeVersion {
			c.checkStats(report, seen, vf, canonical, recordPath, rec)
		}
	}
}

// checkStats compares the stored LENGTH/CLENGTH statistics against counts
// recomputed from the most finished content variant present.
func (c *Checker) checkStats(report *Report, seen map[string]bool, vf *versionFiles, canonical, recordPath string, rec *metadata.Record) {
	contentPath := BestVariant(vf.variants)
	if contentPath == "" {
		return
	}

	for _, st := range []struct {
		key  string
		mode stats.Mode
	}{
		{metadata.KeyLength, stats.ModeToken},
		{metadata.KeyCharLength, stats.ModeChar},
	} {
		want, err := stats.Count(contentPath, st.mode)
		if err != nil {
			addUnreadable(report, seen, UnreadableRecord{Path: contentPath, Err: err.Error()})
			return
		}
		have, _ := rec.Get(st.key)
		if n, err := strconv.Atoi(have); err == nil && n == want {
			continue
		}
		addFinding(report, seen, Finding{
			Kind: StatsDrift, Level: uri.TypeVersion, URI: canonical,
			RecordPath: recordPath, Key: st.key, Have: have, Want: strconv.Itoa(want),
		})
	}
}

// BestVariant picks the most finished text variant of a version:
// mARkdown > completed > bare > inProgress. Binary variants never qualify.
func BestVariant(variants map[uri.Extension]string) string {
	best := ""
	bestRank := -1
	for ext, p := range variants {
		if r := uri.ExtensionRank(ext); r > bestRank {
			best = p
			bestRank = r
		}
	}
	return best
}

// Apply executes every proposed fix in the report. Individual failures are
// collected, not raised; a batch tool must survive malformed real-world data.
func (c *Checker) Apply(report *Report) (*ApplyResult, error) {
	result := &ApplyResult{}
	for _, f := range report.Findings {
		if err := c.applyFinding(f, result); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", f.RecordPath, err))
		}
	}
	return result, nil
}

func (c *Checker) applyFinding(f Finding, result *ApplyResult) error {
	switch f.Kind {
	case MissingRecord, EmptyRecord:
		rec, err := metadata.NewFromTemplate(f.Level, f.URI)
		if err != nil {
			return err
		}
		if err := osfs.EnsureParent(f.RecordPath); err != nil {
			return err
		}
		if err := c.Store.Write(f.RecordPath, rec); err != nil {
			return err
		}
		logging.RepairEvent(f.Kind.String(), f.RecordPath, "uri", f.URI)
		result.Created = append(result.Created, f.RecordPath)
		return nil

	case URIMismatch, StatsDrift, NonCanonical:
		rec, err := c.Store.Read(f.RecordPath)
		if err != nil {
			if errors.Is(err, errors.ErrRecordMissing) || errors.Is(err, errors.ErrRecordEmpty) {
				// The record vanished (or was created empty) since the scan;
				// recreate it and carry the fix.
				rec, err = metadata.NewFromTemplate(f.Level, f.URI)
				if err != nil {
					return err
				}
			} else {
				return err
			}
		}
		if f.Key != "" {
			rec.Set(f.Key, f.Want)
		}
		if err := c.Store.Write(f.RecordPath, rec); err != nil {
			return err
		}
		logging.RepairEvent(f.Kind.String(), f.RecordPath, "key", f.Key, "value", f.Want)
		result.Rewritten = append(result.Rewritten, f.RecordPath)
		return nil

	default:
		return fmt.Errorf("unknown finding kind %d", f.Kind)
	}
}
