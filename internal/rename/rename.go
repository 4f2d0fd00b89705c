// Package rename relocates every on-disk entity affected by an identifier
// change — content files, metadata records, auxiliary docs — and rewrites the
// identifiers embedded in metadata. The work is split into a pure planning
// phase and an apply phase: Plan enumerates every intended operation without
// touching the tree, Apply verifies the staged sources (existence and BLAKE3
// digest) before the first move and only then commits. After the commit
// point individual failures are logged and summarized, never raised
// mid-walk.
package rename

import (
	"encoding/hex"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/zeebo/blake3"

	"github.com/maktaba-project/maktaba/core/errors"
	"github.com/maktaba-project/maktaba/core/metadata"
	"github.com/maktaba-project/maktaba/core/pathmap"
	"github.com/maktaba-project/maktaba/core/uri"
	"github.com/maktaba-project/maktaba/internal/archive"
	"github.com/maktaba-project/maktaba/internal/corpus"
	"github.com/maktaba-project/maktaba/internal/logging"
	"github.com/maktaba-project/maktaba/internal/osfs"
	"github.com/maktaba-project/maktaba/internal/relations"
	"github.com/maktaba-project/maktaba/internal/validation"
)

// MoveKind classifies one planned relocation.
type MoveKind int

const (
	// MoveContent relocates a content file; its extension is preserved from
	// the original file.
	MoveContent MoveKind = iota
	// MoveRecord relocates a metadata record and rewrites its URI key.
	MoveRecord
	// MoveAux relocates an auxiliary doc; it carries no identifier, so its
	// target directory is the one computed for its relocated siblings.
	MoveAux
	// MoveOpaque relocates a file (or whole directory) whose name is not an
	// identifier, carrying the name over unchanged.
	MoveOpaque
)

// String returns the move kind name.
func (k MoveKind) String() string {
	switch k {
	case MoveContent:
		return "content"
	case MoveRecord:
		return "record"
	case MoveAux:
		return "aux"
	case MoveOpaque:
		return "opaque"
	default:
		return "unknown"
	}
}

// Move is one planned relocation.
type Move struct {
	Kind   MoveKind
	Source string
	Target string
	// Level and NewURI apply to MoveRecord: the record level and the
	// canonical identifier to write into its URI key.
	Level  uri.Type
	NewURI string
	// Digest is the BLAKE3 digest of the source at plan time; Apply refuses
	// to start if any source changed or vanished since planning.
	Digest string
	// Dir marks a whole-directory opaque move.
	Dir bool
}

// RelationFix is one cross-reference rewrite in a referencing book's record.
type RelationFix struct {
	Source string // record path under the old base
	Target string // record path under the new base (same as Source when bases match)
	OldURI string
	NewURI string
}

// Plan enumerates everything an Apply will do.
type Plan struct {
	ID            string
	OldURI        string
	NewURI        string
	Scope         uri.Type
	Moves         []Move
	RemoveDirs    []string
	EnsureAuxDirs []string
	Relations     []RelationFix
	BackupDirs    []string
	Skipped       []string // names carried over unchanged or left in place

	old uri.Identifier
	new uri.Identifier
}

// Describe renders the plan for a dry-run preview, one line per operation.
func (p *Plan) Describe() []string {
	var lines []string
	lines = append(lines, fmt.Sprintf("rename %s -> %s (%s scope)", p.OldURI, p.NewURI, p.Scope))
	for _, m := range p.Moves {
		lines = append(lines, fmt.Sprintf("  move [%s] %s -> %s", m.Kind, m.Source, m.Target))
	}
	for _, d := range p.RemoveDirs {
		lines = append(lines, fmt.Sprintf("  remove directory %s", d))
	}
	for _, r := range p.Relations {
		lines = append(lines, fmt.Sprintf("  rewrite relation %s -> %s in %s", r.OldURI, r.NewURI, r.Source))
	}
	return lines
}

// MoveFailure records one relocation that failed after the commit point.
type MoveFailure struct {
	Move Move
	Err  string
}

// Report summarizes an Apply pass.
type Report struct {
	PlanID             string
	Moved              []Move
	Failed             []MoveFailure
	RemovedDirs        []string
	AuxCreated         []string
	RelationsRewritten []string
	SkippedRemovals    []string
}

// OK reports whether every planned operation succeeded.
func (r *Report) OK() bool { return len(r.Failed) == 0 }

// Transaction plans and applies identifier renames.
type Transaction struct {
	Layout pathmap.Layout
	Store  *metadata.Store
	// BasePath is the fallback corpus root when identifiers are given as
	// bare strings rather than paths.
	BasePath string
	// Relations is the optional book-relations index for cross-reference
	// repair on book-level renames.
	Relations *relations.Index
}

// New returns a Transaction with the default layout and record store.
func New() *Transaction {
	return &Transaction{Store: &metadata.Store{}}
}

// ApplyOptions tunes the apply phase.
type ApplyOptions struct {
	// BackupDir, when set, receives a tar.xz snapshot of each affected
	// directory before any move.
	BackupDir string
}

// Plan parses the old and new identifiers (bare strings or full paths, each
// possibly under its own corpus copy) and enumerates every relocation the
// rename requires. It reads the tree but never writes. A missing target
// corpus root is fatal here, before anything else.
func (t *Transaction) Plan(oldRaw, newRaw string) (*Plan, error) {
	old, err := uri.Parse(oldRaw)
	if err != nil {
		return nil, err
	}
	new, err := uri.Parse(newRaw)
	if err != nil {
		return nil, err
	}
	if old.BasePath == "" {
		old.BasePath = t.BasePath
	}
	if new.BasePath == "" {
		new.BasePath = old.BasePath
	}
	if new.BasePath == "" {
		return nil, &errors.BasePathError{Path: ""}
	}
	if err := osfs.CheckDir(new.BasePath); err != nil {
		return nil, &errors.BasePathError{Path: new.BasePath, Err: err}
	}

	plan := &Plan{
		ID:    uuid.NewString(),
		Scope: new.Type(),
		old:   old,
		new:   new,
	}
	if plan.OldURI = old.String(); plan.OldURI == "" {
		return nil, errors.NewIncomplete("rename source")
	}
	if plan.NewURI = new.String(); plan.NewURI == "" {
		return nil, errors.NewIncomplete("rename target")
	}

	switch plan.Scope {
	case uri.TypeVersion:
		err = t.planVersion(plan)
	case uri.TypeBook, uri.TypeAuthor:
		err = t.planSubtree(plan)
	default:
		err = errors.NewIncomplete("rename target", "date", "author")
	}
	if err != nil {
		return nil, err
	}
	return plan, nil
}

// planVersion handles the narrow scope: only files directly inside the old
// book directory whose identifier-minus-extension matches the old version.
func (t *Transaction) planVersion(plan *Plan) error {
	oldVersion, err := plan.old.Build(uri.LevelVersion)
	if err != nil {
		return err
	}
	newVersion, err := plan.new.Build(uri.LevelVersion)
	if err != nil {
		return err
	}
	oldBookDir, err := pathmap.BookDirFor(plan.old, t.Layout)
	if err != nil {
		return err
	}
	newBookDir, err := pathmap.BookDirFor(plan.new, t.Layout)
	if err != nil {
		return err
	}

	// An extension-only rename targets one specific content file.
	if oldVersion == newVersion && plan.old.Extension() != plan.new.Extension() {
		oldName, err := plan.old.BuildVersionFile(plan.old.Extension())
		if err != nil {
			return err
		}
		newName, err := plan.new.BuildVersionFile(plan.new.Extension())
		if err != nil {
			return err
		}
		plan.addMove(Move{
			Kind:   MoveContent,
			Source: path.Join(oldBookDir, oldName),
			Target: path.Join(newBookDir, newName),
		})
		plan.EnsureAuxDirs = append(plan.EnsureAuxDirs, newBookDir)
		plan.BackupDirs = append(plan.BackupDirs, oldBookDir)
		return nil
	}

	names, err := sortedNames(oldBookDir)
	if err != nil {
		return err
	}
	for _, name := range names {
		if corpus.IsAuxiliary(name) {
			continue
		}
		parsed, perr := uri.Parse(name)
		if perr != nil || parsed.VersionID() == "" {
			continue
		}
		canonical, berr := parsed.Build(uri.LevelVersion)
		if berr != nil || canonical != oldVersion {
			continue
		}
		source := path.Join(oldBookDir, name)
		if parsed.IsMetadata() {
			newName, berr := plan.new.Build(uri.LevelVersionYML)
			if berr != nil {
				return berr
			}
			plan.addMove(Move{
				Kind:   MoveRecord,
				Source: source,
				Target: path.Join(newBookDir, newName),
				Level:  uri.TypeVersion,
				NewURI: newVersion,
			})
			continue
		}
		// Extension preserved from the original file, not from the target
		// identifier.
		newName, berr := plan.new.BuildVersionFile(parsed.Extension())
		if berr != nil {
			return berr
		}
		plan.addMove(Move{
			Kind:   MoveContent,
			Source: source,
			Target: path.Join(newBookDir, newName),
		})
	}

	plan.EnsureAuxDirs = append(plan.EnsureAuxDirs, newBookDir)
	plan.BackupDirs = append(plan.BackupDirs, oldBookDir)
	return nil
}

// planSubtree handles book- and author-level renames: the entire old subtree
// is walked, every file's own identifier is cloned with the changed
// components overwritten, and the old directory is removed afterwards.
func (t *Transaction) planSubtree(plan *Plan) error {
	var scopeDir string
	var bookDirs []string

	switch plan.Scope {
	case uri.TypeBook:
		dir, err := pathmap.BookDirFor(plan.old, t.Layout)
		if err != nil {
			return err
		}
		scopeDir = dir
		bookDirs = []string{dir}
	case uri.TypeAuthor:
		dir, err := pathmap.AuthorDirFor(plan.old, t.Layout)
		if err != nil {
			return err
		}
		scopeDir = dir
		names, err := sortedNames(dir)
		if err != nil {
			return err
		}
		newAuthorDir, err := pathmap.AuthorDirFor(plan.new, t.Layout)
		if err != nil {
			return err
		}
		for _, name := range names {
			p := path.Join(dir, name)
			info, serr := os.Stat(p)
			if serr != nil {
				continue
			}
			if info.IsDir() {
				bookDirs = append(bookDirs, p)
				continue
			}
			// Stray files directly under the author directory carry over
			// unchanged.
			plan.addMove(Move{Kind: MoveOpaque, Source: p, Target: path.Join(newAuthorDir, name)})
			plan.Skipped = append(plan.Skipped, name)
		}
	}

	for _, bookDir := range bookDirs {
		if err := t.planBookDir(plan, bookDir); err != nil {
			return err
		}
	}

	plan.RemoveDirs = append(plan.RemoveDirs, scopeDir)
	plan.BackupDirs = append(plan.BackupDirs, scopeDir)

	if plan.Scope == uri.TypeBook && t.Relations != nil {
		t.planRelations(plan)
	}
	return nil
}

// planBookDir plans the relocation of every file in one old book directory.
func (t *Transaction) planBookDir(plan *Plan, bookDir string) error {
	bookName := path.Base(bookDir)
	parsedBook, err := uri.Parse(bookName)
	if err != nil || parsedBook.Title() == "" {
		// A directory that is not a book identifier moves wholesale,
		// unchanged, into the new author directory.
		newAuthorDir, derr := pathmap.AuthorDirFor(plan.new, t.Layout)
		if derr != nil {
			return derr
		}
		plan.addDirMove(Move{Kind: MoveOpaque, Source: bookDir, Target: path.Join(newAuthorDir, bookName), Dir: true})
		plan.Skipped = append(plan.Skipped, bookName)
		return nil
	}

	newBook, err := t.cloneOnto(parsedBook, plan)
	if err != nil {
		return err
	}
	newBookDir, err := pathmap.BookDirFor(newBook, t.Layout)
	if err != nil {
		return err
	}
	newAuthorURI, err := newBook.Build(uri.LevelAuthor)
	if err != nil {
		return err
	}
	newBookURI, err := newBook.Build(uri.LevelBook)
	if err != nil {
		return err
	}

	names, err := sortedNames(bookDir)
	if err != nil {
		return err
	}
	var aux []string
	for _, name := range names {
		if corpus.IsAuxiliary(name) {
			aux = append(aux, name)
			continue
		}
		source := path.Join(bookDir, name)
		parsed, perr := uri.Parse(name)
		if perr != nil {
			plan.addMove(Move{Kind: MoveOpaque, Source: source, Target: path.Join(newBookDir, name)})
			plan.Skipped = append(plan.Skipped, name)
			continue
		}

		clone, cerr := t.cloneOnto(parsed, plan)
		if cerr != nil {
			return cerr
		}
		switch {
		case parsed.VersionID() != "" && parsed.IsMetadata():
			target, berr := clone.Build(uri.LevelVersionYML)
			if berr != nil {
				return berr
			}
			newVersionURI, _ := clone.Build(uri.LevelVersion)
			plan.addMove(Move{
				Kind: MoveRecord, Source: source, Target: path.Join(newBookDir, target),
				Level: uri.TypeVersion, NewURI: newVersionURI,
			})
		case parsed.VersionID() != "":
			target, berr := clone.BuildVersionFile(parsed.Extension())
			if berr != nil {
				return berr
			}
			plan.addMove(Move{Kind: MoveContent, Source: source, Target: path.Join(newBookDir, target)})
		case parsed.Title() != "" && parsed.IsMetadata():
			target, berr := clone.Build(uri.LevelBookYML)
			if berr != nil {
				return berr
			}
			plan.addMove(Move{
				Kind: MoveRecord, Source: source, Target: path.Join(newBookDir, target),
				Level: uri.TypeBook, NewURI: newBookURI,
			})
		case parsed.IsMetadata():
			target, berr := clone.Build(uri.LevelAuthorYML)
			if berr != nil {
				return berr
			}
			plan.addMove(Move{
				Kind: MoveRecord, Source: source, Target: path.Join(newBookDir, target),
				Level: uri.TypeAuthor, NewURI: newAuthorURI,
			})
		default:
			plan.addMove(Move{Kind: MoveOpaque, Source: source, Target: path.Join(newBookDir, name)})
			plan.Skipped = append(plan.Skipped, name)
		}
	}

	// Auxiliary docs carry no identifier of their own: they are deferred to
	// last and follow their relocated siblings into the new book directory.
	for _, name := range aux {
		plan.addMove(Move{Kind: MoveAux, Source: path.Join(bookDir, name), Target: path.Join(newBookDir, name)})
	}
	plan.EnsureAuxDirs = append(plan.EnsureAuxDirs, newBookDir)
	return nil
}

// cloneOnto overwrites the changed components of a per-file identifier:
// date and author always, title additionally on a book-level rename. The
// clone inherits the new corpus base.
func (t *Transaction) cloneOnto(parsed uri.Identifier, plan *Plan) (uri.Identifier, error) {
	clone, err := parsed.WithDate(plan.new.Date())
	if err != nil {
		return clone, err
	}
	clone, err = clone.WithAuthor(plan.new.Author())
	if err != nil {
		return clone, err
	}
	if plan.Scope == uri.TypeBook {
		clone, err = clone.WithTitle(plan.new.Title())
		if err != nil {
			return clone, err
		}
	}
	clone.BasePath = plan.new.BasePath
	return clone, nil
}

// planRelations enumerates cross-reference rewrites for a book-level rename.
func (t *Transaction) planRelations(plan *Plan) {
	oldBook, err := plan.old.Build(uri.LevelBook)
	if err != nil {
		return
	}
	newBook, err := plan.new.Build(uri.LevelBook)
	if err != nil {
		return
	}
	for _, ref := range t.Relations.Referencing(oldBook) {
		refID, perr := uri.Parse(ref)
		if perr != nil || refID.Title() == "" {
			plan.Skipped = append(plan.Skipped, "relation:"+ref)
			continue
		}
		refID.BasePath = plan.old.BasePath
		source, perr := pathmap.PathFor(refID, uri.LevelBookYML, t.Layout)
		if perr != nil {
			continue
		}
		target := source
		if plan.new.BasePath != plan.old.BasePath {
			refID.BasePath = plan.new.BasePath
			if p, perr := pathmap.PathFor(refID, uri.LevelBookYML, t.Layout); perr == nil {
				target = p
			}
		}
		plan.Relations = append(plan.Relations, RelationFix{
			Source: source, Target: target, OldURI: oldBook, NewURI: newBook,
		})
	}
}

func (p *Plan) addMove(m Move) {
	if d, err := fileDigest(m.Source); err == nil {
		m.Digest = d
	}
	p.Moves = append(p.Moves, m)
}

func (p *Plan) addDirMove(m Move) {
	p.Moves = append(p.Moves, m)
}

// Apply executes the plan. It re-verifies the target base, then checks that
// every staged source still exists with its planned digest; only then does
// it start moving. Failures after the commit point are collected and
// summarized in the report.
func (t *Transaction) Apply(plan *Plan, opts ApplyOptions) (*Report, error) {
	if err := osfs.CheckDir(plan.new.BasePath); err != nil {
		return nil, &errors.BasePathError{Path: plan.new.BasePath, Err: err}
	}
	if err := verifyStage(plan); err != nil {
		return nil, err
	}

	if opts.BackupDir != "" {
		for _, dir := range plan.BackupDirs {
			dst := filepath.Join(opts.BackupDir, path.Base(dir)+"-"+plan.ID+".tar.xz")
			if err := archive.Snapshot(dir, dst); err != nil {
				return nil, errors.Wrap(err, "snapshot before rename")
			}
		}
	}

	report := &Report{PlanID: plan.ID}
	for _, m := range plan.Moves {
		var err error
		switch {
		case m.Dir:
			err = os.Rename(m.Source, m.Target)
		case m.Kind == MoveRecord:
			err = t.moveRecord(m)
		default:
			err = osfs.MoveFile(m.Source, m.Target)
		}
		if err != nil {
			logging.MoveError(m.Source, m.Target, err)
			report.Failed = append(report.Failed, MoveFailure{Move: m, Err: err.Error()})
			continue
		}
		logging.MoveEvent(m.Source, m.Target, "kind", m.Kind.String())
		report.Moved = append(report.Moved, m)
	}

	for _, dir := range plan.RemoveDirs {
		if !report.OK() {
			// Never delete a directory some of whose files failed to leave.
			report.SkippedRemovals = append(report.SkippedRemovals, dir)
			continue
		}
		if err := os.RemoveAll(dir); err != nil {
			report.Failed = append(report.Failed, MoveFailure{
				Move: Move{Kind: MoveOpaque, Source: dir, Dir: true},
				Err:  err.Error(),
			})
			continue
		}
		report.RemovedDirs = append(report.RemovedDirs, dir)
	}

	for _, dir := range plan.EnsureAuxDirs {
		created, err := corpus.EnsureAuxiliaryDocs(dir)
		if err != nil {
			report.Failed = append(report.Failed, MoveFailure{
				Move: Move{Kind: MoveAux, Target: dir},
				Err:  err.Error(),
			})
		}
		report.AuxCreated = append(report.AuxCreated, created...)
	}

	for _, fix := range plan.Relations {
		if err := t.applyRelationFix(fix); err != nil {
			report.Failed = append(report.Failed, MoveFailure{
				Move: Move{Kind: MoveRecord, Source: fix.Source, Target: fix.Target},
				Err:  err.Error(),
			})
			continue
		}
		report.RelationsRewritten = append(report.RelationsRewritten, fix.Target)
	}

	return report, nil
}

// moveRecord relocates a metadata record, rewriting its URI key on the way.
// A record that no longer parses moves byte-for-byte instead; rewriting a
// file we cannot read back is how data gets lost.
func (t *Transaction) moveRecord(m Move) error {
	rec, err := t.Store.Read(m.Source)
	if err != nil {
		logging.Warn("relocating unreadable record without rewrite",
			"source", m.Source, "error", err.Error())
		return osfs.MoveFile(m.Source, m.Target)
	}
	uriKey, err := metadata.URIKeyFor(m.Level)
	if err != nil {
		return err
	}
	rec.Set(uriKey, m.NewURI)
	if err := osfs.EnsureParent(m.Target); err != nil {
		return err
	}
	if err := t.Store.Write(m.Target, rec); err != nil {
		return err
	}
	if err := os.Remove(m.Source); err != nil {
		return errors.NewIO("remove", m.Source, err)
	}
	return nil
}

// applyRelationFix rewrites every occurrence of the old book URI in a
// referencing book's record, relocating the record when the base changed.
func (t *Transaction) applyRelationFix(fix RelationFix) error {
	rec, err := t.Store.Read(fix.Source)
	if err != nil {
		return err
	}
	for _, key := range rec.Keys() {
		v, _ := rec.Get(key)
		if strings.Contains(v, fix.OldURI) {
			rec.Set(key, strings.ReplaceAll(v, fix.OldURI, fix.NewURI))
		}
	}
	if err := osfs.EnsureParent(fix.Target); err != nil {
		return err
	}
	if err := t.Store.Write(fix.Target, rec); err != nil {
		return err
	}
	if fix.Target != fix.Source {
		if err := os.Remove(fix.Source); err != nil {
			return errors.NewIO("remove", fix.Source, err)
		}
	}
	return nil
}

// verifyStage confirms every staged source still exists with its planned
// digest and every target is a creatable path. Any discrepancy aborts the
// transaction before the first move.
func verifyStage(plan *Plan) error {
	var problems []string
	for _, m := range plan.Moves {
		if err := validation.ValidatePath(m.Target); err != nil {
			problems = append(problems, m.Target+": "+err.Error())
			continue
		}
		if !m.Dir {
			if err := validation.ValidateFilename(path.Base(m.Target)); err != nil {
				problems = append(problems, m.Target+": "+err.Error())
				continue
			}
		}
		if m.Dir {
			if err := osfs.CheckDir(m.Source); err != nil {
				problems = append(problems, m.Source+": "+err.Error())
			}
			continue
		}
		d, err := fileDigest(m.Source)
		if err != nil {
			problems = append(problems, m.Source+": "+err.Error())
			continue
		}
		if m.Digest != "" && d != m.Digest {
			problems = append(problems, m.Source+": changed since planning")
		}
	}
	if len(problems) > 0 {
		return fmt.Errorf("stage verification failed, nothing moved: %s", strings.Join(problems, "; "))
	}
	return nil
}

// fileDigest returns the hex BLAKE3 digest of a file's contents.
func fileDigest(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// sortedNames lists the entries of dir in lexical order. Walk order is
// deliberately explicit so previews and tests are reproducible.
func sortedNames(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.NewIO("read dir", dir, err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}
