// Package index maintains a derived SQLite index of the corpus tree: one row
// per author, book, and version, with the chosen best variant and its
// recomputed statistics. The index is a cache, never a source of truth; it is
// rebuilt from the tree and safe to delete.
//
// The default build uses the pure Go modernc.org/sqlite driver; the
// cgo_sqlite build tag switches to mattn/go-sqlite3.
package index

import (
	"database/sql"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/maktaba-project/maktaba/core/errors"
	"github.com/maktaba-project/maktaba/core/metadata"
	"github.com/maktaba-project/maktaba/core/pathmap"
	"github.com/maktaba-project/maktaba/core/stats"
	"github.com/maktaba-project/maktaba/core/uri"
	"github.com/maktaba-project/maktaba/internal/corpus"
	"github.com/maktaba-project/maktaba/internal/logging"
	"github.com/maktaba-project/maktaba/internal/normalize"
)

const schema = `
CREATE TABLE IF NOT EXISTS authors (
	uri    TEXT PRIMARY KEY,
	date   TEXT NOT NULL,
	bucket TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS books (
	uri        TEXT PRIMARY KEY,
	author_uri TEXT NOT NULL REFERENCES authors(uri),
	title      TEXT NOT NULL,
	title_norm TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS versions (
	uri          TEXT PRIMARY KEY,
	book_uri     TEXT NOT NULL REFERENCES books(uri),
	language     TEXT NOT NULL,
	edition_no   TEXT NOT NULL,
	best_variant TEXT NOT NULL,
	tokens       INTEGER NOT NULL,
	chars        INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS versions_by_book ON versions(book_uri);
CREATE INDEX IF NOT EXISTS books_by_author ON books(author_uri);
`

// DriverType identifies the compiled-in SQLite implementation.
func DriverType() string { return driverType }

// Index is an open corpus index database.
type Index struct {
	Layout pathmap.Layout
	Store  *metadata.Store
	db     *sql.DB
}

// Open opens (or creates) the index database at path.
func Open(path string) (*Index, error) {
	db, err := sql.Open(driverName, path)
	if err != nil {
		return nil, errors.Wrap(err, "open index database")
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "create index schema")
	}
	return &Index{Store: &metadata.Store{}, db: db}, nil
}

// Close closes the underlying database.
func (ix *Index) Close() error { return ix.db.Close() }

// BuildStats summarizes one Build pass.
type BuildStats struct {
	Authors  int
	Books    int
	Versions int
	Skipped  int // content files whose statistics could not be computed
}

// Build rebuilds the index from the tree under root inside one transaction;
// the previous contents are dropped first, so a failed build leaves the old
// index intact.
func (ix *Index) Build(root string) (*BuildStats, error) {
	versions := make(map[string]map[uri.Extension]string)
	ids := make(map[string]uri.Identifier)

	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || corpus.IsAuxiliary(d.Name()) || strings.HasPrefix(d.Name(), ".") {
			return nil
		}
		id, perr := uri.Parse(filepath.ToSlash(p))
		if perr != nil || id.Type() != uri.TypeVersion || id.IsMetadata() {
			return nil
		}
		if id.BasePath == "" {
			id.BasePath = filepath.ToSlash(root)
		}
		key, kerr := id.Build(uri.LevelVersion)
		if kerr != nil {
			return nil
		}
		if versions[key] == nil {
			versions[key] = make(map[uri.Extension]string)
			ids[key] = id
		}
		versions[key][id.Extension()] = p
		return nil
	})
	if err != nil {
		return nil, errors.NewIO("walk", root, err)
	}

	keys := make([]string, 0, len(versions))
	for k := range versions {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	tx, err := ix.db.Begin()
	if err != nil {
		return nil, errors.Wrap(err, "begin index build")
	}
	defer tx.Rollback()

	for _, table := range []string{"versions", "books", "authors"} {
		if _, err := tx.Exec("DELETE FROM " + table); err != nil {
			return nil, errors.Wrap(err, "clear "+table)
		}
	}

	bs := &BuildStats{}
	seenAuthors := make(map[string]bool)
	seenBooks := make(map[string]bool)

	for _, key := range keys {
		id := ids[key]
		authorURI, err := id.Build(uri.LevelAuthor)
		if err != nil {
			continue
		}
		bookURI, err := id.Build(uri.LevelBook)
		if err != nil {
			continue
		}

		if !seenAuthors[authorURI] {
			bucket, berr := pathmap.BucketFor(id.Date(), ix.Layout.BucketSize)
			if berr != nil {
				bucket = ""
			}
			if _, err := tx.Exec(
				"INSERT INTO authors(uri, date, bucket) VALUES(?, ?, ?)",
				authorURI, id.Date(), bucket,
			); err != nil {
				return nil, errors.Wrap(err, "insert author")
			}
			seenAuthors[authorURI] = true
			bs.Authors++
		}
		if !seenBooks[bookURI] {
			title := ix.bookTitle(id)
			if _, err := tx.Exec(
				"INSERT INTO books(uri, author_uri, title, title_norm) VALUES(?, ?, ?, ?)",
				bookURI, authorURI, title, normalize.Arabic(title),
			); err != nil {
				return nil, errors.Wrap(err, "insert book")
			}
			seenBooks[bookURI] = true
			bs.Books++
		}

		best := bestVariant(versions[key])
		tokens, chars := 0, 0
		if best != "" {
			if n, cerr := stats.Count(best, stats.ModeToken); cerr == nil {
				tokens = n
			} else {
				bs.Skipped++
			}
			if n, cerr := stats.Count(best, stats.ModeChar); cerr == nil {
				chars = n
			}
		}
		if _, err := tx.Exec(
			"INSERT INTO versions(uri, book_uri, language, edition_no, best_variant, tokens, chars) VALUES(?, ?, ?, ?, ?, ?, ?)",
			key, bookURI, id.Language(), id.EditionNo(), filepath.ToSlash(best), tokens, chars,
		); err != nil {
			return nil, errors.Wrap(err, "insert version")
		}
		bs.Versions++
	}

	if err := tx.Commit(); err != nil {
		return nil, errors.Wrap(err, "commit index build")
	}
	logging.Info("index_built", "root", root,
		"authors", bs.Authors, "books", bs.Books, "versions", bs.Versions)
	return bs, nil
}

// bookTitle reads the Arabic title out of the book record; a missing or
// unreadable record just means no title in the index.
func (ix *Index) bookTitle(id uri.Identifier) string {
	recordPath, err := pathmap.PathFor(id, uri.LevelBookYML, ix.Layout)
	if err != nil {
		return ""
	}
	store := ix.Store
	if store == nil {
		store = &metadata.Store{}
	}
	rec, err := store.Read(recordPath)
	if err != nil {
		return ""
	}
	title, _ := rec.Get(metadata.KeyBookTitle)
	return title
}

func bestVariant(variants map[uri.Extension]string) string {
	best := ""
	rank := -1
	for ext, p := range variants {
		if r := uri.ExtensionRank(ext); r > rank {
			best = p
			rank = r
		}
	}
	return best
}

// VersionRow is one indexed version.
type VersionRow struct {
	URI         string
	BookURI     string
	Language    string
	EditionNo   string
	BestVariant string
	Tokens      int
	Chars       int
}

// Authors lists every indexed author URI, sorted.
func (ix *Index) Authors() ([]string, error) {
	return ix.stringColumn("SELECT uri FROM authors ORDER BY uri")
}

// Books lists the book URIs of one author, sorted.
func (ix *Index) Books(authorURI string) ([]string, error) {
	return ix.stringColumn("SELECT uri FROM books WHERE author_uri = ? ORDER BY uri", authorURI)
}

// Versions lists the indexed versions of one book.
func (ix *Index) Versions(bookURI string) ([]VersionRow, error) {
	return ix.versionQuery("SELECT uri, book_uri, language, edition_no, best_variant, tokens, chars FROM versions WHERE book_uri = ? ORDER BY uri", bookURI)
}

// Search returns versions whose URI contains the needle, or whose book title
// matches it under Arabic normalization.
func (ix *Index) Search(needle string) ([]VersionRow, error) {
	return ix.versionQuery(
		`SELECT v.uri, v.book_uri, v.language, v.edition_no, v.best_variant, v.tokens, v.chars
		 FROM versions v JOIN books b ON v.book_uri = b.uri
		 WHERE v.uri LIKE ? OR b.title_norm LIKE ? ORDER BY v.uri`,
		"%"+needle+"%", "%"+normalize.Arabic(needle)+"%")
}

// Totals summarizes the whole index.
type Totals struct {
	Authors  int
	Books    int
	Versions int
	Tokens   int
	Chars    int
}

// CountAll returns corpus-wide totals from the index.
func (ix *Index) CountAll() (*Totals, error) {
	t := &Totals{}
	row := ix.db.QueryRow(`SELECT
		(SELECT COUNT(*) FROM authors),
		(SELECT COUNT(*) FROM books),
		(SELECT COUNT(*) FROM versions),
		(SELECT COALESCE(SUM(tokens), 0) FROM versions),
		(SELECT COALESCE(SUM(chars), 0) FROM versions)`)
	if err := row.Scan(&t.Authors, &t.Books, &t.Versions, &t.Tokens, &t.Chars); err != nil {
		return nil, errors.Wrap(err, "query index totals")
	}
	return t, nil
}

func (ix *Index) stringColumn(query string, args ...any) ([]string, error) {
	rows, err := ix.db.Query(query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "query index")
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, errors.Wrap(err, "scan index row")
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (ix *Index) versionQuery(query string, args ...any) ([]VersionRow, error) {
	rows, err := ix.db.Query(query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "query index")
	}
	defer rows.Close()
	var out []VersionRow
	for rows.Next() {
		var v VersionRow
		if err := rows.Scan(&v.URI, &v.BookURI, &v.Language, &v.EditionNo, &v.BestVariant, &v.Tokens, &v.Chars); err != nil {
			return nil, errors.Wrap(err, "scan index row")
		}
		out = append(out, v)
	}
	return out, rows.Err()
}
