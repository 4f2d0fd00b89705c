// Command maktaba is the CLI for the corpus toolkit: identifier parsing,
// consistency checking and repair, rename transactions, the derived SQLite
// index, text statistics, and format conversion.
package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/maktaba-project/maktaba/core/pathmap"
	"github.com/maktaba-project/maktaba/core/stats"
	"github.com/maktaba-project/maktaba/core/uri"
	"github.com/maktaba-project/maktaba/internal/check"
	"github.com/maktaba-project/maktaba/internal/config"
	"github.com/maktaba-project/maktaba/internal/corpus"
	"github.com/maktaba-project/maktaba/internal/formats"
	"github.com/maktaba-project/maktaba/internal/index"
	"github.com/maktaba-project/maktaba/internal/lockfile"
	"github.com/maktaba-project/maktaba/internal/logging"
	"github.com/maktaba-project/maktaba/internal/relations"
	"github.com/maktaba-project/maktaba/internal/rename"

	// Register the embedded format handlers.
	_ "github.com/maktaba-project/maktaba/internal/formats/html"
	_ "github.com/maktaba-project/maktaba/internal/formats/tei"
)

const version = "0.2.0"

// CLI defines the command-line interface for maktaba.
var CLI struct {
	// Global flags
	Base       string `name:"base" short:"b" help:"Corpus root path" type:"path"`
	Flat       bool   `help:"Flat layout without bucket/data indirection"`
	BucketSize int    `name:"bucket-size" help:"Death-date sharding width in years (default 25)"`
	LogLevel   string `name:"log-level" enum:"debug,info,warn,error" default:"info" help:"Log level"`
	LogJSON    bool   `name:"log-json" help:"Emit JSON logs"`

	URI     URIGroup   `cmd:"" help:"Identifier operations (parse, path)"`
	Check   CheckCmd   `cmd:"" help:"Scan a subtree for metadata defects, optionally repair"`
	Rename  RenameCmd  `cmd:"" help:"Rename an author, book, or version with cascading moves"`
	Init    InitCmd    `cmd:"" help:"Create the bucket skeleton under the corpus root"`
	Index   IndexGroup `cmd:"" help:"Derived SQLite index operations"`
	Stats   StatsCmd   `cmd:"" help:"Count tokens or characters in a content file"`
	Convert ConvertCmd `cmd:"" help:"Convert a TEI or HTML source into corpus text"`
	Version VersionCmd `cmd:"" help:"Print version information"`
}

// setup applies the global flags: logger configuration plus the merged
// config (file settings overridden by explicit flags).
func setup() (*config.Config, error) {
	level := logging.LevelInfo
	switch CLI.LogLevel {
	case "debug":
		level = logging.LevelDebug
	case "warn":
		level = logging.LevelWarn
	case "error":
		level = logging.LevelError
	}
	format := logging.FormatText
	if CLI.LogJSON {
		format = logging.FormatJSON
	}
	logging.InitLogger(level, format)

	cfg, err := config.Discover(CLI.Base)
	if err != nil {
		return nil, err
	}
	if CLI.Base != "" {
		cfg.BasePath = CLI.Base
	}
	if CLI.Flat {
		cfg.FlatLayout = true
	}
	if CLI.BucketSize > 0 {
		cfg.BucketSize = CLI.BucketSize
	}
	return cfg, nil
}

// confirm asks the operator to approve a batch of writes. The core packages
// never prompt; confirmation is strictly a CLI concern.
func confirm(prompt string) bool {
	fmt.Printf("%s [y/N]: ", prompt)
	scanner := bufio.NewScanner(os.Stdin)
	if !scanner.Scan() {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(scanner.Text()))
	return answer == "y" || answer == "yes"
}

// URIGroup contains identifier operations.
type URIGroup struct {
	Parse URIParseCmd `cmd:"" help:"Parse an identifier and print its components"`
	Path  URIPathCmd  `cmd:"" help:"Print the canonical path for an identifier"`
}

// URIParseCmd parses one identifier.
type URIParseCmd struct {
	ID string `arg:"" help:"Identifier or path to parse"`
}

// Run implements uri parse.
func (c *URIParseCmd) Run() error {
	id, err := uri.Parse(c.ID)
	if err != nil {
		return err
	}
	fmt.Printf("type:      %s\n", id.Type())
	fmt.Printf("date:      %s\n", id.Date())
	fmt.Printf("author:    %s\n", id.Author())
	if id.Title() != "" {
		fmt.Printf("title:     %s\n", id.Title())
	}
	if id.VersionID() != "" {
		fmt.Printf("version:   %s\n", id.VersionID())
		fmt.Printf("language:  %s\n", id.Language())
		fmt.Printf("edition:   %s\n", id.EditionNo())
	}
	if id.Extension() != uri.ExtNone {
		fmt.Printf("extension: %s\n", id.Extension())
	}
	if id.IsMetadata() {
		fmt.Println("metadata:  yes")
	}
	if id.BasePath != "" {
		fmt.Printf("base:      %s\n", id.BasePath)
	}
	return nil
}

// URIPathCmd prints the canonical path of an identifier.
type URIPathCmd struct {
	ID    string `arg:"" help:"Identifier to locate"`
	Level string `default:"auto" enum:"auto,author,book,author-yml,book-yml,version-yml,file" help:"Path granularity"`
}

// Run implements uri path.
func (c *URIPathCmd) Run() error {
	cfg, err := setup()
	if err != nil {
		return err
	}
	id, err := uri.Parse(c.ID)
	if err != nil {
		return err
	}
	if id.BasePath == "" {
		id.BasePath = cfg.BasePath
	}

	level := uri.LevelVersionFile
	switch c.Level {
	case "author":
		level = uri.LevelAuthor
	case "book":
		level = uri.LevelBook
	case "author-yml":
		level = uri.LevelAuthorYML
	case "book-yml":
		level = uri.LevelBookYML
	case "version-yml":
		level = uri.LevelVersionYML
	case "auto":
		switch {
		case id.IsMetadata() && id.VersionID() != "":
			level = uri.LevelVersionYML
		case id.IsMetadata() && id.Title() != "":
			level = uri.LevelBookYML
		case id.IsMetadata():
			level = uri.LevelAuthorYML
		case id.VersionID() != "":
			level = uri.LevelVersionFile
		case id.Title() != "":
			level = uri.LevelBook
		default:
			level = uri.LevelAuthor
		}
	}

	p, err := pathmap.PathFor(id, level, cfg.Layout())
	if err != nil {
		return err
	}
	fmt.Println(p)
	return nil
}

// CheckCmd scans a subtree and optionally applies repairs.
type CheckCmd struct {
	Root string `arg:"" optional:"" help:"Subtree to scan (defaults to the corpus root)"`
	Fix  bool   `help:"Apply the proposed repairs"`
	Yes  bool   `short:"y" help:"Skip the confirmation prompt"`
}

// Run implements check.
func (c *CheckCmd) Run() error {
	cfg, err := setup()
	if err != nil {
		return err
	}
	root := c.Root
	if root == "" {
		root = cfg.BasePath
	}
	if root == "" {
		return fmt.Errorf("no subtree given and no corpus root configured")
	}

	checker := &check.Checker{Layout: cfg.Layout(), Store: cfg.Store()}
	report, err := checker.Scan(root)
	if err != nil {
		return err
	}

	for _, f := range report.Findings {
		fmt.Println(f.Describe())
	}
	for _, u := range report.Unreadable {
		fmt.Printf("unreadable (manual review): %s: %s\n", u.Path, u.Err)
	}
	fmt.Printf("%d files scanned, %d findings, %d unreadable, %d non-identifier\n",
		report.FilesSeen, len(report.Findings), len(report.Unreadable), len(report.NonIdentifier))

	if !c.Fix || !report.HasFixes() {
		return nil
	}
	if !c.Yes && !confirm(fmt.Sprintf("apply %d repairs", len(report.Findings))) {
		fmt.Println("aborted")
		return nil
	}

	lock, err := lockfile.Acquire(root)
	if err != nil {
		return err
	}
	defer lock.Release()

	result, err := checker.Apply(report)
	if err != nil {
		return err
	}
	fmt.Printf("%d records created, %d rewritten, %d errors\n",
		len(result.Created), len(result.Rewritten), len(result.Errors))
	for _, e := range result.Errors {
		fmt.Println("error:", e)
	}
	if len(result.Errors) > 0 {
		return fmt.Errorf("%d repairs failed", len(result.Errors))
	}
	return nil
}

// RenameCmd plans and applies a cascading rename.
type RenameCmd struct {
	Old    string `arg:"" help:"Current identifier (bare or full path)"`
	New    string `arg:"" help:"Target identifier (bare or full path)"`
	DryRun bool   `name:"dry-run" help:"Print the plan without applying it"`
	Yes    bool   `short:"y" help:"Skip the confirmation prompt"`
	Backup string `help:"Write tar.xz snapshots of affected directories here first" type:"path"`
}

// Run implements rename.
func (c *RenameCmd) Run() error {
	cfg, err := setup()
	if err != nil {
		return err
	}

	tx := &rename.Transaction{
		Layout:   cfg.Layout(),
		Store:    cfg.Store(),
		BasePath: cfg.BasePath,
	}
	if cfg.RelationsIndex != "" {
		ix, err := relations.Load(cfg.RelationsIndex)
		if err != nil {
			logging.Warn("relations index unavailable", "path", cfg.RelationsIndex, "error", err.Error())
		} else {
			tx.Relations = ix
		}
	}

	plan, err := tx.Plan(c.Old, c.New)
	if err != nil {
		return err
	}
	for _, line := range plan.Describe() {
		fmt.Println(line)
	}
	if c.DryRun {
		return nil
	}
	if !c.Yes && !confirm(fmt.Sprintf("apply %d moves", len(plan.Moves))) {
		fmt.Println("aborted")
		return nil
	}

	lockRoot := CLI.Base
	if lockRoot == "" {
		lockRoot = cfg.BasePath
	}
	var lock *lockfile.Lock
	if lockRoot != "" {
		lock, err = lockfile.Acquire(lockRoot)
		if err != nil {
			return err
		}
		defer lock.Release()
	}

	backup := c.Backup
	if backup == "" {
		backup = cfg.BackupDir
	}
	report, err := tx.Apply(plan, rename.ApplyOptions{BackupDir: backup})
	if err != nil {
		return err
	}
	fmt.Printf("%d moved, %d failed, %d directories removed\n",
		len(report.Moved), len(report.Failed), len(report.RemovedDirs))
	for _, f := range report.Failed {
		fmt.Printf("failed: %s -> %s: %s\n", f.Move.Source, f.Move.Target, f.Err)
	}
	if !report.OK() {
		return fmt.Errorf("%d moves failed; old directories kept", len(report.Failed))
	}
	return nil
}

// InitCmd creates the bucket skeleton.
type InitCmd struct {
	Root    string `arg:"" optional:"" help:"Corpus root (defaults to the configured root)" type:"path"`
	MaxDate int    `name:"max-date" default:"1500" help:"Highest death date to create buckets for"`
}

// Run implements init.
func (c *InitCmd) Run() error {
	cfg, err := setup()
	if err != nil {
		return err
	}
	root := c.Root
	if root == "" {
		root = cfg.BasePath
	}
	if root == "" {
		return fmt.Errorf("no corpus root given")
	}
	if err := corpus.InitBuckets(root, c.MaxDate, cfg.Layout()); err != nil {
		return err
	}
	fmt.Printf("bucket skeleton ready under %s\n", root)
	return nil
}

// IndexGroup contains index operations.
type IndexGroup struct {
	Build  IndexBuildCmd  `cmd:"" help:"Rebuild the index from the tree"`
	Books  IndexBooksCmd  `cmd:"" help:"List the indexed books of an author"`
	Search IndexSearchCmd `cmd:"" help:"Search indexed versions by substring"`
	Totals IndexTotalsCmd `cmd:"" help:"Print corpus-wide totals from the index"`
}

func openIndex(path string) (*index.Index, error) {
	if path == "" {
		return nil, fmt.Errorf("no index database path given")
	}
	return index.Open(path)
}

// IndexBuildCmd rebuilds the index database.
type IndexBuildCmd struct {
	Root string `arg:"" optional:"" help:"Subtree to index (defaults to the corpus root)"`
	DB   string `name:"db" default:"maktaba.db" help:"Index database path" type:"path"`
}

// Run implements index build.
func (c *IndexBuildCmd) Run() error {
	cfg, err := setup()
	if err != nil {
		return err
	}
	root := c.Root
	if root == "" {
		root = cfg.BasePath
	}
	if root == "" {
		return fmt.Errorf("no subtree given and no corpus root configured")
	}
	ix, err := openIndex(c.DB)
	if err != nil {
		return err
	}
	defer ix.Close()
	ix.Layout = cfg.Layout()

	bs, err := ix.Build(root)
	if err != nil {
		return err
	}
	fmt.Printf("%d authors, %d books, %d versions indexed (%s driver)\n",
		bs.Authors, bs.Books, bs.Versions, index.DriverType())
	return nil
}

// IndexBooksCmd lists an author's books.
type IndexBooksCmd struct {
	Author string `arg:"" help:"Author identifier"`
	DB     string `name:"db" default:"maktaba.db" help:"Index database path" type:"path"`
}

// Run implements index books.
func (c *IndexBooksCmd) Run() error {
	if _, err := setup(); err != nil {
		return err
	}
	ix, err := openIndex(c.DB)
	if err != nil {
		return err
	}
	defer ix.Close()
	books, err := ix.Books(c.Author)
	if err != nil {
		return err
	}
	for _, b := range books {
		fmt.Println(b)
	}
	return nil
}

// IndexSearchCmd searches indexed versions.
type IndexSearchCmd struct {
	Needle string `arg:"" help:"Substring to search for"`
	DB     string `name:"db" default:"maktaba.db" help:"Index database path" type:"path"`
}

// Run implements index search.
func (c *IndexSearchCmd) Run() error {
	if _, err := setup(); err != nil {
		return err
	}
	ix, err := openIndex(c.DB)
	if err != nil {
		return err
	}
	defer ix.Close()
	rows, err := ix.Search(c.Needle)
	if err != nil {
		return err
	}
	for _, r := range rows {
		fmt.Printf("%s\t%d tokens\t%s\n", r.URI, r.Tokens, r.BestVariant)
	}
	return nil
}

// IndexTotalsCmd prints corpus-wide totals.
type IndexTotalsCmd struct {
	DB string `name:"db" default:"maktaba.db" help:"Index database path" type:"path"`
}

// Run implements index totals.
func (c *IndexTotalsCmd) Run() error {
	if _, err := setup(); err != nil {
		return err
	}
	ix, err := openIndex(c.DB)
	if err != nil {
		return err
	}
	defer ix.Close()
	totals, err := ix.CountAll()
	if err != nil {
		return err
	}
	fmt.Printf("%d authors, %d books, %d versions, %d tokens, %d chars\n",
		totals.Authors, totals.Books, totals.Versions, totals.Tokens, totals.Chars)
	return nil
}

// StatsCmd counts tokens or characters in one content file.
type StatsCmd struct {
	Path  string `arg:"" help:"Content file" type:"path"`
	Chars bool   `help:"Count characters instead of tokens"`
}

// Run implements stats.
func (c *StatsCmd) Run() error {
	if _, err := setup(); err != nil {
		return err
	}
	mode := stats.ModeToken
	if c.Chars {
		mode = stats.ModeChar
	}
	n, err := stats.Count(c.Path, mode)
	if err != nil {
		return err
	}
	fmt.Println(n)
	return nil
}

// ConvertCmd converts a source file into corpus text.
type ConvertCmd struct {
	Source string `arg:"" help:"Source file (TEI XML or HTML)" type:"path"`
	Output string `short:"o" help:"Output path (defaults to stdout)" type:"path"`
	Format string `help:"Force a handler instead of detecting" enum:",tei,html" default:""`
}

// Run implements convert.
func (c *ConvertCmd) Run() error {
	if _, err := setup(); err != nil {
		return err
	}
	var handler formats.Handler
	if c.Format != "" {
		h, ok := formats.Lookup(c.Format)
		if !ok {
			return fmt.Errorf("unknown format %q (have %s)", c.Format, strings.Join(formats.Names(), ", "))
		}
		handler = h
	} else {
		h, err := formats.Detect(c.Source)
		if err != nil {
			return err
		}
		handler = h
	}

	result, err := handler.Convert(c.Source)
	if err != nil {
		return err
	}
	text := result.Render()
	if c.Output == "" {
		fmt.Print(text)
		return nil
	}
	if err := os.WriteFile(c.Output, []byte(text), 0644); err != nil {
		return err
	}
	fmt.Printf("wrote %s (%s handler)\n", c.Output, handler.Name())
	return nil
}

// VersionCmd prints version information.
type VersionCmd struct{}

// Run implements version.
func (c *VersionCmd) Run() error {
	fmt.Printf("maktaba version %s\n", version)
	return nil
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("maktaba"),
		kong.Description("Scholarly corpus toolkit - identifiers, metadata, renames, index"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
	)
	err := ctx.Run(ctx)
	ctx.FatalIfErrorf(err)
}
