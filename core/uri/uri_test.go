package uri

import (
	"testing"

	"github.com/maktaba-project/maktaba/core/errors"
)

func TestParseRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		in   string
		typ  Type
	}{
		{"author", "0255Jahiz", TypeAuthor},
		{"book", "0255Jahiz.Hayawan", TypeBook},
		{"version", "0255Jahiz.Hayawan.Sham19Y0023775-ara1", TypeVersion},
		{"version file", "0255Jahiz.Hayawan.Sham19Y0023775-ara1.completed", TypeVersion},
		{"markdown file", "0255Jahiz.Hayawan.Sham19Y0023775-ara1.mARkdown", TypeVersion},
		{"author metadata", "0255Jahiz.yml", TypeAuthor},
		{"book metadata", "0255Jahiz.Hayawan.yml", TypeBook},
		{"version metadata", "0255Jahiz.Hayawan.Sham19Y0023775-ara1.yml", TypeVersion},
		{"title with digits", "0310Tabari.Tarikh2", TypeBook},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := Parse(tt.in)
			if err != nil {
				t.Fatalf("Parse(%q): %v", tt.in, err)
			}
			if got := id.Type(); got != tt.typ {
				t.Errorf("Type() = %v, want %v", got, tt.typ)
			}
			if got := id.String(); got != tt.in {
				t.Errorf("String() = %q, want %q", got, tt.in)
			}
		})
	}
}

func TestParseComponents(t *testing.T) {
	id, err := Parse("0255Jahiz.Hayawan.Sham19Y0023775-ara1.completed")
	if err != nil {
		t.Fatal(err)
	}
	if id.Date() != "0255" {
		t.Errorf("Date() = %q", id.Date())
	}
	if id.Author() != "Jahiz" {
		t.Errorf("Author() = %q", id.Author())
	}
	if id.Title() != "Hayawan" {
		t.Errorf("Title() = %q", id.Title())
	}
	if id.VersionID() != "Sham19Y0023775" {
		t.Errorf("VersionID() = %q", id.VersionID())
	}
	if id.Language() != "ara" {
		t.Errorf("Language() = %q", id.Language())
	}
	if id.EditionNo() != "1" {
		t.Errorf("EditionNo() = %q", id.EditionNo())
	}
	if id.Extension() != ExtCompleted {
		t.Errorf("Extension() = %q", id.Extension())
	}
	if id.IsMetadata() {
		t.Error("IsMetadata() = true for content file")
	}
}

func TestParseRejections(t *testing.T) {
	tests := []struct {
		name   string
		in     string
		reason errors.GrammarReason
	}{
		{"three-digit date", "255Jahiz", errors.ReasonBadDateLength},
		{"non-ascii author", "0255Jāḥiẓ", errors.ReasonNonASCII},
		{"unknown language", "0255Jahiz.Hayawan.Sham19-arab1", errors.ReasonUnknownLanguage},
		{"five segments", "0255Jahiz.Hayawan.Sham19-ara1.completed.extra", errors.ReasonTooManySegments},
		{"digits only", "0255", errors.ReasonMissingAuthor},
		{"empty", "", errors.ReasonMissingAuthor},
		{"no language separator", "0255Jahiz.Hayawan.Sham19ara1", errors.ReasonMissingLanguageSeparator},
		{"underscore", "0255Jahiz.Haya_wan", errors.ReasonDisallowedCharacter},
		{"digit in author", "0255Jah1z", errors.ReasonDisallowedCharacter},
		{"bad extension", "0255Jahiz.Hayawan.Sham19-ara1.docx", errors.ReasonDisallowedExtension},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.in)
			if err == nil {
				t.Fatalf("Parse(%q) succeeded, want rejection", tt.in)
			}
			var ge *errors.GrammarError
			if !errors.As(err, &ge) {
				t.Fatalf("Parse(%q) error %T, want *GrammarError", tt.in, err)
			}
			if ge.Reason != tt.reason {
				t.Errorf("reason = %v, want %v", ge.Reason, tt.reason)
			}
		})
	}
}

func TestParseDigitInAuthorNamesOffender(t *testing.T) {
	_, err := Parse("0255Jah1z.Hayawan")
	if err == nil {
		t.Fatal("Parse succeeded, want rejection")
	}
	var ge *errors.GrammarError
	if !errors.As(err, &ge) {
		t.Fatalf("error %T, want *GrammarError", err)
	}
	if ge.Reason != errors.ReasonDisallowedCharacter {
		t.Errorf("reason = %v, want %v", ge.Reason, errors.ReasonDisallowedCharacter)
	}
	if ge.Field != "author" {
		t.Errorf("Field = %q, want author", ge.Field)
	}
	if ge.Offending != "1" {
		t.Errorf("Offending = %q, want the stray digit", ge.Offending)
	}
}

func TestParsePathRecoversBase(t *testing.T) {
	id, err := Parse("/corpus/0275AH/data/0255Jahiz/0255Jahiz.Hayawan/0255Jahiz.Hayawan.Sham19Y0023775-ara1.completed")
	if err != nil {
		t.Fatal(err)
	}
	if id.BasePath != "/corpus" {
		t.Errorf("BasePath = %q, want /corpus", id.BasePath)
	}
	if id.Type() != TypeVersion {
		t.Errorf("Type() = %v", id.Type())
	}
}

func TestParseBackslashPath(t *testing.T) {
	id, err := Parse(`C:\corpus\0275AH\data\0255Jahiz\0255Jahiz.yml`)
	if err != nil {
		t.Fatal(err)
	}
	if id.BasePath != "C:/corpus" {
		t.Errorf("BasePath = %q, want C:/corpus", id.BasePath)
	}
	if !id.IsMetadata() {
		t.Error("IsMetadata() = false for .yml record")
	}
}

func TestParseFlatPathLeavesBaseEmpty(t *testing.T) {
	id, err := Parse("/corpus/0255Jahiz/0255Jahiz.Hayawan/0255Jahiz.Hayawan.Sham19-ara1")
	if err != nil {
		t.Fatal(err)
	}
	if id.BasePath != "" {
		t.Errorf("BasePath = %q, want empty without bucket ancestor", id.BasePath)
	}
}

func TestVersionWithoutEditionIsBookLevel(t *testing.T) {
	id, err := Parse("0255Jahiz.Hayawan.Sham19-ara")
	if err != nil {
		t.Fatal(err)
	}
	if id.Type() != TypeBook {
		t.Errorf("Type() = %v, want TypeBook without edition number", id.Type())
	}
	if id.VersionID() != "Sham19" || id.Language() != "ara" {
		t.Errorf("components = %q/%q", id.VersionID(), id.Language())
	}
}

func TestBuildLevels(t *testing.T) {
	id, err := Parse("0255Jahiz.Hayawan.Sham19Y0023775-ara1.completed")
	if err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		level Level
		want  string
	}{
		{LevelDate, "0255"},
		{LevelAuthor, "0255Jahiz"},
		{LevelAuthorYML, "0255Jahiz.yml"},
		{LevelBook, "0255Jahiz.Hayawan"},
		{LevelBookYML, "0255Jahiz.Hayawan.yml"},
		{LevelVersion, "0255Jahiz.Hayawan.Sham19Y0023775-ara1"},
		{LevelVersionYML, "0255Jahiz.Hayawan.Sham19Y0023775-ara1.yml"},
		{LevelVersionFile, "0255Jahiz.Hayawan.Sham19Y0023775-ara1.completed"},
	}
	for _, tt := range tests {
		got, err := id.Build(tt.level)
		if err != nil {
			t.Errorf("Build(%v): %v", tt.level, err)
			continue
		}
		if got != tt.want {
			t.Errorf("Build(%v) = %q, want %q", tt.level, got, tt.want)
		}
	}
}

func TestBuildIncomplete(t *testing.T) {
	id, err := Parse("0255Jahiz")
	if err != nil {
		t.Fatal(err)
	}
	for _, level := range []Level{LevelBook, LevelVersion, LevelVersionYML} {
		if _, err := id.Build(level); !errors.Is(err, errors.ErrIncomplete) {
			t.Errorf("Build(%v) error = %v, want ErrIncomplete", level, err)
		}
	}
}

func TestBuildVersionFileOverride(t *testing.T) {
	id, err := Parse("0255Jahiz.Hayawan.Sham19-ara1.inProgress")
	if err != nil {
		t.Fatal(err)
	}
	bare, err := id.BuildVersionFile(ExtNone)
	if err != nil {
		t.Fatal(err)
	}
	if bare != "0255Jahiz.Hayawan.Sham19-ara1" {
		t.Errorf("bare = %q", bare)
	}
	md, err := id.BuildVersionFile(ExtMarkdown)
	if err != nil {
		t.Fatal(err)
	}
	if md != "0255Jahiz.Hayawan.Sham19-ara1.mARkdown" {
		t.Errorf("mARkdown = %q", md)
	}
}

func TestWithSettersValidate(t *testing.T) {
	var id Identifier
	if _, err := id.WithDate("25"); !errors.Is(err, errors.ErrGrammar) {
		t.Errorf("WithDate short: %v", err)
	}
	if _, err := id.WithAuthor("Ja7iz"); !errors.Is(err, errors.ErrGrammar) {
		t.Errorf("WithAuthor digits: %v", err)
	}
	if _, err := id.WithTitle("Tarikh2"); err != nil {
		t.Errorf("WithTitle digits should pass: %v", err)
	}
	if _, err := id.WithLanguage("xxx"); !errors.Is(err, errors.ErrGrammar) {
		t.Errorf("WithLanguage unknown: %v", err)
	}
	if _, err := id.WithExtension("docx"); !errors.Is(err, errors.ErrGrammar) {
		t.Errorf("WithExtension disallowed: %v", err)
	}
}

func TestWithSettersImmutable(t *testing.T) {
	orig, err := Parse("0255Jahiz.Hayawan")
	if err != nil {
		t.Fatal(err)
	}
	changed, err := orig.WithAuthor("JahizNew")
	if err != nil {
		t.Fatal(err)
	}
	if orig.Author() != "Jahiz" {
		t.Errorf("original mutated: %q", orig.Author())
	}
	if changed.Author() != "JahizNew" {
		t.Errorf("copy not updated: %q", changed.Author())
	}
}

func TestWithExtensionYMLSetsMetadata(t *testing.T) {
	id, err := Parse("0255Jahiz.Hayawan")
	if err != nil {
		t.Fatal(err)
	}
	id, err = id.WithExtension("yml")
	if err != nil {
		t.Fatal(err)
	}
	if !id.IsMetadata() {
		t.Error("IsMetadata() = false after WithExtension(yml)")
	}
	if id.String() != "0255Jahiz.Hayawan.yml" {
		t.Errorf("String() = %q", id.String())
	}
}

func TestExtensionRank(t *testing.T) {
	order := []Extension{ExtMarkdown, ExtCompleted, ExtNone, ExtInProgress}
	for i := 0; i < len(order)-1; i++ {
		if ExtensionRank(order[i]) <= ExtensionRank(order[i+1]) {
			t.Errorf("rank(%q) should exceed rank(%q)", order[i], order[i+1])
		}
	}
	if ExtensionRank(ExtPDF) != -1 || ExtensionRank(ExtZip) != -1 {
		t.Error("binary extensions must never qualify as text variants")
	}
}

func TestKnownLanguage(t *testing.T) {
	for _, code := range []string{"ara", "per", "urd", "heb", "lat"} {
		if !KnownLanguage(code) {
			t.Errorf("KnownLanguage(%q) = false", code)
		}
	}
	for _, code := range []string{"arab", "xx", "ARA", ""} {
		if KnownLanguage(code) {
			t.Errorf("KnownLanguage(%q) = true", code)
		}
	}
}
