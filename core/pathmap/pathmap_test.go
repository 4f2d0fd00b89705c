package pathmap

import (
	"testing"

	"github.com/maktaba-project/maktaba/core/errors"
	"github.com/maktaba-project/maktaba/core/uri"
)

func TestBucketFor(t *testing.T) {
	tests := []struct {
		date string
		want string
	}{
		{"0255", "0275AH"},
		{"0275", "0275AH"}, // divisible date is its own bucket
		{"0300", "0300AH"},
		{"0276", "0300AH"},
		{"0001", "0025AH"},
		{"0025", "0025AH"},
		{"0026", "0050AH"},
		{"1450", "1450AH"},
		{"0000", "0025AH"},
	}
	for _, tt := range tests {
		got, err := BucketFor(tt.date, DefaultBucketSize)
		if err != nil {
			t.Errorf("BucketFor(%q): %v", tt.date, err)
			continue
		}
		if got != tt.want {
			t.Errorf("BucketFor(%q) = %q, want %q", tt.date, got, tt.want)
		}
	}
}

func TestBucketForCustomSize(t *testing.T) {
	got, err := BucketFor("0255", 100)
	if err != nil {
		t.Fatal(err)
	}
	if got != "0300AH" {
		t.Errorf("BucketFor(0255, 100) = %q, want 0300AH", got)
	}
}

func TestBucketForBadDate(t *testing.T) {
	if _, err := BucketFor("abc", DefaultBucketSize); !errors.Is(err, errors.ErrGrammar) {
		t.Errorf("BucketFor(abc) error = %v, want ErrGrammar", err)
	}
}

func TestPathFor(t *testing.T) {
	id, err := uri.Parse("0255Jahiz.Hayawan.Sham19Y0023775-ara1.completed")
	if err != nil {
		t.Fatal(err)
	}
	id.BasePath = "/corpus"

	tests := []struct {
		name  string
		level uri.Level
		want  string
	}{
		{"author dir", uri.LevelAuthor, "/corpus/0275AH/data/0255Jahiz"},
		{"book dir", uri.LevelBook, "/corpus/0275AH/data/0255Jahiz/0255Jahiz.Hayawan"},
		{"author record", uri.LevelAuthorYML, "/corpus/0275AH/data/0255Jahiz/0255Jahiz.Hayawan/0255Jahiz.yml"},
		{"book record", uri.LevelBookYML, "/corpus/0275AH/data/0255Jahiz/0255Jahiz.Hayawan/0255Jahiz.Hayawan.yml"},
		{"version record", uri.LevelVersionYML, "/corpus/0275AH/data/0255Jahiz/0255Jahiz.Hayawan/0255Jahiz.Hayawan.Sham19Y0023775-ara1.yml"},
		{"content file", uri.LevelVersionFile, "/corpus/0275AH/data/0255Jahiz/0255Jahiz.Hayawan/0255Jahiz.Hayawan.Sham19Y0023775-ara1.completed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := PathFor(id, tt.level, Layout{})
			if err != nil {
				t.Fatalf("PathFor: %v", err)
			}
			if got != tt.want {
				t.Errorf("PathFor = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPathForFlatLayout(t *testing.T) {
	id, err := uri.Parse("0255Jahiz.Hayawan")
	if err != nil {
		t.Fatal(err)
	}
	id.BasePath = "/corpus"
	got, err := PathFor(id, uri.LevelBook, Layout{Flat: true})
	if err != nil {
		t.Fatal(err)
	}
	if got != "/corpus/0255Jahiz/0255Jahiz.Hayawan" {
		t.Errorf("flat PathFor = %q", got)
	}
}

func TestPathForRelativeWhenBaseEmpty(t *testing.T) {
	id, err := uri.Parse("0255Jahiz")
	if err != nil {
		t.Fatal(err)
	}
	got, err := PathFor(id, uri.LevelAuthor, Layout{})
	if err != nil {
		t.Fatal(err)
	}
	if got != "0275AH/data/0255Jahiz" {
		t.Errorf("relative PathFor = %q", got)
	}
}

func TestPathForIncomplete(t *testing.T) {
	id, err := uri.Parse("0255Jahiz")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := PathFor(id, uri.LevelBook, Layout{}); !errors.Is(err, errors.ErrIncomplete) {
		t.Errorf("PathFor(book) on author id: %v, want ErrIncomplete", err)
	}
}

func TestPathForwardSlashOnly(t *testing.T) {
	id, err := uri.Parse("0255Jahiz.Hayawan")
	if err != nil {
		t.Fatal(err)
	}
	id.BasePath = `C:\corpus`
	got, err := PathFor(id, uri.LevelBook, Layout{})
	if err != nil {
		t.Fatal(err)
	}
	if got != "C:/corpus/0275AH/data/0255Jahiz/0255Jahiz.Hayawan" {
		t.Errorf("PathFor = %q, want forward slashes", got)
	}
}
