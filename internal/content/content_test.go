package content

import (
	"math/rand"
	"testing"
	"testing/fstest"
)

func TestLoad_BundledContent(t *testing.T) {
	lib, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if len(lib.Hadiths) == 0 {
		t.Fatalf("no hadiths bundled")
	}
	if len(lib.Duas) == 0 {
		t.Fatalf("no duas bundled")
	}
	if len(lib.Surahs) == 0 {
		t.Fatalf("no surahs bundled")
	}
	if len(lib.Prophets) == 0 {
		t.Fatalf("no prophets bundled")
	}

	for i, h := range lib.Hadiths {
		if h.Text == "" || h.Source == "" {
			t.Fatalf("hadith %d missing text or source: %+v", i, h)
		}
	}
	for i, s := range lib.Surahs {
		if s.Number == 0 || s.Name == "" || s.Verses == 0 {
			t.Fatalf("surah %d incomplete: %+v", i, s)
		}
	}
}

func TestLoadFS_MissingFile(t *testing.T) {
	fsys := fstest.MapFS{
		"data/hadiths.json": {Data: []byte(`[{"text":"t","source":"s"}]`)},
	}
	if _, err := LoadFS(fsys); err == nil {
		t.Fatalf("expected error for missing content files")
	}
}

func TestLoadFS_InvalidJSON(t *testing.T) {
	fsys := fstest.MapFS{
		"data/hadiths.json":  {Data: []byte(`not json`)},
		"data/duas.json":     {Data: []byte(`[]`)},
		"data/surahs.json":   {Data: []byte(`[]`)},
		"data/prophets.json": {Data: []byte(`[]`)},
	}
	if _, err := LoadFS(fsys); err == nil {
		t.Fatalf("expected error for malformed JSON")
	}
}

func TestRandomHadith(t *testing.T) {
	lib, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if got := lib.RandomHadith(nil); got != lib.Hadiths[0] {
		t.Fatalf("nil rng should return first hadith")
	}

	rng := rand.New(rand.NewSource(42))
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		seen[lib.RandomHadith(rng).Text] = true
	}
	if len(seen) < 2 {
		t.Fatalf("random selection never varied across 100 draws")
	}
}

func TestSurahByNumber(t *testing.T) {
	lib, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	first := lib.SurahByNumber(1)
	if first == nil {
		t.Fatalf("surah 1 missing")
	}
	if first.Name != "Al-Fatihah" {
		t.Fatalf("surah 1 = %q, want Al-Fatihah", first.Name)
	}

	if lib.SurahByNumber(999) != nil {
		t.Fatalf("out-of-range surah should be nil")
	}
}
