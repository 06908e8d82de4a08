// Package content serves the bundled read-only Islamic texts: hadiths,
// duas, the surah index, and prophet stories.
package content

import (
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"math/rand"
)

//go:embed data/*.json
var bundled embed.FS

// Hadith is a single narration with its source collection.
type Hadith struct {
	Text   string `json:"text"`
	Source string `json:"source"`
}

// Dua is a supplication with its Arabic text and English translation.
type Dua struct {
	Title   string `json:"title"`
	Arabic  string `json:"arabic"`
	English string `json:"english"`
}

// Surah is one entry of the Quran chapter index.
type Surah struct {
	Number int    `json:"number"`
	Name   string `json:"name"`
	Verses int    `json:"verses"`
}

// Prophet is a prophet story with scriptural references.
type Prophet struct {
	ID         int      `json:"id"`
	Name       string   `json:"name"`
	Story      string   `json:"story"`
	References []string `json:"references"`
}

// Library holds all bundled content, loaded once at startup.
type Library struct {
	Hadiths  []Hadith
	Duas     []Dua
	Surahs   []Surah
	Prophets []Prophet
}

// Load reads the embedded content files.
func Load() (*Library, error) {
	return LoadFS(bundled)
}

// LoadFS reads content from the given filesystem, which must carry the
// same data/ layout as the embedded one.
func LoadFS(fsys fs.FS) (*Library, error) {
	lib := &Library{}
	files := []struct {
		path string
		dest any
	}{
		{"data/hadiths.json", &lib.Hadiths},
		{"data/duas.json", &lib.Duas},
		{"data/surahs.json", &lib.Surahs},
		{"data/prophets.json", &lib.Prophets},
	}
	for _, f := range files {
		data, err := fs.ReadFile(fsys, f.path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", f.path, err)
		}
		if err := json.Unmarshal(data, f.dest); err != nil {
			return nil, fmt.Errorf("parse %s: %w", f.path, err)
		}
	}
	if len(lib.Hadiths) == 0 {
		return nil, fmt.Errorf("no hadiths bundled")
	}
	return lib, nil
}

// RandomHadith picks one hadith using the given randomness source. A nil
// source falls back to the first entry.
func (l *Library) RandomHadith(rng *rand.Rand) Hadith {
	if rng == nil || len(l.Hadiths) == 1 {
		return l.Hadiths[0]
	}
	return l.Hadiths[rng.Intn(len(l.Hadiths))]
}

// SurahByNumber finds a surah index entry, or nil if out of range.
func (l *Library) SurahByNumber(number int) *Surah {
	for i := range l.Surahs {
		if l.Surahs[i].Number == number {
			return &l.Surahs[i]
		}
	}
	return nil
}
