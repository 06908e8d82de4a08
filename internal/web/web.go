// Package web serves the bundled single-page app and its data files.
// Its handler is the "network" origin that the offline cache fronts.
package web

import (
	"embed"
	"encoding/json"
	"io/fs"
	"net/http"

	"github.com/mihrab-app/mihrab/internal/content"
)

//go:embed static
var static embed.FS

// Origin builds the plain origin handler: static assets plus the bundled
// content exposed as /data/*.json documents.
func Origin(lib *content.Library) http.Handler {
	sub, err := fs.Sub(static, "static")
	if err != nil {
		// embed guarantees the directory exists
		panic(err)
	}
	index, err := fs.ReadFile(sub, "index.html")
	if err != nil {
		panic(err)
	}

	mux := http.NewServeMux()
	mux.Handle("/", http.FileServer(http.FS(sub)))
	// FileServer answers /index.html with a redirect to ./; serve the
	// document itself so both spellings yield a cacheable response.
	mux.HandleFunc("/index.html", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write(index)
	})
	mux.HandleFunc("/data/hadiths.json", serveJSON(func() any { return lib.Hadiths }))
	mux.HandleFunc("/data/duas.json", serveJSON(func() any { return lib.Duas }))
	mux.HandleFunc("/data/surahs.json", serveJSON(func() any { return lib.Surahs }))
	mux.HandleFunc("/data/prophets.json", serveJSON(func() any { return lib.Prophets }))
	return mux
}

func serveJSON(payload func() any) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(payload())
	}
}
