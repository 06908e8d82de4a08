// Package offline intercepts requests at the HTTP boundary and applies
// per-request routing policies: navigations prefer the cached main
// document, data requests go network-first with cache fallback, and
// static assets go cache-first.
package offline

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"path"
	"strings"

	"github.com/rs/zerolog"
)

const mainDocument = "/index.html"

// dataExtensions mark paths whose responses are structured data and route
// through the network-first policy.
var dataExtensions = map[string]bool{
	".json": true,
}

// Cache applies the offline routing policies in front of an origin
// handler, which plays the role of "the network".
type Cache struct {
	logger  zerolog.Logger
	store   *BucketStore
	version string
}

// New constructs a Cache serving entries from the manifest's version
// bucket.
func New(logger zerolog.Logger, store *BucketStore, manifest Manifest) *Cache {
	return &Cache{
		logger:  logger,
		store:   store,
		version: manifest.Version,
	}
}

// Prime pre-populates the version bucket with every manifest asset,
// fetched from the origin handler, then prunes all other buckets. A
// partial seed failure aborts the whole activation attempt and leaves
// existing buckets untouched.
func (c *Cache) Prime(ctx context.Context, manifest Manifest, origin http.Handler) error {
	for _, asset := range manifest.Assets {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, asset, http.NoBody)
		if err != nil {
			return fmt.Errorf("prime %s: %w", asset, err)
		}

		entry, ok := capture(origin, req)
		if !ok {
			return fmt.Errorf("prime %s: origin returned status %d", asset, entry.Status)
		}
		if err := c.store.Put(c.version, identity(req), entry); err != nil {
			return fmt.Errorf("prime %s: %w", asset, err)
		}
	}

	if err := c.store.PruneExcept(c.version); err != nil {
		return fmt.Errorf("prune stale buckets: %w", err)
	}

	c.logger.Info().
		Str("version", c.version).
		Int("assets", len(manifest.Assets)).
		Msg("offline cache primed")
	return nil
}

// Handler wraps the origin with the three routing policies.
func (c *Cache) Handler(origin http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case isNavigation(r):
			c.serveNavigation(w, r, origin)
		case isData(r):
			c.serveNetworkFirst(w, r, origin)
		default:
			c.serveCacheFirst(w, r, origin)
		}
	})
}

// serveNavigation serves the cached main document if present, else the
// network. A navigation must always resolve.
func (c *Cache) serveNavigation(w http.ResponseWriter, r *http.Request, origin http.Handler) {
	for _, key := range []string{"GET " + mainDocument, "GET /"} {
		if entry, ok := c.store.Get(c.version, key); ok {
			writeEntry(w, entry)
			return
		}
	}
	origin.ServeHTTP(w, r)
}

// serveNetworkFirst tries the origin; a successful response is cloned
// into the cache keyed by request identity, a failed one falls back to
// whatever is cached for that exact request.
func (c *Cache) serveNetworkFirst(w http.ResponseWriter, r *http.Request, origin http.Handler) {
	key := identity(r)

	entry, ok := capture(origin, r)
	if ok {
		if err := c.store.Put(c.version, key, entry); err != nil {
			c.logger.Warn().Str("key", key).Err(err).Msg("cache write failed")
		}
		writeEntry(w, entry)
		return
	}

	if cached, hit := c.store.Get(c.version, key); hit {
		c.logger.Debug().Str("key", key).Msg("network failed, serving cached data")
		writeEntry(w, cached)
		return
	}
	writeEntry(w, entry)
}

// serveCacheFirst serves the cached asset, falling through to the origin
// on a miss. Misses are not persisted: only Prime seeds this policy's
// entries.
func (c *Cache) serveCacheFirst(w http.ResponseWriter, r *http.Request, origin http.Handler) {
	if entry, ok := c.store.Get(c.version, identity(r)); ok {
		writeEntry(w, entry)
		return
	}
	origin.ServeHTTP(w, r)
}

// identity keys a cache entry by method and full request target.
func identity(r *http.Request) string {
	return r.Method + " " + r.URL.RequestURI()
}

func isNavigation(r *http.Request) bool {
	if r.Method != http.MethodGet {
		return false
	}
	if r.URL.Path == "/" || r.URL.Path == mainDocument {
		return true
	}
	return strings.Contains(r.Header.Get("Accept"), "text/html") && path.Ext(r.URL.Path) == ""
}

func isData(r *http.Request) bool {
	if dataExtensions[strings.ToLower(path.Ext(r.URL.Path))] {
		return true
	}
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}

// responseRecorder buffers an origin response so it can be both cached
// and replayed to the client.
type responseRecorder struct {
	status int
	header http.Header
	body   bytes.Buffer
}

func newRecorder() *responseRecorder {
	return &responseRecorder{status: http.StatusOK, header: make(http.Header)}
}

func (r *responseRecorder) Header() http.Header {
	return r.header
}

func (r *responseRecorder) WriteHeader(status int) {
	r.status = status
}

func (r *responseRecorder) Write(b []byte) (int, error) {
	return r.body.Write(b)
}

// capture runs the origin handler against a recorder and reports whether
// the response counts as a network success. Redirects are not successes:
// a cached 3xx replayed for a navigation would loop forever.
func capture(origin http.Handler, r *http.Request) (*Entry, bool) {
	recorder := newRecorder()
	origin.ServeHTTP(recorder, r)

	entry := &Entry{
		Status: recorder.status,
		Header: recorder.header.Clone(),
		Body:   bytes.Clone(recorder.body.Bytes()),
	}
	return entry, recorder.status >= 200 && recorder.status < 300
}

func writeEntry(w http.ResponseWriter, entry *Entry) {
	for name, values := range entry.Header {
		for _, value := range values {
			w.Header().Add(name, value)
		}
	}
	status := entry.Status
	if status == 0 {
		status = http.StatusBadGateway
	}
	w.WriteHeader(status)
	_, _ = w.Write(entry.Body)
}
