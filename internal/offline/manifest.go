package offline

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Manifest is the version-tagged list of asset paths to pre-populate.
// Bumping Version is the only cache-invalidation mechanism: activation
// keeps exactly one bucket, named after the version.
type Manifest struct {
	Version string   `yaml:"version"`
	Assets  []string `yaml:"assets"`
}

// DefaultManifest lists the bundled app's own assets. Deployments that
// add or rename assets ship a manifest file with a new version.
func DefaultManifest() Manifest {
	return Manifest{
		Version: "mihrab-static-v1",
		Assets: []string{
			"/",
			"/index.html",
			"/styles.css",
			"/app.js",
			"/data/hadiths.json",
			"/data/duas.json",
			"/data/surahs.json",
			"/data/prophets.json",
		},
	}
}

// LoadManifest parses a YAML manifest from the given path.
func LoadManifest(path string) (Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Manifest{}, fmt.Errorf("read manifest: %w", err)
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return Manifest{}, fmt.Errorf("parse manifest: %w", err)
	}
	if err := m.Validate(); err != nil {
		return Manifest{}, err
	}
	return m, nil
}

// Validate checks the manifest for a version and well-formed asset paths.
func (m Manifest) Validate() error {
	if strings.TrimSpace(m.Version) == "" {
		return fmt.Errorf("manifest version is required")
	}
	if len(m.Assets) == 0 {
		return fmt.Errorf("manifest contains no assets")
	}
	seen := make(map[string]bool, len(m.Assets))
	for i, asset := range m.Assets {
		if asset == "" || !strings.HasPrefix(asset, "/") {
			return fmt.Errorf("asset %d: path must start with /", i)
		}
		if seen[asset] {
			return fmt.Errorf("asset %q: duplicate path", asset)
		}
		seen[asset] = true
	}
	return nil
}
