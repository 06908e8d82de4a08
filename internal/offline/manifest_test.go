package offline

import (
	"os"
	"path/filepath"
	"testing"
)

func TestManifest_Validate(t *testing.T) {
	tests := []struct {
		name     string
		manifest Manifest
		wantErr  bool
	}{
		{
			name:     "valid",
			manifest: Manifest{Version: "v1", Assets: []string{"/", "/app.js"}},
		},
		{
			name:     "missing version",
			manifest: Manifest{Assets: []string{"/"}},
			wantErr:  true,
		},
		{
			name:     "no assets",
			manifest: Manifest{Version: "v1"},
			wantErr:  true,
		},
		{
			name:     "relative asset path",
			manifest: Manifest{Version: "v1", Assets: []string{"app.js"}},
			wantErr:  true,
		},
		{
			name:     "duplicate asset",
			manifest: Manifest{Version: "v1", Assets: []string{"/", "/"}},
			wantErr:  true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.manifest.Validate()
			if tc.wantErr && err == nil {
				t.Fatalf("expected error")
			}
			if !tc.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestDefaultManifest_IsValid(t *testing.T) {
	if err := DefaultManifest().Validate(); err != nil {
		t.Fatalf("default manifest invalid: %v", err)
	}
}

func TestLoadManifest(t *testing.T) {
	path := filepath.Join(t.TempDir(), "manifest.yaml")
	content := "version: custom-v3\nassets:\n  - /\n  - /custom.css\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}

	m, err := LoadManifest(path)
	if err != nil {
		t.Fatalf("LoadManifest: %v", err)
	}
	if m.Version != "custom-v3" || len(m.Assets) != 2 {
		t.Fatalf("unexpected manifest: %+v", m)
	}
}

func TestLoadManifest_InvalidContentRejected(t *testing.T) {
	path := filepath.Join(t.TempDir(), "manifest.yaml")
	if err := os.WriteFile(path, []byte("assets:\n  - /\n"), 0o644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}
	if _, err := LoadManifest(path); err == nil {
		t.Fatalf("expected validation error for versionless manifest")
	}
}

func TestLoadManifest_MissingFile(t *testing.T) {
	if _, err := LoadManifest(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
