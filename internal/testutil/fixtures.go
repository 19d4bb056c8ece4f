// Package testutil provides test helper utilities for nback tests.
package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// TempConfigDir creates a temporary directory with the given files and returns its path.
// Files is a map of relative path -> content. Directories are created as needed.
// The directory is automatically cleaned up when the test finishes.
func TempConfigDir(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()

	for relPath, content := range files {
		absPath := filepath.Join(dir, relPath)
		if err := os.MkdirAll(filepath.Dir(absPath), 0755); err != nil {
			t.Fatalf("creating directory for %s: %v", relPath, err)
		}
		if err := os.WriteFile(absPath, []byte(content), 0644); err != nil {
			t.Fatalf("writing %s: %v", relPath, err)
		}
	}

	return dir
}

// ShortSessionConfig returns a config file for a two-game session of five trials.
func ShortSessionConfig() map[string]string {
	return map[string]string{
		"nback/config.yaml": `session:
  games: 2
  trials: 5
stimuli:
  seed: 11
`,
	}
}

// InvalidConfig returns a config file that fails validation.
func InvalidConfig() map[string]string {
	return map[string]string{
		"nback/config.yaml": `session:
  games: 0
adaptation:
  increase_above: 50
  decrease_below: 60
`,
	}
}

// MalformedConfig returns a config file that is not valid YAML.
func MalformedConfig() map[string]string {
	return map[string]string{
		"nback/config.yaml": "session: [games\n",
	}
}
