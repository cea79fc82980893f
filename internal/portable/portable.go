// Package portable moves the whole profile store in and out of a single
// bundle file, for machine migration and sharing. JSON is the native
// format; a .yaml/.yml extension selects YAML on either side.
package portable

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/billie-coop/switchboard/internal/fsutil"
	"gopkg.in/yaml.v3"
)

// Export writes the store file at storePath to outPath, converting to
// YAML when the target extension asks for it.
func Export(storePath, outPath string) error {
	data, err := os.ReadFile(storePath)
	if err != nil {
		return fmt.Errorf("failed to read store: %w", err)
	}

	if isYAML(outPath) {
		var doc map[string]any
		if err := json.Unmarshal(data, &doc); err != nil {
			return fmt.Errorf("store file is not valid JSON: %w", err)
		}
		if data, err = yaml.Marshal(doc); err != nil {
			return fmt.Errorf("failed to encode YAML bundle: %w", err)
		}
	}
	return fsutil.WriteFileAtomic(outPath, data, 0o600)
}

// Import replaces the store file at storePath with the bundle at inPath.
// The previous store file is archived next to itself rather than lost, so
// a bad import is recoverable by hand.
func Import(storePath, inPath string) error {
	data, err := os.ReadFile(inPath)
	if err != nil {
		return fmt.Errorf("failed to read bundle: %w", err)
	}

	var doc map[string]any
	if isYAML(inPath) {
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return fmt.Errorf("bundle is not valid YAML: %w", err)
		}
	} else {
		if err := json.Unmarshal(data, &doc); err != nil {
			return fmt.Errorf("bundle is not valid JSON: %w", err)
		}
	}
	if _, ok := doc["profiles"]; !ok {
		return fmt.Errorf("bundle has no profiles section")
	}

	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode store: %w", err)
	}

	if _, err := fsutil.ArchiveFile(storePath, "replaced"); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(storePath), 0o755); err != nil {
		return fmt.Errorf("failed to create store directory: %w", err)
	}
	return fsutil.WriteFileAtomic(storePath, out, 0o600)
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}
