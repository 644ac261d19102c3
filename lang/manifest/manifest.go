// Package manifest reads the project manifest: a small JSON file
// naming the project, its output kind, and its source file list.
//
// This is explicitly an external-collaborator contract (spec.md §1)
// rather than a core subsystem — deliberately thin. JSON/encoding/json
// is used because none of the example repos parse a bespoke key/value
// format for anything comparable; see DESIGN.md.
package manifest

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Type is the kind of artifact a project compiles to.
type Type string

const (
	Executable Type = "executable"
	Library    Type = "library"
)

// Manifest is the decoded project file.
type Manifest struct {
	Name    string   `json:"name"`
	Type    Type     `json:"type"`
	Sources []string `json:"sources"`

	// dir is the manifest file's directory, against which Sources
	// resolve; not part of the wire format.
	dir string
}

// Load reads and decodes the manifest at path.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("manifest: could not read %s: %w", path, err)
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("manifest: invalid project file %s: %w", path, err)
	}
	if m.Name == "" {
		return nil, fmt.Errorf("manifest: %s is missing required field \"name\"", path)
	}
	if m.Type != Executable && m.Type != Library {
		return nil, fmt.Errorf("manifest: %s has unrecognised type %q (want \"executable\" or \"library\")", path, m.Type)
	}
	m.dir = filepath.Dir(path)
	return &m, nil
}

// SourcePaths returns each entry of Sources resolved against the
// manifest's directory.
func (m *Manifest) SourcePaths() []string {
	paths := make([]string, len(m.Sources))
	for i, s := range m.Sources {
		paths[i] = filepath.Join(m.dir, s)
	}
	return paths
}

// OutputPath returns the path of the compiled container this manifest
// produces, alongside the manifest file itself.
func (m *Manifest) OutputPath(ext string) string {
	return filepath.Join(m.dir, m.Name+ext)
}
