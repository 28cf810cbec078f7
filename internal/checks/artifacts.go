package checks

import (
	"fmt"
	"os"
	"path/filepath"
)

// Artifacts tracks files a scenario writes as side output
type Artifacts struct {
	dir   string
	files []string
}

// NewArtifacts returns a collector writing into dir ("" = working directory)
func NewArtifacts(dir string) *Artifacts {
	if dir == "" {
		dir = "."
	}
	return &Artifacts{dir: dir}
}

// Dir is the directory artifacts are written into
func (a *Artifacts) Dir() string {
	return a.dir
}

// Path returns where an artifact called name should be written
func (a *Artifacts) Path(name string) string {
	return filepath.Join(a.dir, name)
}

// Add records a file already written by someone else
func (a *Artifacts) Add(path string) {
	a.files = append(a.files, path)
}

// WriteFile writes data as artifact name and records it
func (a *Artifacts) WriteFile(name string, data []byte) (string, error) {
	if err := os.MkdirAll(a.dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create artifacts directory: %w", err)
	}
	path := a.Path(name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write artifact %s: %w", name, err)
	}
	a.Add(path)
	return path, nil
}

// Files lists recorded artifacts in write order
func (a *Artifacts) Files() []string {
	return append([]string(nil), a.files...)
}
