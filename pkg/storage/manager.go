package storage

import (
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
)

// imageExts are the extensions recognised when scanning the directory
var imageExts = map[string]bool{
	".png":  true,
	".gif":  true,
	".jpg":  true,
	".jpeg": true,
	".webp": true,
}

// Manager stores emoji images as <dir>/<name><ext> and remembers which
// names are already on disk
type Manager struct {
	outputDir  string
	overwrite  bool
	downloaded map[string]bool
	mu         sync.RWMutex
}

// NewManager creates the directory if needed and scans it for existing
// images. With overwrite set IsDownloaded always reports false.
func NewManager(outputDir string, overwrite bool) (*Manager, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create image directory: %w", err)
	}

	manager := &Manager{
		outputDir:  outputDir,
		overwrite:  overwrite,
		downloaded: make(map[string]bool),
	}
	if err := manager.scanExistingFiles(); err != nil {
		return nil, fmt.Errorf("failed to scan existing files: %w", err)
	}
	return manager, nil
}

func (m *Manager) scanExistingFiles() error {
	entries, err := os.ReadDir(m.outputDir)
	if err != nil {
		return fmt.Errorf("failed to read directory: %w", err)
	}

	for _, entry := range entries {
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if entry.IsDir() || !imageExts[ext] {
			continue
		}
		m.downloaded[strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name()))] = true
	}
	return nil
}

// IsDownloaded reports whether an image for name is already stored
func (m *Manager) IsDownloaded(name string) bool {
	if m.overwrite {
		return false
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.downloaded[SafeName(name)]
}

// SaveImage writes r to <dir>/<name><ext> through a temporary file
func (m *Manager) SaveImage(r io.Reader, name, ext string) error {
	base := SafeName(name)
	if base == "" {
		return fmt.Errorf("invalid image name %q", name)
	}
	filename := filepath.Join(m.outputDir, base+ext)
	tempFile := filename + ".tmp"

	out, err := os.Create(tempFile)
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}

	_, err = io.Copy(out, r)
	closeErr := out.Close()
	if err != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to save image data: %w", err)
	}
	if closeErr != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to close file: %w", closeErr)
	}

	if err := os.Rename(tempFile, filename); err != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to rename temporary file: %w", err)
	}

	m.mu.Lock()
	m.downloaded[base] = true
	m.mu.Unlock()
	return nil
}

// GetOutputDir returns the image directory
func (m *Manager) GetOutputDir() string {
	return m.outputDir
}

// GetDownloadedCount returns the number of images known to be stored
func (m *Manager) GetDownloadedCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.downloaded)
}

// SafeName turns an emoji name into a file name. Path separators and
// other characters file systems reject become underscores.
func SafeName(name string) string {
	name = strings.TrimSpace(name)
	if name == "." || name == ".." {
		return ""
	}
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|', 0:
			return '_'
		}
		return r
	}, name)
}

// ExtFromURL returns the image extension of rawURL, or .png when it has
// none that is recognised
func ExtFromURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ".png"
	}
	ext := strings.ToLower(path.Ext(u.Path))
	if !imageExts[ext] {
		return ".png"
	}
	return ext
}
