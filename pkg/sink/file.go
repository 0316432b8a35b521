package sink

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"emojiharvest/pkg/collector"
	"emojiharvest/pkg/logger"
)

// DefaultFilename is where results go when no path is configured
const DefaultFilename = "emoji.json"

// File writes the result to a path, replacing any previous file atomically
type File struct {
	Path   string
	Format Format
	Logger logger.Logger
}

// NewFile returns a file sink; an empty path means DefaultFilename
func NewFile(path string, format Format) *File {
	if path == "" {
		path = DefaultFilename
	}
	return &File{Path: path, Format: format, Logger: logger.GetLogger()}
}

func (f *File) String() string {
	return "file:" + f.Path
}

// Emit encodes the result and writes it through a temporary file
func (f *File) Emit(ctx context.Context, result collector.ResultSet) error {
	data, err := Encode(result, f.Format)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if dir := filepath.Dir(f.Path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	if err := WriteFileAtomic(f.Path, data, 0644); err != nil {
		return err
	}

	if f.Logger != nil {
		f.Logger.InfoWithFields("Result written", map[string]interface{}{
			"path":   f.Path,
			"format": string(f.Format),
			"count":  len(result),
			"bytes":  len(data),
		})
	}
	return nil
}

// WriteFileAtomic writes data to a sibling temp file and renames it into
// place so readers never observe a half-written file
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	tempPath := path + ".tmp"
	if err := os.WriteFile(tempPath, data, perm); err != nil {
		return fmt.Errorf("failed to write temporary file: %w", err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to rename temporary file: %w", err)
	}
	return nil
}
