package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"go.uber.org/zap"
)

const (
	DefaultDataFile = "meal_data.json"
	BackupDir       = "backup"
	BackupSuffix    = ".backup"
	TmpSuffix       = ".tmp.json"
	FilePermissions = 0644
)

// FileBackend stores the document in a JSON file. Saves go through a
// temporary file and a rename; the previous version is moved into the backup
// directory first.
type FileBackend struct {
	Path string
	// Keep is the number of backups retained; zero keeps all of them.
	Keep int

	log *zap.Logger
}

// NewFileBackend returns a backend writing to path.
func NewFileBackend(path string, keep int, log *zap.Logger) *FileBackend {
	if log == nil {
		log = zap.NewNop()
	}
	return &FileBackend{Path: path, Keep: keep, log: log}
}

func (f *FileBackend) tmpPath() string {
	return f.Path + TmpSuffix
}

func (f *FileBackend) backupDir() string {
	return filepath.Join(filepath.Dir(f.Path), BackupDir)
}

// Load reads the data file. When only the temporary file exists, a previous
// save was interrupted after the old file was backed up and the temporary
// file is loaded instead.
func (f *FileBackend) Load(_ context.Context) (*Document, error) {
	doc, err := loadDocument(f.Path)
	if err == nil {
		return doc, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}

	if _, err := os.Stat(f.tmpPath()); err == nil {
		f.log.Warn("found temporary data file, loading unsaved changes", zap.String("file", f.tmpPath()))
		return loadDocument(f.tmpPath())
	}
	return NewDocument(), nil
}

func loadDocument(filename string) (*Document, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	doc := NewDocument()
	if err := json.Unmarshal(data, doc); err != nil {
		return nil, fmt.Errorf("decode %s: %w", filename, err)
	}
	return doc.normalize(), nil
}

// Save writes doc to a temporary file, backs up the current file and then
// renames the temporary file into place.
func (f *FileBackend) Save(_ context.Context, doc *Document) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}

	if dir := filepath.Dir(f.Path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	// Write to temp file first
	if err := os.WriteFile(f.tmpPath(), data, FilePermissions); err != nil {
		return err
	}

	if _, err := os.Stat(f.Path); err == nil {
		if err := f.backup(); err != nil {
			f.log.Warn("failed to create backup", zap.Error(err))
		}
	}

	// Rename temp file to actual file
	if err := os.Rename(f.tmpPath(), f.Path); err != nil {
		return fmt.Errorf("failed to commit data file: %w", err)
	}
	return nil
}

func (f *FileBackend) backup() error {
	if err := os.MkdirAll(f.backupDir(), 0755); err != nil {
		return fmt.Errorf("failed to create backup directory: %w", err)
	}

	name := fmt.Sprintf("%d_%s%s", time.Now().UnixNano(), filepath.Base(f.Path), BackupSuffix)
	if err := os.Rename(f.Path, filepath.Join(f.backupDir(), name)); err != nil {
		return err
	}
	return f.prune()
}

// Backups lists the backup files, oldest first.
func (f *FileBackend) Backups() ([]string, error) {
	entries, err := os.ReadDir(f.backupDir())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}

	suffix := "_" + filepath.Base(f.Path) + BackupSuffix
	var out []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), suffix) {
			out = append(out, filepath.Join(f.backupDir(), e.Name()))
		}
	}
	sort.Strings(out)
	return out, nil
}

func (f *FileBackend) prune() error {
	if f.Keep <= 0 {
		return nil
	}
	backups, err := f.Backups()
	if err != nil {
		return err
	}
	for len(backups) > f.Keep {
		if err := os.Remove(backups[0]); err != nil {
			return err
		}
		backups = backups[1:]
	}
	return nil
}
