package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"
)

var (
	// ErrExists is returned when an exclusive write targets a name already stored.
	ErrExists = errors.New("stored file already exists")
	// ErrTooLarge is returned when a stream exceeds the permitted size.
	ErrTooLarge = errors.New("stored file exceeds size limit")
	// ErrInvalidName is returned for names that sanitise to nothing.
	ErrInvalidName = errors.New("invalid stored file name")
)

// FileInfo describes one stored document.
type FileInfo struct {
	Name    string
	Size    int64
	ModTime time.Time
}

// LocalStorage persists files in a single flat directory.
type LocalStorage struct {
	baseDir string
}

// NewLocalStorage ensures the base directory exists and returns a handle.
func NewLocalStorage(baseDir string) (*LocalStorage, error) {
	if baseDir == "" {
		baseDir = "./uploads"
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create uploads directory: %w", err)
	}
	return &LocalStorage{baseDir: baseDir}, nil
}

// SaveExclusive copies r into a new file named filename. An existing file is
// never overwritten; ErrExists is returned instead. When maxBytes is positive
// a longer stream is rejected with ErrTooLarge and nothing is kept.
func (s *LocalStorage) SaveExclusive(filename string, r io.Reader, maxBytes int64) (string, error) {
	name, err := s.name(filename)
	if err != nil {
		return "", err
	}
	path := filepath.Join(s.baseDir, name)

	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return "", fmt.Errorf("create %s: %w", name, ErrExists)
		}
		return "", fmt.Errorf("create upload file: %w", err)
	}

	src := r
	if maxBytes > 0 {
		src = io.LimitReader(r, maxBytes+1)
	}
	written, copyErr := io.Copy(file, src)
	closeErr := file.Close()

	switch {
	case copyErr != nil:
		_ = os.Remove(path)
		return "", fmt.Errorf("write upload stream: %w", copyErr)
	case maxBytes > 0 && written > maxBytes:
		_ = os.Remove(path)
		return "", fmt.Errorf("write %s: %w", name, ErrTooLarge)
	case closeErr != nil:
		_ = os.Remove(path)
		return "", fmt.Errorf("close upload file: %w", closeErr)
	}
	return name, nil
}

// Open returns a read-only handle for the stored file.
func (s *LocalStorage) Open(filename string) (*os.File, error) {
	name, err := s.name(filename)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(filepath.Join(s.baseDir, name))
	if err != nil {
		return nil, fmt.Errorf("open upload file: %w", err)
	}
	return file, nil
}

// Exists reports whether a file with the given name is stored.
func (s *LocalStorage) Exists(filename string) (bool, error) {
	name, err := s.name(filename)
	if err != nil {
		return false, err
	}
	_, err = os.Stat(filepath.Join(s.baseDir, name))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, os.ErrNotExist):
		return false, nil
	default:
		return false, fmt.Errorf("stat upload file: %w", err)
	}
}

// Stat describes a stored file. A missing file yields an error matching
// os.ErrNotExist.
func (s *LocalStorage) Stat(filename string) (FileInfo, error) {
	name, err := s.name(filename)
	if err != nil {
		return FileInfo{}, err
	}
	info, err := os.Stat(filepath.Join(s.baseDir, name))
	if err != nil {
		return FileInfo{}, fmt.Errorf("stat upload file: %w", err)
	}
	return FileInfo{Name: name, Size: info.Size(), ModTime: info.ModTime()}, nil
}

// Delete removes a stored file if present. A missing file is not an error.
func (s *LocalStorage) Delete(filename string) error {
	name, err := s.name(filename)
	if err != nil {
		return err
	}
	if err := os.Remove(filepath.Join(s.baseDir, name)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete upload file: %w", err)
	}
	return nil
}

// List returns every regular file in the directory sorted by name.
func (s *LocalStorage) List() ([]FileInfo, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		return nil, fmt.Errorf("list uploads: %w", err)
	}
	files := make([]FileInfo, 0, len(entries))
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("stat upload file: %w", err)
		}
		files = append(files, FileInfo{Name: entry.Name(), Size: info.Size(), ModTime: info.ModTime()})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })
	return files, nil
}

// name confines every lookup to the base directory.
func (s *LocalStorage) name(filename string) (string, error) {
	name := SanitizeFilename(filename)
	if name == "" {
		return "", fmt.Errorf("%q: %w", filename, ErrInvalidName)
	}
	return name, nil
}

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9_.-]`)

// SanitizeFilename reduces a client supplied name to a safe flat file name:
// directory parts are dropped, whitespace becomes underscores and anything
// outside [A-Za-z0-9_.-] is removed. Leading dots and underscores are trimmed
// so the result is never hidden or relative.
func SanitizeFilename(filename string) string {
	filename = strings.ReplaceAll(filename, "\\", "/")
	filename = filename[strings.LastIndex(filename, "/")+1:]
	filename = strings.Join(strings.Fields(filename), "_")
	filename = unsafeChars.ReplaceAllString(filename, "")
	return strings.TrimLeft(filename, "._")
}
