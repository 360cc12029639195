// Package storage persists attachment content outside the database. The
// message row keeps the metadata, storage keeps the bytes.
package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

var (
	ErrPathTraversal = errors.New("path traversal detected")
	ErrFileNotFound  = errors.New("file not found")
	ErrFileTooLarge  = errors.New("file exceeds size limit")
	ErrBlockedExt    = errors.New("file extension is blocked")
)

// MaxFileSize caps a single stored attachment at 25 MB, matching the SMTP
// message size limit.
const MaxFileSize = 25 * 1024 * 1024

// BlockedExtensions lists extensions that are never stored.
var BlockedExtensions = map[string]bool{
	".exe": true, ".bat": true, ".cmd": true, ".com": true,
	".pif": true, ".scr": true, ".vbs": true, ".js": true,
	".jar": true, ".ps1": true, ".sh": true, ".bash": true,
	".msi": true, ".dll": true, ".sys": true,
}

// FileStorage defines the interface for file storage operations. Save
// returns the relative path and the number of bytes written.
type FileStorage interface {
	Save(filename string, content io.Reader) (string, int64, error)
	Get(filePath string) (io.ReadCloser, error)
	Delete(filePath string) error
}

// ValidateFile checks an attachment's extension and declared size before
// anything is written.
func ValidateFile(filename string, size int64) error {
	if BlockedExtensions[strings.ToLower(filepath.Ext(filename))] {
		return ErrBlockedExt
	}
	if size > MaxFileSize {
		return ErrFileTooLarge
	}
	return nil
}

// localStorage implements FileStorage on the local filesystem.
type localStorage struct {
	basePath string
}

// NewLocalStorage creates a localStorage rooted at basePath, creating the
// directory if needed.
func NewLocalStorage(basePath string) (FileStorage, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	return &localStorage{basePath: basePath}, nil
}

// relativeStoragePath builds the relative path a new file is stored under.
// Files are named by UUID and sharded into subdirectories by the first two
// characters.
func relativeStoragePath(filename string) string {
	name := uuid.New().String() + filepath.Ext(filename)
	return filepath.Join(name[:2], name)
}

// resolve maps a stored relative path back to an absolute path under
// basePath. Anything that would escape basePath is rejected.
func (s *localStorage) resolve(filePath string) (string, error) {
	cleanPath := filepath.Clean(filePath)
	if filepath.IsAbs(cleanPath) || strings.Contains(cleanPath, "..") {
		return "", ErrPathTraversal
	}

	absPath, err := filepath.Abs(filepath.Join(s.basePath, cleanPath))
	if err != nil {
		return "", fmt.Errorf("invalid file path: %w", err)
	}
	absBase, err := filepath.Abs(s.basePath)
	if err != nil {
		return "", fmt.Errorf("invalid base path: %w", err)
	}
	if absPath != absBase && !strings.HasPrefix(absPath, absBase+string(filepath.Separator)) {
		return "", ErrPathTraversal
	}

	return absPath, nil
}

// Save stores a file and returns the relative path and bytes written.
// Content larger than MaxFileSize is rejected and nothing is kept.
func (s *localStorage) Save(filename string, content io.Reader) (string, int64, error) {
	filePath := relativeStoragePath(filename)
	fullPath := filepath.Join(s.basePath, filePath)

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return "", 0, fmt.Errorf("failed to create subdirectory: %w", err)
	}

	file, err := os.Create(fullPath)
	if err != nil {
		return "", 0, fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	// Allow one byte past the limit so overflow is detectable
	written, err := io.Copy(file, io.LimitReader(content, MaxFileSize+1))
	if err != nil {
		os.Remove(fullPath)
		return "", 0, fmt.Errorf("failed to write file: %w", err)
	}
	if written > MaxFileSize {
		os.Remove(fullPath)
		return "", 0, ErrFileTooLarge
	}

	return filePath, written, nil
}

// Get opens a stored file for reading.
func (s *localStorage) Get(filePath string) (io.ReadCloser, error) {
	fullPath, err := s.resolve(filePath)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrFileNotFound
		}
		return nil, fmt.Errorf("failed to open file: %w", err)
	}

	return file, nil
}

// Delete removes a stored file. A file that is already gone is not an error.
func (s *localStorage) Delete(filePath string) error {
	fullPath, err := s.resolve(filePath)
	if err != nil {
		return err
	}

	if err := os.Remove(fullPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete file: %w", err)
	}

	return nil
}
