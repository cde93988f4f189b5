package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/PeXusQ/Gallery-Project/internal/config"
	"github.com/google/uuid"
)

// ProfilesDir is the subdirectory of the upload root holding profile photos.
const ProfilesDir = "profiles"

// LocalStore writes uploaded files beneath a single root directory, which the
// server exposes read-only at /uploads.
type LocalStore struct {
	root         string
	maxFileSize  int64
	allowedTypes map[string]struct{}
}

func NewLocalStore(cfg config.UploadConfig) (*LocalStore, error) {
	allowed := make(map[string]struct{}, len(cfg.AllowedTypes))
	for _, t := range cfg.AllowedTypes {
		allowed[strings.ToLower(t)] = struct{}{}
	}

	store := &LocalStore{
		root:         cfg.Root,
		maxFileSize:  cfg.MaxFileSize,
		allowedTypes: allowed,
	}

	for _, dir := range []string{cfg.Root, filepath.Join(cfg.Root, ProfilesDir)} {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("creating upload directory %s: %w", dir, err)
		}
	}

	return store, nil
}

func (s *LocalStore) Root() string {
	return s.root
}

func (s *LocalStore) MaxFileSize() int64 {
	return s.maxFileSize
}

// AllowedType reports whether the declared content type is on the image
// allow-list. Parameters such as "; charset=" are ignored.
func (s *LocalStore) AllowedType(contentType string) bool {
	mediaType := strings.ToLower(strings.TrimSpace(contentType))
	if idx := strings.Index(mediaType, ";"); idx >= 0 {
		mediaType = strings.TrimSpace(mediaType[:idx])
	}
	_, ok := s.allowedTypes[mediaType]
	return ok
}

// NewObjectName produces a collision-free stored name preserving the original
// file extension, optionally inside a subdirectory of the root.
func (s *LocalStore) NewObjectName(subdir, originalName string) string {
	ext := strings.ToLower(filepath.Ext(filepath.Base(originalName)))
	name := uuid.New().String() + ext
	if subdir == "" {
		return name
	}
	return filepath.ToSlash(filepath.Join(subdir, name))
}

// Save streams the reader into the file named by objectName (as returned by
// NewObjectName) and returns the number of bytes written. A partial file left
// by a failed write is removed.
func (s *LocalStore) Save(objectName string, reader io.Reader) (int64, error) {
	path := filepath.Join(s.root, filepath.FromSlash(objectName))

	out, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o640)
	if err != nil {
		return 0, fmt.Errorf("creating upload file: %w", err)
	}

	written, err := io.Copy(out, reader)
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(path)
		return written, fmt.Errorf("writing upload file: %w", err)
	}
	return written, nil
}

// Delete removes a stored object. Missing files are not an error: the row is
// the source of truth and file cleanup is best-effort.
func (s *LocalStore) Delete(objectName string) error {
	err := os.Remove(filepath.Join(s.root, filepath.FromSlash(objectName)))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Exists reports whether the stored object is present on disk.
func (s *LocalStore) Exists(objectName string) bool {
	_, err := os.Stat(filepath.Join(s.root, filepath.FromSlash(objectName)))
	return err == nil
}
