// Package storage keeps uploaded images on the local filesystem.
package storage

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"github.com/manoela-fs/blog/constants"
)

var (
	ErrInvalidName = errors.New("invalid file name")
	ErrNotImage    = errors.New("file is not a supported image")
)

// imageExtensions maps the sniffed content types accepted as images to the
// extension the stored file gets, whatever the uploaded name said.
var imageExtensions = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// Upload is a file received from a form, not yet stored.
type Upload struct {
	Name   string
	Reader io.Reader
}

type FileStore struct {
	dir string
}

func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

func (s *FileStore) Dir() string {
	return s.dir
}

// Save stores r as "{uuid}_{name}" and returns the stored name. Only content
// that sniffs as PNG, JPEG, GIF or WebP is accepted, and the extension is taken
// from the sniffed type rather than the uploaded name.
func (s *FileStore) Save(originalName string, r io.Reader) (string, error) {
	head := make([]byte, 512)
	n, err := io.ReadFull(r, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("reading %s: %w", originalName, err)
	}
	head = head[:n]

	ext, ok := imageExtensions[http.DetectContentType(head)]
	if !ok {
		return "", ErrNotImage
	}

	return s.write(stemOf(originalName)+ext, io.MultiReader(bytes.NewReader(head), r))
}

func (s *FileStore) write(name string, r io.Reader) (string, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("creating upload dir: %w", err)
	}

	storedName := uuid.NewString() + "_" + name
	f, err := os.OpenFile(filepath.Join(s.dir, storedName), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("creating %s: %w", storedName, err)
	}

	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", fmt.Errorf("writing %s: %w", storedName, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", err
	}
	return storedName, nil
}

// Delete removes a stored file. A file that is already gone is not an error.
func (s *FileStore) Delete(name string) error {
	path, err := s.Path(name)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("[files] Failed to delete %s: %v", name, err)
		return err
	}
	return nil
}

func (s *FileStore) Path(name string) (string, error) {
	if name == "" || name != filepath.Base(name) || strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return "", ErrInvalidName
	}
	return filepath.Join(s.dir, name), nil
}

// URL is the public path a stored file is served under.
func URL(name string) string {
	if name == "" {
		return ""
	}
	return constants.UPLOADS_URL_PREFIX + url.PathEscape(name)
}

// stemOf slugifies the uploaded name without its directory or extension.
func stemOf(originalName string) string {
	base := filepath.Base(strings.ReplaceAll(originalName, `\`, "/"))
	stem := slug.Make(strings.TrimSuffix(base, filepath.Ext(base)))
	if stem == "" {
		stem = "file"
	}
	return stem
}
