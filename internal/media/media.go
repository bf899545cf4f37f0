// Package media validates uploaded files and keeps them under the public
// directory the HTTP server serves statically.
package media

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

const MaxAttachmentBytes = 5 << 20

var (
	ErrMissingFile     = errors.New("missing file")
	ErrUnsupportedType = errors.New("unsupported file type")
	ErrTooLarge        = errors.New("file too large")
)

// Kind describes one family of uploads: where it lives and what it accepts.
type Kind struct {
	Dir        string
	URLPrefix  string
	DefaultExt string
	Allowed    map[string]bool
}

const (
	mimeXLS  = "application/vnd.ms-excel"
	mimeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

var (
	HomeImages = Kind{
		Dir:        "home",
		URLPrefix:  "/home/",
		DefaultExt: "jpg",
		Allowed:    allow("image/jpeg", "image/png", "image/webp", "image/avif", "image/svg+xml"),
	}
	ProductFiles = Kind{
		Dir:        "uploads",
		URLPrefix:  "/uploads/",
		DefaultExt: "bin",
		Allowed:    allow("image/jpeg", "image/png", "image/svg+xml", "application/pdf", mimeXLS, mimeXLSX),
	}
	Attachments = Kind{
		Allowed: allow("image/png", "image/jpeg", "image/svg+xml", "application/pdf", mimeXLSX, mimeXLS),
	}
)

func allow(types ...string) map[string]bool {
	m := make(map[string]bool, len(types))
	for _, t := range types {
		m[t] = true
	}
	return m
}

// Accepts reports whether contentType may be uploaded. Browsers sometimes
// send no type at all; that is let through.
func (k Kind) Accepts(contentType string) bool {
	if contentType == "" {
		return true
	}
	return k.Allowed[strings.ToLower(strings.TrimSpace(contentType))]
}

// Ext returns the lowercased extension of filename or the kind's default.
func (k Kind) Ext(filename string) string {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	if ext == "" {
		return k.DefaultExt
	}
	for _, r := range ext {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return k.DefaultExt
		}
	}
	return ext
}

type Store struct {
	root string
	now  func() time.Time
}

// NewStore keeps files below publicDir.
func NewStore(publicDir string) *Store {
	return &Store{root: publicDir, now: time.Now}
}

// SaveHomeImage stores a homepage image and returns the generated id together
// with the public path of the file.
func (s *Store) SaveHomeImage(fh *multipart.FileHeader) (id, src string, err error) {
	const operation = "media.SaveHomeImage"

	if err := check(HomeImages, fh, 0); err != nil {
		return "", "", fmt.Errorf("%s: %w", operation, err)
	}

	id = ulid.Make().String()
	name := "home-" + strings.ToLower(id) + "." + HomeImages.Ext(fh.Filename)
	if err := s.write(HomeImages, name, fh); err != nil {
		return "", "", fmt.Errorf("%s: %w", operation, err)
	}
	return id, HomeImages.URLPrefix + name, nil
}

// SaveProductFile stores a product image or document as <slug>-<unixms>.<ext>.
func (s *Store) SaveProductFile(fh *multipart.FileHeader, slug string) (string, error) {
	const operation = "media.SaveProductFile"

	if err := check(ProductFiles, fh, 0); err != nil {
		return "", fmt.Errorf("%s: %w", operation, err)
	}

	name := slug + "-" + strconv.FormatInt(s.now().UnixMilli(), 10) + "." + ProductFiles.Ext(fh.Filename)
	if err := s.write(ProductFiles, name, fh); err != nil {
		return "", fmt.Errorf("%s: %w", operation, err)
	}
	return ProductFiles.URLPrefix + name, nil
}

func (s *Store) write(k Kind, name string, fh *multipart.FileHeader) error {
	dir := filepath.Join(s.root, k.Dir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}

	src, err := fh.Open()
	if err != nil {
		return fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	dst, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return fmt.Errorf("create %s: %w", name, err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return fmt.Errorf("write %s: %w", name, err)
	}
	return dst.Close()
}

// Remove deletes a file previously returned by one of the Save methods.
// Paths outside the managed directories and missing files are ignored.
func (s *Store) Remove(src string) error {
	for _, k := range []Kind{HomeImages, ProductFiles} {
		if !strings.HasPrefix(src, k.URLPrefix) {
			continue
		}
		name := filepath.Base(strings.TrimPrefix(src, k.URLPrefix))
		if name == "." || name == "/" || name == ".." {
			return nil
		}
		err := os.Remove(filepath.Join(s.root, k.Dir, name))
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("media.Remove: %w", err)
		}
		return nil
	}
	return nil
}

type Attachment struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ReadAttachment loads an inquiry attachment into memory. A nil or empty
// header yields a nil attachment.
func ReadAttachment(fh *multipart.FileHeader) (*Attachment, error) {
	const operation = "media.ReadAttachment"

	if fh == nil || fh.Size == 0 {
		return nil, nil
	}
	if err := check(Attachments, fh, MaxAttachmentBytes); err != nil {
		return nil, fmt.Errorf("%s: %w", operation, err)
	}

	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", operation, err)
	}
	defer f.Close()

	var buf bytes.Buffer
	n, err := io.Copy(&buf, io.LimitReader(f, MaxAttachmentBytes+1))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", operation, err)
	}
	if n > MaxAttachmentBytes {
		return nil, fmt.Errorf("%s: %w", operation, ErrTooLarge)
	}

	name := fh.Filename
	if name == "" {
		name = "attachment"
	}
	return &Attachment{
		Filename:    name,
		ContentType: fh.Header.Get("Content-Type"),
		Data:        buf.Bytes(),
	}, nil
}

func check(k Kind, fh *multipart.FileHeader, limit int64) error {
	if fh == nil || fh.Size == 0 {
		return ErrMissingFile
	}
	if limit > 0 && fh.Size > limit {
		return ErrTooLarge
	}
	if !k.Accepts(fh.Header.Get("Content-Type")) {
		return ErrUnsupportedType
	}
	return nil
}
