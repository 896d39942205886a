/*
Package filestore persists record attachments on the local filesystem.

PURPOSE:
  Travel authorizations and appointments optionally own exactly one PDF
  attachment. This store writes uploads under a single directory with
  collision-resistant generated names and serves them back under the
  public /uploads/ path prefix.

CONSTRAINTS:
  - application/pdf only (records.ErrUnsupportedMedia otherwise)
  - 10 MiB maximum (records.ErrPayloadTooLarge otherwise)

DELETION:
  Delete ignores missing files: attachment cleanup is best-effort and
  never blocks a committed row change.
*/
package filestore

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/docuflow/records-engine/records"
)

// MaxAttachmentSize is the largest accepted upload (10 MiB).
const MaxAttachmentSize = 10 << 20

// PublicPrefix is the URL path prefix attachments are served under.
const PublicPrefix = "/uploads/"

const pdfContentType = "application/pdf"

// Store is a local-disk attachment store rooted at a single directory.
type Store struct {
	dir string
}

// New creates the upload directory if needed and returns a store over it.
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Dir returns the directory attachments are stored in, for static serving.
func (s *Store) Dir() string { return s.dir }

// Save writes an upload and returns its public path (/uploads/<name>).
// The generated name combines a random id with the sanitized original
// name so concurrent uploads of the same file never collide.
func (s *Store) Save(originalName, contentType string, size int64, r io.Reader) (string, error) {
	if !strings.EqualFold(contentType, pdfContentType) {
		return "", fmt.Errorf("%w: %s", records.ErrUnsupportedMedia, contentType)
	}
	if size > MaxAttachmentSize {
		return "", fmt.Errorf("%w: %d bytes", records.ErrPayloadTooLarge, size)
	}

	name := uuid.NewString() + "-" + sanitizeName(originalName)
	full := filepath.Join(s.dir, name)

	f, err := os.Create(full)
	if err != nil {
		return "", fmt.Errorf("create attachment: %w", err)
	}

	// Size from the multipart header can be absent; enforce the limit on
	// the actual bytes as well.
	written, err := io.Copy(f, io.LimitReader(r, MaxAttachmentSize+1))
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(full)
		return "", fmt.Errorf("write attachment: %w", err)
	}
	if written > MaxAttachmentSize {
		os.Remove(full)
		return "", fmt.Errorf("%w: exceeds %d bytes", records.ErrPayloadTooLarge, int64(MaxAttachmentSize))
	}

	return PublicPrefix + name, nil
}

// Delete removes the file behind a public attachment path. A missing
// file is not an error.
func (s *Store) Delete(publicPath string) error {
	if publicPath == "" {
		return nil
	}
	name := strings.TrimPrefix(publicPath, PublicPrefix)
	err := os.Remove(filepath.Join(s.dir, filepath.Base(name)))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// sanitizeName strips path components and characters that are awkward in
// URLs from the client-supplied filename.
func sanitizeName(name string) string {
	base := filepath.Base(name)
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, base)
	if base == "" || base == "." {
		base = "attachment.pdf"
	}
	return base
}
