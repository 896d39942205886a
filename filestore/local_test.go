package filestore

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docuflow/records-engine/records"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(t.TempDir())
	require.NoError(t, err)
	return s
}

func TestSave_StoresPDFUnderPublicPrefix(t *testing.T) {
	s := newTestStore(t)

	content := "%PDF-1.4 test"
	path, err := s.Save("travel order.pdf", "application/pdf", int64(len(content)), strings.NewReader(content))
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(path, PublicPrefix))

	// The stored file carries the sanitized original name.
	assert.Contains(t, path, "travel_order.pdf")

	stored, err := os.ReadFile(filepath.Join(s.Dir(), strings.TrimPrefix(path, PublicPrefix)))
	require.NoError(t, err)
	assert.Equal(t, content, string(stored))
}

func TestSave_GeneratedNamesNeverCollide(t *testing.T) {
	s := newTestStore(t)

	a, err := s.Save("same.pdf", "application/pdf", 1, strings.NewReader("a"))
	require.NoError(t, err)
	b, err := s.Save("same.pdf", "application/pdf", 1, strings.NewReader("b"))
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestSave_RejectsNonPDF(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Save("notes.txt", "text/plain", 4, strings.NewReader("text"))
	require.Error(t, err)
	assert.ErrorIs(t, err, records.ErrUnsupportedMedia)
}

func TestSave_RejectsOversizedDeclaredSize(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Save("big.pdf", "application/pdf", MaxAttachmentSize+1, strings.NewReader(""))
	require.Error(t, err)
	assert.ErrorIs(t, err, records.ErrPayloadTooLarge)
}

func TestSave_RejectsOversizedActualBytes(t *testing.T) {
	// Declared size lies; the byte count still enforces the cap, and the
	// partial file is removed.
	s := newTestStore(t)

	oversized := strings.NewReader(strings.Repeat("x", MaxAttachmentSize+1))
	_, err := s.Save("big.pdf", "application/pdf", 10, oversized)
	require.Error(t, err)
	assert.ErrorIs(t, err, records.ErrPayloadTooLarge)

	entries, err := os.ReadDir(s.Dir())
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestDelete_IgnoresMissingFiles(t *testing.T) {
	s := newTestStore(t)

	assert.NoError(t, s.Delete(PublicPrefix+"never-existed.pdf"))
	assert.NoError(t, s.Delete(""))
}

func TestDelete_RemovesStoredFile(t *testing.T) {
	s := newTestStore(t)

	path, err := s.Save("doc.pdf", "application/pdf", 3, strings.NewReader("pdf"))
	require.NoError(t, err)
	require.NoError(t, s.Delete(path))

	entries, err := os.ReadDir(s.Dir())
	require.NoError(t, err)
	assert.Empty(t, entries)
}
