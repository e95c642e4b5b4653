package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FocuswithJustin/musictext/core/errors"
	"github.com/FocuswithJustin/musictext/core/notation"
	"github.com/FocuswithJustin/musictext/core/pipeline"
	"github.com/FocuswithJustin/musictext/core/score"
)

func openTemp(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "musictext.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

// tick makes created_at strictly increasing across saves.
func tick(t *testing.T) {
	t.Helper()
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	n := 0
	old := now
	now = func() time.Time {
		n++
		return base.Add(time.Duration(n) * time.Second)
	}
	t.Cleanup(func() { now = old })
}

func analyze(t *testing.T, text string) *score.Document {
	t.Helper()
	doc, err := pipeline.Process(context.Background(), text, pipeline.Options{Workers: 1})
	require.NoError(t, err)
	return doc
}

func TestSaveAndGet(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()
	text := "Raga Yaman    Traditional\n\n.\n| S r G |\nsa re ga"
	doc := analyze(t, text)

	id, err := s.Save(ctx, doc, text)
	require.NoError(t, err)
	assert.NotEmpty(t, id)
	assert.Empty(t, doc.ID, "Save must not modify the caller's document")

	rec, err := s.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, id, rec.ID)
	assert.Equal(t, id, rec.Document.ID)
	assert.Equal(t, text, rec.Source)
	assert.Equal(t, doc.Hash, rec.Hash)
	assert.Equal(t, notation.Sargam, rec.System)
	assert.Equal(t, "Raga Yaman", rec.Title)
	assert.Equal(t, 1, rec.Staves)
	assert.Positive(t, rec.Size)

	notes := rec.Document.Staves[0].Content.Notes()
	require.Len(t, notes, 3)
	assert.Equal(t, 1, notes[0].Note.Octave)
	assert.Equal(t, "sa", notes[0].Note.Syllable)
}

func TestSaveDeduplicates(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()
	doc := analyze(t, "| 1 2 3 |")

	first, err := s.Save(ctx, doc, "| 1 2 3 |")
	require.NoError(t, err)
	second, err := s.Save(ctx, doc, "| 1 2 3 |")
	require.NoError(t, err)
	assert.Equal(t, first, second)

	list, err := s.List(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestListNewestFirst(t *testing.T) {
	tick(t)
	s := openTemp(t)
	ctx := context.Background()

	var ids []string
	for _, text := range []string{"| 1 |", "| 2 |", "| 3 |"} {
		id, err := s.Save(ctx, analyze(t, text), text)
		require.NoError(t, err)
		ids = append(ids, id)
	}

	list, err := s.List(ctx, 2)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, ids[2], list[0].ID)
	assert.Equal(t, ids[1], list[1].ID)
	assert.True(t, list[0].CreatedAt.After(list[1].CreatedAt))
}

func TestDelete(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()
	id, err := s.Save(ctx, analyze(t, "| 1 2 |"), "| 1 2 |")
	require.NoError(t, err)

	require.NoError(t, s.Delete(ctx, id))
	_, err = s.Get(ctx, id)
	assert.ErrorIs(t, err, errors.ErrNotFound)
	assert.ErrorIs(t, s.Delete(ctx, id), errors.ErrNotFound)
}

func TestPayloadIsCompressedJSON(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()
	id, err := s.Save(ctx, analyze(t, "| 1 2 |"), "| 1 2 |")
	require.NoError(t, err)

	payload, err := s.Payload(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xfd, '7', 'z', 'X', 'Z', 0x00}, payload[:6])

	data, err := Decompress(payload)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"id":"`+id+`"`)

	_, err = s.Payload(ctx, "missing")
	assert.ErrorIs(t, err, errors.ErrNotFound)
}

func TestSaveNil(t *testing.T) {
	s := openTemp(t)
	_, err := s.Save(context.Background(), nil, "")
	assert.ErrorIs(t, err, errors.ErrInvalidInput)
}

func TestReopenKeepsDocuments(t *testing.T) {
	path := filepath.Join(t.TempDir(), "persist.db")
	s, err := Open(path)
	require.NoError(t, err)
	id, err := s.Save(context.Background(), analyze(t, "| 5 6 |"), "| 5 6 |")
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()
	rec, err := s.Get(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "| 5 6 |", rec.Source)
}

func TestOpenReadOnly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ro.db")
	_, err := OpenReadOnly(path)
	assert.ErrorIs(t, err, errors.ErrNotFound)

	rw, err := Open(path)
	require.NoError(t, err)
	ctx := context.Background()
	doc := analyze(t, "| 1 2 3 |")
	id, err := rw.Save(ctx, doc, "| 1 2 3 |")
	require.NoError(t, err)
	require.NoError(t, rw.Close())

	ro, err := OpenReadOnly(path)
	require.NoError(t, err)
	defer ro.Close()

	rec, err := ro.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "| 1 2 3 |", rec.Source)

	_, err = ro.Save(ctx, analyze(t, "| 4 5 |"), "| 4 5 |")
	assert.Error(t, err)
	list, err := ro.List(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}
