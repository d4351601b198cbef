package tasks

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStorage(t *testing.T) {
	records := []any{
		map[string]any{"id": 1, "name": "Ada"},
		map[string]any{"id": 2, "name": "Grace"},
	}

	for _, compress := range []bool{false, true} {
		dir := filepath.Join(t.TempDir(), "out")
		s, err := NewFileStorage(dir, compress)
		require.NoError(t, err)

		uri, count, err := s.Put(context.Background(), "persons/export", records)
		require.NoError(t, err)
		assert.Equal(t, 2, count)
		assert.True(t, strings.HasPrefix(uri, "file://"))

		path := strings.TrimPrefix(uri, "file://")
		base := filepath.Base(path)
		assert.True(t, strings.HasPrefix(base, "persons_export-"), base)
		if compress {
			assert.True(t, strings.HasSuffix(base, ".jsonl.sz"), base)
		} else {
			assert.True(t, strings.HasSuffix(base, ".jsonl"), base)
			raw, err := os.ReadFile(path)
			require.NoError(t, err)
			assert.Equal(t, "{\"id\":1,\"name\":\"Ada\"}\n{\"id\":2,\"name\":\"Grace\"}\n", string(raw))
		}

		got, err := ReadRecords(uri)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "Grace", got[1].(map[string]any)["name"])
	}
}

func TestFileStorageCanceled(t *testing.T) {
	s, err := NewFileStorage(t.TempDir(), false)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err = s.Put(ctx, "persons", []any{1})
	assert.ErrorIs(t, err, context.Canceled)

	entries, err := os.ReadDir(s.Dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestReadRecordsErrors(t *testing.T) {
	_, err := ReadRecords(filepath.Join(t.TempDir(), "missing.jsonl"))
	assert.ErrorIs(t, err, ErrStorage)

	path := filepath.Join(t.TempDir(), "bad.jsonl")
	require.NoError(t, os.WriteFile(path, []byte("{\"ok\":true}\nnot json\n"), 0o644))
	got, err := ReadRecords(path)
	assert.ErrorIs(t, err, ErrStorage)
	assert.Len(t, got, 1)
}

func TestSanitizeName(t *testing.T) {
	assert.Equal(t, "persons", sanitizeName("persons"))
	assert.Equal(t, "a_b_c", sanitizeName("a/b c"))
	assert.Equal(t, "records", sanitizeName(""))
}
