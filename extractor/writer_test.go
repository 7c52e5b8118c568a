package extractor

import (
	"os"
	"path/filepath"
	"testing"

	"swatch-extractor/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestResultWriter_WriteAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "out.json")
	w := NewResultWriter(path)

	records := []types.ProductRecord{
		{URL: "https://shop.example/products/a", Name: "A", Color: "A", ImageURL: strPtr("https://cdn.example/a.jpg")},
		{URL: "https://shop.example/products/b", Name: "B", Color: "B"},
	}

	require.NoError(t, w.Write(records))

	loaded, err := w.Load()
	require.NoError(t, err)
	assert.Equal(t, records, loaded)

	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))
}

func TestResultWriter_EmptyIsArray(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")

	require.NoError(t, NewResultWriter(path).Write(nil))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(data))
}

func TestResultWriter_Overwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")
	w := NewResultWriter(path)

	require.NoError(t, w.Write([]types.ProductRecord{{URL: "a", Name: "a"}, {URL: "b", Name: "b"}}))
	require.NoError(t, w.Write([]types.ProductRecord{{URL: "c", Name: "c"}}))

	loaded, err := w.Load()
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, "c", loaded[0].URL)
}

func TestResultWriter_UnwritableLocation(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	err := NewResultWriter(filepath.Join(blocker, "out.json")).Write(nil)

	assert.Error(t, err)
}
