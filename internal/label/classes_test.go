package label

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeClassDirs(t *testing.T, root string, names ...string) {
	t.Helper()
	for _, n := range names {
		require.NoError(t, os.MkdirAll(filepath.Join(root, n), 0o755))
	}
}

func TestResolveClassID(t *testing.T) {
	root := t.TempDir()
	makeClassDirs(t, root, "Oak", "Birch", "Maple")
	require.NoError(t, os.WriteFile(filepath.Join(root, "readme.txt"), []byte("x"), 0o644))

	tests := []struct {
		name string
		want int
	}{
		{"Birch", 0},
		{"Maple", 1},
		{"Oak", 2},
		{"Pine", 0},
		{"", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveClassID(root, tt.name)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveClassID_ReadsFoldersEveryTime(t *testing.T) {
	root := t.TempDir()
	makeClassDirs(t, root, "Birch", "Maple")

	id, err := ResolveClassID(root, "Maple")
	require.NoError(t, err)
	assert.Equal(t, 1, id)

	makeClassDirs(t, root, "Aspen")

	id, err = ResolveClassID(root, "Maple")
	require.NoError(t, err)
	assert.Equal(t, 2, id)
}

func TestResolveClassID_MissingRoot(t *testing.T) {
	_, err := ResolveClassID(filepath.Join(t.TempDir(), "missing"), "Maple")
	assert.Error(t, err)
}

func TestClasses(t *testing.T) {
	root := t.TempDir()
	makeClassDirs(t, root, "Oak", "Birch", "Maple")

	classes, err := LoadClasses(root)
	require.NoError(t, err)
	assert.Equal(t, Classes{"Birch", "Maple", "Oak"}, classes)
	assert.True(t, classes.Contains("Oak"))
	assert.False(t, classes.Contains("Pine"))
	assert.Equal(t, 2, classes.ID("Oak"))
}
