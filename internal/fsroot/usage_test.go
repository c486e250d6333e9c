package fsroot

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUsage(t *testing.T) {
	root := newTestRoot(t)
	base := root.Path()
	writeFile(t, filepath.Join(base, "a.txt"), "12345")
	writeFile(t, filepath.Join(base, "sub", "b.txt"), "123")
	writeFile(t, filepath.Join(base, "sub", "deeper", ".c"), "12")
	require.NoError(t, os.Symlink(filepath.Join(base, "a.txt"), filepath.Join(base, "link.txt")))

	usage, err := root.Usage(context.Background(), base)
	require.NoError(t, err)

	assert.Equal(t, int64(3), usage.Files)
	assert.Equal(t, int64(2), usage.Dirs)
	assert.Equal(t, int64(10), usage.Bytes)
}

func TestUsageRejectsOutsidePaths(t *testing.T) {
	root := newTestRoot(t)

	_, err := root.Usage(context.Background(), filepath.Dir(root.Path()))
	assert.ErrorIs(t, err, ErrForbidden)
}
