package fsroot

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/flate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRoot(t *testing.T) {
	dir := t.TempDir()

	root, err := NewRoot(dir)
	require.NoError(t, err)

	want, err := filepath.EvalSymlinks(dir)
	require.NoError(t, err)
	assert.Equal(t, want, root.Path())
}

func TestNewRootErrors(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "plain.txt")
	writeFile(t, file, "x")

	_, err := NewRoot(filepath.Join(dir, "missing"))
	assert.Error(t, err)

	_, err = NewRoot(file)
	assert.ErrorIs(t, err, ErrNotDir)

	_, err = NewRoot(dir, WithCompressionLevel(flate.BestCompression+1))
	assert.Error(t, err)
}

func TestResolve(t *testing.T) {
	root := newTestRoot(t)
	base := root.Path()
	mkdir(t, filepath.Join(base, "sub"))
	writeFile(t, filepath.Join(base, "sub", "file.txt"), "hello")

	tests := []struct {
		name      string
		requested string
		want      string
	}{
		{name: "empty is root", requested: "", want: base},
		{name: "dot is root", requested: ".", want: base},
		{name: "plain file", requested: "sub/file.txt", want: filepath.Join(base, "sub", "file.txt")},
		{name: "dot dot inside", requested: "sub/../sub/file.txt", want: filepath.Join(base, "sub", "file.txt")},
		{name: "leading slash stays inside", requested: "/sub", want: filepath.Join(base, "sub")},
		{name: "missing target", requested: "sub/nope/deeper.txt", want: filepath.Join(base, "sub", "nope", "deeper.txt")},
		{name: "climb back in", requested: "sub/../../" + filepath.Base(base) + "/sub", want: filepath.Join(base, "sub")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := root.Resolve(tt.requested)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveDotDotEquivalence(t *testing.T) {
	root := newTestRoot(t)
	mkdir(t, filepath.Join(root.Path(), "sub"))

	a, err := root.Resolve("sub/../sub/file.txt")
	require.NoError(t, err)
	b, err := root.Resolve("sub/file.txt")
	require.NoError(t, err)

	assert.Equal(t, b, a)
}

func TestResolveRejectsEscapes(t *testing.T) {
	parent := t.TempDir()
	base := filepath.Join(parent, "data")
	sibling := filepath.Join(parent, "data-other")
	mkdir(t, base)
	mkdir(t, sibling)
	writeFile(t, filepath.Join(sibling, "secret.txt"), "secret")

	root, err := NewRoot(base)
	require.NoError(t, err)

	require.NoError(t, os.Symlink(sibling, filepath.Join(base, "link")))
	require.NoError(t, os.Symlink(filepath.Join(sibling, "secret.txt"), filepath.Join(base, "secret-link")))

	for _, requested := range []string{
		"../x",
		"../data-other",
		"../data-other/secret.txt",
		"../../../../etc/passwd",
		"link",
		"link/secret.txt",
		"link/not-there-yet.txt",
		"secret-link",
		"sub\x00/file",
	} {
		t.Run(requested, func(t *testing.T) {
			_, err := root.Resolve(requested)
			assert.ErrorIs(t, err, ErrForbidden)
		})
	}
}

func TestResolveSymlinkInsideRoot(t *testing.T) {
	root := newTestRoot(t)
	base := root.Path()
	writeFile(t, filepath.Join(base, "real", "a.txt"), "a")
	require.NoError(t, os.Symlink(filepath.Join(base, "real"), filepath.Join(base, "alias")))

	got, err := root.Resolve("alias/a.txt")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(base, "real", "a.txt"), got)
}

func TestContains(t *testing.T) {
	root := newTestRoot(t)
	base := root.Path()

	assert.True(t, root.Contains(base))
	assert.True(t, root.Contains(filepath.Join(base, "x")))
	assert.False(t, root.Contains(base+"-other"))
	assert.False(t, root.Contains(filepath.Dir(base)))
}

func TestRel(t *testing.T) {
	root := newTestRoot(t)
	base := root.Path()

	assert.Equal(t, "", root.Rel(base))
	assert.Equal(t, "a/b.txt", root.Rel(filepath.Join(base, "a", "b.txt")))
}
