package utils

import (
	"os"
	"path/filepath"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInstallFileMode(t *testing.T) {
	old := syscall.Umask(0077)
	defer syscall.Umask(old)

	dir := t.TempDir()
	src := filepath.Join(dir, "LICENSE")
	require.NoError(t, os.WriteFile(src, []byte("GPL"), 0600))

	dst := filepath.Join(dir, "root", "usr", "share", "licenses", "pkg", "LICENSE")
	require.NoError(t, InstallFile(src, dst, 0644))

	info, err := os.Stat(dst)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0644), info.Mode().Perm())

	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "GPL", string(data))
}

func TestInstallFileRejectsDirectory(t *testing.T) {
	dir := t.TempDir()
	err := InstallFile(dir, filepath.Join(dir, "out"), 0644)
	assert.Error(t, err)
}

func TestCompressionRoundTrip(t *testing.T) {
	data := []byte("#mtree\n./usr type=dir mode=755\n")

	for _, algo := range []string{CompressionNone, CompressionGzip, CompressionZstd, CompressionXz} {
		t.Run(algo, func(t *testing.T) {
			compressed, err := Compress(data, algo)
			require.NoError(t, err)

			out, err := Decompress(compressed)
			require.NoError(t, err)
			assert.Equal(t, data, out)
		})
	}

	_, err := Compress(data, "lz4")
	assert.Error(t, err)
}

func TestCalculateChecksums(t *testing.T) {
	path := filepath.Join(t.TempDir(), "f")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0644))

	sum, err := CalculateChecksums(path)
	require.NoError(t, err)
	assert.Equal(t, int64(5), sum.Size)
	assert.Equal(t, "5d41402abc4b2a76b9719d2bfe2a0d7e", sum.MD5)
	assert.Equal(t, "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824", sum.SHA256)
}

func TestFileAndDirExists(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "setup.py")
	require.NoError(t, os.WriteFile(file, nil, 0644))

	assert.True(t, FileExists(file))
	assert.False(t, FileExists(dir))
	assert.False(t, FileExists(filepath.Join(dir, "missing")))

	assert.True(t, DirExists(dir))
	assert.False(t, DirExists(file))
	assert.False(t, DirExists(filepath.Join(dir, "missing")))
}
