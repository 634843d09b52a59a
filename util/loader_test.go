package util

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListFrameFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"frame-10.jpg", "frame-2.png", "frame-1.JPG", "notes.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(name), 0o644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "frame-3.png"), 0o755))

	files, err := ListFrameFiles(dir)
	require.NoError(t, err)
	require.Len(t, files, 3)
	assert.Equal(t, []int{1, 2, 10}, []int{files[0].Frame, files[1].Frame, files[2].Frame})

	data, err := files[0].Read()
	require.NoError(t, err)
	assert.Equal(t, []byte("frame-1.JPG"), data)
}

func TestListFrameFiles_Errors(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "cover.png"), nil, 0o644))
	_, err := ListFrameFiles(dir)
	assert.Error(t, err)

	dup := t.TempDir()
	for _, name := range []string{"frame-1.jpg", "frame-1.png"} {
		require.NoError(t, os.WriteFile(filepath.Join(dup, name), nil, 0o644))
	}
	_, err = ListFrameFiles(dup)
	assert.Error(t, err)

	_, err = ListFrameFiles(filepath.Join(dir, "missing"))
	assert.Error(t, err)

	_, err = FrameFile{Path: filepath.Join(dir, "gone.png")}.Read()
	assert.Error(t, err)
}

func TestParseFrameNumber(t *testing.T) {
	n, err := ParseFrameNumber("frame-0042.png")
	require.NoError(t, err)
	assert.Equal(t, 42, n)

	for _, bad := range []string{"frame-.png", "frame--1.png", "cover.png"} {
		_, err := ParseFrameNumber(bad)
		assert.Error(t, err, bad)
	}
}
