package storage

import (
	"errors"
	"io"
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFSStore_PutGet(t *testing.T) {
	s, err := NewFSStore(t.TempDir(), "")
	require.NoError(t, err)

	key, err := s.Put("exercises/ex1/diagram.png", strings.NewReader("png-bytes"))
	require.NoError(t, err)
	assert.Equal(t, "exercises/ex1/diagram.png", key)
	assert.Equal(t, "/assets/exercises/ex1/diagram.png", s.URL(key))

	rc, err := s.Get(key)
	require.NoError(t, err)
	defer rc.Close()
	b, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(b))

	_, err = s.Put(key, strings.NewReader("v2"))
	require.NoError(t, err, "overwrite")

	_, err = s.Get("exercises/ex1/missing.png")
	assert.True(t, errors.Is(err, fs.ErrNotExist))
}

func TestFSStore_RejectsEscapingKeys(t *testing.T) {
	s, err := NewFSStore(t.TempDir(), "/a/")
	require.NoError(t, err)
	for _, key := range []string{"", "../etc/passwd", "a/../../b", "/abs", "a//b", "."} {
		_, err := s.Put(key, strings.NewReader("x"))
		assert.ErrorIs(t, err, ErrBadKey, key)
		_, err = s.Get(key)
		assert.ErrorIs(t, err, ErrBadKey, key)
	}
}
