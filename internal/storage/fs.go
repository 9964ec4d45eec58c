package storage

import (
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// FSStore keeps blobs as files under a base directory. URLs are relative to
// the server's /assets route.
type FSStore struct {
	base   string
	prefix string
}

func NewFSStore(base, urlPrefix string) (*FSStore, error) {
	if base == "" {
		base = "./data"
	}
	if err := os.MkdirAll(base, 0o755); err != nil {
		return nil, err
	}
	if urlPrefix == "" {
		urlPrefix = "/assets/"
	}
	return &FSStore{base: base, prefix: urlPrefix}, nil
}

// clean rejects keys that would leave the base directory.
func clean(key string) (string, error) {
	k := path.Clean("/" + strings.TrimSpace(key))
	k = strings.TrimPrefix(k, "/")
	if k == "" || k == "." || key != k {
		return "", ErrBadKey
	}
	return k, nil
}

func (s *FSStore) Put(key string, r io.Reader) (string, error) {
	k, err := clean(key)
	if err != nil {
		return "", err
	}
	dst := filepath.Join(s.base, filepath.FromSlash(k))
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", err
	}
	// write then rename so readers never see a partial file
	tmp, err := os.CreateTemp(filepath.Dir(dst), ".upload-*")
	if err != nil {
		return "", err
	}
	defer os.Remove(tmp.Name())
	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return "", err
	}
	if err := tmp.Close(); err != nil {
		return "", err
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		return "", err
	}
	return k, nil
}

func (s *FSStore) Get(key string) (io.ReadCloser, error) {
	k, err := clean(key)
	if err != nil {
		return nil, err
	}
	return os.Open(filepath.Join(s.base, filepath.FromSlash(k)))
}

func (s *FSStore) URL(key string) string {
	return s.prefix + key
}
