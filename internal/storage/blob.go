// Package storage keeps binary assets referenced from exercise prompts.
package storage

import (
	"errors"
	"io"
)

var ErrBadKey = errors.New("storage: bad key")

type BlobStore interface {
	Put(key string, r io.Reader) (string, error) // returns canonical key
	Get(key string) (io.ReadCloser, error)
	URL(key string) string
}
