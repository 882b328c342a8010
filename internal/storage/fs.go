package storage

import (
	"context"
	"io"
	"net/url"
	"path"
	"strings"

	"github.com/spf13/afero"
)

// FSStore keeps blobs as files under base.
type FSStore struct {
	fs   afero.Fs
	base string
}

func NewFSStore(fsys afero.Fs, base string) (*FSStore, error) {
	if base == "" {
		base = "./protocols"
	}
	if err := fsys.MkdirAll(base, 0o755); err != nil {
		return nil, err
	}
	return &FSStore{fs: fsys, base: base}, nil
}

// clean keeps keys inside base.
func clean(key string) string {
	return strings.TrimPrefix(path.Clean("/"+key), "/")
}

func (s *FSStore) Put(_ context.Context, key string, r io.Reader, _ int64, _ string) (string, error) {
	key = clean(key)
	if key == "" {
		return "", ErrEmptyKey
	}
	dst := path.Join(s.base, key)
	if err := s.fs.MkdirAll(path.Dir(dst), 0o755); err != nil {
		return "", err
	}
	f, err := s.fs.Create(dst)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", err
	}
	return key, nil
}

func (s *FSStore) Get(_ context.Context, key string) (io.ReadCloser, error) {
	return s.fs.Open(path.Join(s.base, clean(key)))
}

func (s *FSStore) SignedURL(_ context.Context, key string) (string, error) {
	u := url.URL{Scheme: "file", Path: path.Join(s.base, clean(key))}
	return u.String(), nil
}
