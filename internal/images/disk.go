package images

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// DiskStore keeps each bucket in a directory under Root. The site handler
// serves Root at /{bucket}/{filename}.
type DiskStore struct {
	Root          string
	PublicBaseURL string
}

func NewDiskStore(root, publicBaseURL string) *DiskStore {
	return &DiskStore{Root: root, PublicBaseURL: publicBaseURL}
}

func (s *DiskStore) URL(bucket, filename string) string {
	return publicURL(s.PublicBaseURL, bucket, filename)
}

func (s *DiskStore) Put(ctx context.Context, bucket, filename string, body []byte, contentType string, overwrite bool) (Object, error) {
	if err := ctx.Err(); err != nil {
		return Object{}, err
	}
	dir := filepath.Join(s.Root, bucket)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Object{}, unavailable("mkdir "+bucket, err)
	}
	target := filepath.Join(dir, filename)

	if !overwrite {
		f, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if errors.Is(err, fs.ErrExist) {
			return Object{}, fmt.Errorf("%w: %s/%s", ErrExists, bucket, filename)
		}
		if err != nil {
			return Object{}, unavailable("create "+filename, err)
		}
		if _, err := f.Write(body); err != nil {
			_ = f.Close()
			_ = os.Remove(target)
			return Object{}, unavailable("write "+filename, err)
		}
		if err := f.Close(); err != nil {
			_ = os.Remove(target)
			return Object{}, unavailable("close "+filename, err)
		}
		return s.object(bucket, filename, int64(len(body))), nil
	}

	tmp, err := os.CreateTemp(dir, ".upload-*.tmp")
	if err != nil {
		return Object{}, unavailable("create temp", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()
	if _, err := tmp.Write(body); err != nil {
		_ = tmp.Close()
		return Object{}, unavailable("write temp", err)
	}
	if err := tmp.Close(); err != nil {
		return Object{}, unavailable("close temp", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return Object{}, unavailable("chmod temp", err)
	}
	if err := os.Rename(tmpName, target); err != nil {
		return Object{}, unavailable("rename", err)
	}
	return s.object(bucket, filename, int64(len(body))), nil
}

func (s *DiskStore) object(bucket, filename string, size int64) Object {
	return Object{Filename: filename, URL: s.URL(bucket, filename), Size: size}
}

// List returns regular files in name order. A missing bucket directory is
// an empty bucket.
func (s *DiskStore) List(ctx context.Context, bucket string) ([]Object, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(filepath.Join(s.Root, bucket))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, unavailable("list "+bucket, err)
	}
	out := make([]Object, 0, len(entries))
	for _, e := range entries {
		if !e.Type().IsRegular() || strings.HasSuffix(e.Name(), ".tmp") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		obj := s.object(bucket, e.Name(), info.Size())
		obj.Created = info.ModTime().UTC()
		out = append(out, obj)
	}
	slices.SortFunc(out, func(a, b Object) int { return strings.Compare(a.Filename, b.Filename) })
	return out, nil
}

func (s *DiskStore) Delete(ctx context.Context, bucket, filename string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := os.Remove(filepath.Join(s.Root, bucket, filename))
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %s/%s", ErrNotFound, bucket, filename)
	}
	return unavailable("delete "+filename, err)
}
