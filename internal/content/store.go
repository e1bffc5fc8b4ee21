package content

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/keithlinneman/yummigo-web/internal/document"
	"github.com/keithlinneman/yummigo-web/internal/xerrors"
)

// Store persists the encoded content document.
type Store interface {
	Load(ctx context.Context) (document.Value, error)
	Save(ctx context.Context, doc document.Value) error
}

// Sourcer is implemented by stores that can say where the last Load came
// from, for logs, metrics and the X-Content-Version header.
type Sourcer interface {
	Source() Source
}

func sourceOf(s Store) Source {
	if so, ok := s.(Sourcer); ok {
		return so.Source()
	}
	return SourceUnknown
}

// FileStore keeps the document in a local JSON file.
type FileStore struct {
	Path string
}

func NewFileStore(path string) *FileStore { return &FileStore{Path: path} }

func (s *FileStore) Source() Source { return SourceFile }

func (s *FileStore) Load(ctx context.Context) (document.Value, error) {
	if err := ctx.Err(); err != nil {
		return document.Value{}, err
	}
	b, err := os.ReadFile(s.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return document.Value{}, ErrNotFound
	}
	if err != nil {
		return document.Value{}, unavailable("read "+s.Path, err)
	}
	return Decode(b)
}

// Save writes to a temp file in the same directory and renames it over
// the target, so readers never see a partial document.
func (s *FileStore) Save(ctx context.Context, doc document.Value) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b, err := Encode(doc)
	if err != nil {
		return err
	}
	dir := filepath.Dir(s.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return unavailable("mkdir "+dir, err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.Path)+".*.tmp")
	if err != nil {
		return unavailable("create temp", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(b); err != nil {
		_ = tmp.Close()
		return unavailable("write temp", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return unavailable("sync temp", err)
	}
	if err := tmp.Close(); err != nil {
		return unavailable("close temp", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return unavailable("chmod temp", err)
	}
	if err := os.Rename(tmpName, s.Path); err != nil {
		return unavailable("rename", err)
	}
	return nil
}

// FallbackStore reads from Primary and falls back to Fallback when the
// primary has no document, or is unreachable before it has ever answered.
// Once the primary has answered, its outages are returned as errors so
// callers keep the document they already hold. Saves go to Primary only.
type FallbackStore struct {
	Primary  Store
	Fallback Store

	last     atomic.Value // Source
	answered atomic.Bool
}

func NewFallbackStore(primary, fallback Store) *FallbackStore {
	return &FallbackStore{Primary: primary, Fallback: fallback}
}

func (s *FallbackStore) Source() Source {
	if src, ok := s.last.Load().(Source); ok {
		return src
	}
	return sourceOf(s.Primary)
}

func (s *FallbackStore) Load(ctx context.Context) (document.Value, error) {
	doc, err := s.Primary.Load(ctx)
	if err == nil {
		s.answered.Store(true)
		s.last.Store(sourceOf(s.Primary))
		return doc, nil
	}
	if ctx.Err() != nil {
		return document.Value{}, err
	}
	notFound := errors.Is(err, ErrNotFound)
	if notFound {
		s.answered.Store(true)
	} else if s.answered.Load() {
		// the fallback copy is older than anything saved to the primary
		return document.Value{}, err
	}
	doc, ferr := s.Fallback.Load(ctx)
	if ferr != nil {
		return document.Value{}, xerrors.Wrap(errors.Join(err, ferr), "load content from primary and fallback")
	}
	s.last.Store(sourceOf(s.Fallback))
	return doc, nil
}

func (s *FallbackStore) Save(ctx context.Context, doc document.Value) error {
	return s.Primary.Save(ctx, doc)
}
