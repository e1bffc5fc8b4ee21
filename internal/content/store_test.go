package content

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/keithlinneman/yummigo-web/internal/document"
)

// memStore is an in-memory Store with injectable errors.
type memStore struct {
	doc     document.Value
	has     bool
	loadErr error
	saveErr error
	src     Source

	loads int
	saves []document.Value
}

func (m *memStore) Source() Source { return m.src }

func (m *memStore) Load(ctx context.Context) (document.Value, error) {
	m.loads++
	if m.loadErr != nil {
		return document.Value{}, m.loadErr
	}
	if !m.has {
		return document.Value{}, ErrNotFound
	}
	return m.doc, nil
}

func (m *memStore) Save(ctx context.Context, doc document.Value) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.doc, m.has = doc, true
	m.saves = append(m.saves, doc)
	return nil
}

func TestFileStore_MissingIsNotFound(t *testing.T) {
	s := NewFileStore(filepath.Join(t.TempDir(), "content.json"))
	if _, err := s.Load(t.Context()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Load err = %v, want ErrNotFound", err)
	}
}

func TestFileStore_SaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "content.json")
	s := NewFileStore(path)
	doc := document.MustParse(`{"hero":{"title":{"ar":"مرحبا","en":"Hello"}}}`)

	if err := s.Save(t.Context(), doc); err != nil {
		t.Fatalf("Save: %v", err)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !strings.Contains(string(raw), `"ar": "مرحبا"`) {
		t.Fatalf("file not 2-space indented with raw Arabic:\n%s", raw)
	}

	got, err := s.Load(t.Context())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !document.Equal(got, doc) {
		t.Fatalf("Load = %s", jsonString(t, got))
	}
	if s.Source() != SourceFile {
		t.Fatalf("Source = %q", s.Source())
	}
}

func TestFileStore_SaveLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	s := NewFileStore(filepath.Join(dir, "content.json"))
	for i := range 3 {
		doc := document.Object(map[string]document.Value{"n": document.Number(float64(i))})
		if err := s.Save(t.Context(), doc); err != nil {
			t.Fatalf("Save %d: %v", i, err)
		}
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 || entries[0].Name() != "content.json" {
		var names []string
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Fatalf("dir entries = %v, want only content.json", names)
	}
}

func TestFileStore_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "content.json")
	if err := os.WriteFile(path, []byte(`{"broken":`), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := NewFileStore(path).Load(t.Context()); !errors.Is(err, ErrInvalidDocument) {
		t.Fatalf("Load err = %v, want ErrInvalidDocument", err)
	}
}

func TestFileStore_UnreadableIsUnavailable(t *testing.T) {
	// a directory where the file should be
	path := t.TempDir()
	_, err := NewFileStore(path).Load(t.Context())
	if !errors.Is(err, ErrStorageUnavailable) {
		t.Fatalf("Load err = %v, want ErrStorageUnavailable", err)
	}
}

func TestFileStore_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(t.Context())
	cancel()
	s := NewFileStore(filepath.Join(t.TempDir(), "content.json"))
	if err := s.Save(ctx, document.EmptyObject()); !errors.Is(err, context.Canceled) {
		t.Fatalf("Save err = %v", err)
	}
}

func TestFallbackStore(t *testing.T) {
	primaryDoc := document.MustParse(`{"from":"primary"}`)
	fallbackDoc := document.MustParse(`{"from":"fallback"}`)

	t.Run("primary wins", func(t *testing.T) {
		p := &memStore{doc: primaryDoc, has: true, src: SourceS3}
		f := &memStore{doc: fallbackDoc, has: true, src: SourceFile}
		s := NewFallbackStore(p, f)
		got, err := s.Load(t.Context())
		if err != nil || !document.Equal(got, primaryDoc) {
			t.Fatalf("Load = %v, %v", got, err)
		}
		if f.loads != 0 {
			t.Fatal("fallback read although primary succeeded")
		}
		if s.Source() != SourceS3 {
			t.Fatalf("Source = %q", s.Source())
		}
	})

	t.Run("falls back on error", func(t *testing.T) {
		p := &memStore{loadErr: unavailable("get", errors.New("timeout")), src: SourceS3}
		f := &memStore{doc: fallbackDoc, has: true, src: SourceFile}
		s := NewFallbackStore(p, f)
		got, err := s.Load(t.Context())
		if err != nil || !document.Equal(got, fallbackDoc) {
			t.Fatalf("Load = %v, %v", got, err)
		}
		if s.Source() != SourceFile {
			t.Fatalf("Source = %q, want file", s.Source())
		}
	})

	t.Run("outage after primary answered returns the error", func(t *testing.T) {
		p := &memStore{doc: primaryDoc, has: true, src: SourceS3}
		f := &memStore{doc: fallbackDoc, has: true, src: SourceFile}
		s := NewFallbackStore(p, f)
		if _, err := s.Load(t.Context()); err != nil {
			t.Fatalf("first Load: %v", err)
		}
		p.loadErr = unavailable("get", errors.New("timeout"))
		if _, err := s.Load(t.Context()); !errors.Is(err, ErrStorageUnavailable) {
			t.Fatalf("Load err = %v, want ErrStorageUnavailable", err)
		}
		if f.loads != 0 {
			t.Fatal("fallback read during a primary outage")
		}
		if s.Source() != SourceS3 {
			t.Fatalf("Source = %q", s.Source())
		}
	})

	t.Run("primary missing after answering still falls back", func(t *testing.T) {
		p := &memStore{doc: primaryDoc, has: true, src: SourceS3}
		f := &memStore{doc: fallbackDoc, has: true, src: SourceFile}
		s := NewFallbackStore(p, f)
		if _, err := s.Load(t.Context()); err != nil {
			t.Fatalf("first Load: %v", err)
		}
		p.has = false
		got, err := s.Load(t.Context())
		if err != nil || !document.Equal(got, fallbackDoc) {
			t.Fatalf("Load = %v, %v", got, err)
		}
	})

	t.Run("both missing stays not found", func(t *testing.T) {
		s := NewFallbackStore(&memStore{}, &memStore{})
		if _, err := s.Load(t.Context()); !errors.Is(err, ErrNotFound) {
			t.Fatalf("Load err = %v, want ErrNotFound", err)
		}
	})

	t.Run("saves go to primary", func(t *testing.T) {
		p, f := &memStore{}, &memStore{}
		if err := NewFallbackStore(p, f).Save(t.Context(), primaryDoc); err != nil {
			t.Fatal(err)
		}
		if len(p.saves) != 1 || len(f.saves) != 0 {
			t.Fatalf("saves primary=%d fallback=%d", len(p.saves), len(f.saves))
		}
	})
}

func jsonString(t *testing.T, v document.Value) string {
	t.Helper()
	b, err := v.MarshalJSON()
	if err != nil {
		t.Fatalf("MarshalJSON: %v", err)
	}
	return string(b)
}
