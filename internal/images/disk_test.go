package images

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDiskStore_PutListDelete(t *testing.T) {
	root := t.TempDir()
	s := NewDiskStore(root, "")

	obj, err := s.Put(t.Context(), "Hero", "1.jpg", []byte("jpeg"), "image/jpeg", false)
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if obj.URL != "/Hero/1.jpg" || obj.Size != 4 {
		t.Fatalf("obj = %+v", obj)
	}
	if b, _ := os.ReadFile(filepath.Join(root, "Hero", "1.jpg")); string(b) != "jpeg" {
		t.Fatalf("file content = %q", b)
	}

	if _, err := s.Put(t.Context(), "Hero", "1.jpg", []byte("again"), "image/jpeg", false); !errors.Is(err, ErrExists) {
		t.Fatalf("second Put err = %v, want ErrExists", err)
	}
	if _, err := s.Put(t.Context(), "Hero", "1.jpg", []byte("replaced"), "image/jpeg", true); err != nil {
		t.Fatalf("overwrite Put: %v", err)
	}
	if b, _ := os.ReadFile(filepath.Join(root, "Hero", "1.jpg")); string(b) != "replaced" {
		t.Fatalf("file content after overwrite = %q", b)
	}

	if _, err := s.Put(t.Context(), "Hero", "0.png", []byte("png"), "image/png", false); err != nil {
		t.Fatal(err)
	}
	objs, err := s.List(t.Context(), "Hero")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(objs) != 2 || objs[0].Filename != "0.png" || objs[1].Filename != "1.jpg" {
		t.Fatalf("List = %+v", objs)
	}
	if objs[1].Size != int64(len("replaced")) || objs[1].Created.IsZero() {
		t.Fatalf("object metadata = %+v", objs[1])
	}

	if err := s.Delete(t.Context(), "Hero", "1.jpg"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := s.Delete(t.Context(), "Hero", "1.jpg"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Delete missing err = %v, want ErrNotFound", err)
	}
}

func TestDiskStore_ListMissingBucket(t *testing.T) {
	objs, err := NewDiskStore(t.TempDir(), "").List(t.Context(), "menu")
	if err != nil || len(objs) != 0 {
		t.Fatalf("List = %v, %v", objs, err)
	}
}

func TestDiskStore_PublicBaseURL(t *testing.T) {
	s := NewDiskStore(t.TempDir(), "https://cdn.example.com/")
	if got := s.URL("about", "about.png"); got != "https://cdn.example.com/about/about.png" {
		t.Fatalf("URL = %q", got)
	}
}

func TestDiskStore_OverwriteLongName(t *testing.T) {
	s := NewDiskStore(t.TempDir(), "")
	name := "about." + strings.Repeat("x", 240)

	for i, body := range []string{"first", "second"} {
		obj, err := s.Put(t.Context(), "About", name, []byte(body), "image/png", true)
		if err != nil {
			t.Fatalf("Put #%d: %v", i, err)
		}
		if obj.Size != int64(len(body)) {
			t.Fatalf("Put #%d size = %d", i, obj.Size)
		}
	}
	got, err := os.ReadFile(filepath.Join(s.Root, "About", name))
	if err != nil || string(got) != "second" {
		t.Fatalf("stored = %q, %v", got, err)
	}
	entries, err := os.ReadDir(filepath.Join(s.Root, "About"))
	if err != nil || len(entries) != 1 {
		t.Fatalf("bucket has %d entries, want 1 (%v)", len(entries), err)
	}
}
