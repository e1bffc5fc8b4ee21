package sitehandler

import (
	"testing"
	"testing/fstest"
)

func TestResolvePath(t *testing.T) {
	fsys := fstest.MapFS{
		"index.html":       &fstest.MapFile{},
		"admin/index.html": &fstest.MapFile{},
		"app.js":           &fstest.MapFile{},
	}
	tests := []struct {
		in       string
		file     string
		redirect string
		ok       bool
	}{
		{"", "index.html", "", true},
		{"/", "index.html", "", true},
		{"/admin/", "admin/index.html", "", true},
		{"/admin", "", "/admin/", true},
		{"/app.js", "app.js", "", true},
		{"app.js", "app.js", "", true},
		{"/missing.js", "", "", false},
		{"/missing", "", "", false},
		{"/missing/", "", "", false},
		{"/../etc/passwd", "", "", false},
		{"/a\\b", "", "", false},
		{"/a\x00b", "", "", false},
		{"/./app.js", "", "", false},
		{"//app.js", "app.js", "", true},
	}
	for _, tt := range tests {
		file, redirect, ok := resolvePath(tt.in, fsys)
		if file != tt.file || redirect != tt.redirect || ok != tt.ok {
			t.Errorf("resolvePath(%q) = (%q, %q, %v), want (%q, %q, %v)", tt.in, file, redirect, ok, tt.file, tt.redirect, tt.ok)
		}
	}
}

func TestResolveImage(t *testing.T) {
	fsys := fstest.MapFS{
		"Hero/1.jpeg":       &fstest.MapFile{},
		"Hero/.placeholder": &fstest.MapFile{},
		"uploads/a b.png":   &fstest.MapFile{},
	}
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"/Hero/1.jpeg", "Hero/1.jpeg", true},
		{"/uploads/a b.png", "uploads/a b.png", true},
		{"/Hero/.placeholder", "", false},
		{"/Hero/2.jpeg", "", false},
		{"/Hero", "", false},
		{"/Hero/x/1.jpeg", "", false},
		{"/Hero/../Hero/1.jpeg", "", false},
	}
	for _, tt := range tests {
		got, ok := resolveImage(tt.in, fsys)
		if got != tt.want || ok != tt.ok {
			t.Errorf("resolveImage(%q) = (%q, %v), want (%q, %v)", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestCacheControlForFile(t *testing.T) {
	o := &Options{}
	o.setDefaults()
	tests := map[string]string{
		"index.html":  o.HTMLCacheControl,
		"admin":       o.HTMLCacheControl,
		"app.js":      o.AssetCacheControl,
		"styles.CSS":  o.AssetCacheControl,
		"Hero/1.jpeg": o.ImageCacheControl,
		"robots.txt":  o.OtherCacheControl,
	}
	for name, want := range tests {
		if got := cacheControlForFile(name, o); got != want {
			t.Errorf("cacheControlForFile(%q) = %q, want %q", name, got, want)
		}
	}
}
