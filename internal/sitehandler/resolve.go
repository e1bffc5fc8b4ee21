package sitehandler

import (
	"io/fs"
	"path"
	"strings"

	"github.com/keithlinneman/yummigo-web/internal/pathutil"
)

// resolvePath maps a URL path to a file in fsys. A non-empty redirectTo
// asks the caller to redirect to the canonical slash URL.
func resolvePath(urlPath string, fsys fs.FS) (file string, redirectTo string, ok bool) {
	p, ok := cleanURLPath(urlPath)
	if !ok {
		return "", "", false
	}

	trailingSlash := strings.HasSuffix(p, "/")
	clean := path.Clean(p)
	if trailingSlash && clean != "/" {
		clean += "/"
	}

	switch {
	case clean == "/":
		return found(fsys, "index.html")
	case strings.HasSuffix(clean, "/"):
		return found(fsys, strings.TrimPrefix(clean, "/")+"index.html")
	case path.Ext(clean) != "":
		return found(fsys, strings.TrimPrefix(clean, "/"))
	}

	// /admin -> /admin/ when admin/index.html exists
	if existsFile(fsys, strings.TrimPrefix(clean, "/")+"/index.html") {
		return "", clean + "/", true
	}
	return "", "", false
}

// resolveImage maps /{bucket}/{file} to an uploaded image. Only one level
// is accepted and both parts must be safe names.
func resolveImage(urlPath string, fsys fs.FS) (string, bool) {
	p, ok := cleanURLPath(urlPath)
	if !ok {
		return "", false
	}
	bucket, file, ok := strings.Cut(strings.TrimPrefix(p, "/"), "/")
	if !ok || !pathutil.IsSafeFilename(bucket) || !pathutil.IsSafeFilename(file) {
		return "", false
	}
	if strings.HasPrefix(file, ".") {
		return "", false
	}
	name := bucket + "/" + file
	if !existsFile(fsys, name) {
		return "", false
	}
	return name, true
}

func cleanURLPath(p string) (string, bool) {
	if p == "" {
		p = "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if strings.ContainsAny(p, "\x00\\") || strings.Contains(p, "..") {
		return "", false
	}
	if pathutil.HasDotSegments(p) {
		return "", false
	}
	return p, true
}

func found(fsys fs.FS, name string) (string, string, bool) {
	if existsFile(fsys, name) {
		return name, "", true
	}
	return "", "", false
}

func existsFile(fsys fs.FS, name string) bool {
	if fsys == nil || name == "" || !fs.ValidPath(name) {
		return false
	}
	info, err := fs.Stat(fsys, name)
	if err != nil {
		return false
	}
	return !info.IsDir()
}
