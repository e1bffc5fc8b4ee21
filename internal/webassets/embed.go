package webassets

import (
	"embed"
	"fmt"
	"io/fs"
)

//go:embed fallback site seed
var embedded embed.FS

// FallbackFS holds the maintenance page and the plain 404.
func FallbackFS() fs.FS {
	return mustSub("fallback")
}

// SiteFS is the static front-end served at /.
func SiteFS() fs.FS {
	return mustSub("site")
}

// SeedContent is the document used when no store has one yet.
func SeedContent() []byte {
	b, err := fs.ReadFile(embedded, "seed/content.json")
	if err != nil {
		panic(fmt.Errorf("webassets: seed content: %w", err))
	}
	return b
}

func mustSub(dir string) fs.FS {
	sub, err := fs.Sub(embedded, dir)
	if err != nil {
		panic(fmt.Errorf("webassets: %s subfs: %w", dir, err))
	}
	return sub
}
