package sitehandler

import (
	"path"
	"strings"
)

func cacheControlForFile(name string, o *Options) string {
	switch strings.ToLower(path.Ext(name)) {
	case ".html", "":
		return o.HTMLCacheControl
	case ".css", ".js", ".mjs", ".woff", ".woff2", ".ttf", ".map":
		return o.AssetCacheControl
	case ".png", ".jpg", ".jpeg", ".webp", ".avif", ".gif", ".svg", ".ico":
		// seed images share names with uploads that replace them
		return o.ImageCacheControl
	default:
		return o.OtherCacheControl
	}
}
