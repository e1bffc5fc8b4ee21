package sitehandler

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/keithlinneman/yummigo-web/internal/log"
)

var ErrInvalidOptions = errors.New("sitehandler: invalid options")

// ContentState reports whether a content document is loaded. The site is
// useless without one, so requests get the maintenance page until then.
type ContentState interface {
	ReadyErr() error
}

type Options struct {
	Logger  log.Logger
	Content ContentState

	// SiteFS is the built front-end (index.html, scripts, seed images).
	SiteFS fs.FS
	// ImagesFS holds uploaded images laid out as {bucket}/{file}; they are
	// served at /{bucket}/{file} when SiteFS has no such file. Optional.
	ImagesFS fs.FS
	// FallbackFS carries the maintenance page and a plain 404.
	FallbackFS fs.FS

	MaintenanceFile string // default: "maintenance.html"
	Fallback404File string // default: "404.html"
	Site404File     string // default: "404.html"

	HTMLCacheControl  string // default: "no-cache"
	AssetCacheControl string // default: "public, max-age=31536000, immutable"
	// ImageCacheControl applies to uploaded images, which can be replaced
	// in place (hero slides, about image).
	ImageCacheControl string // default: "public, max-age=300"
	OtherCacheControl string // default: "public, max-age=3600"
}

func (o *Options) setDefaults() {
	if o.Logger == nil {
		o.Logger = log.Nop()
	}
	if o.MaintenanceFile == "" {
		o.MaintenanceFile = "maintenance.html"
	}
	if o.Fallback404File == "" {
		o.Fallback404File = "404.html"
	}
	if o.Site404File == "" {
		o.Site404File = "404.html"
	}
	if o.HTMLCacheControl == "" {
		o.HTMLCacheControl = "no-cache"
	}
	if o.AssetCacheControl == "" {
		o.AssetCacheControl = "public, max-age=31536000, immutable"
	}
	if o.ImageCacheControl == "" {
		o.ImageCacheControl = "public, max-age=300"
	}
	if o.OtherCacheControl == "" {
		o.OtherCacheControl = "public, max-age=3600"
	}
}

func (o *Options) validate() error {
	if o.Content == nil {
		return fmt.Errorf("%w: Content is nil", ErrInvalidOptions)
	}
	if o.SiteFS == nil {
		return fmt.Errorf("%w: SiteFS is nil", ErrInvalidOptions)
	}
	if o.FallbackFS == nil {
		return fmt.Errorf("%w: FallbackFS is nil", ErrInvalidOptions)
	}
	// fail on boot if mispackaged
	if _, err := fs.Stat(o.FallbackFS, o.MaintenanceFile); err != nil {
		return fmt.Errorf("%w: missing %q in fallback FS: %v", ErrInvalidOptions, o.MaintenanceFile, err)
	}
	return nil
}
