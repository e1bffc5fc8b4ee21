package images

import (
	"context"
	"strings"
	"time"
)

// Store persists image files grouped by bucket.
type Store interface {
	// Put writes body as bucket/filename. Without overwrite an existing
	// file fails with ErrExists.
	Put(ctx context.Context, bucket, filename string, body []byte, contentType string, overwrite bool) (Object, error)
	List(ctx context.Context, bucket string) ([]Object, error)
	Delete(ctx context.Context, bucket, filename string) error
	URL(bucket, filename string) string
}

type Object struct {
	Filename string    `json:"filename"`
	URL      string    `json:"url"`
	Size     int64     `json:"size"`
	Created  time.Time `json:"created,omitzero"`
}

// publicURL joins base, bucket and filename. An empty base yields a
// site-relative path.
func publicURL(base, bucket, filename string) string {
	return strings.TrimRight(base, "/") + "/" + bucket + "/" + filename
}
