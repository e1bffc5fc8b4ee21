// Package images stores uploaded site images and enforces the upload
// policy.
//
// A bucket is a named group of images (Hero, about, menu, ...). [S3Store]
// maps buckets to key prefixes inside one S3 bucket and [DiskStore] maps
// them to directories. [Service] validates type, size and names, picks the
// stored filename and records metrics.
package images
