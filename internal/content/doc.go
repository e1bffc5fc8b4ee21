// Package content owns the site content document: where it is stored, the
// copy currently being served, and the admin operations that change it.
//
// The core components are:
//   - [Store]: loads and saves the encoded document ([FileStore], [S3Store],
//     [FallbackStore])
//   - [Manager]: holds the active [Snapshot] behind an atomic.Pointer so
//     readers never block
//   - [Service]: admin operations (save, patch by path, delete) that go
//     through the store and then swap the snapshot
//   - [Watcher]: polls the store and swaps in documents saved by other
//     instances
//
// Saves are last-write-wins. There is no merge and no concurrency token.
package content
