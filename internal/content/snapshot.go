package content

import (
	"time"

	"github.com/keithlinneman/yummigo-web/internal/document"
)

// Snapshot is an immutable activated document. Doc is never mutated after
// Set; edits produce a new root.
type Snapshot struct {
	Doc      document.Value
	Meta     Meta
	LoadedAt time.Time
}
