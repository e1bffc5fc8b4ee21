package content

type Source string

const (
	SourceUnknown Source = "unknown"
	SourceSeed    Source = "seed"
	SourceFile    Source = "file"
	SourceS3      Source = "s3"
)

// Meta identifies one version of the document.
type Meta struct {
	// Hash is the hex sha256 of the stored encoding.
	Hash string `json:"sha256,omitempty"`
	// Version counts activations in this process, starting at 1.
	Version string `json:"version,omitempty"`
	Source  Source `json:"source,omitempty"`
}
