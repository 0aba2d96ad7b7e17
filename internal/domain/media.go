package domain

// ResolvedMedia is the source resolver's output: a local media file plus
// the title used for transcript naming.
type ResolvedMedia struct {
	Path  string `json:"path"`
	Title string `json:"title"`
}
