package snapshot

import "path"

// Artifact file extensions. Documents whose re-probed type is neither PDF
// nor Word land with the opaque extension.
const (
	ExtScreenshot = ".png"
	ExtHTML       = ".html"
	ExtText       = ".txt"
	ExtPDF        = ".pdf"
	ExtWord       = ".docx"
	ExtOpaque     = ".bin"
)

// Layout maps fingerprints to artifact paths relative to the output root.
// Paths are slash-separated; blob stores translate to their own separators.
type Layout struct{}

// Dirs lists the artifact directories that must exist before a run.
func (Layout) Dirs() []string {
	return []string{"screenshots", "html", "text", "doc"}
}

// DataDir is the persistent browser profile directory.
func (Layout) DataDir() string { return "data-dir" }

// IndexFile is the persisted index path.
func (Layout) IndexFile() string { return "index.json" }

// FailuresFile is the failure ledger path.
func (Layout) FailuresFile() string { return "failed_urls.json" }

// Screenshot returns the screenshot path for a fingerprint.
func (Layout) Screenshot(fp string) string {
	return path.Join("screenshots", fp+ExtScreenshot)
}

// HTML returns the serialized HTML path for a fingerprint.
func (Layout) HTML(fp string) string {
	return path.Join("html", fp+ExtHTML)
}

// Text returns the extracted text path for a fingerprint.
func (Layout) Text(fp string) string {
	return path.Join("text", fp+ExtText)
}

// Document returns the raw document path for a fingerprint and extension
// (extension includes the leading dot).
func (Layout) Document(fp string, ext string) string {
	return path.Join("doc", fp+ext)
}

// PagePaths returns the three page artifact paths for a fingerprint, in
// screenshot/HTML/text order.
func (l Layout) PagePaths(fp string) []string {
	return []string{l.Screenshot(fp), l.HTML(fp), l.Text(fp)}
}

// ArtifactPaths lists the root-relative files an ArtifactSet names, for
// mirroring and inspection. Fields already hold root-relative paths.
func (Layout) ArtifactPaths(a ArtifactSet) []string {
	var out []string
	for _, p := range []string{a.Screenshot, a.HTML, a.Document, a.Text} {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
