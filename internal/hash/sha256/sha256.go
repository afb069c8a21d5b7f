// Package sha256 provides the SHA-256 URL fingerprinter used to name
// artifact files.
package sha256

import (
	"crypto/sha256"
	"encoding/hex"
)

// Fingerprinter derives stable artifact-name stems from URLs.
type Fingerprinter struct{}

// New returns a SHA-256 fingerprinter.
func New() *Fingerprinter {
	return &Fingerprinter{}
}

// Fingerprint maps a URL to a lowercase hex digest. The same URL always
// yields the same digest, so artifact names survive restarts.
func (f *Fingerprinter) Fingerprint(url string) string {
	sum := sha256.Sum256([]byte(url))
	return hex.EncodeToString(sum[:])
}
