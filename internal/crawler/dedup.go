package crawler

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"sync"

	"golang.org/x/text/unicode/norm"
)

// Fingerprint computes a content fingerprint for dedup: the text is
// NFC-normalized so composed and decomposed Unicode forms compare
// equal, lowercased, whitespace-collapsed, and hashed with SHA-256.
// Pages that differ only in markup, casing, or spacing share a
// fingerprint.
func Fingerprint(text string) string {
	canonical := norm.NFC.String(text)
	canonical = strings.ToLower(canonical)
	canonical = strings.Join(strings.Fields(canonical), " ")

	sum := sha256.Sum256([]byte(canonical))
	return hex.EncodeToString(sum[:])
}

// dedupIndex tracks fingerprints seen during one run.
type dedupIndex struct {
	mu   sync.Mutex
	seen map[string]bool
}

func newDedupIndex() *dedupIndex {
	return &dedupIndex{seen: make(map[string]bool)}
}

// Seen records the fingerprint and reports whether it was already
// present. The check and the insert are one atomic step so two workers
// finishing identical pages at once cannot both claim first sight.
func (d *dedupIndex) Seen(fingerprint string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.seen[fingerprint] {
		return true
	}
	d.seen[fingerprint] = true
	return false
}
