// Package extract implements the idempotent extraction job coordinator.
//
// This file derives the request fingerprint: a deterministic hash over the
// tenant and the normalized job parameters. Logically equivalent requests
// (case, accents, whitespace, variant order) collapse onto one fingerprint,
// which is the deduplication key and the caller's polling handle.
package extract

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var foldTransformer = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Normalize canonicalizes a user-supplied query term: lower-cased, trimmed,
// internal whitespace collapsed, diacritics stripped. "Cafeterías  MADRID"
// and "cafeterias madrid" normalize identically.
func Normalize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.Join(strings.Fields(s), " ")
	if folded, _, err := transform.String(foldTransformer, s); err == nil {
		s = folded
	}
	return s
}

// NormalizeVariants normalizes, deduplicates, and sorts query variants.
// Empty variants are dropped.
func NormalizeVariants(variants []string) []string {
	seen := make(map[string]struct{}, len(variants))
	out := make([]string, 0, len(variants))
	for _, v := range variants {
		n := Normalize(v)
		if n == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Fingerprint computes the deduplication key for a job request. The inputs
// must already be normalized; Coordinator.Submit does this before calling.
func Fingerprint(tenantID int64, niche, geo string, variants []string, pages int) string {
	h := sha256.New()
	fmt.Fprintf(h, "%d\n%s\n%s\n%d\n", tenantID, niche, geo, pages)
	for _, v := range variants {
		h.Write([]byte(v))
		h.Write([]byte{'\n'})
	}
	return hex.EncodeToString(h.Sum(nil))
}
