// Package layout fingerprints the DOM structure of portal pages so a run
// can flag entities whose page layout drifts from the rest of the batch —
// the usual cause of silently empty extractions.
package layout

import (
	"hash/fnv"
	"math/bits"
	"strings"

	"golang.org/x/net/html"
)

// shingleSize is the tag n-gram width. Three tags is enough to distinguish
// table-based detail layouts without being thrown off by one extra row.
const shingleSize = 3

// Fingerprint computes a 64-bit SimHash of a page's DOM structure. Only tag
// names in document order contribute; text content and attributes are
// ignored, so two detail pages with the same skeleton but different data
// fingerprint identically.
func Fingerprint(rawHTML string) uint64 {
	tags := tagSequence(rawHTML)
	if len(tags) == 0 {
		return 0
	}

	shingles := makeShingles(tags, shingleSize)
	if len(shingles) == 0 {
		// Too few tags for shingles; hash the tag sequence itself.
		return simhash(tags)
	}
	return simhash(shingles)
}

// Distance returns the Hamming distance between two fingerprints.
func Distance(a, b uint64) int {
	return bits.OnesCount64(a ^ b)
}

// Similar reports whether two fingerprints are within threshold bits.
func Similar(a, b uint64, threshold int) bool {
	return Distance(a, b) <= threshold
}

// simhash accumulates FNV-64a token hashes into a 64-dimension bit vector.
func simhash(tokens []string) uint64 {
	if len(tokens) == 0 {
		return 0
	}

	var vector [64]int
	for _, tok := range tokens {
		h := fnv.New64a()
		h.Write([]byte(tok))
		hash := h.Sum64()

		for i := 0; i < 64; i++ {
			if hash&(1<<uint(i)) != 0 {
				vector[i]++
			} else {
				vector[i]--
			}
		}
	}

	var fp uint64
	for i := 0; i < 64; i++ {
		if vector[i] > 0 {
			fp |= 1 << uint(i)
		}
	}
	return fp
}

// tagSequence walks HTML with the tokenizer and collects open tag names in order.
func tagSequence(rawHTML string) []string {
	tokenizer := html.NewTokenizer(strings.NewReader(rawHTML))
	var tags []string

	for {
		tt := tokenizer.Next()
		switch tt {
		case html.ErrorToken:
			return tags
		case html.StartTagToken, html.SelfClosingTagToken:
			tn, _ := tokenizer.TagName()
			tags = append(tags, string(tn))
		}
	}
}

// makeShingles creates n-gram shingles from a slice of tokens.
func makeShingles(tokens []string, n int) []string {
	if len(tokens) < n {
		return nil
	}

	shingles := make([]string, 0, len(tokens)-n+1)
	for i := 0; i <= len(tokens)-n; i++ {
		shingles = append(shingles, strings.Join(tokens[i:i+n], "_"))
	}
	return shingles
}
