package compose

import "regexp"

// hashtagPattern matches '#' followed by word characters in any script.
var hashtagPattern = regexp.MustCompile(`#([\p{L}\p{N}_]+)`)

// ExtractHashtags returns the distinct hashtag terms in text, without the
// leading '#', in order of first appearance. Case is preserved, so "Go" and
// "go" are different terms.
func ExtractHashtags(text string) []string {
	matches := hashtagPattern.FindAllStringSubmatch(text, -1)
	terms := make([]string, 0, len(matches))
	seen := make(map[string]bool, len(matches))
	for _, m := range matches {
		term := m[1]
		if seen[term] {
			continue
		}
		seen[term] = true
		terms = append(terms, term)
	}
	return terms
}
