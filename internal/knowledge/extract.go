package knowledge

import "strings"

// ExtractSymptoms scans free text for known symptoms by substring containment
// against every key in the index and returns canonical symptom names. Matches
// are emitted in index key order, not text order. Substring matching is a
// deliberate heuristic: it tolerates conversational phrasing and accepts the
// occasional false positive from a symptom name embedded in a longer word.
func ExtractSymptoms(text string, ix *Index) []string {
	lowered := strings.ToLower(text)

	var found []string
	for _, key := range ix.Keys() {
		if strings.Contains(lowered, key) {
			// Canonical name comes from the first entry for the key.
			found = append(found, ix.entries[key][0].Symptom)
		}
	}
	return found
}

// ExtractAll runs extraction over each text independently and flattens the
// results in input order. Duplicates are kept: a symptom mentioned in several
// messages contributes to scoring once per mention.
func ExtractAll(texts []string, ix *Index) []string {
	var all []string
	for _, t := range texts {
		all = append(all, ExtractSymptoms(t, ix)...)
	}
	return all
}
