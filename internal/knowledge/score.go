package knowledge

import (
	"fmt"
	"sort"
	"strings"
)

// probabilityFloor suppresses noise-level matches from the result list.
const probabilityFloor = 0.1

// highConfidence is the probability at which the summary switches from a
// ranked candidate list to a single diagnosis statement.
const highConfidence = 0.7

// ProbabilityResult is the per-disease outcome of one scoring call. The
// probability is an independent confidence ratio in (0,1], not part of a
// normalized distribution across diseases: candidates are scored separately
// and need not sum to 1. Results are created fresh per call and never stored.
type ProbabilityResult struct {
	Disease          string   `json:"disease"`
	Probability      float64  `json:"probability"`
	MatchingSymptoms []string `json:"matchingSymptoms"`
	TotalWeight      float64  `json:"totalWeight"`
	Score            float64  `json:"score"`
}

type contribution struct {
	symptom        string
	weight         float64
	adjustedWeight float64
}

// Score aggregates noise-adjusted symptom weights per disease and returns
// candidates ranked by confidence. Symptoms are processed in input order and
// duplicates are not removed, so repeated mentions raise both score and total
// weight. An unknown symptom contributes nothing. Ties keep first-seen
// disease order.
func Score(symptoms []string, ix *Index) []ProbabilityResult {
	scores := make(map[string]float64)
	totals := make(map[string]float64)
	contribs := make(map[string][]contribution)
	var order []string

	for _, symptom := range symptoms {
		for _, e := range ix.Lookup(symptom) {
			if _, seen := scores[e.Disease]; !seen {
				order = append(order, e.Disease)
			}
			adjusted := e.Weight * (1 - e.Noise)
			scores[e.Disease] += adjusted
			totals[e.Disease] += e.Weight
			contribs[e.Disease] = append(contribs[e.Disease], contribution{
				symptom:        e.Symptom,
				weight:         e.Weight,
				adjustedWeight: adjusted,
			})
		}
	}

	var results []ProbabilityResult
	for _, disease := range order {
		total := totals[disease]
		if total <= 0 {
			continue
		}

		cs := contribs[disease]
		sort.SliceStable(cs, func(i, j int) bool {
			return cs[i].adjustedWeight > cs[j].adjustedWeight
		})
		matching := make([]string, len(cs))
		for i, c := range cs {
			matching[i] = c.symptom
		}

		results = append(results, ProbabilityResult{
			Disease:          disease,
			Probability:      scores[disease] / total,
			MatchingSymptoms: matching,
			TotalWeight:      total,
			Score:            scores[disease],
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Probability > results[j].Probability
	})

	filtered := results[:0]
	for _, r := range results {
		if r.Probability > probabilityFloor {
			filtered = append(filtered, r)
		}
	}
	return filtered
}

// FormatSummary renders the sorted result list as the probability text
// embedded in generation prompts. With a high-confidence candidate it states
// a single diagnosis plus runner-up percentages; otherwise it lists the top
// three and notes that certainty is insufficient. Pure function of its input.
func FormatSummary(results []ProbabilityResult) string {
	if len(results) == 0 {
		return "Based on your symptoms, I don't have enough information to make a prediction yet."
	}

	top := results
	if len(top) > 3 {
		top = top[:3]
	}

	for _, candidate := range top {
		if candidate.Probability < highConfidence {
			continue
		}

		var b strings.Builder
		fmt.Fprintf(&b, "Based on your symptoms, I can provide a diagnosis:\n\n")
		fmt.Fprintf(&b, "DIAGNOSIS: %s\n", candidate.Disease)
		fmt.Fprintf(&b, "CONFIDENCE: %.1f%%\n", candidate.Probability*100)
		fmt.Fprintf(&b, "SUPPORTING SYMPTOMS: %s\n", strings.Join(candidate.MatchingSymptoms, ", "))
		b.WriteString("\nOther possible conditions:\n")
		for _, other := range top {
			if other.Disease == candidate.Disease {
				continue
			}
			fmt.Fprintf(&b, "%s: %.1f%%\n", other.Disease, other.Probability*100)
		}
		return strings.TrimRight(b.String(), "\n")
	}

	var b strings.Builder
	b.WriteString("Based on your symptoms, here are the potential diagnoses:\n")
	for _, r := range top {
		fmt.Fprintf(&b, "%s: %.1f%% (matching symptoms: %s)\n", r.Disease, r.Probability*100, strings.Join(r.MatchingSymptoms, ", "))
	}
	b.WriteString("\nI need more information to make a definitive diagnosis.")
	return b.String()
}
