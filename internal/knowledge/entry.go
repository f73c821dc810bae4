package knowledge

import (
	"encoding/csv"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Entry is one (disease, symptom) association from the knowledge base.
// Weight is the strength of the association, Noise a discount factor for
// symptom unreliability. Entries are immutable once loaded.
type Entry struct {
	DiseaseCode string
	Disease     string
	SymptomCode string
	Symptom     string
	Weight      float64
	Noise       float64
}

// SymptomWeight is the per-disease reference view of an association.
type SymptomWeight struct {
	Symptom string  `json:"symptom"`
	Weight  float64 `json:"weight"`
	Noise   float64 `json:"noise"`
}

// Profile groups knowledge entries by disease. It is a reference grouping
// only; scoring works off the Index.
type Profile map[string][]SymptomWeight

// Index maps lower-cased symptom names to their knowledge entries. Keys keep
// source-file order so extraction and scoring are deterministic. The index is
// built once at startup and read-only afterwards.
type Index struct {
	keys    []string
	entries map[string][]Entry
}

// Keys returns the lower-cased symptom keys in source order.
func (ix *Index) Keys() []string {
	return ix.keys
}

// Lookup returns the entries for a symptom, matched case-insensitively.
func (ix *Index) Lookup(symptom string) []Entry {
	return ix.entries[strings.ToLower(symptom)]
}

// Len returns the number of distinct symptom keys.
func (ix *Index) Len() int {
	return len(ix.keys)
}

// Load reads the knowledge base CSV and builds the symptom index and disease
// profile. The file has a header row with columns
// (diseaseCode, disease, symptomCode, symptom, weight, noise). Rows with an
// empty disease or symptom are discarded; malformed weight or noise values
// contribute zero. A missing or unreadable file is a fatal condition for the
// caller: the service cannot run without its knowledge base.
func Load(path string) (*Index, Profile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, errors.Wrap(err, "open knowledge base")
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, nil, errors.Wrap(err, "parse knowledge base")
	}
	if len(records) == 0 {
		return nil, nil, errors.New("knowledge base is empty")
	}

	var rows []Entry
	for _, rec := range records[1:] { // skip header
		if len(rec) < 6 {
			continue
		}
		e := Entry{
			DiseaseCode: strings.TrimSpace(rec[0]),
			Disease:     strings.TrimSpace(rec[1]),
			SymptomCode: strings.TrimSpace(rec[2]),
			Symptom:     strings.TrimSpace(rec[3]),
			Weight:      parseCoefficient(rec[4]),
			Noise:       parseCoefficient(rec[5]),
		}
		if e.Disease == "" || e.Symptom == "" {
			continue
		}
		rows = append(rows, e)
	}

	ix, profile := buildIndex(rows)
	return ix, profile, nil
}

// parseCoefficient parses a weight or noise column. Malformed and NaN values
// become 0 so they cannot propagate through score aggregation.
func parseCoefficient(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) {
		return 0
	}
	return v
}

func buildIndex(rows []Entry) (*Index, Profile) {
	ix := &Index{entries: make(map[string][]Entry)}
	profile := make(Profile)

	for _, e := range rows {
		key := strings.ToLower(e.Symptom)
		if _, seen := ix.entries[key]; !seen {
			ix.keys = append(ix.keys, key)
		}
		ix.entries[key] = append(ix.entries[key], e)

		profile[e.Disease] = append(profile[e.Disease], SymptomWeight{
			Symptom: e.Symptom,
			Weight:  e.Weight,
			Noise:   e.Noise,
		})
	}

	return ix, profile
}
