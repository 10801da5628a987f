// README: Criteria evaluation shared by the memory and redis index backends.
package search

import (
	"sort"
	"strings"
	"time"

	"foodbridge/internal/types"
)

// Criteria is a conjunctive filter set: every populated field must hold, the
// term internally matches name OR location. An empty Criteria matches every
// entry.
type Criteria struct {
	// Term matches name or pickup location. With Fuzzy set, tokens match
	// within an edit-distance tolerance; otherwise every word of the term
	// must be contained in the field.
	Term  string
	Fuzzy bool

	// ExpiringWithin restricts to entries whose expiry falls inside
	// [Now, Now+ExpiringWithin]. Zero disables the filter.
	ExpiringWithin time.Duration
	Now            time.Time

	DonorID *types.ID
}

// evaluate filters and orders entries. Name matches outrank location-only
// matches (name carries double weight, mirroring the boosted field in the
// original index), ties keep insertion order.
func evaluate(entries []Entry, c Criteria) []Entry {
	type scored struct {
		entry Entry
		score float64
		pos   int
	}
	var hits []scored
	for i, e := range entries {
		score, ok := c.match(e)
		if !ok {
			continue
		}
		hits = append(hits, scored{entry: e, score: score, pos: i})
	}
	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].score != hits[j].score {
			return hits[i].score > hits[j].score
		}
		return hits[i].pos < hits[j].pos
	})
	out := make([]Entry, len(hits))
	for i, h := range hits {
		out[i] = h.entry
	}
	return out
}

func (c Criteria) match(e Entry) (float64, bool) {
	score := 1.0
	if term := strings.TrimSpace(c.Term); term != "" {
		nameOK, locOK := matchField(e.Name, term, c.Fuzzy), matchField(e.PickupLocation, term, c.Fuzzy)
		if !nameOK && !locOK {
			return 0, false
		}
		if nameOK {
			score = 2.0
		}
	}
	if c.ExpiringWithin > 0 {
		if e.ExpiryDate.Before(c.Now) || e.ExpiryDate.After(c.Now.Add(c.ExpiringWithin)) {
			return 0, false
		}
	}
	if c.DonorID != nil && e.DonorID != *c.DonorID {
		return 0, false
	}
	return score, true
}

// matchField requires every word of the term to hit the field: as a
// substring in plain mode, or within edit-distance tolerance of some field
// token in fuzzy mode.
func matchField(field, term string, fuzzy bool) bool {
	field = strings.ToLower(field)
	for _, word := range strings.Fields(strings.ToLower(term)) {
		if fuzzy {
			if !fuzzyContains(field, word) {
				return false
			}
		} else if !strings.Contains(field, word) {
			return false
		}
	}
	return true
}

func fuzzyContains(field, word string) bool {
	tol := fuzzyTolerance(word)
	for _, token := range strings.Fields(field) {
		if levenshtein(token, word) <= tol {
			return true
		}
	}
	return false
}

// fuzzyTolerance mirrors the AUTO fuzziness of the original index: exact for
// short terms, one edit up to five characters, two beyond.
func fuzzyTolerance(word string) int {
	switch n := len([]rune(word)); {
	case n < 3:
		return 0
	case n <= 5:
		return 1
	default:
		return 2
	}
}

func levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}
	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, min(curr[j-1]+1, prev[j-1]+cost))
		}
		prev, curr = curr, prev
	}
	return prev[len(rb)]
}

// suggestFrom computes distinct prefix completions for the memory backend.
func suggestFrom(entries []Entry, prefix string, limit int) []string {
	prefix = strings.ToLower(strings.TrimSpace(prefix))
	if prefix == "" || limit <= 0 {
		return nil
	}
	seen := make(map[string]struct{})
	var names []string
	for _, e := range entries {
		if !strings.HasPrefix(strings.ToLower(e.Name), prefix) {
			continue
		}
		if _, dup := seen[e.Name]; dup {
			continue
		}
		seen[e.Name] = struct{}{}
		names = append(names, e.Name)
		if len(names) == limit {
			break
		}
	}
	return names
}
