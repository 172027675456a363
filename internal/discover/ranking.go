package discover

import (
	"sort"
)

// candidate is a ranked discovery pick. Priority marks monetized placement:
// the candidate is boosted or has super-liked the viewer.
type candidate struct {
	ID       int64
	Score    float64
	Priority bool
}

const (
	boostScoreBonus        = 0.3
	mutualSuperLikeBonus   = 1.0
	receivedSuperLikeBonus = 0.5
	maxConsecutivePriority = 2
)

// jaccardSimilarity scores interest overlap. The denominator is floored at
// one so two empty lists score zero rather than dividing by zero.
func jaccardSimilarity(a, b []string) float64 {
	set := make(map[string]bool, len(a))
	for _, k := range a {
		set[k] = true
	}

	intersection := 0
	union := len(set)
	seen := make(map[string]bool, len(b))
	for _, k := range b {
		if seen[k] {
			continue
		}
		seen[k] = true
		if set[k] {
			intersection++
		} else {
			union++
		}
	}

	if union < 1 {
		union = 1
	}
	return float64(intersection) / float64(union)
}

// sortByScore orders candidates best first, breaking score ties on ascending
// id so ranking is deterministic.
func sortByScore(cands []candidate) {
	sort.Slice(cands, func(i, j int) bool {
		if cands[i].Score != cands[j].Score {
			return cands[i].Score > cands[j].Score
		}
		return cands[i].ID < cands[j].ID
	})
}

func splitByPriority(cands []candidate) (priority, regular []candidate) {
	for _, c := range cands {
		if c.Priority {
			priority = append(priority, c)
		} else {
			regular = append(regular, c)
		}
	}
	return priority, regular
}

// interleave merges priority picks ahead of regular ones while never letting
// more than maxConsecutivePriority priority picks run back to back, as long
// as regular picks remain to break the run.
func interleave(priority, regular []candidate, limit int) []candidate {
	out := make([]candidate, 0, limit)
	streak := 0
	pi, ri := 0, 0

	for len(out) < limit && (pi < len(priority) || ri < len(regular)) {
		takePriority := pi < len(priority) && (streak < maxConsecutivePriority || ri >= len(regular))
		if takePriority {
			out = append(out, priority[pi])
			pi++
			streak++
		} else {
			out = append(out, regular[ri])
			ri++
			streak = 0
		}
	}
	return out
}

func toIDSet(ids []int64) map[int64]bool {
	set := make(map[int64]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}
