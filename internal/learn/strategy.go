package learn

import (
	"math"
	"sort"

	"github.com/purs3lab/arbitrar/internal/database"
)

// Item is one pool member as the ranking strategy sees it: the member's
// position in the full pool and its encoded feature vector.
type Item struct {
	Index int
	X     []float64
}

// ScoredAlarm is one ranked alarm candidate.
type ScoredAlarm struct {
	Point *database.DataPoint
	Score float64
}

// Strategy is the injected ranking half of the oracle loop. The loop owns
// the labeling protocol, propagation and bookkeeping; the strategy owns
// which point to ask about next and how the final alarm list is ranked.
// Models behind a Strategy are opaque to the loop.
type Strategy interface {
	// Select picks the next pool member to label from the remaining pool
	// and returns its pool index. ok=false means the strategy has nothing
	// left to offer and ends the loop.
	Select(remaining []Item) (idx int, ok bool)

	// Feedback reports one labeling outcome, including each propagated
	// member. Strategies that do not learn online ignore it.
	Feedback(item Item, isAlarm bool)

	// Alarms returns the current top-k candidates by model score,
	// highest-scored first. k larger than the pool returns the whole pool.
	Alarms(k int) []ScoredAlarm
}

// MeanDistance is the baseline strategy: it scores every pool member by
// Euclidean distance from the pool's mean feature vector and explores
// highest-score-first. Feedback is ignored.
type MeanDistance struct {
	points []*database.DataPoint
	scores []float64
}

// NewMeanDistance builds the baseline ranking over the full pool.
func NewMeanDistance(pool Pool) *MeanDistance {
	s := &MeanDistance{points: pool.Points, scores: make([]float64, len(pool.Xs))}
	if len(pool.Xs) == 0 || len(pool.Xs[0]) == 0 {
		return s
	}
	dims := len(pool.Xs[0])
	mean := make([]float64, dims)
	for _, x := range pool.Xs {
		for d := 0; d < dims && d < len(x); d++ {
			mean[d] += x[d]
		}
	}
	for d := range mean {
		mean[d] /= float64(len(pool.Xs))
	}
	for i, x := range pool.Xs {
		var sum float64
		for d := 0; d < dims && d < len(x); d++ {
			diff := x[d] - mean[d]
			sum += diff * diff
		}
		s.scores[i] = math.Sqrt(sum)
	}
	return s
}

// Select returns the remaining member with the highest score.
func (s *MeanDistance) Select(remaining []Item) (int, bool) {
	best, found := -1, false
	for _, it := range remaining {
		if !found || s.scores[it.Index] > s.scores[best] {
			best, found = it.Index, true
		}
	}
	return best, found
}

// Feedback is a no-op; the baseline does not learn online.
func (s *MeanDistance) Feedback(Item, bool) {}

// Alarms returns the k highest-scored pool members.
func (s *MeanDistance) Alarms(k int) []ScoredAlarm {
	if k <= 0 {
		return nil
	}
	ranked := make([]ScoredAlarm, len(s.points))
	for i, dp := range s.points {
		ranked[i] = ScoredAlarm{Point: dp, Score: s.scores[i]}
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Score > ranked[j].Score })
	if k < len(ranked) {
		ranked = ranked[:k]
	}
	return ranked
}
