// Package ranking orders and trims signal lists. Pure functions over
// immutable signals; the only stateful piece is the injected logger.
package ranking

import (
	"sort"

	"github.com/swingscan/swingscan/internal/contracts"
	"github.com/swingscan/swingscan/pkg/logger"
)

// Ranker sorts signals by score and applies post-rank filters.
type Ranker struct {
	logger *logger.Logger
}

// NewRanker creates a new signal ranker.
func NewRanker(log *logger.Logger) *Ranker {
	return &Ranker{logger: log}
}

// Rank returns a new slice sorted by score descending. The sort is
// stable, so equal-score signals keep their input order and re-ranking
// an already ranked list is a no-op.
func (r *Ranker) Rank(signals []contracts.Signal) []contracts.Signal {
	out := make([]contracts.Signal, len(signals))
	copy(out, signals)

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})

	return out
}

// TopN returns at most n signals from the front of a ranked list.
// n <= 0 means no truncation.
func (r *Ranker) TopN(signals []contracts.Signal, n int) []contracts.Signal {
	if n <= 0 || n >= len(signals) {
		return signals
	}
	r.logger.WithFields(map[string]interface{}{
		"total": len(signals),
		"kept":  n,
	}).Debug("Truncating ranked signals")
	return signals[:n]
}

// FilterByScore keeps signals at or above the given score.
func (r *Ranker) FilterByScore(signals []contracts.Signal, minScore float64) []contracts.Signal {
	out := make([]contracts.Signal, 0, len(signals))
	for _, s := range signals {
		if s.Score >= minScore {
			out = append(out, s)
		}
	}
	return out
}

// FilterByRiskReward keeps signals at or above the given R/R ratio.
func (r *Ranker) FilterByRiskReward(signals []contracts.Signal, minRR float64) []contracts.Signal {
	out := make([]contracts.Signal, 0, len(signals))
	for _, s := range signals {
		if s.RiskReward >= minRR {
			out = append(out, s)
		}
	}
	return out
}

// Stats summarizes a ranked signal list.
type Stats struct {
	Count    int     `json:"count"`
	AvgScore float64 `json:"avg_score"`
	MaxScore float64 `json:"max_score"`
	MinScore float64 `json:"min_score"`
	AvgRR    float64 `json:"avg_rr"`
}

// SummaryStats computes aggregate statistics over a signal list.
// Returns the zero value for an empty list.
func SummaryStats(signals []contracts.Signal) Stats {
	if len(signals) == 0 {
		return Stats{}
	}

	st := Stats{
		Count:    len(signals),
		MaxScore: signals[0].Score,
		MinScore: signals[0].Score,
	}

	var scoreSum, rrSum float64
	for _, s := range signals {
		scoreSum += s.Score
		rrSum += s.RiskReward
		if s.Score > st.MaxScore {
			st.MaxScore = s.Score
		}
		if s.Score < st.MinScore {
			st.MinScore = s.Score
		}
	}

	st.AvgScore = scoreSum / float64(len(signals))
	st.AvgRR = rrSum / float64(len(signals))
	return st
}
