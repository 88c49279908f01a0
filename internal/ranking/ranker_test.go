package ranking

import (
	"testing"

	"github.com/swingscan/swingscan/internal/contracts"
	"github.com/swingscan/swingscan/pkg/logger"
)

func sigs(pairs ...float64) []contracts.Signal {
	out := make([]contracts.Signal, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, contracts.Signal{
			Score:      pairs[i],
			RiskReward: pairs[i+1],
		})
	}
	return out
}

func TestRankDescending(t *testing.T) {
	r := NewRanker(logger.Nop())
	in := sigs(60, 2, 90, 3, 75, 1.5)

	out := r.Rank(in)

	want := []float64{90, 75, 60}
	for i, w := range want {
		if out[i].Score != w {
			t.Errorf("out[%d].Score = %v, want %v", i, out[i].Score, w)
		}
	}

	// Input untouched
	if in[0].Score != 60 {
		t.Error("Rank must not mutate its input")
	}
}

func TestRankStableAndIdempotent(t *testing.T) {
	r := NewRanker(logger.Nop())
	in := []contracts.Signal{
		{Symbol: "A", Score: 70},
		{Symbol: "B", Score: 70},
		{Symbol: "C", Score: 80},
	}

	once := r.Rank(in)
	twice := r.Rank(once)

	if once[1].Symbol != "A" || once[2].Symbol != "B" {
		t.Errorf("Equal scores must keep input order, got %v then %v", once[1].Symbol, once[2].Symbol)
	}
	for i := range once {
		if once[i].Symbol != twice[i].Symbol {
			t.Errorf("Re-ranking changed order at %d: %s vs %s", i, once[i].Symbol, twice[i].Symbol)
		}
	}
}

func TestTopN(t *testing.T) {
	r := NewRanker(logger.Nop())
	in := sigs(90, 1, 80, 1, 70, 1)

	if got := r.TopN(in, 2); len(got) != 2 {
		t.Errorf("TopN(2) kept %d, want 2", len(got))
	}
	if got := r.TopN(in, 0); len(got) != 3 {
		t.Errorf("TopN(0) must not truncate, kept %d", len(got))
	}
	if got := r.TopN(in, 10); len(got) != 3 {
		t.Errorf("TopN beyond length kept %d, want 3", len(got))
	}
}

func TestFilters(t *testing.T) {
	r := NewRanker(logger.Nop())
	in := sigs(90, 3, 65, 1.2, 70, 2)

	byScore := r.FilterByScore(in, 70)
	if len(byScore) != 2 {
		t.Errorf("FilterByScore kept %d, want 2", len(byScore))
	}

	byRR := r.FilterByRiskReward(in, 2)
	if len(byRR) != 2 {
		t.Errorf("FilterByRiskReward kept %d, want 2", len(byRR))
	}
}

func TestSummaryStats(t *testing.T) {
	st := SummaryStats(sigs(90, 3, 60, 1))

	if st.Count != 2 || st.MaxScore != 90 || st.MinScore != 60 {
		t.Errorf("Stats = %+v", st)
	}
	if st.AvgScore != 75 || st.AvgRR != 2 {
		t.Errorf("AvgScore = %v, AvgRR = %v", st.AvgScore, st.AvgRR)
	}

	if empty := SummaryStats(nil); empty.Count != 0 || empty.AvgScore != 0 {
		t.Errorf("Empty stats = %+v", empty)
	}
}
