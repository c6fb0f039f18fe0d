package analysis

import "testing"

func TestExpectedYellowDuration(t *testing.T) {
	cases := []struct {
		posted *int
		want   float64
	}{
		{nil, 3.0}, // defaults to 30
		{intPtr(25), 3.0},
		{intPtr(30), 3.0},
		{intPtr(35), 4.0},
		{intPtr(45), 4.0},
	}
	for _, c := range cases {
		if got := ExpectedYellowDuration(c.posted); got != c.want {
			t.Errorf("ExpectedYellowDuration(%v) = %v, want %v", c.posted, got, c.want)
		}
	}
}

func TestRecommendedYellowDuration(t *testing.T) {
	// 35 mph: 1.0 + (35 × 1.467) / 20 = 3.56725 → 3.6
	if got := RecommendedYellowDuration(35); got != 3.6 {
		t.Errorf("RecommendedYellowDuration(35) = %v, want 3.6", got)
	}
	// 30 mph: 1.0 + 44.01 / 20 = 3.2005 → 3.2
	if got := RecommendedYellowDuration(30); got != 3.2 {
		t.Errorf("RecommendedYellowDuration(30) = %v, want 3.2", got)
	}
}

func intPtr(v int) *int { return &v }
