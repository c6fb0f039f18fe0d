package units

import "testing"

// TestMphFromMpsExact verifies the conversion constant is carried bit-for-bit.
func TestMphFromMpsExact(t *testing.T) {
	got := MphFromMps(1.0)
	if got != 2.2369362920544 {
		t.Errorf("MphFromMps(1.0) = %v, want 2.2369362920544", got)
	}
	if r := Round1(got); r != 2.2 {
		t.Errorf("Round1(MphFromMps(1.0)) = %v, want 2.2", r)
	}
}

func TestRound1(t *testing.T) {
	cases := []struct {
		in, want float64
	}{
		{2.04, 2.0},
		{2.05, 2.1},
		{-0.46097722, -0.5},
		{0, 0},
	}
	for _, c := range cases {
		if got := Round1(c.in); got != c.want {
			t.Errorf("Round1(%v) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestRound3(t *testing.T) {
	if got := Round3(-0.46097722286464436); got != -0.461 {
		t.Errorf("Round3 = %v, want -0.461", got)
	}
}

func TestClamp(t *testing.T) {
	if got := Clamp(0.2, 1, 8); got != 1 {
		t.Errorf("Clamp low = %v, want 1", got)
	}
	if got := Clamp(12.5, 1, 8); got != 8 {
		t.Errorf("Clamp high = %v, want 8", got)
	}
	if got := Clamp(3.3, 1, 8); got != 3.3 {
		t.Errorf("Clamp mid = %v, want 3.3", got)
	}
}

func TestFpsFromMph(t *testing.T) {
	if got := FpsFromMph(35); got != 35*1.467 {
		t.Errorf("FpsFromMph(35) = %v, want %v", got, 35*1.467)
	}
}
