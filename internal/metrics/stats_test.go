package metrics

import "testing"

func TestPercentileIndexRule(t *testing.T) {
	sorted := []float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100}

	cases := []struct {
		p    float64
		want float64
	}{
		{0.25, 30},
		{0.50, 50},
		{0.75, 80},
		{0.90, 90},
		{0.95, 100},
	}
	for _, c := range cases {
		got := percentileOf(sorted, c.p)
		if got == nil || *got != c.want {
			t.Fatalf("p=%v: expected %v, got %v", c.p, c.want, got)
		}
	}
}

func TestPercentileSingleValue(t *testing.T) {
	sorted := []float64{42}
	for _, p := range []float64{0.25, 0.5, 0.95} {
		got := percentileOf(sorted, p)
		if got == nil || *got != 42 {
			t.Fatalf("p=%v: expected 42, got %v", p, got)
		}
	}
}

func TestPercentileEmpty(t *testing.T) {
	if got := percentileOf(nil, 0.5); got != nil {
		t.Fatalf("expected nil for empty input, got %v", *got)
	}
}

func TestRounding(t *testing.T) {
	if got := round2(66.666666); got != 66.67 {
		t.Fatalf("expected 66.67, got %v", got)
	}
	if got := round1(91.04); got != 91.0 {
		t.Fatalf("expected 91.0, got %v", got)
	}
	if got := round2(0); got != 0 {
		t.Fatalf("expected 0, got %v", got)
	}
}
