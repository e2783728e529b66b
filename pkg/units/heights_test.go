package units

import "testing"

func TestFtInRoundTrip(t *testing.T) {
	for h := 0; h <= 1000; h++ {
		s := FtIn(h)
		got, err := ParseFtIn(s)
		if err != nil {
			t.Fatalf("ParseFtIn(%q) error: %v", s, err)
		}
		if got != h {
			t.Fatalf("round-trip mismatch: FtIn(%d)=%q, ParseFtIn -> %d", h, s, got)
		}
	}
}

func TestFtInFormat(t *testing.T) {
	cases := []struct {
		in   int
		want string
	}{
		{0, `0' 0"`},
		{12, `1' 0"`},
		{192, `16' 0"`},
		{193, `16' 1"`},
	}
	for _, c := range cases {
		if got := FtIn(c.in); got != c.want {
			t.Errorf("FtIn(%d) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestRoundToInch(t *testing.T) {
	cases := []struct {
		in   float64
		want int
	}{
		{180.0, 180},
		{180.4, 180},
		{180.5, 181},
		{180.6, 181},
		{-0.5, -1},
	}
	for _, c := range cases {
		if got := RoundToInch(c.in); got != c.want {
			t.Errorf("RoundToInch(%v) = %d, want %d", c.in, got, c.want)
		}
	}
}

func TestSepLabel(t *testing.T) {
	if got := SepLabel(40); got != `40"` {
		t.Errorf("SepLabel(40) = %q, want 40\"", got)
	}
}
