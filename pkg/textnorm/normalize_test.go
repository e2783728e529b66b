package textnorm

import "testing"

func TestOwnerKey(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"AT&T", "att"},
		{"ATT", "att"},
		{"Duke Energy", "dukeenergy"},
		{"  Comcast-123  ", "comcast123"},
		{"", ""},
	}
	for _, c := range cases {
		if got := OwnerKey(c.in); got != c.want {
			t.Errorf("OwnerKey(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestFoldConcat(t *testing.T) {
	got := FoldConcat("Comm Drop", "Wire", "ADSS Fiber")
	want := "comm drop wire adss fiber"
	if got != want {
		t.Errorf("FoldConcat = %q, want %q", got, want)
	}
}

func TestHasToken(t *testing.T) {
	h := FoldConcat("Street Light Feed")
	if !HasToken(h, "street light feed") {
		t.Error("expected token to be found")
	}
	if HasToken(h, "riser") {
		t.Error("unexpected token match")
	}
}
