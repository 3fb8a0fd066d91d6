package activity

import "testing"

func TestFromString(t *testing.T) {
	cases := []struct {
		in   string
		want Activity
	}{
		{"Walking", Walking},
		{"walking", Walking},
		{"brisk walk", Walking},
		{"Running", Running},
		{"run", Running},
		{"trail RUN", Running},
		{"", Unknown},
		{"cycling", Unknown},
	}
	for i, c := range cases {
		if got := FromString(c.in); got != c.want {
			t.Errorf("i=%d (%q): have %v want %v", i, c.in, got, c.want)
		}
	}
}

func TestStringRoundTrip(t *testing.T) {
	for _, a := range []Activity{Walking, Running} {
		if got := FromString(a.String()); got != a {
			t.Errorf("have %v want %v", got, a)
		}
	}
}

func TestIsKnown(t *testing.T) {
	if Unknown.IsKnown() {
		t.Error("Unknown should not be known")
	}
	if !Walking.IsKnown() || !Running.IsKnown() {
		t.Error("Walking and Running should be known")
	}
}
