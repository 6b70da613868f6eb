package version

import "testing"

func TestString(t *testing.T) {
	got := String("morpho")
	want := "morpho dev (git unknown, built unknown)"
	if got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}
