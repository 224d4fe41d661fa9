package api

import "testing"

func TestKeyMatches(t *testing.T) {
	keys := []string{"abc", "def"}
	if !keyMatches("abc", keys) {
		t.Fatal("expected abc to match")
	}
	if keyMatches("zzz", keys) {
		t.Fatal("expected zzz not to match")
	}
	if keyMatches("", keys) {
		t.Fatal("expected empty string not to match")
	}
}
