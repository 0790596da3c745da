package logging

import "testing"

func TestNewLevels(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error", "DEBUG", " info ", "bogus", ""} {
		if l := New(level); l == nil || l.Logger == nil {
			t.Fatalf("New(%q) returned nil logger", level)
		}
	}
}

func TestDefault(t *testing.T) {
	if l := Default(); l == nil {
		t.Fatal("Default returned nil")
	}
}

func TestWith(t *testing.T) {
	l := Default().With("component", "test")
	if l == nil || l.Logger == nil {
		t.Fatal("With returned nil logger")
	}
}
