package logger

import "testing"

func TestNewModes(t *testing.T) {
	for _, mode := range []string{"prod", "production", "test", "dev", ""} {
		l, err := New(mode)
		if err != nil {
			t.Fatalf("New(%q): %v", mode, err)
		}
		l.With("scenario_id", "s-1").Info("hello", "k", "v")
	}
}

func TestNopDiscards(t *testing.T) {
	l := Nop()
	l.Debug("x")
	l.Warn("y", "k", 1)
	l.With("a", "b").Error("z")
	l.Sync()
}
