package di

import "testing"

type counter struct{ n int }

func TestContainer_LazySingleton(t *testing.T) {
	c := NewContainer()
	builds := 0
	tok := NewToken[*counter]("test.counter")

	RegisterToken(c, tok, func(ServiceRegistry) *counter {
		builds++
		return &counter{n: 7}
	})

	if builds != 0 {
		t.Fatalf("factory ran before first Get")
	}
	a := GetToken(c, tok)
	b := GetToken(c, tok)
	if a != b {
		t.Errorf("expected the same instance on every Get")
	}
	if builds != 1 {
		t.Errorf("factory ran %d times, want 1", builds)
	}
	if a.n != 7 {
		t.Errorf("n = %d, want 7", a.n)
	}
}

func TestContainer_ResolvesDependencies(t *testing.T) {
	c := NewContainer()
	c.Register("config", 41)
	tok := NewToken[int]("test.derived")
	RegisterToken(c, tok, func(sr ServiceRegistry) int {
		return sr.Get("config").(int) + 1
	})

	if got := GetToken(c, tok); got != 42 {
		t.Errorf("got %d, want 42", got)
	}
	if !c.Has("config") || c.Has("missing") {
		t.Errorf("Has reported wrong membership")
	}
}

func TestContainer_MissingPanics(t *testing.T) {
	c := NewContainer()
	defer func() {
		if recover() == nil {
			t.Errorf("expected panic for unregistered service")
		}
	}()
	c.Get("nope")
}
