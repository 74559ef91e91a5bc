package env

import "testing"

func TestGetFallsBackWhenBlank(t *testing.T) {
	t.Setenv("MERCH_TEST_VALUE", "   ")
	if got := Get("MERCH_TEST_VALUE", "fallback"); got != "fallback" {
		t.Fatalf("expected fallback, got %q", got)
	}
	t.Setenv("MERCH_TEST_VALUE", "console")
	if got := Get("MERCH_TEST_VALUE", "json"); got != "console" {
		t.Fatalf("expected console, got %q", got)
	}
}

func TestBool(t *testing.T) {
	t.Setenv("MERCH_TEST_FLAG", "Yes")
	if !Bool("MERCH_TEST_FLAG") {
		t.Fatal("expected truthy flag")
	}
	t.Setenv("MERCH_TEST_FLAG", "nope")
	if Bool("MERCH_TEST_FLAG") {
		t.Fatal("expected falsy flag")
	}
}
