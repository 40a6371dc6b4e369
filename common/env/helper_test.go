package env

import "testing"

func TestIntFallsBackOnGarbage(t *testing.T) {
	t.Setenv("DEALMATE_TEST_INT", "abc")
	if got := Int("DEALMATE_TEST_INT", 7); got != 7 {
		t.Fatalf("expected default 7, got %d", got)
	}
	t.Setenv("DEALMATE_TEST_INT", "42")
	if got := Int("DEALMATE_TEST_INT", 7); got != 42 {
		t.Fatalf("expected 42, got %d", got)
	}
}

func TestBoolIsCaseInsensitive(t *testing.T) {
	t.Setenv("DEALMATE_TEST_BOOL", "TRUE")
	if !Bool("DEALMATE_TEST_BOOL", false) {
		t.Fatal("expected true")
	}
	t.Setenv("DEALMATE_TEST_BOOL", "no")
	if Bool("DEALMATE_TEST_BOOL", true) {
		t.Fatal("expected false for non-true value")
	}
}

func TestStringList(t *testing.T) {
	t.Setenv("DEALMATE_TEST_LIST", " https://a.example.com, ,https://b.example.com ")
	got := StringList("DEALMATE_TEST_LIST", []string{"*"})
	if len(got) != 2 || got[0] != "https://a.example.com" || got[1] != "https://b.example.com" {
		t.Fatalf("unexpected list: %#v", got)
	}

	t.Setenv("DEALMATE_TEST_LIST", " , ")
	got = StringList("DEALMATE_TEST_LIST", []string{"*"})
	if len(got) != 1 || got[0] != "*" {
		t.Fatalf("expected default list, got %#v", got)
	}
}

func TestFloat64(t *testing.T) {
	t.Setenv("DEALMATE_TEST_FLOAT", "0.25")
	if got := Float64("DEALMATE_TEST_FLOAT", 1); got != 0.25 {
		t.Fatalf("expected 0.25, got %v", got)
	}
}
