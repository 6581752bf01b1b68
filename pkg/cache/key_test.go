package cache

import "testing"

func TestKey_String_NoDims(t *testing.T) {
	k := Key{Method: "GET", URL: "http://x/y"}
	if got := k.String(); got != "GET http://x/y" {
		t.Errorf("String() = %q", got)
	}
}

func TestKey_String_DimsSortedForDeterminism(t *testing.T) {
	k1 := Key{Method: "GET", URL: "http://x/y", Dims: map[string]string{"h": "10", "w": "20"}}
	k2 := Key{Method: "GET", URL: "http://x/y", Dims: map[string]string{"w": "20", "h": "10"}}
	if k1.String() != k2.String() {
		t.Errorf("expected deterministic ordering regardless of map iteration: %q vs %q", k1.String(), k2.String())
	}
	if k1.String() != "GET http://x/y:h=10:w=20" {
		t.Errorf("String() = %q", k1.String())
	}
}
