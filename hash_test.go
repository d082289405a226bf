package mrc

import "testing"

func TestHashUint64Deterministic(t *testing.T) {
	if hashUint64(42) != hashUint64(42) {
		t.Error("hashUint64 is not deterministic for the same input")
	}
}

func TestHashUint64Avalanche(t *testing.T) {
	// Adjacent keys should not hash to equal values.
	a, b := hashUint64(1), hashUint64(2)
	if a == b {
		t.Error("hashUint64(1) == hashUint64(2), want distinct outputs")
	}
}

func TestHash2Uint64IndependentOfHashUint64(t *testing.T) {
	for key := range uint64(100) {
		if hashUint64(key) == hash2Uint64(key) {
			t.Errorf("hashUint64(%d) == hash2Uint64(%d), want the two mixes to diverge", key, key)
		}
	}
}

func TestHashStringDeterministic(t *testing.T) {
	if hashString("hello") != hashString("hello") {
		t.Error("hashString is not deterministic for the same input")
	}
	if hashString("hello") == hashString("world") {
		t.Error("hashString(\"hello\") == hashString(\"world\"), want distinct outputs")
	}
}

func TestHashStringEmpty(t *testing.T) {
	if got := hashString(""); got != 0 {
		t.Errorf("hashString(\"\") = %d, want 0", got)
	}
}

func TestHashStringVaryingLengths(t *testing.T) {
	for _, s := range []string{"a", "ab", "abc", "abcd", "abcde", "abcdefgh", "abcdefghij"} {
		if hashString(s) != hashString(s) {
			t.Errorf("hashString(%q) not deterministic", s)
		}
	}
}
