package knol

import "testing"

func TestNormalize(t *testing.T) {
	expected := "what is htmx?\na library for ajax.\n\nweb development"
	normalized := Normalize("  What is HTMX? \r\n", "A library for AJAX.\r\n\r\nWeb Development")

	if normalized != expected {
		t.Errorf("Expected normalized string to be %q, but got %q", expected, normalized)
	}
}

func TestHash(t *testing.T) {
	t.Run("generates correct hash", func(t *testing.T) {
		// Hash for "q\na"
		expectedHash := "27d2d5c8276a1f606af38834a9294ae5d3bfc6c5097c03e3fdd6e8c5c37e2ba7"
		if hash := Hash("Q", "A"); hash != expectedHash {
			t.Errorf("Expected hash '%s', but got '%s'", expectedHash, hash)
		}
	})

	t.Run("normalization produces same hash", func(t *testing.T) {
		if Hash("  what is go? ", "A programming language.") != Hash("What Is Go?", "A programming language.") {
			t.Error("Expected hashes to be the same after normalization, but they were different.")
		}
	})

	t.Run("different cards have different hashes", func(t *testing.T) {
		if Hash("Card 1", "") == Hash("Card 2", "") {
			t.Error("Expected hashes for different cards to be different")
		}
	})

	t.Run("field boundary matters", func(t *testing.T) {
		if Hash("ab", "c") == Hash("a", "bc") {
			t.Error("Expected the front/back split to change the hash")
		}
	})
}

func TestSet(t *testing.T) {
	s := Set{}
	if !s.Add("hola", "hello") {
		t.Fatal("first add should be new")
	}
	if s.Add("Hola ", "HELLO") {
		t.Error("normalised duplicate should not be new")
	}
	if !s.Add("adiós", "goodbye") {
		t.Error("different card should be new")
	}
	if len(s) != 2 {
		t.Errorf("expected 2 hashes, got %d", len(s))
	}
}
