package codec

import "testing"

func TestPackUnpackKeyRoundTrip(t *testing.T) {
	words := []string{"a", "cat", "nation", "xyz", string([]byte{'a', 0xE4})}
	for _, w := range words {
		packed, err := PackKey(w)
		if err != nil {
			t.Fatalf("PackKey(%q) error: %v", w, err)
		}
		got, err := UnpackKey(packed)
		if err != nil {
			t.Fatalf("UnpackKey error: %v", err)
		}
		if got != w {
			t.Errorf("round trip %q -> %x -> %q", w, packed, got)
		}
	}
}

func TestPackKeyEmptyString(t *testing.T) {
	packed, err := PackKey("")
	if err != nil {
		t.Fatalf("PackKey(\"\") error: %v", err)
	}
	got, err := UnpackKey(packed)
	if err != nil {
		t.Fatalf("UnpackKey error: %v", err)
	}
	if got != "" {
		t.Errorf("round trip of empty string = %q", got)
	}
}

func TestPackKeyRejectsInvalidChar(t *testing.T) {
	if _, err := PackKey("ca1t"); err == nil {
		t.Fatalf("expected error for digit in key")
	}
}

func TestPackKeyRejectsForbiddenInitial(t *testing.T) {
	if _, err := PackKey(string([]byte{0xE5, 'a', 't'})); err == nil {
		t.Fatalf("expected error for forbidden word-initial letter")
	}
}

func TestPackKeyShrinksData(t *testing.T) {
	w := "internationalization"
	packed, err := PackKey(w)
	if err != nil {
		t.Fatalf("PackKey error: %v", err)
	}
	if len(packed) >= len(w) {
		t.Errorf("packed length %d not smaller than input length %d", len(packed), len(w))
	}
}
