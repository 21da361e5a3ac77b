package codec

import "testing"

func TestPackUnpackDataRoundTrip(t *testing.T) {
	tests := []struct{ key, pron string }{
		{"cat", "cat"},
		{"cat", "ca+t"},
		{"radio", "radio+"},
		{"run", "running"},
		{"running", "run"},
		{"cat", "dog"},
		{"abcdef", "abzdef"},
		{"house", "houses"},
		{"houses", "house"},
		{"cat", "c-at"},
	}
	for _, tt := range tests {
		diffs, err := PackData(tt.key, tt.pron)
		if err != nil {
			t.Fatalf("PackData(%q,%q) error: %v", tt.key, tt.pron, err)
		}
		got := UnpackData(tt.key, diffs)
		if got != tt.pron {
			t.Errorf("PackData/UnpackData(%q,%q): got %q, diffs=% x", tt.key, tt.pron, got, diffs)
		}
	}
}

func TestPackDataTrivialIsEmpty(t *testing.T) {
	diffs, err := PackData("cat", "cat")
	if err != nil {
		t.Fatalf("PackData error: %v", err)
	}
	if len(diffs) != 0 {
		t.Errorf("identical key/pron should pack to zero-length diff, got % x", diffs)
	}
}

func TestUnpackDataEmptyDiffsReturnsKey(t *testing.T) {
	if got := UnpackData("cat", nil); got != "cat" {
		t.Errorf("UnpackData with no diffs = %q, want key unchanged", got)
	}
}
