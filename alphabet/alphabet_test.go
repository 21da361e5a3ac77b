package alphabet

import "testing"

func TestIdxRoundTrip(t *testing.T) {
	for i, b := range A {
		got, ok := Idx(b)
		if !ok || got != i {
			t.Errorf("Idx(%q) = %d,%v want %d,true", b, got, ok, i)
		}
	}
}

func TestIdxRejectsUnknown(t *testing.T) {
	for _, b := range []byte{'+', '-', '=', ' ', '0', 0xFF} {
		if _, ok := Idx(b); ok {
			t.Errorf("Idx(%q) unexpectedly valid", b)
		}
	}
}

func TestVowelCount(t *testing.T) {
	n := 0
	for i := range A {
		if IsVowel(i) {
			n++
		}
	}
	if n != 10 {
		t.Fatalf("vowel count = %d, want 10", n)
	}
}

func TestG1Count(t *testing.T) {
	n := 0
	for i := range A {
		if IsG1(i) {
			n++
		}
	}
	if n != 2 {
		t.Fatalf("G1 count = %d, want 2", n)
	}
}

func TestG3Count(t *testing.T) {
	n := 0
	for i := range A {
		if IsG3(i) {
			n++
		}
	}
	if n != 3 {
		t.Fatalf("G3 count = %d, want 3", n)
	}
}

func TestFrequencyTableMonotonic(t *testing.T) {
	for i := 1; i < len(S); i++ {
		if S[i][0] != S[i-1][1] {
			t.Fatalf("gap between rank %d and %d: %v %v", i-1, i, S[i-1], S[i])
		}
	}
	if S[0][0] != 0 {
		t.Fatalf("table does not start at 0")
	}
	if S[EOS][1] != Scale {
		t.Fatalf("table does not end at scale: %v", S[EOS])
	}
}

func TestValidatePair(t *testing.T) {
	sign := A[31] // å
	consonant := byte('b')
	vowel := byte('a')
	if !ValidatePair(consonant, sign) {
		t.Errorf("consonant followed by sign should be valid")
	}
	if ValidatePair(vowel, sign) {
		t.Errorf("vowel followed by sign should be invalid")
	}
	if ValidatePair(MajorStress, sign) {
		t.Errorf("marker followed by sign should be invalid")
	}
	if ValidatePair(sign, sign) {
		t.Errorf("sign followed by sign should be invalid")
	}
}

func TestIsG4(t *testing.T) {
	if !IsG4(SpaceBar) {
		t.Errorf("space-bar should be G4")
	}
	if !IsG4(A[32]) {
		t.Errorf("æ should be G4")
	}
	if IsG4('a') {
		t.Errorf("plain letter should not be G4")
	}
}
