// Package alphabet defines the fixed symbol set the key coder and the rule
// engine operate over: the 33 letters a lexicon key may contain, the
// end-of-string symbol used by the arithmetic coder, and the static
// frequency table that drives it.
package alphabet

// A is the ordered alphabet of valid key letters. Index into A is the
// symbol's coding rank; Idx is the inverse lookup.
var A = [Size]byte{
	'a', 'b', 'c', 'd', 'e', 'f', 'g', 'h', 'i', 'j', 'k', 'l', 'm',
	'n', 'o', 'p', 'q', 'r', 's', 't', 'u', 'v', 'w', 'x', 'y', 'z',
	0xE0, 0xE1, 0xE2, 0xE3, 0xE4, 0xE5, 0xE6, // à á â ã ä å æ
}

const (
	// Size is the number of coded letters, excluding EOS.
	Size = 33
	// EOS is the coding rank of the end-of-string symbol, one past the
	// last letter rank.
	EOS = Size
	// Scale is the cumulative frequency total the static model sums to.
	Scale = 2390
)

// S is the static cumulative-frequency table used by the key coder, one
// entry per coding rank 0..EOS. Index EOS carries the end-of-string
// interval. These intervals are statistical data, ported unchanged from
// the reference model; they are not tied to any particular orthography.
var S = [Size + 1][2]int{
	{0, 185}, {185, 219}, {219, 320}, {320, 354}, {354, 404},
	{404, 580}, {580, 582}, {582, 598}, {598, 637}, {637, 797},
	{797, 828}, {828, 900}, {900, 995}, {995, 1068}, {1068, 1214},
	{1214, 1419}, {1419, 1488}, {1488, 1609}, {1609, 1724}, {1724, 1838},
	{1838, 1900}, {1900, 1907}, {1907, 1929}, {1929, 1939}, {1939, 1965},
	{1965, 1991}, {1991, 2005}, {2005, 2006}, {2006, 2053}, {2053, 2089},
	{2089, 2091}, {2091, 2114}, {2114, 2162}, {2162, 2390}, // EOS
}

// Marker bytes used in pronunciation and rule text: major and minor stress
// and the space-bar (word-break) marker. These never appear in a coded key
// and are never assigned a coding rank.
const (
	MajorStress = '+'
	MinorStress = '='
	SpaceBar    = '-'
)

var rank [256]int8

func init() {
	for i := range rank {
		rank[i] = -1
	}
	for i, b := range A {
		rank[b] = int8(i)
	}
}

// Idx returns the coding rank of b and true, or (-1, false) if b is not a
// member of the alphabet.
func Idx(b byte) (int, bool) {
	r := rank[b]
	if r < 0 {
		return -1, false
	}
	return int(r), true
}

// vowelRanks holds the ten ranks spec treats as vowels: a e i o u y à á â ã.
var vowelRanks = map[int]bool{0: true, 4: true, 8: true, 14: true, 20: true, 24: true, 26: true, 27: true, 28: true, 29: true}

// g1Ranks holds the two ranks spec treats as "signs": å æ.
var g1Ranks = map[int]bool{31: true, 32: true}

// g3Ranks holds the three ranks spec forbids word-initially: å æ ã.
var g3Ranks = map[int]bool{31: true, 32: true, 29: true}

// IsVowel reports whether rank i names a vowel.
func IsVowel(i int) bool { return vowelRanks[i] }

// IsG1 reports whether rank i names a sign letter.
func IsG1(i int) bool { return g1Ranks[i] }

// IsG3 reports whether rank i is forbidden in word-initial position.
func IsG3(i int) bool { return g3Ranks[i] }

// IsG4 reports whether b is a sign letter or the space-bar marker.
func IsG4(b byte) bool {
	if b == SpaceBar {
		return true
	}
	i, ok := Idx(b)
	return ok && IsG1(i)
}

// IsMarker reports whether b is one of the three pronunciation markers.
func IsMarker(b byte) bool {
	return b == MajorStress || b == MinorStress || b == SpaceBar
}

// ValidatePair reports whether next may legally follow prev in a key.
// A sign letter (G1) may not directly follow a marker, a vowel, or another
// sign: signs attach only to consonants.
func ValidatePair(prev, next byte) bool {
	i, ok := Idx(next)
	if !ok || !IsG1(i) {
		return true
	}
	if IsMarker(prev) {
		return false
	}
	if j, ok := Idx(prev); ok && (IsVowel(j) || IsG1(j)) {
		return false
	}
	return true
}
