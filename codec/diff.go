package codec

import (
	"bytes"

	"github.com/rulexdb/rulexdb/alphabet"
	rerr "github.com/rulexdb/rulexdb/error"
)

// Action tags occupy the top two bits of each diff byte. The prefix
// program and the suffix program reuse the same four tag values for
// different meanings; unpackData tells them apart by position, not by
// value, which is exactly why KEEP (the only suffix tag that is zero) is
// what marks the program boundary.
const actionMask = 0xc0

const (
	opMajorStress byte = 0x80
	opMinorStress byte = 0x40
	opSpaceBar    byte = 0xc0
)

const (
	opKeep    byte = 0x00
	opRemove  byte = 0x40
	opInsert  byte = 0x80
	opReplace byte = 0xc0
)

// PackData encodes the transition from key (the canonical dictionary key)
// to pron (its full pronunciation, markers included) as a compact edit
// script. It reports InvalidRecord if pron contains a marker in an
// impossible position or a byte outside the alphabet.
func PackData(key, pron string) ([]byte, error) {
	if len(pron) > 0 {
		if alphabet.IsG4(pron[0]) {
			return nil, rerr.New(rerr.InvalidRecord, "pronunciation may not begin with %q", pron[0])
		}
	}
	for i := 1; i < len(pron); i++ {
		if !alphabet.ValidatePair(pron[i-1], pron[i]) {
			return nil, rerr.New(rerr.InvalidRecord, "illegal pair at position %d", i)
		}
	}

	clean, prefix, err := packMarkers(pron)
	if err != nil {
		return nil, err
	}
	suffix, err := packSuffixDiff([]byte(key), clean)
	if err != nil {
		return nil, err
	}
	return append(prefix, suffix...), nil
}

// packMarkers strips major/minor stress and space-bar markers out of w,
// recording each as a (tag | offset) byte relative to the marker before
// it. offset must fit six bits; words longer than 63 coded letters between
// two markers cannot be represented.
func packMarkers(w string) ([]byte, []byte, error) {
	buf := []byte(w)
	var prog []byte
	base := 0

	for {
		i := spanAlphabet(buf[base:])
		pos := base + i
		if pos == len(buf) {
			break
		}
		if i >= 1<<6 {
			return nil, nil, rerr.New(rerr.InvalidRecord, "marker offset %d too large", i)
		}

		switch ch := buf[pos]; ch {
		case alphabet.MajorStress:
			if pos == 0 {
				return nil, nil, rerr.New(rerr.InvalidRecord, "stress marker at word start")
			}
			if j, ok := alphabet.Idx(buf[pos-1]); !ok || !alphabet.IsVowel(j) {
				return nil, nil, rerr.New(rerr.InvalidRecord, "major stress not after a vowel")
			}
			prog = append(prog, opMajorStress|byte(i))
		case alphabet.MinorStress:
			if pos == 0 {
				return nil, nil, rerr.New(rerr.InvalidRecord, "stress marker at word start")
			}
			if j, ok := alphabet.Idx(buf[pos-1]); !ok || !alphabet.IsVowel(j) {
				return nil, nil, rerr.New(rerr.InvalidRecord, "minor stress not after a vowel")
			}
			prog = append(prog, opMinorStress|byte(i))
		case alphabet.SpaceBar:
			prog = append(prog, opSpaceBar|byte(i))
		default:
			return nil, nil, rerr.New(rerr.InvalidRecord, "invalid character %q", ch)
		}
		buf = removeAt(buf, pos, 1)
		base = pos
	}
	return buf, prog, nil
}

// spanAlphabet returns the length of the leading run of w consisting only
// of alphabet letters.
func spanAlphabet(w []byte) int {
	for i, b := range w {
		if _, ok := alphabet.Idx(b); !ok {
			return i
		}
	}
	return len(w)
}

// scriptBuilder accumulates the suffix edit script. buf[0:l] holds
// committed bytes; buf[l] is the byte currently being assembled. back()
// reopens the previously committed byte for merging with the op about to
// be emitted, mirroring the reference coder's r[--l] rollbacks.
type scriptBuilder struct {
	buf []byte
	l   int
}

func newScriptBuilder() *scriptBuilder { return &scriptBuilder{buf: []byte{0}} }

func (b *scriptBuilder) cur() byte      { return b.buf[b.l] }
func (b *scriptBuilder) set(v byte)     { b.buf[b.l] = v }
func (b *scriptBuilder) or(v byte)      { b.buf[b.l] |= v }
func (b *scriptBuilder) add(n int)      { b.buf[b.l] += byte(n) }
func (b *scriptBuilder) inc()           { b.buf[b.l]++ }
func (b *scriptBuilder) prevTag() byte  { return b.buf[b.l-1] & actionMask }
func (b *scriptBuilder) prevByte() byte { return b.buf[b.l-1] }
func (b *scriptBuilder) back()          { b.l-- }

func (b *scriptBuilder) next() {
	b.l++
	if b.l == len(b.buf) {
		b.buf = append(b.buf, 0)
	} else {
		b.buf[b.l] = 0
	}
}

func (b *scriptBuilder) result() []byte {
	out := make([]byte, b.l)
	copy(out, b.buf[:b.l])
	return out
}

// packSuffixDiff builds the edit script that transforms s (the key) into d
// (the marker-stripped pronunciation).
func packSuffixDiff(s, d []byte) ([]byte, error) {
	sb := newScriptBuilder()
	i, k := 0, 0

	for !bytes.Equal(s[i:], d[k:]) {
		switch {
		case i < len(s) && k < len(d) && s[i] == d[k]:
			i++
			k++
			sb.inc()

		case i < len(s) && k < len(d):
			remS, remD := len(s)-i, len(d)-k
			switch {
			case remS > remD && bytes.Equal(s[len(s)-remD:], d[k:]):
				diffLen := remS - remD
				if sb.cur() == 0 && (i != 0 || k != 0) {
					switch sb.prevTag() {
					case opRemove:
						sb.back()
						sb.add(diffLen)
					case opInsert:
						sb.back()
						sb.set(sb.cur() &^ actionMask)
						sb.or(opReplace)
						i++
						if len(s)-i != remD {
							sb.next()
							sb.set(opRemove | byte(len(s)-i-remD))
						}
					default:
						sb.set(opRemove | byte(diffLen))
					}
				} else {
					sb.next()
					sb.set(opRemove | byte(diffLen))
				}
				sb.next()
				i = len(s) - remD

			case k+1 < len(d) && s[i] == d[k+1]:
				if sb.cur() == 0 && (i != 0 || k != 0) {
					if sb.prevByte() == (opRemove | 1) {
						sb.back()
						sb.set(opReplace)
					} else {
						sb.next()
						sb.set(opInsert)
					}
				} else {
					sb.next()
					sb.set(opInsert)
				}
				rank, _ := alphabet.Idx(d[k])
				sb.or(byte(rank))
				k++
				sb.next()

			case i+1 < len(s) && s[i+1] == d[k]:
				if sb.cur() == 0 && (i != 0 || k != 0) {
					switch sb.prevTag() {
					case opRemove:
						sb.back()
						sb.inc()
					case opInsert:
						sb.back()
						sb.set(sb.cur() &^ actionMask)
						sb.or(opReplace)
					default:
						sb.set(opRemove | 1)
					}
				} else {
					sb.next()
					sb.set(opRemove | 1)
				}
				sb.next()
				i++

			default:
				if sb.cur() != 0 || (i == 0 && k == 0) {
					sb.next()
				}
				rank, _ := alphabet.Idx(d[k])
				sb.set(opReplace | byte(rank))
				k++
				sb.next()
				i++
			}

		case k < len(d):
			if sb.cur() == 0 && (i != 0 || k != 0) {
				if sb.prevByte() == (opRemove | 1) {
					sb.back()
					sb.set(opReplace)
				} else {
					sb.next()
					sb.set(opInsert)
				}
			} else {
				sb.next()
				sb.set(opInsert)
			}
			rank, _ := alphabet.Idx(d[k])
			sb.or(byte(rank))
			k++
			sb.next()

		case i < len(s):
			if sb.cur() == 0 && (i != 0 || k != 0) {
				switch sb.prevTag() {
				case opRemove:
					sb.back()
					sb.inc()
				case opInsert:
					sb.back()
					sb.set(sb.cur() &^ actionMask)
					sb.or(opReplace)
				default:
					sb.set(opRemove | 1)
				}
			} else {
				sb.next()
				sb.set(opRemove | 1)
			}
			sb.next()
			i++
		}
	}
	return sb.result(), nil
}

// UnpackData applies a script produced by PackData to key, reproducing the
// original pronunciation.
func UnpackData(key string, diffs []byte) string {
	if len(diffs) == 0 {
		return key
	}

	l := len(diffs)
	for i, d := range diffs {
		if d&actionMask == opKeep {
			l = i
			break
		}
	}

	buf := applySuffixDiffs([]byte(key), diffs[l:])
	buf = applyPrefixProgram(buf, diffs[:l])
	return string(buf)
}

func applySuffixDiffs(buf, prog []byte) []byte {
	k := 0
	for _, d := range prog {
		switch d & actionMask {
		case opReplace:
			buf[k] = alphabet.A[d&^actionMask]
			k++
		case opInsert:
			buf = insertAt(buf, k, alphabet.A[d&^actionMask])
			k++
		case opRemove:
			buf = removeAt(buf, k, int(d&^actionMask))
		default: // keep
			k += int(d)
		}
	}
	return buf
}

func applyPrefixProgram(buf, prog []byte) []byte {
	k := 0
	for _, d := range prog {
		k += int(d &^ actionMask)
		var ch byte
		switch d & actionMask {
		case opMajorStress:
			ch = alphabet.MajorStress
		case opMinorStress:
			ch = alphabet.MinorStress
		case opSpaceBar:
			ch = alphabet.SpaceBar
		default:
			ch = ' '
		}
		buf = insertAt(buf, k, ch)
		k++
	}
	return buf
}

func insertAt(buf []byte, pos int, b byte) []byte {
	buf = append(buf, 0)
	copy(buf[pos+1:], buf[pos:])
	buf[pos] = b
	return buf
}

func removeAt(buf []byte, pos, n int) []byte {
	return append(buf[:pos], buf[pos+n:]...)
}
