// Package codec implements the two binary formats the lexicon stores use to
// keep dictionary records compact: PackKey/UnpackKey, a static-model
// arithmetic coder for dictionary keys, and PackData/UnpackData, a diff
// codec that stores a pronunciation as an edit script against its key.
package codec

import (
	"github.com/rulexdb/rulexdb/alphabet"
	rerr "github.com/rulexdb/rulexdb/error"
)

// PackKey arithmetically encodes s against the alphabet's static frequency
// model and returns the packed bytes. It reports InvalidKey if s contains a
// byte outside the alphabet, an illegal letter pair, or a forbidden
// word-initial letter.
func PackKey(s string) ([]byte, error) {
	if len(s) > 0 {
		if j, ok := alphabet.Idx(s[0]); ok && alphabet.IsG3(j) {
			return nil, rerr.New(rerr.InvalidKey, "word may not begin with %q", s[0])
		}
	}

	w := newBitWriter()
	var low, high uint16 = 0, 0xffff
	underflow := 0

	for i := 0; i <= len(s); i++ {
		var rank int
		if i < len(s) {
			if i > 0 && !alphabet.ValidatePair(s[i-1], s[i]) {
				return nil, rerr.New(rerr.InvalidKey, "illegal letter pair at position %d", i)
			}
			r, ok := alphabet.Idx(s[i])
			if !ok {
				return nil, rerr.New(rerr.InvalidKey, "invalid character %q", s[i])
			}
			rank = r
		} else {
			rank = alphabet.EOS
		}

		lo, hi := alphabet.S[rank][0], alphabet.S[rank][1]
		rng := int(high) - int(low) + 1
		high = low + uint16(rng*hi/alphabet.Scale-1)
		low = low + uint16(rng*lo/alphabet.Scale)

		for {
			switch {
			case (high & 0x8000) == (low & 0x8000):
				bit := high&0x8000 != 0
				w.WriteBit(bit)
				for underflow > 0 {
					w.WriteBit(!bit)
					underflow--
				}
			case low&0x4000 != 0 && high&0x4000 == 0:
				underflow++
				low &= 0x3fff
				high |= 0x4000
			default:
				goto done
			}
			low <<= 1
			high <<= 1
			high |= 1
		}
	done:
	}

	w.WriteBit(low&0x4000 != 0)
	underflow++
	for underflow > 0 {
		underflow--
		w.WriteBit(low&0x4000 == 0)
	}
	return w.Bytes(), nil
}

// UnpackKey decodes bytes produced by PackKey back into the original
// string.
func UnpackKey(key []byte) (string, error) {
	if len(key) == 0 {
		return "", nil
	}

	r := newBitReader(key)
	code := r.initialCode()
	var low, high uint16 = 0, 0xffff
	var out []byte

	for {
		rng := int(high) - int(low) + 1
		count := ((int(code)-int(low)+1)*alphabet.Scale - 1) / rng

		rank := -1
		for i := alphabet.EOS; i >= 0; i-- {
			if count >= alphabet.S[i][0] {
				rank = i
				break
			}
		}
		if rank < 0 || rank == alphabet.EOS {
			break
		}
		out = append(out, alphabet.A[rank])

		lo, hi := alphabet.S[rank][0], alphabet.S[rank][1]
		high = low + uint16(rng*hi/alphabet.Scale-1)
		low = low + uint16(rng*lo/alphabet.Scale)

		for {
			if (high^low)&0x8000 != 0 {
				if low&0x4000 != 0 && high&0x4000 == 0 {
					code ^= 0x4000
					low &= 0x3fff
					high |= 0x4000
				} else {
					break
				}
			}
			low <<= 1
			high <<= 1
			high |= 1
			code <<= 1
			if r.NextBit() {
				code++
			}
		}
	}
	return string(out), nil
}
