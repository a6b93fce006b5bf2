// Package fingerprint implements winnowed k-gram fingerprinting of token streams and the
// multiset Jaccard similarity between two fingerprint sets.
package fingerprint

import (
	"encoding/binary"
	"math"

	"github.com/Ammarkarimi/plagarism-detector/internal/normalize"
	"github.com/cespare/xxhash/v2"
)

// odd multiplier of the polynomial rolling hash (arithmetic is mod 2^64)
const base uint64 = 0x100000001b3

// Fingerprint is a selected k-gram hash and the index of the k-gram's first token
type Fingerprint struct {
	Hash uint64
	Pos  int
}

// Set is the multiset of fingerprints of one token stream
type Set struct {
	Fingerprints []Fingerprint
	grams        []uint64
	counts       map[uint64]int
	tokens       int
	digest       uint64
	short        bool
}

// Len is the number of selected fingerprints, duplicates included
func (s Set) Len() int {
	return len(s.Fingerprints)
}

// Count returns how many times hash was selected
func (s Set) Count(hash uint64) int {
	return s.counts[hash]
}

func (s Set) Empty() bool {
	return len(s.Fingerprints) == 0
}

type Engine struct {
	K      int
	Window int
}

func New(k, window int) Engine {
	return Engine{K: k, Window: window}
}

// Fingerprint winnows the k-gram hashes of tokens. A stream shorter than K has no fingerprints.
func (e Engine) Fingerprint(tokens []normalize.Token) Set {
	ids := make([]uint64, len(tokens))
	seq := xxhash.New()
	var buf [8]byte
	for i, t := range tokens {
		ids[i] = tokenID(t)
		binary.LittleEndian.PutUint64(buf[:], ids[i])
		_, _ = seq.Write(buf[:])
	}

	set := Set{
		counts: make(map[uint64]int),
		tokens: len(tokens),
		digest: seq.Sum64(),
		short:  len(tokens) < e.K,
	}
	if set.short {
		return set
	}

	set.grams = e.kgrams(ids)
	set.Fingerprints = winnow(set.grams, e.Window)
	for _, f := range set.Fingerprints {
		set.counts[f.Hash]++
	}
	return set
}

// kgrams returns the rolling hash of every window of K token ids
func (e Engine) kgrams(ids []uint64) []uint64 {
	n := len(ids) - e.K + 1
	hashes := make([]uint64, n)

	var pow uint64 = 1
	for i := 1; i < e.K; i++ {
		pow *= base
	}

	var h uint64
	for i := 0; i < e.K; i++ {
		h = h*base + ids[i]
	}
	hashes[0] = h
	for i := 1; i < n; i++ {
		h = (h-ids[i-1]*pow)*base + ids[i+e.K-1]
		hashes[i] = h
	}
	return hashes
}

// winnow selects the minimum of each window of w hashes, rightmost on ties, and records a
// fingerprint only when the selected position changes.
func winnow(hashes []uint64, w int) []Fingerprint {
	if w > len(hashes) {
		w = len(hashes)
	}
	if w <= 0 {
		return nil
	}

	var out []Fingerprint
	minPos := -1
	for start := 0; start+w <= len(hashes); start++ {
		end := start + w - 1
		if minPos < start {
			minPos = start
			for i := start + 1; i <= end; i++ {
				if hashes[i] <= hashes[minPos] {
					minPos = i
				}
			}
			out = append(out, Fingerprint{Hash: hashes[minPos], Pos: minPos})
		} else if hashes[end] <= hashes[minPos] {
			minPos = end
			out = append(out, Fingerprint{Hash: hashes[minPos], Pos: minPos})
		}
	}
	return out
}

// Similarity is the multiset Jaccard of a and b in percent. When either stream is shorter
// than K the raw token streams are compared instead: 100 if identical, else 0.
func (e Engine) Similarity(a, b Set) float64 {
	if a.short || b.short {
		if a.tokens == b.tokens && a.digest == b.digest {
			return 100
		}
		return 0
	}

	var inter, union int
	for h, ca := range a.counts {
		cb := b.counts[h]
		inter += min(ca, cb)
		union += max(ca, cb)
	}
	for h, cb := range b.counts {
		if _, ok := a.counts[h]; !ok {
			union += cb
		}
	}
	if union == 0 {
		return 100
	}
	return math.Min(100, 100*float64(inter)/float64(union))
}

func tokenID(t normalize.Token) uint64 {
	return xxhash.Sum64String(t.Kind.String() + "\x00" + t.Value)
}
