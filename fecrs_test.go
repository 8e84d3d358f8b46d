// Copyright (c) 2026 NEU-Liu
//
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package fecrs

import (
	"bytes"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

// encodeAll runs the per-index Encode for all n symbols.
func encodeAll(t *testing.T, r *FEC, src [][]byte) [][]byte {
	t.Helper()
	enc := make([][]byte, r.N)
	for i := range enc {
		enc[i] = make([]byte, len(src[0]))
		require.NoError(t, r.Encode(src, enc[i], i))
	}
	return enc
}

// roundTrip delivers only the symbols at subset (with their indices) and
// checks that decoding restores the source exactly.
func roundTrip(t *testing.T, r *FEC, src, enc [][]byte, subset []int) {
	t.Helper()
	pkts := make([][]byte, r.K)
	indexes := make([]int, r.K)
	for i, s := range subset {
		pkts[i] = append([]byte(nil), enc[s]...)
		indexes[i] = s
	}
	require.NoError(t, r.Decode(pkts, indexes))
	for i := 0; i < r.K; i++ {
		require.Equal(t, src[i], pkts[i], "source symbol %d", i)
	}
}

func randSrc(k, size int) [][]byte {
	src := make([][]byte, k)
	for i := range src {
		src[i] = make([]byte, size)
		fillRandom(src[i])
	}
	return src
}

func TestRoundTripSmall(t *testing.T) {
	r, err := New(3, 5)
	require.NoError(t, err)

	src := [][]byte{
		{0, 1, 2, 3},
		{4, 5, 6, 7},
		{8, 9, 10, 11},
	}
	enc := encodeAll(t, r, src)
	for i := 0; i < 3; i++ {
		require.Equal(t, src[i], enc[i], "systematic prefix")
	}

	// Parity 3 and 4 plus the middle source symbol.
	roundTrip(t, r, src, enc, []int{3, 1, 4})
}

func TestRoundTripTrivial(t *testing.T) {
	r, err := New(1, 1)
	require.NoError(t, err)

	src := [][]byte{{42, 7, 0, 255}}
	out := make([]byte, 4)
	require.NoError(t, r.Encode(src, out, 0))
	require.Equal(t, src[0], out)

	pkts := [][]byte{append([]byte(nil), out...)}
	require.NoError(t, r.Decode(pkts, []int{0}))
	require.Equal(t, src[0], pkts[0])
}

func TestRoundTripOneParity(t *testing.T) {
	r, err := New(2, 3)
	require.NoError(t, err)

	src := [][]byte{{0xAA, 0xBB}, {0xCC, 0xDD}}
	enc := encodeAll(t, r, src)
	roundTrip(t, r, src, enc, []int{2, 1})
}

func TestDecodeDuplicateIndex(t *testing.T) {
	r, err := New(3, 5)
	require.NoError(t, err)

	pkts := [][]byte{{1, 2}, {3, 4}, {5, 6}}
	before := [][]byte{{1, 2}, {3, 4}, {5, 6}}
	err = r.Decode(pkts, []int{1, 1, 1})
	require.ErrorIs(t, err, ErrDuplicateIndex)
	require.Equal(t, before, pkts)
}

func TestEncodeIllegalIndex(t *testing.T) {
	r, err := New(3, 5)
	require.NoError(t, err)

	src := randSrc(3, 8)
	out := make([]byte, 8)
	require.ErrorIs(t, r.Encode(src, out, 5), ErrIllegalVectIndex)
	require.ErrorIs(t, r.Encode(src, out, -1), ErrIllegalVectIndex)

	pkts := randSrc(3, 8)
	require.ErrorIs(t, r.Decode(pkts, []int{0, 1, 5}), ErrIllegalVectIndex)
}

// 16-bit field, any 4 of 8 symbols, 1024 elements per symbol.
func TestRoundTripGF16(t *testing.T) {
	r, err := NewGF(4, 8, 16)
	require.NoError(t, err)

	src := randSrc(4, 2048)
	enc := encodeAll(t, r, src)

	subsets := [][]int{
		{0, 1, 2, 3},
		{4, 5, 6, 7},
		{7, 0, 5, 2},
		{1, 6, 3, 4},
	}
	rnd := rand.New(rand.NewSource(7))
	for i := 0; i < 10; i++ {
		subsets = append(subsets, rnd.Perm(8)[:4])
	}
	for _, s := range subsets {
		roundTrip(t, r, src, enc, s)
	}
}

// The MDS property across fields, code shapes and survivor subsets,
// including n = 2^m and odd symbol sizes for byte-wide fields.
func TestMDSProperty(t *testing.T) {
	cases := []struct {
		gfBits, k, n, size int
	}{
		{8, 3, 5, 4},
		{8, 4, 4, 33},  // no parity
		{8, 1, 4, 17},  // single source symbol
		{8, 10, 14, 1}, // one element per symbol
		{4, 3, 16, 21}, // n = 2^m
		{2, 2, 4, 5},   // n = 2^m, smallest field
		{9, 3, 7, 26},  // wide field, size not divisible by 16
		{16, 5, 9, 34},
	}
	rnd := rand.New(rand.NewSource(3))
	for _, tc := range cases {
		r, err := NewGF(tc.k, tc.n, tc.gfBits)
		require.NoError(t, err, "k=%d n=%d m=%d", tc.k, tc.n, tc.gfBits)

		src := randSrc(tc.k, tc.size)
		// Keep every element inside the field.
		for _, s := range src {
			if tc.gfBits > 8 {
				maskElems(s, r.f.gfSize)
				continue
			}
			for i := range s {
				s[i] &= byte(r.f.gfSize)
			}
		}
		enc := encodeAll(t, r, src)

		subsets := [][]int{
			firstN(tc.k),                // first k
			lastN(tc.k, tc.n),           // last k
			rnd.Perm(tc.n)[:tc.k],       // random
			reversed(rnd.Perm(tc.n)[:tc.k]),
		}
		for _, s := range subsets {
			roundTrip(t, r, src, enc, s)
		}
	}
}

func firstN(k int) []int {
	s := make([]int, k)
	for i := range s {
		s[i] = i
	}
	return s
}

func lastN(k, n int) []int {
	s := make([]int, k)
	for i := range s {
		s[i] = n - k + i
	}
	return s
}

func reversed(s []int) []int {
	r := make([]int, len(s))
	for i, v := range s {
		r[len(s)-1-i] = v
	}
	return r
}

// Decoding with no losses must still shuffle the symbols back into source
// order.
func TestDecodeNoLoss(t *testing.T) {
	r, err := New(3, 3)
	require.NoError(t, err)

	src := randSrc(3, 16)
	pkts := [][]byte{
		append([]byte(nil), src[2]...),
		append([]byte(nil), src[0]...),
		append([]byte(nil), src[1]...),
	}
	require.NoError(t, r.Decode(pkts, []int{2, 0, 1}))
	for i := 0; i < 3; i++ {
		require.Equal(t, src[i], pkts[i])
	}
}

func TestEncodeShardsMatchesEncode(t *testing.T) {
	for _, tc := range []struct{ gfBits, k, n, size int }{
		{8, 10, 14, 4 * 1024},
		{8, 5, 12, 64 * 1024}, // large enough for the parallel path
		{16, 4, 8, 32 * 1024},
	} {
		r, err := NewGF(tc.k, tc.n, tc.gfBits)
		require.NoError(t, err)

		src := randSrc(tc.k, tc.size)
		vects := make([][]byte, tc.n)
		for i := 0; i < tc.k; i++ {
			vects[i] = append([]byte(nil), src[i]...)
		}
		for i := tc.k; i < tc.n; i++ {
			vects[i] = make([]byte, tc.size)
		}
		require.NoError(t, r.EncodeShards(vects))

		enc := encodeAll(t, r, src)
		for i := 0; i < tc.n; i++ {
			require.True(t, bytes.Equal(enc[i], vects[i]), "shard %d", i)
		}
	}
}

// A generator built far past the parallel matmul threshold must still be MDS.
func TestRoundTripManyParity(t *testing.T) {
	r, err := New(4, 120)
	require.NoError(t, err)

	src := randSrc(4, 10)
	enc := encodeAll(t, r, src)
	roundTrip(t, r, src, enc, []int{119, 60, 87, 3})
}

func TestNewInvalidParams(t *testing.T) {
	for _, tc := range []struct{ k, n, gfBits int }{
		{0, 1, 8},
		{-1, 3, 8},
		{4, 3, 8},
		{2, 257, 8},
		{2, 17, 4},
		{1, 5, 2},
	} {
		_, err := NewGF(tc.k, tc.n, tc.gfBits)
		require.ErrorIs(t, err, ErrIllegalVects, "k=%d n=%d m=%d", tc.k, tc.n, tc.gfBits)
	}
	_, err := NewGF(2, 3, 1)
	require.ErrorIs(t, err, ErrIllegalGFBits)
	_, err = NewGF(2, 3, 17)
	require.ErrorIs(t, err, ErrIllegalGFBits)
}

func TestVectSizeErrors(t *testing.T) {
	r, err := New(2, 4)
	require.NoError(t, err)

	out := make([]byte, 4)
	require.ErrorIs(t, r.Encode([][]byte{{1, 2}}, out, 0), ErrMismatchVects)
	require.ErrorIs(t, r.Encode([][]byte{{}, {}}, out, 0), ErrZeroVectSize)
	require.ErrorIs(t, r.Encode([][]byte{{1, 2}, {3}}, out, 0), ErrMismatchVectSize)
	require.ErrorIs(t, r.Encode([][]byte{{1, 2}, {3, 4}}, out, 2), ErrMismatchVectSize)

	r16, err := NewGF(2, 4, 16)
	require.NoError(t, err)
	out16 := make([]byte, 3)
	require.ErrorIs(t, r16.Encode([][]byte{{1, 2, 3}, {4, 5, 6}}, out16, 0), ErrOddVectSize)
}

// A decode stores one inverted matrix per survivor tuple, and a second decode
// of the same tuple must restore the source as well.
func TestDecodeMatrixCache(t *testing.T) {
	r, err := New(3, 5)
	require.NoError(t, err)
	require.True(t, r.cacheEnabled)

	src := randSrc(3, 12)
	enc := encodeAll(t, r, src)
	roundTrip(t, r, src, enc, []int{4, 1, 3})

	cached := 0
	r.decMatrix.Range(func(_, _ any) bool {
		cached++
		return true
	})
	require.Equal(t, 1, cached)

	roundTrip(t, r, src, enc, []int{4, 1, 3})

	// A huge subset space keeps the cache off.
	big, err := New(100, 200)
	require.NoError(t, err)
	require.False(t, big.cacheEnabled)
	srcBig := randSrc(100, 3)
	encBig := encodeAll(t, big, srcBig)
	roundTrip(t, big, srcBig, encBig, lastN(100, 200))
}

// The alternative generator construction is MDS too, but is a different
// code: its parity symbols are incompatible with the default.
func TestPlankMatrixRoundTrip(t *testing.T) {
	f, err := getField(8)
	require.NoError(t, err)

	k, n := 3, 6
	r := &FEC{K: k, N: n, f: f, gen: f.genEncMatrixPlank(k, n)}
	src := randSrc(k, 24)
	enc := encodeAll(t, r, src)
	roundTrip(t, r, src, enc, []int{5, 3, 4})

	def, err := New(k, n)
	require.NoError(t, err)
	parity := make([]byte, 24)
	require.NoError(t, def.Encode(src, parity, k))
	require.False(t, bytes.Equal(parity, enc[k]))
}

func benchmarkEncode(b *testing.B, gfBits, k, n, size int) {
	r, err := NewGF(k, n, gfBits)
	if err != nil {
		b.Fatal(err)
	}
	vects := make([][]byte, n)
	for i := range vects {
		vects[i] = make([]byte, size)
		if i < k {
			fillRandom(vects[i])
		}
	}
	b.SetBytes(int64(k * size))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := r.EncodeShards(vects); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkEncode10x4x4KB(b *testing.B) { benchmarkEncode(b, 8, 10, 14, 4*1024) }

func BenchmarkEncodeGF16_4x8x64KB(b *testing.B) { benchmarkEncode(b, 16, 4, 8, 64*1024) }

func BenchmarkDecode10x4x4KB(b *testing.B) {
	k, n, size := 10, 14, 4*1024
	r, err := New(k, n)
	if err != nil {
		b.Fatal(err)
	}
	src := make([][]byte, k)
	for i := range src {
		src[i] = make([]byte, size)
		fillRandom(src[i])
	}
	enc := make([][]byte, n)
	for i := range enc {
		enc[i] = make([]byte, size)
		if err := r.Encode(src, enc[i], i); err != nil {
			b.Fatal(err)
		}
	}
	subset := []int{13, 1, 2, 12, 4, 5, 11, 7, 8, 10} // four sources lost
	pkts := make([][]byte, k)
	indexes := make([]int, k)
	b.SetBytes(int64(k * size))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		b.StopTimer()
		for j, s := range subset {
			pkts[j] = append(pkts[j][:0], enc[s]...)
			indexes[j] = s
		}
		b.StartTimer()
		if err := r.Decode(pkts, indexes); err != nil {
			b.Fatal(err)
		}
	}
}
