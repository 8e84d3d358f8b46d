// Copyright (c) 2026 NEU-Liu
//
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Package fecrs implements a systematic Reed-Solomon erasure codec over
// GF(2^m), 2 <= m <= 16, built from a Vandermonde matrix following
// L. Rizzo, "Effective Erasure Codes for Reliable Computer Communication
// Protocols", ACM SIGCOMM CCR, 1997.
//
// The code is MDS: any k of the n encoded symbols recover the k source
// symbols, and the first k encoded symbols are the source itself.
//
// Symbols are byte slices. Fields wider than 8 bits hold little-endian
// 16-bit elements, so symbol sizes must be even there. Every element must be
// below 2^m; symbol contents are not checked.
package fecrs

import (
	"errors"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"
)

// FEC is a codec descriptor for one (k, n) code. It is immutable after New
// and safe for concurrent use.
type FEC struct {
	K int // number of source symbols
	N int // total number of encoded symbols, K <= N <= 2^m

	f   *field
	gen matrix // n×k systematic generator, identity on top

	cacheEnabled bool
	decMatrix    *sync.Map // inverted decode matrices, keyed by index tuple
}

var (
	ErrIllegalVects     = errors.New("fecrs: illegal symbol numbers: k < 1, k > n or n > field size")
	ErrMismatchVects    = errors.New("fecrs: too few/many vects given")
	ErrZeroVectSize     = errors.New("fecrs: vect size is 0")
	ErrMismatchVectSize = errors.New("fecrs: vects size mismatched")
	ErrOddVectSize      = errors.New("fecrs: odd vect size with 16-bit field elements")
	ErrIllegalVectIndex = errors.New("fecrs: illegal vect index")
	ErrDuplicateIndex   = errors.New("fecrs: duplicated vect index")
)

// New creates a codec with k source and n total symbols over GF(2^8).
func New(k, n int) (*FEC, error) {
	return NewGF(k, n, 8)
}

// Cache inverted decode matrices only when there are at most this many
// k-subsets of the n indexes; more distinct survivor sets than that and the
// cache would mostly miss anyway. Entries are keyed by the ordered index
// tuple and are never evicted, so the number kept is not capped at this value.
const maxCachedMatrices = 4096

// NewGF creates a codec with k source and n total symbols over GF(2^gfBits).
// Field tables for that m are built on first use.
func NewGF(k, n, gfBits int) (*FEC, error) {
	f, err := getField(gfBits)
	if err != nil {
		return nil, err
	}
	if k < 1 || k > n || n > f.gfSize+1 {
		return nil, ErrIllegalVects
	}
	r := &FEC{K: k, N: n, f: f, gen: f.genEncMatrix(k, n)}
	if subsetCount(n, k) <= maxCachedMatrices {
		r.cacheEnabled = true
		r.decMatrix = new(sync.Map)
	}
	return r, nil
}

// subsetCount estimates C(n, k), saturating once it is clearly too large.
func subsetCount(n, k int) float64 {
	c := 1.0
	for i := 1; i <= k; i++ {
		c *= float64(n-k+i) / float64(i)
		if c > 1e12 {
			break
		}
	}
	return c
}

func (r *FEC) checkVects(vects [][]byte, want int) (size int, err error) {
	if len(vects) != want {
		return 0, ErrMismatchVects
	}
	size = len(vects[0])
	if size == 0 {
		return 0, ErrZeroVectSize
	}
	if r.f.gfBits > 8 && size&1 != 0 {
		return 0, ErrOddVectSize
	}
	for i := 1; i < len(vects); i++ {
		if len(vects[i]) != size {
			return 0, ErrMismatchVectSize
		}
	}
	return size, nil
}

// Encode produces the encoded symbol with the given index into out.
// src holds the k source symbols, all the same size as out. An index below k
// copies the source symbol through; a parity index accumulates the
// generator-row scaled source symbols.
func (r *FEC) Encode(src [][]byte, out []byte, index int) error {
	size, err := r.checkVects(src, r.K)
	if err != nil {
		return err
	}
	if index < 0 || index >= r.N {
		return ErrIllegalVectIndex
	}
	if len(out) != size {
		return ErrMismatchVectSize
	}
	r.encodeInto(src, out, index)
	return nil
}

func (r *FEC) encodeInto(src [][]byte, out []byte, index int) {
	if index < r.K {
		copy(out, src[index])
		return
	}
	row := r.gen[index*r.K : index*r.K+r.K]
	g := &r.f.g
	g.coeffMulVect(row[0], src[0], out)
	for i := 1; i < r.K; i++ {
		g.coeffMulVectXOR(row[i], src[i], out)
	}
}

// Parity rows shorter than this are cheaper to compute than to schedule.
const parallelEncodeSize = 16 * 1024

// EncodeShards fills vects[k:] with parity symbols computed from the source
// symbols in vects[:k]. Parity rows are independent; for large symbols they
// run on a bounded group.
func (r *FEC) EncodeShards(vects [][]byte) error {
	size, err := r.checkVects(vects, r.N)
	if err != nil {
		return err
	}
	src := vects[:r.K]
	if r.N-r.K >= 2 && size >= parallelEncodeSize {
		g := new(errgroup.Group)
		g.SetLimit(runtime.GOMAXPROCS(0))
		for index := r.K; index < r.N; index++ {
			index := index
			g.Go(func() error {
				r.encodeInto(src, vects[index], index)
				return nil
			})
		}
		g.Wait()
		return nil
	}
	for index := r.K; index < r.N; index++ {
		r.encodeInto(src, vects[index], index)
	}
	return nil
}

// Decode recovers the k source symbols in place from any k received encoded
// symbols. pkts[i] is a received symbol and indexes[i] the index it was
// encoded with; both slices are reordered while decoding so that position i
// ends up holding source symbol i.
func (r *FEC) Decode(pkts [][]byte, indexes []int) error {
	size, err := r.checkVects(pkts, r.K)
	if err != nil {
		return err
	}
	if len(indexes) != r.K {
		return ErrMismatchVects
	}
	for _, index := range indexes {
		if index < 0 || index >= r.N {
			return ErrIllegalVectIndex
		}
	}
	if err := shuffle(pkts, indexes, r.K); err != nil {
		return err
	}
	dm, err := r.decodeMatrix(indexes)
	if err != nil {
		return err
	}

	// Recover into fresh buffers first: the surviving symbols feed every
	// missing row, so nothing may be overwritten before all rows are done.
	k := r.K
	g := &r.f.g
	recovered := make([][]byte, k)
	for row := 0; row < k; row++ {
		if indexes[row] < k {
			continue
		}
		buf := make([]byte, size)
		for col := 0; col < k; col++ {
			g.coeffMulVectXOR(dm[row*k+col], pkts[col], buf)
		}
		recovered[row] = buf
	}
	for row := 0; row < k; row++ {
		if recovered[row] != nil {
			copy(pkts[row], recovered[row])
		}
	}
	return nil
}

// shuffle moves every received source symbol to the position matching its
// index, cycle by cycle. A swap target that already holds its own index
// means two symbols claim the same position.
func shuffle(pkts [][]byte, indexes []int, k int) error {
	for i := 0; i < k; {
		if indexes[i] >= k || indexes[i] == i {
			i++
			continue
		}
		c := indexes[i]
		if indexes[c] == c {
			return ErrDuplicateIndex
		}
		indexes[i], indexes[c] = indexes[c], indexes[i]
		pkts[i], pkts[c] = pkts[c], pkts[i]
	}
	return nil
}

// decodeMatrix builds and inverts the k×k matrix matching the shuffled
// indexes: a standard basis row for every source symbol sitting in place, the
// matching generator row for every parity symbol. Inverted matrices are
// cached per index tuple when the subset space is small.
func (r *FEC) decodeMatrix(indexes []int) (matrix, error) {
	var key string
	if r.cacheEnabled {
		key = indexKey(indexes)
		if m, ok := r.decMatrix.Load(key); ok {
			return m.(matrix), nil
		}
	}
	k := r.K
	dm := newMatrix(k, k)
	for i, index := range indexes {
		if index < k {
			dm[i*k+i] = 1
			continue
		}
		copy(dm[i*k:i*k+k], r.gen[index*k:index*k+k])
	}
	if err := r.f.invertMat(dm, k); err != nil {
		return nil, err
	}
	if r.cacheEnabled {
		r.decMatrix.Store(key, dm)
	}
	return dm, nil
}

func indexKey(indexes []int) string {
	b := make([]byte, 2*len(indexes))
	for i, index := range indexes {
		b[2*i] = byte(index)
		b[2*i+1] = byte(index >> 8)
	}
	return string(b)
}
