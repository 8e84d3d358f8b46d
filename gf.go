// Copyright (c) 2026 NEU-Liu
//
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package fecrs

import (
	"errors"
	"sync"
)

// Primitive polynomials for GF(2^m), indexed by m; bit i is the coefficient
// of x^i. See Lin & Costello, Appendix A, and Lee & Messerschmitt, p. 453.
// Codecs built from different polynomials are incompatible on the wire.
var primitivePolys = [17]uint32{
	0, 0, // no code for m < 2
	0x00007, //  2: 1+x+x^2
	0x0000b, //  3: 1+x+x^3
	0x00013, //  4: 1+x+x^4
	0x00025, //  5: 1+x^2+x^5
	0x00043, //  6: 1+x+x^6
	0x00089, //  7: 1+x^3+x^7
	0x0011d, //  8: 1+x^2+x^3+x^4+x^8
	0x00211, //  9: 1+x^4+x^9
	0x00409, // 10: 1+x^3+x^10
	0x00805, // 11: 1+x^2+x^11
	0x01053, // 12: 1+x+x^4+x^6+x^12
	0x0201b, // 13: 1+x+x^3+x^4+x^13
	0x04443, // 14: 1+x+x^6+x^10+x^14
	0x08003, // 15: 1+x+x^15
	0x1100b, // 16: 1+x+x^3+x^12+x^16
}

var ErrIllegalGFBits = errors.New("fecrs: gf bits out of range [2, 16]")

// field holds the lookup tables of one GF(2^m).
// Immutable once built; shared by every codec on the same m.
type field struct {
	gfBits int
	gfSize int // 2^m - 1, order of the multiplicative group

	exp []uint16 // exp[i] = alpha^i, doubled so a log sum needs no reduction
	log []uint16 // log[0] holds the gfSize sentinel, never read on correct paths
	inv []uint16 // inv[0] = 0, same deal

	mulTbl   [][]uint8       // m <= 8: full multiplication table
	splitTbl [][4][16]uint16 // m > 8 with SIMD: per-coefficient nibble product tables

	feat int
	g    gmu
}

var fieldRegistry [17]struct {
	once sync.Once
	f    *field
}

// Init builds the process-wide tables for GF(2^gfBits).
// It is idempotent and safe from any goroutine; New calls it implicitly,
// so an explicit call only moves the table-build cost up front.
func Init(gfBits int) error {
	_, err := getField(gfBits)
	return err
}

func getField(gfBits int) (*field, error) {
	if gfBits < 2 || gfBits > 16 {
		return nil, ErrIllegalGFBits
	}
	e := &fieldRegistry[gfBits]
	e.once.Do(func() {
		e.f = newField(gfBits)
	})
	return e.f, nil
}

func newField(gfBits int) *field {
	f := &field{gfBits: gfBits, gfSize: 1<<uint(gfBits) - 1}
	f.generate()
	f.feat = getCPUFeature()
	if gfBits <= 8 {
		f.initMulTbl()
	} else if f.feat != featBase {
		f.initSplitTbl()
	}
	f.g.initFunc(f, f.feat)
	return f
}

// generate builds exp, log and inv from the primitive polynomial.
// alpha = x generates the multiplicative group: the first gfBits powers are
// plain left shifts, later ones fold the polynomial back in whenever the
// shift overflows the field.
func (f *field) generate() {
	gfSize := f.gfSize
	poly := primitivePolys[f.gfBits]

	f.exp = make([]uint16, 2*gfSize)
	f.log = make([]uint16, gfSize+1)
	f.inv = make([]uint16, gfSize+1)

	mask := uint16(1)
	for i := 0; i < f.gfBits; i++ {
		f.exp[i] = mask
		f.log[mask] = uint16(i)
		if poly&(1<<uint(i)) != 0 {
			f.exp[f.gfBits] ^= mask
		}
		mask <<= 1
	}
	f.log[f.exp[f.gfBits]] = uint16(f.gfBits)

	top := uint16(1) << uint(f.gfBits-1)
	for i := f.gfBits + 1; i < gfSize; i++ {
		if f.exp[i-1] >= top {
			f.exp[i] = f.exp[f.gfBits] ^ ((f.exp[i-1] ^ top) << 1)
		} else {
			f.exp[i] = f.exp[i-1] << 1
		}
		f.log[f.exp[i]] = uint16(i)
	}
	f.log[0] = uint16(gfSize)
	for i := 0; i < gfSize; i++ {
		f.exp[i+gfSize] = f.exp[i]
	}

	f.inv[0] = 0
	f.inv[1] = 1
	for i := 2; i <= gfSize; i++ {
		f.inv[i] = f.exp[gfSize-int(f.log[i])]
	}
}

// modnn computes x mod (2^m - 1) without a divide.
func (f *field) modnn(x uint64) uint16 {
	gfSize := uint64(f.gfSize)
	for x >= gfSize {
		x -= gfSize
		x = (x >> uint(f.gfBits)) + (x & gfSize)
	}
	return uint16(x)
}

// mul multiplies two field elements.
func (f *field) mul(x, y uint16) uint16 {
	if f.gfBits <= 8 {
		return uint16(f.mulTbl[x][y])
	}
	return f.mulSlow(x, y)
}

func (f *field) mulSlow(x, y uint16) uint16 {
	if x == 0 || y == 0 {
		return 0
	}
	return f.exp[int(f.log[x])+int(f.log[y])]
}

func (f *field) initMulTbl() {
	size := f.gfSize + 1
	f.mulTbl = make([][]uint8, size)
	for i := 0; i < size; i++ {
		row := make([]uint8, size)
		for j := 0; j < size; j++ {
			row[j] = uint8(f.mulSlow(uint16(i), uint16(j)))
		}
		f.mulTbl[i] = row
	}
}

// initSplitTbl precomputes, for every coefficient c, the products of c with
// each 4-bit slice of a 16-bit element. A bulk multiply then turns into four
// lookups XORed together; the kernels in mul.go walk these tables in
// 16-byte groups. Slices above the field size never occur in valid input and
// stay zero.
func (f *field) initSplitTbl() {
	f.splitTbl = make([][4][16]uint16, f.gfSize+1)
	for c := 0; c <= f.gfSize; c++ {
		t := &f.splitTbl[c]
		for j := 0; j < 16; j++ {
			for s := 0; s < 4; s++ {
				v := j << uint(4*s)
				if v <= f.gfSize {
					t[s][j] = f.mulSlow(uint16(c), uint16(v))
				}
			}
		}
	}
}
