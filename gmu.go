// Copyright (c) 2026 NEU-Liu
//
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package fecrs

import (
	"github.com/templexxx/cpu"
	xor "github.com/templexxx/xorsimd"
)

// EnableSIMD selects the 16-byte split-table kernels for fields wider than
// 8 bits when the CPU supports them. Either kernel family produces identical
// output.
//
// You can modify it before the first Init/New on a field.
var EnableSIMD = true

// CPU features.
const (
	featSIMD = iota // SSSE3-class 16-byte table shuffles available
	featBase        // no supported features, using basic way
)

func getCPUFeature() int {
	if EnableSIMD && (cpu.X86.HasAVX2 || cpu.X86.HasSSSE3) {
		return featSIMD
	}
	return featBase
}

// galois field multiplying unit
type gmu struct {
	// output = c * input
	mulVect func(c uint16, input, output []byte)
	// output ^= c * input
	mulVectXOR func(c uint16, input, output []byte)
}

func (g *gmu) initFunc(f *field, feat int) {
	if f.gfBits <= 8 {
		g.mulVect = f.mulVect8
		g.mulVectXOR = f.mulVectXOR8
		return
	}
	switch feat {
	case featSIMD:
		g.mulVect = f.mulVectSplit
		g.mulVectXOR = f.mulVectXORSplit
	default:
		g.mulVect = f.mulVect16
		g.mulVectXOR = f.mulVectXOR16
	}
}

// coeffMulVect writes c * input into output.
// The trivial coefficients never reach the kernels.
func (g *gmu) coeffMulVect(c uint16, input, output []byte) {
	switch c {
	case 0:
		for i := range output {
			output[i] = 0
		}
	case 1:
		copy(output, input)
	default:
		g.mulVect(c, input, output)
	}
}

// coeffMulVectXOR updates output with c * input. c == 0 is a no-op and
// c == 1 degenerates to a plain XOR.
func (g *gmu) coeffMulVectXOR(c uint16, input, output []byte) {
	switch c {
	case 0:
	case 1:
		xor.Encode(output, [][]byte{output, input})
	default:
		g.mulVectXOR(c, input, output)
	}
}
