// Copyright (c) 2026 NEU-Liu
//
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// This tool generates the exp, log and inverse tables of GF(2^m) for a
// chosen m, plus the full multiplication table for small fields. Handy for
// eyeballing the tables or freezing them into another program.
package main

import (
	"bufio"
	"fmt"
	"log"
	"os"

	"github.com/spf13/pflag"
)

// Primitive polynomials indexed by m; bit i is the coefficient of x^i.
var primitivePolys = [17]uint32{
	0, 0,
	0x00007, 0x0000b, 0x00013, 0x00025, 0x00043, 0x00089, 0x0011d,
	0x00211, 0x00409, 0x00805, 0x01053, 0x0201b, 0x04443, 0x08003, 0x1100b,
}

func main() {
	gfBits := pflag.IntP("gf-bits", "m", 8, "field width m, 2..16")
	outPath := pflag.StringP("out", "o", "gf_tables", "output file")
	pflag.Parse()

	m := *gfBits
	if m < 2 || m > 16 {
		log.Fatalf("gf-bits out of range [2, 16]: %d", m)
	}

	f, err := os.OpenFile(*outPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		log.Fatalln(err)
	}
	defer f.Close()
	w := bufio.NewWriter(f)

	gfSize := 1<<uint(m) - 1
	poly := primitivePolys[m]
	exp, logTbl := genExpLogTables(m, gfSize, poly)
	inv := genInverseTable(gfSize, exp, logTbl)

	fmt.Fprintf(w, "GF(2^%d), primitive polynomial %s (%#x)\n", m, formatPolynomial(m, poly), poly)
	fmt.Fprintf(w, "expTbl: %#v\n", exp)
	fmt.Fprintf(w, "logTbl: %#v\n", logTbl)
	fmt.Fprintf(w, "inverseTbl: %#v\n", inv)
	if m <= 8 {
		mul := genMulTable(gfSize, exp, logTbl)
		fmt.Fprintf(w, "mulTbl: %#v\n", mul)
	}

	if err := w.Flush(); err != nil {
		log.Fatalln(err)
	}
}

// genExpLogTables builds the power table of alpha (doubled, so a log sum
// indexes it directly) and its inverse mapping. log[0] gets the gfSize
// sentinel.
func genExpLogTables(m, gfSize int, poly uint32) (exp, logTbl []uint16) {
	exp = make([]uint16, 2*gfSize)
	logTbl = make([]uint16, gfSize+1)

	mask := uint16(1)
	for i := 0; i < m; i++ {
		exp[i] = mask
		logTbl[mask] = uint16(i)
		if poly&(1<<uint(i)) != 0 {
			exp[m] ^= mask
		}
		mask <<= 1
	}
	logTbl[exp[m]] = uint16(m)

	top := uint16(1) << uint(m-1)
	for i := m + 1; i < gfSize; i++ {
		if exp[i-1] >= top {
			exp[i] = exp[m] ^ ((exp[i-1] ^ top) << 1)
		} else {
			exp[i] = exp[i-1] << 1
		}
		logTbl[exp[i]] = uint16(i)
	}
	logTbl[0] = uint16(gfSize)
	for i := 0; i < gfSize; i++ {
		exp[i+gfSize] = exp[i]
	}
	return exp, logTbl
}

func genInverseTable(gfSize int, exp, logTbl []uint16) []uint16 {
	inv := make([]uint16, gfSize+1)
	inv[1] = 1
	for i := 2; i <= gfSize; i++ {
		inv[i] = exp[gfSize-int(logTbl[i])]
	}
	return inv
}

func genMulTable(gfSize int, exp, logTbl []uint16) [][]uint16 {
	mul := make([][]uint16, gfSize+1)
	for i := range mul {
		mul[i] = make([]uint16, gfSize+1)
		if i == 0 {
			continue
		}
		for j := 1; j <= gfSize; j++ {
			s := int(logTbl[i]) + int(logTbl[j])
			mul[i][j] = exp[s]
		}
	}
	return mul
}

func formatPolynomial(m int, poly uint32) string {
	s := ""
	for i := m; i >= 0; i-- {
		if poly&(1<<uint(i)) == 0 {
			continue
		}
		if s != "" {
			s += "+"
		}
		switch i {
		case 0:
			s += "1"
		case 1:
			s += "x"
		default:
			s += fmt.Sprintf("x^%d", i)
		}
	}
	return s
}
