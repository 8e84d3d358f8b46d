// Copyright (c) 2026 NEU-Liu
//
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package fecrs

// Bulk coefficient-by-vector multiply kernels, one family per element width:
// full-table lookups for 8-bit fields, split-table or exp/log lookups for
// wider ones. Vectors are byte slices; wide elements are little-endian, so
// vector sizes must be even there (callers enforce it).

// Coefficient multiply by vector (full table, byte elements).
// Then write result.
func (f *field) mulVect8(c uint16, input, output []byte) {
	t := f.mulTbl[c]
	for i := 0; i < len(input); i++ {
		output[i] = t[input[i]]
	}
}

// Coefficient multiply by vector (full table, byte elements).
// Then update result by XOR old result.
func (f *field) mulVectXOR8(c uint16, input, output []byte) {
	t := f.mulTbl[c]
	for i := 0; i < len(input); i++ {
		output[i] ^= t[input[i]]
	}
}

// Exp/log form for wide fields. row points into the doubled exp table so the
// log sum needs no reduction; zero elements must be skipped because log[0]
// is a sentinel. A zero coefficient has no log either and is handled first.
func (f *field) mulVect16(c uint16, input, output []byte) {
	if c == 0 {
		for i := 0; i+1 < len(input); i += 2 {
			output[i] = 0
			output[i+1] = 0
		}
		return
	}
	row := f.exp[f.log[c]:]
	lg := f.log
	for i := 0; i+1 < len(input); i += 2 {
		v := uint16(input[i]) | uint16(input[i+1])<<8
		var p uint16
		if v != 0 {
			p = row[lg[v]]
		}
		output[i] = byte(p)
		output[i+1] = byte(p >> 8)
	}
}

func (f *field) mulVectXOR16(c uint16, input, output []byte) {
	if c == 0 {
		return
	}
	row := f.exp[f.log[c]:]
	lg := f.log
	for i := 0; i+1 < len(input); i += 2 {
		v := uint16(input[i]) | uint16(input[i+1])<<8
		if v != 0 {
			p := row[lg[v]]
			output[i] ^= byte(p)
			output[i+1] ^= byte(p >> 8)
		}
	}
}

// Split form for wide fields: each 16-bit element is four 4-bit slices and
// the product is four table lookups XORed together, no zero test needed.
// The main loop walks one 16-byte group (8 elements) at a time, the tail
// falls back to single elements.
func (f *field) mulVectSplit(c uint16, input, output []byte) {
	t := &f.splitTbl[c]
	n := len(input) &^ 15
	for i := 0; i < n; i += 16 {
		in := input[i : i+16 : i+16]
		out := output[i : i+16 : i+16]
		for j := 0; j < 16; j += 2 {
			v := uint16(in[j]) | uint16(in[j+1])<<8
			p := t[0][v&0x0f] ^ t[1][v>>4&0x0f] ^ t[2][v>>8&0x0f] ^ t[3][v>>12]
			out[j] = byte(p)
			out[j+1] = byte(p >> 8)
		}
	}
	for i := n; i+1 < len(input); i += 2 {
		v := uint16(input[i]) | uint16(input[i+1])<<8
		p := t[0][v&0x0f] ^ t[1][v>>4&0x0f] ^ t[2][v>>8&0x0f] ^ t[3][v>>12]
		output[i] = byte(p)
		output[i+1] = byte(p >> 8)
	}
}

func (f *field) mulVectXORSplit(c uint16, input, output []byte) {
	t := &f.splitTbl[c]
	n := len(input) &^ 15
	for i := 0; i < n; i += 16 {
		in := input[i : i+16 : i+16]
		out := output[i : i+16 : i+16]
		for j := 0; j < 16; j += 2 {
			v := uint16(in[j]) | uint16(in[j+1])<<8
			p := t[0][v&0x0f] ^ t[1][v>>4&0x0f] ^ t[2][v>>8&0x0f] ^ t[3][v>>12]
			out[j] ^= byte(p)
			out[j+1] ^= byte(p >> 8)
		}
	}
	for i := n; i+1 < len(input); i += 2 {
		v := uint16(input[i]) | uint16(input[i+1])<<8
		p := t[0][v&0x0f] ^ t[1][v>>4&0x0f] ^ t[2][v>>8&0x0f] ^ t[3][v>>12]
		output[i] ^= byte(p)
		output[i+1] ^= byte(p >> 8)
	}
}
