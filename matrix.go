// Copyright (c) 2026 NEU-Liu
//
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package fecrs

import (
	"errors"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// matrix is a dense row-major rectangle of field elements. Dimensions travel
// alongside as explicit arguments.
type matrix []uint16

func newMatrix(rows, cols int) matrix {
	return make(matrix, rows*cols)
}

var ErrSingular = errors.New("fecrs: matrix is singular")

// addMulRow updates dst with c times src, element-wise over the field.
// Matrix rows are short compared to symbol buffers, so the exp/log form is
// enough here.
func (f *field) addMulRow(dst, src []uint16, c uint16) {
	if c == 0 {
		return
	}
	row := f.exp[f.log[c]:]
	lg := f.log
	for i, v := range src {
		if v != 0 {
			dst[i] ^= row[lg[v]]
		}
	}
}

// Fan matMul rows out to a group once there are enough of them.
const matMulParallelRows = 64

// matMul computes c = a * b where a is n×k, b is k×m and c is n×m.
// Each output row accumulates scaled b-rows instead of running the textbook
// triple loop, so the inner pass is a single addMulRow and skips zero
// coefficients outright. Rows are independent.
func (f *field) matMul(a, b, c matrix, n, k, m int) {
	for i := range c[:n*m] {
		c[i] = 0
	}
	if n >= matMulParallelRows {
		g := new(errgroup.Group)
		g.SetLimit(runtime.GOMAXPROCS(0))
		for row := 0; row < n; row++ {
			row := row
			g.Go(func() error {
				f.matMulRow(a, b, c, row, k, m)
				return nil
			})
		}
		g.Wait()
		return
	}
	for row := 0; row < n; row++ {
		f.matMulRow(a, b, c, row, k, m)
	}
}

func (f *field) matMulRow(a, b, c matrix, row, k, m int) {
	cr := c[row*m : row*m+m]
	for i := 0; i < k; i++ {
		if coeff := a[row*k+i]; coeff != 0 {
			f.addMulRow(cr, b[i*m:i*m+m], coeff)
		}
	}
}

// invertMat inverts a k×k matrix in place by Gauss-Jordan elimination with
// full pivot bookkeeping, adapted from Numerical Recipes. The identity part
// of the augmented matrix is folded into the same storage: the pivot cell is
// overwritten with 1 before scaling and the eliminated cells with 0 before
// the row update.
func (f *field) invertMat(src matrix, k int) error {
	indxc := make([]int, k)
	indxr := make([]int, k)
	ipiv := make([]int, k)
	idRow := make([]uint16, k)

	for col := 0; col < k; col++ {
		// Zeroing column col, look for a non-zero pivot.
		// The diagonal first, the full scan only when that fails.
		irow, icol := -1, -1
		if ipiv[col] != 1 && src[col*k+col] != 0 {
			irow, icol = col, col
		} else {
		scan:
			for row := 0; row < k; row++ {
				if ipiv[row] == 1 {
					continue
				}
				for ix := 0; ix < k; ix++ {
					switch {
					case ipiv[ix] == 0:
						if src[row*k+ix] != 0 {
							irow, icol = row, ix
							break scan
						}
					case ipiv[ix] > 1:
						return ErrSingular
					}
				}
			}
			if icol == -1 {
				return ErrSingular
			}
		}
		ipiv[icol]++
		// Swap rows so the pivot lands on the diagonal. Rare.
		if irow != icol {
			for ix := 0; ix < k; ix++ {
				src[irow*k+ix], src[icol*k+ix] = src[icol*k+ix], src[irow*k+ix]
			}
		}
		indxr[col], indxc[col] = irow, icol
		pivotRow := src[icol*k : icol*k+k]
		c := pivotRow[icol]
		if c == 0 {
			return ErrSingular
		}
		if c != 1 {
			c = f.inv[c]
			pivotRow[icol] = 1
			for ix := 0; ix < k; ix++ {
				pivotRow[ix] = f.mul(c, pivotRow[ix])
			}
		}
		// Remove multiples of the pivot row from all other rows. When the
		// pivot row is a standard basis vector there is nothing to remove,
		// which is the common case for decode matrices.
		idRow[icol] = 1
		if !rowsEqual(pivotRow, idRow) {
			for ix := 0; ix < k; ix++ {
				if ix == icol {
					continue
				}
				p := src[ix*k : ix*k+k]
				c := p[icol]
				p[icol] = 0
				f.addMulRow(p, pivotRow, c)
			}
		}
		idRow[icol] = 0
	}
	// Undo the column swaps.
	for col := k - 1; col >= 0; col-- {
		if indxr[col] != indxc[col] {
			for row := 0; row < k; row++ {
				src[row*k+indxr[col]], src[row*k+indxc[col]] = src[row*k+indxc[col]], src[row*k+indxr[col]]
			}
		}
	}
	return nil
}

func rowsEqual(a, b []uint16) bool {
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// invertVDM reconstructs the inverse of a k×k Vandermonde matrix in place in
// O(k²), reading only the second column (the evaluation points p_i, assumed
// distinct). The coefficients of P(x) = prod(x - p_i) feed a synthetic
// division per row; x = -x over GF(2^m) spares the sign juggling.
func (f *field) invertVDM(src matrix, k int) {
	if k == 1 {
		// degenerate case, matrix must be p^0 = 1
		return
	}
	c := make([]uint16, k)
	b := make([]uint16, k)
	p := make([]uint16, k)

	for i, j := 0, 1; i < k; i, j = i+1, j+k {
		p[i] = src[j]
	}
	// Build P(x) one factor at a time, c[k] = 1 staying implicit:
	// P_i = x P_{i-1} - p_i P_{i-1}.
	c[k-1] = p[0]
	for i := 1; i < k; i++ {
		pi := p[i]
		for j := k - i; j < k-1; j++ {
			c[j] ^= f.mul(pi, c[j+1])
		}
		c[k-1] ^= pi
	}

	for row := 0; row < k; row++ {
		xx := p[row]
		t := uint16(1)
		b[k-1] = 1 // this is in fact c[k]
		for i := k - 2; i >= 0; i-- {
			b[i] = c[i+1] ^ f.mul(xx, b[i+1])
			t = f.mul(xx, t) ^ b[i]
		}
		for col := 0; col < k; col++ {
			src[col*k+row] = f.mul(f.inv[t], b[col])
		}
	}
}

// genEncMatrix builds the n×k systematic generator: fill a powers matrix,
// invert its top k×k block in place (the fast Vandermonde way), multiply the
// bottom rows by that inverse and put the identity on top. Starting from an
// MDS matrix and normalizing its top block keeps the MDS property while
// making the code systematic.
func (f *field) genEncMatrix(k, n int) matrix {
	return f.makeSystematic(f.genPowersMatrix(k, n), k, n)
}

// genPowersMatrix fills row r >= 1 with consecutive powers of alpha^(r-1).
// The first row is special, (1, 0, ..., 0), so the top block already matches
// the identity there before inversion.
func (f *field) genPowersMatrix(k, n int) matrix {
	tmp := newMatrix(n, k)
	tmp[0] = 1
	for row := 1; row < n; row++ {
		r := tmp[row*k : row*k+k]
		for col := 0; col < k; col++ {
			r[col] = f.exp[f.modnn(uint64(row-1)*uint64(col))]
		}
	}
	return tmp
}

// genEncMatrixPlank is the alternative construction from Technical Report
// UT-CS-03-504 by James S. Plank, University of Tennessee: row r carries
// powers of log-indexed elements. Also MDS, but it yields a different
// generator; NewGF always uses genEncMatrix.
func (f *field) genEncMatrixPlank(k, n int) matrix {
	tmp := newMatrix(n, k)
	tmp[0] = 1
	for row := 1; row < n; row++ {
		r := tmp[row*k : row*k+k]
		for col := 0; col < k; col++ {
			r[col] = f.exp[f.modnn(uint64(f.log[row])*uint64(col))]
		}
	}
	return f.makeSystematic(tmp, k, n)
}

func (f *field) makeSystematic(tmp matrix, k, n int) matrix {
	f.invertVDM(tmp, k)
	gen := newMatrix(n, k)
	f.matMul(tmp[k*k:], tmp[:k*k], gen[k*k:], n-k, k, k)
	for col := 0; col < k; col++ {
		gen[col*k+col] = 1
	}
	return gen
}
