package erasure

import (
	"github.com/pkg/errors"

	"lukechampine.com/erasure/galois"
)

// matrix is a dense row-major matrix over a finite field. Elements are
// stored as uint16 so the same representation serves both fields. Matrices
// are never resized after creation.
type matrix [][]uint16

// ErrSingularMatrix is returned when a matrix that must be inverted has no
// inverse. A correctly built generator matrix never produces one; seeing
// this error indicates a corrupted Codec.
var ErrSingularMatrix = errors.New("matrix is singular")

var errInvalidRowSize = errors.New("invalid row size")
var errInvalidColSize = errors.New("invalid column size")
var errMatrixSize = errors.New("matrix sizes do not match")
var errNotSquare = errors.New("only square matrices can be inverted")

func newMatrix(rows, cols int) (matrix, error) {
	if rows <= 0 {
		return nil, errInvalidRowSize
	}
	if cols <= 0 {
		return nil, errInvalidColSize
	}
	m := matrix(make([][]uint16, rows))
	for i := range m {
		m[i] = make([]uint16, cols)
	}
	return m, nil
}

// identityMatrix returns an identity matrix of the given size.
func identityMatrix(size int) (matrix, error) {
	m, err := newMatrix(size, size)
	if err != nil {
		return nil, err
	}
	for i := range m {
		m[i][i] = 1
	}
	return m, nil
}

// vandermonde creates a matrix with entry (r, c) set to the r'th field
// element raised to the c'th power. Because the first rows elements of the
// field are pairwise distinct, any square subset of rows is invertible.
func vandermonde(f galois.Field, rows, cols int) (matrix, error) {
	result, err := newMatrix(rows, cols)
	if err != nil {
		return nil, err
	}
	for r, row := range result {
		for c := range row {
			row[c] = f.Exp(f.Nth(r), c)
		}
	}
	return result, nil
}

// Multiply multiplies this matrix (the one on the left) by another matrix
// (the one on the right) and returns a new matrix with the result.
func (m matrix) Multiply(f galois.Field, right matrix) (matrix, error) {
	if len(m[0]) != len(right) {
		return nil, errors.Errorf("columns on left (%d) is different than rows on right (%d)", len(m[0]), len(right))
	}
	result, _ := newMatrix(len(m), len(right[0]))
	for r, row := range result {
		for c := range row {
			var value uint16
			for i := range m[0] {
				value = f.Add(value, f.Mul(m[r][i], right[i][c]))
			}
			row[c] = value
		}
	}
	return result, nil
}

// Augment returns the concatenation of this matrix and the matrix on the
// right.
func (m matrix) Augment(right matrix) (matrix, error) {
	if len(m) != len(right) {
		return nil, errMatrixSize
	}
	result, _ := newMatrix(len(m), len(m[0])+len(right[0]))
	for r, row := range m {
		for c := range row {
			result[r][c] = row[c]
		}
		cols := len(m[0])
		for c := range right[r] {
			result[r][cols+c] = right[r][c]
		}
	}
	return result, nil
}

// SubMatrix returns a part of this matrix. Data is copied.
func (m matrix) SubMatrix(rmin, cmin, rmax, cmax int) (matrix, error) {
	result, err := newMatrix(rmax-rmin, cmax-cmin)
	if err != nil {
		return nil, err
	}
	for r := rmin; r < rmax; r++ {
		for c := cmin; c < cmax; c++ {
			result[r-rmin][c-cmin] = m[r][c]
		}
	}
	return result, nil
}

// SwapRows exchanges two rows in the matrix.
func (m matrix) SwapRows(r1, r2 int) error {
	if r1 < 0 || len(m) <= r1 || r2 < 0 || len(m) <= r2 {
		return errInvalidRowSize
	}
	m[r2], m[r1] = m[r1], m[r2]
	return nil
}

// IsSquare will return true if the matrix is square.
func (m matrix) IsSquare() bool {
	return len(m) == len(m[0])
}

// Invert returns the inverse of this matrix, computed by Gauss-Jordan
// elimination on the matrix augmented with the identity. Returns
// ErrSingularMatrix when the matrix is singular.
func (m matrix) Invert(f galois.Field) (matrix, error) {
	if !m.IsSquare() {
		return nil, errNotSquare
	}
	size := len(m)
	work, err := identityMatrix(size)
	if err != nil {
		return nil, err
	}
	work, err = m.Augment(work)
	if err != nil {
		return nil, err
	}
	if err := work.gaussianElimination(f); err != nil {
		return nil, err
	}
	return work.SubMatrix(0, size, size, size*2)
}

func (m matrix) gaussianElimination(f galois.Field) error {
	rows := len(m)
	columns := len(m[0])
	// Clear out the part below the main diagonal and scale the main
	// diagonal to be 1.
	for r := 0; r < rows; r++ {
		// If the element on the diagonal is 0, find a row below
		// that has a non-zero and swap them.
		if m[r][r] == 0 {
			for rowBelow := r + 1; rowBelow < rows; rowBelow++ {
				if m[rowBelow][r] != 0 {
					m.SwapRows(r, rowBelow)
					break
				}
			}
		}
		// If we couldn't find one, the matrix is singular.
		if m[r][r] == 0 {
			return ErrSingularMatrix
		}
		// Scale to 1.
		if m[r][r] != 1 {
			scale := f.Div(1, m[r][r])
			for c := 0; c < columns; c++ {
				m[r][c] = f.Mul(m[r][c], scale)
			}
		}
		// Make everything below the 1 be a 0 by subtracting
		// a multiple of it. (Subtraction and addition are
		// both exclusive or in the Galois field.)
		for rowBelow := r + 1; rowBelow < rows; rowBelow++ {
			if m[rowBelow][r] != 0 {
				scale := m[rowBelow][r]
				for c := 0; c < columns; c++ {
					m[rowBelow][c] = f.Add(m[rowBelow][c], f.Mul(scale, m[r][c]))
				}
			}
		}
	}
	// Now clear the part above the main diagonal.
	for d := 0; d < rows; d++ {
		for rowAbove := 0; rowAbove < d; rowAbove++ {
			if m[rowAbove][d] != 0 {
				scale := m[rowAbove][d]
				for c := 0; c < columns; c++ {
					m[rowAbove][c] = f.Add(m[rowAbove][c], f.Mul(scale, m[d][c]))
				}
			}
		}
	}
	return nil
}
