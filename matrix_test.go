package erasure

import (
	"testing"

	"lukechampine.com/frand"

	"lukechampine.com/erasure/galois"
)

func TestMatrixIdentity(t *testing.T) {
	m, err := identityMatrix(3)
	if err != nil {
		t.Fatal(err)
	}
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			expect := uint16(0)
			if r == c {
				expect = 1
			}
			if m[r][c] != expect {
				t.Fatalf("identity[%d][%d] = %d", r, c, m[r][c])
			}
		}
	}
}

func TestMatrixMultiply(t *testing.T) {
	f := galois.NewGF8()
	a := matrix{{1, 2}, {3, 4}}
	b := matrix{{5, 6}, {7, 8}}
	prod, err := a.Multiply(f, b)
	if err != nil {
		t.Fatal(err)
	}
	expect := matrix{{11, 22}, {19, 42}}
	for r := range expect {
		for c := range expect[r] {
			if prod[r][c] != expect[r][c] {
				t.Fatalf("product[%d][%d] = %d, expected %d", r, c, prod[r][c], expect[r][c])
			}
		}
	}

	if _, err := a.Multiply(f, matrix{{1, 2}}); err == nil {
		t.Fatal("expected shape error")
	}
}

func TestMatrixInvert(t *testing.T) {
	f8 := galois.NewGF8()
	m := matrix{
		{56, 23, 98},
		{3, 100, 200},
		{45, 201, 123},
	}
	inv, err := m.Invert(f8)
	if err != nil {
		t.Fatal(err)
	}
	prod, err := m.Multiply(f8, inv)
	if err != nil {
		t.Fatal(err)
	}
	identity, _ := identityMatrix(3)
	for r := range identity {
		for c := range identity[r] {
			if prod[r][c] != identity[r][c] {
				t.Fatalf("m * m^-1 not identity at [%d][%d]: %d", r, c, prod[r][c])
			}
		}
	}

	// Vandermonde squares are invertible over both fields.
	for _, f := range []galois.Field{f8, galois.GF16{}} {
		vm, _ := vandermonde(f, 4, 4)
		inv, err := vm.Invert(f)
		if err != nil {
			t.Fatal(err)
		}
		prod, err := vm.Multiply(f, inv)
		if err != nil {
			t.Fatal(err)
		}
		identity, _ := identityMatrix(4)
		for r := range identity {
			for c := range identity[r] {
				if prod[r][c] != identity[r][c] {
					t.Fatalf("vm * vm^-1 not identity at [%d][%d]: %d", r, c, prod[r][c])
				}
			}
		}
	}
}

func TestMatrixInvertSingular(t *testing.T) {
	f := galois.NewGF8()
	m := matrix{
		{4, 2},
		{12, 6},
	}
	if _, err := m.Invert(f); err != ErrSingularMatrix {
		t.Fatalf("expected ErrSingularMatrix, got %v", err)
	}

	if _, err := (matrix{{1, 2}}).Invert(f); err != errNotSquare {
		t.Fatalf("expected errNotSquare, got %v", err)
	}
}

func TestMatrixVandermonde(t *testing.T) {
	f := galois.NewGF8()
	vm, err := vandermonde(f, 5, 3)
	if err != nil {
		t.Fatal(err)
	}
	for r := 0; r < 5; r++ {
		for c := 0; c < 3; c++ {
			if vm[r][c] != f.Exp(uint16(r), c) {
				t.Fatalf("vandermonde[%d][%d] = %d", r, c, vm[r][c])
			}
		}
	}
	// Any square subset of rows must be invertible.
	for i := 0; i < 10; i++ {
		perm := frand.Perm(5)[:3]
		sub, _ := newMatrix(3, 3)
		for r, src := range perm {
			copy(sub[r], vm[src])
		}
		if _, err := sub.Invert(f); err != nil {
			t.Fatalf("vandermonde rows %v not invertible: %v", perm, err)
		}
	}
}

func TestMatrixAugmentSubMatrix(t *testing.T) {
	a := matrix{{1, 2}, {3, 4}}
	b := matrix{{5}, {6}}
	aug, err := a.Augment(b)
	if err != nil {
		t.Fatal(err)
	}
	if len(aug[0]) != 3 || aug[0][2] != 5 || aug[1][2] != 6 {
		t.Fatalf("bad augment: %v", aug)
	}
	sub, err := aug.SubMatrix(0, 1, 2, 3)
	if err != nil {
		t.Fatal(err)
	}
	if sub[0][0] != 2 || sub[0][1] != 5 || sub[1][0] != 4 || sub[1][1] != 6 {
		t.Fatalf("bad submatrix: %v", sub)
	}

	if _, err := a.Augment(matrix{{1}}); err != errMatrixSize {
		t.Fatalf("expected errMatrixSize, got %v", err)
	}
}

func TestMatrixSwapRows(t *testing.T) {
	m := matrix{{1}, {2}}
	if err := m.SwapRows(0, 1); err != nil {
		t.Fatal(err)
	}
	if m[0][0] != 2 || m[1][0] != 1 {
		t.Fatalf("rows not swapped: %v", m)
	}
	if err := m.SwapRows(0, 2); err == nil {
		t.Fatal("expected error for out-of-range row")
	}
}

func TestNewMatrixErrors(t *testing.T) {
	if _, err := newMatrix(0, 1); err != errInvalidRowSize {
		t.Fatalf("expected errInvalidRowSize, got %v", err)
	}
	if _, err := newMatrix(1, 0); err != errInvalidColSize {
		t.Fatalf("expected errInvalidColSize, got %v", err)
	}
}
