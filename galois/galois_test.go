package galois

import (
	"testing"

	"lukechampine.com/frand"
)

func fields() []Field {
	return []Field{NewGF8(), GF16{}}
}

func TestKnownProducts(t *testing.T) {
	f8 := NewGF8()
	if got := f8.Mul(3, 4); got != 12 {
		t.Errorf("3*4 = %d, expected 12", got)
	}
	if got := f8.Mul(7, 7); got != 21 {
		t.Errorf("7*7 = %d, expected 21", got)
	}
	// 2*128 wraps the polynomial: 0x100 reduces to 0x1d.
	if got := f8.Mul(2, 128); got != 0x1d {
		t.Errorf("2*128 = %#x, expected 0x1d", got)
	}
	if got := f8.Exp(2, 8); got != 0x1d {
		t.Errorf("2^8 = %#x, expected 0x1d", got)
	}

	f16 := GF16{}
	if got := f16.Mul(2, 0x8000); got != 0x100b {
		t.Errorf("2*0x8000 = %#x, expected 0x100b", got)
	}
	if got := f16.Exp(2, 16); got != 0x100b {
		t.Errorf("2^16 = %#x, expected 0x100b", got)
	}
}

func TestFieldLaws(t *testing.T) {
	for _, f := range fields() {
		mask := uint16(f.Order() - 1)
		for i := 0; i < 1000; i++ {
			a := uint16(frand.Intn(f.Order())) & mask
			b := uint16(frand.Intn(f.Order())) & mask
			c := uint16(frand.Intn(f.Order())) & mask

			if f.Add(a, b) != f.Add(b, a) {
				t.Fatalf("add not commutative: %d %d", a, b)
			}
			if f.Mul(a, b) != f.Mul(b, a) {
				t.Fatalf("mul not commutative: %d %d", a, b)
			}
			if f.Add(f.Add(a, b), c) != f.Add(a, f.Add(b, c)) {
				t.Fatalf("add not associative: %d %d %d", a, b, c)
			}
			if f.Mul(f.Mul(a, b), c) != f.Mul(a, f.Mul(b, c)) {
				t.Fatalf("mul not associative: %d %d %d", a, b, c)
			}
			if f.Mul(a, f.Add(b, c)) != f.Add(f.Mul(a, b), f.Mul(a, c)) {
				t.Fatalf("mul does not distribute: %d %d %d", a, b, c)
			}
			// Characteristic two.
			if f.Add(a, a) != 0 {
				t.Fatalf("a+a != 0: %d", a)
			}
			if f.Mul(a, 1) != a {
				t.Fatalf("a*1 != a: %d", a)
			}
			if b != 0 {
				inv := f.Div(1, b)
				if f.Mul(b, inv) != 1 {
					t.Fatalf("b*b^-1 != 1: %d", b)
				}
				if f.Mul(f.Div(a, b), b) != a {
					t.Fatalf("(a/b)*b != a: %d %d", a, b)
				}
			}
		}
	}
}

func TestExp(t *testing.T) {
	for _, f := range fields() {
		for i := 0; i < 100; i++ {
			a := uint16(frand.Intn(f.Order()))
			if f.Exp(a, 0) != 1 {
				t.Fatalf("a^0 != 1: %d", a)
			}
			if f.Exp(a, 1) != a {
				t.Fatalf("a^1 != a: %d", a)
			}
			// a^(n+1) = a^n * a
			n := frand.Intn(1000) + 1
			if f.Exp(a, n+1) != f.Mul(f.Exp(a, n), a) {
				t.Fatalf("a^(n+1) != a^n * a: a=%d n=%d", a, n)
			}
		}
		if f.Exp(0, 5) != 0 {
			t.Fatal("0^5 != 0")
		}
	}
}

func TestNth(t *testing.T) {
	for _, f := range fields() {
		seen := make(map[uint16]bool)
		// nth must be unique over a sample of the enumeration.
		for i := 0; i < 256; i++ {
			e := f.Nth(i)
			if seen[e] {
				t.Fatalf("Nth(%d) not unique", i)
			}
			seen[e] = true
		}
	}
}

func TestNthPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for out-of-range element")
		}
	}()
	NewGF8().Nth(256)
}

func TestDivByZeroPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for division by zero")
		}
	}()
	GF16{}.Div(5, 0)
}

func TestLogExpRoundTrip(t *testing.T) {
	// Multiplication via tables must agree with carry-less "schoolbook"
	// multiplication reduced by the polynomial.
	slowMul := func(a, b, poly, carry int) uint16 {
		var prod int
		for b > 0 {
			if b&1 != 0 {
				prod ^= a
			}
			a <<= 1
			if a&carry != 0 {
				a ^= poly
			}
			b >>= 1
		}
		return uint16(prod)
	}
	f8 := NewGF8()
	for i := 0; i < 5000; i++ {
		a, b := frand.Intn(256), frand.Intn(256)
		if f8.Mul(uint16(a), uint16(b)) != slowMul(a, b, polynomial8, 0x100) {
			t.Fatalf("GF8 mul mismatch: %d * %d", a, b)
		}
	}
	f16 := GF16{}
	for i := 0; i < 5000; i++ {
		a, b := frand.Intn(65536), frand.Intn(65536)
		if f16.Mul(uint16(a), uint16(b)) != slowMul(a, b, polynomial16, 0x10000) {
			t.Fatalf("GF16 mul mismatch: %d * %d", a, b)
		}
	}
}
