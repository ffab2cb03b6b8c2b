package galois

import "encoding/binary"

// GF(2^16) is generated by x over x^16 + x^12 + x^3 + x + 1.
const polynomial16 = 0x1100b

var (
	expTable16 []uint16 // two periods, as with expTable8
	logTable16 []uint16
)

func init() {
	expTable16 = make([]uint16, 2*65535)
	logTable16 = make([]uint16, 65536)
	x := 1
	for i := 0; i < 65535; i++ {
		expTable16[i] = uint16(x)
		expTable16[i+65535] = uint16(x)
		logTable16[x] = uint16(i)
		x <<= 1
		if x&0x10000 != 0 {
			x ^= polynomial16
		}
	}
}

func mul16(a, b uint16) uint16 {
	if a == 0 || b == 0 {
		return 0
	}
	return expTable16[int(logTable16[a])+int(logTable16[b])]
}

// GF16 is GF(2^16). Elements occupy two little-endian bytes in shard
// buffers, so shard lengths must be even. Slice operations use the log/exp
// tables directly; there is no vector kernel for this field.
type GF16 struct{}

// Order implements Field.
func (GF16) Order() int { return 65536 }

// ElemSize implements Field.
func (GF16) ElemSize() int { return 2 }

// Add implements Field.
func (GF16) Add(a, b uint16) uint16 { return a ^ b }

// Mul implements Field.
func (GF16) Mul(a, b uint16) uint16 { return mul16(a, b) }

// Div implements Field.
func (GF16) Div(a, b uint16) uint16 {
	if b == 0 {
		panic("galois: division by zero")
	}
	if a == 0 {
		return 0
	}
	return expTable16[int(logTable16[a])-int(logTable16[b])+65535]
}

// Exp implements Field.
func (GF16) Exp(a uint16, n int) uint16 {
	if n == 0 {
		return 1
	}
	if a == 0 {
		return 0
	}
	logResult := uint64(logTable16[a]) * uint64(n) % 65535
	return expTable16[logResult]
}

// Nth implements Field.
func (GF16) Nth(n int) uint16 {
	if n < 0 || n >= 65536 {
		panic("galois: element index out of range for GF(2^16)")
	}
	return uint16(n)
}

// MulSlice implements Field.
func (GF16) MulSlice(c uint16, in, out []byte) {
	assertLen(in, out, 2)
	switch c {
	case 0:
		for i := range out {
			out[i] = 0
		}
		return
	case 1:
		copy(out, in)
		return
	}
	logC := int(logTable16[c])
	for i := 0; i < len(in); i += 2 {
		a := binary.LittleEndian.Uint16(in[i:])
		if a == 0 {
			binary.LittleEndian.PutUint16(out[i:], 0)
			continue
		}
		binary.LittleEndian.PutUint16(out[i:], expTable16[logC+int(logTable16[a])])
	}
}

// MulSliceXor implements Field.
func (GF16) MulSliceXor(c uint16, in, out []byte) {
	assertLen(in, out, 2)
	switch c {
	case 0:
		return
	case 1:
		xorSlice(in, out)
		return
	}
	logC := int(logTable16[c])
	for i := 0; i < len(in); i += 2 {
		a := binary.LittleEndian.Uint16(in[i:])
		if a == 0 {
			continue
		}
		v := expTable16[logC+int(logTable16[a])]
		binary.LittleEndian.PutUint16(out[i:], binary.LittleEndian.Uint16(out[i:])^v)
	}
}
