//go:build !noasm
// +build !noasm

package galois

//go:noescape
func galMulNEON(low, high, in, out []byte)

//go:noescape
func galMulNEONXor(low, high, in, out []byte)

func mulSlice8(c byte, in, out []byte, p Platform) {
	if c == 1 {
		copy(out, in)
		return
	}
	var done int
	if p == NEON {
		galMulNEON(mulTableLow[c][:], mulTableHigh[c][:], in, out)
		done = len(in) &^ 31
	}
	mulSlice8Ref(c, in[done:], out[done:])
}

func mulSlice8Xor(c byte, in, out []byte, p Platform) {
	if c == 1 {
		xorSlice(in, out)
		return
	}
	var done int
	if p == NEON {
		galMulNEONXor(mulTableLow[c][:], mulTableHigh[c][:], in, out)
		done = len(in) &^ 31
	}
	mulSlice8RefXor(c, in[done:], out[done:])
}
