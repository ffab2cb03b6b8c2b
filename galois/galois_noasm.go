//go:build noasm || (!amd64 && !arm64)
// +build noasm !amd64,!arm64

package galois

func mulSlice8(c byte, in, out []byte, _ Platform) {
	if c == 1 {
		copy(out, in)
		return
	}
	mulSlice8Ref(c, in, out)
}

func mulSlice8Xor(c byte, in, out []byte, _ Platform) {
	if c == 1 {
		xorSlice(in, out)
		return
	}
	mulSlice8RefXor(c, in, out)
}
