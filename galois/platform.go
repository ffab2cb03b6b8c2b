package galois

import "github.com/klauspost/cpuid/v2"

// Platform identifies a GF(2^8) slice kernel.
type Platform int

const (
	// Portable is the scalar table-lookup kernel, available everywhere.
	Portable Platform = iota
	// SSE3 is the 16-byte PSHUFB kernel. It requires SSSE3; the name follows
	// the conventional label for this kernel family.
	SSE3
	// AVX2 is the 32-byte VPSHUFB kernel.
	AVX2
	// AVX512 is the 64-byte kernel; it requires AVX512F and AVX512BW.
	AVX512
	// NEON is the 32-byte TBL kernel on aarch64.
	NEON
)

// String implements fmt.Stringer.
func (p Platform) String() string {
	switch p {
	case SSE3:
		return "SSE3"
	case AVX2:
		return "AVX2"
	case AVX512:
		return "AVX512"
	case NEON:
		return "NEON"
	}
	return "Portable"
}

// Width returns the number of input bytes consumed per vector stride. The
// scalar tail handles len mod Width bytes.
func (p Platform) Width() int {
	switch p {
	case SSE3:
		return 16
	case AVX2, NEON:
		return 32
	case AVX512:
		return 64
	}
	return 1
}

var detected = detect()

// Detect returns the best kernel supported by this CPU. The probe runs once
// at process start; the cached result is the package's only global state
// beyond the multiplication tables.
func Detect() Platform { return detected }

func detect() Platform {
	switch {
	case cpuid.CPU.Supports(cpuid.AVX512F, cpuid.AVX512BW):
		return AVX512
	case cpuid.CPU.Supports(cpuid.AVX2):
		return AVX2
	case cpuid.CPU.Supports(cpuid.SSSE3):
		return SSE3
	case cpuid.CPU.Supports(cpuid.ASIMD):
		return NEON
	}
	return Portable
}

// Select returns the best kernel that is both supported by the CPU and
// permitted by the caller. A false flag suppresses that kernel class,
// demoting to the next one down.
func Select(allowSSSE3, allowAVX2, allowAVX512, allowNEON bool) Platform {
	p := Detect()
	if p == AVX512 && !allowAVX512 {
		p = AVX2
	}
	if p == AVX2 && !allowAVX2 {
		p = SSE3
	}
	if p == SSE3 && !allowSSSE3 {
		p = Portable
	}
	if p == NEON && !allowNEON {
		p = Portable
	}
	return p
}
