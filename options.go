package erasure

import "lukechampine.com/erasure/galois"

// An Option allows to override processing parameters.
type Option func(*options)

type options struct {
	maxGoroutines int
	minSplitSize  int

	useSSSE3  bool
	useAVX2   bool
	useAVX512 bool
	useNEON   bool

	inversionCache bool
	field          galois.Field
}

var defaultOptions = options{
	maxGoroutines:  384,
	minSplitSize:   1024,
	useSSSE3:       true,
	useAVX2:        true,
	useAVX512:      true,
	useNEON:        true,
	inversionCache: true,
}

// fieldOrDefault resolves the field for a new Codec. When no field was
// supplied, GF(2^8) is used with the best kernel that is supported by the
// CPU and permitted by the kernel flags.
func (o *options) fieldOrDefault() galois.Field {
	if o.field != nil {
		return o.field
	}
	return galois.NewGF8On(galois.Select(o.useSSSE3, o.useAVX2, o.useAVX512, o.useNEON))
}

// WithMaxGoroutines is the maximum number of goroutines used for encoding
// and decoding. Jobs are split into this many parts, unless each goroutine
// would have to process less than minSplitSize bytes. If n <= 0, it is
// ignored.
func WithMaxGoroutines(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxGoroutines = n
		}
	}
}

// WithMinSplitSize is the minimum encoding size in bytes per goroutine.
// See WithMaxGoroutines on how jobs are split. If n <= 0, it is ignored.
func WithMinSplitSize(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.minSplitSize = n
		}
	}
}

// WithSSSE3 allows to enable/disable the SSSE3 kernel. If not set, the
// kernel is chosen from CPU ID information.
func WithSSSE3(enabled bool) Option {
	return func(o *options) {
		o.useSSSE3 = enabled
	}
}

// WithAVX2 allows to enable/disable the AVX2 kernel. If not set, the kernel
// is chosen from CPU ID information.
func WithAVX2(enabled bool) Option {
	return func(o *options) {
		o.useAVX2 = enabled
	}
}

// WithAVX512 allows to enable/disable the AVX512 kernel. If not set, the
// kernel is chosen from CPU ID information.
func WithAVX512(enabled bool) Option {
	return func(o *options) {
		o.useAVX512 = enabled
	}
}

// WithNEON allows to enable/disable the NEON kernel. If not set, the kernel
// is chosen from CPU ID information.
func WithNEON(enabled bool) Option {
	return func(o *options) {
		o.useNEON = enabled
	}
}

// WithInversionCache allows to control the caching of decode matrices.
// Enabled by default.
func WithInversionCache(enabled bool) Option {
	return func(o *options) {
		o.inversionCache = enabled
	}
}

// WithField selects the finite field to encode over. The default is GF(2^8);
// pass galois.GF16{} to allow up to 65536 total shards. The kernel flags
// above apply only to the default field.
func WithField(f galois.Field) Option {
	return func(o *options) {
		o.field = f
	}
}
