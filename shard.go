package erasure

// A ReconstructShard is a slot that may or may not hold a shard. It is the
// form taken by reconstruction, where some of the shards are unknown and
// must be allocated before they can be rebuilt.
type ReconstructShard interface {
	// Len returns the shard length and whether the shard is present.
	Len() (int, bool)

	// Data returns the shard contents, or nil if the shard is missing.
	Data() []byte

	// GetOrInitialize returns the shard contents, initializing a missing
	// shard to a zero-filled buffer of the given size. existed reports
	// whether the slot already held a shard before the call. If a
	// pre-existing buffer has the wrong length, ErrShardSize is returned.
	GetOrInitialize(size int) (buf []byte, existed bool, err error)
}

// optionShard treats a nil or empty slice as missing, reusing spare
// capacity when possible. This is the shard form taken by Reconstruct.
type optionShard struct {
	s *[]byte
}

// OptionShards adapts shards for ReconstructShards; a nil or empty slice
// marks a missing shard. Reconstructed shards are written back through the
// original slice headers.
func OptionShards(shards [][]byte) []ReconstructShard {
	rs := make([]ReconstructShard, len(shards))
	for i := range shards {
		rs[i] = optionShard{&shards[i]}
	}
	return rs
}

func (o optionShard) Len() (int, bool) {
	if len(*o.s) == 0 {
		return 0, false
	}
	return len(*o.s), true
}

func (o optionShard) Data() []byte {
	if len(*o.s) == 0 {
		return nil
	}
	return *o.s
}

func (o optionShard) GetOrInitialize(size int) ([]byte, bool, error) {
	if len(*o.s) != 0 {
		if len(*o.s) != size {
			return nil, true, ErrShardSize
		}
		return *o.s, true, nil
	}
	if cap(*o.s) >= size {
		buf := (*o.s)[:size]
		for i := range buf {
			buf[i] = 0
		}
		*o.s = buf
	} else {
		*o.s = make([]byte, size)
	}
	return *o.s, false, nil
}

// flaggedShard pairs a buffer with a validity flag, for callers that keep
// shard memory allocated across operations. A successful GetOrInitialize on
// a missing slot raises the flag.
type flaggedShard struct {
	s       *[]byte
	present *bool
}

// FlaggedShards adapts shards paired with per-shard present flags for
// ReconstructShards. Returns ErrInvalidShardFlags unless the two slices
// have equal length.
func FlaggedShards(shards [][]byte, present []bool) ([]ReconstructShard, error) {
	if len(present) != len(shards) {
		return nil, ErrInvalidShardFlags
	}
	rs := make([]ReconstructShard, len(shards))
	for i := range shards {
		rs[i] = flaggedShard{&shards[i], &present[i]}
	}
	return rs, nil
}

func (f flaggedShard) Len() (int, bool) {
	if !*f.present {
		return 0, false
	}
	return len(*f.s), true
}

func (f flaggedShard) Data() []byte {
	if !*f.present {
		return nil
	}
	return *f.s
}

func (f flaggedShard) GetOrInitialize(size int) ([]byte, bool, error) {
	if *f.present {
		if len(*f.s) != size {
			return nil, true, ErrShardSize
		}
		return *f.s, true, nil
	}
	buf := *f.s
	switch {
	case len(buf) == size:
		for i := range buf {
			buf[i] = 0
		}
	case len(buf) != 0:
		return nil, false, ErrShardSize
	case cap(buf) >= size:
		buf = buf[:size]
		for i := range buf {
			buf[i] = 0
		}
	default:
		buf = make([]byte, size)
	}
	*f.s = buf
	*f.present = true
	return buf, false, nil
}
