package erasure

import "github.com/pkg/errors"

// ErrInvalidIndex is returned when a shard index is out of range for the
// Codec.
var ErrInvalidIndex = errors.New("shard index out of range")

// ErrLeftoverShards is returned by Parity when not every data shard has
// been provided since the last reset.
var ErrLeftoverShards = errors.New("not all data shards have been provided")

// A ShardByShard incrementally folds data shards into the parity shards as
// they become available, in any order. After every data shard has been
// provided exactly once, the parity shards are byte-identical to the output
// of a single Encode call.
//
// The parity buffers must be zeroed before the first Update of each cycle;
// Reset does this. A ShardByShard is not safe for concurrent use.
type ShardByShard struct {
	r       *Codec
	present []bool
	count   int
}

// NewShardByShard creates an incremental encoder backed by the given Codec.
func NewShardByShard(r *Codec) *ShardByShard {
	return &ShardByShard{
		r:       r,
		present: make([]bool, r.DataShards),
	}
}

// Update folds data shard i into the parity shards. shards must hold all
// data and parity buffers, of identical size.
//
// Updating an index that was already provided cannot be expressed as a
// delta, so the parity of every provided shard is recomputed from scratch
// using the current contents of the caller's buffers.
func (s *ShardByShard) Update(i int, shards [][]byte) error {
	if i < 0 || i >= s.r.DataShards {
		return ErrInvalidIndex
	}
	if len(shards) != s.r.Shards {
		return ErrTooFewShards
	}
	if err := s.r.checkShards(shards, false); err != nil {
		return err
	}
	if s.present[i] {
		s.recompute(shards)
		return nil
	}
	s.fold(i, shards)
	s.present[i] = true
	s.count++
	return nil
}

// fold adds shard i's contribution to every parity shard.
func (s *ShardByShard) fold(i int, shards [][]byte) {
	in := shards[i]
	for p := 0; p < s.r.ParityShards; p++ {
		s.r.f.MulSliceXor(s.r.parity[p][i], in, shards[s.r.DataShards+p])
	}
}

// recompute rebuilds the parity of the whole provided set from scratch.
func (s *ShardByShard) recompute(shards [][]byte) {
	for p := 0; p < s.r.ParityShards; p++ {
		out := shards[s.r.DataShards+p]
		for j := range out {
			out[j] = 0
		}
	}
	for j, ok := range s.present {
		if ok {
			s.fold(j, shards)
		}
	}
}

// IsParityReady reports whether every data shard has been provided since
// the last reset.
func (s *ShardByShard) IsParityReady() bool {
	return s.count == s.r.DataShards
}

// Parity checks that the incremental cycle is complete and that the shard
// buffers are well formed. It returns ErrLeftoverShards if one or more data
// shards have not been provided yet.
func (s *ShardByShard) Parity(shards [][]byte) error {
	if !s.IsParityReady() {
		return ErrLeftoverShards
	}
	if len(shards) != s.r.Shards {
		return ErrTooFewShards
	}
	return s.r.checkShards(shards, false)
}

// Reset clears the provided-shard set and zeroes the parity buffers,
// preparing for a fresh cycle.
func (s *ShardByShard) Reset(shards [][]byte) error {
	if len(shards) != s.r.Shards {
		return ErrTooFewShards
	}
	for p := s.r.DataShards; p < s.r.Shards; p++ {
		out := shards[p]
		for j := range out {
			out[j] = 0
		}
	}
	s.ResetData()
	return nil
}

// ResetData clears the provided-shard set only. The caller must zero the
// parity buffers before the next Update.
func (s *ShardByShard) ResetData() {
	for i := range s.present {
		s.present[i] = false
	}
	s.count = 0
}
