// Package erasure implements Reed-Solomon erasure coding over GF(2^8) and
// GF(2^16).
//
// A Codec splits responsibility with its caller: the caller owns the shard
// buffers and decides which shards are missing; the Codec performs the
// field arithmetic that computes parity from data and rebuilds missing
// shards from any sufficient subset of survivors. Corruption is not
// detected; callers supply their own integrity checks and mark corrupted
// shards as missing.
package erasure

import (
	"bytes"
	"io"
	"sync"

	"github.com/pkg/errors"

	"lukechampine.com/erasure/galois"
)

// A Codec encodes and reconstructs shards for a specific distribution of
// data and parity shards. Construct with New. A Codec is immutable apart
// from its decode-matrix cache and is safe for concurrent use.
type Codec struct {
	DataShards   int // Number of data shards, should not be modified.
	ParityShards int // Number of parity shards, should not be modified.
	Shards       int // Total number of shards. Calculated, and should not be modified.

	f      galois.Field
	m      matrix
	tree   *inversionTree
	parity [][]uint16
	o      options
}

// ErrInvShardNum will be returned by New, if you attempt to create a Codec
// where either data or parity shards is zero or less.
var ErrInvShardNum = errors.New("cannot create Codec with zero or less data/parity shards")

// ErrMaxShardNum will be returned by New, if you attempt to create a Codec
// where data and parity shards together exceed the order of the field.
var ErrMaxShardNum = errors.New("cannot create Codec with more data+parity shards than the field order")

// buildMatrix creates the matrix to use for encoding, given the number of
// data shards and the number of total shards.
//
// The top square of the matrix is guaranteed to be an identity matrix,
// which means that the data shards are unchanged after encoding.
func buildMatrix(f galois.Field, dataShards, totalShards int) (matrix, error) {
	// Start with a Vandermonde matrix. This matrix would work, in theory,
	// but doesn't have the property that the data shards are unchanged
	// after encoding.
	vm, err := vandermonde(f, totalShards, dataShards)
	if err != nil {
		return nil, err
	}

	// Multiply by the inverse of the top square of the matrix. This will
	// make the top square be the identity matrix, but preserve the property
	// that any square subset of rows is invertible.
	top, err := vm.SubMatrix(0, 0, dataShards, dataShards)
	if err != nil {
		return nil, err
	}

	topInv, err := top.Invert(f)
	if err != nil {
		return nil, err
	}

	return vm.Multiply(f, topInv)
}

// New creates a new Codec and initializes it to the number of data shards
// and parity shards that you want to use. You can reuse this Codec.
// The maximum number of total shards is the order of the field: 256 for the
// default GF(2^8), 65536 for GF(2^16). If no options are supplied, default
// options are used.
func New(dataShards, parityShards int, opts ...Option) (*Codec, error) {
	o := defaultOptions
	for _, opt := range opts {
		opt(&o)
	}
	f := o.fieldOrDefault()

	if dataShards <= 0 {
		return nil, ErrInvShardNum
	}
	if dataShards+parityShards > f.Order() {
		return nil, ErrMaxShardNum
	}
	if parityShards <= 0 {
		return nil, ErrInvShardNum
	}

	r := &Codec{
		DataShards:   dataShards,
		ParityShards: parityShards,
		Shards:       dataShards + parityShards,
		f:            f,
		o:            o,
	}

	var err error
	r.m, err = buildMatrix(f, dataShards, r.Shards)
	if err != nil {
		return nil, err
	}

	// Inverted matrices are cached in a tree keyed by the indices of the
	// invalid rows observed during reconstruction. The root node holds the
	// identity matrix because it implies there are no errors with the
	// original data.
	if o.inversionCache {
		r.tree = newInversionTree(dataShards, parityShards)
	}

	r.parity = make([][]uint16, parityShards)
	for i := range r.parity {
		r.parity[i] = r.m[dataShards+i]
	}

	return r, nil
}

// Field returns the finite field this Codec encodes over.
func (r *Codec) Field() galois.Field { return r.f }

// ErrTooFewShards is returned if too few shards were given to
// Encode/Verify/Reconstruct/Update. It will also be returned from
// Reconstruct if there were too few shards to reconstruct the missing data.
var ErrTooFewShards = errors.New("too few shards given")

// Encode computes parity for a set of data shards.
// An array 'shards' containing data shards followed by parity shards.
// The number of shards must match the number given to New.
// Each shard is a byte array, and they must all be the same size.
// The parity shards will always be overwritten and the data shards
// will remain the same.
func (r *Codec) Encode(shards [][]byte) error {
	if len(shards) != r.Shards {
		return ErrTooFewShards
	}

	if err := r.checkShards(shards, false); err != nil {
		return err
	}

	// Get the slice of output buffers.
	output := shards[r.DataShards:]

	// Do the coding.
	r.codeSomeShardsP(r.parity, shards[:r.DataShards], output, r.ParityShards, len(shards[0]))
	return nil
}

// Verify returns true if the parity shards contain the right data.
// The data is the same format as Encode. No data is modified.
func (r *Codec) Verify(shards [][]byte) (bool, error) {
	if len(shards) != r.Shards {
		return false, ErrTooFewShards
	}
	if err := r.checkShards(shards, false); err != nil {
		return false, err
	}

	// Slice of buffers being checked.
	toCheck := shards[r.DataShards:]

	// Do the checking.
	return r.checkSomeShards(r.parity, shards[:r.DataShards], toCheck, r.ParityShards, len(shards[0])), nil
}

// codeSomeShards multiplies a subset of rows from a coding matrix by a full
// set of input shards to produce some output shards.
// 'matrixRows' is the rows from the matrix to use.
// 'inputs' An array of byte arrays, each of which is one input shard.
// The number of inputs used is determined by the length of each matrix row.
// outputs Byte arrays where the computed shards are stored.
// The number of outputs computed, and the number of matrix rows used, is
// determined by outputCount.
func (r *Codec) codeSomeShards(matrixRows [][]uint16, inputs, outputs [][]byte, outputCount, byteCount int) {
	for c := 0; c < r.DataShards; c++ {
		in := inputs[c]
		for iRow := 0; iRow < outputCount; iRow++ {
			if c == 0 {
				r.f.MulSlice(matrixRows[iRow][c], in, outputs[iRow])
			} else {
				r.f.MulSliceXor(matrixRows[iRow][c], in, outputs[iRow])
			}
		}
	}
}

// codeSomeShardsP performs the same as codeSomeShards, but splits the
// workload into several goroutines. Split points are rounded to 32 bytes so
// that no field element straddles two ranges.
func (r *Codec) codeSomeShardsP(matrixRows [][]uint16, inputs, outputs [][]byte, outputCount, byteCount int) {
	if r.o.maxGoroutines <= 1 || byteCount < r.o.minSplitSize {
		r.codeSomeShards(matrixRows, inputs, outputs, outputCount, byteCount)
		return
	}
	var wg sync.WaitGroup
	do := byteCount / r.o.maxGoroutines
	if do < r.o.minSplitSize {
		do = r.o.minSplitSize
	}
	// Make sizes divisible by 32
	do = (do + 31) & (^31)
	start := 0
	for start < byteCount {
		if start+do > byteCount {
			do = byteCount - start
		}
		wg.Add(1)
		go func(start, stop int) {
			for c := 0; c < r.DataShards; c++ {
				in := inputs[c][start:stop]
				for iRow := 0; iRow < outputCount; iRow++ {
					if c == 0 {
						r.f.MulSlice(matrixRows[iRow][c], in, outputs[iRow][start:stop])
					} else {
						r.f.MulSliceXor(matrixRows[iRow][c], in, outputs[iRow][start:stop])
					}
				}
			}
			wg.Done()
		}(start, start+do)
		start += do
	}
	wg.Wait()
}

// checkSomeShards is mostly the same as codeSomeShards, except this will
// check values and return as soon as a difference is found.
func (r *Codec) checkSomeShards(matrixRows [][]uint16, inputs, toCheck [][]byte, outputCount, byteCount int) bool {
	if r.o.maxGoroutines > 1 && byteCount > r.o.minSplitSize {
		return r.checkSomeShardsP(matrixRows, inputs, toCheck, outputCount, byteCount)
	}
	outputs := make([][]byte, len(toCheck))
	for i := range outputs {
		outputs[i] = make([]byte, byteCount)
	}
	for c := 0; c < r.DataShards; c++ {
		in := inputs[c]
		for iRow := 0; iRow < outputCount; iRow++ {
			r.f.MulSliceXor(matrixRows[iRow][c], in, outputs[iRow])
		}
	}

	for i, calc := range outputs {
		if !bytes.Equal(calc, toCheck[i]) {
			return false
		}
	}
	return true
}

func (r *Codec) checkSomeShardsP(matrixRows [][]uint16, inputs, toCheck [][]byte, outputCount, byteCount int) bool {
	same := true
	var mu sync.RWMutex // For above

	var wg sync.WaitGroup
	do := byteCount / r.o.maxGoroutines
	if do < r.o.minSplitSize {
		do = r.o.minSplitSize
	}
	// Make sizes divisible by 32
	do = (do + 31) & (^31)
	start := 0
	for start < byteCount {
		if start+do > byteCount {
			do = byteCount - start
		}
		wg.Add(1)
		go func(start, do int) {
			defer wg.Done()
			outputs := make([][]byte, len(toCheck))
			for i := range outputs {
				outputs[i] = make([]byte, do)
			}
			for c := 0; c < r.DataShards; c++ {
				mu.RLock()
				if !same {
					mu.RUnlock()
					return
				}
				mu.RUnlock()
				in := inputs[c][start : start+do]
				for iRow := 0; iRow < outputCount; iRow++ {
					r.f.MulSliceXor(matrixRows[iRow][c], in, outputs[iRow])
				}
			}

			for i, calc := range outputs {
				if !bytes.Equal(calc, toCheck[i][start:start+do]) {
					mu.Lock()
					same = false
					mu.Unlock()
					return
				}
			}
		}(start, do)
		start += do
	}
	wg.Wait()
	return same
}

// ErrShardNoData will be returned if there are no shards, or if the length
// of all shards is zero.
var ErrShardNoData = errors.New("no shard data")

// ErrShardSize is returned if shard length isn't the same for all shards,
// or is not a multiple of the field's element size.
var ErrShardSize = errors.New("shard sizes do not match")

// ErrInvalidShardFlags is returned if the number of present flags does not
// match the number of shards.
var ErrInvalidShardFlags = errors.New("number of present flags does not match number of shards")

// checkShards will check if shards are the same size or 0, if allowed.
// An error is returned if this fails. An error is also returned if all
// shards are size 0.
func (r *Codec) checkShards(shards [][]byte, nilok bool) error {
	size := shardSize(shards)
	if size == 0 {
		return ErrShardNoData
	}
	if size%r.f.ElemSize() != 0 {
		return ErrShardSize
	}
	for _, shard := range shards {
		if len(shard) != size {
			if len(shard) != 0 || !nilok {
				return ErrShardSize
			}
		}
	}
	return nil
}

// shardSize return the size of a single shard.
// The first non-zero size is returned, or 0 if all shards are size 0.
func shardSize(shards [][]byte) int {
	for _, shard := range shards {
		if len(shard) != 0 {
			return len(shard)
		}
	}
	return 0
}

// Reconstruct will recreate the missing shards, if possible.
//
// Given a list of shards, some of which contain data, fills in the ones
// that don't have data.
//
// The length of the array must be equal to Shards.
// You indicate that a shard is missing by setting it to nil or zero-length.
// If a shard is zero-length but has sufficient capacity, that memory will
// be used, otherwise a new []byte will be allocated.
//
// If there are too few shards to reconstruct the missing ones,
// ErrTooFewShards will be returned.
//
// The reconstructed shard set is complete, but integrity is not verified.
// Use the Verify function to check if data set is ok.
func (r *Codec) Reconstruct(shards [][]byte) error {
	return r.reconstruct(OptionShards(shards), false)
}

// ReconstructData will recreate any missing data shards, if possible.
//
// The shard format is the same as Reconstruct. As the reconstructed shard
// set may contain missing parity shards, calling the Verify function is
// likely to fail.
func (r *Codec) ReconstructData(shards [][]byte) error {
	return r.reconstruct(OptionShards(shards), true)
}

// ReconstructFlagged recreates missing shards, with missing shards
// indicated by a false entry in present rather than by a nil slice.
// Reconstructed shards have their present flag raised. present must have
// one flag per shard; ErrInvalidShardFlags is returned otherwise.
func (r *Codec) ReconstructFlagged(shards [][]byte, present []bool) error {
	rs, err := FlaggedShards(shards, present)
	if err != nil {
		return err
	}
	return r.reconstruct(rs, false)
}

// ReconstructShards recreates missing shards held in any ReconstructShard
// form.
func (r *Codec) ReconstructShards(shards []ReconstructShard) error {
	return r.reconstruct(shards, false)
}

// ReconstructDataShards recreates only the missing data shards held in any
// ReconstructShard form.
func (r *Codec) ReconstructDataShards(shards []ReconstructShard) error {
	return r.reconstruct(shards, true)
}

// reconstruct will recreate the missing data shards, and unless dataOnly is
// true, also the missing parity shards.
func (r *Codec) reconstruct(shards []ReconstructShard, dataOnly bool) error {
	if len(shards) != r.Shards {
		return ErrTooFewShards
	}

	// Check arguments: every present shard must agree on a positive size
	// that is a whole number of field elements.
	size := 0
	numberPresent := 0
	dataPresent := 0
	for i, s := range shards {
		if n, ok := s.Len(); ok {
			if numberPresent == 0 {
				size = n
			}
			if n != size {
				return ErrShardSize
			}
			numberPresent++
			if i < r.DataShards {
				dataPresent++
			}
		}
	}
	if size == 0 {
		return ErrShardNoData
	}
	if size%r.f.ElemSize() != 0 {
		return ErrShardSize
	}

	// Quick check: are all of the shards present (or, if dataOnly, all of
	// the data shards)? If so, there's nothing to do.
	if numberPresent == r.Shards || (dataOnly && dataPresent == r.DataShards) {
		return nil
	}

	// More complete sanity check
	if numberPresent < r.DataShards {
		return ErrTooFewShards
	}

	// Pull out an array holding just the shards that correspond to the
	// rows of the submatrix. These shards will be the input to the
	// decoding process that re-creates the missing data shards.
	//
	// Also, create an array of indices of the valid rows we do have and
	// the invalid rows we don't have, up until we have enough valid rows.
	// Every invalid index below the cutoff influences which rows were
	// chosen, so the invalid list is the cache key for the decode matrix.
	subShards := make([][]byte, r.DataShards)
	validIndices := make([]int, r.DataShards)
	invalidIndices := make([]int, 0, r.ParityShards)
	subMatrixRow := 0
	for matrixRow := 0; matrixRow < r.Shards && subMatrixRow < r.DataShards; matrixRow++ {
		if buf := shards[matrixRow].Data(); buf != nil {
			subShards[subMatrixRow] = buf
			validIndices[subMatrixRow] = matrixRow
			subMatrixRow++
		} else {
			invalidIndices = append(invalidIndices, matrixRow)
		}
	}

	// Attempt to get the cached inverted matrix out of the tree based on
	// the indices of the invalid rows.
	var dataDecodeMatrix matrix
	if r.tree != nil {
		dataDecodeMatrix = r.tree.GetInvertedMatrix(invalidIndices)
	}

	// If the inverted matrix isn't cached in the tree yet we must
	// construct it ourselves and insert it into the tree for the future.
	// In this way the inversion tree is lazily loaded.
	if dataDecodeMatrix == nil {
		// Pull out the rows of the matrix that correspond to the shards
		// that we have and build a square matrix. This matrix could be
		// used to generate the shards that we have from the original data.
		subMatrix, _ := newMatrix(r.DataShards, r.DataShards)
		for subMatrixRow, validIndex := range validIndices {
			for c := 0; c < r.DataShards; c++ {
				subMatrix[subMatrixRow][c] = r.m[validIndex][c]
			}
		}
		// Invert the matrix, so we can go from the encoded shards back to
		// the original data. Then pull out the row that generates the
		// shard that we want to decode. Note that since this matrix maps
		// back to the original data, it can be used to create a data
		// shard, but not a parity shard.
		var err error
		dataDecodeMatrix, err = subMatrix.Invert(r.f)
		if err != nil {
			return err
		}

		// Cache the inverted matrix in the tree for future use. A
		// concurrent reconstruction of the same loss pattern may have won
		// the race; its matrix is identical, so losing is harmless.
		if r.tree != nil {
			err = r.tree.InsertInvertedMatrix(invalidIndices, dataDecodeMatrix, r.Shards)
			if err != nil && err != errAlreadySet {
				return err
			}
		}
	}

	// Re-create any data shards that were missing.
	//
	// The input to the coding is all of the shards we actually have, and
	// the output is the missing data shards. The computation is done using
	// the special decode matrix we just built.
	outputs := make([][]byte, r.ParityShards)
	matrixRows := make([][]uint16, r.ParityShards)
	outputCount := 0

	for iShard := 0; iShard < r.DataShards; iShard++ {
		if _, ok := shards[iShard].Len(); !ok {
			buf, _, err := shards[iShard].GetOrInitialize(size)
			if err != nil {
				return err
			}
			outputs[outputCount] = buf
			matrixRows[outputCount] = dataDecodeMatrix[iShard]
			outputCount++
		}
	}
	r.codeSomeShardsP(matrixRows, subShards, outputs[:outputCount], outputCount, size)

	if dataOnly {
		// Exit out early if we are only interested in the data shards
		return nil
	}

	// Now that we have all of the data shards intact, we can compute any
	// of the parity that is missing.
	//
	// The input to the coding is ALL of the data shards, including any
	// that we just calculated. The output is whichever of the parity
	// shards were missing.
	dataShards := make([][]byte, r.DataShards)
	for i := range dataShards {
		dataShards[i] = shards[i].Data()
	}
	outputCount = 0
	for iShard := r.DataShards; iShard < r.Shards; iShard++ {
		if _, ok := shards[iShard].Len(); !ok {
			buf, _, err := shards[iShard].GetOrInitialize(size)
			if err != nil {
				return err
			}
			outputs[outputCount] = buf
			matrixRows[outputCount] = r.parity[iShard-r.DataShards]
			outputCount++
		}
	}
	r.codeSomeShardsP(matrixRows, dataShards, outputs[:outputCount], outputCount, size)
	return nil
}

// ErrShortData will be returned by Split(), if there isn't enough data to
// fill the number of shards.
var ErrShortData = errors.New("not enough data to fill the number of requested shards")

// Split a data slice into the number of shards given to the Codec, and
// create empty parity shards if necessary.
//
// The data will be split into equally sized shards, sized to a whole number
// of field elements. If the data size isn't divisible by the number of
// shards, the last shard will contain extra zeros.
//
// There must be at least 1 byte otherwise ErrShortData will be returned.
//
// The data is not copied when its capacity can hold all shards; otherwise it
// is copied into a new zero-padded buffer. The shards may share memory with
// the input slice, so you should not modify the data of the input slice
// afterwards.
func (r *Codec) Split(data []byte) ([][]byte, error) {
	if len(data) == 0 {
		return nil, ErrShortData
	}
	// Calculate number of bytes per data shard, rounded up to whole
	// elements.
	perShard := (len(data) + r.DataShards - 1) / r.DataShards
	if es := r.f.ElemSize(); perShard%es != 0 {
		perShard += es - perShard%es
	}

	if cap(data) > len(data) {
		// Spare capacity becomes padding, so it must be zeroed.
		n := len(data)
		data = data[:cap(data)]
		if need := r.Shards * perShard; len(data) > need {
			data = data[:need]
		}
		for i := n; i < len(data); i++ {
			data[i] = 0
		}
	}

	// Only allocate memory if necessary
	if len(data) < (r.Shards * perShard) {
		// Pad data to r.Shards*perShard.
		padding := make([]byte, (r.Shards*perShard)-len(data))
		data = append(data, padding...)
	}

	// Split into equal-length shards.
	dst := make([][]byte, r.Shards)
	for i := range dst {
		dst[i] = data[:perShard]
		data = data[perShard:]
	}

	return dst, nil
}

// ErrReconstructRequired is returned if too few data shards are intact and
// a reconstruction is required before you can successfully join the shards.
var ErrReconstructRequired = errors.New("reconstruction required as one or more required data shards are nil")

// Join the shards and write the data segment to dst.
//
// Only the data shards are considered. You must supply the exact output
// size you want.
//
// If there are to few shards given, ErrTooFewShards will be returned.
// If the total data size is less than outSize, ErrShortData will be
// returned. If one or more required data shards are nil,
// ErrReconstructRequired will be returned.
func (r *Codec) Join(dst io.Writer, shards [][]byte, outSize int) error {
	// Do we have enough shards?
	if len(shards) < r.DataShards {
		return ErrTooFewShards
	}
	shards = shards[:r.DataShards]

	// Do we have enough data?
	size := 0
	for _, shard := range shards {
		if shard == nil {
			return ErrReconstructRequired
		}
		size += len(shard)

		// Do we have enough data already?
		if size >= outSize {
			break
		}
	}
	if size < outSize {
		return ErrShortData
	}

	// Copy data to dst
	write := outSize
	for _, shard := range shards {
		if write < len(shard) {
			_, err := dst.Write(shard[:write])
			return err
		}
		n, err := dst.Write(shard)
		if err != nil {
			return err
		}
		write -= n
	}
	return nil
}
