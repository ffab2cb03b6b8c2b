package erasure

import (
	"sync"

	"github.com/pkg/errors"
)

var errAlreadySet = errors.New("the inverted matrix is already set")
var errNoInvalidIndices = errors.New("no invalid indices given")

// inversionTree caches decode matrices keyed by the ordered list of invalid
// row indices observed while collecting the surviving rows, so that repeated
// reconstruction after the same loss pattern inverts the sub-matrix only
// once. The tree grows monotonically; entries are never evicted.
type inversionTree struct {
	mutex sync.RWMutex
	root  inversionNode
}

// An inversionNode at depth d reached via child index i represents the
// invalid-index list whose d'th element is i; its children cover indices
// greater than i, stored at offsets relative to i+1.
type inversionNode struct {
	matrix   matrix
	children []*inversionNode
}

// newInversionTree initializes a tree for a fixed shard count. The root node
// holds the identity matrix: with no rows missing, decoding is a copy.
func newInversionTree(dataShards, parityShards int) *inversionTree {
	identity, _ := identityMatrix(dataShards)
	return &inversionTree{
		root: inversionNode{
			matrix:   identity,
			children: make([]*inversionNode, dataShards+parityShards),
		},
	}
}

// GetInvertedMatrix returns the cached matrix for the given ordered list of
// invalid indices, or nil if it has not been inserted yet. The returned
// matrix is shared and must not be modified.
func (t *inversionTree) GetInvertedMatrix(invalidIndices []int) matrix {
	if len(invalidIndices) == 0 {
		return t.root.matrix
	}
	t.mutex.RLock()
	defer t.mutex.RUnlock()
	return t.root.getInvertedMatrix(invalidIndices, 0)
}

func (n *inversionNode) getInvertedMatrix(invalidIndices []int, parent int) matrix {
	firstIndex := invalidIndices[0]
	node := n.children[firstIndex-parent]
	if node == nil {
		return nil
	}
	if len(invalidIndices) > 1 {
		return node.getInvertedMatrix(invalidIndices[1:], firstIndex+1)
	}
	return node.matrix
}

// InsertInvertedMatrix installs a decode matrix for the given ordered list
// of invalid indices, creating intermediate nodes as needed. If a matrix is
// already present for that key it is left in place and errAlreadySet is
// returned, so concurrent inserts of the same loss pattern are harmless.
func (t *inversionTree) InsertInvertedMatrix(invalidIndices []int, matrix matrix, shards int) error {
	if len(invalidIndices) == 0 {
		return errNoInvalidIndices
	}
	if !matrix.IsSquare() {
		return errNotSquare
	}
	t.mutex.Lock()
	defer t.mutex.Unlock()
	return t.root.insertInvertedMatrix(invalidIndices, matrix, shards, 0)
}

func (n *inversionNode) insertInvertedMatrix(invalidIndices []int, matrix matrix, shards, parent int) error {
	firstIndex := invalidIndices[0]
	node := n.children[firstIndex-parent]
	if node == nil {
		node = &inversionNode{
			children: make([]*inversionNode, shards-firstIndex-1),
		}
		n.children[firstIndex-parent] = node
	}
	if len(invalidIndices) > 1 {
		return node.insertInvertedMatrix(invalidIndices[1:], matrix, shards, firstIndex+1)
	}
	if node.matrix != nil {
		return errAlreadySet
	}
	node.matrix = matrix
	return nil
}
