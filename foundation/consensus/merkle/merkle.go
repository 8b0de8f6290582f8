// Package merkle provides a fixed binary hash tree used to commit to the
// ordered set of transaction nonces carried by a block.
package merkle

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
)

// EmptyRoot returns the canonical root for a tree with no leaves. Two nodes
// proposing or validating an empty block must agree on this value.
func EmptyRoot() string {
	hash := sha256.Sum256(nil)
	return hex.EncodeToString(hash[:])
}

// =============================================================================

// Tree represents a binary hash tree over an ordered list of byte strings.
// Leaves are the sha256 digest of each input and interior nodes are the
// digest of the concatenation of their children. A level with an odd node
// count pairs its last node with itself.
type Tree struct {
	Root  *Node
	Leafs []*Node
	root  []byte
}

// Node represents a leaf or interior node in the tree.
type Node struct {
	Parent *Node
	Left   *Node
	Right  *Node
	Hash   []byte
	Value  []byte
	leaf   bool
	dup    bool
}

// NewTree constructs a tree over the ordered inputs. An empty input set is
// valid and produces the canonical empty root.
func NewTree(values [][]byte) *Tree {
	var t Tree

	if len(values) == 0 {
		hash := sha256.Sum256(nil)
		t.root = hash[:]
		return &t
	}

	var leafs []*Node
	for _, value := range values {
		hash := sha256.Sum256(value)
		leafs = append(leafs, &Node{
			Hash:  hash[:],
			Value: value,
			leaf:  true,
		})
	}

	if len(leafs)%2 == 1 {
		last := leafs[len(leafs)-1]
		leafs = append(leafs, &Node{
			Hash:  last.Hash,
			Value: last.Value,
			leaf:  true,
			dup:   true,
		})
	}

	root := buildIntermediate(leafs)

	t.Root = root
	t.Leafs = leafs
	t.root = root.Hash

	return &t
}

// NewTreeStrings constructs a tree over the ordered string inputs. This is
// the form used for transaction nonces.
func NewTreeStrings(values []string) *Tree {
	data := make([][]byte, len(values))
	for i, v := range values {
		data[i] = []byte(v)
	}

	return NewTree(data)
}

// RootHex returns the hex encoded root digest of the tree.
func (t *Tree) RootHex() string {
	return hex.EncodeToString(t.root)
}

// Proof returns the sibling hashes and concatenation order needed to prove a
// value is committed to by the root. Order 0 means the proof hash is
// concatenated first, order 1 second.
func (t *Tree) Proof(value []byte) ([][]byte, []int64, error) {
	for _, node := range t.Leafs {
		if node.dup || !bytes.Equal(node.Value, value) {
			continue
		}

		var proof [][]byte
		var order []int64

		parent := node.Parent
		for parent != nil {
			if bytes.Equal(parent.Left.Hash, node.Hash) {
				proof = append(proof, parent.Right.Hash)
				order = append(order, 1)
			} else {
				proof = append(proof, parent.Left.Hash)
				order = append(order, 0)
			}
			node = parent
			parent = parent.Parent
		}

		return proof, order, nil
	}

	return nil, nil, errors.New("unable to find value in tree")
}

// VerifyProof walks a proof produced by Proof and reports whether it arrives
// at the specified root.
func VerifyProof(value []byte, proof [][]byte, order []int64, rootHex string) bool {
	hash := sha256.Sum256(value)
	current := hash[:]

	for i, sibling := range proof {
		var h [32]byte
		if order[i] == 0 {
			h = sha256.Sum256(append(append([]byte{}, sibling...), current...))
		} else {
			h = sha256.Sum256(append(append([]byte{}, current...), sibling...))
		}
		current = h[:]
	}

	return hex.EncodeToString(current) == rootHex
}

// =============================================================================

// buildIntermediate constructs the interior levels of the tree for a given
// list of leaf nodes and returns the resulting root node.
func buildIntermediate(nl []*Node) *Node {
	var nodes []*Node

	for i := 0; i < len(nl); i += 2 {
		left, right := i, i+1
		if i+1 == len(nl) {
			right = i
		}

		hash := sha256.Sum256(append(append([]byte{}, nl[left].Hash...), nl[right].Hash...))

		n := Node{
			Left:  nl[left],
			Right: nl[right],
			Hash:  hash[:],
		}

		nodes = append(nodes, &n)
		nl[left].Parent = &n
		nl[right].Parent = &n

		if len(nl) == 2 {
			return &n
		}
	}

	return buildIntermediate(nodes)
}
