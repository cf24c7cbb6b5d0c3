// Package kdtree implements a 3D k-d tree for nearest neighbour queries on
// point data such as photons or hit points.
//
// Points are first added to an unbalanced tree, one at a time. Balance merges
// everything into a flat, complete binary tree that is faster to search.
// Queries search both parts, so a tree may be balanced, grown further and
// balanced again.
package kdtree

import (
	"fmt"

	"github.com/df07/go-lightsampler/pkg/core"
	"github.com/df07/go-lightsampler/pkg/log"
)

var logger = log.New("kdtree")

// Flags holds per-point bits. The low four bits store the discriminator axis
// of the node and are managed by the tree; the remaining bits are free for
// callers and can be used to exclude points from queries.
type Flags uint16

const (
	discriminatorMask Flags = 0x000F
	userFlagShift           = 4

	// MaxUserFlags is the number of caller flag bits available.
	MaxUserFlags = 12
)

// UserFlag returns caller flag bit i (0 <= i < MaxUserFlags).
func UserFlag(i uint) Flags {
	if i >= MaxUserFlags {
		panic(fmt.Sprintf("kdtree: user flag %d out of range", i))
	}
	return Flags(1) << (userFlagShift + i)
}

// Positioned is implemented by everything stored in the tree.
type Positioned interface {
	Position() core.Vec3
}

// node is an element of the unbalanced part of the tree.
type node[T Positioned] struct {
	data  T
	pos   core.Vec3
	flags Flags
	loson *node[T]
	hison *node[T]
}

func (n *node[T]) discriminator() int {
	return int(n.flags & discriminatorMask)
}

func (n *node[T]) setDiscriminator(axis int) {
	n.flags = (n.flags &^ discriminatorMask) | Flags(axis)
}

// balancedNode is an element of the balanced array. The children of index i
// live at 2i+1 and 2i+2.
type balancedNode[T Positioned] struct {
	data  T
	pos   core.Vec3
	flags Flags
}

func (n *balancedNode[T]) discriminator() int {
	return int(n.flags & discriminatorMask)
}

// Tree is a k-d tree over values of type T. Values are stored by value: use a
// pointer type for T to share data with the caller instead of copying it.
//
// A Tree is not safe for concurrent mutation. Queries keep their state in a
// per-call context, so concurrent queries on a tree nobody is modifying are
// fine.
type Tree[T Positioned] struct {
	root          *node[T]
	numUnbalanced int
	balanced      []balancedNode[T]
}

// New creates an empty tree.
func New[T Positioned]() *Tree[T] {
	return &Tree[T]{}
}

// Size returns the total number of points in the tree.
func (t *Tree[T]) Size() int {
	return t.numUnbalanced + len(t.balanced)
}

// BalancedSize returns the number of points in the balanced part.
func (t *Tree[T]) BalancedSize() int {
	return len(t.balanced)
}

// UnbalancedSize returns the number of points added since the last Balance.
func (t *Tree[T]) UnbalancedSize() int {
	return t.numUnbalanced
}

// Reset removes all points.
func (t *Tree[T]) Reset() {
	t.root = nil
	t.numUnbalanced = 0
	t.balanced = nil
}

// AddPoint inserts data into the unbalanced part of the tree. Only the caller
// bits of flags are kept.
func (t *Tree[T]) AddPoint(data T, flags Flags) {
	n := &node[T]{
		data:  data,
		pos:   data.Position(),
		flags: flags &^ discriminatorMask,
	}
	t.numUnbalanced++

	if t.root == nil {
		t.root = n
		return
	}

	parent := t.root
	for {
		// A leaf picks its discriminator when it receives its first child
		if parent.loson == nil && parent.hison == nil {
			parent.setDiscriminator(maxSpreadAxis(parent.pos, n.pos))
		}

		axis := parent.discriminator()
		if n.pos.Component(axis) <= parent.pos.Component(axis) {
			if parent.loson == nil {
				parent.loson = n
				return
			}
			parent = parent.loson
		} else {
			if parent.hison == nil {
				parent.hison = n
				return
			}
			parent = parent.hison
		}
	}
}

// maxSpreadAxis returns the axis along which a and b differ most.
func maxSpreadAxis(a, b core.Vec3) int {
	axis := 0
	spread := abs(a.X - b.X)
	if d := abs(a.Y - b.Y); d > spread {
		axis, spread = 1, d
	}
	if d := abs(a.Z - b.Z); d > spread {
		axis = 2
	}
	return axis
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}

// Iterate calls fn for every point of a fully balanced tree, in array order.
// Iterating a tree with unbalanced points is a programming error and panics.
func (t *Tree[T]) Iterate(fn func(data T, flags Flags)) {
	if t.numUnbalanced > 0 {
		panic(fmt.Sprintf("kdtree: Iterate called on a tree with %d unbalanced points", t.numUnbalanced))
	}
	for i := range t.balanced {
		fn(t.balanced[i].data, t.balanced[i].flags&^discriminatorMask)
	}
}
