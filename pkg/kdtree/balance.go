package kdtree

import (
	"math"
)

// Balance merges the balanced and unbalanced parts into a single balanced
// array. The previous structures are discarded.
func (t *Tree[T]) Balance() {
	total := t.Size()
	if total == 0 {
		return
	}

	nodes := make([]balancedNode[T], 0, total)
	nodes = append(nodes, t.balanced...)
	nodes = collectUnbalanced(t.root, nodes)

	dest := make([]balancedNode[T], total)
	buildBalanced(nodes, dest, 0, 0, total-1)

	t.balanced = dest
	t.root = nil
	t.numUnbalanced = 0
}

func collectUnbalanced[T Positioned](n *node[T], nodes []balancedNode[T]) []balancedNode[T] {
	if n == nil {
		return nodes
	}
	nodes = append(nodes, balancedNode[T]{data: n.data, pos: n.pos, flags: n.flags &^ discriminatorMask})
	nodes = collectUnbalanced(n.loson, nodes)
	return collectUnbalanced(n.hison, nodes)
}

// buildBalanced stores the subtree made of nodes[low..high] at dest[index].
func buildBalanced[T Positioned](nodes, dest []balancedNode[T], index, low, high int) {
	if low == high {
		dest[index] = nodes[low]
		dest[index].flags &^= discriminatorMask
		return
	}

	axis := spreadAxis(nodes[low : high+1])
	median := low + leftSubtreeSize(high-low+1)
	quickSelect(nodes, median, low, high, axis)

	dest[index] = nodes[median]
	dest[index].flags = (nodes[median].flags &^ discriminatorMask) | Flags(axis)

	if median > low {
		buildBalanced(nodes, dest, 2*index+1, low, median-1)
	}
	if median < high {
		buildBalanced(nodes, dest, 2*index+2, median+1, high)
	}
}

// leftSubtreeSize returns how many of n nodes go left of the root in a
// complete binary tree, so that the array layout has no holes.
func leftSubtreeSize(n int) int {
	if n <= 1 {
		return 0
	}

	// m is the largest power of two <= n
	m := 1
	for m*2 <= n {
		m *= 2
	}
	lastLevel := n - (m - 1)
	return (m-2)/2 + min(m/2, lastLevel)
}

// spreadAxis returns the axis with the largest extent over nodes.
func spreadAxis[T Positioned](nodes []balancedNode[T]) int {
	lo := [3]float64{math.Inf(1), math.Inf(1), math.Inf(1)}
	hi := [3]float64{math.Inf(-1), math.Inf(-1), math.Inf(-1)}
	for i := range nodes {
		for axis := 0; axis < 3; axis++ {
			v := nodes[i].pos.Component(axis)
			lo[axis] = min(lo[axis], v)
			hi[axis] = max(hi[axis], v)
		}
	}

	best := 0
	for axis := 1; axis < 3; axis++ {
		if hi[axis]-lo[axis] > hi[best]-lo[best] {
			best = axis
		}
	}
	return best
}

// quickSelect partially orders nodes[low..high] along axis so that nodes[k]
// holds the element that would be there if the range were sorted, with
// smaller-or-equal elements before it and larger-or-equal after it.
func quickSelect[T Positioned](nodes []balancedNode[T], k, low, high, axis int) {
	key := func(i int) float64 { return nodes[i].pos.Component(axis) }
	swap := func(i, j int) { nodes[i], nodes[j] = nodes[j], nodes[i] }

	l, ir := low, high
	for {
		if ir <= l+1 {
			if ir == l+1 && key(ir) < key(l) {
				swap(l, ir)
			}
			return
		}

		// Median of three: order nodes[l], nodes[l+1], nodes[ir]
		mid := (l + ir) >> 1
		swap(mid, l+1)
		if key(l) > key(ir) {
			swap(l, ir)
		}
		if key(l+1) > key(ir) {
			swap(l+1, ir)
		}
		if key(l) > key(l+1) {
			swap(l, l+1)
		}

		i, j := l+1, ir
		pivot := nodes[l+1]
		pivotKey := key(l + 1)
		for {
			for i++; key(i) < pivotKey; i++ {
			}
			for j--; key(j) > pivotKey; j-- {
			}
			if j < i {
				break
			}
			swap(i, j)
		}
		nodes[l+1] = nodes[j]
		nodes[j] = pivot

		if j >= k {
			ir = j - 1
		}
		if j <= k {
			l = i
		}
	}
}
