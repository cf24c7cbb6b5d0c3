package kdtree

import (
	"sort"
	"sync"

	"github.com/df07/go-lightsampler/pkg/core"
)

// MaxScratch is the largest neighbour count a query may ask for without
// supplying its own distance buffer.
const MaxScratch = 1000

var scratchPool = sync.Pool{
	New: func() any { return new([MaxScratch]float64) },
}

// Neighbor is a query result.
type Neighbor[T Positioned] struct {
	Data     T
	Flags    Flags
	Distance float64 // Squared Euclidean distance to the query point
}

// queryContext holds the state of a single query. results and dist2 form a
// max-heap on dist2 so the worst kept candidate is always at index 0.
type queryContext[T Positioned] struct {
	point    core.Vec3
	n        int
	maxDist2 float64
	exclude  Flags

	results []T
	flags   []Flags
	dist2   []float64
	count   int
}

// worst returns the squared distance a candidate has to beat to be kept.
func (q *queryContext[T]) worst() float64 {
	if q.count < q.n {
		return q.maxDist2
	}
	return q.dist2[0]
}

func (q *queryContext[T]) visit(data T, pos core.Vec3, flags Flags) {
	if flags&q.exclude != 0 {
		return
	}
	d2 := pos.Subtract(q.point).LengthSquared()
	if d2 >= q.worst() {
		return
	}

	userFlags := flags &^ discriminatorMask
	if q.count < q.n {
		// Heap not full yet: append and sift up
		i := q.count
		q.count++
		q.set(i, data, userFlags, d2)
		for i > 0 {
			parent := (i - 1) / 2
			if q.dist2[parent] >= q.dist2[i] {
				break
			}
			q.swap(i, parent)
			i = parent
		}
		return
	}

	// Replace the current maximum and sift down
	q.set(0, data, userFlags, d2)
	i := 0
	for {
		largest := i
		left, right := 2*i+1, 2*i+2
		if left < q.count && q.dist2[left] > q.dist2[largest] {
			largest = left
		}
		if right < q.count && q.dist2[right] > q.dist2[largest] {
			largest = right
		}
		if largest == i {
			return
		}
		q.swap(i, largest)
		i = largest
	}
}

func (q *queryContext[T]) set(i int, data T, flags Flags, d2 float64) {
	q.results[i] = data
	q.dist2[i] = d2
	if q.flags != nil {
		q.flags[i] = flags
	}
}

func (q *queryContext[T]) swap(i, j int) {
	q.results[i], q.results[j] = q.results[j], q.results[i]
	q.dist2[i], q.dist2[j] = q.dist2[j], q.dist2[i]
	if q.flags != nil {
		q.flags[i], q.flags[j] = q.flags[j], q.flags[i]
	}
}

// searchBalanced walks the balanced array with an explicit stack of far
// subtrees that still have to be checked.
func (q *queryContext[T]) searchBalanced(nodes []balancedNode[T]) {
	type pending struct {
		index      int
		planeDist2 float64
	}

	var stackBuf [64]pending
	stack := append(stackBuf[:0], pending{index: 0})

	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if top.planeDist2 >= q.worst() {
			continue
		}

		for i := top.index; i < len(nodes); {
			nd := &nodes[i]
			q.visit(nd.data, nd.pos, nd.flags)

			left := 2*i + 1
			if left >= len(nodes) {
				break
			}

			axis := nd.discriminator()
			diff := q.point.Component(axis) - nd.pos.Component(axis)
			near, far := left, left+1
			if diff > 0 {
				near, far = left+1, left
			}
			if far < len(nodes) && diff*diff < q.worst() {
				stack = append(stack, pending{index: far, planeDist2: diff * diff})
			}
			i = near
		}
	}
}

func (q *queryContext[T]) searchUnbalanced(n *node[T]) {
	if n == nil {
		return
	}
	q.visit(n.data, n.pos, n.flags)

	axis := n.discriminator()
	diff := q.point.Component(axis) - n.pos.Component(axis)
	near, far := n.loson, n.hison
	if diff > 0 {
		near, far = n.hison, n.loson
	}

	q.searchUnbalanced(near)
	if far != nil && diff*diff < q.worst() {
		q.searchUnbalanced(far)
	}
}

// QueryInto finds at most n points within radius of point, skipping points
// whose flags intersect excludeFlags. Results are written to results and
// their squared distances to distances, in no particular order. The number
// of points found is returned.
//
// distances may be nil when n <= MaxScratch. Requests that do not fit the
// supplied buffers are logged and return zero.
func (t *Tree[T]) QueryInto(point core.Vec3, n int, results []T, distances []float64, radius float64, excludeFlags Flags) int {
	return t.query(point, n, results, nil, distances, radius, excludeFlags)
}

func (t *Tree[T]) query(point core.Vec3, n int, results []T, flags []Flags, distances []float64, radius float64, excludeFlags Flags) int {
	if n <= 0 || t.Size() == 0 {
		return 0
	}
	if len(results) < n {
		logger.Errorf("query for %d neighbours with a result buffer of %d", n, len(results))
		queryTotal.WithLabelValues("out_of_bounds").Inc()
		return 0
	}

	if distances == nil {
		if n > MaxScratch {
			logger.Errorf("query for %d neighbours exceeds scratch capacity %d; supply a distance buffer", n, MaxScratch)
			queryTotal.WithLabelValues("capacity").Inc()
			return 0
		}
		scratch := scratchPool.Get().(*[MaxScratch]float64)
		defer scratchPool.Put(scratch)
		distances = scratch[:n]
	} else if len(distances) < n {
		logger.Errorf("query for %d neighbours with a distance buffer of %d", n, len(distances))
		queryTotal.WithLabelValues("out_of_bounds").Inc()
		return 0
	}

	q := queryContext[T]{
		point:    point,
		n:        n,
		maxDist2: radius * radius,
		exclude:  excludeFlags &^ discriminatorMask,
		results:  results,
		flags:    flags,
		dist2:    distances,
	}

	// Balanced part first; this only affects the order of ties
	if len(t.balanced) > 0 {
		q.searchBalanced(t.balanced)
	}
	q.searchUnbalanced(t.root)

	queryTotal.WithLabelValues("ok").Inc()
	queryNeighbours.Observe(float64(q.count))
	return q.count
}

// Query returns at most n points within radius of point, nearest first.
func (t *Tree[T]) Query(point core.Vec3, n int, radius float64, excludeFlags Flags) []Neighbor[T] {
	n = min(n, t.Size())
	if n <= 0 {
		return nil
	}

	results := make([]T, n)
	flags := make([]Flags, n)
	distances := make([]float64, n)
	found := t.query(point, n, results, flags, distances, radius, excludeFlags)

	neighbors := make([]Neighbor[T], found)
	for i := 0; i < found; i++ {
		neighbors[i] = Neighbor[T]{Data: results[i], Flags: flags[i], Distance: distances[i]}
	}
	sort.SliceStable(neighbors, func(i, j int) bool {
		return neighbors[i].Distance < neighbors[j].Distance
	})
	return neighbors
}
