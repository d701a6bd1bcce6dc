package spatial

import (
	"container/heap"
	"slices"

	"github.com/ynishi/issun-sub004/internal/sim/graph"
)

// BreadthFirst finds the path with the fewest passable steps, ignoring step
// cost.
type BreadthFirst struct{}

func (BreadthFirst) ShortestPath(src, dst graph.NodeID, s Search) ([]graph.NodeID, bool) {
	if src == dst {
		return []graph.NodeID{src}, true
	}
	prev := map[graph.NodeID]graph.NodeID{src: src}
	queue := []graph.NodeID{src}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, nb := range s.Neighbors(cur) {
			if _, seen := prev[nb]; seen {
				continue
			}
			if !passable(s.Cost(cur, nb)) {
				continue
			}
			prev[nb] = cur
			if nb == dst {
				return unwind(prev, src, dst), true
			}
			queue = append(queue, nb)
		}
	}
	return nil, false
}

// UniformCost is Dijkstra's search over step costs.
type UniformCost struct{}

func (UniformCost) ShortestPath(src, dst graph.NodeID, s Search) ([]graph.NodeID, bool) {
	return bestFirst(src, dst, s, func(graph.NodeID) float64 { return 0 })
}

// AStar is best-first search ordered by cost so far plus Estimate.
type AStar struct{}

func (AStar) ShortestPath(src, dst graph.NodeID, s Search) ([]graph.NodeID, bool) {
	h := func(n graph.NodeID) float64 {
		if s.Estimate == nil {
			return 0
		}
		return s.Estimate(n, dst)
	}
	return bestFirst(src, dst, s, h)
}

type item struct {
	node graph.NodeID
	g, f float64
	seq  int
}

type frontier []item

func (q frontier) Len() int { return len(q) }
func (q frontier) Less(i, j int) bool {
	if q[i].f != q[j].f {
		return q[i].f < q[j].f
	}
	return q[i].seq < q[j].seq
}
func (q frontier) Swap(i, j int) { q[i], q[j] = q[j], q[i] }
func (q *frontier) Push(x any)   { *q = append(*q, x.(item)) }
func (q *frontier) Pop() any {
	old := *q
	it := old[len(old)-1]
	*q = old[:len(old)-1]
	return it
}

// bestFirst breaks f-ties by insertion order so results are deterministic.
func bestFirst(src, dst graph.NodeID, s Search, h func(graph.NodeID) float64) ([]graph.NodeID, bool) {
	dist := map[graph.NodeID]float64{src: 0}
	prev := map[graph.NodeID]graph.NodeID{src: src}
	done := map[graph.NodeID]bool{}
	seq := 0
	q := &frontier{{node: src, f: h(src)}}
	for q.Len() > 0 {
		it := heap.Pop(q).(item)
		if done[it.node] {
			continue
		}
		if it.node == dst {
			return unwind(prev, src, dst), true
		}
		done[it.node] = true
		for _, nb := range s.Neighbors(it.node) {
			if done[nb] {
				continue
			}
			c := s.Cost(it.node, nb)
			if !passable(c) || c < 0 {
				continue
			}
			g := it.g + c
			if old, ok := dist[nb]; ok && old <= g {
				continue
			}
			dist[nb] = g
			prev[nb] = it.node
			seq++
			heap.Push(q, item{node: nb, g: g, f: g + h(nb), seq: seq})
		}
	}
	return nil, false
}

func unwind(prev map[graph.NodeID]graph.NodeID, src, dst graph.NodeID) []graph.NodeID {
	path := []graph.NodeID{dst}
	for cur := dst; cur != src; {
		cur = prev[cur]
		path = append(path, cur)
	}
	slices.Reverse(path)
	return path
}
