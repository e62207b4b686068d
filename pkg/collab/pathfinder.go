package collab

import "container/heap"

// HexCoord is an axial hex coordinate.
type HexCoord struct {
	Q, R int32
}

var hexDirections = [6]HexCoord{
	{1, 0}, {1, -1}, {0, -1}, {-1, 0}, {-1, 1}, {0, 1},
}

func (h HexCoord) neighbors() [6]HexCoord {
	var out [6]HexCoord
	for i, d := range hexDirections {
		out[i] = HexCoord{Q: h.Q + d.Q, R: h.R + d.R}
	}
	return out
}

func hexDistance(a, b HexCoord) int {
	dq := int(a.Q - b.Q)
	dr := int(a.R - b.R)
	ds := -dq - dr
	return (abs(dq) + abs(dr) + abs(ds)) / 2
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

type pathNode struct {
	coord    HexCoord
	priority int
	index    int
}

type pathQueue []*pathNode

func (q pathQueue) Len() int            { return len(q) }
func (q pathQueue) Less(i, j int) bool   { return q[i].priority < q[j].priority }
func (q pathQueue) Swap(i, j int)        { q[i], q[j] = q[j], q[i]; q[i].index, q[j].index = i, j }
func (q *pathQueue) Push(x interface{})  { n := x.(*pathNode); n.index = len(*q); *q = append(*q, n) }
func (q *pathQueue) Pop() interface{} {
	old := *q
	n := len(old)
	item := old[n-1]
	*q = old[:n-1]
	return item
}

// FindPath runs A* over a hex grid from start to goal, treating any
// coordinate in blocked as impassable. It returns the path including
// both endpoints, or nil if no path exists within maxNodes expansions —
// the bound that keeps an unreachable goal from scanning the whole map.
func FindPath(start, goal HexCoord, blocked map[HexCoord]bool, maxNodes int) []HexCoord {
	if blocked[goal] {
		return nil
	}

	open := &pathQueue{}
	heap.Init(open)
	heap.Push(open, &pathNode{coord: start, priority: hexDistance(start, goal)})

	cameFrom := map[HexCoord]HexCoord{}
	costSoFar := map[HexCoord]int{start: 0}
	visited := 0

	for open.Len() > 0 {
		current := heap.Pop(open).(*pathNode).coord
		visited++
		if visited > maxNodes {
			return nil
		}
		if current == goal {
			return reconstructPath(cameFrom, start, goal)
		}

		for _, next := range current.neighbors() {
			if blocked[next] {
				continue
			}
			newCost := costSoFar[current] + 1
			if existing, ok := costSoFar[next]; ok && existing <= newCost {
				continue
			}
			costSoFar[next] = newCost
			cameFrom[next] = current
			heap.Push(open, &pathNode{coord: next, priority: newCost + hexDistance(next, goal)})
		}
	}
	return nil
}

func reconstructPath(cameFrom map[HexCoord]HexCoord, start, goal HexCoord) []HexCoord {
	path := []HexCoord{goal}
	current := goal
	for current != start {
		prev, ok := cameFrom[current]
		if !ok {
			return nil
		}
		path = append(path, prev)
		current = prev
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}
