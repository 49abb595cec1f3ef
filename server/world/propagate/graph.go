// Package propagate implements incremental level propagation over a graph of
// nodes. Each node has a level in the range [0, levelCount); a node's level is
// the minimum of the level it receives from its sources and the levels derived
// from its neighbours. Changes are propagated lazily through per-level work
// queues, so that a single source change only touches the nodes whose level
// actually changes.
package propagate

import (
	"container/list"
	"fmt"

	"golang.org/x/exp/constraints"
)

// Nodes supplies the topology and the level storage that a Graph propagates
// over.
type Nodes interface {
	// IsSource reports if node is a pseudo node that only supplies levels and
	// is never updated itself.
	IsSource(node int64) bool
	// Level returns the stored level of node.
	Level(node int64) int
	// SetLevel stores the level of node.
	SetLevel(node int64, level int)
	// ComputedLevel returns the lowest level node may receive from any of its
	// neighbours other than excluded, bounded by maxLevel.
	ComputedLevel(node, excluded int64, maxLevel int) int
	// LevelFromNeighbor returns the level that to receives from its neighbour
	// from when from has the level passed.
	LevelFromNeighbor(from, to int64, level int) int
	// CheckNeighborsAfterUpdate is called after the level of node changed from
	// or to level. Implementations call Graph.CheckNeighbor for every
	// neighbour of node.
	CheckNeighborsAfterUpdate(node int64, level int, decreasing bool)
}

// Graph computes the minimum fixed point of node levels. Pending updates are
// kept in one queue per priority, where the priority of a node is the lowest
// of its stored and its pending level.
type Graph struct {
	levelCount int
	nodes      Nodes

	queues           []*orderedSet
	computed         map[int64]int
	firstQueuedLevel int
}

// NewGraph creates a Graph with levelCount levels propagating over the Nodes
// passed. queueCapacity and computedCapacity size the initial work queues and
// the pending level map.
func NewGraph(levelCount, queueCapacity, computedCapacity int, nodes Nodes) *Graph {
	if levelCount < 2 || levelCount >= 254 {
		panic(fmt.Sprintf("propagate: level count must be in the range 2-253, got %v", levelCount))
	}
	if nodes == nil {
		panic("propagate: graph requires nodes")
	}
	g := &Graph{
		levelCount:       levelCount,
		nodes:            nodes,
		queues:           make([]*orderedSet, levelCount),
		computed:         make(map[int64]int, computedCapacity),
		firstQueuedLevel: levelCount,
	}
	for i := range g.queues {
		g.queues[i] = newOrderedSet(queueCapacity)
	}
	return g
}

// LevelCount returns the number of levels of the Graph. Level LevelCount()-1
// is the highest level a node may hold.
func (g *Graph) LevelCount() int {
	return g.levelCount
}

// HasWork reports if any updates are still queued.
func (g *Graph) HasWork() bool {
	return g.firstQueuedLevel < g.levelCount
}

// QueueSize returns the number of nodes with a pending level.
func (g *Graph) QueueSize() int {
	return len(g.computed)
}

// CheckNode schedules a recomputation of the level of node from its
// neighbours.
func (g *Graph) CheckNode(node int64) {
	g.CheckEdge(node, node, g.levelCount-1, false)
}

// CheckEdge notifies the Graph that the level node to receives from from has
// changed to level. If decreasing is true, the level received only got
// lower and the new level of to is the minimum of its current level and
// level. Otherwise, the level of to is recomputed from all of its
// neighbours other than from, bounded by level.
func (g *Graph) CheckEdge(from, to int64, level int, decreasing bool) {
	computed, queued := g.computed[to]
	g.checkEdge(from, to, level, g.nodes.Level(to), computed, queued, decreasing)
}

// CheckNeighbor is called by Nodes implementations for every neighbour to of
// a node from whose level changed from or to level.
func (g *Graph) CheckNeighbor(from, to int64, level int, decreasing bool) {
	computed, queued := g.computed[to]
	newLevel := clamp(g.nodes.LevelFromNeighbor(from, to, level), 0, g.levelCount-1)
	if decreasing {
		g.checkEdge(from, to, newLevel, g.nodes.Level(to), computed, queued, true)
		return
	}
	current := computed
	if !queued {
		current = clamp(g.nodes.Level(to), 0, g.levelCount-1)
	}
	if newLevel == current {
		// The level of to may have been derived from from. Recompute it from
		// its remaining neighbours.
		g.checkEdge(from, to, g.levelCount-1, g.nodes.Level(to), computed, queued, false)
	}
}

func (g *Graph) checkEdge(from, to int64, newLevel, level, computed int, queued, decreasing bool) {
	if g.nodes.IsSource(to) {
		return
	}
	newLevel = clamp(newLevel, 0, g.levelCount-1)
	level = clamp(level, 0, g.levelCount-1)
	if !queued {
		computed = level
	}
	var target int
	if decreasing {
		target = min(computed, newLevel)
	} else {
		target = clamp(g.nodes.ComputedLevel(to, from, newLevel), 0, g.levelCount-1)
	}
	oldPriority := g.priority(level, computed)
	if level != target {
		newPriority := g.priority(level, target)
		if oldPriority != newPriority && queued {
			g.dequeue(to, oldPriority, newPriority)
		}
		g.enqueue(to, target, newPriority)
	} else if queued {
		g.dequeue(to, oldPriority, g.levelCount)
		delete(g.computed, to)
	}
}

// RunUpdates processes at most maxSteps queued nodes, lowest priority first.
// It returns the number of steps left.
func (g *Graph) RunUpdates(maxSteps int) int {
	for g.firstQueuedLevel < g.levelCount && maxSteps > 0 {
		maxSteps--
		queue := g.queues[g.firstQueuedLevel]
		node := queue.removeFirst()
		level := clamp(g.nodes.Level(node), 0, g.levelCount-1)
		if queue.len() == 0 {
			g.firstQueuedLevel = g.firstQueued(g.levelCount)
		}
		computed := g.computed[node]
		delete(g.computed, node)

		if computed < level {
			g.nodes.SetLevel(node, computed)
			g.nodes.CheckNeighborsAfterUpdate(node, computed, true)
		} else if computed > level {
			// Raise the node to the highest level first, so that neighbours
			// that derived their level from it are recomputed without it.
			g.enqueue(node, computed, g.priority(g.levelCount-1, computed))
			g.nodes.SetLevel(node, g.levelCount-1)
			g.nodes.CheckNeighborsAfterUpdate(node, level, false)
		}
	}
	return maxSteps
}

func (g *Graph) priority(a, b int) int {
	return min(a, b, g.levelCount-1)
}

func (g *Graph) enqueue(node int64, level, priority int) {
	g.computed[node] = level
	g.queues[priority].add(node)
	if g.firstQueuedLevel > priority {
		g.firstQueuedLevel = priority
	}
}

func (g *Graph) dequeue(node int64, priority, maxLevel int) {
	queue := g.queues[priority]
	queue.remove(node)
	if queue.len() == 0 && g.firstQueuedLevel == priority {
		g.firstQueuedLevel = g.firstQueued(maxLevel)
	}
}

// firstQueued returns the lowest priority below maxLevel with a non-empty
// queue, or maxLevel if there is none.
func (g *Graph) firstQueued(maxLevel int) int {
	for i := 0; i < maxLevel; i++ {
		if g.queues[i].len() != 0 {
			return i
		}
	}
	return maxLevel
}

func clamp[T constraints.Integer](v, lo, hi T) T {
	return min(max(v, lo), hi)
}

// orderedSet is a set of nodes that preserves insertion order.
type orderedSet struct {
	order    *list.List
	elements map[int64]*list.Element
}

func newOrderedSet(capacity int) *orderedSet {
	return &orderedSet{order: list.New(), elements: make(map[int64]*list.Element, capacity)}
}

func (s *orderedSet) add(node int64) {
	if _, ok := s.elements[node]; ok {
		return
	}
	s.elements[node] = s.order.PushBack(node)
}

func (s *orderedSet) remove(node int64) {
	if e, ok := s.elements[node]; ok {
		s.order.Remove(e)
		delete(s.elements, node)
	}
}

func (s *orderedSet) removeFirst() int64 {
	e := s.order.Front()
	node := s.order.Remove(e).(int64)
	delete(s.elements, node)
	return node
}

func (s *orderedSet) len() int {
	return len(s.elements)
}
