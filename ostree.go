package mrc

import "math/rand/v2"

// osNode is one node of the order-statistic treap. Keys are unique,
// monotonically-increasing timestamps; size is the count of nodes in the
// subtree rooted here, inclusive.
//
// Node layout mirrors an intrusive-pointer style (manual left/right
// surgery, no container library) rather than reaching for a generic tree
// package — none with rank support fits here (see DESIGN.md).
type osNode struct {
	key      uint64
	priority uint64
	left     *osNode
	right    *osNode
	size     int
}

func nodeSize(n *osNode) int {
	if n == nil {
		return 0
	}
	return n.size
}

func (n *osNode) recompute() {
	n.size = 1 + nodeSize(n.left) + nodeSize(n.right)
}

// orderStatisticTree is an augmented balanced BST (a randomized treap)
// supporting insert, remove, and reverse-rank queries in O(log n) expected
// time. A Fenwick tree is not a substitute here: timestamps are unbounded
// in principle, and inserts/removes happen at arbitrary positions.
type orderStatisticTree struct {
	root *osNode
	rng  *rand.Rand
}

func newOrderStatisticTree() *orderStatisticTree {
	return &orderStatisticTree{rng: rand.New(rand.NewPCG(1, 2))}
}

// Size returns the total number of stored timestamps.
func (t *orderStatisticTree) Size() int { return nodeSize(t.root) }

// Insert adds ts to the tree. ts must not already be present.
func (t *orderStatisticTree) Insert(ts uint64) {
	t.root = insertNode(t.root, &osNode{key: ts, priority: t.rng.Uint64(), size: 1})
}

func insertNode(n, toInsert *osNode) *osNode {
	if n == nil {
		return toInsert
	}
	if toInsert.priority > n.priority {
		left, right := split(n, toInsert.key)
		toInsert.left, toInsert.right = left, right
		toInsert.recompute()
		return toInsert
	}
	if toInsert.key < n.key {
		n.left = insertNode(n.left, toInsert)
	} else {
		n.right = insertNode(n.right, toInsert)
	}
	n.recompute()
	return n
}

// split divides n's subtree into (<key, >=key), both heap-ordered treaps.
func split(n *osNode, key uint64) (left, right *osNode) {
	if n == nil {
		return nil, nil
	}
	if n.key < key {
		l, r := split(n.right, key)
		n.right = l
		n.recompute()
		return n, r
	}
	l, r := split(n.left, key)
	n.left = r
	n.recompute()
	return l, n
}

// Remove deletes ts from the tree. ts must be present.
func (t *orderStatisticTree) Remove(ts uint64) {
	t.root = removeNode(t.root, ts)
}

func removeNode(n *osNode, ts uint64) *osNode {
	if n == nil {
		return nil
	}
	switch {
	case ts < n.key:
		n.left = removeNode(n.left, ts)
	case ts > n.key:
		n.right = removeNode(n.right, ts)
	default:
		merged := merge(n.left, n.right)
		return merged
	}
	n.recompute()
	return n
}

// merge joins two treaps where every key in l is less than every key in r.
func merge(l, r *osNode) *osNode {
	switch {
	case l == nil:
		return r
	case r == nil:
		return l
	case l.priority > r.priority:
		l.right = merge(l.right, r)
		l.recompute()
		return l
	default:
		r.left = merge(l, r.left)
		r.recompute()
		return r
	}
}

// ReverseRank returns the number of stored timestamps strictly greater
// than ts — the reuse distance.
func (t *orderStatisticTree) ReverseRank(ts uint64) uint64 {
	n := t.root
	var count int
	for n != nil {
		if n.key > ts {
			count += 1 + nodeSize(n.right)
			n = n.left
		} else {
			n = n.right
		}
	}
	//nolint:gosec // G115: count bounded by tree size, well under uint64 range
	return uint64(count)
}
