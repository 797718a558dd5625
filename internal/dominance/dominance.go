// Package dominance computes reverse-postorder, immediate dominators, the
// dominator tree, and dominance frontiers over a cfg.Graph, using the
// Cooper-Harvey-Kennedy iterative algorithm.
//
// Grounded on original_source/ir/src/ssa.cpp's
// compute_reverse_postorder/compute_immediate_dominators/
// compute_dominance_frontiers/build_dominator_tree.
package dominance

import "impulse/internal/cfg"

// Info holds the dominance metadata for every block in a graph, indexed by
// block index.
type Info struct {
	RPO       []int
	Idom      []int // Idom[0] == 0; unreachable blocks are left at -1
	Children  [][]int
	Frontier  [][]int
	Preorder  []int // DFS preorder number within the dominator tree, for O(1) dominance queries
	Postorder []int
}

// Compute returns the dominance Info for g, rooted at block 0.
func Compute(g *cfg.Graph) *Info {
	n := len(g.Blocks)
	info := &Info{
		Idom:      make([]int, n),
		Children:  make([][]int, n),
		Frontier:  make([][]int, n),
		Preorder:  make([]int, n),
		Postorder: make([]int, n),
	}
	if n == 0 {
		return info
	}

	for i := range info.Preorder {
		info.Preorder[i] = -1
		info.Postorder[i] = -1
	}

	info.RPO = reversePostorder(g)
	info.Idom = immediateDominators(g, info.RPO)
	info.Children = dominatorTree(info.Idom)
	info.Frontier = dominanceFrontiers(g, info.Idom)
	labelDominatorTree(info, 0)
	return info
}

// reversePostorder does a DFS from block 0 following successors, pushing on
// post-order exit, then reverses.
func reversePostorder(g *cfg.Graph) []int {
	n := len(g.Blocks)
	visited := make([]bool, n)
	order := make([]int, 0, n)

	var dfs func(int)
	dfs = func(block int) {
		if block < 0 || block >= n || visited[block] {
			return
		}
		visited[block] = true
		for _, succ := range g.Blocks[block].Successors {
			dfs(succ)
		}
		order = append(order, block)
	}
	dfs(0)

	for i, j := 0, len(order)-1; i < j; i, j = i+1, j-1 {
		order[i], order[j] = order[j], order[i]
	}
	return order
}

const undefined = -1

// immediateDominators runs the Cooper-Harvey-Kennedy fixpoint over RPO.
func immediateDominators(g *cfg.Graph, rpo []int) []int {
	n := len(g.Blocks)
	idom := make([]int, n)
	for i := range idom {
		idom[i] = undefined
	}
	idom[0] = 0

	rpoPosition := make([]int, n)
	for i := range rpoPosition {
		rpoPosition[i] = undefined
	}
	for pos, block := range rpo {
		rpoPosition[block] = pos
	}

	changed := true
	for changed {
		changed = false
		for i := 1; i < len(rpo); i++ {
			block := rpo[i]
			newIdom := undefined
			for _, pred := range g.Blocks[block].Predecessors {
				if pred >= n || idom[pred] == undefined {
					continue
				}
				if newIdom == undefined {
					newIdom = pred
					continue
				}
				newIdom = intersect(idom, rpoPosition, pred, newIdom)
			}
			if newIdom != undefined && idom[block] != newIdom {
				idom[block] = newIdom
				changed = true
			}
		}
	}
	return idom
}

// intersect walks two "finger pointers" up the (partially built) dominator
// tree, using RPO number to decide which finger to advance, until they meet.
func intersect(idom, rpoPosition []int, a, b int) int {
	for a != b {
		for rpoPosition[a] > rpoPosition[b] {
			a = idom[a]
		}
		for rpoPosition[b] > rpoPosition[a] {
			b = idom[b]
		}
	}
	return a
}

func dominatorTree(idom []int) [][]int {
	children := make([][]int, len(idom))
	for block := 1; block < len(idom); block++ {
		parent := idom[block]
		if parent == undefined {
			continue
		}
		children[parent] = append(children[parent], block)
	}
	return children
}

func dominanceFrontiers(g *cfg.Graph, idom []int) [][]int {
	n := len(g.Blocks)
	frontier := make([][]int, n)
	for b := 0; b < n; b++ {
		preds := g.Blocks[b].Predecessors
		if len(preds) < 2 {
			continue
		}
		for _, pred := range preds {
			runner := pred
			for runner != idom[b] && runner != undefined {
				frontier[runner] = append(frontier[runner], b)
				runner = idom[runner]
			}
		}
	}
	return frontier
}

// labelDominatorTree assigns preorder/postorder DFS numbers over the
// dominator tree rooted at block, enabling O(1) "does A dominate B" queries
// via interval containment (spec §4.C property, used by the verifier).
func labelDominatorTree(info *Info, root int) {
	counter := 0
	var visit func(int)
	visit = func(block int) {
		info.Preorder[block] = counter
		counter++
		for _, child := range info.Children[block] {
			visit(child)
		}
		info.Postorder[block] = counter
		counter++
	}
	visit(root)
}

// Dominates reports whether a dominates b, using the preorder/postorder
// interval containment test: a dominates b iff a's [preorder, postorder)
// interval contains b's preorder number.
func (info *Info) Dominates(a, b int) bool {
	if a == b {
		return true
	}
	if a < 0 || a >= len(info.Preorder) || b < 0 || b >= len(info.Preorder) {
		return false
	}
	return info.Preorder[a] <= info.Preorder[b] && info.Postorder[b] <= info.Postorder[a]
}
