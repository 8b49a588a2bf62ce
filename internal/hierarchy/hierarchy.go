// Package hierarchy rebuilds nested category and location trees from the flat
// parent-id lists the stores return, and flattens them back for search.
package hierarchy

// Build links a flat node list into a forest using the supplied accessors and
// returns the roots. Sibling order follows input order. A node whose parent id
// is not present in the input is treated as a root: search views rebuild trees
// from filtered subsets, so a missing parent is expected, not an error.
func Build[N any](flat []*N, id func(*N) int64, parentID func(*N) *int64, addChild func(parent, child *N)) []*N {
	byID := make(map[int64]*N, len(flat))
	for _, n := range flat {
		byID[id(n)] = n
	}

	var roots []*N
	for _, n := range flat {
		pid := parentID(n)
		if pid == nil {
			roots = append(roots, n)
			continue
		}
		parent, ok := byID[*pid]
		if !ok || parent == n {
			roots = append(roots, n)
			continue
		}
		addChild(parent, n)
	}
	return roots
}

// FlatNode is one node of a flattened tree annotated with its depth.
type FlatNode[N any] struct {
	Node  *N
	Level int
}

// Flatten walks the forest depth-first and returns every node with its depth,
// roots at level 0. Children are visited in order.
func Flatten[N any](roots []*N, children func(*N) []*N) []FlatNode[N] {
	var out []FlatNode[N]
	var walk func(n *N, level int)
	walk = func(n *N, level int) {
		out = append(out, FlatNode[N]{Node: n, Level: level})
		for _, c := range children(n) {
			walk(c, level+1)
		}
	}
	for _, r := range roots {
		walk(r, 0)
	}
	return out
}

// CollectIDs returns the id of every node in the forest.
func CollectIDs[N any](roots []*N, id func(*N) int64, children func(*N) []*N) map[int64]struct{} {
	ids := make(map[int64]struct{})
	for _, f := range Flatten(roots, children) {
		ids[id(f.Node)] = struct{}{}
	}
	return ids
}
