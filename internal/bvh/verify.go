package bvh

import (
	"fmt"

	"github.com/ari-sharma/conjunction/internal/propagate"
)

// Verify implements C9: it asserts every structural and geometric
// invariant from spec.md §3/§8 against a built tree. It returns the first
// violation found as an error; this component is advisory and is meant to
// run under Config.Verify, not on every production superstep.
func Verify(t *Tree) error {
	if err := verifyRootAndParents(t); err != nil {
		return err
	}
	if err := verifyRangesAndChildren(t); err != nil {
		return err
	}
	if err := verifyPartitionCompleteness(t); err != nil {
		return err
	}
	if err := verifySplitRule(t); err != nil {
		return err
	}
	if err := verifyAABBPullUp(t); err != nil {
		return err
	}
	if err := verifyPermutationConsistency(t); err != nil {
		return err
	}
	return nil
}

func verifyRootAndParents(t *Tree) error {
	if len(t.Nodes) == 0 {
		return fmt.Errorf("bvh verify: empty tree")
	}
	roots := 0
	for i, n := range t.Nodes {
		if n.Parent == noParent {
			roots++
			if i != 0 {
				return fmt.Errorf("bvh verify: root must be node 0, found at %d", i)
			}
			continue
		}
		if int(n.Parent) >= i {
			return fmt.Errorf("bvh verify: node %d has parent index %d not strictly less", i, n.Parent)
		}
	}
	if roots != 1 {
		return fmt.Errorf("bvh verify: expected exactly one root, found %d", roots)
	}
	return nil
}

func verifyRangesAndChildren(t *Tree) error {
	for i, n := range t.Nodes {
		if n.End <= n.Begin {
			return fmt.Errorf("bvh verify: node %d has end <= begin (%d, %d)", i, n.End, n.Begin)
		}
		leftIsNone := n.Left == noChild
		rightIsNone := n.Right == noChild
		if leftIsNone != rightIsNone {
			return fmt.Errorf("bvh verify: node %d has exactly one child set", i)
		}
		if leftIsNone {
			continue // leaf
		}
		if int(n.Left) <= i || int(n.Right) <= i {
			return fmt.Errorf("bvh verify: node %d has a child index <= own index", i)
		}
		l, r := &t.Nodes[n.Left], &t.Nodes[n.Right]
		if l.Begin != n.Begin {
			return fmt.Errorf("bvh verify: node %d left child begin mismatch", i)
		}
		if r.End != n.End {
			return fmt.Errorf("bvh verify: node %d right child end mismatch", i)
		}
		if l.End != r.Begin {
			return fmt.Errorf("bvh verify: node %d children not contiguous", i)
		}
		if l.End >= n.End {
			return fmt.Errorf("bvh verify: node %d left child end not < own end", i)
		}
		if n.SplitIdx > 63 {
			return fmt.Errorf("bvh verify: internal node %d has split_idx %d > 63", i, n.SplitIdx)
		}
	}
	// Leaf split_idx bound and leaf-code-sharing invariant.
	for i, n := range t.Nodes {
		if !n.IsLeaf() {
			continue
		}
		if n.SplitIdx > 64 {
			return fmt.Errorf("bvh verify: leaf %d has split_idx %d > 64", i, n.SplitIdx)
		}
		if n.End-n.Begin > 1 {
			first := t.SortedCodes[n.Begin]
			for k := n.Begin + 1; k < n.End; k++ {
				if t.SortedCodes[k] != first {
					return fmt.Errorf("bvh verify: multi-particle leaf %d does not share a single code", i)
				}
			}
		}
	}
	for i, n := range t.Nodes {
		if n.NNLevel == 0 {
			return fmt.Errorf("bvh verify: node %d has nn_level == 0", i)
		}
	}
	return nil
}

func verifyPartitionCompleteness(t *Tree) error {
	p := len(t.SortedCodes)
	seen := make([]bool, p)
	for i, n := range t.Nodes {
		if !n.IsLeaf() {
			continue
		}
		for k := n.Begin; k < n.End; k++ {
			if k >= uint32(p) {
				return fmt.Errorf("bvh verify: leaf %d range exceeds particle count", i)
			}
			if seen[k] {
				return fmt.Errorf("bvh verify: particle %d covered by more than one leaf", k)
			}
			seen[k] = true
		}
	}
	for i, ok := range seen {
		if !ok {
			return fmt.Errorf("bvh verify: particle %d not covered by any leaf", i)
		}
	}
	return nil
}

func verifySplitRule(t *Tree) error {
	for i, n := range t.Nodes {
		if n.IsLeaf() {
			continue
		}
		l := t.Nodes[n.Left]
		got := firstDifferingBit(t.SortedCodes[l.End-1], t.SortedCodes[l.End])
		if uint32(got) != n.SplitIdx {
			return fmt.Errorf("bvh verify: node %d split_idx %d, first differing bit is %d", i, n.SplitIdx, got)
		}
	}
	return nil
}

// firstDifferingBit returns the MSB-counted (0..63) index of the first bit
// at which a and b differ.
func firstDifferingBit(a, b uint64) int {
	x := a ^ b
	for bit := 63; bit >= 0; bit-- {
		if (x>>uint(bit))&1 == 1 {
			return 63 - bit
		}
	}
	return 64
}

func verifyAABBPullUp(t *Tree) error {
	for i, n := range t.Nodes {
		if n.IsLeaf() {
			var lb, ub [4]float32
			for c := 0; c < 4; c++ {
				lb[c] = posInfF32
				ub[c] = negInfF32
			}
			for k := n.Begin; k < n.End; k++ {
				for c := 0; c < 4; c++ {
					lb[c] = float32min(lb[c], t.SortedLB[k][c])
					ub[c] = float32max(ub[c], t.SortedUB[k][c])
				}
			}
			if !boundsEqual(lb, n.LB) || !boundsEqual(ub, n.UB) {
				return fmt.Errorf("bvh verify: leaf %d AABB does not match its particles", i)
			}
			continue
		}
		l, r := t.Nodes[n.Left], t.Nodes[n.Right]
		var lb, ub [4]float32
		for c := 0; c < 4; c++ {
			lb[c] = float32min(l.LB[c], r.LB[c])
			ub[c] = float32max(l.UB[c], r.UB[c])
		}
		if !boundsEqual(lb, n.LB) || !boundsEqual(ub, n.UB) {
			return fmt.Errorf("bvh verify: internal node %d AABB pull-up mismatch", i)
		}
		for c := 0; c < 4; c++ {
			if n.LB[c] > n.UB[c] {
				return fmt.Errorf("bvh verify: node %d has lb > ub on axis %d", i, c)
			}
		}
	}
	return nil
}

func boundsEqual(a, b [4]float32) bool {
	for c := 0; c < 4; c++ {
		if a[c] != b[c] {
			return false
		}
	}
	return true
}

// verifyPermutationConsistency checks that Permutation is a bijection over
// [0, p) and that srt_mcodes[i] == mcodes[vidx[i]] (spec.md §8 property 3):
// the sorted code at position i must be the unsorted code of the particle
// the permutation says landed there.
func verifyPermutationConsistency(t *Tree) error {
	p := len(t.Permutation)
	seen := make([]bool, p)
	for i, v := range t.Permutation {
		if v < 0 || v >= p {
			return fmt.Errorf("bvh verify: permutation index %d out of range", v)
		}
		if seen[v] {
			return fmt.Errorf("bvh verify: permutation is not a bijection, duplicate %d", v)
		}
		seen[v] = true
		if t.UnsortedCodes != nil && t.SortedCodes[i] != t.UnsortedCodes[v] {
			return fmt.Errorf("bvh verify: sorted code at %d does not match unsorted code of particle %d", i, v)
		}
	}
	return nil
}

// VerifyAllChunks runs Verify across every chunk's tree in parallel,
// matching §4.9's "parallel for across chunks; within a chunk is serial".
func VerifyAllChunks(trees []*Tree) error {
	errs := make([]error, len(trees))
	propagate.ParallelFor(len(trees), 1, func(start, end int) {
		for k := start; k < end; k++ {
			errs[k] = Verify(trees[k])
		}
	})
	for k, err := range errs {
		if err != nil {
			return &propagate.StepError{Phase: "verify", Chunk: k, Wrapped: err}
		}
	}
	return nil
}
