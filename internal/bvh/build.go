package bvh

import (
	"math"

	"github.com/ari-sharma/conjunction/internal/propagate"
)

// maxInt is the platform int's representable maximum, used for the
// overflow checks mandated by spec.md §4.8 and repeated in DESIGN.md.
const maxInt = int(^uint(0) >> 1)

// Build implements C8: a level-synchronous top-down BVH build over
// Morton-sorted particle data, with parallel reduce/scan/for per level.
func Build(sorted SortOutput) (*Tree, error) {
	p := len(sorted.Codes)
	if p > maxInt-1 {
		return nil, propagate.ErrOverflow
	}

	t := &Tree{
		Nodes:         []Node{newRoot(p)},
		SortedLB:      sorted.LB,
		SortedUB:      sorted.UB,
		SortedCodes:   sorted.Codes,
		Permutation:   sorted.Permutation,
		UnsortedCodes: sorted.UnsortedCodes,
	}

	curBegin, curEnd := 0, 1
	curNNodes := 1

	var levels [][2]int

	for {
		levelLen := curEnd - curBegin
		nc := make([]int, levelLen)
		nplc := make([]int, levelLen)
		splitPos := make([]int, levelLen)

		// Step 1 — classify (parallel reduce over the level).
		leafCount := propagate.ParallelReduce(levelLen, 64, 0,
			func(start, end, acc int) int {
				local := acc
				for li := start; li < end; li++ {
					i := curBegin + li
					leaf, pos := classifyNode(&t.Nodes[i], sorted.Codes)
					if leaf {
						nc[li] = 0
						nplc[li] = 0
						computeLeafAABB(&t.Nodes[i], sorted.LB, sorted.UB)
						local++
					} else {
						nc[li] = 2
						nplc[li] = pos - int(t.Nodes[i].Begin)
						splitPos[li] = pos
					}
				}
				return local
			},
			func(a, b int) int { return a + b },
		)

		levels = append(levels, [2]int{curBegin, curEnd})

		// Step 2 — reserve.
		if curNNodes > (maxInt-2*leafCount)/2 {
			return nil, propagate.ErrOverflow
		}
		nnNext := 2*curNNodes - 2*leafCount
		curTreeSize := len(t.Nodes)
		if curTreeSize > maxInt-nnNext {
			return nil, propagate.ErrOverflow
		}
		t.Nodes = append(t.Nodes, make([]Node, nnNext)...)

		// Step 3 — prefix sum (parallel inclusive scan of nc into ps).
		// ParallelPrefixSum computes an exclusive scan; ps[li] is turned
		// inclusive by adding nc[li] back in at each position.
		ps := make([]int, levelLen)
		propagate.ParallelPrefixSum(nc, ps, 64)
		propagate.ParallelFor(levelLen, 64, func(start, end int) {
			for li := start; li < end; li++ {
				ps[li] += nc[li]
			}
		})

		// Step 4 — finalize (parallel for over the level).
		propagate.ParallelFor(levelLen, 64, func(start, end int) {
			for li := start; li < end; li++ {
				i := curBegin + li
				n := &t.Nodes[i]
				n.NNLevel = uint32(curNNodes)
				if nc[li] == 0 {
					continue
				}
				lcIdx := curTreeSize + ps[li] - 2
				n.Left = int32(lcIdx)
				n.Right = int32(lcIdx + 1)

				leftEnd := n.Begin + uint32(nplc[li])
				left := newChild(n.Begin, leftEnd, int32(i), n.SplitIdx+1)
				right := newChild(leftEnd, n.End, int32(i), n.SplitIdx+1)
				t.Nodes[lcIdx] = left
				t.Nodes[lcIdx+1] = right
			}
		})

		// Step 5 — advance.
		if nnNext == 0 {
			break
		}
		curBegin, curEnd = curTreeSize, curTreeSize+nnNext
		curNNodes = nnNext
	}

	// Step 6 — backward AABB pass: from the penultimate level up to the
	// root, recompute each internal node's lb/ub from its (already
	// finalised) children. Leaves already carry their AABB from step 1.
	for li := len(levels) - 2; li >= 0; li-- {
		begin, end := levels[li][0], levels[li][1]
		propagate.ParallelFor(end-begin, 64, func(s, e int) {
			for off := s; off < e; off++ {
				i := begin + off
				n := &t.Nodes[i]
				if n.IsLeaf() {
					continue
				}
				l := &t.Nodes[n.Left]
				r := &t.Nodes[n.Right]
				for c := 0; c < 4; c++ {
					n.LB[c] = float32min(l.LB[c], r.LB[c])
					n.UB[c] = float32max(l.UB[c], r.UB[c])
				}
			}
		})
	}

	return t, nil
}

// classifyNode determines whether node n is a leaf, and if not, the split
// position (a particle index in [n.Begin, n.End]) at which its range
// divides into a left and right child. It mutates n.SplitIdx in place,
// advancing it past any bit positions with no flip in this node's range.
func classifyNode(n *Node, codes []uint64) (leaf bool, splitPos int) {
	if n.End-n.Begin == 1 || n.SplitIdx > 63 {
		return true, 0
	}

	begin, end := int(n.Begin), int(n.End)
	splitIdx := n.SplitIdx
	for {
		bitPos := uint(63 - splitIdx)
		pos := firstBitSet(codes, begin, end, bitPos)
		if pos == begin || pos == end {
			splitIdx++
			if splitIdx > 63 {
				n.SplitIdx = 64
				return true, 0
			}
			continue
		}
		n.SplitIdx = splitIdx
		return false, pos
	}
}

// firstBitSet binary searches [begin, end) for the first index whose code
// has bit `bit` set, relying on the range already being sorted by that bit
// (true because it is sorted by the full code, and every higher bit is
// constant across the range by construction of the preceding splits).
func firstBitSet(codes []uint64, begin, end int, bit uint) int {
	lo, hi := begin, end
	for lo < hi {
		mid := (lo + hi) / 2
		if (codes[mid]>>bit)&1 == 1 {
			hi = mid
		} else {
			lo = mid + 1
		}
	}
	return lo
}

func computeLeafAABB(n *Node, lb, ub [][4]float32) {
	for c := 0; c < 4; c++ {
		n.LB[c] = posInfF32
		n.UB[c] = negInfF32
	}
	for i := int(n.Begin); i < int(n.End); i++ {
		for c := 0; c < 4; c++ {
			n.LB[c] = float32min(n.LB[c], lb[i][c])
			n.UB[c] = float32max(n.UB[c], ub[i][c])
		}
	}
}

func float32min(a, b float32) float32 {
	return float32(math.Min(float64(a), float64(b)))
}

func float32max(a, b float32) float32 {
	return float32(math.Max(float64(a), float64(b)))
}
