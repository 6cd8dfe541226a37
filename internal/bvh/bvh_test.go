package bvh_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/ari-sharma/conjunction/internal/bvh"
)

func boundsFor(p int) ([][4]float32, [][4]float32) {
	lb := make([][4]float32, p)
	ub := make([][4]float32, p)
	for i := range lb {
		for c := 0; c < 4; c++ {
			lb[i][c] = float32(i)
			ub[i][c] = float32(i) + 1
		}
	}
	return lb, ub
}

func identityPerm(p int) []int {
	perm := make([]int, p)
	for i := range perm {
		perm[i] = i
	}
	return perm
}

var _ = Describe("BVH builder", func() {
	It("S1: two particles with distinct codes produce a three-node tree", func() {
		codes := []uint64{0x0000000000000000, 0xFFFFFFFFFFFFFFFF}
		lb, ub := boundsFor(2)
		tree, err := bvh.Build(bvh.SortOutput{Codes: codes, LB: lb, UB: ub, UnsortedCodes: codes, Permutation: identityPerm(2)})
		Expect(err).NotTo(HaveOccurred())
		Expect(tree.Nodes).To(HaveLen(3))

		root := tree.Nodes[0]
		Expect(root.Begin).To(Equal(uint32(0)))
		Expect(root.End).To(Equal(uint32(2)))
		Expect(root.SplitIdx).To(Equal(uint32(0)))
		Expect(root.Left).To(Equal(int32(1)))
		Expect(root.Right).To(Equal(int32(2)))

		Expect(tree.Nodes[1].IsLeaf()).To(BeTrue())
		Expect(tree.Nodes[1].End - tree.Nodes[1].Begin).To(Equal(uint32(1)))
		Expect(tree.Nodes[2].IsLeaf()).To(BeTrue())
		Expect(tree.Nodes[2].End - tree.Nodes[2].Begin).To(Equal(uint32(1)))

		Expect(bvh.Verify(tree)).To(Succeed())
	})

	It("S2: identical Morton codes collapse to a single leaf root", func() {
		codes := []uint64{7, 7, 7, 7}
		lb, ub := boundsFor(4)
		tree, err := bvh.Build(bvh.SortOutput{Codes: codes, LB: lb, UB: ub, UnsortedCodes: codes, Permutation: identityPerm(4)})
		Expect(err).NotTo(HaveOccurred())
		Expect(tree.Nodes).To(HaveLen(1))

		root := tree.Nodes[0]
		Expect(root.Begin).To(Equal(uint32(0)))
		Expect(root.End).To(Equal(uint32(4)))
		Expect(root.SplitIdx).To(Equal(uint32(64)))
		Expect(root.IsLeaf()).To(BeTrue())

		Expect(bvh.Verify(tree)).To(Succeed())
	})

	It("S3: two particles share a code, one differs", func() {
		codes := []uint64{0, 0, 1}
		lb, ub := boundsFor(3)
		tree, err := bvh.Build(bvh.SortOutput{Codes: codes, LB: lb, UB: ub, UnsortedCodes: codes, Permutation: identityPerm(3)})
		Expect(err).NotTo(HaveOccurred())

		root := tree.Nodes[0]
		Expect(root.IsLeaf()).To(BeFalse())

		left := tree.Nodes[root.Left]
		right := tree.Nodes[root.Right]
		Expect(left.IsLeaf()).To(BeTrue())
		Expect(left.End - left.Begin).To(Equal(uint32(2)))
		Expect(left.SplitIdx).To(Equal(uint32(64)))
		Expect(right.IsLeaf()).To(BeTrue())
		Expect(right.End - right.Begin).To(Equal(uint32(1)))

		Expect(bvh.Verify(tree)).To(Succeed())
	})

	It("rejects a malformed verification input with a clear error", func() {
		codes := []uint64{0, 1, 2, 3, 4}
		lb, ub := boundsFor(5)
		tree, err := bvh.Build(bvh.SortOutput{Codes: codes, LB: lb, UB: ub, UnsortedCodes: codes, Permutation: identityPerm(5)})
		Expect(err).NotTo(HaveOccurred())
		Expect(bvh.Verify(tree)).To(Succeed())

		// Corrupt a child link to violate the "child index > own index"
		// invariant and confirm the verifier catches it.
		tree.Nodes[0].Left = 0
		Expect(bvh.Verify(tree)).To(HaveOccurred())
	})

	It("rejects a permutation that does not satisfy srt_mcodes[i] == mcodes[vidx[i]]", func() {
		codes := []uint64{0, 1, 2, 3, 4}
		lb, ub := boundsFor(5)
		tree, err := bvh.Build(bvh.SortOutput{Codes: codes, LB: lb, UB: ub, UnsortedCodes: codes, Permutation: identityPerm(5)})
		Expect(err).NotTo(HaveOccurred())
		Expect(bvh.Verify(tree)).To(Succeed())

		// UnsortedCodes no longer agrees with SortedCodes under the
		// identity permutation: this must fail even though Permutation
		// is still a valid bijection.
		tree.UnsortedCodes = []uint64{9, 9, 9, 9, 9}
		Expect(bvh.Verify(tree)).To(HaveOccurred())
	})
})

var _ = Describe("BVH invariants over larger random-ish trees", func() {
	It("verifies partition completeness and AABB pull-up for a bigger tree", func() {
		p := 37
		codes := make([]uint64, p)
		for i := range codes {
			codes[i] = uint64(i) * 3 // distinct, monotonic
		}
		lb, ub := boundsFor(p)
		tree, err := bvh.Build(bvh.SortOutput{Codes: codes, LB: lb, UB: ub, UnsortedCodes: codes, Permutation: identityPerm(p)})
		Expect(err).NotTo(HaveOccurred())
		Expect(bvh.Verify(tree)).To(Succeed())
	})

	It("verifies a tree with repeated and unique codes mixed together", func() {
		codes := []uint64{1, 1, 1, 2, 3, 3, 5, 8, 8, 8, 8}
		p := len(codes)
		lb, ub := boundsFor(p)
		tree, err := bvh.Build(bvh.SortOutput{Codes: codes, LB: lb, UB: ub, UnsortedCodes: codes, Permutation: identityPerm(p)})
		Expect(err).NotTo(HaveOccurred())
		Expect(bvh.Verify(tree)).To(Succeed())
	})

	It("verifies a tree wide enough to exercise the parallel per-level scan/reduce/for paths", func() {
		p := 500
		codes := make([]uint64, p)
		for i := range codes {
			codes[i] = uint64(i) * 7
		}
		lb, ub := boundsFor(p)
		tree, err := bvh.Build(bvh.SortOutput{Codes: codes, LB: lb, UB: ub, UnsortedCodes: codes, Permutation: identityPerm(p)})
		Expect(err).NotTo(HaveOccurred())
		Expect(bvh.Verify(tree)).To(Succeed())
	})
})
