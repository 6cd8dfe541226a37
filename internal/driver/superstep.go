// Package driver orchestrates one superstep end to end: integration +
// AABB (C5), global reduction (C6), Morton sort (C7), BVH build (C8), and
// the optional verifier (C9). It is the composition root the CLI and
// tests call into; spec.md treats this orchestration, along with logging
// and persistence, as an external collaborator around the core modules.
package driver

import (
	"fmt"

	"github.com/ari-sharma/conjunction/internal/aabb"
	"github.com/ari-sharma/conjunction/internal/bvh"
	"github.com/ari-sharma/conjunction/internal/config"
	"github.com/ari-sharma/conjunction/internal/propagate"
	"github.com/ari-sharma/conjunction/internal/storage"
	"github.com/ari-sharma/conjunction/internal/telemetry"
)

// Superstep wires the core modules together for repeated runs against the
// same configuration.
type Superstep struct {
	cfg   *config.Config
	pool  *propagate.InstancePool
	log   *telemetry.Logger
	store *storage.Store
}

// New builds a Superstep driver. store may be nil to skip persistence.
func New(cfg *config.Config, factory propagate.Factory, log *telemetry.Logger, store *storage.Store) *Superstep {
	return &Superstep{
		cfg:   cfg,
		pool:  propagate.NewInstancePool(factory),
		log:   log,
		store: store,
	}
}

// Output is everything one superstep produces, per chunk.
type Output struct {
	RunID   string
	Global  []aabb.GlobalAABB
	Trees   []*bvh.Tree
	Sorted  []bvh.SortOutput
	Verify  []error
}

// Run drives a single superstep over states, producing one BVH tree per
// chunk. Index-vector initialisation for the eventual sort runs
// concurrently with the integration/AABB phase (spec.md §5's
// parallel_invoke), even though its result (the identity permutation) is
// only needed again once C7 starts.
func (s *Superstep) Run(states []aabb.State) (*Output, error) {
	k := s.cfg.Chunks
	idxVectors := make([][]int, k)

	var aabbResult *aabb.Result
	var aabbErr error

	swAABB := telemetry.NewStopwatch()
	err := propagate.ParallelInvoke(
		func() error {
			params := aabb.Params{
				Chunks:     s.cfg.Chunks,
				Dt:         s.cfg.Dt,
				BatchWidth: s.cfg.BatchSize,
				Order:      s.cfg.Order,
			}
			aabbResult, aabbErr = aabb.Run(states, params, s.pool)
			return aabbErr
		},
		func() error {
			p := len(states)
			for kk := 0; kk < k; kk++ {
				v := make([]int, p)
				for i := range v {
					v[i] = i
				}
				idxVectors[kk] = v
			}
			return nil
		},
	)
	if s.log != nil {
		s.log.TracePhase("aabb", -1, swAABB)
	}
	if err != nil {
		return nil, err
	}

	global := make([]aabb.GlobalAABB, k)
	for kk := 0; kk < k; kk++ {
		r := aabb.ReduceChunk(aabbResult.Chunks[kk])
		g, rerr := r.Finalize()
		if rerr != nil {
			return nil, &propagate.StepError{Phase: "reduce", Chunk: kk, Wrapped: rerr}
		}
		global[kk] = g
	}

	sortedAll := make([]bvh.SortOutput, k)
	trees := make([]*bvh.Tree, k)
	var buildErr error

	swSort := telemetry.NewStopwatch()
	propagate.ParallelFor(k, 1, func(start, end int) {
		for kk := start; kk < end; kk++ {
			sortedAll[kk] = bvh.Sort(bvh.SortInput{Global: global[kk], Bounds: aabbResult.Chunks[kk], InitPerm: idxVectors[kk]})
		}
	})
	if s.log != nil {
		s.log.TracePhase("sort", -1, swSort)
	}

	swBuild := telemetry.NewStopwatch()
	propagate.ParallelFor(k, 1, func(start, end int) {
		for kk := start; kk < end; kk++ {
			tree, terr := bvh.Build(sortedAll[kk])
			if terr != nil {
				buildErr = &propagate.StepError{Phase: "build", Chunk: kk, Wrapped: terr}
				return
			}
			trees[kk] = tree
		}
	})
	if s.log != nil {
		s.log.TracePhase("build", -1, swBuild)
	}
	if buildErr != nil {
		return nil, buildErr
	}

	out := &Output{Global: global, Trees: trees, Sorted: sortedAll}

	var verifyErrs []error
	if s.cfg.Verify {
		swVerify := telemetry.NewStopwatch()
		verifyErr := bvh.VerifyAllChunks(trees)
		if s.log != nil {
			s.log.TracePhase("verify", -1, swVerify)
		}
		if verifyErr != nil {
			verifyErrs = append(verifyErrs, verifyErr)
		}
	}
	out.Verify = verifyErrs

	if s.store != nil {
		meta := s.buildMetadata(trees)
		runID, serr := s.store.Save(meta)
		if serr != nil {
			return out, fmt.Errorf("conjunction: persisting run: %w", serr)
		}
		out.RunID = runID
	}

	return out, nil
}

func (s *Superstep) buildMetadata(trees []*bvh.Tree) storage.RunMetadata {
	perChunk := make([]storage.ChunkStats, len(trees))
	for i, t := range trees {
		leaves := 0
		for _, n := range t.Nodes {
			if n.IsLeaf() {
				leaves++
			}
		}
		perChunk[i] = storage.ChunkStats{
			Chunk:     i,
			Particles: len(t.SortedCodes),
			Nodes:     len(t.Nodes),
			Leaves:    leaves,
		}
	}
	return storage.RunMetadata{
		Timestamp: nowFunc(),
		Particles: len(trees[0].SortedCodes),
		Chunks:    s.cfg.Chunks,
		Dt:        s.cfg.Dt,
		BatchSize: s.cfg.BatchSize,
		Order:     s.cfg.Order,
		Seed:      s.cfg.Seed,
		Verified:  s.cfg.Verify,
		PerChunk:  perChunk,
	}
}
