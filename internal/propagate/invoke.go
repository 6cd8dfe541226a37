package propagate

import "golang.org/x/sync/errgroup"

// ParallelInvoke runs every task concurrently and waits for all of them,
// matching spec.md §5's "parallel_invoke": index-vector initialisation for
// the Morton sort runs concurrently with the integration/AABB batch loop.
// It returns the first error encountered, after every task has finished.
func ParallelInvoke(tasks ...func() error) error {
	var g errgroup.Group
	for _, task := range tasks {
		g.Go(task)
	}
	return g.Wait()
}
