package propagate

import "sync"

// Factory builds a fresh BatchIntegrator instance for a given batch width
// and Taylor order. Constructing a batch integrator is expensive enough
// (JIT-compiling the right-hand side, allocating padded SIMD-lane buffers)
// that chunks reuse pooled instances across supersteps instead of paying
// that cost every call.
type Factory func(batchWidth, order int) BatchIntegrator

// InstancePool caches BatchIntegrator instances keyed by (batchWidth, order)
// so repeated supersteps over the same configuration do not repay
// construction cost.
type InstancePool struct {
	mu      sync.Mutex
	factory Factory
	free    map[poolKey][]BatchIntegrator
}

type poolKey struct {
	width int
	order int
}

// NewInstancePool builds a pool that constructs new instances via factory
// whenever no pooled one is free.
func NewInstancePool(factory Factory) *InstancePool {
	return &InstancePool{
		factory: factory,
		free:    make(map[poolKey][]BatchIntegrator),
	}
}

// Get returns a BatchIntegrator for the given batch width and order, either
// recycled from the pool or freshly constructed. The returned instance has
// its cooldowns reset and is otherwise ready to propagate.
func (p *InstancePool) Get(batchWidth, order int) BatchIntegrator {
	key := poolKey{width: batchWidth, order: order}

	p.mu.Lock()
	bucket := p.free[key]
	var integ BatchIntegrator
	if n := len(bucket); n > 0 {
		integ = bucket[n-1]
		p.free[key] = bucket[:n-1]
	}
	p.mu.Unlock()

	if integ == nil {
		integ = p.factory(batchWidth, order)
	}
	integ.ResetCooldowns()
	return integ
}

// Put returns an instance to the pool for reuse by a later superstep.
func (p *InstancePool) Put(integ BatchIntegrator) {
	key := poolKey{width: integ.BatchWidth(), order: integ.Order()}
	p.mu.Lock()
	p.free[key] = append(p.free[key], integ)
	p.mu.Unlock()
}
