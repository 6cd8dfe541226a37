package propagate

import "testing"

func TestInstancePoolReuse(t *testing.T) {
	built := 0
	pool := NewInstancePool(func(width, order int) BatchIntegrator {
		built++
		return NewLinearIntegrator(width, order)
	})

	a := pool.Get(4, 2)
	pool.Put(a)
	b := pool.Get(4, 2)

	if built != 1 {
		t.Errorf("expected one construction, got %d", built)
	}
	if a != b {
		t.Errorf("expected the same pooled instance to be returned")
	}
}

func TestInstancePoolDifferentKeys(t *testing.T) {
	built := 0
	pool := NewInstancePool(func(width, order int) BatchIntegrator {
		built++
		return NewLinearIntegrator(width, order)
	})

	pool.Get(4, 2)
	pool.Get(8, 2)
	pool.Get(4, 3)

	if built != 3 {
		t.Errorf("expected three distinct constructions, got %d", built)
	}
}
