package iocdi

import (
	"cmp"
	"reflect"
	"slices"
	"sync"
	"sync/atomic"
)

// Registry holds post-processors in the order they were added.
//
// The list is only mutated while the owning container is being configured. Each
// pass iterates a snapshot, so passes for different beans may run concurrently.
type Registry struct {
	mu      sync.RWMutex
	frozen  atomic.Bool
	entries []PostProcessor
}

// NewRegistry returns a registry seeded with the given post-processors, in order.
func NewRegistry(processors ...PostProcessor) (*Registry, error) {
	r := &Registry{}
	for _, p := range processors {
		if err := r.Add(p); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Add appends a post-processor. Post-processors run in the order they are added;
// any Ordered implementation is ignored here.
func (r *Registry) Add(p PostProcessor) error {
	if p == nil {
		return ErrPostProcessorIsNil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.frozen.Load() {
		return ErrRegistrationClosed
	}
	r.entries = append(r.entries, p)
	return nil
}

// addOrdered appends autodetected post-processors sorted by Ordered (stable; those
// without an order go last, keeping their relative order).
func (r *Registry) addOrdered(ps []PostProcessor) {
	sorted := slices.Clone(ps)
	slices.SortStableFunc(sorted, func(a, b PostProcessor) int {
		return cmp.Compare(orderOf(a), orderOf(b))
	})
	r.mu.Lock()
	r.entries = append(r.entries, sorted...)
	r.mu.Unlock()
}

func (r *Registry) freeze() {
	r.mu.Lock()
	r.frozen.Store(true)
	r.mu.Unlock()
}

// Len returns the number of registered post-processors.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// PostProcessors returns a copy of the registered post-processors in application order.
func (r *Registry) PostProcessors() []PostProcessor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.entries)
}

// ApplyBeforeInitialization passes bean through every post-processor's
// before-initialization stage. The first Halt ends the pass and is returned as the
// overall result. The first error ends the pass and is returned unchanged.
func (r *Registry) ApplyBeforeInitialization(bean any, beanID string) (Result, error) {
	return r.apply(bean, beanID, PostProcessor.PostProcessBeforeInitialization)
}

// ApplyAfterInitialization is the after-initialization counterpart of
// ApplyBeforeInitialization.
func (r *Registry) ApplyAfterInitialization(bean any, beanID string) (Result, error) {
	return r.apply(bean, beanID, PostProcessor.PostProcessAfterInitialization)
}

func (r *Registry) apply(bean any, beanID string, stage func(PostProcessor, any, string) (Result, error)) (Result, error) {
	current := bean
	for _, p := range r.PostProcessors() {
		res, err := stage(p, current, beanID)
		if err != nil {
			return Result{}, err
		}
		if res.Halted() {
			return Halt(), nil
		}
		current = res.Bean()
	}
	return Continue(current), nil
}

// ApplyBeforeInstantiation asks each InstantiationAwarePostProcessor, in order, for a
// bean to use instead of a container-created instance. The first non-nil bean wins.
func (r *Registry) ApplyBeforeInstantiation(beanType reflect.Type, beanID string) (any, error) {
	for _, p := range r.PostProcessors() {
		ia, ok := p.(InstantiationAwarePostProcessor)
		if !ok {
			continue
		}
		bean, err := ia.PostProcessBeforeInstantiation(beanType, beanID)
		if err != nil {
			return nil, err
		}
		if bean != nil {
			return bean, nil
		}
	}
	return nil, nil
}

func orderOf(p PostProcessor) int {
	if o, ok := p.(Ordered); ok {
		return o.Order()
	}
	return lowestPrecedence
}
