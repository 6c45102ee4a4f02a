package iocdi

import (
	"fmt"
	"reflect"
	"strings"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

type bean struct {
	id              string
	seq             uint64 // registration sequence; gives Build a stable traversal order
	beanType        reflect.Type
	instance        any
	singleton       bool
	hasDependencies bool
	dependencies    []string
	// created is set once the bean has been through the creation pipeline.
	created bool
}

type Container struct {
	buildLock sync.Mutex
	// Protects access to registeredBeans and requiredDependency during registration/build.
	regMu sync.RWMutex
	// Indicates whether the container has been built/finalized.
	built atomic.Bool
	seq   atomic.Uint64

	// requiredDependency maps bean identifiers to their corresponding reflect.Type, identifying dependencies
	// required by registered beans. For example, if `Service` has a dependency on `Config`, then `Config` will be
	// added to the requiredDependency list.
	requiredDependency map[string]reflect.Type

	// registeredBeans stores all registered beans mapped by their unique string identifiers.
	// This is the source of truth for all beans.
	registeredBeans map[string]bean

	// processors are applied around the initialization of every bean that is not itself
	// a post-processor (or a dependency of one).
	processors *Registry

	logger *zap.Logger
}

// Option configures a Container.
type Option func(*Container)

// WithLogger sets the logger used by the container. A nil logger is ignored.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Container) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithPostProcessors registers post-processors programmatically, in the given order.
// Nil entries are skipped.
func WithPostProcessors(ps ...PostProcessor) Option {
	return func(c *Container) {
		for _, p := range ps {
			if err := c.processors.Add(p); err != nil {
				c.logger.Warn("skipping post-processor", zap.Error(err))
			}
		}
	}
}

func New(opts ...Option) *Container {
	c := &Container{
		requiredDependency: make(map[string]reflect.Type),
		registeredBeans:    make(map[string]bean),
		processors:         &Registry{},
		logger:             zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Register registers a bean by its reflect.Type.
// If the type is a struct, it will be normalized to a pointer-to-struct for consistent injection semantics.
// The 'beanID' parameter is case-insensitive: identifiers and `di.inject` tags are both lower-cased.
//
// This method only supports registering structs and pointers to structs; simple types (e.g., string)
// must be registered as instances using RegisterInstance.
//
// A registered type implementing PostProcessor is detected during Build and applied to all other beans.
// Once detection has run, even in a Build that failed, further post-processor types are rejected
// with ErrRegistrationClosed.
func (c *Container) Register(beanID string, beanType reflect.Type) error {
	if beanID == emptyString {
		return ErrBeanIdParamIsEmpty
	}
	if beanType == nil {
		return ErrBeanTypeParamIsNil
	}
	if c.built.Load() {
		return ErrRegistrationClosed
	}

	beanID = strings.ToLower(beanID)

	// Normalize struct kind to pointer-to-struct
	switch beanType.Kind() {
	case reflect.Ptr:
		if beanType.Elem().Kind() != reflect.Struct {
			return ErrBeanTypeNotSupported
		}
	case reflect.Struct:
		beanType = reflect.PointerTo(beanType)
	default:
		// Use RegisterInstance for simple literals instead.
		return ErrBeanTypeNotSupported
	}

	c.regMu.Lock()
	defer c.regMu.Unlock()
	if c.postProcessorsDetected(beanType) {
		return ErrRegistrationClosed
	}
	hasDeps, deps := c.checkForDependency(beanType)
	c.registeredBeans[beanID] = bean{
		id:              beanID,
		seq:             c.seq.Add(1),
		beanType:        beanType,
		instance:        nil, // instance will be created during Build
		singleton:       false,
		hasDependencies: hasDeps,
		dependencies:    deps,
	}
	return nil
}

// RegisterInstance registers a concrete instance for type T.
// The instance is treated as a singleton. Struct instances are normalized to pointers.
// Post-processors still apply to the instance, but instantiation-aware post-processors
// are not consulted since the instance already exists.
func (c *Container) RegisterInstance(beanID string, instance any) error {
	if beanID == emptyString {
		return ErrBeanIdParamIsEmpty
	}
	if instance == nil {
		return ErrBeanParamIsNil
	}
	if c.built.Load() {
		return ErrRegistrationClosed
	}

	beanID = strings.ToLower(beanID) // Enforce lower-case bean identifiers

	beanType := reflect.TypeOf(instance)

	// Normalize struct instances to pointers for consistent type comparisons and injection behavior.
	// This ensures pointer-typed fields can be injected even if the user registered a struct value.
	if beanType.Kind() == reflect.Struct {
		ptr := reflect.New(beanType)
		ptr.Elem().Set(reflect.ValueOf(instance))
		instance = ptr.Interface()
		beanType = ptr.Type()
	}

	c.regMu.Lock()
	defer c.regMu.Unlock()
	if c.postProcessorsDetected(beanType) {
		return ErrRegistrationClosed
	}
	has, deps := c.checkForDependency(beanType)
	c.registeredBeans[beanID] = bean{
		id:              beanID,
		seq:             c.seq.Add(1),
		beanType:        beanType,
		instance:        instance,
		singleton:       true,
		hasDependencies: has,
		dependencies:    deps,
	}
	return nil
}

// postProcessorsDetected reports whether beanType is a post-processor arriving after
// detection already ran in an earlier, failed Build. Callers must hold regMu.
func (c *Container) postProcessorsDetected(beanType reflect.Type) bool {
	return beanType.Implements(postProcessorType) && c.processors.frozen.Load()
}

// AddPostProcessor registers a post-processor programmatically. Programmatic
// post-processors run in registration order, before any autodetected ones.
func (c *Container) AddPostProcessor(p PostProcessor) error {
	if c.built.Load() {
		return ErrRegistrationClosed
	}
	return c.processors.Add(p)
}

// PostProcessors returns the post-processors in the order they are applied. After
// Build this includes autodetected post-processor beans.
func (c *Container) PostProcessors() []PostProcessor {
	return c.processors.PostProcessors()
}

// Build finalizes the container by verifying all required dependencies are registered
// and creating every registered bean in dependency order.
//
// Post-processor beans (and whatever they depend on) are created first, without
// post-processing, and appended to the registry. Every other bean then goes through:
// instantiation, injection, the before-initialization stage, Initializer, and the
// after-initialization stage. The instance left at the end replaces the registered one.
//
// If the container has already been built, this method is a no-op.
func (c *Container) Build() (err error) {
	c.buildLock.Lock()
	defer c.buildLock.Unlock()

	// Idempotent: if already built, nothing to do.
	if c.built.Load() {
		return nil
	}

	// All map reads/writes inside Build happen under regMu for safety against concurrent registration.
	c.regMu.Lock()
	defer func() {
		// Mark as built only on successful completion.
		if err == nil {
			c.built.Store(true)
		}
		c.regMu.Unlock()
	}()

	if err = c.checkRequiredDependencies(); err != nil {
		return err
	}

	order, err := c.dependencyOrder()
	if err != nil {
		return err
	}

	// Post-processor beans and their dependencies must exist before anything else is created.
	// A retried Build finds the registry already frozen and skips detection.
	infra := c.postProcessorClosure()
	if !c.processors.frozen.Load() {
		detected := make([]PostProcessor, 0)
		for _, id := range order {
			if !infra[id] {
				continue
			}
			if err = c.createBean(id, false); err != nil {
				return err
			}
			if p, ok := c.registeredBeans[id].instance.(PostProcessor); ok {
				c.logger.Info("detected post-processor bean", zap.String("bean", id))
				detected = append(detected, p)
			} else {
				c.logger.Info("bean is not eligible for post-processing", zap.String("bean", id))
			}
		}
		c.processors.addOrdered(detected)
		c.processors.freeze()
	}

	for _, id := range order {
		if infra[id] {
			continue
		}
		if err = c.createBean(id, true); err != nil {
			return err
		}
	}

	c.logger.Debug("container built",
		zap.Int("beans", len(c.registeredBeans)),
		zap.Int("post_processors", c.processors.Len()))
	return nil
}

// Resolve returns a bean instance by its ID or panics if it cannot be resolved.
// Prefer ResolveSafe in production code to handle errors gracefully.
func (c *Container) Resolve(beanID string) any {
	v, err := c.ResolveSafe(beanID)
	if err != nil {
		panic(err)
	}
	return v
}

// ResolveSafe returns a bean instance by its ID.
// It ensures the container is built before resolving and returns an error on failure.
func (c *Container) ResolveSafe(beanID string) (any, error) {
	if beanID == emptyString {
		return nil, ErrBeanIdParamIsEmpty
	}

	beanID = strings.ToLower(beanID)

	// Ensure the container is built before resolving.
	if !c.built.Load() {
		if err := c.Build(); err != nil {
			return nil, err
		}
	}

	// Look up the bean safely under read lock.
	c.regMu.RLock()
	bn, ok := c.registeredBeans[beanID]
	c.regMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("bean '%s' not found", beanID)
	}

	if bn.instance == nil {
		return nil, fmt.Errorf("bean '%s' is not initialized", beanID)
	}

	return bn.instance, nil
}

// ResolveAs returns a bean instance by its ID and casts it to type T.
// It ensures the container is built before resolving and returns an error on failure.
func ResolveAs[T any](c *Container, beanID string) (T, error) {
	v, err := c.ResolveSafe(beanID)
	if err != nil {
		var zero T
		return zero, err
	}
	x, ok := v.(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf("bean '%s' is not of requested type", beanID)
	}
	return x, nil
}
