package iocdi

import (
	"cmp"
	"fmt"
	"maps"
	"reflect"
	"slices"
	"strings"

	"go.uber.org/zap"
)

// checkForDependency analyzes the provided beanType for any tagged dependencies and registers as a required dependency.
// It processes exported fields ONLY with the `di.inject` tag, identifying dependencies to be resolved later.
// Handles pointer-to-struct fields, string fields and interface fields, storing them in the requiredDependency map.
// Non-struct types or unexported fields are ignored during this process.
// Returns true if any dependencies were found, false otherwise.
func (c *Container) checkForDependency(beanType reflect.Type) (bool, []string) {
	// Check if the bean is a pointer to a struct or a struct
	if beanType.Kind() == reflect.Ptr {
		if beanType.Elem().Kind() != reflect.Struct {
			return false, nil
		}
	} else if beanType.Kind() != reflect.Struct {
		return false, nil
	}

	dependencyIDs := make([]string, 0)
	hasDependencies := false
	beanTypeElement := beanType
	if beanTypeElement.Kind() == reflect.Ptr {
		beanTypeElement = beanTypeElement.Elem()
	}
	for i := 0; i < beanTypeElement.NumField(); i++ {
		field := beanTypeElement.Field(i)
		tagName, exists := field.Tag.Lookup(string(inject))
		if !exists {
			continue
		}
		tagName = strings.ToLower(tagName) // Enforce lower-case tag names

		// We only support exported fields, otherwise it requires the use of unsafe pointers.
		if !field.IsExported() {
			continue
		}

		switch {
		case field.Type.Kind() == reflect.Ptr && field.Type.Elem().Kind() == reflect.Struct:
			c.requiredDependency[tagName] = field.Type.Elem()
		case field.Type.Kind() == reflect.String, field.Type.Kind() == reflect.Interface:
			c.requiredDependency[tagName] = field.Type
		default:
			continue
		}
		hasDependencies = true
		dependencyIDs = append(dependencyIDs, tagName)
	}

	return hasDependencies, dependencyIDs
}

// checkRequiredDependencies verifies that every required dependency has been registered
// and that the registered bean is type compatible with the fields that require it.
func (c *Container) checkRequiredDependencies() error {
	for beanID, requiredType := range c.requiredDependency {
		regBean, ok := c.registeredBeans[beanID]
		if !ok {
			// Allow missing string dependencies to be provided by a LiteralProvider at injection time.
			if requiredType.Kind() == reflect.String && loadLiteralProvider() != nil {
				continue
			}
			return fmt.Errorf("bean `%s` is required but not registered", beanID)
		}

		registeredType := regBean.beanType
		compatible := false

		switch requiredType.Kind() {
		case reflect.Struct:
			// Require pointer to struct of exactly the same underlying type
			compatible = registeredType.Kind() == reflect.Ptr && registeredType.Elem() == requiredType
		case reflect.Interface:
			// allow concrete (typically pointer-to-struct) that implements the interface
			compatible = registeredType.Implements(requiredType)
		default:
			// Simple types (e.g., string) must match exactly
			compatible = registeredType == requiredType
		}

		if !compatible {
			return fmt.Errorf("bean '%s' type mismatch: required %v, registered %v", beanID, requiredType, registeredType)
		}
	}
	return nil
}

// beanIDs returns the registered bean identifiers in registration order.
func (c *Container) beanIDs() []string {
	ids := slices.Collect(maps.Keys(c.registeredBeans))
	slices.SortFunc(ids, func(a, b string) int {
		return cmp.Compare(c.registeredBeans[a].seq, c.registeredBeans[b].seq)
	})
	return ids
}

// dependencyOrder returns every bean identifier such that each bean appears after all of
// its dependencies. Missing string dependencies are resolved through the literal provider
// and cached as synthetic beans.
func (c *Container) dependencyOrder() ([]string, error) {
	visited := make(map[string]bool) // fully processed
	onPath := make(map[string]bool)  // nodes in the current recursion stack
	path := make([]string, 0, 16)    // ordered path for clear errors
	order := make([]string, 0, len(c.registeredBeans))

	var visit func(id string) error
	visit = func(id string) error {
		bn, ok := c.registeredBeans[id]
		if !ok {
			return fmt.Errorf("dependencyOrder: receiver bean '%s' not found", id)
		}

		if onPath[id] {
			return fmt.Errorf("dependency cycle detected: %s", strings.Join(append(path, id), pathSep))
		}
		if visited[id] {
			return nil
		}

		onPath[id] = true
		path = append(path, id)

		for _, depBeanID := range bn.dependencies {
			if _, ok := c.registeredBeans[depBeanID]; !ok {
				if err := c.synthesizeLiteral(depBeanID, bn.id); err != nil {
					return err
				}
			}
			if err := visit(depBeanID); err != nil {
				return err
			}
		}

		onPath[id] = false
		path = path[:len(path)-1]
		visited[id] = true
		order = append(order, id)
		return nil
	}

	for _, id := range c.beanIDs() {
		if err := visit(id); err != nil {
			return nil, err
		}
	}
	return order, nil
}

// synthesizeLiteral asks the literal provider for a missing string dependency and, if
// found, registers it as a bean so downstream code can proceed uniformly.
func (c *Container) synthesizeLiteral(depBeanID, receiverID string) error {
	expectedType, okType := c.requiredDependency[depBeanID]
	if okType && expectedType.Kind() == reflect.String {
		if lp := loadLiteralProvider(); lp != nil {
			val, found, err := lp(depBeanID, expectedType)
			if err != nil {
				return fmt.Errorf("dependencyOrder: literal provider error for '%s': %w", depBeanID, err)
			}
			if found {
				c.registeredBeans[depBeanID] = bean{
					id:        depBeanID,
					seq:       c.seq.Add(1),
					instance:  val,
					beanType:  expectedType,
					singleton: true,
				}
				return nil
			}
		}
	}
	return fmt.Errorf("dependencyOrder: dependency bean '%s' for '%s' receiver bean not found", depBeanID, receiverID)
}

// postProcessorClosure returns the set of beans that implement PostProcessor together
// with all of their transitive dependencies.
func (c *Container) postProcessorClosure() map[string]bool {
	closure := make(map[string]bool)
	var mark func(id string)
	mark = func(id string) {
		if closure[id] {
			return
		}
		closure[id] = true
		for _, dep := range c.registeredBeans[id].dependencies {
			mark(dep)
		}
	}
	for id, bn := range c.registeredBeans {
		if bn.beanType != nil && bn.beanType.Implements(postProcessorType) {
			mark(id)
		}
	}
	return closure
}

// createBean runs a single bean through the creation pipeline. Its dependencies must
// already have been created. When postProcess is false the registry is bypassed.
func (c *Container) createBean(id string, postProcess bool) error {
	bn := c.registeredBeans[id]
	if bn.created {
		return nil
	}
	log := c.logger.With(zap.String("bean", id))

	if postProcess && bn.instance == nil {
		short, err := c.processors.ApplyBeforeInstantiation(bn.beanType, id)
		if err != nil {
			return &BeanCreationError{BeanID: id, Stage: StageInstantiation, Err: err}
		}
		if short != nil {
			log.Debug("instantiation short-circuited by post-processor")
			res, err := c.processors.ApplyAfterInitialization(short, id)
			if err != nil {
				return &BeanCreationError{BeanID: id, Stage: StageAfterInitialization, Err: err}
			}
			if !res.Halted() {
				if res.Bean() == nil {
					return &BeanCreationError{BeanID: id, Stage: StageAfterInitialization, Err: ErrNilBeanResult}
				}
				short = res.Bean()
			}
			c.store(bn, short)
			return nil
		}
	}

	instance := bn.instance
	if instance == nil {
		created, err := createInstance(bn.beanType)
		if err != nil {
			return &BeanCreationError{BeanID: id, Stage: StageInstantiation, Err: err}
		}
		instance = created
	}

	for _, depBeanID := range bn.dependencies {
		depBean := c.registeredBeans[depBeanID]
		if depBean.instance == nil {
			return &BeanCreationError{BeanID: id, Stage: StageInjection,
				Err: fmt.Errorf("dependency bean '%s' not instantiated", depBeanID)}
		}
		if err := injectIntoStruct(id, instance, depBeanID, depBean.instance); err != nil {
			return &BeanCreationError{BeanID: id, Stage: StageInjection, Err: err}
		}
	}

	if !postProcess {
		if err := initialize(instance); err != nil {
			return &BeanCreationError{BeanID: id, Stage: StageInitialization, Err: err}
		}
		c.store(bn, instance)
		return nil
	}

	res, err := c.processors.ApplyBeforeInitialization(instance, id)
	if err != nil {
		return &BeanCreationError{BeanID: id, Stage: StageBeforeInitialization, Err: err}
	}
	if res.Halted() {
		log.Warn("post-processing halted before initialization; initializer skipped")
		c.store(bn, instance)
		return nil
	}
	if res.Bean() == nil {
		return &BeanCreationError{BeanID: id, Stage: StageBeforeInitialization, Err: ErrNilBeanResult}
	}
	instance = res.Bean()

	if err := initialize(instance); err != nil {
		return &BeanCreationError{BeanID: id, Stage: StageInitialization, Err: err}
	}

	res, err = c.processors.ApplyAfterInitialization(instance, id)
	if err != nil {
		return &BeanCreationError{BeanID: id, Stage: StageAfterInitialization, Err: err}
	}
	switch {
	case res.Halted():
		log.Warn("post-processing halted after initialization")
	case res.Bean() == nil:
		return &BeanCreationError{BeanID: id, Stage: StageAfterInitialization, Err: ErrNilBeanResult}
	default:
		instance = res.Bean()
	}

	c.store(bn, instance)
	return nil
}

func (c *Container) store(bn bean, instance any) {
	bn.instance = instance
	bn.singleton = true
	bn.created = true
	c.registeredBeans[bn.id] = bn
	c.logger.Debug("bean created", zap.String("bean", bn.id), zap.String("type", fmt.Sprintf("%T", instance)))
}

func initialize(instance any) error {
	if initr, ok := instance.(Initializer); ok {
		return initr.Initialize()
	}
	return nil
}
