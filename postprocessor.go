package iocdi

import "reflect"

// Result is the outcome of a single post-processing stage. A stage either continues
// with a (possibly replaced) bean, or halts processing for that bean.
type Result struct {
	bean   any
	halted bool
}

// Continue returns a Result that hands bean to the next post-processor.
func Continue(bean any) Result {
	return Result{bean: bean}
}

// Halt returns a Result that stops the remaining post-processors of the current stage.
func Halt() Result {
	return Result{halted: true}
}

// Halted reports whether the stage asked to stop processing.
func (r Result) Halted() bool { return r.halted }

// Bean returns the bean carried by the result, or nil if the result is halted.
func (r Result) Bean() any { return r.bean }

// PostProcessor allows custom modification of new bean instances, such as checking
// for marker interfaces or wrapping them in proxies.
//
// PostProcessBeforeInitialization runs after dependency injection and before the
// bean's Initializer. PostProcessAfterInitialization runs after the Initializer.
// Either stage may return a replacement for the bean it was given.
//
// Implementations that only care about one stage should embed NopPostProcessor.
type PostProcessor interface {
	PostProcessBeforeInitialization(bean any, beanID string) (Result, error)
	PostProcessAfterInitialization(bean any, beanID string) (Result, error)
}

// NopPostProcessor passes beans through unchanged in both stages.
type NopPostProcessor struct{}

// PostProcessBeforeInitialization returns bean unchanged.
func (NopPostProcessor) PostProcessBeforeInitialization(bean any, _ string) (Result, error) {
	return Continue(bean), nil
}

// PostProcessAfterInitialization returns bean unchanged.
func (NopPostProcessor) PostProcessAfterInitialization(bean any, _ string) (Result, error) {
	return Continue(bean), nil
}

// StageFunc is the function form of a single post-processing stage.
type StageFunc func(bean any, beanID string) (Result, error)

// PostProcessorFuncs adapts a pair of functions to PostProcessor.
// A nil function leaves the bean unchanged for that stage.
type PostProcessorFuncs struct {
	Before StageFunc
	After  StageFunc
}

// PostProcessBeforeInitialization calls Before, or returns bean unchanged if Before is nil.
func (f PostProcessorFuncs) PostProcessBeforeInitialization(bean any, beanID string) (Result, error) {
	if f.Before == nil {
		return Continue(bean), nil
	}
	return f.Before(bean, beanID)
}

// PostProcessAfterInitialization calls After, or returns bean unchanged if After is nil.
func (f PostProcessorFuncs) PostProcessAfterInitialization(bean any, beanID string) (Result, error) {
	if f.After == nil {
		return Continue(bean), nil
	}
	return f.After(bean, beanID)
}

// Ordered may be implemented by post-processors registered as beans. Autodetected
// post-processors are applied in ascending Order. It has no effect on post-processors
// added programmatically, which always run in registration order.
type Ordered interface {
	Order() int
}

// InstantiationAwarePostProcessor is a PostProcessor that may supply a bean before the
// container instantiates it. A non-nil return value is used as the bean: injection,
// the before-initialization stage and the Initializer are skipped, but the
// after-initialization stage still runs.
type InstantiationAwarePostProcessor interface {
	PostProcessor
	PostProcessBeforeInstantiation(beanType reflect.Type, beanID string) (any, error)
}

var postProcessorType = reflect.TypeOf((*PostProcessor)(nil)).Elem()
