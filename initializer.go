package iocdi

// Initializer is an optional interface that a bean may implement to perform
// additional initialization after all of its dependencies have been injected.
//
// The container calls Initialize during Build, between the before-initialization
// and after-initialization post-processing stages, and after every dependency of the
// bean has itself been initialized. It is called on whatever instance the
// before-initialization stage produced. If Initialize returns an error, Build fails
// with a *BeanCreationError.
//
// Initialize is not called when a post-processor halts the before-initialization
// stage, or when an InstantiationAwarePostProcessor supplied the bean.
type Initializer interface {
	Initialize() error
}
