package iocdi

import "math"

const (
	emptyString = ""
	pathSep     = " -> "
)

type tag string

const (
	inject tag = "di.inject" // di.inject is the default tag for constructor injection. The field MUST be exported.
)

// lowestPrecedence is the order given to autodetected post-processors that do not implement Ordered.
const lowestPrecedence = math.MaxInt32

// Stage names reported in BeanCreationError.
const (
	StageInstantiation        = "instantiation"
	StageInjection            = "injection"
	StageBeforeInitialization = "before-initialization"
	StageInitialization       = "initialization"
	StageAfterInitialization  = "after-initialization"
)
