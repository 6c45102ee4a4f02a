package iocdi

import (
	"errors"
	"fmt"
)

var (
	ErrBeanIdParamIsEmpty    = errors.New("beanID parameter is empty")
	ErrBeanTypeParamIsNil    = errors.New("beanType parameter is nil")
	ErrBeanParamIsNil        = errors.New("bean parameter is nil")
	ErrBeanTypeNotSupported  = errors.New("beanType is not supported")
	ErrRegistrationClosed    = errors.New("container already built; registration is closed")
	ErrPostProcessorIsNil    = errors.New("post-processor parameter is nil")
	ErrNilBeanResult         = errors.New("post-processor continued with a nil bean; use Halt to stop processing")
	ErrInjectionTypeMismatch = errors.New("dependency cannot be assigned to tagged field")
)

// BeanCreationError reports that a bean could not be created. No instance is stored
// for a bean whose creation failed.
type BeanCreationError struct {
	BeanID string
	Stage  string
	Err    error
}

func (e *BeanCreationError) Error() string {
	return fmt.Sprintf("error creating bean '%s' during %s: %v", e.BeanID, e.Stage, e.Err)
}

func (e *BeanCreationError) Unwrap() error { return e.Err }
