package iocdi

import (
	"fmt"
	"reflect"
	"strings"
)

func createInstance(beanType reflect.Type) (any, error) {
	if beanType.Kind() == reflect.Ptr {
		return reflect.New(beanType.Elem()).Interface(), nil
	}
	// Support direct struct kinds by creating a pointer to it,
	// so all created instances are pointers for consistency.
	if beanType.Kind() == reflect.Struct {
		return reflect.New(beanType).Interface(), nil
	}
	return nil, fmt.Errorf("beanType is not supported: %v", beanType.Kind())
}

// injectIntoStruct sets every field of receiver tagged with depID to dep. The dependency
// is matched on its dynamic type, so a post-processor's replacement is what gets injected.
func injectIntoStruct(receiverID string, receiver any, depID string, dep any) error {
	rv := reflect.ValueOf(receiver)
	if rv.Kind() == reflect.Ptr {
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return fmt.Errorf("injectIntoStruct: receiver bean '%s' is not a struct", receiverID)
	}

	depVal := reflect.ValueOf(dep)
	depType := depVal.Type()

	// Iterate exported fields and inject only when the tag matches the dependency id.
	for i := 0; i < rv.NumField(); i++ {
		sf := rv.Type().Field(i)
		// Normalize tag to lowercase to align with the container's lowercase bean ID policy.
		tagVal := sf.Tag.Get(string(inject))
		if tagVal == emptyString || strings.ToLower(tagVal) != depID {
			continue
		}

		fv := rv.Field(i)
		if !fv.CanSet() {
			continue
		}

		fieldType := fv.Type()

		// Exact type match, including basic types like string and exact pointer types
		if fieldType == depType {
			// Special-case: if this is a pointer to an empty struct, allocate a fresh instance to
			// avoid identical pointer values for zero-sized types (ensures distinct injections like LoggerA vs LoggerB).
			if depType.Kind() == reflect.Ptr && depType.Elem().Kind() == reflect.Struct && depType.Elem().NumField() == 0 {
				fv.Set(reflect.New(depType.Elem()))
			} else {
				fv.Set(depVal)
			}
			continue
		}

		// field is interface, dependency implements it
		if fieldType.Kind() == reflect.Interface && depType.Implements(fieldType) {
			fv.Set(depVal)
			continue
		}

		// field: *T, dep: T
		if fieldType.Kind() == reflect.Ptr && depType.Kind() == reflect.Struct && fieldType.Elem() == depType {
			ptr := reflect.New(depType)
			ptr.Elem().Set(depVal)
			fv.Set(ptr)
			continue
		}

		// field: T, dep: *T
		if fieldType.Kind() == reflect.Struct && depType.Kind() == reflect.Ptr && depType.Elem() == fieldType {
			fv.Set(depVal.Elem())
			continue
		}

		// A post-processor may have replaced the dependency with something the field cannot hold.
		return fmt.Errorf("%w: field '%s' of '%s' is %v, dependency '%s' is %v",
			ErrInjectionTypeMismatch, sf.Name, receiverID, fieldType, depID, depType)
	}

	return nil
}
