// Package validation validates component descriptors and orchestrator
// configuration.
//
// It supports both struct tag validation (using the validator library) and
// programmatic validation with error collection.
//
// # Struct Tag Validation
//
//	type Descriptor struct {
//	    Name    string        `validate:"required,component_name"`
//	    Timeout time.Duration `validate:"gte=0"`
//	}
//	err := validation.Validate(desc)
//
// # Programmatic Validation
//
//	v := validation.New()
//	v.Check(len(deps) > 0, "dependencies", "must not be empty")
//	err := v.Validate()
package validation
