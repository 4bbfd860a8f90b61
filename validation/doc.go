// Package validation turns bad input into INVALID_INPUT errors.
//
// Structs are checked with go-playground/validator tags; field names in the
// result follow the mapstructure or json tag:
//
//	type Config struct {
//	    BatchSize int `mapstructure:"batch_size" validate:"gt=0"`
//	}
//	err := validation.Validate(cfg)
//
// Ad hoc values use the chained Validator:
//
//	err := validation.New().Min("skip", skip, 0).Err()
package validation
