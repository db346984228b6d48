// Package validation runs struct-tag validation backed by
// go-playground/validator and reports failures as INVALID_INPUT AppErrors.
//
//	type WhisperConfig struct {
//	    Device string `mapstructure:"device" validate:"oneof=auto cpu cuda"`
//	}
//	err := validation.Validate(cfg)
package validation
