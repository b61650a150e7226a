// internal/config/validator.go
//
// Thin wrapper around go-playground/validator.
//
// Context
// -------
// `internal/config/loader.go` calls `validateStruct` immediately after it
// unmarshals the merged Koanf tree into a `Config` instance.  Any tag
// mismatch or validation error aborts startup, ensuring the binary never
// runs with partial, malformed, or missing configuration.
//
// Besides the built-in rules (`required`, `url`, `hostname_port`, `oneof`,
// numeric bounds) one custom rule is registered: `formvariant` accepts a
// definition id of the form `<name>/<version>` or the short `v<N>` alias.
//
// Notes
// -----
//   • Oxford commas, two spaces after periods.
//   • Section dividers use the simple comment style requested.

package config

import (
	"regexp"

	"github.com/go-playground/validator/v10"
)

//
// validator instance (package-level singleton)
//

var v = newValidator()

var variantRE = regexp.MustCompile(`^(v[0-9]+|[a-z0-9_-]+/[a-z0-9_.-]+)$`)

func newValidator() *validator.Validate {
	val := validator.New()
	_ = val.RegisterValidation("formvariant", func(fl validator.FieldLevel) bool {
		return variantRE.MatchString(fl.Field().String())
	})
	return val
}

//
// public API
//

// validateStruct returns the first validation error, or nil on success.
func validateStruct(c *Config) error {
	return v.Struct(c)
}
