package validator

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"menuhub/internal/models"

	playgroundvalidator "github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

// ValidationErrors wraps the validator's ValidationErrors
type ValidationErrors []playgroundvalidator.FieldError

// CustomValidator wraps go-playground/validator
type CustomValidator struct {
	validator *playgroundvalidator.Validate
}

// NewValidator creates a new validator instance
func NewValidator() echo.Validator {
	v := playgroundvalidator.New()

	// Report json names instead of Go field names
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	// Register custom validations
	for tag, fn := range map[string]playgroundvalidator.Func{
		"identity_role":     validateIdentityRole,
		"auth_method":       validateAuthMethod,
		"permission_module": validatePermissionModule,
	} {
		if err := v.RegisterValidation(tag, fn); err != nil {
			panic(fmt.Sprintf("register %s validation: %v", tag, err))
		}
	}

	return &CustomValidator{validator: v}
}

// Custom validation functions
func validateIdentityRole(fl playgroundvalidator.FieldLevel) bool {
	return models.IsValidRole(models.Role(fl.Field().String()))
}

func validateAuthMethod(fl playgroundvalidator.FieldLevel) bool {
	method := models.AuthMethod(fl.Field().String())
	return method == models.AuthMethodLocal || method == models.AuthMethodFederated
}

func validatePermissionModule(fl playgroundvalidator.FieldLevel) bool {
	return models.IsValidModule(models.Module(fl.Field().String()))
}

// Validate implements echo.Validator interface
func (cv *CustomValidator) Validate(i interface{}) error {
	if err := cv.validator.Struct(i); err != nil {
		var validationErrors playgroundvalidator.ValidationErrors
		if errors.As(err, &validationErrors) {
			return ValidationErrors(validationErrors)
		}
		return err
	}
	return nil
}

// Error implements the error interface for ValidationErrors
func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return ""
	}
	var fields []string
	for _, err := range ve {
		fields = append(fields, err.Field())
	}
	return fmt.Sprintf("validation failed on fields: %s", strings.Join(fields, ", "))
}

// Fields maps each failing field to the tag that rejected it.
func (ve ValidationErrors) Fields() map[string]string {
	fields := make(map[string]string, len(ve))
	for _, err := range ve {
		fields[err.Field()] = err.Tag()
	}
	return fields
}
