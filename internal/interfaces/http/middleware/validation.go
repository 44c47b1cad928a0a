package middleware

import (
	"errors"
	"reflect"
	"strings"

	"github.com/EthanMadison/hack-yourself.shop/internal/domain/shared"
	"github.com/EthanMadison/hack-yourself.shop/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// SetupValidator makes binding errors name fields by their form or json tag
func SetupValidator() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
			if name == "" {
				name = strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			}
			if name == "-" {
				return ""
			}
			return name
		})
	}
}

// Bind decodes the submitted form into obj. Rule violations come back as a
// VALIDATION_FAILED domain error listing the offending fields.
func Bind(c *gin.Context, obj any) error {
	err := c.ShouldBind(obj)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return shared.ErrInvalidInput.Wrap(err)
	}
	details := make([]string, 0, len(fieldErrs))
	for _, e := range fieldErrs {
		details = append(details, e.Field()+": "+validationMessage(e))
	}
	return shared.NewDomainError(dto.ErrCodeValidation, strings.Join(details, "; ")).Wrap(err)
}

func validationMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "email":
		return "is not a valid email"
	case "max":
		if e.Kind() == reflect.String {
			return "must be at most " + e.Param() + " characters"
		}
		return "must be at most " + e.Param()
	case "min":
		if e.Kind() == reflect.String {
			return "must be at least " + e.Param() + " characters"
		}
		return "must be at least " + e.Param()
	case "uuid":
		return "is not a valid id"
	case "url":
		return "is not a valid URL"
	default:
		return "failed " + e.Tag()
	}
}
