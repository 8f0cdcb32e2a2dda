// Package validator provides custom validation functions for Gin's binding
// engine and turns validation failures into client-facing messages.
package validator

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/JohanDJ0/restapi-gastos/internal/models"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var hexColorRegex = regexp.MustCompile(`^#([0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// enumTags maps each custom enum tag to its accepted values.
var enumTags = map[string]func() []string{
	"budget_kind":      models.BudgetKinds,
	"budget_status":    models.BudgetStatuses,
	"transaction_type": models.TransactionTypes,
	"category_type":    models.CategoryTypes,
	"leftover_action":  models.LeftoverActions,
}

// Register registers all custom validators with the Gin binding engine.
func Register() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(jsonFieldName)
		_ = v.RegisterValidation("hex_color", validateHexColor)
		for tag, values := range enumTags {
			_ = v.RegisterValidation(tag, oneOf(values()))
		}
	}
}

// jsonFieldName reports fields by their wire name in validation errors.
func jsonFieldName(fld reflect.StructField) string {
	name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	if name == "-" {
		return ""
	}
	if name == "" {
		name = strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
	}
	return name
}

func validateHexColor(fl validator.FieldLevel) bool {
	return hexColorRegex.MatchString(fl.Field().String())
}

func oneOf(values []string) validator.Func {
	return func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		for _, v := range values {
			if s == v {
				return true
			}
		}
		return false
	}
}

// Message renders a binding error as a single human-readable sentence.
// Enum failures list the accepted values.
func Message(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "Invalid request body"
	}

	fe := verrs[0]
	field := fe.Field()
	if values, ok := enumTags[fe.Tag()]; ok {
		return fmt.Sprintf("Invalid %s %q. Accepted values: %s", field, fmt.Sprint(fe.Value()), strings.Join(values(), ", "))
	}
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "hex_color":
		return fmt.Sprintf("%s must be a hex color like #28a745", field)
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "uuid", "uuid4", "uuid7":
		return fmt.Sprintf("%s must be a valid id", field)
	}
	return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
}
