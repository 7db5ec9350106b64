package ticktick

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/harrisonrobin/ticktask/pkg/colors"
	"github.com/harrisonrobin/ticktask/pkg/model"
)

var validate *validator.Validate

func init() {
	validate = validator.New()

	if err := validate.RegisterValidation("ttcolor", validateColor); err != nil {
		panic(fmt.Sprintf("failed to register ttcolor validator: %v", err))
	}
	if err := validate.RegisterValidation("projectkind", validateProjectKind); err != nil {
		panic(fmt.Sprintf("failed to register projectkind validator: %v", err))
	}
	if err := validate.RegisterValidation("tagsort", validateTagSort); err != nil {
		panic(fmt.Sprintf("failed to register tagsort validator: %v", err))
	}
	if err := validate.RegisterValidation("priority", validatePriority); err != nil {
		panic(fmt.Sprintf("failed to register priority validator: %v", err))
	}
}

// validateColor accepts a hex color, or "" and "random" which builders
// replace with a random color.
func validateColor(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	return s == "" || s == colors.RandomKeyword || colors.Valid(s)
}

func validateProjectKind(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	return s == "" || model.ProjectKind(s).Valid()
}

func validateTagSort(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	return s == "" || model.TagSort(s).Valid()
}

func validatePriority(fl validator.FieldLevel) bool {
	return model.Priority(fl.Field().Int()).Valid()
}

// checkSpec runs the struct tags of a builder spec and reports failures as
// usage errors.
func checkSpec(spec any) error {
	err := validate.Struct(spec)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return usageErr("%v", err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s: invalid value %v (%s)", fe.Field(), fe.Value(), fe.Tag()))
	}
	return usageErr("%s", strings.Join(msgs, "; "))
}
