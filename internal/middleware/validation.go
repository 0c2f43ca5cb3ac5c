package middleware

import (
	"reflect"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/jwalitptl/scheduler-api/internal/model"
)

// RegisterValidators installs scheduling-specific validators into gin's
// binding engine and makes validation errors report json field names.
func RegisterValidators() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}

	if err := v.RegisterValidation("timeslot", validTimeSlot); err != nil {
		panic(err)
	}

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return fld.Name
		}
		return name
	})
}

// validTimeSlot accepts only the fixed labeled windows doctors can offer.
func validTimeSlot(fl validator.FieldLevel) bool {
	return model.TimeSlot(fl.Field().String()).Valid()
}
