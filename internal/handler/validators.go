package handler

import (
	"time"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/clinichub/scheduling-api/internal/model"
)

// RegisterValidators installs the custom binding rules used by request DTOs.
func RegisterValidators() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}

	v.RegisterValidation("clocktime", func(fl validator.FieldLevel) bool {
		_, err := time.Parse(model.ClockFormat, fl.Field().String())
		return err == nil
	})

	v.RegisterValidation("datevalue", func(fl validator.FieldLevel) bool {
		_, err := time.Parse(model.DateOnly, fl.Field().String())
		return err == nil
	})
}
