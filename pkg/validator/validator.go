package validator

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin/binding"
	playground "github.com/go-playground/validator/v10"
)

// Register installs the custom binding rules used by request structs on
// gin's validator engine. Call it once before building the router.
func Register() error {
	engine, ok := binding.Validator.Engine().(*playground.Validate)
	if !ok {
		return errors.New("gin binding validator is not go-playground/validator")
	}
	if err := engine.RegisterValidation("dateonly", isDateOnly); err != nil {
		return err
	}
	return engine.RegisterValidation("timeslot", isTimeSlot)
}

// isDateOnly accepts calendar dates in YYYY-MM-DD form.
func isDateOnly(fl playground.FieldLevel) bool {
	_, err := time.Parse("2006-01-02", fl.Field().String())
	return err == nil
}

// isTimeSlot accepts 24-hour HH:MM slot labels.
func isTimeSlot(fl playground.FieldLevel) bool {
	_, err := time.Parse("15:04", fl.Field().String())
	return err == nil
}
