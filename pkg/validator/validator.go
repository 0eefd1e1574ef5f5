package validator

import (
	"reflect"
	"regexp"
	"strings"

	"go-medical-appointment/internal/domain/entity"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/teambition/rrule-go"
)

var hhmmPattern = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d(:[0-5]\d)?$`)

type CustomValidator struct {
	validator *validator.Validate
}

func NewValidator() *CustomValidator {
	v := validator.New()

	// Report json field names so errors line up with the request body.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	v.RegisterCustomTypeFunc(decimalValue, decimal.Decimal{})
	_ = v.RegisterValidation("appointment_cost", validateAppointmentCost)
	_ = v.RegisterValidation("hhmm", validateHHMM)
	_ = v.RegisterValidation("calendar_view", validateCalendarView)
	_ = v.RegisterValidation("rrule", validateRRule)

	return &CustomValidator{
		validator: v,
	}
}

func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}

func (cv *CustomValidator) FormatValidationErrors(err error) map[string]string {
	errors := make(map[string]string)

	if validationErrors, ok := err.(validator.ValidationErrors); ok {
		for _, e := range validationErrors {
			field := e.Field()
			switch e.Tag() {
			case "required":
				errors[field] = field + " is required"
			case "email":
				errors[field] = field + " must be a valid email address"
			case "min":
				errors[field] = field + " must be at least " + e.Param() + " characters"
			case "max":
				errors[field] = field + " must be at most " + e.Param() + " characters"
			case "gte":
				errors[field] = field + " must be greater than or equal to " + e.Param()
			case "lte":
				errors[field] = field + " must be less than or equal to " + e.Param()
			case "oneof":
				errors[field] = field + " must be one of: " + e.Param()
			case "uuid":
				errors[field] = field + " must be a valid UUID"
			case "required_with":
				errors[field] = field + " is required when " + e.Param() + " is set"
			case "gtfield":
				errors[field] = field + " must be after " + e.Param()
			case "gt":
				errors[field] = field + " must be greater than " + e.Param()
			case "datetime":
				errors[field] = field + " must match the format " + e.Param()
			case "appointment_cost":
				errors[field] = field + " must be between 0 and " + entity.MaxAppointmentCost.String() + " with at most 2 decimal places"
			case "hhmm":
				errors[field] = field + " must be a time in HH:MM format"
			case "calendar_view":
				errors[field] = field + " must be one of: dayGridMonth, timeGridWeek, timeGridDay, listWeek"
			case "rrule":
				errors[field] = field + " must be a valid RFC 5545 recurrence rule"
			default:
				errors[field] = field + " is invalid"
			}
		}
	}

	return errors
}

// decimalValue exposes decimals to the validator as their canonical string.
func decimalValue(field reflect.Value) interface{} {
	if d, ok := field.Interface().(decimal.Decimal); ok {
		return d.String()
	}
	return nil
}

func validateAppointmentCost(fl validator.FieldLevel) bool {
	field := fl.Field()
	if field.Kind() != reflect.String {
		return false
	}
	cost, err := decimal.NewFromString(field.String())
	if err != nil {
		return false
	}
	return entity.ValidateCost(cost) == nil
}

func validateHHMM(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	return hhmmPattern.MatchString(value)
}

func validateCalendarView(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	return entity.CalendarView(value).Valid()
}

func validateRRule(fl validator.FieldLevel) bool {
	value := strings.TrimSpace(fl.Field().String())
	if value == "" {
		return false
	}
	_, err := rrule.StrToROption(value)
	return err == nil
}
