package validation

import (
	"errors"
	"reflect"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/ukydev/mashinman/internal/jalali"
	"github.com/ukydev/mashinman/internal/maintenance"
	"github.com/ukydev/mashinman/internal/models"
)

// Validator wraps go-playground validator with the Iranian and domain rules.
type Validator struct {
	validate *validator.Validate
}

// FieldError describes one rejected field of a request body.
type FieldError struct {
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Message string `json:"message"`
}

// New builds a Validator whose service_type rule follows policy.
func New(policy maintenance.Policy) *Validator {
	v := validator.New()

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = v.RegisterValidation("iranian_plate", func(fl validator.FieldLevel) bool {
		return IsValidLicensePlate(fl.Field().String())
	})
	_ = v.RegisterValidation("iranian_phone", func(fl validator.FieldLevel) bool {
		return IsValidPhone(fl.Field().String())
	})
	_ = v.RegisterValidation("jalali_date", func(fl validator.FieldLevel) bool {
		_, err := jalali.Parse(fl.Field().String())
		return err == nil
	})
	_ = v.RegisterValidation("car_brand", func(fl validator.FieldLevel) bool {
		return IsKnownBrand(fl.Field().String())
	})
	_ = v.RegisterValidation("service_type", func(fl validator.FieldLevel) bool {
		return policy.IsServiceType(fl.Field().String())
	})
	_ = v.RegisterValidation("emergency_type", func(fl validator.FieldLevel) bool {
		return slices.Contains(models.EmergencyTypes, fl.Field().String())
	})

	return &Validator{validate: v}
}

// Validate validates a struct.
func (v *Validator) Validate(i any) error {
	return v.validate.Struct(i)
}

// FieldErrors flattens a validation error into per-field messages.
// It returns nil for errors that did not come from Validate.
func FieldErrors(err error) []FieldError {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	out := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, FieldError{
			Field:   fe.Field(),
			Tag:     fe.Tag(),
			Message: messageFor(fe.Tag()),
		})
	}
	return out
}

func messageFor(tag string) string {
	switch tag {
	case "required":
		return "این فیلد الزامی است."
	case "iranian_plate":
		return "فرمت پلاک نامعتبر است."
	case "iranian_phone":
		return "شماره تلفن نامعتبر است."
	case "jalali_date":
		return "تاریخ نامعتبر است."
	case "car_brand":
		return "برند خودرو نامعتبر است."
	case "service_type":
		return "نوع سرویس نامعتبر است."
	case "emergency_type":
		return "نوع درخواست اضطراری نامعتبر است."
	case "email":
		return "ایمیل نامعتبر است."
	case "latitude", "longitude":
		return "مختصات جغرافیایی نامعتبر است."
	case "min", "max", "gt", "gte", "lte", "oneof":
		return "مقدار وارد شده خارج از محدوده مجاز است."
	default:
		return "مقدار نامعتبر است."
	}
}
