// Package validation проверяет входные данные до обращения к хранилищу.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/mmeshcher/keystore/internal/model"
	"github.com/shopspring/decimal"
)

// FieldError описывает ошибку в одном поле запроса.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Errors содержит все ошибки валидации запроса.
type Errors []FieldError

// Error реализует интерфейс error.
func (e Errors) Error() string {
	parts := make([]string, 0, len(e))
	for _, fe := range e {
		parts = append(parts, fe.Field+": "+fe.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Add добавляет ошибку поля.
func (e *Errors) Add(field, message string) {
	*e = append(*e, FieldError{Field: field, Message: message})
}

// Err возвращает nil, если ошибок нет.
func (e Errors) Err() error {
	if len(e) == 0 {
		return nil
	}
	return e
}

// AsErrors извлекает ошибки валидации из цепочки err.
func AsErrors(err error) (Errors, bool) {
	var ve Errors
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}

var (
	emailRe = regexp.MustCompile(`^\w+([\.-]?\w+)*@\w+([\.-]?\w+)*(\.\w{2,3})+$`)
	phoneRe = regexp.MustCompile(`^\+?[0-9][0-9 ()\-]{6,14}$`)
)

var (
	once     sync.Once
	instance *validator.Validate
)

func get() *validator.Validate {
	once.Do(func() {
		instance = newValidator()
	})
	return instance
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	v.RegisterCustomTypeFunc(func(f reflect.Value) any {
		if d, ok := f.Interface().(decimal.Decimal); ok {
			return d.InexactFloat64()
		}
		return nil
	}, decimal.Decimal{})

	v.RegisterCustomTypeFunc(func(f reflect.Value) any {
		if id, ok := f.Interface().(uuid.UUID); ok && id != uuid.Nil {
			return id.String()
		}
		return ""
	}, uuid.UUID{})

	register := func(tag string, fn func(string) bool) {
		_ = v.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
			return fn(fl.Field().String())
		})
	}
	register("email", emailRe.MatchString)
	register("phone", phoneRe.MatchString)
	register("category", func(s string) bool { return model.Category(s).Valid() })
	register("platform", func(s string) bool { return model.Platform(s).Valid() })
	register("paymentmethod", func(s string) bool { return model.PaymentMethod(s).Valid() })
	register("orderstatus", func(s string) bool { return model.OrderStatus(s).Valid() })
	register("paymentstatus", func(s string) bool { return model.PaymentStatus(s).Valid() })
	register("role", func(s string) bool { return model.Role(s).Valid() })

	return v
}

// Struct проверяет структуру по тегам validate и возвращает Errors при нарушениях.
func Struct(s any) error {
	err := get().Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validate: %w", err)
	}

	out := make(Errors, 0, len(verrs))
	for _, fe := range verrs {
		out.Add(fieldPath(fe.Namespace()), message(fe))
	}
	return out
}

// fieldPath отбрасывает имя корневой структуры из пространства имён валидатора.
func fieldPath(ns string) string {
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

// messages содержит тексты ошибок по имени поля и тегу.
var messages = map[string]string{
	"items.min":          "At least one item is required",
	"productId.required": "Product ID is required",
	"quantity.min":       "Quantity must be a positive integer",
	"quantity.max":       "Quantity cannot exceed 10000",
	"paymentMethod":      "Invalid payment method",
	"fullName":           "Full name must be between 2 and 50 characters",
	"fullname":           "Full name must be between 2 and 50 characters",
	"email":              "Please provide a valid email",
	"phone":              "Please provide a valid phone number",
	"address":            "Address must be between 5 and 200 characters",
	"notes":              "Notes cannot exceed 500 characters",
	"reason":             "Reason cannot exceed 200 characters",
	"status":             "Invalid status",
	"paymentStatus":      "Invalid payment status",
	"key":                "Game key is required",
	"role":               "Invalid role",
	"password":           "Password must be at least 6 characters",
	"name":               "Product name must be between 2 and 100 characters",
	"description":        "Description must be between 10 and 2000 characters",
	"price":              "Price must be a positive number",
	"originalPrice":      "Original price must be a positive number",
	"category":           "Invalid category",
	"platform":           "Invalid platform",
	"mainImage":          "Main image must be a valid URL",
	"images.min":         "At least one image is required",
	"images":             "All images must be valid URLs",
	"screenshots":        "All screenshots must be valid URLs",
	"developer":          "Developer cannot exceed 100 characters",
	"publisher":          "Publisher cannot exceed 100 characters",
	"rating":             "Rating must be between 0 and 5",
	"reviewCount":        "Review count cannot be negative",
	"salePercentage":     "Sale percentage must be between 0 and 100",
	"stock":              "Stock cannot be negative",
}

func message(fe validator.FieldError) string {
	field := leaf(fe.Field())
	if m, ok := messages[field+"."+fe.Tag()]; ok {
		return m
	}
	if m, ok := messages[field]; ok {
		return m
	}
	return field + " is invalid"
}

// leaf убирает индекс элемента среза, например images[2] -> images.
func leaf(field string) string {
	if i := strings.IndexByte(field, '['); i >= 0 {
		return field[:i]
	}
	return field
}
