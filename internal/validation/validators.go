package validation

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
	"github.com/storekit/storefront-api/internal/models"
)

var (
	// Validate is a shared validator instance
	Validate *validator.Validate
)

func init() {
	Validate = validator.New()

	if err := Validate.RegisterValidation("platform", validatePlatform); err != nil {
		panic(fmt.Sprintf("failed to register platform validator: %v", err))
	}
	if err := Validate.RegisterValidation("order_status", validateOrderStatus); err != nil {
		panic(fmt.Sprintf("failed to register order_status validator: %v", err))
	}
	if err := Validate.RegisterValidation("payment_status", validatePaymentStatus); err != nil {
		panic(fmt.Sprintf("failed to register payment_status validator: %v", err))
	}
}

func validatePlatform(fl validator.FieldLevel) bool {
	switch models.Platform(fl.Field().String()) {
	case models.PlatformWeb, models.PlatformMobile:
		return true
	default:
		return false
	}
}

func validateOrderStatus(fl validator.FieldLevel) bool {
	switch models.OrderStatus(fl.Field().String()) {
	case models.OrderStatusPending, models.OrderStatusConfirmed, models.OrderStatusShipped,
		models.OrderStatusDelivered, models.OrderStatusCancelled:
		return true
	default:
		return false
	}
}

func validatePaymentStatus(fl validator.FieldLevel) bool {
	switch models.PaymentStatus(fl.Field().String()) {
	case models.PaymentStatusUnpaid, models.PaymentStatusPaid,
		models.PaymentStatusFailed, models.PaymentStatusRefunded:
		return true
	default:
		return false
	}
}

// SanitizeText trims whitespace and removes control characters
func SanitizeText(text string) string {
	text = strings.TrimSpace(text)

	var sanitized strings.Builder
	for _, r := range text {
		if unicode.IsControl(r) && r != '\n' && r != '\t' {
			continue
		}
		sanitized.WriteRune(r)
	}

	return sanitized.String()
}

// ValidateOrderStatus validates an order status string value
func ValidateOrderStatus(value string) error {
	switch models.OrderStatus(value) {
	case models.OrderStatusPending, models.OrderStatusConfirmed, models.OrderStatusShipped,
		models.OrderStatusDelivered, models.OrderStatusCancelled:
		return nil
	default:
		return fmt.Errorf("invalid order_status: %s", value)
	}
}

// ValidatePaymentStatus validates a payment status string value
func ValidatePaymentStatus(value string) error {
	switch models.PaymentStatus(value) {
	case models.PaymentStatusUnpaid, models.PaymentStatusPaid,
		models.PaymentStatusFailed, models.PaymentStatusRefunded:
		return nil
	default:
		return fmt.Errorf("invalid payment_status: %s", value)
	}
}
