package validator

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// チェックアウトフォームの入力。
// delivery のときだけ住所が必須になる。
type CheckoutFormInput struct {
	CustomerName  string `json:"customer_name" validate:"required,max=255"`
	CustomerEmail string `json:"customer_email" validate:"required,email"`
	CustomerPhone string `json:"customer_phone" validate:"required,max=50"`

	DeliveryType string `json:"delivery_type" validate:"required,oneof=delivery pickup"`
	Country      string `json:"country" validate:"required,max=100"`

	Street     string `json:"street" validate:"required_if=DeliveryType delivery,max=255"`
	City       string `json:"city" validate:"required_if=DeliveryType delivery,max=100"`
	PostalCode string `json:"postal_code" validate:"max=20"`

	SpecialInstructions string `json:"special_instructions" validate:"max=2000"`
}

type CheckoutValidator struct {
	validate *validator.Validate
}

func NewCheckoutValidator() *CheckoutValidator {
	return &CheckoutValidator{validate: validator.New()}
}

// ValidateCheckout はフォームを検証して最初の違反をエラーで返す。
func (v *CheckoutValidator) ValidateCheckout(in CheckoutFormInput) error {
	if err := v.validate.Struct(in); err != nil {
		if errs, ok := err.(validator.ValidationErrors); ok && len(errs) > 0 {
			return fmt.Errorf("invalid %s", fieldName(errs[0].Field()))
		}
		return err
	}
	return nil
}

// jsonタグに合わせたフィールド名
func fieldName(field string) string {
	names := map[string]string{
		"CustomerName":        "customer_name",
		"CustomerEmail":       "customer_email",
		"CustomerPhone":       "customer_phone",
		"DeliveryType":        "delivery_type",
		"Country":             "country",
		"Street":              "street",
		"City":                "city",
		"PostalCode":          "postal_code",
		"SpecialInstructions": "special_instructions",
	}
	if n, ok := names[field]; ok {
		return n
	}
	return field
}
