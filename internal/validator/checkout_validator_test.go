package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func validForm() CheckoutFormInput {
	return CheckoutFormInput{
		CustomerName:  "Anna Example",
		CustomerEmail: "anna@example.com",
		CustomerPhone: "+41 79 000 00 00",
		DeliveryType:  "delivery",
		Country:       "Switzerland",
		Street:        "Bahnhofstrasse 1",
		City:          "Zurich",
	}
}

func TestValidateCheckout_OK(t *testing.T) {
	v := NewCheckoutValidator()
	assert.NoError(t, v.ValidateCheckout(validForm()))
}

func TestValidateCheckout_PickupWithoutAddressOK(t *testing.T) {
	v := NewCheckoutValidator()

	form := validForm()
	form.DeliveryType = "pickup"
	form.Street = ""
	form.City = ""

	assert.NoError(t, v.ValidateCheckout(form))
}

func TestValidateCheckout_BadEmail(t *testing.T) {
	v := NewCheckoutValidator()

	form := validForm()
	form.CustomerEmail = "nope"

	err := v.ValidateCheckout(form)
	assert.EqualError(t, err, "invalid customer_email")
}

func TestValidateCheckout_BadDeliveryType(t *testing.T) {
	v := NewCheckoutValidator()

	form := validForm()
	form.DeliveryType = "teleport"

	err := v.ValidateCheckout(form)
	assert.EqualError(t, err, "invalid delivery_type")
}

func TestValidateCheckout_DeliveryNeedsStreet(t *testing.T) {
	v := NewCheckoutValidator()

	form := validForm()
	form.Street = ""

	err := v.ValidateCheckout(form)
	assert.EqualError(t, err, "invalid street")
}
