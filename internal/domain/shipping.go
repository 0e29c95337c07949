package domain

import (
	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// ShippingDetails is snapshotted onto the order at creation time; later
// profile edits never touch placed orders.
type ShippingDetails struct {
	RecipientName string `json:"recipient_name" validate:"required"`
	Phone         string `json:"phone" validate:"required"`
	Address       string `json:"address" validate:"required"`
	City          string `json:"city" validate:"required"`
	PostalCode    string `json:"postal_code" validate:"required"`
}

// Validate returns a field -> message map for every failed rule, empty when
// the details are complete.
func (s ShippingDetails) Validate() map[string]string {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	fields := make(map[string]string)
	validationErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		fields["shipping"] = err.Error()
		return fields
	}
	for _, fe := range validationErrs {
		fields[jsonFieldName(fe.Field())] = "this field is required"
	}
	return fields
}

func jsonFieldName(structField string) string {
	switch structField {
	case "RecipientName":
		return "recipient_name"
	case "Phone":
		return "phone"
	case "Address":
		return "address"
	case "City":
		return "city"
	case "PostalCode":
		return "postal_code"
	}
	return structField
}
