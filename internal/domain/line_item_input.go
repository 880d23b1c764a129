package domain

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	return v
}

// LineItemInput is what a caller supplies when adding to a cart.
type LineItemInput struct {
	ProductID string          `json:"productId" validate:"required"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Quantity  int             `json:"quantity" validate:"gte=1"`
	ImageRef  string          `json:"imageRef"`
	Color     string          `json:"color"`
	AddOn     *AddOn          `json:"addOn"`
}

func (in LineItemInput) Key() MergeKey {
	return LineItem{ProductID: in.ProductID, Color: in.Color, AddOn: in.AddOn}.Key()
}

// Validate rejects inputs the cart would otherwise accept silently.
func (in LineItemInput) Validate() error {
	if err := validate.Struct(in); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return &InvalidLineItemError{Field: fe.Field(), Reason: reasonFor(fe)}
		}
		return err
	}
	if in.UnitPrice.IsNegative() {
		return &InvalidLineItemError{Field: "unitPrice", Reason: "must not be negative"}
	}
	if in.AddOn != nil {
		if strings.TrimSpace(in.AddOn.ID) == "" {
			return &InvalidLineItemError{Field: "addOn.id", Reason: "is required"}
		}
		if in.AddOn.Price.IsNegative() {
			return &InvalidLineItemError{Field: "addOn.price", Reason: "must not be negative"}
		}
	}
	return nil
}

func reasonFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "gte":
		return "must be at least " + fe.Param()
	default:
		return "failed " + fe.Tag()
	}
}
