package validation

import (
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/iyhunko/product-catalog/internal/model"
)

// ProductForm is the form-shaped submission body shared by the product
// creation flow. String-typed numeric fields are parsed decimal-safe during
// validation.
type ProductForm struct {
	Title        string `json:"title" validate:"required"`
	BodyHTML     string `json:"body_html" validate:"required,min=50"`
	Vendor       string `json:"vendor" validate:"required"`
	ProductType  string `json:"product_type"`
	Tags         string `json:"tags"`
	ImageURL     string `json:"image_url"`
	Status       string `json:"status" validate:"required,oneof=active draft archived"`
	OptionName   string `json:"option_name"`
	OptionValues string `json:"option_values"`
	Price        string `json:"price" validate:"required"`
	SKU          string `json:"sku"`
	Inventory    string `json:"inventory"`
}

// FieldError describes a single failed field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Errors is the structured list of per-field validation failures. A request
// with any failed field is rejected as a whole; nothing is partially applied.
type Errors []FieldError

// Error implements the error interface.
func (e Errors) Error() string {
	if len(e) == 0 {
		return "validation failed"
	}
	msgs := make([]string, 0, len(e))
	for _, fe := range e {
		msgs = append(msgs, fe.Field+": "+fe.Message)
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

var fieldMessages = map[string]string{
	"title.required":     "Title is required",
	"body_html.required": "Description must be at least 50 characters",
	"body_html.min":      "Description must be at least 50 characters",
	"vendor.required":    "Vendor is required",
	"status.required":    "Status is required",
	"status.oneof":       "Status must be one of: active, draft, archived",
	"price.required":     "Price is required",
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report field names by their json tag so error details match the wire
	// shape of the form.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// ParseProductForm validates a form submission and, when it passes, converts
// it into the nested product document: tags split and trimmed, a single
// default variant built from the price/sku/inventory fields, the optional
// image wrapped into a one-element list, and option_name/option_values
// combined into a single option when both are present.
func ParseProductForm(form ProductForm) (*model.Product, Errors) {
	var errs Errors

	if err := validate.Struct(form); err != nil {
		if invalid, ok := err.(*validator.InvalidValidationError); ok {
			errs = append(errs, FieldError{Field: "form", Message: invalid.Error()})
			return nil, errs
		}
		for _, fe := range err.(validator.ValidationErrors) {
			key := fe.Field() + "." + fe.Tag()
			msg, ok := fieldMessages[key]
			if !ok {
				msg = "Invalid value"
			}
			errs = append(errs, FieldError{Field: fe.Field(), Message: msg})
		}
	}

	price, priceErr := parsePrice(form.Price)
	if form.Price != "" && priceErr != nil {
		errs = append(errs, FieldError{Field: "price", Message: priceErr.message})
	}

	inventory, invErr := parseInventory(form.Inventory)
	if invErr != nil {
		errs = append(errs, FieldError{Field: "inventory", Message: invErr.message})
	}

	if len(errs) > 0 {
		return nil, errs
	}

	product := &model.Product{
		Title:       form.Title,
		BodyHTML:    form.BodyHTML,
		Vendor:      form.Vendor,
		ProductType: form.ProductType,
		Status:      model.ProductStatus(form.Status),
		Tags:        splitTags(form.Tags),
		Images:      []model.Image{},
		Options:     []model.Option{},
		Variants: []model.Variant{
			{
				Title:             "Default",
				Price:             price,
				SKU:               form.SKU,
				InventoryQuantity: inventory,
			},
		},
	}

	if form.ImageURL != "" {
		product.Images = append(product.Images, model.Image{Src: form.ImageURL})
	}

	if form.OptionName != "" && form.OptionValues != "" {
		product.Options = append(product.Options, model.Option{
			Name:   form.OptionName,
			Values: model.SplitOptionValues(form.OptionValues),
		})
	}

	return product, nil
}

type parseError struct {
	message string
}

// parsePrice parses a decimal price string and requires it to be positive.
// Going through decimal avoids accepting strings that only look numeric
// after a lossy float conversion.
func parsePrice(raw string) (float64, *parseError) {
	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return 0, &parseError{message: "Price must be a valid number"}
	}
	if !d.IsPositive() {
		return 0, &parseError{message: "Price must be greater than 0"}
	}
	return d.InexactFloat64(), nil
}

// parseInventory parses the optional inventory field, defaulting to 0.
func parseInventory(raw string) (int32, *parseError) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return 0, nil
	}
	n, err := strconv.ParseInt(trimmed, 10, 32)
	if err != nil || n < 0 {
		return 0, &parseError{message: "Inventory must be a non-negative integer"}
	}
	return int32(n), nil
}

// splitTags splits a comma separated tag string into trimmed tag names.
func splitTags(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return []string{}
	}
	parts := strings.Split(raw, ",")
	tags := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			tags = append(tags, trimmed)
		}
	}
	return tags
}
